//go:build linux

package hub

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller implements Poller over Linux epoll, grounded on the teacher's
// poller_linux.go: one epoll instance, a wake fd registered for read
// interest, and a reusable 256-entry events buffer.
type epollPoller struct {
	epfd int
	wake *wakeHandle
	mu   sync.Mutex
	fds  map[int]bool
	buf  []unix.EpollEvent
}

func newPoller(maxFDs int) (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	w, err := newWakeHandle()
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	p := &epollPoller{
		epfd: epfd,
		wake: w,
		fds:  make(map[int]bool, maxFDs),
		buf:  make([]unix.EpollEvent, 256),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, p.wake.readFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(p.wake.readFD),
	}); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func toEpollMask(events IOEvents) uint32 {
	var m uint32
	if events&EventRead != 0 {
		m |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

func fromEpollMask(m uint32) IOEvents {
	var e IOEvents
	if m&(unix.EPOLLIN|unix.EPOLLHUP) != 0 {
		e |= EventRead
	}
	if m&unix.EPOLLOUT != 0 {
		e |= EventWrite
	}
	if m&unix.EPOLLERR != 0 {
		e |= EventError
	}
	return e
}

func (p *epollPoller) RegisterFD(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fds[fd] {
		return ErrFDAlreadyRegistered
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: toEpollMask(events),
		Fd:     int32(fd),
	}); err != nil {
		return err
	}
	p.fds[fd] = true
	return nil
}

func (p *epollPoller) ModifyFD(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fds[fd] {
		return ErrFDNotRegistered
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: toEpollMask(events),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) UnregisterFD(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fds[fd] {
		return ErrFDNotRegistered
	}
	delete(p.fds, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) PollIO(timeout time.Duration) ([]PollEvent, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(p.epfd, p.buf, ms)
	if err == unix.EINTR {
		return nil, ErrInterrupted
	}
	if err != nil {
		return nil, err
	}
	out := make([]PollEvent, 0, n)
	for i := 0; i < n; i++ {
		ev := p.buf[i]
		fd := int(ev.Fd)
		if fd == p.wake.readFD {
			p.wake.drain()
			continue
		}
		out = append(out, PollEvent{FD: fd, Events: fromEpollMask(ev.Events)})
	}
	return out, nil
}

func (p *epollPoller) Wake() { p.wake.signal() }

func (p *epollPoller) Close() error {
	_ = p.wake.close()
	return unix.Close(p.epfd)
}
