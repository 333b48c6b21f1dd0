//go:build darwin

package hub

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller implements Poller over a kqueue instance, grounded on the
// teacher's poller_darwin.go. Read and write interest are tracked as
// separate kevent filters since kqueue, unlike epoll, has no single
// combined-interest update call.
type kqueuePoller struct {
	kq   int
	wake *wakeHandle
	mu   sync.Mutex
	fds  map[int]IOEvents
	buf  []unix.Kevent_t
}

func newPoller(maxFDs int) (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	w, err := newWakeHandle()
	if err != nil {
		_ = unix.Close(kq)
		return nil, err
	}
	p := &kqueuePoller{
		kq:   kq,
		wake: w,
		fds:  make(map[int]IOEvents, maxFDs),
		buf:  make([]unix.Kevent_t, 256),
	}
	changes := []unix.Kevent_t{{
		Ident:  uint64(w.readFD),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *kqueuePoller) applyChangeList(fd int, prev, next IOEvents) error {
	var changes []unix.Kevent_t
	if (prev&EventRead != 0) != (next&EventRead != 0) {
		flag := uint16(unix.EV_DELETE)
		if next&EventRead != 0 {
			flag = unix.EV_ADD
		}
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flag})
	}
	if (prev&EventWrite != 0) != (next&EventWrite != 0) {
		flag := uint16(unix.EV_DELETE)
		if next&EventWrite != 0 {
			flag = unix.EV_ADD
		}
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flag})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) RegisterFD(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fds[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	if err := p.applyChangeList(fd, 0, events); err != nil {
		return err
	}
	p.fds[fd] = events
	return nil
}

func (p *kqueuePoller) ModifyFD(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	if err := p.applyChangeList(fd, prev, events); err != nil {
		return err
	}
	p.fds[fd] = events
	return nil
}

func (p *kqueuePoller) UnregisterFD(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	delete(p.fds, fd)
	return p.applyChangeList(fd, prev, 0)
}

func (p *kqueuePoller) PollIO(timeout time.Duration) ([]PollEvent, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.buf, ts)
	if err == unix.EINTR {
		return nil, ErrInterrupted
	}
	if err != nil {
		return nil, err
	}
	merged := make(map[int]IOEvents, n)
	for i := 0; i < n; i++ {
		ev := p.buf[i]
		fd := int(ev.Ident)
		if fd == p.wake.readFD {
			p.wake.drain()
			continue
		}
		switch ev.Filter {
		case unix.EVFILT_READ:
			merged[fd] |= EventRead
		case unix.EVFILT_WRITE:
			merged[fd] |= EventWrite
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			merged[fd] |= EventError
		}
	}
	out := make([]PollEvent, 0, len(merged))
	for fd, ev := range merged {
		out = append(out, PollEvent{FD: fd, Events: ev})
	}
	return out, nil
}

func (p *kqueuePoller) Wake() { p.wake.signal() }

func (p *kqueuePoller) Close() error {
	_ = p.wake.close()
	return unix.Close(p.kq)
}
