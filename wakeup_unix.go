//go:build linux || darwin

package hub

import "golang.org/x/sys/unix"

// wakeHandle is a self-pipe (or eventfd on Linux) used to interrupt a
// blocked PollIO call from another goroutine — the Submit fast-wake path
// and Stop both rely on it. Grounded on the teacher's wakeup_linux.go, which
// prefers eventfd when available and falls back to a pipe; this repo keeps
// that preference but folds Linux/Darwin behind one file since both targets
// ultimately just need a read-end fd registered with the poller and a
// write-end fd any goroutine can hit.
type wakeHandle struct {
	readFD  int
	writeFD int
	isEFD   bool
}

func newWakeHandle() (*wakeHandle, error) {
	if fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC); err == nil {
		return &wakeHandle{readFD: fd, writeFD: fd, isEFD: true}, nil
	}
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &wakeHandle{readFD: fds[0], writeFD: fds[1]}, nil
}

// signal makes the read end of the handle become readable. Safe to call
// from any goroutine; safe to call redundantly before the poller has drained
// a previous signal (coalesces, same as the teacher's wakeup semantics —
// the reader only cares that at least one signal arrived).
func (w *wakeHandle) signal() {
	if w.isEFD {
		var buf [8]byte
		buf[7] = 1
		_, _ = writeFD(w.writeFD, buf[:])
		return
	}
	_, _ = writeFD(w.writeFD, []byte{1})
}

// drain empties the read end after the poller observes it as readable.
func (w *wakeHandle) drain() {
	var buf [64]byte
	for {
		n, err := readFD(w.readFD, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (w *wakeHandle) close() error {
	if w.isEFD {
		return closeFD(w.readFD)
	}
	err1 := closeFD(w.readFD)
	err2 := closeFD(w.writeFD)
	if err1 != nil {
		return err1
	}
	return err2
}
