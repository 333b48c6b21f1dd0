//go:build linux || darwin

package hub

import "golang.org/x/sys/unix"

// closeFD, readFD and writeFD wrap the raw unix syscalls used by both the
// epoll and kqueue bindings and by the self-pipe/eventfd wake mechanism.
// Adapted directly from the teacher's fd_unix.go, which these platform
// bindings still need verbatim: there is no idiomatic way to make a single
// byte read-or-write on a raw fd less literal than the syscall itself.

func closeFD(fd int) error {
	return unix.Close(fd)
}

func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

func readFD(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func writeFD(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Write(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}
