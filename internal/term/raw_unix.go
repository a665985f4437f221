//go:build linux || darwin || freebsd || netbsd || openbsd

package term

import (
	"golang.org/x/sys/unix"
)

// Raw holds the terminal settings to put back on Restore.
type Raw struct {
	fd      int
	restore unix.Termios
}

// EnterRaw switches fd to unbuffered, non-echoing input. Reads block until at
// least one byte arrives.
func EnterRaw(fd int) (*Raw, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	r := &Raw{fd: fd, restore: *termios}
	state := *termios

	state.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL
	state.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	state.Cflag &^= unix.CSIZE | unix.PARENB
	state.Cflag |= unix.CS8

	state.Cc[unix.VMIN] = 1
	state.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &state); err != nil {
		return nil, err
	}
	return r, nil
}

// Restore puts the terminal back the way EnterRaw found it.
func (r *Raw) Restore() error {
	return unix.IoctlSetTermios(r.fd, ioctlSetTermios, &r.restore)
}
