// Package term wires a raw-mode host terminal to the emulator's UART,
// per spec.md §5/§6: a reader goroutine feeds PushByte, OnOutput writes
// straight to stdout, and the terminal is restored to cooked mode on
// exit — including on panic, grounded on lassandro-golc3's term.go.
package term

import (
	"os"

	"golang.org/x/sys/unix"
)

// Console owns the host terminal for the lifetime of one emulator run.
type Console struct {
	fd      int
	restore unix.Termios
	raw     bool
}

// NewConsole puts stdin into raw mode (no echo, no line buffering, no
// signal-generating control characters) so the guest's UART sees every
// keystroke byte-for-byte.
func NewConsole() (*Console, error) {
	fd := int(os.Stdin.Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	c := &Console{fd: fd, restore: *termios}

	raw := *termios
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL | unix.IXON
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}
	c.raw = true
	return c, nil
}

// Restore puts the terminal back into whatever mode it was in before
// NewConsole. Safe to call more than once, and from a deferred
// recover() path after a panic.
func (c *Console) Restore() {
	if c == nil || !c.raw {
		return
	}
	_ = unix.IoctlSetTermios(c.fd, unix.TCSETS, &c.restore)
	c.raw = false
}

// ReadLoop blocks reading stdin one byte at a time and calls push for
// each, until stdin is closed or an error occurs. It is meant to run in
// its own goroutine for the lifetime of the emulator.
func (c *Console) ReadLoop(push func(byte)) error {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			push(buf[0])
		}
		if err != nil {
			return err
		}
	}
}

// WriteByte writes one guest-produced output byte straight to stdout,
// the OnOutput side of the contract in spec.md §6.
func WriteByte(b byte) {
	os.Stdout.Write([]byte{b})
}
