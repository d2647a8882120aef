//go:build unix

package listener

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// setNonblock puts the socket behind conn into non-blocking mode without
// detaching it from the runtime poller.
func setNonblock(conn any) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw conn: %w", err)
	}
	var opErr error
	if err := raw.Control(func(fd uintptr) {
		opErr = unix.SetNonblock(int(fd), true)
	}); err != nil {
		return fmt.Errorf("control: %w", err)
	}
	if opErr != nil {
		return fmt.Errorf("set non-blocking: %w", opErr)
	}
	return nil
}
