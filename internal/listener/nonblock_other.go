//go:build !unix

package listener

// setNonblock is a no-op where sockets are always handed to the poller
// in non-blocking mode.
func setNonblock(any) error {
	return nil
}
