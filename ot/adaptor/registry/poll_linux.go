//go:build linux

package registry

import (
	"time"

	"golang.org/x/sys/unix"
)

// PollFallback blocks until fd becomes readable or timeout elapses. It
// exists only for a Fetcher whose transport has no native event-push
// mechanism (the happy path assumes one, as PipeWire's proxy events do):
// such a Fetcher can poll fd itself between InvalidateInfo/InvalidateParam
// calls instead of requiring a push callback. Not exercised by the
// default in-process Fetcher used in tests.
func PollFallback(fd int, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		return false, err
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}
