//go:build linux

package process

import (
	stderrors "errors"

	"golang.org/x/sys/unix"
)

// waitExited blocks until pid has exited without reaping it. It reports
// false if the state could not be observed.
func waitExited(pid int) bool {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if err == nil {
			return true
		}
		if !stderrors.Is(err, unix.EINTR) {
			return false
		}
	}
}
