//go:build unix

package process

import (
	stderrors "errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killProcess sends SIGKILL to the process group led by p.
func killProcess(p *os.Process) error {
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if stderrors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

func signaled(state *os.ProcessState) (int, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return int(ws.Signal()), true
}
