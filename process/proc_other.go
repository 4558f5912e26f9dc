//go:build !unix

package process

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killProcess(p *os.Process) error {
	return p.Kill()
}

func signaled(*os.ProcessState) (int, bool) {
	return 0, false
}
