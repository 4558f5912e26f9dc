package process

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Spec is a fully resolved process invocation.
type Spec struct {
	Executable string
	Args       []string
	Dir        string
	// Env is the complete child environment; nil inherits ours.
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// WaitDelay bounds output copying once the process has exited.
	WaitDelay time.Duration
}

// Handle is a running child process.
type Handle interface {
	// Wait blocks until the process exits and returns its exit code. A
	// process terminated by a signal reports 128+signal. Wait may be called
	// any number of times.
	Wait() (int, error)
	// Kill forcibly terminates the process. It returns os.ErrProcessDone
	// once the process has exited.
	Kill() error
	Pid() int
}

// Launcher starts processes.
type Launcher interface {
	Launch(ctx context.Context, spec Spec) (Handle, error)
}

// OSLauncher starts real processes with os/exec. On unix each child leads
// its own process group, and Kill signals the whole group.
type OSLauncher struct{}

var _ Launcher = OSLauncher{}

// Launch implements Launcher. ctx is not bound to the process lifetime; the
// Executor owns cancellation.
func (OSLauncher) Launch(_ context.Context, spec Spec) (Handle, error) {
	cmd := exec.Command(spec.Executable, spec.Args...) //nolint:gosec // dynamic args are the purpose of this package
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.WaitDelay = spec.WaitDelay
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &osHandle{cmd: cmd}, nil
}

type osHandle struct {
	cmd  *exec.Cmd
	once sync.Once
	code int
	err  error

	// mu orders Kill against reaping; once exited is set the pid may be
	// reused and must not be signaled.
	mu     sync.Mutex
	exited bool
}

func (h *osHandle) markExited() {
	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()
}

func (h *osHandle) Wait() (int, error) {
	h.once.Do(func() {
		// Where supported, block until the child is a zombie so the flag is
		// set while its pid is still reserved.
		if waitExited(h.cmd.Process.Pid) {
			h.markExited()
		}
		err := h.cmd.Wait()
		h.markExited()
		h.code = exitStatus(h.cmd.ProcessState)

		var exitErr *exec.ExitError
		switch {
		case err == nil, stderrors.As(err, &exitErr), stderrors.Is(err, exec.ErrWaitDelay):
		default:
			h.err = err
		}
	})
	return h.code, h.err
}

func (h *osHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exited {
		return os.ErrProcessDone
	}
	return killProcess(h.cmd.Process)
}

func (h *osHandle) Pid() int {
	return h.cmd.Process.Pid
}

func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if sig, ok := signaled(state); ok {
		return 128 + sig
	}
	return state.ExitCode()
}
