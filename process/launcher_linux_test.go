//go:build linux

package process

import (
	"context"
	stderrors "errors"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestWaitExited_LeavesChildUnreaped(t *testing.T) {
	h, err := OSLauncher{}.Launch(context.Background(), Spec{Executable: "sh", Args: []string{"-c", "exit 3"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pid := h.Pid()

	if !waitExited(pid) {
		t.Fatal("expected the exit to be observed")
	}
	if err := unix.Kill(pid, 0); err != nil {
		t.Fatalf("expected the exited child to keep its pid until reaped, got %v", err)
	}

	code, err := h.Wait()
	if err != nil || code != 3 {
		t.Fatalf("expected exit 3, got %d/%v", code, err)
	}
	if err := h.Kill(); !stderrors.Is(err, os.ErrProcessDone) {
		t.Errorf("expected ErrProcessDone after reaping, got %v", err)
	}
}
