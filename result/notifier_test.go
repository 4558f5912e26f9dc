package result

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/execkit/logger"
)

type exitErr struct {
	code   int
	killed bool
}

func (e *exitErr) Error() string    { return fmt.Sprintf("exit %d", e.code) }
func (e *exitErr) ExitStatus() int { return e.code }
func (e *exitErr) Killed() bool    { return e.killed }

func TestNotifier_CompleteThenWait(t *testing.T) {
	n := NewNotifier()
	if n.HasResult() {
		t.Fatal("expected pending notifier")
	}
	if _, ok := n.Outcome(); ok {
		t.Fatal("expected no outcome while pending")
	}

	if err := n.Complete(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code, err := n.Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	if !n.HasResult() {
		t.Error("expected HasResult after delivery")
	}
}

func TestNotifier_SecondDeliveryRejected(t *testing.T) {
	n := NewNotifier()
	if err := n.Complete(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.Fail(stderrors.New("late"), true); !stderrors.Is(err, ErrAlreadyDelivered) {
		t.Fatalf("expected ErrAlreadyDelivered, got %v", err)
	}
	if err := n.Complete(9); !stderrors.Is(err, ErrAlreadyDelivered) {
		t.Fatalf("expected ErrAlreadyDelivered, got %v", err)
	}

	o, ok := n.Outcome()
	if !ok || o.ExitCode != 0 || o.Err != nil || o.KilledByWatchdog {
		t.Fatalf("expected first outcome to stick, got %+v", o)
	}
}

func TestNotifier_FailCarriesExitStatus(t *testing.T) {
	n := NewNotifier()
	cause := &exitErr{code: 137, killed: true}
	n.OnFailure(fmt.Errorf("wrapped: %w", cause))

	o, ok := n.Outcome()
	if !ok {
		t.Fatal("expected outcome")
	}
	if o.ExitCode != 137 {
		t.Errorf("expected exit code 137, got %d", o.ExitCode)
	}
	if !o.KilledByWatchdog {
		t.Error("expected KilledByWatchdog from error")
	}
	if o.Succeeded() {
		t.Error("expected failed outcome")
	}
}

func TestNotifier_FailWithoutExitStatus(t *testing.T) {
	n := NewNotifier()
	_ = n.Fail(stderrors.New("spawn"), false)

	code, err := n.Wait()
	if err == nil {
		t.Fatal("expected error")
	}
	if code != -1 {
		t.Errorf("expected -1 exit code, got %d", code)
	}
}

func TestNotifier_ConcurrentWaiters(t *testing.T) {
	n := NewNotifier()
	const waiters = 16

	var wg sync.WaitGroup
	codes := make([]int, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], _ = n.Wait()
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	if err := n.Complete(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wg.Wait()

	for i, c := range codes {
		if c != 7 {
			t.Errorf("waiter %d saw %d, want 7", i, c)
		}
	}
}

func TestNotifier_WaitTimeout(t *testing.T) {
	n := NewNotifier()

	if _, err := n.WaitTimeout(10 * time.Millisecond); !stderrors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if n.HasResult() {
		t.Fatal("timed-out wait must not consume the outcome")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = n.Complete(0)
	}()
	code, err := n.WaitTimeout(time.Second)
	if err != nil || code != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", code, err)
	}
}

func TestNotifier_WaitContext(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := n.WaitContext(ctx); !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	_ = n.Complete(0)
	if _, err := n.WaitContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotifier_Observe(t *testing.T) {
	n := NewNotifier()

	var before, after []Outcome
	n.Observe(func(o Outcome) { before = append(before, o) })

	_ = n.Complete(5)
	n.Observe(func(o Outcome) { after = append(after, o) })

	if len(before) != 1 || before[0].ExitCode != 5 {
		t.Errorf("expected pre-registered observer to run once, got %+v", before)
	}
	if len(after) != 1 || after[0].ExitCode != 5 {
		t.Errorf("expected late observer to run immediately, got %+v", after)
	}
}

func TestForward(t *testing.T) {
	var completed []int
	var failed []error
	h := HandlerFuncs{
		Complete: func(code int) { completed = append(completed, code) },
		Failure:  func(err error) { failed = append(failed, err) },
	}

	Forward(h)(Outcome{ExitCode: 1})
	Forward(h)(Outcome{ExitCode: 2, Err: stderrors.New("boom")})

	if len(completed) != 1 || completed[0] != 1 {
		t.Errorf("unexpected completions %v", completed)
	}
	if len(failed) != 1 {
		t.Errorf("unexpected failures %v", failed)
	}

	// nil callbacks are tolerated
	Forward(HandlerFuncs{})(Outcome{})
}

func TestLogObserver(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		level   string
		message string
	}{
		{name: "completed", outcome: Outcome{ExitCode: 0}, level: "info", message: "execution completed"},
		{name: "timed out", outcome: Outcome{ExitCode: 137, Err: stderrors.New("killed"), KilledByWatchdog: true}, level: "warn", message: "execution timed out"},
		{name: "failed", outcome: Outcome{ExitCode: 1, Err: stderrors.New("exit 1")}, level: "error", message: "execution failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &logger.Config{Level: "debug", Format: "json"}
			LogObserver(logger.NewWithWriter(cfg, "", &buf))(tt.outcome)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid log output %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, entry["level"])
			}
			if entry["message"] != tt.message {
				t.Errorf("expected message %q, got %v", tt.message, entry["message"])
			}
		})
	}
}
