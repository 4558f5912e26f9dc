package result

import (
	"context"
	stderrors "errors"
	"sync"
	"time"
)

var (
	// ErrAlreadyDelivered is returned when a second outcome is offered.
	ErrAlreadyDelivered = stderrors.New("result already delivered")
	// ErrPending is returned by WaitTimeout when no outcome arrived in time.
	ErrPending = stderrors.New("result not yet available")
)

// Consumer is the read side of a Notifier.
type Consumer interface {
	Wait() (int, error)
	WaitContext(ctx context.Context) (int, error)
	WaitTimeout(d time.Duration) (int, error)
	HasResult() bool
	Done() <-chan struct{}
	Outcome() (Outcome, bool)
}

// Notifier holds one execution outcome. The zero value is not usable; call
// NewNotifier.
type Notifier struct {
	mu        sync.Mutex
	done      chan struct{}
	outcome   Outcome
	delivered bool
	observers []func(Outcome)
}

var (
	_ Handler  = (*Notifier)(nil)
	_ Consumer = (*Notifier)(nil)
)

// NewNotifier creates a pending notifier.
func NewNotifier() *Notifier {
	return &Notifier{done: make(chan struct{})}
}

// Complete delivers a successful outcome with exitCode.
func (n *Notifier) Complete(exitCode int) error {
	return n.Deliver(Outcome{ExitCode: exitCode})
}

// Fail delivers a failed outcome. The exit code is taken from err when it
// carries one, otherwise it is -1.
func (n *Notifier) Fail(err error, killedByWatchdog bool) error {
	if err == nil {
		err = stderrors.New("execution failed")
	}
	return n.Deliver(Outcome{ExitCode: exitStatusOf(err), Err: err, KilledByWatchdog: killedByWatchdog})
}

// Deliver publishes o. Only the first delivery takes effect; later calls
// return ErrAlreadyDelivered.
func (n *Notifier) Deliver(o Outcome) error {
	n.mu.Lock()
	if n.delivered {
		n.mu.Unlock()
		return ErrAlreadyDelivered
	}
	n.outcome = o
	n.delivered = true
	observers := n.observers
	n.observers = nil
	close(n.done)
	n.mu.Unlock()

	for _, fn := range observers {
		fn(o)
	}
	return nil
}

// OnComplete implements Handler.
func (n *Notifier) OnComplete(exitCode int) {
	_ = n.Complete(exitCode)
}

// OnFailure implements Handler.
func (n *Notifier) OnFailure(err error) {
	_ = n.Fail(err, killedBy(err))
}

// Observe registers fn to run once with the outcome. If the outcome is
// already available fn runs immediately on the calling goroutine; otherwise
// it runs on the delivering goroutine.
func (n *Notifier) Observe(fn func(Outcome)) {
	n.mu.Lock()
	if !n.delivered {
		n.observers = append(n.observers, fn)
		n.mu.Unlock()
		return
	}
	o := n.outcome
	n.mu.Unlock()
	fn(o)
}

// Wait blocks until the outcome is available and returns its exit code and
// error.
func (n *Notifier) Wait() (int, error) {
	<-n.done
	return n.result()
}

// WaitContext is Wait bounded by ctx. Cancellation returns ctx.Err() and
// leaves the outcome pending for other readers.
func (n *Notifier) WaitContext(ctx context.Context) (int, error) {
	select {
	case <-n.done:
		return n.result()
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// WaitTimeout is Wait bounded by d. It returns ErrPending if d elapses first.
func (n *Notifier) WaitTimeout(d time.Duration) (int, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-n.done:
		return n.result()
	case <-timer.C:
		return -1, ErrPending
	}
}

// HasResult reports whether an outcome has been delivered.
func (n *Notifier) HasResult() bool {
	select {
	case <-n.done:
		return true
	default:
		return false
	}
}

// Done is closed once the outcome is available.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

// Outcome returns the delivered outcome and true, or a zero Outcome and
// false while pending.
func (n *Notifier) Outcome() (Outcome, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.outcome, n.delivered
}

func (n *Notifier) result() (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.outcome.ExitCode, n.outcome.Err
}
