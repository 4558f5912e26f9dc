package watchdog

import (
	stderrors "errors"
	"os"
	"sync"
	"time"

	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
)

// Infinite disables expiry; the watchdog still tracks the process and can
// destroy it on request.
const Infinite time.Duration = -1

// ErrAlreadyWatching is the cause returned by Start while a process is bound,
// including after expiry until Stop releases it.
var ErrAlreadyWatching = stderrors.New("watchdog is already watching a process")

// Process is the part of a process handle the watchdog needs.
type Process interface {
	Kill() error
}

// State is the lifecycle position of a Watchdog.
type State int

const (
	// StateIdle means no process is bound.
	StateIdle State = iota
	// StateWatching means a process is bound and the timer, if any, is pending.
	StateWatching
	// StateExpired means the timeout elapsed while the process was bound.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Option configures a Watchdog.
type Option func(*Watchdog)

// WithLogger sets the logger used to report expiry.
func WithLogger(log *logger.Logger) Option {
	return func(w *Watchdog) {
		if log != nil {
			w.log = log
		}
	}
}

// Watchdog kills a bound process that outlives its timeout. All methods are
// safe for concurrent use.
type Watchdog struct {
	timeout time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	state   State
	process Process
	stop    chan struct{}
	killed  bool
	killErr error
}

// New creates an idle watchdog. A timeout of Infinite, or any value <= 0,
// never expires.
func New(timeout time.Duration, opts ...Option) *Watchdog {
	w := &Watchdog{
		timeout: timeout,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start binds p and arms the timer. It fails unless the watchdog is idle; an
// expired watchdog stays bound to its process until Stop. The killed flag and
// kill error of any previous run are reset.
func (w *Watchdog) Start(p Process) error {
	if p == nil {
		return errors.InvalidInput("process", "watchdog needs a process to watch")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return errors.New(errors.ErrCodeInvalidInput, ErrAlreadyWatching.Error()).WithCause(ErrAlreadyWatching)
	}

	w.state = StateWatching
	w.process = p
	w.killed = false
	w.killErr = nil

	if w.timeout <= 0 {
		return nil
	}
	stop := make(chan struct{})
	w.stop = stop
	go w.run(p, stop)
	return nil
}

func (w *Watchdog) run(p Process, stop <-chan struct{}) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case <-stop:
		return
	case <-timer.C:
	}

	w.mu.Lock()
	if w.state != StateWatching || w.stop != stop {
		w.mu.Unlock()
		return
	}
	w.state = StateExpired
	w.stop = nil

	// Kill under the lock so Stop never observes an expired state whose
	// killed flag is not yet settled.
	// A failed kill leaves the process running, so it is not a watchdog kill.
	err := p.Kill()
	exited := stderrors.Is(err, os.ErrProcessDone)
	w.killed = err == nil
	if err != nil && !exited {
		w.killErr = err
	}
	w.mu.Unlock()

	switch {
	case exited:
		w.log.Debug("watchdog expired after process exit", logger.Fields(logger.FieldTimeout, w.timeout.String()))
	case err != nil:
		w.log.Error("watchdog failed to kill process", logger.MergeWithError(logger.Fields(logger.FieldTimeout, w.timeout.String()), err))
	default:
		w.log.Warn("watchdog killed process", logger.Fields(logger.FieldTimeout, w.timeout.String()))
	}
}

// Stop cancels a pending timer and unbinds the process. It is safe to call
// any number of times, including after expiry.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
	w.process = nil
	w.state = StateIdle
}

// DestroyProcess kills the bound process on the caller's behalf. The pending
// timer is canceled and KilledProcess is left unchanged. Without a bound
// process it does nothing.
func (w *Watchdog) DestroyProcess() error {
	w.mu.Lock()
	p := w.process
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
	w.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := p.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// KilledProcess reports whether the most recent run ended with the watchdog
// killing the process.
func (w *Watchdog) KilledProcess() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.killed
}

// IsWatching reports whether a process is bound and has not expired.
func (w *Watchdog) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StateWatching
}

// State returns the current lifecycle state.
func (w *Watchdog) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Timeout returns the configured timeout.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Expires reports whether the watchdog has a finite timeout.
func (w *Watchdog) Expires() bool {
	return w.timeout > 0
}

// Err returns the error from the expiry kill, if it failed.
func (w *Watchdog) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.killErr
}
