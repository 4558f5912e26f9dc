package server

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
)

// syncBuffer is a bytes.Buffer safe for a writer goroutine racing readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// entry is one tracked execution with its captured output.
type entry struct {
	execution *process.Execution
	stdout    *syncBuffer
	stderr    *syncBuffer
}

func (e *entry) finishedAt() (time.Time, bool) {
	select {
	case <-e.execution.Done():
		return e.execution.StartedAt().Add(e.execution.Duration()), true
	default:
		return time.Time{}, false
	}
}

// Registry tracks executions started through the API by ID. Finished
// executions are dropped once they are older than the retention period.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*entry
	max       int
	retention time.Duration
	now       func() time.Time
}

var _ observability.HealthChecker = (*Registry)(nil)

// NewRegistry creates a registry holding at most max executions.
func NewRegistry(limit int, retention time.Duration) *Registry {
	return &Registry{
		entries:   make(map[string]*entry),
		max:       limit,
		retention: retention,
		now:       time.Now,
	}
}

// reserve fails with UNAVAILABLE when the registry is full after pruning.
func (r *Registry) reserve() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	if len(r.entries) >= r.max {
		return errors.Unavailable("too many tracked executions").
			WithDetail("max_executions", r.max)
	}
	return nil
}

// add tracks e. It may exceed the limit by the number of concurrent
// submissions that passed reserve.
func (r *Registry) add(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.execution.ID()] = e
}

// get returns the execution with the given ID or NOT_FOUND.
func (r *Registry) get(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	e, ok := r.entries[id]
	if !ok {
		return nil, errors.NotFound("execution", id)
	}
	return e, nil
}

// Len returns the number of tracked executions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Running returns the number of tracked executions without an outcome.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if _, done := e.finishedAt(); !done {
			n++
		}
	}
	return n
}

// Prune drops finished executions past retention.
func (r *Registry) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
}

func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, e := range r.entries {
		if at, done := e.finishedAt(); done && at.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}

// TerminateAll terminates every running execution and waits for their
// outcomes or ctx.
func (r *Registry) TerminateAll(ctx context.Context) error {
	r.mu.Lock()
	running := make([]*process.Execution, 0, len(r.entries))
	for _, e := range r.entries {
		if _, done := e.finishedAt(); !done {
			running = append(running, e.execution)
		}
	}
	r.mu.Unlock()

	for _, x := range running {
		_ = x.Terminate()
	}
	for _, x := range running {
		select {
		case <-x.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// CheckHealth reports the registry as degraded once it is full.
func (r *Registry) CheckHealth(_ context.Context) observability.Health {
	tracked := r.Len()
	h := observability.Health{
		Name:   "executions",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"tracked": strconv.Itoa(tracked),
			"running": strconv.Itoa(r.Running()),
			"max":     strconv.Itoa(r.max),
		},
	}
	if tracked >= r.max {
		h.Status = observability.HealthStatusDegraded
		h.Message = "execution registry is full"
	}
	return h
}
