package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Common bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for logging.
	Name string
	// MaxConcurrent is the maximum number of slots held at once.
	MaxConcurrent int
	// MaxWait is how long to wait for a slot. 0 means fail immediately.
	MaxWait time.Duration
	// OnReject is called when an acquire fails.
	OnReject func(name string, err error)
}

// Bulkhead bounds concurrent executions with a fixed number of slots.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a new bulkhead. A non-positive MaxConcurrent allows
// a single slot.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot, waiting up to MaxWait. The returned release must be
// called once the work is finished; calling it again does nothing.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { <-b.sem }) }, nil
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrent - len(b.sem)
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
