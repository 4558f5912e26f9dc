package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBulkhead_AcquireWithinLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 3})

	var releases []func()
	for i := 0; i < 3; i++ {
		release, err := b.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		releases = append(releases, release)
	}
	if b.InUse() != 3 || b.Available() != 0 {
		t.Errorf("in use = %d, available = %d", b.InUse(), b.Available())
	}

	for _, release := range releases {
		release()
	}
	if b.InUse() != 0 {
		t.Errorf("expected all slots free, in use = %d", b.InUse())
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected []error
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
		OnReject:      func(_ string, err error) { rejected = append(rejected, err) },
	})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if len(rejected) != 1 || !errors.Is(rejected[0], ErrBulkheadFull) {
		t.Errorf("OnReject calls = %v", rejected)
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: 2 * time.Second})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.AfterFunc(20*time.Millisecond, release)

	second, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected the slot after release, got %v", err)
	}
	second()
}

func TestBulkhead_WaitTimeoutAndCancel(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	release, _ := b.Acquire(context.Background())
	defer release()

	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}

	b = NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: time.Minute})
	release2, _ := b.Acquire(context.Background())
	defer release2()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_ReleaseIsIdempotent(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})
	first, _ := b.Acquire(context.Background())
	second, _ := b.Acquire(context.Background())

	first()
	first()
	if b.InUse() != 1 {
		t.Fatalf("double release freed another holder's slot: in use = %d", b.InUse())
	}
	second()
}

func TestBulkhead_DefaultsToOneSlot(t *testing.T) {
	if got := NewBulkhead(BulkheadConfig{}).MaxConcurrent(); got != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", got)
	}
}
