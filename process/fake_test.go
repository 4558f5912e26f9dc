package process

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
)

// fakeHandle is a process that runs until exit or Kill is called. With
// lingering set, Wait keeps blocking after Kill until exit.
type fakeHandle struct {
	code      int
	release   chan struct{}
	once      sync.Once
	killed    atomic.Bool
	kills     atomic.Int32
	lingering bool
}

func newFakeHandle(code int, running bool) *fakeHandle {
	h := &fakeHandle{code: code, release: make(chan struct{})}
	if !running {
		h.exit()
	}
	return h
}

func (h *fakeHandle) exit() { h.once.Do(func() { close(h.release) }) }

func (h *fakeHandle) Wait() (int, error) {
	<-h.release
	if h.killed.Load() {
		return 137, nil
	}
	return h.code, nil
}

func (h *fakeHandle) Kill() error {
	select {
	case <-h.release:
		return os.ErrProcessDone
	default:
	}
	h.kills.Add(1)
	h.killed.Store(true)
	if !h.lingering {
		h.exit()
	}
	return nil
}

func (h *fakeHandle) Pid() int { return 4242 }

// fakeLauncher records specs and hands out handles from next.
type fakeLauncher struct {
	mu    sync.Mutex
	specs []Spec
	next  func() *fakeHandle
	err   error
}

func (l *fakeLauncher) Launch(_ context.Context, spec Spec) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if l.err != nil {
		return nil, l.err
	}
	return l.next(), nil
}

func (l *fakeLauncher) launched() []Spec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Spec(nil), l.specs...)
}

func exitingWith(code int) func() *fakeHandle {
	return func() *fakeHandle { return newFakeHandle(code, false) }
}
