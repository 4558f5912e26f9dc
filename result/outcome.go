package result

import stderrors "errors"

// Outcome is the terminal state of one execution. Err is nil on success.
type Outcome struct {
	ExitCode         int
	Err              error
	KilledByWatchdog bool
}

// Succeeded reports whether the execution completed with an accepted exit code.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Handler receives the outcome of an asynchronous execution. Exactly one of
// its methods is called, once.
type Handler interface {
	OnComplete(exitCode int)
	OnFailure(err error)
}

// HandlerFuncs adapts a pair of functions to Handler. Nil functions are skipped.
type HandlerFuncs struct {
	Complete func(exitCode int)
	Failure  func(err error)
}

// OnComplete implements Handler.
func (h HandlerFuncs) OnComplete(exitCode int) {
	if h.Complete != nil {
		h.Complete(exitCode)
	}
}

// OnFailure implements Handler.
func (h HandlerFuncs) OnFailure(err error) {
	if h.Failure != nil {
		h.Failure(err)
	}
}

// Forward returns an observer that dispatches an outcome to h.
func Forward(h Handler) func(Outcome) {
	return func(o Outcome) {
		if o.Err != nil {
			h.OnFailure(o.Err)
			return
		}
		h.OnComplete(o.ExitCode)
	}
}

type exitStatuser interface {
	ExitStatus() int
}

type watchdogKiller interface {
	Killed() bool
}

func exitStatusOf(err error) int {
	var es exitStatuser
	if stderrors.As(err, &es) {
		return es.ExitStatus()
	}
	return -1
}

func killedBy(err error) bool {
	var k watchdogKiller
	if stderrors.As(err, &k) {
		return k.Killed()
	}
	return false
}
