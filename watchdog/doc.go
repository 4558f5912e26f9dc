// Package watchdog bounds the lifetime of a running process.
//
// A Watchdog is armed with a timeout and bound to at most one process at a
// time. If the process is still being watched when the timeout elapses, the
// watchdog kills it exactly once and remembers that it did so; stopping the
// watchdog first cancels the pending kill. The timer runs on its own
// goroutine, so a process that never exits cannot block it.
//
//	wd := watchdog.New(30 * time.Second)
//	if err := wd.Start(handle); err != nil { ... }
//	code, err := handle.Wait()
//	wd.Stop()
//	if wd.KilledProcess() { ... }
package watchdog
