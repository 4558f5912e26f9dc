// Package result carries the single outcome of an execution from the
// goroutine that produced it to any number of readers.
//
// A Notifier is written exactly once, either as a completion with an exit
// code or as a failure with an error, and is immutable afterwards. Readers
// may block with Wait, bound their wait with WaitContext or WaitTimeout, poll
// with HasResult, or register observers that run once the outcome lands.
package result
