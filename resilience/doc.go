// Package resilience provides admission control for work that spawns
// processes.
//
//   - Bulkhead: bounds how many executions run at once; a slot is held
//     until the process exits, not just for one call
//   - RateLimiter: token bucket bounding how fast executions are submitted
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8})
//	release, err := bh.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	go func() { <-execution.Done(); release() }()
package resilience
