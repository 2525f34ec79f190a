// Package driver feeds attachment ids to the rename transaction one at a time.
//
// A Queue holds the ids waiting to be cleaned. MemoryQueue serves single
// process runs; RedisQueue lets "scan --enqueue" and "run" live in separate
// processes. Runner pops one id, waits for its transaction to finish and only
// then pops the next, so at most one transaction is in flight per runner.
//
//	q := driver.NewMemoryQueue()
//	_ = q.Push(ctx, ids...)
//	runner, _ := driver.NewRunner(q, svc, driver.WithLogger(log))
//	report, err := runner.Run(ctx)
package driver
