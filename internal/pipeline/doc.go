// Package pipeline runs per-URL work over a batch of inputs.
//
// A request to hash several sites, from the HTTP API or the CLI, fans out
// through a BatchProcessor: each input gets its own goroutine, bounded by a
// concurrency limit, and the results come back in input order.
//
// Design decision: The batch fails fast. A single failing input cancels the
// rest and the whole batch returns that error, because a partial answer
// would let a client mistake a missing fingerprint for a verified one.
package pipeline
