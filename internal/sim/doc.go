// Package sim implements the concurrent workload simulation engine: rate-paced
// generator workers, an admission gate that sheds retained work under load, an
// expiry sweeper that retires items into a bounded history, and an orchestrator
// that owns all shared state and coordinates cooperative shutdown.
package sim
