// Package cmap provides a concurrent-safe sharded map keyed by uint64.
//
// It uses sharding to reduce lock contention. The server keeps its live
// connection table here: the accept loop inserts, connection goroutines
// remove themselves, and shutdown iterates, all concurrently.
package cmap
