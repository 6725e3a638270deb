// Package inmemory provides an ephemeral, thread-safe, in-memory
// implementation of the content.Store interface.
//
// # Concurrency Model
//
// Objects are kept in a sync.Map keyed by id. The workload is read-heavy:
// a content pack is written once at startup and then fetched concurrently
// by every resolution round of every recompute. Stored objects are shared
// with callers and must be treated as immutable.
package inmemory
