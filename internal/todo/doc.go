// Package todo holds the task entity and the ordered in-memory task store.
//
// # Ordering
//
// The store keeps its tasks in a flat slice sorted ascending by due time.
// Tasks with equal due times keep their insertion order: a new task is
// placed after every task already due at the same second.
//
// Every mutation restores order locally:
//
//   - insert: binary search for the upper bound of the due time, then a
//     slice splice (O(log n) search, O(n) worst-case shift)
//   - delete: binary search plus a short scan of the tied run, then a
//     slice splice
//   - due-time change: delete followed by insert
//
// The store never re-sorts the whole slice after construction. The shift
// cost is the accepted price of a flat slice; in exchange range queries
// are two binary searches and a contiguous sub-slice, and iteration is
// cache friendly. A balanced tree keyed by due time would offer the same
// contract with O(log n) mutation.
//
// # Identifiers
//
// Task ids embed the due time in Unix seconds (see package taskid). Due
// times are truncated to whole seconds so the embedded value is always
// exact. Changing a task's due time, directly or by advancing a
// recurrence, issues a new id; callers holding the old id must treat it
// as stale.
//
// # Durability
//
// A store built with a Persister flushes the full task list after every
// successful mutation and does not return until the flush completes. If
// the flush fails the in-memory change is kept and a *PersistenceError is
// returned together with the result, so the caller knows the change was
// applied but is not yet durable.
//
// # Concurrency
//
// A Store is not safe for concurrent use. The search and splice halves of
// a mutation are not atomic, so concurrent callers must wrap the store in
// a single mutex.
package todo
