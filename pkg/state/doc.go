// Package state provides the observable state container behind a store.
//
// A Container wraps a State map whose identity never changes. Every write
// dispatches a Change synchronously, before the write call returns:
//
//	c := state.New(state.State{"count": 0})
//	unsub := c.Subscribe(func(ch state.Change) {
//	    fmt.Println("changed:", ch.Key)
//	})
//	c.Set("count", 1)              // changed: count
//	c.Patch(state.State{"a": 1, "b": 2}) // changed: a, changed: b
//	unsub()
//
// Top-level keys are the unit of subscription granularity. Nested writes via
// SetPath are reported against their top-level key.
//
// # Thread Safety
//
// The container guards its map with a read-write mutex. Get returns the live
// map, so callers that read off the writer's goroutine should use Read or
// Snapshot instead.
package state
