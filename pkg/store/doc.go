// Package store is the public surface of storekit: one object that owns a
// state container, a selector registry and a subscription manager.
//
// Reads are direct. Writes go through PatchState, which merges a partial
// state and notifies subscribed views once per patch:
//
//	st := store.New(state.State{"count": 3}, map[string]selector.Selector{
//	    "double": func(s state.State) any { return s["count"].(int) * 2 },
//	})
//	st.GetSelectors()["double"]          // 6
//	st.PatchState(state.State{"count": 4})
//	st.GetSelectors()["double"]          // 8
//
// Views subscribe from their render function. The subscription is installed
// when the view mounts and released when it unmounts:
//
//	counter := view.New("counter", func(v *view.Instance) {
//	    if err := st.UseState(v, "count"); err != nil {
//	        log.Fatal(err)
//	    }
//	})
//	counter.Mount()
//
// Calling a Use method again from a later render replaces the view's watch
// set; it does not add a second subscription.
//
// # Errors
//
// Watching an unknown key or selector fails fast with a *LookupError that
// matches ErrKeyNotFound or ErrSelectorNotFound under errors.Is. Key checks
// can be relaxed with WithStrictKeys(false).
package store
