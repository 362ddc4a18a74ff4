// Package subscription binds views to the state keys and selectors they
// watch and decides when each view re-renders.
//
// A view registers a watch set together with a re-render callback. On a
// change to a watched key the callback runs exactly once per batch, no matter
// how many watched keys changed:
//
//	m := subscription.New()
//	unregister := m.Register("header", subscription.WatchSet{Keys: []string{"user"}}, rerender)
//	m.Batch(func() {
//	    m.Notify("user")
//	    m.Notify("user")
//	})  // rerender called once
//	unregister()
//
// A view watching any selector is treated as watching every key, since any
// change invalidates every selector.
package subscription

import (
	"sort"
	"sync"
)

// WatchSet is the set of top-level state keys and selector names a view
// depends on.
type WatchSet struct {
	Keys      []string
	Selectors []string
}

// watchesAll reports whether the set depends on every key.
func (w WatchSet) watchesAll() bool {
	return len(w.Selectors) > 0
}

func (w WatchSet) clone() WatchSet {
	return WatchSet{
		Keys:      append([]string(nil), w.Keys...),
		Selectors: append([]string(nil), w.Selectors...),
	}
}

// entry is the non-owning registry record of one view's subscription.
type entry struct {
	token    uint64
	watch    WatchSet
	keys     map[string]struct{}
	all      bool
	rerender func()
}

// Manager tracks view subscriptions and schedules re-renders.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// byKey indexes view ids by watched key.
	byKey map[string]map[string]struct{}

	// watchAll holds view ids that watch every key.
	watchAll map[string]struct{}

	nextToken uint64

	frames frames
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		entries:  make(map[string]*entry),
		byKey:    make(map[string]map[string]struct{}),
		watchAll: make(map[string]struct{}),
	}
}

// Register subscribes viewID to watch, replacing any previous registration
// for the same view. rerender is invoked when a watched key changes.
//
// The returned function removes this registration. Calling it more than once
// is a no-op, and it never removes a newer registration of the same view.
func (m *Manager) Register(viewID string, watch WatchSet, rerender func()) func() {
	e := &entry{
		watch:    watch.clone(),
		keys:     make(map[string]struct{}, len(watch.Keys)),
		all:      watch.watchesAll(),
		rerender: rerender,
	}
	for _, k := range watch.Keys {
		e.keys[k] = struct{}{}
	}

	m.mu.Lock()
	m.nextToken++
	e.token = m.nextToken
	if old, ok := m.entries[viewID]; ok {
		m.unindexLocked(viewID, old)
	}
	m.entries[viewID] = e
	m.indexLocked(viewID, e)
	m.mu.Unlock()

	token := e.token
	var once sync.Once
	return func() {
		once.Do(func() { m.release(viewID, token) })
	}
}

// release removes viewID's registration if it is still the one identified
// by token.
func (m *Manager) release(viewID string, token uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[viewID]
	if !ok || e.token != token {
		return
	}
	m.unindexLocked(viewID, e)
	delete(m.entries, viewID)
}

func (m *Manager) indexLocked(viewID string, e *entry) {
	if e.all {
		m.watchAll[viewID] = struct{}{}
	}
	for k := range e.keys {
		ids, ok := m.byKey[k]
		if !ok {
			ids = make(map[string]struct{})
			m.byKey[k] = ids
		}
		ids[viewID] = struct{}{}
	}
}

func (m *Manager) unindexLocked(viewID string, e *entry) {
	delete(m.watchAll, viewID)
	for k := range e.keys {
		ids := m.byKey[k]
		delete(ids, viewID)
		if len(ids) == 0 {
			delete(m.byKey, k)
		}
	}
}

// affected returns the ids of views interested in key, sorted.
func (m *Manager) affected(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.byKey[key])+len(m.watchAll))
	for id := range m.byKey[key] {
		ids = append(ids, id)
	}
	for id := range m.watchAll {
		if _, dup := m.byKey[key][id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Notify reports a change to the top-level key. Inside a batch the affected
// views are queued; otherwise they are re-rendered immediately.
func (m *Manager) Notify(key string) {
	ids := m.affected(key)
	if len(ids) == 0 {
		return
	}

	if fr := m.frames.current(); fr != nil {
		for _, id := range ids {
			fr.queue(id)
		}
		return
	}

	m.deliver(ids)
}

// Batch runs fn and defers re-renders until it returns. Batches nest; views
// are re-rendered once, when the outermost batch ends, even if fn panics.
func (m *Manager) Batch(fn func()) {
	m.frames.enter()

	defer func() {
		if pending, done := m.frames.exit(); done {
			m.deliver(pending)
		}
	}()

	fn()
}

// deliver invokes the re-render callback of each still-registered view.
// Registrations are looked up per view at call time, so a view unregistered
// by an earlier callback is skipped.
func (m *Manager) deliver(ids []string) {
	for _, id := range ids {
		m.mu.RLock()
		e, ok := m.entries[id]
		m.mu.RUnlock()

		if !ok || e.rerender == nil {
			continue
		}
		e.rerender()
	}
}

// Len returns the number of registered views.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Watching returns the watch set registered for viewID.
func (m *Manager) Watching(viewID string) (WatchSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[viewID]
	if !ok {
		return WatchSet{}, false
	}
	return e.watch.clone(), true
}

// InBatch reports whether the calling goroutine is inside a Batch.
func (m *Manager) InBatch() bool {
	return m.frames.current() != nil
}
