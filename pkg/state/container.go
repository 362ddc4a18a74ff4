package state

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrEmptyPath is returned when a key-path has no segments.
var ErrEmptyPath = errors.New("state: empty key path")

// ErrNotMapping is returned when a key-path walks through a value that is
// not a nested mapping.
var ErrNotMapping = errors.New("state: intermediate value is not a mapping")

// State is an arbitrary-shape nested mapping from string keys to values.
// Nested mappings are map[string]any.
type State = map[string]any

// Change is the notification dispatched after a write.
type Change struct {
	// Key is the top-level key that was written.
	Key string

	// Path is the full dotted path written. Equal to Key for top-level writes.
	Path string

	// Seq increases by one for every change dispatched by a container.
	Seq uint64
}

// listener is a change subscriber with an identity for removal.
type listener struct {
	id uint64
	fn func(Change)
}

// Container holds the mutable application state and makes every write
// observable.
type Container struct {
	// data is the live state. Its identity never changes.
	data State
	mu   sync.RWMutex

	subs   []listener
	subMu  sync.RWMutex
	nextID uint64

	seq atomic.Uint64
}

// New wraps initial in a container. A nil initial state starts empty.
func New(initial State) *Container {
	if initial == nil {
		initial = State{}
	}
	return &Container{data: initial}
}

// Get returns the live state. Reads are direct and unobserved.
func (c *Container) Get() State {
	return c.data
}

// Read runs fn with the state under the read lock.
func (c *Container) Read(fn func(State)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.data)
}

// Set writes value at a top-level key and dispatches a Change for it.
// Writing a value equal to the current one still notifies.
func (c *Container) Set(key string, value any) {
	c.mu.Lock()
	c.data[key] = value
	c.mu.Unlock()

	c.notify(key, key)
}

// Patch applies each top-level entry of partial as its own Set, in key order.
// Keys absent from partial are left untouched.
func (c *Container) Patch(partial State) {
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c.Set(k, partial[k])
	}
}

// SetPath writes value at a dotted key-path, creating intermediate mappings
// as needed. The Change is tagged with the top-level key.
func (c *Container) SetPath(path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	if len(segs) == 1 {
		c.Set(segs[0], value)
		return nil
	}

	c.mu.Lock()
	node := c.data
	for _, seg := range segs[:len(segs)-1] {
		next, ok := node[seg]
		if !ok || next == nil {
			m := State{}
			node[seg] = m
			node = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			c.mu.Unlock()
			return ErrNotMapping
		}
		node = m
	}
	node[segs[len(segs)-1]] = value
	c.mu.Unlock()

	c.notify(segs[0], path)
	return nil
}

// Lookup returns the value at a dotted key-path.
func (c *Container) Lookup(path string) (any, bool) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var cur any = c.data
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether key is a top-level key of the state.
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}

// Keys returns the top-level keys in sorted order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Snapshot returns a deep copy of the state's maps and slices.
func (c *Container) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneValue(c.data).(State)
}

// Subscribe registers fn to receive every Change. The returned function
// removes the subscription and may be called any number of times.
func (c *Container) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}

	c.subMu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, listener{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Container) unsubscribe(id uint64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for i, l := range c.subs {
		if l.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// notify dispatches a Change to a copy of the subscriber list, so listeners
// can unsubscribe while being notified.
func (c *Container) notify(key, path string) {
	ch := Change{Key: key, Path: path, Seq: c.seq.Add(1)}

	c.subMu.RLock()
	subs := make([]listener, len(c.subs))
	copy(subs, c.subs)
	c.subMu.RUnlock()

	for _, l := range subs {
		l.fn(ch)
	}
}

// SplitPath splits a dotted key-path into its segments.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, ErrEmptyPath
		}
	}
	return segs, nil
}

// TopKey returns the top-level key of a dotted key-path.
func TopKey(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, val := range tv {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, val := range tv {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
