// Package selector provides memoized derived values over store state.
//
// A Registry holds named pure functions over state. Each value is computed
// lazily on read and cached until the next Invalidate:
//
//	reg := selector.New(map[string]selector.Selector{
//	    "double": func(s state.State) any { return s["count"].(int) * 2 },
//	})
//	reg.GetAll(s)   // computes double
//	reg.GetAll(s)   // cached
//	reg.Invalidate()
//	reg.GetAll(s)   // recomputes
//
// Selectors must be pure: deterministic given state and free of side
// effects. A selector that mutates state has undefined behavior.
package selector

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/storekit/pkg/state"
)

// ErrUnknownSelector is returned when a selector name was not registered.
var ErrUnknownSelector = errors.New("selector: unknown selector")

// Selector is a pure function deriving a value from the full state.
type Selector func(state.State) any

// computed is a Selector with its cached value.
type computed struct {
	name string
	fn   Selector

	value   any
	valueMu sync.RWMutex

	// valid indicates whether the cached value is current.
	valid atomic.Bool

	// computing guards against a selector reading itself.
	computing atomic.Bool

	recomputes atomic.Uint64
}

// Registry holds the computed selectors of a store. Entries are created at
// construction and live as long as the registry.
type Registry struct {
	entries map[string]*computed
	names   []string

	onCompute func(name string, d time.Duration)
}

// Option configures a Registry.
type Option func(*Registry)

// WithComputeHook sets a function called after every recomputation with the
// selector name and how long it took.
func WithComputeHook(fn func(name string, d time.Duration)) Option {
	return func(r *Registry) {
		r.onCompute = fn
	}
}

// New creates a registry for the given selectors. Nil selectors are skipped.
func New(selectors map[string]Selector, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*computed, len(selectors)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for name, fn := range selectors {
		if fn == nil {
			continue
		}
		r.entries[name] = &computed{name: name, fn: fn}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r
}

// GetAll returns the current value of every selector, recomputing only
// those invalidated since their last read.
func (r *Registry) GetAll(s state.State) map[string]any {
	out := make(map[string]any, len(r.entries))
	for _, name := range r.names {
		out[name] = r.read(r.entries[name], s)
	}
	return out
}

// Get returns the current value of one selector.
func (r *Registry) Get(s state.State, name string) (any, bool) {
	c, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return r.read(c, s), true
}

// Invalidate marks every cached value stale. Any state change invalidates
// every selector since dependencies are not tracked per key.
func (r *Registry) Invalidate() {
	for _, c := range r.entries {
		c.valid.Store(false)
	}
}

// Has reports whether name is a registered selector.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered selector names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered selectors.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Recomputes returns how many times the named selector has been computed.
func (r *Registry) Recomputes(name string) uint64 {
	c, ok := r.entries[name]
	if !ok {
		return 0
	}
	return c.recomputes.Load()
}

func (r *Registry) read(c *computed, s state.State) any {
	if !c.valid.Load() {
		r.recompute(c, s)
	}

	c.valueMu.RLock()
	v := c.value
	c.valueMu.RUnlock()
	return v
}

func (r *Registry) recompute(c *computed, s state.State) {
	// A selector reading itself gets the last cached value.
	if c.computing.Swap(true) {
		return
	}
	defer c.computing.Store(false)

	start := time.Now()
	v := c.fn(s)
	elapsed := time.Since(start)

	c.valueMu.Lock()
	c.value = v
	c.valueMu.Unlock()

	c.valid.Store(true)
	c.recomputes.Add(1)

	if r.onCompute != nil {
		r.onCompute(c.name, elapsed)
	}
}

// Value reads a selector and asserts its type.
func Value[T any](r *Registry, s state.State, name string) (T, error) {
	var zero T

	v, ok := r.Get(s, name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownSelector, name)
	}
	if v == nil {
		return zero, nil
	}

	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("selector: %s is %T, not %T", name, v, zero)
	}
	return tv, nil
}
