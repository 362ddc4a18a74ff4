// Package view is a minimal UI host: view instances with a mount/unmount
// lifecycle and a forced re-render primitive.
//
// An Instance satisfies store.View. Re-render requests go through a
// Scheduler, which decides when the render function actually runs:
//
//	q := view.NewQueue()
//	counter := view.New("counter", func(v *view.Instance) {
//	    _ = st.UseState(v, "count")
//	    fmt.Println("count:", st.GetState()["count"])
//	}, view.WithScheduler(q))
//	counter.Mount()
//	st.PatchState(state.State{"count": 1})
//	q.Flush() // count: 1
//	counter.Unmount()
package view

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RenderFunc renders a view. It runs on mount and on every scheduled
// re-render.
type RenderFunc func(v *Instance)

// Scheduler decides when a dirty view renders.
type Scheduler interface {
	Schedule(v *Instance)
}

var idCounter atomic.Uint64

func generateID() string {
	return fmt.Sprintf("v%d", idCounter.Add(1))
}

// Instance is a mounted view. Unmounting an instance unmounts its children
// first, then runs its unmount hooks in reverse registration order.
type Instance struct {
	id        string
	render    RenderFunc
	scheduler Scheduler

	parent     *Instance
	children   []*Instance
	childrenMu sync.Mutex

	mountHooks   []func()
	unmountHooks []func()
	hooksMu      sync.Mutex

	mounted  atomic.Bool
	disposed atomic.Bool

	// dirty indicates a re-render is scheduled but has not run.
	dirty   atomic.Bool
	renders atomic.Uint64
}

// Option configures an Instance.
type Option func(*Instance)

// WithParent nests the instance under parent. The child is unmounted when
// the parent unmounts.
func WithParent(parent *Instance) Option {
	return func(v *Instance) {
		v.parent = parent
	}
}

// WithScheduler sets the scheduler for re-renders. Default: the parent's
// scheduler, or Immediate for a root.
func WithScheduler(s Scheduler) Option {
	return func(v *Instance) {
		v.scheduler = s
	}
}

// New creates an unmounted instance. An empty id is replaced with a
// generated one.
func New(id string, render RenderFunc, opts ...Option) *Instance {
	if id == "" {
		id = generateID()
	}
	v := &Instance{
		id:     id,
		render: render,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.parent != nil {
		v.parent.addChild(v)
		if v.scheduler == nil {
			v.scheduler = v.parent.scheduler
		}
	}
	if v.scheduler == nil {
		v.scheduler = Immediate{}
	}
	return v
}

// ID returns the instance identifier.
func (v *Instance) ID() string {
	return v.id
}

// Parent returns the parent instance, or nil for a root.
func (v *Instance) Parent() *Instance {
	return v.parent
}

// IsMounted reports whether the instance is mounted and not yet unmounted.
func (v *Instance) IsMounted() bool {
	return v.mounted.Load() && !v.disposed.Load()
}

// IsUnmounted reports whether the instance has been unmounted.
func (v *Instance) IsUnmounted() bool {
	return v.disposed.Load()
}

// Renders returns how many times the render function has run.
func (v *Instance) Renders() uint64 {
	return v.renders.Load()
}

// Dirty reports whether a re-render is pending.
func (v *Instance) Dirty() bool {
	return v.dirty.Load()
}

func (v *Instance) addChild(child *Instance) {
	v.childrenMu.Lock()
	defer v.childrenMu.Unlock()
	v.children = append(v.children, child)
}

func (v *Instance) removeChild(child *Instance) {
	v.childrenMu.Lock()
	defer v.childrenMu.Unlock()

	for i, c := range v.children {
		if c == child {
			v.children = append(v.children[:i], v.children[i+1:]...)
			return
		}
	}
}

// OnMount registers fn to run when the instance mounts. Runs fn immediately
// if the instance is already mounted; ignored after unmount.
func (v *Instance) OnMount(fn func()) {
	if v.disposed.Load() {
		return
	}
	if v.mounted.Load() {
		fn()
		return
	}

	v.hooksMu.Lock()
	v.mountHooks = append(v.mountHooks, fn)
	v.hooksMu.Unlock()
}

// OnUnmount registers fn to run when the instance unmounts. Runs fn
// immediately if the instance is already unmounted.
func (v *Instance) OnUnmount(fn func()) {
	if v.disposed.Load() {
		fn()
		return
	}

	v.hooksMu.Lock()
	v.unmountHooks = append(v.unmountHooks, fn)
	v.hooksMu.Unlock()
}

// Mount renders the instance, runs its mount hooks in registration order,
// then mounts its children.
func (v *Instance) Mount() {
	if v.disposed.Load() || v.mounted.Load() {
		return
	}

	v.Render()
	v.mounted.Store(true)

	v.hooksMu.Lock()
	hooks := v.mountHooks
	v.mountHooks = nil
	v.hooksMu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	v.childrenMu.Lock()
	children := make([]*Instance, len(v.children))
	copy(children, v.children)
	v.childrenMu.Unlock()

	for _, c := range children {
		c.Mount()
	}
}

// Unmount tears the instance down: children in reverse order, then unmount
// hooks in reverse order. Safe to call more than once.
func (v *Instance) Unmount() {
	if v.disposed.Swap(true) {
		return
	}

	if v.parent != nil {
		v.parent.removeChild(v)
	}

	v.childrenMu.Lock()
	children := make([]*Instance, len(v.children))
	copy(children, v.children)
	v.children = nil
	v.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Unmount()
	}

	v.hooksMu.Lock()
	hooks := v.unmountHooks
	v.unmountHooks = nil
	v.mountHooks = nil
	v.hooksMu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// ForceRerender marks the instance dirty and hands it to its scheduler.
// Requests made while a re-render is already pending are coalesced.
func (v *Instance) ForceRerender() {
	if v.disposed.Load() {
		return
	}
	if v.dirty.CompareAndSwap(false, true) {
		v.scheduler.Schedule(v)
	}
}

// Render runs the render function now and clears the dirty flag.
func (v *Instance) Render() {
	if v.disposed.Load() {
		return
	}
	v.dirty.Store(false)
	v.renders.Add(1)
	if v.render != nil {
		v.render(v)
	}
}
