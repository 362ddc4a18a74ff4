package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/vango-dev/storekit/pkg/selector"
	"github.com/vango-dev/storekit/pkg/state"
	"github.com/vango-dev/storekit/pkg/subscription"
)

// Store combines a state container, a selector registry and a subscription
// manager behind one surface. A Store exclusively owns its container and
// registry for its whole lifetime.
type Store struct {
	container *state.Container
	registry  *selector.Registry
	subs      *subscription.Manager

	logger     *slog.Logger
	observer   Observer
	strictKeys bool

	// bindings maps view ids to their lifecycle binding.
	bindings map[string]*binding
	mu       sync.Mutex
}

// binding ties one view mount to its current subscription.
type binding struct {
	view       View
	watch      subscription.WatchSet
	mounted    bool
	unmounted  bool
	unregister func()
}

// New creates a store over initialState with the given selectors.
// It is not a singleton: applications typically keep one package-level
// instance created at startup.
func New(initialState state.State, selectors map[string]selector.Selector, opts ...Option) *Store {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store{
		container:  state.New(initialState),
		subs:       subscription.New(),
		logger:     cfg.logger,
		observer:   cfg.observer,
		strictKeys: cfg.strictKeys,
		bindings:   make(map[string]*binding),
	}

	var regOpts []selector.Option
	if s.observer != nil {
		regOpts = append(regOpts, selector.WithComputeHook(s.observer.SelectorComputed))
	}
	s.registry = selector.New(selectors, regOpts...)

	// Registered first so selectors are invalid before any other listener
	// observes the change.
	s.container.Subscribe(s.dispatch)

	return s
}

// dispatch fans a Change Notification out to the registry and manager.
func (s *Store) dispatch(ch state.Change) {
	s.registry.Invalidate()
	if s.observer != nil {
		s.observer.ChangeDispatched(ch.Key)
	}
	s.subs.Notify(ch.Key)
}

// GetState returns the live state.
func (s *Store) GetState() state.State {
	return s.container.Get()
}

// GetSelectors returns the current selector values, recomputing those
// invalidated since they were last read.
func (s *Store) GetSelectors() map[string]any {
	var out map[string]any
	s.container.Read(func(st state.State) {
		out = s.registry.GetAll(st)
	})
	return out
}

// GetStateAndSelectors returns the live state and the current selector values.
func (s *Store) GetStateAndSelectors() (state.State, map[string]any) {
	return s.GetState(), s.GetSelectors()
}

// Select returns one selector's current value.
func (s *Store) Select(name string) (any, error) {
	var (
		v  any
		ok bool
	)
	s.container.Read(func(st state.State) {
		v, ok = s.registry.Get(st, name)
	})
	if !ok {
		return nil, &LookupError{Kind: KindSelector, Name: name}
	}
	return v, nil
}

// Lookup returns the value at a dotted key-path.
func (s *Store) Lookup(path string) (any, bool) {
	return s.container.Lookup(path)
}

// Snapshot returns a deep copy of the state, safe to read from any goroutine.
func (s *Store) Snapshot() state.State {
	return s.container.Snapshot()
}

// PatchState merges partial into the state as one batch: one Change per key,
// and at most one re-render per affected view once all keys are written.
func (s *Store) PatchState(partial state.State) {
	s.PatchStateContext(context.Background(), partial)
}

// PatchStateContext is PatchState with a context for tracing.
func (s *Store) PatchStateContext(ctx context.Context, partial state.State) {
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	end := s.startPatch(ctx, keys)
	s.subs.Batch(func() {
		s.container.Patch(partial)
	})
	end(nil)

	s.logger.Debug("store: state patched", "keys", keys)
}

// Set writes one top-level key as its own batch.
func (s *Store) Set(key string, value any) {
	end := s.startPatch(context.Background(), []string{key})
	s.subs.Batch(func() {
		s.container.Set(key, value)
	})
	end(nil)
}

// SetPath writes a value at a dotted key-path as its own batch. Views
// watching the path's top-level key are re-rendered.
func (s *Store) SetPath(path string, value any) error {
	end := s.startPatch(context.Background(), []string{path})

	var err error
	s.subs.Batch(func() {
		err = s.container.SetPath(path, value)
	})
	end(err)
	return err
}

// Batch runs fn and defers all re-renders it causes until it returns, so
// several PatchState or Set calls re-render each view at most once.
func (s *Store) Batch(fn func()) {
	s.subs.Batch(fn)
}

// Subscribe registers fn to receive every Change Notification, after the
// store has invalidated its selectors. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(state.Change)) func() {
	return s.container.Subscribe(fn)
}

// Subscriptions returns the number of views currently subscribed.
func (s *Store) Subscriptions() int {
	return s.subs.Len()
}

func (s *Store) startPatch(ctx context.Context, keys []string) func(error) {
	if s.observer == nil {
		return func(error) {}
	}
	_, end := s.observer.PatchStarted(ctx, keys)
	return end
}

// UseState subscribes v to the given key-paths for the lifetime of its
// mount. Only each path's top-level key matters for re-rendering.
func (s *Store) UseState(v View, keys ...string) error {
	return s.use(v, keys, nil)
}

// UseSelectors subscribes v to the given selectors for the lifetime of its
// mount. A selector watcher re-renders on every state change.
func (s *Store) UseSelectors(v View, names ...string) error {
	return s.use(v, nil, names)
}

// UseStateAndSelectors subscribes v to keys and selectors for the lifetime
// of its mount.
func (s *Store) UseStateAndSelectors(v View, keys, names []string) error {
	return s.use(v, keys, names)
}

func (s *Store) use(v View, keys, names []string) error {
	if v == nil {
		return ErrNilView
	}

	watch, err := s.resolve(keys, names)
	if err != nil {
		s.logger.Warn("store: invalid watch set", "view", v.ID(), "error", err)
		return err
	}

	id := v.ID()

	s.mu.Lock()
	if b, ok := s.bindings[id]; ok && b.view == v {
		changed := !slices.Equal(b.watch.Keys, watch.Keys) || !slices.Equal(b.watch.Selectors, watch.Selectors)
		b.watch = watch
		mounted := b.mounted
		if mounted {
			b.unregister = s.subs.Register(id, watch, s.rerenderFunc(v))
		}
		s.mu.Unlock()

		// The subscription count is unchanged by a replacement.
		if mounted && changed {
			s.logger.Debug("store: view watch set replaced", "view", id, "keys", watch.Keys, "selectors", watch.Selectors)
		}
		return nil
	}

	// A new instance reusing an id takes the id over. The old binding's
	// unregister is token-checked, so its unmount leaves this one alone.
	b := &binding{view: v, watch: watch}
	s.bindings[id] = b
	s.mu.Unlock()

	v.OnMount(func() { s.mount(b) })
	v.OnUnmount(func() { s.unmount(b) })
	return nil
}

// resolve validates keys and names and builds the watch set.
func (s *Store) resolve(keys, names []string) (subscription.WatchSet, error) {
	var watch subscription.WatchSet
	seen := make(map[string]struct{}, len(keys))

	for _, path := range keys {
		if _, err := state.SplitPath(path); err != nil {
			return watch, fmt.Errorf("store: key-path %q: %w", path, err)
		}
		if s.strictKeys {
			if _, ok := s.container.Lookup(path); !ok {
				return watch, &LookupError{Kind: KindKey, Name: path}
			}
		}
		top := state.TopKey(path)
		if _, dup := seen[top]; dup {
			continue
		}
		seen[top] = struct{}{}
		watch.Keys = append(watch.Keys, top)
	}

	for _, name := range names {
		if !s.registry.Has(name) {
			return watch, &LookupError{Kind: KindSelector, Name: name}
		}
		watch.Selectors = append(watch.Selectors, name)
	}

	return watch, nil
}

func (s *Store) mount(b *binding) {
	id := b.view.ID()

	s.mu.Lock()
	if b.unmounted || b.mounted {
		s.mu.Unlock()
		return
	}
	b.mounted = true
	b.unregister = s.subs.Register(id, b.watch, s.rerenderFunc(b.view))
	s.mu.Unlock()

	s.logger.Debug("store: view subscribed", "view", id, "keys", b.watch.Keys, "selectors", b.watch.Selectors)
	s.subscriptionsChanged()
}

func (s *Store) unmount(b *binding) {
	id := b.view.ID()

	s.mu.Lock()
	if b.unmounted {
		s.mu.Unlock()
		return
	}
	b.unmounted = true
	unregister := b.unregister
	b.unregister = nil
	if s.bindings[id] == b {
		delete(s.bindings, id)
	}
	s.mu.Unlock()

	if unregister != nil {
		unregister()
		s.logger.Debug("store: view released", "view", id)
		s.subscriptionsChanged()
	}
}

func (s *Store) rerenderFunc(v View) func() {
	id := v.ID()
	return func() {
		if s.observer != nil {
			s.observer.ViewRerendered(id)
		}
		v.ForceRerender()
	}
}

func (s *Store) subscriptionsChanged() {
	if s.observer != nil {
		s.observer.SubscriptionsChanged(s.subs.Len())
	}
}
