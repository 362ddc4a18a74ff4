package selector

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/storekit/pkg/state"
)

func TestRegistryComputesLazily(t *testing.T) {
	computations := 0
	reg := New(map[string]Selector{
		"double": func(s state.State) any {
			computations++
			return s["count"].(int) * 2
		},
	})

	if computations != 0 {
		t.Errorf("expected no computation before read, got %d", computations)
	}

	s := state.State{"count": 3}
	if got := reg.GetAll(s)["double"]; got != 6 {
		t.Errorf("expected 6, got %v", got)
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}
}

func TestRegistryCachesUntilInvalidated(t *testing.T) {
	computations := 0
	reg := New(map[string]Selector{
		"double": func(s state.State) any {
			computations++
			return s["count"].(int) * 2
		},
	})
	s := state.State{"count": 3}

	for i := 0; i < 5; i++ {
		_ = reg.GetAll(s)
	}
	if computations != 1 {
		t.Errorf("expected still 1 computation (cached), got %d", computations)
	}

	s["count"] = 4
	reg.Invalidate()

	if got := reg.GetAll(s)["double"]; got != 8 {
		t.Errorf("expected 8, got %v", got)
	}
	if computations != 2 {
		t.Errorf("expected 2 computations, got %d", computations)
	}
	if reg.Recomputes("double") != 2 {
		t.Errorf("expected Recomputes 2, got %d", reg.Recomputes("double"))
	}
}

func TestRegistryInvalidateIsLazy(t *testing.T) {
	computations := 0
	reg := New(map[string]Selector{
		"n": func(s state.State) any {
			computations++
			return len(s)
		},
	})
	s := state.State{}
	_ = reg.GetAll(s)

	reg.Invalidate()
	reg.Invalidate()
	reg.Invalidate()

	if computations != 1 {
		t.Errorf("invalidate should not recompute eagerly, got %d computations", computations)
	}

	_ = reg.GetAll(s)
	_ = reg.GetAll(s)
	if computations != 2 {
		t.Errorf("expected one recompute after invalidation, got %d computations", computations)
	}
}

func TestRegistryGet(t *testing.T) {
	reg := New(map[string]Selector{
		"name": func(s state.State) any { return s["name"] },
	})
	s := state.State{"name": "ada"}

	if v, ok := reg.Get(s, "name"); !ok || v != "ada" {
		t.Errorf("expected ada, got %v (ok=%v)", v, ok)
	}
	if _, ok := reg.Get(s, "missing"); ok {
		t.Error("expected missing selector to report false")
	}
}

func TestRegistryNamesAndHas(t *testing.T) {
	noop := func(state.State) any { return nil }
	reg := New(map[string]Selector{"b": noop, "a": noop, "skipped": nil})

	if !reflect.DeepEqual(reg.Names(), []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", reg.Names())
	}
	if !reg.Has("a") || reg.Has("skipped") {
		t.Error("unexpected Has result")
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 selectors, got %d", reg.Len())
	}
	if reg.Recomputes("missing") != 0 {
		t.Error("expected 0 recomputes for unknown selector")
	}
}

func TestRegistryComputeHook(t *testing.T) {
	var names []string
	reg := New(map[string]Selector{
		"a": func(state.State) any { return 1 },
		"b": func(state.State) any { return 2 },
	}, WithComputeHook(func(name string, d time.Duration) {
		if d < 0 {
			t.Errorf("negative duration for %s", name)
		}
		names = append(names, name)
	}))

	_ = reg.GetAll(state.State{})
	_ = reg.GetAll(state.State{})

	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("expected hook for a and b once, got %v", names)
	}
}

func TestRegistrySelfReadReturnsCached(t *testing.T) {
	var reg *Registry
	calls := 0
	reg = New(map[string]Selector{
		"loop": func(s state.State) any {
			calls++
			prev, _ := reg.Get(s, "loop")
			if prev == nil {
				return 1
			}
			return prev.(int) + 1
		},
	})
	s := state.State{}

	if got := reg.GetAll(s)["loop"]; got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	reg.Invalidate()
	if got := reg.GetAll(s)["loop"]; got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls without recursion, got %d", calls)
	}
}

func TestValue(t *testing.T) {
	reg := New(map[string]Selector{
		"double": func(s state.State) any { return s["count"].(int) * 2 },
		"none":   func(state.State) any { return nil },
	})
	s := state.State{"count": 21}

	v, err := Value[int](reg, s, "double")
	if err != nil || v != 42 {
		t.Errorf("expected 42, got %d (err=%v)", v, err)
	}

	if _, err := Value[string](reg, s, "double"); err == nil {
		t.Error("expected type mismatch error")
	}

	if _, err := Value[int](reg, s, "missing"); !errors.Is(err, ErrUnknownSelector) {
		t.Errorf("expected ErrUnknownSelector, got %v", err)
	}

	if v, err := Value[int](reg, s, "none"); err != nil || v != 0 {
		t.Errorf("expected zero value for nil, got %d (err=%v)", v, err)
	}
}
