package state

import (
	"errors"
	"reflect"
	"testing"
)

type changeRecorder struct {
	changes []Change
}

func (r *changeRecorder) record(ch Change) {
	r.changes = append(r.changes, ch)
}

func (r *changeRecorder) keys() []string {
	keys := make([]string, len(r.changes))
	for i, ch := range r.changes {
		keys[i] = ch.Key
	}
	return keys
}

func TestContainerSetNotifies(t *testing.T) {
	c := New(State{"count": 0})
	rec := &changeRecorder{}
	c.Subscribe(rec.record)

	c.Set("count", 5)

	if c.Get()["count"] != 5 {
		t.Errorf("expected count 5, got %v", c.Get()["count"])
	}
	if len(rec.changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(rec.changes))
	}
	if rec.changes[0].Key != "count" || rec.changes[0].Path != "count" {
		t.Errorf("unexpected change %+v", rec.changes[0])
	}
}

func TestContainerSetEqualValueStillNotifies(t *testing.T) {
	c := New(State{"count": 1})
	rec := &changeRecorder{}
	c.Subscribe(rec.record)

	c.Set("count", 1)
	c.Set("count", 1)

	if len(rec.changes) != 2 {
		t.Errorf("expected 2 changes for equal writes, got %d", len(rec.changes))
	}
}

func TestContainerPatchMerges(t *testing.T) {
	c := New(State{"count": 0, "name": "ada", "flag": true})
	c.Patch(State{"count": 5, "name": "grace"})

	want := State{"count": 5, "name": "grace", "flag": true}
	if !reflect.DeepEqual(c.Get(), want) {
		t.Errorf("expected %v, got %v", want, c.Get())
	}
}

func TestContainerPatchOneChangePerKey(t *testing.T) {
	c := New(State{})
	rec := &changeRecorder{}
	c.Subscribe(rec.record)

	c.Patch(State{"b": 2, "a": 1, "c": 3})

	if got := rec.keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected changes in key order, got %v", got)
	}
	for i, ch := range rec.changes {
		if ch.Seq != uint64(i+1) {
			t.Errorf("expected seq %d, got %d", i+1, ch.Seq)
		}
	}
}

func TestContainerIdentityStable(t *testing.T) {
	initial := State{"count": 0}
	c := New(initial)
	held := c.Get()

	c.Patch(State{"count": 1, "other": "x"})

	if held["count"] != 1 || held["other"] != "x" {
		t.Errorf("held reference should observe writes, got %v", held)
	}
	if initial["count"] != 1 {
		t.Error("container should write into the initial map")
	}
}

func TestContainerNilInitial(t *testing.T) {
	c := New(nil)
	if c.Get() == nil {
		t.Fatal("expected non-nil state")
	}
	c.Set("k", "v")
	if !c.Has("k") {
		t.Error("expected key k")
	}
}

func TestContainerSetPath(t *testing.T) {
	c := New(State{"user": map[string]any{"name": "ada"}})
	rec := &changeRecorder{}
	c.Subscribe(rec.record)

	if err := c.SetPath("user.name", "grace"); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	if err := c.SetPath("settings.theme.mode", "dark"); err != nil {
		t.Fatalf("SetPath creating maps: %v", err)
	}

	if v, _ := c.Lookup("user.name"); v != "grace" {
		t.Errorf("expected grace, got %v", v)
	}
	if v, _ := c.Lookup("settings.theme.mode"); v != "dark" {
		t.Errorf("expected dark, got %v", v)
	}
	if len(rec.changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(rec.changes))
	}
	if rec.changes[0].Key != "user" || rec.changes[0].Path != "user.name" {
		t.Errorf("unexpected change %+v", rec.changes[0])
	}
	if rec.changes[1].Key != "settings" {
		t.Errorf("expected top-level key settings, got %s", rec.changes[1].Key)
	}
}

func TestContainerSetPathErrors(t *testing.T) {
	c := New(State{"count": 3})
	rec := &changeRecorder{}
	c.Subscribe(rec.record)

	if err := c.SetPath("count.value", 1); !errors.Is(err, ErrNotMapping) {
		t.Errorf("expected ErrNotMapping, got %v", err)
	}
	if err := c.SetPath("", 1); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("expected ErrEmptyPath, got %v", err)
	}
	if err := c.SetPath("a..b", 1); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("expected ErrEmptyPath for empty segment, got %v", err)
	}
	if len(rec.changes) != 0 {
		t.Errorf("failed writes should not notify, got %d changes", len(rec.changes))
	}
}

func TestContainerLookupMissing(t *testing.T) {
	c := New(State{"user": map[string]any{"name": "ada"}, "count": 1})

	for _, path := range []string{"missing", "user.age", "count.value", ""} {
		if _, ok := c.Lookup(path); ok {
			t.Errorf("expected %q to be missing", path)
		}
	}
}

func TestContainerUnsubscribeIdempotent(t *testing.T) {
	c := New(nil)
	rec := &changeRecorder{}
	unsub := c.Subscribe(rec.record)

	unsub()
	unsub()
	c.Set("k", 1)

	if len(rec.changes) != 0 {
		t.Errorf("expected no changes after unsubscribe, got %d", len(rec.changes))
	}
}

func TestContainerUnsubscribeDuringNotify(t *testing.T) {
	c := New(nil)
	calls := 0
	var unsub func()
	unsub = c.Subscribe(func(Change) {
		calls++
		unsub()
	})
	other := &changeRecorder{}
	c.Subscribe(other.record)

	c.Set("a", 1)
	c.Set("b", 2)

	if calls != 1 {
		t.Errorf("expected self-unsubscribing listener to run once, got %d", calls)
	}
	if len(other.changes) != 2 {
		t.Errorf("expected other listener to see 2 changes, got %d", len(other.changes))
	}
}

func TestContainerSnapshotIsDeep(t *testing.T) {
	c := New(State{
		"user": map[string]any{"name": "ada"},
		"tags": []any{"a", map[string]any{"x": 1}},
	})

	snap := c.Snapshot()
	snap["user"].(map[string]any)["name"] = "changed"
	snap["tags"].([]any)[0] = "changed"

	if v, _ := c.Lookup("user.name"); v != "ada" {
		t.Errorf("snapshot mutation leaked into state: %v", v)
	}
	if c.Get()["tags"].([]any)[0] != "a" {
		t.Error("snapshot slice mutation leaked into state")
	}
}

func TestContainerKeys(t *testing.T) {
	c := New(State{"b": 1, "a": 2})
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestTopKey(t *testing.T) {
	tests := map[string]string{
		"count":     "count",
		"user.name": "user",
		"a.b.c":     "a",
	}
	for in, want := range tests {
		if got := TopKey(in); got != want {
			t.Errorf("TopKey(%q) = %q, expected %q", in, got, want)
		}
	}
}
