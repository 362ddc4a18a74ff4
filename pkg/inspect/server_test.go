package inspect

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/storekit/pkg/selector"
	"github.com/vango-dev/storekit/pkg/state"
	"github.com/vango-dev/storekit/pkg/store"
	"github.com/vango-dev/storekit/pkg/view"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *store.Store) {
	t.Helper()
	st := store.New(state.State{
		"count": 3,
		"user":  map[string]any{"name": "ada"},
	}, map[string]selector.Selector{
		"double": func(s state.State) any { return s["count"].(int) * 2 },
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(st, append([]Option{WithLogger(logger)}, opts...)...)
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("expected 200 ok, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGetState(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/state", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", got["count"])
	}
}

func TestGetStatePath(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/state/user.name", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `"ada"` {
		t.Errorf("expected \"ada\", got %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/state/user.email", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/state/user..name", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty segment, got %d", rec.Code)
	}
}

func TestPatchState(t *testing.T) {
	srv, st := newTestServer(t)

	renders := 0
	v := view.New("", func(v *view.Instance) {
		_ = st.UseState(v, "count")
		renders++
	})
	v.Mount()

	rec := do(t, srv, http.MethodPatch, "/state", `{"count": 4, "ratio": 0.5}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	if st.GetState()["count"] != 4 {
		t.Errorf("expected int count 4, got %#v", st.GetState()["count"])
	}
	if st.GetState()["ratio"] != 0.5 {
		t.Errorf("expected ratio 0.5, got %#v", st.GetState()["ratio"])
	}
	if renders != 2 {
		t.Errorf("expected one re-render, got %d renders", renders)
	}

	rec = do(t, srv, http.MethodGet, "/selectors", "")
	if strings.TrimSpace(rec.Body.String()) != `{"double":8}` {
		t.Errorf("expected double 8, got %s", rec.Body.String())
	}
}

func TestPatchStateRejectsBadBody(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{`{"count":`, `[1,2]`, `"x"`} {
		rec := do(t, srv, http.MethodPatch, "/state", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestGetSubscriptions(t *testing.T) {
	srv, st := newTestServer(t)
	v := view.New("", func(v *view.Instance) {
		_ = st.UseState(v, "count")
	})
	v.Mount()

	rec := do(t, srv, http.MethodGet, "/subscriptions", "")
	if strings.TrimSpace(rec.Body.String()) != `{"count":1}` {
		t.Errorf("expected count 1, got %s", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := do(t, srv, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without metrics, got %d", rec.Code)
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	srv, _ = newTestServer(t, WithMetrics(metrics))
	if rec := do(t, srv, http.MethodGet, "/metrics", ""); rec.Body.String() != "metrics" {
		t.Errorf("expected metrics handler, got %q", rec.Body.String())
	}
}

func TestWebSocketStreamsChanges(t *testing.T) {
	srv, st := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := st.SetPath("user.name", "grace"); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev ChangeEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Key != "user" || ev.Path != "user.name" || ev.Seq == 0 {
		t.Errorf("unexpected event %+v", ev)
	}

	srv.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection closed after Close")
	}
}

func TestDecodePatchNormalizesNumbers(t *testing.T) {
	got, err := decodePatch(strings.NewReader(`{"a": 1, "b": {"c": [2, 2.5]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["a"] != 1 {
		t.Errorf("expected int 1, got %#v", got["a"])
	}
	list := got["b"].(map[string]any)["c"].([]any)
	if list[0] != 2 || list[1] != 2.5 {
		t.Errorf("unexpected list %#v", list)
	}
}

func TestDecodePatchKeepsLargeIntegers(t *testing.T) {
	got, err := decodePatch(strings.NewReader(`{"big": 9007199254740993, "neg": -4294967296}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for key, want := range map[string]int64{"big": 9007199254740993, "neg": -4294967296} {
		var n int64
		switch v := got[key].(type) {
		case int:
			n = int64(v)
		case int64:
			n = v
		default:
			t.Errorf("%s: expected integer, got %#v", key, got[key])
			continue
		}
		if n != want {
			t.Errorf("%s: expected %d, got %d", key, want, n)
		}
	}
}
