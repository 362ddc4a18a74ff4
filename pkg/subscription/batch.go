package subscription

import (
	"runtime"
	"sync"
)

// batchFrame holds the batch state of one goroutine.
type batchFrame struct {
	// depth tracks nested Batch calls. When > 0, notifications queue
	// views instead of invoking them.
	depth int

	// pending are view ids to re-render when the outermost batch ends,
	// in first-notified order. Deduplicated by seen.
	pending []string
	seen    map[string]struct{}
}

// frames stores per-goroutine batch frames keyed by goroutine id.
type frames struct {
	m sync.Map // map[uint64]*batchFrame
}

// goroutineID parses the current goroutine id from the runtime stack header
// ("goroutine <id> [...").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// current returns the frame for the calling goroutine, or nil outside a batch.
func (f *frames) current() *batchFrame {
	if v, ok := f.m.Load(goroutineID()); ok {
		return v.(*batchFrame)
	}
	return nil
}

// enter increments the batch depth, creating the frame on first entry.
func (f *frames) enter() {
	gid := goroutineID()
	if v, ok := f.m.Load(gid); ok {
		v.(*batchFrame).depth++
		return
	}
	f.m.Store(gid, &batchFrame{depth: 1, seen: make(map[string]struct{})})
}

// exit decrements the batch depth. When the outermost batch ends it removes
// the frame and returns the pending view ids.
func (f *frames) exit() (pending []string, done bool) {
	gid := goroutineID()
	v, ok := f.m.Load(gid)
	if !ok {
		return nil, true
	}

	fr := v.(*batchFrame)
	fr.depth--
	if fr.depth > 0 {
		return nil, false
	}

	f.m.Delete(gid)
	return fr.pending, true
}

// queue adds a view id to the frame, ignoring duplicates.
func (fr *batchFrame) queue(id string) {
	if _, ok := fr.seen[id]; ok {
		return
	}
	fr.seen[id] = struct{}{}
	fr.pending = append(fr.pending, id)
}
