package docstore

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// hub fans document changes out to watchers. A change only signals the
// watcher; the watcher goroutine re-reads the document, so a slow callback
// skips intermediate versions and always ends on the latest one.
type hub struct {
	store *SQLite

	mu       sync.Mutex
	closed   bool
	watchers map[string]map[*watcher]struct{}
}

type watcher struct {
	ref    DocRef
	fn     func(*Snapshot)
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newHub(s *SQLite) *hub {
	return &hub{store: s, watchers: make(map[string]map[*watcher]struct{})}
}

func (h *hub) watch(ref DocRef, fn func(*Snapshot)) func() {
	w := &watcher{
		ref:    ref,
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	set := h.watchers[ref.path]
	if set == nil {
		set = make(map[*watcher]struct{})
		h.watchers[ref.path] = set
	}
	set[w] = struct{}{}
	h.mu.Unlock()

	// Initial snapshot.
	w.poke()
	go h.run(w)

	return func() { h.remove(w) }
}

func (h *hub) run(w *watcher) {
	var last *Snapshot
	for {
		select {
		case <-w.done:
			return
		case <-w.signal:
		}
		snap, err := h.store.Get(context.Background(), w.ref)
		if err != nil {
			h.store.logger.Warn("watch read failed", zap.String("path", w.ref.path), zap.Error(err))
			continue
		}
		if last != nil && sameVersion(last, snap) {
			continue
		}
		select {
		case <-w.done:
			return
		default:
		}
		last = snap
		w.fn(snap)
	}
}

func (h *hub) changed(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers[path] {
		w.poke()
	}
}

func (h *hub) remove(w *watcher) {
	h.mu.Lock()
	if set := h.watchers[w.ref.path]; set != nil {
		delete(set, w)
		if len(set) == 0 {
			delete(h.watchers, w.ref.path)
		}
	}
	h.mu.Unlock()
	w.stop()
}

func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	all := h.watchers
	h.watchers = make(map[string]map[*watcher]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for w := range set {
			w.stop()
		}
	}
}

// active reports the number of live watchers.
func (h *hub) active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.watchers {
		n += len(set)
	}
	return n
}

func (w *watcher) poke() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

func sameVersion(a, b *Snapshot) bool {
	return a.Exists == b.Exists &&
		a.UpdateTime.Equal(b.UpdateTime) &&
		reflect.DeepEqual(a.Data, b.Data)
}

// ActiveWatches reports the number of subscriptions that have not been
// released.
func (s *SQLite) ActiveWatches() int {
	return s.hub.active()
}
