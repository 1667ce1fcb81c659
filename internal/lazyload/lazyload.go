// Package lazyload provides a bounded LRU cache of loaded workspaces
// plus a priority background loader, so opening cohort with many
// saved workspaces only blocks on the one the user actually lands on;
// the rest stream in afterward in priority order.
package lazyload

import (
	"container/list"
	"sync"
	"time"

	"github.com/cohortcli/cohort/internal/store"
)

// Priority orders background load requests; HIGH jumps the queue
// ahead of NORMAL and LOW.
type Priority int

const (
	Low Priority = iota
	Normal
	High
)

type entry struct {
	id string
	ws store.Workspace
}

// Loader is a bounded-capacity LRU cache over a Store, backed by a
// single background goroutine that drains a priority queue of load
// requests.
type Loader struct {
	st       *store.Store
	capacity int
	interval time.Duration

	mu      sync.Mutex
	items   map[string]*list.Element // id -> LRU element
	lru     *list.List               // front = most recently used

	queue   []queueItem
	cond    *sync.Cond
	closed  bool
	notify  func(id string, ws store.Workspace, err error)
}

type queueItem struct {
	id       string
	priority Priority
}

// New returns a Loader over st with the given cache capacity and
// inter-load pacing interval (0 uses the 100ms default). notify, if
// non-nil, is called once per background load completion.
func New(st *store.Store, capacity int, interval time.Duration, notify func(id string, ws store.Workspace, err error)) *Loader {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	l := &Loader{
		st:       st,
		capacity: capacity,
		interval: interval,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		notify:   notify,
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Initialize synchronously loads activeID (the workspace the UI will
// display immediately) and enqueues every other known id for
// background loading at Normal priority.
func (l *Loader) Initialize(activeID string, allIDs []string) (store.Workspace, error) {
	ws, err := l.GetWorkspace(activeID)
	for _, id := range allIDs {
		if id != activeID {
			l.Prefetch(id, Normal)
		}
	}
	return ws, err
}

// GetWorkspace returns a workspace, loading it synchronously and
// promoting it to most-recently-used if not already cached.
func (l *Loader) GetWorkspace(id string) (store.Workspace, error) {
	l.mu.Lock()
	if el, ok := l.items[id]; ok {
		l.lru.MoveToFront(el)
		ws := el.Value.(*entry).ws
		l.mu.Unlock()
		return ws, nil
	}
	l.mu.Unlock()

	ws, err := l.st.Load(id)
	if err != nil {
		return store.Workspace{}, err
	}
	l.put(id, ws)
	return ws, nil
}

// Prefetch enqueues id for background loading at the given priority.
// A no-op if id is already cached.
func (l *Loader) Prefetch(id string, priority Priority) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[id]; ok {
		return
	}
	for _, q := range l.queue {
		if q.id == id {
			return
		}
	}
	l.queue = append(l.queue, queueItem{id: id, priority: priority})
	l.cond.Signal()
}

// Invalidate evicts id from the cache, if present.
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.items[id]; ok {
		l.lru.Remove(el)
		delete(l.items, id)
	}
}

// Shutdown stops the background loader goroutine.
func (l *Loader) Shutdown() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

func (l *Loader) put(id string, ws store.Workspace) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.items[id]; ok {
		el.Value.(*entry).ws = ws
		l.lru.MoveToFront(el)
		return
	}

	el := l.lru.PushFront(&entry{id: id, ws: ws})
	l.items[id] = el

	for l.capacity > 0 && l.lru.Len() > l.capacity {
		oldest := l.lru.Back()
		if oldest == nil {
			break
		}
		l.lru.Remove(oldest)
		delete(l.items, oldest.Value.(*entry).id)
	}
}

// run is the background loader loop: pop the highest-priority queued
// id, load it, notify, sleep interval, repeat.
func (l *Loader) run() {
	for {
		l.mu.Lock()
		for !l.closed && len(l.queue) == 0 {
			l.cond.Wait()
		}
		if l.closed {
			l.mu.Unlock()
			return
		}
		idx := highestPriorityIndex(l.queue)
		item := l.queue[idx]
		l.queue = append(l.queue[:idx], l.queue[idx+1:]...)
		l.mu.Unlock()

		ws, err := l.st.Load(item.id)
		if err == nil {
			l.put(item.id, ws)
		}
		if l.notify != nil {
			l.notify(item.id, ws, err)
		}

		time.Sleep(l.interval)
	}
}

func highestPriorityIndex(q []queueItem) int {
	best := 0
	for i, item := range q {
		if item.priority > q[best].priority {
			best = i
		}
	}
	return best
}
