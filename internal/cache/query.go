package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for a query key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// State is a snapshot of one query key.
type State[T any] struct {
	Data      T
	HasData   bool
	Loading   bool
	Err       error
	Stale     bool
	UpdatedAt time.Time
}

type queryEntry[T any] struct {
	state State[T]
}

// keyMeta outlives the cached entry while a fetch is in flight. gen is
// bumped by Invalidate and Remove; a fetch only stores its result when
// the generation it started under is still current.
type keyMeta struct {
	gen      uint64
	inflight int
}

// Query is a read-through cache keyed by resource path. Data is fresh
// until the key is invalidated (or staleTime elapses, when set). Each
// change to a key is pushed to that key's subscribers.
//
// Concurrent fetches of the same key share one request, unless the key
// was invalidated in between: a fetch after Invalidate always issues a
// new request, and the older one can no longer overwrite the key.
// In-flight requests are never cancelled: a result that arrives late is
// stored under its own key and simply goes unread.
type Query[T any] struct {
	mu        sync.Mutex
	entries   *LRUCache[*queryEntry[T]]
	meta      map[string]*keyMeta
	evicted   []string
	subs      map[string]map[uint64]func(State[T])
	nextSub   uint64
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
}

// NewQuery creates a query cache holding at most maxEntries keys. Keys not
// read or written for gcTime are dropped and their subscribers receive an
// empty state; staleTime of zero means data only goes stale through
// Invalidate.
func NewQuery[T any](maxEntries int, gcTime, staleTime time.Duration) *Query[T] {
	q := &Query[T]{
		entries:   NewLRUCache[*queryEntry[T]](maxEntries, gcTime),
		meta:      make(map[string]*keyMeta),
		subs:      make(map[string]map[uint64]func(State[T])),
		staleTime: staleTime,
		now:       time.Now,
	}
	// Every call that can evict runs with q.mu held.
	q.entries.OnEvict(func(key string, _ *queryEntry[T]) {
		if m, ok := q.meta[key]; ok && m.inflight == 0 {
			delete(q.meta, key)
		}
		q.evicted = append(q.evicted, key)
	})
	return q
}

// Fetch returns cached data when it is fresh, otherwise loads it with fn.
func (q *Query[T]) Fetch(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	if st, ok := q.fresh(key); ok {
		return st.Data, nil
	}
	return q.load(ctx, key, fn)
}

// Refetch always loads the key, sharing a fetch already in flight only
// when it started after the last Invalidate.
func (q *Query[T]) Refetch(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	return q.load(ctx, key, fn)
}

// State returns the current snapshot for key (zero value when absent).
func (q *Query[T]) State(key string) State[T] {
	q.mu.Lock()
	e, ok := q.entries.Get(key)
	gone := q.takeEvictedLocked("")
	q.mu.Unlock()

	q.notifyEvicted(gone)
	if ok {
		return e.state
	}
	return State[T]{}
}

// Invalidate marks key stale so the next Fetch goes to the network. A
// fetch already in flight is detached: its result is not stored and later
// callers do not join it. It reports whether the key was cached.
func (q *Query[T]) Invalidate(key string) bool {
	existed := false
	q.update(key, func(s *State[T]) bool {
		q.bumpLocked(key)
		if !s.HasData && s.Err == nil && !s.Loading {
			return false
		}
		existed = true
		s.Stale = true
		return true
	})
	return existed
}

// Remove drops key and its data. Subscribers receive an empty state and a
// fetch in flight for key is not stored.
func (q *Query[T]) Remove(key string) {
	q.mu.Lock()
	q.bumpLocked(key)
	if m, ok := q.meta[key]; ok && m.inflight == 0 {
		delete(q.meta, key)
	}
	_, existed := q.entries.Get(key)
	q.entries.Delete(key)
	subs := q.subscribersLocked(key)
	gone := q.takeEvictedLocked(key)
	q.mu.Unlock()

	q.notifyEvicted(gone)
	if existed {
		notify(subs, State[T]{})
	}
}

// Subscribe registers fn for changes to key. The returned func removes it.
func (q *Query[T]) Subscribe(key string, fn func(State[T])) func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextSub++
	id := q.nextSub
	if q.subs[key] == nil {
		q.subs[key] = make(map[uint64]func(State[T]))
	}
	q.subs[key][id] = fn

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.subs[key], id)
		if len(q.subs[key]) == 0 {
			delete(q.subs, key)
		}
	}
}

// CleanExpired drops keys unused for longer than gcTime.
func (q *Query[T]) CleanExpired() int {
	q.mu.Lock()
	n := q.entries.CleanExpired()
	gone := q.takeEvictedLocked("")
	q.mu.Unlock()

	q.notifyEvicted(gone)
	return n
}

// Size returns the number of cached keys.
func (q *Query[T]) Size() int {
	return q.entries.Size()
}

func (q *Query[T]) fresh(key string) (State[T], bool) {
	st := q.State(key)
	if !st.HasData || st.Stale || st.Err != nil {
		return st, false
	}
	if q.staleTime > 0 && q.now().Sub(st.UpdatedAt) > q.staleTime {
		return st, false
	}
	return st, true
}

func (q *Query[T]) load(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	v, err, _ := q.group.Do(key, func() (any, error) {
		var gen uint64
		q.update(key, func(s *State[T]) bool {
			m := q.metaLocked(key)
			m.inflight++
			gen = m.gen
			s.Loading = true
			return true
		})

		data, err := fn(ctx)
		q.update(key, func(s *State[T]) bool {
			m := q.metaLocked(key)
			m.inflight--
			s.Loading = m.inflight > 0
			if m.gen != gen {
				// invalidated or removed while in flight
				return true
			}
			if err != nil {
				s.Err = err
				return true
			}
			s.Data = data
			s.HasData = true
			s.Err = nil
			s.Stale = false
			s.UpdatedAt = q.now()
			return true
		})
		return data, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// update applies mutate to the entry for key, creating it when needed,
// and notifies subscribers when mutate reports a change. mutate runs with
// q.mu held.
func (q *Query[T]) update(key string, mutate func(*State[T]) bool) {
	q.mu.Lock()
	e, ok := q.entries.Get(key)
	next := State[T]{}
	if ok {
		next = e.state
	}
	if !mutate(&next) {
		gone := q.takeEvictedLocked(key)
		q.mu.Unlock()
		q.notifyEvicted(gone)
		return
	}
	q.entries.Set(key, &queryEntry[T]{state: next})
	subs := q.subscribersLocked(key)
	gone := q.takeEvictedLocked(key)
	q.mu.Unlock()

	q.notifyEvicted(gone)
	notify(subs, next)
}

func (q *Query[T]) metaLocked(key string) *keyMeta {
	m, ok := q.meta[key]
	if !ok {
		m = &keyMeta{}
		q.meta[key] = m
	}
	return m
}

// bumpLocked starts a new generation for key and makes the next load
// issue its own request instead of joining the current one.
func (q *Query[T]) bumpLocked(key string) {
	if m, ok := q.meta[key]; ok {
		m.gen++
	}
	q.group.Forget(key)
}

// takeEvictedLocked returns the keys collected since the last call,
// leaving out skip, which the caller is about to write or notify itself.
func (q *Query[T]) takeEvictedLocked(skip string) map[string][]func(State[T]) {
	if len(q.evicted) == 0 {
		return nil
	}
	out := make(map[string][]func(State[T]), len(q.evicted))
	for _, key := range q.evicted {
		if key != skip {
			out[key] = q.subscribersLocked(key)
		}
	}
	q.evicted = q.evicted[:0]
	return out
}

func (q *Query[T]) notifyEvicted(gone map[string][]func(State[T])) {
	for _, subs := range gone {
		notify(subs, State[T]{})
	}
}

func (q *Query[T]) subscribersLocked(key string) []func(State[T]) {
	out := make([]func(State[T]), 0, len(q.subs[key]))
	for _, fn := range q.subs[key] {
		out = append(out, fn)
	}
	return out
}

func notify[T any](subs []func(State[T]), st State[T]) {
	for _, fn := range subs {
		fn(st)
	}
}
