package batch

import (
	"context"
	"sync"
	"time"
)

// BatchFunc loads a set of distinct keys in one upstream call. Keys absent
// from the returned map resolve to the zero value, which callers treat as
// not found.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type result[V any] struct {
	value V
	err   error
}

// Loader coalesces concurrent single-key lookups into one batched upstream
// call. Keys requested within the same batch window are collected and
// fetched together, every pending caller is resolved by key, and a lookup
// that arrives while its key's batch is still in flight joins that flight.
// Resolved values are cached for the lifetime of the Loader instance, so a
// repeated lookup never issues a second upstream call.
//
// All state is owned by one Loader instance and guarded by a single mutex;
// callers only ever block on their own result channel.
type Loader[K comparable, V any] struct {
	fetch  BatchFunc[K, V]
	window time.Duration

	mu       sync.Mutex
	cache    map[K]result[V]
	pending  map[K][]chan result[V]
	queue    []K
	flushing bool
}

// NewLoader creates a Loader with the given batch window. A zero window
// defaults to 2ms, long enough to collect one synchronous burst of lookups.
func NewLoader[K comparable, V any](window time.Duration, fetch BatchFunc[K, V]) *Loader[K, V] {
	if window == 0 {
		window = 2 * time.Millisecond
	}
	return &Loader[K, V]{
		fetch:   fetch,
		window:  window,
		cache:   make(map[K]result[V]),
		pending: make(map[K][]chan result[V]),
	}
}

// Load resolves one key, joining the current batch window if the key is not
// already cached or in flight.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	l.mu.Lock()
	if r, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return r.value, r.err
	}

	ch := make(chan result[V], 1)
	if waiters, ok := l.pending[key]; ok {
		// Key already queued by a concurrent caller; share its fetch.
		l.pending[key] = append(waiters, ch)
	} else {
		l.pending[key] = []chan result[V]{ch}
		l.queue = append(l.queue, key)
		if !l.flushing {
			l.flushing = true
			go l.flushAfterWindow()
		}
	}
	l.mu.Unlock()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (l *Loader[K, V]) flushAfterWindow() {
	time.Sleep(l.window)

	l.mu.Lock()
	keys := l.queue
	l.queue = nil
	l.flushing = false
	l.mu.Unlock()

	if len(keys) == 0 {
		return
	}

	// The pending entries stay in place while the batch is in flight, so a
	// lookup arriving mid-fetch joins the flight instead of queueing a
	// duplicate upstream call.
	values, err := l.fetch(context.Background(), keys)

	l.mu.Lock()
	for _, k := range keys {
		r := result[V]{err: err}
		if err == nil {
			r.value = values[k]
			l.cache[k] = r
		}
		// A failed batch fails every waiter; errors are not cached so a
		// later lookup retries upstream.
		for _, ch := range l.pending[k] {
			ch <- r
		}
		delete(l.pending, k)
	}
	l.mu.Unlock()
}
