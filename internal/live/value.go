// Package live publishes the result of a store query to subscribers and
// refreshes it every time the store reports a change.
package live

import (
	"context"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

// Observable is the part of the store a Value listens to.
type Observable interface {
	RegisterObserver(uri *url.URL, descendants bool, obs sqlite.Observer)
	UnregisterObserver(obs sqlite.Observer)
}

type QueryFunc[T any] func(context.Context) (T, error)

// Value is inactive until its first subscriber arrives. It then registers
// an observer on uri, runs query and sends the result to every subscriber,
// again after each change notification. When the last subscriber leaves the
// observer is unregistered and the cached result dropped.
//
// At most one query runs at a time. Notifications received while a query
// runs are folded into a single query started once it finishes. Results of
// queries started before the Value went inactive are discarded.
type Value[T any] struct {
	store   Observable
	uri     *url.URL
	granted func() bool
	query   QueryFunc[T]
	clone   func(T) T
	log     zerolog.Logger

	mu         sync.Mutex
	subs       map[chan T]struct{}
	observer   *observer[T]
	generation uint64
	running    bool
	dirty      bool
	latest     T
	hasLatest  bool
}

// New returns an inactive Value. granted is checked before activating; when
// it reports false the Value stays silent until a later subscriber finds it
// true, then every subscriber receives results, including those that
// subscribed while it was false. A nil granted always allows.
func New[T any](store Observable, uri *url.URL, granted func() bool, query QueryFunc[T], log zerolog.Logger) *Value[T] {
	return &Value[T]{
		store:   store,
		uri:     uri,
		granted: granted,
		query:   query,
		log:     log.With().Str("component", "live").Str("uri", uri.String()).Logger(),
		subs:    make(map[chan T]struct{}),
	}
}

// WithClone makes each subscriber receive its own copy of a result, made by
// clone. Without it every subscriber shares the same value.
func (v *Value[T]) WithClone(clone func(T) T) *Value[T] {
	v.clone = clone
	return v
}

// Observe subscribes until ctx is done, then the returned channel is
// closed. The channel holds only the latest result: a result that wasn't
// received yet is replaced by a newer one.
func (v *Value[T]) Observe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	v.subs[ch] = struct{}{}
	if v.observer == nil {
		v.activate()
	}
	if v.hasLatest {
		offer(ch, v.copy(v.latest))
	}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()

		v.mu.Lock()
		defer v.mu.Unlock()

		delete(v.subs, ch)
		close(ch)
		if len(v.subs) == 0 {
			v.deactivate()
		}
	}()
	return ch
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.subs)
}

func (v *Value[T]) activate() {
	if v.granted != nil && !v.granted() {
		v.log.Debug().Msg("read permission not granted, not observing")
		return
	}
	v.observer = &observer[T]{value: v, generation: v.generation}
	v.store.RegisterObserver(v.uri, true, v.observer)
	v.log.Debug().Uint64("generation", v.generation).Msg("active")
	v.requery()
}

func (v *Value[T]) deactivate() {
	if v.observer != nil {
		v.store.UnregisterObserver(v.observer)
		v.observer = nil
		v.log.Debug().Uint64("generation", v.generation).Msg("inactive")
	}
	var zero T
	v.generation++
	v.running = false
	v.dirty = false
	v.latest, v.hasLatest = zero, false
}

func (v *Value[T]) onChange(generation uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if generation != v.generation || v.observer == nil {
		return
	}
	v.requery()
}

func (v *Value[T]) requery() {
	if v.running {
		v.dirty = true
		return
	}
	v.running = true
	go v.run(v.generation)
}

func (v *Value[T]) run(generation uint64) {
	for {
		// Queries aren't canceled on deactivation, their result is dropped.
		result, err := v.query(context.Background())

		v.mu.Lock()
		if generation != v.generation {
			v.mu.Unlock()
			return
		}
		if err != nil {
			v.log.Error().Err(err).Msg("query failed")
		} else {
			v.latest, v.hasLatest = result, true
			for ch := range v.subs {
				offer(ch, v.copy(result))
			}
		}
		if !v.dirty {
			v.running = false
			v.mu.Unlock()
			return
		}
		v.dirty = false
		v.mu.Unlock()
	}
}

func (v *Value[T]) copy(val T) T {
	if v.clone == nil {
		return val
	}
	return v.clone(val)
}

// offer replaces whatever ch holds with val. Callers hold v.mu, so there's
// no other sender.
func offer[T any](ch chan T, val T) {
	select {
	case ch <- val:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- val
}

type observer[T any] struct {
	value      *Value[T]
	generation uint64
}

func (o *observer[T]) OnChange(*url.URL) {
	o.value.onChange(o.generation)
}
