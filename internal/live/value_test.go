package live

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/localcalendar/internal/contract"
	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

const waitFor = 2 * time.Second

type fakeStore struct {
	mu        sync.Mutex
	observers []sqlite.Observer
}

func (s *fakeStore) RegisterObserver(_ *url.URL, _ bool, obs sqlite.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *fakeStore) UnregisterObserver(obs sqlite.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == obs {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *fakeStore) change() {
	s.mu.Lock()
	obs := append([]sqlite.Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range obs {
		o.OnChange(contract.CalendarsURI)
	}
}

func counter(n *atomic.Int64) QueryFunc[int64] {
	return func(context.Context) (int64, error) {
		return n.Add(1), nil
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a value")
	}
	panic("unreachable")
}

func TestObserveSendsInitialValue(t *testing.T) {
	store := &fakeStore{}
	var queries atomic.Int64
	v := New(store, contract.CalendarsURI, nil, counter(&queries), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Observe(ctx)
	assert.Equal(t, int64(1), receive(t, ch))
	assert.Equal(t, 1, store.count())
}

func TestObserveRequeriesOnChange(t *testing.T) {
	store := &fakeStore{}
	var queries atomic.Int64
	v := New(store, contract.CalendarsURI, nil, counter(&queries), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Observe(ctx)
	require.Equal(t, int64(1), receive(t, ch))

	store.change()
	assert.Equal(t, int64(2), receive(t, ch))
}

func TestLastSubscriberLeavingUnregisters(t *testing.T) {
	store := &fakeStore{}
	var queries atomic.Int64
	v := New(store, contract.CalendarsURI, nil, counter(&queries), zerolog.Nop())

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	ch1 := v.Observe(ctx1)
	ch2 := v.Observe(ctx2)
	receive(t, ch1)

	cancel1()
	require.Eventually(t, func() bool { return v.Subscribers() == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, 1, store.count(), "still observed by the second subscriber")

	cancel2()
	require.Eventually(t, func() bool { return store.count() == 0 }, waitFor, time.Millisecond)

	for range ch2 {
	}
}

func TestNewSubscriberReceivesLatest(t *testing.T) {
	store := &fakeStore{}
	var queries atomic.Int64
	v := New(store, contract.CalendarsURI, nil, counter(&queries), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.Equal(t, int64(1), receive(t, v.Observe(ctx)))

	assert.Equal(t, int64(1), receive(t, v.Observe(ctx)))
	assert.Equal(t, int64(1), queries.Load(), "a second subscriber doesn't query again")
}

func TestPermissionDenied(t *testing.T) {
	store := &fakeStore{}
	var (
		queries atomic.Int64
		granted atomic.Bool
	)
	v := New(store, contract.CalendarsURI, granted.Load, counter(&queries), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	denied := v.Observe(ctx)
	select {
	case <-denied:
		t.Fatal("no value expected without permission")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, store.count())
	assert.Zero(t, queries.Load())
	cancel()

	granted.Store(true)
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	assert.Equal(t, int64(1), receive(t, v.Observe(ctx)))
	assert.Equal(t, 1, store.count())
}

func TestChangesWhileQueryingAreCoalesced(t *testing.T) {
	store := &fakeStore{}
	var queries atomic.Int64
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	query := func(context.Context) (int64, error) {
		started <- struct{}{}
		<-release
		return queries.Add(1), nil
	}
	v := New(store, contract.CalendarsURI, nil, query, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Observe(ctx)
	<-started
	for range 5 {
		store.change()
	}
	close(release)

	require.Eventually(t, func() bool { return queries.Load() == 2 }, waitFor, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(2), queries.Load(), "one trailing query for all the changes")
	assert.Equal(t, int64(2), receive(t, ch), "only the latest result is kept")
}

func TestResultAfterDeactivationIsDropped(t *testing.T) {
	store := &fakeStore{}
	release := make(chan struct{})
	done := make(chan struct{})
	query := func(context.Context) (int64, error) {
		defer close(done)
		<-release
		return 42, nil
	}
	v := New(store, contract.CalendarsURI, nil, query, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := v.Observe(ctx)
	cancel()
	require.Eventually(t, func() bool { return store.count() == 0 }, waitFor, time.Millisecond)

	close(release)
	<-done

	_, ok := <-ch
	assert.False(t, ok, "no value after the subscription ended")
}

func TestQueryErrorKeepsSubscription(t *testing.T) {
	store := &fakeStore{}
	var calls atomic.Int64
	query := func(context.Context) (int64, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("store unavailable")
		}
		return 7, nil
	}
	v := New(store, contract.CalendarsURI, nil, query, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Observe(ctx)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, time.Millisecond)

	store.change()
	assert.Equal(t, int64(7), receive(t, ch))
}

func TestDeniedSubscriberReceivesOnceActivated(t *testing.T) {
	store := &fakeStore{}
	var (
		queries atomic.Int64
		granted atomic.Bool
	)
	v := New(store, contract.CalendarsURI, granted.Load, counter(&queries), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	early := v.Observe(ctx)
	granted.Store(true)
	late := v.Observe(ctx)

	assert.Equal(t, int64(1), receive(t, late))
	assert.Equal(t, int64(1), receive(t, early), "the earlier subscriber is part of the active Value")
}

func TestWithCloneGivesEachSubscriberItsOwnCopy(t *testing.T) {
	store := &fakeStore{}
	query := func(context.Context) ([]int, error) {
		return []int{3, 1, 2}, nil
	}
	v := New(store, contract.CalendarsURI, nil, query, zerolog.Nop()).WithClone(slices.Clone[[]int])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := receive(t, v.Observe(ctx))
	first[0] = 42
	slices.Sort(first)

	assert.Equal(t, []int{3, 1, 2}, receive(t, v.Observe(ctx)), "the cached result is untouched")
}
