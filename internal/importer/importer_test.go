package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/internal"
)

type fakeRepo struct {
	account  *localcalendar.Account
	imported []*localcalendar.Event
	failOn   string
}

func (r *fakeRepo) QueryAccount(context.Context, int64) (*localcalendar.Account, error) {
	return r.account, nil
}

func (r *fakeRepo) ImportEvent(_ context.Context, _ int64, ev *localcalendar.Event) (int64, error) {
	if ev.UID == r.failOn {
		return 0, errors.New("refused")
	}
	r.imported = append(r.imported, ev)
	return int64(len(r.imported)), nil
}

type sliceIterator struct {
	events []*localcalendar.Event
	pos    int
	err    error
}

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.events) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Event() *localcalendar.Event { return it.events[it.pos-1] }
func (it *sliceIterator) Err() error                  { return it.err }

func events() []*localcalendar.Event {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC) }
	return []*localcalendar.Event{
		{UID: "a", Summary: "Old", StartsAt: day(1)},
		{UID: "b", Summary: "New", StartsAt: day(10)},
		{UID: "c", Summary: "Weekly", StartsAt: day(2), RRule: "FREQ=WEEKLY"},
	}
}

var local = &localcalendar.Account{Name: "offline", Type: localcalendar.AccountTypeLocal}

func TestImport(t *testing.T) {
	repo := &fakeRepo{account: local}
	n, err := New(zerolog.Nop(), repo).Import(context.Background(), 1, &sliceIterator{events: events()}, internal.Date{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Len(t, repo.imported, 3)
}

func TestImportFrom(t *testing.T) {
	repo := &fakeRepo{account: local}
	from := internal.NewDate(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))

	n, err := New(zerolog.Nop(), repo).Import(context.Background(), 1, &sliceIterator{events: events()}, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	var uids []string
	for _, ev := range repo.imported {
		uids = append(uids, ev.UID)
	}
	assert.Equal(t, []string{"b", "c"}, uids, "recurring events are kept")
}

func TestImportSkipRecurring(t *testing.T) {
	repo := &fakeRepo{account: local}
	imp := New(zerolog.Nop(), repo)
	imp.SkipRecurring = true

	n, err := imp.Import(context.Background(), 1, &sliceIterator{events: events()}, internal.Date{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestImportPartialFailure(t *testing.T) {
	repo := &fakeRepo{account: local, failOn: "b"}

	n, err := New(zerolog.Nop(), repo).Import(context.Background(), 1, &sliceIterator{events: events()}, internal.Date{})
	assert.ErrorIs(t, err, ErrImporting)
	assert.Equal(t, uint64(2), n)
}

func TestImportIteratorError(t *testing.T) {
	repo := &fakeRepo{account: local}
	it := &sliceIterator{err: errors.New("bad file")}

	_, err := New(zerolog.Nop(), repo).Import(context.Background(), 1, it, internal.Date{})
	assert.ErrorIs(t, err, ErrImporting)
}

func TestImportTarget(t *testing.T) {
	_, err := New(zerolog.Nop(), &fakeRepo{}).Import(context.Background(), 1, &sliceIterator{}, internal.Date{})
	assert.ErrorIs(t, err, ErrCalendarNotFound)

	remote := &fakeRepo{account: &localcalendar.Account{Name: "me@example.com", Type: "com.google"}}
	_, err = New(zerolog.Nop(), remote).Import(context.Background(), 1, &sliceIterator{events: events()}, internal.Date{})
	assert.ErrorIs(t, err, ErrNotLocal)
	assert.Empty(t, remote.imported)
}

func TestRelativeDate(t *testing.T) {
	assert.Equal(t, "always", relativeDate(internal.Date{}))
	assert.Equal(t, "2026-03-05", relativeDate(internal.NewDate(time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC))))
}

type cancellingRepo struct {
	fakeRepo
	cancel context.CancelFunc
}

func (r *cancellingRepo) ImportEvent(ctx context.Context, calendarID int64, ev *localcalendar.Event) (int64, error) {
	r.cancel()
	return r.fakeRepo.ImportEvent(ctx, calendarID, ev)
}

func TestImportCancelledOnLastEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &cancellingRepo{fakeRepo: fakeRepo{account: local}, cancel: cancel}
	it := &sliceIterator{events: events()[:1]}

	n, err := New(zerolog.Nop(), repo).Import(ctx, 1, it, internal.Date{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), n)
}
