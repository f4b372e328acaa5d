package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/internal/permission"
	"github.com/guilherme-santos/localcalendar/internal/repository"
	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

func newRepository(t *testing.T, perms ...permission.Permission) *repository.CalendarRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	s, err := sqlite.NewStorage(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return repository.New(s, permission.NewSet(perms...), repository.Options{Log: zerolog.Nop()})
}

func countNamed(cals []localcalendar.Calendar, name string) int {
	var n int
	for _, cal := range cals {
		if cal.DisplayName == name {
			n++
		}
	}
	return n
}

func TestCalendarLifecycle(t *testing.T) {
	repo := newRepository(t, permission.ReadCalendar, permission.WriteCalendar)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := repo.CalendarsOrderedByAccount(ctx)
	select {
	case cals := <-snapshots:
		assert.Empty(t, cals)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first snapshot")
	}

	id, err := repo.AddLocalCalendar(ctx, "offline", "Trips")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case cals := <-snapshots:
			return countNamed(cals, "Trips") == 1
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond, "the new calendar shows up without asking")

	acc, err := repo.QueryAccount(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "offline", acc.Name)
	assert.Equal(t, localcalendar.AccountTypeLocal, acc.Type)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.ImportEvent(ctx, id, &localcalendar.Event{
		UID:      "museum@example.com",
		Summary:  "Museum",
		StartsAt: start,
		EndsAt:   start.AddDate(0, 0, 1),
		AllDay:   true,
	})
	require.NoError(t, err)

	n, ok, err := repo.QueryNumberOfEvents(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)

	deleted, err := repo.DeleteLocalCalendar(ctx, "offline", id)
	require.NoError(t, err)
	assert.True(t, deleted)

	require.Eventually(t, func() bool {
		select {
		case cals := <-snapshots:
			return countNamed(cals, "Trips") == 0
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)

	acc, err = repo.QueryAccount(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, acc)

	n, _, err = repo.QueryNumberOfEvents(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n, "events go with their calendar")
}

func TestSubscribersShareSnapshots(t *testing.T) {
	repo := newRepository(t, permission.ReadCalendar)
	ctx := context.Background()

	_, err := repo.AddLocalCalendar(ctx, "offline", "Trips")
	require.NoError(t, err)

	ctx1, cancel1 := context.WithCancel(ctx)
	defer cancel1()
	ctx2, cancel2 := context.WithCancel(ctx)
	defer cancel2()

	for _, ch := range []<-chan []localcalendar.Calendar{
		repo.CalendarsOrderedByAccount(ctx1),
		repo.CalendarsOrderedByAccount(ctx2),
	} {
		select {
		case cals := <-ch:
			assert.Equal(t, 1, countNamed(cals, "Trips"))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a snapshot")
		}
	}
}
