// Package importer copies events from an import source into a local
// calendar.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/internal"
)

var (
	ErrImporting        = errors.New("an error occurred while importing, check the logs")
	ErrCalendarNotFound = errors.New("calendar not found")
	ErrNotLocal         = errors.New("calendar is not local")
)

type Repository interface {
	QueryAccount(_ context.Context, calendarID int64) (*localcalendar.Account, error)
	ImportEvent(_ context.Context, calendarID int64, ev *localcalendar.Event) (int64, error)
}

type Importer struct {
	log  zerolog.Logger
	repo Repository

	// SkipRecurring ignores events with a recurrence rule.
	SkipRecurring bool
}

func New(log zerolog.Logger, repo Repository) *Importer {
	return &Importer{
		log:  log,
		repo: repo,
	}
}

// Import adds the events of it starting on or after from to calendarID. A
// zero from imports everything. It returns how many events were added.
func (i Importer) Import(ctx context.Context, calendarID int64, it internal.Iterator, from internal.Date) (uint64, error) {
	log := internal.CalendarLogger(i.log, calendarID)

	acc, err := i.repo.QueryAccount(ctx, calendarID)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, fmt.Errorf("%w: %d", ErrCalendarNotFound, calendarID)
	}
	if acc.Type != localcalendar.AccountTypeLocal {
		return 0, fmt.Errorf("%w: %d belongs to %s", ErrNotLocal, calendarID, acc)
	}

	log.Info().Msgf("Importing events since: %s", relativeDate(from))

	var (
		imported uint64
		skipped  uint64
		foundErr bool
	)
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		ev := it.Event()
		if i.ignoreEvent(ev, from) {
			skipped++
			continue
		}

		id, err := i.repo.ImportEvent(ctx, calendarID, ev)
		if err != nil {
			log.Error().Err(err).Str("uid", ev.UID).Msgf("Unable to import event %q on %s", ev.Summary, formatDateTime(ev.StartsAt))
			foundErr = true
			continue
		}
		log.Debug().Int64("event_id", id).Msgf("Imported event %q on %s", ev.Summary, formatDateTime(ev.StartsAt))
		imported++
	}

	if err := ctx.Err(); err != nil {
		log.Warn().Msgf("Import interrupted, %d event(s) imported", imported)
		return imported, err
	}
	if err := it.Err(); err != nil {
		log.Error().Err(err).Msg("Unable to read events")
		return imported, ErrImporting
	}
	if foundErr {
		log.Warn().Msgf("Some events couldn't be imported, %d imported succesfully", imported)
		return imported, ErrImporting
	}
	if imported == 0 {
		log.Info().Uint64("skipped", skipped).Msg("No events found to be imported")
	} else {
		log.Info().Uint64("skipped", skipped).Msgf("%d event(s) imported succesfully", imported)
	}
	return imported, nil
}

func (i Importer) ignoreEvent(ev *localcalendar.Event, from internal.Date) bool {
	if i.SkipRecurring && ev.RRule != "" {
		return true
	}
	// Recurring events may still have instances after from.
	if !from.IsZero() && ev.RRule == "" && ev.StartsAt.Before(from.Time) {
		return true
	}
	return false
}
