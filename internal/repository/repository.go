// Package repository is the source of truth for calendars, composing the
// data sources over one calendar store.
package repository

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/internal/datasource"
	"github.com/guilherme-santos/localcalendar/internal/permission"
)

var _ localcalendar.Repository = (*CalendarRepository)(nil)

// CalendarRepository is meant to be built once per process and shared.
type CalendarRepository struct {
	calendars *datasource.CalendarDataSource
	events    *datasource.EventDataSource
	accounts  *datasource.AccountDataSource
}

type Options struct {
	// Palette seeds the colors of new local accounts. Defaults to
	// localcalendar.DefaultPalette.
	Palette []uint32
	Log     zerolog.Logger
}

func New(store datasource.Store, perms permission.Checker, opts Options) *CalendarRepository {
	return &CalendarRepository{
		calendars: datasource.NewCalendarDataSource(store, perms, opts.Palette, opts.Log),
		events:    datasource.NewEventDataSource(store),
		accounts:  datasource.NewAccountDataSource(store),
	}
}

// CalendarsOrderedByAccount queries the store in the background, the
// returned channel only delivers results.
func (r *CalendarRepository) CalendarsOrderedByAccount(ctx context.Context) <-chan []localcalendar.Calendar {
	return r.calendars.AllCalendars(ctx)
}

func (r *CalendarRepository) AddLocalCalendar(ctx context.Context, accountName, displayName string) (int64, error) {
	return r.calendars.AddLocalCalendar(ctx, accountName, displayName)
}

func (r *CalendarRepository) DeleteLocalCalendar(ctx context.Context, accountName string, id int64) (bool, error) {
	return r.calendars.DeleteLocalCalendar(ctx, accountName, id)
}

func (r *CalendarRepository) QueryAccount(ctx context.Context, calendarID int64) (*localcalendar.Account, error) {
	return r.accounts.QueryAccount(ctx, calendarID)
}

func (r *CalendarRepository) QueryNumberOfEvents(ctx context.Context, calendarID int64) (int64, bool, error) {
	return r.events.QueryNumberOfEvents(ctx, calendarID)
}

// ImportEvent adds ev to calendarID.
func (r *CalendarRepository) ImportEvent(ctx context.Context, calendarID int64, ev *localcalendar.Event) (int64, error) {
	return r.events.InsertEvent(ctx, calendarID, ev)
}
