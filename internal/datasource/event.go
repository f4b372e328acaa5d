package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/guilherme-santos/localcalendar"
	c "github.com/guilherme-santos/localcalendar/internal/contract"
	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

type EventDataSource struct {
	store Store
}

func NewEventDataSource(store Store) *EventDataSource {
	return &EventDataSource{store: store}
}

// QueryNumberOfEvents counts the events of calendarID. ok is false when the
// store returned no row.
func (d *EventDataSource) QueryNumberOfEvents(ctx context.Context, calendarID int64) (n int64, ok bool, err error) {
	err = d.store.Get(ctx, &n, c.EventsURI, []string{c.Count}, c.EventCalendarID+" = ?", []any{calendarID})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// InsertEvent adds ev to calendarID and returns the event id.
func (d *EventDataSource) InsertEvent(ctx context.Context, calendarID int64, ev *localcalendar.Event) (int64, error) {
	uri, err := d.store.Insert(ctx, c.EventsURI, eventValues(calendarID, ev))
	if err != nil {
		return 0, fmt.Errorf("adding event %q: %w", ev.Summary, err)
	}
	return strconv.ParseInt(path.Base(uri.Path), 10, 64)
}

func eventValues(calendarID int64, ev *localcalendar.Event) sqlite.Values {
	values := sqlite.Values{
		c.EventCalendarID:  calendarID,
		c.EventTitle:       ev.Summary,
		c.EventDescription: ev.Description,
		c.EventLocation:    ev.Location,
		c.EventStart:       ev.StartsAt.UnixMilli(),
		c.EventAllDay:      0,
		c.EventUID:         ev.UID,
	}
	if !ev.EndsAt.IsZero() {
		values[c.EventEnd] = ev.EndsAt.UnixMilli()
	}
	if ev.AllDay {
		values[c.EventAllDay] = 1
	}
	if ev.TimeZone != "" {
		values[c.EventTimeZone] = ev.TimeZone
	}
	if ev.RRule != "" {
		values[c.EventRRule] = ev.RRule
	}
	return values
}
