// Package ics reads events from iCalendar files.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guilherme-santos/localcalendar"
)

const dateFormat = "20060102"

var errMissingStart = errors.New("missing DTSTART")

type eventOrError struct {
	e   *localcalendar.Event
	err error
}

// Iterator walks the events of a calendar file. It satisfies
// internal.Iterator.
type Iterator struct {
	events  chan eventOrError
	current eventOrError
	// err is set before events is closed when the iteration was cut short.
	err error
}

func (it *Iterator) Next() (ok bool) {
	it.current, ok = <-it.events
	if !ok && it.current.err == nil {
		it.current.err = it.err
	}
	if it.current.err != nil {
		return false
	}
	return ok
}

func (it *Iterator) Event() *localcalendar.Event {
	c := it.current
	if c.e == nil && c.err == nil {
		panic("ics: Event() called before Next()")
	}
	return c.e
}

func (it *Iterator) Err() error {
	return it.current.err
}

// Events parses r and iterates over its VEVENTs. Events that can't be read
// are logged and skipped. The iteration stops early with ctx.Err() when ctx
// is done.
func Events(ctx context.Context, r io.Reader, log zerolog.Logger) *Iterator {
	it := &Iterator{events: make(chan eventOrError)}

	go func() {
		defer close(it.events)

		cal, err := ical.ParseCalendar(r)
		if err != nil {
			it.send(ctx, eventOrError{err: fmt.Errorf("parsing calendar: %w", err)})
			return
		}
		for _, ve := range cal.Events() {
			ev, err := Parse(ve)
			if err != nil {
				log.Warn().Err(err).Str("uid", propValue(ve, ical.ComponentPropertyUniqueId)).Msg("skipping event")
				continue
			}
			if !it.send(ctx, eventOrError{e: ev}) {
				return
			}
		}
	}()
	return it
}

func (it *Iterator) send(ctx context.Context, v eventOrError) bool {
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}
	select {
	case it.events <- v:
		return true
	case <-ctx.Done():
		it.err = ctx.Err()
		return false
	}
}

// Parse converts a VEVENT. Events without UID get a random one; RRULE is
// kept as written.
func Parse(ve *ical.VEvent) (*localcalendar.Event, error) {
	ev := &localcalendar.Event{
		UID:         propValue(ve, ical.ComponentPropertyUniqueId),
		Summary:     propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Location:    propValue(ve, ical.ComponentPropertyLocation),
		RRule:       propValue(ve, ical.ComponentPropertyRrule),
	}
	if ev.UID == "" {
		ev.UID = uuid.NewString()
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil || dtstart.Value == "" {
		return nil, errMissingStart
	}
	ev.TimeZone = param(dtstart, "TZID")

	if isDate(dtstart) {
		start, err := time.ParseInLocation(dateFormat, dtstart.Value, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("DTSTART: %w", err)
		}
		ev.AllDay = true
		ev.StartsAt = start
		ev.EndsAt = start.AddDate(0, 0, 1)
		ev.TimeZone = "UTC"
		if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
			if end, err := time.ParseInLocation(dateFormat, dtend.Value, time.UTC); err == nil && end.After(start) {
				ev.EndsAt = end
			}
		}
		return ev, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}
	ev.StartsAt = start
	ev.EndsAt = start
	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		ev.EndsAt = end
	}
	return ev, nil
}

func isDate(p *ical.IANAProperty) bool {
	if strings.EqualFold(param(p, "VALUE"), "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
