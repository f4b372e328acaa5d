package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strconv"

	"github.com/mozillazg/go-unidecode"
	"github.com/rs/zerolog"

	"github.com/guilherme-santos/localcalendar"
	c "github.com/guilherme-santos/localcalendar/internal/contract"
	"github.com/guilherme-santos/localcalendar/internal/live"
	"github.com/guilherme-santos/localcalendar/internal/permission"
	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

var calendarProjection = []string{
	c.ID,
	c.AccountName,
	c.AccountType,
	c.CalendarOwnerAccount,
	c.CalendarName,
	c.CalendarDisplayName,
	c.CalendarColor,
	c.CalendarVisible,
	c.CalendarSyncEvents,
	c.CalendarIsPrimary,
}

const localNamePrefix = "local_"

var nonAlphanumeric = regexp.MustCompile("[^a-zA-Z0-9]")

// AsLocalCalendarSyncAdapter tags uri so the store accepts writes on behalf
// of the local account accountName.
func AsLocalCalendarSyncAdapter(accountName string, uri *url.URL) *url.URL {
	return c.AsSyncAdapter(uri, accountName, localcalendar.AccountTypeLocal)
}

type CalendarDataSource struct {
	store   Store
	palette []uint32
	log     zerolog.Logger

	all *live.Value[[]localcalendar.Calendar]
}

// NewCalendarDataSource returns a data source seeding new local accounts
// with palette. A nil palette means localcalendar.DefaultPalette.
func NewCalendarDataSource(store Store, perms permission.Checker, palette []uint32, log zerolog.Logger) *CalendarDataSource {
	if palette == nil {
		palette = localcalendar.DefaultPalette
	}
	d := &CalendarDataSource{
		store:   store,
		palette: palette,
		log:     log.With().Str("component", "calendars").Logger(),
	}
	granted := func() bool {
		return perms.Granted(permission.ReadCalendar)
	}
	// Subscribers may sort or edit their snapshot.
	d.all = live.New(store, c.CalendarsURI, granted, d.queryAll, log).WithClone(slices.Clone[[]localcalendar.Calendar])
	return d
}

// AllCalendars streams every calendar ordered by account name, a full
// snapshot after each change, until ctx is done. Nothing is sent while the
// read permission isn't granted.
func (d *CalendarDataSource) AllCalendars(ctx context.Context) <-chan []localcalendar.Calendar {
	return d.all.Observe(ctx)
}

func (d *CalendarDataSource) queryAll(ctx context.Context) ([]localcalendar.Calendar, error) {
	var rows []calendarRow
	err := d.store.Select(ctx, &rows, c.CalendarsURI, calendarProjection, "", nil, c.AccountName)
	if err != nil {
		return nil, err
	}
	cals := make([]localcalendar.Calendar, len(rows))
	for i, r := range rows {
		cals[i] = r.Convert()
	}
	return cals, nil
}

// AddLocalCalendar creates a calendar for the local account accountName,
// seeding the account colors first if it has none.
func (d *CalendarDataSource) AddLocalCalendar(ctx context.Context, accountName, displayName string) (int64, error) {
	if err := d.maybeAddCalendarAndEventColors(ctx, accountName); err != nil {
		return 0, fmt.Errorf("adding colors of %q: %w", accountName, err)
	}

	uri, err := d.store.Insert(ctx, AsLocalCalendarSyncAdapter(accountName, c.CalendarsURI), localCalendarValues(accountName, displayName))
	if err != nil {
		return 0, fmt.Errorf("adding local calendar %q: %w: %w", displayName, localcalendar.ErrInvalidArgument, err)
	}
	if uri == nil {
		return 0, fmt.Errorf("adding local calendar %q: %w", displayName, localcalendar.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(path.Base(uri.Path), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("adding local calendar %q: unexpected uri %s: %w", displayName, uri, localcalendar.ErrInvalidArgument)
	}

	d.log.Info().Int64("calendar_id", id).Str("account", accountName).Str("name", displayName).Msg("local calendar added")
	return id, nil
}

// DeleteLocalCalendar deletes the calendar id of the local account
// accountName. It returns true iff exactly one row was deleted.
func (d *CalendarDataSource) DeleteLocalCalendar(ctx context.Context, accountName string, id int64) (bool, error) {
	uri := c.WithAppendedID(AsLocalCalendarSyncAdapter(accountName, c.CalendarsURI), id)
	n, err := d.store.Delete(ctx, uri, "", nil)
	if err != nil {
		return false, err
	}
	if n == 1 {
		d.log.Info().Int64("calendar_id", id).Str("account", accountName).Msg("local calendar deleted")
	}
	return n == 1, nil
}

func localCalendarValues(accountName, displayName string) sqlite.Values {
	return sqlite.Values{
		c.AccountName:                  accountName,
		c.AccountType:                  localcalendar.AccountTypeLocal,
		c.CalendarOwnerAccount:         accountName,
		c.CalendarName:                 localName(displayName),
		c.CalendarDisplayName:          displayName,
		c.CalendarColorKey:             localcalendar.DefaultColorKey,
		c.CalendarAccessLevel:          c.AccessLevelRoot,
		c.CalendarVisible:              1,
		c.CalendarSyncEvents:           1,
		c.CalendarIsPrimary:            0,
		c.CalendarCanOrganizerRespond:  0,
		c.CalendarCanModifyTimeZone:    1,
		c.CalendarAllowedReminders:     strconv.Itoa(c.ReminderMethodAlert),
		c.CalendarAllowedAttendeeTypes: strconv.Itoa(c.AttendeeTypeNone),
	}
}

func localName(displayName string) string {
	return localNamePrefix + nonAlphanumeric.ReplaceAllString(unidecode.Unidecode(displayName), "")
}

func (d *CalendarDataSource) areCalendarColorsExisting(ctx context.Context, accountName string) (bool, error) {
	var id int64
	err := d.store.Get(ctx, &id, c.ColorsURI, []string{c.ID},
		c.AccountName+" = ? AND "+c.AccountType+" = ?",
		[]any{accountName, localcalendar.AccountTypeLocal},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (d *CalendarDataSource) maybeAddCalendarAndEventColors(ctx context.Context, accountName string) error {
	exists, err := d.areCalendarColorsExisting(ctx, accountName)
	if err != nil || exists {
		return err
	}

	rows := make([]sqlite.Values, 0, 2*len(d.palette))
	for i, color := range d.palette {
		key := strconv.Itoa(i)
		rows = append(rows,
			colorValues(accountName, localcalendar.ColorTypeCalendar, key, color),
			colorValues(accountName, localcalendar.ColorTypeEvent, key, color),
		)
	}
	n, err := d.store.BulkInsert(ctx, AsLocalCalendarSyncAdapter(accountName, c.ColorsURI), rows)
	if err != nil {
		return err
	}
	d.log.Debug().Str("account", accountName).Int("colors", n).Msg("color catalog added")
	return nil
}

func colorValues(accountName string, typ localcalendar.ColorType, key string, color uint32) sqlite.Values {
	return sqlite.Values{
		c.AccountName: accountName,
		c.AccountType: localcalendar.AccountTypeLocal,
		c.ColorType:   int(typ),
		c.ColorKey:    key,
		c.ColorValue:  color,
	}
}
