package sqlite

import (
	c "github.com/guilherme-santos/localcalendar/internal/contract"
)

// Values maps column names to the values written to them.
type Values map[string]any

type collection struct {
	table   string
	columns map[string]bool
	// hasAccount is set when rows carry account_name and account_type.
	hasAccount bool
	// syncWrite makes every write a sync adapter only operation.
	syncWrite bool
	// syncInsertDelete restricts inserts and deletes to sync adapters.
	syncInsertDelete bool
	// syncColumns can only be written by sync adapters.
	syncColumns map[string]bool
}

func set(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, col := range cols {
		m[col] = true
	}
	return m
}

var collections = map[string]*collection{
	c.PathCalendars: {
		table: "calendars",
		columns: set(
			c.ID, c.AccountName, c.AccountType, c.CalendarOwnerAccount, c.CalendarName,
			c.CalendarDisplayName, c.CalendarColor, c.CalendarColorKey, c.CalendarAccessLevel,
			c.CalendarVisible, c.CalendarSyncEvents, c.CalendarIsPrimary,
			c.CalendarCanOrganizerRespond, c.CalendarCanModifyTimeZone,
			c.CalendarAllowedReminders, c.CalendarAllowedAttendeeTypes,
		),
		hasAccount:       true,
		syncInsertDelete: true,
		syncColumns: set(
			c.AccountName, c.AccountType, c.CalendarOwnerAccount, c.CalendarName,
			c.CalendarAccessLevel, c.CalendarIsPrimary, c.CalendarCanOrganizerRespond,
			c.CalendarCanModifyTimeZone, c.CalendarAllowedReminders, c.CalendarAllowedAttendeeTypes,
		),
	},
	c.PathColors: {
		table:      "colors",
		columns:    set(c.ID, c.AccountName, c.AccountType, c.ColorType, c.ColorKey, c.ColorValue),
		hasAccount: true,
		syncWrite:  true,
	},
	c.PathEvents: {
		table: "events",
		columns: set(
			c.ID, c.EventCalendarID, c.EventTitle, c.EventDescription, c.EventLocation,
			c.EventStart, c.EventEnd, c.EventAllDay, c.EventTimeZone, c.EventRRule, c.EventUID,
		),
	},
}
