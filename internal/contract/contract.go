// Package contract holds the addresses and column names shared by the
// calendar store and its clients.
package contract

import (
	"net/url"
	"strconv"
)

const (
	Scheme    = "content"
	Authority = "com.android.calendar"
)

const (
	PathCalendars = "calendars"
	PathEvents    = "events"
	PathColors    = "colors"
)

var (
	CalendarsURI = contentURI(PathCalendars)
	EventsURI    = contentURI(PathEvents)
	ColorsURI    = contentURI(PathColors)
)

// Query parameters used to tag a request as coming from a sync adapter.
const (
	ParamCallerIsSyncAdapter = "caller_is_syncadapter"
	ParamAccountName         = "account_name"
	ParamAccountType         = "account_type"
)

// Columns shared by several collections.
const (
	ID          = "_id"
	Count       = "_count"
	AccountName = "account_name"
	AccountType = "account_type"
)

// Calendars columns.
const (
	CalendarOwnerAccount         = "ownerAccount"
	CalendarName                 = "name"
	CalendarDisplayName          = "calendar_displayName"
	CalendarColor                = "calendar_color"
	CalendarColorKey             = "calendar_color_index"
	CalendarAccessLevel          = "calendar_access_level"
	CalendarVisible              = "visible"
	CalendarSyncEvents           = "sync_events"
	CalendarIsPrimary            = "isPrimary"
	CalendarCanOrganizerRespond  = "canOrganizerRespond"
	CalendarCanModifyTimeZone    = "canModifyTimeZone"
	CalendarAllowedReminders     = "allowedReminders"
	CalendarAllowedAttendeeTypes = "allowedAttendeeTypes"
)

// Colors columns.
const (
	ColorType  = "color_type"
	ColorKey   = "color_index"
	ColorValue = "color"
)

// Events columns.
const (
	EventCalendarID  = "calendar_id"
	EventTitle       = "title"
	EventDescription = "description"
	EventLocation    = "eventLocation"
	EventStart       = "dtstart"
	EventEnd         = "dtend"
	EventAllDay      = "allDay"
	EventTimeZone    = "eventTimezone"
	EventRRule       = "rrule"
	EventUID         = "uid2445"
)

const (
	AccessLevelRoot = 800

	ReminderMethodAlert = 1
	AttendeeTypeNone    = 0
)

func contentURI(path string) *url.URL {
	return &url.URL{Scheme: Scheme, Host: Authority, Path: "/" + path}
}

// WithAppendedID returns a copy of uri addressing the row id.
func WithAppendedID(uri *url.URL, id int64) *url.URL {
	u := *uri
	u.Path = uri.Path + "/" + strconv.FormatInt(id, 10)
	return &u
}

// AsSyncAdapter returns a copy of uri tagged as issued by the sync adapter
// of the given account.
func AsSyncAdapter(uri *url.URL, accountName, accountType string) *url.URL {
	u := *uri
	q := u.Query()
	q.Set(ParamCallerIsSyncAdapter, "true")
	q.Set(ParamAccountName, accountName)
	q.Set(ParamAccountType, accountType)
	u.RawQuery = q.Encode()
	return &u
}

// SyncAdapterAccount returns the account a uri was tagged with by
// AsSyncAdapter.
func SyncAdapterAccount(uri *url.URL) (name, typ string, ok bool) {
	q := uri.Query()
	if v, _ := strconv.ParseBool(q.Get(ParamCallerIsSyncAdapter)); !v {
		return "", "", false
	}
	name, typ = q.Get(ParamAccountName), q.Get(ParamAccountType)
	if name == "" || typ == "" {
		return "", "", false
	}
	return name, typ, true
}
