package localcalendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AccountTypeLocal is the account type of calendars that are not backed by
// any sync account.
const AccountTypeLocal = "LOCAL"

// DefaultColorKey is the color key assigned to newly created local calendars.
const DefaultColorKey = "1"

var ErrInvalidArgument = errors.New("invalid argument")

type Account struct {
	Name string
	Type string
}

func (a Account) String() string {
	return a.Type + "/" + a.Name
}

// Calendar is a snapshot of a calendar row. It is rebuilt on every query.
type Calendar struct {
	ID           int64
	AccountName  string
	AccountType  string
	OwnerAccount string
	Name         string
	DisplayName  string
	Color        uint32
	Visible      bool
	SyncEvents   bool
	IsPrimary    bool
}

func (c Calendar) Account() Account {
	return Account{Name: c.AccountName, Type: c.AccountType}
}

// IsLocal reports whether the calendar belongs to the local account type.
func (c Calendar) IsLocal() bool {
	return c.AccountType == AccountTypeLocal
}

func (c Calendar) String() string {
	return fmt.Sprintf("%s/%s/%d", c.AccountType, c.AccountName, c.ID)
}

type ColorType int

const (
	ColorTypeCalendar ColorType = 0
	ColorTypeEvent    ColorType = 1
)

func (t ColorType) String() string {
	switch t {
	case ColorTypeCalendar:
		return "calendar"
	case ColorTypeEvent:
		return "event"
	}
	return fmt.Sprintf("ColorType(%d)", int(t))
}

type ColorEntry struct {
	Account Account
	Type    ColorType
	Key     string
	Color   uint32
}

// DefaultPalette is offered to local accounts that don't have colors yet.
// The color key of each entry is its index.
var DefaultPalette = []uint32{
	0xFFD50000,
	0xFFE67C73,
	0xFFF4511E,
	0xFFF6BF26,
	0xFF33B679,
	0xFF0B8043,
	0xFF039BE5,
	0xFF3F51B5,
	0xFF7986CB,
	0xFF8E24AA,
	0xFF616161,
	0xFF795548,
}

// Event is a calendar entry as read from an import source.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	AllDay      bool
	TimeZone    string
	RRule       string
}

type Repository interface {
	// CalendarsOrderedByAccount streams snapshots of every calendar ordered by
	// account name. A new snapshot is sent whenever calendars change, until
	// ctx is done, then the channel is closed.
	CalendarsOrderedByAccount(ctx context.Context) <-chan []Calendar

	// AddLocalCalendar creates a calendar under the local account accountName
	// and returns its id.
	AddLocalCalendar(ctx context.Context, accountName, displayName string) (int64, error)

	// DeleteLocalCalendar returns true iff exactly one row was deleted.
	DeleteLocalCalendar(ctx context.Context, accountName string, id int64) (bool, error)

	// QueryAccount returns the owning account of a calendar, nil if there is
	// no such calendar.
	QueryAccount(ctx context.Context, calendarID int64) (*Account, error)

	QueryNumberOfEvents(ctx context.Context, calendarID int64) (n int64, ok bool, err error)
}
