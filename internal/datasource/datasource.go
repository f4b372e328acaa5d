// Package datasource maps the calendar store collections to values.
package datasource

import (
	"context"
	"net/url"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/internal/live"
	"github.com/guilherme-santos/localcalendar/internal/sqlite"
)

// Store is the calendar store the data sources query.
type Store interface {
	live.Observable

	Select(_ context.Context, dest any, uri *url.URL, projection []string, selection string, args []any, sortOrder string) error
	Get(_ context.Context, dest any, uri *url.URL, projection []string, selection string, args []any) error
	Insert(_ context.Context, uri *url.URL, values sqlite.Values) (*url.URL, error)
	BulkInsert(_ context.Context, uri *url.URL, rows []sqlite.Values) (int, error)
	Delete(_ context.Context, uri *url.URL, selection string, args []any) (int64, error)
}

type calendarRow struct {
	ID           int64  `db:"_id"`
	AccountName  string `db:"account_name"`
	AccountType  string `db:"account_type"`
	OwnerAccount string `db:"ownerAccount"`
	Name         string `db:"name"`
	DisplayName  string `db:"calendar_displayName"`
	Color        uint32 `db:"calendar_color"`
	Visible      bool   `db:"visible"`
	SyncEvents   bool   `db:"sync_events"`
	IsPrimary    bool   `db:"isPrimary"`
}

func (r calendarRow) Convert() localcalendar.Calendar {
	return localcalendar.Calendar{
		ID:           r.ID,
		AccountName:  r.AccountName,
		AccountType:  r.AccountType,
		OwnerAccount: r.OwnerAccount,
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Color:        r.Color,
		Visible:      r.Visible,
		SyncEvents:   r.SyncEvents,
		IsPrimary:    r.IsPrimary,
	}
}

type accountRow struct {
	Name string `db:"account_name"`
	Type string `db:"account_type"`
}

func (r accountRow) Convert() *localcalendar.Account {
	return &localcalendar.Account{Name: r.Name, Type: r.Type}
}
