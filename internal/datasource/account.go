package datasource

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guilherme-santos/localcalendar"
	c "github.com/guilherme-santos/localcalendar/internal/contract"
)

var accountProjection = []string{c.AccountName, c.AccountType}

type AccountDataSource struct {
	store Store
}

func NewAccountDataSource(store Store) *AccountDataSource {
	return &AccountDataSource{store: store}
}

// QueryAccount returns the account owning calendarID, nil if there's no
// such calendar.
func (d *AccountDataSource) QueryAccount(ctx context.Context, calendarID int64) (*localcalendar.Account, error) {
	var row accountRow
	err := d.store.Get(ctx, &row, c.WithAppendedID(c.CalendarsURI, calendarID), accountProjection, "", nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Convert(), nil
}
