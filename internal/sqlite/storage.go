package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	c "github.com/guilherme-santos/localcalendar/internal/contract"
)

const DriverName = "sqlite3"

const busyDelay = 20 * time.Millisecond

// Storage is the calendar provider: an addressable row store that notifies
// registered observers about committed changes.
type Storage struct {
	db        *sqlx.DB
	log       zerolog.Logger
	observers *observers

	// BusyRetries is how many times a write is retried when the database is
	// busy or locked.
	BusyRetries uint
}

// Open opens the sqlite database at path with the settings Storage relies on.
func Open(path string) (*sql.DB, error) {
	return sql.Open(DriverName, "file:"+path+"?_busy_timeout=5000&_foreign_keys=on")
}

func NewStorage(ctx context.Context, db *sql.DB, log zerolog.Logger) (*Storage, error) {
	// A single connection serializes access; sqlite doesn't do better with more.
	db.SetMaxOpenConns(1)

	log = log.With().Str("component", "sqlite").Logger()
	s := &Storage{
		db:        sqlx.NewDb(db, DriverName),
		log:       log,
		observers: &observers{log: log},
	}
	if err := s.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// RegisterObserver notifies obs about changes to uri, and to rows below uri
// when descendants is set.
func (s *Storage) RegisterObserver(uri *url.URL, descendants bool, obs Observer) {
	s.observers.register(uri, descendants, obs)
	s.log.Debug().Str("uri", uri.String()).Bool("descendants", descendants).Msg("observer registered")
}

func (s *Storage) UnregisterObserver(obs Observer) {
	s.observers.unregister(obs)
	s.log.Debug().Msg("observer unregistered")
}

// Select runs a projection query and scans every row into dest, a pointer
// to a slice.
func (s *Storage) Select(ctx context.Context, dest any, uri *url.URL, projection []string, selection string, args []any, sortOrder string) error {
	query, qargs, err := s.selectQuery(uri, projection, selection, args, sortOrder)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, query, qargs...)
}

// Get scans the first row of a projection query into dest. It returns
// sql.ErrNoRows when nothing matches.
func (s *Storage) Get(ctx context.Context, dest any, uri *url.URL, projection []string, selection string, args []any) error {
	query, qargs, err := s.selectQuery(uri, projection, selection, args, "")
	if err != nil {
		return err
	}
	return s.db.GetContext(ctx, dest, query+" LIMIT 1", qargs...)
}

func (s *Storage) selectQuery(uri *url.URL, projection []string, selection string, args []any, sortOrder string) (string, []any, error) {
	t, err := resolve(uri)
	if err != nil {
		return "", nil, err
	}
	cols, err := t.projection(projection)
	if err != nil {
		return "", nil, err
	}
	order, err := t.orderBy(sortOrder)
	if err != nil {
		return "", nil, err
	}
	where, qargs := t.where(selection, args)
	return "SELECT " + cols + " FROM " + t.coll.table + where + order, qargs, nil
}

// Insert adds a row and returns its address.
func (s *Storage) Insert(ctx context.Context, uri *url.URL, values Values) (*url.URL, error) {
	t, err := resolve(uri)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.write(ctx, func(tx *sqlx.Tx) error {
		id, err = s.insert(ctx, tx, t, values)
		return err
	})
	if err != nil {
		return nil, err
	}

	rowURI := t.rowURI(id)
	s.log.Debug().Str("uri", rowURI.String()).Msg("row inserted")
	s.observers.notify(rowURI)
	return rowURI, nil
}

// BulkInsert adds every row in one transaction, either all of them are
// inserted or none.
func (s *Storage) BulkInsert(ctx context.Context, uri *url.URL, rows []Values) (int, error) {
	t, err := resolve(uri)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err = s.write(ctx, func(tx *sqlx.Tx) error {
		for _, values := range rows {
			if _, err := s.insert(ctx, tx, t, values); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug().Str("uri", t.baseURI().String()).Int("rows", len(rows)).Msg("rows inserted")
	s.observers.notify(t.baseURI())
	return len(rows), nil
}

func (s *Storage) insert(ctx context.Context, tx *sqlx.Tx, t *target, values Values) (int64, error) {
	values = copyValues(values)
	if err := t.checkInsert(values); err != nil {
		return 0, err
	}
	if err := s.resolveColor(ctx, tx, t, values); err != nil {
		return 0, err
	}
	cols, err := t.columns(values)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("%s insert: no values", t.coll.table)
	}

	args := make([]any, len(cols))
	for i, col := range cols {
		args[i] = values[col]
	}
	query := "INSERT INTO " + t.coll.table + " (" + strings.Join(cols, ", ") + ") VALUES (?" + strings.Repeat(", ?", len(cols)-1) + ")"
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s insert: %w", t.coll.table, err)
	}
	return res.LastInsertId()
}

func (s *Storage) Update(ctx context.Context, uri *url.URL, values Values, selection string, args []any) (int64, error) {
	t, err := resolve(uri)
	if err != nil {
		return 0, err
	}
	values = copyValues(values)
	if err := t.checkUpdate(values); err != nil {
		return 0, err
	}

	var n int64
	err = s.write(ctx, func(tx *sqlx.Tx) error {
		if err := s.resolveColor(ctx, tx, t, values); err != nil {
			return err
		}
		cols, err := t.columns(values)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return nil
		}

		sets := make([]string, len(cols))
		qargs := make([]any, 0, len(cols)+len(args)+3)
		for i, col := range cols {
			sets[i] = col + " = ?"
			qargs = append(qargs, values[col])
		}
		where, wargs := t.where(selection, args)
		res, err := tx.ExecContext(ctx, "UPDATE "+t.coll.table+" SET "+strings.Join(sets, ", ")+where, append(qargs, wargs...)...)
		if err != nil {
			return fmt.Errorf("%s update: %w", t.coll.table, err)
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.log.Debug().Str("uri", t.baseURI().String()).Int64("rows", n).Msg("rows updated")
		s.observers.notify(t.baseURI())
	}
	return n, nil
}

func (s *Storage) Delete(ctx context.Context, uri *url.URL, selection string, args []any) (int64, error) {
	t, err := resolve(uri)
	if err != nil {
		return 0, err
	}
	if err := t.checkDelete(); err != nil {
		return 0, err
	}

	var n int64
	err = s.write(ctx, func(tx *sqlx.Tx) error {
		where, qargs := t.where(selection, args)
		res, err := tx.ExecContext(ctx, "DELETE FROM "+t.coll.table+where, qargs...)
		if err != nil {
			return fmt.Errorf("%s delete: %w", t.coll.table, err)
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.log.Debug().Str("uri", t.baseURI().String()).Int64("rows", n).Msg("rows deleted")
		s.observers.notify(t.baseURI())
		if t.path == c.PathCalendars {
			// Their events went with them.
			s.observers.notify(c.EventsURI)
		}
	}
	return n, nil
}

// resolveColor fills calendar_color from the color key of the calendar
// account, as every client is expected to pick colors from the catalog.
func (s *Storage) resolveColor(ctx context.Context, tx *sqlx.Tx, t *target, values Values) error {
	key, ok := values[c.CalendarColorKey]
	if t.path != c.PathCalendars || !ok || key == nil {
		return nil
	}

	var account syncAccount
	switch {
	case t.account != nil:
		account = *t.account
	case t.hasID:
		err := tx.QueryRowxContext(ctx, "SELECT account_name, account_type FROM calendars WHERE _id = ?", t.id).
			Scan(&account.name, &account.typ)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %v has no account to resolve it from", ErrColorKeyNotFound, key)
	}

	var color int64
	err := tx.GetContext(ctx, &color, `
		SELECT color FROM colors
		WHERE account_name = ? AND account_type = ? AND color_type = 0 AND color_index = ?
	`, account.name, account.typ, key)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v for %s/%s", ErrColorKeyNotFound, key, account.typ, account.name)
	}
	if err != nil {
		return err
	}
	values[c.CalendarColor] = color
	return nil
}

// write runs fn in a transaction, retrying when sqlite reports it's busy.
func (s *Storage) write(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return retry.Do(
		func() error {
			tx, err := s.db.BeginTxx(ctx, nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		},
		retry.Context(ctx),
		retry.Attempts(s.BusyRetries+1),
		retry.Delay(busyDelay),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug().Err(err).Uint("attempt", n+1).Msg("database busy, retrying")
		}),
	)
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func copyValues(values Values) Values {
	out := make(Values, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
