package sqlite

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	c "github.com/guilherme-santos/localcalendar/internal/contract"
)

var (
	ErrUnknownURI        = errors.New("unknown uri")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNotSyncAdapter    = errors.New("operation only allowed to sync adapters")
	ErrColorKeyNotFound  = errors.New("color key not found")
	ErrInvalidProjection = errors.New("invalid projection")
)

type syncAccount struct {
	name string
	typ  string
}

// target is a uri resolved against the known collections.
type target struct {
	path    string
	coll    *collection
	id      int64
	hasID   bool
	account *syncAccount
}

func resolve(uri *url.URL) (*target, error) {
	if uri == nil || uri.Scheme != c.Scheme || uri.Host != c.Authority {
		return nil, fmt.Errorf("%w: %v", ErrUnknownURI, uri)
	}
	segs := strings.Split(strings.Trim(uri.Path, "/"), "/")
	coll, ok := collections[segs[0]]
	if !ok || len(segs) > 2 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownURI, uri)
	}
	t := &target{path: segs[0], coll: coll}
	if len(segs) == 2 {
		id, err := strconv.ParseInt(segs[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownURI, uri)
		}
		t.id, t.hasID = id, true
	}
	if name, typ, ok := c.SyncAdapterAccount(uri); ok {
		t.account = &syncAccount{name: name, typ: typ}
	}
	return t, nil
}

// baseURI is the address observers are notified with.
func (t *target) baseURI() *url.URL {
	if t.hasID {
		return c.WithAppendedID(collectionURI(t.path), t.id)
	}
	return collectionURI(t.path)
}

func (t *target) rowURI(id int64) *url.URL {
	return c.WithAppendedID(collectionURI(t.path), id)
}

func collectionURI(path string) *url.URL {
	return &url.URL{Scheme: c.Scheme, Host: c.Authority, Path: "/" + path}
}

// where combines the row id, the sync adapter account and the caller
// selection into one clause.
func (t *target) where(selection string, args []any) (string, []any) {
	var (
		parts []string
		out   []any
	)
	if t.hasID {
		parts = append(parts, c.ID+" = ?")
		out = append(out, t.id)
	}
	if t.account != nil && t.coll.hasAccount {
		parts = append(parts, c.AccountName+" = ? AND "+c.AccountType+" = ?")
		out = append(out, t.account.name, t.account.typ)
	}
	if selection != "" {
		parts = append(parts, "("+selection+")")
		out = append(out, args...)
	}
	if len(parts) == 0 {
		return "", out
	}
	return " WHERE " + strings.Join(parts, " AND "), out
}

func (t *target) projection(cols []string) (string, error) {
	if len(cols) == 0 {
		return "*", nil
	}
	out := make([]string, len(cols))
	for i, col := range cols {
		switch {
		case col == c.Count:
			out[i] = "COUNT(*) AS " + c.Count
		case t.coll.columns[col]:
			out[i] = col
		default:
			return "", fmt.Errorf("%w: %s.%s", ErrInvalidProjection, t.coll.table, col)
		}
	}
	return strings.Join(out, ", "), nil
}

func (t *target) orderBy(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "", nil
	}
	terms := strings.Split(sortOrder, ",")
	for i, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 || len(fields) > 2 || !t.coll.columns[fields[0]] {
			return "", fmt.Errorf("%w: sort order %q", ErrUnknownColumn, sortOrder)
		}
		if len(fields) == 2 {
			dir := strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return "", fmt.Errorf("%w: sort order %q", ErrUnknownColumn, sortOrder)
			}
			fields[1] = dir
		}
		terms[i] = strings.Join(fields, " ")
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// columns validates values and returns its column names sorted.
func (t *target) columns(values Values) ([]string, error) {
	cols := make([]string, 0, len(values))
	for col := range values {
		if col == c.ID || !t.coll.columns[col] {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.coll.table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

func (t *target) checkInsert(values Values) error {
	if t.hasID {
		return fmt.Errorf("%w: insert on row uri %s", ErrUnknownURI, t.baseURI())
	}
	if (t.coll.syncWrite || t.coll.syncInsertDelete) && t.account == nil {
		return fmt.Errorf("%s insert: %w", t.coll.table, ErrNotSyncAdapter)
	}
	return t.checkAccount("insert", values, true)
}

func (t *target) checkUpdate(values Values) error {
	if t.account != nil {
		return t.checkAccount("update", values, false)
	}
	if t.coll.syncWrite {
		return fmt.Errorf("%s update: %w", t.coll.table, ErrNotSyncAdapter)
	}
	for col := range values {
		if t.coll.syncColumns[col] {
			return fmt.Errorf("%s update of %s: %w", t.coll.table, col, ErrNotSyncAdapter)
		}
	}
	return nil
}

// checkAccount refuses account values other than the caller's. When fill is
// set missing ones are set to the caller's account.
func (t *target) checkAccount(op string, values Values, fill bool) error {
	if t.account == nil || !t.coll.hasAccount {
		return nil
	}
	for col, want := range map[string]string{c.AccountName: t.account.name, c.AccountType: t.account.typ} {
		v, ok := values[col]
		if !ok {
			if fill {
				values[col] = want
			}
			continue
		}
		if s, _ := v.(string); s != want {
			return fmt.Errorf("%s %s: %s %q doesn't match the caller: %w", t.coll.table, op, col, v, ErrNotSyncAdapter)
		}
	}
	return nil
}

func (t *target) checkDelete() error {
	if (t.coll.syncWrite || t.coll.syncInsertDelete) && t.account == nil {
		return fmt.Errorf("%s delete: %w", t.coll.table, ErrNotSyncAdapter)
	}
	return nil
}
