// Package sqlstore implements store.Store over database/sql. The postgres and
// sqlite packages open the connection and pick the placeholder dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// Dialect selects the bind-parameter syntax.
type Dialect int

const (
	// SQLite uses ? placeholders.
	SQLite Dialect = iota
	// Postgres uses $1..$n placeholders.
	Postgres
)

// Store is a database/sql backed store.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open connection. The schema must already exist (see Migrate).
func New(db *sql.DB, d Dialect) *Store { return &Store{db: db, dialect: d} }

var _ store.Store = (*Store)(nil)

func (s *Store) Users() store.Users                             { return &users{s} }
func (s *Store) Catalog() store.Catalog                         { return &catalog{s} }
func (s *Store) UserPlants() store.UserPlants                   { return &userPlants{s} }
func (s *Store) Reminders() store.Reminders                     { return &reminders{s} }
func (s *Store) CareHistory() store.CareHistory                 { return &careHistory{s} }
func (s *Store) AutoRecommendations() store.AutoRecommendations { return &autoRecs{s} }
func (s *Store) Recommendations() store.Recommendations         { return &supervisorRecs{s} }
func (s *Store) Observations() store.Observations               { return &observations{s} }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders for the store's dialect.
func (s *Store) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(q), args...)
}

// fail converts driver errors into the store error contract.
func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return model.PersistenceError{Op: op, Err: errors.WithStack(err)}
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func millis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func millisPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return millis(*t)
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64).UTC()
}

func fromMillisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v)
	return &t
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	return int(n), err
}
