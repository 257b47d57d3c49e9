package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

const (
	errUniqueViolation     pq.ErrorCode = "23505"
	errForeignKeyViolation pq.ErrorCode = "23503"
	errCheckViolation      pq.ErrorCode = "23514"
)

// dbtx defines the interface for database and transactions
type dbtx interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresConfig holds the connection pool settings
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore implements the Store interface using a Postgres database
type PostgresStore struct {
	db dbtx
}

// NewPostgresDB opens a connection pool and verifies it with a ping
func NewPostgresDB(ctx context.Context, cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// NewPostgresStore creates a new PostgresStore instance
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithTx executes the given function within a database transaction
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return errors.New("already in transaction")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	sx := &PostgresStore{db: tx}
	if err = fn(sx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback: %v after: %w", rbErr, err)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// fetchPage runs the count and the page query for spec. The count ignores the
// range, and an empty range skips the page query.
func fetchPage[T any](ctx context.Context, db dbtx, from, columns string, spec query.Spec, scan func(scanner) (T, error)) (query.Page[T], error) {
	where, args := spec.Where("t.id")

	page := query.Page[T]{Items: []T{}}
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s %s", from, where), args...).Scan(&page.Total)
	if err != nil {
		return page, fmt.Errorf("count: %w", err)
	}

	if spec.Limit() == 0 || spec.Offset() >= page.Total {
		return page, nil
	}

	q := fmt.Sprintf("SELECT %s FROM %s %s %s LIMIT $%d OFFSET $%d",
		columns, from, where, spec.OrderBy("t.id"), len(args)+1, len(args)+2)
	rows, err := db.QueryContext(ctx, q, append(args, spec.Limit(), spec.Offset())...)
	if err != nil {
		return page, fmt.Errorf("query page: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return page, fmt.Errorf("scan: %w", err)
		}
		page.Items = append(page.Items, item)
	}

	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("rows: %w", err)
	}

	return page, nil
}

// execAffecting runs a statement and reports ErrNotFound when no row changed.
func execAffecting(ctx context.Context, db dbtx, q string, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapPqErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// mapPqErr translates constraint violations into store errors. Other errors
// are returned unchanged.
func mapPqErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isPqErr(err, errUniqueViolation):
		return fmt.Errorf("%w: %s", ErrExists, pqConstraint(err))
	case isPqErr(err, errForeignKeyViolation):
		return fmt.Errorf("%w: %s", ErrReference, pqConstraint(err))
	case isPqErr(err, errCheckViolation):
		return fmt.Errorf("%w: %s", ErrInvalid, pqConstraint(err))
	}
	return err
}

func isPqErr(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == code
}

func pqConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
