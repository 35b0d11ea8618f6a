// Package repository persists resources with database/sql. Queries are
// written in the subset of SQL shared by MySQL and SQLite. Driver failures
// leave this package already classified as apperr kinds.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/database"
)

// notFound maps sql.ErrNoRows to a NotFound error naming the resource.
func notFound(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource + " not found")
	}
	return database.Classify(err)
}

// duplicateField maps a uniqueness violation to the offending field using
// the column or key name in the driver message.
func duplicateField(err error, fields map[string]string) error {
	detail, ok := database.DuplicateKey(err)
	if !ok {
		return database.Classify(err)
	}
	for needle, field := range fields {
		if strings.Contains(detail, needle) {
			return apperr.Duplicate(field, field+" already exists").WithCause(err)
		}
	}
	return database.Classify(err)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing when it returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return database.Classify(err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return database.Classify(tx.Commit())
}

// requireAffected turns a zero-row update or delete into NotFound.
func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return database.Classify(err)
	}
	if n == 0 {
		return apperr.NotFound(resource + " not found")
	}
	return nil
}

// likeContains builds a case-insensitive substring pattern for
// `LOWER(col) LIKE ? ESCAPE '!'`.
func likeContains(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// where joins conditions with AND.
func where(conds []string) string {
	if len(conds) == 0 {
		return "1=1"
	}
	return strings.Join(conds, " AND ")
}
