package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema_mysql.sql
var schemaMySQL string

//go:embed schema_sqlite.sql
var schemaSQLite string

// Migrate applies the schema for driver. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	schema := schemaSQLite
	if driver == DriverMySQL {
		schema = schemaMySQL
	}
	for _, stmt := range statements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// MigrateHook adapts Migrate to a Provider onConnect hook.
func MigrateHook(driver string) func(ctx context.Context, db *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		return Migrate(ctx, db, driver)
	}
}

func statements(schema string) []string {
	var out []string
	for _, s := range strings.Split(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
