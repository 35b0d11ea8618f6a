// Package database opens the SQL store (MySQL in production, SQLite for
// development and tests), applies the embedded schema and maps driver
// errors onto apperr kinds.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/travel-booking-api/internal/config"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Open connects to the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverMySQL:
		return openMySQL(ctx, cfg)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// MySQLDSN builds the connection string. Dial, read and write timeouts keep a
// stalled server from hanging a request forever.
func MySQLDSN(cfg config.DBConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Pass // empty allowed
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.Loc = time.UTC
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.IOTimeout
	mc.WriteTimeout = cfg.IOTimeout
	mc.ClientFoundRows = true // RowsAffected counts matched rows, as SQLite does
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func openMySQL(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open(DriverMySQL, MySQLDSN(cfg))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(ctx, db, cfg.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file. A single
// connection serialises writers so transactions never see SQLITE_BUSY.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db, 5*time.Second); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(ctx)
}
