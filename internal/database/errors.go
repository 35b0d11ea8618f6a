package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

const mysqlDuplicateEntry = 1062

// DuplicateKey reports whether err is a uniqueness violation. The returned
// detail names the violated key or column as the driver reports it.
func DuplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message, true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return se.Error(), true
		case sqlite3.SQLITE_CONSTRAINT:
			// extended codes disabled
			if msg := se.Error(); strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "PRIMARY KEY") {
				return msg, true
			}
		}
	}
	return "", false
}

// Classify converts a driver error into an apperr kind. Errors that already
// carry a kind pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if detail, ok := DuplicateKey(err); ok {
		return apperr.Duplicate("", "duplicate value: "+detail).WithCause(err)
	}
	if isUnavailable(err) {
		return apperr.Unavailable("database unavailable", err)
	}
	return apperr.Internal("database error", err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) && (se.Code()&0xff) == sqlite3.SQLITE_BUSY {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}
