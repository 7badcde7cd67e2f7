// Package repository holds the MySQL data access layer.  Repositories
// translate driver errors into the sentinel values below so handlers can
// pick a response without knowing about SQL.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate")

// ErrForbidden is returned when the caller attempts an operation on a row
// owned by someone else.
var ErrForbidden = errors.New("forbidden")

// ErrRefreshTokenMismatch is returned by SwapRefreshToken when the stored
// refresh token is no longer the one presented.
var ErrRefreshTokenMismatch = errors.New("refresh token mismatch")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
