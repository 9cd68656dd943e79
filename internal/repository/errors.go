// Package repository holds the MySQL data access code. Sentinel errors
// here let handlers tell failure cases apart: ErrForbidden when the
// caller does not own the row, ErrConflict when dependent rows or a
// guarded column stop the write, ErrNotFound when nothing matched.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into a 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a vehicle that still
// has upcoming rides. Handlers translate this into a 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned by writes that matched no row.
var ErrNotFound = errors.New("not found")

// MySQL server error numbers the repositories care about.
const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
	erRowIsReferenced = 1451
)

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool { return mysqlErrno(err) == erDupEntry }

// isReferenced reports a delete blocked by a foreign key in another table.
func isReferenced(err error) bool { return mysqlErrno(err) == erRowIsReferenced }

// isRetryable reports a lock wait timeout or a deadlock victim.
func isRetryable(err error) bool {
	n := mysqlErrno(err)
	return n == erLockWaitTimeout || n == erLockDeadlock
}
