package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	gomysql "github.com/go-sql-driver/mysql"

	apperrors "cartline/internal/errors"
)

const (
	ErrDuplicateEntry  = 1062
	ErrLockWaitTimeout = 1205
	ErrDeadlock        = 1213
)

func errorNumber(err error) (uint16, bool) {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number, true
	}
	return 0, false
}

// IsDuplicateEntry reports a unique key violation.
func IsDuplicateEntry(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == ErrDuplicateEntry
}

// IsDeadlock reports errors after which InnoDB has rolled the transaction back
// and the whole operation can be retried.
func IsDeadlock(err error) bool {
	n, ok := errorNumber(err)
	return ok && (n == ErrDeadlock || n == ErrLockWaitTimeout)
}

func IsBadConnection(err error) bool {
	if errors.Is(err, gomysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify turns a raw store error into one of the application error kinds.
// Errors that already carry a kind are returned unchanged.
func Classify(err error) error {
	if err == nil || apperrors.Kind(err) != "" {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("store operation timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("store operation cancelled", err)
	case errors.Is(err, sql.ErrTxDone):
		// the transaction was closed under us, which database/sql does when its context expires
		return apperrors.NewTimeoutError("transaction aborted", err)
	case IsDuplicateEntry(err):
		return apperrors.NewConflictError("", "record already exists")
	case IsDeadlock(err):
		return apperrors.NewUnavailableError("store is contended, retry later", err)
	case IsBadConnection(err):
		return apperrors.NewUnavailableError("store unavailable", err)
	}

	return apperrors.NewInternalError("store operation failed", err)
}
