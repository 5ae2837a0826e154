package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"villarent/internal/app/apperr"
)

const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// ErrConcurrentUpdate reports a version check that matched no row.
var ErrConcurrentUpdate = apperr.Wrap(apperr.KindConflict, errors.New("mysql: concurrent update detected"))

// storeErr marks connectivity failures as retryable and passes the rest on.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysqldriver.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return apperr.Unavailable(err)
	}
	return err
}

// lostRace reports errors that mean another transaction got there first.
func lostRace(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && (myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
