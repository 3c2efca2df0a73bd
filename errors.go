package weakstatic

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrInvalidDriverType = errors.New("invalid driver type")
	ErrHandleReleased    = errors.New("handle already released")
	ErrInvalidInstance   = errors.New("invalid instance object")
	ErrMustNotZero       = errors.New("must not zero value")
	ErrNotFound          = errors.New("not found")
)

func CheckDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}

	return false
}

func CheckNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}

	// older gorm releases return a plain error with this text
	return err.Error() == "record not found"
}
