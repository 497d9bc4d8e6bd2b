package common

import (
	"errors"

	"github.com/lib/pq"
)

// ErrAlreadyExists - нарушено ограничение уникальности.
var ErrAlreadyExists = errors.New("entity already exists")

// Коды ошибок PostgreSQL
const (
	pgLockNotAvailable = "55P03"
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
)

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsLockNotAvailable - не дождались блокировки строки за lock_timeout.
func IsLockNotAvailable(err error) bool {
	return pgCode(err) == pgLockNotAvailable
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func IsCheckViolation(err error) bool {
	return pgCode(err) == pgCheckViolation
}
