package errorsUtils

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	CodeUndefinedTable  = "42P01"
	CodeUndefinedColumn = "42703"
	CodeSyntaxError     = "42601"
	CodeQueryCanceled   = "57014"
)

func Is(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// IsPgError reports whether the server rejected the statement itself.
func IsPgError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}

// IsConnectionFailure matches SQLSTATE classes 08 (connection exception) and
// 57P (admin or crash shutdown).
func IsConnectionFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
}

func IsUndefinedTable(err error) bool {
	return Is(err, CodeUndefinedTable)
}

func IsQueryCanceled(err error) bool {
	return Is(err, CodeQueryCanceled)
}

func WrapPathErr(err error) error {
	pc, _, line, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc).Name()
	return fmt.Errorf("[%s:%d] %w", fn, line, err)
}
