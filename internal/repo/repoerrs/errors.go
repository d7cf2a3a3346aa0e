package repoerrs

import (
	"errors"
	"fmt"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/pkg/postgres"
)

var (
	ErrQuery         = errors.New("query failed")
	ErrMalformedRow  = errors.New("malformed row")
	ErrUnknownSource = errors.New("unknown log source")

	ErrPoolExhausted  = postgres.ErrPoolExhausted
	ErrConnectionLost = postgres.ErrConnectionLost
)

// SourceError carries the source and criteria a failure happened under.
type SourceError struct {
	Source   domain.Source
	Criteria domain.FilterCriteria
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Source, e.Criteria, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may try the same request again.
func Retryable(err error) bool {
	return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrConnectionLost)
}

// MalformedRow reports a row that failed normalization.
func MalformedRow(src domain.Source, rowID int64, reason string) error {
	return fmt.Errorf("%w: %s row %d: %s", ErrMalformedRow, src, rowID, reason)
}
