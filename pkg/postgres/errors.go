package postgres

import (
	"context"
	"errors"
	"io"
	"net"

	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrPoolExhausted  = errors.New("connection pool exhausted")
	ErrPoolClosed     = errors.New("connection pool closed")
	ErrConnectionLost = errors.New("connection lost")
)

// IsConnectionLost reports whether err is a transport failure after which the
// connection must not be reused. Server-side statement errors and context
// errors are not, except the connection exception and operator intervention
// classes that end the session.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionLost) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errorsUtils.IsPgError(err) {
		return errorsUtils.IsConnectionFailure(err)
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}
