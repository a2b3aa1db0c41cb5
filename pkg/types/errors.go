package types

import (
	"context"
	"errors"
	"fmt"
)

// Oracle failure classes. Every error returned by an oracle adapter wraps
// exactly one of these sentinels so callers can branch with errors.Is.
var (
	// ErrOracleTimeout means an individual oracle call exceeded its deadline.
	ErrOracleTimeout = errors.New("oracle timeout")

	// ErrOracleRateLimited means the oracle rejected the call for rate
	// limiting (429-class status, or an HTML body where JSON was expected).
	ErrOracleRateLimited = errors.New("oracle rate limited")

	// ErrOracleTransport means the call never completed at the network level
	// (connection refused, reset). Not retried within the same call.
	ErrOracleTransport = errors.New("oracle transport error")

	// ErrOracleMalformed means the oracle answered but the payload did not
	// match any known response shape.
	ErrOracleMalformed = errors.New("oracle malformed response")
)

// OracleError annotates an oracle failure class with the operation and
// address that produced it.
type OracleError struct {
	Op      string // e.g. "suix_getBalance"
	Address string
	Err     error // wraps one of the sentinels above
}

func (e *OracleError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is worth retrying with backoff. Only timeout
// and rate-limit class failures qualify; transport and malformed failures
// fail fast for that address.
func Retryable(err error) bool {
	return errors.Is(err, ErrOracleTimeout) ||
		errors.Is(err, ErrOracleRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}
