package extractor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
)

// ConnectionError reports that a source could not be reached or authenticated.
// It is fatal for the source but never for the other sources of a pass.
type ConnectionError struct {
	Source  string
	Timeout bool
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("connect to %s: timed out: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("connect to %s: %v", e.Source, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError reports a failed catalog query against a reachable connection
type IntrospectionError struct {
	Query  string // which catalog query failed, e.g. "columns"
	Object string // qualified object the query was issued for
	Err    error
}

func (e *IntrospectionError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("query %s: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("query %s for %s: %v", e.Query, e.Object, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// ErrCancelled is reported for sources whose extraction was interrupted by
// cancellation of the pass
var ErrCancelled = errors.New("extraction cancelled")

// ErrorClassifier is implemented by drivers that can recognize their client
// library's connection and authentication errors
type ErrorClassifier interface {
	IsConnectionError(err error) bool
}

// IsConnectionFailure reports whether err means the connection itself is unusable,
// as opposed to a single catalog query failing
func IsConnectionFailure(d Driver, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if c, ok := d.(ErrorClassifier); ok {
		return c.IsConnectionError(err)
	}
	return false
}

// IsTimeout reports whether err was caused by a deadline
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
