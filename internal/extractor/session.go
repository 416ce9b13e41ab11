package extractor

import (
	"context"
	"database/sql"

	"golang.org/x/time/rate"
)

// Session is the Querier handed to drivers: one exclusively owned connection,
// optionally throttled so that introspection does not flood a busy server
type Session struct {
	conn    *sql.Conn
	limiter *rate.Limiter
}

// NewSession wraps conn. A queriesPerSecond of zero or less disables throttling.
func NewSession(conn *sql.Conn, queriesPerSecond float64) *Session {
	s := &Session{conn: conn}
	if queriesPerSecond > 0 {
		burst := int(queriesPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(queriesPerSecond), burst)
	}
	return s
}

// QueryContext waits for the rate limiter and runs the query
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext waits for the rate limiter and runs the query. When the wait
// fails the query is issued on an already cancelled context, so the returned
// row reports the failure from Scan.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if err := s.wait(ctx); err != nil {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		return s.conn.QueryRowContext(cancelled, query, args...)
	}
	return s.conn.QueryRowContext(ctx, query, args...)
}

func (s *Session) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
