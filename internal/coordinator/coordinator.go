// Package coordinator runs catalog extraction for many sources concurrently and
// collects one result per source, in input order.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"metaextractor/internal/extractor"
	"metaextractor/internal/logger"
	"metaextractor/internal/model"
	"metaextractor/internal/normalizer"
)

// DefaultTimeout bounds the connection attempt of a source without its own timeout
const DefaultTimeout = 30 * time.Second

// Source is one configured catalog connection
type Source struct {
	Name      string
	Engine    string
	DSN       string
	Timeout   time.Duration
	Schemas   []string
	QueryRate float64 // queries per second; 0 is unlimited
	Options   map[string]string
}

// Coordinator runs extraction passes. It holds no state between passes.
type Coordinator struct {
	concurrency int
	logger      *slog.Logger
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithConcurrency caps how many sources are extracted at once.
// Zero or less means one worker per source.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.concurrency = n
	}
}

// WithLogger sets the logger; the global logger is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// New creates a coordinator
func New(opts ...Option) *Coordinator {
	c := &Coordinator{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get()
	}
	return c
}

type indexedResult struct {
	index  int
	result model.ExtractionResult
}

// Run extracts every source and returns their results in input order. Source
// failures are reported in the results; the error is only set when the source
// list itself is invalid.
func (c *Coordinator) Run(ctx context.Context, sources []Source) ([]model.ExtractionResult, error) {
	if err := Validate(sources); err != nil {
		return nil, err
	}

	log := c.logger.With("run_id", uuid.New().String())
	log.Info("extraction started", "sources", len(sources))
	start := time.Now()

	limit := c.concurrency
	if limit <= 0 {
		limit = len(sources)
	}

	resultCh := make(chan indexedResult, len(sources))

	var eg errgroup.Group
	eg.SetLimit(limit)

	go func() {
		for i, src := range sources {
			eg.Go(func() error {
				resultCh <- indexedResult{index: i, result: c.extractSource(ctx, log, src)}
				return nil
			})
		}
		eg.Wait()
		close(resultCh)
	}()

	results := make([]model.ExtractionResult, len(sources))
	for r := range resultCh {
		results[r.index] = r.result
	}

	summary := model.Summarize(results)
	log.Info("extraction finished",
		"success", summary.Success,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return results, nil
}

// extractSource never panics and never returns without a result
func (c *Coordinator) extractSource(ctx context.Context, log *slog.Logger, src Source) (result model.ExtractionResult) {
	log = log.With("source", src.Name, "engine", src.Engine)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("extraction panicked", "panic", r, "stack", string(debug.Stack()))
			result = model.Failed(src.Name, src.Engine, model.Failure{
				Kind:    model.ErrorKindIntrospection,
				Message: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	if ctx.Err() != nil {
		return model.Failed(src.Name, src.Engine, failureFor(extractor.ErrCancelled))
	}

	driver, err := extractor.NewDriver(src.Engine, src.Options)
	if err != nil {
		return model.Failed(src.Name, src.Engine, failureFor(&extractor.ConnectionError{Source: src.Name, Err: err}))
	}
	engine := driver.Engine()

	log.Debug("extracting source")
	catalog, err := c.extract(ctx, log, driver, src)
	if err != nil {
		failure := failureFor(err)
		log.Warn("source failed", "kind", failure.Kind, "error", failure.Message)
		return model.Failed(src.Name, engine, failure)
	}

	result = model.Succeeded(catalog)
	log.Info("source finished",
		"status", result.Status(),
		"schemas", len(catalog.Schemas),
		"tables", catalog.TableCount(),
		"duration", time.Since(start).Round(time.Millisecond))
	return result
}

func (c *Coordinator) extract(ctx context.Context, log *slog.Logger, driver extractor.Driver, src Source) (*model.Catalog, error) {
	db, err := driver.Open(src.DSN)
	if err != nil {
		return nil, &extractor.ConnectionError{Source: src.Name, Err: err}
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	timeout := src.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	connCtx, cancel := context.WithTimeout(ctx, timeout)
	conn, err := db.Conn(connCtx)
	if err == nil {
		if err = conn.PingContext(connCtx); err != nil {
			conn.Close()
		}
	}
	timedOut := errors.Is(connCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return nil, extractor.ErrCancelled
		}
		return nil, &extractor.ConnectionError{
			Source:  src.Name,
			Timeout: timedOut || extractor.IsTimeout(err),
			Err:     err,
		}
	}
	defer conn.Close()

	session := extractor.NewSession(conn, src.QueryRate)
	r := &reader{ctx: ctx, log: log, driver: driver, q: session, source: src.Name}

	raw, err := r.read(src.Schemas)
	if err != nil {
		return nil, err
	}

	catalog := normalizer.Normalize(raw)
	for _, u := range normalizer.UnknownTypes(catalog) {
		log.Warn("unrecognized column type", "column", u)
	}

	if violations := catalog.Violations(); len(violations) > 0 {
		for i := range violations {
			log.Warn("catalog failed validation", "error", violations[i].Error())
		}
		catalog.MarkIncomplete(violations)
	}
	return catalog, nil
}

// failureFor converts an extraction error into its reported form
func failureFor(err error) model.Failure {
	var connErr *extractor.ConnectionError
	var introErr *extractor.IntrospectionError

	switch {
	case errors.Is(err, extractor.ErrCancelled):
		return model.Failure{Kind: model.ErrorKindCancelled, Message: err.Error()}
	case errors.As(err, &connErr):
		return model.Failure{Kind: model.ErrorKindConnection, Message: err.Error(), Timeout: connErr.Timeout}
	case errors.As(err, &introErr):
		return model.Failure{
			Kind:    model.ErrorKindIntrospection,
			Message: err.Error(),
			Query:   introErr.Query,
			Object:  introErr.Object,
		}
	default:
		return model.Failure{Kind: model.ErrorKindIntrospection, Message: err.Error()}
	}
}
