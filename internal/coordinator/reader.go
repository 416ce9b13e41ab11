package coordinator

import (
	"context"
	"log/slog"

	"metaextractor/internal/extractor"
)

// reader walks one source's catalog over a single session. A failed object
// query is recorded on the object it was issued for and the walk continues,
// unless the failure means the connection itself is gone or the pass was cancelled.
type reader struct {
	ctx    context.Context
	log    *slog.Logger
	driver extractor.Driver
	q      extractor.Querier
	source string
}

func (r *reader) read(filter []string) (extractor.RawCatalog, error) {
	raw := extractor.RawCatalog{Source: r.source, Engine: r.driver.Engine()}

	name, version, err := r.driver.DatabaseInfo(r.ctx, r.q)
	if err != nil {
		return raw, r.sourceError("database info", "", err)
	}
	raw.Database, raw.Version = name, version

	schemas, err := r.driver.ListSchemas(r.ctx, r.q, filter)
	if err != nil {
		return raw, r.sourceError("schemas", "", err)
	}

	for _, schema := range schemas {
		rs, err := r.readSchema(schema)
		if err != nil {
			return raw, err
		}
		raw.Schemas = append(raw.Schemas, rs)
	}
	return raw, nil
}

func (r *reader) readSchema(schema string) (extractor.RawSchema, error) {
	rs := extractor.RawSchema{Name: schema}

	tables, err := r.driver.ListTables(r.ctx, r.q, schema)
	if err != nil {
		issue, fatal := r.objectError("tables", schema, err)
		if fatal != nil {
			return rs, fatal
		}
		rs.Issues = append(rs.Issues, issue)
	}

	for _, t := range tables {
		rt, err := r.readTable(schema, t)
		if err != nil {
			return rs, err
		}
		rs.Tables = append(rs.Tables, rt)
	}
	return rs, nil
}

func (r *reader) readTable(schema string, t extractor.TableRow) (extractor.RawTable, error) {
	rt := extractor.RawTable{TableRow: t}
	object := schema + "." + t.Name

	record := func(query string, err error) error {
		if err == nil {
			return nil
		}
		issue, fatal := r.objectError(query, object, err)
		if fatal != nil {
			return fatal
		}
		rt.Issues = append(rt.Issues, issue)
		return nil
	}

	var err error
	rt.Columns, err = r.driver.ListColumns(r.ctx, r.q, schema, t.Name)
	if err := record("columns", err); err != nil {
		return rt, err
	}

	rt.Constraints, err = r.driver.ListConstraints(r.ctx, r.q, schema, t.Name)
	if err := record("constraints", err); err != nil {
		return rt, err
	}

	rt.Indexes, err = r.driver.ListIndexes(r.ctx, r.q, schema, t.Name)
	if err := record("indexes", err); err != nil {
		return rt, err
	}
	return rt, nil
}

// sourceError classifies a failure of a source-level query
func (r *reader) sourceError(query, object string, err error) error {
	if r.ctx.Err() != nil {
		return extractor.ErrCancelled
	}
	if extractor.IsConnectionFailure(r.driver, err) {
		return &extractor.ConnectionError{Source: r.source, Timeout: extractor.IsTimeout(err), Err: err}
	}
	return &extractor.IntrospectionError{Query: query, Object: object, Err: err}
}

// objectError returns the issue to record for a failed object query, or a
// non-nil fatal error when the whole source must be abandoned
func (r *reader) objectError(query, object string, err error) (issue string, fatal error) {
	classified := r.sourceError(query, object, err)
	if _, ok := classified.(*extractor.IntrospectionError); !ok {
		return "", classified
	}

	r.log.Warn("incomplete object", "query", query, "object", object, "error", err)
	return classified.Error(), nil
}
