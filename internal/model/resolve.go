package model

// Resolver looks up foreign key targets across an extraction result sequence.
// A reference whose target is missing, including one that points into a schema
// or source that failed, is reported as unresolved rather than as an error.
type Resolver struct {
	results []ExtractionResult
}

// NewResolver creates a resolver over a read-only result sequence
func NewResolver(results []ExtractionResult) *Resolver {
	return &Resolver{results: results}
}

// Resolve finds the table a reference points at. source names the source that
// owns the referencing table; fromSchema is used when the reference carries no schema.
func (r *Resolver) Resolve(source, fromSchema string, ref Reference) (*Table, bool) {
	catalog := r.catalog(source)
	if catalog == nil {
		return nil, false
	}

	schemaName := ref.Schema
	if schemaName == "" {
		schemaName = fromSchema
	}

	schema, ok := catalog.Schema(schemaName)
	if !ok {
		return nil, false
	}

	table, ok := schema.Table(ref.Table)
	if !ok {
		return nil, false
	}

	for _, col := range ref.Columns {
		if _, ok := table.Column(col); !ok {
			return nil, false
		}
	}
	return table, true
}

// Resolved reports whether a reference can be resolved
func (r *Resolver) Resolved(source, fromSchema string, ref Reference) bool {
	_, ok := r.Resolve(source, fromSchema, ref)
	return ok
}

func (r *Resolver) catalog(source string) *Catalog {
	for i := range r.results {
		if r.results[i].Source == source {
			return r.results[i].Catalog
		}
	}
	return nil
}
