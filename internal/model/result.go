package model

// Status is the per-source outcome of one extraction pass
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// ErrorKind classifies a source-level failure
type ErrorKind string

const (
	ErrorKindConnection    ErrorKind = "ConnectionError"
	ErrorKindIntrospection ErrorKind = "IntrospectionError"
	ErrorKindCancelled     ErrorKind = "Cancelled"
)

// Failure records why a source could not be extracted
type Failure struct {
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	Message string    `json:"message" yaml:"message"`

	// Query and Object identify the failing catalog query for introspection failures
	Query  string `json:"query,omitempty" yaml:"query,omitempty"`
	Object string `json:"object,omitempty" yaml:"object,omitempty"`

	// Timeout is set when a connection attempt ran out of time
	Timeout bool `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ExtractionResult is the outcome for one configured source.
// Exactly one of Catalog and Failure is set.
type ExtractionResult struct {
	Source  string   `json:"source" yaml:"source"`
	Engine  string   `json:"engine" yaml:"engine"`
	Catalog *Catalog `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Failure *Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Succeeded builds a result for a populated catalog
func Succeeded(catalog *Catalog) ExtractionResult {
	return ExtractionResult{Source: catalog.Source, Engine: catalog.Engine, Catalog: catalog}
}

// Failed builds a failure result
func Failed(source, engine string, failure Failure) ExtractionResult {
	return ExtractionResult{Source: source, Engine: engine, Failure: &failure}
}

// Status derives success, partial or failed from the result contents
func (r ExtractionResult) Status() Status {
	switch {
	case r.Failure != nil || r.Catalog == nil:
		return StatusFailed
	case r.Catalog.Incomplete():
		return StatusPartial
	default:
		return StatusSuccess
	}
}

// AllFailed reports whether no source produced a catalog.
// An empty sequence counts as failed.
func AllFailed(results []ExtractionResult) bool {
	for _, r := range results {
		if r.Status() != StatusFailed {
			return false
		}
	}
	return true
}

// Summary counts results by status
type Summary struct {
	Success int
	Partial int
	Failed  int
}

// Summarize counts the results by status
func Summarize(results []ExtractionResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status() {
		case StatusSuccess:
			s.Success++
		case StatusPartial:
			s.Partial++
		default:
			s.Failed++
		}
	}
	return s
}
