package extractor

import (
	"context"
	"database/sql"
)

// Querier is the read-only query surface a driver is given. It is backed by a
// single connection, so drivers must fully drain or close rows before issuing
// the next query.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Driver issues engine-specific introspection queries and returns rows in a
// fixed, engine-independent shape. Implementations hold no state beyond their
// configuration; the connection is owned by the caller.
type Driver interface {
	// Engine returns the canonical engine name (e.g. "postgres")
	Engine() string

	// Open prepares a database handle for the connection string without connecting
	Open(dsn string) (*sql.DB, error)

	// DatabaseInfo returns the current database name and server version
	DatabaseInfo(ctx context.Context, q Querier) (name, version string, err error)

	// ListSchemas returns user schemas, restricted to filter when it is not empty
	ListSchemas(ctx context.Context, q Querier, filter []string) ([]string, error)

	// ListTables returns the tables and views of one schema
	ListTables(ctx context.Context, q Querier, schema string) ([]TableRow, error)

	// ListColumns returns one row per column. On error the rows read so far are returned too.
	ListColumns(ctx context.Context, q Querier, schema, table string) ([]ColumnRow, error)

	// ListConstraints returns one row per (constraint, column) pair
	ListConstraints(ctx context.Context, q Querier, schema, table string) ([]ConstraintRow, error)

	// ListIndexes returns one row per (index, key position) pair
	ListIndexes(ctx context.Context, q Querier, schema, table string) ([]IndexRow, error)
}

// TableRow is a raw table listing entry
type TableRow struct {
	Name string
	Kind string // model.TableKindTable or model.TableKindView
}

// ColumnRow is a raw column entry. DataType is the bare native type name
// (e.g. "character varying"); ColumnType is the full declaration when the engine
// reports one (e.g. "varchar(255)", "int unsigned").
type ColumnRow struct {
	Name       string
	Position   int
	DataType   string
	ColumnType string
	Length     sql.NullInt64
	Precision  sql.NullInt64
	Scale      sql.NullInt64
	Nullable   bool
	Default    sql.NullString
}

// Constraint kinds as reported in ConstraintRow.Kind
const (
	KindPrimaryKey = "p"
	KindUnique     = "u"
	KindForeignKey = "f"
	KindCheck      = "c"
)

// ConstraintRow is one column of one constraint. Check constraints that do not
// name their columns are reported with an empty Column.
type ConstraintRow struct {
	Name       string
	Kind       string
	Column     string
	Position   int
	RefSchema  string
	RefTable   string
	RefColumn  string
	Expression string
}

// IndexRow is one key position of one index. Expression is set for key positions
// that are expressions rather than plain columns; Predicate is the partial-index clause.
type IndexRow struct {
	Name       string
	Unique     bool
	Primary    bool
	Position   int
	Column     string
	Expression string
	Predicate  string
}

// RawTable is everything read for one table, including the queries that failed
type RawTable struct {
	TableRow
	Columns     []ColumnRow
	Constraints []ConstraintRow
	Indexes     []IndexRow
	Issues      []string
}

// RawSchema is everything read for one schema
type RawSchema struct {
	Name   string
	Tables []RawTable
	Issues []string
}

// RawCatalog is the complete raw read of one source, ready for normalization
type RawCatalog struct {
	Source   string
	Engine   string
	Database string
	Version  string
	Schemas  []RawSchema
}
