package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"modernc.org/sqlite"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

func init() {
	extractor.Register("sqlite", func(options map[string]string) (extractor.Driver, error) {
		return NewExtractor(), nil
	}, "sqlite3")
}

// Primary result codes; extended codes carry them in the low byte
const (
	codePerm     = 3
	codeCantOpen = 14
	codeAuth     = 23
	codeNotADB   = 26
)

// Extractor implements SQLite introspection through the table-valued pragma functions.
// Every attached database is reported as a schema.
type Extractor struct{}

// NewExtractor creates a new SQLite extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Engine returns the canonical engine name
func (e *Extractor) Engine() string {
	return "sqlite"
}

// Open prepares a read-only handle. Missing files are reported on first use
// rather than created.
func (e *Extractor) Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ReadOnlyDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// ReadOnlyDSN turns a path, sqlite:// URL or file: URI into a read-only file: URI
func ReadOnlyDSN(dsn string) string {
	path := dsn
	for _, prefix := range []string{"sqlite3://", "sqlite://", "sqlite:"} {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}

	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	if strings.Contains(path, "mode=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&mode=ro"
	}
	return path + "?mode=ro"
}

// IsConnectionError recognizes files that cannot be opened or are not databases
func (e *Extractor) IsConnectionError(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() & 0xff {
	case codePerm, codeCantOpen, codeAuth, codeNotADB:
		return true
	}
	return false
}

// DatabaseInfo names the database after the main file
func (e *Extractor) DatabaseInfo(ctx context.Context, q extractor.Querier) (name, version string, err error) {
	if err = q.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", "", err
	}

	var file string
	err = q.QueryRowContext(ctx, "SELECT file FROM pragma_database_list WHERE name = 'main'").Scan(&file)
	if err != nil {
		return "", "", err
	}

	name = "main"
	if file != "" {
		base := filepath.Base(file)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return name, version, nil
}

// ListSchemas returns main plus attached databases; temp is a system schema
func (e *Extractor) ListSchemas(ctx context.Context, q extractor.Querier, filter []string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_database_list WHERE name <> 'temp' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if len(filter) > 0 && !slices.Contains(filter, name) {
			continue
		}
		schemas = append(schemas, name)
	}
	return schemas, rows.Err()
}

// ListTables reads sqlite_master, skipping internal sqlite_ tables
func (e *Extractor) ListTables(ctx context.Context, q extractor.Querier, schema string) ([]extractor.TableRow, error) {
	query := fmt.Sprintf(`
		SELECT name, type
		FROM %s.sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite\_%%' ESCAPE '\'
		ORDER BY name
	`, quoteIdent(schema))

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []extractor.TableRow
	for rows.Next() {
		var t extractor.TableRow
		var kind string
		if err := rows.Scan(&t.Name, &kind); err != nil {
			return nil, err
		}

		t.Kind = model.TableKindTable
		if kind == "view" {
			t.Kind = model.TableKindView
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListColumns reads pragma_table_info; the declared type is kept verbatim in ColumnType
func (e *Extractor) ListColumns(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ColumnRow, error) {
	query := `
		SELECT cid, name, type, "notnull", dflt_value
		FROM pragma_table_info(?, ?)
		ORDER BY cid
	`

	rows, err := q.QueryContext(ctx, query, table, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []extractor.ColumnRow
	for rows.Next() {
		var col extractor.ColumnRow
		var cid int
		var notNull int
		if err := rows.Scan(&cid, &col.Name, &col.ColumnType, &notNull, &col.Default); err != nil {
			return columns, err
		}

		col.Position = cid + 1
		col.DataType = baseType(col.ColumnType)
		col.Nullable = notNull == 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// ListConstraints derives constraints from the pragmas: the primary key from
// pragma_table_info, unique constraints from pragma_index_list (origin 'u') and
// foreign keys from pragma_foreign_key_list. SQLite exposes no catalog for
// CHECK constraints, so none are reported.
func (e *Extractor) ListConstraints(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ConstraintRow, error) {
	pk, err := primaryKey(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}

	var constraints []extractor.ConstraintRow
	for i, column := range pk {
		constraints = append(constraints, extractor.ConstraintRow{
			Name:     table + "_pkey",
			Kind:     extractor.KindPrimaryKey,
			Column:   column,
			Position: i + 1,
		})
	}

	indexes, err := listIndexes(ctx, q, schema, table)
	if err != nil {
		return constraints, fmt.Errorf("failed to query unique constraints: %w", err)
	}
	for _, idx := range indexes {
		if idx.origin != "u" {
			continue
		}
		keys, err := indexKeys(ctx, q, schema, idx.name)
		if err != nil {
			return constraints, fmt.Errorf("failed to query unique constraints: %w", err)
		}
		for _, k := range keys {
			constraints = append(constraints, extractor.ConstraintRow{
				Name:     idx.name,
				Kind:     extractor.KindUnique,
				Column:   k.column,
				Position: k.position,
			})
		}
	}

	fks, err := e.foreignKeys(ctx, q, schema, table)
	if err != nil {
		return constraints, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	return append(constraints, fks...), nil
}

func (e *Extractor) foreignKeys(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ConstraintRow, error) {
	query := `
		SELECT id, seq, "table", "from", "to"
		FROM pragma_foreign_key_list(?, ?)
		ORDER BY id, seq
	`

	rows, err := q.QueryContext(ctx, query, table, schema)
	if err != nil {
		return nil, err
	}

	var fks []extractor.ConstraintRow
	for rows.Next() {
		var id, seq int
		var to sql.NullString
		c := extractor.ConstraintRow{Kind: extractor.KindForeignKey, RefSchema: schema}
		if err := rows.Scan(&id, &seq, &c.RefTable, &c.Column, &to); err != nil {
			rows.Close()
			return fks, err
		}
		c.Name = fmt.Sprintf("fk_%s_%d", table, id)
		c.Position = seq + 1
		c.RefColumn = to.String
		fks = append(fks, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fks, err
	}
	rows.Close()

	// A reference without target columns points at the target's primary key
	targets := make(map[string][]string)
	for i := range fks {
		if fks[i].RefColumn != "" {
			continue
		}
		pk, ok := targets[fks[i].RefTable]
		if !ok {
			pk, err = primaryKey(ctx, q, schema, fks[i].RefTable)
			if err != nil {
				return fks, err
			}
			targets[fks[i].RefTable] = pk
		}
		if fks[i].Position <= len(pk) {
			fks[i].RefColumn = pk[fks[i].Position-1]
		}
	}
	return fks, nil
}

// ListIndexes combines pragma_index_list with pragma_index_xinfo. Expression
// keys and partial-index predicates are taken from the index's CREATE statement.
func (e *Extractor) ListIndexes(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.IndexRow, error) {
	indexes, err := listIndexes(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	var result []extractor.IndexRow
	for _, idx := range indexes {
		keys, err := indexKeys(ctx, q, schema, idx.name)
		if err != nil {
			return result, fmt.Errorf("failed to query index columns: %w", err)
		}

		var definition string
		if idx.partial || hasExpression(keys) {
			definition, err = indexSQL(ctx, q, schema, idx.name)
			if err != nil {
				return result, fmt.Errorf("failed to query index definition: %w", err)
			}
		}

		for _, k := range keys {
			row := extractor.IndexRow{
				Name:     idx.name,
				Unique:   idx.unique,
				Primary:  idx.origin == "pk",
				Position: k.position,
				Column:   k.column,
			}
			if k.column == "" {
				row.Expression = definition
			}
			if idx.partial {
				row.Predicate = predicate(definition)
			}
			result = append(result, row)
		}
	}
	return result, nil
}

type indexEntry struct {
	name    string
	unique  bool
	origin  string
	partial bool
}

type indexKey struct {
	position int
	column   string // empty for expression keys
}

func listIndexes(ctx context.Context, q extractor.Querier, schema, table string) ([]indexEntry, error) {
	query := `
		SELECT name, "unique", origin, partial
		FROM pragma_index_list(?, ?)
		ORDER BY name
	`

	rows, err := q.QueryContext(ctx, query, table, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []indexEntry
	for rows.Next() {
		var idx indexEntry
		var unique, partial int
		if err := rows.Scan(&idx.name, &unique, &idx.origin, &partial); err != nil {
			return entries, err
		}
		idx.unique = unique == 1
		idx.partial = partial == 1
		entries = append(entries, idx)
	}
	return entries, rows.Err()
}

func indexKeys(ctx context.Context, q extractor.Querier, schema, index string) ([]indexKey, error) {
	query := `
		SELECT seqno, name
		FROM pragma_index_xinfo(?, ?)
		WHERE key = 1
		ORDER BY seqno
	`

	rows, err := q.QueryContext(ctx, query, index, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []indexKey
	for rows.Next() {
		var seqno int
		var name sql.NullString
		if err := rows.Scan(&seqno, &name); err != nil {
			return keys, err
		}
		keys = append(keys, indexKey{position: seqno + 1, column: name.String})
	}
	return keys, rows.Err()
}

func indexSQL(ctx context.Context, q extractor.Querier, schema, index string) (string, error) {
	query := fmt.Sprintf("SELECT sql FROM %s.sqlite_master WHERE type = 'index' AND name = ?", quoteIdent(schema))

	var definition sql.NullString
	if err := q.QueryRowContext(ctx, query, index).Scan(&definition); err != nil {
		return "", err
	}
	return definition.String, nil
}

func primaryKey(ctx context.Context, q extractor.Querier, schema, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?, ?) WHERE pk > 0 ORDER BY pk", table, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func hasExpression(keys []indexKey) bool {
	for _, k := range keys {
		if k.column == "" {
			return true
		}
	}
	return false
}

// predicate returns the WHERE clause of a CREATE INDEX statement
func predicate(definition string) string {
	i := strings.LastIndex(strings.ToUpper(definition), " WHERE ")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(definition[i+len(" WHERE "):])
}

// baseType strips the arguments from a declared type: "VARCHAR(255)" -> "varchar"
func baseType(declared string) string {
	if i := strings.IndexByte(declared, '('); i >= 0 {
		declared = declared[:i]
	}
	return strings.ToLower(strings.TrimSpace(declared))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
