package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

func init() {
	extractor.Register("postgres", func(options map[string]string) (extractor.Driver, error) {
		return NewExtractor(Config{Driver: options["driver"]})
	}, "postgresql", "pg")
}

// Config holds PostgreSQL-specific configuration
type Config struct {
	// Driver selects the database/sql driver: "pgx" (default) or "pq"
	Driver string
}

// Extractor implements PostgreSQL catalog introspection over pg_catalog
type Extractor struct {
	driverName string
}

// NewExtractor creates a new PostgreSQL extractor
func NewExtractor(cfg Config) (*Extractor, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "pgx":
		return &Extractor{driverName: "pgx"}, nil
	case "pq", "lib/pq", "postgres":
		return &Extractor{driverName: "postgres"}, nil
	default:
		return nil, fmt.Errorf("unsupported postgres driver: %s (supported: pgx, pq)", cfg.Driver)
	}
}

// Engine returns the canonical engine name
func (e *Extractor) Engine() string {
	return "postgres"
}

// Open prepares a handle; both pgx and lib/pq accept URL and key=value connection strings
func (e *Extractor) Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(e.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return db, nil
}

// IsConnectionError recognizes connection exception (08) and authorization (28) SQLSTATE classes
func (e *Extractor) IsConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isConnectionClass(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isConnectionClass(string(pqErr.Code))
	}
	return false
}

func isConnectionClass(code string) bool {
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "28") || strings.HasPrefix(code, "57P")
}

// DatabaseInfo retrieves database information
func (e *Extractor) DatabaseInfo(ctx context.Context, q extractor.Querier) (name, version string, err error) {
	err = q.QueryRowContext(ctx, "SELECT current_database(), version()").Scan(&name, &version)
	return
}

// ListSchemas lists user namespaces, skipping catalog, toast and temp schemas
func (e *Extractor) ListSchemas(ctx context.Context, q extractor.Querier, filter []string) ([]string, error) {
	qb := sq.Select("n.nspname").
		From("pg_namespace n").
		Where("n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')").
		Where("n.nspname NOT LIKE 'pg\\_temp\\_%' AND n.nspname NOT LIKE 'pg\\_toast\\_temp\\_%'").
		OrderBy("n.nspname").
		PlaceholderFormat(sq.Dollar)

	if len(filter) > 0 {
		qb = qb.Where(sq.Eq{"n.nspname": filter})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
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
		schemas = append(schemas, name)
	}
	return schemas, rows.Err()
}

// ListTables lists regular, partitioned and foreign tables plus views and materialized views
func (e *Extractor) ListTables(ctx context.Context, q extractor.Querier, schema string) ([]extractor.TableRow, error) {
	query, args, err := sq.Select("c.relname", "c.relkind::text").
		From("pg_class c").
		Join("pg_namespace n ON n.oid = c.relnamespace").
		Where(sq.Eq{"n.nspname": schema}).
		Where("c.relkind IN ('r', 'p', 'f', 'v', 'm')").
		Where("NOT c.relispartition").
		OrderBy("c.relname").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
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
		if kind == "v" || kind == "m" {
			t.Kind = model.TableKindView
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListColumns reads pg_attribute; format_type carries length, precision and scale
func (e *Extractor) ListColumns(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ColumnRow, error) {
	query := `
		SELECT
			a.attname,
			a.attnum,
			t.typname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			COALESCE(
				pg_get_expr(d.adbin, d.adrelid),
				CASE a.attidentity
					WHEN 'a' THEN 'GENERATED ALWAYS AS IDENTITY'
					WHEN 'd' THEN 'GENERATED BY DEFAULT AS IDENTITY'
				END
			)
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_type t ON t.oid = a.atttypid
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1
		AND c.relname = $2
		AND a.attnum > 0
		AND NOT a.attisdropped
		ORDER BY a.attnum
	`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []extractor.ColumnRow
	for rows.Next() {
		var col extractor.ColumnRow
		if err := rows.Scan(&col.Name, &col.Position, &col.DataType, &col.ColumnType, &col.Nullable, &col.Default); err != nil {
			return columns, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// ListConstraints reads pg_constraint, expanding conkey/confkey pairs by ordinality
func (e *Extractor) ListConstraints(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ConstraintRow, error) {
	query := `
		SELECT
			con.conname,
			con.contype::text,
			COALESCE(a.attname, ''),
			COALESCE(k.ord, 0),
			COALESCE(rn.nspname, ''),
			COALESCE(rc.relname, ''),
			COALESCE(ra.attname, ''),
			CASE WHEN con.contype = 'c' THEN pg_get_constraintdef(con.oid, true) ELSE '' END
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		LEFT JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		LEFT JOIN pg_class rc ON rc.oid = con.confrelid
		LEFT JOIN pg_namespace rn ON rn.oid = rc.relnamespace
		LEFT JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = con.confkey[k.ord]
		WHERE n.nspname = $1
		AND c.relname = $2
		AND con.contype IN ('p', 'u', 'f', 'c')
		ORDER BY con.conname, k.ord
	`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}
	defer rows.Close()

	var constraints []extractor.ConstraintRow
	for rows.Next() {
		var c extractor.ConstraintRow
		var position int64
		err := rows.Scan(&c.Name, &c.Kind, &c.Column, &position, &c.RefSchema, &c.RefTable, &c.RefColumn, &c.Expression)
		if err != nil {
			return constraints, err
		}
		c.Position = int(position)
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}

// ListIndexes reads pg_index key positions; expression keys are rendered with pg_get_indexdef
func (e *Extractor) ListIndexes(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.IndexRow, error) {
	query := `
		SELECT
			ic.relname,
			i.indisunique,
			i.indisprimary,
			k.ord,
			COALESCE(a.attname, ''),
			CASE WHEN k.attnum = 0 THEN pg_get_indexdef(i.indexrelid, k.ord::int, true) ELSE '' END,
			COALESCE(pg_get_expr(i.indpred, i.indrelid, true), '')
		FROM pg_index i
		JOIN pg_class c ON c.oid = i.indrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_class ic ON ic.oid = i.indexrelid
		CROSS JOIN LATERAL unnest(i.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
		LEFT JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum AND k.attnum > 0
		WHERE n.nspname = $1
		AND c.relname = $2
		AND k.ord <= i.indnkeyatts
		ORDER BY ic.relname, k.ord
	`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []extractor.IndexRow
	for rows.Next() {
		var idx extractor.IndexRow
		var position int64
		err := rows.Scan(&idx.Name, &idx.Unique, &idx.Primary, &position, &idx.Column, &idx.Expression, &idx.Predicate)
		if err != nil {
			return indexes, err
		}
		idx.Position = int(position)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
