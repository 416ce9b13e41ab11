package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

func init() {
	extractor.Register("mysql", func(options map[string]string) (extractor.Driver, error) {
		return NewExtractor(), nil
	}, "mariadb")
}

// MySQL server error numbers used for classification
const (
	errDBAccessDenied    = 1044
	errAccessDenied      = 1045
	errBadDB             = 1049
	errBadField          = 1054
	errUnknownTable      = 1109
	errConnectionFailure = 2002
	errConnHostError     = 2003
	errServerGone        = 2006
	errServerLost        = 2013
)

var systemSchemas = []string{"information_schema", "mysql", "performance_schema", "sys"}

// Extractor implements MySQL catalog introspection over INFORMATION_SCHEMA
type Extractor struct{}

// NewExtractor creates a new MySQL extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Engine returns the canonical engine name
func (e *Extractor) Engine() string {
	return "mysql"
}

// Open prepares a handle. Both the driver's native DSN (user:pass@tcp(host:3306)/db)
// and mysql:// URLs are accepted.
func (e *Extractor) Open(dsn string) (*sql.DB, error) {
	native, err := NativeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", native)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	return db, nil
}

// NativeDSN converts a mysql:// URL into the driver's DSN format
func NativeDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mysql://") {
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	params := u.Query()
	if len(params) > 0 {
		cfg.Params = make(map[string]string, len(params))
		for k := range params {
			cfg.Params[k] = params.Get(k)
		}
	}
	return cfg.FormatDSN(), nil
}

// IsConnectionError recognizes authentication and lost-connection errors
func (e *Extractor) IsConnectionError(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDBAccessDenied, errAccessDenied, errBadDB,
			errConnectionFailure, errConnHostError, errServerGone, errServerLost:
			return true
		}
	}
	return false
}

func isServerError(err error, number uint16) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == number
}

// DatabaseInfo retrieves database information
func (e *Extractor) DatabaseInfo(ctx context.Context, q extractor.Querier) (name, version string, err error) {
	var db sql.NullString
	err = q.QueryRowContext(ctx, "SELECT DATABASE(), VERSION()").Scan(&db, &version)
	return db.String, version, err
}

// ListSchemas returns the filtered schemas. Without a filter it defaults to the
// connected database, or every non-system schema when none is selected.
func (e *Extractor) ListSchemas(ctx context.Context, q extractor.Querier, filter []string) ([]string, error) {
	if len(filter) == 0 {
		var current sql.NullString
		if err := q.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&current); err != nil {
			return nil, fmt.Errorf("failed to query current database: %w", err)
		}
		if current.Valid && current.String != "" {
			filter = []string{current.String}
		}
	}

	qb := sq.Select("SCHEMA_NAME").
		From("INFORMATION_SCHEMA.SCHEMATA").
		Where(sq.NotEq{"SCHEMA_NAME": systemSchemas}).
		OrderBy("SCHEMA_NAME")

	if len(filter) > 0 {
		qb = qb.Where(sq.Eq{"SCHEMA_NAME": filter})
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

// ListTables lists base tables and views of one schema
func (e *Extractor) ListTables(ctx context.Context, q extractor.Querier, schema string) ([]extractor.TableRow, error) {
	query, args, err := sq.Select("TABLE_NAME", "TABLE_TYPE").
		From("INFORMATION_SCHEMA.TABLES").
		Where(sq.Eq{"TABLE_SCHEMA": schema}).
		Where(sq.Eq{"TABLE_TYPE": []string{"BASE TABLE", "VIEW", "SYSTEM VERSIONED"}}).
		OrderBy("TABLE_NAME").
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
		var tableType string
		if err := rows.Scan(&t.Name, &tableType); err != nil {
			return nil, err
		}

		t.Kind = model.TableKindTable
		if tableType == "VIEW" {
			t.Kind = model.TableKindView
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListColumns reads INFORMATION_SCHEMA.COLUMNS; COLUMN_TYPE keeps unsigned and display widths
func (e *Extractor) ListColumns(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ColumnRow, error) {
	query := `
		SELECT
			COLUMN_NAME,
			ORDINAL_POSITION,
			DATA_TYPE,
			COLUMN_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			COALESCE(NUMERIC_SCALE, DATETIME_PRECISION),
			IS_NULLABLE,
			COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []extractor.ColumnRow
	for rows.Next() {
		var col extractor.ColumnRow
		var nullable string

		err := rows.Scan(
			&col.Name, &col.Position, &col.DataType, &col.ColumnType,
			&col.Length, &col.Precision, &col.Scale, &nullable, &col.Default,
		)
		if err != nil {
			return columns, err
		}

		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// ListConstraints joins TABLE_CONSTRAINTS with KEY_COLUMN_USAGE, then adds
// CHECK_CONSTRAINTS on servers that have it
func (e *Extractor) ListConstraints(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ConstraintRow, error) {
	query := `
		SELECT
			tc.CONSTRAINT_NAME,
			tc.CONSTRAINT_TYPE,
			k.COLUMN_NAME,
			k.ORDINAL_POSITION,
			IFNULL(k.REFERENCED_TABLE_SCHEMA, ''),
			IFNULL(k.REFERENCED_TABLE_NAME, ''),
			IFNULL(k.REFERENCED_COLUMN_NAME, '')
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
			ON k.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
			AND k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			AND k.TABLE_SCHEMA = tc.TABLE_SCHEMA
			AND k.TABLE_NAME = tc.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
		AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
		ORDER BY tc.CONSTRAINT_NAME, k.ORDINAL_POSITION
	`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}

	var constraints []extractor.ConstraintRow
	for rows.Next() {
		var c extractor.ConstraintRow
		var constraintType string
		err := rows.Scan(&c.Name, &constraintType, &c.Column, &c.Position, &c.RefSchema, &c.RefTable, &c.RefColumn)
		if err != nil {
			rows.Close()
			return constraints, err
		}

		switch constraintType {
		case "PRIMARY KEY":
			c.Kind = extractor.KindPrimaryKey
		case "UNIQUE":
			c.Kind = extractor.KindUnique
		default:
			c.Kind = extractor.KindForeignKey
		}
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return constraints, err
	}
	rows.Close()

	checks, err := e.listChecks(ctx, q, schema, table)
	if err != nil {
		return constraints, err
	}
	return append(constraints, checks...), nil
}

func (e *Extractor) listChecks(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ConstraintRow, error) {
	query := `
		SELECT cc.CONSTRAINT_NAME, cc.CHECK_CLAUSE
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.CHECK_CONSTRAINTS cc
			ON cc.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
			AND cc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
		AND tc.CONSTRAINT_TYPE = 'CHECK'
		ORDER BY cc.CONSTRAINT_NAME
	`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		// CHECK_CONSTRAINTS only exists from MySQL 8.0.16
		if isServerError(err, errUnknownTable) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query check constraints: %w", err)
	}
	defer rows.Close()

	var checks []extractor.ConstraintRow
	for rows.Next() {
		c := extractor.ConstraintRow{Kind: extractor.KindCheck}
		if err := rows.Scan(&c.Name, &c.Expression); err != nil {
			return checks, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// ListIndexes reads INFORMATION_SCHEMA.STATISTICS. Functional key parts need the
// EXPRESSION column (8.0.13+); older servers fall back to column-only rows.
func (e *Extractor) ListIndexes(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.IndexRow, error) {
	indexes, err := e.listIndexes(ctx, q, schema, table, "EXPRESSION")
	if err != nil && isServerError(err, errBadField) {
		return e.listIndexes(ctx, q, schema, table, "NULL")
	}
	return indexes, err
}

func (e *Extractor) listIndexes(ctx context.Context, q extractor.Querier, schema, table, expressionColumn string) ([]extractor.IndexRow, error) {
	query, args, err := sq.Select(
		"INDEX_NAME",
		"NON_UNIQUE",
		"SEQ_IN_INDEX",
		"COLUMN_NAME",
		"SUB_PART",
		expressionColumn,
	).
		From("INFORMATION_SCHEMA.STATISTICS").
		Where(sq.Eq{"TABLE_SCHEMA": schema, "TABLE_NAME": table}).
		OrderBy("INDEX_NAME", "SEQ_IN_INDEX").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []extractor.IndexRow
	for rows.Next() {
		var idx extractor.IndexRow
		var nonUnique int
		var column, expression sql.NullString
		var subPart sql.NullInt64

		if err := rows.Scan(&idx.Name, &nonUnique, &idx.Position, &column, &subPart, &expression); err != nil {
			return indexes, err
		}

		idx.Unique = nonUnique == 0
		idx.Primary = idx.Name == "PRIMARY"
		idx.Column = column.String

		switch {
		case !column.Valid:
			idx.Expression = expression.String
			if idx.Expression == "" {
				idx.Expression = "(functional key part)"
			}
		case subPart.Valid:
			// Prefix indexes only cover the first SUB_PART characters
			idx.Expression = fmt.Sprintf("%s(%d)", column.String, subPart.Int64)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
