package coordinator_test

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"metaextractor/internal/coordinator"
	"metaextractor/internal/exporter"
	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"

	_ "metaextractor/internal/extractor/sqlite"
)

var shopSchema = []string{
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY,
		email VARCHAR(120) NOT NULL UNIQUE
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		warehouse_id INTEGER REFERENCES warehouses(id),
		total NUMERIC(10,2),
		footprint GEOMETRY
	)`,
	`CREATE INDEX orders_customer ON orders (customer_id)`,
}

func createDatabase(t *testing.T, name string, stmts []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func run(t *testing.T, sources []coordinator.Source) []model.ExtractionResult {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	results, err := coordinator.New(coordinator.WithLogger(quiet)).Run(context.Background(), sources)
	require.NoError(t, err)
	return results
}

func sqliteSource(name, path string) coordinator.Source {
	return coordinator.Source{Name: name, Engine: "sqlite", DSN: path}
}

func findTable(t *testing.T, src document.Source, schema, table string) document.Table {
	t.Helper()
	require.NotNil(t, src.Catalog)
	for _, s := range src.Catalog.Schemas {
		if s.Name != schema {
			continue
		}
		for _, tbl := range s.Tables {
			if tbl.Name == table {
				return tbl
			}
		}
	}
	t.Fatalf("table %s.%s not found in %s", schema, table, src.Name)
	return document.Table{}
}

func TestScenarioUnreachableMiddleSource(t *testing.T) {
	a := createDatabase(t, "a", shopSchema)
	c := createDatabase(t, "c", []string{`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`})
	missing := filepath.Join(t.TempDir(), "nowhere", "b.db")

	results := run(t, []coordinator.Source{
		sqliteSource("A", a),
		sqliteSource("B", missing),
		sqliteSource("C", c),
	})

	require.Len(t, results, 3)
	require.Equal(t, []string{"A", "B", "C"}, []string{results[0].Source, results[1].Source, results[2].Source})

	require.Equal(t, model.StatusSuccess, results[0].Status())
	require.Equal(t, model.StatusFailed, results[1].Status())
	require.Equal(t, model.ErrorKindConnection, results[1].Failure.Kind)
	require.Equal(t, model.StatusSuccess, results[2].Status())

	require.Equal(t, 2, results[0].Catalog.TableCount())
	require.Equal(t, 1, results[2].Catalog.TableCount())
	require.False(t, model.AllFailed(results))
}

func TestScenarioDanglingForeignKey(t *testing.T) {
	results := run(t, []coordinator.Source{sqliteSource("shop", createDatabase(t, "shop", shopSchema))})
	require.Equal(t, model.StatusSuccess, results[0].Status(), "a dangling reference does not make a source partial")

	orders := findTable(t, document.Build(results).Sources[0], "main", "orders")

	resolved := map[string]bool{}
	for _, c := range orders.Constraints {
		if c.Reference != nil {
			resolved[c.Reference.Table] = c.Reference.Resolved
		}
	}
	require.Equal(t, map[string]bool{"customers": true, "warehouses": false}, resolved)
}

func TestScenarioUnknownType(t *testing.T) {
	results := run(t, []coordinator.Source{sqliteSource("shop", createDatabase(t, "shop", shopSchema))})
	orders := findTable(t, document.Build(results).Sources[0], "main", "orders")

	var footprint *document.Column
	for i := range orders.Columns {
		if orders.Columns[i].Name == "footprint" {
			footprint = &orders.Columns[i]
		}
	}
	require.NotNil(t, footprint)
	require.Equal(t, model.KindUnknown, footprint.Type.Kind)
	require.Equal(t, "GEOMETRY", footprint.Type.Native)
	require.Equal(t, "unknown(GEOMETRY)", footprint.Descriptor)

	// the remaining columns still map
	require.Equal(t, "decimal(10,2)", orders.Columns[3].Descriptor)
}

func TestScenarioRepeatedExtractionIsByteIdentical(t *testing.T) {
	path := createDatabase(t, "shop", shopSchema)
	sources := []coordinator.Source{sqliteSource("shop", path)}

	export := func() string {
		exp, err := exporter.NewExporter("json", exporter.Config{})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, exporter.Write(exp, run(t, sources), &buf))
		return buf.String()
	}

	first, second := export(), export()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated extraction differs (-first +second):\n%s", diff)
	}
}
