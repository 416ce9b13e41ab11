package coordinator

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"metaextractor/internal/extractor"
	_ "metaextractor/internal/extractor/sqlite"
)

var fakes sync.Map

func init() {
	extractor.Register("fake", func(options map[string]string) (extractor.Driver, error) {
		d, ok := fakes.Load(options["id"])
		if !ok {
			return nil, fmt.Errorf("no fake driver %q", options["id"])
		}
		return d.(*fakeDriver), nil
	})
}

// fakeDriver serves canned catalog rows. It connects to an in-memory SQLite
// database so the coordinator gets a real *sql.Conn, but never queries it.
type fakeDriver struct {
	openErr    error
	hang       bool          // connection attempts block until their context ends
	delay      time.Duration // ListSchemas sleeps before answering
	infoErr    error
	schemas    map[string][]extractor.TableRow
	tablesErr  map[string]error
	columnsErr map[string]error
	indexesErr map[string]error
	panicOn    string        // table whose ListColumns panics
	badKey     string        // table whose primary key names a column it does not have
	started    chan struct{} // closed when ListSchemas is entered
	block      bool          // ListSchemas waits for cancellation
}

// addFake registers d for the duration of the test and returns a source using it
func addFake(t *testing.T, name string, d *fakeDriver) Source {
	t.Helper()
	id := t.Name() + "/" + name
	fakes.Store(id, d)
	t.Cleanup(func() { fakes.Delete(id) })

	return Source{
		Name:    name,
		Engine:  "fake",
		DSN:     "memory",
		Timeout: 2 * time.Second,
		Options: map[string]string{"id": id},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeDriver) Engine() string { return "fake" }

func (f *fakeDriver) Open(dsn string) (*sql.DB, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.hang {
		return sql.OpenDB(hangingConnector{}), nil
	}
	return sql.Open("sqlite", ":memory:")
}

func (f *fakeDriver) DatabaseInfo(ctx context.Context, q extractor.Querier) (string, string, error) {
	if f.infoErr != nil {
		return "", "", f.infoErr
	}
	return "fakedb", "1.0", nil
}

func (f *fakeDriver) ListSchemas(ctx context.Context, q extractor.Querier, filter []string) ([]string, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	var names []string
	for name := range f.schemas {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeDriver) ListTables(ctx context.Context, q extractor.Querier, schema string) ([]extractor.TableRow, error) {
	if err := f.tablesErr[schema]; err != nil {
		return nil, err
	}
	return f.schemas[schema], nil
}

func (f *fakeDriver) ListColumns(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ColumnRow, error) {
	if table == f.panicOn {
		panic("column scan exploded")
	}
	columns := []extractor.ColumnRow{
		{Name: "id", Position: 1, DataType: "int"},
	}
	if err := f.columnsErr[table]; err != nil {
		return columns, err
	}
	return append(columns, extractor.ColumnRow{Name: "name", Position: 2, DataType: "text", Nullable: true}), nil
}

func (f *fakeDriver) ListConstraints(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.ConstraintRow, error) {
	column := "id"
	if table == f.badKey {
		column = "uuid"
	}
	return []extractor.ConstraintRow{
		{Name: table + "_pkey", Kind: extractor.KindPrimaryKey, Column: column, Position: 1},
	}, nil
}

func (f *fakeDriver) ListIndexes(ctx context.Context, q extractor.Querier, schema, table string) ([]extractor.IndexRow, error) {
	if err := f.indexesErr[table]; err != nil {
		return nil, err
	}
	return nil, nil
}

type hangingConnector struct{}

func (hangingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingConnector) Driver() driver.Driver { return hangingDriver{} }

type hangingDriver struct{}

func (hangingDriver) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("not supported")
}
