package coordinator

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

func tables(names ...string) []extractor.TableRow {
	rows := make([]extractor.TableRow, 0, len(names))
	for _, n := range names {
		rows = append(rows, extractor.TableRow{Name: n, Kind: model.TableKindTable})
	}
	return rows
}

func TestRunPreservesInputOrder(t *testing.T) {
	var sources []Source
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("src%d", i)
		sources = append(sources, addFake(t, name, &fakeDriver{
			// Later sources finish first
			delay:   time.Duration(6-i) * 10 * time.Millisecond,
			schemas: map[string][]extractor.TableRow{"public": tables("t")},
		}))
	}

	results, err := New(WithLogger(quietLogger())).Run(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, results, len(sources))

	for i, r := range results {
		require.Equal(t, sources[i].Name, r.Source)
		require.Equal(t, model.StatusSuccess, r.Status())
	}
}

func TestRunWithLimitedConcurrency(t *testing.T) {
	var sources []Source
	for i := 0; i < 5; i++ {
		sources = append(sources, addFake(t, fmt.Sprintf("src%d", i), &fakeDriver{
			schemas: map[string][]extractor.TableRow{"public": tables("a", "b")},
		}))
	}

	results, err := New(WithConcurrency(2), WithLogger(quietLogger())).Run(context.Background(), sources)
	require.NoError(t, err)
	for i, r := range results {
		require.Equal(t, sources[i].Name, r.Source)
		require.Equal(t, 2, r.Catalog.TableCount())
	}
}

func TestFailureIsolation(t *testing.T) {
	sources := []Source{
		addFake(t, "good", &fakeDriver{schemas: map[string][]extractor.TableRow{"public": tables("t")}}),
		addFake(t, "unreachable", &fakeDriver{openErr: errors.New("dial tcp: connection refused")}),
		addFake(t, "panics", &fakeDriver{
			schemas: map[string][]extractor.TableRow{"public": tables("boom")},
			panicOn: "boom",
		}),
		addFake(t, "no-info", &fakeDriver{infoErr: errors.New("permission denied for function version")}),
		addFake(t, "also-good", &fakeDriver{schemas: map[string][]extractor.TableRow{"public": tables("t")}}),
	}

	results, err := New(WithLogger(quietLogger())).Run(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, results, 5)

	require.Equal(t, model.StatusSuccess, results[0].Status())
	require.Equal(t, model.StatusSuccess, results[4].Status())

	require.Equal(t, model.StatusFailed, results[1].Status())
	require.Equal(t, model.ErrorKindConnection, results[1].Failure.Kind)
	require.Nil(t, results[1].Catalog)

	require.Equal(t, model.StatusFailed, results[2].Status())
	require.Contains(t, results[2].Failure.Message, "column scan exploded")

	require.Equal(t, model.StatusFailed, results[3].Status())
	require.Equal(t, model.ErrorKindIntrospection, results[3].Failure.Kind)
	require.Equal(t, "database info", results[3].Failure.Query)

	require.False(t, model.AllFailed(results))
}

func TestPartialObjectContainment(t *testing.T) {
	src := addFake(t, "crm", &fakeDriver{
		schemas: map[string][]extractor.TableRow{
			"public":  tables("accounts", "contacts", "deals"),
			"archive": tables("old"),
		},
		tablesErr:  map[string]error{"archive": errors.New("permission denied for schema archive")},
		columnsErr: map[string]error{"contacts": errors.New("canceling statement due to statement timeout")},
		indexesErr: map[string]error{"deals": errors.New("relation does not exist")},
	})

	results, err := New(WithLogger(quietLogger())).Run(context.Background(), []Source{src})
	require.NoError(t, err)

	r := results[0]
	require.Equal(t, model.StatusPartial, r.Status())
	require.Nil(t, r.Failure)

	archive, ok := r.Catalog.Schema("archive")
	require.True(t, ok)
	require.True(t, archive.Incomplete)
	require.Empty(t, archive.Tables)
	require.Len(t, archive.Issues, 1)

	public, ok := r.Catalog.Schema("public")
	require.True(t, ok)
	require.False(t, public.Incomplete)

	accounts, _ := public.Table("accounts")
	require.False(t, accounts.Incomplete)
	require.Len(t, accounts.Columns, 2)

	contacts, _ := public.Table("contacts")
	require.True(t, contacts.Incomplete)
	require.Len(t, contacts.Columns, 1, "rows read before the failure are kept")
	require.Len(t, contacts.Constraints, 1, "later queries still run")
	require.Contains(t, contacts.Issues[0], "columns")

	deals, _ := public.Table("deals")
	require.True(t, deals.Incomplete)
	require.Len(t, deals.Columns, 2)
}

func TestInvalidCatalogMarksTable(t *testing.T) {
	src := addFake(t, "inventory", &fakeDriver{
		schemas: map[string][]extractor.TableRow{"public": tables("items", "stock")},
		badKey:  "stock",
	})

	results, err := New(WithLogger(quietLogger())).Run(context.Background(), []Source{src})
	require.NoError(t, err)
	require.Equal(t, model.StatusPartial, results[0].Status())

	public, _ := results[0].Catalog.Schema("public")
	items, _ := public.Table("items")
	require.False(t, items.Incomplete)

	stock, _ := public.Table("stock")
	require.True(t, stock.Incomplete)
	require.Equal(t, []string{`validation: primary key stock_pkey references unknown column "uuid"`}, stock.Issues)
	require.Len(t, stock.Columns, 2)
}

func TestConnectionLostMidExtraction(t *testing.T) {
	src := addFake(t, "flaky", &fakeDriver{
		schemas:    map[string][]extractor.TableRow{"public": tables("a")},
		columnsErr: map[string]error{"a": fmt.Errorf("read rows: %w", driver.ErrBadConn)},
	})

	results, err := New(WithLogger(quietLogger())).Run(context.Background(), []Source{src})
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, results[0].Status())
	require.Equal(t, model.ErrorKindConnection, results[0].Failure.Kind)
}

func TestConnectionTimeout(t *testing.T) {
	src := addFake(t, "slow", &fakeDriver{hang: true})
	src.Timeout = 50 * time.Millisecond

	results, err := New(WithLogger(quietLogger())).Run(context.Background(), []Source{src})
	require.NoError(t, err)

	failure := results[0].Failure
	require.NotNil(t, failure)
	require.Equal(t, model.ErrorKindConnection, failure.Kind)
	require.True(t, failure.Timeout)
}

func TestCancellation(t *testing.T) {
	started := make(chan struct{})
	src := addFake(t, "blocked", &fakeDriver{block: true, started: started})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	results, err := New(WithLogger(quietLogger())).Run(ctx, []Source{src})
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, results[0].Status())
	require.Equal(t, model.ErrorKindCancelled, results[0].Failure.Kind)
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sources := []Source{
		addFake(t, "a", &fakeDriver{}),
		addFake(t, "b", &fakeDriver{}),
	}
	results, err := New(WithLogger(quietLogger())).Run(ctx, sources)
	require.NoError(t, err)
	for _, r := range results {
		require.Equal(t, model.ErrorKindCancelled, r.Failure.Kind)
	}
	require.True(t, model.AllFailed(results))
}

func TestValidate(t *testing.T) {
	good := Source{Name: "a", Engine: "sqlite", DSN: "a.db"}

	testCases := []struct {
		name    string
		sources []Source
		want    error
	}{
		{"no sources", nil, ErrNoSources},
		{"empty name", []Source{{Engine: "sqlite", DSN: "x.db"}}, ErrEmptySourceName},
		{"duplicate", []Source{good, good}, ErrDuplicateSource},
		{"empty dsn", []Source{{Name: "a", Engine: "sqlite"}}, ErrEmptyConnectionString},
		{"unknown engine", []Source{{Name: "a", Engine: "db2", DSN: "x"}}, ErrUnknownEngine},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.sources)
			require.ErrorIs(t, err, tc.want)
		})
	}

	require.NoError(t, Validate([]Source{good, {Name: "b", Engine: "sqlite3", DSN: "b.db"}}))
}

func TestRunRejectsMisconfiguration(t *testing.T) {
	_, err := New(WithLogger(quietLogger())).Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoSources)
}
