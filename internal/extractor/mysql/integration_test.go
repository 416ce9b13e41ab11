package mysql_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"metaextractor/internal/coordinator"
	_ "metaextractor/internal/extractor/mysql"
	"metaextractor/internal/model"
	"metaextractor/internal/testutil"
)

var fixture = []string{
	`CREATE TABLE customers (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(120) NOT NULL,
		active TINYINT(1) NOT NULL DEFAULT 1,
		UNIQUE KEY customers_email (email)
	)`,
	`CREATE TABLE orders (
		id BIGINT NOT NULL PRIMARY KEY,
		customer_id INT UNSIGNED,
		total DECIMAL(10,2),
		state ENUM('open', 'shipped') NOT NULL DEFAULT 'open',
		placed_at DATETIME(3),
		area POLYGON,
		CONSTRAINT orders_customer FOREIGN KEY (customer_id) REFERENCES customers (id),
		CONSTRAINT total_positive CHECK (total > 0),
		KEY orders_email_prefix (state, placed_at)
	)`,
	`CREATE VIEW big_orders AS SELECT * FROM orders WHERE total > 1000`,
}

func TestMySQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container := testutil.SetupMySQLContainer(ctx, t)
	defer container.Terminate(ctx, t)
	container.Exec(ctx, t, fixture...)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	results, err := coordinator.New(coordinator.WithLogger(quiet)).Run(ctx, []coordinator.Source{{
		Name:   "shop",
		Engine: "mariadb",
		DSN:    container.DSN,
	}})
	require.NoError(t, err)

	result := results[0]
	require.Equal(t, model.StatusSuccess, result.Status(), "%+v", result.Failure)
	require.Equal(t, "mysql", result.Engine)

	catalog := result.Catalog
	require.Equal(t, "testdb", catalog.Database)
	require.Len(t, catalog.Schemas, 1, "the connected database is the default schema filter")

	schema := catalog.Schemas[0]
	require.Equal(t, "testdb", schema.Name)

	view, ok := schema.Table("big_orders")
	require.True(t, ok)
	require.Equal(t, model.TableKindView, view.Kind)

	customers, _ := schema.Table("customers")
	id, _ := customers.Column("id")
	require.Equal(t, "integer(32) unsigned", id.Type.Describe())

	active, _ := customers.Column("active")
	require.Equal(t, model.KindBoolean, active.Type.Kind)
	require.Equal(t, "tinyint(1)", active.Type.Native)

	orders, _ := schema.Table("orders")
	total, _ := orders.Column("total")
	require.Equal(t, "decimal(10,2)", total.Type.Describe())

	state, _ := orders.Column("state")
	require.Equal(t, model.KindText, state.Type.Kind)
	require.Equal(t, "enum", state.Type.Variant)
	require.NotNil(t, state.Default)

	placed, _ := orders.Column("placed_at")
	require.Equal(t, model.KindTimestamp, placed.Type.Kind)
	require.Equal(t, 3, placed.Type.Precision)

	area, _ := orders.Column("area")
	require.True(t, area.Type.IsUnknown())

	fks := orders.ForeignKeys()
	require.Len(t, fks, 1)
	require.Equal(t, "orders_customer", fks[0].Name)
	require.Equal(t, "customers", fks[0].Reference.Table)
	require.Equal(t, []string{"id"}, fks[0].Reference.Columns)

	kinds := map[model.ConstraintKind]int{}
	for _, c := range orders.Constraints {
		kinds[c.Kind]++
	}
	require.Equal(t, 1, kinds[model.ConstraintPrimaryKey])
	require.Equal(t, 1, kinds[model.ConstraintCheck])

	var composite *model.Index
	for i := range orders.Indexes {
		if orders.Indexes[i].Name == "orders_email_prefix" {
			composite = &orders.Indexes[i]
		}
	}
	require.NotNil(t, composite)
	require.Equal(t, []string{"state", "placed_at"}, composite.Columns)
}
