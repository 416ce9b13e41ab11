package browse

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"metaextractor/internal/model"
)

func snapshot() []model.ExtractionResult {
	catalog := &model.Catalog{
		Source: "shop",
		Engine: "postgres",
		Schemas: []model.Schema{{
			Name: "public",
			Tables: []model.Table{
				{
					Name: "customers",
					Kind: model.TableKindTable,
					Columns: []model.Column{
						{Name: "id", Position: 1, Type: model.SemanticType{Kind: model.KindInteger, Bits: 64}},
					},
					Constraints: []model.Constraint{{Name: "customers_pkey", Kind: model.ConstraintPrimaryKey, Columns: []string{"id"}}},
				},
				{
					Name: "orders",
					Kind: model.TableKindTable,
					Columns: []model.Column{
						{Name: "customer_id", Position: 1, Type: model.SemanticType{Kind: model.KindInteger, Bits: 64}, Nullable: true},
					},
					Constraints: []model.Constraint{{
						Name: "orders_store_fk", Kind: model.ConstraintForeignKey, Columns: []string{"customer_id"},
						Reference: &model.Reference{Table: "stores", Columns: []string{"id"}},
					}},
				},
			},
		}},
	}
	return []model.ExtractionResult{
		model.Succeeded(catalog),
		model.Failed("legacy", "mysql", model.Failure{Kind: model.ErrorKindConnection, Message: "connection refused"}),
	}
}

func labels(nav *Navigator) []string {
	var out []string
	for _, line := range nav.Visible() {
		out = append(out, line.Node.Label)
	}
	return out
}

func TestNavigatorStartsCollapsed(t *testing.T) {
	nav := NewNavigator(snapshot())
	require.Equal(t, []string{
		"shop (postgres) success",
		"legacy (mysql) failed: ConnectionError: connection refused",
	}, labels(nav))
	require.Equal(t, LevelSource, nav.Selected().Level)
}

func TestNavigatorExpandToDetails(t *testing.T) {
	nav := NewNavigator(snapshot())

	nav.Expand() // shop
	nav.Down()
	nav.Expand() // public
	nav.Down()
	nav.Down()
	require.Equal(t, "orders [table]", nav.Selected().Label)

	nav.Toggle()
	nav.Down()
	nav.Down()
	require.Equal(t, "constraints (1)", nav.Selected().Label)
	nav.Toggle()
	nav.Down()
	require.Equal(t, "orders_store_fk foreign_key (customer_id) -> public.stores(id) [unresolved]", nav.Selected().Label)

	// collapsing a leaf jumps to its section, collapsing again folds it
	nav.Collapse()
	require.Equal(t, "constraints (1)", nav.Selected().Label)
	nav.Collapse()
	require.False(t, nav.Selected().Expanded())
}

func TestNavigatorCursorStaysInBounds(t *testing.T) {
	nav := NewNavigator(snapshot())
	for i := 0; i < 10; i++ {
		nav.Down()
	}
	require.Equal(t, LevelSource, nav.Selected().Level)
	require.Contains(t, nav.Selected().Label, "legacy")

	// a failed source has nothing to expand
	nav.Toggle()
	require.Len(t, nav.Visible(), 2)

	for i := 0; i < 10; i++ {
		nav.Up()
	}
	require.Contains(t, nav.Selected().Label, "shop")
}

func TestNavigatorEmptySnapshot(t *testing.T) {
	nav := NewNavigator(nil)
	require.Nil(t, nav.Selected())
	nav.Down()
	nav.Toggle()
	nav.Collapse()
	require.Empty(t, nav.Visible())
}

func TestRun(t *testing.T) {
	nav := NewNavigator(snapshot())
	in := strings.NewReader("\nj\nl\nj\nxyz\nq\n")
	var out bytes.Buffer

	require.NoError(t, Run(in, &out, nav))
	require.Contains(t, out.String(), `unknown command "xyz"`)
	require.Contains(t, out.String(), "> - shop (postgres) success")
	require.Equal(t, "customers [table]", nav.Selected().Label)
}

func TestRunStopsAtEOF(t *testing.T) {
	nav := NewNavigator(snapshot())
	var out bytes.Buffer
	require.NoError(t, Run(strings.NewReader("jj"), &out, nav))
	require.Contains(t, nav.Selected().Label, "legacy")
}

func TestCommands(t *testing.T) {
	require.Equal(t, []string{""}, commands("  "))
	require.Equal(t, []string{"j", "j", "l"}, commands("jjl"))
	require.Equal(t, []string{"down", "q"}, commands("down q"))
	require.Equal(t, []string{"enter"}, commands("enter"))
}
