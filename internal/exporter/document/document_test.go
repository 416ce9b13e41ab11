package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"metaextractor/internal/model"
)

func intType(native string) model.SemanticType {
	return model.SemanticType{Kind: model.KindInteger, Bits: 32, Native: native}
}

func TestBuildResolvesAcrossSchemas(t *testing.T) {
	catalog := &model.Catalog{
		Source: "erp",
		Engine: "mssql",
		Schemas: []model.Schema{
			{Name: "dbo", Tables: []model.Table{{
				Name:    "invoices",
				Kind:    model.TableKindTable,
				Columns: []model.Column{{Name: "id", Position: 1, Type: intType("int")}, {Name: "vendor_id", Position: 2, Type: intType("int")}},
				Constraints: []model.Constraint{
					{Name: "fk_missing", Kind: model.ConstraintForeignKey, Columns: []string{"id"},
						Reference: &model.Reference{Table: "ledgers", Columns: []string{"id"}}},
					{Name: "fk_vendor", Kind: model.ConstraintForeignKey, Columns: []string{"vendor_id"},
						Reference: &model.Reference{Schema: "purchasing", Table: "vendors", Columns: []string{"id"}}},
				},
			}}},
			{Name: "purchasing", Tables: []model.Table{{
				Name:    "vendors",
				Kind:    model.TableKindTable,
				Columns: []model.Column{{Name: "id", Position: 1, Type: intType("int")}},
			}}},
		},
	}

	doc := Build([]model.ExtractionResult{model.Succeeded(catalog)})
	require.Equal(t, FormatVersion, doc.FormatVersion)
	require.Len(t, doc.Sources, 1)

	constraints := doc.Sources[0].Catalog.Schemas[0].Tables[0].Constraints
	want := []Constraint{
		{Name: "fk_missing", Kind: model.ConstraintForeignKey, Columns: []string{"id"},
			Reference: &Reference{Schema: "dbo", Table: "ledgers", Columns: []string{"id"}, Resolved: false}},
		{Name: "fk_vendor", Kind: model.ConstraintForeignKey, Columns: []string{"vendor_id"},
			Reference: &Reference{Schema: "purchasing", Table: "vendors", Columns: []string{"id"}, Resolved: true}},
	}
	if diff := cmp.Diff(want, constraints); diff != "" {
		t.Errorf("constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKeepsFailedSources(t *testing.T) {
	results := []model.ExtractionResult{
		model.Failed("a", "oracle", model.Failure{Kind: model.ErrorKindCancelled, Message: "context canceled"}),
		model.Succeeded(&model.Catalog{Source: "b", Engine: "sqlite", Database: "b"}),
	}

	doc := Build(results)
	require.Len(t, doc.Sources, 2)

	require.Equal(t, "a", doc.Sources[0].Name)
	require.Equal(t, model.StatusFailed, doc.Sources[0].Status)
	require.Nil(t, doc.Sources[0].Catalog)
	require.Equal(t, model.ErrorKindCancelled, doc.Sources[0].Failure.Kind)

	require.Equal(t, "b", doc.Sources[1].Name)
	require.Equal(t, model.StatusSuccess, doc.Sources[1].Status)
	require.NotNil(t, doc.Sources[1].Catalog)
	require.NotNil(t, doc.Sources[1].Catalog.Schemas, "empty catalogs serialize as [] rather than null")
}

func TestBuildMarksPrimaryKeyColumns(t *testing.T) {
	catalog := &model.Catalog{Source: "s", Engine: "postgres", Schemas: []model.Schema{{
		Name: "public",
		Tables: []model.Table{{
			Name: "t",
			Kind: model.TableKindTable,
			Columns: []model.Column{
				{Name: "a", Position: 1, Type: intType("integer")},
				{Name: "b", Position: 2, Type: model.Unknown("tsvector"), Nullable: true},
			},
			Constraints: []model.Constraint{{Name: "t_pkey", Kind: model.ConstraintPrimaryKey, Columns: []string{"a"}}},
		}},
	}}}

	src := Build([]model.ExtractionResult{model.Succeeded(catalog)}).Sources[0]
	columns := src.Catalog.Schemas[0].Tables[0].Columns
	require.True(t, columns[0].PrimaryKey)
	require.False(t, columns[1].PrimaryKey)
	require.Equal(t, "integer(32)", columns[0].Descriptor)
	require.Equal(t, "unknown(tsvector)", columns[1].Descriptor)

	require.Equal(t, Counts{Schemas: 1, Tables: 1, Columns: 2, UnknownType: 1}, src.Count())
}
