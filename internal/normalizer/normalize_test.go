package normalizer

import (
	"database/sql"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func TestMapType(t *testing.T) {
	testCases := []struct {
		name   string
		engine string
		col    extractor.ColumnRow
		want   string
	}{
		{"pg int4", "postgres", extractor.ColumnRow{DataType: "int4", ColumnType: "integer"}, "integer(32)"},
		{"pg varchar", "postgres", extractor.ColumnRow{DataType: "varchar", ColumnType: "character varying(255)"}, "text(255)"},
		{"pg bpchar", "postgres", extractor.ColumnRow{DataType: "bpchar", ColumnType: "character(2)"}, "text(2) fixed"},
		{"pg text", "postgres", extractor.ColumnRow{DataType: "text", ColumnType: "text"}, "text(unbounded)"},
		{"pg numeric", "postgres", extractor.ColumnRow{DataType: "numeric", ColumnType: "numeric(10,2)"}, "decimal(10,2)"},
		{"pg timestamptz", "postgres", extractor.ColumnRow{DataType: "timestamptz", ColumnType: "timestamp(3) with time zone"}, "timestamp(3) with time zone"},
		{"pg json", "postgres", extractor.ColumnRow{DataType: "json", ColumnType: "json"}, "json"},
		{"pg jsonb", "postgres", extractor.ColumnRow{DataType: "jsonb", ColumnType: "jsonb"}, "json [jsonb]"},
		{"pg array", "postgres", extractor.ColumnRow{DataType: "_int4", ColumnType: "integer[]"}, "unknown(integer[])"},
		{"mysql unsigned", "mysql", extractor.ColumnRow{DataType: "int", ColumnType: "int(10) unsigned"}, "integer(32) unsigned"},
		{"mysql bool", "mysql", extractor.ColumnRow{DataType: "tinyint", ColumnType: "tinyint(1)"}, "boolean"},
		{"mysql tinyint", "mysql", extractor.ColumnRow{DataType: "tinyint", ColumnType: "tinyint(4)"}, "integer(8)"},
		{"mysql varchar", "mysql", extractor.ColumnRow{DataType: "varchar", ColumnType: "varchar(64)", Length: nullInt(64)}, "text(64)"},
		{"mysql enum", "mysql", extractor.ColumnRow{DataType: "enum", ColumnType: "enum('a','b')"}, "text(unbounded) [enum]"},
		{"mysql decimal", "mysql", extractor.ColumnRow{DataType: "decimal", ColumnType: "decimal(12,4)", Precision: nullInt(12), Scale: nullInt(4)}, "decimal(12,4)"},
		{"mysql datetime", "mysql", extractor.ColumnRow{DataType: "datetime", ColumnType: "datetime(6)", Scale: nullInt(6)}, "timestamp(6)"},
		{"sqlite integer", "sqlite", extractor.ColumnRow{DataType: "integer", ColumnType: "INTEGER"}, "integer(64)"},
		{"sqlite varchar", "sqlite", extractor.ColumnRow{DataType: "varchar", ColumnType: "VARCHAR(40)"}, "text(40)"},
		{"sqlite geometry", "sqlite", extractor.ColumnRow{DataType: "geometry", ColumnType: "GEOMETRY"}, "unknown(GEOMETRY)"},
		{"mssql nvarchar", "mssql", extractor.ColumnRow{DataType: "nvarchar", ColumnType: "nvarchar(50)", Length: nullInt(50)}, "text(50) [national]"},
		{"mssql varchar", "mssql", extractor.ColumnRow{DataType: "varchar", ColumnType: "varchar(50)", Length: nullInt(50)}, "text(50)"},
		{"mssql ntext", "mssql", extractor.ColumnRow{DataType: "ntext", ColumnType: "ntext"}, "text(unbounded) [national legacy]"},
		{"mysql longtext", "mysql", extractor.ColumnRow{DataType: "longtext", ColumnType: "longtext"}, "text(unbounded) [long]"},
		{"mysql longblob", "mysql", extractor.ColumnRow{DataType: "longblob", ColumnType: "longblob"}, "binary(unbounded) [long]"},
		{"mssql tinyint", "mssql", extractor.ColumnRow{DataType: "tinyint", ColumnType: "tinyint"}, "integer(8) unsigned"},
		{"mssql datetimeoffset", "mssql", extractor.ColumnRow{DataType: "datetimeoffset", ColumnType: "datetimeoffset", Scale: nullInt(7)}, "timestamp(7) with time zone"},
		{"mssql uniqueidentifier", "mssql", extractor.ColumnRow{DataType: "uniqueidentifier"}, "uuid"},
		{"oracle number", "oracle", extractor.ColumnRow{DataType: "number", ColumnType: "NUMBER", Precision: nullInt(9), Scale: nullInt(0)}, "decimal(9,0)"},
		{"oracle varchar2", "oracle", extractor.ColumnRow{DataType: "varchar2", ColumnType: "VARCHAR2", Length: nullInt(30)}, "text(30)"},
		{"oracle local tz", "oracle", extractor.ColumnRow{DataType: "timestamp with local time zone", ColumnType: "TIMESTAMP(6) WITH LOCAL TIME ZONE"}, "timestamp(6) with time zone [local]"},
		{"oracle tz", "oracle", extractor.ColumnRow{DataType: "timestamp with time zone", ColumnType: "TIMESTAMP(6) WITH TIME ZONE"}, "timestamp(6) with time zone"},
		{"oracle interval ym", "oracle", extractor.ColumnRow{DataType: "interval year to month", ColumnType: "INTERVAL YEAR(2) TO MONTH"}, "interval [year_to_month]"},
		{"oracle interval ds", "oracle", extractor.ColumnRow{DataType: "interval day to second", ColumnType: "INTERVAL DAY(2) TO SECOND(6)"}, "interval [day_to_second]"},
		{"unregistered engine", "db2", extractor.ColumnRow{DataType: "integer"}, "unknown(integer)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapType(tc.engine, tc.col).Describe()
			if got != tc.want {
				t.Errorf("MapType(%s, %s) = %q, want %q", tc.engine, tc.col.ColumnType, got, tc.want)
			}
		})
	}
}

func TestMapTypeKeepsNativeText(t *testing.T) {
	got := MapType("sqlite", extractor.ColumnRow{DataType: "geometry", ColumnType: "GEOMETRY"})
	if !got.IsUnknown() {
		t.Fatalf("expected unknown type, got %s", got)
	}
	if got.Native != "GEOMETRY" {
		t.Errorf("Native = %q, want GEOMETRY", got.Native)
	}
}

// Two native types may only share a descriptor if they map to the same semantic type.
func TestDescriptorsAreUnambiguous(t *testing.T) {
	seen := make(map[string]model.SemanticType)
	ignoreNative := func(st model.SemanticType) model.SemanticType {
		st.Native = ""
		return st
	}

	for engine, table := range engineTypes {
		for native := range table {
			for _, declared := range []string{native, native + "(10)", native + "(10,2)", native + " unsigned"} {
				st := MapType(engine, extractor.ColumnRow{DataType: native, ColumnType: declared})
				desc := st.Describe()
				if prev, ok := seen[desc]; ok {
					if diff := cmp.Diff(ignoreNative(prev), ignoreNative(st)); diff != "" {
						t.Errorf("descriptor %q is shared by distinct types (-first +%s/%s):\n%s", desc, engine, declared, diff)
					}
					continue
				}
				seen[desc] = st
			}
		}
	}
}

// equivalentTypes lists native names per engine that are synonyms of one another.
// Any other pair of natives must map to different semantic types.
var equivalentTypes = map[string][][]string{
	"mysql": {
		{"int", "integer"},
		{"decimal", "numeric", "dec", "fixed"},
		{"double", "real", "double precision"},
		{"bool", "boolean"},
	},
	"sqlite": {
		{"integer", "int", "unsigned big int", "int8", "bigint"},
		{"smallint", "int2"},
		{"real", "double", "double precision", "float"},
		{"numeric", "decimal"},
		{"text", "clob"},
		{"varchar", "character varying", "varying character", "nvarchar"},
		{"char", "character", "nchar", "native character"},
		{"boolean", "bool"},
		{"datetime", "timestamp"},
	},
	"mssql":  {{"decimal", "numeric"}},
	"oracle": {{"varchar2", "varchar"}},
}

func equivalent(engine, a, b string) bool {
	for _, group := range equivalentTypes[engine] {
		if contains(group, a) && contains(group, b) {
			return true
		}
	}
	return false
}

func TestDistinctNativesStayDistinct(t *testing.T) {
	for engine, table := range engineTypes {
		natives := make([]string, 0, len(table))
		for native := range table {
			natives = append(natives, native)
		}
		sort.Strings(natives)

		mapped := make(map[string]model.SemanticType, len(natives))
		for _, native := range natives {
			st := MapType(engine, extractor.ColumnRow{DataType: native, ColumnType: native, Length: nullInt(10)})
			st.Native = ""
			mapped[native] = st
		}

		for i, a := range natives {
			for _, b := range natives[i+1:] {
				same := cmp.Equal(mapped[a], mapped[b])
				if same && !equivalent(engine, a, b) {
					t.Errorf("%s: %q and %q both map to %s", engine, a, b, mapped[a].Describe())
				}
				if !same && equivalent(engine, a, b) {
					t.Errorf("%s: synonyms %q and %q map to %s and %s", engine, a, b, mapped[a].Describe(), mapped[b].Describe())
				}
			}
		}
	}
}

func TestGroupConstraintsSeparatesKindsSharingAName(t *testing.T) {
	rows := []extractor.ConstraintRow{
		{Name: "fk_owner", Kind: extractor.KindForeignKey, Column: "owner_id", Position: 1,
			RefSchema: "app", RefTable: "users", RefColumn: "id"},
		{Name: "fk_owner", Kind: extractor.KindUnique, Column: "owner_id", Position: 1},
	}

	want := []model.Constraint{
		{Name: "fk_owner", Kind: model.ConstraintForeignKey, Columns: []string{"owner_id"},
			Reference: &model.Reference{Schema: "app", Table: "users", Columns: []string{"id"}}},
		{Name: "fk_owner", Kind: model.ConstraintUnique, Columns: []string{"owner_id"}},
	}
	if diff := cmp.Diff(want, groupConstraints(rows)); diff != "" {
		t.Errorf("groupConstraints mismatch (-want +got):\n%s", diff)
	}
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		in   string
		want []int
	}{
		{"numeric(10,2)", []int{10, 2}},
		{"character varying(255)", []int{255}},
		{"timestamp(3) with time zone", []int{3}},
		{"varchar(max)", nil},
		{"enum('a','b')", nil},
		{"text", nil},
	}

	for _, tc := range testCases {
		if diff := cmp.Diff(tc.want, parseArgs(tc.in)); diff != "" {
			t.Errorf("parseArgs(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestNormalizeOrdering(t *testing.T) {
	raw := extractor.RawCatalog{
		Source: "crm",
		Engine: "postgres",
		Schemas: []extractor.RawSchema{
			{Name: "sales", Tables: []extractor.RawTable{
				{TableRow: extractor.TableRow{Name: "orders", Kind: model.TableKindTable},
					Columns: []extractor.ColumnRow{
						{Name: "total", Position: 3, DataType: "numeric", ColumnType: "numeric(10,2)", Nullable: true},
						{Name: "id", Position: 1, DataType: "int4", ColumnType: "integer"},
						{Name: "customer_id", Position: 2, DataType: "int4", ColumnType: "integer"},
					},
					Constraints: []extractor.ConstraintRow{
						{Name: "orders_pkey", Kind: extractor.KindPrimaryKey, Column: "id", Position: 1},
						{Name: "orders_customer_fk", Kind: extractor.KindForeignKey, Column: "customer_id", Position: 1,
							RefSchema: "public", RefTable: "customers", RefColumn: "id"},
					},
				},
				{TableRow: extractor.TableRow{Name: "customers", Kind: model.TableKindTable}},
			}},
			{Name: "public"},
		},
	}

	catalog := Normalize(raw)

	if got := []string{catalog.Schemas[0].Name, catalog.Schemas[1].Name}; got[0] != "public" || got[1] != "sales" {
		t.Fatalf("schemas not sorted: %v", got)
	}

	sales := catalog.Schemas[1]
	if sales.Tables[0].Name != "customers" || sales.Tables[1].Name != "orders" {
		t.Fatalf("tables not sorted: %s, %s", sales.Tables[0].Name, sales.Tables[1].Name)
	}

	orders := sales.Tables[1]
	var names []string
	for _, c := range orders.Columns {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"id", "customer_id", "total"}, names); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}

	want := []model.Constraint{
		{Name: "orders_customer_fk", Kind: model.ConstraintForeignKey, Columns: []string{"customer_id"},
			Reference: &model.Reference{Schema: "public", Table: "customers", Columns: []string{"id"}}},
		{Name: "orders_pkey", Kind: model.ConstraintPrimaryKey, Columns: []string{"id"}},
	}
	if diff := cmp.Diff(want, orders.Constraints); diff != "" {
		t.Errorf("constraints mismatch (-want +got):\n%s", diff)
	}

	if err := catalog.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestGroupConstraintsOrdersColumnsByPosition(t *testing.T) {
	rows := []extractor.ConstraintRow{
		{Name: "pk", Kind: extractor.KindPrimaryKey, Column: "b", Position: 2},
		{Name: "pk", Kind: extractor.KindPrimaryKey, Column: "a", Position: 1},
		{Name: "chk", Kind: extractor.KindCheck, Expression: "CHECK (a > 0)"},
		{Name: "odd", Kind: "x", Column: "a"},
	}

	got := groupConstraints(rows)
	want := []model.Constraint{
		{Name: "chk", Kind: model.ConstraintCheck, Expression: "CHECK (a > 0)"},
		{Name: "pk", Kind: model.ConstraintPrimaryKey, Columns: []string{"a", "b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groupConstraints mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupIndexes(t *testing.T) {
	rows := []extractor.IndexRow{
		{Name: "users_pkey", Unique: true, Primary: true, Position: 1, Column: "id"},
		{Name: "users_lower_email", Unique: true, Position: 1, Expression: "lower(email)", Predicate: "deleted_at IS NULL"},
		{Name: "users_name", Position: 2, Column: "first_name"},
		{Name: "users_name", Position: 1, Column: "last_name"},
	}

	want := []model.Index{
		{Name: "users_lower_email", Columns: []string{}, Unique: true, Expression: "lower(email) WHERE deleted_at IS NULL"},
		{Name: "users_name", Columns: []string{"last_name", "first_name"}},
		{Name: "users_pkey", Columns: []string{"id"}, Unique: true, Primary: true},
	}
	if diff := cmp.Diff(want, groupIndexes(rows)); diff != "" {
		t.Errorf("groupIndexes mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeKeepsIncompleteMarkers(t *testing.T) {
	raw := extractor.RawCatalog{
		Source: "app",
		Engine: "sqlite",
		Schemas: []extractor.RawSchema{
			{Name: "main", Issues: []string{"tables: boom"}},
			{Name: "aux", Tables: []extractor.RawTable{
				{TableRow: extractor.TableRow{Name: "t"}, Issues: []string{"indexes: boom"},
					Columns: []extractor.ColumnRow{{Name: "shape", Position: 1, DataType: "geometry", ColumnType: "GEOMETRY"}}},
			}},
		},
	}

	catalog := Normalize(raw)
	if !catalog.Incomplete() {
		t.Fatal("expected catalog to be incomplete")
	}

	aux, _ := catalog.Schema("aux")
	tbl, ok := aux.Table("t")
	if !ok {
		t.Fatal("table t missing")
	}
	if !tbl.Incomplete || tbl.Kind != model.TableKindTable {
		t.Errorf("table t: incomplete=%v kind=%q", tbl.Incomplete, tbl.Kind)
	}

	mainSchema, _ := catalog.Schema("main")
	if !mainSchema.Incomplete {
		t.Error("schema main should be incomplete")
	}

	if diff := cmp.Diff([]string{"aux.t.shape: GEOMETRY"}, UnknownTypes(catalog)); diff != "" {
		t.Errorf("UnknownTypes mismatch (-want +got):\n%s", diff)
	}
}
