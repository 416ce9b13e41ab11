package normalizer

import (
	"strconv"
	"strings"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

// typeRule maps one native type, given the raw column and the numeric arguments
// parsed from its declaration, to a semantic type
type typeRule func(col extractor.ColumnRow, args []int) model.SemanticType

type typeTable map[string]typeRule

// alias registers the same rule under several native names
func (t typeTable) alias(rule typeRule, names ...string) typeTable {
	for _, name := range names {
		t[name] = rule
	}
	return t
}

var engineTypes = map[string]typeTable{
	"postgres": postgresTypes(),
	"mysql":    mysqlTypes(),
	"sqlite":   sqliteTypes(),
	"mssql":    mssqlTypes(),
	"oracle":   oracleTypes(),
}

// MapType converts a raw column type into the semantic type set. Types the
// engine's table does not cover map to Unknown with the native text preserved.
func MapType(engine string, col extractor.ColumnRow) model.SemanticType {
	native := col.ColumnType
	if native == "" {
		native = col.DataType
	}

	table, ok := engineTypes[engine]
	if !ok {
		return model.Unknown(native)
	}

	rule, ok := table[strings.ToLower(strings.TrimSpace(col.DataType))]
	if !ok {
		return model.Unknown(native)
	}

	t := rule(col, parseArgs(col.ColumnType))
	t.Native = native
	return t
}

func postgresTypes() typeTable {
	return typeTable{
		"int2":        integer(16),
		"int4":        integer(32),
		"int8":        integer(64),
		"numeric":     decimal(""),
		"money":       fixedDecimal(19, 2, "money"),
		"float4":      float(32),
		"float8":      float(64),
		"varchar":     text(false, ""),
		"bpchar":      text(true, ""),
		"text":        unbounded(model.KindText, ""),
		"citext":      unbounded(model.KindText, "citext"),
		"xml":         unbounded(model.KindText, "xml"),
		"bool":        simple(model.KindBoolean, ""),
		"date":        simple(model.KindDate, ""),
		"time":        temporal(model.KindTime, false),
		"timetz":      temporal(model.KindTime, true),
		"timestamp":   temporal(model.KindTimestamp, false),
		"timestamptz": temporal(model.KindTimestamp, true),
		"interval":    simple(model.KindInterval, ""),
		"bytea":       unbounded(model.KindBinary, ""),
		"uuid":        simple(model.KindUUID, ""),
		"json":        simple(model.KindJSON, ""),
		"jsonb":       simple(model.KindJSON, "jsonb"),
	}
}

func mysqlTypes() typeTable {
	return typeTable{
		"tinyint":    mysqlTinyint,
		"smallint":   mysqlInteger(16),
		"mediumint":  mysqlInteger(24),
		"year":       withVariant(integer(16), "year"),
		"bigint":     mysqlInteger(64),
		"float":      float(32),
		"char":       text(true, ""),
		"varchar":    text(false, ""),
		"enum":       unbounded(model.KindText, "enum"),
		"set":        unbounded(model.KindText, "set"),
		"date":       simple(model.KindDate, ""),
		"time":       temporal(model.KindTime, false),
		"datetime":   temporal(model.KindTimestamp, false),
		"timestamp":  temporal(model.KindTimestamp, true),
		"binary":     binary(true, ""),
		"varbinary":  binary(false, ""),
		"bit":        bitString,
		"json":       simple(model.KindJSON, ""),
		"tinytext":   unbounded(model.KindText, "tiny"),
		"text":       unbounded(model.KindText, ""),
		"mediumtext": unbounded(model.KindText, "medium"),
		"longtext":   unbounded(model.KindText, "long"),
		"tinyblob":   unbounded(model.KindBinary, "tiny"),
		"blob":       unbounded(model.KindBinary, ""),
		"mediumblob": unbounded(model.KindBinary, "medium"),
		"longblob":   unbounded(model.KindBinary, "long"),
	}.
		alias(mysqlInteger(32), "int", "integer").
		alias(decimal(""), "decimal", "numeric", "dec", "fixed").
		alias(float(64), "double", "real", "double precision").
		alias(simple(model.KindBoolean, ""), "bool", "boolean")
}

// sqliteTypes lists declared type names as they appear in CREATE TABLE. SQLite
// stores every integer as 64-bit, so integer widths follow the declaration only
// where the name states one.
func sqliteTypes() typeTable {
	return typeTable{
		"tinyint":   integer(8),
		"smallint":  integer(16),
		"int2":      integer(16),
		"mediumint": integer(24),
		"int8":      integer(64),
		"bigint":    integer(64),
		"blob":      unbounded(model.KindBinary, ""),
		"date":      simple(model.KindDate, ""),
		"time":      temporal(model.KindTime, false),
		"uuid":      simple(model.KindUUID, ""),
		"json":      simple(model.KindJSON, ""),
	}.
		alias(integer(64), "integer", "int", "unsigned big int").
		alias(float(64), "real", "double", "double precision", "float").
		alias(decimal(""), "numeric", "decimal").
		alias(unbounded(model.KindText, ""), "text", "clob").
		alias(text(false, ""), "varchar", "character varying", "varying character", "nvarchar").
		alias(text(true, ""), "char", "character", "nchar", "native character").
		alias(simple(model.KindBoolean, ""), "boolean", "bool").
		alias(temporal(model.KindTimestamp, false), "datetime", "timestamp")
}

// mssqlTypes marks the n-prefixed Unicode types as national and the deprecated
// LOB and date types as legacy; neither is interchangeable with its modern peer.
func mssqlTypes() typeTable {
	return typeTable{
		"tinyint":          unsignedInteger(8),
		"smallint":         integer(16),
		"int":              integer(32),
		"bigint":           integer(64),
		"bit":              simple(model.KindBoolean, ""),
		"money":            fixedDecimal(19, 4, "money"),
		"smallmoney":       fixedDecimal(10, 4, "money"),
		"real":             float(32),
		"float":            float(64),
		"char":             text(true, ""),
		"nchar":            text(true, "national"),
		"varchar":          text(false, ""),
		"nvarchar":         text(false, "national"),
		"text":             unbounded(model.KindText, "legacy"),
		"ntext":            unbounded(model.KindText, "national legacy"),
		"xml":              unbounded(model.KindText, "xml"),
		"date":             simple(model.KindDate, ""),
		"time":             temporal(model.KindTime, false),
		"datetime":         withVariant(fixedTemporal(model.KindTimestamp, 3), "legacy"),
		"smalldatetime":    withVariant(fixedTemporal(model.KindTimestamp, 0), "small"),
		"datetime2":        temporal(model.KindTimestamp, false),
		"datetimeoffset":   temporal(model.KindTimestamp, true),
		"binary":           binary(true, ""),
		"varbinary":        binary(false, ""),
		"image":            unbounded(model.KindBinary, "legacy"),
		"uniqueidentifier": simple(model.KindUUID, ""),
	}.
		alias(decimal(""), "decimal", "numeric")
}

func oracleTypes() typeTable {
	return typeTable{
		"number":                         decimal(""),
		"binary_float":                   float(32),
		"binary_double":                  float(64),
		"float":                          withVariant(float(64), "number"),
		"date":                           withVariant(fixedTemporal(model.KindTimestamp, 0), "date"),
		"timestamp":                      temporal(model.KindTimestamp, false),
		"timestamp with time zone":       temporal(model.KindTimestamp, true),
		"timestamp with local time zone": withVariant(temporal(model.KindTimestamp, true), "local"),
		"interval year to month":         simple(model.KindInterval, "year_to_month"),
		"interval day to second":         simple(model.KindInterval, "day_to_second"),
		"raw":                            binary(false, ""),
		"xmltype":                        unbounded(model.KindText, "xml"),
		"json":                           simple(model.KindJSON, ""),
		"nvarchar2":                      text(false, "national"),
		"char":                           text(true, ""),
		"nchar":                          text(true, "national"),
		"clob":                           unbounded(model.KindText, ""),
		"nclob":                          unbounded(model.KindText, "national"),
		"long":                           unbounded(model.KindText, "long"),
		"blob":                           unbounded(model.KindBinary, ""),
		"long raw":                       unbounded(model.KindBinary, "long"),
	}.
		alias(text(false, ""), "varchar2", "varchar")
}

func simple(kind model.TypeKind, variant string) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: kind, Variant: variant}
	}
}

func withVariant(rule typeRule, variant string) typeRule {
	return func(col extractor.ColumnRow, args []int) model.SemanticType {
		t := rule(col, args)
		t.Variant = variant
		return t
	}
}

func integer(bits int) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: model.KindInteger, Bits: bits}
	}
}

func unsignedInteger(bits int) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: model.KindInteger, Bits: bits, Unsigned: true}
	}
}

// mysqlInteger reads the unsigned attribute from COLUMN_TYPE ("int(10) unsigned")
func mysqlInteger(bits int) typeRule {
	return func(col extractor.ColumnRow, _ []int) model.SemanticType {
		return model.SemanticType{
			Kind:     model.KindInteger,
			Bits:     bits,
			Unsigned: strings.Contains(strings.ToLower(col.ColumnType), "unsigned"),
		}
	}
}

// mysqlTinyint maps tinyint(1), the BOOL alias, to boolean
func mysqlTinyint(col extractor.ColumnRow, args []int) model.SemanticType {
	if len(args) == 1 && args[0] == 1 && !strings.Contains(strings.ToLower(col.ColumnType), "unsigned") {
		return model.SemanticType{Kind: model.KindBoolean}
	}
	return mysqlInteger(8)(col, args)
}

func bitString(col extractor.ColumnRow, args []int) model.SemanticType {
	t := binary(true, "bit")(col, args)
	if col.Precision.Valid {
		t.Length = int(col.Precision.Int64)
	}
	return t
}

func float(bits int) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: model.KindFloat, Bits: bits}
	}
}

// decimal prefers the catalog's numeric precision and scale, then the declaration's arguments
func decimal(variant string) typeRule {
	return func(col extractor.ColumnRow, args []int) model.SemanticType {
		t := model.SemanticType{Kind: model.KindDecimal, Variant: variant}
		switch {
		case col.Precision.Valid:
			t.Precision = int(col.Precision.Int64)
			t.Scale = int(col.Scale.Int64)
		case len(args) > 0:
			t.Precision = args[0]
			if len(args) > 1 {
				t.Scale = args[1]
			}
		}
		return t
	}
}

func fixedDecimal(precision, scale int, variant string) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: model.KindDecimal, Precision: precision, Scale: scale, Variant: variant}
	}
}

func text(fixed bool, variant string) typeRule {
	return func(col extractor.ColumnRow, args []int) model.SemanticType {
		return model.SemanticType{Kind: model.KindText, Length: length(col, args), Fixed: fixed, Variant: variant}
	}
}

func binary(fixed bool, variant string) typeRule {
	return func(col extractor.ColumnRow, args []int) model.SemanticType {
		return model.SemanticType{Kind: model.KindBinary, Length: length(col, args), Fixed: fixed, Variant: variant}
	}
}

func unbounded(kind model.TypeKind, variant string) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: kind, Variant: variant}
	}
}

// temporal reads fractional-second precision from the declaration, then from the catalog scale
func temporal(kind model.TypeKind, tz bool) typeRule {
	return func(col extractor.ColumnRow, args []int) model.SemanticType {
		t := model.SemanticType{Kind: kind, TimeZone: tz}
		switch {
		case len(args) > 0:
			t.Precision = args[0]
		case col.Scale.Valid:
			t.Precision = int(col.Scale.Int64)
		}
		return t
	}
}

func fixedTemporal(kind model.TypeKind, precision int) typeRule {
	return func(extractor.ColumnRow, []int) model.SemanticType {
		return model.SemanticType{Kind: kind, Precision: precision}
	}
}

func length(col extractor.ColumnRow, args []int) int {
	if col.Length.Valid && col.Length.Int64 > 0 {
		return int(col.Length.Int64)
	}
	if len(args) > 0 {
		return args[0]
	}
	return 0
}

// parseArgs extracts the integer arguments of the first parenthesized group:
// "numeric(10,2)" -> [10 2]. Non-numeric arguments such as enum labels or
// "max" yield nil.
func parseArgs(declared string) []int {
	open := strings.IndexByte(declared, '(')
	if open < 0 {
		return nil
	}
	closing := strings.IndexByte(declared[open:], ')')
	if closing < 0 {
		return nil
	}

	parts := strings.Split(declared[open+1:open+closing], ",")
	args := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		args = append(args, n)
	}
	return args
}
