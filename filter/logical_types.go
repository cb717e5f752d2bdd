package filter

import "strings"

// LogicalTypeID identifies a DuckDB column type by name.
type LogicalTypeID string

const (
	TypeIDBoolean     LogicalTypeID = "BOOLEAN"
	TypeIDTinyInt     LogicalTypeID = "TINYINT"
	TypeIDSmallInt    LogicalTypeID = "SMALLINT"
	TypeIDInteger     LogicalTypeID = "INTEGER"
	TypeIDBigInt      LogicalTypeID = "BIGINT"
	TypeIDHugeInt     LogicalTypeID = "HUGEINT"
	TypeIDUTinyInt    LogicalTypeID = "UTINYINT"
	TypeIDUSmallInt   LogicalTypeID = "USMALLINT"
	TypeIDUInteger    LogicalTypeID = "UINTEGER"
	TypeIDUBigInt     LogicalTypeID = "UBIGINT"
	TypeIDFloat       LogicalTypeID = "FLOAT"
	TypeIDDouble      LogicalTypeID = "DOUBLE"
	TypeIDDecimal     LogicalTypeID = "DECIMAL"
	TypeIDDate        LogicalTypeID = "DATE"
	TypeIDTimestamp   LogicalTypeID = "TIMESTAMP"
	TypeIDTimestampTZ LogicalTypeID = "TIMESTAMP_TZ"
	TypeIDTimestampMs LogicalTypeID = "TIMESTAMP_MS"
	TypeIDTimestampNs LogicalTypeID = "TIMESTAMP_NS"
	TypeIDTimestampS  LogicalTypeID = "TIMESTAMP_S"
	TypeIDVarchar     LogicalTypeID = "VARCHAR"
	TypeIDUUID        LogicalTypeID = "UUID"
	TypeIDEnum        LogicalTypeID = "ENUM"
)

// typeIDMapping maps DuckDB aliases and full SQL names to canonical IDs.
var typeIDMapping = map[LogicalTypeID]LogicalTypeID{
	"TIMESTAMP WITH TIME ZONE":    TypeIDTimestampTZ,
	"TIMESTAMPTZ":                 TypeIDTimestampTZ,
	"TIMESTAMP WITHOUT TIME ZONE": TypeIDTimestamp,
	"DATETIME":                    TypeIDTimestamp,
	"TIMESTAMP_SEC":               TypeIDTimestampS,
	"INT":                         TypeIDInteger,
	"INT4":                        TypeIDInteger,
	"INT8":                        TypeIDBigInt,
	"INT2":                        TypeIDSmallInt,
	"INT1":                        TypeIDTinyInt,
	"LONG":                        TypeIDBigInt,
	"INT128":                      TypeIDHugeInt,
	"UINT8":                       TypeIDUBigInt,
	"UINT4":                       TypeIDUInteger,
	"UINT2":                       TypeIDUSmallInt,
	"UINT1":                       TypeIDUTinyInt,
	"FLOAT4":                      TypeIDFloat,
	"REAL":                        TypeIDFloat,
	"FLOAT8":                      TypeIDDouble,
	"NUMERIC":                     TypeIDDecimal,
	"STRING":                      TypeIDVarchar,
	"TEXT":                        TypeIDVarchar,
	"CHAR":                        TypeIDVarchar,
	"BPCHAR":                      TypeIDVarchar,
	"BOOL":                        TypeIDBoolean,
}

// Normalize returns the canonical LogicalTypeID.
// Case and parameter lists ("DECIMAL(18,3)", "VARCHAR(64)") are ignored.
func (t LogicalTypeID) Normalize() LogicalTypeID {
	s := strings.ToUpper(strings.TrimSpace(string(t)))
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	id := LogicalTypeID(s)
	if mapped, ok := typeIDMapping[id]; ok {
		return mapped
	}
	return id
}

// PropertyType maps a column type to the declared property type.
// Returns false for types that cannot back a searchable property
// (BLOB, LIST, STRUCT, ...).
func (t LogicalTypeID) PropertyType() (PropertyType, bool) {
	switch t.Normalize() {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt, TypeIDHugeInt,
		TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt,
		TypeIDFloat, TypeIDDouble, TypeIDDecimal:
		return TypeNumber, true
	case TypeIDDate, TypeIDTimestamp, TypeIDTimestampTZ,
		TypeIDTimestampMs, TypeIDTimestampNs, TypeIDTimestampS:
		return TypeTimestamp, true
	case TypeIDVarchar, TypeIDUUID, TypeIDEnum, TypeIDBoolean:
		return TypeText, true
	}
	return 0, false
}

// ColumnType returns the DuckDB column type used to store a property type.
func ColumnType(t PropertyType) LogicalTypeID {
	switch t {
	case TypeNumber:
		return TypeIDDouble
	case TypeTimestamp:
		return TypeIDTimestamp
	default:
		return TypeIDVarchar
	}
}
