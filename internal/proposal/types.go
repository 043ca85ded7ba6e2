package proposal

import (
	"schema-mapper/internal/mapping"
	"schema-mapper/internal/schema"
	"schema-mapper/internal/typepolicy"
)

// target names the Spanner type for a source type family, per dialect.
type target struct {
	googleSQL  string
	postgreSQL string
	// sized types carry the source length over
	sized bool
}

var typeMap = map[string]target{
	"boolean":   {"BOOL", "BOOL", false},
	"tinyint":   {"INT64", "INT8", false},
	"smallint":  {"INT64", "INT8", false},
	"int":       {"INT64", "INT8", false},
	"integer":   {"INT64", "INT8", false},
	"bigint":    {"INT64", "INT8", false},
	"year":      {"INT64", "INT8", false},
	"float":     {"FLOAT32", "FLOAT4", false},
	"double":    {"FLOAT64", "FLOAT8", false},
	"decimal":   {"NUMERIC", "NUMERIC", false},
	"char":      {"STRING", "VARCHAR", true},
	"varchar":   {"STRING", "VARCHAR", true},
	"text":      {"STRING", "VARCHAR", false},
	"uuid":      {"STRING", "VARCHAR", false},
	"blob":      {"BYTES", "BYTEA", true},
	"date":      {"DATE", "DATE", false},
	"datetime":  {"TIMESTAMP", "TIMESTAMPTZ", false},
	"timestamp": {"TIMESTAMP", "TIMESTAMPTZ", false},
	"json":      {"JSON", "JSONB", false},
}

// uuidLength is the textual length of a uuid.
const uuidLength = 36

// spannerType picks the target type and length for a source column. ok is
// false when the type family is unknown and the STRING fallback was used.
func spannerType(dialect string, col *schema.Column) (string, mapping.Length, bool) {
	t, ok := typeMap[col.DataType]
	if !ok {
		if dialect == typepolicy.PostgreSQL {
			return "VARCHAR", mapping.MaxLength(), false
		}
		return "STRING", mapping.MaxLength(), false
	}
	name := t.googleSQL
	if dialect == typepolicy.PostgreSQL {
		name = t.postgreSQL
	}

	length := mapping.NoLength()
	switch {
	case col.DataType == "uuid":
		length = mapping.LengthOf(uuidLength)
	case t.sized && !col.MaxLength && col.Length > 0:
		length = mapping.LengthOf(col.Length)
	}
	return name, length, true
}

func sourceLength(col *schema.Column) mapping.Length {
	switch {
	case col.MaxLength:
		return mapping.MaxLength()
	case col.Length > 0:
		return mapping.LengthOf(col.Length)
	}
	return mapping.NoLength()
}
