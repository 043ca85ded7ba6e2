package dialect

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`
}

// ColumnsQuery reports udt_name as the data type; it carries int4/int8
// style names where data_type only says "integer" or "ARRAY".
func (d *PostgresDialect) ColumnsQuery() string {
	return `SELECT
    c.table_name,
    c.column_name,
    c.udt_name,
    c.character_maximum_length,
    c.is_nullable,
    (SELECT 'PRI' FROM information_schema.table_constraints tc
     JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
     WHERE tc.constraint_type = 'PRIMARY KEY'
     AND kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name LIMIT 1) AS column_key,
    c.column_default,
    c.ordinal_position
FROM information_schema.columns c
WHERE c.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`
}

func (d *PostgresDialect) ForeignKeysQuery() string {
	return `SELECT kcu.table_name, kcu.constraint_name, kcu.column_name, ccu.table_name AS referenced_table_name, ccu.column_name AS referenced_column_name FROM information_schema.key_column_usage kcu JOIN information_schema.constraint_column_usage ccu ON kcu.constraint_name = ccu.constraint_name JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name WHERE kcu.table_schema = $1 AND tc.constraint_type = 'FOREIGN KEY'`
}

// IndexesQuery reads pg_index directly; information_schema has no index
// views. Bit 0 of indoption marks a DESC key.
func (d *PostgresDialect) IndexesQuery() string {
	return `SELECT t.relname, i.relname, a.attname, k.n,
    CASE WHEN (ix.indoption[k.n - 1] & 1) = 1 THEN 'YES' ELSE 'NO' END,
    CASE WHEN ix.indisunique THEN 'YES' ELSE 'NO' END
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace ns ON ns.oid = t.relnamespace
CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, n)
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE ns.nspname = $1 AND NOT ix.indisprimary
ORDER BY t.relname, i.relname, k.n`
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := baseNormalize(sqlType)
	switch t {
	case "int4", "int2", "integer", "smallint", "serial", "smallserial":
		return "int"
	case "int8", "bigserial":
		return "bigint"
	case "float4", "real":
		return "float"
	case "float8", "double precision":
		return "double"
	case "bpchar", "character":
		return "char"
	case "character varying":
		return "varchar"
	case "bool":
		return "boolean"
	case "numeric":
		return "decimal"
	case "bytea":
		return "blob"
	case "timestamptz", "timestamp with time zone", "timestamp without time zone":
		return "timestamp"
	case "jsonb":
		return "json"
	default:
		return t
	}
}

func (d *PostgresDialect) SchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}

func (d *PostgresDialect) MaxLengthMarker() int64 { return 0 }
