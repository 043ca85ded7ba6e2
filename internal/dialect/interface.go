package dialect

// Dialect abstracts the metadata queries and type names of a source database.
//
// Every query takes the schema name as its only bind argument.
type Dialect interface {
	Name() string

	// TablesQuery returns TABLE_NAME rows for base tables.
	TablesQuery() string
	// ColumnsQuery returns TABLE_NAME, COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH,
	// IS_NULLABLE, COLUMN_KEY, EXTRA, ORDINAL_POSITION.
	ColumnsQuery() string
	// ForeignKeysQuery returns TABLE_NAME, CONSTRAINT_NAME, COLUMN_NAME,
	// REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME.
	ForeignKeysQuery() string
	// IndexesQuery returns TABLE_NAME, INDEX_NAME, COLUMN_NAME, SEQ,
	// IS_DESC ('YES'/'NO'), IS_UNIQUE ('YES'/'NO') for secondary indexes,
	// ordered by table, index and SEQ.
	IndexesQuery() string

	// NormalizeType maps a native type name onto the lowercase family
	// names used by the proposal step (int, bigint, varchar, text, ...).
	NormalizeType(sqlType string) string
	SchemaName(input string) string
	// MaxLengthMarker is the CHARACTER_MAXIMUM_LENGTH value that stands
	// for an unbounded column, or 0 when the database has none.
	MaxLengthMarker() int64
}
