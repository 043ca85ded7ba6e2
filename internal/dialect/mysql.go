package dialect

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE, COLUMN_KEY, EXTRA, ORDINAL_POSITION FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (d *MysqlDialect) ForeignKeysQuery() string {
	return `SELECT TABLE_NAME, CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL`
}

func (d *MysqlDialect) IndexesQuery() string {
	return `SELECT TABLE_NAME, INDEX_NAME, COLUMN_NAME, SEQ_IN_INDEX, IF(COLLATION = 'D', 'YES', 'NO'), IF(NON_UNIQUE = 0, 'YES', 'NO') FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ? AND INDEX_NAME <> 'PRIMARY' AND COLUMN_NAME IS NOT NULL ORDER BY TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX`
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	t := baseNormalize(sqlType)
	switch t {
	case "integer", "mediumint":
		return "int"
	case "tinytext", "mediumtext", "longtext":
		return "text"
	case "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return "blob"
	case "bool", "bit":
		return "boolean"
	case "numeric":
		return "decimal"
	case "real":
		return "double"
	case "enum", "set":
		return "varchar"
	default:
		return t
	}
}

func (d *MysqlDialect) SchemaName(input string) string {
	return DefaultSchemaName(input)
}

func (d *MysqlDialect) MaxLengthMarker() int64 { return 0 }
