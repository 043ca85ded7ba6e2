package dialect

import "strings"

// OracleDialect reads the USER_* views of the connected user. The schema
// argument is bound but only checked for presence.
type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL ORDER BY TABLE_NAME`
}

func (d *OracleDialect) ColumnsQuery() string {
	return `
SELECT
    t.TABLE_NAME,
    t.COLUMN_NAME,
    CASE
        WHEN t.DATA_TYPE = 'NUMBER' AND COALESCE(t.DATA_SCALE, 0) > 0 THEN 'DECIMAL'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION IS NULL THEN 'DECIMAL'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION > 9 THEN 'BIGINT'
        WHEN t.DATA_TYPE = 'NUMBER' THEN 'INTEGER'
        ELSE t.DATA_TYPE
    END,
    CASE WHEN t.CHAR_LENGTH > 0 THEN t.CHAR_LENGTH ELSE NULL END,
    CASE WHEN t.NULLABLE = 'Y' THEN 'YES' ELSE 'NO' END,
    CASE WHEN p.CONSTRAINT_NAME IS NOT NULL THEN 'PRI' ELSE '' END,
    CASE WHEN t.IDENTITY_COLUMN = 'YES' THEN 'auto_increment' ELSE '' END,
    t.COLUMN_ID
FROM USER_TAB_COLUMNS t
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME, cc.CONSTRAINT_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'P'
) p ON t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
WHERE :1 IS NOT NULL
ORDER BY t.TABLE_NAME, t.COLUMN_ID`
}

func (d *OracleDialect) ForeignKeysQuery() string {
	return `
SELECT
    c.TABLE_NAME,
    c.CONSTRAINT_NAME,
    cc.COLUMN_NAME,
    r.TABLE_NAME AS REF_TABLE,
    rcc.COLUMN_NAME AS REF_COLUMN
FROM USER_CONSTRAINTS c
JOIN USER_CONS_COLUMNS cc
    ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
    AND c.OWNER = cc.OWNER
JOIN USER_CONSTRAINTS r
    ON c.R_CONSTRAINT_NAME = r.CONSTRAINT_NAME
    AND c.R_OWNER = r.OWNER
JOIN USER_CONS_COLUMNS rcc
    ON r.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME
    AND r.OWNER = rcc.OWNER
    AND cc.POSITION = rcc.POSITION
WHERE c.CONSTRAINT_TYPE = 'R'
AND :1 IS NOT NULL`
}

// IndexesQuery skips indexes backing a primary key constraint.
func (d *OracleDialect) IndexesQuery() string {
	return `
SELECT
    ic.TABLE_NAME,
    ic.INDEX_NAME,
    ic.COLUMN_NAME,
    ic.COLUMN_POSITION,
    CASE WHEN ic.DESCEND = 'DESC' THEN 'YES' ELSE 'NO' END,
    CASE WHEN i.UNIQUENESS = 'UNIQUE' THEN 'YES' ELSE 'NO' END
FROM USER_IND_COLUMNS ic
JOIN USER_INDEXES i ON i.INDEX_NAME = ic.INDEX_NAME
WHERE :1 IS NOT NULL
AND NOT EXISTS (
    SELECT 1 FROM USER_CONSTRAINTS uc
    WHERE uc.INDEX_NAME = i.INDEX_NAME AND uc.CONSTRAINT_TYPE = 'P'
)
ORDER BY ic.TABLE_NAME, ic.INDEX_NAME, ic.COLUMN_POSITION`
}

func (d *OracleDialect) NormalizeType(sqlType string) string {
	s := baseNormalize(sqlType)
	switch {
	case s == "integer" || s == "bigint" || s == "decimal" || s == "date" || s == "float":
		return s
	case s == "clob" || s == "nclob" || s == "long":
		return "text"
	case s == "char" || s == "nchar":
		return "char"
	case strings.Contains(s, "char"):
		return "varchar"
	case s == "blob" || s == "raw" || s == "long raw":
		return "blob"
	case s == "binary_float":
		return "float"
	case s == "binary_double":
		return "double"
	case strings.HasPrefix(s, "timestamp"):
		return "timestamp"
	}
	return s
}

func (d *OracleDialect) SchemaName(input string) string {
	return DefaultSchemaName(input)
}

func (d *OracleDialect) MaxLengthMarker() int64 { return 0 }
