package schema_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-mapper/internal/dialect"
	"schema-mapper/internal/schema"
)

func TestSortTablesByFKCount_ComplexCircular(t *testing.T) {
	// A -> B -> C -> D -> E -> A is a cycle, F -> E, G stands alone.
	tables := []*schema.Table{
		{Name: "A", Dependencies: []string{"B"}},
		{Name: "B", Dependencies: []string{"C"}},
		{Name: "C", Dependencies: []string{"D"}},
		{Name: "D", Dependencies: []string{"E"}},
		{Name: "E", Dependencies: []string{"A"}},
		{Name: "F", Dependencies: []string{"E"}},
		{Name: "G", Dependencies: []string{}},
	}

	sorted := schema.SortTablesByFKCount(tables)
	require.Len(t, sorted, len(tables))

	visited := make(map[string]bool)
	broken := 0
	for _, tbl := range sorted {
		visited[tbl.Name] = true
		if tbl.CycleBroken {
			broken++
		}
	}
	assert.Len(t, visited, len(tables))
	assert.Equal(t, "G", sorted[0].Name)
	assert.Equal(t, 1, broken)

	pos := make(map[string]int, len(sorted))
	for i, tbl := range sorted {
		pos[tbl.Name] = i
	}
	assert.False(t, tables[5].CycleBroken, "F is outside the cycle")
	assert.Less(t, pos["E"], pos["F"], "F follows its dependency")
}

func TestSortTablesByFKCount_TwoWayReference(t *testing.T) {
	tables := []*schema.Table{
		{Name: "Employees", Dependencies: []string{"Departments"}},
		{Name: "Departments", Dependencies: []string{"Employees"}},
		{Name: "Badges", Dependencies: []string{"Employees"}},
	}

	sorted := schema.SortTablesByFKCount(tables)
	require.Len(t, sorted, 3)
	assert.Equal(t, "Badges", sorted[2].Name)
	assert.False(t, sorted[2].CycleBroken)
	assert.True(t, sorted[0].CycleBroken)
	assert.False(t, sorted[1].CycleBroken)
}

func TestSortTablesByFKCount_SelfAndOutsideReferences(t *testing.T) {
	tables := []*schema.Table{
		{Name: "Categories", Dependencies: []string{"Categories"}},
		{Name: "Products", Dependencies: []string{"Categories", "archive_products"}},
	}

	sorted := schema.SortTablesByFKCount(tables)
	require.Len(t, sorted, 2)
	assert.Equal(t, "Categories", sorted[0].Name)
	assert.True(t, sorted[0].CycleBroken)
	assert.Equal(t, "Products", sorted[1].Name)
	assert.False(t, sorted[1].CycleBroken)
}

func TestSortTablesByFKCount_Simple(t *testing.T) {
	tables := []*schema.Table{
		{Name: "OrderItems", Dependencies: []string{"Orders"}},
		{Name: "Orders", Dependencies: []string{"Users"}},
		{Name: "Users", Dependencies: []string{}},
	}

	sorted := schema.SortTablesByFKCount(tables)

	require.Len(t, sorted, 3)
	assert.Equal(t, "Users", sorted[0].Name)
	assert.Equal(t, "Orders", sorted[1].Name)
	assert.Equal(t, "OrderItems", sorted[2].Name)
	for _, tbl := range sorted {
		assert.False(t, tbl.CycleBroken)
	}
}

func TestAnalyze_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.MysqlDialect{}

	mock.ExpectQuery(d.TablesQuery()).WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("orders").AddRow("users"))

	mock.ExpectQuery(d.ColumnsQuery()).WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME", "DATA_TYPE", "CHARACTER_MAXIMUM_LENGTH", "IS_NULLABLE", "COLUMN_KEY", "EXTRA", "ORDINAL_POSITION"}).
			AddRow("orders", "id", "bigint", nil, "NO", "PRI", "auto_increment", 1).
			AddRow("orders", "user_id", "int", nil, "NO", "MUL", "", 2).
			AddRow("orders", "note", "varchar", "300", "YES", "", "", 3).
			AddRow("users", "email", "varchar", "255", "NO", "", "", 1).
			AddRow("users", "bio", "longtext", "4294967295", "YES", "", "", 2).
			AddRow("ghost", "x", "int", nil, "YES", "", "", 1))

	mock.ExpectQuery(d.ForeignKeysQuery()).WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("orders", "fk_orders_user", "user_id", "users", "id").
			AddRow("orders", "fk_outside", "user_id", "other_schema_table", "id"))

	mock.ExpectQuery(d.IndexesQuery()).WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "INDEX_NAME", "COLUMN_NAME", "SEQ_IN_INDEX", "IS_DESC", "IS_UNIQUE"}).
			AddRow("orders", "idx_user_note", "user_id", 1, "NO", "NO").
			AddRow("orders", "idx_user_note", "note", 2, "YES", "NO").
			AddRow("users", "uq_email", "email", 1, "NO", "YES"))

	tables, err := schema.Analyze(context.Background(), db, d, "shop")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, tables, 2)
	users, orders := tables[0], tables[1]
	assert.Equal(t, "users", users.Name, "referenced table comes first")
	assert.Equal(t, "orders", orders.Name)

	require.Len(t, orders.Columns, 3)
	id := orders.Columns[0]
	assert.True(t, id.IsPK)
	assert.True(t, id.IsAutoInc)
	assert.False(t, id.IsNullable)
	assert.Equal(t, "bigint", id.DataType)
	assert.Equal(t, int64(300), orders.Column("NOTE").Length)
	assert.Equal(t, 3, orders.Column("note").Ordinal)
	assert.Equal(t, "text", users.Column("bio").DataType)

	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "users", orders.ForeignKeys[0].RefTable)
	assert.Equal(t, []string{"users"}, orders.Dependencies)

	require.Len(t, orders.Indexes, 1)
	idx := orders.Indexes[0]
	assert.False(t, idx.Unique)
	assert.Equal(t, []schema.IndexColumn{{Column: "user_id", Seq: 1}, {Column: "note", Seq: 2, Desc: true}}, idx.Columns)
	require.Len(t, users.Indexes, 1)
	assert.True(t, users.Indexes[0].Unique)
	assert.Empty(t, users.PrimaryKey())
}

func TestAnalyze_MSSQLMaxLength(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.MSSQLDialect{}
	mock.ExpectQuery(d.TablesQuery()).WithArgs("dbo").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("Docs"))
	mock.ExpectQuery(d.ColumnsQuery()).WithArgs("dbo").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME", "DATA_TYPE", "CHARACTER_MAXIMUM_LENGTH", "IS_NULLABLE", "COLUMN_KEY", "EXTRA", "ORDINAL_POSITION"}).
			AddRow("Docs", "Id", "int", nil, "NO", "PRIMARY", "identity", 1).
			AddRow("Docs", "Body", "nvarchar", "-1", "YES", "", nil, 2))
	mock.ExpectQuery(d.ForeignKeysQuery()).WithArgs("dbo").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}))
	mock.ExpectQuery(d.IndexesQuery()).WithArgs("dbo").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f"}))

	tables, err := schema.Analyze(context.Background(), db, d, "")
	require.NoError(t, err)
	require.Len(t, tables, 1)

	body := tables[0].Column("Body")
	require.NotNil(t, body)
	assert.True(t, body.MaxLength)
	assert.Zero(t, body.Length)
	assert.Equal(t, "varchar", body.DataType)
	assert.True(t, tables[0].Column("Id").IsPK)
	assert.True(t, tables[0].Column("Id").IsAutoInc)
}

func TestAnalyze_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	d := &dialect.PostgresDialect{}
	mock.ExpectQuery(d.TablesQuery()).WithArgs("public").WillReturnError(assert.AnError)

	_, err = schema.Analyze(context.Background(), db, d, "")
	assert.ErrorIs(t, err, assert.AnError)
}
