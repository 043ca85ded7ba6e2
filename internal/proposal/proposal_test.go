package proposal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-mapper/internal/mapping"
	"schema-mapper/internal/schema"
	"schema-mapper/internal/typepolicy"
)

func singers() *schema.Table {
	return &schema.Table{
		Name: "singers",
		Columns: []*schema.Column{
			{Name: "singer_id", DataType: "bigint", NativeType: "bigint", Ordinal: 1, IsPK: true},
			{Name: "first name", DataType: "varchar", NativeType: "varchar(255)", Ordinal: 2, Length: 255, IsNullable: true},
			{Name: "bio", DataType: "text", NativeType: "longtext", Ordinal: 3, IsNullable: true},
			{Name: "photo", DataType: "blob", NativeType: "varbinary(max)", Ordinal: 4, MaxLength: true, IsNullable: true},
			{Name: "location", DataType: "geometry", NativeType: "geometry", Ordinal: 5, IsNullable: true},
		},
		Indexes: []*schema.Index{
			{Name: "idx_name", Unique: true, Columns: []schema.IndexColumn{
				{Column: "bio", Seq: 2, Desc: true},
				{Column: "first name", Seq: 1},
			}},
		},
	}
}

func TestPropose_Singers(t *testing.T) {
	var seen []string
	p, err := Propose([]*schema.Table{singers()}, Options{OnTable: func(name string) { seen = append(seen, name) }})
	require.NoError(t, err)
	assert.Equal(t, []string{"singers"}, seen)
	require.Len(t, p.Tables, 1)

	tbl := p.Tables[0]
	assert.Equal(t, "t1", tbl.ID)
	assert.Equal(t, typepolicy.GoogleSQL, tbl.Dialect)
	require.NoError(t, tbl.Validate(typepolicy.Default()))

	want := []struct {
		id, name, typ string
		length        mapping.Length
	}{
		{"c1", "singer_id", "INT64", mapping.NoLength()},
		{"c2", "first_name", "STRING", mapping.LengthOf(255)},
		{"c3", "bio", "STRING", mapping.MaxLength()},
		{"c4", "photo", "BYTES", mapping.MaxLength()},
		{"c5", "location", "STRING", mapping.MaxLength()},
	}
	require.Len(t, tbl.Columns, len(want))
	for i, w := range want {
		c := tbl.Columns[i]
		assert.Equal(t, w.id, c.SpID)
		assert.Equal(t, c.SrcID, c.SpID)
		assert.Equal(t, i+1, c.SpOrder)
		assert.Equal(t, w.name, c.SpColName)
		assert.Equal(t, w.typ, c.SpDataType)
		assert.Equal(t, w.length, c.SpColMaxLength, w.name)
	}
	assert.True(t, tbl.Columns[0].SpIsPk)
	assert.True(t, tbl.Columns[0].SpIsNotNull)
	assert.False(t, tbl.Columns[1].SpIsNotNull)

	require.Len(t, tbl.Indexes, 1)
	idx := tbl.Indexes[0]
	assert.Equal(t, "i1", idx.ID)
	assert.True(t, idx.Unique)
	assert.Equal(t, []mapping.IndexColumn{
		{SrcColID: "c2", SpColID: "c2", SrcColName: "first name", SpColName: "first_name", SrcOrder: 1, SpOrder: 1},
		{SrcColID: "c3", SpColID: "c3", SrcColName: "bio", SpColName: "bio", SrcDesc: true, SpDesc: true, SrcOrder: 2, SpOrder: 2},
	}, idx.Columns)

	codes := map[mapping.WarningCode]int{}
	for _, w := range p.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, map[mapping.WarningCode]int{
		mapping.WarnNameChanged:  1,
		mapping.WarnTypeFallback: 1,
	}, codes)
}

func TestPropose_PostgreSQLDialect(t *testing.T) {
	p, err := Propose([]*schema.Table{singers()}, Options{Dialect: typepolicy.PostgreSQL})
	require.NoError(t, err)
	tbl := p.Tables[0]
	require.NoError(t, tbl.Validate(typepolicy.Default()))

	var types []string
	for _, c := range tbl.Columns {
		types = append(types, c.SpDataType)
	}
	assert.Equal(t, []string{"INT8", "VARCHAR", "VARCHAR", "BYTEA", "VARCHAR"}, types)
}

func TestPropose_SyntheticKey(t *testing.T) {
	logs := &schema.Table{
		Name: "logs",
		Columns: []*schema.Column{
			{Name: "message", DataType: "text", NativeType: "text", Ordinal: 1, IsNullable: true},
		},
	}
	p, err := Propose([]*schema.Table{singers(), logs}, Options{})
	require.NoError(t, err)
	require.Len(t, p.Tables, 2)

	tbl := p.Tables[1]
	assert.Equal(t, "t2", tbl.ID)
	require.NoError(t, tbl.Validate(typepolicy.Default()))
	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, "c6", tbl.Columns[0].SpID, "column ids continue across tables")

	synth := tbl.Columns[1]
	assert.Equal(t, SyntheticKey, synth.SpColName)
	assert.Empty(t, synth.SrcID)
	assert.True(t, synth.SpIsPk)
	assert.Equal(t, mapping.LengthOf(SyntheticKeyLength), synth.SpColMaxLength)
	assert.Equal(t, 2, synth.SpOrder)

	last := p.Warnings[len(p.Warnings)-1]
	assert.Equal(t, mapping.WarnSyntheticKey, last.Code)
	assert.Equal(t, "t2", last.Table)
}

func TestPropose_CycleBrokenWarning(t *testing.T) {
	col := func(name string) []*schema.Column {
		return []*schema.Column{{Name: name, DataType: "bigint", NativeType: "bigint", Ordinal: 1, IsPK: true}}
	}
	tables := schema.SortTablesByFKCount([]*schema.Table{
		{Name: "employees", Columns: col("employee_id"), Dependencies: []string{"departments"}},
		{Name: "departments", Columns: col("department_id"), Dependencies: []string{"employees"}},
	})

	p, err := Propose(tables, Options{})
	require.NoError(t, err)
	require.Len(t, p.Warnings, 1)
	w := p.Warnings[0]
	assert.Equal(t, mapping.WarnCycleBroken, w.Code)
	assert.Equal(t, "t1", w.Table)
	assert.Contains(t, w.Message, "employees")
}

func TestPropose_TruncatesToPolicy(t *testing.T) {
	policy := typepolicy.New(typepolicy.Rules{
		"strict": {"INT64": typepolicy.NotApplicable(), "STRING": typepolicy.Fixed(100), "BYTES": typepolicy.Fixed(100)},
	})
	p, err := Propose([]*schema.Table{singers()}, Options{Dialect: "strict", Policy: policy})
	require.NoError(t, err)

	tbl := p.Tables[0]
	assert.Equal(t, mapping.LengthOf(100), tbl.Columns[1].SpColMaxLength)
	assert.Equal(t, mapping.LengthOf(255), tbl.Columns[1].SrcColMaxLength)
	assert.NoError(t, tbl.Validate(policy))

	var truncated int
	for _, w := range p.Warnings {
		if w.Code == mapping.WarnLengthTruncated {
			truncated++
		}
	}
	assert.Equal(t, 1, truncated)
}

func TestPropose_UnsupportedTargetType(t *testing.T) {
	policy := typepolicy.New(typepolicy.Rules{"strict": {"STRING": typepolicy.Fixed(100)}})
	_, err := Propose([]*schema.Table{singers()}, Options{Dialect: "strict", Policy: policy})
	assert.ErrorIs(t, err, typepolicy.ErrUnsupportedType)
}

func TestPropose_PendingIndexEntry(t *testing.T) {
	src := singers()
	src.Indexes = append(src.Indexes, &schema.Index{Name: "idx_name", Columns: []schema.IndexColumn{
		{Column: "ghost", Seq: 1},
		{Column: "bio", Seq: 2},
	}})
	p, err := Propose([]*schema.Table{src}, Options{})
	require.NoError(t, err)

	tbl := p.Tables[0]
	require.NoError(t, tbl.Validate(typepolicy.Default()))
	require.Len(t, tbl.Indexes, 2)
	assert.Equal(t, "idx_name_2", tbl.Indexes[1].Name)

	pending := tbl.PendingIndexColumns()
	require.Len(t, pending, 1)
	assert.Equal(t, "ghost", pending[0].SrcColName)
	assert.Equal(t, "c6", pending[0].SrcColID, "unresolved keys still get a source id")
	assert.Equal(t, "bio", tbl.Indexes[1].Columns[0].SpColName)
	assert.Equal(t, 1, tbl.Indexes[1].Columns[0].SpOrder)
	assert.True(t, tbl.Indexes[1].Columns[1].Pending())
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"singer_id":    "singer_id",
		"table Name":   "table_Name",
		"1st":          "x1st",
		"_hidden":      "x_hidden",
		"naïve":        "na_ve",
		"":             "col",
		"order-status": "order_status",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitize(in), in)
	}
	assert.Len(t, sanitize(strings.Repeat("a", 200)), maxIdentifier)
}

func TestNamer(t *testing.T) {
	n := newNamer()
	assert.Equal(t, "Name", n.take("Name"))
	assert.Equal(t, "name_2", n.take("name"))
	assert.Equal(t, "NAME_3", n.take("NAME"))

	long := strings.Repeat("b", maxIdentifier)
	assert.Equal(t, long, n.take(long))
	again := n.take(long)
	assert.Len(t, again, maxIdentifier)
	assert.True(t, strings.HasSuffix(again, "_2"))
}
