package mapping_test

import (
	"testing"

	"schema-mapper/internal/mapping"
	"schema-mapper/internal/typepolicy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*mapping.Table)
		want   error
	}{
		{name: "valid", mutate: func(*mapping.Table) {}},
		{name: "duplicate spId", mutate: func(tb *mapping.Table) { tb.Columns[1].SpID = "c1" }, want: mapping.ErrInconsistent},
		{name: "srcId mapped twice", mutate: func(tb *mapping.Table) { tb.Columns[2].SrcID = "c2" }, want: mapping.ErrInconsistent},
		{name: "duplicate name", mutate: func(tb *mapping.Table) { tb.Columns[2].SpColName = "Name" }, want: mapping.ErrDuplicateName},
		{name: "order gap", mutate: func(tb *mapping.Table) { tb.Columns[2].SpOrder = 5 }, want: mapping.ErrOrderMismatch},
		{name: "no primary key", mutate: func(tb *mapping.Table) { tb.Columns[0].SpIsPk = false }, want: mapping.ErrNoPrimaryKey},
		{name: "length over bound", mutate: func(tb *mapping.Table) {
			tb.Columns[1].SpColMaxLength = mapping.LengthOf(typepolicy.MaxStringLength + 1)
		}, want: mapping.ErrInvalidLength},
		{name: "length on scalar", mutate: func(tb *mapping.Table) { tb.Columns[0].SpColMaxLength = mapping.LengthOf(8) }, want: mapping.ErrInvalidLength},
		{name: "unknown type", mutate: func(tb *mapping.Table) { tb.Columns[0].SpDataType = "SERIAL" }, want: typepolicy.ErrUnsupportedType},
		{name: "index on missing column", mutate: func(tb *mapping.Table) { tb.Indexes[0].Columns[0].SpColID = "c9" }, want: mapping.ErrUnknownColumn},
		{name: "index order gap", mutate: func(tb *mapping.Table) { tb.Indexes[0].Columns[0].SpOrder = 2 }, want: mapping.ErrOrderMismatch},
		{name: "pending with order", mutate: func(tb *mapping.Table) {
			tb.Indexes[0].Columns = append(tb.Indexes[0].Columns, mapping.IndexColumn{SrcColID: "c5", SpOrder: 2})
		}, want: mapping.ErrInconsistent},
		{name: "duplicate index", mutate: func(tb *mapping.Table) {
			tb.Indexes = append(tb.Indexes, mapping.Index{ID: "i2", Name: "IDX_NAME"})
		}, want: mapping.ErrDuplicateIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := singersTable()
			tt.mutate(tbl)
			err := tbl.Validate(typepolicy.Default())
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, mapping.IsValidation(err))
		})
	}
}

func TestValidate_WithoutPolicy(t *testing.T) {
	tbl := singersTable()
	tbl.Columns[0].SpDataType = "SERIAL"
	assert.NoError(t, tbl.Validate(nil))
}

func TestClone_IsDeep(t *testing.T) {
	tbl := singersTable()
	cp := tbl.Clone()
	cp.Columns[0].SpColName = "changed"
	cp.Indexes[0].Columns[0].SpDesc = true

	assert.Equal(t, "id", tbl.Columns[0].SpColName)
	assert.False(t, tbl.Indexes[0].Columns[0].SpDesc)
}
