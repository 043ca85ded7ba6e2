package mapping_test

import (
	"fmt"

	"schema-mapper/internal/mapping"
	"schema-mapper/internal/typepolicy"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewColumnID() string { g.n++; return fmt.Sprintf("new%d", g.n) }
func (g *seqIDs) NewIndexID() string  { g.n++; return fmt.Sprintf("idx%d", g.n) }

func strictPolicy() *typepolicy.Policy {
	return typepolicy.New(typepolicy.Rules{
		"strict": {"STRING": typepolicy.Fixed(100), "INT64": typepolicy.NotApplicable()},
		"broken": {"STRING": typepolicy.Fixed(0)},
	})
}

// singersTable is a small GoogleSQL mapping with spOrder starting at 1.
func singersTable() *mapping.Table {
	return &mapping.Table{
		ID:      "t1",
		Name:    "Singers",
		SrcName: "singers",
		Dialect: typepolicy.GoogleSQL,
		Columns: []mapping.Column{
			{SrcID: "c1", SpID: "c1", SrcOrder: 1, SpOrder: 1, SrcColName: "id", SpColName: "id", SrcDataType: "bigint", SpDataType: "INT64", SrcIsPk: true, SpIsPk: true, SrcIsNotNull: true, SpIsNotNull: true},
			{SrcID: "c2", SpID: "c2", SrcOrder: 2, SpOrder: 2, SrcColName: "name", SpColName: "name", SrcDataType: "varchar", SpDataType: "STRING", SrcColMaxLength: mapping.LengthOf(5000), SpColMaxLength: mapping.LengthOf(5000)},
			{SrcID: "c3", SpID: "c3", SrcOrder: 3, SpOrder: 3, SrcColName: "bio", SpColName: "bio", SrcDataType: "text", SpDataType: "STRING", SpColMaxLength: mapping.MaxLength()},
		},
		Indexes: []mapping.Index{
			{ID: "i1", Name: "idx_name", Columns: []mapping.IndexColumn{
				{SrcColID: "c2", SpColID: "c2", SrcColName: "name", SpColName: "name", SrcOrder: 1, SpOrder: 1},
			}},
		},
	}
}

func newStore(t *mapping.Table) *mapping.Store {
	return mapping.NewStore(t, typepolicy.Default(), &seqIDs{})
}
