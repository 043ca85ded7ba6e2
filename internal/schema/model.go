package schema

import "strings"

type Table struct {
	Name         string
	Columns      []*Column
	ForeignKeys  []*ForeignKey
	Indexes      []*Index
	Dependencies []string
	// CycleBroken marks a table ordered ahead of a dependency to break a
	// foreign key cycle.
	CycleBroken bool
}

type Column struct {
	Name       string
	DataType   string // normalized family, see dialect.NormalizeType
	NativeType string
	Ordinal    int
	Length     int64 // 0 when the database reports none
	MaxLength  bool  // declared with an unbounded length, e.g. varchar(max)
	IsNullable bool
	IsPK       bool
	IsAutoInc  bool
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

type Index struct {
	Name    string
	Unique  bool
	Columns []IndexColumn
}

type IndexColumn struct {
	Column string
	Seq    int
	Desc   bool
}

// Column looks a column up by name, ignoring case.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.IsPK {
			pk = append(pk, c)
		}
	}
	return pk
}
