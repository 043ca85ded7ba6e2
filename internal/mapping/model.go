// Package mapping holds the per-table source-to-target column and index
// mapping and the primitives that edit it.
package mapping

import (
	"sort"
	"strings"
)

// Column maps one source column to one target column. A column added on the
// target side has an empty SrcID.
type Column struct {
	SrcID           string `json:"srcId" yaml:"srcId"`
	SpID            string `json:"spId" yaml:"spId"`
	SrcOrder        int    `json:"srcOrder" yaml:"srcOrder"`
	SpOrder         int    `json:"spOrder" yaml:"spOrder"`
	SrcColName      string `json:"srcColName" yaml:"srcColName"`
	SrcDataType     string `json:"srcDataType" yaml:"srcDataType"`
	SrcIsPk         bool   `json:"srcIsPk" yaml:"srcIsPk"`
	SrcIsNotNull    bool   `json:"srcIsNotNull" yaml:"srcIsNotNull"`
	SrcColMaxLength Length `json:"srcColMaxLength" yaml:"srcColMaxLength,omitempty"`
	SpColName       string `json:"spColName" yaml:"spColName"`
	SpDataType      string `json:"spDataType" yaml:"spDataType"`
	SpIsPk          bool   `json:"spIsPk" yaml:"spIsPk"`
	SpIsNotNull     bool   `json:"spIsNotNull" yaml:"spIsNotNull"`
	SpColMaxLength  Length `json:"spColMaxLength" yaml:"spColMaxLength,omitempty"`
}

// IndexColumn is one key of an index. SpColID is empty while the entry is
// pending target-side confirmation; SpOrder is then 0. Confirmed entries
// are ordered from 1.
type IndexColumn struct {
	SrcColID   string `json:"srcColId,omitempty" yaml:"srcColId,omitempty"`
	SpColID    string `json:"spColId,omitempty" yaml:"spColId,omitempty"`
	SrcColName string `json:"srcColName" yaml:"srcColName"`
	SpColName  string `json:"spColName,omitempty" yaml:"spColName,omitempty"`
	SrcDesc    bool   `json:"srcDesc" yaml:"srcDesc"`
	SpDesc     bool   `json:"spDesc" yaml:"spDesc"`
	SrcOrder   int    `json:"srcOrder" yaml:"srcOrder"`
	SpOrder    int    `json:"spOrder,omitempty" yaml:"spOrder,omitempty"`
}

// Pending reports whether the entry still waits for a target column.
func (c IndexColumn) Pending() bool { return c.SpColID == "" }

type Index struct {
	ID      string        `json:"id" yaml:"id"`
	Name    string        `json:"name" yaml:"name"`
	Unique  bool          `json:"unique" yaml:"unique"`
	Columns []IndexColumn `json:"columns" yaml:"columns"`
}

// Table is the mapping of one source table. Columns are kept sorted by SpOrder.
type Table struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	SrcName string   `json:"srcName" yaml:"srcName"`
	Dialect string   `json:"dialect" yaml:"dialect"`
	Frozen  bool     `json:"frozen,omitempty" yaml:"frozen,omitempty"`
	Columns []Column `json:"columns" yaml:"columns"`
	Indexes []Index  `json:"indexes" yaml:"indexes"`
}

// AddColumnContext configures a single AddColumn call.
type AddColumnContext struct {
	Dialect string
	TableID string
}

// NewColumn carries the user-proposed fields of a target-only column.
type NewColumn struct {
	Name       string
	DataType   string
	MaxLength  Length
	PrimaryKey bool
	NotNull    bool
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Columns = append([]Column(nil), t.Columns...)
	c.Indexes = make([]Index, len(t.Indexes))
	for i, idx := range t.Indexes {
		idx.Columns = append([]IndexColumn(nil), idx.Columns...)
		c.Indexes[i] = idx
	}
	return &c
}

func (t *Table) column(spID string) (int, bool) {
	for i := range t.Columns {
		if t.Columns[i].SpID == spID {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) index(name string) (int, bool) {
	for i := range t.Indexes {
		if strings.EqualFold(t.Indexes[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// PrimaryKeys returns the spIds flagged as primary key, in spOrder.
func (t *Table) PrimaryKeys() []string {
	var ids []string
	for _, c := range t.Columns {
		if c.SpIsPk {
			ids = append(ids, c.SpID)
		}
	}
	return ids
}

// PendingIndexColumns lists index entries still waiting for a target column.
func (t *Table) PendingIndexColumns() []PendingRef {
	var refs []PendingRef
	for _, idx := range t.Indexes {
		for _, ic := range idx.Columns {
			if ic.Pending() {
				refs = append(refs, PendingRef{Index: idx.Name, SrcColID: ic.SrcColID, SrcColName: ic.SrcColName})
			}
		}
	}
	return refs
}

// PendingRef points at a pending index entry.
type PendingRef struct {
	Index      string
	SrcColID   string
	SrcColName string
}

// orderBase is the lowest spOrder in use; reorders and removals keep it.
// An empty table starts at 1.
func (t *Table) orderBase() int {
	if len(t.Columns) == 0 {
		return 1
	}
	base := t.Columns[0].SpOrder
	for _, c := range t.Columns[1:] {
		if c.SpOrder < base {
			base = c.SpOrder
		}
	}
	return base
}

func (t *Table) sortColumns() {
	sort.SliceStable(t.Columns, func(i, j int) bool {
		return t.Columns[i].SpOrder < t.Columns[j].SpOrder
	})
}

// renumber makes spOrder dense again starting from base.
func (t *Table) renumber(base int) {
	t.sortColumns()
	for i := range t.Columns {
		t.Columns[i].SpOrder = base + i
	}
}

func renumberIndex(idx *Index) {
	sort.SliceStable(idx.Columns, func(i, j int) bool {
		a, b := idx.Columns[i], idx.Columns[j]
		if a.Pending() != b.Pending() {
			return !a.Pending()
		}
		return a.SpOrder < b.SpOrder
	})
	next := 1
	for i := range idx.Columns {
		if idx.Columns[i].Pending() {
			idx.Columns[i].SpOrder = 0
			continue
		}
		idx.Columns[i].SpOrder = next
		next++
	}
}
