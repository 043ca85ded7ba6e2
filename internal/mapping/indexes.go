package mapping

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Indexes returns a copy of the table's indexes.
func (s *Store) Indexes() []Index {
	return s.table.Clone().Indexes
}

func (s *Store) Index(name string) (Index, bool) {
	i, ok := s.table.index(name)
	if !ok {
		return Index{}, false
	}
	idx := s.table.Indexes[i]
	idx.Columns = append([]IndexColumn(nil), idx.Columns...)
	return idx, true
}

func (s *Store) lookupIndex(op, name string) (*Index, error) {
	if s.table.Frozen {
		return nil, s.fail(op, name, ErrFrozen)
	}
	i, ok := s.table.index(name)
	if !ok {
		return nil, s.fail(op, name, ErrIndexNotFound)
	}
	return &s.table.Indexes[i], nil
}

// AddIndex creates an empty index and returns its id.
func (s *Store) AddIndex(name string, unique bool) (string, error) {
	if s.table.Frozen {
		return "", s.fail("add-index", name, ErrFrozen)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", s.fail("add-index", name, fmt.Errorf("%w: empty index name", ErrInvalidColumn))
	}
	for _, idx := range s.table.Indexes {
		if strings.EqualFold(idx.Name, name) {
			return "", s.fail("add-index", name, ErrDuplicateIndex)
		}
	}
	id := s.ids.NewIndexID()
	s.table.Indexes = append(s.table.Indexes, Index{ID: id, Name: name, Unique: unique})
	return id, nil
}

// DropIndex removes an index and all its entries.
func (s *Store) DropIndex(name string) error {
	if _, err := s.lookupIndex("drop-index", name); err != nil {
		return err
	}
	i, _ := s.table.index(name)
	s.table.Indexes = append(s.table.Indexes[:i], s.table.Indexes[i+1:]...)
	return nil
}

// AddIndexColumn appends a confirmed entry for spColID, which must be a
// column of the table at the time of the call.
func (s *Store) AddIndexColumn(index, spColID string, desc bool) error {
	idx, err := s.lookupIndex("add-index-column", index)
	if err != nil {
		return err
	}
	ci, ok := s.table.column(spColID)
	if !ok {
		return s.fail("add-index-column", index, fmt.Errorf("%w: %s", ErrUnknownColumn, spColID))
	}
	next := 1
	for _, ic := range idx.Columns {
		if ic.SpColID == spColID {
			return s.fail("add-index-column", index, fmt.Errorf("%w: %s", ErrDuplicateIndexColumn, spColID))
		}
		if ic.SpOrder >= next {
			next = ic.SpOrder + 1
		}
	}

	col := s.table.Columns[ci]
	idx.Columns = append(idx.Columns, IndexColumn{
		SrcColID:   col.SrcID,
		SpColID:    spColID,
		SrcColName: col.SrcColName,
		SpColName:  col.SpColName,
		SpDesc:     desc,
		SpOrder:    next,
	})
	renumberIndex(idx)
	return nil
}

// RemoveIndexColumn drops the entry for spColID and closes the order gap.
func (s *Store) RemoveIndexColumn(index, spColID string) error {
	idx, err := s.lookupIndex("remove-index-column", index)
	if err != nil {
		return err
	}
	for i, ic := range idx.Columns {
		if ic.SpColID == spColID && spColID != "" {
			idx.Columns = append(idx.Columns[:i], idx.Columns[i+1:]...)
			renumberIndex(idx)
			return nil
		}
	}
	return s.fail("remove-index-column", index, fmt.Errorf("%w: %s", ErrIndexColumnNotFound, spColID))
}

// ReorderIndex orders the confirmed entries of an index. order must be a
// permutation of their spColIds; pending entries stay last.
func (s *Store) ReorderIndex(index string, order []string) error {
	idx, err := s.lookupIndex("reorder-index", index)
	if err != nil {
		return err
	}
	current := mapset.NewThreadUnsafeSet[string]()
	for _, ic := range idx.Columns {
		if !ic.Pending() {
			current.Add(ic.SpColID)
		}
	}
	if len(order) != current.Cardinality() || !current.Equal(mapset.NewThreadUnsafeSet(order...)) {
		return s.fail("reorder-index", index, fmt.Errorf("%w: got %v", ErrOrderMismatch, order))
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i + 1
	}
	for i := range idx.Columns {
		if !idx.Columns[i].Pending() {
			idx.Columns[i].SpOrder = pos[idx.Columns[i].SpColID]
		}
	}
	renumberIndex(idx)
	return nil
}

func (s *Store) SetDescending(index, spColID string, desc bool) error {
	idx, err := s.lookupIndex("set-descending", index)
	if err != nil {
		return err
	}
	for i := range idx.Columns {
		if idx.Columns[i].SpColID == spColID && spColID != "" {
			idx.Columns[i].SpDesc = desc
			return nil
		}
	}
	return s.fail("set-descending", index, fmt.Errorf("%w: %s", ErrIndexColumnNotFound, spColID))
}

// ConfirmIndexColumn binds the pending entry for srcColID to a target column.
func (s *Store) ConfirmIndexColumn(index, srcColID, spColID string) error {
	idx, err := s.lookupIndex("confirm-index-column", index)
	if err != nil {
		return err
	}
	ci, ok := s.table.column(spColID)
	if !ok {
		return s.fail("confirm-index-column", index, fmt.Errorf("%w: %s", ErrUnknownColumn, spColID))
	}
	target := -1
	for i, ic := range idx.Columns {
		if ic.SpColID == spColID {
			return s.fail("confirm-index-column", index, fmt.Errorf("%w: %s", ErrDuplicateIndexColumn, spColID))
		}
		if ic.Pending() && ic.SrcColID == srcColID && target < 0 {
			target = i
		}
	}
	if target < 0 {
		return s.fail("confirm-index-column", index, fmt.Errorf("%w: no pending entry for %s", ErrIndexColumnNotFound, srcColID))
	}

	next := 1
	for _, ic := range idx.Columns {
		if ic.SpOrder >= next {
			next = ic.SpOrder + 1
		}
	}
	idx.Columns[target].SpColID = spColID
	idx.Columns[target].SpColName = s.table.Columns[ci].SpColName
	idx.Columns[target].SpOrder = next
	renumberIndex(idx)
	return nil
}
