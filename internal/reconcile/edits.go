package reconcile

import (
	"schema-mapper/internal/mapping"
)

// Edit is one user edit intent. The set is closed; see the types below.
type Edit interface {
	op() string
	apply(s *mapping.Store) (outcome, error)
}

type outcome struct {
	warnings []mapping.Warning
	columnID string
	indexID  string
}

type Rename struct {
	ColumnID string
	Name     string
}

func (Rename) op() string { return "rename" }
func (e Rename) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.Rename(e.ColumnID, e.Name)
}

type Retype struct {
	ColumnID string
	Type     string
}

func (Retype) op() string { return "retype" }
func (e Retype) apply(s *mapping.Store) (outcome, error) {
	w, err := s.Retype(e.ColumnID, e.Type)
	return outcome{warnings: w, columnID: e.ColumnID}, err
}

type SetLength struct {
	ColumnID string
	Length   mapping.Length
}

func (SetLength) op() string { return "set-length" }
func (e SetLength) apply(s *mapping.Store) (outcome, error) {
	w, err := s.SetLength(e.ColumnID, e.Length)
	return outcome{warnings: w, columnID: e.ColumnID}, err
}

type SetPrimaryKey struct {
	ColumnID   string
	PrimaryKey bool
}

func (SetPrimaryKey) op() string { return "set-primary-key" }
func (e SetPrimaryKey) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.SetPrimaryKey(e.ColumnID, e.PrimaryKey)
}

type SetNotNull struct {
	ColumnID string
	NotNull  bool
}

func (SetNotNull) op() string { return "set-not-null" }
func (e SetNotNull) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.SetNotNull(e.ColumnID, e.NotNull)
}

// Reorder lists every spId of the table in the wanted order.
type Reorder struct {
	Order []string
}

func (Reorder) op() string { return "reorder" }
func (e Reorder) apply(s *mapping.Store) (outcome, error) {
	return outcome{}, s.Reorder(e.Order)
}

type AddColumn struct {
	Context mapping.AddColumnContext
	Column  mapping.NewColumn
}

func (AddColumn) op() string { return "add-column" }
func (e AddColumn) apply(s *mapping.Store) (outcome, error) {
	id, w, err := s.AddColumn(e.Context, e.Column)
	return outcome{warnings: w, columnID: id}, err
}

type RemoveColumn struct {
	ColumnID string
}

func (RemoveColumn) op() string { return "remove-column" }
func (e RemoveColumn) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.RemoveColumn(e.ColumnID)
}

type AddIndex struct {
	Name   string
	Unique bool
}

func (AddIndex) op() string { return "add-index" }
func (e AddIndex) apply(s *mapping.Store) (outcome, error) {
	id, err := s.AddIndex(e.Name, e.Unique)
	return outcome{indexID: id}, err
}

type DropIndex struct {
	Name string
}

func (DropIndex) op() string { return "drop-index" }
func (e DropIndex) apply(s *mapping.Store) (outcome, error) {
	return outcome{}, s.DropIndex(e.Name)
}

type AddIndexColumn struct {
	Index    string
	ColumnID string
	Desc     bool
}

func (AddIndexColumn) op() string { return "add-index-column" }
func (e AddIndexColumn) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.AddIndexColumn(e.Index, e.ColumnID, e.Desc)
}

type RemoveIndexColumn struct {
	Index    string
	ColumnID string
}

func (RemoveIndexColumn) op() string { return "remove-index-column" }
func (e RemoveIndexColumn) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.RemoveIndexColumn(e.Index, e.ColumnID)
}

type ReorderIndex struct {
	Index string
	Order []string
}

func (ReorderIndex) op() string { return "reorder-index" }
func (e ReorderIndex) apply(s *mapping.Store) (outcome, error) {
	return outcome{}, s.ReorderIndex(e.Index, e.Order)
}

type SetDescending struct {
	Index    string
	ColumnID string
	Desc     bool
}

func (SetDescending) op() string { return "set-descending" }
func (e SetDescending) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.SetDescending(e.Index, e.ColumnID, e.Desc)
}

// ConfirmIndexColumn binds a pending index entry to a target column.
type ConfirmIndexColumn struct {
	Index       string
	SrcColumnID string
	ColumnID    string
}

func (ConfirmIndexColumn) op() string { return "confirm-index-column" }
func (e ConfirmIndexColumn) apply(s *mapping.Store) (outcome, error) {
	return outcome{columnID: e.ColumnID}, s.ConfirmIndexColumn(e.Index, e.SrcColumnID, e.ColumnID)
}

// UpdateColumn saves a whole review row at once. Nil fields are left alone.
// Either every change applies or none does.
type UpdateColumn struct {
	ColumnID   string
	Name       *string
	Type       *string
	Length     *mapping.Length
	PrimaryKey *bool
	NotNull    *bool
}

func (UpdateColumn) op() string { return "update-column" }
func (e UpdateColumn) apply(s *mapping.Store) (outcome, error) {
	out := outcome{columnID: e.ColumnID}
	if e.Name != nil {
		if err := s.Rename(e.ColumnID, *e.Name); err != nil {
			return out, err
		}
	}
	if e.Type != nil {
		w, err := s.Retype(e.ColumnID, *e.Type)
		if err != nil {
			return out, err
		}
		// an explicit length replaces whatever the retype derived
		if e.Length == nil {
			out.warnings = append(out.warnings, w...)
		}
	}
	if e.Length != nil {
		w, err := s.SetLength(e.ColumnID, *e.Length)
		if err != nil {
			return out, err
		}
		out.warnings = append(out.warnings, w...)
	}
	if e.PrimaryKey != nil {
		if err := s.SetPrimaryKey(e.ColumnID, *e.PrimaryKey); err != nil {
			return out, err
		}
	}
	if e.NotNull != nil {
		if err := s.SetNotNull(e.ColumnID, *e.NotNull); err != nil {
			return out, err
		}
	}
	return out, nil
}
