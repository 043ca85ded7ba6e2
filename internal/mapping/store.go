package mapping

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"schema-mapper/internal/typepolicy"
)

// Policy resolves the length bound of a target type.
type Policy interface {
	MaxLengthFor(dialect, spDataType string) (typepolicy.Bound, error)
}

// IDGenerator hands out identities for target-only columns and new indexes.
type IDGenerator interface {
	NewColumnID() string
	NewIndexID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewColumnID() string { return "c" + shortUUID() }
func (uuidGenerator) NewIndexID() string  { return "i" + shortUUID() }

func shortUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Store applies edit primitives to one table mapping. Each primitive
// validates before it mutates, so a failed call leaves the table as it was.
// A Store is not safe for concurrent use; callers serialize edits.
type Store struct {
	table  *Table
	policy Policy
	ids    IDGenerator
}

// NewStore wraps t. Edits mutate t in place. A nil ids uses random uuids.
func NewStore(t *Table, p Policy, ids IDGenerator) *Store {
	if ids == nil {
		ids = uuidGenerator{}
	}
	t.sortColumns()
	return &Store{table: t, policy: p, ids: ids}
}

// Table returns a copy of the current mapping.
func (s *Store) Table() *Table { return s.table.Clone() }

// List returns the columns in spOrder.
func (s *Store) List() []Column {
	return append([]Column(nil), s.table.Columns...)
}

// Get returns the column with the given spId.
func (s *Store) Get(spID string) (Column, bool) {
	i, ok := s.table.column(spID)
	if !ok {
		return Column{}, false
	}
	return s.table.Columns[i], true
}

func (s *Store) fail(op, target string, err error) error {
	return &ValidationError{Op: op, Table: s.table.ID, Target: target, Err: err}
}

// lookup resolves spID for a mutating op, rejecting frozen tables.
func (s *Store) lookup(op, spID string) (int, error) {
	if s.table.Frozen {
		return -1, s.fail(op, spID, ErrFrozen)
	}
	i, ok := s.table.column(spID)
	if !ok {
		return -1, s.fail(op, spID, ErrColumnNotFound)
	}
	return i, nil
}

func (s *Store) nameTaken(name, except string) (string, bool) {
	for _, c := range s.table.Columns {
		if c.SpID != except && strings.EqualFold(c.SpColName, name) {
			return c.SpID, true
		}
	}
	return "", false
}

// Rename changes the target name of a column. Index entries pointing at the
// column follow the new name.
func (s *Store) Rename(spID, newName string) error {
	i, err := s.lookup("rename", spID)
	if err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return s.fail("rename", spID, fmt.Errorf("%w: empty name", ErrInvalidColumn))
	}
	if other, taken := s.nameTaken(newName, spID); taken {
		return s.fail("rename", spID, fmt.Errorf("%w: %q is used by %s", ErrDuplicateName, newName, other))
	}

	s.table.Columns[i].SpColName = newName
	for x := range s.table.Indexes {
		for y := range s.table.Indexes[x].Columns {
			if s.table.Indexes[x].Columns[y].SpColID == spID {
				s.table.Indexes[x].Columns[y].SpColName = newName
			}
		}
	}
	return nil
}

// fit adapts length to the bound of spDataType under dialect.
func (s *Store) fit(op, spID, dialect, spDataType string, length Length) (Length, []Warning, error) {
	bound, err := s.policy.MaxLengthFor(dialect, spDataType)
	if err != nil {
		return Length{}, nil, s.fail(op, spID, err)
	}
	fitted, truncated, err := FitLength(bound, length)
	if err != nil {
		return Length{}, nil, s.fail(op, spID, err)
	}

	var warnings []Warning
	switch {
	case truncated:
		warnings = append(warnings, Warning{
			Code:    WarnLengthTruncated,
			Table:   s.table.ID,
			Column:  spID,
			Message: fmt.Sprintf("length %s exceeds %s limit %d, set to %s", length, spDataType, bound.Max, fitted),
		})
	case length.Kind() == LengthValue && fitted.IsZero():
		warnings = append(warnings, Warning{
			Code:    WarnLengthDropped,
			Table:   s.table.ID,
			Column:  spID,
			Message: fmt.Sprintf("%s takes no length, dropped %s", spDataType, length),
		})
	}
	return fitted, warnings, nil
}

// FitLength adapts length to bound. It reports whether the length was
// clamped, and fails with ErrIncompatibleType when the bound admits no
// length at all. Types that take a length default to MAX.
func FitLength(bound typepolicy.Bound, length Length) (Length, bool, error) {
	switch bound.Kind {
	case typepolicy.BoundNotApplicable:
		return NoLength(), false, nil
	case typepolicy.BoundUnbounded:
		if length.IsZero() {
			return MaxLength(), false, nil
		}
		return length, false, nil
	case typepolicy.BoundFixed:
		if bound.Max < 1 {
			return Length{}, false, fmt.Errorf("%w: bound %d", ErrIncompatibleType, bound.Max)
		}
		switch length.Kind() {
		case LengthNotApplicable:
			return MaxLength(), false, nil
		case LengthMax:
			return length, false, nil
		}
		if n, _ := length.Value(); n > bound.Max {
			return LengthOf(bound.Max), true, nil
		}
		return length, false, nil
	}
	return Length{}, false, fmt.Errorf("%w: unknown bound %v", ErrIncompatibleType, bound)
}

// Retype changes the target type and re-validates the length against it.
func (s *Store) Retype(spID, newType string) ([]Warning, error) {
	i, err := s.lookup("retype", spID)
	if err != nil {
		return nil, err
	}
	newType = strings.ToUpper(strings.TrimSpace(newType))
	length, warnings, err := s.fit("retype", spID, s.table.Dialect, newType, s.table.Columns[i].SpColMaxLength)
	if err != nil {
		return nil, err
	}
	s.table.Columns[i].SpDataType = newType
	s.table.Columns[i].SpColMaxLength = length
	return warnings, nil
}

// SetLength changes the target length, clamped to the type's bound.
func (s *Store) SetLength(spID string, length Length) ([]Warning, error) {
	i, err := s.lookup("set-length", spID)
	if err != nil {
		return nil, err
	}
	col := s.table.Columns[i]
	fitted, warnings, err := s.fit("set-length", spID, s.table.Dialect, col.SpDataType, length)
	if err != nil {
		return nil, err
	}
	s.table.Columns[i].SpColMaxLength = fitted
	return warnings, nil
}

// SetPrimaryKey flags or unflags a primary key column. The last primary
// key column cannot be unflagged.
func (s *Store) SetPrimaryKey(spID string, isPk bool) error {
	i, err := s.lookup("set-primary-key", spID)
	if err != nil {
		return err
	}
	if !isPk && s.table.Columns[i].SpIsPk && len(s.table.PrimaryKeys()) == 1 {
		return s.fail("set-primary-key", spID, ErrNoPrimaryKey)
	}
	s.table.Columns[i].SpIsPk = isPk
	return nil
}

func (s *Store) SetNotNull(spID string, flag bool) error {
	i, err := s.lookup("set-not-null", spID)
	if err != nil {
		return err
	}
	s.table.Columns[i].SpIsNotNull = flag
	return nil
}

// Reorder assigns spOrder following order, which must be a permutation of
// the current spIds. Numbering keeps the previous base.
func (s *Store) Reorder(order []string) error {
	if s.table.Frozen {
		return s.fail("reorder", "", ErrFrozen)
	}
	current := mapset.NewThreadUnsafeSet[string]()
	for _, c := range s.table.Columns {
		current.Add(c.SpID)
	}
	if len(order) != len(s.table.Columns) || !current.Equal(mapset.NewThreadUnsafeSet(order...)) {
		return s.fail("reorder", "", fmt.Errorf("%w: got %v", ErrOrderMismatch, order))
	}

	base := s.table.orderBase()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = base + i
	}
	for i := range s.table.Columns {
		s.table.Columns[i].SpOrder = pos[s.table.Columns[i].SpID]
	}
	s.table.sortColumns()
	return nil
}

func (s *Store) idInUse(id string) bool {
	for _, c := range s.table.Columns {
		if c.SpID == id || c.SrcID == id {
			return true
		}
	}
	return false
}

// AddColumn appends a target-only column and returns its new spId.
func (s *Store) AddColumn(ctx AddColumnContext, nc NewColumn) (string, []Warning, error) {
	if s.table.Frozen {
		return "", nil, s.fail("add-column", nc.Name, ErrFrozen)
	}
	if ctx.TableID != "" && ctx.TableID != s.table.ID {
		return "", nil, s.fail("add-column", nc.Name, fmt.Errorf("%w: context is for table %s", ErrInvalidColumn, ctx.TableID))
	}
	if ctx.Dialect != "" && !strings.EqualFold(ctx.Dialect, s.table.Dialect) {
		return "", nil, s.fail("add-column", nc.Name, fmt.Errorf("%w: context dialect %s, table dialect %s", ErrInvalidColumn, ctx.Dialect, s.table.Dialect))
	}
	dialect := s.table.Dialect
	name := strings.TrimSpace(nc.Name)
	if name == "" {
		return "", nil, s.fail("add-column", nc.Name, fmt.Errorf("%w: empty name", ErrInvalidColumn))
	}
	if other, taken := s.nameTaken(name, ""); taken {
		return "", nil, s.fail("add-column", name, fmt.Errorf("%w: %q is used by %s", ErrDuplicateName, name, other))
	}
	dataType := strings.ToUpper(strings.TrimSpace(nc.DataType))
	bound, err := s.policy.MaxLengthFor(dialect, dataType)
	if err != nil {
		return "", nil, s.fail("add-column", name, fmt.Errorf("%w: %w", ErrInvalidColumn, err))
	}

	id := s.ids.NewColumnID()
	for s.idInUse(id) {
		id = s.ids.NewColumnID()
	}
	length, truncated, err := FitLength(bound, nc.MaxLength)
	if err != nil {
		return "", nil, s.fail("add-column", name, err)
	}
	var warnings []Warning
	if truncated {
		warnings = append(warnings, Warning{
			Code:    WarnLengthTruncated,
			Table:   s.table.ID,
			Column:  id,
			Message: fmt.Sprintf("length %s exceeds %s limit %d, set to %s", nc.MaxLength, dataType, bound.Max, length),
		})
	}

	next := s.table.orderBase()
	if n := len(s.table.Columns); n > 0 {
		next = s.table.Columns[n-1].SpOrder + 1
	}
	s.table.Columns = append(s.table.Columns, Column{
		SpID:           id,
		SpOrder:        next,
		SpColName:      name,
		SpDataType:     dataType,
		SpIsPk:         nc.PrimaryKey,
		SpIsNotNull:    nc.NotNull || nc.PrimaryKey,
		SpColMaxLength: length,
	})
	return id, warnings, nil
}

// RemoveColumn drops a column from the target side. Index entries must be
// removed first; there is no cascade.
func (s *Store) RemoveColumn(spID string) error {
	i, err := s.lookup("remove-column", spID)
	if err != nil {
		return err
	}
	for _, idx := range s.table.Indexes {
		for _, ic := range idx.Columns {
			if ic.SpColID == spID {
				return s.fail("remove-column", spID, fmt.Errorf("%w: %s", ErrReferencedByIndex, idx.Name))
			}
		}
	}
	if s.table.Columns[i].SpIsPk && len(s.table.PrimaryKeys()) == 1 {
		return s.fail("remove-column", spID, ErrNoPrimaryKey)
	}

	base := s.table.orderBase()
	s.table.Columns = append(s.table.Columns[:i], s.table.Columns[i+1:]...)
	s.table.renumber(base)
	return nil
}
