package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate checks every invariant of the table mapping and returns all
// violations joined. Type and length rules are checked only when p is set.
func (t *Table) Validate(p Policy) error {
	var errs []error
	bad := func(target string, err error) {
		errs = append(errs, &ValidationError{Op: "validate", Table: t.ID, Target: target, Err: err})
	}

	spIDs := make(map[string]bool, len(t.Columns))
	srcIDs := make(map[string]string, len(t.Columns))
	names := make(map[string]string, len(t.Columns))
	orders := make([]int, 0, len(t.Columns))
	pks := 0

	for _, c := range t.Columns {
		switch {
		case c.SpID == "":
			bad(c.SpColName, fmt.Errorf("%w: empty spId", ErrInconsistent))
		case spIDs[c.SpID]:
			bad(c.SpID, fmt.Errorf("%w: spId used twice", ErrInconsistent))
		}
		spIDs[c.SpID] = true

		if c.SrcID != "" {
			if other, dup := srcIDs[c.SrcID]; dup {
				bad(c.SpID, fmt.Errorf("%w: srcId %s already mapped to %s", ErrInconsistent, c.SrcID, other))
			}
			srcIDs[c.SrcID] = c.SpID
		}

		key := strings.ToLower(c.SpColName)
		switch {
		case key == "":
			bad(c.SpID, fmt.Errorf("%w: empty name", ErrInvalidColumn))
		case names[key] != "":
			bad(c.SpID, fmt.Errorf("%w: %q is used by %s", ErrDuplicateName, c.SpColName, names[key]))
		default:
			names[key] = c.SpID
		}

		orders = append(orders, c.SpOrder)
		if c.SpIsPk {
			pks++
		}

		if p != nil {
			bound, err := p.MaxLengthFor(t.Dialect, c.SpDataType)
			if err != nil {
				bad(c.SpID, err)
				continue
			}
			fitted, truncated, err := FitLength(bound, c.SpColMaxLength)
			if err != nil {
				bad(c.SpID, err)
			} else if truncated || fitted != c.SpColMaxLength {
				bad(c.SpID, fmt.Errorf("%w: %s for %s", ErrInvalidLength, c.SpColMaxLength, c.SpDataType))
			}
		}
	}

	if len(t.Columns) > 0 && pks == 0 {
		bad("", ErrNoPrimaryKey)
	}

	sort.Ints(orders)
	for i := 1; i < len(orders); i++ {
		if orders[i] != orders[0]+i {
			bad("", fmt.Errorf("%w: spOrder %v is not contiguous", ErrOrderMismatch, orders))
			break
		}
	}

	indexNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		key := strings.ToLower(idx.Name)
		if indexNames[key] {
			bad(idx.Name, ErrDuplicateIndex)
		}
		indexNames[key] = true

		seen := make(map[int]bool, len(idx.Columns))
		for _, ic := range idx.Columns {
			if ic.Pending() {
				if ic.SpOrder != 0 {
					bad(idx.Name, fmt.Errorf("%w: pending entry %s has spOrder %d", ErrInconsistent, ic.SrcColName, ic.SpOrder))
				}
				continue
			}
			if !spIDs[ic.SpColID] {
				bad(idx.Name, fmt.Errorf("%w: %s", ErrUnknownColumn, ic.SpColID))
			}
			if ic.SpOrder < 1 || seen[ic.SpOrder] {
				bad(idx.Name, fmt.Errorf("%w: spOrder %d repeated or invalid", ErrOrderMismatch, ic.SpOrder))
			}
			seen[ic.SpOrder] = true
		}
		for i := 1; i <= len(seen); i++ {
			if !seen[i] {
				bad(idx.Name, fmt.Errorf("%w: spOrder has a gap at %d", ErrOrderMismatch, i))
				break
			}
		}
	}

	return errors.Join(errs...)
}
