package mapping

import (
	"errors"
	"fmt"
)

// Validation failures. Every rejected edit leaves the table unchanged and
// surfaces as a *ValidationError wrapping one of these.
var (
	ErrColumnNotFound       = errors.New("column not found")
	ErrDuplicateName        = errors.New("duplicate column name")
	ErrIncompatibleType     = errors.New("incompatible type: no valid length")
	ErrNoPrimaryKey         = errors.New("table needs at least one primary key column")
	ErrOrderMismatch        = errors.New("order is not a permutation of the existing ids")
	ErrInvalidColumn        = errors.New("invalid column")
	ErrInvalidLength        = errors.New("invalid length")
	ErrReferencedByIndex    = errors.New("column is referenced by an index")
	ErrUnknownColumn        = errors.New("unknown column")
	ErrIndexNotFound        = errors.New("index not found")
	ErrDuplicateIndex       = errors.New("duplicate index name")
	ErrDuplicateIndexColumn = errors.New("column already in index")
	ErrIndexColumnNotFound  = errors.New("index column not found")
	ErrInconsistent         = errors.New("inconsistent mapping")
	ErrFrozen               = errors.New("table mapping is frozen")
)

// ValidationError describes a rejected store operation.
type ValidationError struct {
	Op     string
	Table  string
	Target string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s on table %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s %s on table %s: %v", e.Op, e.Target, e.Table, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a rejected edit.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WarningCode identifies a non-fatal adjustment made while applying an edit.
type WarningCode string

const (
	WarnLengthTruncated WarningCode = "length_truncated"
	WarnLengthDropped   WarningCode = "length_dropped"
	WarnTypeFallback    WarningCode = "type_fallback"
	WarnNameChanged     WarningCode = "name_changed"
	WarnSyntheticKey    WarningCode = "synthetic_primary_key"
	WarnCycleBroken     WarningCode = "fk_cycle_broken"
)

// Warning is reported alongside a successful edit.
type Warning struct {
	Code    WarningCode
	Table   string
	Column  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s.%s: %s", w.Code, w.Table, w.Column, w.Message)
}
