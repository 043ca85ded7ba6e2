// Package typepolicy holds the target-side length rules for each Spanner
// dialect. Lookups are pure and safe for concurrent use.
package typepolicy

import (
	"errors"
	"fmt"
	"strings"
)

// Spanner dialect identifiers.
const (
	GoogleSQL  = "google_standard_sql"
	PostgreSQL = "postgresql"
)

// ErrUnsupportedType is returned for a (dialect, type) pair the policy does not know.
var ErrUnsupportedType = errors.New("unsupported target type")

// BoundKind tells how a type constrains its length.
type BoundKind uint8

const (
	// BoundNotApplicable means the type carries no length at all (INT64, BOOL...).
	BoundNotApplicable BoundKind = iota
	// BoundUnbounded accepts any positive length.
	BoundUnbounded
	// BoundFixed caps the length at Bound.Max.
	BoundFixed
)

func (k BoundKind) String() string {
	switch k {
	case BoundNotApplicable:
		return "n/a"
	case BoundUnbounded:
		return "unbounded"
	case BoundFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Bound is the maximum length allowed for one target data type.
type Bound struct {
	Kind BoundKind
	Max  int64
}

// Fixed returns a bound with a numeric ceiling.
func Fixed(n int64) Bound { return Bound{Kind: BoundFixed, Max: n} }

// Unbounded returns a bound that accepts any length.
func Unbounded() Bound { return Bound{Kind: BoundUnbounded} }

// NotApplicable returns the bound of a type without length.
func NotApplicable() Bound { return Bound{Kind: BoundNotApplicable} }

// TakesLength reports whether values of the type carry a length.
func (b Bound) TakesLength() bool { return b.Kind != BoundNotApplicable }

func (b Bound) String() string {
	if b.Kind == BoundFixed {
		return fmt.Sprintf("fixed(%d)", b.Max)
	}
	return b.Kind.String()
}

// Rules maps dialect -> upper-cased type name -> bound.
type Rules map[string]map[string]Bound

// Policy answers MaxLengthFor lookups over a fixed rule set.
type Policy struct {
	rules Rules
}

// New builds a policy from rules. Dialect and type names are matched
// case-insensitively; the rules are copied.
func New(rules Rules) *Policy {
	p := &Policy{rules: make(Rules, len(rules))}
	for dialect, types := range rules {
		m := make(map[string]Bound, len(types))
		for name, b := range types {
			m[strings.ToUpper(name)] = b
		}
		p.rules[strings.ToLower(dialect)] = m
	}
	return p
}

// Default returns the Spanner limits: 2621440 characters for STRING/VARCHAR
// and 10485760 bytes for BYTES/BYTEA.
func Default() *Policy {
	return New(Rules{
		GoogleSQL: {
			"BOOL":      NotApplicable(),
			"INT64":     NotApplicable(),
			"FLOAT32":   NotApplicable(),
			"FLOAT64":   NotApplicable(),
			"NUMERIC":   NotApplicable(),
			"STRING":    Fixed(MaxStringLength),
			"BYTES":     Fixed(MaxBytesLength),
			"DATE":      NotApplicable(),
			"TIMESTAMP": NotApplicable(),
			"JSON":      NotApplicable(),
		},
		PostgreSQL: {
			"BOOL":        NotApplicable(),
			"INT8":        NotApplicable(),
			"FLOAT4":      NotApplicable(),
			"FLOAT8":      NotApplicable(),
			"NUMERIC":     NotApplicable(),
			"VARCHAR":     Fixed(MaxStringLength),
			"BYTEA":       Fixed(MaxBytesLength),
			"DATE":        NotApplicable(),
			"TIMESTAMPTZ": NotApplicable(),
			"JSONB":       NotApplicable(),
		},
	})
}

const (
	MaxStringLength int64 = 2621440
	MaxBytesLength  int64 = 10485760
)

// MaxLengthFor returns the length bound of spDataType under dialect.
func (p *Policy) MaxLengthFor(dialect, spDataType string) (Bound, error) {
	types, ok := p.rules[strings.ToLower(dialect)]
	if !ok {
		return Bound{}, fmt.Errorf("%w: unknown dialect %q", ErrUnsupportedType, dialect)
	}
	b, ok := types[strings.ToUpper(strings.TrimSpace(spDataType))]
	if !ok {
		return Bound{}, fmt.Errorf("%w: %q in dialect %s", ErrUnsupportedType, spDataType, dialect)
	}
	return b, nil
}

// Dialects lists the dialects the policy knows about.
func (p *Policy) Dialects() []string {
	out := make([]string, 0, len(p.rules))
	for d := range p.rules {
		out = append(out, d)
	}
	return out
}
