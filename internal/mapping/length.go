package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// LengthKind distinguishes the three shapes a column length can take.
type LengthKind uint8

const (
	LengthNotApplicable LengthKind = iota
	LengthMax
	LengthValue
)

// Length is a column max length: not applicable, MAX, or a positive value.
// The zero value is "not applicable".
type Length struct {
	kind LengthKind
	n    int64
}

// NoLength returns the "not applicable" length.
func NoLength() Length { return Length{} }

// MaxLength returns the MAX length.
func MaxLength() Length { return Length{kind: LengthMax} }

// LengthOf returns a numeric length. n must be positive.
func LengthOf(n int64) Length { return Length{kind: LengthValue, n: n} }

func (l Length) Kind() LengthKind { return l.kind }

// Value returns the numeric length, if any.
func (l Length) Value() (int64, bool) {
	if l.kind != LengthValue {
		return 0, false
	}
	return l.n, true
}

// IsZero reports the "not applicable" length; yaml uses it for omitempty.
func (l Length) IsZero() bool { return l.kind == LengthNotApplicable }

func (l Length) String() string {
	switch l.kind {
	case LengthMax:
		return "MAX"
	case LengthValue:
		return strconv.FormatInt(l.n, 10)
	default:
		return ""
	}
}

// ParseLength normalizes the loosely typed length found in payloads and
// command lines: nil or "" is not applicable, "MAX" (any case) is MAX,
// numbers and numeric strings are values.
func ParseLength(v interface{}) (Length, error) {
	if v == nil {
		return NoLength(), nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return NoLength(), nil
		}
		if strings.EqualFold(s, "max") {
			return MaxLength(), nil
		}
		// Decimal only; cast would read "010" as octal.
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Length{}, fmt.Errorf("%w: %q", ErrInvalidLength, s)
		}
		return positiveLength(n)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return Length{}, fmt.Errorf("%w: %v", ErrInvalidLength, v)
	}
	return positiveLength(n)
}

func positiveLength(n int64) (Length, error) {
	if n < 1 {
		return Length{}, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	return LengthOf(n), nil
}

func (l Length) raw() interface{} {
	switch l.kind {
	case LengthMax:
		return "MAX"
	case LengthValue:
		return l.n
	default:
		return nil
	}
}

func (l Length) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.raw())
}

func (l *Length) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = NoLength()
		return nil
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if num, ok := v.(json.Number); ok {
		v = num.String()
	}
	parsed, err := ParseLength(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Length) MarshalYAML() (interface{}, error) {
	return l.raw(), nil
}

func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	parsed, err := ParseLength(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
