package dialect

import (
	"strings"
)

// baseNormalize strips any "(n)" suffix and lowercases.
func baseNormalize(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// DefaultSchemaName is the identity schema resolution.
func DefaultSchemaName(input string) string {
	return input
}
