package proposal

import (
	"fmt"
	"strings"
	"unicode"
)

// maxIdentifier is the longest name Spanner accepts.
const maxIdentifier = 128

// sanitize turns name into a valid Spanner identifier: letters, digits
// and underscores, starting with a letter.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" {
		s = "col"
	}
	if first := rune(s[0]); !unicode.IsLetter(first) {
		s = "x" + s
	}
	if len(s) > maxIdentifier {
		s = s[:maxIdentifier]
	}
	return s
}

// namer hands out names that are unique ignoring case.
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool)}
}

func (n *namer) take(name string) string {
	base := sanitize(name)
	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		if len(base)+len(suffix) > maxIdentifier {
			candidate = base[:maxIdentifier-len(suffix)] + suffix
		} else {
			candidate = base + suffix
		}
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
