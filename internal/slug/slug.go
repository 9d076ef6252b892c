// Package slug turns empresa names into URL-safe identifiers.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize converts a name into slug form: lowercase, diacritics stripped,
// runs of non-alphanumerics collapsed into single hyphens, no leading or
// trailing hyphen. Normalizing an existing slug yields it unchanged.
func Normalize(name string) string {
	s, _, err := transform.String(deaccent, name)
	if err != nil {
		// Fall back to the raw input; non-ASCII runes are dropped below anyway.
		s = name
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// TakenFunc reports whether a candidate slug is already in use
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Unique probes base against taken, appending an incrementing numeric suffix
// until a free candidate comes back. The probe makes at most one call per
// prior collision.
func Unique(ctx context.Context, base string, taken TakenFunc) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		inUse, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
