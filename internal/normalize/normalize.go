// Package normalize folds free-form strings into the canonical form used as
// dedup keys across the store.
package normalize

import (
	"path/filepath"
	"strings"
)

// Key lowercases and trims a string so repeated sightings of the same alias
// or address collapse to one row. Idempotent: Key(Key(s)) == Key(s).
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Keys applies Key to every element, dropping entries that normalize to "".
func Keys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if k := Key(s); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// DisplayName folds a header display name for the Alias table. Dots are
// treated as word separators ("john.doe" and "john doe" are the same person
// string) before the usual case/space folding.
func DisplayName(s string) string {
	s = strings.ReplaceAll(s, ".", " ")
	return Key(strings.Join(strings.Fields(s), " "))
}

// Filename returns the final path element of a source path.
func Filename(path string) string {
	return filepath.Base(path)
}
