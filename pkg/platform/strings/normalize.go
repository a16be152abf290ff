// Package strings provides the key normalization shared by identity
// derivation and column alias matching.
package strings

import (
	"strings"
)

// Normalize trims surrounding whitespace and lower-cases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeJoin normalizes each part and joins them with sep.
// Blank parts keep their position as empty strings.
//
// Example:
//
//	NormalizeJoin("|", " 12 Main St", "Springfield ", "")
//	// Returns: "12 main st|springfield|"
func NormalizeJoin(sep string, parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = Normalize(p)
	}
	return strings.Join(norm, sep)
}

// DedupeNormalized normalizes each element and drops blanks and repeats.
// Order is preserved.
//
// Example:
//
//	DedupeNormalized([]string{"  FOO ", "bar", "Foo", ""})
//	// Returns: []string{"foo", "bar"}
func DedupeNormalized(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}

	return result
}

// FirstNonBlank returns the first value that is not blank after trimming,
// trimmed, or "" when every value is blank.
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
