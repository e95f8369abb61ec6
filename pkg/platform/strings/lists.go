// Package strings cleans the small string lists that arrive from query
// parameters, environment variables and document reference arrays.
package strings

import "strings"

// DedupeAndTrim trims every value and drops empties and repeats, keeping the
// first occurrence. The result is never nil.
func DedupeAndTrim(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SplitList splits a comma-separated value and cleans it with DedupeAndTrim.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}
