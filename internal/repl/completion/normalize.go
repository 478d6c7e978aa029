package completion

import "slices"

// Normalize drops empty entries and repeated entries, keeping the first
// occurrence of each and preserving order. Applying it twice is a no-op.
func Normalize(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

// ReverseNormalize returns the newest occurrence of each entry of a
// chronological log, most recent first.
func ReverseNormalize(items []string) []string {
	reversed := slices.Clone(items)
	slices.Reverse(reversed)
	return Normalize(reversed)
}
