package vault

import (
	"cmp"
	"slices"
)

// Factorize assigns dense consecutive integer IDs to the distinct values of
// a business-key column, starting at start. IDs are minted in sorted order,
// so the same distinct-value set always yields the same value-to-ID mapping
// no matter how the source rows were ordered. This keeps surrogate keys
// stable across re-runs.
func Factorize[T cmp.Ordered](values []T, start int) map[T]int {
	seen := make(map[T]bool, len(values))
	distinct := make([]T, 0, len(values))

	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	slices.Sort(distinct)

	ids := make(map[T]int, len(distinct))
	for i, v := range distinct {
		ids[v] = start + i
	}
	return ids
}

// sorted distinct keys of a set, the order hub rows are emitted in
func sortedKeys[T cmp.Ordered](set map[T]bool) []T {
	keys := make([]T, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
