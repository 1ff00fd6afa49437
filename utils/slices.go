package utils

import (
	"sort"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
)

// GetSortedKeys returns the sorted keys of a map.
func GetSortedKeys[K constraints.Ordered, V any](m map[K]V) (keys []K) {
	keys = maps.Keys(m)
	SortSlice(keys)
	return
}

// SortSlice sorts a slice in place.
func SortSlice[T constraints.Ordered](s []T) {
	sort.Slice(s, func(i, j int) bool {
		return s[i] < s[j]
	})
}

// Repeat returns a new slice of length n whose elements are all equal to v.
func Repeat[V any](v V, n int) (s []V) {
	s = make([]V, n)
	for i := range s {
		s[i] = v
	}
	return
}
