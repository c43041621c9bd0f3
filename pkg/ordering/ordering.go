// Package ordering builds total orders from small key comparators.
package ordering

import (
	"slices"
	"strings"
)

// Comparator returns a negative number when a sorts before b, a positive
// number when after, and zero when the two are equal under it.
type Comparator[T any] func(a, b T) int

// Chain compares by each comparator in turn until one of them tells the
// values apart.
func Chain[T any](cmps ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// FalseFirst orders values whose key is false before those whose key is true.
func FalseFirst[T any](key func(T) bool) Comparator[T] {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka == kb:
			return 0
		case !ka:
			return -1
		}
		return 1
	}
}

// TrueFirst orders values whose key is true first.
func TrueFirst[T any](key func(T) bool) Comparator[T] {
	f := FalseFirst(key)
	return func(a, b T) int { return -f(a, b) }
}

// Ordinal compares string keys byte by byte, with no culture or case folding.
func Ordinal[T any](key func(T) string) Comparator[T] {
	return func(a, b T) int { return strings.Compare(key(a), key(b)) }
}

// OrdinalNullsFirst is Ordinal over optional keys. A nil key sorts before
// every non-nil key, including the empty string.
func OrdinalNullsFirst[T any](key func(T) *string) Comparator[T] {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka == nil && kb == nil:
			return 0
		case ka == nil:
			return -1
		case kb == nil:
			return 1
		}
		return strings.Compare(*ka, *kb)
	}
}

// Stable returns a sorted copy of items. Elements that compare equal keep
// their input order. items is not modified.
func Stable[T any](items []T, cmp Comparator[T]) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, cmp)
	return out
}

// IsSorted reports whether items are already in cmp order.
func IsSorted[T any](items []T, cmp Comparator[T]) bool {
	return slices.IsSortedFunc(items, cmp)
}

// SameOrder reports whether a and b hold the same elements in the same
// positions.
func SameOrder[T comparable](a, b []T) bool {
	return slices.Equal(a, b)
}
