package helpers

import "sort"

// CopyOf returns a shallow copy of a slice. A nil slice stays nil.
func CopyOf[V any](s []V) []V {
	if s == nil {
		return nil
	}
	return append(make([]V, 0, len(s)), s...)
}

// IfElse returns valueIfTrue or valueIfFalse depending on isTrue.
func IfElse[V any](isTrue bool, valueIfTrue, valueIfFalse V) V {
	if isTrue {
		return valueIfTrue
	}
	return valueIfFalse
}

// Sorted returns a sorted copy of a string slice.
func Sorted(s []string) []string {
	ret := CopyOf(s)
	sort.Strings(ret)
	return ret
}
