package slices

import "sort"

// convert slice to other slice, with mapper function.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for i, v := range sli {
		ret[i] = mapper(v)
	}
	return ret
}

// convert slice to slice of pointers to its elements.
func RefOf[T any](sli []T) []*T {
	return Map(sli, func(v T) *T { return &v })
}

// convert slice of pointers to slice of their values.
func DerefOf[T any](sli []*T) []T {
	return Map(sli, func(v *T) T { return *v })
}

// convert slice with mapper function which can fail.
//
// This stops at the first error, and returns
// the mapped prefix built so far along with the error.
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, 0, len(sli))
	for _, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return ret, err
		}
		ret = append(ret, r)
	}
	return ret, nil
}

// build map from slice. key is given by getkey function.
//
// When keys conflict, the last element wins.
func ToMap[T any, K comparable](sli []T, getkey func(v T) K) map[K]T {
	ret := make(map[K]T, len(sli))
	for _, v := range sli {
		ret[getkey(v)] = v
	}
	return ret
}

// build multimap (map of slices) from slice.
func ToMultiMap[T any, K comparable, R any](sli []T, pair func(v T) (K, R)) map[K][]R {
	ret := map[K][]R{}
	for _, v := range sli {
		k, r := pair(v)
		ret[k] = append(ret[k], r)
	}
	return ret
}

// collect keys of map. ordering is not stable.
func KeysOf[T any, K comparable](m map[K]T) []K {
	ret := make([]K, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	return ret
}

// collect values of map. ordering is not stable.
func ValuesOf[T any, K comparable](m map[K]T) []T {
	ret := make([]T, 0, len(m))
	for _, v := range m {
		ret = append(ret, v)
	}
	return ret
}

// pick up elements satisfying predicator.
func Filter[T any](vs []T, predicator func(T) bool) []T {
	ret := []T{}
	for _, v := range vs {
		if predicator(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// find the first element satisfying predicator.
//
// Returns
//
// - T: found element (or zero value)
//
// - bool: true when found
func First[T any](sli []T, predicator func(T) bool) (T, bool) {
	for _, v := range sli {
		if predicator(v) {
			return v, true
		}
	}
	return *new(T), false
}

// return new sorted slice. the given one is kept unchanged.
func Sorted[T any](sli []T, less func(a, b T) bool) []T {
	ret := make([]T, len(sli))
	copy(ret, sli)
	sort.Slice(ret, func(i, j int) bool { return less(ret[i], ret[j]) })
	return ret
}

// concatenate slices into new one.
func Concat[T any](sli ...[]T) []T {
	l := 0
	for _, s := range sli {
		l += len(s)
	}
	ret := make([]T, 0, l)
	for _, s := range sli {
		ret = append(ret, s...)
	}
	return ret
}

// split slice into (match, notmatch) by predicator.
func Group[T any](s []T, p func(T) bool) (match []T, notmatch []T) {
	match = []T{}
	notmatch = []T{}
	for _, v := range s {
		if p(v) {
			match = append(match, v)
		} else {
			notmatch = append(notmatch, v)
		}
	}
	return
}
