// Package op provides the operator kernels that run inside tickflow
// subgraph bodies: stateless pull combinators, push-side pusherators, and
// stateful kernels (folds, joins, loop and tick operators) whose state
// cells are registered with the graph builder and reset by the scheduler
// at the declared lifespan boundary.
package op

import "iter"

// FromSlice exposes a batch as a pull iterator.
func FromSlice[T any](batch []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range batch {
			if !yield(v) {
				return
			}
		}
	}
}

// Collect drains a pull iterator into a slice.
func Collect[T any](in iter.Seq[T]) []T {
	var out []T
	for v := range in {
		out = append(out, v)
	}
	return out
}

// Map transforms every element.
func Map[T, U any](in iter.Seq[T], f func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range in {
			if !yield(f(v)) {
				return
			}
		}
	}
}

// Filter keeps elements matching pred.
func Filter[T any](in iter.Seq[T], pred func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range in {
			if pred(v) && !yield(v) {
				return
			}
		}
	}
}

// FilterMap transforms elements, dropping those for which f reports false.
func FilterMap[T, U any](in iter.Seq[T], f func(T) (U, bool)) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range in {
			if u, ok := f(v); ok {
				if !yield(u) {
					return
				}
			}
		}
	}
}

// Inspect calls f on every element without consuming it.
func Inspect[T any](in iter.Seq[T], f func(T)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range in {
			f(v)
			if !yield(v) {
				return
			}
		}
	}
}

// FlatMap expands every element into zero or more elements.
func FlatMap[T, U any](in iter.Seq[T], f func(T) []U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range in {
			for _, u := range f(v) {
				if !yield(u) {
					return
				}
			}
		}
	}
}

// Union concatenates two pulls: a drains fully before b starts. The drain
// order is part of the operator contract.
func Union[T any](a, b iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range a {
			if !yield(v) {
				return
			}
		}
		for v := range b {
			if !yield(v) {
				return
			}
		}
	}
}
