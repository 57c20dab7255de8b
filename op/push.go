package op

import "iter"

// Pusherator is the push side of a fused operator chain: a sink that
// accepts one element at a time.
type Pusherator[T any] func(T)

// Pivot runs a pull chain into a push chain to completion. Every subgraph
// body is a pull-then-push pipeline with a single pivot.
func Pivot[T any](in iter.Seq[T], out Pusherator[T]) {
	for v := range in {
		out(v)
	}
}

// Tee fans each element out to every downstream pusherator, in order.
func Tee[T any](downstream ...Pusherator[T]) Pusherator[T] {
	return func(v T) {
		for _, d := range downstream {
			d(v)
		}
	}
}

// PushMap transforms elements on the push side.
func PushMap[T, U any](f func(T) U, next Pusherator[U]) Pusherator[T] {
	return func(v T) { next(f(v)) }
}

// PushFilter drops elements not matching pred on the push side.
func PushFilter[T any](pred func(T) bool, next Pusherator[T]) Pusherator[T] {
	return func(v T) {
		if pred(v) {
			next(v)
		}
	}
}

// ForEach terminates a push chain with a side-effecting sink.
func ForEach[T any](f func(T)) Pusherator[T] {
	return Pusherator[T](f)
}

// AppendTo terminates a push chain by appending into a slice.
func AppendTo[T any](dst *[]T) Pusherator[T] {
	return func(v T) { *dst = append(*dst, v) }
}
