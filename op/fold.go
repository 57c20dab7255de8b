package op

import "github.com/smallnest/tickflow/flow"

// Fold accumulates inputs into a state cell and emits exactly one value
// per firing: a copy of the current accumulator. The lifespan picks the
// accumulator flavor: PerFiring forgets after each firing, PerLoop retains
// across iterations of a loop run, Tick/Static retain longer.
type Fold[T, A any] struct {
	st flow.StateHandle[A]
	fn func(A, T) A
}

// NewFold registers a fold kernel with the given lifespan, initial
// accumulator and combining function.
func NewFold[T, A any](b *flow.Builder, ls Lifespan, init func() A, fn func(A, T) A) *Fold[T, A] {
	return &Fold[T, A]{st: addState(b, ls, init), fn: fn}
}

// Run folds the batch into the accumulator and returns its current value.
func (f *Fold[T, A]) Run(ctx *flow.Context, in []T) A {
	acc := f.st.Borrow(ctx)
	for _, v := range in {
		*acc = f.fn(*acc, v)
	}
	return *acc
}

// NewFoldCommutative registers a fold whose combining function is
// commutative: the result is independent of the firing order within a
// stratum. The kernel is identical to NewFold; the constructor documents
// the algebraic contract at the call site.
func NewFoldCommutative[T, A any](b *flow.Builder, ls Lifespan, init func() A, fn func(A, T) A) *Fold[T, A] {
	return NewFold(b, ls, init, fn)
}

// Reduce is a fold whose accumulator is the element type; it emits nothing
// until the first input arrives.
type Reduce[T any] struct {
	st flow.StateHandle[reduceState[T]]
	fn func(T, T) T
}

type reduceState[T any] struct {
	val T
	ok  bool
}

// NewReduce registers a reduce kernel with the given lifespan.
func NewReduce[T any](b *flow.Builder, ls Lifespan, fn func(T, T) T) *Reduce[T] {
	return &Reduce[T]{
		st: addState(b, ls, func() reduceState[T] { return reduceState[T]{} }),
		fn: fn,
	}
}

// Run reduces the batch into the accumulator. It returns the accumulator
// value and whether any input has been seen in the current lifespan.
func (r *Reduce[T]) Run(ctx *flow.Context, in []T) (T, bool) {
	st := r.st.Borrow(ctx)
	for _, v := range in {
		if !st.ok {
			st.val = v
			st.ok = true
			continue
		}
		st.val = r.fn(st.val, v)
	}
	return st.val, st.ok
}

// KV is a keyed value, the element type of keyed aggregations and joins.
type KV[K comparable, V any] struct {
	K K
	V V
}

// keyedState keeps a map plus first-seen key order so emission stays
// deterministic across runs.
type keyedState[K comparable, A any] struct {
	m     map[K]A
	order []K
}

func newKeyedState[K comparable, A any]() keyedState[K, A] {
	return keyedState[K, A]{m: make(map[K]A)}
}

// FoldKeyed accumulates per-key and emits one (key, accumulator) pair per
// key per firing, in first-seen key order.
type FoldKeyed[K comparable, T, A any] struct {
	st   flow.StateHandle[keyedState[K, A]]
	init func() A
	fn   func(A, T) A
}

// NewFoldKeyed registers a keyed fold kernel.
func NewFoldKeyed[K comparable, T, A any](b *flow.Builder, ls Lifespan, init func() A, fn func(A, T) A) *FoldKeyed[K, T, A] {
	return &FoldKeyed[K, T, A]{
		st:   addState(b, ls, newKeyedState[K, A]),
		init: init,
		fn:   fn,
	}
}

// Run folds the batch and drains the map: one pair per key.
func (f *FoldKeyed[K, T, A]) Run(ctx *flow.Context, in []KV[K, T]) []KV[K, A] {
	st := f.st.Borrow(ctx)
	for _, kv := range in {
		acc, ok := st.m[kv.K]
		if !ok {
			acc = f.init()
			st.order = append(st.order, kv.K)
		}
		st.m[kv.K] = f.fn(acc, kv.V)
	}
	out := make([]KV[K, A], 0, len(st.order))
	for _, k := range st.order {
		out = append(out, KV[K, A]{K: k, V: st.m[k]})
	}
	return out
}

// ReduceKeyed is a keyed reduce: the accumulator is the value type.
type ReduceKeyed[K comparable, V any] struct {
	st flow.StateHandle[keyedState[K, V]]
	fn func(V, V) V
}

// NewReduceKeyed registers a keyed reduce kernel.
func NewReduceKeyed[K comparable, V any](b *flow.Builder, ls Lifespan, fn func(V, V) V) *ReduceKeyed[K, V] {
	return &ReduceKeyed[K, V]{
		st: addState(b, ls, newKeyedState[K, V]),
		fn: fn,
	}
}

// Run reduces the batch and drains the map: one pair per key.
func (r *ReduceKeyed[K, V]) Run(ctx *flow.Context, in []KV[K, V]) []KV[K, V] {
	st := r.st.Borrow(ctx)
	for _, kv := range in {
		if acc, ok := st.m[kv.K]; ok {
			st.m[kv.K] = r.fn(acc, kv.V)
		} else {
			st.m[kv.K] = kv.V
			st.order = append(st.order, kv.K)
		}
	}
	out := make([]KV[K, V], 0, len(st.order))
	for _, k := range st.order {
		out = append(out, KV[K, V]{K: k, V: st.m[k]})
	}
	return out
}
