package op

import "github.com/smallnest/tickflow/flow"

// Pair is the two-element tuple emitted by joins.
type Pair[A, B any] struct {
	L A
	R B
}

// joinSide is one half of a symmetric hash join: the multiset of values
// seen so far, keyed, in first-seen key order for deterministic replay.
type joinSide[K comparable, V any] struct {
	m     map[K][]V
	order []K
}

func newJoinSide[K comparable, V any]() joinSide[K, V] {
	return joinSide[K, V]{m: make(map[K][]V)}
}

func (s *joinSide[K, V]) add(k K, v V) {
	if _, ok := s.m[k]; !ok {
		s.order = append(s.order, k)
	}
	s.m[k] = append(s.m[k], v)
}

// Join is a symmetric hash join. Each side's state cell holds the
// multiset of inputs by key. Emission per firing: first the new right
// inputs extend the right state, then every new left input pairs with the
// full right state, then every new right input pairs with the prior left
// state. With a Static lifespan the kernel additionally replays all
// retained matches on the first firing of each tick.
type Join[K comparable, A, B any] struct {
	lhs    flow.StateHandle[joinSide[K, A]]
	rhs    flow.StateHandle[joinSide[K, B]]
	replay bool
}

// NewJoin registers a join kernel. Lifespan scopes both half-states.
func NewJoin[K comparable, A, B any](b *flow.Builder, ls Lifespan) *Join[K, A, B] {
	return NewJoinSides[K, A, B](b, ls, ls)
}

// NewJoinSides registers a join kernel with per-side lifespans, for joins
// whose inputs live at different scopes (e.g. a reference side retained
// across an outer loop against a per-run probe side).
func NewJoinSides[K comparable, A, B any](b *flow.Builder, leftLs, rightLs Lifespan) *Join[K, A, B] {
	return &Join[K, A, B]{
		lhs:    addState(b, leftLs, newJoinSide[K, A]),
		rhs:    addState(b, rightLs, newJoinSide[K, B]),
		replay: leftLs.Kind() == flow.LifespanStatic && rightLs.Kind() == flow.LifespanStatic,
	}
}

// Run extends both sides with the firing's inputs and returns the new
// matches in deterministic order.
func (j *Join[K, A, B]) Run(ctx *flow.Context, left []KV[K, A], right []KV[K, B]) []KV[K, Pair[A, B]] {
	ls := j.lhs.Borrow(ctx)
	rs := j.rhs.Borrow(ctx)

	var out []KV[K, Pair[A, B]]

	if j.replay && ctx.IsFirstRunThisTick() {
		for _, k := range ls.order {
			for _, a := range ls.m[k] {
				for _, b := range rs.m[k] {
					out = append(out, KV[K, Pair[A, B]]{K: k, V: Pair[A, B]{L: a, R: b}})
				}
			}
		}
	}

	// Track the prior left extent per key so new-right matches skip the
	// pairs already produced against new-left values.
	oldLeft := make(map[K]int, len(ls.m))
	for k, vs := range ls.m {
		oldLeft[k] = len(vs)
	}

	for _, kv := range right {
		rs.add(kv.K, kv.V)
	}
	for _, kv := range left {
		for _, b := range rs.m[kv.K] {
			out = append(out, KV[K, Pair[A, B]]{K: kv.K, V: Pair[A, B]{L: kv.V, R: b}})
		}
		ls.add(kv.K, kv.V)
	}
	for _, k := range ls.order {
		n := oldLeft[k]
		if n == 0 {
			continue
		}
		for _, a := range ls.m[k][:n] {
			for _, kv := range right {
				if kv.K == k {
					out = append(out, KV[K, Pair[A, B]]{K: k, V: Pair[A, B]{L: a, R: kv.V}})
				}
			}
		}
	}
	return out
}

// CrossJoinMultiset pairs every left input with every right input seen in
// the current lifespan: a join under a constant unit key. Duplicate values
// on either side produce duplicate matches.
type CrossJoinMultiset[A, B any] struct {
	j *Join[struct{}, A, B]
}

// NewCrossJoinMultiset registers a multiset cross-join kernel.
func NewCrossJoinMultiset[A, B any](b *flow.Builder, ls Lifespan) *CrossJoinMultiset[A, B] {
	return NewCrossJoinMultisetSides[A, B](b, ls, ls)
}

// NewCrossJoinMultisetSides registers a multiset cross-join with per-side
// lifespans.
func NewCrossJoinMultisetSides[A, B any](b *flow.Builder, leftLs, rightLs Lifespan) *CrossJoinMultiset[A, B] {
	return &CrossJoinMultiset[A, B]{j: NewJoinSides[struct{}, A, B](b, leftLs, rightLs)}
}

// Run extends both sides and returns the new pairs, left-outer order.
func (c *CrossJoinMultiset[A, B]) Run(ctx *flow.Context, left []A, right []B) []Pair[A, B] {
	lkv := make([]KV[struct{}, A], len(left))
	for i, v := range left {
		lkv[i] = KV[struct{}, A]{V: v}
	}
	rkv := make([]KV[struct{}, B], len(right))
	for i, v := range right {
		rkv[i] = KV[struct{}, B]{V: v}
	}
	matches := c.j.Run(ctx, lkv, rkv)
	out := make([]Pair[A, B], len(matches))
	for i, m := range matches {
		out[i] = m.V
	}
	return out
}

// CrossJoin is the set-semantics cross join: duplicate inputs on a side
// are dropped before pairing, so every (left, right) combination is
// emitted at most once per lifespan.
type CrossJoin[A comparable, B comparable] struct {
	m     *CrossJoinMultiset[A, B]
	seenL flow.StateHandle[setState[A]]
	seenR flow.StateHandle[setState[B]]
}

// NewCrossJoin registers a set-semantics cross-join kernel.
func NewCrossJoin[A comparable, B comparable](b *flow.Builder, ls Lifespan) *CrossJoin[A, B] {
	return &CrossJoin[A, B]{
		m:     NewCrossJoinMultisetSides[A, B](b, ls, ls),
		seenL: addState(b, ls, newSetState[A]),
		seenR: addState(b, ls, newSetState[B]),
	}
}

// Run dedups both inputs, then pairs them.
func (c *CrossJoin[A, B]) Run(ctx *flow.Context, left []A, right []B) []Pair[A, B] {
	sl := c.seenL.Borrow(ctx)
	var freshL []A
	for _, v := range left {
		if _, dup := sl.s[v]; dup {
			continue
		}
		sl.s[v] = struct{}{}
		freshL = append(freshL, v)
	}
	sr := c.seenR.Borrow(ctx)
	var freshR []B
	for _, v := range right {
		if _, dup := sr.s[v]; dup {
			continue
		}
		sr.s[v] = struct{}{}
		freshR = append(freshR, v)
	}
	return c.m.Run(ctx, freshL, freshR)
}

// AntiJoin filters keyed positive inputs whose key appears in the negative
// input. The negative set is extended before the positive side is
// filtered, so a key arriving on both sides in one firing is suppressed.
type AntiJoin[K comparable, V any] struct {
	neg flow.StateHandle[setState[K]]
}

// NewAntiJoin registers an anti-join kernel; the lifespan scopes the
// negative set.
func NewAntiJoin[K comparable, V any](b *flow.Builder, ls Lifespan) *AntiJoin[K, V] {
	return &AntiJoin[K, V]{neg: addState(b, ls, newSetState[K])}
}

// Run extends the negative set with neg, then passes through the pos
// items whose key is absent from it.
func (a *AntiJoin[K, V]) Run(ctx *flow.Context, pos []KV[K, V], neg []K) []KV[K, V] {
	st := a.neg.Borrow(ctx)
	for _, k := range neg {
		st.s[k] = struct{}{}
	}
	var out []KV[K, V]
	for _, kv := range pos {
		if _, drop := st.s[kv.K]; !drop {
			out = append(out, kv)
		}
	}
	return out
}

// Difference emits positive items absent from the negative input; the
// unkeyed form of AntiJoin.
type Difference[T comparable] struct {
	neg flow.StateHandle[setState[T]]
}

// NewDifference registers a difference kernel.
func NewDifference[T comparable](b *flow.Builder, ls Lifespan) *Difference[T] {
	return &Difference[T]{neg: addState(b, ls, newSetState[T])}
}

// Run extends the negative set, then filters pos against it.
func (d *Difference[T]) Run(ctx *flow.Context, pos []T, neg []T) []T {
	st := d.neg.Borrow(ctx)
	for _, v := range neg {
		st.s[v] = struct{}{}
	}
	var out []T
	for _, v := range pos {
		if _, drop := st.s[v]; !drop {
			out = append(out, v)
		}
	}
	return out
}

type setState[T comparable] struct {
	s map[T]struct{}
}

func newSetState[T comparable]() setState[T] {
	return setState[T]{s: make(map[T]struct{})}
}

// Unique deduplicates within its lifespan, preserving first-seen order.
type Unique[T comparable] struct {
	seen flow.StateHandle[setState[T]]
}

// NewUnique registers a dedup kernel. PerFiring gives the per-firing hash
// set; Tick widens dedup to the tick.
func NewUnique[T comparable](b *flow.Builder, ls Lifespan) *Unique[T] {
	return &Unique[T]{seen: addState(b, ls, newSetState[T])}
}

// Run returns the batch with duplicates removed.
func (u *Unique[T]) Run(ctx *flow.Context, in []T) []T {
	st := u.seen.Borrow(ctx)
	var out []T
	for _, v := range in {
		if _, dup := st.s[v]; dup {
			continue
		}
		st.s[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
