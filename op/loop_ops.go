package op

import "github.com/smallnest/tickflow/flow"

// Batch exposes the current inbound batch to a loop iteration and keeps
// the run open when items were delivered (upstream may send more, possibly
// in a later tick). Outside a loop it is a pass-through.
type Batch[T any] struct{}

// NewBatch creates a batch kernel. It is stateless; the constructor exists
// for symmetry with the other kernels.
func NewBatch[T any]() *Batch[T] {
	return &Batch[T]{}
}

// Run yields the batch and signals allow-another-iteration when non-empty.
func (bt *Batch[T]) Run(ctx *flow.Context, in []T) []T {
	if ctx.InLoop() && len(in) > 0 {
		ctx.AllowAnotherIteration()
	}
	return in
}

// Prefix accumulates loop inputs into a growing vector and yields the
// prefix-so-far each iteration. The vector clears when the run ends.
type Prefix[T any] struct {
	st flow.StateHandle[[]T]
}

// NewPrefix registers a prefix kernel scoped to the given loop.
func NewPrefix[T any](b *flow.Builder, loop flow.LoopID) *Prefix[T] {
	return &Prefix[T]{st: addState(b, PerLoop(loop), func() []T { return nil })}
}

// Run appends the batch and returns a copy of the accumulated prefix.
func (p *Prefix[T]) Run(ctx *flow.Context, in []T) []T {
	st := p.st.Borrow(ctx)
	*st = append(*st, in...)
	out := make([]T, len(*st))
	copy(out, *st)
	if ctx.InLoop() && len(in) > 0 {
		ctx.AllowAnotherIteration()
	}
	return out
}

// RepeatN snapshots the run's iteration-0 input and re-emits a copy of the
// snapshot on each of N iterations, requesting reschedule until the last
// one. The snapshot clears when the run ends, so each run (e.g. per outer
// batch) captures fresh input.
type RepeatN[T any] struct {
	st flow.StateHandle[[]T]
	n  int
}

// NewRepeatN registers a repeat kernel scoped to the given loop.
func NewRepeatN[T any](b *flow.Builder, loop flow.LoopID, n int) *RepeatN[T] {
	return &RepeatN[T]{
		st: addState(b, PerLoop(loop), func() []T { return nil }),
		n:  n,
	}
}

// Run returns the snapshot copy for this iteration.
func (r *RepeatN[T]) Run(ctx *flow.Context, in []T) []T {
	st := r.st.Borrow(ctx)
	if ctx.LoopIterCount() == 0 {
		*st = append(*st, in...)
	}
	if ctx.LoopIterCount()+1 < r.n {
		ctx.RescheduleLoopBlock()
	}
	out := make([]T, len(*st))
	copy(out, *st)
	return out
}

// AllOnce yields its input only during iteration 0 of a run and
// suppresses it afterwards.
type AllOnce[T any] struct{}

// NewAllOnce creates the kernel.
func NewAllOnce[T any]() *AllOnce[T] {
	return &AllOnce[T]{}
}

// Run passes the batch through on iteration 0 only.
func (a *AllOnce[T]) Run(ctx *flow.Context, in []T) []T {
	if ctx.LoopIterCount() == 0 {
		return in
	}
	return nil
}

// NextIteration holds items received during an iteration and releases them
// at the following iteration, blocking the bootstrap round: nothing is
// yielded while the iteration counter is 0. Used on feedback edges that
// turn this iteration's outputs into the next iteration's inputs.
type NextIteration[T any] struct {
	st flow.StateHandle[nextIterState[T]]
}

type nextIterState[T any] struct {
	held     []T
	heldIter int
}

// NewNextIteration registers the kernel scoped to the given loop.
func NewNextIteration[T any](b *flow.Builder, loop flow.LoopID) *NextIteration[T] {
	return &NextIteration[T]{
		st: addState(b, PerLoop(loop), func() nextIterState[T] { return nextIterState[T]{heldIter: -1} }),
	}
}

// Run buffers the batch for the next iteration and releases items buffered
// during earlier iterations once the counter is past 0.
func (n *NextIteration[T]) Run(ctx *flow.Context, in []T) []T {
	st := n.st.Borrow(ctx)
	iter := ctx.LoopIterCount()

	var out []T
	if iter > 0 && len(st.held) > 0 && st.heldIter < iter {
		out = st.held
		st.held = nil
	}
	if len(in) > 0 {
		st.held = append(st.held, in...)
		st.heldIter = iter
		// Held items need another iteration to be delivered.
		ctx.RescheduleLoopBlock()
	}
	return out
}

// AllIterations moves a loop-scoped stream to the enclosing scope: the
// per-iteration outputs leave the loop in iteration order, so the consumer
// observes the concatenation across the whole run.
type AllIterations[T any] struct{}

// NewAllIterations creates the kernel.
func NewAllIterations[T any]() *AllIterations[T] {
	return &AllIterations[T]{}
}

// Run passes the iteration's batch through unchanged.
func (a *AllIterations[T]) Run(ctx *flow.Context, in []T) []T {
	return in
}
