package op

import "github.com/smallnest/tickflow/flow"

// Persist retains every item it has seen and replays the full retained
// set on the first firing of each tick; within a tick, later firings emit
// only the fresh items.
type Persist[T any] struct {
	st flow.StateHandle[[]T]
}

// NewPersist registers a persist kernel; state is static by definition.
func NewPersist[T any](b *flow.Builder) *Persist[T] {
	return &Persist[T]{st: addState(b, Static(), func() []T { return nil })}
}

// Run appends the batch to the retained set and returns either the whole
// set (first firing of the tick) or just the batch.
func (p *Persist[T]) Run(ctx *flow.Context, in []T) []T {
	st := p.st.Borrow(ctx)
	*st = append(*st, in...)
	if ctx.IsFirstRunThisTick() {
		out := make([]T, len(*st))
		copy(out, *st)
		return out
	}
	return in
}

// Delta emits only items never seen before, suppressing replays. Pairing
// a Persist with a Delta is the per-tick identity on a bounded source.
type Delta[T comparable] struct {
	seen flow.StateHandle[setState[T]]
}

// NewDelta registers a delta kernel; the seen-set is static.
func NewDelta[T comparable](b *flow.Builder) *Delta[T] {
	return &Delta[T]{seen: addState(b, Static(), newSetState[T])}
}

// Run returns the never-seen items of the batch, in order.
func (d *Delta[T]) Run(ctx *flow.Context, in []T) []T {
	st := d.seen.Borrow(ctx)
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

// NewUnpersist registers the inverse of Persist: it drops replayed items,
// keeping only those first delivered in the current tick. It is the Delta
// kernel under its tick-operator name.
func NewUnpersist[T comparable](b *flow.Builder) *Delta[T] {
	return NewDelta[T](b)
}

// DeferTick holds this tick's inputs and releases them as the next tick's
// output, scheduling the owning subgraph for that tick.
type DeferTick[T any] struct {
	st flow.StateHandle[deferState[T]]
}

type deferState[T any] struct {
	held     []T
	heldTick int
}

// NewDeferTick registers a defer kernel; the held buffer is static (it
// crosses the tick boundary by design).
func NewDeferTick[T any](b *flow.Builder) *DeferTick[T] {
	return &DeferTick[T]{
		st: addState(b, Static(), func() deferState[T] { return deferState[T]{heldTick: -1} }),
	}
}

// Run releases items held from earlier ticks, buffers the current batch,
// and defers the subgraph's scheduling while items are pending.
func (d *DeferTick[T]) Run(ctx *flow.Context, in []T) []T {
	st := d.st.Borrow(ctx)

	var out []T
	if len(st.held) > 0 && st.heldTick < ctx.CurrentTick() {
		out = st.held
		st.held = nil
	}
	if len(in) > 0 {
		st.held = append(st.held, in...)
		st.heldTick = ctx.CurrentTick()
	}
	if len(st.held) > 0 {
		ctx.DeferSchedule()
	}
	return out
}
