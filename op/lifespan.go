package op

import "github.com/smallnest/tickflow/flow"

// Lifespan selects when the scheduler resets a kernel's state cell. The
// three accumulator flavors map onto it: PerFiring is the transient
// variant (forget after each firing), PerLoop retains across iterations of
// one loop run, Tick and Static retain longer.
type Lifespan struct {
	kind flow.LifespanKind
	loop flow.LoopID
}

// Static never clears kernel state.
func Static() Lifespan { return Lifespan{kind: flow.LifespanStatic} }

// Tick clears kernel state at every tick boundary.
func Tick() Lifespan { return Lifespan{kind: flow.LifespanTick} }

// PerFiring clears kernel state after each firing of the owning subgraph.
func PerFiring() Lifespan { return Lifespan{kind: flow.LifespanSubgraph} }

// PerLoop clears kernel state when the given loop finishes a run.
func PerLoop(loop flow.LoopID) Lifespan {
	return Lifespan{kind: flow.LifespanLoop, loop: loop}
}

// Kind returns the underlying lifespan kind.
func (l Lifespan) Kind() flow.LifespanKind { return l.kind }

// addState registers a cell with the lifespan applied.
func addState[V any](b *flow.Builder, ls Lifespan, init func() V) flow.StateHandle[V] {
	h := flow.AddState(b, init)
	if ls.kind == flow.LifespanLoop {
		b.SetStateLoopLifespan(h, ls.loop)
	} else {
		b.SetStateLifespan(h, ls.kind)
	}
	return h
}
