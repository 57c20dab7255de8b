package flow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/smallnest/tickflow/log"
)

// Builder constructs a dataflow graph: handoffs, state cells, loop
// contexts and subgraphs. Finalize validates the topology and returns the
// Runtime. A builder is single-use.
type Builder struct {
	rt        *Runtime
	finalized bool
	errs      []error
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		rt: &Runtime{
			id:     uuid.New().String(),
			name:   "tickflow",
			states: newStateStore(),
			loops:  newLoopRegistry(),
		},
	}
}

// SetName names the runtime for logs, traces and snapshots.
func (b *Builder) SetName(name string) {
	b.rt.name = name
}

func (b *Builder) addErr(op, subject string, err error) {
	b.errs = append(b.errs, &BuildError{Op: op, Subject: subject, Err: err})
}

// AddHandoff registers a typed handoff and returns its two port views.
// The send port goes to the producing subgraph's outputs, the recv port to
// the consuming subgraph's inputs.
func AddHandoff[T any](b *Builder, name string) (SendPort[T], RecvPort[T]) {
	h := &Handoff[T]{
		id:       HandoffID(len(b.rt.handoffs)),
		name:     name,
		consumer: -1,
	}
	b.rt.handoffs = append(b.rt.handoffs, &handoffRecord{
		name:     name,
		state:    h,
		producer: -1,
		consumer: -1,
	})
	return SendPort[T]{h: h}, RecvPort[T]{h: h}
}

// AddState registers a state cell with the given initializer and returns a
// typed handle. Cells default to the static lifespan; use SetStateLifespan
// or SetStateLoopLifespan to scope them.
func AddState[V any](b *Builder, init func() V) StateHandle[V] {
	id := b.rt.states.add(func() any {
		v := init()
		return &v
	})
	return StateHandle[V]{id: id}
}

// SetStateLifespan scopes a cell to the static, tick or subgraph lifespan.
// A subgraph-scoped cell binds to the subgraph that first borrows it. For
// loop scoping use SetStateLoopLifespan.
func (b *Builder) SetStateLifespan(s StateRef, kind LifespanKind) {
	if kind == LifespanLoop {
		b.addErr("SetStateLifespan", fmt.Sprintf("state %d", s.StateID()), ErrUnknownLoop)
		return
	}
	b.rt.states.setLifespan(s.StateID(), kind, NoLoop)
}

// SetStateLoopLifespan scopes a cell to a loop: the scheduler resets it
// when that loop finishes a run.
func (b *Builder) SetStateLoopLifespan(s StateRef, loop LoopID) {
	if !b.rt.loops.valid(loop) {
		b.addErr("SetStateLoopLifespan", fmt.Sprintf("state %d", s.StateID()), ErrUnknownLoop)
		return
	}
	b.rt.states.setLifespan(s.StateID(), LifespanLoop, loop)
}

// AddLoop creates a root loop context.
func (b *Builder) AddLoop() LoopID {
	return b.rt.loops.add(NoLoop)
}

// AddChildLoop creates a loop context nested inside parent.
func (b *Builder) AddChildLoop(parent LoopID) LoopID {
	if !b.rt.loops.valid(parent) {
		b.addErr("AddChildLoop", fmt.Sprintf("loop %d", parent), ErrUnknownLoop)
		return NoLoop
	}
	return b.rt.loops.add(parent)
}

// AddSubgraph registers a scheduling unit: a named body at the given
// stratum with its inbound and outbound handoffs. Options place the
// subgraph in a loop or mark it lazy.
func (b *Builder) AddSubgraph(name string, stratum int, inputs []RecvRef, outputs []SendRef, body Body, opts ...SubgraphOption) SubgraphID {
	sg := &SubgraphRecord{
		id:            SubgraphID(len(b.rt.subgraphs)),
		name:          name,
		stratum:       stratum,
		loop:          NoLoop,
		body:          body,
		lastTickFired: -1,
	}
	for _, opt := range opts {
		opt(sg)
	}

	if stratum < 0 {
		b.addErr("AddSubgraph", name, ErrNegativeStratum)
	}
	if sg.loop != NoLoop && !b.rt.loops.valid(sg.loop) {
		b.addErr("AddSubgraph", name, ErrUnknownLoop)
	}

	seen := make(map[HandoffID]bool, len(inputs))
	for _, in := range inputs {
		hid := in.HandoffID()
		rec := b.rt.handoffs[hid]
		if rec.consumer >= 0 {
			b.addErr("AddSubgraph", name, fmt.Errorf("%w: %s", ErrDuplicateConsumer, rec.name))
			continue
		}
		rec.consumer = sg.id
		sg.inputs = append(sg.inputs, hid)
		seen[hid] = true
	}
	for _, out := range outputs {
		hid := out.HandoffID()
		rec := b.rt.handoffs[hid]
		if seen[hid] {
			b.addErr("AddSubgraph", name, fmt.Errorf("%w: %s", ErrSelfLoopHandoff, rec.name))
		}
		if rec.producer >= 0 {
			b.addErr("AddSubgraph", name, fmt.Errorf("%w: %s", ErrDuplicateProducer, rec.name))
			continue
		}
		rec.producer = sg.id
		sg.outputs = append(sg.outputs, hid)
	}

	b.rt.subgraphs = append(b.rt.subgraphs, sg)
	if sg.loop != NoLoop && b.rt.loops.valid(sg.loop) {
		l := b.rt.loops.loops[sg.loop]
		l.subgraphs = append(l.subgraphs, sg.id)
	}
	return sg.id
}

// AssignMetaGraph attaches the serialized meta-graph document produced by
// the surface-language front-end. The runtime stores it for diagnostics;
// it does not affect execution.
func (b *Builder) AssignMetaGraph(serialized string) {
	b.rt.metaJSON = serialized
}

// AssignDiagnostics attaches serialized front-end diagnostics.
func (b *Builder) AssignDiagnostics(serialized string) {
	b.rt.diagnostics = serialized
}

// Finalize validates the topology and returns the runtime. Dangling
// handoffs, duplicate port wiring and cycles outside loop contexts are
// fatal here and never reach scheduling.
func (b *Builder) Finalize() (*Runtime, error) {
	if b.finalized {
		return nil, &BuildError{Op: "Finalize", Err: ErrFinalized}
	}
	b.finalized = true

	for _, rec := range b.rt.handoffs {
		if rec.consumer < 0 {
			b.addErr("Finalize", rec.name, ErrDanglingHandoff)
		}
	}
	b.checkCycles()

	if len(b.errs) > 0 {
		for _, err := range b.errs {
			log.Error("build failed: %v", err)
		}
		return nil, b.errs[0]
	}

	b.rt.finish()
	return b.rt, nil
}

// checkCycles rejects cyclic subgraph topologies whose members are not all
// inside loop contexts. Feedback edges are legal only under a loop marker.
func (b *Builder) checkCycles() {
	n := len(b.rt.subgraphs)
	adj := make([][]SubgraphID, n)
	for _, rec := range b.rt.handoffs {
		if rec.producer < 0 || rec.consumer < 0 {
			continue
		}
		// An edge from a higher stratum back to a lower one can only be
		// consumed in a later tick (defer_tick pattern); it cannot close a
		// cycle within a tick, so it is exempt from the loop-marker rule.
		if b.rt.subgraphs[rec.producer].stratum > b.rt.subgraphs[rec.consumer].stratum {
			continue
		}
		adj[rec.producer] = append(adj[rec.producer], rec.consumer)
	}

	// Tarjan strongly connected components.
	const unvisited = -1
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}
	var stack []int
	next := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if index[w] == unvisited {
				strongconnect(int(w))
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}

		if low[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				for _, m := range comp {
					if b.rt.subgraphs[m].loop == NoLoop {
						b.addErr("Finalize", b.rt.subgraphs[m].name,
							fmt.Errorf("cycle through subgraph outside any loop context"))
					}
				}
			}
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == unvisited {
			strongconnect(v)
		}
	}
}
