package flow

// LifespanKind declares when the scheduler resets a state cell back to its
// initial value.
type LifespanKind int

const (
	// LifespanStatic never clears the cell.
	LifespanStatic LifespanKind = iota
	// LifespanTick clears the cell at every tick boundary.
	LifespanTick
	// LifespanSubgraph clears the cell after each firing of the owning
	// subgraph. The owner is bound on the cell's first borrow.
	LifespanSubgraph
	// LifespanLoop clears the cell when the scoped loop finishes a run.
	LifespanLoop
)

// String returns the lifespan kind name.
func (k LifespanKind) String() string {
	switch k {
	case LifespanStatic:
		return "static"
	case LifespanTick:
		return "tick"
	case LifespanSubgraph:
		return "subgraph"
	case LifespanLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// stateCell holds one operator-private value together with its reset rule.
type stateCell struct {
	id     StateID
	value  any
	kind   LifespanKind
	loop   LoopID     // scope for LifespanLoop
	owner  SubgraphID // scope for LifespanSubgraph, -1 until bound
	reinit func() any

	borrowed   bool
	borrowedBy string
}

// stateStore is the process-local registry of state cells for one runtime.
type stateStore struct {
	cells []*stateCell
}

func newStateStore() *stateStore {
	return &stateStore{}
}

func (s *stateStore) add(init func() any) StateID {
	id := StateID(len(s.cells))
	s.cells = append(s.cells, &stateCell{
		id:     id,
		value:  init(),
		kind:   LifespanStatic,
		loop:   NoLoop,
		owner:  -1,
		reinit: init,
	})
	return id
}

func (s *stateStore) setLifespan(id StateID, kind LifespanKind, loop LoopID) {
	c := s.cells[id]
	c.kind = kind
	c.loop = loop
	c.owner = -1
}

// borrow marks the cell borrowed for the current firing and returns its value.
// A second borrow within the same firing raises StateBorrowConflict.
func (s *stateStore) borrow(id StateID, sg *SubgraphRecord) any {
	c := s.cells[id]
	if c.borrowed {
		panic(&StateBorrowConflict{State: id, Subgraph: c.borrowedBy})
	}
	c.borrowed = true
	c.borrowedBy = sg.name
	if c.kind == LifespanSubgraph && c.owner < 0 {
		c.owner = sg.id
	}
	return c.value
}

// releaseBorrows clears borrow flags at the end of a firing.
func (s *stateStore) releaseBorrows() {
	for _, c := range s.cells {
		c.borrowed = false
		c.borrowedBy = ""
	}
}

func (s *stateStore) reset(id StateID) {
	c := s.cells[id]
	c.value = c.reinit()
}

// resetSubgraphScoped resets every cell owned by sg. Called after each
// firing of sg.
func (s *stateStore) resetSubgraphScoped(sg SubgraphID) {
	for _, c := range s.cells {
		if c.kind == LifespanSubgraph && c.owner == sg {
			c.value = c.reinit()
		}
	}
}

// resetLoopScoped resets every cell scoped to the given loop. Called when
// that loop ends a run; the caller handles descendant loops.
func (s *stateStore) resetLoopScoped(loop LoopID) {
	for _, c := range s.cells {
		if c.kind == LifespanLoop && c.loop == loop {
			c.value = c.reinit()
		}
	}
}

// resetTickScoped resets every tick-lifespan cell. Called at tick boundaries.
func (s *stateStore) resetTickScoped() {
	for _, c := range s.cells {
		if c.kind == LifespanTick {
			c.value = c.reinit()
		}
	}
}

// StateHandle is a typed reference to a state cell. Handles are created at
// build time with AddState and borrowed inside subgraph bodies.
type StateHandle[V any] struct {
	id StateID
}

// StateID returns the id of the referenced cell.
func (h StateHandle[V]) StateID() StateID { return h.id }

// StateRef is any typed state handle, used by builder lifespan setters.
type StateRef interface {
	StateID() StateID
}

// Borrow returns the cell's value for mutation during the current firing.
// At most one borrow of a cell may exist per firing; the runtime clears
// borrows when the firing returns.
func (h StateHandle[V]) Borrow(ctx *Context) *V {
	return ctx.rt.states.borrow(h.id, ctx.sg).(*V)
}
