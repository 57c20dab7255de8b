package flow

// loopRecord tracks one loop context: its place in the loop tree, the
// iteration counter for the current run, and the flags operator bodies set
// to steer the termination rule.
type loopRecord struct {
	id       LoopID
	parent   LoopID
	children []LoopID
	depth    int

	// subgraphs directly owned by this loop.
	subgraphs []SubgraphID

	// iterCount is the number of iterations completed in the current run;
	// bodies observe 0 during the first iteration.
	iterCount int

	// active is set from the first firing of a run until onRunEnd.
	active bool

	// wantReschedule requests another iteration after the current one.
	wantReschedule bool

	// rescheduleRequests lists the subgraphs to re-fire when the iteration
	// advances via wantReschedule.
	rescheduleRequests []SubgraphID

	// allowAnother signals that upstream may deliver more items; it keeps
	// the run open (dormant) without forcing an immediate re-fire.
	allowAnother bool

	// firedSinceBoundary gates boundary evaluation: a boundary decision is
	// made only after at least one firing since the previous decision.
	firedSinceBoundary bool
}

// loopRegistry is the tree of loop contexts for one runtime.
type loopRegistry struct {
	loops []*loopRecord
}

func newLoopRegistry() *loopRegistry {
	return &loopRegistry{}
}

func (lr *loopRegistry) add(parent LoopID) LoopID {
	id := LoopID(len(lr.loops))
	depth := 0
	if parent != NoLoop {
		p := lr.loops[parent]
		p.children = append(p.children, id)
		depth = p.depth + 1
	}
	lr.loops = append(lr.loops, &loopRecord{
		id:     id,
		parent: parent,
		depth:  depth,
	})
	return id
}

func (lr *loopRegistry) valid(id LoopID) bool {
	return id >= 0 && int(id) < len(lr.loops)
}

func (lr *loopRegistry) iterCount(id LoopID) int {
	return lr.loops[id].iterCount
}

// subtreeSubgraphs collects the subgraphs of the loop and its descendants.
func (lr *loopRegistry) subtreeSubgraphs(id LoopID, out []SubgraphID) []SubgraphID {
	l := lr.loops[id]
	out = append(out, l.subgraphs...)
	for _, c := range l.children {
		out = lr.subtreeSubgraphs(c, out)
	}
	return out
}

// byDepthDesc returns loop ids ordered deepest first, so boundary checks
// and run-end cascades always settle children before parents.
func (lr *loopRegistry) byDepthDesc() []LoopID {
	ids := make([]LoopID, len(lr.loops))
	for i := range lr.loops {
		ids[i] = LoopID(i)
	}
	// insertion sort; loop counts are tiny
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && lr.loops[ids[j]].depth > lr.loops[ids[j-1]].depth; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}
