package flow

import (
	"github.com/smallnest/tickflow/log"
)

// handoffRecord is the scheduler's untyped bookkeeping for one handoff.
type handoffRecord struct {
	name     string
	state    handoffState
	producer SubgraphID
	consumer SubgraphID
}

// Runtime executes a finalized dataflow graph. Scheduling is
// single-threaded and cooperative: one goroutine drives ticks, strata and
// loop iterations; determinism is a core guarantee.
type Runtime struct {
	id   string
	name string

	subgraphs []*SubgraphRecord
	handoffs  []*handoffRecord
	states    *stateStore
	loops     *loopRegistry

	// tick is the id of the tick currently being executed (0-based).
	tick int

	// loopOrder caches loop ids deepest-first for boundary settling.
	loopOrder []LoopID
	// loopSubtrees caches each loop's transitive subgraph set.
	loopSubtrees map[LoopID][]SubgraphID

	metaJSON    string
	diagnostics string

	snapshotVersion int

	tracer *Tracer
}

// ID returns the runtime instance id.
func (r *Runtime) ID() string { return r.id }

// Name returns the runtime name.
func (r *Runtime) Name() string { return r.name }

// CurrentTick returns the id of the tick being executed, or the id the
// next tick will carry when the runtime is idle.
func (r *Runtime) CurrentTick() int { return r.tick }

// SetTracer attaches a tracer for scheduler observability. Tracing never
// alters scheduling.
func (r *Runtime) SetTracer(t *Tracer) { r.tracer = t }

// Subgraphs returns the static subgraph records, in id order.
func (r *Runtime) Subgraphs() []*SubgraphRecord { return r.subgraphs }

// Diagnostics returns the serialized diagnostics assigned at build time.
func (r *Runtime) Diagnostics() string { return r.diagnostics }

// finish performs post-validation wiring: port attachment, initial
// schedule and loop caches. Called once by Builder.Finalize.
func (r *Runtime) finish() {
	for _, rec := range r.handoffs {
		rec.state.attach(r, rec.consumer)
	}
	for _, sg := range r.subgraphs {
		if !sg.lazy {
			sg.scheduled = true
		}
	}
	r.loopOrder = r.loops.byDepthDesc()
	r.loopSubtrees = make(map[LoopID][]SubgraphID, len(r.loops.loops))
	for i := range r.loops.loops {
		id := LoopID(i)
		r.loopSubtrees[id] = r.loops.subtreeSubgraphs(id, nil)
	}
	log.Debug("runtime %s finalized: %d subgraphs, %d handoffs, %d loops",
		r.name, len(r.subgraphs), len(r.handoffs), len(r.loops.loops))
}

// wake marks a subgraph ready within the current tick.
func (r *Runtime) wake(id SubgraphID) {
	if id >= 0 && int(id) < len(r.subgraphs) {
		r.subgraphs[id].scheduled = true
	}
}

func (r *Runtime) anyScheduledNow() bool {
	for _, sg := range r.subgraphs {
		if sg.scheduled {
			return true
		}
	}
	return false
}

func (r *Runtime) anyScheduledNext() bool {
	for _, sg := range r.subgraphs {
		if sg.scheduledNext {
			return true
		}
	}
	return false
}

// nextReady picks the ready subgraph with the lowest (stratum, id). The
// pick order, together with handoff FIFO, fixes the firing order and makes
// output streams reproducible.
func (r *Runtime) nextReady() *SubgraphRecord {
	var best *SubgraphRecord
	for _, sg := range r.subgraphs {
		if !sg.scheduled {
			continue
		}
		if best == nil || sg.stratum < best.stratum || (sg.stratum == best.stratum && sg.id < best.id) {
			best = sg
		}
	}
	return best
}

// RunTick executes exactly one tick: all strata run to quiescence in
// ascending order, loop iterations settle, then tick-scoped state resets.
// It reports whether any subgraph fired. A BodyPanic aborts the tick and
// is returned; the tick is not retried.
func (r *Runtime) RunTick() (bool, error) {
	if !r.anyScheduledNow() && !r.anyScheduledNext() {
		return false, nil
	}

	for _, sg := range r.subgraphs {
		if sg.scheduledNext {
			sg.scheduledNext = false
			sg.scheduled = true
		}
	}

	r.trace(TraceEventTickStart, nil)
	log.Debug("tick %d start", r.tick)

	work := false
	stratum := -1
	for {
		sg := r.nextReady()
		if sg == nil {
			break
		}
		if sg.stratum != stratum {
			if stratum >= 0 {
				r.trace(TraceEventStratumEnd, nil)
			}
			stratum = sg.stratum
			r.trace(TraceEventStratumStart, sg)
			log.Debug("tick %d stratum %d", r.tick, stratum)
		}
		if err := r.fire(sg); err != nil {
			log.Error("tick %d aborted: %v", r.tick, err)
			return work, err
		}
		work = true
	}
	if stratum >= 0 {
		r.trace(TraceEventStratumEnd, nil)
	}

	r.states.resetTickScoped()
	r.trace(TraceEventTickEnd, nil)
	log.Debug("tick %d end", r.tick)
	r.tick++
	return work, nil
}

// RunAvailable runs ticks until no ready work remains, then returns. The
// caller decides whether to keep driving (e.g. after feeding async
// sources).
func (r *Runtime) RunAvailable() error {
	for {
		work, err := r.RunTick()
		if err != nil {
			return err
		}
		if !work {
			return nil
		}
		if !r.anyScheduledNow() && !r.anyScheduledNext() {
			return nil
		}
	}
}

// fire executes one subgraph: run the body, release state borrows, reset
// subgraph-scoped state, then settle loop iteration boundaries.
func (r *Runtime) fire(sg *SubgraphRecord) error {
	sg.scheduled = false
	ctx := &Context{rt: r, sg: sg}

	span := r.traceStart(TraceEventSubgraphStart, sg)
	err := r.runBody(sg, ctx)
	sg.lastTickFired = r.tick
	r.states.releaseBorrows()
	r.traceEnd(span, err)
	if err != nil {
		return err
	}

	r.states.resetSubgraphScoped(sg.id)
	r.trace(TraceEventStateReset, sg)

	if sg.loop != NoLoop {
		for lp := sg.loop; lp != NoLoop; lp = r.loops.loops[lp].parent {
			l := r.loops.loops[lp]
			l.active = true
			l.firedSinceBoundary = true
		}
	}
	r.settleLoops()
	return nil
}

func (r *Runtime) runBody(sg *SubgraphRecord, ctx *Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &BodyPanic{Subgraph: sg.name, Stratum: sg.stratum, Tick: r.tick, Value: p}
		}
	}()
	sg.body(ctx)
	return nil
}

// subtreeReady reports whether any subgraph inside the loop subtree is
// still scheduled for the current tick.
func (r *Runtime) subtreeReady(id LoopID) bool {
	for _, sgid := range r.loopSubtrees[id] {
		if r.subgraphs[sgid].scheduled {
			return true
		}
	}
	return false
}

func (r *Runtime) anyDescendantActive(id LoopID) bool {
	for _, c := range r.loops.loops[id].children {
		l := r.loops.loops[c]
		if l.active || r.anyDescendantActive(c) {
			return true
		}
	}
	return false
}

// settleLoops evaluates iteration boundaries, deepest loops first. A
// boundary is reached when no subgraph in the loop subtree is ready:
// reschedule advances the iteration and re-fires the requesters; a pending
// allow-another signal advances the counter and leaves the run dormant;
// otherwise the run ends, children before parents.
func (r *Runtime) settleLoops() {
	for _, id := range r.loopOrder {
		l := r.loops.loops[id]
		if !l.active || !l.firedSinceBoundary {
			continue
		}
		if r.subtreeReady(id) {
			continue
		}
		switch {
		case l.wantReschedule:
			l.iterCount++
			l.wantReschedule = false
			reqs := l.rescheduleRequests
			l.rescheduleRequests = nil
			l.firedSinceBoundary = false
			for _, sgid := range reqs {
				r.wake(sgid)
			}
			r.traceLoop(TraceEventLoopIteration, id)
			log.Debug("loop %d iteration %d", id, l.iterCount)
		case l.allowAnother:
			l.iterCount++
			l.allowAnother = false
			l.firedSinceBoundary = false
			log.Debug("loop %d dormant at iteration %d", id, l.iterCount)
		case r.anyDescendantActive(id):
			l.firedSinceBoundary = false
		default:
			r.endLoopRun(id)
		}
	}
}

// endLoopRun completes a loop run: descendant runs end first, then the
// counter resets and loop-scoped state clears.
func (r *Runtime) endLoopRun(id LoopID) {
	l := r.loops.loops[id]
	for _, c := range l.children {
		if r.loops.loops[c].active {
			r.endLoopRun(c)
		}
	}
	l.iterCount = 0
	l.active = false
	l.wantReschedule = false
	l.allowAnother = false
	l.firedSinceBoundary = false
	l.rescheduleRequests = nil
	r.states.resetLoopScoped(id)
	r.traceLoop(TraceEventLoopRunEnd, id)
	log.Debug("loop %d run end", id)
}
