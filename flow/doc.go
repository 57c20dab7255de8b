// Package flow is the tickflow execution engine: a single-threaded,
// deterministic dataflow runtime that fires statically-compiled subgraphs
// organized into strata, ticks and nested loop contexts.
//
// # Model
//
// A graph is built once through a Builder: typed handoffs connect pairs of
// subgraphs, state cells carry operator-private accumulators with declared
// lifespans, and loop contexts scope iteration. Finalize validates the
// topology (dangling handoffs, duplicate port wiring, cycles outside loop
// markers are fatal) and returns a Runtime.
//
// The scheduler runs strata in ascending order, repeating each stratum
// until quiescent, then advances the tick. A subgraph is ready when it has
// no inputs, when an inbound handoff is non-empty, or when it requested a
// reschedule in its owning loop. Within a tick the firing order is fully
// determined by (stratum, subgraph id) and handoff FIFO, so two runs with
// identical inputs produce identical output sequences.
//
// Loops form a tree. An iteration boundary is reached when the loop
// subtree quiesces: a reschedule request advances the iteration counter
// and re-fires the requesters; an allow-another-iteration signal keeps the
// run open for later input; otherwise the run ends, children before
// parents, and loop-scoped state resets.
//
// # Bodies
//
// A subgraph body is a fused pull-push operator chain: drain each inbound
// port exactly once, run the chain through a single pivot, push to the
// outbound ports, and declare rescheduling intent on the Context before
// returning. Operator kernels live in the op package.
//
// # Example
//
//	b := flow.NewBuilder()
//	send, recv := flow.AddHandoff[int](b, "numbers")
//
//	src := op.NewSourceIter(1, 2, 3)
//	b.AddSubgraph("source", 0, nil, []flow.SendRef{send}, func(ctx *flow.Context) {
//	    send.GiveMany(src.Run(ctx)...)
//	})
//
//	var got []int
//	b.AddSubgraph("sink", 0, []flow.RecvRef{recv}, nil, func(ctx *flow.Context) {
//	    got = append(got, recv.Take()...)
//	})
//
//	rt, err := b.Finalize()
//	if err != nil {
//	    return err
//	}
//	if err := rt.RunAvailable(); err != nil {
//	    return err
//	}
package flow
