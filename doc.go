// Tickflow - A Deterministic Streaming Dataflow Runtime in Go
//
// Tickflow executes statically-compiled graphs of streaming operators
// organized into subgraphs, strata, ticks and nested loop contexts.
// Producers deliver values through double-buffered handoffs; each subgraph
// is a scheduling unit that, when fired, pulls from its inbound handoffs,
// runs a fused pull-push pipeline of operators, and pushes to its outbound
// handoffs. Scheduling is single-threaded and cooperative, and the output
// stream of a graph is reproducible for a given input sequence.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/tickflow
//
// Basic example:
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/smallnest/tickflow/flow"
//		"github.com/smallnest/tickflow/op"
//	)
//
//	func main() {
//		b := flow.NewBuilder()
//		send, recv := flow.AddHandoff[int](b, "numbers")
//
//		src := op.NewSourceIter(1, 2, 3, 4)
//		b.AddSubgraph("source", 0, nil, []flow.SendRef{send}, func(ctx *flow.Context) {
//			send.GiveMany(src.Run(ctx)...)
//		})
//
//		b.AddSubgraph("sink", 0, []flow.RecvRef{recv}, nil, func(ctx *flow.Context) {
//			op.Pivot(
//				op.Map(recv.Pull(), func(v int) int { return v * v }),
//				op.ForEach(func(v int) { fmt.Println(v) }),
//			)
//		})
//
//		rt, err := b.Finalize()
//		if err != nil {
//			panic(err)
//		}
//		if err := rt.RunAvailable(); err != nil {
//			panic(err)
//		}
//	}
//
// # Packages
//
//   - flow: the engine (handoffs, state store, loop registry, scheduler,
//     builder, meta-graph, tracing, exporters).
//   - op: operator kernels (sources, maps and filters, folds and reduces,
//     joins, loop and tick operators).
//   - store: snapshot persistence backends (memory, file, sqlite,
//     postgres, redis) for runtime diagnostics.
//   - log: leveled logging facade with a golog adapter.
package tickflow
