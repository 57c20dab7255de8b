package op

import (
	"testing"

	"github.com/smallnest/tickflow/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchOutsideLoopIsPassThrough(t *testing.T) {
	b := flow.NewBuilder()
	send, recv := flow.AddHandoff[int](b, "in")

	src := NewSourceIter(1, 2, 3)
	b.AddSubgraph("src", 0, nil, []flow.SendRef{send}, func(ctx *flow.Context) {
		send.GiveMany(src.Run(ctx)...)
	})

	bt := NewBatch[int]()
	var got []int
	b.AddSubgraph("batch", 0, []flow.RecvRef{recv}, nil, func(ctx *flow.Context) {
		got = append(got, bt.Run(ctx, recv.Take())...)
	})

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestPrefixYieldsGrowingVector(t *testing.T) {
	b := flow.NewBuilder()
	send, recv := flow.AddHandoff[int](b, "in")
	loop := b.AddLoop()

	src := NewSourceBatches([]int{1, 2, 3}, 1)
	b.AddSubgraph("src", 0, nil, []flow.SendRef{send}, func(ctx *flow.Context) {
		send.GiveMany(src.Run(ctx)...)
	})

	prefix := NewPrefix[int](b, loop)
	var got [][]int
	b.AddSubgraph("prefix", 0, []flow.RecvRef{recv}, nil, func(ctx *flow.Context) {
		in := recv.Take()
		if len(in) == 0 {
			return
		}
		got = append(got, prefix.Run(ctx, in))
	}, flow.InLoop(loop))

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	assert.Equal(t, [][]int{{1}, {1, 2}, {1, 2, 3}}, got)
}

func TestAllOnceYieldsOnlyIterationZero(t *testing.T) {
	b := flow.NewBuilder()
	send, recv := flow.AddHandoff[string](b, "in")
	loop := b.AddLoop()

	src := NewSourceIter("seed")
	b.AddSubgraph("src", 0, nil, []flow.SendRef{send}, func(ctx *flow.Context) {
		send.GiveMany(src.Run(ctx)...)
	})

	once := NewAllOnce[string]()
	var got []string
	var iters []int
	b.AddSubgraph("gate", 0, []flow.RecvRef{recv}, nil, func(ctx *flow.Context) {
		iters = append(iters, ctx.LoopIterCount())
		got = append(got, once.Run(ctx, recv.Take())...)
		if ctx.LoopIterCount()+1 < 3 {
			ctx.RescheduleLoopBlock()
		}
	}, flow.InLoop(loop))

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	assert.Equal(t, []int{0, 1, 2}, iters)
	assert.Equal(t, []string{"seed"}, got)
}

func TestNextIterationReleasesHeldItems(t *testing.T) {
	b := flow.NewBuilder()
	send, recv := flow.AddHandoff[int](b, "in")
	loop := b.AddLoop()

	src := NewSourceIter(7)
	b.AddSubgraph("src", 0, nil, []flow.SendRef{send}, func(ctx *flow.Context) {
		send.GiveMany(src.Run(ctx)...)
	})

	ni := NewNextIteration[int](b, loop)
	type firing struct {
		iter int
		out  []int
	}
	var firings []firing
	b.AddSubgraph("gate", 0, []flow.RecvRef{recv}, nil, func(ctx *flow.Context) {
		out := ni.Run(ctx, recv.Take())
		firings = append(firings, firing{iter: ctx.LoopIterCount(), out: out})
	}, flow.InLoop(loop))

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	// Iteration 0 holds the input; the kernel requests another iteration
	// and releases the items at iteration 1.
	require.Len(t, firings, 2)
	assert.Equal(t, 0, firings[0].iter)
	assert.Empty(t, firings[0].out)
	assert.Equal(t, 1, firings[1].iter)
	assert.Equal(t, []int{7}, firings[1].out)
}

func TestAllIterationsConcatenatesRunOutput(t *testing.T) {
	b := flow.NewBuilder()
	sendIn, recvIn := flow.AddHandoff[int](b, "in")
	sendOut, recvOut := flow.AddHandoff[int](b, "out")
	loop := b.AddLoop()

	src := NewSourceIter(1, 2)
	b.AddSubgraph("src", 0, nil, []flow.SendRef{sendIn}, func(ctx *flow.Context) {
		sendIn.GiveMany(src.Run(ctx)...)
	})

	rn := NewRepeatN[int](b, loop, 3)
	all := NewAllIterations[int]()
	b.AddSubgraph("body", 0, []flow.RecvRef{recvIn}, []flow.SendRef{sendOut}, func(ctx *flow.Context) {
		out := rn.Run(ctx, recvIn.Take())
		sendOut.GiveMany(all.Run(ctx, out)...)
	}, flow.InLoop(loop))

	var got []int
	b.AddSubgraph("sink", 1, []flow.RecvRef{recvOut}, nil, func(ctx *flow.Context) {
		got = append(got, recvOut.Take()...)
	})

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	assert.Equal(t, []int{1, 2, 1, 2, 1, 2}, got)
}

func TestAllIterationsOverRepeatOneIsIdentity(t *testing.T) {
	b := flow.NewBuilder()
	sendIn, recvIn := flow.AddHandoff[int](b, "in")
	sendOut, recvOut := flow.AddHandoff[int](b, "out")
	loop := b.AddLoop()

	src := NewSourceIter(4, 5, 6)
	b.AddSubgraph("src", 0, nil, []flow.SendRef{sendIn}, func(ctx *flow.Context) {
		sendIn.GiveMany(src.Run(ctx)...)
	})

	rn := NewRepeatN[int](b, loop, 1)
	all := NewAllIterations[int]()
	b.AddSubgraph("body", 0, []flow.RecvRef{recvIn}, []flow.SendRef{sendOut}, func(ctx *flow.Context) {
		sendOut.GiveMany(all.Run(ctx, rn.Run(ctx, recvIn.Take()))...)
	}, flow.InLoop(loop))

	var got []int
	b.AddSubgraph("sink", 1, []flow.RecvRef{recvOut}, nil, func(ctx *flow.Context) {
		got = append(got, recvOut.Take()...)
	})

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	assert.Equal(t, []int{4, 5, 6}, got)
}
