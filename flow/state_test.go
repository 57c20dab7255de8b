package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSubgraphLifespanResetsAfterFiring(t *testing.T) {
	b := NewBuilder()
	send, recv := AddHandoff[int](b, "ints")

	acc := AddState(b, func() int { return 0 })
	b.SetStateLifespan(acc, LifespanSubgraph)

	var sums []int
	b.AddSubgraph("producer", 0, nil, []SendRef{send}, func(ctx *Context) {
		if ctx.CurrentTick() < 3 {
			send.GiveMany(1, 2, 3)
			ctx.DeferSchedule()
		}
	})
	b.AddSubgraph("summer", 0, []RecvRef{recv}, nil, func(ctx *Context) {
		sum := acc.Borrow(ctx)
		for _, v := range recv.Take() {
			*sum += v
		}
		sums = append(sums, *sum)
	})

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	// The cell resets after every firing of the summer subgraph.
	assert.Equal(t, []int{6, 6, 6}, sums[:3])
}

func TestStateTickLifespanResetsAtTickBoundary(t *testing.T) {
	b := NewBuilder()
	send, recv := AddHandoff[int](b, "ints")

	acc := AddState(b, func() int { return 0 })
	b.SetStateLifespan(acc, LifespanTick)

	var sums []int
	b.AddSubgraph("producer", 0, nil, []SendRef{send}, func(ctx *Context) {
		if ctx.CurrentTick() < 2 {
			send.GiveMany(5, 5)
			ctx.DeferSchedule()
		}
	})
	b.AddSubgraph("summer", 0, []RecvRef{recv}, nil, func(ctx *Context) {
		sum := acc.Borrow(ctx)
		for _, v := range recv.Take() {
			*sum += v
		}
		sums = append(sums, *sum)
	})

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	// 10 in tick 0, reset, 10 again in tick 1.
	assert.Equal(t, []int{10, 10}, sums[:2])
}

func TestStateStaticLifespanRetainsAcrossTicks(t *testing.T) {
	b := NewBuilder()
	send, recv := AddHandoff[int](b, "ints")

	acc := AddState(b, func() int { return 0 })

	var sums []int
	b.AddSubgraph("producer", 0, nil, []SendRef{send}, func(ctx *Context) {
		if ctx.CurrentTick() < 3 {
			send.Give(10)
			ctx.DeferSchedule()
		}
	})
	b.AddSubgraph("summer", 0, []RecvRef{recv}, nil, func(ctx *Context) {
		sum := acc.Borrow(ctx)
		for _, v := range recv.Take() {
			*sum += v
		}
		sums = append(sums, *sum)
	})

	rt, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, rt.RunAvailable())

	assert.Equal(t, []int{10, 20, 30}, sums[:3])
}

func TestStateBorrowConflictPanicsIntoBodyPanic(t *testing.T) {
	b := NewBuilder()
	send, recv := AddHandoff[int](b, "ints")

	cell := AddState(b, func() int { return 0 })

	b.AddSubgraph("producer", 0, nil, []SendRef{send}, func(ctx *Context) {
		send.Give(1)
	})
	b.AddSubgraph("doubleborrow", 0, []RecvRef{recv}, nil, func(ctx *Context) {
		recv.Take()
		_ = cell.Borrow(ctx)
		_ = cell.Borrow(ctx) // second borrow in the same firing
	})

	rt, err := b.Finalize()
	require.NoError(t, err)

	err = rt.RunAvailable()
	require.Error(t, err)

	var bp *BodyPanic
	require.True(t, errors.As(err, &bp))
	assert.Equal(t, "doubleborrow", bp.Subgraph)

	conflict, ok := bp.Value.(*StateBorrowConflict)
	require.True(t, ok)
	assert.Equal(t, StateID(0), conflict.State)
}

func TestStateLoopLifespanValidation(t *testing.T) {
	b := NewBuilder()
	send, recv := AddHandoff[int](b, "ints")
	cell := AddState(b, func() int { return 0 })

	// Loop id 99 was never added.
	b.SetStateLoopLifespan(cell, LoopID(99))

	b.AddSubgraph("p", 0, nil, []SendRef{send}, func(ctx *Context) {})
	b.AddSubgraph("c", 0, []RecvRef{recv}, nil, func(ctx *Context) { recv.Take() })

	_, err := b.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownLoop)
}
