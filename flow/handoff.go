package flow

import "iter"

// HandoffID identifies a handoff within one runtime.
type HandoffID int

// SubgraphID identifies a subgraph within one runtime.
type SubgraphID int

// StateID identifies a state cell within one runtime.
type StateID int

// LoopID identifies a loop context within one runtime.
type LoopID int

// NoLoop marks a subgraph that belongs to no loop.
const NoLoop LoopID = -1

// Handoff is a double-buffered queue between exactly two subgraphs.
// Producers append to the send-side buffer; the consumer reads via an
// atomic swap that moves the send side into the recv side. The returned
// batch stays valid until the consumer's next firing, when its storage is
// recycled as the new send buffer.
type Handoff[T any] struct {
	id   HandoffID
	name string

	send []T
	recv []T

	rt       *Runtime
	consumer SubgraphID
}

// handoffState is the untyped view the scheduler keeps of every handoff.
type handoffState interface {
	handoffName() string
	// pendingSend reports whether the producer side holds undelivered items.
	pendingSend() bool
	// emptyForReader reports whether nothing remains for the consumer.
	emptyForReader() bool
	// attach wires the handoff to its runtime so Give can wake the consumer.
	attach(rt *Runtime, consumer SubgraphID)
}

func (h *Handoff[T]) handoffName() string { return h.name }
func (h *Handoff[T]) pendingSend() bool   { return len(h.send) > 0 }

// emptyForReader reports whether nothing remains for the consumer. A taken
// recv view counts as drained: the body contract requires the consumer to
// drain it within the firing.
func (h *Handoff[T]) emptyForReader() bool { return len(h.send) == 0 }
func (h *Handoff[T]) attach(rt *Runtime, consumer SubgraphID) {
	h.rt = rt
	h.consumer = consumer
}

// takeSwap swaps the buffers and returns the batch for draining.
func (h *Handoff[T]) takeSwap() []T {
	batch := h.send
	h.send = h.recv[:0]
	h.recv = batch
	return batch
}

// SendPort is a producer's typed view of a handoff.
type SendPort[T any] struct {
	h *Handoff[T]
}

// Give appends v to the send buffer and marks the consuming subgraph ready.
// Give never fails; backpressure is expressed by the scheduling model, not
// by the handoff.
func (p SendPort[T]) Give(v T) {
	p.h.send = append(p.h.send, v)
	if p.h.rt != nil {
		p.h.rt.wake(p.h.consumer)
	}
}

// GiveMany appends every value of vs to the send buffer.
func (p SendPort[T]) GiveMany(vs ...T) {
	if len(vs) == 0 {
		return
	}
	p.h.send = append(p.h.send, vs...)
	if p.h.rt != nil {
		p.h.rt.wake(p.h.consumer)
	}
}

// HandoffID returns the id of the underlying handoff.
func (p SendPort[T]) HandoffID() HandoffID { return p.h.id }

// Pusherator adapts the port to the push side of an operator chain.
func (p SendPort[T]) Pusherator() func(T) {
	return func(v T) { p.Give(v) }
}

// RecvPort is the consumer's typed view of a handoff.
type RecvPort[T any] struct {
	h *Handoff[T]
}

// Take performs the buffer swap and returns the received batch. A body must
// take each inbound port exactly once per firing.
func (p RecvPort[T]) Take() []T {
	return p.h.takeSwap()
}

// Pull performs the swap and exposes the batch as a pull iterator, the
// head of a fused operator chain.
func (p RecvPort[T]) Pull() iter.Seq[T] {
	batch := p.h.takeSwap()
	return func(yield func(T) bool) {
		for _, v := range batch {
			if !yield(v) {
				return
			}
		}
	}
}

// HandoffID returns the id of the underlying handoff.
func (p RecvPort[T]) HandoffID() HandoffID { return p.h.id }

// IsEmpty reports whether nothing remains for this consumer: no pending
// send-side items and no untaken batch.
func (p RecvPort[T]) IsEmpty() bool { return p.h.emptyForReader() }

func (p SendPort[T]) sendSide() {}
func (p RecvPort[T]) recvSide() {}

// SendRef is a producer-side port reference, used to declare subgraph outputs.
type SendRef interface {
	HandoffID() HandoffID
	sendSide()
}

// RecvRef is a consumer-side port reference, used to declare subgraph inputs.
type RecvRef interface {
	HandoffID() HandoffID
	recvSide()
}
