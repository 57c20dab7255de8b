package op

import (
	"github.com/smallnest/tickflow/flow"
)

// SourceIter yields its whole input on the first firing and nothing
// afterwards. Exhaustion is not an error; the scheduler simply stops
// re-firing the subgraph.
type SourceIter[T any] struct {
	items []T
	done  bool
}

// NewSourceIter creates a one-shot source over the given items.
func NewSourceIter[T any](items ...T) *SourceIter[T] {
	return &SourceIter[T]{items: items}
}

// Run returns the remaining batch, or nil once exhausted.
func (s *SourceIter[T]) Run(ctx *flow.Context) []T {
	if s.done {
		return nil
	}
	s.done = true
	return s.items
}

// Exhausted reports whether the source has delivered its items.
func (s *SourceIter[T]) Exhausted() bool { return s.done }

// SourceBatches yields a fixed-size batch per tick, deferring its own
// rescheduling to the next tick while items remain.
type SourceBatches[T any] struct {
	items []T
	size  int
	pos   int
}

// NewSourceBatches creates a source that delivers size items per tick.
func NewSourceBatches[T any](items []T, size int) *SourceBatches[T] {
	if size <= 0 {
		size = 1
	}
	return &SourceBatches[T]{items: items, size: size}
}

// Run returns the next batch and schedules the subgraph for the next tick
// when items remain.
func (s *SourceBatches[T]) Run(ctx *flow.Context) []T {
	if s.pos >= len(s.items) {
		return nil
	}
	end := s.pos + s.size
	if end > len(s.items) {
		end = len(s.items)
	}
	batch := s.items[s.pos:end]
	s.pos = end
	if s.pos < len(s.items) {
		ctx.DeferSchedule()
	}
	return batch
}

// Exhausted reports whether all items have been delivered.
func (s *SourceBatches[T]) Exhausted() bool { return s.pos >= len(s.items) }

// SourceChannel polls a Go channel without blocking: whatever is ready is
// the firing's batch, and a pending channel maps to an empty batch. The
// context's waker can be handed to the producing side to re-ready the
// subgraph between RunAvailable calls.
type SourceChannel[T any] struct {
	ch     <-chan T
	closed bool
}

// NewSourceChannel creates a source over ch.
func NewSourceChannel[T any](ch <-chan T) *SourceChannel[T] {
	return &SourceChannel[T]{ch: ch}
}

// Run drains every currently-ready item from the channel.
func (s *SourceChannel[T]) Run(ctx *flow.Context) []T {
	if s.closed {
		return nil
	}
	var out []T
	for {
		select {
		case v, ok := <-s.ch:
			if !ok {
				s.closed = true
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

// Closed reports whether the channel has been closed and drained.
func (s *SourceChannel[T]) Closed() bool { return s.closed }
