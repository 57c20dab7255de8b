package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrFinalized is returned when a builder is used after Finalize.
	ErrFinalized = errors.New("graph already finalized")

	// ErrNegativeStratum is returned when a subgraph declares a negative stratum.
	ErrNegativeStratum = errors.New("stratum must be nonnegative")

	// ErrUnknownLoop is returned when a subgraph references a loop id that was never added.
	ErrUnknownLoop = errors.New("unknown loop")

	// ErrDuplicateProducer is returned when two subgraphs declare the same handoff as output.
	ErrDuplicateProducer = errors.New("handoff already has a producer")

	// ErrDuplicateConsumer is returned when two subgraphs declare the same handoff as input.
	ErrDuplicateConsumer = errors.New("handoff already has a consumer")

	// ErrDanglingHandoff is returned when a handoff has no consuming subgraph at finalize.
	ErrDanglingHandoff = errors.New("handoff has no consumer")

	// ErrSelfLoopHandoff is returned when a subgraph declares the same handoff
	// as both input and output. A firing may not read and write one handoff.
	ErrSelfLoopHandoff = errors.New("subgraph reads and writes the same handoff")
)

// BuildError reports a graph construction violation. Construction problems
// are fatal: they are reported synchronously from the builder and never
// reach scheduling.
type BuildError struct {
	// Op is the builder operation that failed (e.g. "AddSubgraph").
	Op string
	// Subject names the offending subgraph, handoff or loop.
	Subject string
	// Err is the underlying violation.
	Err error
}

func (e *BuildError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("build error in %s (%s): %v", e.Op, e.Subject, e.Err)
	}
	return fmt.Sprintf("build error in %s: %v", e.Op, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// BodyPanic reports a panic raised inside a subgraph body. It aborts the
// current tick and surfaces through RunTick / RunAvailable. The tick is not
// retried.
type BodyPanic struct {
	// Subgraph is the name of the subgraph whose body panicked.
	Subgraph string
	// Stratum is the stratum the subgraph belongs to.
	Stratum int
	// Tick is the tick that was aborted.
	Tick int
	// Value is the recovered panic value.
	Value any
}

func (e *BodyPanic) Error() string {
	return fmt.Sprintf("panic in subgraph %q (stratum %d, tick %d): %v", e.Subgraph, e.Stratum, e.Tick, e.Value)
}

// StateBorrowConflict reports two simultaneous borrows of one state cell
// within a single firing. It indicates a graph construction or scheduler
// bug and is raised as a panic.
type StateBorrowConflict struct {
	// State is the id of the cell.
	State StateID
	// Subgraph is the name of the subgraph that held the first borrow.
	Subgraph string
}

func (e *StateBorrowConflict) Error() string {
	return fmt.Sprintf("state cell %d already borrowed in subgraph %q", e.State, e.Subgraph)
}
