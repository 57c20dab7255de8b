package flow

import (
	"time"

	"github.com/google/uuid"
)

// TraceEvent represents the scheduler events a tracer can observe.
type TraceEvent string

const (
	// TraceEventTickStart indicates a tick began executing
	TraceEventTickStart TraceEvent = "tick_start"

	// TraceEventTickEnd indicates a tick ran to quiescence
	TraceEventTickEnd TraceEvent = "tick_end"

	// TraceEventStratumStart indicates the scheduler entered a stratum
	TraceEventStratumStart TraceEvent = "stratum_start"

	// TraceEventStratumEnd indicates a stratum drained
	TraceEventStratumEnd TraceEvent = "stratum_end"

	// TraceEventSubgraphStart indicates a subgraph firing began
	TraceEventSubgraphStart TraceEvent = "subgraph_start"

	// TraceEventSubgraphEnd indicates a subgraph firing completed
	TraceEventSubgraphEnd TraceEvent = "subgraph_end"

	// TraceEventLoopIteration indicates a loop advanced to the next iteration
	TraceEventLoopIteration TraceEvent = "loop_iteration"

	// TraceEventLoopRunEnd indicates a loop completed a run
	TraceEventLoopRunEnd TraceEvent = "loop_run_end"

	// TraceEventStateReset indicates subgraph-scoped state was reset after a firing
	TraceEventStateReset TraceEvent = "state_reset"
)

// TraceSpan is one observed scheduler event with timing and placement.
type TraceSpan struct {
	// ID is a unique identifier for this span
	ID string

	// Event indicates what the span represents
	Event TraceEvent

	// Tick is the tick id the event occurred in
	Tick int

	// Stratum is the stratum index, or -1 when not applicable
	Stratum int

	// Subgraph is the firing subgraph's name, if any
	Subgraph string

	// Loop is the loop id for loop events, or NoLoop
	Loop LoopID

	// StartTime is when the span began
	StartTime time.Time

	// EndTime is when the span completed (zero for instantaneous events)
	EndTime time.Time

	// Duration is the elapsed time for paired start/end spans
	Duration time.Duration

	// Err carries the BodyPanic when a firing aborted
	Err error
}

// TraceHook is a trace event handler.
type TraceHook interface {
	// OnEvent is called for every emitted span
	OnEvent(span *TraceSpan)
}

// TraceHookFunc adapts a function to TraceHook.
type TraceHookFunc func(span *TraceSpan)

// OnEvent implements TraceHook.
func (f TraceHookFunc) OnEvent(span *TraceSpan) { f(span) }

// Tracer collects scheduler spans and dispatches them to hooks. Tracing is
// observational only.
type Tracer struct {
	hooks []TraceHook
	spans []*TraceSpan
}

// NewTracer creates an empty tracer.
func NewTracer() *Tracer {
	return &Tracer{}
}

// AddHook registers a trace hook.
func (t *Tracer) AddHook(hook TraceHook) {
	t.hooks = append(t.hooks, hook)
}

// Spans returns every span recorded so far, in emission order.
func (t *Tracer) Spans() []*TraceSpan {
	return t.spans
}

// SpansByEvent filters recorded spans by event type.
func (t *Tracer) SpansByEvent(event TraceEvent) []*TraceSpan {
	var out []*TraceSpan
	for _, s := range t.spans {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracer) emit(span *TraceSpan) {
	t.spans = append(t.spans, span)
	for _, h := range t.hooks {
		h.OnEvent(span)
	}
}

// trace records an instantaneous event. sg may be nil.
func (r *Runtime) trace(event TraceEvent, sg *SubgraphRecord) {
	if r.tracer == nil {
		return
	}
	span := &TraceSpan{
		ID:        uuid.New().String(),
		Event:     event,
		Tick:      r.tick,
		Stratum:   -1,
		Loop:      NoLoop,
		StartTime: time.Now(),
	}
	if sg != nil {
		span.Stratum = sg.stratum
		span.Subgraph = sg.name
	}
	r.tracer.emit(span)
}

// traceLoop records a loop iteration or run-end event.
func (r *Runtime) traceLoop(event TraceEvent, loop LoopID) {
	if r.tracer == nil {
		return
	}
	r.tracer.emit(&TraceSpan{
		ID:        uuid.New().String(),
		Event:     event,
		Tick:      r.tick,
		Stratum:   -1,
		Loop:      loop,
		StartTime: time.Now(),
	})
}

// traceStart opens a paired span; traceEnd closes it.
func (r *Runtime) traceStart(event TraceEvent, sg *SubgraphRecord) *TraceSpan {
	if r.tracer == nil {
		return nil
	}
	span := &TraceSpan{
		ID:        uuid.New().String(),
		Event:     event,
		Tick:      r.tick,
		Stratum:   sg.stratum,
		Subgraph:  sg.name,
		StartTime: time.Now(),
	}
	r.tracer.emit(span)
	return span
}

func (r *Runtime) traceEnd(span *TraceSpan, err error) {
	if r.tracer == nil || span == nil {
		return
	}
	end := &TraceSpan{
		ID:        uuid.New().String(),
		Event:     TraceEventSubgraphEnd,
		Tick:      span.Tick,
		Stratum:   span.Stratum,
		Subgraph:  span.Subgraph,
		StartTime: span.StartTime,
		EndTime:   time.Now(),
		Err:       err,
	}
	end.Duration = end.EndTime.Sub(end.StartTime)
	r.tracer.emit(end)
}
