package flow

// Body is a subgraph body: a fused pull-push operator chain executed once
// per firing. Bodies drain each inbound port exactly once, push to the
// outbound ports, and declare rescheduling intent through the Context
// before returning. A panic inside a body aborts the tick and surfaces as
// BodyPanic.
type Body func(ctx *Context)

// SubgraphRecord is the static descriptor of one scheduling unit: the
// fused operator bundle together with its handoff endpoints, stratum and
// owning loop.
type SubgraphRecord struct {
	id      SubgraphID
	name    string
	stratum int
	loop    LoopID
	lazy    bool
	body    Body

	inputs  []HandoffID
	outputs []HandoffID

	// scheduled is the ready bit for the current tick.
	scheduled bool
	// scheduledNext defers readiness to the next tick.
	scheduledNext bool
	// lastTickFired records the most recent tick this subgraph ran in.
	lastTickFired int
}

// ID returns the static subgraph id.
func (s *SubgraphRecord) ID() SubgraphID { return s.id }

// Name returns the subgraph name.
func (s *SubgraphRecord) Name() string { return s.name }

// Stratum returns the stratum index.
func (s *SubgraphRecord) Stratum() int { return s.stratum }

// Loop returns the owning loop id, or NoLoop.
func (s *SubgraphRecord) Loop() LoopID { return s.loop }

// Lazy reports whether the subgraph skips the initial schedule and only
// fires when an inbound handoff becomes non-empty.
func (s *SubgraphRecord) Lazy() bool { return s.lazy }

// SubgraphOption configures a subgraph at AddSubgraph time.
type SubgraphOption func(*SubgraphRecord)

// InLoop places the subgraph inside the given loop context.
func InLoop(id LoopID) SubgraphOption {
	return func(s *SubgraphRecord) { s.loop = id }
}

// Lazy marks the subgraph lazy: it is not scheduled at startup and runs
// only when woken by an inbound handoff or an explicit schedule.
func Lazy() SubgraphOption {
	return func(s *SubgraphRecord) { s.lazy = true }
}
