package flow

import (
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/tickflow/store"
)

// Snapshot captures the runtime's externally observable progress as a
// store.Snapshot: tick counter, serialized meta-graph (the assigned
// document, or one derived from the topology) and diagnostics. Saving is
// caller-driven; the engine never persists operator state.
func (r *Runtime) Snapshot() *store.Snapshot {
	meta := r.metaJSON
	if meta == "" {
		if derived, err := r.BuildMetaGraph().Serialize(); err == nil {
			meta = derived
		}
	}
	r.snapshotVersion++
	return &store.Snapshot{
		ID:          uuid.New().String(),
		RuntimeID:   r.id,
		RuntimeName: r.name,
		Tick:        r.tick,
		MetaGraph:   meta,
		Diagnostics: r.diagnostics,
		Timestamp:   time.Now(),
		Version:     r.snapshotVersion,
	}
}
