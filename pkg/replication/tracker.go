// Package replication computes, per client, the minimal set of entity
// changes to broadcast each tick: which entities just became visible,
// which changed, and which left visibility.
package replication

import (
	"sort"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/protocol"
)

// EntityState is the cached, quantized representation of one entity's
// state used for change detection. It intentionally carries only the
// fields a delta needs, not full simulation state.
type EntityState struct {
	Transform  protocol.Transform
	Health     *float32
	EntityType string
}

func (a EntityState) equal(b EntityState) bool {
	if a.Transform != b.Transform {
		return false
	}
	if (a.Health == nil) != (b.Health == nil) {
		return false
	}
	if a.Health != nil && *a.Health != *b.Health {
		return false
	}
	return true
}

// Tracker computes per-tick EntityDeltaMessages for one client, keyed by
// the entities visible within its view distance. Iteration is always in
// sorted EntityID order so concurrent clients in identical situations
// produce byte-identical deltas, standing in for the ordered
// BTreeMap/BTreeSet containers a language with sorted-map primitives
// would use directly.
type Tracker struct {
	lastStates   map[uuid.UUID]EntityState
	visible      map[uuid.UUID]struct{}
	viewDistance int32
}

// NewTracker creates a tracker with the given view distance in chunks.
func NewTracker(viewDistance int32) *Tracker {
	return &Tracker{
		lastStates:   make(map[uuid.UUID]EntityState),
		visible:      make(map[uuid.UUID]struct{}),
		viewDistance: viewDistance,
	}
}

// EntityPosition is one entity's current transform, used only to compute
// visibility (UpdateVisibility doesn't need the rest of EntityState).
type EntityPosition struct {
	EntityID  uuid.UUID
	Transform protocol.Transform
}

// UpdateVisibility recomputes which entities are within view of
// playerTransform: same dimension and Chebyshev chunk distance at most
// viewDistance.
func (tr *Tracker) UpdateVisibility(playerTransform protocol.Transform, positions []EntityPosition) {
	playerChunkX := chunkCoord(playerTransform.Position.X)
	playerChunkZ := chunkCoord(playerTransform.Position.Z)

	visible := make(map[uuid.UUID]struct{}, len(tr.visible))
	for _, p := range positions {
		if p.Transform.DimensionID != playerTransform.DimensionID {
			continue
		}
		dx := abs32(chunkCoord(p.Transform.Position.X) - playerChunkX)
		dz := abs32(chunkCoord(p.Transform.Position.Z) - playerChunkZ)
		if max32(dx, dz) <= tr.viewDistance {
			visible[p.EntityID] = struct{}{}
		}
	}
	tr.visible = visible
}

// GenerateDelta produces the EntityDeltaMessage for tick, given the
// current authoritative state of every visible entity. Entities newly
// visible emit Spawn; changed entities emit Transform or Health (health
// takes precedence when both changed); entities that left visibility
// emit Despawn and are dropped from the tracker's cache.
func (tr *Tracker) GenerateDelta(tick uint64, entities map[uuid.UUID]EntityState) protocol.EntityDeltaMessage {
	var updates []protocol.EntityUpdate

	visibleIDs := make([]uuid.UUID, 0, len(tr.visible))
	for id := range tr.visible {
		visibleIDs = append(visibleIDs, id)
	}
	sortUUIDs(visibleIDs)

	for _, id := range visibleIDs {
		current, ok := entities[id]
		if !ok {
			continue
		}
		if last, known := tr.lastStates[id]; known {
			if !last.equal(current) {
				updates = append(updates, deltaUpdate(id, last, current))
			}
		} else {
			updates = append(updates, protocol.EntityUpdate{
				EntityID:   id,
				Type:       protocol.EntityUpdateSpawn,
				EntityType: current.EntityType,
				Transform:  &current.Transform,
			})
		}
		tr.lastStates[id] = current
	}

	var despawned []uuid.UUID
	trackedIDs := make([]uuid.UUID, 0, len(tr.lastStates))
	for id := range tr.lastStates {
		trackedIDs = append(trackedIDs, id)
	}
	sortUUIDs(trackedIDs)
	for _, id := range trackedIDs {
		if _, stillVisible := tr.visible[id]; !stillVisible {
			despawned = append(despawned, id)
			updates = append(updates, protocol.EntityUpdate{EntityID: id, Type: protocol.EntityUpdateDespawn})
		}
	}
	for _, id := range despawned {
		delete(tr.lastStates, id)
	}

	return protocol.EntityDeltaMessage{Tick: tick, Updates: updates}
}

// deltaUpdate picks Health over Transform when both changed, matching
// the original implementation's tie-break.
func deltaUpdate(id uuid.UUID, last, current EntityState) protocol.EntityUpdate {
	healthChanged := (last.Health == nil) != (current.Health == nil) ||
		(last.Health != nil && current.Health != nil && *last.Health != *current.Health)
	if healthChanged && current.Health != nil {
		h := *current.Health
		return protocol.EntityUpdate{EntityID: id, Type: protocol.EntityUpdateHealth, Health: &h}
	}
	tr := current.Transform
	return protocol.EntityUpdate{EntityID: id, Type: protocol.EntityUpdateTransform, Transform: &tr}
}

// TrackedCount returns the number of entities currently cached.
func (tr *Tracker) TrackedCount() int { return len(tr.lastStates) }

// VisibleCount returns the number of entities currently visible.
func (tr *Tracker) VisibleCount() int { return len(tr.visible) }

// Clear discards all cached and visibility state.
func (tr *Tracker) Clear() {
	tr.lastStates = make(map[uuid.UUID]EntityState)
	tr.visible = make(map[uuid.UUID]struct{})
}

func chunkCoord(blockPos float32) int32 {
	return int32(blockPos) >> 4
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
