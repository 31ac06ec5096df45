package server

import (
	"github.com/stormvale/voxelcore/pkg/protocol"
	"github.com/stormvale/voxelcore/pkg/replication"
	"github.com/stormvale/voxelcore/pkg/session"
	"github.com/stormvale/voxelcore/pkg/streamer"
	"github.com/stormvale/voxelcore/pkg/world"
)

// entityTypePlayer is the EntityUpdate.EntityType value other clients see
// for a player-controlled entity.
const entityTypePlayer = "player"

// spawnTransform is where a freshly connected player's session begins.
// There is no persisted player position store yet; every session starts
// at the overworld origin, floating a few blocks above the generator's
// typical surface height so it never spawns inside solid terrain.
var spawnTransform = protocol.Transform{
	DimensionID: int32(world.DimensionOverworld),
	Position:    protocol.Vec3{X: 0, Y: 80, Z: 0},
}

// playerState is everything the server tracks for one connected player
// beyond the bare session: the authoritative transform and health, and
// the per-connection streaming/replication bookkeeping driven each tick.
type playerState struct {
	player *session.Player

	transform protocol.Transform
	health    float32

	streamer *streamer.Streamer
	tracker  *replication.Tracker
}

func newPlayerState(player *session.Player, viewDistance int32, bandwidthLimit uint64) *playerState {
	return &playerState{
		player:    player,
		transform: spawnTransform,
		health:    20,
		streamer:  streamer.WithBandwidthLimit(bandwidthLimit),
		tracker:   replication.NewTracker(viewDistance),
	}
}

// entityState reports this player as seen by other players' replication
// trackers.
func (ps *playerState) entityState() replication.EntityState {
	h := ps.health
	return replication.EntityState{
		Transform:  ps.transform,
		Health:     &h,
		EntityType: entityTypePlayer,
	}
}
