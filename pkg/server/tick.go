package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/chunkcodec"
	"github.com/stormvale/voxelcore/pkg/protocol"
	"github.com/stormvale/voxelcore/pkg/replication"
	"github.com/stormvale/voxelcore/pkg/transport"
	"github.com/stormvale/voxelcore/pkg/world"
)

// chunksPerTick bounds how many new chunks one player's streamer is
// allowed to send per tick, so a player loading a fresh view distance
// doesn't monopolize the tick loop at the expense of everyone else.
const chunksPerTick = 4

func (s *Server) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) tick() {
	tick := s.world.Tick()

	s.mu.RLock()
	states := make([]*playerState, 0, len(s.states))
	for _, ps := range s.states {
		states = append(states, ps)
	}
	s.mu.RUnlock()

	for _, ps := range states {
		s.streamChunks(ps)
		s.replicateEntities(tick, ps, states)
		s.sendState(tick, ps)
	}
}

func (s *Server) streamChunks(ps *playerState) {
	pos := ps.transform.Position
	chunk := world.ChunkPos{
		Dimension: world.DimensionID(ps.transform.DimensionID),
		X:         int32(pos.X) >> 4,
		Z:         int32(pos.Z) >> 4,
	}
	ps.streamer.SetPlayerPosition(chunk)

	viewDistance := s.cfg.Streaming.ViewDistance
	for dx := -viewDistance; dx <= viewDistance; dx++ {
		for dz := -viewDistance; dz <= viewDistance; dz++ {
			candidate := world.ChunkPos{Dimension: chunk.Dimension, X: chunk.X + dx, Z: chunk.Z + dz}
			if candidate.ChebyshevDistance(chunk) > viewDistance {
				continue
			}
			if ps.streamer.IsChunkSent(candidate) {
				continue
			}
			ps.streamer.Enqueue(candidate)
		}
	}

	for i := 0; i < chunksPerTick; i++ {
		payload, err := ps.streamer.TrySendNext(func(pos world.ChunkPos) ([]uint16, bool) {
			return s.flattenChunk(pos)
		})
		if err != nil {
			s.log.Debug().Err(err).Msg("stream chunk")
			continue
		}
		if payload == nil {
			break
		}
		msg := protocol.ServerChunkData{Chunk: protocol.ChunkDataMessage{
			DimensionID: int32(payload.Pos.Dimension),
			ChunkX:      payload.Pos.X,
			ChunkZ:      payload.Pos.Z,
			Palette:     payload.Encoded.Palette,
			Compressed:  payload.Encoded.Compressed,
		}}
		data, err := protocol.EncodeServerMessage(msg)
		if err != nil {
			s.log.Warn().Err(err).Msg("encode chunk")
			continue
		}
		if err := ps.player.Conn.SendReliable(transport.ChannelChunkStream, data); err != nil {
			s.log.Debug().Err(err).Msg("send chunk")
		}
	}
}

func (s *Server) flattenChunk(pos world.ChunkPos) ([]uint16, bool) {
	c, err := s.world.Chunk(pos)
	if err != nil {
		return nil, false
	}
	ids := make([]uint16, 0, chunkcodec.VoxelCount)
	for y := 0; y < world.ChunkSizeY; y++ {
		for z := 0; z < world.ChunkSizeZ; z++ {
			for x := 0; x < world.ChunkSizeX; x++ {
				ids = append(ids, c.Voxel(x, y, z).ID)
			}
		}
	}
	return ids, true
}

func (s *Server) replicateEntities(tick uint64, ps *playerState, all []*playerState) {
	positions := make([]replication.EntityPosition, 0, len(all))
	entities := make(map[uuid.UUID]replication.EntityState, len(all))
	for _, other := range all {
		if other == ps {
			continue
		}
		positions = append(positions, replication.EntityPosition{
			EntityID:  other.player.EntityID,
			Transform: other.transform,
		})
		entities[other.player.EntityID] = other.entityState()
	}

	ps.tracker.UpdateVisibility(ps.transform, positions)
	delta := ps.tracker.GenerateDelta(tick, entities)
	if len(delta.Updates) == 0 {
		return
	}

	data, err := protocol.EncodeServerMessage(protocol.ServerEntityDelta{Delta: delta})
	if err != nil {
		s.log.Warn().Err(err).Msg("encode entity delta")
		return
	}
	ps.player.Conn.SendUnreliable(transport.ChannelEntityDelta, data)
}

func (s *Server) sendState(tick uint64, ps *playerState) {
	msg := protocol.ServerState{Tick: tick, PlayerTransform: ps.transform}
	data, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		return
	}
	ps.player.Conn.SendUnreliable(transport.ChannelEntityDelta, data)
}
