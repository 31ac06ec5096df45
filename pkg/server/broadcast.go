package server

import (
	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/protocol"
	"github.com/stormvale/voxelcore/pkg/session"
	"github.com/stormvale/voxelcore/pkg/transport"
)

func (s *Server) broadcastChat(sender uuid.UUID, text string) {
	msg := protocol.ServerChat{Sender: sender.String(), Text: text}
	data, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode chat")
		return
	}

	for _, player := range s.registry.Snapshot() {
		if err := player.Conn.SendReliable(transport.ChannelChat, data); err != nil {
			s.log.Debug().Err(err).Str("player", player.EntityID.String()).Msg("send chat")
		}
	}
}

func (s *Server) sendDiagnostics(player *session.Player) {
	s.mu.RLock()
	chunkCount := 0
	for _, ps := range s.states {
		chunkCount += ps.streamer.SentCount()
	}
	playerCount := len(s.states)
	s.mu.RUnlock()

	resp := protocol.ServerDiagnosticsResponse{
		TickRate:    TickRate,
		PlayerCount: int32(playerCount),
		ChunkCount:  int32(chunkCount),
	}
	data, err := protocol.EncodeServerMessage(resp)
	if err != nil {
		return
	}
	player.Conn.SendReliable(transport.ChannelDiagnostics, data)
}
