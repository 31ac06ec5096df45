package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/errs"
	"github.com/stormvale/voxelcore/pkg/protocol"
	"github.com/stormvale/voxelcore/pkg/session"
	"github.com/stormvale/voxelcore/pkg/transport"
)

func (s *Server) handleConnection(ctx context.Context, conn *transport.Session) {
	player, err := session.Handshake(ctx, conn)
	if err != nil {
		s.log.Debug().Err(err).Msg("handshake failed")
		conn.Close()
		return
	}

	if err := s.registry.Register(player); err != nil {
		reason := session.ReasonServerFull
		if !errors.Is(err, errs.Busy) {
			reason = session.ReasonBadRequest
		}
		s.log.Info().Str("player", player.EntityID.String()).Err(err).Msg("rejecting connection")
		session.Disconnect(conn, reason)
		return
	}
	defer s.registry.Unregister(player.EntityID)

	ps := newPlayerState(player, s.cfg.Streaming.ViewDistance, s.cfg.Streaming.BandwidthLimitBytes)
	s.mu.Lock()
	s.states[player.EntityID] = ps
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.states, player.EntityID)
		s.mu.Unlock()
	}()

	s.log.Info().Str("player", player.EntityID.String()).Msg("player connected")

	done := make(chan struct{})
	go func() {
		s.readReliable(player, conn)
		close(done)
	}()
	s.readUnreliable(player, conn)
	<-done

	s.log.Info().Str("player", player.EntityID.String()).Msg("player disconnected")
}

func (s *Server) readReliable(player *session.Player, conn *transport.Session) {
	for msg := range conn.Reliable() {
		cm, err := protocol.DecodeClientMessage(msg.Payload)
		if err != nil {
			s.log.Debug().Err(fmt.Errorf("%w: %w", errs.BadRequest, err)).Msg("decode reliable message")
			session.Disconnect(conn, session.ReasonBadRequest)
			return
		}
		if err := cm.Verify(); err != nil {
			s.log.Debug().Err(fmt.Errorf("%w: %w", errs.BadRequest, err)).Msg("reject reliable message")
			session.Disconnect(conn, session.ReasonBadRequest)
			return
		}
		if s.dispatch(player, cm) {
			return
		}
	}
}

func (s *Server) readUnreliable(player *session.Player, conn *transport.Session) {
	for msg := range conn.Unreliable() {
		cm, err := protocol.DecodeClientMessage(msg.Payload)
		if err != nil {
			s.log.Debug().Err(fmt.Errorf("%w: %w", errs.BadRequest, err)).Msg("decode unreliable message")
			session.Disconnect(conn, session.ReasonBadRequest)
			return
		}
		if err := cm.Verify(); err != nil {
			s.log.Debug().Err(fmt.Errorf("%w: %w", errs.BadRequest, err)).Msg("reject unreliable message")
			session.Disconnect(conn, session.ReasonBadRequest)
			return
		}
		s.dispatch(player, cm)
	}
}

// dispatch applies one decoded client message. It returns true if the
// connection should now be torn down (a voluntary disconnect).
func (s *Server) dispatch(player *session.Player, msg protocol.ClientMessage) bool {
	switch m := msg.(type) {
	case protocol.ClientInput:
		s.handleInput(player.EntityID, m)
	case protocol.ClientChat:
		s.broadcastChat(player.EntityID, m.Text)
	case protocol.ClientDiagnosticsRequest:
		s.sendDiagnostics(player)
	case protocol.ClientDisconnect:
		player.Conn.Close()
		return true
	case protocol.ClientHandshake:
		// Only valid as the very first message, already consumed during
		// the handshake; a second one is simply ignored.
	}
	return false
}

func (s *Server) handleInput(id uuid.UUID, m protocol.ClientInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.states[id]
	if !ok {
		return
	}
	ps.transform = protocol.ApplyMovement(ps.transform, m.Bundle.Movement, 1.0/float32(TickRate))
}
