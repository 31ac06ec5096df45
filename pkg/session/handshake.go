// Package session turns an accepted transport connection into an
// identified player connection: negotiating protocol version and schema
// compatibility, assigning the player an entity ID, and handling a
// graceful or forced close.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/errs"
	"github.com/stormvale/voxelcore/pkg/protocol"
	"github.com/stormvale/voxelcore/pkg/transport"
)

// HandshakeTimeout bounds how long a newly accepted connection has to
// send its ClientHandshake before it's dropped.
const HandshakeTimeout = 10 * time.Second

// ErrVersionMismatch is returned when a client's ProtocolVersion doesn't
// match this server's.
var ErrVersionMismatch = errors.New("session: protocol version mismatch")

// ErrSchemaMismatch is returned when a client's SchemaHash doesn't match
// this server's, even if ProtocolVersion happens to agree.
var ErrSchemaMismatch = errors.New("session: schema hash mismatch")

// ErrNotAHandshake is returned when a connection's first reliable message
// isn't a ClientHandshake.
var ErrNotAHandshake = errors.New("session: first message was not a handshake")

// Player is an accepted, identified connection, the result of a
// successful handshake.
type Player struct {
	EntityID uuid.UUID
	Conn     *transport.Session
}

// Handshake waits (up to HandshakeTimeout) for conn's first reliable
// message, which must be a ClientHandshake matching this server's
// protocol version and schema hash. On success it replies with an
// accepted ServerHandshakeResponse carrying a freshly assigned entity ID.
// On any failure it sends a rejection response when the connection is
// still usable, and always returns a non-nil error; the caller is
// responsible for closing conn afterward.
func Handshake(ctx context.Context, conn *transport.Session) (*Player, error) {
	ctx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancel()

	var raw []byte
	select {
	case msg, ok := <-conn.Reliable():
		if !ok {
			return nil, fmt.Errorf("%w: session: connection closed before handshake", errs.Internal)
		}
		if msg.Channel != protocolHandshakeChannel {
			reject(conn, "handshake arrived on the wrong channel")
			return nil, fmt.Errorf("%w: session: handshake arrived on channel %s, want %s", errs.BadRequest, msg.Channel, protocolHandshakeChannel)
		}
		raw = msg.Payload
	case <-ctx.Done():
		reject(conn, "timed out waiting for handshake")
		return nil, fmt.Errorf("%w: session: timed out waiting for handshake: %w", errs.BadRequest, ctx.Err())
	}

	msg, err := protocol.DecodeClientMessage(raw)
	if err != nil {
		reject(conn, "malformed handshake message")
		return nil, fmt.Errorf("%w: session: decoding handshake: %w", errs.BadRequest, err)
	}

	hs, ok := msg.(protocol.ClientHandshake)
	if !ok {
		reject(conn, "expected a handshake message")
		return nil, fmt.Errorf("%w: %w", errs.BadRequest, ErrNotAHandshake)
	}

	if hs.ProtocolVersion != protocol.ProtocolVersion {
		reject(conn, fmt.Sprintf("protocol version %d unsupported, server runs %d", hs.ProtocolVersion, protocol.ProtocolVersion))
		return nil, fmt.Errorf("%w: %w", errs.Unsupported, ErrVersionMismatch)
	}
	if hs.SchemaHash != protocol.SchemaHash {
		reject(conn, "schema hash mismatch")
		return nil, fmt.Errorf("%w: %w", errs.Unsupported, ErrSchemaMismatch)
	}

	player := &Player{EntityID: uuid.New(), Conn: conn}

	accept := protocol.ServerHandshakeResponse{Accepted: true, PlayerEntityID: player.EntityID}
	if err := sendHandshakeResponse(conn, accept); err != nil {
		return nil, fmt.Errorf("session: sending handshake response: %w", err)
	}

	return player, nil
}

// Disconnect sends a ServerDisconnect with reason (best-effort; errors
// are ignored since the connection may already be failing) and closes
// conn.
func Disconnect(conn *transport.Session, reason string) {
	data, err := protocol.EncodeServerMessage(protocol.ServerDisconnect{Reason: reason})
	if err == nil {
		conn.SendReliable(protocolHandshakeChannel, data)
	}
	conn.Close()
}

// protocolHandshakeChannel is the logical channel handshake and
// disconnect messages travel on: the ordered, reliable one the channel
// table assigns to Chat (which also carries connection lifecycle
// messages).
const protocolHandshakeChannel = transport.ChannelChat

func reject(conn *transport.Session, reason string) {
	data, err := protocol.EncodeServerMessage(protocol.ServerHandshakeResponse{Accepted: false, Reason: reason})
	if err != nil {
		return
	}
	conn.SendReliable(protocolHandshakeChannel, data)
}

func sendHandshakeResponse(conn *transport.Session, resp protocol.ServerHandshakeResponse) error {
	data, err := protocol.EncodeServerMessage(resp)
	if err != nil {
		return err
	}
	return conn.SendReliable(protocolHandshakeChannel, data)
}
