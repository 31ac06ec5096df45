package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

// Per-message limits. Every message that carries a variable-length
// collection is checked against one of these before the server (or client)
// trusts it; a message that fails Verify is dropped and the connection that
// sent it is closed.
const (
	MaxChatLen          = 256
	MaxChunkDataLen     = 16 * 1024
	MaxBlockActions     = 16
	MaxInventoryActions = 16
	MaxPaletteSize      = 256
	MaxEntityUpdates    = 1024
	MaxRecipeIDLen      = 64
	MaxEntityTypeLen    = 64
)

// Vec3 is a position or direction in world-space block units.
type Vec3 struct {
	X, Y, Z float32
}

// Transform is an entity's position and facing, quantized on the wire to
// 1/16-block position precision and a 256-step angle so repeated
// server-state broadcasts compress well.
type Transform struct {
	DimensionID int32
	Position    Vec3
	Yaw         float32 // degrees, [0, 360)
	Pitch       float32 // degrees, [-90, 90]
}

// quantizePos converts a float32 block coordinate into sixteenths of a
// block for wire transmission.
func quantizePos(v float32) int32 { return int32(v * 16) }
func dequantizePos(v int32) float32 { return float32(v) / 16 }

// quantizeAngle converts a degree value into one of 256 steps.
func quantizeAngle(deg float32) uint8 {
	normalized := deg
	for normalized < 0 {
		normalized += 360
	}
	for normalized >= 360 {
		normalized -= 360
	}
	return uint8(normalized / 360 * 256)
}
func dequantizeAngle(step uint8) float32 { return float32(step) / 256 * 360 }

// EncodeTransform writes t in its quantized wire form.
func EncodeTransform(t Transform) (dimension int32, x, y, z int32, yaw, pitch uint8) {
	return t.DimensionID, quantizePos(t.Position.X), quantizePos(t.Position.Y), quantizePos(t.Position.Z),
		quantizeAngle(t.Yaw), quantizeAngle(t.Pitch)
}

// DecodeTransform reconstructs a Transform from its quantized wire form.
// Pitch is mapped back into its signed range, so a negative pitch survives
// the round trip.
func DecodeTransform(dimension int32, x, y, z int32, yaw, pitch uint8) Transform {
	pitchDeg := dequantizeAngle(pitch)
	if pitchDeg >= 180 {
		pitchDeg -= 360
	}
	return Transform{
		DimensionID: dimension,
		Position:    Vec3{X: dequantizePos(x), Y: dequantizePos(y), Z: dequantizePos(z)},
		Yaw:         dequantizeAngle(yaw),
		Pitch:       pitchDeg,
	}
}

// MovementInput is the analog movement component of one input tick.
// Forward and Strafe are each in [-1, 1]; strafe is right-handed, so a
// positive value moves the player to their right relative to Yaw.
type MovementInput struct {
	Forward float32
	Strafe  float32
	Jump    bool
	Sneak   bool
}

// Verify rejects an out-of-range analog axis, the one invariant a client
// can violate here (everything else in MovementInput is a plain bool).
func (m MovementInput) Verify() error {
	if m.Forward < -1 || m.Forward > 1 {
		return fmt.Errorf("protocol: movement forward %v out of range", m.Forward)
	}
	if m.Strafe < -1 || m.Strafe > 1 {
		return fmt.Errorf("protocol: movement strafe %v out of range", m.Strafe)
	}
	return nil
}

// BlockActionKind distinguishes placing a block from breaking one.
type BlockActionKind uint8

const (
	BlockActionBreak BlockActionKind = iota
	BlockActionPlace
)

// BlockAction is one block edit requested by a client input tick.
type BlockAction struct {
	Kind    BlockActionKind
	X, Y, Z int32
	BlockID uint16
}

// InventoryActionKind distinguishes the inventory operations a client can
// request in one input tick.
type InventoryActionKind uint8

const (
	InventoryActionSelectHotbar InventoryActionKind = iota
	InventoryActionMoveStack
	InventoryActionDropStack
)

// InventoryAction is one inventory edit requested by a client input tick.
type InventoryAction struct {
	Kind InventoryActionKind
	From int32
	To   int32
}

// InputBundle is everything a client reports for a single simulation tick:
// movement, any block/inventory edits, and an optional crafting request.
type InputBundle struct {
	Tick             uint64
	Movement         MovementInput
	BlockActions     []BlockAction
	InventoryActions []InventoryAction
	RecipeID         string
}

// Verify enforces the DoS limits on an InputBundle's variable-length
// fields and the movement range, before the server trusts anything in it.
func (b InputBundle) Verify() error {
	if err := b.Movement.Verify(); err != nil {
		return err
	}
	if len(b.BlockActions) > MaxBlockActions {
		return fmt.Errorf("protocol: %d block actions exceeds limit of %d", len(b.BlockActions), MaxBlockActions)
	}
	if len(b.InventoryActions) > MaxInventoryActions {
		return fmt.Errorf("protocol: %d inventory actions exceeds limit of %d", len(b.InventoryActions), MaxInventoryActions)
	}
	if len(b.RecipeID) > MaxRecipeIDLen {
		return fmt.Errorf("protocol: recipe id length %d exceeds limit of %d", len(b.RecipeID), MaxRecipeIDLen)
	}
	return nil
}

// ChunkDataMessage carries one codec-encoded chunk: its palette and its
// compressed index/state blob (see pkg/chunkcodec and pkg/region for the
// encoding itself).
type ChunkDataMessage struct {
	DimensionID int32
	ChunkX      int32
	ChunkZ      int32
	Palette     []uint16
	Compressed  []byte
}

// Verify enforces the palette and payload size limits that keep a hostile
// or corrupt ChunkDataMessage from forcing an unbounded allocation.
func (c ChunkDataMessage) Verify() error {
	if len(c.Palette) > MaxPaletteSize {
		return fmt.Errorf("protocol: chunk palette size %d exceeds limit of %d", len(c.Palette), MaxPaletteSize)
	}
	if len(c.Compressed) > MaxChunkDataLen {
		return fmt.Errorf("protocol: chunk data length %d exceeds limit of %d", len(c.Compressed), MaxChunkDataLen)
	}
	return nil
}

// EntityUpdateType distinguishes the kinds of per-entity change an
// EntityDeltaMessage can carry.
type EntityUpdateType uint8

const (
	EntityUpdateSpawn EntityUpdateType = iota
	EntityUpdateTransform
	EntityUpdateHealth
	EntityUpdateDespawn
)

// EntityUpdate is one entity's change since the last delta broadcast.
// Only the fields relevant to Type are meaningful; Transform and Health
// are pointers so "unset" is distinguishable from "zero".
type EntityUpdate struct {
	EntityID   uuid.UUID
	Type       EntityUpdateType
	EntityType string
	Transform  *Transform
	Health     *float32
}

// Verify enforces the entity type name length limit; EntityType is only
// meaningful when set on spawn, and it's the one variable-length field
// here.
func (u EntityUpdate) Verify() error {
	if len(u.EntityType) > MaxEntityTypeLen {
		return fmt.Errorf("protocol: entity type name length %d exceeds limit of %d", len(u.EntityType), MaxEntityTypeLen)
	}
	return nil
}

// EntityDeltaMessage batches every entity change since the prior tick that
// was broadcast to a client.
type EntityDeltaMessage struct {
	Tick    uint64
	Updates []EntityUpdate
}

// Verify enforces the per-message update count limit and verifies each
// update's own fields.
func (d EntityDeltaMessage) Verify() error {
	if len(d.Updates) > MaxEntityUpdates {
		return fmt.Errorf("protocol: %d entity updates exceeds limit of %d", len(d.Updates), MaxEntityUpdates)
	}
	for i, u := range d.Updates {
		if err := u.Verify(); err != nil {
			return fmt.Errorf("protocol: entity update %d: %w", i, err)
		}
	}
	return nil
}

// ClientMessage is the closed set of messages a client can send. Only
// types in this file implement it.
type ClientMessage interface {
	isClientMessage()
	Verify() error
}

// ClientHandshake opens a connection, proposing the protocol version and
// schema hash the client was built against.
type ClientHandshake struct {
	ProtocolVersion uint16
	SchemaHash      uint32
}

// ClientInput reports one simulation tick's input.
type ClientInput struct {
	Bundle InputBundle
}

// ClientChat sends a chat line to be broadcast.
type ClientChat struct {
	Text string
}

// ClientDiagnosticsRequest asks the server to report its current
// diagnostics snapshot.
type ClientDiagnosticsRequest struct{}

// ClientDisconnect announces a voluntary disconnect.
type ClientDisconnect struct {
	Reason string
}

func (ClientHandshake) isClientMessage()          {}
func (ClientInput) isClientMessage()              {}
func (ClientChat) isClientMessage()               {}
func (ClientDiagnosticsRequest) isClientMessage() {}
func (ClientDisconnect) isClientMessage()         {}

func (ClientHandshake) Verify() error { return nil }
func (m ClientInput) Verify() error   { return m.Bundle.Verify() }
func (m ClientChat) Verify() error {
	if len(m.Text) > MaxChatLen {
		return fmt.Errorf("protocol: chat length %d exceeds limit of %d", len(m.Text), MaxChatLen)
	}
	return nil
}
func (ClientDiagnosticsRequest) Verify() error { return nil }
func (m ClientDisconnect) Verify() error {
	if len(m.Reason) > MaxChatLen {
		return fmt.Errorf("protocol: disconnect reason length %d exceeds limit of %d", len(m.Reason), MaxChatLen)
	}
	return nil
}

// ServerMessage is the closed set of messages a server can send. Only
// types in this file implement it.
type ServerMessage interface {
	isServerMessage()
	Verify() error
}

// ServerHandshakeResponse answers a ClientHandshake: either the connection
// is accepted and assigned an entity ID, or Reason explains the refusal.
type ServerHandshakeResponse struct {
	Accepted       bool
	Reason         string
	PlayerEntityID uuid.UUID
}

// ServerChunkData delivers one chunk.
type ServerChunkData struct {
	Chunk ChunkDataMessage
}

// ServerEntityDelta delivers a batch of entity changes.
type ServerEntityDelta struct {
	Delta EntityDeltaMessage
}

// ServerChat relays a chat line from Sender (empty for a system message).
type ServerChat struct {
	Sender string
	Text   string
}

// ServerState broadcasts authoritative tick and player transform, the
// basis a client reconciles its predicted state against.
type ServerState struct {
	Tick            uint64
	PlayerTransform Transform
}

// ServerDiagnosticsResponse answers a ClientDiagnosticsRequest.
type ServerDiagnosticsResponse struct {
	TickRate    float32
	PlayerCount int32
	ChunkCount  int32
}

// ServerDisconnect closes the connection with an explanation.
type ServerDisconnect struct {
	Reason string
}

func (ServerHandshakeResponse) isServerMessage()  {}
func (ServerChunkData) isServerMessage()          {}
func (ServerEntityDelta) isServerMessage()        {}
func (ServerChat) isServerMessage()               {}
func (ServerState) isServerMessage()              {}
func (ServerDiagnosticsResponse) isServerMessage() {}
func (ServerDisconnect) isServerMessage()         {}

func (m ServerHandshakeResponse) Verify() error {
	if len(m.Reason) > MaxChatLen {
		return fmt.Errorf("protocol: handshake reason length %d exceeds limit of %d", len(m.Reason), MaxChatLen)
	}
	return nil
}
func (m ServerChunkData) Verify() error   { return m.Chunk.Verify() }
func (m ServerEntityDelta) Verify() error { return m.Delta.Verify() }
func (m ServerChat) Verify() error {
	if len(m.Text) > MaxChatLen {
		return fmt.Errorf("protocol: chat length %d exceeds limit of %d", len(m.Text), MaxChatLen)
	}
	return nil
}
func (ServerState) Verify() error              { return nil }
func (ServerDiagnosticsResponse) Verify() error { return nil }
func (m ServerDisconnect) Verify() error {
	if len(m.Reason) > MaxChatLen {
		return fmt.Errorf("protocol: disconnect reason length %d exceeds limit of %d", len(m.Reason), MaxChatLen)
	}
	return nil
}
