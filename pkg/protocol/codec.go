package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// Message kind bytes. Client and server kinds share one byte space; the
// caller always knows which of ClientMessage/ServerMessage it's decoding
// (a connection's two directions never carry the other side's kinds), so
// there's no ambiguity in practice, but the ranges are kept disjoint for
// clarity when reading a capture.
const (
	kindClientHandshake          = 0x00
	kindClientInput              = 0x01
	kindClientChat               = 0x02
	kindClientDiagnosticsRequest = 0x03
	kindClientDisconnect         = 0x04

	kindServerHandshakeResponse  = 0x10
	kindServerChunkData          = 0x11
	kindServerEntityDelta        = 0x12
	kindServerChat               = 0x13
	kindServerState              = 0x14
	kindServerDiagnosticsResponse = 0x15
	kindServerDisconnect         = 0x16
)

// EncodeClientMessage serializes m to its wire form.
func EncodeClientMessage(m ClientMessage) ([]byte, error) {
	var buf bytes.Buffer
	switch v := m.(type) {
	case ClientHandshake:
		buf.WriteByte(kindClientHandshake)
		WriteUint16(&buf, v.ProtocolVersion)
		WriteUint32(&buf, v.SchemaHash)
	case ClientInput:
		buf.WriteByte(kindClientInput)
		if err := encodeInputBundle(&buf, v.Bundle); err != nil {
			return nil, err
		}
	case ClientChat:
		buf.WriteByte(kindClientChat)
		WriteString(&buf, v.Text)
	case ClientDiagnosticsRequest:
		buf.WriteByte(kindClientDiagnosticsRequest)
	case ClientDisconnect:
		buf.WriteByte(kindClientDisconnect)
		WriteString(&buf, v.Reason)
	default:
		return nil, fmt.Errorf("protocol: unknown ClientMessage type %T", m)
	}
	return buf.Bytes(), nil
}

// DecodeClientMessage parses a frame produced by EncodeClientMessage.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("protocol: empty client message")
	}
	r := bytes.NewReader(data[1:])
	switch data[0] {
	case kindClientHandshake:
		version, err := ReadUint16(r)
		if err != nil {
			return nil, err
		}
		hash, err := ReadUint32(r)
		if err != nil {
			return nil, err
		}
		return ClientHandshake{ProtocolVersion: version, SchemaHash: hash}, nil
	case kindClientInput:
		bundle, err := decodeInputBundle(r)
		if err != nil {
			return nil, err
		}
		return ClientInput{Bundle: bundle}, nil
	case kindClientChat:
		text, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		return ClientChat{Text: text}, nil
	case kindClientDiagnosticsRequest:
		return ClientDiagnosticsRequest{}, nil
	case kindClientDisconnect:
		reason, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		return ClientDisconnect{Reason: reason}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown client message kind 0x%02x", data[0])
	}
}

// EncodeServerMessage serializes m to its wire form.
func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	var buf bytes.Buffer
	switch v := m.(type) {
	case ServerHandshakeResponse:
		buf.WriteByte(kindServerHandshakeResponse)
		WriteBool(&buf, v.Accepted)
		WriteString(&buf, v.Reason)
		WriteUUID(&buf, v.PlayerEntityID)
	case ServerChunkData:
		buf.WriteByte(kindServerChunkData)
		if err := encodeChunkDataMessage(&buf, v.Chunk); err != nil {
			return nil, err
		}
	case ServerEntityDelta:
		buf.WriteByte(kindServerEntityDelta)
		if err := encodeEntityDeltaMessage(&buf, v.Delta); err != nil {
			return nil, err
		}
	case ServerChat:
		buf.WriteByte(kindServerChat)
		WriteString(&buf, v.Sender)
		WriteString(&buf, v.Text)
	case ServerState:
		buf.WriteByte(kindServerState)
		WriteUint64(&buf, v.Tick)
		encodeTransformFields(&buf, v.PlayerTransform)
	case ServerDiagnosticsResponse:
		buf.WriteByte(kindServerDiagnosticsResponse)
		WriteFloat32(&buf, v.TickRate)
		WriteInt32(&buf, v.PlayerCount)
		WriteInt32(&buf, v.ChunkCount)
	case ServerDisconnect:
		buf.WriteByte(kindServerDisconnect)
		WriteString(&buf, v.Reason)
	default:
		return nil, fmt.Errorf("protocol: unknown ServerMessage type %T", m)
	}
	return buf.Bytes(), nil
}

// DecodeServerMessage parses a frame produced by EncodeServerMessage.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("protocol: empty server message")
	}
	r := bytes.NewReader(data[1:])
	switch data[0] {
	case kindServerHandshakeResponse:
		accepted, err := ReadBool(r)
		if err != nil {
			return nil, err
		}
		reason, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		id, err := ReadUUID(r)
		if err != nil {
			return nil, err
		}
		return ServerHandshakeResponse{Accepted: accepted, Reason: reason, PlayerEntityID: id}, nil
	case kindServerChunkData:
		chunk, err := decodeChunkDataMessage(r)
		if err != nil {
			return nil, err
		}
		return ServerChunkData{Chunk: chunk}, nil
	case kindServerEntityDelta:
		delta, err := decodeEntityDeltaMessage(r)
		if err != nil {
			return nil, err
		}
		return ServerEntityDelta{Delta: delta}, nil
	case kindServerChat:
		sender, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		text, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		return ServerChat{Sender: sender, Text: text}, nil
	case kindServerState:
		tick, err := ReadUint64(r)
		if err != nil {
			return nil, err
		}
		tr, err := decodeTransformFields(r)
		if err != nil {
			return nil, err
		}
		return ServerState{Tick: tick, PlayerTransform: tr}, nil
	case kindServerDiagnosticsResponse:
		tickRate, err := ReadFloat32(r)
		if err != nil {
			return nil, err
		}
		playerCount, err := ReadInt32(r)
		if err != nil {
			return nil, err
		}
		chunkCount, err := ReadInt32(r)
		if err != nil {
			return nil, err
		}
		return ServerDiagnosticsResponse{TickRate: tickRate, PlayerCount: playerCount, ChunkCount: chunkCount}, nil
	case kindServerDisconnect:
		reason, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		return ServerDisconnect{Reason: reason}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown server message kind 0x%02x", data[0])
	}
}

func encodeTransformFields(w io.Writer, t Transform) {
	dimension, x, y, z, yaw, pitch := EncodeTransform(t)
	WriteInt32(w, dimension)
	WriteInt32(w, x)
	WriteInt32(w, y)
	WriteInt32(w, z)
	WriteByte(w, yaw)
	WriteByte(w, pitch)
}

func decodeTransformFields(r io.Reader) (Transform, error) {
	dimension, err := ReadInt32(r)
	if err != nil {
		return Transform{}, err
	}
	x, err := ReadInt32(r)
	if err != nil {
		return Transform{}, err
	}
	y, err := ReadInt32(r)
	if err != nil {
		return Transform{}, err
	}
	z, err := ReadInt32(r)
	if err != nil {
		return Transform{}, err
	}
	yaw, err := ReadByte(r)
	if err != nil {
		return Transform{}, err
	}
	pitch, err := ReadByte(r)
	if err != nil {
		return Transform{}, err
	}
	return DecodeTransform(dimension, x, y, z, yaw, pitch), nil
}

func encodeInputBundle(w io.Writer, b InputBundle) error {
	WriteUint64(w, b.Tick)
	WriteFloat32(w, b.Movement.Forward)
	WriteFloat32(w, b.Movement.Strafe)
	WriteBool(w, b.Movement.Jump)
	WriteBool(w, b.Movement.Sneak)

	if _, err := WriteVarInt(w, int32(len(b.BlockActions))); err != nil {
		return err
	}
	for _, a := range b.BlockActions {
		WriteByte(w, byte(a.Kind))
		WriteInt32(w, a.X)
		WriteInt32(w, a.Y)
		WriteInt32(w, a.Z)
		WriteUint16(w, a.BlockID)
	}

	if _, err := WriteVarInt(w, int32(len(b.InventoryActions))); err != nil {
		return err
	}
	for _, a := range b.InventoryActions {
		WriteByte(w, byte(a.Kind))
		WriteInt32(w, a.From)
		WriteInt32(w, a.To)
	}

	return WriteString(w, b.RecipeID)
}

func decodeInputBundle(r io.Reader) (InputBundle, error) {
	var b InputBundle
	var err error
	if b.Tick, err = ReadUint64(r); err != nil {
		return b, err
	}
	if b.Movement.Forward, err = ReadFloat32(r); err != nil {
		return b, err
	}
	if b.Movement.Strafe, err = ReadFloat32(r); err != nil {
		return b, err
	}
	if b.Movement.Jump, err = ReadBool(r); err != nil {
		return b, err
	}
	if b.Movement.Sneak, err = ReadBool(r); err != nil {
		return b, err
	}

	blockCount, _, err := ReadVarInt(r)
	if err != nil {
		return b, err
	}
	if blockCount < 0 || int(blockCount) > MaxBlockActions {
		return b, fmt.Errorf("protocol: block action count %d exceeds limit of %d", blockCount, MaxBlockActions)
	}
	b.BlockActions = make([]BlockAction, blockCount)
	for i := range b.BlockActions {
		kind, err := ReadByte(r)
		if err != nil {
			return b, err
		}
		x, err := ReadInt32(r)
		if err != nil {
			return b, err
		}
		y, err := ReadInt32(r)
		if err != nil {
			return b, err
		}
		z, err := ReadInt32(r)
		if err != nil {
			return b, err
		}
		blockID, err := ReadUint16(r)
		if err != nil {
			return b, err
		}
		b.BlockActions[i] = BlockAction{Kind: BlockActionKind(kind), X: x, Y: y, Z: z, BlockID: blockID}
	}

	invCount, _, err := ReadVarInt(r)
	if err != nil {
		return b, err
	}
	if invCount < 0 || int(invCount) > MaxInventoryActions {
		return b, fmt.Errorf("protocol: inventory action count %d exceeds limit of %d", invCount, MaxInventoryActions)
	}
	b.InventoryActions = make([]InventoryAction, invCount)
	for i := range b.InventoryActions {
		kind, err := ReadByte(r)
		if err != nil {
			return b, err
		}
		from, err := ReadInt32(r)
		if err != nil {
			return b, err
		}
		to, err := ReadInt32(r)
		if err != nil {
			return b, err
		}
		b.InventoryActions[i] = InventoryAction{Kind: InventoryActionKind(kind), From: from, To: to}
	}

	b.RecipeID, err = ReadString(r)
	return b, err
}

func encodeChunkDataMessage(w io.Writer, c ChunkDataMessage) error {
	WriteInt32(w, c.DimensionID)
	WriteInt32(w, c.ChunkX)
	WriteInt32(w, c.ChunkZ)
	if _, err := WriteVarInt(w, int32(len(c.Palette))); err != nil {
		return err
	}
	for _, id := range c.Palette {
		if err := WriteUint16(w, id); err != nil {
			return err
		}
	}
	if _, err := WriteVarInt(w, int32(len(c.Compressed))); err != nil {
		return err
	}
	_, err := w.Write(c.Compressed)
	return err
}

func decodeChunkDataMessage(r io.Reader) (ChunkDataMessage, error) {
	var c ChunkDataMessage
	var err error
	if c.DimensionID, err = ReadInt32(r); err != nil {
		return c, err
	}
	if c.ChunkX, err = ReadInt32(r); err != nil {
		return c, err
	}
	if c.ChunkZ, err = ReadInt32(r); err != nil {
		return c, err
	}

	paletteLen, _, err := ReadVarInt(r)
	if err != nil {
		return c, err
	}
	if paletteLen < 0 || int(paletteLen) > MaxPaletteSize {
		return c, fmt.Errorf("protocol: chunk palette size %d exceeds limit of %d", paletteLen, MaxPaletteSize)
	}
	c.Palette = make([]uint16, paletteLen)
	for i := range c.Palette {
		if c.Palette[i], err = ReadUint16(r); err != nil {
			return c, err
		}
	}

	dataLen, _, err := ReadVarInt(r)
	if err != nil {
		return c, err
	}
	if dataLen < 0 || int(dataLen) > MaxChunkDataLen {
		return c, fmt.Errorf("protocol: chunk data length %d exceeds limit of %d", dataLen, MaxChunkDataLen)
	}
	c.Compressed = make([]byte, dataLen)
	_, err = io.ReadFull(r, c.Compressed)
	return c, err
}

func encodeEntityDeltaMessage(w io.Writer, d EntityDeltaMessage) error {
	WriteUint64(w, d.Tick)
	if _, err := WriteVarInt(w, int32(len(d.Updates))); err != nil {
		return err
	}
	for _, u := range d.Updates {
		if err := WriteUUID(w, u.EntityID); err != nil {
			return err
		}
		WriteByte(w, byte(u.Type))
		if err := WriteString(w, u.EntityType); err != nil {
			return err
		}
		hasTransform := u.Transform != nil
		WriteBool(w, hasTransform)
		if hasTransform {
			encodeTransformFields(w, *u.Transform)
		}
		hasHealth := u.Health != nil
		WriteBool(w, hasHealth)
		if hasHealth {
			WriteFloat32(w, *u.Health)
		}
	}
	return nil
}

func decodeEntityDeltaMessage(r io.Reader) (EntityDeltaMessage, error) {
	var d EntityDeltaMessage
	var err error
	if d.Tick, err = ReadUint64(r); err != nil {
		return d, err
	}

	count, _, err := ReadVarInt(r)
	if err != nil {
		return d, err
	}
	if count < 0 || int(count) > MaxEntityUpdates {
		return d, fmt.Errorf("protocol: entity update count %d exceeds limit of %d", count, MaxEntityUpdates)
	}
	d.Updates = make([]EntityUpdate, count)
	for i := range d.Updates {
		u := &d.Updates[i]
		if u.EntityID, err = ReadUUID(r); err != nil {
			return d, err
		}
		kind, err := ReadByte(r)
		if err != nil {
			return d, err
		}
		u.Type = EntityUpdateType(kind)
		if u.EntityType, err = ReadString(r); err != nil {
			return d, err
		}
		if len(u.EntityType) > MaxEntityTypeLen {
			return d, fmt.Errorf("protocol: entity type name length %d exceeds limit of %d", len(u.EntityType), MaxEntityTypeLen)
		}
		hasTransform, err := ReadBool(r)
		if err != nil {
			return d, err
		}
		if hasTransform {
			tr, err := decodeTransformFields(r)
			if err != nil {
				return d, err
			}
			u.Transform = &tr
		}
		hasHealth, err := ReadBool(r)
		if err != nil {
			return d, err
		}
		if hasHealth {
			health, err := ReadFloat32(r)
			if err != nil {
				return d, err
			}
			u.Health = &health
		}
	}
	return d, nil
}
