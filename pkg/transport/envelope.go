package transport

import (
	"fmt"

	"github.com/google/uuid"
)

// sessionIDSize is the length of the session identifier prefix carried on
// every unreliable datagram, used to demux a shared UDP socket back to the
// session that sent it.
const sessionIDSize = 16

// maxDatagramSize bounds a single unreliable datagram; anything larger is
// rejected rather than silently truncated.
const maxDatagramSize = 64 * 1024

// envelope is the wire framing used on both the reliable stream (minus the
// session ID, since a WebSocket connection is already scoped to one
// session) and the shared unreliable UDP socket (which needs the session
// ID to know which session a given datagram belongs to).
type envelope struct {
	Channel   Channel
	SessionID uuid.UUID
	Payload   []byte
}

// encodeReliable frames a reliable-channel message: one channel byte
// followed by the payload. No session ID is needed; the WebSocket
// connection itself identifies the session.
func encodeReliable(ch Channel, payload []byte) []byte {
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(ch)
	copy(buf[1:], payload)
	return buf
}

// decodeReliable parses a frame produced by encodeReliable.
func decodeReliable(frame []byte) (Channel, []byte, error) {
	if len(frame) < 1 {
		return 0, nil, fmt.Errorf("transport: reliable frame too short")
	}
	if !validChannel(frame[0]) {
		return 0, nil, fmt.Errorf("transport: unknown channel byte %d", frame[0])
	}
	return Channel(frame[0]), frame[1:], nil
}

// encodeDatagram frames an unreliable-channel message for the shared UDP
// socket: one channel byte, the sending session's ID, then the payload.
func encodeDatagram(ch Channel, sessionID uuid.UUID, payload []byte) ([]byte, error) {
	if len(payload) > maxDatagramSize-1-sessionIDSize {
		return nil, fmt.Errorf("transport: datagram payload of %d bytes exceeds limit", len(payload))
	}
	buf := make([]byte, 1+sessionIDSize+len(payload))
	buf[0] = byte(ch)
	copy(buf[1:1+sessionIDSize], sessionID[:])
	copy(buf[1+sessionIDSize:], payload)
	return buf, nil
}

// decodeDatagram parses a frame produced by encodeDatagram.
func decodeDatagram(datagram []byte) (envelope, error) {
	if len(datagram) < 1+sessionIDSize {
		return envelope{}, fmt.Errorf("transport: datagram too short")
	}
	if !validChannel(datagram[0]) {
		return envelope{}, fmt.Errorf("transport: unknown channel byte %d", datagram[0])
	}
	id, err := uuid.FromBytes(datagram[1 : 1+sessionIDSize])
	if err != nil {
		return envelope{}, fmt.Errorf("transport: malformed session id: %w", err)
	}
	payload := make([]byte, len(datagram)-1-sessionIDSize)
	copy(payload, datagram[1+sessionIDSize:])
	return envelope{Channel: Channel(datagram[0]), SessionID: id, Payload: payload}, nil
}
