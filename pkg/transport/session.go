package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeTimeout bounds a single reliable write; a client that can't keep up
// within this window is treated as dead.
const writeTimeout = 10 * time.Second

// sendBufferSize is how many outgoing reliable frames can be queued
// before SendReliable starts reporting backpressure to the caller instead
// of silently dropping a message the channel's ordering guarantee can't
// afford to lose.
const sendBufferSize = 64

// recvBufferSize bounds how many not-yet-consumed unreliable messages a
// session holds; once full, new datagrams for this session are dropped,
// consistent with the channel's documented loss tolerance.
const recvBufferSize = 64

// ErrBackpressure is returned by SendReliable when a session's outgoing
// queue is full. The caller should treat this as a fatal condition for
// the connection (the reliable channel can't skip messages to catch up).
var ErrBackpressure = errors.New("transport: reliable send queue full")

// ReliableMessage is one message received on the ordered stream.
type ReliableMessage struct {
	Channel Channel
	Payload []byte
}

// UnreliableMessage is one message received on the datagram socket.
type UnreliableMessage struct {
	Channel Channel
	Payload []byte
}

// Session is one client's connection: a WebSocket stream carrying the
// reliable channels, plus a UDP peer address (learned from the first
// datagram the client sends) used for the unreliable channels.
type Session struct {
	ID uuid.UUID

	ws       *websocket.Conn
	listener *Listener

	remoteUDP atomic.Pointer[net.UDPAddr]

	sendCh         chan []byte
	recvReliable   chan ReliableMessage
	recvUnreliable chan UnreliableMessage

	mu     sync.Mutex
	closed bool
}

func newSession(id uuid.UUID, ws *websocket.Conn, l *Listener) *Session {
	s := &Session{
		ID:             id,
		ws:             ws,
		listener:       l,
		sendCh:         make(chan []byte, sendBufferSize),
		recvReliable:   make(chan ReliableMessage, sendBufferSize),
		recvUnreliable: make(chan UnreliableMessage, recvBufferSize),
	}
	go s.writeLoop()
	go s.readLoop()
	return s
}

// SendReliable queues payload for delivery on the ordered stream. It
// returns ErrBackpressure rather than blocking or dropping if the
// session's send queue is full.
func (s *Session) SendReliable(ch Channel, payload []byte) error {
	if !ch.Reliable() {
		return fmt.Errorf("transport: %s is not a reliable channel", ch)
	}
	select {
	case s.sendCh <- encodeReliable(ch, payload):
		return nil
	default:
		return ErrBackpressure
	}
}

// SendUnreliable best-effort sends payload on the datagram socket. It
// silently does nothing if this session's UDP peer address isn't known
// yet (the client hasn't sent its first datagram) or if the underlying
// write fails — loss on this channel is never reported as an error.
func (s *Session) SendUnreliable(ch Channel, payload []byte) error {
	if ch.Reliable() {
		return fmt.Errorf("transport: %s is not an unreliable channel", ch)
	}
	addr := s.remoteUDP.Load()
	if addr == nil {
		return nil
	}
	datagram, err := encodeDatagram(ch, s.ID, payload)
	if err != nil {
		return err
	}
	_, err = s.listener.udpConn.WriteToUDP(datagram, addr)
	if err != nil {
		return nil
	}
	return nil
}

// Reliable returns the channel of received ordered-stream messages.
func (s *Session) Reliable() <-chan ReliableMessage { return s.recvReliable }

// Unreliable returns the channel of received datagram messages.
func (s *Session) Unreliable() <-chan UnreliableMessage { return s.recvUnreliable }

// Close closes the underlying WebSocket connection and stops this
// session's read/write goroutines.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.sendCh)
	s.mu.Unlock()

	s.listener.unregister(s.ID)
	return s.ws.Close()
}

func (s *Session) writeLoop() {
	for frame := range s.sendCh {
		s.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.Close()
			return
		}
	}
}

func (s *Session) readLoop() {
	defer s.Close()
	for {
		msgType, data, err := s.ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		ch, payload, err := decodeReliable(data)
		if err != nil {
			continue
		}
		select {
		case s.recvReliable <- ReliableMessage{Channel: ch, Payload: payload}:
		default:
			// Reliable queue here is the inbound side; a full queue means
			// the consumer isn't keeping up. Closing rather than dropping
			// preserves the channel's ordering guarantee.
			return
		}
	}
}

// deliverUnreliable is called by the Listener's UDP read loop once it has
// decoded a datagram addressed to this session.
func (s *Session) deliverUnreliable(addr *net.UDPAddr, ch Channel, payload []byte) {
	s.remoteUDP.Store(addr)
	select {
	case s.recvUnreliable <- UnreliableMessage{Channel: ch, Payload: payload}:
	default:
		// Unreliable channel: silently drop under backpressure.
	}
}
