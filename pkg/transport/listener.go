package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// upgrader configures the WebSocket upgrade for the reliable channel.
// Origin checking is left to whatever sits in front of the server (the
// session/handshake layer authenticates on the first message anyway).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Listener accepts reliable (WebSocket) connections and demultiplexes a
// single shared unreliable (UDP) socket across the sessions registered on
// it.
type Listener struct {
	udpConn *net.UDPConn

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	accept chan *Session
}

// NewListener opens the shared UDP socket at udpAddr (e.g. ":25566") used
// for every session's unreliable channels. The reliable channel is
// accepted separately via Listener.Handler, mounted on an http.Server by
// the caller.
func NewListener(udpAddr string) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve udp addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp: %w", err)
	}
	l := &Listener{
		udpConn:  conn,
		sessions: make(map[uuid.UUID]*Session),
		accept:   make(chan *Session, 16),
	}
	go l.serveUDP(context.Background())
	return l, nil
}

// Handler upgrades an incoming HTTP request to a WebSocket connection,
// registers a new Session for it, and hands the session to Accept.
func (l *Listener) Handler(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.New()
	s := newSession(id, ws, l)

	l.mu.Lock()
	l.sessions[id] = s
	l.mu.Unlock()

	select {
	case l.accept <- s:
	default:
		// Nobody is calling Accept fast enough; drop this connection
		// rather than leak it.
		s.Close()
	}
}

// Accept blocks until a new Session is available or ctx is done.
func (l *Listener) Accept(ctx context.Context) (*Session, error) {
	select {
	case s := <-l.accept:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the shared UDP socket. It does not close individual
// sessions' WebSocket connections.
func (l *Listener) Close() error {
	return l.udpConn.Close()
}

// UDPAddr returns the address the shared unreliable socket is bound to,
// useful when NewListener was given an ephemeral port (":0").
func (l *Listener) UDPAddr() *net.UDPAddr {
	return l.udpConn.LocalAddr().(*net.UDPAddr)
}

func (l *Listener) unregister(id uuid.UUID) {
	l.mu.Lock()
	delete(l.sessions, id)
	l.mu.Unlock()
}

func (l *Listener) sessionByID(id uuid.UUID) (*Session, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sessions[id]
	return s, ok
}

// serveUDP reads datagrams off the shared socket and routes each one to
// the session named by its envelope, silently discarding anything
// malformed or addressed to an unknown session — exactly the loss
// tolerance the unreliable channel already promises callers.
func (l *Listener) serveUDP(ctx context.Context) {
	buf := make([]byte, maxDatagramSize)
	for {
		if ctx.Err() != nil {
			return
		}
		l.udpConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := l.udpConn.ReadFromUDP(buf)
		if err != nil {
			if nErr, ok := err.(net.Error); ok && nErr.Timeout() {
				continue
			}
			return
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		env, err := decodeDatagram(datagram)
		if err != nil {
			continue
		}
		session, ok := l.sessionByID(env.SessionID)
		if !ok {
			continue
		}
		session.deliverUnreliable(addr, env.Channel, env.Payload)
	}
}
