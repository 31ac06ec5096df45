package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stormvale/voxelcore/pkg/errs"
	"github.com/stormvale/voxelcore/pkg/protocol"
	"github.com/stormvale/voxelcore/pkg/transport"
)

func newTestServer(t *testing.T) (*transport.Listener, *httptest.Server) {
	t.Helper()
	l, err := transport.NewListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(l.Handler))
	t.Cleanup(func() {
		srv.Close()
		l.Close()
	})
	return l, srv
}

// reliableFrame reproduces transport's wire framing for a reliable
// message (one channel byte followed by the payload) since that framing
// function is unexported.
func reliableFrame(ch transport.Channel, payload []byte) []byte {
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(ch)
	copy(buf[1:], payload)
	return buf
}

func dialClient(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func acceptServerSession(t *testing.T, l *transport.Listener) *transport.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, err := l.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return sess
}

func TestHandshakeAccepts(t *testing.T) {
	l, srv := newTestServer(t)
	client := dialClient(t, srv)
	sess := acceptServerSession(t, l)

	data, err := protocol.EncodeClientMessage(protocol.ClientHandshake{
		ProtocolVersion: protocol.ProtocolVersion,
		SchemaHash:      protocol.SchemaHash,
	})
	if err != nil {
		t.Fatalf("EncodeClientMessage: %v", err)
	}
	if err := client.WriteMessage(websocket.BinaryMessage, reliableFrame(transport.ChannelChat, data)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	player, err := Handshake(ctx, sess)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if player.EntityID.String() == "" {
		t.Fatal("expected a non-empty entity ID")
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	ch, payload, err := decodeTestReliableFrame(raw)
	if err != nil {
		t.Fatalf("decoding response frame: %v", err)
	}
	if ch != transport.ChannelChat {
		t.Fatalf("response on channel %v, want Chat", ch)
	}
	resp, err := protocol.DecodeServerMessage(payload)
	if err != nil {
		t.Fatalf("DecodeServerMessage: %v", err)
	}
	hr, ok := resp.(protocol.ServerHandshakeResponse)
	if !ok {
		t.Fatalf("response is %T, want ServerHandshakeResponse", resp)
	}
	if !hr.Accepted || hr.PlayerEntityID != player.EntityID {
		t.Fatalf("got %+v, want accepted with entity id %v", hr, player.EntityID)
	}
}

func TestHandshakeRejectsVersionMismatch(t *testing.T) {
	l, srv := newTestServer(t)
	client := dialClient(t, srv)
	sess := acceptServerSession(t, l)

	data, err := protocol.EncodeClientMessage(protocol.ClientHandshake{
		ProtocolVersion: protocol.ProtocolVersion + 1,
		SchemaHash:      protocol.SchemaHash,
	})
	if err != nil {
		t.Fatalf("EncodeClientMessage: %v", err)
	}
	if err := client.WriteMessage(websocket.BinaryMessage, reliableFrame(transport.ChannelChat, data)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Handshake(ctx, sess)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("Handshake: got %v, want ErrVersionMismatch", err)
	}
	if !errors.Is(err, errs.Unsupported) {
		t.Fatalf("Handshake: got %v, want a errs.Unsupported classification", err)
	}
}

func TestHandshakeRejectsSchemaMismatch(t *testing.T) {
	l, srv := newTestServer(t)
	client := dialClient(t, srv)
	sess := acceptServerSession(t, l)

	data, err := protocol.EncodeClientMessage(protocol.ClientHandshake{
		ProtocolVersion: protocol.ProtocolVersion,
		SchemaHash:      protocol.SchemaHash + 1,
	})
	if err != nil {
		t.Fatalf("EncodeClientMessage: %v", err)
	}
	if err := client.WriteMessage(websocket.BinaryMessage, reliableFrame(transport.ChannelChat, data)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Handshake(ctx, sess)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Handshake: got %v, want ErrSchemaMismatch", err)
	}
	if !errors.Is(err, errs.Unsupported) {
		t.Fatalf("Handshake: got %v, want a errs.Unsupported classification", err)
	}
}

func TestHandshakeRejectsNonHandshakeFirstMessage(t *testing.T) {
	l, srv := newTestServer(t)
	client := dialClient(t, srv)
	sess := acceptServerSession(t, l)

	data, err := protocol.EncodeClientMessage(protocol.ClientChat{Text: "hi"})
	if err != nil {
		t.Fatalf("EncodeClientMessage: %v", err)
	}
	if err := client.WriteMessage(websocket.BinaryMessage, reliableFrame(transport.ChannelChat, data)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Handshake(ctx, sess)
	if !errors.Is(err, ErrNotAHandshake) {
		t.Fatalf("Handshake: got %v, want ErrNotAHandshake", err)
	}
	if !errors.Is(err, errs.BadRequest) {
		t.Fatalf("Handshake: got %v, want a errs.BadRequest classification", err)
	}
}

func TestHandshakeTimesOut(t *testing.T) {
	l, srv := newTestServer(t)
	dialClient(t, srv)
	sess := acceptServerSession(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Handshake(ctx, sess)
	if err == nil {
		t.Fatal("expected a timeout error when no handshake arrives")
	}
	if !errors.Is(err, errs.BadRequest) {
		t.Fatalf("Handshake: got %v, want a errs.BadRequest classification", err)
	}
}

// decodeTestReliableFrame mirrors transport's unexported decodeReliable,
// reimplemented here since this test lives outside that package.
func decodeTestReliableFrame(frame []byte) (transport.Channel, []byte, error) {
	if len(frame) < 1 {
		return 0, nil, errShortFrame
	}
	return transport.Channel(frame[0]), frame[1:], nil
}

var errShortFrame = shortFrameError{}

type shortFrameError struct{}

func (shortFrameError) Error() string { return "session: reliable frame too short" }
