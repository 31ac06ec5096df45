package transport

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestReliableFrameRoundTrip(t *testing.T) {
	payload := []byte("hello chat")
	frame := encodeReliable(ChannelChat, payload)

	ch, got, err := decodeReliable(frame)
	if err != nil {
		t.Fatalf("decodeReliable: %v", err)
	}
	if ch != ChannelChat {
		t.Errorf("channel = %v, want %v", ch, ChannelChat)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestDecodeReliableRejectsUnknownChannel(t *testing.T) {
	frame := []byte{255, 1, 2, 3}
	if _, _, err := decodeReliable(frame); err == nil {
		t.Fatal("expected error for unknown channel byte")
	}
}

func TestDecodeReliableRejectsEmptyFrame(t *testing.T) {
	if _, _, err := decodeReliable(nil); err == nil {
		t.Fatal("expected error for empty frame")
	}
}

func TestDatagramRoundTrip(t *testing.T) {
	id := uuid.New()
	payload := []byte{1, 2, 3, 4, 5}

	raw, err := encodeDatagram(ChannelInput, id, payload)
	if err != nil {
		t.Fatalf("encodeDatagram: %v", err)
	}

	env, err := decodeDatagram(raw)
	if err != nil {
		t.Fatalf("decodeDatagram: %v", err)
	}
	if env.Channel != ChannelInput {
		t.Errorf("channel = %v, want %v", env.Channel, ChannelInput)
	}
	if env.SessionID != id {
		t.Errorf("session id = %v, want %v", env.SessionID, id)
	}
	if !bytes.Equal(env.Payload, payload) {
		t.Errorf("payload = %v, want %v", env.Payload, payload)
	}
}

func TestEncodeDatagramRejectsOversizePayload(t *testing.T) {
	id := uuid.New()
	_, err := encodeDatagram(ChannelInput, id, make([]byte, maxDatagramSize))
	if err == nil {
		t.Fatal("expected error for oversize payload")
	}
}

func TestDecodeDatagramRejectsShortFrame(t *testing.T) {
	if _, err := decodeDatagram([]byte{0, 1, 2}); err == nil {
		t.Fatal("expected error for short datagram")
	}
}
