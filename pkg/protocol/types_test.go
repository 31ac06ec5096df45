package protocol

import (
	"bytes"
	"testing"
)

func TestVarInt(t *testing.T) {
	tests := []struct {
		value    int32
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xFF, 0x01}},
		{25565, []byte{0xDD, 0xC7, 0x01}},
		{2097151, []byte{0xFF, 0xFF, 0x7F}},
		{2147483647, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}},
		{-1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		{-2147483648, []byte{0x80, 0x80, 0x80, 0x80, 0x08}},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			// Test write
			var buf bytes.Buffer
			_, err := WriteVarInt(&buf, tt.value)
			if err != nil {
				t.Fatalf("WriteVarInt(%d) error: %v", tt.value, err)
			}
			if !bytes.Equal(buf.Bytes(), tt.expected) {
				t.Errorf("WriteVarInt(%d) = %v, want %v", tt.value, buf.Bytes(), tt.expected)
			}

			// Test read
			r := bytes.NewReader(tt.expected)
			val, n, err := ReadVarInt(r)
			if err != nil {
				t.Fatalf("ReadVarInt error: %v", err)
			}
			if val != tt.value {
				t.Errorf("ReadVarInt = %d, want %d", val, tt.value)
			}
			if n != len(tt.expected) {
				t.Errorf("ReadVarInt bytes read = %d, want %d", n, len(tt.expected))
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []string{
		"",
		"Hello",
		"Hello, World!",
		"日本語テスト",
	}

	for _, s := range tests {
		var buf bytes.Buffer
		err := WriteString(&buf, s)
		if err != nil {
			t.Fatalf("WriteString(%q) error: %v", s, err)
		}

		r := bytes.NewReader(buf.Bytes())
		got, err := ReadString(r)
		if err != nil {
			t.Fatalf("ReadString error: %v", err)
		}
		if got != s {
			t.Errorf("ReadString = %q, want %q", got, s)
		}
	}
}

func TestInt32(t *testing.T) {
	values := []int32{0, 1, -1, 2147483647, -2147483648, 42}
	for _, v := range values {
		var buf bytes.Buffer
		err := WriteInt32(&buf, v)
		if err != nil {
			t.Fatalf("WriteInt32(%d) error: %v", v, err)
		}
		r := bytes.NewReader(buf.Bytes())
		got, err := ReadInt32(r)
		if err != nil {
			t.Fatalf("ReadInt32 error: %v", err)
		}
		if got != v {
			t.Errorf("ReadInt32 = %d, want %d", got, v)
		}
	}
}

func TestBool(t *testing.T) {
	for _, v := range []bool{true, false} {
		var buf bytes.Buffer
		err := WriteBool(&buf, v)
		if err != nil {
			t.Fatalf("WriteBool(%v) error: %v", v, err)
		}
		r := bytes.NewReader(buf.Bytes())
		got, err := ReadBool(r)
		if err != nil {
			t.Fatalf("ReadBool error: %v", err)
		}
		if got != v {
			t.Errorf("ReadBool = %v, want %v", got, v)
		}
	}
}
