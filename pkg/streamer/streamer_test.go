package streamer

import (
	"testing"

	"github.com/stormvale/voxelcore/pkg/chunkcodec"
	"github.com/stormvale/voxelcore/pkg/world"
)

func chunkAt(x, z int32) world.ChunkPos {
	return world.ChunkPos{Dimension: world.DimensionOverworld, X: x, Z: z}
}

func uniformChunk(id uint16) []uint16 {
	ids := make([]uint16, chunkcodec.VoxelCount)
	for i := range ids {
		ids[i] = id
	}
	return ids
}

func TestEnqueueChunk(t *testing.T) {
	s := New()
	if !s.Enqueue(chunkAt(0, 0)) {
		t.Fatal("expected first enqueue to succeed")
	}
	if s.QueueSize() != 1 {
		t.Fatalf("QueueSize = %d, want 1", s.QueueSize())
	}
	if s.Enqueue(chunkAt(0, 0)) {
		t.Fatal("expected duplicate enqueue to fail")
	}
	if s.QueueSize() != 1 {
		t.Fatalf("QueueSize after duplicate = %d, want 1", s.QueueSize())
	}
}

func TestPriorityOrdering(t *testing.T) {
	s := New()
	s.SetPlayerPosition(chunkAt(0, 0))

	s.Enqueue(chunkAt(5, 5))
	s.Enqueue(chunkAt(1, 1))
	s.Enqueue(chunkAt(3, 3))

	if got := s.queue[0].pos; got != chunkAt(1, 1) {
		t.Fatalf("top of queue = %v, want (1,1)", got)
	}
}

func TestSendChunk(t *testing.T) {
	s := New()
	s.Enqueue(chunkAt(0, 0))

	provider := func(pos world.ChunkPos) ([]uint16, bool) {
		if pos == chunkAt(0, 0) {
			return uniformChunk(1), true
		}
		return nil, false
	}

	payload, err := s.TrySendNext(provider)
	if err != nil {
		t.Fatalf("TrySendNext: %v", err)
	}
	if payload == nil {
		t.Fatal("expected a payload")
	}
	if payload.Pos != chunkAt(0, 0) {
		t.Fatalf("payload.Pos = %v, want (0,0)", payload.Pos)
	}
	if s.QueueSize() != 0 {
		t.Fatalf("QueueSize after send = %d, want 0", s.QueueSize())
	}
	if s.SentCount() != 1 {
		t.Fatalf("SentCount = %d, want 1", s.SentCount())
	}
	if !s.IsChunkSent(chunkAt(0, 0)) {
		t.Fatal("expected (0,0) to be marked sent")
	}
}

func TestBandwidthLimiting(t *testing.T) {
	s := WithBandwidthLimit(1500)
	for i := int32(0); i < 10; i++ {
		s.Enqueue(chunkAt(i, 0))
	}

	provider := func(world.ChunkPos) ([]uint16, bool) { return uniformChunk(1), true }

	r1, err := s.TrySendNext(provider)
	if err != nil {
		t.Fatalf("TrySendNext 1: %v", err)
	}
	if r1 == nil {
		t.Fatal("expected first chunk to send")
	}

	r2, err := s.TrySendNext(provider)
	if err != nil {
		t.Fatalf("TrySendNext 2: %v", err)
	}
	if r2 != nil {
		t.Fatal("expected second chunk to be blocked by bandwidth limit")
	}

	if s.SentCount() != 1 {
		t.Fatalf("SentCount = %d, want 1", s.SentCount())
	}
}

func TestMetrics(t *testing.T) {
	s := New()
	s.Enqueue(chunkAt(0, 0))

	provider := func(world.ChunkPos) ([]uint16, bool) { return uniformChunk(1), true }
	if _, err := s.TrySendNext(provider); err != nil {
		t.Fatalf("TrySendNext: %v", err)
	}

	m := s.Metrics()
	if m.ChunksSent != 1 {
		t.Errorf("ChunksSent = %d, want 1", m.ChunksSent)
	}
	if m.TotalBytesUncompressed == 0 {
		t.Error("expected TotalBytesUncompressed > 0")
	}
	if m.TotalBytesCompressed == 0 {
		t.Error("expected TotalBytesCompressed > 0")
	}
	if m.AvgCompressionRatio <= 0 {
		t.Error("expected AvgCompressionRatio > 0")
	}
}

func TestPriorityUpdateOnPlayerMove(t *testing.T) {
	s := New()
	s.SetPlayerPosition(chunkAt(0, 0))

	s.Enqueue(chunkAt(5, 5))
	s.Enqueue(chunkAt(10, 10))

	if got := s.queue[0].pos; got != chunkAt(5, 5) {
		t.Fatalf("top before move = %v, want (5,5)", got)
	}

	s.SetPlayerPosition(chunkAt(9, 9))

	if got := s.queue[0].pos; got != chunkAt(10, 10) {
		t.Fatalf("top after move = %v, want (10,10)", got)
	}
}

func TestChunkNotAvailable(t *testing.T) {
	s := New()
	s.Enqueue(chunkAt(0, 0))

	provider := func(world.ChunkPos) ([]uint16, bool) { return nil, false }

	payload, err := s.TrySendNext(provider)
	if err != nil {
		t.Fatalf("TrySendNext: %v", err)
	}
	if payload != nil {
		t.Fatal("expected no payload when chunk unavailable")
	}
	if s.QueueSize() != 0 {
		t.Fatalf("QueueSize = %d, want 0", s.QueueSize())
	}
}

func TestClearSentHistory(t *testing.T) {
	s := New()
	s.Enqueue(chunkAt(0, 0))

	provider := func(world.ChunkPos) ([]uint16, bool) { return uniformChunk(1), true }
	if _, err := s.TrySendNext(provider); err != nil {
		t.Fatalf("TrySendNext: %v", err)
	}
	if s.SentCount() != 1 {
		t.Fatalf("SentCount = %d, want 1", s.SentCount())
	}

	s.ClearSentHistory()
	if s.SentCount() != 0 {
		t.Fatalf("SentCount after clear = %d, want 0", s.SentCount())
	}
	if !s.Enqueue(chunkAt(0, 0)) {
		t.Fatal("expected re-enqueue to succeed after clearing sent history")
	}
}

func TestStreamerReset(t *testing.T) {
	s := New()
	s.Enqueue(chunkAt(0, 0))
	s.Enqueue(chunkAt(1, 1))

	s.Reset()

	if s.QueueSize() != 0 {
		t.Fatalf("QueueSize after reset = %d, want 0", s.QueueSize())
	}
	if s.SentCount() != 0 {
		t.Fatalf("SentCount after reset = %d, want 0", s.SentCount())
	}
	if s.Metrics().ChunksSent != 0 {
		t.Fatalf("ChunksSent after reset = %d, want 0", s.Metrics().ChunksSent)
	}
}

func TestMaxQueueSizeEnforced(t *testing.T) {
	s := New()
	for i := int32(0); i < MaxQueueSize; i++ {
		if !s.Enqueue(chunkAt(i, 0)) {
			t.Fatalf("enqueue %d unexpectedly failed", i)
		}
	}
	if s.Enqueue(chunkAt(MaxQueueSize, 0)) {
		t.Fatal("expected enqueue past MaxQueueSize to fail")
	}
}
