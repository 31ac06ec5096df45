// Package streamer queues and throttles chunk delivery to a single client
// connection: nearest-first priority ordering and a bandwidth cap so one
// fast-moving player can't starve everyone else's outbound socket.
package streamer

import (
	"container/heap"
	"time"

	"github.com/stormvale/voxelcore/pkg/chunkcodec"
	"github.com/stormvale/voxelcore/pkg/world"
)

// MaxQueueSize bounds how many chunks can be pending for one client at once.
const MaxQueueSize = 256

// DefaultBandwidthLimit is the default outbound cap, in bytes/sec.
const DefaultBandwidthLimit = 1024 * 1024

// Metrics reports cumulative and instantaneous streaming stats, useful for
// a server's own diagnostics endpoint.
type Metrics struct {
	TotalBytesUncompressed uint64
	TotalBytesCompressed   uint64
	ChunksSent             uint64
	QueueSize              int
	BandwidthUsed          uint64
	AvgCompressionRatio    float32
}

// Payload is an encoded chunk ready to hand to the transport layer.
type Payload struct {
	Pos     world.ChunkPos
	Encoded chunkcodec.Encoded
}

// Provider supplies a chunk's flattened voxel IDs for encoding, or ok=false
// if the chunk isn't available (not yet generated, or out of range).
type Provider func(pos world.ChunkPos) (ids []uint16, ok bool)

// Streamer tracks one client's outstanding chunk sends: a distance-ordered
// priority queue, what's already queued or sent, and a rolling bandwidth
// budget.
type Streamer struct {
	queue  priorityQueue
	queued map[world.ChunkPos]bool
	sent   map[world.ChunkPos]bool

	playerPos world.ChunkPos

	bandwidthLimit      uint64
	bytesSentThisSecond uint64
	lastReset           time.Time

	metrics Metrics
}

// New creates a Streamer with the default bandwidth limit.
func New() *Streamer {
	return WithBandwidthLimit(DefaultBandwidthLimit)
}

// WithBandwidthLimit creates a Streamer with a custom bandwidth limit in
// bytes/sec.
func WithBandwidthLimit(limit uint64) *Streamer {
	return &Streamer{
		queued:         make(map[world.ChunkPos]bool),
		sent:           make(map[world.ChunkPos]bool),
		bandwidthLimit: limit,
		lastReset:      time.Now(),
	}
}

// SetPlayerPosition updates the reference chunk used for priority
// calculation and re-sorts every chunk already in the queue against it.
func (s *Streamer) SetPlayerPosition(pos world.ChunkPos) {
	s.playerPos = pos
	for i := range s.queue {
		s.queue[i].priority = s.queue[i].pos.ChebyshevDistance(pos)
	}
	heap.Init(&s.queue)
}

// Enqueue schedules pos for sending. Returns false if it's already queued
// or sent, or if the queue is full.
func (s *Streamer) Enqueue(pos world.ChunkPos) bool {
	if s.queued[pos] || s.sent[pos] {
		return false
	}
	if len(s.queued) >= MaxQueueSize {
		return false
	}

	heap.Push(&s.queue, chunkEntry{pos: pos, priority: pos.ChebyshevDistance(s.playerPos)})
	s.queued[pos] = true
	s.metrics.QueueSize = len(s.queued)
	return true
}

// TrySendNext pops and encodes the highest-priority queued chunk, subject
// to the bandwidth limit. It returns (nil, nil) when the queue is empty,
// the chunk isn't available from provider, or sending it now would exceed
// this second's bandwidth budget (the caller should retry later in that
// last case; the chunk stays queued).
func (s *Streamer) TrySendNext(provider Provider) (*Payload, error) {
	if time.Since(s.lastReset) >= time.Second {
		s.bytesSentThisSecond = 0
		s.lastReset = time.Now()
	}

	if len(s.queue) == 0 {
		return nil, nil
	}

	next := s.queue[0]

	ids, ok := provider(next.pos)
	if !ok {
		heap.Pop(&s.queue)
		delete(s.queued, next.pos)
		s.metrics.QueueSize = len(s.queued)
		return nil, nil
	}

	encoded, err := chunkcodec.Encode(ids)
	if err != nil {
		return nil, err
	}

	uncompressedSize := uint64(chunkcodec.VoxelCount * 2)
	compressedSize := uint64(len(encoded.Compressed) + len(encoded.Palette)*2)

	if s.bytesSentThisSecond+compressedSize > s.bandwidthLimit {
		return nil, nil
	}

	heap.Pop(&s.queue)
	delete(s.queued, next.pos)
	s.sent[next.pos] = true

	s.bytesSentThisSecond += compressedSize
	s.metrics.TotalBytesUncompressed += uncompressedSize
	s.metrics.TotalBytesCompressed += compressedSize
	s.metrics.ChunksSent++
	s.metrics.QueueSize = len(s.queued)
	s.metrics.BandwidthUsed = s.bytesSentThisSecond
	if s.metrics.TotalBytesUncompressed > 0 {
		s.metrics.AvgCompressionRatio = chunkcodec.CompressionRatio(
			int(s.metrics.TotalBytesUncompressed), int(s.metrics.TotalBytesCompressed))
	}

	return &Payload{Pos: next.pos, Encoded: encoded}, nil
}

// Metrics returns a snapshot of cumulative streaming stats.
func (s *Streamer) Metrics() Metrics { return s.metrics }

// QueueSize returns the number of chunks currently queued.
func (s *Streamer) QueueSize() int { return len(s.queued) }

// SentCount returns the number of chunks sent to this client so far.
func (s *Streamer) SentCount() int { return len(s.sent) }

// IsChunkSent reports whether pos has already been sent.
func (s *Streamer) IsChunkSent(pos world.ChunkPos) bool { return s.sent[pos] }

// ClearSentHistory forgets which chunks were sent, letting them be
// re-queued. Used when a client teleports far enough that "already sent"
// chunks may need refreshing under a different view.
func (s *Streamer) ClearSentHistory() {
	s.sent = make(map[world.ChunkPos]bool)
}

// Reset clears all queued and sent state and streaming metrics.
func (s *Streamer) Reset() {
	s.queue = nil
	s.queued = make(map[world.ChunkPos]bool)
	s.sent = make(map[world.ChunkPos]bool)
	s.metrics = Metrics{}
	s.bytesSentThisSecond = 0
	s.lastReset = time.Now()
}

// chunkEntry is one priority-queue element; lower priority (closer to the
// player) sorts first.
type chunkEntry struct {
	pos      world.ChunkPos
	priority int32
}

type priorityQueue []chunkEntry

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x interface{}) { *q = append(*q, x.(chunkEntry)) }
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
