// Package predictor implements client-side movement prediction:
// speculatively applying local input before the server confirms it, and
// reconciling against authoritative ServerState snapshots when the
// prediction and the server disagree.
package predictor

import (
	"math"

	"github.com/stormvale/voxelcore/pkg/protocol"
)

// DefaultSnapshotCapacity bounds the ring buffer of retained server
// snapshots.
const DefaultSnapshotCapacity = 256

// PositionErrorTolerance is the largest quantized-unit position error
// (1 unit = 1/16 block) tolerated before a reconciliation is treated as
// a Mismatch rather than a Match. 2 quantized units is about 1/8 block.
const PositionErrorTolerance = 2

// MaxPendingInputs bounds how many unconfirmed inputs are retained for
// replay; older ones are dropped rather than letting the buffer grow
// unbounded if the server stops acknowledging ticks.
const MaxPendingInputs = 128

// ServerSnapshot is one authoritative tick as reported by ServerState.
type ServerSnapshot struct {
	Tick            uint64
	PlayerTransform protocol.Transform
}

// SnapshotBuffer is a fixed-capacity ring buffer of the most recently
// received server snapshots.
type SnapshotBuffer struct {
	snapshots []ServerSnapshot
	capacity  int
}

// NewSnapshotBuffer creates a buffer with the given capacity.
func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	return &SnapshotBuffer{capacity: capacity}
}

// Push appends a snapshot, evicting the oldest one if the buffer is
// already at capacity.
func (b *SnapshotBuffer) Push(s ServerSnapshot) {
	if len(b.snapshots) >= b.capacity {
		b.snapshots = b.snapshots[1:]
	}
	b.snapshots = append(b.snapshots, s)
}

// Get returns the snapshot for tick, if still retained.
func (b *SnapshotBuffer) Get(tick uint64) (ServerSnapshot, bool) {
	for _, s := range b.snapshots {
		if s.Tick == tick {
			return s, true
		}
	}
	return ServerSnapshot{}, false
}

// Latest returns the most recently pushed snapshot.
func (b *SnapshotBuffer) Latest() (ServerSnapshot, bool) {
	if len(b.snapshots) == 0 {
		return ServerSnapshot{}, false
	}
	return b.snapshots[len(b.snapshots)-1], true
}

// Oldest returns the least recently pushed retained snapshot.
func (b *SnapshotBuffer) Oldest() (ServerSnapshot, bool) {
	if len(b.snapshots) == 0 {
		return ServerSnapshot{}, false
	}
	return b.snapshots[0], true
}

// Len returns the number of snapshots currently retained.
func (b *SnapshotBuffer) Len() int { return len(b.snapshots) }

// Clear discards every retained snapshot.
func (b *SnapshotBuffer) Clear() { b.snapshots = nil }

// PruneBefore discards every snapshot older than tick.
func (b *SnapshotBuffer) PruneBefore(tick uint64) {
	kept := b.snapshots[:0]
	for _, s := range b.snapshots {
		if s.Tick >= tick {
			kept = append(kept, s)
		}
	}
	b.snapshots = kept
}

// pendingInput is one not-yet-confirmed client input tick.
type pendingInput struct {
	tick  uint64
	input protocol.InputBundle
}

// Metrics tracks prediction accuracy across the life of a Predictor.
type Metrics struct {
	TotalPredictions uint64
	TotalMismatches  uint64
	TotalRewinds     uint64
	AvgErrorDistance float32 // blocks
	MaxErrorDistance float32 // blocks
}

// Predictor is the client-side prediction and rollback/replay state
// machine: it records local inputs speculatively, then reconciles
// against each incoming ServerState.
type Predictor struct {
	snapshots         *SnapshotBuffer
	lastConfirmedTick uint64
	pendingInputs     []pendingInput
	clientTick        uint64
	metrics           Metrics
}

// New creates a Predictor with the default snapshot capacity.
func New() *Predictor {
	return &Predictor{snapshots: NewSnapshotBuffer(DefaultSnapshotCapacity)}
}

// RecordInput appends a locally-applied input for tick, to be replayed
// later if the server's confirmation of that tick disagrees with the
// client's prediction. Oldest pending inputs are dropped once
// MaxPendingInputs is exceeded.
func (p *Predictor) RecordInput(tick uint64, input protocol.InputBundle) {
	p.pendingInputs = append(p.pendingInputs, pendingInput{tick: tick, input: input})
	p.clientTick = tick
	p.metrics.TotalPredictions++
	for len(p.pendingInputs) > MaxPendingInputs {
		p.pendingInputs = p.pendingInputs[1:]
	}
}

// Result is the outcome of a reconciliation: either the client's
// prediction matched the server (Mismatch is false) or it didn't
// (Mismatch is true and the remaining fields describe the correction).
type Result struct {
	ServerTick      uint64
	Mismatch        bool
	ServerTransform protocol.Transform
	InputsToReplay  []InputAtTick
	ErrorDistance   float32 // blocks
}

// InputAtTick pairs a tick number with the input recorded for it, for
// replay after a Mismatch.
type InputAtTick struct {
	Tick  uint64
	Input protocol.InputBundle
}

// Reconcile processes one incoming ServerState against the client's
// currently predicted transform. On Match, no caller action is needed.
// On Mismatch, the caller must reset its predicted transform to
// ServerTransform and replay InputsToReplay in order via
// protocol.ApplyMovement to restore the invariant that the predicted
// transform equals server_transform plus every replayed input's
// movement.
func (p *Predictor) Reconcile(snapshot ServerSnapshot, currentPredicted protocol.Transform) Result {
	p.snapshots.Push(snapshot)
	p.lastConfirmedTick = snapshot.Tick

	kept := p.pendingInputs[:0]
	for _, pi := range p.pendingInputs {
		if pi.tick > snapshot.Tick {
			kept = append(kept, pi)
		}
	}
	p.pendingInputs = kept

	errorUnits := transformErrorQuantized(snapshot.PlayerTransform, currentPredicted)
	if errorUnits <= PositionErrorTolerance {
		return Result{ServerTick: snapshot.Tick}
	}

	errorBlocks := float32(errorUnits) / 16
	p.metrics.TotalMismatches++
	p.metrics.TotalRewinds++
	p.metrics.AvgErrorDistance = (p.metrics.AvgErrorDistance*float32(p.metrics.TotalMismatches-1) + errorBlocks) / float32(p.metrics.TotalMismatches)
	if errorBlocks > p.metrics.MaxErrorDistance {
		p.metrics.MaxErrorDistance = errorBlocks
	}

	replay := make([]InputAtTick, len(p.pendingInputs))
	for i, pi := range p.pendingInputs {
		replay[i] = InputAtTick{Tick: pi.tick, Input: pi.input}
	}

	return Result{
		ServerTick:      snapshot.Tick,
		Mismatch:        true,
		ServerTransform: snapshot.PlayerTransform,
		InputsToReplay:  replay,
		ErrorDistance:   errorBlocks,
	}
}

// transformErrorQuantized computes the 3D distance between two
// transforms' positions in quantized (1/16-block) units, rounded down,
// matching the original's integer error metric.
func transformErrorQuantized(server, client protocol.Transform) int32 {
	_, sx, sy, sz, _, _ := protocol.EncodeTransform(server)
	_, cx, cy, cz, _, _ := protocol.EncodeTransform(client)
	dx := float64(sx - cx)
	dy := float64(sy - cy)
	dz := float64(sz - cz)
	return int32(math.Sqrt(dx*dx + dy*dy + dz*dz))
}

// LastConfirmedTick returns the most recent tick confirmed by the
// server.
func (p *Predictor) LastConfirmedTick() uint64 { return p.lastConfirmedTick }

// ClientTick returns the most recent tick the client has locally
// simulated.
func (p *Predictor) ClientTick() uint64 { return p.clientTick }

// PendingInputCount returns how many recorded inputs are still
// unconfirmed.
func (p *Predictor) PendingInputCount() int { return len(p.pendingInputs) }

// SnapshotMetrics returns a copy of the predictor's accuracy metrics.
func (p *Predictor) SnapshotMetrics() Metrics { return p.metrics }

// Reset discards all predictor state, as on reconnect.
func (p *Predictor) Reset() {
	p.snapshots.Clear()
	p.pendingInputs = nil
	p.lastConfirmedTick = 0
	p.clientTick = 0
	p.metrics = Metrics{}
}
