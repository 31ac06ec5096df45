package predictor

import (
	"testing"

	"github.com/stormvale/voxelcore/pkg/protocol"
)

func transformAt(x float32) protocol.Transform {
	return protocol.Transform{Position: protocol.Vec3{X: x}}
}

func inputWithForward(forward float32) protocol.InputBundle {
	return protocol.InputBundle{Movement: protocol.MovementInput{Forward: forward}}
}

func TestSnapshotBufferPush(t *testing.T) {
	buf := NewSnapshotBuffer(3)
	buf.Push(ServerSnapshot{Tick: 1, PlayerTransform: transformAt(0)})

	if buf.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", buf.Len())
	}
	latest, ok := buf.Latest()
	if !ok || latest.Tick != 1 {
		t.Fatalf("Latest() = %+v, %v, want tick 1", latest, ok)
	}
}

func TestSnapshotBufferOverflow(t *testing.T) {
	buf := NewSnapshotBuffer(2)
	buf.Push(ServerSnapshot{Tick: 1})
	buf.Push(ServerSnapshot{Tick: 2})
	buf.Push(ServerSnapshot{Tick: 3})

	if buf.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", buf.Len())
	}
	oldest, _ := buf.Oldest()
	latest, _ := buf.Latest()
	if oldest.Tick != 2 || latest.Tick != 3 {
		t.Fatalf("got oldest=%d latest=%d, want 2 and 3", oldest.Tick, latest.Tick)
	}
}

func TestSnapshotBufferGet(t *testing.T) {
	buf := NewSnapshotBuffer(DefaultSnapshotCapacity)
	buf.Push(ServerSnapshot{Tick: 5, PlayerTransform: transformAt(100)})

	s, ok := buf.Get(5)
	if !ok || s.PlayerTransform.Position.X != 100 {
		t.Fatalf("Get(5) = %+v, %v", s, ok)
	}
	if _, ok := buf.Get(6); ok {
		t.Fatal("Get(6) should miss")
	}
}

func TestPredictorRecordInput(t *testing.T) {
	p := New()
	p.RecordInput(1, inputWithForward(1))
	p.RecordInput(2, inputWithForward(0))

	if p.PendingInputCount() != 2 {
		t.Fatalf("PendingInputCount() = %d, want 2", p.PendingInputCount())
	}
	if p.ClientTick() != 2 {
		t.Fatalf("ClientTick() = %d, want 2", p.ClientTick())
	}
}

func TestPredictorReconcileMatch(t *testing.T) {
	p := New()
	p.RecordInput(1, inputWithForward(1))

	snapshot := ServerSnapshot{Tick: 1, PlayerTransform: transformAt(100)}
	result := p.Reconcile(snapshot, transformAt(100))

	if result.Mismatch {
		t.Fatalf("expected Match, got Mismatch: %+v", result)
	}
	if result.ServerTick != 1 {
		t.Fatalf("ServerTick = %d, want 1", result.ServerTick)
	}
	if p.PendingInputCount() != 0 {
		t.Fatalf("PendingInputCount() = %d, want 0 after confirming tick 1", p.PendingInputCount())
	}
}

func TestPredictorReconcileMismatch(t *testing.T) {
	p := New()
	p.RecordInput(1, inputWithForward(1))

	snapshot := ServerSnapshot{Tick: 1, PlayerTransform: transformAt(100)}
	// Client predicted x=200, far off from the server's x=100.
	result := p.Reconcile(snapshot, transformAt(200))

	if !result.Mismatch {
		t.Fatal("expected Mismatch")
	}
	if result.ErrorDistance <= 0 {
		t.Fatalf("ErrorDistance = %v, want > 0", result.ErrorDistance)
	}
	if len(result.InputsToReplay) != 0 {
		t.Fatalf("len(InputsToReplay) = %d, want 0 (input was for the confirmed tick)", len(result.InputsToReplay))
	}
	if p.SnapshotMetrics().TotalMismatches != 1 {
		t.Fatalf("TotalMismatches = %d, want 1", p.SnapshotMetrics().TotalMismatches)
	}
}

func TestPredictorPendingInputsReplay(t *testing.T) {
	p := New()
	p.RecordInput(1, inputWithForward(1))
	p.RecordInput(2, inputWithForward(0))
	p.RecordInput(3, inputWithForward(1))

	snapshot := ServerSnapshot{Tick: 1, PlayerTransform: transformAt(100)}
	result := p.Reconcile(snapshot, transformAt(200))

	if !result.Mismatch {
		t.Fatal("expected Mismatch")
	}
	if len(result.InputsToReplay) != 2 {
		t.Fatalf("len(InputsToReplay) = %d, want 2", len(result.InputsToReplay))
	}
	if result.InputsToReplay[0].Tick != 2 || result.InputsToReplay[1].Tick != 3 {
		t.Fatalf("got ticks %d, %d, want 2, 3", result.InputsToReplay[0].Tick, result.InputsToReplay[1].Tick)
	}
}

func TestTransformErrorQuantizedExact(t *testing.T) {
	server := transformAt(100.0 / 16)
	client := transformAt(105.0 / 16)
	err := transformErrorQuantized(server, client)
	if err != 5 {
		t.Fatalf("transformErrorQuantized = %d, want 5", err)
	}
}

func TestPredictorReset(t *testing.T) {
	p := New()
	p.RecordInput(1, inputWithForward(1))
	p.Reconcile(ServerSnapshot{Tick: 1, PlayerTransform: transformAt(0)}, transformAt(0))

	p.Reset()

	if p.PendingInputCount() != 0 {
		t.Fatalf("PendingInputCount() = %d, want 0 after Reset", p.PendingInputCount())
	}
	if p.ClientTick() != 0 {
		t.Fatalf("ClientTick() = %d, want 0 after Reset", p.ClientTick())
	}
}

func TestPredictorMaxPendingInputsBounded(t *testing.T) {
	p := New()
	for i := uint64(1); i <= MaxPendingInputs+10; i++ {
		p.RecordInput(i, inputWithForward(0))
	}
	if p.PendingInputCount() != MaxPendingInputs {
		t.Fatalf("PendingInputCount() = %d, want %d", p.PendingInputCount(), MaxPendingInputs)
	}
}
