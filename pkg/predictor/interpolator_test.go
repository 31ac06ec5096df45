package predictor

import (
	"testing"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/protocol"
)

func TestEntityInterpolatorAdvancesThenCompletes(t *testing.T) {
	interp := NewEntityInterpolator(0.5)
	id := uuid.New()

	current := protocol.Transform{Position: protocol.Vec3{X: 0, Y: 0, Z: 0}}
	target := protocol.Transform{Position: protocol.Vec3{X: 100, Y: 100, Z: 100}}
	interp.SetTarget(id, target)

	result1, ok := interp.Interpolate(id, current)
	if !ok {
		t.Fatal("expected an in-progress interpolation")
	}
	if !(result1.Position.X > 0 && result1.Position.X < 100) {
		t.Fatalf("result1.X = %v, want strictly between 0 and 100", result1.Position.X)
	}

	result2, ok := interp.Interpolate(id, result1)
	if !ok {
		t.Fatal("expected interpolation to still be tracked on second tick")
	}
	if result2.Position.X != 100 || result2.Position.Y != 100 || result2.Position.Z != 100 {
		t.Fatalf("result2 = %+v, want it to have reached the target", result2)
	}

	if _, ok := interp.Interpolate(id, result2); ok {
		t.Fatal("expected interpolation to be discarded once complete")
	}
}

func TestEntityInterpolatorNoTargetIsMiss(t *testing.T) {
	interp := NewEntityInterpolator(0.5)
	if _, ok := interp.Interpolate(uuid.New(), protocol.Transform{}); ok {
		t.Fatal("expected a miss for an entity with no pending target")
	}
}

func TestEntityInterpolatorRemove(t *testing.T) {
	interp := NewEntityInterpolator(0.5)
	id := uuid.New()
	interp.SetTarget(id, protocol.Transform{Position: protocol.Vec3{X: 10}})
	interp.Remove(id)
	if _, ok := interp.Interpolate(id, protocol.Transform{}); ok {
		t.Fatal("expected Remove to discard the pending target")
	}
}

func TestEntityInterpolatorClear(t *testing.T) {
	interp := NewEntityInterpolator(0.5)
	a, b := uuid.New(), uuid.New()
	interp.SetTarget(a, protocol.Transform{Position: protocol.Vec3{X: 10}})
	interp.SetTarget(b, protocol.Transform{Position: protocol.Vec3{X: 20}})
	interp.Clear()
	if _, ok := interp.Interpolate(a, protocol.Transform{}); ok {
		t.Fatal("expected Clear to discard all targets")
	}
	if _, ok := interp.Interpolate(b, protocol.Transform{}); ok {
		t.Fatal("expected Clear to discard all targets")
	}
}
