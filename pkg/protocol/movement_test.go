package protocol

import "testing"

func approxEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestApplyMovementForwardFacingNorth(t *testing.T) {
	t0 := Transform{Yaw: 0}
	t1 := ApplyMovement(t0, MovementInput{Forward: 1}, 1.0)

	if !approxEqual(t1.Position.X, 0, 1e-4) {
		t.Errorf("X = %v, want ~0", t1.Position.X)
	}
	if !approxEqual(t1.Position.Z, WalkSpeed, 1e-4) {
		t.Errorf("Z = %v, want ~%v", t1.Position.Z, WalkSpeed)
	}
}

func TestApplyMovementStrafeIsRightHanded(t *testing.T) {
	t0 := Transform{Yaw: 0}
	t1 := ApplyMovement(t0, MovementInput{Strafe: 1}, 1.0)

	if t1.Position.X <= 0 {
		t.Errorf("positive strafe at yaw=0 should move +X (right), got X=%v", t1.Position.X)
	}
	if !approxEqual(t1.Position.Z, 0, 1e-4) {
		t.Errorf("Z = %v, want ~0", t1.Position.Z)
	}
}

func TestApplyMovementZeroInputIsNoOp(t *testing.T) {
	t0 := Transform{Position: Vec3{X: 5, Y: 10, Z: -5}, Yaw: 123}
	t1 := ApplyMovement(t0, MovementInput{}, 1.0)

	if t1 != t0 {
		t.Errorf("zero input moved transform: %+v -> %+v", t0, t1)
	}
}

func TestApplyMovementDeterministic(t *testing.T) {
	t0 := Transform{Yaw: 37, Pitch: 12, Position: Vec3{X: 1, Y: 2, Z: 3}}
	in := MovementInput{Forward: 0.6, Strafe: -0.3}

	a := ApplyMovement(t0, in, 0.05)
	b := ApplyMovement(t0, in, 0.05)

	if a != b {
		t.Fatalf("ApplyMovement not deterministic: %+v vs %+v", a, b)
	}
}
