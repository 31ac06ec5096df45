package protocol

import "math"

// WalkSpeed is how many blocks per second a full-forward input moves a
// player, matched against the speed the original movement model used so a
// predicted client position and the server's replayed one never diverge
// just from a constant mismatch.
const WalkSpeed float32 = 4.317

// ApplyMovement advances transform by one tick of input, dt seconds long.
// It is the single function both the server's authoritative simulation and
// the client's local predictor call, so the two can never disagree about
// what a given input does: the server doesn't trust a predicted position,
// but it does trust that replaying the same inputs through this function
// reproduces it.
//
// Movement is relative to Yaw: Forward is the direction the player is
// facing, Strafe is perpendicular to it, right-handed (positive strafe
// moves to the player's right).
func ApplyMovement(t Transform, input MovementInput, dt float32) Transform {
	yawRad := float64(t.Yaw) * math.Pi / 180

	forwardX := float32(math.Sin(yawRad))
	forwardZ := float32(math.Cos(yawRad))
	rightX := float32(math.Cos(yawRad))
	rightZ := float32(-math.Sin(yawRad))

	dx := (forwardX*input.Forward + rightX*input.Strafe) * WalkSpeed * dt
	dz := (forwardZ*input.Forward + rightZ*input.Strafe) * WalkSpeed * dt

	out := t
	out.Position.X += dx
	out.Position.Z += dz
	return out
}
