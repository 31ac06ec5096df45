package predictor

import (
	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/protocol"
)

// EntityInterpolator smooths remote-entity movement between EntityDelta
// broadcasts: each update sets a new target, and every tick the
// displayed transform advances toward it by a fixed step until it
// arrives, at which point the entry is discarded.
type EntityInterpolator struct {
	targets map[uuid.UUID]protocol.Transform
	alphas  map[uuid.UUID]float32
	speed   float32 // alpha increment per tick
}

// NewEntityInterpolator creates an interpolator that advances alpha by
// speed each tick (e.g. 0.2 reaches the target in 5 ticks).
func NewEntityInterpolator(speed float32) *EntityInterpolator {
	return &EntityInterpolator{
		targets: make(map[uuid.UUID]protocol.Transform),
		alphas:  make(map[uuid.UUID]float32),
		speed:   speed,
	}
}

// SetTarget records a new interpolation target for id, restarting its
// alpha from zero.
func (e *EntityInterpolator) SetTarget(id uuid.UUID, target protocol.Transform) {
	e.targets[id] = target
	e.alphas[id] = 0
}

// Interpolate advances id's alpha by one tick and returns the
// transform partway between current and its target. Returns false if
// id has no pending target (nothing to interpolate toward).
func (e *EntityInterpolator) Interpolate(id uuid.UUID, current protocol.Transform) (protocol.Transform, bool) {
	target, ok := e.targets[id]
	if !ok {
		return protocol.Transform{}, false
	}
	alpha := e.alphas[id] + e.speed
	if alpha > 1 {
		alpha = 1
	}
	e.alphas[id] = alpha

	result := lerpTransform(current, target, alpha)

	if alpha >= 1 {
		delete(e.targets, id)
		delete(e.alphas, id)
	}
	return result, true
}

// Remove discards any pending interpolation for id.
func (e *EntityInterpolator) Remove(id uuid.UUID) {
	delete(e.targets, id)
	delete(e.alphas, id)
}

// Clear discards every pending interpolation.
func (e *EntityInterpolator) Clear() {
	e.targets = make(map[uuid.UUID]protocol.Transform)
	e.alphas = make(map[uuid.UUID]float32)
}

func lerpTransform(from, to protocol.Transform, alpha float32) protocol.Transform {
	_, fx, fy, fz, fyaw, fpitch := protocol.EncodeTransform(from)
	dimension, tx, ty, tz, tyaw, tpitch := protocol.EncodeTransform(to)
	return protocol.DecodeTransform(
		dimension,
		lerpInt32(fx, tx, alpha),
		lerpInt32(fy, ty, alpha),
		lerpInt32(fz, tz, alpha),
		lerpUint8(fyaw, tyaw, alpha),
		lerpUint8(fpitch, tpitch, alpha),
	)
}

func lerpInt32(a, b int32, alpha float32) int32 {
	return int32(float32(a) + float32(b-a)*alpha)
}

func lerpUint8(a, b uint8, alpha float32) uint8 {
	return uint8(float32(a) + float32(int16(b)-int16(a))*alpha)
}
