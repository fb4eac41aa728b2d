package world

import (
	"math"
	"time"
)

// Animation is a discrete animation clip name carried over the wire.
type Animation string

const (
	AnimIdle      Animation = "Idle"
	AnimWalk      Animation = "Walk"
	AnimRun       Animation = "Run"
	AnimJumpStart Animation = "Jump_Start"
	AnimJumpIdle  Animation = "Jump_Idle"
	AnimWave      Animation = "Wave"
	AnimDance     Animation = "Dance"
)

var knownAnimations = map[Animation]struct{}{
	AnimIdle:      {},
	AnimWalk:      {},
	AnimRun:       {},
	AnimJumpStart: {},
	AnimJumpIdle:  {},
	AnimWave:      {},
	AnimDance:     {},
}

// ValidAnimation maps wire strings onto the known clip set. Peers are not
// trusted: unknown or empty names render as Idle.
func ValidAnimation(name string) Animation {
	a := Animation(name)
	if _, ok := knownAnimations[a]; ok {
		return a
	}
	return AnimIdle
}

const (
	// Horizontal speed thresholds, world units per second.
	WalkSpeedThreshold = 0.5
	RunSpeedThreshold  = 4.0

	// OverrideWindow is how long a manually triggered animation holds before
	// velocity-derived selection resumes.
	OverrideWindow = 2 * time.Second

	speedSmoothing   = 0.4   // EMA weight of the newest sample
	minTrackerDelta  = 0.001 // floor on dt, seconds; guards frame hitches
	groundEpsilon    = 0.01  // below this, vertical motion counts as grounded
	jumpVelThreshold = 0.5   // upward velocity marking a deliberate jump
)

// classifySpeed maps a smoothed horizontal speed onto a grounded clip.
func classifySpeed(speed float64) Animation {
	switch {
	case speed > RunSpeedThreshold:
		return AnimRun
	case speed > WalkSpeedThreshold:
		return AnimWalk
	default:
		return AnimIdle
	}
}

// AnimationTracker derives a discrete animation name from the motion of one
// entity. The local player runs one to decide what to broadcast; remote
// animation names arrive ready-made, since re-deriving them from a sparse
// 20 Hz stream would be noisier than the sender's own value.
type AnimationTracker struct {
	prev        Vec3
	hasPrev     bool
	speed       float64
	wasGrounded bool
	jumping     bool

	override   Animation
	overrideAt time.Time
}

// Trigger starts a manual override that wins over derived animation until
// OverrideWindow elapses.
func (t *AnimationTracker) Trigger(a Animation, now time.Time) {
	t.override = a
	t.overrideAt = now
}

// Update advances the tracker by one tick and returns the current animation.
// verticalVel is the entity's vertical velocity estimate, dt the elapsed time
// in seconds, now the tick clock used for override expiry.
func (t *AnimationTracker) Update(pos Vec3, verticalVel, dt float64, now time.Time) Animation {
	if dt < minTrackerDelta {
		dt = minTrackerDelta
	}

	prev := pos
	if t.hasPrev {
		prev = t.prev
	}
	t.prev = pos
	t.hasPrev = true

	dy := pos.Y - prev.Y
	airborne := math.Abs(verticalVel) > groundEpsilon && math.Abs(dy) > groundEpsilon
	if t.wasGrounded && airborne && verticalVel > jumpVelThreshold {
		t.jumping = true
	}
	if !airborne {
		t.jumping = false
	}
	t.wasGrounded = !airborne

	dx := pos.X - prev.X
	dz := pos.Z - prev.Z
	raw := math.Sqrt(dx*dx+dz*dz) / dt
	t.speed += (raw - t.speed) * speedSmoothing

	if t.override != "" {
		if now.Sub(t.overrideAt) < OverrideWindow {
			return t.override
		}
		t.override = ""
	}

	if airborne || t.jumping {
		if verticalVel > 0 {
			return AnimJumpStart
		}
		return AnimJumpIdle
	}
	return classifySpeed(t.speed)
}

// Speed exposes the smoothed horizontal speed for debug display.
func (t *AnimationTracker) Speed() float64 {
	return t.speed
}
