package world

import (
	"time"

	"golang.org/x/time/rate"
)

// BroadcastInterval is the floor between movement emissions: rendering may
// tick at 60-144 Hz, the network budget stays at 20/s regardless.
const BroadcastInterval = 50 * time.Millisecond

// MovementSender is the outbound half of the transport session.
type MovementSender interface {
	SendMovement(pos Vec3, yaw float64, quat Quat, anim Animation)
}

// Broadcaster samples the local simulation once per tick and hands throttled
// movement payloads to the session. The budget is enforced on the simulation
// clock (accumulated tick deltas), not the wall clock, because frame count is
// no proxy for elapsed time under a variable frame rate.
type Broadcaster struct {
	sender  MovementSender
	tracker AnimationTracker
	limiter *rate.Limiter
	clock   time.Time
	anim    Animation
}

func NewBroadcaster(sender MovementSender) *Broadcaster {
	return &Broadcaster{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(BroadcastInterval), 1),
		clock:   time.Unix(0, 0),
	}
}

// Trigger starts a manual animation override on the local player.
func (b *Broadcaster) Trigger(a Animation) {
	b.tracker.Trigger(a, b.clock)
}

// Animation reports the most recently derived local animation, for rendering
// the local avatar with the same clip that gets broadcast.
func (b *Broadcaster) Animation() Animation {
	if b.anim == "" {
		return AnimIdle
	}
	return b.anim
}

// Tick advances the simulation clock by dt, re-derives the local animation
// and emits at most one movement payload per BroadcastInterval. A position at
// the exact origin is an uninitialized pre-spawn transform and is skipped
// entirely.
func (b *Broadcaster) Tick(pos Vec3, yaw float64, quat Quat, verticalVel float64, dt time.Duration) {
	b.clock = b.clock.Add(dt)
	if pos.IsZero() {
		return
	}
	b.anim = b.tracker.Update(pos, verticalVel, dt.Seconds(), b.clock)
	if !b.limiter.AllowN(b.clock, 1) {
		return
	}
	b.sender.SendMovement(pos, yaw, quat, b.anim)
}
