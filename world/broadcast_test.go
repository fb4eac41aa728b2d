package world

import (
	"testing"
	"time"
)

type captureSender struct {
	count    int
	lastPos  Vec3
	lastAnim Animation
}

func (c *captureSender) SendMovement(pos Vec3, yaw float64, quat Quat, anim Animation) {
	c.count++
	c.lastPos = pos
	c.lastAnim = anim
}

func TestBroadcastRateLimit(t *testing.T) {
	sender := &captureSender{}
	b := NewBroadcaster(sender)

	// One simulated second of 240 Hz ticks must stay within the 20/s budget.
	const ticks = 240
	dt := time.Second / ticks
	pos := Vec3{X: 1, Y: 0.16, Z: 1}
	for i := 0; i < ticks; i++ {
		pos.X += 4.5 * dt.Seconds()
		b.Tick(pos, 0, QuatIdentity(), 0, dt)
	}

	if sender.count > 20 {
		t.Errorf("emitted %d broadcasts in 1s, budget is 20", sender.count)
	}
	if sender.count < 18 {
		t.Errorf("emitted only %d broadcasts in 1s, want >= 18", sender.count)
	}
}

func TestBroadcastOriginGuard(t *testing.T) {
	sender := &captureSender{}
	b := NewBroadcaster(sender)

	for i := 0; i < 100; i++ {
		b.Tick(Vec3{}, 0, QuatIdentity(), 0, 16*time.Millisecond)
	}
	if sender.count != 0 {
		t.Errorf("pre-spawn origin transform was broadcast %d times", sender.count)
	}

	// First real position goes out immediately.
	b.Tick(Vec3{X: 1, Y: 0.16}, 0, QuatIdentity(), 0, 16*time.Millisecond)
	if sender.count != 1 {
		t.Errorf("count = %d after leaving origin, want 1", sender.count)
	}
}

func TestBroadcastCarriesDerivedAnimation(t *testing.T) {
	sender := &captureSender{}
	b := NewBroadcaster(sender)

	dt := time.Second / 60
	pos := Vec3{X: 1, Y: 0.16}
	for i := 0; i < 120; i++ {
		pos.X += 8.5 * dt.Seconds()
		b.Tick(pos, 0, QuatIdentity(), 0, dt)
	}
	if sender.lastAnim != AnimRun {
		t.Errorf("sustained run broadcast %s, want %s", sender.lastAnim, AnimRun)
	}
}

func TestBroadcastManualTrigger(t *testing.T) {
	sender := &captureSender{}
	b := NewBroadcaster(sender)

	b.Trigger(AnimWave)
	b.Tick(Vec3{X: 1, Y: 0.16}, 0, QuatIdentity(), 0, 60*time.Millisecond)
	if sender.lastAnim != AnimWave {
		t.Errorf("manual trigger broadcast %s, want %s", sender.lastAnim, AnimWave)
	}
}
