package world

import (
	"testing"
	"time"
)

func TestClassifySpeed(t *testing.T) {
	const eps = 1e-9
	tests := []struct {
		speed float64
		want  Animation
	}{
		{0, AnimIdle},
		{WalkSpeedThreshold - eps, AnimIdle},
		{WalkSpeedThreshold, AnimIdle},
		{WalkSpeedThreshold + eps, AnimWalk},
		{RunSpeedThreshold - eps, AnimWalk},
		{RunSpeedThreshold, AnimWalk},
		{RunSpeedThreshold + eps, AnimRun},
		{100, AnimRun},
	}
	for _, tt := range tests {
		if got := classifySpeed(tt.speed); got != tt.want {
			t.Errorf("classifySpeed(%v) = %s, want %s", tt.speed, got, tt.want)
		}
	}
}

func TestValidAnimation(t *testing.T) {
	tests := []struct {
		name string
		want Animation
	}{
		{"Run", AnimRun},
		{"Jump_Idle", AnimJumpIdle},
		{"Wave", AnimWave},
		{"", AnimIdle},
		{"Sprint", AnimIdle},
		{"idle", AnimIdle},
	}
	for _, tt := range tests {
		if got := ValidAnimation(tt.name); got != tt.want {
			t.Errorf("ValidAnimation(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

// walk runs a tracker at a constant horizontal speed until the EMA converges.
func walk(tr *AnimationTracker, speed float64, ticks int) Animation {
	const dt = 1.0 / 60
	now := time.Unix(0, 0)
	pos := Vec3{Y: 0.16}
	var anim Animation
	for i := 0; i < ticks; i++ {
		pos.X += speed * dt
		now = now.Add(time.Second / 60)
		anim = tr.Update(pos, 0, dt, now)
	}
	return anim
}

func TestTrackerSpeedClassification(t *testing.T) {
	var running AnimationTracker
	if got := walk(&running, 8.5, 120); got != AnimRun {
		t.Errorf("sustained 8.5 u/s = %s, want %s", got, AnimRun)
	}

	var walking AnimationTracker
	if got := walk(&walking, 2.0, 120); got != AnimWalk {
		t.Errorf("sustained 2.0 u/s = %s, want %s", got, AnimWalk)
	}

	var idling AnimationTracker
	walk(&idling, 8.5, 120)
	if got := walk(&idling, 0, 120); got != AnimIdle {
		t.Errorf("stopped tracker = %s, want %s", got, AnimIdle)
	}
}

func TestTrackerDeterministic(t *testing.T) {
	var a, b AnimationTracker
	for i := 0; i < 60; i++ {
		pos := Vec3{X: float64(i) * 0.1, Y: 0.16}
		now := time.Unix(int64(i), 0)
		ga := a.Update(pos, 0, 1.0/60, now)
		gb := b.Update(pos, 0, 1.0/60, now)
		if ga != gb {
			t.Fatalf("tick %d diverged: %s vs %s", i, ga, gb)
		}
	}
}

func TestManualOverride(t *testing.T) {
	var tr AnimationTracker
	now := time.Unix(0, 0)
	pos := Vec3{Y: 0.16}

	tr.Update(pos, 0, 1.0/60, now)
	tr.Trigger(AnimWave, now)

	if got := tr.Update(pos, 0, 1.0/60, now.Add(time.Second)); got != AnimWave {
		t.Errorf("override ignored: %s", got)
	}
	if got := tr.Update(pos, 0, 1.0/60, now.Add(OverrideWindow+time.Millisecond)); got == AnimWave {
		t.Error("override did not expire")
	}
}

func TestJumpDetection(t *testing.T) {
	var tr AnimationTracker
	const dt = 1.0 / 60
	now := time.Unix(0, 0)
	pos := Vec3{Y: 0.16}

	// Settle grounded.
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second / 60)
		tr.Update(pos, 0, dt, now)
	}

	// Leave the ground with upward velocity: ascending clip.
	vy := 6.6
	pos.Y += vy * dt
	now = now.Add(time.Second / 60)
	if got := tr.Update(pos, vy, dt, now); got != AnimJumpStart {
		t.Errorf("ascending = %s, want %s", got, AnimJumpStart)
	}

	// Falling back down: airborne idle clip.
	vy = -4.0
	pos.Y += vy * dt
	now = now.Add(time.Second / 60)
	if got := tr.Update(pos, vy, dt, now); got != AnimJumpIdle {
		t.Errorf("falling = %s, want %s", got, AnimJumpIdle)
	}

	// Landed: grounded selection resumes.
	pos.Y = 0.16
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second / 60)
		if got := tr.Update(pos, 0, dt, now); i == 4 && got != AnimIdle {
			t.Errorf("landed = %s, want %s", got, AnimIdle)
		}
	}
}
