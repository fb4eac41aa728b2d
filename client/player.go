package client

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"dockside/utils"
	"dockside/world"
)

// LocalPlayer is the authoritative local simulation: WASD movement on the
// ground plane, Shift to run, Space to jump. It produces the transform the
// broadcaster samples each tick.
type LocalPlayer struct {
	cfg utils.PlayerConfig

	Position    world.Vec3
	Yaw         float64
	VerticalVel float64
	grounded    bool
}

func NewLocalPlayer(cfg utils.PlayerConfig) *LocalPlayer {
	return &LocalPlayer{
		cfg: cfg,
		// Spawn slightly above ground so the first broadcast isn't the
		// origin guard's (0,0,0).
		Position: world.Vec3{X: 0, Y: 3, Z: 0},
		grounded: false,
	}
}

func (p *LocalPlayer) Update(dt float64) {
	var mx, mz float64
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		mz--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		mz++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		mx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		mx++
	}

	if mx != 0 || mz != 0 {
		speed := p.cfg.WalkSpeed
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			speed = p.cfg.RunSpeed
		}
		n := math.Sqrt(mx*mx + mz*mz)
		p.Yaw = math.Atan2(mx, mz)
		p.Position.X += mx / n * speed * dt
		p.Position.Z += mz / n * speed * dt
	}

	if p.grounded && ebiten.IsKeyPressed(ebiten.KeySpace) {
		p.VerticalVel = p.cfg.JumpVelocity
		p.grounded = false
	}

	p.VerticalVel -= p.cfg.Gravity * dt
	p.Position.Y += p.VerticalVel * dt
	// The capsule floats slightly above ground level, which also keeps a
	// player idling at spawn from ever matching the (0,0,0) pre-spawn guard.
	const floatHeight = 0.16
	if p.Position.Y <= floatHeight {
		p.Position.Y = floatHeight
		p.VerticalVel = 0
		p.grounded = true
	} else {
		p.grounded = false
	}
}

func (p *LocalPlayer) Quat() world.Quat {
	return world.QuatFromYaw(p.Yaw)
}
