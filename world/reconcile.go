package world

import "math"

const (
	// TeleportDistance separates continuous motion from spawns and
	// relocations; beyond it the reconciler snaps instead of sliding the
	// avatar across the map.
	TeleportDistance = 10.0

	// blendBase tunes the exponential approach: after one second the
	// renderable has closed all but 0.01% of the gap to the target.
	blendBase = 0.0001

	// yawDirEpsilonSq is the squared magnitude below which a movement vector
	// is treated as noise rather than a facing change.
	yawDirEpsilonSq = 1e-6
)

// Pose is the smoothed renderable output for one remote player.
type Pose struct {
	Position  Vec3
	Yaw       float64
	Quat      Quat
	Animation Animation
}

// BlendFactor converts elapsed tick time into a lerp fraction that
// asymptotically approaches 1, never overshoots and never goes negative, so
// smoothing speed is independent of frame rate.
func BlendFactor(dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return 1 - math.Pow(blendBase, dt)
}

// Reconciler turns the sparse snapshot stream for one remote player into
// continuous motion. It owns no network I/O: one Step per tick, O(1).
type Reconciler struct {
	pos        Vec3
	yaw        float64
	targetYaw  float64
	quat       Quat
	prevTarget Vec3

	initialized bool
}

func NewReconciler() *Reconciler {
	return &Reconciler{quat: QuatIdentity()}
}

// Step consumes the latest registry snapshot and returns the pose to render.
func (r *Reconciler) Step(s PlayerState, dt float64) Pose {
	target := s.Position

	if !r.initialized {
		// Snap on first sight so a newly visible player doesn't slide in
		// from wherever the renderable happened to start.
		r.pos = target
		r.yaw = WrapAngle(s.Yaw)
		r.targetYaw = r.yaw
		if s.Quat != nil {
			r.quat = s.Quat.Normalize()
		} else {
			r.quat = QuatFromYaw(r.yaw)
		}
		r.prevTarget = target
		r.initialized = true
		return r.pose(s)
	}

	t := BlendFactor(dt)
	if r.pos.Dist(target) > TeleportDistance {
		t = 1
	}
	r.pos = r.pos.Lerp(target, t)

	if s.Quat != nil {
		r.quat = r.quat.Slerp(s.Quat.Normalize(), t)
		// Keep the yaw view consistent for consumers that only read Pose.Yaw.
		r.yaw = r.quat.Yaw()
		r.targetYaw = r.yaw
	} else {
		// Legacy yaw-only payload: face the direction of travel when the
		// target actually moved, holding the last facing otherwise.
		dir := target.Sub(r.prevTarget)
		if dir.X*dir.X+dir.Z*dir.Z > yawDirEpsilonSq {
			r.targetYaw = math.Atan2(dir.X, dir.Z)
		}
		r.yaw = LerpAngle(r.yaw, r.targetYaw, t)
		r.quat = QuatFromYaw(r.yaw)
	}

	r.prevTarget = target
	return r.pose(s)
}

func (r *Reconciler) pose(s PlayerState) Pose {
	anim := s.Animation
	if anim == "" {
		anim = AnimIdle
	}
	return Pose{
		Position:  r.pos,
		Yaw:       r.yaw,
		Quat:      r.quat,
		Animation: anim,
	}
}
