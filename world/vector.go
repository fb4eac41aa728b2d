package world

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Lerp(target Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (target.X-v.X)*t,
		Y: v.Y + (target.Y-v.Y)*t,
		Z: v.Z + (target.Z-v.Z)*t,
	}
}

func (v Vec3) Dist(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HorizontalDistSq ignores Y so that vertical offsets (jumps, ledges) don't
// affect culling or facing decisions.
func (v Vec3) HorizontalDistSq(o Vec3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return dx*dx + dz*dz
}

func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

type Quat struct {
	X, Y, Z, W float64
}

func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromYaw builds a rotation of yaw radians around the world Y axis.
func QuatFromYaw(yaw float64) Quat {
	half := yaw / 2
	return Quat{Y: math.Sin(half), W: math.Cos(half)}
}

func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return QuatIdentity()
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// Yaw extracts the rotation about the world Y axis, in (-pi, pi].
func (q Quat) Yaw() float64 {
	return math.Atan2(2*(q.W*q.Y+q.X*q.Z), 1-2*(q.Y*q.Y+q.X*q.X))
}

func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Slerp blends toward target along the shorter arc. t outside [0,1] is clamped.
func (q Quat) Slerp(target Quat, t float64) Quat {
	if t <= 0 {
		return q
	}
	if t >= 1 {
		return target
	}

	dot := q.Dot(target)
	if dot < 0 {
		target = Quat{-target.X, -target.Y, -target.Z, -target.W}
		dot = -dot
	}

	// Nearly parallel: fall back to a normalized lerp to avoid dividing by a
	// vanishing sine.
	if dot > 0.9995 {
		return Quat{
			X: q.X + (target.X-q.X)*t,
			Y: q.Y + (target.Y-q.Y)*t,
			Z: q.Z + (target.Z-q.Z)*t,
			W: q.W + (target.W-q.W)*t,
		}.Normalize()
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	return Quat{
		X: wa*q.X + wb*target.X,
		Y: wa*q.Y + wb*target.Y,
		Z: wa*q.Z + wb*target.Z,
		W: wa*q.W + wb*target.W,
	}
}

// WrapAngle normalizes a into (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// LerpAngle rotates current toward target by fraction t along the shortest
// arc, so 170° to -170° goes through 180° rather than the long way around.
func LerpAngle(current, target, t float64) float64 {
	return WrapAngle(current + WrapAngle(target-current)*t)
}
