package physics

import "github.com/go-gl/mathgl/mgl64"

// normalizeEpsilon matches the cutoff below which a direction is treated as
// undefined and normalizes to the zero vector.
const normalizeEpsilon = 1e-5

var (
	unitX = mgl64.Vec3{1, 0, 0}
	unitY = mgl64.Vec3{0, 1, 0}
	unitZ = mgl64.Vec3{0, 0, 1}
)

func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l <= normalizeEpsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// withLength rescales v to length l, keeping its direction.
func withLength(v mgl64.Vec3, l float64) mgl64.Vec3 {
	return normalizeOrZero(v).Mul(l)
}

// eulerWorld builds the rotation for Euler angles (radians) applied about
// world axes in Z, X, Y order.
func eulerWorld(angles mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(angles.X(), unitX)
	qy := mgl64.QuatRotate(angles.Y(), unitY)
	qz := mgl64.QuatRotate(angles.Z(), unitZ)
	return qy.Mul(qx).Mul(qz)
}
