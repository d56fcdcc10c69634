package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Radial travel limits for a point mass on the platform.
const (
	MinRadius = 1.5
	MaxRadius = 2.2
)

// PointMass is a weight placed on the platform, positioned relative to the
// platform center in platform-local axes.
type PointMass struct {
	Position mgl64.Vec3
	Mass     float64
}

// NewPointMassAt places a mass at the given radius and angle (radians,
// measured from +X towards +Z) in the platform plane.
func NewPointMassAt(radius, angle, mass float64) PointMass {
	return PointMass{
		Position: mgl64.Vec3{radius * math.Cos(angle), 0, radius * math.Sin(angle)},
		Mass:     mass,
	}
}

// Radius is the distance from the rotation axis in the XZ plane.
func (p PointMass) Radius() float64 {
	return math.Hypot(p.Position.X(), p.Position.Z())
}

// Angle is the polar angle of the mass in the XZ plane.
func (p PointMass) Angle() float64 {
	return math.Atan2(p.Position.Z(), p.Position.X())
}

// MoveRadially shifts the mass along its radius by delta, keeping its angle
// and height. The resulting radius is clamped to [MinRadius, MaxRadius].
func (p *PointMass) MoveRadially(delta float64) {
	angle := p.Angle()
	r := mgl64.Clamp(p.Radius()+delta, MinRadius, MaxRadius)
	p.Position[0] = math.Cos(angle) * r
	p.Position[2] = math.Sin(angle) * r
}
