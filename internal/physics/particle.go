package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physlab/internal/dynamo"
)

// fieldEpsilon is the charge or field magnitude below which cyclotron
// motion is undefined.
const fieldEpsilon = 1e-4

// ChargedParticle is a point charge moving freely in space. TargetSpeed is
// the speed the integrator may renormalize to after each step.
type ChargedParticle struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Charge          float64
	Mass            float64
	TargetSpeed     float64
	InitialVelocity mgl64.Vec3
}

func NewChargedParticle(charge, mass float64, v0 mgl64.Vec3) *ChargedParticle {
	return &ChargedParticle{
		Velocity:        v0,
		Charge:          charge,
		Mass:            mass,
		TargetSpeed:     v0.Len(),
		InitialVelocity: v0,
	}
}

// DefaultParticle is a unit charge and mass launched along +X at speed 5.
func DefaultParticle() *ChargedParticle {
	return NewChargedParticle(1, 1, mgl64.Vec3{5, 0, 0})
}

func (p *ChargedParticle) Speed() float64 { return p.Velocity.Len() }

func (p *ChargedParticle) KineticEnergy() float64 {
	return 0.5 * p.Mass * p.Velocity.LenSqr()
}

// SetMass changes the mass while keeping the kinetic energy: the speed is
// rescaled to sqrt(2E/m) along the current direction and becomes the new
// target and launch speed.
func (p *ChargedParticle) SetMass(mass float64) error {
	if mass <= 0 {
		return fmt.Errorf("mass %v: %w", mass, dynamo.ErrParameterBounds)
	}
	energy := p.KineticEnergy()
	p.Mass = mass
	speed := math.Sqrt(2 * energy / mass)

	p.Velocity = withLength(p.Velocity, speed)
	p.InitialVelocity = withLength(p.InitialVelocity, speed)
	p.TargetSpeed = speed
	return nil
}

// Reset returns the particle to the origin at its launch velocity.
func (p *ChargedParticle) Reset() {
	p.Position = mgl64.Vec3{}
	p.Velocity = p.InitialVelocity
	p.TargetSpeed = p.InitialVelocity.Len()
}

// CyclotronRadius is m·v/(|q|·|B|), or +Inf when the charge or field is
// negligible.
func CyclotronRadius(mass, speed, charge, b float64) float64 {
	if math.Abs(charge) <= fieldEpsilon || math.Abs(b) <= fieldEpsilon {
		return math.Inf(1)
	}
	return mass * speed / (math.Abs(charge) * math.Abs(b))
}

// CyclotronPeriod is 2π·m/(|q|·|B|), or 0 when the charge or field is
// negligible.
func CyclotronPeriod(mass, charge, b float64) float64 {
	if math.Abs(charge) <= fieldEpsilon || math.Abs(b) <= fieldEpsilon {
		return 0
	}
	return 2 * math.Pi * mass / (math.Abs(charge) * math.Abs(b))
}
