package physics

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// SpeedTolerance is how far |v| may drift from the target speed before it
// is renormalized.
const SpeedTolerance = 1e-3

// StabilizationPolicy decides when the integrator pins |v| to the target
// speed.
type StabilizationPolicy int

const (
	// StabilizeMagneticOnly renormalizes only while the electric field is
	// off, since a magnetic force does no work.
	StabilizeMagneticOnly StabilizationPolicy = iota
	// StabilizeAlways renormalizes on every step regardless of E.
	StabilizeAlways
	// StabilizeNever leaves the raw Euler result untouched.
	StabilizeNever
)

var policyNames = map[StabilizationPolicy]string{
	StabilizeMagneticOnly: "magnetic-only",
	StabilizeAlways:       "always",
	StabilizeNever:        "never",
}

func (p StabilizationPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("StabilizationPolicy(%d)", int(p))
}

func ParseStabilization(s string) (StabilizationPolicy, error) {
	if s == "" {
		return StabilizeMagneticOnly, nil
	}
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown stabilization policy: %s", s)
}

// LorentzIntegrator advances a charged particle under F = q(E + v×B) with
// explicit Euler.
type LorentzIntegrator struct {
	Policy StabilizationPolicy
}

func (li LorentzIntegrator) Step(p *ChargedParticle, b, e mgl64.Vec3, useE bool, dt float64) {
	force := p.Velocity.Cross(b).Mul(p.Charge)
	if useE {
		force = force.Add(e.Mul(p.Charge))
	}

	if p.Mass > 0 {
		accel := force.Mul(1 / p.Mass)
		p.Velocity = p.Velocity.Add(accel.Mul(dt))
	}
	p.Position = p.Position.Add(p.Velocity.Mul(dt))

	if li.stabilizes(useE) && math.Abs(p.Speed()-p.TargetSpeed) > SpeedTolerance {
		p.Velocity = withLength(p.Velocity, p.TargetSpeed)
	}
}

func (li LorentzIntegrator) stabilizes(useE bool) bool {
	switch li.Policy {
	case StabilizeAlways:
		return true
	case StabilizeNever:
		return false
	default:
		return !useE
	}
}
