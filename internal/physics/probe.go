package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/integrators"
)

// Probe is a test charge pushed around by an external field source.
type Probe struct {
	Charge   float64
	Mass     float64
	Position mgl64.Vec3
	Velocity mgl64.Vec3

	// Integrator defaults to symplectic Euler.
	Integrator integrators.Integrator

	field    FieldSource
	elapsed  float64
	startPos mgl64.Vec3
	startVel mgl64.Vec3
}

func NewProbe(field FieldSource, charge, mass float64, pos, vel mgl64.Vec3) *Probe {
	return &Probe{
		Charge:     charge,
		Mass:       mass,
		Position:   pos,
		Velocity:   vel,
		Integrator: integrators.NewSymplecticEuler(),
		field:      field,
		startPos:   pos,
		startVel:   vel,
	}
}

// Derive is the phase-space flow under F = qE for the state
// (x, y, z, vx, vy, vz).
func (p *Probe) Derive(x dynamo.State, t float64) dynamo.State {
	accel := p.field.FieldAt(mgl64.Vec3{x[0], x[1], x[2]}).Mul(p.Charge / p.Mass)
	return dynamo.State{x[3], x[4], x[5], accel.X(), accel.Y(), accel.Z()}
}

func (p *Probe) Step(dt float64) {
	if p.Mass <= 0 {
		return
	}
	x, v := p.Position, p.Velocity
	next := p.Integrator.Step(p, dynamo.State{x.X(), x.Y(), x.Z(), v.X(), v.Y(), v.Z()}, p.elapsed, dt)
	p.Position = mgl64.Vec3{next[0], next[1], next[2]}
	p.Velocity = mgl64.Vec3{next[3], next[4], next[5]}
	p.elapsed += dt
}

func (p *Probe) Reset() {
	p.Position = p.startPos
	p.Velocity = p.startVel
	p.elapsed = 0
}

func (p *Probe) Energy() float64 {
	return 0.5 * p.Mass * p.Velocity.LenSqr()
}

var probeLabels = []string{"x", "y", "z", "vx", "vy", "vz", "speed", "energy", "field"}

func (p *Probe) Labels() []string { return probeLabels }

func (p *Probe) State() dynamo.State {
	x, v := p.Position, p.Velocity
	return dynamo.State{
		x.X(), x.Y(), x.Z(), v.X(), v.Y(), v.Z(),
		v.Len(), p.Energy(), p.field.FieldAt(x).Len(),
	}
}

func (p *Probe) GetParams() map[string]float64 {
	return map[string]float64{"charge": p.Charge, "mass": p.Mass}
}

func (p *Probe) SetParam(name string, value float64) error {
	switch name {
	case "charge":
		p.Charge = value
	case "mass":
		if value <= 0 {
			return fmt.Errorf("mass %v: %w", value, dynamo.ErrParameterBounds)
		}
		p.Mass = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
