package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physlab/internal/dynamo"
)

// Range is an inclusive parameter range.
type Range struct{ Min, Max float64 }

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

func (r Range) String() string { return fmt.Sprintf("[%v, %v]", r.Min, r.Max) }

// Control ranges for the Lorentz lab.
var (
	ChargeRange = Range{-2, 2}
	FieldRange  = Range{0.1, 5}
	MassRange   = Range{0.1, 3}
)

// Target is a spherical trigger volume the particle can hit.
type Target struct {
	Position mgl64.Vec3
	Radius   float64
}

func (t Target) Contains(p mgl64.Vec3) bool {
	return p.Sub(t.Position).LenSqr() <= t.Radius*t.Radius
}

// LorentzLab is a charged particle in uniform E and B fields, with targets
// to hit.
type LorentzLab struct {
	Particle         *ChargedParticle
	Integrator       LorentzIntegrator
	BStrength        float64
	BDirection       mgl64.Vec3
	ElectricField    mgl64.Vec3
	UseElectricField bool

	targets []Target
	placed  []Target
	score   int
}

func NewLorentzLab(p *ChargedParticle) *LorentzLab {
	return &LorentzLab{
		Particle:   p,
		BStrength:  1,
		BDirection: unitZ,
	}
}

// MagneticField is BStrength along BDirection.
func (l *LorentzLab) MagneticField() mgl64.Vec3 {
	return withLength(l.BDirection, l.BStrength)
}

func (l *LorentzLab) Step(dt float64) {
	l.Integrator.Step(l.Particle, l.MagneticField(), l.ElectricField, l.UseElectricField, dt)
	l.collectHits()
}

func (l *LorentzLab) collectHits() {
	kept := l.targets[:0]
	for _, t := range l.targets {
		if t.Contains(l.Particle.Position) {
			l.score++
			continue
		}
		kept = append(kept, t)
	}
	l.targets = kept
}

// Reset relaunches the particle and restores every placed target.
func (l *LorentzLab) Reset() {
	l.Particle.Reset()
	l.targets = append(l.targets[:0], l.placed...)
	l.score = 0
}

func (l *LorentzLab) AddTarget(t Target) {
	l.placed = append(l.placed, t)
	l.targets = append(l.targets, t)
}

// Targets returns the targets not yet hit.
func (l *LorentzLab) Targets() []Target {
	out := make([]Target, len(l.targets))
	copy(out, l.targets)
	return out
}

func (l *LorentzLab) Score() int  { return l.score }
func (l *LorentzLab) ResetScore() { l.score = 0 }

func (l *LorentzLab) SetCharge(q float64) error {
	if !ChargeRange.Contains(q) {
		return fmt.Errorf("charge %v outside %v: %w", q, ChargeRange, dynamo.ErrParameterBounds)
	}
	l.Particle.Charge = q
	return nil
}

func (l *LorentzLab) SetField(b float64) error {
	if !FieldRange.Contains(b) {
		return fmt.Errorf("field %v outside %v: %w", b, FieldRange, dynamo.ErrParameterBounds)
	}
	l.BStrength = b
	return nil
}

func (l *LorentzLab) SetMass(m float64) error {
	if !MassRange.Contains(m) {
		return fmt.Errorf("mass %v outside %v: %w", m, MassRange, dynamo.ErrParameterBounds)
	}
	return l.Particle.SetMass(m)
}

// ParticleDiagnostics are derived from the current state and never stored.
type ParticleDiagnostics struct {
	Speed    float64
	Energy   float64
	Radius   float64
	Period   float64
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

func (l *LorentzLab) Diagnostics() ParticleDiagnostics {
	p := l.Particle
	speed := p.Speed()
	return ParticleDiagnostics{
		Speed:    speed,
		Energy:   p.KineticEnergy(),
		Radius:   CyclotronRadius(p.Mass, speed, p.Charge, l.BStrength),
		Period:   CyclotronPeriod(p.Mass, p.Charge, l.BStrength),
		Position: p.Position,
		Velocity: p.Velocity,
	}
}

func (l *LorentzLab) Energy() float64 { return l.Particle.KineticEnergy() }

// The cyclotron radius is left out of the state vector because it is +Inf
// whenever the field or charge vanishes.
var lorentzLabels = []string{"x", "y", "z", "vx", "vy", "vz", "speed", "energy", "period", "score"}

func (l *LorentzLab) Labels() []string { return lorentzLabels }

func (l *LorentzLab) State() dynamo.State {
	d := l.Diagnostics()
	x, v := d.Position, d.Velocity
	return dynamo.State{
		x.X(), x.Y(), x.Z(), v.X(), v.Y(), v.Z(),
		d.Speed, d.Energy, d.Period, float64(l.score),
	}
}

func (l *LorentzLab) GetParams() map[string]float64 {
	useE := 0.0
	if l.UseElectricField {
		useE = 1
	}
	return map[string]float64{
		"charge": l.Particle.Charge,
		"field":  l.BStrength,
		"mass":   l.Particle.Mass,
		"use_e":  useE,
		"e_x":    l.ElectricField.X(),
		"e_y":    l.ElectricField.Y(),
		"e_z":    l.ElectricField.Z(),
	}
}

func (l *LorentzLab) SetParam(name string, value float64) error {
	switch name {
	case "charge":
		return l.SetCharge(value)
	case "field":
		return l.SetField(value)
	case "mass":
		return l.SetMass(value)
	case "use_e":
		l.UseElectricField = value != 0
	case "e_x":
		l.ElectricField[0] = value
	case "e_y":
		l.ElectricField[1] = value
	case "e_z":
		l.ElectricField[2] = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
