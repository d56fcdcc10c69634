package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physlab/internal/dynamo"
)

const (
	// DefaultBaseInertia is the platform's own moment of inertia.
	DefaultBaseInertia = 15.0
	// DefaultRadialSpeed is how fast a held control moves a mass, per second.
	DefaultRadialSpeed = 3.0
	// DefaultSpinRate is the spin-up angular velocity about +Y.
	DefaultSpinRate = 5.0

	comThreshold        = 5e-4
	precessionIntensity = 0.2
	precessionDamping   = 0.95
	inertiaFloor        = 1e-3
	unbalancedCount     = 3
)

// MaxTilt bounds the X and Z angular velocity components.
var MaxTilt = mgl64.DegToRad(15)

// Inertia is the diagonal of the inertia tensor in platform-local axes.
type Inertia struct {
	Ixx, Iyy, Izz float64
}

func (in Inertia) Vec() mgl64.Vec3 { return mgl64.Vec3{in.Ixx, in.Iyy, in.Izz} }

// Assembly is a spinning platform carrying point masses. Its angular
// momentum is fixed at spin-up; moving masses changes the inertia tensor and
// therefore the angular velocity.
type Assembly struct {
	BaseInertia  float64
	RadialSpeed  float64
	InitialOmega mgl64.Vec3

	masses   []PointMass
	loaded   []PointMass
	selected int

	angularMomentum mgl64.Vec3
	angularVelocity mgl64.Vec3
	orientation     mgl64.Quat
	rotating        bool

	inertia Inertia
	com     mgl64.Vec3
}

func NewAssembly(baseInertia float64) *Assembly {
	a := &Assembly{
		BaseInertia:  baseInertia,
		RadialSpeed:  DefaultRadialSpeed,
		InitialOmega: mgl64.Vec3{0, DefaultSpinRate, 0},
		orientation:  mgl64.QuatIdent(),
	}
	a.recompute()
	return a
}

// InertiaTensor recomputes the diagonal tensor and center of mass from the
// current point masses.
func (a *Assembly) InertiaTensor() (Inertia, mgl64.Vec3) {
	a.recompute()
	return a.inertia, a.com
}

func (a *Assembly) recompute() {
	in := Inertia{a.BaseInertia, a.BaseInertia, a.BaseInertia}
	var weighted mgl64.Vec3
	total := 0.0

	for _, pm := range a.masses {
		x, z := pm.Position.X(), pm.Position.Z()
		in.Ixx += pm.Mass * z * z
		in.Iyy += pm.Mass * (x*x + z*z)
		in.Izz += pm.Mass * x * x

		weighted = weighted.Add(pm.Position.Mul(pm.Mass))
		total += pm.Mass
	}

	a.inertia = in
	if total > 0 {
		a.com = weighted.Mul(1 / total)
	} else {
		a.com = mgl64.Vec3{}
	}
}

func (a *Assembly) toBody(v mgl64.Vec3) mgl64.Vec3  { return a.orientation.Inverse().Rotate(v) }
func (a *Assembly) toWorld(v mgl64.Vec3) mgl64.Vec3 { return a.orientation.Rotate(v) }

// LoadScenario replaces the point masses and clears all rotation state,
// including orientation. An empty set is valid.
func (a *Assembly) LoadScenario(masses []PointMass) {
	a.loaded = append(a.loaded[:0], masses...)
	a.Reset()
}

// Reset restores the last loaded masses and stops the platform.
func (a *Assembly) Reset() {
	a.masses = append(a.masses[:0], a.loaded...)
	a.selected = 0
	a.rotating = false
	a.angularVelocity = mgl64.Vec3{}
	a.angularMomentum = mgl64.Vec3{}
	a.orientation = mgl64.QuatIdent()
	a.recompute()
}

// StartRotation fixes the conserved angular momentum from omega (world
// axes) and the tensor at this instant.
func (a *Assembly) StartRotation(omega mgl64.Vec3) {
	a.recompute()
	w := a.toBody(omega)
	lBody := mgl64.Vec3{
		a.inertia.Ixx * w.X(),
		a.inertia.Iyy * w.Y(),
		a.inertia.Izz * w.Z(),
	}
	a.angularMomentum = a.toWorld(lBody)
	a.angularVelocity = omega
	a.rotating = true
}

func (a *Assembly) StopRotation() {
	a.rotating = false
	a.angularVelocity = mgl64.Vec3{}
	a.angularMomentum = mgl64.Vec3{}
}

// ToggleRotation starts the platform at InitialOmega or stops it.
func (a *Assembly) ToggleRotation() {
	if a.rotating {
		a.StopRotation()
		return
	}
	a.StartRotation(a.InitialOmega)
}

func (a *Assembly) Step(dt float64) {
	if !a.rotating {
		return
	}

	a.recompute()
	a.angularVelocity = a.toWorld(divideGuarded(a.toBody(a.angularMomentum), a.inertia))

	if len(a.masses) == unbalancedCount {
		a.precess(dt)
	}

	a.angularVelocity[0] = mgl64.Clamp(a.angularVelocity[0], -MaxTilt, MaxTilt)
	a.angularVelocity[2] = mgl64.Clamp(a.angularVelocity[2], -MaxTilt, MaxTilt)

	a.orientation = eulerWorld(a.angularVelocity.Mul(dt)).Mul(a.orientation).Normalize()
}

// precess nudges the tilt components when the center of mass sits off the
// spin axis. Gravity is not modeled; the offset itself drives the wobble.
func (a *Assembly) precess(dt float64) {
	offset := mgl64.Vec3{a.com.X(), 0, a.com.Z()}
	if offset.LenSqr() <= comThreshold {
		return
	}

	// The offset and L are crossed as stored; the result is divided by the
	// tensor as if already in platform axes.
	torque := offset.Cross(a.angularMomentum)
	deltaBody := mgl64.Vec3{
		torque.X() / math.Max(a.inertia.Ixx, inertiaFloor),
		torque.Y() / math.Max(a.inertia.Iyy, inertiaFloor),
		torque.Z() / math.Max(a.inertia.Izz, inertiaFloor),
	}.Mul(dt)
	delta := a.toWorld(deltaBody).Mul(precessionIntensity)

	a.angularVelocity[0] = (a.angularVelocity[0] + delta.X()) * precessionDamping
	a.angularVelocity[2] = (a.angularVelocity[2] + delta.Z()) * precessionDamping
}

func divideGuarded(l mgl64.Vec3, in Inertia) mgl64.Vec3 {
	div := func(num, den float64) float64 {
		if den <= 0 {
			return 0
		}
		return num / den
	}
	return mgl64.Vec3{div(l.X(), in.Ixx), div(l.Y(), in.Iyy), div(l.Z(), in.Izz)}
}

// MoveMassRadially shifts mass index along its radius; see PointMass.MoveRadially.
func (a *Assembly) MoveMassRadially(index int, delta float64) error {
	if index < 0 || index >= len(a.masses) {
		return fmt.Errorf("move mass %d of %d: %w", index, len(a.masses), dynamo.ErrIndexOutOfRange)
	}
	a.masses[index].MoveRadially(delta)
	a.recompute()
	return nil
}

// MoveSelected moves the selected mass; a no-op when nothing is loaded.
func (a *Assembly) MoveSelected(delta float64) {
	if len(a.masses) == 0 {
		return
	}
	_ = a.MoveMassRadially(a.selected, delta)
}

func (a *Assembly) SelectMass(index int) error {
	if index < 0 || index >= len(a.masses) {
		return fmt.Errorf("select mass %d of %d: %w", index, len(a.masses), dynamo.ErrIndexOutOfRange)
	}
	a.selected = index
	return nil
}

func (a *Assembly) SelectNext() {
	if n := len(a.masses); n > 0 {
		a.selected = (a.selected + 1) % n
	}
}

func (a *Assembly) SelectPrev() {
	if n := len(a.masses); n > 0 {
		a.selected = (a.selected + n - 1) % n
	}
}

func (a *Assembly) Selected() int               { return a.selected }
func (a *Assembly) IsRotating() bool            { return a.rotating }
func (a *Assembly) Orientation() mgl64.Quat     { return a.orientation }
func (a *Assembly) AngularVelocity() mgl64.Vec3 { return a.angularVelocity }
func (a *Assembly) AngularMomentum() mgl64.Vec3 { return a.angularMomentum }

// Masses returns a copy of the loaded point masses.
func (a *Assembly) Masses() []PointMass {
	out := make([]PointMass, len(a.masses))
	copy(out, a.masses)
	return out
}

// Tilt is the angle in radians between the platform's up axis and world up.
func (a *Assembly) Tilt() float64 {
	up := a.toWorld(unitY)
	return math.Acos(mgl64.Clamp(up.Dot(unitY), -1, 1))
}

// Energy is the rotational kinetic energy ½ ω·L.
func (a *Assembly) Energy() float64 {
	return 0.5 * a.angularVelocity.Dot(a.angularMomentum)
}

// AssemblySnapshot is a read-only view for display layers.
type AssemblySnapshot struct {
	AngularVelocity   mgl64.Vec3
	AngularMomentum   mgl64.Vec3
	MomentumMagnitude float64
	CenterOfMass      mgl64.Vec3
	Inertia           Inertia
	Orientation       mgl64.Quat
	Tilt              float64
	Rotating          bool
	MassCount         int
	Selected          int
}

func (a *Assembly) Snapshot() AssemblySnapshot {
	return AssemblySnapshot{
		AngularVelocity:   a.angularVelocity,
		AngularMomentum:   a.angularMomentum,
		MomentumMagnitude: a.angularMomentum.Len(),
		CenterOfMass:      a.com,
		Inertia:           a.inertia,
		Orientation:       a.orientation,
		Tilt:              a.Tilt(),
		Rotating:          a.rotating,
		MassCount:         len(a.masses),
		Selected:          a.selected,
	}
}

var assemblyLabels = []string{
	"omega_x", "omega_y", "omega_z", "l_mag",
	"com_x", "com_y", "com_z",
	"ixx", "iyy", "izz", "tilt",
}

func (a *Assembly) Labels() []string { return assemblyLabels }

func (a *Assembly) State() dynamo.State {
	w, c, in := a.angularVelocity, a.com, a.inertia.Vec()
	return dynamo.State{
		w.X(), w.Y(), w.Z(), a.angularMomentum.Len(),
		c.X(), c.Y(), c.Z(),
		in.X(), in.Y(), in.Z(), a.Tilt(),
	}
}

// GetParams exposes the platform settings plus one radius per mass, named
// r0, r1 and so on.
func (a *Assembly) GetParams() map[string]float64 {
	params := map[string]float64{
		"base_inertia": a.BaseInertia,
		"radial_speed": a.RadialSpeed,
		"spin_rate":    a.InitialOmega.Y(),
	}
	for i, m := range a.masses {
		params[fmt.Sprintf("r%d", i)] = m.Radius()
	}
	return params
}

// SetParam applies one parameter. On a spinning platform spin_rate and
// base_inertia re-fix L from the new rate or tensor at the current angular
// velocity; a radius change moves the mass under the conserved L.
func (a *Assembly) SetParam(name string, value float64) error {
	switch name {
	case "base_inertia":
		if value < 0 {
			return fmt.Errorf("base_inertia %v: %w", value, dynamo.ErrParameterBounds)
		}
		a.BaseInertia = value
		a.recompute()
		if a.rotating {
			a.StartRotation(a.angularVelocity)
		}
	case "radial_speed":
		if value <= 0 {
			return fmt.Errorf("radial_speed %v: %w", value, dynamo.ErrParameterBounds)
		}
		a.RadialSpeed = value
	case "spin_rate":
		a.InitialOmega = mgl64.Vec3{0, value, 0}
		if a.rotating {
			a.StartRotation(a.InitialOmega)
		}
	default:
		var i int
		if _, err := fmt.Sscanf(name, "r%d", &i); err != nil || fmt.Sprintf("r%d", i) != name {
			return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
		}
		if i < 0 || i >= len(a.masses) {
			return fmt.Errorf("%q: %w", name, dynamo.ErrIndexOutOfRange)
		}
		return a.MoveMassRadially(i, value-a.masses[i].Radius())
	}
	return nil
}
