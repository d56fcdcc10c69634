package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/physics"
)

const (
	DefaultDt       = 0.02
	DefaultDuration = 10.0
	DefaultScenario = 1
	DefaultSlotMass = 30.0
	DefaultSlotR    = 2.0
	DefaultCharge   = 1.0
	DefaultMass     = 1.0
	DefaultBField   = 1.0
)

// Models lists the model names a config may select.
var Models = []string{"carousel", "lorentz", "probe"}

type Config struct {
	Model    string         `yaml:"model"`
	Dt       float64        `yaml:"dt"`
	Duration float64        `yaml:"duration"`
	Assembly AssemblyConfig `yaml:"assembly"`
	Field    FieldConfig    `yaml:"field"`
	Particle ParticleConfig `yaml:"particle"`
	Probe    ProbeConfig    `yaml:"probe"`
}

// SlotConfig is a spawn position on the platform. Angle is in degrees from
// +X towards +Z.
type SlotConfig struct {
	Angle  float64 `yaml:"angle"`
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
}

func (s SlotConfig) PointMass() physics.PointMass {
	return physics.NewPointMassAt(s.Radius, mgl64.DegToRad(s.Angle), s.Mass)
}

// ScenarioConfig fills the listed slots when scenario Index is loaded.
type ScenarioConfig struct {
	Index int   `yaml:"index"`
	Slots []int `yaml:"slots"`
}

// MoveConfig shifts mass Mass radially by Delta once At seconds have
// elapsed in a batch run.
type MoveConfig struct {
	At    float64 `yaml:"at"`
	Mass  int     `yaml:"mass"`
	Delta float64 `yaml:"delta"`
}

type AssemblyConfig struct {
	BaseInertia float64          `yaml:"base_inertia"`
	RadialSpeed float64          `yaml:"radial_speed"`
	SpinRate    float64          `yaml:"spin_rate"`
	Initial     int              `yaml:"scenario"`
	Slots       []SlotConfig     `yaml:"slots"`
	Scenarios   []ScenarioConfig `yaml:"scenarios"`
	Moves       []MoveConfig     `yaml:"moves,omitempty"`
}

// Scenario returns the point masses of scenario index, or nil when the index
// is not configured.
func (a AssemblyConfig) Scenario(index int) []physics.PointMass {
	for _, sc := range a.Scenarios {
		if sc.Index != index {
			continue
		}
		masses := make([]physics.PointMass, 0, len(sc.Slots))
		for _, slot := range sc.Slots {
			if slot >= 0 && slot < len(a.Slots) {
				masses = append(masses, a.Slots[slot].PointMass())
			}
		}
		return masses
	}
	return nil
}

// ScenarioRange is the lowest and highest configured scenario index.
func (a AssemblyConfig) ScenarioRange() (first, last int) {
	for i, sc := range a.Scenarios {
		if i == 0 || sc.Index < first {
			first = sc.Index
		}
		if i == 0 || sc.Index > last {
			last = sc.Index
		}
	}
	return first, last
}

type ChargeConfig struct {
	Position []float64 `yaml:"position"`
	Charge   float64   `yaml:"charge"`
}

type GridConfig struct {
	HalfSize float64 `yaml:"half_size"`
	Step     float64 `yaml:"step"`
	Z        float64 `yaml:"z"`
}

func (g GridConfig) Spec() physics.GridSpec {
	return physics.GridSpec{HalfSize: g.HalfSize, Step: g.Step, Z: g.Z}
}

type FieldConfig struct {
	Charges []ChargeConfig `yaml:"charges"`
	Grid    GridConfig     `yaml:"grid"`
}

func (f FieldConfig) ChargeSet() physics.ChargeSet {
	set := make(physics.ChargeSet, len(f.Charges))
	for i, c := range f.Charges {
		set[i] = physics.PointCharge{Position: Vec3(c.Position), Charge: c.Charge}
	}
	return set
}

type TargetConfig struct {
	Position []float64 `yaml:"position"`
	Radius   float64   `yaml:"radius"`
}

type ParticleConfig struct {
	Charge        float64        `yaml:"charge"`
	Mass          float64        `yaml:"mass"`
	Velocity      []float64      `yaml:"velocity"`
	BField        float64        `yaml:"b_field"`
	BDirection    []float64      `yaml:"b_direction"`
	EField        []float64      `yaml:"e_field"`
	UseEField     bool           `yaml:"use_e_field"`
	Stabilization string         `yaml:"stabilization"`
	Targets       []TargetConfig `yaml:"targets"`
}

func (p ParticleConfig) TargetList() []physics.Target {
	out := make([]physics.Target, len(p.Targets))
	for i, t := range p.Targets {
		out[i] = physics.Target{Position: Vec3(t.Position), Radius: t.Radius}
	}
	return out
}

type ProbeConfig struct {
	Charge     float64   `yaml:"charge"`
	Mass       float64   `yaml:"mass"`
	Position   []float64 `yaml:"position"`
	Velocity   []float64 `yaml:"velocity"`
	Integrator string    `yaml:"integrator"`
}

// Vec3 converts a YAML coordinate list. Missing components are zero.
func Vec3(v []float64) mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}

func DefaultConfig() *Config {
	return &Config{
		Model:    "carousel",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Assembly: AssemblyConfig{
			BaseInertia: physics.DefaultBaseInertia,
			RadialSpeed: physics.DefaultRadialSpeed,
			SpinRate:    physics.DefaultSpinRate,
			Initial:     DefaultScenario,
			Slots: []SlotConfig{
				{Angle: 0, Radius: DefaultSlotR, Mass: DefaultSlotMass},
				{Angle: 90, Radius: DefaultSlotR, Mass: DefaultSlotMass},
				{Angle: 180, Radius: DefaultSlotR, Mass: DefaultSlotMass},
				{Angle: 270, Radius: DefaultSlotR, Mass: DefaultSlotMass},
			},
			Scenarios: []ScenarioConfig{
				{Index: 1, Slots: []int{0, 2}},
				{Index: 2, Slots: []int{0, 1, 2, 3}},
				{Index: 3, Slots: []int{0, 1, 2}},
			},
		},
		Field: FieldConfig{
			Charges: []ChargeConfig{
				{Position: []float64{-3, 0, 0}, Charge: 1},
				{Position: []float64{3, 0, 0}, Charge: -1},
			},
			Grid: GridConfig{HalfSize: 20, Step: 1},
		},
		Particle: ParticleConfig{
			Charge:        DefaultCharge,
			Mass:          DefaultMass,
			Velocity:      []float64{5, 0, 0},
			BField:        DefaultBField,
			BDirection:    []float64{0, 0, 1},
			EField:        []float64{0, 0, 0},
			Stabilization: physics.StabilizeMagneticOnly.String(),
		},
		Probe: ProbeConfig{
			Charge:     1,
			Mass:       1,
			Position:   []float64{0, 1, 0},
			Velocity:   []float64{0, 0, 0},
			Integrator: "symplectic",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations no model could run. Every error wraps
// dynamo.ErrInvalidConfig.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrInvalidConfig}, args...)...)
	}

	known := false
	for _, m := range Models {
		known = known || m == c.Model
	}
	if !known {
		return bad("unknown model %q", c.Model)
	}
	if c.Dt <= 0 {
		return bad("dt must be positive, got %v", c.Dt)
	}
	if c.Duration <= 0 {
		return bad("duration must be positive, got %v", c.Duration)
	}

	a := c.Assembly
	if a.BaseInertia < 0 {
		return bad("base_inertia must not be negative, got %v", a.BaseInertia)
	}
	for i, s := range a.Slots {
		if s.Mass <= 0 {
			return bad("slot %d: mass must be positive, got %v", i, s.Mass)
		}
		if s.Radius < physics.MinRadius || s.Radius > physics.MaxRadius {
			return bad("slot %d: radius %v outside [%v, %v]", i, s.Radius, physics.MinRadius, physics.MaxRadius)
		}
	}
	for _, sc := range a.Scenarios {
		for _, slot := range sc.Slots {
			if slot < 0 || slot >= len(a.Slots) {
				return bad("scenario %d: slot %d does not exist", sc.Index, slot)
			}
		}
	}

	loaded := len(a.Scenario(a.Initial))
	for _, m := range a.Moves {
		if m.Mass < 0 || m.Mass >= loaded {
			return bad("move at %v: scenario %d has no mass %d", m.At, a.Initial, m.Mass)
		}
	}

	if c.Field.Grid.Step <= 0 {
		return bad("grid step must be positive, got %v", c.Field.Grid.Step)
	}

	p := c.Particle
	if !physics.ChargeRange.Contains(p.Charge) {
		return bad("particle charge %v outside %v", p.Charge, physics.ChargeRange)
	}
	if !physics.MassRange.Contains(p.Mass) {
		return bad("particle mass %v outside %v", p.Mass, physics.MassRange)
	}
	if !physics.FieldRange.Contains(p.BField) {
		return bad("b_field %v outside %v", p.BField, physics.FieldRange)
	}
	if _, err := physics.ParseStabilization(p.Stabilization); err != nil {
		return bad("%v", err)
	}
	if c.Probe.Mass <= 0 {
		return bad("probe mass must be positive, got %v", c.Probe.Mass)
	}
	if _, err := integrators.New(c.Probe.Integrator); err != nil {
		return err
	}

	vectors := map[string][]float64{
		"particle.velocity":    p.Velocity,
		"particle.b_direction": p.BDirection,
		"particle.e_field":     p.EField,
		"probe.position":       c.Probe.Position,
		"probe.velocity":       c.Probe.Velocity,
	}
	for i, ch := range c.Field.Charges {
		vectors[fmt.Sprintf("field.charges[%d]", i)] = ch.Position
	}
	for i, t := range p.Targets {
		vectors[fmt.Sprintf("particle.targets[%d]", i)] = t.Position
	}
	for name, v := range vectors {
		if len(v) > 3 {
			return bad("%s has %d components, want at most 3", name, len(v))
		}
	}

	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Assembly.Slots = append([]SlotConfig(nil), c.Assembly.Slots...)
	out.Assembly.Scenarios = make([]ScenarioConfig, len(c.Assembly.Scenarios))
	for i, sc := range c.Assembly.Scenarios {
		out.Assembly.Scenarios[i] = ScenarioConfig{Index: sc.Index, Slots: append([]int(nil), sc.Slots...)}
	}
	out.Assembly.Moves = append([]MoveConfig(nil), c.Assembly.Moves...)
	out.Field.Charges = make([]ChargeConfig, len(c.Field.Charges))
	for i, ch := range c.Field.Charges {
		out.Field.Charges[i] = ChargeConfig{Position: cloneFloats(ch.Position), Charge: ch.Charge}
	}
	out.Particle.Velocity = cloneFloats(c.Particle.Velocity)
	out.Particle.BDirection = cloneFloats(c.Particle.BDirection)
	out.Particle.EField = cloneFloats(c.Particle.EField)
	out.Particle.Targets = make([]TargetConfig, len(c.Particle.Targets))
	for i, t := range c.Particle.Targets {
		out.Particle.Targets[i] = TargetConfig{Position: cloneFloats(t.Position), Radius: t.Radius}
	}
	out.Probe.Position = cloneFloats(c.Probe.Position)
	out.Probe.Velocity = cloneFloats(c.Probe.Velocity)
	return &out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
