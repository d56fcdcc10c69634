package experiment

import (
	"fmt"
	"slices"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/metrics"
	"github.com/san-kum/physlab/internal/physics"
)

// Factory builds a ready-to-step system from a validated config.
type Factory func(cfg *config.Config) (dynamo.System, error)

type Registry struct {
	models map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Factory)}

	r.models["carousel"] = func(cfg *config.Config) (dynamo.System, error) {
		asm, _ := NewCarousel(cfg)
		asm.ToggleRotation()
		return asm, nil
	}
	r.models["lorentz"] = func(cfg *config.Config) (dynamo.System, error) {
		return NewLorentzLab(cfg)
	}
	r.models["probe"] = func(cfg *config.Config) (dynamo.System, error) {
		return NewProbe(cfg)
	}

	return r
}

// Register adds or replaces a model factory.
func (r *Registry) Register(name string, f Factory) {
	r.models[name] = f
}

func (r *Registry) GetModel(cfg *config.Config) (dynamo.System, error) {
	fn, ok := r.models[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%q: %w", cfg.Model, dynamo.ErrUnknownModel)
	}
	return fn(cfg)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewCarousel builds the assembly and its scenario book, with the configured
// initial scenario loaded and the platform at rest.
func NewCarousel(cfg *config.Config) (*physics.Assembly, *physics.ScenarioBook) {
	a := cfg.Assembly
	asm := physics.NewAssembly(a.BaseInertia)
	asm.RadialSpeed = a.RadialSpeed
	asm.InitialOmega[1] = a.SpinRate

	first, last := a.ScenarioRange()
	book := physics.NewScenarioBook(a, asm, first, last)
	book.Load(a.Initial)
	return asm, book
}

// NewLorentzLab builds the particle lab with its fields, policy and targets.
func NewLorentzLab(cfg *config.Config) (*physics.LorentzLab, error) {
	pc := cfg.Particle
	policy, err := physics.ParseStabilization(pc.Stabilization)
	if err != nil {
		return nil, err
	}

	lab := physics.NewLorentzLab(physics.NewChargedParticle(pc.Charge, pc.Mass, config.Vec3(pc.Velocity)))
	lab.Integrator.Policy = policy
	lab.BStrength = pc.BField
	if dir := config.Vec3(pc.BDirection); dir.Len() > 0 {
		lab.BDirection = dir
	}
	lab.ElectricField = config.Vec3(pc.EField)
	lab.UseElectricField = pc.UseEField
	for _, t := range pc.TargetList() {
		lab.AddTarget(t)
	}
	return lab, nil
}

// NewProbe builds the test charge in the configured charge set.
func NewProbe(cfg *config.Config) (*physics.Probe, error) {
	p := cfg.Probe
	integ, err := integrators.New(p.Integrator)
	if err != nil {
		return nil, err
	}
	probe := physics.NewProbe(cfg.Field.ChargeSet(), p.Charge, p.Mass,
		config.Vec3(p.Position), config.Vec3(p.Velocity))
	probe.Integrator = integ
	return probe, nil
}

// DefaultMetrics picks the metrics that say something about the model:
// conservation checks for the carousel and the particle, boundedness for
// all of them.
func (r *Registry) DefaultMetrics(model string, sys dynamo.System) []dynamo.Metric {
	var ms []dynamo.Metric
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergy(h), metrics.NewEnergyDrift(h))
	}

	labels := sys.Labels()
	switch model {
	case "carousel":
		ms = append(ms, metrics.NewMomentumDrift(labels), metrics.NewPeak(labels, "tilt"))
	case "lorentz":
		if lab, ok := sys.(*physics.LorentzLab); ok {
			ms = append(ms, metrics.NewSpeedDeviation(labels, func() float64 { return lab.Particle.TargetSpeed }))
		}
	case "probe":
		ms = append(ms, metrics.NewPeak(labels, "speed"))
	}

	return append(ms, metrics.NewStability(1e3))
}
