package config

import "slices"

func preset(model string, dt, duration float64, tweak func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Model, cfg.Dt, cfg.Duration = model, dt, duration
	if tweak != nil {
		tweak(cfg)
	}
	return cfg
}

var Presets = map[string]map[string]*Config{
	"carousel": {
		"symmetric": preset("carousel", 0.02, 20.0, func(c *Config) {
			c.Assembly.Initial = 1
		}),
		"cross": preset("carousel", 0.02, 20.0, func(c *Config) {
			c.Assembly.Initial = 2
		}),
		"unbalanced": preset("carousel", 0.02, 30.0, func(c *Config) {
			c.Assembly.Initial = 3
		}),
		"pull-in": preset("carousel", 0.02, 20.0, func(c *Config) {
			c.Assembly.Initial = 1
			c.Assembly.Moves = []MoveConfig{
				{At: 5, Mass: 0, Delta: -0.5},
				{At: 5, Mass: 1, Delta: -0.5},
				{At: 12, Mass: 0, Delta: 0.7},
				{At: 12, Mass: 1, Delta: 0.7},
			}
		}),
		"light-platform": preset("carousel", 0.01, 20.0, func(c *Config) {
			c.Assembly.Initial = 3
			c.Assembly.BaseInertia = 2
		}),
	},
	"lorentz": {
		"cyclotron": preset("lorentz", 0.01, 20.0, nil),
		"strong": preset("lorentz", 0.005, 10.0, func(c *Config) {
			c.Particle.BField = 5
		}),
		"antiparticle": preset("lorentz", 0.01, 20.0, func(c *Config) {
			c.Particle.Charge = -1
		}),
		"drift": preset("lorentz", 0.01, 30.0, func(c *Config) {
			c.Particle.UseEField = true
			c.Particle.EField = []float64{0, 1, 0}
		}),
		"raw-euler": preset("lorentz", 0.02, 20.0, func(c *Config) {
			c.Particle.Stabilization = "never"
		}),
		"targets": preset("lorentz", 0.01, 20.0, func(c *Config) {
			c.Particle.Targets = []TargetConfig{
				{Position: []float64{0, -10, 0}, Radius: 0.5},
				{Position: []float64{5, -5, 0}, Radius: 0.5},
			}
		}),
	},
	"probe": {
		"dipole": preset("probe", 0.01, 10.0, nil),
		"repel": preset("probe", 0.01, 10.0, func(c *Config) {
			c.Field.Charges = []ChargeConfig{{Position: []float64{0, 0, 0}, Charge: 1}}
			c.Probe.Position = []float64{1, 0, 0}
		}),
		"orbit": preset("probe", 0.001, 20.0, func(c *Config) {
			c.Field.Charges = []ChargeConfig{{Position: []float64{0, 0, 0}, Charge: -2}}
			c.Probe.Position = []float64{2, 0, 0}
			c.Probe.Velocity = []float64{0, 1, 0}
			c.Probe.Integrator = "rk4"
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
