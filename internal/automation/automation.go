// Package automation runs scripted sequences of lab experiments and Monte
// Carlo trials over perturbed parameters.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/logging"
	"github.com/san-kum/physlab/internal/storage"
	"gopkg.in/yaml.v3"
)

// Script is a named sequence of runs.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a script. Preset and Config pick the starting
// configuration; Dt and Duration override it when set.
type Step struct {
	Model    string             `yaml:"model"`
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

// StepResult pairs a step with its run and, when the script saved it, the
// stored run ID.
type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
}

// LoadScript reads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("%w: script %q has no steps", dynamo.ErrInvalidConfig, script.Name)
	}
	return &script, nil
}

// Resolve builds the configuration of a step.
func (s Step) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %s/%s", dynamo.ErrInvalidConfig, s.Model, s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
		cfg.Model = s.Model
	}

	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	return cfg, cfg.Validate()
}

// Run executes every step in order. Steps with SaveAs are written to store
// when it is non-nil. It stops at the first failing step.
func Run(ctx context.Context, script *Script, reg *experiment.Registry, store *storage.Store, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = logging.Discard()
	}
	results := make([]StepResult, 0, len(script.Steps))

	for i, step := range script.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s#%d", step.Model, i+1)
		}
		log.Info("script step", "script", script.Name, "step", i+1, "of", len(script.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, reg, log)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := exp.SetParams(step.Params); err != nil {
			return results, fmt.Errorf("step %d params: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Result: result}
		if step.SaveAs != "" && store != nil {
			params := step.Params
			if c, ok := exp.System().(dynamo.Configurable); ok {
				params = c.GetParams()
			}
			sr.RunID, err = store.Save(storage.RunInfo{
				Model:    cfg.Model,
				Preset:   step.SaveAs,
				Dt:       cfg.Dt,
				Duration: cfg.Duration,
				Params:   params,
			}, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig perturbs Params uniformly by up to ±Perturbation
// (relative) around their base values for every trial.
type MonteCarloConfig struct {
	Base         *config.Config
	Params       map[string]float64
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type TrialResult struct {
	TrialID int
	Params  map[string]float64
	Metrics map[string]float64
	// Stable is false when the run stopped early or its final state left
	// the stability bound.
	Stable bool
}

// stableBound matches the default stability metric threshold.
const stableBound = 1e3

// RunMonteCarlo executes cfg.NumTrials runs. A trial whose parameters are
// rejected by the model counts as unstable instead of failing the batch.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *experiment.Registry) ([]TrialResult, error) {
	if cfg.Base == nil || cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: monte carlo needs a base config and trials", dynamo.ErrInvalidConfig)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]TrialResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		params := make(map[string]float64, len(cfg.Params))
		for name, base := range cfg.Params {
			params[name] = base * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
		}

		exp, err := experiment.New(cfg.Base.Clone(), reg, nil)
		if err != nil {
			return results, err
		}

		tr := TrialResult{TrialID: trial, Params: params}
		if err := exp.SetParams(params); err != nil {
			results = append(results, tr)
			continue
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}
		tr.Metrics = result.Metrics
		tr.Stable = len(result.Errors) == 0 && bounded(result)
		results = append(results, tr)
	}

	return results, nil
}

func bounded(r *dynamo.Result) bool {
	if len(r.States) == 0 {
		return false
	}
	for _, v := range r.States[len(r.States)-1] {
		if math.IsNaN(v) || math.Abs(v) > stableBound {
			return false
		}
	}
	return true
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []TrialResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
