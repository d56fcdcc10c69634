package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/logging"
	"github.com/san-kum/physlab/internal/physics"
)

type Experiment struct {
	cfg       *config.Config
	sys       dynamo.System
	simulator *dynamo.Simulator
	moves     *moveSchedule
	log       *slog.Logger
}

// New validates cfg and wires the model, its default metrics and, for the
// carousel, the scheduled mass moves. A nil logger discards output.
func New(cfg *config.Config, reg *Registry, log *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}

	sys, err := reg.GetModel(cfg)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:       cfg,
		sys:       sys,
		simulator: dynamo.New(sys),
		log:       log.With("model", cfg.Model),
	}
	for _, m := range reg.DefaultMetrics(cfg.Model, sys) {
		e.simulator.AddMetric(m)
	}
	if asm, ok := sys.(*physics.Assembly); ok && len(cfg.Assembly.Moves) > 0 {
		e.moves = newMoveSchedule(asm, cfg.Assembly.Moves, e.log)
		e.simulator.AddObserver(e.moves)
	}

	return e, nil
}

// SetParams applies named parameters to a configurable model.
func (e *Experiment) SetParams(params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	tunable, ok := e.sys.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("%s: %w", e.cfg.Model, dynamo.ErrUnknownParam)
	}
	for name, v := range params {
		if err := tunable.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Run steps the model for the configured duration from its current state.
// Scheduled moves are timed from the start of each run.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.moves != nil {
		e.moves.rewind()
	}
	start := time.Now()
	e.log.Info("run started", "dt", e.cfg.Dt, "duration", e.cfg.Duration)

	result, err := e.simulator.Run(ctx, e.RunConfig())
	if err != nil {
		e.log.Error("run failed", "err", err)
		return result, err
	}

	for _, runErr := range result.Errors {
		e.log.Warn("run stopped early", "err", runErr)
	}
	e.log.Info("run finished",
		"steps", result.StepsTaken,
		"elapsed", time.Since(start),
		"energy_drift", result.EnergyDrift,
	)
	for name, v := range result.Metrics {
		e.log.Debug("metric", "name", name, "value", v)
	}

	return result, nil
}

func (e *Experiment) RunConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = e.cfg.Dt
	cfg.Duration = e.cfg.Duration
	return cfg
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) System() dynamo.System { return e.sys }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *dynamo.Simulator { return e.simulator }

// RunAll steps every experiment concurrently with the timing of the first.
func RunAll(ctx context.Context, exps []*Experiment) ([]*dynamo.Result, error) {
	if len(exps) == 0 {
		return nil, nil
	}
	sims := make([]*dynamo.Simulator, len(exps))
	for i, e := range exps {
		sims[i] = e.simulator
	}
	return dynamo.NewEnsemble(sims...).Run(ctx, exps[0].RunConfig())
}

// moveSchedule applies configured radial moves once their time has come.
type moveSchedule struct {
	asm   *physics.Assembly
	moves []config.MoveConfig
	done  []bool
	log   *slog.Logger
}

func newMoveSchedule(asm *physics.Assembly, moves []config.MoveConfig, log *slog.Logger) *moveSchedule {
	return &moveSchedule{asm: asm, moves: moves, done: make([]bool, len(moves)), log: log}
}

func (m *moveSchedule) OnStep(_ dynamo.State, t float64) {
	for i, mv := range m.moves {
		if m.done[i] || t < mv.At {
			continue
		}
		m.done[i] = true
		if err := m.asm.MoveMassRadially(mv.Mass, mv.Delta); err != nil {
			m.log.Warn("scheduled move skipped", "mass", mv.Mass, "err", err)
			continue
		}
		m.log.Debug("mass moved", "mass", mv.Mass, "delta", mv.Delta, "t", t)
	}
}

func (m *moveSchedule) rewind() {
	clear(m.done)
}
