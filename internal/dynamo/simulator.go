package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys       System
	metrics   []Metric
	observers []Observer
}

func New(sys System) *Simulator {
	return &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// System returns the simulated system.
func (s *Simulator) System() System { return s.sys }

// Run steps the system from its current state for cfg.Duration seconds.
// The system is not reset first.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Labels:  s.sys.Labels(),
		States:  make([]State, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := s.sys.State()
	t := 0.0

	result.States = append(result.States, x)
	result.Times = append(result.Times, t)

	initialEnergy := s.computeEnergy()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		s.sys.Step(cfg.Dt)
		newX := s.sys.State()

		if cfg.ValidateState && !newX.IsValid() {
			err := &SimulationError{
				Step:    i,
				Time:    t,
				Wrapped: fmt.Errorf("%w: %v", ErrInvalidState, SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}),
			}
			result.Errors = append(result.Errors, err)
			break
		}

		x = newX
		t += cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x)
		result.Times = append(result.Times, t)
	}

	finalEnergy := s.computeEnergy()
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}

func (s *Simulator) computeEnergy() float64 {
	if h, ok := s.sys.(Hamiltonian); ok {
		return h.Energy()
	}
	return 0
}

// RunWithCallback steps the system until the duration elapses, the context
// is canceled, or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(State, float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	t := 0.0
	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		x := s.sys.State()
		if !callback(x, t) {
			return nil
		}

		s.sys.Step(cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !s.sys.State().IsValid() {
			return fmt.Errorf("%w at t=%.4f", ErrInvalidState, t)
		}
	}

	return nil
}
