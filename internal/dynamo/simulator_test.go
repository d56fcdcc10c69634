package dynamo

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

// decay integrates x' = -x with explicit Euler.
type decay struct {
	x, x0 float64
}

func (d *decay) Step(dt float64)  { d.x += dt * -d.x }
func (d *decay) State() State     { return State{d.x} }
func (d *decay) Labels() []string { return []string{"x"} }
func (d *decay) Reset()           { d.x = d.x0 }
func (d *decay) Energy() float64  { return 0.5 * d.x * d.x }

type blowup struct{ n int }

func (b *blowup) Step(float64) { b.n++ }
func (b *blowup) State() State {
	if b.n >= 3 {
		return State{math.NaN()}
	}
	return State{float64(b.n)}
}
func (b *blowup) Labels() []string { return []string{"n"} }
func (b *blowup) Reset()           { b.n = 0 }

func TestSimulatorRun(t *testing.T) {
	sim := New(&decay{x: 1, x0: 1})

	result, err := sim.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	finalState := result.States[len(result.States)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
	if result.EnergyDrift <= 0 {
		t.Error("decaying system should report energy drift")
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decay{x: 1})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	sim := New(&blowup{})

	result, err := sim.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %d", len(result.Errors))
	}

	var simErr *SimulationError
	if !errors.As(result.Errors[0], &simErr) {
		t.Fatalf("expected SimulationError, got %T", result.Errors[0])
	}
	if simErr.Step != 2 {
		t.Errorf("expected failure at step 2, got %d", simErr.Step)
	}
	if !errors.Is(result.Errors[0], ErrInvalidState) {
		t.Error("error should wrap ErrInvalidState")
	}
	if result.StepsTaken != 2 {
		t.Errorf("expected 2 steps taken, got %d", result.StepsTaken)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, _ float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type countingObserver struct{ n int }

func (c *countingObserver) OnStep(State, float64) { c.n++ }

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decay{x: 1})

	metric := &testMetric{}
	obs := &countingObserver{}
	sim.AddMetric(metric)
	sim.AddObserver(obs)

	result, err := sim.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if obs.n != 10 {
		t.Errorf("expected 10 observer calls, got %d", obs.n)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&decay{x: 1}).Run(ctx, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New(&decay{x: 1})

	calls := 0
	err := sim.RunWithCallback(context.Background(), Config{Dt: 0.1, Duration: 10}, func(x State, t float64) bool {
		calls++
		return calls < 5
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected callback to stop after 5 calls, got %d", calls)
	}
}

func TestEnsemble(t *testing.T) {
	sims := make([]*Simulator, 4)
	for i := range sims {
		sims[i] = New(&decay{x: float64(i + 1)})
	}

	results, err := NewEnsemble(sims...).Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	for i, r := range results {
		if r.States[0][0] != float64(i+1) {
			t.Errorf("result %d out of order: starts at %v", i, r.States[0][0])
		}
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		var total atomic.Int64
		seen := make([]int32, n)
		ParallelFor(n, 16, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
				total.Add(1)
			}
		})
		if int(total.Load()) != n {
			t.Errorf("n=%d: visited %d indices", n, total.Load())
		}
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
