package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

func sine(n int, dt, freq float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dt   float64
		freq float64
	}{
		{"power of two", 1024, 0.01, 2.0},
		{"odd length", 1000, 0.01, 2.0},
		{"slow", 2000, 0.05, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DominantFrequency(sine(tt.n, tt.dt, tt.freq), tt.dt)
			resolution := 1 / (float64(tt.n) * tt.dt)
			if math.Abs(got-tt.freq) > resolution {
				t.Errorf("DominantFrequency = %v, want %v ± %v", got, tt.freq, resolution)
			}
		})
	}
}

func TestDominantFrequency_Flat(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 7
	}
	if f := DominantFrequency(flat, 0.1); f != 0 {
		t.Errorf("flat signal should have no frequency, got %v", f)
	}
	if p := DominantPeriod(flat, 0.1); !math.IsInf(p, 1) {
		t.Errorf("flat signal period = %v, want +Inf", p)
	}
	if PowerSpectrum([]float64{1}) != nil {
		t.Error("single sample should give no spectrum")
	}
}

func TestCyclotronPeriodFromTrace(t *testing.T) {
	lab := physics.NewLorentzLab(physics.DefaultParticle())
	dt := 0.01
	// twenty full turns so the orbit frequency sits on an FFT bin
	n := int(math.Round(20 * 2 * math.Pi / dt))

	xs := make([]float64, 0, n)
	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		lab.Step(dt)
		xs = append(xs, lab.Particle.Position.X())
		times = append(times, float64(i+1)*dt)
	}

	want := physics.CyclotronPeriod(1, 1, 1)
	if got := DominantPeriod(xs, dt); math.Abs(got-want)/want > 0.01 {
		t.Errorf("spectral period %v, want ~%v", got, want)
	}
	if got := CrossingPeriod(xs, times, 0); math.Abs(got-want)/want > 0.02 {
		t.Errorf("crossing period %v, want ~%v", got, want)
	}
}

func TestCrossingPeriod_TooFew(t *testing.T) {
	if p := CrossingPeriod([]float64{-1, 1}, []float64{0, 1}, 0); p != 0 {
		t.Errorf("expected 0 with a single crossing, got %v", p)
	}
}

func TestPhasePortraitToASCII(t *testing.T) {
	p := NewPhasePortrait("x", []float64{-1, 0, 1}, "y", []float64{0, 1, 0, 9})
	if len(p.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(p.Points))
	}

	art := PhasePortraitToASCII(p, 20, 10)
	if lines := strings.Count(art, "\n"); lines != 10 {
		t.Errorf("expected 10 rows, got %d", lines)
	}
	if !strings.Contains(art, "•") {
		t.Error("no points plotted")
	}
	if PhasePortraitToASCII(nil, 10, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}

func TestSweep_PeriodFallsWithField(t *testing.T) {
	lab := physics.NewLorentzLab(physics.DefaultParticle())

	points, err := Sweep(context.Background(), lab, SweepSpec{
		Param: "field", Min: 1, Max: 4, Steps: 4,
		Column: "period", Dt: 0.01, Record: 0.1,
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	for i, p := range points {
		want := 2 * math.Pi / p.Param
		if len(p.Values) != 1 || math.Abs(p.Values[0]-want) > 1e-9 {
			t.Errorf("point %d: values %v, want [%v]", i, p.Values, want)
		}
	}
	if lab.BStrength != 1 {
		t.Errorf("field not restored: %v", lab.BStrength)
	}
	if art := SweepToASCII(points, 8, 5); !strings.Contains(art, "•") {
		t.Error("sweep plot is empty")
	}
}

func TestSweep_Errors(t *testing.T) {
	lab := physics.NewLorentzLab(physics.DefaultParticle())
	ctx := context.Background()

	_, err := Sweep(ctx, lab, SweepSpec{Param: "gravity", Column: "period", Dt: 0.01, Record: 1})
	if !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}

	_, err = Sweep(ctx, lab, SweepSpec{Param: "field", Column: "radius", Dt: 0.01, Record: 1})
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	_, err = Sweep(ctx, lab, SweepSpec{Param: "field", Min: 0, Max: 1, Steps: 2, Column: "period", Dt: 0.01, Record: 1})
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for field 0, got %v", err)
	}
}
