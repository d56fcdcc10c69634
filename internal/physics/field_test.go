package physics_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/physics"
)

func TestFieldAt_SingleCharge(t *testing.T) {
	c := physics.PointCharge{Charge: 2}

	e := c.FieldAt(mgl64.Vec3{1, 0, 0})
	want := 2 / (1 + physics.FieldSoftening)
	if math.Abs(e.X()-want) > 1e-12 || e.Y() != 0 || e.Z() != 0 {
		t.Errorf("field at (1,0,0) = %v, want (%v,0,0)", e, want)
	}

	if at := c.FieldAt(mgl64.Vec3{}); at != (mgl64.Vec3{}) {
		t.Errorf("field at source = %v, want zero", at)
	}

	neg := physics.PointCharge{Charge: -1}
	if e := neg.FieldAt(mgl64.Vec3{0, 3, 0}); e.Y() >= 0 {
		t.Errorf("negative charge should point inward, got %v", e)
	}
}

func TestFieldAt_Superposition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vec := func() mgl64.Vec3 {
		return mgl64.Vec3{rng.Float64()*10 - 5, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
	}

	for i := 0; i < 100; i++ {
		c1 := physics.PointCharge{Position: vec(), Charge: rng.Float64()*4 - 2}
		c2 := physics.PointCharge{Position: vec(), Charge: rng.Float64()*4 - 2}
		p := vec()

		both := physics.FieldAt(p, []physics.PointCharge{c1, c2})
		sum := physics.FieldAt(p, []physics.PointCharge{c1}).Add(physics.FieldAt(p, []physics.PointCharge{c2}))

		if !both.ApproxEqualThreshold(sum, 1e-12) {
			t.Fatalf("superposition broken at %v: %v != %v", p, both, sum)
		}
	}
}

func TestFieldAt_Empty(t *testing.T) {
	if e := physics.FieldAt(mgl64.Vec3{1, 2, 3}, nil); e != (mgl64.Vec3{}) {
		t.Errorf("expected zero field, got %v", e)
	}
}

func TestSampleGrid(t *testing.T) {
	charges := physics.ChargeSet{{Charge: 1}}

	tests := []struct {
		name string
		grid physics.GridSpec
		want int
	}{
		{"source at a grid point is dropped", physics.GridSpec{HalfSize: 2, Step: 1}, 24},
		{"off-plane grid keeps every point", physics.GridSpec{HalfSize: 2, Step: 1, Z: 1}, 25},
		{"far field below threshold", physics.GridSpec{HalfSize: 100, Step: 100, Z: 100}, 0},
		{"degenerate step", physics.GridSpec{HalfSize: 2, Step: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := physics.SampleGrid(charges, tt.grid)
			if len(samples) != tt.want {
				t.Fatalf("got %d samples, want %d", len(samples), tt.want)
			}
			for _, s := range samples {
				if math.Abs(s.Direction.Len()-1) > 1e-9 {
					t.Errorf("direction at %v not unit: %v", s.Point, s.Direction)
				}
				if s.Magnitude <= physics.MinFieldMagnitude {
					t.Errorf("kept weak sample at %v", s.Point)
				}
			}
		})
	}
}

func TestSampleGrid_Order(t *testing.T) {
	samples := physics.SampleGrid(physics.UniformField{1, 0, 0}, physics.GridSpec{HalfSize: 1, Step: 1})
	if len(samples) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(samples))
	}
	if samples[0].Point != (mgl64.Vec3{-1, -1, 0}) || samples[1].Point != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("unexpected order: %v, %v", samples[0].Point, samples[1].Point)
	}
}

func TestProbe_RepelledByLikeCharge(t *testing.T) {
	field := physics.ChargeSet{{Charge: 1}}
	p := physics.NewProbe(field, 1, 1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})

	for i := 0; i < 100; i++ {
		p.Step(0.02)
	}

	if p.Position.X() <= 1 {
		t.Errorf("probe should move away from like charge, x=%v", p.Position.X())
	}
	if p.Energy() <= 0 {
		t.Error("probe should gain kinetic energy")
	}

	p.Reset()
	if p.Position != (mgl64.Vec3{1, 0, 0}) || p.Velocity != (mgl64.Vec3{}) {
		t.Errorf("reset failed: %v %v", p.Position, p.Velocity)
	}
}

func TestProbe_UniformField(t *testing.T) {
	p := physics.NewProbe(physics.UniformField{0, 2, 0}, 0.5, 2, mgl64.Vec3{}, mgl64.Vec3{})
	p.Step(0.1)

	// a = qE/m = 0.5 m/s², v = 0.05, x = 0.005
	if math.Abs(p.Velocity.Y()-0.05) > 1e-12 || math.Abs(p.Position.Y()-0.005) > 1e-12 {
		t.Errorf("unexpected euler step: v=%v x=%v", p.Velocity, p.Position)
	}
	if got := p.State(); len(got) != len(p.Labels()) {
		t.Errorf("state/labels mismatch: %d vs %d", len(got), len(p.Labels()))
	}
}

func TestProbe_RK4UniformField(t *testing.T) {
	p := physics.NewProbe(physics.UniformField{0, 2, 0}, 0.5, 2, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	p.Integrator = integrators.NewRK4()
	for i := 0; i < 10; i++ {
		p.Step(0.1)
	}

	// constant acceleration is integrated exactly: y = at²/2 with a = 0.5
	if math.Abs(p.Position.Y()-0.25) > 1e-9 || math.Abs(p.Position.X()-1) > 1e-9 {
		t.Errorf("unexpected position %v", p.Position)
	}
}
