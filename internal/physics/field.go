package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physlab/internal/dynamo"
)

const (
	// FieldSoftening is added to the squared distance so the field stays
	// finite at a source charge.
	FieldSoftening = 0.01

	// MinFieldMagnitude is the weakest field a grid sample keeps.
	MinFieldMagnitude = 0.001
)

// PointCharge is a fixed field source.
type PointCharge struct {
	Position mgl64.Vec3
	Charge   float64
}

// FieldAt is the softened inverse-square field of c at p.
func (c PointCharge) FieldAt(p mgl64.Vec3) mgl64.Vec3 {
	dir := p.Sub(c.Position)
	d2 := dir.LenSqr() + FieldSoftening
	return normalizeOrZero(dir).Mul(c.Charge / d2)
}

// FieldAt superposes the fields of all charges at p.
func FieldAt(p mgl64.Vec3, charges []PointCharge) mgl64.Vec3 {
	var total mgl64.Vec3
	for _, c := range charges {
		total = total.Add(c.FieldAt(p))
	}
	return total
}

// FieldSource evaluates an electric field at a point.
type FieldSource interface {
	FieldAt(p mgl64.Vec3) mgl64.Vec3
}

// ChargeSet is a fixed collection of point charges.
type ChargeSet []PointCharge

func (cs ChargeSet) FieldAt(p mgl64.Vec3) mgl64.Vec3 { return FieldAt(p, cs) }

// UniformField is the same vector everywhere.
type UniformField mgl64.Vec3

func (u UniformField) FieldAt(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3(u) }

// GridSpec is a square sampling grid in the plane z = Z, spanning
// [-HalfSize, HalfSize] on X and Y.
type GridSpec struct {
	HalfSize float64
	Step     float64
	Z        float64
}

func DefaultGrid() GridSpec {
	return GridSpec{HalfSize: 20, Step: 1, Z: 0}
}

// Points is the number of samples along one axis.
func (g GridSpec) Points() int {
	if g.Step <= 0 || g.HalfSize < 0 {
		return 0
	}
	return int(math.Floor(2*g.HalfSize/g.Step+1e-9)) + 1
}

type FieldSample struct {
	Point     mgl64.Vec3
	Field     mgl64.Vec3
	Direction mgl64.Vec3
	Magnitude float64
}

// SampleGrid evaluates src over the grid, row by row from -HalfSize, and
// keeps samples stronger than MinFieldMagnitude.
func SampleGrid(src FieldSource, g GridSpec) []FieldSample {
	n := g.Points()
	if n == 0 {
		return nil
	}

	all := make([]FieldSample, n*n)
	keep := make([]bool, n*n)

	dynamo.ParallelFor(n*n, 256, func(start, end int) {
		for k := start; k < end; k++ {
			i, j := k/n, k%n
			p := mgl64.Vec3{-g.HalfSize + float64(j)*g.Step, -g.HalfSize + float64(i)*g.Step, g.Z}
			e := src.FieldAt(p)
			mag := e.Len()
			all[k] = FieldSample{Point: p, Field: e, Direction: normalizeOrZero(e), Magnitude: mag}
			keep[k] = mag > MinFieldMagnitude
		}
	})

	out := make([]FieldSample, 0, len(all))
	for k, s := range all {
		if keep[k] {
			out = append(out, s)
		}
	}
	return out
}
