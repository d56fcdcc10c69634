package metrics

import (
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

// ColumnDrift records the largest deviation of one state column from a
// baseline. The baseline is either read from a source on every observation
// or taken from the first nonzero observation.
type ColumnDrift struct {
	name     string
	column   int
	base     float64
	hasBase  bool
	target   func() float64
	relative bool
	maxDrift float64
}

// NewSpeedDeviation watches the absolute distance of the speed column from
// target, e.g. the particle's stabilized speed. target is read on every
// observation so a mass change that rescales the speed moves the baseline
// with it.
func NewSpeedDeviation(labels []string, target func() float64) *ColumnDrift {
	return &ColumnDrift{
		name:   "speed_deviation",
		column: dynamo.Index(labels, "speed"),
		target: target,
	}
}

// NewMomentumDrift watches the relative change of |L| once the platform
// spins.
func NewMomentumDrift(labels []string) *ColumnDrift {
	return &ColumnDrift{
		name:     "momentum_drift",
		column:   dynamo.Index(labels, "l_mag"),
		relative: true,
	}
}

func (c *ColumnDrift) Name() string { return c.name }

func (c *ColumnDrift) Observe(x dynamo.State, _ float64) {
	if c.column < 0 || c.column >= len(x) {
		return
	}
	v := x[c.column]

	if c.target != nil {
		c.base, c.hasBase = c.target(), true
	} else if !c.hasBase {
		if v != 0 {
			c.base, c.hasBase = v, true
		}
		return
	}

	d := math.Abs(v - c.base)
	if c.relative && c.base != 0 {
		d /= math.Abs(c.base)
	}
	c.maxDrift = math.Max(c.maxDrift, d)
}

func (c *ColumnDrift) Value() float64 { return c.maxDrift }

func (c *ColumnDrift) Reset() {
	c.maxDrift = 0
	c.base, c.hasBase = 0, false
}

// Peak records the largest absolute value of one state column, e.g. the
// platform tilt.
type Peak struct {
	name   string
	column int
	peak   float64
}

func NewPeak(labels []string, column string) *Peak {
	return &Peak{name: "peak_" + column, column: dynamo.Index(labels, column)}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, _ float64) {
	if p.column >= 0 && p.column < len(x) {
		p.peak = math.Max(p.peak, math.Abs(x[p.column]))
	}
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }
