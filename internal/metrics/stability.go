package metrics

import (
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

// Stability is the fraction of observed states that stay inside a cube of
// half-width bound. A NaN or infinite component counts as an escape, which is
// how a runaway particle or a divided-out tensor shows up in a trace.
type Stability struct {
	bound   float64
	escapes int
	samples int
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, _ float64) {
	s.samples++
	for _, v := range x {
		if !(math.Abs(v) <= s.bound) {
			s.escapes++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.escapes)/float64(s.samples)
}

func (s *Stability) Reset() { s.escapes, s.samples = 0, 0 }
