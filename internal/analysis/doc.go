// Package analysis post-processes recorded lab traces:
//
//   - [PowerSpectrum] and [DominantFrequency]: FFT of a single column, e.g.
//     the particle's x coordinate, whose dominant period should match the
//     cyclotron period
//   - [CrossingPeriod]: period from threshold crossings
//   - [NewPhasePortrait]: two columns against each other, such as the x-y
//     orbit of a charged particle
//   - [Sweep]: one-parameter sweep over a configurable system
//
// Periods estimated here are compared against the analytic values:
//
//	f := analysis.DominantFrequency(xs, dt)
//	fmt.Println(1/f, physics.CyclotronPeriod(m, q, b))
package analysis
