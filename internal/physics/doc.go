// Package physics holds the lab simulations. Each one owns its state and
// implements [dynamo.System]:
//
//   - [Assembly]: spinning platform with movable point masses; angular
//     momentum is conserved while the inertia tensor changes
//   - [LorentzLab]: charged particle under q(E + v×B) with optional speed
//     renormalization
//   - [Probe]: test charge driven by the field of fixed [PointCharge]s
//
// [FieldAt] and [SampleGrid] evaluate superposed electrostatic fields without
// any mutable state.
//
// # Edge cases
//
// Numeric corner cases are substituted, not reported: a non-positive tensor
// component yields zero angular velocity on that axis, a vanishing charge or
// field gives an infinite cyclotron radius and a zero period, and radial
// moves are clamped to [MinRadius, MaxRadius].
package physics
