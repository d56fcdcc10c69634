// Package dynamo provides the stepping contract shared by the lab systems.
//
// Every lab component owns its own state and advances it with an explicit
// fixed timestep supplied by the host:
//
//   - [System]: Step(dt), State, Labels and Reset
//   - [Simulator]: fixed-timestep run loop with metrics and observers
//   - [Ensemble]: steps independent systems concurrently
//   - [Metric], [Observer]: per-step hooks
//
// # Example
//
//	lab := physics.NewLorentzLab(physics.DefaultParticle())
//	sim := dynamo.New(lab)
//	result, _ := sim.Run(ctx, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Systems and Simulator instances are NOT thread-safe. Distinct systems share
// no state and may be stepped from different goroutines.
package dynamo
