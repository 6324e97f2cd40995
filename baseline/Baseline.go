// Package baseline implements state-value baselines for advantage
// estimation. A baseline is fit, per task, to the discounted returns
// observed in a batch of trajectories, and then queried for the value
// of every state a trajectory visited.
package baseline

import "sfneuman.com/gomaml/sampler"

// Baseline estimates state values for variance reduction
type Baseline interface {
	// Fit fits the baseline to the discounted returns of the argument
	// batch
	Fit(batch sampler.Batch, gamma float64) error

	// Values returns one value estimate per timestep of the argument
	// trajectory
	Values(traj *sampler.Trajectory) ([]float64, error)
}
