// Package sampler implements trajectory collection for meta-learning.
// A BatchSampler runs a policy in task-conditioned environments across
// a fixed pool of workers and returns complete episodes; the caller
// blocks until every episode in a batch has been collected.
package sampler

import (
	"gonum.org/v1/gonum/mat"
)

// Trajectory is one complete episode of agent-environment interaction.
// All slices have equal length, one entry per action taken: entry t
// holds the observation seen at timestep t, the action selected there,
// the reward that followed, and the log probability of the action
// under the policy that collected the episode. Trajectories are
// produced once by a BatchSampler and then read-only.
type Trajectory struct {
	Observations []mat.Vector
	Actions      []*mat.VecDense
	Rewards      []float64
	LogProbs     []float64
}

// Len returns the number of transitions in the trajectory
func (t *Trajectory) Len() int { return len(t.Actions) }

// Return returns the undiscounted episodic return
func (t *Trajectory) Return() float64 {
	total := 0.0
	for _, r := range t.Rewards {
		total += r
	}
	return total
}

// append records one transition
func (t *Trajectory) append(obs mat.Vector, action *mat.VecDense,
	reward, logProb float64) {
	t.Observations = append(t.Observations, obs)
	t.Actions = append(t.Actions, action)
	t.Rewards = append(t.Rewards, reward)
	t.LogProbs = append(t.LogProbs, logProb)
}

// Batch is an ordered collection of trajectories collected under a
// single (task, parameter vector) pair
type Batch []*Trajectory

// MeanReturn returns the mean episodic return over the batch
func (b Batch) MeanReturn() float64 {
	if len(b) == 0 {
		return 0.0
	}
	total := 0.0
	for _, traj := range b {
		total += traj.Return()
	}
	return total / float64(len(b))
}

// Timesteps returns the total number of transitions in the batch
func (b Batch) Timesteps() int {
	n := 0
	for _, traj := range b {
		n += traj.Len()
	}
	return n
}
