package baseline

import (
	"fmt"

	"sfneuman.com/gomaml/gae"
	"sfneuman.com/gomaml/network"
	"sfneuman.com/gomaml/sampler"
	"sfneuman.com/gomaml/solver"
)

// MLP is a state-value baseline backed by a gorgonia value network.
// Each call to Fit performs a configured number of gradient passes
// over the batch's (observation, discounted return) pairs in
// fixed-size minibatches.
type MLP struct {
	net     *network.ValueMLP
	sol     *solver.Solver
	obsSize int
	epochs  int
}

// NewMLP creates an MLP baseline. The network is fit with the
// argument solver for epochs passes over each batch given to Fit,
// using minibatches of the network's batch size.
func NewMLP(net *network.ValueMLP, sol *solver.Solver, epochs int) (*MLP,
	error) {
	if epochs <= 0 {
		return nil, fmt.Errorf("newMLP: epochs must be positive, got %v",
			epochs)
	}
	return &MLP{
		net:     net,
		sol:     sol,
		obsSize: net.Features(),
		epochs:  epochs,
	}, nil
}

// Fit fits the value network to the discounted returns of the batch
func (m *MLP) Fit(batch sampler.Batch, gamma float64) error {
	n := batch.Timesteps()
	if n == 0 {
		return fmt.Errorf("fit: cannot fit baseline to an empty batch")
	}

	obs := make([]float64, 0, n*m.obsSize)
	returns := make([]float64, 0, n)
	for _, traj := range batch {
		rets := gae.DiscountedReturns(traj.Rewards, gamma)
		for t := 0; t < traj.Len(); t++ {
			for j := 0; j < m.obsSize; j++ {
				obs = append(obs, traj.Observations[t].AtVec(j))
			}
			returns = append(returns, rets[t])
		}
	}

	b := m.net.BatchSize()
	inputs := make([]float64, b*m.obsSize)
	targets := make([]float64, b)
	for epoch := 0; epoch < m.epochs; epoch++ {
		for start := 0; start < n; start += b {
			// Wrap around the batch so every minibatch is full
			for i := 0; i < b; i++ {
				row := (start + i) % n
				copy(inputs[i*m.obsSize:(i+1)*m.obsSize],
					obs[row*m.obsSize:(row+1)*m.obsSize])
				targets[i] = returns[row]
			}

			if err := m.net.SetInput(inputs); err != nil {
				return fmt.Errorf("fit: %v", err)
			}
			if err := m.net.SetTargets(targets); err != nil {
				return fmt.Errorf("fit: %v", err)
			}
			if _, err := m.net.Run(); err != nil {
				return fmt.Errorf("fit: %v", err)
			}
			if err := m.sol.Step(m.net.Model()); err != nil {
				return fmt.Errorf("fit: could not step solver: %v", err)
			}
		}
	}
	return nil
}

// Values returns the value network's estimate for every timestep of
// the trajectory
func (m *MLP) Values(traj *sampler.Trajectory) ([]float64, error) {
	n := traj.Len()
	b := m.net.BatchSize()
	values := make([]float64, 0, n)

	inputs := make([]float64, b*m.obsSize)
	for start := 0; start < n; start += b {
		for i := 0; i < b; i++ {
			row := start + i
			if row >= n {
				row = n - 1 // pad the final minibatch
			}
			for j := 0; j < m.obsSize; j++ {
				inputs[i*m.obsSize+j] = traj.Observations[row].AtVec(j)
			}
		}

		pred, err := m.net.Predict(inputs)
		if err != nil {
			return nil, fmt.Errorf("values: %v", err)
		}
		for i := 0; i < b && start+i < n; i++ {
			values = append(values, pred[i])
		}
	}
	return values, nil
}
