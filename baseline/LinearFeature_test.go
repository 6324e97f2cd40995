package baseline

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/sampler"
)

// constantRewardBatch builds a batch of trajectories with varying
// observations and a constant reward of c at every timestep
func constantRewardBatch(c float64, episodes, steps int) sampler.Batch {
	batch := make(sampler.Batch, episodes)
	for i := range batch {
		traj := &sampler.Trajectory{}
		for t := 0; t < steps; t++ {
			obs := mat.NewVecDense(2, []float64{
				0.1*float64(t) - 0.3*float64(i),
				0.05 * float64(i+t),
			})
			traj.Observations = append(traj.Observations, obs)
			traj.Actions = append(traj.Actions,
				mat.NewVecDense(1, []float64{0.0}))
			traj.Rewards = append(traj.Rewards, c)
			traj.LogProbs = append(traj.LogProbs, -0.5)
		}
		batch[i] = traj
	}
	return batch
}

func TestLinearFeatureUnfittedIsZero(t *testing.T) {
	base, err := NewLinearFeature(2, 1e-5)
	if err != nil {
		t.Fatal(err)
	}

	batch := constantRewardBatch(1.0, 1, 5)
	values, err := base.Values(batch[0])
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range values {
		if v != 0.0 {
			t.Errorf("timestep %v: unfitted value is %v, want 0", i, v)
		}
	}
}

// TestLinearFeatureFitsConstantReturns relies on the bias feature: a
// batch with constant rewards and gamma = 0 has constant returns that
// a linear model can represent exactly, up to the small ridge term.
func TestLinearFeatureFitsConstantReturns(t *testing.T) {
	base, err := NewLinearFeature(2, 1e-7)
	if err != nil {
		t.Fatal(err)
	}

	c := 2.5
	batch := constantRewardBatch(c, 4, 10)
	if err := base.Fit(batch, 0.0); err != nil {
		t.Fatal(err)
	}

	for _, traj := range batch {
		values, err := base.Values(traj)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range values {
			if math.Abs(v-c) > 1e-2 {
				t.Errorf("timestep %v: got value %v, want about %v", i, v, c)
			}
		}
	}
}

func TestLinearFeatureFitEmptyBatch(t *testing.T) {
	base, err := NewLinearFeature(2, 1e-5)
	if err != nil {
		t.Fatal(err)
	}
	if err := base.Fit(sampler.Batch{}, 0.99); err == nil {
		t.Error("expected an error for an empty batch")
	}
}

func TestLinearFeatureMismatchedObservation(t *testing.T) {
	base, err := NewLinearFeature(2, 1e-5)
	if err != nil {
		t.Fatal(err)
	}
	if err := base.Fit(constantRewardBatch(1.0, 2, 5), 0.99); err != nil {
		t.Fatal(err)
	}

	traj := &sampler.Trajectory{
		Observations: []mat.Vector{mat.NewVecDense(3, nil)},
		Actions:      []*mat.VecDense{mat.NewVecDense(1, nil)},
		Rewards:      []float64{0.0},
		LogProbs:     []float64{0.0},
	}
	if _, err := base.Values(traj); err == nil {
		t.Error("expected an error for a mismatched observation length")
	}
}

func TestNewLinearFeatureInvalidArguments(t *testing.T) {
	if _, err := NewLinearFeature(0, 1e-5); err == nil {
		t.Error("expected an error for a zero observation size")
	}
	if _, err := NewLinearFeature(2, 0.0); err == nil {
		t.Error("expected an error for a zero regularizer")
	}
}
