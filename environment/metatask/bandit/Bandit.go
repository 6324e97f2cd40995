// Package bandit implements a minimal discrete-action task family for
// meta-learning. Every environment in the family has a single,
// constant observation and two actions. Tasks differ only in the sign
// of the reward: under a positive task, action 0 earns +1 and action 1
// earns -1; a negative task swaps the two. A policy initialization
// that meta-learns this family can specialize to either sign from a
// handful of episodes.
package bandit

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	env "sfneuman.com/gomaml/environment"
	"sfneuman.com/gomaml/environment/metatask"
	ts "sfneuman.com/gomaml/timestep"
)

const (
	// NumActions is the number of actions in every bandit environment
	NumActions int = 2

	// ObservationSize is the length of the constant observation vector
	ObservationSize int = 1
)

// Family implements metatask.Family for the sign-flip bandit
type Family struct {
	horizon int
}

// NewFamily returns a bandit task family whose episodes last horizon
// steps
func NewFamily(horizon int) *Family {
	if horizon <= 0 {
		horizon = 10
	}
	return &Family{horizon: horizon}
}

// Name returns the name of the task family
func (f *Family) Name() string { return "Bandit" }

// Sample draws n tasks, each with a uniformly random reward sign
func (f *Family) Sample(n int, rng *rand.Rand) []metatask.Task {
	tasks := make([]metatask.Task, n)
	for i := range tasks {
		sign := 1.0
		if rng.Float64() < 0.5 {
			sign = -1.0
		}
		tasks[i] = metatask.Task{
			Index:  i,
			Params: mat.NewVecDense(1, []float64{sign}),
		}
	}
	return tasks
}

// Make builds the bandit environment for a sampled task
func (f *Family) Make(t metatask.Task, seed uint64) (env.Environment, error) {
	if t.Params == nil || t.Params.Len() != 1 {
		return nil, fmt.Errorf("make: bandit task needs a 1-dimensional "+
			"parameter vector, got %v", t.Params)
	}
	sign := t.Params.AtVec(0)
	if sign != 1.0 && sign != -1.0 {
		return nil, fmt.Errorf("make: bandit reward sign must be ±1, got %v",
			sign)
	}
	return &Bandit{
		sign:    sign,
		horizon: f.horizon,
		ender:   env.NewStepLimit(f.horizon),
	}, nil
}

// ObservationSpec returns the observation specification shared by all
// environments in the family
func (f *Family) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationSize, nil)
	bounds := mat.NewVecDense(ObservationSize, []float64{1.0})
	return env.NewSpec(shape, env.Observation, bounds, bounds, env.Continuous)
}

// ActionSpec returns the action specification shared by all
// environments in the family
func (f *Family) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{0.0})
	high := mat.NewVecDense(1, []float64{float64(NumActions - 1)})
	return env.NewSpec(shape, env.Action, low, high, env.Discrete)
}

// Bandit is one member of the sign-flip bandit family
type Bandit struct {
	sign     float64
	horizon  int
	ender    env.StepLimit
	lastStep ts.TimeStep
}

// Start returns the constant starting state
func (b *Bandit) Start() mat.Vector {
	return mat.NewVecDense(ObservationSize, []float64{1.0})
}

// Reset resets the environment between episodes
func (b *Bandit) Reset() ts.TimeStep {
	step := ts.New(ts.First, 0.0, 1.0, b.Start(), 0)
	b.lastStep = step
	return step
}

// GetReward returns the reward for taking action a
func (b *Bandit) GetReward(_ ts.TimeStep, a mat.Vector) float64 {
	if int(a.AtVec(0)) == 0 {
		return b.sign
	}
	return -b.sign
}

// AtGoal always returns false; bandit episodes end only on the step
// limit
func (b *Bandit) AtGoal(mat.Matrix) bool { return false }

// Step takes one environmental step with action a, returning the next
// timestep and whether the episode has ended
func (b *Bandit) Step(a mat.Vector) (ts.TimeStep, bool) {
	reward := b.GetReward(b.lastStep, a)
	step := ts.New(ts.Mid, reward, 1.0, b.Start(), b.lastStep.Number+1)
	b.ender.End(&step)
	b.lastStep = step
	return step, step.Last()
}

// RewardSpec returns the reward specification of the environment
func (b *Bandit) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{-1.0})
	high := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(shape, env.Reward, low, high, env.Discrete)
}

// DiscountSpec returns the discount specification of the environment
func (b *Bandit) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (b *Bandit) ObservationSpec() env.Spec {
	return NewFamily(b.horizon).ObservationSpec()
}

// ActionSpec returns the action specification of the environment
func (b *Bandit) ActionSpec() env.Spec {
	return NewFamily(b.horizon).ActionSpec()
}

// String implements the fmt.Stringer interface
func (b *Bandit) String() string {
	return fmt.Sprintf("Bandit | Sign: %v", b.sign)
}
