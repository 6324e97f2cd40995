// Package navigation implements the 2D point-navigation task family.
// An agent starts at the origin of the plane and moves with bounded
// velocity actions; each task in the family places the goal at a
// different position sampled uniformly from a square around the
// origin. Rewards are the negative Euclidean distance to the goal, so
// a task is solved by moving directly toward its goal. Episodes end
// when the agent is within a small radius of the goal or after a step
// limit.
package navigation

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	env "sfneuman.com/gomaml/environment"
	"sfneuman.com/gomaml/environment/metatask"
	ts "sfneuman.com/gomaml/timestep"
	"sfneuman.com/gomaml/utils/floatutils"
)

const (
	// ObservationSize is the dimensionality of the position observation
	ObservationSize int = 2

	// ActionSize is the dimensionality of the velocity action
	ActionSize int = 2

	// MaxVelocity bounds each component of a velocity action
	MaxVelocity float64 = 0.1

	// GoalRadius is the distance to the goal at which an episode ends
	GoalRadius float64 = 0.01

	// GoalBound bounds each goal coordinate
	GoalBound float64 = 0.5
)

// Family implements metatask.Family for 2D point navigation
type Family struct {
	horizon int
}

// NewFamily returns a navigation task family whose episodes are cut
// off after horizon steps
func NewFamily(horizon int) *Family {
	if horizon <= 0 {
		horizon = 100
	}
	return &Family{horizon: horizon}
}

// Name returns the name of the task family
func (f *Family) Name() string { return "Navigation2D" }

// Sample draws n tasks, each with a goal position sampled uniformly
// from [-GoalBound, GoalBound]^2
func (f *Family) Sample(n int, rng *rand.Rand) []metatask.Task {
	tasks := make([]metatask.Task, n)
	for i := range tasks {
		goal := []float64{
			(rng.Float64()*2 - 1) * GoalBound,
			(rng.Float64()*2 - 1) * GoalBound,
		}
		tasks[i] = metatask.Task{Index: i, Params: mat.NewVecDense(2, goal)}
	}
	return tasks
}

// Make builds the navigation environment for a sampled task
func (f *Family) Make(t metatask.Task, seed uint64) (env.Environment, error) {
	if t.Params == nil || t.Params.Len() != 2 {
		return nil, fmt.Errorf("make: navigation task needs a 2-dimensional "+
			"goal, got %v", t.Params)
	}
	return &Navigation{
		goal:    mat.VecDenseCopyOf(t.Params),
		horizon: f.horizon,
		ender:   env.NewStepLimit(f.horizon),
	}, nil
}

// ObservationSpec returns the observation specification shared by all
// environments in the family
func (f *Family) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationSize, nil)
	low := mat.NewVecDense(ObservationSize, []float64{math.Inf(-1), math.Inf(-1)})
	high := mat.NewVecDense(ObservationSize, []float64{math.Inf(1), math.Inf(1)})
	return env.NewSpec(shape, env.Observation, low, high, env.Continuous)
}

// ActionSpec returns the action specification shared by all
// environments in the family
func (f *Family) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionSize, nil)
	low := mat.NewVecDense(ActionSize, []float64{-MaxVelocity, -MaxVelocity})
	high := mat.NewVecDense(ActionSize, []float64{MaxVelocity, MaxVelocity})
	return env.NewSpec(shape, env.Action, low, high, env.Continuous)
}

// Navigation is one member of the 2D navigation family
type Navigation struct {
	goal     *mat.VecDense
	position *mat.VecDense
	horizon  int
	ender    env.StepLimit
	lastStep ts.TimeStep
}

// Start returns the starting state, which is always the origin
func (n *Navigation) Start() mat.Vector {
	return mat.NewVecDense(ObservationSize, nil)
}

// Reset resets the environment between episodes
func (n *Navigation) Reset() ts.TimeStep {
	n.position = mat.NewVecDense(ObservationSize, nil)
	step := ts.New(ts.First, 0.0, 1.0, mat.VecDenseCopyOf(n.position), 0)
	n.lastStep = step
	return step
}

// GetReward returns the negative Euclidean distance from the position
// recorded in t to the goal
func (n *Navigation) GetReward(t ts.TimeStep, _ mat.Vector) float64 {
	dx := t.Observation.AtVec(0) - n.goal.AtVec(0)
	dy := t.Observation.AtVec(1) - n.goal.AtVec(1)
	return -math.Sqrt(dx*dx + dy*dy)
}

// AtGoal returns whether the argument state is within GoalRadius of
// the goal position
func (n *Navigation) AtGoal(state mat.Matrix) bool {
	dx := state.At(0, 0) - n.goal.AtVec(0)
	dy := state.At(1, 0) - n.goal.AtVec(1)
	return math.Sqrt(dx*dx+dy*dy) < GoalRadius
}

// Step takes one environmental step with velocity action a, returning
// the next timestep and whether the episode has ended
func (n *Navigation) Step(a mat.Vector) (ts.TimeStep, bool) {
	if a.Len() != ActionSize {
		panic(fmt.Sprintf("step: actions should have length %v, got %v",
			ActionSize, a.Len()))
	}

	for i := 0; i < ActionSize; i++ {
		v := floatutils.Clip(a.AtVec(i), -MaxVelocity, MaxVelocity)
		n.position.SetVec(i, n.position.AtVec(i)+v)
	}

	obs := mat.VecDenseCopyOf(n.position)
	step := ts.New(ts.Mid, 0.0, 1.0, obs, n.lastStep.Number+1)
	step.Reward = n.GetReward(step, a)

	if floats.Distance(obs.RawVector().Data, n.goal.RawVector().Data, 2) <
		GoalRadius {
		step.SetEnd(ts.TerminalStateReached)
	} else {
		n.ender.End(&step)
	}

	n.lastStep = step
	return step, step.Last()
}

// RewardSpec returns the reward specification of the environment
func (n *Navigation) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{math.Inf(-1)})
	high := mat.NewVecDense(1, []float64{0.0})
	return env.NewSpec(shape, env.Reward, low, high, env.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (n *Navigation) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (n *Navigation) ObservationSpec() env.Spec {
	return NewFamily(n.horizon).ObservationSpec()
}

// ActionSpec returns the action specification of the environment
func (n *Navigation) ActionSpec() env.Spec {
	return NewFamily(n.horizon).ActionSpec()
}

// String implements the fmt.Stringer interface
func (n *Navigation) String() string {
	return fmt.Sprintf("Navigation2D | Goal: (%.3f, %.3f)",
		n.goal.AtVec(0), n.goal.AtVec(1))
}
