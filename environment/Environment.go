// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Task implements the reward scheme for taking actions in some
// environment. In a meta-learning setting, the Task is the part of an
// environment that varies between members of a task family: two
// members of the same family share dynamics and observation/action
// spaces but differ in their Task.
type Task interface {
	GetReward(t timestep.TimeStep, a mat.Vector) float64
	AtGoal(state mat.Matrix) bool
}

// Ender determines when episodes end. Enders modify a TimeStep in-place
// so that it becomes the last step in its episode.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment, which includes a Task to
// complete
type Environment interface {
	Task
	Starter
	Reset() timestep.TimeStep // Resets between episodes
	Step(action mat.Vector) (timestep.TimeStep, bool)
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
