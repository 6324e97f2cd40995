// Package metatask describes families of related tasks for
// meta-learning. A task family fixes the observation and action spaces
// and the environment dynamics; individual tasks vary the reward
// scheme or dynamics parameters within the family. A meta-learner
// samples a batch of tasks from a family each iteration and builds one
// environment instance per sampled task.
package metatask

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/environment"
	"sfneuman.com/gomaml/utils/matutils"
)

// Task is a single member of a task family. A Task is an opaque
// identifier together with the family-specific parameters that
// distinguish it from its siblings (e.g. a goal position or a reward
// sign). Tasks are immutable once sampled.
type Task struct {
	Index  int
	Params *mat.VecDense
}

// String implements the fmt.Stringer interface
func (t Task) String() string {
	return fmt.Sprintf("Task %v: %v", t.Index, matutils.Format(t.Params.T()))
}

// Family describes a distribution over related tasks together with a
// way to build a concrete environment for any sampled task. All
// environments built by a Family share observation and action
// specifications.
type Family interface {
	Name() string

	// Sample draws n tasks from the family's task distribution
	Sample(n int, rng *rand.Rand) []Task

	// Make builds the environment for a sampled task. Environments
	// built from the same Task with the same seed must behave
	// identically.
	Make(t Task, seed uint64) (environment.Environment, error)

	ObservationSpec() environment.Spec
	ActionSpec() environment.Spec
}
