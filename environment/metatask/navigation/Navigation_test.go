package navigation

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/environment/metatask"
	ts "sfneuman.com/gomaml/timestep"
)

func TestNavigationGoalsWithinBounds(t *testing.T) {
	family := NewFamily(100)
	rng := rand.New(rand.NewSource(42))

	for _, task := range family.Sample(50, rng) {
		for i := 0; i < 2; i++ {
			if g := task.Params.AtVec(i); g < -GoalBound || g > GoalBound {
				t.Errorf("goal coordinate %v out of [%v, %v]", g,
					-GoalBound, GoalBound)
			}
		}
	}
}

func TestNavigationRewardIsNegativeDistance(t *testing.T) {
	family := NewFamily(100)
	task := family.Sample(1, rand.New(rand.NewSource(7)))[0]
	env, err := family.Make(task, 1)
	if err != nil {
		t.Fatal(err)
	}

	env.Reset()
	action := mat.NewVecDense(2, []float64{0.05, -0.05})
	step, _ := env.Step(action)

	dx := step.Observation.AtVec(0) - task.Params.AtVec(0)
	dy := step.Observation.AtVec(1) - task.Params.AtVec(1)
	want := -math.Sqrt(dx*dx + dy*dy)
	if math.Abs(step.Reward-want) > 1e-12 {
		t.Errorf("got reward %v, want %v", step.Reward, want)
	}
}

func TestNavigationClipsVelocity(t *testing.T) {
	family := NewFamily(100)
	task := family.Sample(1, rand.New(rand.NewSource(7)))[0]
	env, err := family.Make(task, 1)
	if err != nil {
		t.Fatal(err)
	}

	env.Reset()
	step, _ := env.Step(mat.NewVecDense(2, []float64{10.0, -10.0}))

	if step.Observation.AtVec(0) != MaxVelocity {
		t.Errorf("x position is %v, want %v", step.Observation.AtVec(0),
			MaxVelocity)
	}
	if step.Observation.AtVec(1) != -MaxVelocity {
		t.Errorf("y position is %v, want %v", step.Observation.AtVec(1),
			-MaxVelocity)
	}
}

// TestNavigationTerminatesAtGoal steers straight at the goal and
// checks that the episode ends with a terminal state rather than a
// timeout.
func TestNavigationTerminatesAtGoal(t *testing.T) {
	family := NewFamily(100)
	task := family.Sample(1, rand.New(rand.NewSource(7)))[0]
	env, err := family.Make(task, 1)
	if err != nil {
		t.Fatal(err)
	}

	step := env.Reset()
	var last bool
	for i := 0; i < 100; i++ {
		dx := task.Params.AtVec(0) - step.Observation.AtVec(0)
		dy := task.Params.AtVec(1) - step.Observation.AtVec(1)
		step, last = env.Step(mat.NewVecDense(2, []float64{dx, dy}))
		if last {
			break
		}
	}

	if !last {
		t.Fatal("episode did not end while moving straight at the goal")
	}
	if step.EndType != ts.TerminalStateReached {
		t.Errorf("episode ended with %v, want TerminalStateReached",
			step.EndType)
	}
}

func TestNavigationTimesOut(t *testing.T) {
	family := NewFamily(10)
	task := metatask.Task{Index: 0, Params: mat.NewVecDense(2,
		[]float64{0.5, 0.5})}
	env, err := family.Make(task, 1)
	if err != nil {
		t.Fatal(err)
	}

	env.Reset()

	// Move directly away from the goal so the goal radius is never
	// reached
	action := mat.NewVecDense(2, []float64{-MaxVelocity, -MaxVelocity})
	var step ts.TimeStep
	var last bool
	steps := 0
	for !last {
		step, last = env.Step(action)
		steps++
		if steps > 10 {
			t.Fatal("episode did not end at the step limit")
		}
	}

	if step.EndType != ts.Timeout {
		t.Errorf("episode ended with %v, want Timeout", step.EndType)
	}
}
