// Package agent defines the interfaces that learning agents in this
// module satisfy.
package agent

import (
	"gonum.org/v1/gonum/mat"

	"sfneuman.com/gomaml/solver"
)

// MetaReport summarizes a single meta-iteration of a MetaLearner.
type MetaReport struct {
	// Iteration is the index of the meta-iteration the report
	// describes, starting from 0.
	Iteration int

	// MeanReturnPre is the mean undiscounted episodic return over the
	// meta-batch before task adaptation. MeanReturnPost is the same
	// quantity after adaptation.
	MeanReturnPre  float64
	MeanReturnPost float64

	// Loss is the surrogate objective evaluated at the current
	// meta-parameters. ImprovedLoss is the surrogate objective at the
	// parameters selected by the trust-region line search. When the
	// line search rejects every candidate, ImprovedLoss equals Loss.
	Loss         float64
	ImprovedLoss float64

	// KL is the mean KL divergence between the pre-update and
	// post-update policies at the accepted step.
	KL float64

	// StepSize is the step length along the natural gradient
	// direction that the line search accepted, or 0 on rejection.
	StepSize float64

	// Outcome records whether the line search accepted a candidate.
	Outcome solver.SearchOutcome
}

// MetaLearner is an agent that learns an initialization of policy
// parameters across a family of related tasks, so that a small number
// of gradient steps on a new task from the family produces a competent
// task-specific policy.
type MetaLearner interface {
	// Step runs a single meta-iteration and reports its outcome. An
	// error leaves the meta-parameters unchanged.
	Step() (MetaReport, error)

	// Params returns a copy of the current meta-parameters.
	Params() *mat.VecDense
}
