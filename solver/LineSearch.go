package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SearchOutcome distinguishes a successful trust-region step from an
// exhausted line search
type SearchOutcome int

const (
	// StepAccepted indicates a candidate satisfied both line-search
	// conditions
	StepAccepted SearchOutcome = iota

	// StepRejected indicates no candidate satisfied both conditions
	// and the parameters were left unchanged
	StepRejected
)

func (s SearchOutcome) String() string {
	switch s {
	case StepAccepted:
		return "StepAccepted"
	default:
		return "StepRejected"
	}
}

// LineSearch backtracks along a search direction until a candidate
// both improves the loss and keeps the divergence bound, or until
// maxSteps candidates have been rejected. Candidate i is
//
//	params - stepSize0 * backtrackRatio^i * direction
//
// and is accepted if lossFn(candidate) < lossFn(params) and
// boundFn(candidate) <= bound. When every candidate is rejected the
// returned parameters are an unchanged copy of params with outcome
// StepRejected: an exhausted search is a deliberate no-op, not an
// error.
func LineSearch(params, direction *mat.VecDense, stepSize0, bound float64,
	maxSteps int, backtrackRatio float64,
	lossFn, boundFn func(*mat.VecDense) (float64, error)) (*mat.VecDense,
	SearchOutcome, error) {
	if maxSteps <= 0 {
		return nil, StepRejected, fmt.Errorf("lineSearch: step cap must "+
			"be positive, got %v", maxSteps)
	}
	if backtrackRatio <= 0 || backtrackRatio >= 1 {
		return nil, StepRejected, fmt.Errorf("lineSearch: backtrack ratio "+
			"must be in (0, 1), got %v", backtrackRatio)
	}

	lossBefore, err := lossFn(params)
	if err != nil {
		return nil, StepRejected, fmt.Errorf("lineSearch: %v", err)
	}

	step := stepSize0
	for i := 0; i < maxSteps; i++ {
		candidate := mat.NewVecDense(params.Len(), nil)
		candidate.AddScaledVec(params, -step, direction)

		loss, err := lossFn(candidate)
		if err != nil {
			return nil, StepRejected, fmt.Errorf("lineSearch: %v", err)
		}
		divergence, err := boundFn(candidate)
		if err != nil {
			return nil, StepRejected, fmt.Errorf("lineSearch: %v", err)
		}
		if math.IsNaN(loss) || math.IsNaN(divergence) {
			return nil, StepRejected, fmt.Errorf("lineSearch: non-finite "+
				"candidate evaluation (loss %v, divergence %v)", loss,
				divergence)
		}

		if loss < lossBefore && divergence <= bound {
			return candidate, StepAccepted, nil
		}
		step *= backtrackRatio
	}

	return mat.VecDenseCopyOf(params), StepRejected, nil
}
