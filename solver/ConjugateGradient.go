package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Operator applies a symmetric positive-definite linear operator to a
// parameter-space vector without ever materializing its matrix
type Operator func(v *mat.VecDense) (*mat.VecDense, error)

// ConjugateGradient solves apply(x) = b for x with the conjugate
// gradient method, starting from x = 0. The iteration stops early
// when the squared residual norm falls below residualTol, or after
// maxIters iterations, whichever comes first; hitting the iteration
// cap is not an error, and the best available approximation is
// returned. A zero right-hand side yields the zero vector.
//
// Algorithm taken from
// https://en.wikipedia.org/wiki/Conjugate_gradient_method#The_resulting_algorithm.
func ConjugateGradient(apply Operator, b *mat.VecDense, maxIters int,
	residualTol float64) (*mat.VecDense, error) {
	if maxIters <= 0 {
		return nil, fmt.Errorf("conjugateGradient: iteration cap must be "+
			"positive, got %v", maxIters)
	}

	// x = 0
	x := mat.NewVecDense(b.Len(), nil)

	// r = b - Ax = b
	residual := mat.VecDenseCopyOf(b)

	// p = r
	proj := mat.VecDenseCopyOf(b)

	residualMag := mat.Dot(residual, residual)

	for i := 0; i < maxIters; i++ {
		if residualMag <= residualTol {
			break
		}

		// A*p
		appliedProj, err := apply(proj)
		if err != nil {
			return nil, fmt.Errorf("conjugateGradient: could not apply "+
				"operator: %v", err)
		}

		// (r dot r) / (p dot A*p)
		curvature := mat.Dot(proj, appliedProj)
		if curvature == 0 {
			break
		}
		alpha := residualMag / curvature
		if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
			return nil, fmt.Errorf("conjugateGradient: non-finite step "+
				"size at iteration %v", i)
		}

		// x = x + alpha*p
		x.AddScaledVec(x, alpha, proj)

		// r = r - alpha*A*p
		residual.AddScaledVec(residual, -alpha, appliedProj)

		// (newR dot newR) / (r dot r)
		newResidualMag := mat.Dot(residual, residual)
		beta := newResidualMag / residualMag
		residualMag = newResidualMag

		// p = r + beta*p
		proj.AddScaledVec(residual, beta, proj)
	}

	return x, nil
}
