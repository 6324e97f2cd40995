// Package policy implements linear stochastic policies with analytic
// derivatives. Policies are parameterized by a single flat parameter
// vector, which is always passed in explicitly: a Policy value holds
// only the fixed shape information (feature and action dimensions).
// This makes snapshotting and adapting a policy a matter of copying
// its parameter vector, with no hidden state to keep in sync, and lets
// trajectory workers share one Policy value across goroutines with
// worker-local random number sources.
//
// Beyond log-probabilities and sampling, each policy exposes the two
// second-order primitives the meta-learner needs: products of the
// Fisher information matrix with arbitrary parameter-space vectors,
// and products of the log-probability Hessian with such vectors. Both
// are computed from closed forms, never by materializing a matrix.
package policy

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
)

// Policy computes action distributions from a flat parameter vector
// and a state observation. Implementations must be stateless with
// respect to parameters: the same (params, obs) pair always yields the
// same distribution.
//
// The Add* methods accumulate scale times the named quantity into dst,
// which must have length NumParams(). Accumulation lets callers reduce
// over a batch of timesteps without allocating per step.
type Policy interface {
	// NumParams returns the length of the flat parameter vector
	NumParams() int

	// SelectAction samples an action from the policy's action
	// distribution at obs under params, drawing randomness from src
	SelectAction(params *mat.VecDense, obs mat.Vector,
		src rand.Source) *mat.VecDense

	// LogProb returns the log probability (or log density) of taking
	// action at obs under params
	LogProb(params *mat.VecDense, obs, action mat.Vector) float64

	// AddScore accumulates scale * ∇ log π(action|obs; params) into dst
	AddScore(params *mat.VecDense, obs, action mat.Vector, scale float64,
		dst *mat.VecDense)

	// KL returns the KL divergence from the action distribution at obs
	// under p to the one under q
	KL(p, q *mat.VecDense, obs mat.Vector) float64

	// AddFisherVector accumulates scale * F v into dst, where F is the
	// Fisher information matrix of the action distribution at obs
	// under params, equivalently the Hessian of KL(params || q) with
	// respect to q evaluated at q = params.
	AddFisherVector(params *mat.VecDense, obs mat.Vector, v *mat.VecDense,
		scale float64, dst *mat.VecDense)

	// AddScoreHessianVector accumulates
	// scale * (∇² log π(action|obs; params)) v into dst
	AddScoreHessianVector(params *mat.VecDense, obs, action mat.Vector,
		v *mat.VecDense, scale float64, dst *mat.VecDense)
}
