package baseline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/gae"
	"sfneuman.com/gomaml/sampler"
)

// Number of times the ridge regularizer is escalated before a fit is
// abandoned
const maxFitAttempts = 5

// LinearFeature is a state-value baseline that is linear in a fixed
// feature expansion of the observation and the timestep: the
// observation itself, its elementwise square, and a cubic polynomial
// in the scaled timestep t/100, plus a bias. The feature weights are
// fit by regularized least squares, escalating the regularizer when
// the normal equations are ill-conditioned.
type LinearFeature struct {
	obsSize int
	reg     float64
	weights *mat.VecDense
}

// NewLinearFeature creates a LinearFeature baseline for observations
// with obsSize features, using reg as the initial ridge regularizer
func NewLinearFeature(obsSize int, reg float64) (*LinearFeature, error) {
	if obsSize <= 0 {
		return nil, fmt.Errorf("newLinearFeature: observation size must "+
			"be positive, got %v", obsSize)
	}
	if reg <= 0 {
		return nil, fmt.Errorf("newLinearFeature: regularizer must be "+
			"positive, got %v", reg)
	}
	return &LinearFeature{obsSize: obsSize, reg: reg}, nil
}

// featureSize returns the length of the feature expansion
func (l *LinearFeature) featureSize() int {
	return 2*l.obsSize + 4
}

// features computes the feature expansion of an observation at
// timestep t, writing it into dst
func (l *LinearFeature) features(obs mat.Vector, t int, dst []float64) {
	for i := 0; i < l.obsSize; i++ {
		o := obs.AtVec(i)
		dst[i] = o
		dst[l.obsSize+i] = o * o
	}
	scaled := float64(t) / 100.0
	dst[2*l.obsSize] = scaled
	dst[2*l.obsSize+1] = scaled * scaled
	dst[2*l.obsSize+2] = scaled * scaled * scaled
	dst[2*l.obsSize+3] = 1.0
}

// Fit fits the baseline weights to the discounted returns of the
// batch by regularized least squares
func (l *LinearFeature) Fit(batch sampler.Batch, gamma float64) error {
	n := batch.Timesteps()
	if n == 0 {
		return fmt.Errorf("fit: cannot fit baseline to an empty batch")
	}
	k := l.featureSize()

	features := mat.NewDense(n, k, nil)
	returns := mat.NewVecDense(n, nil)
	row := 0
	for _, traj := range batch {
		rets := gae.DiscountedReturns(traj.Rewards, gamma)
		for t := 0; t < traj.Len(); t++ {
			l.features(traj.Observations[t], t, features.RawRowView(row))
			returns.SetVec(row, rets[t])
			row++
		}
	}

	// Normal equations XᵀX w = Xᵀy with an escalating ridge term
	var gram mat.Dense
	gram.Mul(features.T(), features)
	var target mat.VecDense
	target.MulVec(features.T(), returns)

	reg := l.reg
	for attempt := 0; attempt < maxFitAttempts; attempt++ {
		regularized := mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				v := gram.At(i, j)
				if i == j {
					v += reg
				}
				regularized.SetSym(i, j, v)
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(regularized); ok {
			weights := mat.NewVecDense(k, nil)
			if err := chol.SolveVecTo(weights, &target); err == nil {
				l.weights = weights
				return nil
			}
		}
		reg *= 10.0
	}

	return fmt.Errorf("fit: could not solve for baseline weights with "+
		"regularizer up to %v", reg)
}

// Values returns the fitted value estimate for every timestep of the
// trajectory. An unfitted baseline estimates every state's value as 0.
func (l *LinearFeature) Values(traj *sampler.Trajectory) ([]float64, error) {
	values := make([]float64, traj.Len())
	if l.weights == nil {
		return values, nil
	}

	feature := make([]float64, l.featureSize())
	for t := 0; t < traj.Len(); t++ {
		if traj.Observations[t].Len() != l.obsSize {
			return nil, fmt.Errorf("values: observation %v has length %v, "+
				"want %v", t, traj.Observations[t].Len(), l.obsSize)
		}
		l.features(traj.Observations[t], t, feature)
		values[t] = mat.Dot(l.weights, mat.NewVecDense(len(feature), feature))
	}
	return values, nil
}
