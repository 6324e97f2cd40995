package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
	"sfneuman.com/gomaml/initwfn"
)

const logSqrt2Pi = 0.9189385332046727 // 0.5 * ln(2π)

// GaussianLinear implements a diagonal Gaussian policy whose mean is
// linear in the state features and whose log standard deviation is a
// free, state-independent parameter per action dimension. The flat
// parameter vector holds the mean weight matrix in row-major order
// (actionDims x features) followed by the actionDims log standard
// deviations.
type GaussianLinear struct {
	features   int
	actionDims int
}

// NewGaussianLinear creates a new GaussianLinear policy
func NewGaussianLinear(features, actionDims int) (*GaussianLinear, error) {
	if features <= 0 || actionDims <= 0 {
		return nil, fmt.Errorf("newGaussianLinear: need features > 0 and "+
			"actionDims > 0, got (%v, %v)", features, actionDims)
	}
	return &GaussianLinear{
		features:   features,
		actionDims: actionDims,
	}, nil
}

// NumParams returns the length of the policy's flat parameter vector
func (g *GaussianLinear) NumParams() int {
	return g.features*g.actionDims + g.actionDims
}

// InitialParams creates a parameter vector with mean weights drawn
// from the argument weight initializer and log standard deviations of
// zero (unit initial standard deviation)
func (g *GaussianLinear) InitialParams(init *initwfn.InitWFn) *mat.VecDense {
	weights := init.InitWFn()(tensor.Float64, g.actionDims,
		g.features).([]float64)
	data := make([]float64, g.NumParams())
	copy(data, weights)
	return mat.NewVecDense(g.NumParams(), data)
}

// mean computes the action mean at obs, writing it into dst
func (g *GaussianLinear) mean(params *mat.VecDense, obs mat.Vector,
	dst []float64) {
	if params.Len() != g.NumParams() {
		panic(fmt.Sprintf("mean: parameter vector has length %v, want %v",
			params.Len(), g.NumParams()))
	}
	raw := params.RawVector().Data
	for i := 0; i < g.actionDims; i++ {
		row := raw[i*g.features : (i+1)*g.features]
		sum := 0.0
		for j := 0; j < g.features; j++ {
			sum += row[j] * obs.AtVec(j)
		}
		dst[i] = sum
	}
}

// logStd returns the slice of log standard deviation parameters
func (g *GaussianLinear) logStd(params *mat.VecDense) []float64 {
	return params.RawVector().Data[g.features*g.actionDims:]
}

// SelectAction samples an action from the policy at obs
func (g *GaussianLinear) SelectAction(params *mat.VecDense,
	obs mat.Vector, src rand.Source) *mat.VecDense {
	mean := make([]float64, g.actionDims)
	g.mean(params, obs, mean)
	logStd := g.logStd(params)

	action := make([]float64, g.actionDims)
	for i := range action {
		dist := distuv.Normal{
			Mu:    mean[i],
			Sigma: math.Exp(logStd[i]),
			Src:   src,
		}
		action[i] = dist.Rand()
	}
	return mat.NewVecDense(g.actionDims, action)
}

// LogProb returns the log density of taking action at obs
func (g *GaussianLinear) LogProb(params *mat.VecDense, obs,
	action mat.Vector) float64 {
	mean := make([]float64, g.actionDims)
	g.mean(params, obs, mean)
	logStd := g.logStd(params)

	logProb := 0.0
	for i := 0; i < g.actionDims; i++ {
		z := (action.AtVec(i) - mean[i]) / math.Exp(logStd[i])
		logProb += -0.5*z*z - logStd[i] - logSqrt2Pi
	}
	return logProb
}

// AddScore accumulates scale * ∇ log π(action|obs; params) into dst
func (g *GaussianLinear) AddScore(params *mat.VecDense, obs,
	action mat.Vector, scale float64, dst *mat.VecDense) {
	mean := make([]float64, g.actionDims)
	g.mean(params, obs, mean)
	logStd := g.logStd(params)

	out := dst.RawVector().Data
	for i := 0; i < g.actionDims; i++ {
		sigma := math.Exp(logStd[i])
		z := (action.AtVec(i) - mean[i]) / sigma

		// Mean weights: (z/σ) φ
		coef := scale * z / sigma
		for j := 0; j < g.features; j++ {
			out[i*g.features+j] += coef * obs.AtVec(j)
		}

		// Log standard deviation: z² - 1
		out[g.features*g.actionDims+i] += scale * (z*z - 1.0)
	}
}

// KL returns the KL divergence between the diagonal Gaussian action
// distributions at obs under p and under q
func (g *GaussianLinear) KL(p, q *mat.VecDense, obs mat.Vector) float64 {
	pMean := make([]float64, g.actionDims)
	qMean := make([]float64, g.actionDims)
	g.mean(p, obs, pMean)
	g.mean(q, obs, qMean)
	pLogStd := g.logStd(p)
	qLogStd := g.logStd(q)

	kl := 0.0
	for i := 0; i < g.actionDims; i++ {
		pVar := math.Exp(2 * pLogStd[i])
		qVar := math.Exp(2 * qLogStd[i])
		diff := pMean[i] - qMean[i]
		kl += qLogStd[i] - pLogStd[i] +
			(pVar+diff*diff)/(2*qVar) - 0.5
	}
	return kl
}

// AddFisherVector accumulates scale * F v into dst. For a diagonal
// Gaussian with linear mean, the Fisher matrix is block diagonal: a
// φφᵀ/σ² block per mean row and a constant 2 per log standard
// deviation.
func (g *GaussianLinear) AddFisherVector(params *mat.VecDense,
	obs mat.Vector, v *mat.VecDense, scale float64, dst *mat.VecDense) {
	logStd := g.logStd(params)
	raw := v.RawVector().Data
	out := dst.RawVector().Data

	for i := 0; i < g.actionDims; i++ {
		// u = Vᵢ φ, the directional mean change for this action dim
		row := raw[i*g.features : (i+1)*g.features]
		u := 0.0
		for j := 0; j < g.features; j++ {
			u += row[j] * obs.AtVec(j)
		}

		variance := math.Exp(2 * logStd[i])
		coef := scale * u / variance
		for j := 0; j < g.features; j++ {
			out[i*g.features+j] += coef * obs.AtVec(j)
		}

		si := g.features*g.actionDims + i
		out[si] += scale * 2.0 * raw[si]
	}
}

// AddScoreHessianVector accumulates
// scale * (∇² log π(action|obs)) v into dst, using the closed-form
// Hessian blocks of the diagonal-Gaussian log density: -φφᵀ/σ² for
// mean-mean, -2zφ/σ for mean-logStd, and -2z² for logStd-logStd.
func (g *GaussianLinear) AddScoreHessianVector(params *mat.VecDense,
	obs, action mat.Vector, v *mat.VecDense, scale float64,
	dst *mat.VecDense) {
	mean := make([]float64, g.actionDims)
	g.mean(params, obs, mean)
	logStd := g.logStd(params)
	raw := v.RawVector().Data
	out := dst.RawVector().Data

	for i := 0; i < g.actionDims; i++ {
		sigma := math.Exp(logStd[i])
		z := (action.AtVec(i) - mean[i]) / sigma

		row := raw[i*g.features : (i+1)*g.features]
		u := 0.0
		for j := 0; j < g.features; j++ {
			u += row[j] * obs.AtVec(j)
		}

		si := g.features*g.actionDims + i
		vs := raw[si]

		// Mean rows: -(u/σ²) φ - (2z/σ) vs φ
		coef := scale * (-u/(sigma*sigma) - 2.0*z/sigma*vs)
		for j := 0; j < g.features; j++ {
			out[i*g.features+j] += coef * obs.AtVec(j)
		}

		// Log standard deviation: -(2z/σ) u - 2z² vs
		out[si] += scale * (-2.0*z/sigma*u - 2.0*z*z*vs)
	}
}
