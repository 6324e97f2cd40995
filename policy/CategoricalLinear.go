package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
	"sfneuman.com/gomaml/initwfn"
)

// CategoricalLinear implements a softmax policy over discrete actions
// with action preferences that are linear in the state features. The
// parameter vector holds the preference weight matrix in row-major
// order: entry a*features+j weights feature j for action a.
type CategoricalLinear struct {
	features   int
	numActions int
}

// NewCategoricalLinear creates a new CategoricalLinear policy for
// states with the argument number of features and the argument number
// of actions
func NewCategoricalLinear(features, numActions int) (*CategoricalLinear,
	error) {
	if features <= 0 || numActions <= 1 {
		return nil, fmt.Errorf("newCategoricalLinear: need features > 0 "+
			"and numActions > 1, got (%v, %v)", features, numActions)
	}
	return &CategoricalLinear{
		features:   features,
		numActions: numActions,
	}, nil
}

// NumParams returns the length of the policy's flat parameter vector
func (c *CategoricalLinear) NumParams() int {
	return c.features * c.numActions
}

// InitialParams creates a parameter vector with preference weights
// drawn from the argument weight initializer
func (c *CategoricalLinear) InitialParams(init *initwfn.InitWFn) *mat.VecDense {
	weights := init.InitWFn()(tensor.Float64, c.numActions,
		c.features).([]float64)
	return mat.NewVecDense(c.NumParams(), weights)
}

// logits computes the action preferences at obs, writing them into dst
func (c *CategoricalLinear) logits(params *mat.VecDense, obs mat.Vector,
	dst []float64) {
	if params.Len() != c.NumParams() {
		panic(fmt.Sprintf("logits: parameter vector has length %v, want %v",
			params.Len(), c.NumParams()))
	}
	raw := params.RawVector().Data
	for a := 0; a < c.numActions; a++ {
		row := raw[a*c.features : (a+1)*c.features]
		sum := 0.0
		for j := 0; j < c.features; j++ {
			sum += row[j] * obs.AtVec(j)
		}
		dst[a] = sum
	}
}

// probs computes the softmax action distribution at obs, writing it
// into dst and returning the log normalizer
func (c *CategoricalLinear) probs(params *mat.VecDense, obs mat.Vector,
	dst []float64) float64 {
	c.logits(params, obs, dst)
	lse := floats.LogSumExp(dst)
	for a := range dst {
		dst[a] = math.Exp(dst[a] - lse)
	}
	return lse
}

// SelectAction samples an action from the policy at obs
func (c *CategoricalLinear) SelectAction(params *mat.VecDense,
	obs mat.Vector, src rand.Source) *mat.VecDense {
	probs := make([]float64, c.numActions)
	c.probs(params, obs, probs)

	dist := distuv.NewCategorical(probs, src)
	action := dist.Rand()
	return mat.NewVecDense(1, []float64{action})
}

// LogProb returns the log probability of taking action at obs
func (c *CategoricalLinear) LogProb(params *mat.VecDense, obs,
	action mat.Vector) float64 {
	logits := make([]float64, c.numActions)
	c.logits(params, obs, logits)
	lse := floats.LogSumExp(logits)
	return logits[c.actionIndex(action)] - lse
}

// AddScore accumulates scale * ∇ log π(action|obs; params) into dst
func (c *CategoricalLinear) AddScore(params *mat.VecDense, obs,
	action mat.Vector, scale float64, dst *mat.VecDense) {
	probs := make([]float64, c.numActions)
	c.probs(params, obs, probs)
	idx := c.actionIndex(action)

	out := dst.RawVector().Data
	for a := 0; a < c.numActions; a++ {
		coef := -probs[a]
		if a == idx {
			coef++
		}
		coef *= scale
		for j := 0; j < c.features; j++ {
			out[a*c.features+j] += coef * obs.AtVec(j)
		}
	}
}

// KL returns the KL divergence between the action distributions at obs
// under p and under q
func (c *CategoricalLinear) KL(p, q *mat.VecDense, obs mat.Vector) float64 {
	pLogits := make([]float64, c.numActions)
	qLogits := make([]float64, c.numActions)
	c.logits(p, obs, pLogits)
	c.logits(q, obs, qLogits)
	pLse := floats.LogSumExp(pLogits)
	qLse := floats.LogSumExp(qLogits)

	kl := 0.0
	for a := 0; a < c.numActions; a++ {
		pLog := pLogits[a] - pLse
		qLog := qLogits[a] - qLse
		kl += math.Exp(pLog) * (pLog - qLog)
	}
	return kl
}

// AddFisherVector accumulates scale * F v into dst, where F is the
// Fisher information matrix of the softmax distribution at obs. For a
// linear softmax policy, F v = Φᵀ (diag(π) - π πᵀ) Φ v, computed row
// by row without forming F.
func (c *CategoricalLinear) AddFisherVector(params *mat.VecDense,
	obs mat.Vector, v *mat.VecDense, scale float64, dst *mat.VecDense) {
	c.addCurvatureVector(params, obs, v, scale, dst)
}

// AddScoreHessianVector accumulates
// scale * (∇² log π(action|obs)) v into dst. For a linear softmax
// policy the log-probability Hessian is the negative Fisher matrix and
// does not depend on the action taken.
func (c *CategoricalLinear) AddScoreHessianVector(params *mat.VecDense,
	obs, _ mat.Vector, v *mat.VecDense, scale float64, dst *mat.VecDense) {
	c.addCurvatureVector(params, obs, v, -scale, dst)
}

func (c *CategoricalLinear) addCurvatureVector(params *mat.VecDense,
	obs mat.Vector, v *mat.VecDense, scale float64, dst *mat.VecDense) {
	probs := make([]float64, c.numActions)
	c.probs(params, obs, probs)

	// Directional preference change u = V φ for the direction matrix V
	raw := v.RawVector().Data
	u := make([]float64, c.numActions)
	for a := 0; a < c.numActions; a++ {
		row := raw[a*c.features : (a+1)*c.features]
		sum := 0.0
		for j := 0; j < c.features; j++ {
			sum += row[j] * obs.AtVec(j)
		}
		u[a] = sum
	}

	mean := 0.0
	for a := 0; a < c.numActions; a++ {
		mean += probs[a] * u[a]
	}

	out := dst.RawVector().Data
	for a := 0; a < c.numActions; a++ {
		coef := scale * probs[a] * (u[a] - mean)
		for j := 0; j < c.features; j++ {
			out[a*c.features+j] += coef * obs.AtVec(j)
		}
	}
}

// actionIndex converts an action vector to a discrete action index
func (c *CategoricalLinear) actionIndex(action mat.Vector) int {
	idx := int(action.AtVec(0))
	if idx < 0 || idx >= c.numActions {
		panic(fmt.Sprintf("actionIndex: action %v out of range [0, %v)",
			idx, c.numActions))
	}
	return idx
}
