// Package gae implements generalized advantage estimation.
//
// Adapted from the advantage computation of
// https://github.com/openai/spinningup/blob/master/spinup/algos/tf1/vpg/vpg.py
package gae

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Estimate computes per-timestep generalized advantage estimates for a
// single complete episode. The rewards and values slices must have
// equal, non-zero length; values[t] is the baseline estimate of the
// state at timestep t, and the value of the state after the final
// transition is taken to be zero.
//
// With tau = 1 the estimates reduce to baseline-corrected discounted
// Monte-Carlo returns, and with tau = 0 to one-step TD errors.
func Estimate(rewards, values []float64, gamma, tau float64) ([]float64,
	error) {
	if len(rewards) == 0 {
		return nil, fmt.Errorf("estimate: cannot estimate advantages for " +
			"a zero-length trajectory")
	}
	if len(rewards) != len(values) {
		return nil, fmt.Errorf("estimate: rewards and values have "+
			"mismatched lengths \n\twant(%v)\n\thave(%v)", len(rewards),
			len(values))
	}

	n := len(rewards)

	// One-step TD errors, with a terminal value of 0
	deltas := mat.NewVecDense(n, nil)
	for t := 0; t < n; t++ {
		next := 0.0
		if t+1 < n {
			next = values[t+1]
		}
		deltas.SetVec(t, rewards[t]+gamma*next-values[t])
	}

	return DiscountCumSum(deltas, gamma*tau), nil
}

// EstimateBatch computes advantage estimates for a batch of episodes,
// returning one advantage slice per episode. An empty batch yields an
// empty result; any zero-length episode is an error.
func EstimateBatch(rewards, values [][]float64, gamma, tau float64) ([][]float64,
	error) {
	if len(rewards) != len(values) {
		return nil, fmt.Errorf("estimateBatch: rewards and values have "+
			"mismatched episode counts \n\twant(%v)\n\thave(%v)",
			len(rewards), len(values))
	}

	advantages := make([][]float64, len(rewards))
	for i := range rewards {
		adv, err := Estimate(rewards[i], values[i], gamma, tau)
		if err != nil {
			return nil, fmt.Errorf("estimateBatch: episode %v: %v", i, err)
		}
		advantages[i] = adv
	}
	return advantages, nil
}

// DiscountedReturns computes the discounted rewards-to-go of a single
// episode's rewards
func DiscountedReturns(rewards []float64, gamma float64) []float64 {
	return DiscountCumSum(mat.NewVecDense(len(rewards), rewards), gamma)
}

// DiscountCumSum computes the reversed, discounted cumulative sum of a
// vector: out[t] = Σ_k discount^k x[t+k]
func DiscountCumSum(x *mat.VecDense, discount float64) []float64 {
	cumSums := make([]float64, x.Len())
	running := 0.0
	for t := x.Len() - 1; t >= 0; t-- {
		running = x.AtVec(t) + discount*running
		cumSums[t] = running
	}
	return cumSums
}
