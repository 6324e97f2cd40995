package maml

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"sfneuman.com/gomaml/environment/metatask"
	"sfneuman.com/gomaml/sampler"
)

// taskData holds everything the meta-update needs to know about one
// sampled task: the batch collected at the shared initialization with
// its advantages, the parameter vector before each inner adaptation
// step, and the batch collected at the adapted parameters with its
// advantages.
type taskData struct {
	task metatask.Task

	pre    sampler.Batch
	preAdv [][]float64

	// path[k] holds the policy parameters before inner step k. The
	// first element is the shared initialization and the last the
	// fully adapted parameters.
	path []*mat.VecDense

	post    sampler.Batch
	postAdv [][]float64
}

// adapted returns the task-specific parameters after all inner steps
func (d *taskData) adapted() *mat.VecDense {
	return d.path[len(d.path)-1]
}

// adaptPath runs the inner adaptation steps starting from params,
// using the policy gradient of the argument batch. The returned slice
// holds the parameters before each step followed by the adapted
// parameters; the first element is a copy, so params is never aliased.
func (m *MAML) adaptPath(params *mat.VecDense, batch sampler.Batch,
	adv [][]float64) []*mat.VecDense {
	path := make([]*mat.VecDense, 0, m.config.AdaptSteps+1)
	cur := mat.VecDenseCopyOf(params)
	path = append(path, cur)

	n := float64(batch.Timesteps())
	for k := 0; k < m.config.AdaptSteps; k++ {
		grad := mat.NewVecDense(m.pol.NumParams(), nil)
		for i, traj := range batch {
			for t := 0; t < traj.Len(); t++ {
				m.pol.AddScore(cur, traj.Observations[t], traj.Actions[t],
					adv[i][t]/n, grad)
			}
		}

		next := mat.NewVecDense(cur.Len(), nil)
		next.AddScaledVec(cur, m.config.FastLR, grad)
		path = append(path, next)
		cur = next
	}
	return path
}

// innerHessianVector returns H v, where H is the Hessian of the inner
// policy-gradient objective at params on the argument batch:
// the advantage-weighted mean of per-timestep log-probability Hessians.
func (m *MAML) innerHessianVector(params *mat.VecDense,
	batch sampler.Batch, adv [][]float64, v *mat.VecDense) *mat.VecDense {
	n := float64(batch.Timesteps())
	hv := mat.NewVecDense(v.Len(), nil)
	for i, traj := range batch {
		for t := 0; t < traj.Len(); t++ {
			m.pol.AddScoreHessianVector(params, traj.Observations[t],
				traj.Actions[t], v, adv[i][t]/n, hv)
		}
	}
	return hv
}

// jacobianVector returns J v, where J is the Jacobian of the task's
// adaptation map: the derivative of the adapted parameters with
// respect to the shared initialization. Each inner step contributes a
// factor I + fastLR * H_k, applied in step order. In first-order mode
// the Jacobian is taken to be the identity.
func (m *MAML) jacobianVector(d *taskData, v *mat.VecDense) *mat.VecDense {
	u := mat.VecDenseCopyOf(v)
	if m.config.FirstOrder {
		return u
	}
	for k := 0; k < m.config.AdaptSteps; k++ {
		hu := m.innerHessianVector(d.path[k], d.pre, d.preAdv, u)
		u.AddScaledVec(u, m.config.FastLR, hu)
	}
	return u
}

// jacobianTransposeVector returns Jᵀ v for the same Jacobian. The
// per-step factors are symmetric, so the transpose applies them in
// reverse step order.
func (m *MAML) jacobianTransposeVector(d *taskData,
	v *mat.VecDense) *mat.VecDense {
	u := mat.VecDenseCopyOf(v)
	if m.config.FirstOrder {
		return u
	}
	for k := m.config.AdaptSteps - 1; k >= 0; k-- {
		hu := m.innerHessianVector(d.path[k], d.pre, d.preAdv, u)
		u.AddScaledVec(u, m.config.FastLR, hu)
	}
	return u
}

// finiteVec returns whether every element of v is finite
func finiteVec(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// finiteSlices returns whether every element of every slice is finite
func finiteSlices(slices [][]float64) bool {
	for _, s := range slices {
		for _, x := range s {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}
