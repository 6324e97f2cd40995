package maml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"sfneuman.com/gomaml/solver"
)

// fisherOperator returns the damped Fisher-vector product of the mean
// KL divergence between pre-update and post-update policies over the
// meta-batch, as a matrix-free operator for conjugate gradient. The KL
// is a function of the meta-parameters through each task's adaptation
// map, so each task's contribution is Jᵀ F (J v): push the vector
// through the adaptation Jacobian, apply the task's Fisher matrix
// averaged over its post-update states, and pull the result back
// through the transposed Jacobian.
func (m *MAML) fisherOperator(data []*taskData) solver.Operator {
	return func(v *mat.VecDense) (*mat.VecDense, error) {
		out := mat.NewVecDense(v.Len(), nil)
		for i, d := range data {
			jv := m.jacobianVector(d, v)

			fjv := mat.NewVecDense(v.Len(), nil)
			n := float64(d.post.Timesteps())
			for _, traj := range d.post {
				for t := 0; t < traj.Len(); t++ {
					m.pol.AddFisherVector(d.adapted(), traj.Observations[t],
						jv, 1.0/n, fjv)
				}
			}

			pulled := m.jacobianTransposeVector(d, fjv)
			if !finiteVec(pulled) {
				return nil, fmt.Errorf("fisherVectorProduct: task %v: "+
					"non-finite product", i)
			}
			out.AddScaledVec(out, 1.0/float64(len(data)), pulled)
		}
		out.AddScaledVec(out, m.config.CGDamping, v)
		return out, nil
	}
}
