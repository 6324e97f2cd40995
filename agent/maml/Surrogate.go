package maml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// surrogate evaluates candidate meta-parameters against the current
// meta-batch, returning the importance-weighted surrogate loss and the
// mean KL divergence from the policies the batch was collected under.
//
// Each task first re-runs its inner adaptation from the candidate on
// the stored pre-update batch, then scores the stored post-update
// batch under the re-adapted parameters with importance ratios against
// the stored log probabilities. Evaluating the current meta-parameters
// therefore reproduces the stored adapted parameters exactly, so the
// KL term is identically zero there, not merely small.
func (m *MAML) surrogate(data []*taskData, candidate *mat.VecDense) (loss,
	kl float64, err error) {
	for i, d := range data {
		path := m.adaptPath(candidate, d.pre, d.preAdv)
		adapted := path[len(path)-1]

		var taskLoss, taskKL float64
		for j, traj := range d.post {
			for t := 0; t < traj.Len(); t++ {
				obs := traj.Observations[t]
				logProb := m.pol.LogProb(adapted, obs, traj.Actions[t])
				ratio := math.Exp(logProb - traj.LogProbs[t])
				taskLoss -= ratio * d.postAdv[j][t]
				taskKL += m.pol.KL(d.adapted(), adapted, obs)
			}
		}
		n := float64(d.post.Timesteps())
		taskLoss /= n
		taskKL /= n

		if math.IsNaN(taskLoss) || math.IsInf(taskLoss, 0) ||
			math.IsNaN(taskKL) || math.IsInf(taskKL, 0) {
			return 0, 0, fmt.Errorf("surrogate: task %v: non-finite "+
				"objective (loss: %v, kl: %v)", i, taskLoss, taskKL)
		}
		loss += taskLoss / float64(len(data))
		kl += taskKL / float64(len(data))
	}
	return loss, kl, nil
}

// surrogateGradient returns the gradient of the surrogate loss with
// respect to the current meta-parameters. At the current parameters
// every importance ratio is one, so each task's gradient at its
// adapted parameters is the negated advantage-weighted mean score over
// its post-update batch, pulled back through the adaptation map by the
// transposed Jacobian.
func (m *MAML) surrogateGradient(data []*taskData) (*mat.VecDense, error) {
	grad := mat.NewVecDense(m.pol.NumParams(), nil)
	for i, d := range data {
		taskGrad := mat.NewVecDense(m.pol.NumParams(), nil)
		n := float64(d.post.Timesteps())
		for j, traj := range d.post {
			for t := 0; t < traj.Len(); t++ {
				m.pol.AddScore(d.adapted(), traj.Observations[t],
					traj.Actions[t], -d.postAdv[j][t]/n, taskGrad)
			}
		}

		pulled := m.jacobianTransposeVector(d, taskGrad)
		if !finiteVec(pulled) {
			return nil, fmt.Errorf("surrogateGradient: task %v: "+
				"non-finite gradient", i)
		}
		grad.AddScaledVec(grad, 1.0/float64(len(data)), pulled)
	}
	return grad, nil
}

// surrogateEval memoizes the most recent surrogate evaluation. The
// line search probes the loss and the KL bound of each candidate with
// two separate closures over one shared *mat.VecDense, so caching by
// pointer identity halves the number of full surrogate evaluations.
type surrogateEval struct {
	m    *MAML
	data []*taskData

	last     *mat.VecDense
	loss, kl float64
}

func (e *surrogateEval) eval(p *mat.VecDense) error {
	if p == e.last {
		return nil
	}
	loss, kl, err := e.m.surrogate(e.data, p)
	if err != nil {
		return err
	}
	e.last, e.loss, e.kl = p, loss, kl
	return nil
}

func (e *surrogateEval) lossFn(p *mat.VecDense) (float64, error) {
	if err := e.eval(p); err != nil {
		return 0, err
	}
	return e.loss, nil
}

func (e *surrogateEval) klFn(p *mat.VecDense) (float64, error) {
	if err := e.eval(p); err != nil {
		return 0, err
	}
	return e.kl, nil
}
