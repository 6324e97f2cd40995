// Package maml implements model-agnostic meta-learning over a family
// of reinforcement learning tasks, with a trust-region meta-update.
//
// Each meta-iteration samples a batch of tasks. For every task the
// current meta-parameters collect a batch of episodes, a handful of
// vanilla policy-gradient steps adapt the parameters to the task, and
// the adapted parameters collect a second batch. The meta-update then
// improves the shared initialization with a natural gradient step on
// an importance-weighted surrogate objective, computed matrix-free by
// conjugate gradient on damped Fisher-vector products and kept inside
// a KL trust region by a backtracking line search.
//
// See Finn, Abbeel, Levine (2017) and Schulman et al. (2015).
package maml

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"sfneuman.com/gomaml/agent"
	"sfneuman.com/gomaml/baseline"
	"sfneuman.com/gomaml/environment/metatask"
	"sfneuman.com/gomaml/gae"
	"sfneuman.com/gomaml/policy"
	"sfneuman.com/gomaml/sampler"
	"sfneuman.com/gomaml/solver"
)

// MAML is a MetaLearner that maintains a shared policy parameter
// initialization across a task family. MAML is not safe for concurrent
// use: Step must not be called concurrently with itself or with
// Params.
type MAML struct {
	config  Config
	family  metatask.Family
	pol     policy.Policy
	base    baseline.Baseline
	sampler *sampler.BatchSampler

	params    *mat.VecDense
	iteration int

	rng        *rand.Rand
	seedStream uint64
}

// New creates a MAML meta-learner with the argument initial policy
// parameters. The seed fixes both task sampling and episode
// randomness: two learners constructed with equal arguments produce
// bit-identical parameter sequences.
func New(config Config, family metatask.Family, pol policy.Policy,
	base baseline.Baseline, init *mat.VecDense, seed uint64) (*MAML,
	error) {
	if err := (&config).Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if init.Len() != pol.NumParams() {
		return nil, fmt.Errorf("new: initial parameters have length %v "+
			"but policy expects %v", init.Len(), pol.NumParams())
	}
	if !finiteVec(init) {
		return nil, fmt.Errorf("new: non-finite initial parameters")
	}

	s, err := sampler.NewBatchSampler(family, pol, config.EpisodesPerTask,
		config.Workers)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &MAML{
		config:     config,
		family:     family,
		pol:        pol,
		base:       base,
		sampler:    s,
		params:     mat.VecDenseCopyOf(init),
		rng:        rand.New(rand.NewSource(seed)),
		seedStream: seed,
	}, nil
}

// Close stops the learner's sampling workers. Step must not be called
// after Close.
func (m *MAML) Close() {
	m.sampler.Close()
}

// Params returns a copy of the current meta-parameters
func (m *MAML) Params() *mat.VecDense {
	return mat.VecDenseCopyOf(m.params)
}

// nextSeed reserves a block of episode seeds for one sampling call
func (m *MAML) nextSeed() uint64 {
	s := m.seedStream
	m.seedStream += uint64(m.config.EpisodesPerTask)
	return s
}

// Step runs one meta-iteration: task sampling, per-task adaptation and
// evaluation, and the trust-region meta-update. Any error leaves the
// meta-parameters exactly as they were; an exhausted line search is
// not an error and reports an unchanged-parameter iteration.
func (m *MAML) Step() (agent.MetaReport, error) {
	report := agent.MetaReport{
		Iteration: m.iteration,
		Outcome:   solver.StepRejected,
	}

	tasks := m.family.Sample(m.config.MetaBatchSize, m.rng)
	if len(tasks) != m.config.MetaBatchSize {
		return report, fmt.Errorf("step: family sampled %v tasks, "+
			"expected %v", len(tasks), m.config.MetaBatchSize)
	}

	data := make([]*taskData, len(tasks))
	for i, task := range tasks {
		d, err := m.collectTask(task)
		if err != nil {
			return report, fmt.Errorf("step: task %v: %v", i, err)
		}
		data[i] = d
		report.MeanReturnPre += d.pre.MeanReturn() / float64(len(tasks))
		report.MeanReturnPost += d.post.MeanReturn() / float64(len(tasks))
	}

	grad, err := m.surrogateGradient(data)
	if err != nil {
		return report, fmt.Errorf("step: %v", err)
	}

	fvp := m.fisherOperator(data)
	direction, err := solver.ConjugateGradient(fvp, grad, m.config.CGIters,
		m.config.CGResidualTol)
	if err != nil {
		return report, fmt.Errorf("step: %v", err)
	}

	// Scale the initial step so the quadratic KL model of the first
	// candidate sits exactly on the trust region boundary
	fd, err := fvp(direction)
	if err != nil {
		return report, fmt.Errorf("step: %v", err)
	}
	quad := mat.Dot(direction, fd)
	stepSize0 := 0.0
	if quad > 0 {
		stepSize0 = math.Sqrt(2.0 * m.config.MaxKL / quad)
	}

	eval := &surrogateEval{m: m, data: data}
	if err := eval.eval(m.params); err != nil {
		return report, fmt.Errorf("step: %v", err)
	}
	report.Loss = eval.loss
	report.ImprovedLoss = eval.loss

	next, outcome, err := solver.LineSearch(m.params, direction, stepSize0,
		m.config.MaxKL, m.config.LSMaxSteps, m.config.LSBacktrackRatio,
		eval.lossFn, eval.klFn)
	if err != nil {
		return report, fmt.Errorf("step: %v", err)
	}

	report.Outcome = outcome
	if outcome == solver.StepAccepted {
		if err := eval.eval(next); err != nil {
			return report, fmt.Errorf("step: %v", err)
		}
		report.ImprovedLoss = eval.loss
		report.KL = eval.kl

		diff := mat.NewVecDense(next.Len(), nil)
		diff.SubVec(next, m.params)
		if dirNorm := mat.Norm(direction, 2); dirNorm > 0 {
			report.StepSize = mat.Norm(diff, 2) / dirNorm
		}

		// The update is a single pointer swap, so a failure anywhere
		// above never leaves the learner with partially new parameters
		m.params = next
	}

	m.iteration++
	report.Iteration = m.iteration - 1
	return report, nil
}

// collectTask gathers one task's contribution to the meta-batch:
// episodes at the shared initialization, the inner adaptation path,
// and episodes at the adapted parameters.
func (m *MAML) collectTask(task metatask.Task) (*taskData, error) {
	pre, err := m.sampler.Sample(task, m.params, m.nextSeed())
	if err != nil {
		return nil, err
	}
	preAdv, err := m.advantages(pre)
	if err != nil {
		return nil, err
	}

	path := m.adaptPath(m.params, pre, preAdv)
	adapted := path[len(path)-1]
	if !finiteVec(adapted) {
		return nil, fmt.Errorf("collectTask: non-finite adapted parameters")
	}

	post, err := m.sampler.Sample(task, adapted, m.nextSeed())
	if err != nil {
		return nil, err
	}
	postAdv, err := m.advantages(post)
	if err != nil {
		return nil, err
	}

	return &taskData{
		task:    task,
		pre:     pre,
		preAdv:  preAdv,
		path:    path,
		post:    post,
		postAdv: postAdv,
	}, nil
}

// advantages fits the baseline to the argument batch and returns one
// generalized advantage estimate per timestep of each trajectory,
// standardized over the batch when the configuration asks for it.
func (m *MAML) advantages(batch sampler.Batch) ([][]float64, error) {
	if err := m.base.Fit(batch, m.config.Gamma); err != nil {
		return nil, fmt.Errorf("advantages: %v", err)
	}

	rewards := make([][]float64, len(batch))
	values := make([][]float64, len(batch))
	for i, traj := range batch {
		v, err := m.base.Values(traj)
		if err != nil {
			return nil, fmt.Errorf("advantages: %v", err)
		}
		rewards[i] = traj.Rewards
		values[i] = v
	}

	adv, err := gae.EstimateBatch(rewards, values, m.config.Gamma,
		m.config.Tau)
	if err != nil {
		return nil, fmt.Errorf("advantages: %v", err)
	}
	if !finiteSlices(adv) {
		return nil, fmt.Errorf("advantages: non-finite advantage estimates")
	}

	if m.config.NormalizeAdvantages {
		normalizeAdvantages(adv)
	}
	return adv, nil
}

// normalizeAdvantages standardizes advantages in place to zero mean
// and unit variance across the whole batch
func normalizeAdvantages(adv [][]float64) {
	flat := make([]float64, 0)
	for _, a := range adv {
		flat = append(flat, a...)
	}
	mean := stat.Mean(flat, nil)
	std := stat.StdDev(flat, nil)
	if math.IsNaN(std) {
		std = 0.0
	}
	for _, a := range adv {
		for t := range a {
			a[t] = (a[t] - mean) / (std + 1e-8)
		}
	}
}
