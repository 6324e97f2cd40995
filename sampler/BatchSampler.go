package sampler

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/environment/metatask"
	"sfneuman.com/gomaml/policy"
)

// BatchSampler collects batches of episodes from task-conditioned
// environments using a fixed pool of worker goroutines. Workers share
// one (stateless) Policy value; each episode job carries its own
// deterministically derived random source, so the trajectories
// returned by Sample depend only on the arguments, never on worker
// scheduling.
type BatchSampler struct {
	family   metatask.Family
	pol      policy.Policy
	episodes int

	jobs chan *episodeJob
	wg   sync.WaitGroup
}

type episodeJob struct {
	task   metatask.Task
	params *mat.VecDense
	seed   uint64

	// Result slot; the index into the batch is fixed when the job is
	// submitted so that collection order cannot depend on scheduling.
	traj *Trajectory
	err  error
	done *sync.WaitGroup
}

// NewBatchSampler creates a BatchSampler with the argument number of
// worker goroutines, each of which runs at most one environment
// instance at a time. Every call to Sample collects the configured
// number of complete episodes for one task.
func NewBatchSampler(family metatask.Family, pol policy.Policy, episodes,
	workers int) (*BatchSampler, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("newBatchSampler: episodes per batch must "+
			"be positive, got %v", episodes)
	}
	if workers <= 0 {
		return nil, fmt.Errorf("newBatchSampler: worker count must be "+
			"positive, got %v", workers)
	}

	s := &BatchSampler{
		family:   family,
		pol:      pol,
		episodes: episodes,
		jobs:     make(chan *episodeJob),
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.work()
	}
	return s, nil
}

// Close stops the worker pool. Sample must not be called after Close.
func (s *BatchSampler) Close() {
	close(s.jobs)
	s.wg.Wait()
}

// Sample collects one batch of complete episodes by running the policy
// with the argument parameters on the argument task. The call blocks
// until every episode in the batch has finished; if any episode fails,
// the whole batch is discarded and the first error is returned.
func (s *BatchSampler) Sample(task metatask.Task, params *mat.VecDense,
	seed uint64) (Batch, error) {
	batch := make(Batch, s.episodes)
	jobs := make([]*episodeJob, s.episodes)

	var done sync.WaitGroup
	done.Add(s.episodes)
	for i := 0; i < s.episodes; i++ {
		jobs[i] = &episodeJob{
			task:   task,
			params: params,
			seed:   seed + uint64(i),
			done:   &done,
		}
		s.jobs <- jobs[i]
	}

	// Barrier: no partial batches are ever returned
	done.Wait()

	for i, job := range jobs {
		if job.err != nil {
			return nil, fmt.Errorf("sample: episode %v: %v", i, job.err)
		}
		batch[i] = job.traj
	}
	return batch, nil
}

func (s *BatchSampler) work() {
	defer s.wg.Done()
	for job := range s.jobs {
		job.traj, job.err = s.runEpisode(job)
		job.done.Done()
	}
}

// runEpisode runs the policy in a fresh environment for one complete
// episode
func (s *BatchSampler) runEpisode(job *episodeJob) (*Trajectory, error) {
	env, err := s.family.Make(job.task, job.seed)
	if err != nil {
		return nil, fmt.Errorf("runEpisode: could not create "+
			"environment: %v", err)
	}
	src := rand.NewSource(job.seed)

	traj := &Trajectory{}
	step := env.Reset()
	for !step.Last() {
		action := s.pol.SelectAction(job.params, step.Observation, src)
		logProb := s.pol.LogProb(job.params, step.Observation, action)

		next, _ := env.Step(action)
		if math.IsNaN(next.Reward) || math.IsInf(next.Reward, 0) {
			return nil, fmt.Errorf("runEpisode: environment produced "+
				"non-finite reward %v at step %v", next.Reward, next.Number)
		}

		traj.append(step.Observation, action, next.Reward, logProb)
		step = next
	}

	if traj.Len() == 0 {
		return nil, fmt.Errorf("runEpisode: environment produced a " +
			"zero-length episode")
	}
	return traj, nil
}
