// Package experiment implements functionality for running experiments
package experiment

import (
	"encoding/json"
	"fmt"
	"os"

	"sfneuman.com/gomaml/agent"
	"sfneuman.com/gomaml/experiment/checkpointer"
	"sfneuman.com/gomaml/experiment/tracker"
	"sfneuman.com/gomaml/utils/progressbar"
)

// Experiment outlines structs that can run experiments. Run performs
// all iterations of the experiment, sending the data generated by each
// iteration to the experiment's Trackers, and Save writes the data
// accumulated by every Tracker to disk. Save is usually called once,
// after Run returns.
type Experiment interface {
	Run() error
	Save() error

	// Register adds a Tracker to the (possibly already running)
	// experiment. Useful to track data only after a specified event.
	Register(t tracker.Tracker)
}

// Meta is an Experiment that runs a MetaLearner for a fixed number of
// meta-iterations
type Meta struct {
	learner       agent.MetaLearner
	iterations    int
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	progress      *progressbar.ManualProgressBar
}

// NewMeta creates and returns a new meta-learning experiment. The
// iterations parameter determines how many meta-iterations are run,
// and the t parameter determines what data is tracked and saved.
func NewMeta(learner agent.MetaLearner, iterations int,
	c []checkpointer.Checkpointer, t ...tracker.Tracker) (*Meta, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("newMeta: iterations must be positive, "+
			"got %v", iterations)
	}
	return &Meta{
		learner:       learner,
		iterations:    iterations,
		trackers:      t,
		checkpointers: c,
		progress:      progressbar.NewManualProgressBar(50, iterations),
	}, nil
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (m *Meta) Register(t tracker.Tracker) {
	m.trackers = append(m.trackers, t)
}

// RunIteration runs a single meta-iteration of the experiment
func (m *Meta) RunIteration() error {
	report, err := m.learner.Step()
	if err != nil {
		return fmt.Errorf("runIteration: %v", err)
	}

	for _, t := range m.trackers {
		t.Track(report)
	}
	for _, c := range m.checkpointers {
		if err := c.Checkpoint(report.Iteration); err != nil {
			return fmt.Errorf("runIteration: %v", err)
		}
	}

	m.progress.Increment()
	m.progress.Display()
	return nil
}

// Run runs the entire experiment for all meta-iterations
func (m *Meta) Run() error {
	for i := 0; i < m.iterations; i++ {
		if err := m.RunIteration(); err != nil {
			return fmt.Errorf("run: iteration %v: %v", i, err)
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (m *Meta) Save() error {
	for _, t := range m.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// WriteConfig saves a JSON description of an experiment's
// configuration alongside its data, so that saved runs remain
// interpretable later
func WriteConfig(filename string, config interface{}) error {
	data, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return fmt.Errorf("writeConfig: could not marshal config: %v", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writeConfig: could not write config: %v", err)
	}
	return nil
}
