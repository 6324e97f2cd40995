package checkpointer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// nStep implements checkpointing every N meta-iterations
type nStep struct {
	interval int

	// source returns the current learner state to snapshot
	source func() *mat.VecDense

	// filename returns the name of the file to save the next snapshot
	// in. Use FilenameEnumerator for consecutively numbered files or
	// FileTimer for timestamped ones.
	filename func() string
}

// NewNStep returns a checkpointer that saves the vector returned by
// source every n meta-iterations, including iteration 0.
func NewNStep(n int, source func() *mat.VecDense,
	filename func() string) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNStep: interval must be positive, "+
			"got %v", n)
	}
	return &nStep{
		interval: n,
		source:   source,
		filename: filename,
	}, nil
}

// Checkpoint saves a snapshot when the iteration falls on the
// checkpointer's interval
func (n *nStep) Checkpoint(iteration int) error {
	if iteration%n.interval != 0 {
		return nil
	}
	return saveVec(n.filename(), n.source())
}
