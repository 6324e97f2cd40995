// Package checkpointer implements periodic saving of learner state
// during an experiment
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Checkpointer saves learner state at chosen meta-iterations
type Checkpointer interface {
	Checkpoint(iteration int) error
}

// saveVec gob-encodes the raw data of a vector to a new file
func saveVec(filename string, v *mat.VecDense) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("saveVec: could not create checkpoint file: %v",
			err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(v.RawVector().Data); err != nil {
		return fmt.Errorf("saveVec: could not encode parameters: %v", err)
	}
	return nil
}

// LoadVec loads a vector saved by a Checkpointer
func LoadVec(filename string) (*mat.VecDense, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadVec: could not open checkpoint "+
			"file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadVec: could not decode parameters: %v",
			err)
	}
	return mat.NewVecDense(len(data), data), nil
}
