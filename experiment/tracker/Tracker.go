// Package tracker implements Trackers, which record data from each
// meta-iteration of an experiment and save it to disk after the
// experiment has finished
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"sfneuman.com/gomaml/agent"
)

// Tracker records data from meta-iteration reports and saves the
// accumulated data after the experiment has finished
type Tracker interface {
	Track(report agent.MetaReport)
	Save() error
}

// save gob-encodes data to a new file
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create data file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}

// LoadData loads the data saved by a Tracker into out, which must be a
// pointer to the saved type
func LoadData(filename string, out interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return nil
}
