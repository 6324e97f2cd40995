package tracker

import "sfneuman.com/gomaml/agent"

// MetaReturnData is the data saved by a MetaReturn tracker. Entry i of
// each slice belongs to meta-iteration i.
type MetaReturnData struct {
	// Pre holds the mean episodic return over the meta-batch before
	// task adaptation, Post the same quantity after adaptation. The
	// gap between the two is the benefit of adaptation, and the
	// trend of Post over iterations is the headline learning curve.
	Pre  []float64
	Post []float64
}

// MetaReturn tracks the mean pre-adaptation and post-adaptation
// returns of every meta-iteration in an experiment
type MetaReturn struct {
	data     MetaReturnData
	filename string
}

// NewMetaReturn creates and returns a new *MetaReturn Tracker
func NewMetaReturn(filename string) *MetaReturn {
	return &MetaReturn{filename: filename}
}

// Track records the returns of one meta-iteration
func (m *MetaReturn) Track(report agent.MetaReport) {
	m.data.Pre = append(m.data.Pre, report.MeanReturnPre)
	m.data.Post = append(m.data.Post, report.MeanReturnPost)
}

// Save saves the data tracked by the MetaReturn Tracker to disk
func (m *MetaReturn) Save() error {
	return save(m.filename, m.data)
}
