package tracker

import (
	"sfneuman.com/gomaml/agent"
	"sfneuman.com/gomaml/solver"
)

// TrustRegionData is the data saved by a TrustRegion tracker. Entry i
// of each slice belongs to meta-iteration i.
type TrustRegionData struct {
	Loss         []float64
	ImprovedLoss []float64
	KL           []float64
	StepSize     []float64
	Accepted     []bool
}

// TrustRegion tracks the surrogate objective and trust-region
// diagnostics of every meta-iteration in an experiment. A long run of
// rejected steps usually means the trust region is too small for the
// noise in the surrogate, or the policy has converged.
type TrustRegion struct {
	data     TrustRegionData
	filename string
}

// NewTrustRegion creates and returns a new *TrustRegion Tracker
func NewTrustRegion(filename string) *TrustRegion {
	return &TrustRegion{filename: filename}
}

// Track records the diagnostics of one meta-iteration
func (tr *TrustRegion) Track(report agent.MetaReport) {
	tr.data.Loss = append(tr.data.Loss, report.Loss)
	tr.data.ImprovedLoss = append(tr.data.ImprovedLoss, report.ImprovedLoss)
	tr.data.KL = append(tr.data.KL, report.KL)
	tr.data.StepSize = append(tr.data.StepSize, report.StepSize)
	tr.data.Accepted = append(tr.data.Accepted,
		report.Outcome == solver.StepAccepted)
}

// Save saves the data tracked by the TrustRegion Tracker to disk
func (tr *TrustRegion) Save() error {
	return save(tr.filename, tr.data)
}
