package tracker

import (
	"path/filepath"
	"testing"

	"sfneuman.com/gomaml/agent"
	"sfneuman.com/gomaml/solver"
)

func TestMetaReturnRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	tr := NewMetaReturn(filename)

	reports := []agent.MetaReport{
		{Iteration: 0, MeanReturnPre: -5.0, MeanReturnPost: -2.0},
		{Iteration: 1, MeanReturnPre: -4.0, MeanReturnPost: -1.0},
	}
	for _, r := range reports {
		tr.Track(r)
	}
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}

	var data MetaReturnData
	if err := LoadData(filename, &data); err != nil {
		t.Fatal(err)
	}

	if len(data.Pre) != 2 || len(data.Post) != 2 {
		t.Fatalf("got %v pre and %v post entries, want 2 and 2",
			len(data.Pre), len(data.Post))
	}
	for i, r := range reports {
		if data.Pre[i] != r.MeanReturnPre || data.Post[i] != r.MeanReturnPost {
			t.Errorf("iteration %v: got (%v, %v), want (%v, %v)", i,
				data.Pre[i], data.Post[i], r.MeanReturnPre, r.MeanReturnPost)
		}
	}
}

func TestTrustRegionRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "trust_region.bin")
	tr := NewTrustRegion(filename)

	tr.Track(agent.MetaReport{
		Loss:         -0.3,
		ImprovedLoss: -0.5,
		KL:           0.008,
		StepSize:     0.1,
		Outcome:      solver.StepAccepted,
	})
	tr.Track(agent.MetaReport{
		Loss:         -0.5,
		ImprovedLoss: -0.5,
		Outcome:      solver.StepRejected,
	})
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}

	var data TrustRegionData
	if err := LoadData(filename, &data); err != nil {
		t.Fatal(err)
	}

	if len(data.Loss) != 2 {
		t.Fatalf("got %v entries, want 2", len(data.Loss))
	}
	if !data.Accepted[0] || data.Accepted[1] {
		t.Errorf("got accepted flags %v, want [true false]", data.Accepted)
	}
	if data.KL[0] != 0.008 || data.StepSize[0] != 0.1 {
		t.Errorf("got (KL %v, step %v), want (0.008, 0.1)", data.KL[0],
			data.StepSize[0])
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	var data MetaReturnData
	err := LoadData(filepath.Join(t.TempDir(), "missing.bin"), &data)
	if err == nil {
		t.Error("expected an error for a missing data file")
	}
}
