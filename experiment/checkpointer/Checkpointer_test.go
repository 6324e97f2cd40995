package checkpointer

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNStepSavesOnInterval(t *testing.T) {
	dir := t.TempDir()
	params := mat.NewVecDense(3, []float64{1.0, -2.0, 0.5})

	c, err := NewNStep(3, func() *mat.VecDense { return params },
		FilenameEnumerator(0, filepath.Join(dir, "params"), ".bin"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 7; i++ {
		if err := c.Checkpoint(i); err != nil {
			t.Fatal(err)
		}
	}

	// Iterations 0, 3 and 6 fall on the interval
	for _, name := range []string{"params1.bin", "params2.bin",
		"params3.bin"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected snapshot %v: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "params4.bin")); err == nil {
		t.Error("got a fourth snapshot, want three")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	params := mat.NewVecDense(4, []float64{0.1, 0.2, -0.3, 7.0})

	c, err := NewNStep(1, func() *mat.VecDense { return params },
		FilenameEnumerator(0, filepath.Join(dir, "params"), ".bin"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Checkpoint(0); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadVec(filepath.Join(dir, "params1.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != params.Len() {
		t.Fatalf("got length %v, want %v", loaded.Len(), params.Len())
	}
	for i := 0; i < params.Len(); i++ {
		if loaded.AtVec(i) != params.AtVec(i) {
			t.Errorf("element %v: got %v, want %v", i, loaded.AtVec(i),
				params.AtVec(i))
		}
	}
}

func TestNewNStepInvalidInterval(t *testing.T) {
	_, err := NewNStep(0, func() *mat.VecDense { return nil },
		FileTimer("params", ".bin"))
	if err == nil {
		t.Error("expected an error for a non-positive interval")
	}
}
