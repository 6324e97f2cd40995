package gae

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-12

func TestDiscountCumSum(t *testing.T) {
	x := mat.NewVecDense(3, []float64{1.0, 1.0, 1.0})
	got := DiscountCumSum(x, 0.5)
	want := []float64{1.75, 1.5, 1.0}

	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("timestep %v: got %v, want %v", i, got[i], want[i])
		}
	}
}

// TestEstimateMonteCarlo checks that with tau = 1 and a zero baseline,
// the advantage estimates are exactly the discounted rewards-to-go.
func TestEstimateMonteCarlo(t *testing.T) {
	rewards := []float64{1.0, 2.0, 3.0}
	values := []float64{0.0, 0.0, 0.0}

	adv, err := Estimate(rewards, values, 1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{6.0, 5.0, 3.0}
	for i := range want {
		if math.Abs(adv[i]-want[i]) > tolerance {
			t.Errorf("timestep %v: got %v, want %v", i, adv[i], want[i])
		}
	}
}

// TestEstimateTDErrors checks that with tau = 0 the advantage
// estimates are exactly the one-step TD errors, with a terminal value
// of zero.
func TestEstimateTDErrors(t *testing.T) {
	rewards := []float64{1.0, -1.0, 0.5}
	values := []float64{0.3, -0.2, 0.7}
	gamma := 0.9

	adv, err := Estimate(rewards, values, gamma, 0.0)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{
		rewards[0] + gamma*values[1] - values[0],
		rewards[1] + gamma*values[2] - values[1],
		rewards[2] - values[2],
	}
	for i := range want {
		if math.Abs(adv[i]-want[i]) > tolerance {
			t.Errorf("timestep %v: got %v, want %v", i, adv[i], want[i])
		}
	}
}

func TestEstimateZeroLength(t *testing.T) {
	if _, err := Estimate(nil, nil, 0.99, 1.0); err == nil {
		t.Error("expected an error for a zero-length trajectory")
	}
}

func TestEstimateMismatchedLengths(t *testing.T) {
	_, err := Estimate([]float64{1.0, 2.0}, []float64{0.0}, 0.99, 1.0)
	if err == nil {
		t.Error("expected an error for mismatched rewards and values")
	}
}

func TestEstimateBatch(t *testing.T) {
	rewards := [][]float64{{1.0, 1.0}, {2.0}}
	values := [][]float64{{0.0, 0.0}, {0.0}}

	adv, err := EstimateBatch(rewards, values, 1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(adv) != 2 {
		t.Fatalf("got %v episodes, want 2", len(adv))
	}
	if math.Abs(adv[0][0]-2.0) > tolerance || math.Abs(adv[1][0]-2.0) >
		tolerance {
		t.Errorf("got %v, want [[2 1] [2]]", adv)
	}
}

func TestDiscountedReturns(t *testing.T) {
	got := DiscountedReturns([]float64{1.0, 2.0, 4.0}, 0.5)
	want := []float64{3.0, 4.0, 4.0}

	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("timestep %v: got %v, want %v", i, got[i], want[i])
		}
	}
}
