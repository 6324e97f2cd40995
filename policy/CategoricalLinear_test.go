package policy

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/gomaml/utils/floatutils"
)

// numericalScore computes a central finite difference approximation of
// the log-probability gradient of any policy
func numericalScore(p Policy, params *mat.VecDense, obs,
	action mat.Vector, eps float64) *mat.VecDense {
	grad := mat.NewVecDense(params.Len(), nil)
	for i := 0; i < params.Len(); i++ {
		plus := mat.VecDenseCopyOf(params)
		plus.SetVec(i, params.AtVec(i)+eps)
		minus := mat.VecDenseCopyOf(params)
		minus.SetVec(i, params.AtVec(i)-eps)

		diff := p.LogProb(plus, obs, action) - p.LogProb(minus, obs, action)
		grad.SetVec(i, diff/(2*eps))
	}
	return grad
}

func testCategorical(t *testing.T) (*CategoricalLinear, *mat.VecDense,
	mat.Vector) {
	pol, err := NewCategoricalLinear(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	params := mat.NewVecDense(pol.NumParams(), []float64{
		0.5, -0.3, 0.1,
		-0.2, 0.8, 0.4,
		0.0, -0.5, 0.9,
		0.3, 0.2, -0.7,
	})
	obs := mat.NewVecDense(3, []float64{1.0, -0.5, 0.25})
	return pol, params, obs
}

func TestCategoricalLinearProbsSumToOne(t *testing.T) {
	pol, params, obs := testCategorical(t)

	total := 0.0
	for a := 0; a < 4; a++ {
		action := mat.NewVecDense(1, []float64{float64(a)})
		total += math.Exp(pol.LogProb(params, obs, action))
	}
	if math.Abs(total-1.0) > 1e-12 {
		t.Errorf("probabilities sum to %v, want 1", total)
	}
}

func TestCategoricalLinearScore(t *testing.T) {
	pol, params, obs := testCategorical(t)
	action := mat.NewVecDense(1, []float64{2.0})

	got := mat.NewVecDense(pol.NumParams(), nil)
	pol.AddScore(params, obs, action, 1.0, got)

	want := numericalScore(pol, params, obs, action, 1e-6)
	for i := 0; i < got.Len(); i++ {
		if math.Abs(got.AtVec(i)-want.AtVec(i)) > 1e-4 {
			t.Errorf("element %v: got %v, want %v", i, got.AtVec(i),
				want.AtVec(i))
		}
	}
}

func TestCategoricalLinearKLSelf(t *testing.T) {
	pol, params, obs := testCategorical(t)
	if kl := pol.KL(params, params, obs); kl != 0.0 {
		t.Errorf("KL between identical parameters is %v, want exactly 0", kl)
	}
}

// TestCategoricalLinearFisherQuadraticForm checks the Fisher-vector
// product against the second-order expansion KL(p, p+εv) ≈ ½ε² vᵀFv.
func TestCategoricalLinearFisherQuadraticForm(t *testing.T) {
	pol, params, obs := testCategorical(t)
	v := mat.NewVecDense(pol.NumParams(), nil)
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, math.Sin(float64(i)+1.0))
	}

	fv := mat.NewVecDense(pol.NumParams(), nil)
	pol.AddFisherVector(params, obs, v, 1.0, fv)
	got := mat.Dot(v, fv)

	eps := 1e-4
	perturbed := mat.NewVecDense(params.Len(), nil)
	perturbed.AddScaledVec(params, eps, v)
	want := 2.0 * pol.KL(params, perturbed, obs) / (eps * eps)

	if math.Abs(got-want) > 1e-2*math.Abs(want) {
		t.Errorf("vᵀFv: got %v, want %v", got, want)
	}
}

// TestCategoricalLinearHessianIsNegativeFisher relies on the softmax
// log-probability Hessian being the negated Fisher matrix for every
// action.
func TestCategoricalLinearHessianIsNegativeFisher(t *testing.T) {
	pol, params, obs := testCategorical(t)
	action := mat.NewVecDense(1, []float64{1.0})
	v := mat.NewVecDense(pol.NumParams(), nil)
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, math.Cos(float64(i)))
	}

	sum := mat.NewVecDense(pol.NumParams(), nil)
	pol.AddFisherVector(params, obs, v, 1.0, sum)
	pol.AddScoreHessianVector(params, obs, action, v, 1.0, sum)

	for i := 0; i < sum.Len(); i++ {
		if math.Abs(sum.AtVec(i)) > 1e-12 {
			t.Errorf("element %v: Fv + Hv = %v, want 0", i, sum.AtVec(i))
		}
	}
}

// TestCategoricalLinearHessianVector checks the analytic Hessian-vector
// product against a finite difference of analytic score vectors.
func TestCategoricalLinearHessianVector(t *testing.T) {
	pol, params, obs := testCategorical(t)
	action := mat.NewVecDense(1, []float64{0.0})
	v := mat.NewVecDense(pol.NumParams(), nil)
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, 0.1*float64(i)-0.5)
	}

	got := mat.NewVecDense(pol.NumParams(), nil)
	pol.AddScoreHessianVector(params, obs, action, v, 1.0, got)

	eps := 1e-6
	plus := mat.NewVecDense(params.Len(), nil)
	plus.AddScaledVec(params, eps, v)
	minus := mat.NewVecDense(params.Len(), nil)
	minus.AddScaledVec(params, -eps, v)

	want := mat.NewVecDense(pol.NumParams(), nil)
	pol.AddScore(plus, obs, action, 1.0/(2*eps), want)
	pol.AddScore(minus, obs, action, -1.0/(2*eps), want)

	for i := 0; i < got.Len(); i++ {
		if math.Abs(got.AtVec(i)-want.AtVec(i)) > 1e-4 {
			t.Errorf("element %v: got %v, want %v", i, got.AtVec(i),
				want.AtVec(i))
		}
	}
}

// TestCategoricalLinearSelectAction checks that with strongly peaked
// preferences, sampling returns the most probable action.
func TestCategoricalLinearSelectAction(t *testing.T) {
	pol, _, obs := testCategorical(t)

	// Put overwhelming preference weight on action 2
	params := mat.NewVecDense(pol.NumParams(), nil)
	for j := 0; j < 3; j++ {
		params.SetVec(2*3+j, 50.0*obs.AtVec(j))
	}

	probs := make([]float64, 4)
	for a := 0; a < 4; a++ {
		action := mat.NewVecDense(1, []float64{float64(a)})
		probs[a] = math.Exp(pol.LogProb(params, obs, action))
	}
	_, indices := floatutils.MaxSlice(probs)
	if indices[0] != 2 {
		t.Fatalf("most probable action is %v, want 2", indices[0])
	}

	src := rand.NewSource(42)
	for i := 0; i < 10; i++ {
		action := pol.SelectAction(params, obs, src)
		if int(action.AtVec(0)) != 2 {
			t.Errorf("sampled action %v under peaked preferences, want 2",
				action.AtVec(0))
		}
	}
}
