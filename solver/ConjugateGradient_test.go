package solver

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// matrixOperator turns an explicit SPD matrix into an Operator
func matrixOperator(a *mat.Dense) Operator {
	return func(v *mat.VecDense) (*mat.VecDense, error) {
		out := mat.NewVecDense(v.Len(), nil)
		out.MulVec(a, v)
		return out, nil
	}
}

// spdMatrix returns B Bᵀ + I for a fixed 5x5 matrix B, which is
// symmetric positive definite
func spdMatrix() *mat.Dense {
	b := mat.NewDense(5, 5, []float64{
		2.0, -1.0, 0.3, 0.0, 1.2,
		-1.0, 3.0, 0.5, -0.7, 0.0,
		0.3, 0.5, 1.5, 0.2, -0.4,
		0.0, -0.7, 0.2, 2.5, 0.9,
		1.2, 0.0, -0.4, 0.9, 1.8,
	})

	a := mat.NewDense(5, 5, nil)
	a.Mul(b, b.T())
	for i := 0; i < 5; i++ {
		a.Set(i, i, a.At(i, i)+1.0)
	}
	return a
}

// TestConjugateGradientSolvesSPDSystem checks the conjugate gradient
// solution against a direct dense solve of the same system.
func TestConjugateGradientSolvesSPDSystem(t *testing.T) {
	a := spdMatrix()
	rhs := mat.NewVecDense(5, []float64{1.0, -2.0, 0.5, 3.0, -1.5})

	got, err := ConjugateGradient(matrixOperator(a), rhs, 50, 1e-14)
	if err != nil {
		t.Fatal(err)
	}

	var want mat.VecDense
	if err := want.SolveVec(a, rhs); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if math.Abs(got.AtVec(i)-want.AtVec(i)) > 1e-8 {
			t.Errorf("element %v: got %v, want %v", i, got.AtVec(i),
				want.AtVec(i))
		}
	}
}

// TestConjugateGradientExactAfterDimensionIterations relies on the
// fact that in exact arithmetic conjugate gradient converges in at
// most n iterations for an n-dimensional system.
func TestConjugateGradientExactAfterDimensionIterations(t *testing.T) {
	a := spdMatrix()
	rhs := mat.NewVecDense(5, []float64{0.1, 0.2, 0.3, 0.4, 0.5})

	x, err := ConjugateGradient(matrixOperator(a), rhs, 5, 0.0)
	if err != nil {
		t.Fatal(err)
	}

	// Residual b - Ax should be near zero
	var ax mat.VecDense
	ax.MulVec(a, x)
	for i := 0; i < 5; i++ {
		if math.Abs(rhs.AtVec(i)-ax.AtVec(i)) > 1e-8 {
			t.Errorf("residual element %v: got %v, want 0",
				i, rhs.AtVec(i)-ax.AtVec(i))
		}
	}
}

func TestConjugateGradientZeroRHS(t *testing.T) {
	a := spdMatrix()
	rhs := mat.NewVecDense(5, nil)

	x, err := ConjugateGradient(matrixOperator(a), rhs, 10, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if x.AtVec(i) != 0.0 {
			t.Errorf("element %v: got %v, want 0", i, x.AtVec(i))
		}
	}
}

func TestConjugateGradientInvalidIterationCap(t *testing.T) {
	rhs := mat.NewVecDense(5, []float64{1.0, 1.0, 1.0, 1.0, 1.0})
	if _, err := ConjugateGradient(matrixOperator(spdMatrix()), rhs, 0,
		1e-10); err == nil {
		t.Error("expected an error for a non-positive iteration cap")
	}
}
