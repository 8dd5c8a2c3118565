package fit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// machineEpsilon is the spacing of float64 values around 1.
var machineEpsilon = math.Nextafter(1, 2) - 1

// ErrNoConvergence is returned when the SVD of the design matrix fails.
var ErrNoConvergence = errors.New("singular value decomposition did not converge")

// solution holds one coefficient per unknown (rows) and distance key
// (columns), plus the effective rank of the design matrix.
type solution struct {
	x    *mat.Dense
	rank int
}

// solveLeastSquares returns the minimum-norm x minimizing |A·x - b| for
// every column of b. Singular values below rcond·σmax are treated as zero;
// a non-positive rcond selects ε·max(rows, cols).
func solveLeastSquares(a, b mat.Matrix, rcond float64) (*solution, error) {
	r, c := a.Dims()
	_, k := b.Dims()
	if rcond <= 0 {
		rcond = machineEpsilon * float64(max(r, c))
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrNoConvergence
	}
	rank := svd.Rank(rcond)

	x := mat.NewDense(c, k, nil)
	if rank > 0 {
		svd.SolveTo(x, b, rank)
	}
	return &solution{x: x, rank: rank}, nil
}
