package symbolic

import (
	"fmt"
	"math"
	"strings"
)

// pivotTol is the magnitude below which a coefficient is treated as
// zero during elimination.
const pivotTol = 1e-12

// SolveError reports a conservation system that could not be resolved.
type SolveError struct {
	// Unknowns are the names of the variables being solved for.
	Unknowns []string
	// Underdetermined is true when the system has free degrees of
	// freedom; false means an inconsistent (over-determined) system.
	Underdetermined bool
	Detail          string
}

func (e *SolveError) Error() string {
	kind := "inconsistent"
	if e.Underdetermined {
		kind = "under-determined"
	}
	return fmt.Sprintf("%s linear system for unknowns [%s]: %s",
		kind, strings.Join(e.Unknowns, ", "), e.Detail)
}

// SolveLinear solves A·x = b by Gaussian elimination with partial
// pivoting. A is numeric (conservation conversion factors) while b may
// be symbolic: literal coefficients in a reaction may reference
// stoichiometric parameters, so the right-hand side carries
// expressions. Row operations on b therefore use AddScaled.
//
// names labels the unknowns for error reporting. The system must
// determine every unknown exactly; surplus equations are tolerated only
// when their residual is identically zero (numerically, where the
// residual folds to a literal).
func SolveLinear(a [][]float64, b []Expr, names []string) ([]Expr, error) {
	rows := len(a)
	if rows != len(b) {
		return nil, fmt.Errorf("symbolic: %d coefficient rows but %d right-hand sides", rows, len(b))
	}
	if rows == 0 {
		if len(names) == 0 {
			return nil, nil
		}
		return nil, &SolveError{Unknowns: names, Underdetermined: true,
			Detail: "no conservation equations available"}
	}
	cols := len(names)

	// Work on copies; callers hold the originals for diagnostics.
	m := make([][]float64, rows)
	for i := range a {
		if len(a[i]) != cols {
			return nil, fmt.Errorf("symbolic: row %d has %d coefficients, want %d", i, len(a[i]), cols)
		}
		m[i] = append([]float64(nil), a[i]...)
	}
	rhs := append([]Expr(nil), b...)

	// Forward elimination with partial pivoting.
	pivotRow := make([]int, 0, cols)
	row := 0
	for col := 0; col < cols && row < rows; col++ {
		best, bestAbs := -1, pivotTol
		for r := row; r < rows; r++ {
			if abs := math.Abs(m[r][col]); abs > bestAbs {
				best, bestAbs = r, abs
			}
		}
		if best < 0 {
			continue // column has no pivot; detected as under-determined below
		}
		m[row], m[best] = m[best], m[row]
		rhs[row], rhs[best] = rhs[best], rhs[row]
		for r := row + 1; r < rows; r++ {
			if factor := m[r][col] / m[row][col]; factor != 0 {
				for c := col; c < cols; c++ {
					m[r][c] -= factor * m[row][c]
				}
				rhs[r] = AddScaled(rhs[r], rhs[row], -factor)
			}
		}
		pivotRow = append(pivotRow, col)
		row++
	}

	if len(pivotRow) < cols {
		free := make([]string, 0, cols-len(pivotRow))
		pivoted := map[int]bool{}
		for _, c := range pivotRow {
			pivoted[c] = true
		}
		for c := 0; c < cols; c++ {
			if !pivoted[c] {
				free = append(free, names[c])
			}
		}
		return nil, &SolveError{Unknowns: names, Underdetermined: true,
			Detail: fmt.Sprintf("conservation constraints leave [%s] free", strings.Join(free, ", "))}
	}

	// Surplus equations must reduce to 0 = 0. A residual that folds to
	// a nonzero literal is an inconsistency; a residual that stays
	// symbolic cannot balance for every parameter value, so it is
	// rejected as well.
	for r := len(pivotRow); r < rows; r++ {
		if v, ok := IsNum(rhs[r]); ok {
			if math.Abs(v) <= 1e-8 {
				continue
			}
			return nil, &SolveError{Unknowns: names,
				Detail: fmt.Sprintf("surplus equation has residual %g", v)}
		}
		return nil, &SolveError{Unknowns: names,
			Detail: fmt.Sprintf("surplus equation has symbolic residual %s", rhs[r])}
	}

	// Back substitution.
	x := make([]Expr, cols)
	for i := len(pivotRow) - 1; i >= 0; i-- {
		col := pivotRow[i]
		acc := rhs[i]
		for c := col + 1; c < cols; c++ {
			if m[i][c] != 0 {
				acc = AddScaled(acc, x[c], -m[i][c])
			}
		}
		x[col] = Scale(acc, 1/m[i][col])
	}
	return x, nil
}
