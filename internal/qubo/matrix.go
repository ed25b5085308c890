package qubo

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"quboassign/internal/model"
)

// Matrix is a square symmetric QUBO matrix. Energy follows the upper-triangle
// convention: E(x) = sum_i Q[i][i] x_i + sum_{i<j} Q[i][j] x_i x_j.
type Matrix struct {
	n   int
	sym *mat.SymDense // nil when n == 0; gonum rejects zero-sized matrices
}

// NewMatrix returns an all-zero n x n matrix.
func NewMatrix(n int) *Matrix {
	if n <= 0 {
		return &Matrix{}
	}
	return &Matrix{n: n, sym: mat.NewSymDense(n, nil)}
}

// FromRows builds a Matrix from dense rows, symmetrizing off-diagonal pairs
// by averaging them.
func FromRows(rows [][]float64) (*Matrix, error) {
	n := len(rows)
	for i, r := range rows {
		if len(r) != n {
			return nil, model.ShapeErrorf("qubo.FromRows", "row %d has %d entries, want %d", i, len(r), n)
		}
	}
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m.sym.SetSym(i, i, rows[i][i])
		for j := i + 1; j < n; j++ {
			m.sym.SetSym(i, j, (rows[i][j]+rows[j][i])/2)
		}
	}
	return m, nil
}

// Size is the number of binary variables.
func (m *Matrix) Size() int { return m.n }

// At returns Q[i][j]. An empty Matrix reads as zero.
func (m *Matrix) At(i, j int) float64 {
	if m.sym == nil {
		return 0
	}
	return m.sym.At(i, j)
}

// Add adds v to Q[i][j] and, for i != j, to Q[j][i].
func (m *Matrix) Add(i, j int, v float64) {
	m.sym.SetSym(i, j, m.sym.At(i, j)+v)
}

// Symmetric exposes the underlying gonum matrix; nil for an empty Matrix.
func (m *Matrix) Symmetric() mat.Symmetric {
	if m.sym == nil {
		return nil
	}
	return m.sym
}

// Rows copies the matrix into dense rows.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, m.n)
	for i := range out {
		out[i] = make([]float64, m.n)
		for j := range out[i] {
			out[i][j] = m.sym.At(i, j)
		}
	}
	return out
}

// NonZero counts distinct non-zero entries on or above the diagonal.
func (m *Matrix) NonZero() int {
	count := 0
	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			if m.sym.At(i, j) != 0 {
				count++
			}
		}
	}
	return count
}

// Energy evaluates the QUBO objective for a binary assignment. Missing
// entries of x count as 0.
func (m *Matrix) Energy(x []bool) float64 {
	e := 0.0
	for i := 0; i < m.n && i < len(x); i++ {
		if !x[i] {
			continue
		}
		e += m.sym.At(i, i)
		for j := i + 1; j < m.n && j < len(x); j++ {
			if x[j] {
				e += m.sym.At(i, j)
			}
		}
	}
	return e
}

// EqualApprox reports whether both matrices have the same size and every
// entry differs by at most eps.
func (m *Matrix) EqualApprox(o *Matrix, eps float64) bool {
	if m.n != o.n {
		return false
	}
	if m.n == 0 {
		return true
	}
	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			if math.Abs(m.sym.At(i, j)-o.sym.At(i, j)) > eps {
				return false
			}
		}
	}
	return true
}
