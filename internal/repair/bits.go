// Package repair turns sampler bitstrings into feasible assignments.
//
// Bit convention: variable (i, j) of an n x m problem lives at index i*m+j,
// and index 0 is the rightmost character of the bitstring. Missing leading
// bits read as 0; characters beyond n*m are ignored.
package repair

import (
	"strings"

	"quboassign/internal/model"
)

// Matrix is an assignment matrix indexed [warehouse][customer].
type Matrix [][]bool

// NewMatrix returns an all-zero n x m matrix.
func NewMatrix(n, m int) Matrix {
	a := make(Matrix, n)
	for i := range a {
		a[i] = make([]bool, m)
	}
	return a
}

// Dims returns (warehouses, customers).
func (a Matrix) Dims() (int, int) {
	if len(a) == 0 {
		return 0, 0
	}
	return len(a), len(a[0])
}

// ColumnSums counts selected warehouses per customer.
func (a Matrix) ColumnSums() []int {
	n, m := a.Dims()
	sums := make([]int, m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if a[i][j] {
				sums[j]++
			}
		}
	}
	return sums
}

// Decode parses bitstring into an n x m assignment matrix.
func Decode(bitstring string, n, m int) (Matrix, error) {
	const op = "repair.Decode"
	if n < 0 || m < 0 {
		return nil, model.ShapeErrorf(op, "negative dimensions %dx%d", n, m)
	}
	for k := 0; k < len(bitstring); k++ {
		if c := bitstring[k]; c != '0' && c != '1' {
			return nil, model.ShapeErrorf(op, "invalid character %q at position %d", c, k)
		}
	}
	a := NewMatrix(n, m)
	last := len(bitstring) - 1
	for idx := 0; idx < n*m && idx <= last; idx++ {
		if bitstring[last-idx] == '1' {
			a[idx/m][idx%m] = true
		}
	}
	return a, nil
}

// Encode is the inverse of Decode: a bitstring of exactly n*m characters.
func Encode(a Matrix) string {
	n, m := a.Dims()
	size := n * m
	var b strings.Builder
	b.Grow(size)
	for idx := size - 1; idx >= 0; idx-- {
		if a[idx/m][idx%m] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// FromChoice builds the one-hot matrix for choice, where choice[j] is the
// warehouse index serving customer j.
func FromChoice(choice []int, n int) Matrix {
	a := NewMatrix(n, len(choice))
	for j, i := range choice {
		if i >= 0 && i < n {
			a[i][j] = true
		}
	}
	return a
}
