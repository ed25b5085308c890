package qubo

import (
	"quboassign/internal/model"
)

// VarIndex maps (warehouse i, customer j) to the flat variable index.
// m is the customer count.
func VarIndex(i, j, m int) int { return i*m + j }

// VarPair inverts VarIndex.
func VarPair(idx, m int) (int, int) { return idx / m, idx % m }

// Build assembles the QUBO for an n x m cost matrix.
//
// Diagonal entries carry the assignment cost. Every pair of warehouses for
// the same customer is coupled by penaltyAssignment, a soft one-hot
// constraint: infeasible states stay representable and are repaired after
// sampling. Capacity is not encoded. When mask is non-nil, pairs marked
// false also get penaltyAssignment added to their diagonal.
func Build(cost model.DistanceMatrix, penaltyAssignment float64, mask [][]bool) (*Matrix, error) {
	const op = "qubo.Build"
	n, m := cost.Dims()
	if n == 0 || m == 0 {
		return NewMatrix(0), nil
	}
	if err := model.ValidateMatrix(op, cost, n, m); err != nil {
		return nil, err
	}
	if mask != nil {
		if len(mask) != n {
			return nil, model.ShapeErrorf(op, "mask has %d rows, want %d", len(mask), n)
		}
		for i := range mask {
			if len(mask[i]) != m {
				return nil, model.ShapeErrorf(op, "mask row %d has %d columns, want %d", i, len(mask[i]), m)
			}
		}
	}

	q := NewMatrix(n * m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			v := cost[i][j] * model.CostPerKm
			if mask != nil && !mask[i][j] {
				v += penaltyAssignment
			}
			q.Add(VarIndex(i, j, m), VarIndex(i, j, m), v)
		}
	}
	for j := 0; j < m; j++ {
		for i1 := 0; i1 < n; i1++ {
			for i2 := i1 + 1; i2 < n; i2++ {
				q.Add(VarIndex(i1, j, m), VarIndex(i2, j, m), penaltyAssignment)
			}
		}
	}
	return q, nil
}
