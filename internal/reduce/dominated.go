package reduce

import (
	"quboassign/internal/model"
)

// DefaultDominanceThreshold marks pairs costing more than twice the best
// option for the same customer.
const DefaultDominanceThreshold = 2.0

// Pair identifies a (warehouse, customer) assignment option by index.
type Pair struct {
	Warehouse int `json:"warehouse"`
	Customer  int `json:"customer"`
}

// Dominance is the advisory result of dominated-pair elimination.
type Dominance struct {
	Threshold  float64  `json:"threshold"`
	Valid      [][]bool `json:"-"`
	Eliminated []Pair   `json:"eliminated"`
}

// ValidCount counts pairs left valid.
func (d *Dominance) ValidCount() int {
	n := 0
	for _, row := range d.Valid {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// EliminateDominated marks every pair whose cost exceeds threshold times the
// customer's minimum cost. threshold must be >= 1, which keeps each
// customer's cheapest pair valid.
func EliminateDominated(cost model.DistanceMatrix, threshold float64) (*Dominance, error) {
	const op = "reduce.EliminateDominated"
	if threshold < 1 {
		return nil, model.ShapeErrorf(op, "threshold %v must be >= 1", threshold)
	}
	n, m := cost.Dims()
	if err := model.ValidateMatrix(op, cost, n, m); err != nil {
		return nil, err
	}
	d := &Dominance{Threshold: threshold, Valid: make([][]bool, n)}
	for i := range d.Valid {
		d.Valid[i] = make([]bool, m)
	}
	for j := 0; j < m; j++ {
		best := cost[0][j]
		for i := 1; i < n; i++ {
			if cost[i][j] < best {
				best = cost[i][j]
			}
		}
		limit := threshold * best
		for i := 0; i < n; i++ {
			if cost[i][j] > limit {
				d.Eliminated = append(d.Eliminated, Pair{Warehouse: i, Customer: j})
				continue
			}
			d.Valid[i][j] = true
		}
	}
	return d, nil
}
