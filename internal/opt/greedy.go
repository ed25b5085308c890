package opt

import (
	"sort"

	"quboassign/internal/model"
)

// GreedyBaseline assigns customers, largest demand first, to the nearest
// warehouse with room left. A customer that fits nowhere goes to its
// nearest warehouse and an InfeasibleRepair warning is returned.
// The result is indexed by customer; dist must match p.
func GreedyBaseline(p model.Problem, dist model.DistanceMatrix) ([]int, []model.Warning) {
	n, m := len(p.Warehouses), len(p.Customers)
	order := make([]int, m)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Customers[order[a]].Demand > p.Customers[order[b]].Demand
	})

	loads := make([]float64, n)
	choice := make([]int, m)
	var overflow []string
	for _, j := range order {
		d := p.Customers[j].Demand
		best, nearest := -1, 0
		for i, w := range p.Warehouses {
			if dist[i][j] < dist[nearest][j] {
				nearest = i
			}
			if w.Capacity != nil && loads[i]+d > *w.Capacity {
				continue
			}
			if best < 0 || dist[i][j] < dist[best][j] {
				best = i
			}
		}
		if best < 0 {
			best = nearest
			overflow = append(overflow, p.Customers[j].ID)
		}
		choice[j] = best
		loads[best] += d
	}

	var warnings []model.Warning
	if len(overflow) > 0 {
		warnings = append(warnings, model.Warnf(model.InfeasibleRepair,
			"greedy baseline placed %d customer(s) over capacity", len(overflow)))
	}
	return choice, warnings
}
