package opt

import (
	"sort"

	"quboassign/internal/geo"
	"quboassign/internal/model"
)

// Tour is a closed delivery loop from a warehouse through its customers.
// Diagnostic only; it does not feed back into the assignment.
type Tour struct {
	WarehouseID string   `json:"warehouseId"`
	CustomerIDs []string `json:"customerIds"`
	DistanceKm  float64  `json:"distanceKm"`
}

// PlanTours builds one tour per used warehouse, in warehouse order.
func PlanTours(p model.Problem, choice []int, iterations int) []Tour {
	members := make([][]int, len(p.Warehouses))
	for j, i := range choice {
		members[i] = append(members[i], j)
	}
	var tours []Tour
	for i, js := range members {
		if len(js) == 0 {
			continue
		}
		w := p.Warehouses[i]
		nodes := make([]geo.Point, 0, len(js)+1)
		nodes = append(nodes, geo.Point{Lat: w.Lat, Lon: w.Lon})
		for _, j := range js {
			nodes = append(nodes, geo.Point{Lat: p.Customers[j].Lat, Lon: p.Customers[j].Lon})
		}
		order := ImproveOrder2Opt(nodes, nearestNeighbourTour(nodes), iterations)
		t := Tour{WarehouseID: w.ID, DistanceKm: pathDistance(nodes, order)}
		for _, k := range order[1 : len(order)-1] {
			t.CustomerIDs = append(t.CustomerIDs, p.Customers[js[k-1]].ID)
		}
		tours = append(tours, t)
	}
	sort.SliceStable(tours, func(a, b int) bool { return tours[a].DistanceKm > tours[b].DistanceKm })
	return tours
}

// nearestNeighbourTour starts and ends at node 0.
func nearestNeighbourTour(nodes []geo.Point) []int {
	visited := make([]bool, len(nodes))
	visited[0] = true
	order := []int{0}
	cur := 0
	for len(order) < len(nodes) {
		next := -1
		for k := range nodes {
			if visited[k] {
				continue
			}
			if next < 0 || geo.Distance(nodes[cur], nodes[k]) < geo.Distance(nodes[cur], nodes[next]) {
				next = k
			}
		}
		visited[next] = true
		order = append(order, next)
		cur = next
	}
	return append(order, 0)
}

// ImproveOrder2Opt applies 2-opt to order, keeping both endpoints fixed.
func ImproveOrder2Opt(nodes []geo.Point, order []int, iterations int) []int {
	if iterations <= 0 {
		iterations = 1
	}
	best := append([]int(nil), order...)
	bestDist := pathDistance(nodes, best)
	n := len(order)
	for it := 0; it < iterations; it++ {
		improved := false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				cand := twoOptSwap(best, i, k)
				if d := pathDistance(nodes, cand); d+1e-6 < bestDist {
					best, bestDist = cand, d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func twoOptSwap(ord []int, i, k int) []int {
	out := make([]int, len(ord))
	copy(out, ord[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
	return out
}

// pathDistance is in kilometres.
func pathDistance(nodes []geo.Point, order []int) float64 {
	total := 0.0
	for i := 0; i < len(order)-1; i++ {
		total += geo.Distance(nodes[order[i]], nodes[order[i+1]])
	}
	return total
}
