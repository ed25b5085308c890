package repair

import (
	"quboassign/internal/model"
)

// Records converts a choice vector into per-assignment records, in customer
// order.
func Records(choice []int, p model.Problem, dist model.DistanceMatrix) []model.AssignmentRecord {
	out := make([]model.AssignmentRecord, len(choice))
	for j, i := range choice {
		out[j] = model.NewAssignmentRecord(p.Warehouses[i].ID, p.Customers[j].ID, dist[i][j])
	}
	return out
}

// TotalCost is the summed cost of a choice vector.
func TotalCost(choice []int, dist model.DistanceMatrix) float64 {
	total := 0.0
	for j, i := range choice {
		total += dist[i][j] * model.CostPerKm
	}
	return total
}

// ToMap renders a choice vector as {customerId -> warehouseId}.
func ToMap(choice []int, p model.Problem) map[string]string {
	out := make(map[string]string, len(choice))
	for j, i := range choice {
		out[p.Customers[j].ID] = p.Warehouses[i].ID
	}
	return out
}

// FromMap is the inverse of ToMap. Unknown warehouse ids and missing
// customers are shape errors.
func FromMap(assignment map[string]string, p model.Problem) ([]int, error) {
	const op = "repair.FromMap"
	index := p.WarehouseIndex()
	choice := make([]int, len(p.Customers))
	for j, c := range p.Customers {
		wid, ok := assignment[c.ID]
		if !ok {
			return nil, model.ShapeErrorf(op, "customer %q has no assignment", c.ID)
		}
		i, ok := index[wid]
		if !ok {
			return nil, model.ShapeErrorf(op, "customer %q assigned to unknown warehouse %q", c.ID, wid)
		}
		choice[j] = i
	}
	return choice, nil
}
