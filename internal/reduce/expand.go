package reduce

import (
	"quboassign/internal/model"
)

// Expansion is a full {customerId -> warehouseId} assignment.
type Expansion struct {
	Assignment map[string]string
	// Fallbacks lists customers that had no usable reduced assignment and
	// were sent to their nearest warehouse.
	Fallbacks []string
}

// Expand maps a reduced solution {entityId -> warehouseId} back onto every
// customer of the original problem p. Cluster ids fan out to their members;
// a plain customer id maps directly. Anything unmapped, or mapped to an
// unknown warehouse, falls back to the nearest warehouse by dist.
func Expand(reduced map[string]string, clusters ClusterMap, p model.Problem, dist model.DistanceMatrix) (Expansion, error) {
	const op = "reduce.Expand"
	if err := p.Validate(op); err != nil {
		return Expansion{}, err
	}
	if err := model.ValidateMatrix(op, dist, len(p.Warehouses), len(p.Customers)); err != nil {
		return Expansion{}, err
	}
	if err := p.UniqueIDs(op); err != nil {
		return Expansion{}, err
	}

	memberOf := make(map[string]string, clusters.Size())
	for cid, members := range clusters {
		for _, id := range members {
			memberOf[id] = cid
		}
	}
	known := p.WarehouseIndex()

	out := Expansion{Assignment: make(map[string]string, len(p.Customers))}
	for j, c := range p.Customers {
		wid, ok := reduced[c.ID]
		if cid, clustered := memberOf[c.ID]; clustered && !ok {
			wid, ok = reduced[cid]
		}
		if _, valid := known[wid]; ok && valid {
			out.Assignment[c.ID] = wid
			continue
		}
		out.Assignment[c.ID] = p.Warehouses[NearestWarehouse(dist, j)].ID
		out.Fallbacks = append(out.Fallbacks, c.ID)
	}
	return out, nil
}

// NearestWarehouse returns the warehouse index with the smallest distance
// to customer j; ties go to the lowest index.
func NearestWarehouse(dist model.DistanceMatrix, j int) int {
	best := 0
	for i := 1; i < len(dist); i++ {
		if dist[i][j] < dist[best][j] {
			best = i
		}
	}
	return best
}
