package model

import "math"

// Problem bundles the immutable inputs of a single run.
type Problem struct {
	Warehouses []WarehouseNode `json:"warehouses" yaml:"warehouses"`
	Customers  []CustomerNode  `json:"customers" yaml:"customers"`
	Distances  DistanceMatrix  `json:"distances,omitempty" yaml:"distances,omitempty"`
}

// Validate checks node counts against the distance matrix. An absent matrix
// is accepted; callers derive one from coordinates.
func (p Problem) Validate(op string) error {
	if len(p.Warehouses) == 0 {
		return ShapeErrorf(op, "no warehouses")
	}
	if len(p.Customers) == 0 {
		return ShapeErrorf(op, "no customers")
	}
	if p.Distances == nil {
		return nil
	}
	return ValidateMatrix(op, p.Distances, len(p.Warehouses), len(p.Customers))
}

// ValidateMatrix checks that m is rows x cols with finite non-negative entries.
func ValidateMatrix(op string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return ShapeErrorf(op, "distance matrix has %d rows, want %d", len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return ShapeErrorf(op, "distance row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return ShapeErrorf(op, "distance[%d][%d] = %v is not a finite non-negative value", i, j, v)
			}
		}
	}
	return nil
}

// UniqueIDs rejects duplicate customer or warehouse ids. Results are keyed
// by id, so a duplicate would silently drop a customer.
func (p Problem) UniqueIDs(op string) error {
	seen := make(map[string]struct{}, len(p.Customers))
	for _, c := range p.Customers {
		if _, dup := seen[c.ID]; dup {
			return ShapeErrorf(op, "duplicate customer id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(p.Warehouses))
	for _, w := range p.Warehouses {
		if _, dup := seen[w.ID]; dup {
			return ShapeErrorf(op, "duplicate warehouse id %q", w.ID)
		}
		seen[w.ID] = struct{}{}
	}
	return nil
}

// WarehouseIndex maps warehouse ids to positions.
func (p Problem) WarehouseIndex() map[string]int {
	out := make(map[string]int, len(p.Warehouses))
	for i, w := range p.Warehouses {
		out[w.ID] = i
	}
	return out
}

// CustomerIndex maps customer ids to positions.
func (p Problem) CustomerIndex() map[string]int {
	out := make(map[string]int, len(p.Customers))
	for j, c := range p.Customers {
		out[c.ID] = j
	}
	return out
}
