package model

// Core domain types for the assignment engine. Inputs are immutable for the
// duration of a run.

// WarehouseNode is a supply point. A nil Capacity means unconstrained.
type WarehouseNode struct {
	ID       string   `json:"id" yaml:"id"`
	Lat      float64  `json:"lat" yaml:"lat"`
	Lon      float64  `json:"lon" yaml:"lon"`
	Capacity *float64 `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// HasCapacity reports whether the warehouse declares a capacity limit.
func (w WarehouseNode) HasCapacity() bool { return w.Capacity != nil }

// CustomerNode is a demand point. Missing demand is zero.
type CustomerNode struct {
	ID     string  `json:"id" yaml:"id"`
	Lat    float64 `json:"lat" yaml:"lat"`
	Lon    float64 `json:"lon" yaml:"lon"`
	Demand float64 `json:"demand,omitempty" yaml:"demand,omitempty"`
}

// DistanceMatrix is indexed [warehouse][customer], in kilometres.
type DistanceMatrix [][]float64

// Dims returns (rows, cols). cols is taken from the first row.
func (d DistanceMatrix) Dims() (int, int) {
	if len(d) == 0 {
		return 0, 0
	}
	return len(d), len(d[0])
}

// Column copies the distances from every warehouse to customer j.
func (d DistanceMatrix) Column(j int) []float64 {
	out := make([]float64, len(d))
	for i := range d {
		out[i] = d[i][j]
	}
	return out
}

// Capacity returns a pointer suitable for WarehouseNode.Capacity.
func Capacity(v float64) *float64 { return &v }

// TotalDemand sums customer demand.
func TotalDemand(customers []CustomerNode) float64 {
	total := 0.0
	for _, c := range customers {
		total += c.Demand
	}
	return total
}

// TotalCapacity sums declared warehouse capacity and reports whether any
// warehouse declared one.
func TotalCapacity(warehouses []WarehouseNode) (float64, bool) {
	total := 0.0
	declared := false
	for _, w := range warehouses {
		if w.Capacity != nil {
			total += *w.Capacity
			declared = true
		}
	}
	return total, declared
}
