package reduce

import (
	"quboassign/internal/model"
)

// Options switches the two independent reductions.
type Options struct {
	Clustering bool
	// ClusterThreshold: clustering triggers only above this customer count.
	ClusterThreshold int
	Cluster          ClusterOptions

	Elimination        bool
	DominanceThreshold float64
}

// DefaultOptions leaves both reductions off with the documented parameters.
func DefaultOptions() Options {
	return Options{
		ClusterThreshold:   50,
		Cluster:            ClusterOptions{MaxClusterSize: 20, MaxIterations: 100, Seed: DefaultSeed},
		DominanceThreshold: DefaultDominanceThreshold,
	}
}

// Size is a (warehouses, customers) pair.
type Size struct {
	Warehouses int `json:"warehouses"`
	Customers  int `json:"customers"`
}

// Variables is the QUBO variable count for the size.
func (s Size) Variables() int { return s.Warehouses * s.Customers }

// Reduction carries the reduced problem and what is needed to undo it.
type Reduction struct {
	// Problem is the reduced problem; Distances is always populated.
	Problem   model.Problem
	Clusters  ClusterMap // nil unless clustering triggered
	Dominance *Dominance // nil unless elimination ran
	Original  Size
	Reduced   Size
}

// Clustered reports whether customers were replaced by cluster representatives.
func (r *Reduction) Clustered() bool { return r.Clusters != nil }

// Mask returns the dominance mask for the reduced problem, or nil.
func (r *Reduction) Mask() [][]bool {
	if r.Dominance == nil {
		return nil
	}
	return r.Dominance.Valid
}

// Reduce applies the enabled reductions to p. dist must match p.
//
// Clustered distances are the mean of the member customers' distances, so
// a supplied road-distance matrix is respected.
func Reduce(p model.Problem, dist model.DistanceMatrix, opts Options) (*Reduction, error) {
	const op = "reduce.Reduce"
	if err := p.Validate(op); err != nil {
		return nil, err
	}
	if err := model.ValidateMatrix(op, dist, len(p.Warehouses), len(p.Customers)); err != nil {
		return nil, err
	}
	if err := p.UniqueIDs(op); err != nil {
		return nil, err
	}

	r := &Reduction{
		Problem:  model.Problem{Warehouses: p.Warehouses, Customers: p.Customers, Distances: dist},
		Original: Size{Warehouses: len(p.Warehouses), Customers: len(p.Customers)},
	}
	if opts.Clustering && len(p.Customers) > opts.ClusterThreshold {
		reps, cm := Cluster(p.Customers, opts.Cluster)
		r.Problem.Customers = reps
		r.Problem.Distances = clusterDistances(p, dist, reps, cm)
		r.Clusters = cm
	}
	if opts.Elimination {
		threshold := opts.DominanceThreshold
		if threshold == 0 {
			threshold = DefaultDominanceThreshold
		}
		d, err := EliminateDominated(r.Problem.Distances, threshold)
		if err != nil {
			return nil, err
		}
		r.Dominance = d
	}
	r.Reduced = Size{Warehouses: len(r.Problem.Warehouses), Customers: len(r.Problem.Customers)}
	return r, nil
}

func clusterDistances(p model.Problem, dist model.DistanceMatrix, reps []model.CustomerNode, cm ClusterMap) model.DistanceMatrix {
	index := p.CustomerIndex()
	out := make(model.DistanceMatrix, len(p.Warehouses))
	for i := range out {
		out[i] = make([]float64, len(reps))
		for k, rep := range reps {
			members := cm[rep.ID]
			sum := 0.0
			for _, id := range members {
				sum += dist[i][index[id]]
			}
			out[i][k] = sum / float64(len(members))
		}
	}
	return out
}
