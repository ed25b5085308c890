package opt

import (
	"quboassign/internal/model"
)

func validateRequest(req *Request) error {
	const op = "opt.Optimize"
	if err := req.Problem.Validate(op); err != nil {
		return err
	}
	if err := req.Problem.UniqueIDs(op); err != nil {
		return err
	}
	o := req.Options
	if o.Layers < 0 {
		return model.ShapeErrorf(op, "layers must be >= 0")
	}
	if o.Repair.MaxIterations < 0 {
		return model.ShapeErrorf(op, "repair maxIterations must be >= 0")
	}
	if o.TourIterations < 0 {
		return model.ShapeErrorf(op, "tour iterations must be >= 0")
	}
	r := o.Reduction
	if r.ClusterThreshold < 0 || r.Cluster.MaxClusterSize < 0 || r.Cluster.MaxIterations < 0 {
		return model.ShapeErrorf(op, "reduction sizes must be >= 0")
	}
	if r.Elimination && r.DominanceThreshold != 0 && r.DominanceThreshold < 1 {
		return model.ShapeErrorf(op, "dominance threshold %v must be >= 1", r.DominanceThreshold)
	}
	for i, w := range req.Problem.Warehouses {
		if w.Capacity != nil && *w.Capacity < 0 {
			return model.ShapeErrorf(op, "warehouse %d (%s) has negative capacity", i, w.ID)
		}
	}
	for j, c := range req.Problem.Customers {
		if c.Demand < 0 {
			return model.ShapeErrorf(op, "customer %d (%s) has negative demand", j, c.ID)
		}
	}
	return nil
}
