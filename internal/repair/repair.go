package repair

import (
	"sort"
	"strings"

	"quboassign/internal/model"
)

// DefaultMaxIterations bounds capacity-repair passes.
const DefaultMaxIterations = 100

// Options tunes repair.
type Options struct {
	// MaxIterations caps capacity-repair passes; <= 0 means DefaultMaxIterations.
	MaxIterations int
}

// Result is a repaired, one-hot assignment.
type Result struct {
	// Choice[j] is the warehouse index serving customer j.
	Choice   []int
	Loads    []float64
	Moves    int // capacity moves applied
	Passes   int
	Warnings []model.Warning
}

// Matrix returns the repaired assignment matrix.
func (r *Result) Matrix(n int) Matrix { return FromChoice(r.Choice, n) }

// Overloaded lists warehouse indexes whose load still exceeds capacity.
func (r *Result) Overloaded(warehouses []model.WarehouseNode) []int {
	return overloaded(warehouses, r.Loads)
}

// Repair enforces one warehouse per customer on a, then runs capacity
// repair. It always returns a usable assignment for valid input; leftover
// overflow is reported as an InfeasibleRepair warning.
func Repair(a Matrix, p model.Problem, dist model.DistanceMatrix, opts Options) (*Result, error) {
	const op = "repair.Repair"
	if err := p.Validate(op); err != nil {
		return nil, err
	}
	n, m := len(p.Warehouses), len(p.Customers)
	if err := model.ValidateMatrix(op, dist, n, m); err != nil {
		return nil, err
	}
	if len(a) != n {
		return nil, model.ShapeErrorf(op, "assignment has %d rows, want %d", len(a), n)
	}
	for i, row := range a {
		if len(row) != m {
			return nil, model.ShapeErrorf(op, "assignment row %d has %d columns, want %d", i, len(row), m)
		}
	}
	choice := SingleAssignment(a, dist)
	return RepairCapacity(choice, p, dist, opts), nil
}

// SingleAssignment picks one warehouse per customer column. With nothing
// selected the nearest warehouse wins; with several selected the nearest of
// those wins. Ties go to the lowest warehouse index.
func SingleAssignment(a Matrix, dist model.DistanceMatrix) []int {
	n, m := dist.Dims()
	choice := make([]int, m)
	for j := 0; j < m; j++ {
		best := -1
		for i := 0; i < n; i++ {
			if a[i][j] && (best < 0 || dist[i][j] < dist[best][j]) {
				best = i
			}
		}
		if best < 0 {
			best = 0
			for i := 1; i < n; i++ {
				if dist[i][j] < dist[best][j] {
					best = i
				}
			}
		}
		choice[j] = best
	}
	return choice
}

// RepairCapacity moves customers off over-capacity warehouses. Each pass
// visits overloaded warehouses in index order and moves their customers,
// smallest demand first, to the nearest alternative that stays within its
// capacity after the move. Warehouses without a capacity are never full.
// Passes stop when nothing moves or after opts.MaxIterations.
//
// choice is copied, never modified.
func RepairCapacity(choice []int, p model.Problem, dist model.DistanceMatrix, opts Options) *Result {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	res := &Result{Choice: append([]int(nil), choice...)}
	res.Loads = Loads(res.Choice, p)

	for res.Passes < maxIter && len(overloaded(p.Warehouses, res.Loads)) > 0 {
		res.Passes++
		moved := 0
		for _, w := range overloaded(p.Warehouses, res.Loads) {
			moved += relieve(w, res, p, dist)
		}
		res.Moves += moved
		if moved == 0 {
			break
		}
	}

	if over := overloaded(p.Warehouses, res.Loads); len(over) > 0 {
		ids := make([]string, len(over))
		for k, w := range over {
			ids[k] = p.Warehouses[w].ID
		}
		res.Warnings = append(res.Warnings, model.Warnf(model.InfeasibleRepair,
			"capacity exceeded after %d passes at %s", res.Passes, strings.Join(ids, ", ")))
	}
	return res
}

// relieve moves customers off warehouse w until it fits or nothing can move.
func relieve(w int, res *Result, p model.Problem, dist model.DistanceMatrix) int {
	capW := *p.Warehouses[w].Capacity
	var members []int
	for j, i := range res.Choice {
		if i == w && p.Customers[j].Demand > 0 {
			members = append(members, j)
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		return p.Customers[members[a]].Demand < p.Customers[members[b]].Demand
	})

	moved := 0
	for _, j := range members {
		if res.Loads[w] <= capW {
			break
		}
		target := alternative(w, j, res.Loads, p, dist)
		if target < 0 {
			continue
		}
		d := p.Customers[j].Demand
		res.Choice[j] = target
		res.Loads[w] -= d
		res.Loads[target] += d
		moved++
	}
	return moved
}

// alternative returns the nearest warehouse other than from that can take
// customer j, or -1.
func alternative(from, j int, loads []float64, p model.Problem, dist model.DistanceMatrix) int {
	d := p.Customers[j].Demand
	best := -1
	for i, w := range p.Warehouses {
		if i == from {
			continue
		}
		if w.Capacity != nil && loads[i]+d > *w.Capacity {
			continue
		}
		if best < 0 || dist[i][j] < dist[best][j] {
			best = i
		}
	}
	return best
}

// Loads sums customer demand per warehouse.
func Loads(choice []int, p model.Problem) []float64 {
	loads := make([]float64, len(p.Warehouses))
	for j, i := range choice {
		loads[i] += p.Customers[j].Demand
	}
	return loads
}

func overloaded(warehouses []model.WarehouseNode, loads []float64) []int {
	var out []int
	for i, w := range warehouses {
		if w.Capacity != nil && loads[i] > *w.Capacity {
			out = append(out, i)
		}
	}
	return out
}
