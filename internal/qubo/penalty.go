package qubo

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"quboassign/internal/model"
)

// Calibration bounds.
const (
	AssignmentFloor   = 100.0
	AssignmentCeiling = 10000.0
	CapacityFloor     = 50.0
	CapacityCeiling   = 5000.0

	assignmentScale = 10.0
	capacityScale   = 5.0
)

// PenaltyMode selects how constraint penalties are obtained. It is one of
// AutoPenalty or ManualPenalty.
type PenaltyMode interface {
	penaltyMode() string
}

// AutoPenalty derives penalties from the cost data.
type AutoPenalty struct{}

// ManualPenalty uses caller-provided magnitudes.
type ManualPenalty struct {
	Lambda1 float64 // single-assignment
	Lambda2 float64 // capacity
}

func (AutoPenalty) penaltyMode() string   { return "auto" }
func (ManualPenalty) penaltyMode() string { return "manual" }

// ModeName returns "auto" or "manual".
func ModeName(m PenaltyMode) string {
	if m == nil {
		return AutoPenalty{}.penaltyMode()
	}
	return m.penaltyMode()
}

// CostStats summarises the cost matrix.
type CostStats struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// Penalties are the constraint weights handed to the builder.
type Penalties struct {
	Assignment  float64         `json:"assignment"`
	Capacity    float64         `json:"capacity"`
	HasCapacity bool            `json:"hasCapacity"`
	Mode        string          `json:"mode"`
	Stats       CostStats       `json:"stats"`
	Warnings    []model.Warning `json:"warnings,omitempty"`
}

// Resolve applies mode. A nil mode behaves like AutoPenalty.
func Resolve(mode PenaltyMode, cost model.DistanceMatrix, warehouses []model.WarehouseNode, customers []model.CustomerNode) (Penalties, error) {
	switch m := mode.(type) {
	case nil, AutoPenalty:
		return Calibrate(cost, warehouses, customers), nil
	case ManualPenalty:
		if m.Lambda1 <= 0 || math.IsNaN(m.Lambda1) || math.IsInf(m.Lambda1, 0) {
			return Penalties{}, model.ShapeErrorf("qubo.Resolve", "manual lambda1 must be positive, got %v", m.Lambda1)
		}
		if m.Lambda2 < 0 || math.IsNaN(m.Lambda2) || math.IsInf(m.Lambda2, 0) {
			return Penalties{}, model.ShapeErrorf("qubo.Resolve", "manual lambda2 must be non-negative, got %v", m.Lambda2)
		}
		p := Penalties{Assignment: m.Lambda1, Capacity: m.Lambda2, Mode: m.penaltyMode(), Stats: costStats(cost)}
		p.HasCapacity = m.Lambda2 > 0
		return p, nil
	default:
		return Penalties{}, model.ShapeErrorf("qubo.Resolve", "unknown penalty mode %T", mode)
	}
}

// Calibrate computes data-driven penalties:
//
//	assignment = clamp(10 * mean(cost), 100, 10000)
//	capacity   = clamp(5 * mean(cost) * demand/capacity, 50, 5000)
//
// Capacity is only produced when both total demand and total declared
// capacity are positive. Zero or constant costs fall back to the floor and
// carry a DegenerateInput warning.
func Calibrate(cost model.DistanceMatrix, warehouses []model.WarehouseNode, customers []model.CustomerNode) Penalties {
	stats := costStats(cost)
	p := Penalties{Mode: AutoPenalty{}.penaltyMode(), Stats: stats}

	if stats.Max == 0 {
		p.Warnings = append(p.Warnings, model.Warnf(model.DegenerateInput, "cost matrix is empty or all zero; assignment penalty set to floor %.0f", AssignmentFloor))
	} else if stats.StdDev == 0 {
		p.Warnings = append(p.Warnings, model.Warnf(model.DegenerateInput, "cost matrix has no variance (all %.4g)", stats.Mean))
	}
	p.Assignment = clamp(assignmentScale*stats.Mean, AssignmentFloor, AssignmentCeiling)
	if stats.Mean >= p.Assignment {
		p.Warnings = append(p.Warnings, model.Warnf(model.PenaltySaturated, "mean cost %.4g reaches the assignment penalty ceiling %.0f", stats.Mean, AssignmentCeiling))
	}

	demand := model.TotalDemand(customers)
	capacity, declared := model.TotalCapacity(warehouses)
	if declared && demand > 0 && capacity > 0 {
		p.HasCapacity = true
		p.Capacity = clamp(capacityScale*stats.Mean*(demand/capacity), CapacityFloor, CapacityCeiling)
	}
	return p
}

func costStats(cost model.DistanceMatrix) CostStats {
	var flat []float64
	for _, row := range cost {
		flat = append(flat, row...)
	}
	if len(flat) == 0 {
		return CostStats{}
	}
	mean, std := stat.PopMeanStdDev(flat, nil)
	return CostStats{Mean: mean, Min: floats.Min(flat), Max: floats.Max(flat), StdDev: std}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
