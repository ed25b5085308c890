package opt

import (
	"testing"

	"quboassign/internal/geo"
	"quboassign/internal/model"
)

func TestImproveOrder2OptUncrosses(t *testing.T) {
	// Square visited in a crossing order: 0 -> 2 -> 1 -> 3 -> 0.
	nodes := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}}
	crossed := []int{0, 2, 1, 3, 0}
	got := ImproveOrder2Opt(nodes, crossed, 10)
	if got[0] != 0 || got[len(got)-1] != 0 {
		t.Fatalf("endpoints moved: %v", got)
	}
	if pathDistance(nodes, got) >= pathDistance(nodes, crossed) {
		t.Fatalf("2-opt did not shorten %v -> %v", crossed, got)
	}
}

func TestTwoOptSwap(t *testing.T) {
	got := twoOptSwap([]int{0, 1, 2, 3, 4}, 1, 3)
	want := []int{0, 3, 2, 1, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("twoOptSwap = %v, want %v", got, want)
		}
	}
}

func TestPlanTours(t *testing.T) {
	p := model.Problem{
		Warehouses: []model.WarehouseNode{{ID: "W1", Lat: 40, Lon: -74}, {ID: "W2", Lat: 41, Lon: -74}},
		Customers: []model.CustomerNode{
			{ID: "C1", Lat: 40.1, Lon: -74},
			{ID: "C2", Lat: 40.2, Lon: -74},
			{ID: "C3", Lat: 40.05, Lon: -74},
		},
	}
	tours := PlanTours(p, []int{0, 0, 0}, 10)
	if len(tours) != 1 {
		t.Fatalf("expected one tour for one used warehouse, got %d", len(tours))
	}
	tour := tours[0]
	if tour.WarehouseID != "W1" || len(tour.CustomerIDs) != 3 {
		t.Fatalf("unexpected tour %+v", tour)
	}
	// Out and back along a meridian: twice the farthest customer.
	want := 2 * geo.HaversineKm(40, -74, 40.2, -74)
	if d := tour.DistanceKm - want; d > 1e-6 || d < -1e-6 {
		t.Fatalf("tour distance %.6f, want %.6f", tour.DistanceKm, want)
	}
}

func TestGreedyBaseline(t *testing.T) {
	p := model.Problem{
		Warehouses: []model.WarehouseNode{
			{ID: "W1", Capacity: model.Capacity(50)},
			{ID: "W2", Capacity: model.Capacity(100)},
		},
		Customers: []model.CustomerNode{{ID: "C1", Demand: 30}, {ID: "C2", Demand: 40}},
	}
	dist := model.DistanceMatrix{{10, 10}, {20, 20}}
	choice, warnings := GreedyBaseline(p, dist)
	// C2 is larger and placed first at W1; C1 no longer fits there.
	if choice[1] != 0 || choice[0] != 1 {
		t.Fatalf("choice = %v", choice)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}

	p.Warehouses[1].Capacity = model.Capacity(10)
	_, warnings = GreedyBaseline(p, dist)
	if !model.HasWarning(warnings, model.InfeasibleRepair) {
		t.Fatalf("expected infeasible warning, got %v", warnings)
	}
}
