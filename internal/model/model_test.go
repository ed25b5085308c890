package model

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRecordUnits(t *testing.T) {
	r := NewAssignmentRecord("W1", "C1", 100)
	assert.Equal(t, 100.0, r.Cost)
	assert.InDelta(t, 40.0, r.CO2, 1e-9)
	assert.InDelta(t, 1.25, r.DeliveryHours, 1e-9)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Aggregate{}, Summarize(nil))

	agg := Summarize([]AssignmentRecord{
		NewAssignmentRecord("W1", "C1", 100),
		NewAssignmentRecord("W2", "C2", 180),
		NewAssignmentRecord("W1", "C3", 40),
	})
	assert.Equal(t, 320.0, agg.TotalCost)
	assert.InDelta(t, 128.0, agg.TotalCO2, 1e-9)
	assert.InDelta(t, 4.0/3.0, agg.AvgDeliveryTime, 1e-9)
	assert.Equal(t, 3, agg.RoutesUsed)
	assert.Equal(t, 2, agg.WarehousesUsed)
}

func TestInputShapeErrorMatches(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ShapeErrorf("qubo.Build", "matrix is %dx%d", 2, 3))
	assert.ErrorIs(t, err, ErrInputShape)

	var shape *InputShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "qubo.Build", shape.Op)
	assert.Equal(t, "qubo.Build: invalid input: matrix is 2x3", shape.Error())
	assert.NotErrorIs(t, errors.New("other"), ErrInputShape)
}

func TestProblemValidate(t *testing.T) {
	ok := Problem{
		Warehouses: []WarehouseNode{{ID: "W1"}, {ID: "W2"}},
		Customers:  []CustomerNode{{ID: "C1"}},
	}
	require.NoError(t, ok.Validate("test"), "absent matrix is fine")

	cases := map[string]Problem{
		"no warehouses": {Customers: ok.Customers},
		"no customers":  {Warehouses: ok.Warehouses},
		"rows":          {Warehouses: ok.Warehouses, Customers: ok.Customers, Distances: DistanceMatrix{{1}}},
		"cols":          {Warehouses: ok.Warehouses, Customers: ok.Customers, Distances: DistanceMatrix{{1}, {1, 2}}},
		"negative":      {Warehouses: ok.Warehouses, Customers: ok.Customers, Distances: DistanceMatrix{{1}, {-1}}},
		"nan":           {Warehouses: ok.Warehouses, Customers: ok.Customers, Distances: DistanceMatrix{{1}, {math.NaN()}}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.Validate("test"), ErrInputShape)
		})
	}
}

func TestProblemUniqueIDs(t *testing.T) {
	ok := Problem{
		Warehouses: []WarehouseNode{{ID: "W1"}, {ID: "W2"}},
		Customers:  []CustomerNode{{ID: "C1"}, {ID: "C2"}},
	}
	require.NoError(t, ok.UniqueIDs("test"))

	dupCustomer := Problem{Warehouses: ok.Warehouses, Customers: []CustomerNode{{ID: "C1"}, {ID: "C1"}}}
	err := dupCustomer.UniqueIDs("test")
	assert.ErrorIs(t, err, ErrInputShape)
	assert.ErrorContains(t, err, `duplicate customer id "C1"`)

	dupWarehouse := Problem{Warehouses: []WarehouseNode{{ID: "W1"}, {ID: "W1"}}, Customers: ok.Customers}
	err = dupWarehouse.UniqueIDs("test")
	assert.ErrorIs(t, err, ErrInputShape)
	assert.ErrorContains(t, err, `duplicate warehouse id "W1"`)
}

func TestHelpers(t *testing.T) {
	p := Problem{
		Warehouses: []WarehouseNode{{ID: "W1", Capacity: Capacity(10)}, {ID: "W2"}},
		Customers:  []CustomerNode{{ID: "C1", Demand: 3}, {ID: "C2", Demand: 4.5}},
	}
	assert.True(t, p.Warehouses[0].HasCapacity())
	assert.False(t, p.Warehouses[1].HasCapacity())
	assert.Equal(t, map[string]int{"W1": 0, "W2": 1}, p.WarehouseIndex())
	assert.Equal(t, map[string]int{"C1": 0, "C2": 1}, p.CustomerIndex())
	assert.Equal(t, 7.5, TotalDemand(p.Customers))
	total, declared := TotalCapacity(p.Warehouses)
	assert.Equal(t, 10.0, total)
	assert.True(t, declared)
	_, declared = TotalCapacity([]WarehouseNode{{ID: "W"}})
	assert.False(t, declared)

	d := DistanceMatrix{{1, 2}, {3, 4}}
	r, c := d.Dims()
	assert.Equal(t, [2]int{2, 2}, [2]int{r, c})
	assert.Equal(t, []float64{2, 4}, d.Column(1))

	ws := []Warning{Warnf(DegenerateInput, "flat costs")}
	assert.True(t, HasWarning(ws, DegenerateInput))
	assert.False(t, HasWarning(ws, SamplerFailed))
	assert.Equal(t, "DegenerateInputWarning: flat costs", ws[0].String())
}
