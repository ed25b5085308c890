package repair

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quboassign/internal/model"
)

func twoByTwo(capW1, capW2 *float64, d1, d2 float64) (model.Problem, model.DistanceMatrix) {
	dist := model.DistanceMatrix{
		{100, 200},
		{150, 180},
	}
	p := model.Problem{
		Warehouses: []model.WarehouseNode{
			{ID: "W1", Capacity: capW1},
			{ID: "W2", Capacity: capW2},
		},
		Customers: []model.CustomerNode{
			{ID: "C1", Demand: d1},
			{ID: "C2", Demand: d2},
		},
		Distances: dist,
	}
	return p, dist
}

// The rightmost character is variable 0 and variable (i, j) is i*m+j. A
// sampler producing bitstrings in any other order must be adapted before
// decoding.
func TestDecodeBitConvention(t *testing.T) {
	a, err := Decode("0001", 2, 2)
	require.NoError(t, err)
	assert.True(t, a[0][0], "rightmost bit is W1-C1")
	assert.Equal(t, []int{1, 0}, a.ColumnSums())

	a, err = Decode("0010", 2, 2)
	require.NoError(t, err)
	assert.True(t, a[0][1], "bit 1 is W1-C2")

	a, err = Decode("0100", 2, 2)
	require.NoError(t, err)
	assert.True(t, a[1][0], "bit 2 is W2-C1")

	a, err = Decode("1000", 2, 2)
	require.NoError(t, err)
	assert.True(t, a[1][1], "bit 3 is W2-C2")
}

func TestDecodeLengths(t *testing.T) {
	short, err := Decode("1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "0001", Encode(short))

	long, err := Decode("1111"+"0110", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "0110", Encode(long))

	empty, err := Decode("", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, empty.ColumnSums())

	_, err = Decode("01x1", 2, 2)
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func TestEncodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		n, m := 1+rng.Intn(4), 1+rng.Intn(5)
		var b strings.Builder
		for k := 0; k < n*m; k++ {
			b.WriteByte("01"[rng.Intn(2)])
		}
		a, err := Decode(b.String(), n, m)
		require.NoError(t, err)
		assert.Equal(t, b.String(), Encode(a))
	}
}

func TestRepairTwoByTwo(t *testing.T) {
	p, dist := twoByTwo(nil, nil, 0, 0)
	for _, bits := range []string{"0000", "1111"} {
		a, err := Decode(bits, 2, 2)
		require.NoError(t, err)
		res, err := Repair(a, p, dist, Options{})
		require.NoError(t, err)
		want := map[string]string{"C1": "W1", "C2": "W2"}
		if diff := cmp.Diff(want, ToMap(res.Choice, p)); diff != "" {
			t.Fatalf("%s: (-want +got):\n%s", bits, diff)
		}
		assert.Empty(t, res.Warnings)
	}
}

func TestRepairColumnsSumToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 40; trial++ {
		n, m := 1+rng.Intn(4), 1+rng.Intn(6)
		p := model.Problem{
			Warehouses: make([]model.WarehouseNode, n),
			Customers:  make([]model.CustomerNode, m),
		}
		dist := make(model.DistanceMatrix, n)
		for i := range dist {
			p.Warehouses[i] = model.WarehouseNode{ID: string(rune('A' + i)), Capacity: model.Capacity(float64(5 + rng.Intn(20)))}
			dist[i] = make([]float64, m)
			for j := range dist[i] {
				dist[i][j] = float64(rng.Intn(50))
			}
		}
		for j := range p.Customers {
			p.Customers[j] = model.CustomerNode{ID: string(rune('a' + j)), Demand: float64(rng.Intn(10))}
		}
		for _, bits := range []string{strings.Repeat("0", n*m), strings.Repeat("1", n*m), "10"} {
			a, err := Decode(bits, n, m)
			require.NoError(t, err)
			res, err := Repair(a, p, dist, Options{})
			require.NoError(t, err)
			for j, s := range res.Matrix(n).ColumnSums() {
				require.Equal(t, 1, s, "trial %d bits %s customer %d", trial, bits, j)
			}
		}
	}
}

func TestRepairCapacityEndToEnd(t *testing.T) {
	// Both customers picked at W1 only; W1 holds 100 so nothing moves.
	p, dist := twoByTwo(model.Capacity(100), model.Capacity(80), 30, 40)
	a, err := Decode("0011", 2, 2)
	require.NoError(t, err)
	res, err := Repair(a, p, dist, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, res.Choice)
	assert.Empty(t, res.Overloaded(p.Warehouses))

	// Shrink W1 below the combined load: the smaller customer moves.
	p, dist = twoByTwo(model.Capacity(50), model.Capacity(80), 30, 40)
	res, err = Repair(a, p, dist, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, res.Choice)
	assert.Equal(t, 1, res.Moves)
	for i, w := range p.Warehouses {
		assert.LessOrEqual(t, res.Loads[i], *w.Capacity)
	}
	assert.Empty(t, res.Warnings)
}

func TestRepairCapacityInfeasible(t *testing.T) {
	p, dist := twoByTwo(model.Capacity(10), model.Capacity(10), 30, 40)
	a, err := Decode("1111", 2, 2)
	require.NoError(t, err)
	res, err := Repair(a, p, dist, Options{MaxIterations: 5})
	require.NoError(t, err)
	assert.True(t, model.HasWarning(res.Warnings, model.InfeasibleRepair))
	assert.LessOrEqual(t, res.Passes, 5)
	assert.Equal(t, 1, res.Passes)
	// Single-assignment still holds: nearest of the selected.
	assert.Equal(t, []int{0, 1}, res.Choice)
}

func TestRepairUnconstrainedTarget(t *testing.T) {
	p, dist := twoByTwo(model.Capacity(35), nil, 30, 40)
	a, err := Decode("0011", 2, 2)
	require.NoError(t, err)
	res, err := Repair(a, p, dist, Options{})
	require.NoError(t, err)
	// C1 (30) is smallest but moving it does not clear W1 (load 40 > 35);
	// C2 follows.
	assert.Equal(t, []int{1, 1}, res.Choice)
	assert.Empty(t, res.Warnings)
}

func TestRepairShapeErrors(t *testing.T) {
	p, dist := twoByTwo(nil, nil, 1, 1)
	_, err := Repair(NewMatrix(3, 2), p, dist, Options{})
	assert.ErrorIs(t, err, model.ErrInputShape)
	_, err = Repair(NewMatrix(2, 2), p, model.DistanceMatrix{{1, 2}}, Options{})
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func TestRecords(t *testing.T) {
	p, dist := twoByTwo(nil, nil, 0, 0)
	records := Records([]int{0, 1}, p, dist)
	require.Len(t, records, 2)
	assert.Equal(t, model.AssignmentRecord{
		WarehouseID: "W1", CustomerID: "C1", DistanceKm: 100,
		Cost: 100, CO2: 40, DeliveryHours: 1.25,
	}, records[0])
	assert.Equal(t, 280.0, TotalCost([]int{0, 1}, dist))

	agg := model.Summarize(records)
	assert.Equal(t, 280.0, agg.TotalCost)
	assert.Equal(t, 2, agg.WarehousesUsed)

	choice, err := FromMap(map[string]string{"C1": "W2", "C2": "W1"}, p)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, choice)
	_, err = FromMap(map[string]string{"C1": "W2"}, p)
	assert.ErrorIs(t, err, model.ErrInputShape)
	_, err = FromMap(map[string]string{"C1": "W2", "C2": "W7"}, p)
	assert.ErrorIs(t, err, model.ErrInputShape)
}
