package qubo

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quboassign/internal/model"
)

const eps = 1e-9

func TestBuild(t *testing.T) {
	t.Run("diagonal holds cost and same-customer pairs hold penalty", func(t *testing.T) {
		cost := model.DistanceMatrix{
			{100, 200},
			{150, 180},
		}
		q, err := Build(cost, 1000, nil)
		require.NoError(t, err)
		require.Equal(t, 4, q.Size())

		assert.Equal(t, 100.0, q.At(VarIndex(0, 0, 2), VarIndex(0, 0, 2)))
		assert.Equal(t, 200.0, q.At(VarIndex(0, 1, 2), VarIndex(0, 1, 2)))
		assert.Equal(t, 150.0, q.At(VarIndex(1, 0, 2), VarIndex(1, 0, 2)))
		assert.Equal(t, 180.0, q.At(VarIndex(1, 1, 2), VarIndex(1, 1, 2)))

		// W1-C1 with W2-C1, both orientations.
		assert.Equal(t, 1000.0, q.At(0, 2))
		assert.Equal(t, 1000.0, q.At(2, 0))
		assert.Equal(t, 1000.0, q.At(1, 3))
		// Different customers are never coupled.
		assert.Zero(t, q.At(0, 1))
		assert.Zero(t, q.At(0, 3))
	})

	t.Run("empty inputs give an empty matrix", func(t *testing.T) {
		q, err := Build(nil, 500, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, q.Size())
		assert.Nil(t, q.Symmetric())

		q, err = Build(model.DistanceMatrix{{}, {}}, 500, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, q.Size())
	})

	t.Run("single warehouse has no penalty terms", func(t *testing.T) {
		q, err := Build(model.DistanceMatrix{{5, 7, 9}}, 500, nil)
		require.NoError(t, err)
		require.Equal(t, 3, q.Size())
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if i != j {
					assert.Zero(t, q.At(i, j))
				}
			}
		}
	})

	t.Run("ragged cost matrix is a shape error", func(t *testing.T) {
		_, err := Build(model.DistanceMatrix{{1, 2}, {3}}, 100, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInputShape)
	})

	t.Run("negative cost is a shape error", func(t *testing.T) {
		_, err := Build(model.DistanceMatrix{{1, -2}}, 100, nil)
		assert.ErrorIs(t, err, model.ErrInputShape)
	})

	t.Run("mask adds penalty to eliminated pairs", func(t *testing.T) {
		cost := model.DistanceMatrix{{10, 200}, {150, 10}}
		mask := [][]bool{{true, false}, {false, true}}
		q, err := Build(cost, 1000, mask)
		require.NoError(t, err)
		assert.Equal(t, 10.0, q.At(0, 0))
		assert.Equal(t, 1200.0, q.At(1, 1))
		assert.Equal(t, 1150.0, q.At(2, 2))

		_, err = Build(cost, 1000, [][]bool{{true}})
		assert.ErrorIs(t, err, model.ErrInputShape)
	})

	t.Run("penalty exceeds any single violation saving", func(t *testing.T) {
		cost := model.DistanceMatrix{{100, 200}, {150, 180}}
		p := Calibrate(cost, nil, nil)
		q, err := Build(cost, p.Assignment, nil)
		require.NoError(t, err)

		feasible := []bool{true, false, false, true} // W1-C1, W2-C2
		doubled := []bool{true, false, true, true}   // C1 served twice
		assert.Less(t, q.Energy(feasible), q.Energy(doubled))
		assert.Greater(t, p.Assignment, p.Stats.Max)
	})
}

func TestCalibrate(t *testing.T) {
	t.Run("scales with mean cost", func(t *testing.T) {
		p := Calibrate(model.DistanceMatrix{{100, 200}, {150, 180}}, nil, nil)
		assert.InDelta(t, 1575.0, p.Assignment, eps)
		assert.Equal(t, "auto", p.Mode)
		assert.False(t, p.HasCapacity)
		assert.Empty(t, p.Warnings)
	})

	t.Run("zero matrix falls back to floor", func(t *testing.T) {
		p := Calibrate(model.DistanceMatrix{{0, 0}, {0, 0}}, nil, nil)
		assert.Equal(t, AssignmentFloor, p.Assignment)
		assert.True(t, model.HasWarning(p.Warnings, model.DegenerateInput))
	})

	t.Run("empty matrix falls back to floor", func(t *testing.T) {
		p := Calibrate(nil, nil, nil)
		assert.Equal(t, AssignmentFloor, p.Assignment)
		assert.False(t, math.IsNaN(p.Assignment))
		assert.True(t, model.HasWarning(p.Warnings, model.DegenerateInput))
	})

	t.Run("constant matrix warns about variance", func(t *testing.T) {
		p := Calibrate(model.DistanceMatrix{{50, 50}, {50, 50}}, nil, nil)
		assert.InDelta(t, 500.0, p.Assignment, eps)
		assert.True(t, model.HasWarning(p.Warnings, model.DegenerateInput))
	})

	t.Run("ceiling", func(t *testing.T) {
		p := Calibrate(model.DistanceMatrix{{5000, 9000}}, nil, nil)
		assert.Equal(t, AssignmentCeiling, p.Assignment)
		assert.Empty(t, p.Warnings)
	})

	t.Run("mean beyond ceiling saturates", func(t *testing.T) {
		p := Calibrate(model.DistanceMatrix{{20000, 30000}}, nil, nil)
		assert.Equal(t, AssignmentCeiling, p.Assignment)
		assert.True(t, model.HasWarning(p.Warnings, model.PenaltySaturated))
		assert.False(t, model.HasWarning(p.Warnings, model.DegenerateInput))
	})

	t.Run("capacity penalty from demand and capacity", func(t *testing.T) {
		warehouses := []model.WarehouseNode{
			{ID: "W1", Capacity: model.Capacity(100)},
			{ID: "W2", Capacity: model.Capacity(100)},
		}
		customers := []model.CustomerNode{{ID: "C1", Demand: 50}, {ID: "C2", Demand: 50}}
		p := Calibrate(model.DistanceMatrix{{100, 100}, {100, 300}}, warehouses, customers)
		require.True(t, p.HasCapacity)
		// 5 * 150 * (100/200)
		assert.InDelta(t, 375.0, p.Capacity, eps)

		p = Calibrate(model.DistanceMatrix{{1, 1}, {1, 3}}, warehouses, customers)
		assert.Equal(t, CapacityFloor, p.Capacity)
	})

	t.Run("bounds hold for random matrices", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for trial := 0; trial < 200; trial++ {
			n, m := 1+rng.Intn(5), 1+rng.Intn(8)
			scale := math.Pow(10, float64(rng.Intn(4)))
			cost := make(model.DistanceMatrix, n)
			sum := 0.0
			for i := range cost {
				cost[i] = make([]float64, m)
				for j := range cost[i] {
					cost[i][j] = rng.Float64() * scale
					sum += cost[i][j]
				}
			}
			mean := sum / float64(n*m)
			p := Calibrate(cost, nil, nil)
			assert.Greater(t, p.Assignment, mean)
			assert.GreaterOrEqual(t, p.Assignment, AssignmentFloor)
			assert.LessOrEqual(t, p.Assignment, AssignmentCeiling)
		}
	})
}

func TestResolvePenaltyMode(t *testing.T) {
	cost := model.DistanceMatrix{{100, 200}, {150, 180}}

	p, err := Resolve(nil, cost, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "auto", p.Mode)

	p, err = Resolve(ManualPenalty{Lambda1: 500, Lambda2: 100}, cost, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 500.0, p.Assignment)
	assert.Equal(t, 100.0, p.Capacity)
	assert.Equal(t, "manual", p.Mode)
	assert.Equal(t, "manual", ModeName(ManualPenalty{}))

	_, err = Resolve(ManualPenalty{Lambda1: 0}, cost, nil, nil)
	assert.ErrorIs(t, err, model.ErrInputShape)
	_, err = Resolve(ManualPenalty{Lambda1: 10, Lambda2: -1}, cost, nil, nil)
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func randomMatrix(rng *rand.Rand, n int, density float64) *Matrix {
	q := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if rng.Float64() < density {
				q.Add(i, j, rng.NormFloat64()*100)
			}
		}
	}
	return q
}

func TestIsingRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		q := randomMatrix(rng, 1+rng.Intn(12), 0.5)
		h := ToIsing(q)
		back, constant := h.ToQUBO()
		require.True(t, q.EqualApprox(back, eps), "trial %d: matrix mismatch", trial)
		assert.InDelta(t, 0, constant, 1e-6)
	}
}

func TestIsingEnergyMatchesQUBO(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	q := randomMatrix(rng, 8, 0.7)
	h := ToIsing(q)
	for trial := 0; trial < 100; trial++ {
		x := make([]bool, 8)
		for i := range x {
			x[i] = rng.Intn(2) == 1
		}
		assert.InDelta(t, q.Energy(x), h.Energy(SpinsFromBits(x)), 1e-6)
	}
}

func TestIsingFormulas(t *testing.T) {
	q := NewMatrix(2)
	q.Add(0, 0, 4)
	q.Add(1, 1, 2)
	q.Add(0, 1, 8)
	h := ToIsing(q)

	// c = 4/2 + 2/2 + 8/4; h0 = -2 - 2; h1 = -1 - 2; J01 = 2
	assert.InDelta(t, 5.0, h.Offset, eps)
	assert.InDelta(t, -4.0, h.Linear[0], eps)
	assert.InDelta(t, -3.0, h.Linear[1], eps)
	assert.InDelta(t, 2.0, h.Coupling(1, 0), eps)
	require.Len(t, h.Couplings(), 1)
	assert.Equal(t, Coupling{I: 0, J: 1, Value: 2}, h.Couplings()[0])
}

func TestIsingZeroMatrix(t *testing.T) {
	h := ToIsing(NewMatrix(3))
	require.NotNil(t, h)
	assert.Equal(t, 3, h.NumSpins())
	assert.True(t, h.IsZero())
	assert.Empty(t, h.Couplings())
	assert.Zero(t, h.Energy([]int8{1, -1, 1}))

	empty := ToIsing(NewMatrix(0))
	assert.Equal(t, 0, empty.NumSpins())
	assert.NotNil(t, empty.Linear)
	assert.True(t, empty.IsZero())
}

func TestEmptyMatrixReads(t *testing.T) {
	q := NewMatrix(0)
	assert.NotPanics(t, func() { assert.Zero(t, q.At(0, 0)) })
	assert.Nil(t, q.Symmetric())
	assert.Zero(t, q.Energy(nil))
	assert.Zero(t, q.NonZero())
}

func TestHamiltonianJSON(t *testing.T) {
	q, err := Build(model.DistanceMatrix{{100, 200}, {150, 180}}, 1000, nil)
	require.NoError(t, err)
	h := ToIsing(q)

	data, err := json.Marshal(h)
	require.NoError(t, err)

	var decoded Hamiltonian
	require.NoError(t, json.Unmarshal(data, &decoded))
	back, _ := decoded.ToQUBO()
	assert.True(t, q.EqualApprox(back, 1e-6))

	bad := []byte(`{"offset":0,"linear":[1,2],"couplings":[{"i":0,"j":5,"value":1}]}`)
	assert.ErrorIs(t, json.Unmarshal(bad, &decoded), model.ErrInputShape)
}

func TestFromRowsSymmetrizes(t *testing.T) {
	q, err := FromRows([][]float64{{1, 4}, {2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, q.At(0, 1))
	assert.Equal(t, 3.0, q.At(1, 0))
	assert.Equal(t, 3, q.NonZero())

	_, err = FromRows([][]float64{{1, 2}})
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func TestVarPair(t *testing.T) {
	for idx := 0; idx < 12; idx++ {
		i, j := VarPair(idx, 4)
		assert.Equal(t, idx, VarIndex(i, j, 4))
	}
}
