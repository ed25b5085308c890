package warmstart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmptyBaseline(t *testing.T) {
	p := Generate(nil, 3)
	v := p.Vector()
	require.Len(t, v, 6)
	for _, x := range v {
		assert.Equal(t, Neutral, x)
	}
	assert.Zero(t, p.Balance)
}

func TestGenerateLayersFloor(t *testing.T) {
	p := Generate(map[string]string{"C1": "W1"}, 0)
	assert.Equal(t, 1, p.Layers)
	require.Len(t, p.Vector(), 2)
	// One warehouse takes everything: balance 0, spread 0.7, mix 0.3.
	assert.InDelta(t, 0.7, p.Gammas[0], 1e-12)
	assert.InDelta(t, 0.3, p.Betas[0], 1e-12)
}

func TestGenerateRamps(t *testing.T) {
	baseline := map[string]string{"C1": "W1", "C2": "W2", "C3": "W1", "C4": "W2"}
	p := Generate(baseline, 2)
	assert.InDelta(t, 0.5, p.Balance, 1e-12)

	spread := 0.7 - 0.4*0.5
	mix := 0.3 + 0.3*0.5
	assert.InDeltaSlice(t, []float64{spread / 2, spread}, p.Gammas, 1e-12)
	assert.InDeltaSlice(t, []float64{mix, mix / 2}, p.Betas, 1e-12)

	for _, x := range p.Vector() {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, math.Pi)
	}
}

func TestBalanceMonotone(t *testing.T) {
	skewed := map[string]string{"C1": "W1", "C2": "W1", "C3": "W1", "C4": "W2"}
	even := map[string]string{"C1": "W1", "C2": "W2", "C3": "W3", "C4": "W4"}
	ps, pe := Generate(skewed, 4), Generate(even, 4)

	assert.Less(t, Balance(skewed), Balance(even))
	assert.Greater(t, ps.Gammas[3], pe.Gammas[3], "spread shrinks with balance")
	assert.Less(t, ps.Betas[0], pe.Betas[0], "mix grows with balance")
}
