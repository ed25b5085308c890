// Package warmstart derives initial variational angles from a classical
// baseline assignment.
package warmstart

import (
	"gonum.org/v1/gonum/floats"
)

// Neutral is the value used for every angle when no baseline is available.
const Neutral = 0.5

// Spread and mix bounds. Spread falls and mix rises as the baseline gets
// more balanced across warehouses.
const (
	SpreadMax = 0.7
	SpreadMin = 0.3
	MixMin    = 0.3
	MixMax    = 0.6
)

// Params holds per-layer angles. Gammas ramp up, Betas ramp down.
type Params struct {
	Layers  int       `json:"layers"`
	Balance float64   `json:"balance"`
	Gammas  []float64 `json:"gammas"`
	Betas   []float64 `json:"betas"`
}

// Vector concatenates gammas then betas, length 2*Layers.
func (p Params) Vector() []float64 {
	out := make([]float64, 0, len(p.Gammas)+len(p.Betas))
	out = append(out, p.Gammas...)
	return append(out, p.Betas...)
}

// Balance is 1 - (largest warehouse share of the baseline). An empty
// baseline has balance 0.
func Balance(baseline map[string]string) float64 {
	if len(baseline) == 0 {
		return 0
	}
	counts := make(map[string]int)
	most := 0
	for _, wid := range baseline {
		counts[wid]++
		if counts[wid] > most {
			most = counts[wid]
		}
	}
	return 1 - float64(most)/float64(len(baseline))
}

// Generate builds warm-start angles for the given number of layers (values
// below 1 mean 1) from a {customerId -> warehouseId} baseline.
func Generate(baseline map[string]string, layers int) Params {
	if layers < 1 {
		layers = 1
	}
	p := Params{Layers: layers, Gammas: make([]float64, layers), Betas: make([]float64, layers)}
	if len(baseline) == 0 {
		for l := 0; l < layers; l++ {
			p.Gammas[l], p.Betas[l] = Neutral, Neutral
		}
		return p
	}

	p.Balance = Balance(baseline)
	spread := SpreadMax - (SpreadMax-SpreadMin)*p.Balance
	mix := MixMin + (MixMax-MixMin)*p.Balance
	ramp(p.Gammas, spread/float64(layers), spread)
	ramp(p.Betas, mix, mix/float64(layers))
	return p
}

// ramp fills dst evenly from first to last inclusive.
func ramp(dst []float64, first, last float64) {
	if len(dst) == 1 {
		dst[0] = last
		return
	}
	floats.Span(dst, first, last)
}
