package opt

import (
	"context"
	"math"
	"math/rand"

	"quboassign/internal/qubo"
)

// SampleJob carries per-call sampler inputs.
type SampleJob struct {
	// WarmStart holds variational angles (gammas then betas) for samplers
	// that take them. Nil when warm start is off.
	WarmStart []float64
	Seed      int64
}

// Sampler produces candidate bitstrings for a Hamiltonian. Bitstrings use
// the repair package convention: index 0 is the rightmost character.
type Sampler interface {
	Sample(ctx context.Context, h *qubo.Hamiltonian, job SampleJob) ([]string, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context, h *qubo.Hamiltonian, job SampleJob) ([]string, error)

func (f SamplerFunc) Sample(ctx context.Context, h *qubo.Hamiltonian, job SampleJob) ([]string, error) {
	return f(ctx, h, job)
}

// AnnealingSampler is a single-spin-flip simulated annealer over the Ising
// form. It ignores WarmStart. Each read returns its lowest-energy state.
type AnnealingSampler struct {
	Reads       int     // default 16
	Sweeps      int     // default 200
	InitialTemp float64 // default: largest local field bound of h
	Cooling     float64 // per sweep, in (0,1); default 0.95
	Seed        int64   // used when the job carries no seed
}

func (s AnnealingSampler) withDefaults(h *qubo.Hamiltonian) AnnealingSampler {
	if s.Reads <= 0 {
		s.Reads = 16
	}
	if s.Sweeps <= 0 {
		s.Sweeps = 200
	}
	if s.Cooling <= 0 || s.Cooling >= 1 {
		s.Cooling = 0.95
	}
	if s.InitialTemp <= 0 {
		s.InitialTemp = fieldBound(h)
		if s.InitialTemp == 0 {
			s.InitialTemp = 1
		}
	}
	return s
}

// Sample runs Reads independent anneals. ctx is checked between reads.
func (s AnnealingSampler) Sample(ctx context.Context, h *qubo.Hamiltonian, job SampleJob) ([]string, error) {
	s = s.withDefaults(h)
	seed := job.Seed
	if seed == 0 {
		seed = s.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	n := h.NumSpins()
	adj := h.Neighbors()

	out := make([]string, 0, s.Reads)
	for r := 0; r < s.Reads; r++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		z := make([]int8, n)
		for i := range z {
			z[i] = 1 - 2*int8(rng.Intn(2))
		}
		energy := h.Energy(z)
		best, bestE := append([]int8(nil), z...), energy
		temp := s.InitialTemp
		for sweep := 0; sweep < s.Sweeps; sweep++ {
			for i := 0; i < n; i++ {
				field := h.Linear[i]
				for _, c := range adj[i] {
					field += c.Value * float64(z[c.J])
				}
				delta := -2 * float64(z[i]) * field
				if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
					z[i] = -z[i]
					energy += delta
					if energy < bestE {
						bestE = energy
						copy(best, z)
					}
				}
			}
			temp *= s.Cooling
		}
		out = append(out, spinsToBitstring(best))
	}
	return out, nil
}

// fieldBound is max_i |h_i| + sum_j |J_ij|, the largest single-flip change.
func fieldBound(h *qubo.Hamiltonian) float64 {
	bound := make([]float64, h.NumSpins())
	for i, v := range h.Linear {
		bound[i] = math.Abs(v)
	}
	for _, c := range h.Couplings() {
		bound[c.I] += math.Abs(c.Value)
		bound[c.J] += math.Abs(c.Value)
	}
	best := 0.0
	for _, b := range bound {
		best = math.Max(best, b)
	}
	return best
}

// spinsToBitstring writes x = (1-z)/2 with index 0 rightmost.
func spinsToBitstring(z []int8) string {
	b := make([]byte, len(z))
	for i, s := range z {
		c := byte('0')
		if s < 0 {
			c = '1'
		}
		b[len(z)-1-i] = c
	}
	return string(b)
}
