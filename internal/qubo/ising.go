package qubo

import (
	"encoding/json"
	"sort"

	"quboassign/internal/model"
)

// Coupling is a pairwise spin coefficient with I < J.
type Coupling struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	Value float64 `json:"value"`
}

// Hamiltonian is the spin form of a QUBO:
//
//	H(z) = Offset + sum_i Linear[i] z_i + sum_{i<j} J_ij z_i z_j,  z in {-1,+1}
//
// obtained by substituting x = (1 - z) / 2.
type Hamiltonian struct {
	Offset    float64
	Linear    []float64
	couplings map[[2]int]float64
}

// ToIsing maps q exactly onto its Hamiltonian. An all-zero q yields a zero
// operator over the same number of spins.
func ToIsing(q *Matrix) *Hamiltonian {
	n := q.Size()
	h := &Hamiltonian{Linear: make([]float64, n), couplings: make(map[[2]int]float64)}
	for i := 0; i < n; i++ {
		if v := q.At(i, i); v != 0 {
			h.Offset += v / 2
			h.Linear[i] -= v / 2
		}
		for j := i + 1; j < n; j++ {
			v := q.At(i, j)
			if v == 0 {
				continue
			}
			h.Offset += v / 4
			h.Linear[i] -= v / 4
			h.Linear[j] -= v / 4
			h.couplings[[2]int{i, j}] += v / 4
		}
	}
	return h
}

// NumSpins is the number of spin variables.
func (h *Hamiltonian) NumSpins() int { return len(h.Linear) }

// Coupling returns J for the unordered pair (i, j).
func (h *Hamiltonian) Coupling(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	return h.couplings[[2]int{i, j}]
}

// Couplings lists non-zero pairwise terms sorted by I then J.
func (h *Hamiltonian) Couplings() []Coupling {
	out := make([]Coupling, 0, len(h.couplings))
	for k, v := range h.couplings {
		if v == 0 {
			continue
		}
		out = append(out, Coupling{I: k[0], J: k[1], Value: v})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}

// Neighbors returns, per spin, the couplings touching it. Used by local
// search samplers for O(degree) flip deltas.
func (h *Hamiltonian) Neighbors() [][]Coupling {
	adj := make([][]Coupling, len(h.Linear))
	for _, c := range h.Couplings() {
		adj[c.I] = append(adj[c.I], c)
		adj[c.J] = append(adj[c.J], Coupling{I: c.J, J: c.I, Value: c.Value})
	}
	return adj
}

// IsZero reports whether every coefficient, including the offset, is zero.
func (h *Hamiltonian) IsZero() bool {
	if h.Offset != 0 {
		return false
	}
	for _, v := range h.Linear {
		if v != 0 {
			return false
		}
	}
	for _, v := range h.couplings {
		if v != 0 {
			return false
		}
	}
	return true
}

// Energy evaluates H for spins in {-1,+1}. Missing spins count as +1 (x = 0).
func (h *Hamiltonian) Energy(spins []int8) float64 {
	z := func(i int) float64 {
		if i < len(spins) {
			return float64(spins[i])
		}
		return 1
	}
	e := h.Offset
	for i, v := range h.Linear {
		e += v * z(i)
	}
	for k, v := range h.couplings {
		e += v * z(k[0]) * z(k[1])
	}
	return e
}

// SpinsFromBits converts binary values to spins with z = 1 - 2x.
func SpinsFromBits(x []bool) []int8 {
	out := make([]int8, len(x))
	for i, b := range x {
		if b {
			out[i] = -1
		} else {
			out[i] = 1
		}
	}
	return out
}

// BitsFromSpins inverts SpinsFromBits.
func BitsFromSpins(z []int8) []bool {
	out := make([]bool, len(z))
	for i, s := range z {
		out[i] = s < 0
	}
	return out
}

// ToQUBO reconstructs the QUBO matrix and the constant left over by the
// substitution. For a Hamiltonian produced by ToIsing the constant is zero
// up to rounding.
func (h *Hamiltonian) ToQUBO() (*Matrix, float64) {
	n := len(h.Linear)
	q := NewMatrix(n)
	constant := h.Offset
	for i, v := range h.Linear {
		constant += v
		q.Add(i, i, -2*v)
	}
	for k, v := range h.couplings {
		if v == 0 {
			continue
		}
		i, j := k[0], k[1]
		constant += v
		q.Add(i, j, 4*v)
		q.Add(i, i, -2*v)
		q.Add(j, j, -2*v)
	}
	return q, constant
}

type hamiltonianJSON struct {
	Offset    float64    `json:"offset"`
	Linear    []float64  `json:"linear"`
	Couplings []Coupling `json:"couplings"`
}

// MarshalJSON emits {offset, linear, couplings} for external samplers.
func (h *Hamiltonian) MarshalJSON() ([]byte, error) {
	return json.Marshal(hamiltonianJSON{Offset: h.Offset, Linear: h.Linear, Couplings: h.Couplings()})
}

// UnmarshalJSON accepts the MarshalJSON layout.
func (h *Hamiltonian) UnmarshalJSON(data []byte) error {
	var raw hamiltonianJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.Offset = raw.Offset
	h.Linear = raw.Linear
	if h.Linear == nil {
		h.Linear = []float64{}
	}
	h.couplings = make(map[[2]int]float64, len(raw.Couplings))
	for _, c := range raw.Couplings {
		i, j := c.I, c.J
		if i > j {
			i, j = j, i
		}
		if i < 0 || j >= len(h.Linear) || i == j {
			return model.ShapeErrorf("qubo.Hamiltonian", "coupling (%d,%d) outside %d spins", c.I, c.J, len(h.Linear))
		}
		h.couplings[[2]int{i, j}] += c.Value
	}
	return nil
}
