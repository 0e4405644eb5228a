// Package channel implements the Fiat-Shamir transcript: a duplex sponge
// over a Poseidon2-style permutation (width 16, rate 8, capacity 8, S-box
// x^5).
package channel

import "github.com/circleproof/rv32im-stark/internal/rv32imstark/field"

const (
	// Width is the full permutation state size (t).
	Width = 16
	// Rate is the number of elements absorbed/squeezed per permutation call.
	Rate = 8
	// Capacity is Width-Rate, the part of the state never directly exposed.
	Capacity = Width - Rate

	roundsFull    = 8
	roundsPartial = 21
	sboxPower     = 5
)

// permutation is the Poseidon2 permutation state and precomputed round data.
type permutation struct {
	roundConstants [][Width]field.M31
	mds            [Width][Width]field.M31
}

var perm = buildPermutation()

// buildPermutation derives round constants and the MDS matrix deterministically
// from fixed, small field elements (no RNG, no external constant tables),
// a dynamically-generated-parameters approach generalized here to a
// 16-element Cauchy-style MDS.
func buildPermutation() *permutation {
	totalRounds := roundsFull + roundsPartial
	rc := make([][Width]field.M31, totalRounds)
	// Round constants: rc[r][i] = (r*Width + i + 1)^5, a simple deterministic
	// non-linear stream distinct per round and per lane.
	for r := 0; r < totalRounds; r++ {
		for i := 0; i < Width; i++ {
			seed := field.New(uint32(r*Width + i + 1))
			rc[r][i] = seed.Pow(5)
		}
	}

	// Cauchy MDS: M[i][j] = 1/(x_i - y_j) for two disjoint sequences of
	// distinct field elements, which is always MDS over a field.
	var mds [Width][Width]field.M31
	for i := 0; i < Width; i++ {
		xi := field.New(uint32(i + 1))
		for j := 0; j < Width; j++ {
			yj := field.New(uint32(Width + j + 1))
			diff := xi.Sub(yj)
			inv, err := diff.Inv()
			if err != nil {
				panic("channel: degenerate Cauchy MDS construction")
			}
			mds[i][j] = inv
		}
	}

	return &permutation{roundConstants: rc, mds: mds}
}

func sbox(x field.M31) field.M31 {
	return x.Pow(sboxPower)
}

func (p *permutation) applyMDS(state *[Width]field.M31) {
	var next [Width]field.M31
	for i := 0; i < Width; i++ {
		acc := field.Zero
		for j := 0; j < Width; j++ {
			acc = acc.Add(p.mds[i][j].Mul(state[j]))
		}
		next[i] = acc
	}
	*state = next
}

func (p *permutation) fullRound(state *[Width]field.M31, round int) {
	rc := p.roundConstants[round]
	for i := 0; i < Width; i++ {
		state[i] = sbox(state[i].Add(rc[i]))
	}
	p.applyMDS(state)
}

func (p *permutation) partialRound(state *[Width]field.M31, round int) {
	rc := p.roundConstants[round]
	for i := 0; i < Width; i++ {
		state[i] = state[i].Add(rc[i])
	}
	state[0] = sbox(state[0])
	p.applyMDS(state)
}

// Permute applies the full Poseidon2 permutation in place: RF/2 full
// rounds, RP partial rounds, RF/2 full rounds.
func Permute(state *[Width]field.M31) {
	round := 0
	for i := 0; i < roundsFull/2; i++ {
		perm.fullRound(state, round)
		round++
	}
	for i := 0; i < roundsPartial; i++ {
		perm.partialRound(state, round)
		round++
	}
	for i := 0; i < roundsFull/2; i++ {
		perm.fullRound(state, round)
		round++
	}
}
