// Package limbs implements the 32-bit-word to two-16-bit-limb decomposition
// (and the full 32-bit binary decomposition) used throughout the CPU AIR to
// keep every witness value inside M31's native range.
package limbs

import (
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// Base is 2^16, the limb radix.
const Base = 1 << 16

// ToLimbs splits w into (lo, hi) with lo = w & 0xFFFF, hi = w >> 16.
func ToLimbs(w uint32) (lo, hi field.M31) {
	return field.New(w & 0xFFFF), field.New(w >> 16)
}

// FromLimbs recombines (lo, hi) into a 32-bit word. Both limbs must already
// be range-checked to [0, 2^16) by the caller (the AIR enforces this via a
// lookup into a precomputed 16-bit range table); FromLimbs itself re-checks
// defensively and returns an error rather than silently wrapping.
func FromLimbs(lo, hi field.M31) (uint32, error) {
	if lo.Uint32() >= Base {
		return 0, fmt.Errorf("limbs: lo limb %d out of range [0, %d)", lo.Uint32(), Base)
	}
	if hi.Uint32() >= Base {
		return 0, fmt.Errorf("limbs: hi limb %d out of range [0, %d)", hi.Uint32(), Base)
	}
	return hi.Uint32()<<16 | lo.Uint32(), nil
}

// Bits decomposes a 32-bit word into its 32 binary witness bits, LSB first,
// for the bit-decomposition identity family in the CPU AIR.
func Bits(w uint32) [32]field.M31 {
	var bits [32]field.M31
	for i := 0; i < 32; i++ {
		bits[i] = field.New((w >> uint(i)) & 1)
	}
	return bits
}

// FromBits recomposes a word from 32 binary witness bits.
func FromBits(bits [32]field.M31) uint32 {
	var w uint32
	for i := 0; i < 32; i++ {
		if !bits[i].IsZero() {
			w |= 1 << uint(i)
		}
	}
	return w
}

// LimbsFromBits re-derives the limb pair implied by a full bit decomposition,
// matching the identity `value_lo = Σ 2^i·b[i] (i<16)`, `value_hi = Σ
// 2^(i-16)·b[i] (i>=16)` the CPU AIR uses.
func LimbsFromBits(bits [32]field.M31) (lo, hi field.M31) {
	var loAcc, hiAcc field.M31
	pow := field.One
	for i := 0; i < 16; i++ {
		loAcc = loAcc.Add(bits[i].Mul(pow))
		pow = pow.Add(pow)
	}
	pow = field.One
	for i := 16; i < 32; i++ {
		hiAcc = hiAcc.Add(bits[i].Mul(pow))
		pow = pow.Add(pow)
	}
	return loAcc, hiAcc
}
