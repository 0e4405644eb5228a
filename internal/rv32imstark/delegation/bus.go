// Package delegation implements the delegation bus: a LogUp
// rational-sum lookup argument that lets the CPU AIR discharge expensive
// operations (MUL/DIV/REM, and precompile calls such as Keccak-f[1600]) to
// a separate sub-AIR without encoding their full arithmetic into the main
// trace.
package delegation

import (
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// Call is one delegated operation: the CPU AIR emits one per cycle it
// hands off, the sub-AIR's table supplies the matching entry.
type Call struct {
	PrecompileID field.M31
	InputDigest  [32]byte
	OutputDigest [32]byte
	Cycle        field.M31
}

// Tuple packs a Call into field elements in a fixed order, digests chunked
// as eight little-endian 32-bit limbs each (same chunking convention as
// channel.ObserveCommitment).
func (c Call) Tuple() []field.M31 {
	out := make([]field.M31, 0, 2+8+8)
	out = append(out, c.PrecompileID, c.Cycle)
	out = append(out, chunkDigest(c.InputDigest)...)
	out = append(out, chunkDigest(c.OutputDigest)...)
	return out
}

func chunkDigest(h [32]byte) []field.M31 {
	out := make([]field.M31, 8)
	for i := 0; i < 8; i++ {
		var chunk [4]byte
		copy(chunk[:], h[i*4:i*4+4])
		out[i] = field.FromCommitmentChunk(chunk)
	}
	return out
}

// Combine folds a tuple into a single extension-field element via a random
// linear combination with the channel-sampled coefficient gamma — the
// standard way LogUp reduces a multi-column row to one fraction.
func Combine(tuple []field.M31, gamma field.QM31) field.QM31 {
	acc := field.QM31Zero
	pow := field.QM31One
	for _, x := range tuple {
		acc = acc.Add(pow.MulM31(x))
		pow = pow.Mul(gamma)
	}
	return acc
}

// RationalSum computes Σ multiplicities[i] / (challenge - Combine(tuples[i], gamma)),
// the core LogUp fraction. Both the CPU side (multiplicities all 1, one
// term per call) and the precompile side (multiplicities counting how
// often each table row is referenced) compute this over the same
// challenge and gamma; equality of the two sums is the lookup's soundness
// condition.
func RationalSum(challenge field.QM31, tuples [][]field.M31, multiplicities []field.M31, gamma field.QM31) (field.QM31, error) {
	if len(tuples) != len(multiplicities) {
		return field.QM31Zero, fmt.Errorf("delegation: tuples and multiplicities length mismatch")
	}
	sum := field.QM31Zero
	for i, t := range tuples {
		denom := challenge.Sub(Combine(t, gamma))
		inv, err := denom.Inv()
		if err != nil {
			return field.QM31Zero, fmt.Errorf("delegation: challenge collided with table row %d, resample: %w", i, err)
		}
		sum = sum.Add(inv.MulM31(multiplicities[i]))
	}
	return sum, nil
}

// CheckConsistency verifies the CPU side's calls are exactly accounted for
// by the precompile table, each with its claimed multiplicity.
func CheckConsistency(challenge, gamma field.QM31, calls []Call, tableTuples [][]field.M31, tableMultiplicities []field.M31) (bool, error) {
	callTuples := make([][]field.M31, len(calls))
	callMult := make([]field.M31, len(calls))
	for i, c := range calls {
		callTuples[i] = c.Tuple()
		callMult[i] = field.One
	}
	lhs, err := RationalSum(challenge, callTuples, callMult, gamma)
	if err != nil {
		return false, err
	}
	rhs, err := RationalSum(challenge, tableTuples, tableMultiplicities, gamma)
	if err != nil {
		return false, err
	}
	return lhs.Equal(rhs), nil
}
