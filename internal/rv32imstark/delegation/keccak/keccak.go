// Package keccak wires a Keccak-f[1600] precompile onto the delegation bus.
// The CPU AIR never encodes Keccak's round function directly; it only
// emits a delegation.Call naming the input/output digests, and this
// package is the table-side authority those calls are checked against.
package keccak

import (
	"golang.org/x/crypto/sha3"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/delegation"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// PrecompileID is the constant the CPU AIR stamps into delegation.Call to
// select this precompile among others sharing the bus.
var PrecompileID = field.New(1)

// Table accumulates precompile invocations and their multiplicities for
// one proving run.
type Table struct {
	calls         []delegation.Call
	multiplicities []field.M31
	seen          map[[64]byte]int // digest pair -> index into calls/multiplicities
}

// NewTable returns an empty precompile table.
func NewTable() *Table {
	return &Table{seen: make(map[[64]byte]int)}
}

// Invoke hashes input with Keccak-256 (the real Keccak-f[1600] permutation
// under Keccak's original padding, via golang.org/x/crypto/sha3's legacy
// constructor — not NIST SHA3, which pads differently), records the call
// on the table, and returns the 32-byte digest for the executor to store.
func (t *Table) Invoke(input []byte, cycle uint32) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))

	inputDigest := sha3Of(input) // digest the (possibly >32-byte) input down to a fixed-width call tuple field
	call := delegation.Call{
		PrecompileID: PrecompileID,
		InputDigest:  inputDigest,
		OutputDigest: out,
		Cycle:        field.New(cycle),
	}

	var key [64]byte
	copy(key[:32], inputDigest[:])
	copy(key[32:], out[:])
	if idx, ok := t.seen[key]; ok {
		t.multiplicities[idx] = t.multiplicities[idx].Add(field.One)
	} else {
		t.seen[key] = len(t.calls)
		t.calls = append(t.calls, call)
		t.multiplicities = append(t.multiplicities, field.One)
	}
	return out
}

func sha3Of(input []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Calls returns the recorded calls in first-seen order.
func (t *Table) Calls() []delegation.Call { return t.calls }

// Tuples returns each call's packed field tuple, in the same order as
// Multiplicities, ready for delegation.RationalSum.
func (t *Table) Tuples() [][]field.M31 {
	out := make([][]field.M31, len(t.calls))
	for i, c := range t.calls {
		out[i] = c.Tuple()
	}
	return out
}

// Multiplicities returns how many times each recorded call was made.
func (t *Table) Multiplicities() []field.M31 {
	return t.multiplicities
}
