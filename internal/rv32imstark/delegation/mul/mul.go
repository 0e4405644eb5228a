// Package mul wires the RV32M 32-bit multiplier onto the delegation bus.
// The CPU AIR only carries MulLo/MulHi as opaque output limbs on an IsMul
// row; this package is the table-side authority an honest row's claimed
// product is checked against via the LogUp lookup argument in
// internal/rv32imstark/delegation.
package mul

import (
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/limbs"
)

// PrecompileID selects the multiplier precompile on the delegation bus,
// distinct from keccak.PrecompileID.
var PrecompileID = field.New(2)

// Table accumulates every IsMul row's (rs1, rs2) -> (lo, hi) product lookup
// and how many times each distinct input pair was referenced.
type Table struct {
	tuples         [][]field.M31
	multiplicities []field.M31
	seen           map[[2]uint32]int
}

// NewTable returns an empty multiplier table.
func NewTable() *Table {
	return &Table{seen: make(map[[2]uint32]int)}
}

// Invoke recomputes rs1*rs2 mod 2^32 independently of whatever the CPU row
// claims and records the call, returning the honest (lo, hi) limbs.
func (t *Table) Invoke(rs1Lo, rs1Hi, rs2Lo, rs2Hi field.M31) (lo, hi field.M31, err error) {
	rs1, err := limbs.FromLimbs(rs1Lo, rs1Hi)
	if err != nil {
		return field.Zero, field.Zero, err
	}
	rs2, err := limbs.FromLimbs(rs2Lo, rs2Hi)
	if err != nil {
		return field.Zero, field.Zero, err
	}
	product := rs1 * rs2
	lo, hi = limbs.ToLimbs(product)

	key := [2]uint32{rs1, rs2}
	if idx, ok := t.seen[key]; ok {
		t.multiplicities[idx] = t.multiplicities[idx].Add(field.One)
	} else {
		t.seen[key] = len(t.tuples)
		t.tuples = append(t.tuples, Tuple(rs1Lo, rs1Hi, rs2Lo, rs2Hi, lo, hi))
		t.multiplicities = append(t.multiplicities, field.One)
	}
	return lo, hi, nil
}

// Tuple packs one multiplier call into the fixed field order the bus
// combines: the precompile id, then the two input limb pairs, then the two
// output limbs.
func Tuple(rs1Lo, rs1Hi, rs2Lo, rs2Hi, lo, hi field.M31) []field.M31 {
	return []field.M31{PrecompileID, rs1Lo, rs1Hi, rs2Lo, rs2Hi, lo, hi}
}

// Tuples returns the recorded calls' packed tuples, in first-seen order.
func (t *Table) Tuples() [][]field.M31 { return t.tuples }

// Multiplicities returns how many times each recorded call was referenced,
// in the same order as Tuples.
func (t *Table) Multiplicities() []field.M31 { return t.multiplicities }
