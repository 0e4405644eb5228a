// Package air implements the CPU AIR: the trace column
// schema and the polynomial constraint catalogue that every row of an
// honest execution trace must satisfy.
package air

import "github.com/circleproof/rv32im-stark/internal/rv32imstark/field"

// NumShiftSelectors is the width of each shift-amount one-hot family.
const NumShiftSelectors = 32

// Row is one cycle of execution. Every field is a trace column; Columns()
// fixes the order used for both Merkle-leaf hashing and the LDE.
//
// Instruction selectors are 0/1 witnesses: the executor sets at most one of
// IsLui..IsMul to 1 on a row; LW, SW, EBREAK and padding rows leave all of
// them at zero.
type Row struct {
	Clock  field.M31
	PC     field.M31
	NextPC field.M31
	Instr  field.M31

	IsLui, IsAuipc       field.M31
	IsAdd, IsSub         field.M31
	IsAnd, IsOr, IsXor   field.M31
	IsSll, IsSrl, IsSra  field.M31
	IsBeq, IsBne         field.M31
	IsJal, IsJalr        field.M31
	IsMul                field.M31

	RdIsX0 field.M31 // 1 iff the decoded rd field is register 0

	Rs1Lo, Rs1Hi field.M31
	Rs2Lo, Rs2Hi field.M31
	RdLo, RdHi   field.M31
	ImmLo, ImmHi field.M31

	// ADD carry-chain witnesses: AddCarryLo is the carry out of the low
	// limb into the high limb sum; AddCarryHi is the carry out of the high
	// limb, which is discarded by 2^32 wraparound but must still appear in
	// the identity so the equation holds exactly rather than mod 2^16.
	AddCarryLo, AddCarryHi field.M31

	// SUB borrow-chain witnesses, same shape as the ADD carries but for
	// subtraction expressed as rs2 + rd = rs1 (mod 2^32).
	SubBorrowLo, SubBorrowHi field.M31

	// Bit decompositions feeding AND/OR/XOR/shift identities.
	Rs1Bits [32]field.M31
	Rs2Bits [32]field.M31
	RdBits  [32]field.M31

	// One-hot shift-amount selectors, one family per shift instruction.
	// SllAmt[m] (resp. Srl/Sra) is 1 iff this row performs that shift by
	// exactly m, else 0.
	SllAmt [NumShiftSelectors]field.M31
	SrlAmt [NumShiftSelectors]field.M31
	SraAmt [NumShiftSelectors]field.M31

	// Branch-taken witness, asserted boolean and tied to rs1==rs2 by the
	// beq/bne constraints through the EqLo/EqHi zero-check witnesses below.
	BranchTaken field.M31

	// Standard zero-check witnesses for rs1==rs2, one pair per limb: EqLo
	// (resp. EqHi) is 1 iff the low (resp. high) limb difference is zero,
	// and *Inv is the difference's inverse when it is nonzero (arbitrary,
	// conventionally zero, otherwise). See the equality constraints in
	// constraints.go for the algebraic derivation.
	EqLo, EqHi           field.M31
	DiffLoInv, DiffHiInv field.M31

	// MulLo/MulHi are the delegation-bus output limbs for IsMul rows; the
	// CPU AIR only enforces limb consistency, the LogUp argument in
	// internal/rv32imstark/delegation enforces the arithmetic itself.
	MulLo, MulHi field.M31
}

// NumColumns is len(Row{}.Columns()).
const NumColumns = 4 + 15 + 1 + 8 + 2 + 2 + 1 + 4 + 2 + 32*3 + 32*3

// Columns flattens the row into the fixed column order.
func (r Row) Columns() []field.M31 {
	out := make([]field.M31, 0, NumColumns)
	out = append(out,
		r.Clock, r.PC, r.NextPC, r.Instr,
		r.IsLui, r.IsAuipc, r.IsAdd, r.IsSub,
		r.IsAnd, r.IsOr, r.IsXor,
		r.IsSll, r.IsSrl, r.IsSra,
		r.IsBeq, r.IsBne, r.IsJal, r.IsJalr, r.IsMul,
		r.RdIsX0,
		r.Rs1Lo, r.Rs1Hi, r.Rs2Lo, r.Rs2Hi, r.RdLo, r.RdHi, r.ImmLo, r.ImmHi,
		r.AddCarryLo, r.AddCarryHi,
		r.SubBorrowLo, r.SubBorrowHi,
		r.BranchTaken,
		r.EqLo, r.EqHi, r.DiffLoInv, r.DiffHiInv,
		r.MulLo, r.MulHi,
	)
	out = append(out, r.Rs1Bits[:]...)
	out = append(out, r.Rs2Bits[:]...)
	out = append(out, r.RdBits[:]...)
	out = append(out, r.SllAmt[:]...)
	out = append(out, r.SrlAmt[:]...)
	out = append(out, r.SraAmt[:]...)
	return out
}

// FromColumns is the exact inverse of Columns, used by the prover and
// verifier to reconstruct a Row from one LDE domain point's worth of
// per-column values.
func FromColumns(cols []field.M31) Row {
	if len(cols) != NumColumns {
		panic("air: FromColumns: wrong column count")
	}
	var r Row
	scalars := []*field.M31{
		&r.Clock, &r.PC, &r.NextPC, &r.Instr,
		&r.IsLui, &r.IsAuipc, &r.IsAdd, &r.IsSub,
		&r.IsAnd, &r.IsOr, &r.IsXor,
		&r.IsSll, &r.IsSrl, &r.IsSra,
		&r.IsBeq, &r.IsBne, &r.IsJal, &r.IsJalr, &r.IsMul,
		&r.RdIsX0,
		&r.Rs1Lo, &r.Rs1Hi, &r.Rs2Lo, &r.Rs2Hi, &r.RdLo, &r.RdHi, &r.ImmLo, &r.ImmHi,
		&r.AddCarryLo, &r.AddCarryHi,
		&r.SubBorrowLo, &r.SubBorrowHi,
		&r.BranchTaken,
		&r.EqLo, &r.EqHi, &r.DiffLoInv, &r.DiffHiInv,
		&r.MulLo, &r.MulHi,
	}
	i := 0
	for _, ptr := range scalars {
		*ptr = cols[i]
		i++
	}
	for k := 0; k < 32; k++ {
		r.Rs1Bits[k] = cols[i]
		i++
	}
	for k := 0; k < 32; k++ {
		r.Rs2Bits[k] = cols[i]
		i++
	}
	for k := 0; k < 32; k++ {
		r.RdBits[k] = cols[i]
		i++
	}
	for k := 0; k < NumShiftSelectors; k++ {
		r.SllAmt[k] = cols[i]
		i++
	}
	for k := 0; k < NumShiftSelectors; k++ {
		r.SrlAmt[k] = cols[i]
		i++
	}
	for k := 0; k < NumShiftSelectors; k++ {
		r.SraAmt[k] = cols[i]
		i++
	}
	return r
}
