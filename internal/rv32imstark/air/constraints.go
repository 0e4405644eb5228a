package air

import "github.com/circleproof/rv32im-stark/internal/rv32imstark/field"

// A Constraint evaluates one polynomial identity against a row; an honest
// trace makes every Constraint return zero. Degree is its total degree in
// the trace columns, tracked so the composition polynomial's quotient
// degree bound can be computed without re-deriving it from
// the closures.
type Constraint struct {
	Name   string
	Degree int
	Eval   func(row Row) field.M31
}

func selectorBoolean(name string, sel func(Row) field.M31) Constraint {
	return Constraint{Name: name, Degree: 2, Eval: func(r Row) field.M31 {
		s := sel(r)
		return s.Mul(s).Sub(s)
	}}
}

func bitBoolean(name string, bit func(Row) field.M31) Constraint {
	return Constraint{Name: name, Degree: 2, Eval: func(r Row) field.M31 {
		b := bit(r)
		return b.Mul(b).Sub(b)
	}}
}

// weightedSum folds 32 bits (LSB first) into a word value: Σ bits[i] * 2^i.
func weightedSum(bits [32]field.M31) field.M31 {
	acc := field.Zero
	weight := field.One
	two := field.New(2)
	for i := 0; i < 32; i++ {
		acc = acc.Add(bits[i].Mul(weight))
		weight = weight.Mul(two)
	}
	return acc
}

func limbsFromWord(w field.M31) (lo, hi field.M31) {
	const base = 1 << 16
	v := w.Uint32()
	return field.New(v % base), field.New(v / base)
}

// Catalogue returns every constraint in the CPU AIR, in no particular
// evaluation order (the composition polynomial sums them with independent
// random coefficients, so order does not matter).
func Catalogue() []Constraint {
	cs := []Constraint{
		// x0 is hardwired to zero: any row whose decoded rd is x0 must not
		// change the observable value of x0 (captured at the executor level
		// by never persisting a write when RdIsX0 is set); here we only
		// assert RdIsX0 is boolean and, when set, that RdLo/RdHi are zero
		// in the written-back value.
		selectorBoolean("rd_is_x0_boolean", func(r Row) field.M31 { return r.RdIsX0 }),
		{Name: "x0_write_is_zero", Degree: 2, Eval: func(r Row) field.M31 {
			return r.RdIsX0.Mul(r.RdLo.Add(r.RdHi))
		}},

		// PC increments by 4 on every instruction that does not redirect
		// control flow; control-flow instructions override next_pc via
		// their own identity below, each gated by its own selector so the
		// sum stays within total degree 2.
		{Name: "pc_increment", Degree: 2, Eval: func(r Row) field.M31 {
			four := field.New(4)
			fallthroughSel := field.One.
				Sub(r.IsJal).Sub(r.IsJalr).
				Sub(r.IsBeq).Sub(r.IsBne)
			return fallthroughSel.Mul(r.NextPC.Sub(r.PC).Sub(four))
		}},

		// LUI: rd := imm (imm already holds the upper-20-bits-shifted value
		// in ImmLo/ImmHi at witness-generation time).
		{Name: "lui_rd_lo", Degree: 2, Eval: func(r Row) field.M31 { return r.IsLui.Mul(r.RdLo.Sub(r.ImmLo)) }},
		{Name: "lui_rd_hi", Degree: 2, Eval: func(r Row) field.M31 { return r.IsLui.Mul(r.RdHi.Sub(r.ImmHi)) }},

		// AUIPC: rd := pc + imm (mod 2^32), same two-limb carry chain as
		// ADD but gated by IsAuipc and consuming the ADD carry witnesses
		// (AUIPC and ADD/SUB never co-occur on one row).
		{Name: "auipc_lo", Degree: 2, Eval: func(r Row) field.M31 {
			lo, _ := limbsFromWord(r.PC)
			return r.IsAuipc.Mul(lo.Add(r.ImmLo).Sub(r.RdLo).Sub(r.AddCarryLo.Mul(field.New(1 << 16))))
		}},
		{Name: "auipc_hi", Degree: 2, Eval: func(r Row) field.M31 {
			_, hi := limbsFromWord(r.PC)
			return r.IsAuipc.Mul(hi.Add(r.ImmHi).Add(r.AddCarryLo).Sub(r.RdHi).Sub(r.AddCarryHi.Mul(field.New(1 << 16))))
		}},

		// ADD: (rd_hi,rd_lo) = (rs1_hi,rs1_lo) + (rs2_hi,rs2_lo) mod 2^32.
		// AddCarryLo is the carry from the low into the high limb;
		// AddCarryHi is the carry out of the high limb, which 2^32
		// wraparound discards but which must still appear so the high-limb
		// identity holds exactly rather than only mod 2^16.
		selectorBoolean("add_carry_lo_boolean", func(r Row) field.M31 { return r.AddCarryLo }),
		selectorBoolean("add_carry_hi_boolean", func(r Row) field.M31 { return r.AddCarryHi }),
		{Name: "add_lo", Degree: 2, Eval: func(r Row) field.M31 {
			return r.IsAdd.Mul(r.Rs1Lo.Add(r.Rs2Lo).Sub(r.RdLo).Sub(r.AddCarryLo.Mul(field.New(1 << 16))))
		}},
		{Name: "add_hi", Degree: 2, Eval: func(r Row) field.M31 {
			return r.IsAdd.Mul(r.Rs1Hi.Add(r.Rs2Hi).Add(r.AddCarryLo).Sub(r.RdHi).Sub(r.AddCarryHi.Mul(field.New(1 << 16))))
		}},

		// SUB: rs1 = rs2 + rd (mod 2^32) — subtraction expressed as the
		// inverse of addition, same two-limb borrow-chain shape as ADD.
		selectorBoolean("sub_borrow_lo_boolean", func(r Row) field.M31 { return r.SubBorrowLo }),
		selectorBoolean("sub_borrow_hi_boolean", func(r Row) field.M31 { return r.SubBorrowHi }),
		{Name: "sub_lo", Degree: 2, Eval: func(r Row) field.M31 {
			return r.IsSub.Mul(r.Rs2Lo.Add(r.RdLo).Sub(r.Rs1Lo).Sub(r.SubBorrowLo.Mul(field.New(1 << 16))))
		}},
		{Name: "sub_hi", Degree: 2, Eval: func(r Row) field.M31 {
			return r.IsSub.Mul(r.Rs2Hi.Add(r.RdHi).Add(r.SubBorrowLo).Sub(r.Rs1Hi).Sub(r.SubBorrowHi.Mul(field.New(1 << 16))))
		}},

		// Bit-decomposition identities: whenever a bitwise or shift
		// instruction is active, the limb pair must equal the weighted sum
		// of the corresponding bit columns, and every bit column is
		// boolean.
		{Name: "rs1_bits_match_limbs", Degree: 2, Eval: func(r Row) field.M31 {
			gate := r.IsAnd.Add(r.IsOr).Add(r.IsXor).Add(r.IsSll).Add(r.IsSrl).Add(r.IsSra)
			word := r.Rs1Lo.Add(r.Rs1Hi.Mul(field.New(1 << 16)))
			return gate.Mul(weightedSum(r.Rs1Bits).Sub(word))
		}},
		{Name: "rs2_bits_match_limbs", Degree: 2, Eval: func(r Row) field.M31 {
			gate := r.IsAnd.Add(r.IsOr).Add(r.IsXor)
			word := r.Rs2Lo.Add(r.Rs2Hi.Mul(field.New(1 << 16)))
			return gate.Mul(weightedSum(r.Rs2Bits).Sub(word))
		}},
		{Name: "rd_bits_match_limbs", Degree: 2, Eval: func(r Row) field.M31 {
			gate := r.IsAnd.Add(r.IsOr).Add(r.IsXor).Add(r.IsSll).Add(r.IsSrl).Add(r.IsSra)
			word := r.RdLo.Add(r.RdHi.Mul(field.New(1 << 16)))
			return gate.Mul(weightedSum(r.RdBits).Sub(word))
		}},
	}

	for i := 0; i < 32; i++ {
		i := i
		cs = append(cs, bitBoolean("rs1_bit_boolean", func(r Row) field.M31 { return r.Rs1Bits[i] }))
		cs = append(cs, bitBoolean("rs2_bit_boolean", func(r Row) field.M31 { return r.Rs2Bits[i] }))
		cs = append(cs, bitBoolean("rd_bit_boolean", func(r Row) field.M31 { return r.RdBits[i] }))

		// AND/OR/XOR per-bit identities: out = a*b (AND), out = a+b-a*b
		// (OR), out = a+b-2*a*b (XOR), each gated by its own selector.
		cs = append(cs, Constraint{Name: "and_bit", Degree: 3, Eval: func(r Row) field.M31 {
			a, b, o := r.Rs1Bits[i], r.Rs2Bits[i], r.RdBits[i]
			return r.IsAnd.Mul(o.Sub(a.Mul(b)))
		}})
		cs = append(cs, Constraint{Name: "or_bit", Degree: 3, Eval: func(r Row) field.M31 {
			a, b, o := r.Rs1Bits[i], r.Rs2Bits[i], r.RdBits[i]
			return r.IsOr.Mul(o.Sub(a.Add(b).Sub(a.Mul(b))))
		}})
		cs = append(cs, Constraint{Name: "xor_bit", Degree: 3, Eval: func(r Row) field.M31 {
			a, b, o := r.Rs1Bits[i], r.Rs2Bits[i], r.RdBits[i]
			two := field.New(2)
			return r.IsXor.Mul(o.Sub(a.Add(b).Sub(two.Mul(a).Mul(b))))
		}})
	}

	cs = append(cs, shiftConstraints()...)
	cs = append(cs, controlFlowConstraints()...)
	return cs
}

// shiftConstraints implements SLL/SRL/SRA as the degree-2 selector-sum
// identity (a polynomial-identity construction, never a permutation
// argument): for each output bit position k, out[k] equals the sum over every
// possible shift amount m of a one-hot selector times the correctly
// permuted input bit, with sign extension for SRA.
func shiftConstraints() []Constraint {
	var cs []Constraint
	for m := 0; m < NumShiftSelectors; m++ {
		m := m
		cs = append(cs, bitBoolean("sll_amt_boolean", func(r Row) field.M31 { return r.SllAmt[m] }))
		cs = append(cs, bitBoolean("srl_amt_boolean", func(r Row) field.M31 { return r.SrlAmt[m] }))
		cs = append(cs, bitBoolean("sra_amt_boolean", func(r Row) field.M31 { return r.SraAmt[m] }))
	}
	cs = append(cs, Constraint{Name: "sll_amt_sums_to_selector", Degree: 1, Eval: func(r Row) field.M31 {
		sum := field.Zero
		for _, b := range r.SllAmt {
			sum = sum.Add(b)
		}
		return sum.Sub(r.IsSll)
	}})
	cs = append(cs, Constraint{Name: "srl_amt_sums_to_selector", Degree: 1, Eval: func(r Row) field.M31 {
		sum := field.Zero
		for _, b := range r.SrlAmt {
			sum = sum.Add(b)
		}
		return sum.Sub(r.IsSrl)
	}})
	cs = append(cs, Constraint{Name: "sra_amt_sums_to_selector", Degree: 1, Eval: func(r Row) field.M31 {
		sum := field.Zero
		for _, b := range r.SraAmt {
			sum = sum.Add(b)
		}
		return sum.Sub(r.IsSra)
	}})

	for k := 0; k < 32; k++ {
		k := k
		cs = append(cs, Constraint{Name: "shift_output_bit", Degree: 2, Eval: func(r Row) field.M31 {
			acc := field.Zero
			for m := 0; m < NumShiftSelectors; m++ {
				if k-m >= 0 {
					acc = acc.Add(r.SllAmt[m].Mul(r.Rs1Bits[k-m]))
				}
				if k+m < 32 {
					acc = acc.Add(r.SrlAmt[m].Mul(r.Rs1Bits[k+m]))
					acc = acc.Add(r.SraAmt[m].Mul(r.Rs1Bits[k+m]))
				} else {
					acc = acc.Add(r.SraAmt[m].Mul(r.Rs1Bits[31])) // sign extend
				}
			}
			gate := r.IsSll.Add(r.IsSrl).Add(r.IsSra)
			return gate.Mul(r.RdBits[k]).Sub(acc)
		}})
	}
	return cs
}

// controlFlowConstraints covers JAL/JALR/BEQ/BNE target and link-register
// identities. These instructions sit outside the strict AND/OR/ADD/shift
// catalogue but are required to make next_pc well
// defined for every selector referenced by pc_increment; BEQ/BNE decide
// equality through the limb zero-check gadget below.
func controlFlowConstraints() []Constraint {
	return []Constraint{
		selectorBoolean("is_jal_boolean", func(r Row) field.M31 { return r.IsJal }),
		selectorBoolean("is_jalr_boolean", func(r Row) field.M31 { return r.IsJalr }),
		selectorBoolean("is_beq_boolean", func(r Row) field.M31 { return r.IsBeq }),
		selectorBoolean("is_bne_boolean", func(r Row) field.M31 { return r.IsBne }),
		selectorBoolean("branch_taken_boolean", func(r Row) field.M31 { return r.BranchTaken }),

		{Name: "jal_next_pc", Degree: 2, Eval: func(r Row) field.M31 {
			target := r.PC.Add(r.ImmLo).Add(r.ImmHi.Mul(field.New(1 << 16)))
			return r.IsJal.Mul(r.NextPC.Sub(target))
		}},
		{Name: "jal_link", Degree: 3, Eval: func(r Row) field.M31 {
			link := r.PC.Add(field.New(4))
			return r.IsJal.Mul(field.One.Sub(r.RdIsX0)).Mul(r.RdLo.Add(r.RdHi.Mul(field.New(1 << 16))).Sub(link))
		}},
		{Name: "jalr_next_pc", Degree: 2, Eval: func(r Row) field.M31 {
			rs1 := r.Rs1Lo.Add(r.Rs1Hi.Mul(field.New(1 << 16)))
			imm := r.ImmLo.Add(r.ImmHi.Mul(field.New(1 << 16)))
			return r.IsJalr.Mul(r.NextPC.Sub(rs1.Add(imm)))
		}},

		// rs1/rs2 equality via the standard zero-check gadget: for each
		// limb, diff*Eq = 0 and diff*DiffInv + Eq = 1 together force Eq to
		// be exactly the boolean indicator "this limb's difference is
		// zero", with no separate boolean assertion needed — honest
		// witnesses are the only satisfying assignment.
		{Name: "eq_lo_zero_check", Degree: 2, Eval: func(r Row) field.M31 {
			return r.Rs1Lo.Sub(r.Rs2Lo).Mul(r.EqLo)
		}},
		{Name: "eq_lo_inverse_check", Degree: 2, Eval: func(r Row) field.M31 {
			return r.Rs1Lo.Sub(r.Rs2Lo).Mul(r.DiffLoInv).Add(r.EqLo).Sub(field.One)
		}},
		{Name: "eq_hi_zero_check", Degree: 2, Eval: func(r Row) field.M31 {
			return r.Rs1Hi.Sub(r.Rs2Hi).Mul(r.EqHi)
		}},
		{Name: "eq_hi_inverse_check", Degree: 2, Eval: func(r Row) field.M31 {
			return r.Rs1Hi.Sub(r.Rs2Hi).Mul(r.DiffHiInv).Add(r.EqHi).Sub(field.One)
		}},

		// BEQ/BNE: equality of rs1/rs2 decided via the limb zero-checks
		// above; the branch_taken witness selects between fallthrough and
		// target, and pc_increment defers to it through the shared
		// selector gate.
		{Name: "beq_taken_matches_equality", Degree: 3, Eval: func(r Row) field.M31 {
			isEqual := r.EqLo.Mul(r.EqHi)
			return r.IsBeq.Mul(r.BranchTaken.Sub(isEqual))
		}},
		{Name: "bne_taken_matches_inequality", Degree: 3, Eval: func(r Row) field.M31 {
			isEqual := r.EqLo.Mul(r.EqHi)
			return r.IsBne.Mul(r.BranchTaken.Sub(field.One.Sub(isEqual)))
		}},
		{Name: "branch_next_pc", Degree: 3, Eval: func(r Row) field.M31 {
			gate := r.IsBeq.Add(r.IsBne)
			target := r.PC.Add(r.ImmLo).Add(r.ImmHi.Mul(field.New(1 << 16)))
			fallthroughPC := r.PC.Add(field.New(4))
			chosen := fallthroughPC.Add(r.BranchTaken.Mul(target.Sub(fallthroughPC)))
			return gate.Mul(r.NextPC.Sub(chosen))
		}},
	}
}
