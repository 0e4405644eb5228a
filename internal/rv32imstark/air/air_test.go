package air

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

func zeroRow() Row {
	return Row{}
}

func evalAll(t *testing.T, row Row) map[string]field.M31 {
	t.Helper()
	out := make(map[string]field.M31)
	for _, c := range Catalogue() {
		v := c.Eval(row)
		// Only the last evaluation per name is kept: duplicate-named bit
		// constraints overwrite earlier ones, so tests below only assert on
		// uniquely named constraints.
		out[c.Name] = v
	}
	return out
}

func TestIdleRowSatisfiesSelectorBooleanAndX0Constraints(t *testing.T) {
	row := zeroRow()
	row.EqLo = field.One
	row.EqHi = field.One
	results := evalAll(t, row)
	require.True(t, results["rd_is_x0_boolean"].IsZero())
	require.True(t, results["x0_write_is_zero"].IsZero())
	require.True(t, results["eq_lo_zero_check"].IsZero())
	require.True(t, results["eq_lo_inverse_check"].IsZero())
}

func TestPCIncrementHoldsForNonControlFlowRow(t *testing.T) {
	row := zeroRow()
	row.PC = field.New(100)
	row.NextPC = field.New(104)
	results := evalAll(t, row)
	require.True(t, results["pc_increment"].IsZero())
}

func TestPCIncrementFailsOnWrongTarget(t *testing.T) {
	row := zeroRow()
	row.PC = field.New(100)
	row.NextPC = field.New(108)
	results := evalAll(t, row)
	require.False(t, results["pc_increment"].IsZero())
}

func TestAddConstraintHoldsWithCorrectCarry(t *testing.T) {
	row := zeroRow()
	row.IsAdd = field.One
	row.Rs1Lo = field.New(60000)
	row.Rs2Lo = field.New(10000)
	// 60000+10000 = 70000 = 1*2^16 + 4464
	row.RdLo = field.New(70000 - 65536)
	row.AddCarryLo = field.One
	row.Rs1Hi = field.New(1)
	row.Rs2Hi = field.New(2)
	row.RdHi = field.New(4) // 1+2+carry(1) = 4
	results := evalAll(t, row)
	require.True(t, results["add_lo"].IsZero())
	require.True(t, results["add_hi"].IsZero())
	require.True(t, results["add_carry_lo_boolean"].IsZero())
}

func TestAddConstraintFailsWithoutCarry(t *testing.T) {
	row := zeroRow()
	row.IsAdd = field.One
	row.Rs1Lo = field.New(60000)
	row.Rs2Lo = field.New(10000)
	row.RdLo = field.New(70000 - 65536)
	row.AddCarryLo = field.Zero // wrong: should be 1
	results := evalAll(t, row)
	require.False(t, results["add_lo"].IsZero())
}

func TestAndBitIdentity(t *testing.T) {
	row := zeroRow()
	row.IsAnd = field.One
	row.Rs1Bits[0] = field.One
	row.Rs2Bits[0] = field.One
	row.RdBits[0] = field.One // 1 AND 1 = 1
	c := findConstraint(t, "and_bit")
	require.True(t, c.Eval(row).IsZero())

	row.RdBits[0] = field.Zero // wrong
	require.False(t, c.Eval(row).IsZero())
}

func TestShiftOutputBitForSLLByOne(t *testing.T) {
	row := zeroRow()
	row.IsSll = field.One
	row.SllAmt[1] = field.One
	row.Rs1Bits[0] = field.One // input bit 0 set
	row.RdBits[1] = field.One  // expect output bit 1 set after <<1

	c := findConstraint(t, "shift_output_bit")
	_ = c // multiple constraints share this name, one per output bit position
	// Re-run the full catalogue and check every shift_output_bit evaluates
	// to zero for this witness.
	for _, cst := range Catalogue() {
		if cst.Name == "shift_output_bit" {
			require.True(t, cst.Eval(row).IsZero())
		}
	}
}

func TestBranchTakenMatchesEquality(t *testing.T) {
	row := zeroRow()
	row.IsBeq = field.One
	row.Rs1Lo, row.Rs2Lo = field.New(5), field.New(5)
	row.Rs1Hi, row.Rs2Hi = field.New(0), field.New(0)
	row.EqLo, row.EqHi = field.One, field.One
	row.BranchTaken = field.One
	c := findConstraint(t, "beq_taken_matches_equality")
	require.True(t, c.Eval(row).IsZero())
}

func findConstraint(t *testing.T, name string) Constraint {
	t.Helper()
	for _, c := range Catalogue() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("constraint %q not found", name)
	return Constraint{}
}

func TestComposeMatchesManualSum(t *testing.T) {
	cat := []Constraint{
		{Name: "a", Degree: 1, Eval: func(Row) field.M31 { return field.New(3) }},
		{Name: "b", Degree: 1, Eval: func(Row) field.M31 { return field.New(5) }},
	}
	alphas := []field.QM31{field.QM31One, field.QM31One}
	got := Compose(cat, zeroRow(), alphas)
	want := field.QM31One.MulM31(field.New(3)).Add(field.QM31One.MulM31(field.New(5)))
	require.True(t, got.Equal(want))
}
