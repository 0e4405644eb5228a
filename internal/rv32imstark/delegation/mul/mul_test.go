package mul

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/delegation"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/limbs"
)

func limbPair(w uint32) (field.M31, field.M31) { return limbs.ToLimbs(w) }

func TestInvokeComputesTheHonestProduct(t *testing.T) {
	table := NewTable()
	rs1Lo, rs1Hi := limbPair(6)
	rs2Lo, rs2Hi := limbPair(7)
	lo, hi, err := table.Invoke(rs1Lo, rs1Hi, rs2Lo, rs2Hi)
	require.NoError(t, err)
	gotLo, gotHi := limbPair(42)
	require.Equal(t, gotLo, lo)
	require.Equal(t, gotHi, hi)
}

func TestRepeatedInputsAccumulateMultiplicity(t *testing.T) {
	table := NewTable()
	rs1Lo, rs1Hi := limbPair(3)
	rs2Lo, rs2Hi := limbPair(5)
	_, _, err := table.Invoke(rs1Lo, rs1Hi, rs2Lo, rs2Hi)
	require.NoError(t, err)
	_, _, err = table.Invoke(rs1Lo, rs1Hi, rs2Lo, rs2Hi)
	require.NoError(t, err)
	otherLo, otherHi := limbPair(9)
	_, _, err = table.Invoke(otherLo, otherHi, rs2Lo, rs2Hi)
	require.NoError(t, err)

	require.Len(t, table.Tuples(), 2)
	require.Contains(t, table.Multiplicities(), field.New(2))
}

func TestCPUAndTableSidesAgreeViaRationalSum(t *testing.T) {
	table := NewTable()
	rs1Lo, rs1Hi := limbPair(11)
	rs2Lo, rs2Hi := limbPair(13)
	lo, hi, err := table.Invoke(rs1Lo, rs1Hi, rs2Lo, rs2Hi)
	require.NoError(t, err)

	cpuTuples := [][]field.M31{Tuple(rs1Lo, rs1Hi, rs2Lo, rs2Hi, lo, hi)}
	cpuMult := []field.M31{field.One}

	challenge := field.NewQM31(field.New(7), field.New(0), field.New(0), field.New(0))
	gamma := field.NewQM31(field.New(0), field.New(1), field.New(0), field.New(0))

	lhs, err := delegation.RationalSum(challenge, cpuTuples, cpuMult, gamma)
	require.NoError(t, err)
	rhs, err := delegation.RationalSum(challenge, table.Tuples(), table.Multiplicities(), gamma)
	require.NoError(t, err)
	require.True(t, lhs.Equal(rhs))
}

func TestADishonestClaimedProductBreaksTheRationalSum(t *testing.T) {
	table := NewTable()
	rs1Lo, rs1Hi := limbPair(11)
	rs2Lo, rs2Hi := limbPair(13)
	_, _, err := table.Invoke(rs1Lo, rs1Hi, rs2Lo, rs2Hi)
	require.NoError(t, err)

	wrongLo, wrongHi := limbPair(999)
	cpuTuples := [][]field.M31{Tuple(rs1Lo, rs1Hi, rs2Lo, rs2Hi, wrongLo, wrongHi)}
	cpuMult := []field.M31{field.One}

	challenge := field.NewQM31(field.New(7), field.New(0), field.New(0), field.New(0))
	gamma := field.NewQM31(field.New(0), field.New(1), field.New(0), field.New(0))

	lhs, err := delegation.RationalSum(challenge, cpuTuples, cpuMult, gamma)
	require.NoError(t, err)
	rhs, err := delegation.RationalSum(challenge, table.Tuples(), table.Multiplicities(), gamma)
	require.NoError(t, err)
	require.False(t, lhs.Equal(rhs))
}
