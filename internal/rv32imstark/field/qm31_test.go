package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQM31InverseRoundTrip(t *testing.T) {
	x := NewQM31(New(1), New(2), New(3), New(4))
	inv, err := x.Inv()
	require.NoError(t, err)
	require.True(t, x.Mul(inv).Equal(QM31One))
}

func TestQM31InverseZeroFails(t *testing.T) {
	_, err := QM31Zero.Inv()
	require.Error(t, err)
}

func TestQM31EmbedsBase(t *testing.T) {
	a := New(7)
	emb := FromBase(a)
	c0, c1, c2, c3 := emb.Components()
	require.Equal(t, a, c0)
	require.True(t, c1.IsZero())
	require.True(t, c2.IsZero())
	require.True(t, c3.IsZero())
}

func TestQM31MulDistributesOverAdd(t *testing.T) {
	x := NewQM31(New(1), New(2), New(3), New(4))
	y := NewQM31(New(5), New(6), New(7), New(8))
	z := NewQM31(New(9), New(10), New(11), New(12))

	lhs := x.Mul(y.Add(z))
	rhs := x.Mul(y).Add(x.Mul(z))
	require.True(t, lhs.Equal(rhs))
}
