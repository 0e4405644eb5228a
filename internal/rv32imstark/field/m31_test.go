package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestM31AddSubAreCanonical(t *testing.T) {
	a := New(Modulus - 1)
	b := New(5)
	sum := a.Add(b)
	require.Less(t, sum.Uint32(), Modulus)
	require.Equal(t, New(4), sum)

	diff := New(2).Sub(New(5))
	require.Less(t, diff.Uint32(), Modulus)
	require.Equal(t, New(Modulus-3), diff)
}

func TestM31MulIsCanonical(t *testing.T) {
	a := New(Modulus - 1)
	b := New(Modulus - 1)
	product := a.Mul(b)
	require.Less(t, product.Uint32(), Modulus)
	require.Equal(t, New(1), product)
}

func TestM31InvIsMultiplicativeInverse(t *testing.T) {
	for _, v := range []uint32{1, 2, 3, 12345, Modulus - 1} {
		a := New(v)
		inv, err := a.Inv()
		require.NoError(t, err)
		require.Equal(t, One, a.Mul(inv))
	}
}

func TestM31InvZeroFails(t *testing.T) {
	_, err := Zero.Inv()
	require.Error(t, err)
}

func TestM31BytesRoundTrip(t *testing.T) {
	a := New(0x12345678 % Modulus)
	require.Equal(t, a, FromBytes(a.Bytes()))
}

func TestM31ReductionOfOutOfRangeInput(t *testing.T) {
	require.Equal(t, Zero, New(Modulus))
}
