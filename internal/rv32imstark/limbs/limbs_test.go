package limbs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

func TestLimbsRoundTrip(t *testing.T) {
	words := []uint32{0, 1, 0xFFFF, 0x10000, 0x12345678, 0xFFFFFFFF}
	for _, w := range words {
		lo, hi := ToLimbs(w)
		got, err := FromLimbs(lo, hi)
		require.NoError(t, err)
		require.Equal(t, w, got)
	}
}

func TestFromLimbsRejectsOutOfRange(t *testing.T) {
	_, err := FromLimbs(field.New(Base), field.New(0))
	require.Error(t, err)
}

func TestBitDecompositionOfKnownWord(t *testing.T) {
	w := uint32(0x12345678)
	bits := Bits(w)

	lo, hi := LimbsFromBits(bits)
	require.Equal(t, uint32(0x5678), lo.Uint32())
	require.Equal(t, uint32(0x1234), hi.Uint32())
	require.Equal(t, w, FromBits(bits))

	for _, b := range bits {
		require.True(t, b.IsZero() || b.Equal(field.One))
	}
}

func TestFlippingABitChangesTheWord(t *testing.T) {
	w := uint32(0x12345678)
	bits := Bits(w)
	bits[5] = field.New(1 - bits[5].Uint32())
	require.NotEqual(t, w, FromBits(bits))
}
