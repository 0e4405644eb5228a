package fri

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/circle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

func constantValues(n int, v field.QM31) []field.QM31 {
	out := make([]field.QM31, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestFoldCircleOfConstantStaysConstant(t *testing.T) {
	domain, err := circle.NewStandardDomain(4)
	require.NoError(t, err)
	v := field.NewQM31(field.New(9), field.New(0), field.New(0), field.New(0))
	values := constantValues(domain.Size(), v)

	beta := field.NewQM31(field.New(3), field.New(1), field.New(0), field.New(0))
	_, folded, err := FoldCircle(domain, values, beta)
	require.NoError(t, err)
	for _, f := range folded {
		require.True(t, f.Equal(v))
	}
}

func TestFoldLinearOfConstantStaysConstant(t *testing.T) {
	domain, err := circle.NewStandardDomain(4)
	require.NoError(t, err)
	xs := domain.XCoords()
	v := field.NewQM31(field.New(5), field.New(0), field.New(0), field.New(0))
	values := constantValues(len(xs), v)

	beta := field.NewQM31(field.New(2), field.New(0), field.New(0), field.New(0))
	_, folded, err := FoldLinear(xs, values, beta)
	require.NoError(t, err)
	for _, f := range folded {
		require.True(t, f.Equal(v))
	}
}

func TestProveReachesFinalLenAndCommitsEveryLayer(t *testing.T) {
	domain, err := circle.NewStandardDomain(6) // size 64
	require.NoError(t, err)
	v := field.NewQM31(field.New(42), field.New(1), field.New(2), field.New(3))
	values := constantValues(domain.Size(), v)

	betas := make([]field.QM31, 10)
	for i := range betas {
		betas[i] = field.NewQM31(field.New(uint32(i+1)), field.New(1), field.New(0), field.New(0))
	}

	layers, final, err := Prove(domain, values, betas, 4)
	require.NoError(t, err)
	require.NotEmpty(t, layers)
	require.Len(t, final, 4)
	for _, f := range final {
		require.True(t, f.Equal(v))
	}
	for _, l := range layers {
		require.NotZero(t, l.Commitment)
	}
}

func TestOpenIndexAndVerifyFoldRoundTrip(t *testing.T) {
	domain, err := circle.NewStandardDomain(5) // size 32
	require.NoError(t, err)
	values := make([]field.QM31, domain.Size())
	for i := range values {
		values[i] = field.NewQM31(field.New(uint32(i)), field.New(0), field.New(0), field.New(0))
	}
	beta := field.NewQM31(field.New(7), field.New(0), field.New(0), field.New(0))

	xs, folded, err := FoldCircle(domain, values, beta)
	require.NoError(t, err)

	layer, err := commitLayer(xs, folded)
	require.NoError(t, err)

	path, v, err := layer.OpenIndex(0)
	require.NoError(t, err)
	require.True(t, v.Equal(folded[0]))
	require.NotNil(t, path)

	half := domain.Size() / 2
	ok, err := VerifyFold(domain.Points[0].Y, values[0], values[half], folded[0], beta)
	require.NoError(t, err)
	require.True(t, ok)
}
