package circle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

func TestGeneratorIsOnTheCircle(t *testing.T) {
	sum := Generator.X.Mul(Generator.X).Add(Generator.Y.Mul(Generator.Y))
	require.True(t, sum.Equal(field.One))
}

func TestSubgroupGeneratorHasRequestedOrder(t *testing.T) {
	g := SubgroupGenerator(8)
	p := Identity
	for i := 0; i < 8; i++ {
		if i > 0 {
			require.False(t, p.Equal(Identity), "subgroup generator returned to identity early")
		}
		p = p.Add(g)
	}
	require.True(t, p.Equal(Identity))
}

func TestStandardDomainIsOnTheCircle(t *testing.T) {
	d, err := NewStandardDomain(4)
	require.NoError(t, err)
	require.Equal(t, 16, d.Size())
	for _, p := range d.Points {
		sum := p.X.Mul(p.X).Add(p.Y.Mul(p.Y))
		require.True(t, sum.Equal(field.One))
	}
}

func TestDomainIsTwinCoset(t *testing.T) {
	d, err := NewStandardDomain(3)
	require.NoError(t, err)
	half := d.Size() / 2
	for i := 0; i < half; i++ {
		require.True(t, d.Points[i].Conjugate().Equal(d.Points[half+i]))
	}
}

func TestFFTRoundTrip(t *testing.T) {
	d, err := NewStandardDomain(4)
	require.NoError(t, err)

	values := make([]field.M31, d.Size())
	for i := range values {
		values[i] = field.New(uint32(i*97 + 3))
	}

	coeffs, err := Interpolate(d, values)
	require.NoError(t, err)
	require.Len(t, coeffs, d.Size())

	back, err := Evaluate(d, coeffs)
	require.NoError(t, err)
	require.Equal(t, values, back)
}

func TestExtendColumnSameSizeIsIdentity(t *testing.T) {
	d, err := NewStandardDomain(3)
	require.NoError(t, err)
	values := []field.M31{field.New(1), field.New(2), field.New(3), field.New(4), field.New(5), field.New(6), field.New(7), field.New(8)}
	out, err := ExtendColumn(d, d, values)
	require.NoError(t, err)
	require.Equal(t, values, out)
}

func TestExtendColumnOfConstantIsConstant(t *testing.T) {
	small, err := NewStandardDomain(3)
	require.NoError(t, err)
	large, err := NewStandardDomain(5)
	require.NoError(t, err)

	c := field.New(42)
	values := make([]field.M31, small.Size())
	for i := range values {
		values[i] = c
	}

	out, err := ExtendColumn(small, large, values)
	require.NoError(t, err)
	for _, v := range out {
		require.True(t, v.Equal(c))
	}
}
