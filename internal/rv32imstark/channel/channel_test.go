package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

func TestChannelDeterminism(t *testing.T) {
	c1 := New([]byte("rv32im-stark/v1"))
	c2 := New([]byte("rv32im-stark/v1"))

	for i := 0; i < 5; i++ {
		c1.Observe(field.New(uint32(i * 7)))
		c2.Observe(field.New(uint32(i * 7)))
	}

	for i := 0; i < 10; i++ {
		require.Equal(t, c1.Sample(), c2.Sample())
	}
}

func TestChannelDomainSeparatorChangesOutput(t *testing.T) {
	c1 := New([]byte("protocol-a"))
	c2 := New([]byte("protocol-b"))
	require.NotEqual(t, c1.Sample(), c2.Sample())
}

func TestChannelObserveSequenceMatters(t *testing.T) {
	c1 := New([]byte("seq"))
	c1.Observe(field.New(1))
	c1.Observe(field.New(2))

	c2 := New([]byte("seq"))
	c2.Observe(field.New(2))
	c2.Observe(field.New(1))

	require.NotEqual(t, c1.Sample(), c2.Sample())
}

func TestSampleQueryIndicesInRange(t *testing.T) {
	c := New([]byte("queries"))
	indices := c.SampleQueryIndices(20, 64)
	require.Len(t, indices, 20)
	for _, idx := range indices {
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 64)
	}
}

func TestObserveCommitmentIsDeterministic(t *testing.T) {
	var h [32]byte
	for i := range h {
		h[i] = byte(i)
	}
	c1 := New([]byte("commit"))
	c1.ObserveCommitment(h)
	c2 := New([]byte("commit"))
	c2.ObserveCommitment(h)
	require.Equal(t, c1.SampleQM31(), c2.SampleQM31())
}
