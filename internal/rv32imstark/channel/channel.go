package channel

import (
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// Channel is a Fiat-Shamir transcript: a duplex sponge over the Poseidon2
// permutation. Its lifecycle is observe/sample only — it is never reset.
//
// The domain separator is absorbed into the capacity lanes of the initial
// state before any proof data, so that two channels for different protocols
// (or different configs) never produce colliding transcripts even if fed
// identical observe sequences. No fixed RNG seed is used anywhere.
type Channel struct {
	state      [Width]field.M31
	rateHead   int // next free slot in the rate portion, [0, Rate)
	squeezeBuf []field.M31
}

// New creates a channel seeded with domain separator bytes (e.g. a protocol
// name and version), absorbed into the capacity lanes.
func New(domainSeparator []byte) *Channel {
	c := &Channel{}
	for i := 0; i < Capacity; i++ {
		var chunk [4]byte
		for j := 0; j < 4; j++ {
			idx := i*4 + j
			if idx < len(domainSeparator) {
				chunk[j] = domainSeparator[idx]
			}
		}
		c.state[Rate+i] = field.FromBytes(chunk)
	}
	Permute(&c.state)
	return c
}

// absorb mixes one field element into the next free rate slot, permuting
// once the rate portion fills up.
func (c *Channel) absorb(x field.M31) {
	c.state[c.rateHead] = c.state[c.rateHead].Add(x)
	c.rateHead++
	c.squeezeBuf = nil // any pending squeeze output is now stale
	if c.rateHead == Rate {
		Permute(&c.state)
		c.rateHead = 0
	}
}

// Observe absorbs one M31 element into the transcript.
func (c *Channel) Observe(x field.M31) {
	c.absorb(x)
}

// ObserveSlice observes a sequence of elements in order.
func (c *Channel) ObserveSlice(xs []field.M31) {
	for _, x := range xs {
		c.Observe(x)
	}
}

// ObserveCommitment observes a 32-byte hash by chunking it into eight
// 4-byte little-endian elements reduced modulo p.
func (c *Channel) ObserveCommitment(h [32]byte) {
	for i := 0; i < 8; i++ {
		var chunk [4]byte
		copy(chunk[:], h[i*4:i*4+4])
		c.Observe(field.FromCommitmentChunk(chunk))
	}
}

// ensureSqueezable permutes the state (if the rate has been written to
// since the last permutation or last squeeze) and refills the squeeze
// buffer from the rate lanes.
func (c *Channel) ensureSqueezable() {
	if len(c.squeezeBuf) > 0 {
		return
	}
	if c.rateHead != 0 {
		Permute(&c.state)
		c.rateHead = 0
	}
	c.squeezeBuf = append([]field.M31(nil), c.state[:Rate]...)
	Permute(&c.state)
}

// Sample squeezes one M31 element.
func (c *Channel) Sample() field.M31 {
	c.ensureSqueezable()
	v := c.squeezeBuf[0]
	c.squeezeBuf = c.squeezeBuf[1:]
	return v
}

// SampleQM31 squeezes four elements and assembles a QM31 challenge.
func (c *Channel) SampleQM31() field.QM31 {
	c0 := c.Sample()
	c1 := c.Sample()
	c2 := c.Sample()
	c3 := c.Sample()
	return field.NewQM31(c0, c1, c2, c3)
}

// SampleQueryIndices squeezes n elements, each reduced modulo domainSize,
// for the FRI/trace query phase.
func (c *Channel) SampleQueryIndices(n, domainSize int) []int {
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		indices[i] = int(c.Sample().Uint32()) % domainSize
	}
	return indices
}
