package rv32imstark

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
)

func assembleWords(words ...uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func tinyImage() *Image {
	mem := make([]byte, executor.MemorySize)
	copy(mem, assembleWords(
		executor.ADDI(1, 0, 3),
		executor.ADDI(2, 0, 4),
		executor.ADD(3, 1, 2),
		executor.EBREAK(),
	))
	return &Image{Memory: mem, Entry: 0}
}

func tinyConfig() *Config {
	return &Config{
		LogTraceLen:      3,
		BlowupFactor:     4,
		NumQueries:       4,
		FriFoldingFactor: 2,
		SecurityBits:     1,
	}
}

func TestRunReturnsPublicOutput(t *testing.T) {
	img := tinyImage()
	_, steps, err := Run(img, tinyConfig(), 10)
	require.NoError(t, err)
	require.Equal(t, 4, steps)
}

func TestProveThenVerifyAccepts(t *testing.T) {
	img := tinyImage()
	cfg := tinyConfig()

	result, err := Prove(img, cfg)
	require.NoError(t, err)
	require.NotNil(t, result.Proof)
	require.Equal(t, 4, result.StepsExecuted)

	require.NoError(t, Verify(result.Proof, cfg))
}

func TestProveRejectsInvalidConfig(t *testing.T) {
	img := tinyImage()
	cfg := tinyConfig()
	cfg.BlowupFactor = 3

	_, err := Prove(img, cfg)
	require.Error(t, err)
	var rverr *Error
	require.ErrorAs(t, err, &rverr)
	require.Equal(t, ErrInvalidConfig, rverr.Code)
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	img := tinyImage()
	cfg := tinyConfig()

	result, err := Prove(img, cfg)
	require.NoError(t, err)

	result.Proof.Queries[0].Index ^= 1
	err = Verify(result.Proof, cfg)
	require.Error(t, err)
}

func TestProofRoundTripsThroughBinaryCodec(t *testing.T) {
	img := tinyImage()
	cfg := tinyConfig()

	result, err := Prove(img, cfg)
	require.NoError(t, err)

	data, err := EncodeProofBinary(result.Proof)
	require.NoError(t, err)
	decoded, err := DecodeProofBinary(data)
	require.NoError(t, err)
	require.NoError(t, Verify(decoded, cfg))
}
