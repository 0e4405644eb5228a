package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/config"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/proof"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/prover"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/verifier"
)

func assembleWords(words ...uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func buildProof(t *testing.T) (*config.Params, *proof.Proof) {
	t.Helper()
	mem := make([]byte, executor.MemorySize)
	copy(mem, assembleWords(
		executor.ADDI(1, 0, 3),
		executor.ADDI(2, 0, 4),
		executor.ADD(3, 1, 2),
		executor.EBREAK(),
	))
	s := executor.NewState(&executor.LoadedImage{Memory: mem, Entry: 0})
	rows, err := s.Run(10)
	require.NoError(t, err)

	cfg := &config.Params{
		LogTraceLen:      3,
		BlowupFactor:     4,
		NumQueries:       4,
		FriFoldingFactor: 2,
		SecurityBits:     1,
	}
	pf, err := prover.Prove(rows, cfg)
	require.NoError(t, err)
	return cfg, pf
}

func TestJSONRoundTripPreservesVerifiability(t *testing.T) {
	cfg, pf := buildProof(t)

	data, err := EncodeJSON(pf)
	require.NoError(t, err)
	require.Contains(t, string(data), "trace_commitment")

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(decoded, cfg))
}

func TestBinaryRoundTripPreservesVerifiability(t *testing.T) {
	cfg, pf := buildProof(t)

	data, err := EncodeBinary(pf)
	require.NoError(t, err)

	decoded, err := DecodeBinary(data)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(decoded, cfg))
}

func TestBinaryDecodeRejectsTruncatedInput(t *testing.T) {
	_, pf := buildProof(t)
	data, err := EncodeBinary(pf)
	require.NoError(t, err)

	_, err = DecodeBinary(data[:len(data)-1])
	require.Error(t, err)
}

func TestBinaryDecodeRejectsTrailingBytes(t *testing.T) {
	_, pf := buildProof(t)
	data, err := EncodeBinary(pf)
	require.NoError(t, err)

	_, err = DecodeBinary(append(data, 0x00))
	require.Error(t, err)
}

func TestJSONDecodeRejectsMalformedDigest(t *testing.T) {
	_, pf := buildProof(t)
	data, err := EncodeJSON(pf)
	require.NoError(t, err)

	jp := string(data)
	// corrupt the trace_commitment hex string's first occurrence's content.
	idx := indexOfHexValueField(jp, "trace_commitment")
	require.GreaterOrEqual(t, idx, 0)
	corrupted := jp[:idx] + "zz" + jp[idx+2:]

	_, err = DecodeJSON([]byte(corrupted))
	require.Error(t, err)
}

// indexOfHexValueField finds the offset of the first hex character of the
// quoted string value following `"field":` in a JSON document, assuming
// standard MarshalIndent formatting (`"field": "hexvalue"`).
func indexOfHexValueField(doc, field string) int {
	key := "\"" + field + "\": \""
	i := indexOf(doc, key)
	if i < 0 {
		return -1
	}
	return i + len(key)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
