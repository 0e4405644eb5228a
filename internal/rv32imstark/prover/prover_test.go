package prover

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/air"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/config"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
)

func testConfig() *config.Params {
	return &config.Params{
		LogTraceLen:      3,
		BlowupFactor:     4,
		NumQueries:       4,
		FriFoldingFactor: 2,
		SecurityBits:     1,
	}
}

func assembleWords(words ...uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func tinyTrace(t *testing.T) []air.Row {
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
	require.Len(t, rows, 4)
	return rows
}

func TestProveProducesAWellFormedProof(t *testing.T) {
	rows := tinyTrace(t)
	cfg := testConfig()

	pf, err := Prove(rows, cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.TraceLen(), pf.TraceLen)
	require.Equal(t, cfg.TraceLen()*cfg.BlowupFactor, pf.LDELen)
	require.Equal(t, air.NumColumns, pf.NumColumns)
	require.Len(t, pf.Queries, cfg.NumQueries)
	require.NotEmpty(t, pf.FRILayerCommitments)
	require.NotEmpty(t, pf.FRIFinalValues)
	for _, q := range pf.Queries {
		require.NotNil(t, q.TracePathA)
		require.NotNil(t, q.TracePathB)
		require.NotNil(t, q.CompositionPathA)
		require.NotNil(t, q.CompositionPathB)
		require.Len(t, q.FRILayers, len(pf.FRILayerCommitments))
	}
}

func TestProveRejectsTraceLongerThanConfiguredLength(t *testing.T) {
	cfg := testConfig()
	oversized := make([]air.Row, cfg.TraceLen()+1)
	_, err := Prove(oversized, cfg)
	require.Error(t, err)
}

func TestProveRejectsInvalidConfig(t *testing.T) {
	rows := tinyTrace(t)
	cfg := testConfig()
	cfg.BlowupFactor = 3 // not a power of two
	_, err := Prove(rows, cfg)
	require.Error(t, err)
}
