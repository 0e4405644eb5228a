// Package integration exercises the repo end to end through the public
// rv32imstark API, plus a few internal-package checks (the CPU AIR's
// constraint catalogue, Merkle openings) that have no public surface of
// their own but are load-bearing for everything above them.
package integration

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/air"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/merkle"
	"github.com/circleproof/rv32im-stark/pkg/rv32imstark"
)

func assembleWords(words ...uint32) []byte {
	mem := make([]byte, executor.MemorySize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(mem[i*4:], w)
	}
	return mem
}

func tinyConfig() *rv32imstark.Config {
	return &rv32imstark.Config{
		LogTraceLen:      4,
		BlowupFactor:     4,
		NumQueries:       8,
		FriFoldingFactor: 2,
		SecurityBits:     1,
	}
}

func newImage(words ...uint32) *rv32imstark.Image {
	return &rv32imstark.Image{Memory: assembleWords(words...), Entry: 0}
}

func requireSatisfiesCatalogue(t *testing.T, row air.Row) {
	t.Helper()
	for _, c := range air.Catalogue() {
		require.True(t, c.Eval(row).IsZero(), "constraint %q failed on an honest row", c.Name)
	}
}

func TestTraceClockIncrementsOnePerRow(t *testing.T) {
	img := newImage(
		executor.ADDI(1, 0, 1),
		executor.ADDI(1, 1, 1),
		executor.ADDI(1, 1, 1),
		executor.EBREAK(),
	)
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	rows, err := s.Run(10)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, r := range rows {
		require.Equal(t, uint32(i), r.Clock.Uint32())
	}
}

func TestADDRowSatisfiesEveryCatalogueConstraint(t *testing.T) {
	img := newImage(executor.ADDI(1, 0, 5), executor.ADD(2, 1, 1), executor.EBREAK())
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	rows, err := s.Run(10)
	require.NoError(t, err)

	requireSatisfiesCatalogue(t, rows[1]) // the ADD instruction
}

func TestX0WriteNeverChangesRegisterZero(t *testing.T) {
	img := newImage(executor.ADDI(0, 0, 123), executor.EBREAK())
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(0), s.Regs[0])
}

func TestBitwiseANDRowDecomposesIntoConsistentBits(t *testing.T) {
	img := newImage(executor.ADDI(1, 0, 0b1010), executor.ANDI(2, 1, 0b0110), executor.EBREAK())
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	rows, err := s.Run(10)
	require.NoError(t, err)

	requireSatisfiesCatalogue(t, rows[1])
	require.Equal(t, uint32(0b0010), s.Regs[2])
}

func TestSRAPreservesSignAndSatisfiesConstraints(t *testing.T) {
	img := newImage(executor.ADDI(1, 0, -8), executor.ADDI(2, 0, 1), executor.SRA(3, 1, 2), executor.EBREAK())
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	rows, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(int32(-4)), s.Regs[3])

	requireSatisfiesCatalogue(t, rows[2])
}

func TestMerklePathOpensAndVerifiesEveryLeaf(t *testing.T) {
	rows := [][]field.M31{
		{field.New(1), field.New(2), field.New(3)},
		{field.New(4), field.New(5), field.New(6)},
		{field.New(7), field.New(8), field.New(9)},
	}
	tree, err := merkle.Commit(rows)
	require.NoError(t, err)

	for i := range rows {
		path, err := tree.Open(i)
		require.NoError(t, err)
		require.True(t, merkle.Verify(tree.Root(), i, rows[i], path))
	}

	path, err := tree.Open(0)
	require.NoError(t, err)
	tampered := []field.M31{rows[0][0].Add(field.One), rows[0][1], rows[0][2]}
	require.False(t, merkle.Verify(tree.Root(), 0, tampered, path))
}

func TestFibonacciGuestProvesAndVerifiesEndToEnd(t *testing.T) {
	img := newImage(
		executor.ADDI(1, 0, 0),
		executor.ADDI(2, 0, 1),
		executor.ADDI(3, 0, 9),
		executor.ADD(4, 1, 2),
		executor.ADDI(1, 2, 0),
		executor.ADDI(2, 4, 0),
		executor.ADDI(3, 3, -1),
		executor.BNE(3, 0, -16),
		executor.EBREAK(),
	)
	cfg := tinyConfig().WithLogTraceLen(6)

	result, err := rv32imstark.Prove(img, cfg)
	require.NoError(t, err)
	require.NoError(t, rv32imstark.Verify(result.Proof, cfg))
}

func TestMemoryRoundTripStoreThenLoad(t *testing.T) {
	img := newImage(
		executor.ADDI(1, 0, 100), // x1 = base address
		executor.ADDI(2, 0, 77),  // x2 = value
		executor.SW(1, 2, 0),     // mem[100] = 77
		executor.LW(3, 1, 0),     // x3 = mem[100]
		executor.EBREAK(),
	)
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(77), s.Regs[3])
}

func TestUnalignedStoreIsRejected(t *testing.T) {
	img := newImage(
		executor.ADDI(1, 0, 101), // unaligned address
		executor.ADDI(2, 0, 1),
		executor.SW(1, 2, 0),
		executor.EBREAK(),
	)
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: img.Entry})
	_, err := s.Run(10)
	require.Error(t, err)
	var execErr *executor.Error
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, executor.ErrUnalignedAccess, execErr.Code)
}

func TestGuestHelloWritesPublicOutputCommitment(t *testing.T) {
	hi, lo := splitUpperLower(executor.PublicOutputAddr)
	img := newImage(
		executor.LUI(1, int32(hi)),
		executor.ADDI(1, 1, lo),
		executor.ADDI(2, 0, 0x2a), // 42
		executor.SW(1, 2, 0),
		executor.EBREAK(),
	)
	cfg := tinyConfig().WithLogTraceLen(5)

	result, err := rv32imstark.Prove(img, cfg)
	require.NoError(t, err)
	require.Equal(t, uint32(0x2a), result.PublicOutput[0])
	require.NoError(t, rv32imstark.Verify(result.Proof, cfg))
}

// splitUpperLower decomposes a 32-bit address into the (LUI hi, ADDI lo)
// pair RV32I uses to materialize a constant wider than a 12-bit immediate.
func splitUpperLower(addr uint32) (hi uint32, lo int32) {
	lo64 := int64(addr) & 0xFFF
	if lo64 >= 0x800 {
		lo64 -= 0x1000
	}
	hi64 := int64(addr) - lo64
	return uint32(hi64), int32(lo64)
}
