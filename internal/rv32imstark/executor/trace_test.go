package executor

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func assemble(words ...uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func newTestState(t *testing.T, words ...uint32) *State {
	t.Helper()
	mem := make([]byte, MemorySize)
	copy(mem, assemble(words...))
	return NewState(&LoadedImage{Memory: mem, Entry: 0})
}

func TestADDIAccumulatesIntoRegister(t *testing.T) {
	s := newTestState(t, ADDI(1, 0, 5), ADDI(1, 1, 7), EBREAK())
	rows, err := s.Run(10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, uint32(12), s.Regs[1])
}

func TestXORRegisterAgainstItselfIsZero(t *testing.T) {
	s := newTestState(t, ADDI(1, 0, 42), XOR(2, 1, 1), EBREAK())
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(0), s.Regs[2])
}

func TestSLLShiftsLeft(t *testing.T) {
	s := newTestState(t, ADDI(1, 0, 1), ADDI(2, 0, 4), SLL(3, 1, 2), EBREAK())
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(16), s.Regs[3])
}

func TestSRAPreservesSign(t *testing.T) {
	s := newTestState(t, ADDI(1, 0, -8), ADDI(2, 0, 1), SRA(3, 1, 2), EBREAK())
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(int32(-4)), s.Regs[3])
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	s := newTestState(t,
		ADDI(1, 0, 1),
		ADDI(2, 0, 2),
		BEQ(1, 2, 12), // not taken: 1 != 2
		ADDI(3, 0, 99),
		EBREAK(),
	)
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(99), s.Regs[3])
}

func TestBranchTakenSkipsFallthrough(t *testing.T) {
	s := newTestState(t,
		ADDI(1, 0, 5),
		ADDI(2, 0, 5),
		BEQ(1, 2, 8), // taken: 5 == 5, skip next instruction (pc 8 -> 16)
		ADDI(3, 0, 99),
		ADDI(3, 0, 7),
		EBREAK(),
	)
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(7), s.Regs[3])
}

func TestX0WritesAreDiscarded(t *testing.T) {
	s := newTestState(t, ADDI(0, 0, 123), EBREAK())
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(0), s.Regs[0])
}

func TestJALLinksReturnAddress(t *testing.T) {
	s := newTestState(t, JAL(1, 8), ADDI(2, 0, 1), ADDI(3, 0, 2), EBREAK())
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(4), s.Regs[1]) // pc(0)+4
	require.Equal(t, uint32(0), s.Regs[2]) // skipped
}

func TestMULComputesLowWord(t *testing.T) {
	s := newTestState(t, ADDI(1, 0, 6), ADDI(2, 0, 7), MUL(3, 1, 2), EBREAK())
	_, err := s.Run(10)
	require.NoError(t, err)
	require.Equal(t, uint32(42), s.Regs[3])
}

func TestFibonacciLoop(t *testing.T) {
	// x1=prev=0, x2=cur=1, x3=counter=9
	// loop: x4 = x1+x2; x1=x2; x2=x4; x3=x3-1; bne x3,x0,loop
	s := newTestState(t,
		ADDI(1, 0, 0),
		ADDI(2, 0, 1),
		ADDI(3, 0, 9),
		ADD(4, 1, 2),   // loop start, pc=12
		ADDI(1, 2, 0),
		ADDI(2, 4, 0),
		ADDI(3, 3, -1),
		BNE(3, 0, -16), // back to pc=12
		EBREAK(),
	)
	_, err := s.Run(200)
	require.NoError(t, err)
	require.Equal(t, uint32(55), s.Regs[2])
}
