package executor

import (
	"encoding/binary"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/air"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/limbs"
)

// State is the RV32IM machine state the executor steps forward one
// instruction at a time: the executor owns memory, registers and the
// program counter.
type State struct {
	Regs   [32]uint32
	PC     uint32
	Memory []byte
	Clock  uint32
	Halted bool
}

// NewState builds initial machine state from a loaded image.
func NewState(img *LoadedImage) *State {
	return &State{PC: img.Entry, Memory: img.Memory}
}

// PublicOutput reads the guest's public output region as a flat word slice,
// by convention the last PublicOutputWords words of the address space.
func (s *State) PublicOutput() []uint32 {
	out := make([]uint32, PublicOutputWords)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(s.Memory[PublicOutputAddr+4*i:])
	}
	return out
}

func (s *State) readWord(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, newError(ErrUnalignedAccess, "word read at 0x%x is not 4-byte aligned", addr)
	}
	if int(addr)+4 > len(s.Memory) {
		return 0, newError(ErrOutOfBoundsMemory, "word read at 0x%x out of bounds", addr)
	}
	return binary.LittleEndian.Uint32(s.Memory[addr:]), nil
}

func (s *State) reg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return s.Regs[i]
}

func (s *State) setReg(i uint32, v uint32) {
	if i != 0 {
		s.Regs[i] = v
	}
}

// carryChain computes the honest two-limb add/sub witnesses the AIR
// expects: a.lo+b.lo = rdLo + carryLo*2^16, a.hi+b.hi+carryLo = rdHi +
// carryHi*2^16, where (rdLo,rdHi) are the limbs of (a+b) mod 2^32.
func carryChain(a, b uint32) (rdLo, rdHi, carryLo, carryHi field.M31) {
	aLo, aHi := limbs.ToLimbs(a)
	bLo, bHi := limbs.ToLimbs(b)
	sumLo := aLo.Uint32() + bLo.Uint32()
	cLo := uint32(0)
	if sumLo >= 1<<16 {
		cLo = 1
	}
	loVal := sumLo - cLo<<16
	sumHi := aHi.Uint32() + bHi.Uint32() + cLo
	cHi := uint32(0)
	if sumHi >= 1<<16 {
		cHi = 1
	}
	hiVal := sumHi - cHi<<16
	return field.New(loVal), field.New(hiVal), field.New(cLo), field.New(cHi)
}

func bitsOf(w uint32) [32]field.M31 {
	var out [32]field.M31
	for i := 0; i < 32; i++ {
		out[i] = field.New((w >> uint(i)) & 1)
	}
	return out
}

func oneHot32(amt uint32) [air.NumShiftSelectors]field.M31 {
	var out [air.NumShiftSelectors]field.M31
	if amt < 32 {
		out[amt] = field.One
	}
	return out
}
