// Package config holds the STARK proving parameters.
package config

import "fmt"

// Params configures a proving/verification run.
type Params struct {
	LogTraceLen      int // trace length is 2^LogTraceLen
	BlowupFactor     int // LDE domain size / trace length; must be a power of two, >=4
	NumQueries       int
	FriFoldingFactor int // must be a power of two
	SecurityBits     int
	EntryPoint       uint32
}

// Default returns sane parameters for development and the worked examples.
func Default() *Params {
	return &Params{
		LogTraceLen:      10,
		BlowupFactor:     4,
		NumQueries:       32,
		FriFoldingFactor: 2,
		SecurityBits:     100,
		EntryPoint:       0,
	}
}

// Validate checks the structural requirements on a Params value.
func (p *Params) Validate() error {
	if p.LogTraceLen < 0 {
		return fmt.Errorf("config: log_trace_len must be non-negative")
	}
	if !isPowerOfTwo(p.BlowupFactor) || p.BlowupFactor < 4 {
		return fmt.Errorf("config: blowup_factor must be a power of two >= 4, got %d", p.BlowupFactor)
	}
	if p.NumQueries <= 0 {
		return fmt.Errorf("config: num_queries must be positive")
	}
	if !isPowerOfTwo(p.FriFoldingFactor) || p.FriFoldingFactor < 2 {
		return fmt.Errorf("config: fri_folding_factor must be a power of two >= 2, got %d", p.FriFoldingFactor)
	}
	if p.SecurityBits <= 0 {
		return fmt.Errorf("config: security_bits must be positive")
	}
	return nil
}

// TraceLen returns 2^LogTraceLen.
func (p *Params) TraceLen() int { return 1 << uint(p.LogTraceLen) }

// LDELen returns the LDE domain size, TraceLen * BlowupFactor.
func (p *Params) LDELen() int { return p.TraceLen() * p.BlowupFactor }

// WithLogTraceLen sets the trace length exponent.
func (p *Params) WithLogTraceLen(v int) *Params { p.LogTraceLen = v; return p }

// WithBlowupFactor sets the blowup factor.
func (p *Params) WithBlowupFactor(v int) *Params { p.BlowupFactor = v; return p }

// WithNumQueries sets the FRI/query count.
func (p *Params) WithNumQueries(v int) *Params { p.NumQueries = v; return p }

// WithFriFoldingFactor sets the FRI folding factor.
func (p *Params) WithFriFoldingFactor(v int) *Params { p.FriFoldingFactor = v; return p }

// WithSecurityBits sets the target security level.
func (p *Params) WithSecurityBits(v int) *Params { p.SecurityBits = v; return p }

// WithEntryPoint sets the ELF entry point override.
func (p *Params) WithEntryPoint(v uint32) *Params { p.EntryPoint = v; return p }

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := *p
	return &c
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }
