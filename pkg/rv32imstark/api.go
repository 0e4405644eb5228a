package rv32imstark

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/prover"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/verifier"
)

func publicOutputFieldElements(s *executor.State) []field.M31 {
	words := s.PublicOutput()
	out := make([]field.M31, len(words))
	for i, w := range words {
		out[i] = field.New(w)
	}
	return out
}

// entryPoint returns cfg.EntryPoint when it is set and the image's own entry
// address otherwise.
func entryPoint(img *Image, cfg *Config) uint32 {
	if cfg.EntryPoint != 0 {
		return cfg.EntryPoint
	}
	return img.Entry
}

// LoadELF validates and loads a 32-bit little-endian RISC-V ELF executable.
func LoadELF(r io.ReaderAt) (*Image, error) {
	img, err := executor.LoadELF(r)
	if err != nil {
		return nil, wrapExecutorErr(err)
	}
	return &Image{Memory: img.Memory, Entry: img.Entry}, nil
}

// Run executes img to completion (or maxSteps, whichever comes first)
// without proving anything, returning the guest's public output.
func Run(img *Image, cfg *Config, maxSteps int) ([]uint32, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, &Error{Code: ErrInvalidConfig, Message: "invalid config", Cause: err}
	}
	entry := entryPoint(img, cfg)
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: entry})
	log.Debug().Uint32("entry", entry).Int("max_steps", maxSteps).Msg("executing guest")
	rows, err := s.Run(maxSteps)
	if err != nil {
		return nil, len(rows), wrapExecutorErr(err)
	}
	return s.PublicOutput(), len(rows), nil
}

// Prove executes img and produces a Circle-STARK proof of the resulting
// trace.
func Prove(img *Image, cfg *Config) (*ProveResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Code: ErrInvalidConfig, Message: "invalid config", Cause: err}
	}
	s := executor.NewState(&executor.LoadedImage{Memory: img.Memory, Entry: entryPoint(img, cfg)})

	log.Info().
		Int("log_trace_len", cfg.LogTraceLen).
		Int("blowup_factor", cfg.BlowupFactor).
		Int("num_queries", cfg.NumQueries).
		Msg("executing guest and building trace")

	rows, err := s.Run(cfg.TraceLen())
	if err != nil {
		return nil, wrapExecutorErr(err)
	}
	if !s.Halted {
		return nil, &Error{
			Code:    ErrIllegalInstruction,
			Message: fmt.Sprintf("guest did not halt within %d steps", cfg.TraceLen()),
			Cause:   fmt.Errorf("rv32imstark: trace budget exhausted before EBREAK"),
		}
	}

	log.Info().Int("rows", len(rows)).Msg("proving trace")
	pf, err := prover.Prove(rows, cfg)
	if err != nil {
		return nil, &Error{Code: ErrInvalidProof, Message: "proving failed", Cause: err}
	}
	pf.PublicOutputs = publicOutputFieldElements(s)

	return &ProveResult{Proof: pf, PublicOutput: s.PublicOutput(), StepsExecuted: len(rows)}, nil
}

// Verify checks a proof against cfg.
func Verify(pf *Proof, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return &Error{Code: ErrInvalidConfig, Message: "invalid config", Cause: err}
	}
	log.Debug().Int("num_queries", cfg.NumQueries).Msg("verifying proof")
	if err := verifier.Verify(pf, cfg); err != nil {
		return wrapVerifierErr(err)
	}
	return nil
}
