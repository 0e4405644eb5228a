package rv32imstark

import (
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/config"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/proof"
)

// Config re-exports the internal proving/verification parameters.
type Config = config.Params

// DefaultConfig returns sane parameters for development and the worked
// examples.
func DefaultConfig() *Config { return config.Default() }

// Proof is the wire-level non-interactive argument a Prove call produces
// and a Verify call checks.
type Proof = proof.Proof

// Image is a loaded guest binary ready to execute.
type Image struct {
	Memory []byte
	Entry  uint32
}

// ProveResult bundles the proof with the public output the guest produced,
// so a caller doesn't need to separately re-run the guest to learn it.
type ProveResult struct {
	Proof         *Proof
	PublicOutput  []uint32
	StepsExecuted int
}
