// Package proof defines the wire-level proof object shared between the
// prover, verifier, and codec packages.
package proof

import (
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/merkle"
)

// FRILayerOpening is one query's opening of a single FRI layer: the two
// sibling values the fold combines, and their Merkle paths.
type FRILayerOpening struct {
	ValueA, ValueB field.QM31
	PathA, PathB   *merkle.Path
}

// Query is everything the verifier needs to replay one sampled index. The
// first FRI fold combines the twin-coset pair (Index, Index+LDELen/2), so
// both trace rows and both composition leaves of that pair are opened —
// letting the verifier recompute combined(p) at both without a dedicated
// commitment for it — followed by the chain of FRI layer openings the pair
// touches as the domain halves each round.
type Query struct {
	Index int

	TraceRowA, TraceRowB           []field.M31
	TracePathA, TracePathB         *merkle.Path
	CompositionLeafA, CompositionLeafB []field.M31 // each the composition value's four QM31 components
	CompositionPathA, CompositionPathB *merkle.Path

	FRILayers []FRILayerOpening
}

// Proof is the complete non-interactive argument the prover emits and the
// verifier checks.
type Proof struct {
	TraceLen  int
	LDELen    int
	NumColumns int

	TraceCommitment       merkle.Digest
	CompositionCommitment merkle.Digest
	FRILayerCommitments   []merkle.Digest
	FRIFinalValues        []field.QM31

	OODSPoint             field.QM31
	TraceOODSValues       []field.QM31
	CompositionOODSValue  field.QM31

	// BusLHS and BusRHS are the delegation bus's two LogUp rational sums:
	// the CPU side's accounting of every IsMul row's call, and the
	// multiplier table's accounting of the same calls by distinct input
	// with multiplicity. An honest prover always has BusLHS == BusRHS.
	BusLHS field.QM31
	BusRHS field.QM31

	Queries []Query

	PublicInputs  []field.M31
	PublicOutputs []field.M31
}
