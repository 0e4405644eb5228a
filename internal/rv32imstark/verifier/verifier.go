// Package verifier implements the STARK verifier: replay
// the prover's Fiat-Shamir transcript, check every opened Merkle path, and
// confirm the FRI fold chain is consistent at every sampled query.
package verifier

import (
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/air"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/channel"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/circle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/config"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/fri"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/merkle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/proof"
)

const domainSeparator = "rv32im-stark/v1"

func log2(n int) int {
	l := 0
	for (1 << l) < n {
		l++
	}
	return l
}

func qm31Leaf(v field.QM31) []field.M31 {
	a, b, c, d := v.Components()
	return []field.M31{a, b, c, d}
}

func qm31FromLeaf(leaf []field.M31) field.QM31 {
	return field.NewQM31(leaf[0], leaf[1], leaf[2], leaf[3])
}

// observeQM31 absorbs all four components of a challenge or a prover-claimed
// evaluation into the transcript, matching the prover's observe order.
func observeQM31(ch *channel.Channel, v field.QM31) {
	a, b, c, d := v.Components()
	ch.Observe(a)
	ch.Observe(b)
	ch.Observe(c)
	ch.Observe(d)
}

// Verify checks pf against cfg, returning nil on acceptance or a *Error
// describing the first rejection found.
func Verify(pf *proof.Proof, cfg *config.Params) error {
	if err := cfg.Validate(); err != nil {
		return wrapError(ErrInvalidProof, err, "invalid config")
	}
	if pf.NumColumns != air.NumColumns {
		return newError(ErrInvalidProof, "proof declares %d columns, expected %d", pf.NumColumns, air.NumColumns)
	}
	if pf.TraceLen != cfg.TraceLen() {
		return newError(ErrInvalidProof, "proof trace length %d does not match config %d", pf.TraceLen, cfg.TraceLen())
	}
	ldeLen := cfg.TraceLen() * cfg.BlowupFactor
	if pf.LDELen != ldeLen {
		return newError(ErrInvalidProof, "proof LDE length %d does not match config-derived %d", pf.LDELen, ldeLen)
	}
	if len(pf.Queries) != cfg.NumQueries {
		return newError(ErrInvalidProof, "proof has %d queries, expected %d", len(pf.Queries), cfg.NumQueries)
	}
	if len(pf.FRILayerCommitments) == 0 {
		return newError(ErrInvalidProof, "proof has no FRI layer commitments")
	}

	ldeDomain, err := circle.NewStandardDomain(cfg.LogTraceLen + log2(cfg.BlowupFactor))
	if err != nil {
		return wrapError(ErrInvalidProof, err, "rebuilding LDE domain")
	}
	ldeHalf := ldeDomain.Size() / 2

	ch := channel.New([]byte(domainSeparator))
	ch.ObserveCommitment(pf.TraceCommitment)

	// Delegation bus: replay the same challenge/gamma draw and observe
	// order the prover used, then check the two LogUp sums it claims
	// actually agree. A dishonest IsMul row's claimed product almost
	// certainly disagrees with the table's independent recomputation, so
	// CheckConsistency's equality fails with overwhelming probability.
	ch.SampleQM31() // delegation bus challenge: sampled to stay in lockstep with the prover
	ch.SampleQM31() // delegation bus gamma: same
	observeQM31(ch, pf.BusLHS)
	observeQM31(ch, pf.BusRHS)
	if !pf.BusLHS.Equal(pf.BusRHS) {
		return newError(ErrDelegation, "delegation bus: CPU-side and multiplier-table LogUp sums disagree")
	}

	catalogue := air.Catalogue()
	alphas := make([]field.QM31, len(catalogue))
	for i := range alphas {
		alphas[i] = ch.SampleQM31()
	}

	ch.ObserveCommitment(pf.CompositionCommitment)

	gammas := make([]field.QM31, air.NumColumns+1)
	for i := range gammas {
		gammas[i] = ch.SampleQM31()
	}

	z := ch.SampleQM31()
	_ = ch.SampleQM31() // yz: not load-bearing in this simplified design, see DESIGN.md
	if !z.Equal(pf.OODSPoint) {
		return newError(ErrInvalidProof, "proof's OODS point does not match the transcript-derived challenge")
	}
	if len(pf.TraceOODSValues) != air.NumColumns {
		return newError(ErrInvalidProof, "proof has %d trace OODS values, expected %d", len(pf.TraceOODSValues), air.NumColumns)
	}
	for _, v := range pf.TraceOODSValues {
		observeQM31(ch, v)
	}
	observeQM31(ch, pf.CompositionOODSValue)

	numFriBetas := ldeDomain.LogSize + 1
	friBetas := make([]field.QM31, numFriBetas)
	for i := range friBetas {
		friBetas[i] = ch.SampleQM31()
	}
	if len(pf.FRILayerCommitments) > numFriBetas {
		return newError(ErrInvalidProof, "proof has more FRI layers (%d) than folding challenges (%d)", len(pf.FRILayerCommitments), numFriBetas)
	}
	for _, c := range pf.FRILayerCommitments {
		ch.ObserveCommitment(c)
	}

	// combinedOODS is combined(z): the same gamma-weighted fold of trace
	// and composition values as combineRow, evaluated at the prover's
	// claimed out-of-domain point instead of at a committed row. Every
	// query's DEEP quotient is checked against it.
	combinedOODS := field.QM31Zero
	for c := 0; c < air.NumColumns; c++ {
		combinedOODS = combinedOODS.Add(gammas[c].Mul(pf.TraceOODSValues[c]))
	}
	combinedOODS = combinedOODS.Add(gammas[air.NumColumns].Mul(pf.CompositionOODSValue))

	queryIndices := ch.SampleQueryIndices(cfg.NumQueries, ldeHalf)

	for i, q := range pf.Queries {
		if q.Index != queryIndices[i] {
			return newError(ErrQueryIndexMismatch, "query %d: proof index %d does not match transcript-derived index %d", i, q.Index, queryIndices[i])
		}
		if err := verifyQuery(q, ldeDomain, ldeHalf, catalogue, alphas, gammas, friBetas, z, combinedOODS, pf.TraceCommitment, pf.CompositionCommitment, pf.FRILayerCommitments); err != nil {
			return err
		}
	}

	if err := checkFinalLayerIsLowDegree(pf.FRIFinalValues); err != nil {
		return err
	}
	return nil
}

func combineRow(gammas []field.QM31, traceRow, compositionLeaf []field.M31) field.QM31 {
	acc := field.QM31Zero
	for c, v := range traceRow {
		acc = acc.Add(gammas[c].MulM31(v))
	}
	compVal := field.NewQM31(compositionLeaf[0], compositionLeaf[1], compositionLeaf[2], compositionLeaf[3])
	acc = acc.Add(gammas[len(traceRow)].Mul(compVal))
	return acc
}

func pick(a, b field.QM31, pos, half int) field.QM31 {
	if pos < half {
		return a
	}
	return b
}

// verifyQuery checks one sampled index's trace/composition openings and the
// entire FRI fold chain that index touches, per the derivation in
// DESIGN.md: layer r's natural query position is idx0 mod size_r, which is
// always one of the two siblings layer r commits at that layer's own half
// split, so no extra openings beyond what the prover already includes are
// needed to chain the check from round to round.
func verifyQuery(
	q proof.Query,
	ldeDomain *circle.Domain,
	ldeHalf int,
	catalogue []air.Constraint,
	alphas []field.QM31,
	gammas []field.QM31,
	friBetas []field.QM31,
	z, combinedOODS field.QM31,
	traceCommitment, compositionCommitment merkle.Digest,
	layerCommitments []merkle.Digest,
) error {
	idx0 := q.Index
	twin := idx0 + ldeHalf

	if !merkle.Verify(traceCommitment, idx0, q.TraceRowA, q.TracePathA) {
		return newError(ErrMerkle, "query %d: trace row A fails to verify at index %d", idx0, idx0)
	}
	if !merkle.Verify(traceCommitment, twin, q.TraceRowB, q.TracePathB) {
		return newError(ErrMerkle, "query %d: trace row B fails to verify at index %d", idx0, twin)
	}
	if !merkle.Verify(compositionCommitment, idx0, q.CompositionLeafA, q.CompositionPathA) {
		return newError(ErrMerkle, "query %d: composition leaf A fails to verify at index %d", idx0, idx0)
	}
	if !merkle.Verify(compositionCommitment, twin, q.CompositionLeafB, q.CompositionPathB) {
		return newError(ErrMerkle, "query %d: composition leaf B fails to verify at index %d", idx0, twin)
	}

	// The opened composition leaf must actually be Σ alphas[j]*constraint_j
	// of the opened trace row, not an independent low-degree value the
	// prover is free to fabricate. This is the AIR's binding to the proof:
	// any row that violates a constraint makes this fail.
	composedA := air.Compose(catalogue, air.FromColumns(q.TraceRowA), alphas)
	if !composedA.Equal(qm31FromLeaf(q.CompositionLeafA)) {
		return newError(ErrConstraint, "query %d: composition leaf A is not Σ alpha_j*constraint_j(trace row A); trace violates an AIR constraint", idx0)
	}
	composedB := air.Compose(catalogue, air.FromColumns(q.TraceRowB), alphas)
	if !composedB.Equal(qm31FromLeaf(q.CompositionLeafB)) {
		return newError(ErrConstraint, "query %d: composition leaf B is not Σ alpha_j*constraint_j(trace row B); trace violates an AIR constraint", idx0)
	}

	combinedA := combineRow(gammas, q.TraceRowA, q.CompositionLeafA)
	combinedB := combineRow(gammas, q.TraceRowB, q.CompositionLeafB)

	// DEEP quotient: divide out (x-z) so FRI's low-degree check on round 0
	// also certifies combined(p) agrees with the claimed OODS evaluation
	// combined(z), not just that combined(p) alone happens to be low degree.
	x, xerr := safeXCoord(ldeDomain, idx0)
	if xerr != nil {
		return wrapError(ErrFRI, xerr, "query %d: DEEP divisor", idx0)
	}
	denom := field.FromBase(x).Sub(z)
	denomInv, derr := denom.Inv()
	if derr != nil {
		return wrapError(ErrFRI, derr, "query %d: DEEP divisor collides with the OODS point", idx0)
	}
	deepA := combinedA.Sub(combinedOODS).Mul(denomInv)
	deepB := combinedB.Sub(combinedOODS).Mul(denomInv)

	numLayers := len(q.FRILayers)
	if numLayers == 0 || numLayers != len(layerCommitments) {
		return newError(ErrInvalidProof, "query %d: has %d FRI layer openings, expected %d", idx0, numLayers, len(layerCommitments))
	}

	sizes := make([]int, numLayers)
	sizes[0] = ldeHalf
	for r := 1; r < numLayers; r++ {
		sizes[r] = sizes[r-1] / 2
		if sizes[r] == 0 {
			return newError(ErrInvalidProof, "query %d: FRI layer %d degenerates to size zero", idx0, r)
		}
	}

	pos := make([]int, numLayers)
	for r := 0; r < numLayers; r++ {
		pos[r] = idx0 % sizes[r]
	}

	// Round 0: FoldCircle from the reconstructed combined(p) pair into layer 0.
	half0 := sizes[0] / 2
	i0 := pos[0] % half0
	if !verifyLayerPair(layerCommitments[0], i0, half0, q.FRILayers[0]) {
		return newError(ErrMerkle, "query %d: FRI layer 0 opening fails to verify", idx0)
	}
	claimed0 := pick(q.FRILayers[0].ValueA, q.FRILayers[0].ValueB, pos[0], half0)
	y0 := ldeDomain.Points[idx0].Y
	ok, err := fri.VerifyFold(y0, deepA, deepB, claimed0, friBetas[0])
	if err != nil {
		return wrapError(ErrFRI, err, "query %d: round 0 fold check", idx0)
	}
	if !ok {
		return newError(ErrFRI, "query %d: round 0 fold does not match committed layer 0 value", idx0)
	}

	// Rounds 1..numLayers-1: FoldLinear chaining layer r-1's opened pair into layer r.
	for r := 1; r < numLayers; r++ {
		halfR := sizes[r] / 2
		iR := pos[r] % halfR
		if !verifyLayerPair(layerCommitments[r], iR, halfR, q.FRILayers[r]) {
			return newError(ErrMerkle, "query %d: FRI layer %d opening fails to verify", idx0, r)
		}
		claimedR := pick(q.FRILayers[r].ValueA, q.FRILayers[r].ValueB, pos[r], halfR)

		x, xerr := safeXCoord(ldeDomain, pos[r])
		if xerr != nil {
			return wrapError(ErrFRI, xerr, "query %d: round %d divisor", idx0, r)
		}
		for k := 0; k < r-1; k++ {
			x = circle.DoublingMap(x)
		}

		ok, err := fri.VerifyFold(x, q.FRILayers[r-1].ValueA, q.FRILayers[r-1].ValueB, claimedR, friBetas[r])
		if err != nil {
			return wrapError(ErrFRI, err, "query %d: round %d fold check", idx0, r)
		}
		if !ok {
			return newError(ErrFRI, "query %d: round %d fold does not match committed layer %d value", idx0, r, r)
		}
	}
	return nil
}

func safeXCoord(ldeDomain *circle.Domain, index int) (field.M31, error) {
	xs := ldeDomain.XCoords()
	if index < 0 || index >= len(xs) {
		return field.Zero, newError(ErrInvalidProof, "index %d out of range for domain x-coordinates", index)
	}
	return xs[index], nil
}

func verifyLayerPair(commitment merkle.Digest, i, half int, opening proof.FRILayerOpening) bool {
	if !merkle.Verify(commitment, i, qm31Leaf(opening.ValueA), opening.PathA) {
		return false
	}
	return merkle.Verify(commitment, i+half, qm31Leaf(opening.ValueB), opening.PathB)
}

// checkFinalLayerIsLowDegree is the direct degree check on FRI's terminal
// layer: in this protocol the final layer is folded down far enough that an
// honest prover's values are all equal.
func checkFinalLayerIsLowDegree(finalValues []field.QM31) error {
	if len(finalValues) == 0 {
		return newError(ErrDegreeBound, "empty final FRI layer")
	}
	first := finalValues[0]
	for i, v := range finalValues {
		if !v.Equal(first) {
			return newError(ErrDegreeBound, "final FRI layer value %d diverges from a constant, degree bound violated", i)
		}
	}
	return nil
}
