// Package prover implements the STARK prover pipeline:
// commit the execution trace, fold it against the CPU AIR's composition
// polynomial, and run FRI to certify everything committed is low degree.
package prover

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/air"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/channel"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/circle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/config"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/delegation"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/delegation/mul"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/fri"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/merkle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/proof"
)

// domainSeparator fixes this protocol's transcript identity; see
// channel.New's documentation for why this must never be reused across an
// incompatible wire format.
const domainSeparator = "rv32im-stark/v1"

var inv2 = mustInv2()

func mustInv2() field.M31 {
	v, err := field.New(2).Inv()
	if err != nil {
		panic("prover: 2 is not invertible mod p")
	}
	return v
}

func log2(n int) int {
	l := 0
	for (1 << l) < n {
		l++
	}
	return l
}

// padRows extends an execution trace to exactly traceLen rows using
// executor.IdleRow, continuing the PC chain so pc_increment still holds.
func padRows(rows []air.Row, traceLen int) ([]air.Row, error) {
	if len(rows) > traceLen {
		return nil, fmt.Errorf("prover: trace has %d rows, exceeds configured trace length %d", len(rows), traceLen)
	}
	if len(rows) == traceLen {
		return rows, nil
	}
	out := make([]air.Row, traceLen)
	copy(out, rows)
	lastPC := uint32(0)
	clock := uint32(0)
	if n := len(rows); n > 0 {
		lastPC = rows[n-1].NextPC.Uint32()
		clock = rows[n-1].Clock.Uint32() + 1
	}
	for i := len(rows); i < traceLen; i++ {
		out[i] = executor.IdleRow(lastPC, clock)
		lastPC += 4
		clock++
	}
	return out, nil
}

func transposeToColumns(rows []air.Row) [][]field.M31 {
	cols := make([][]field.M31, air.NumColumns)
	for c := range cols {
		cols[c] = make([]field.M31, len(rows))
	}
	for i, r := range rows {
		rowCols := r.Columns()
		for c, v := range rowCols {
			cols[c][i] = v
		}
	}
	return cols
}

func transposeToRows(cols [][]field.M31, n int) [][]field.M31 {
	rows := make([][]field.M31, n)
	for i := range rows {
		rows[i] = make([]field.M31, len(cols))
		for c := range cols {
			rows[i][c] = cols[c][i]
		}
	}
	return rows
}

func qm31ToRow(v field.QM31) []field.M31 {
	a, b, c, d := v.Components()
	return []field.M31{a, b, c, d}
}

// observeQM31 absorbs all four components of a challenge or a prover-claimed
// evaluation into the transcript, in Components() order.
func observeQM31(ch *channel.Channel, v field.QM31) {
	a, b, c, d := v.Components()
	ch.Observe(a)
	ch.Observe(b)
	ch.Observe(c)
	ch.Observe(d)
}

// mulBusSums builds the delegation bus's two LogUp rational sums for every
// IsMul row in rows: the CPU side's per-call accounting (as committed in
// the trace) against the multiplier table's per-distinct-input accounting,
// which recomputes each product independently of what the row claims. An
// honest trace always yields equal sums; see delegation.RationalSum.
func mulBusSums(rows []air.Row, challenge, gamma field.QM31) (field.QM31, field.QM31, error) {
	table := mul.NewTable()
	var cpuTuples [][]field.M31
	for _, r := range rows {
		if r.IsMul.IsZero() {
			continue
		}
		if _, _, err := table.Invoke(r.Rs1Lo, r.Rs1Hi, r.Rs2Lo, r.Rs2Hi); err != nil {
			return field.QM31Zero, field.QM31Zero, fmt.Errorf("prover: delegation bus: %w", err)
		}
		cpuTuples = append(cpuTuples, mul.Tuple(r.Rs1Lo, r.Rs1Hi, r.Rs2Lo, r.Rs2Hi, r.MulLo, r.MulHi))
	}
	if len(cpuTuples) == 0 {
		return field.QM31Zero, field.QM31Zero, nil
	}
	cpuMult := make([]field.M31, len(cpuTuples))
	for i := range cpuMult {
		cpuMult[i] = field.One
	}
	lhs, err := delegation.RationalSum(challenge, cpuTuples, cpuMult, gamma)
	if err != nil {
		return field.QM31Zero, field.QM31Zero, fmt.Errorf("prover: delegation bus CPU-side sum: %w", err)
	}
	rhs, err := delegation.RationalSum(challenge, table.Tuples(), table.Multiplicities(), gamma)
	if err != nil {
		return field.QM31Zero, field.QM31Zero, fmt.Errorf("prover: delegation bus table-side sum: %w", err)
	}
	return lhs, rhs, nil
}

// splitEvenOddM31 separates a column's trace-domain evaluations into its
// y-even and y-odd halves, f(x,y) = f0(x) + y*f1(x), the same
// decomposition circle.ExtendColumn uses internally for the LDE.
func splitEvenOddM31(domain *circle.Domain, values []field.M31) (f0, f1 []field.M31, err error) {
	half := domain.Size() / 2
	f0 = make([]field.M31, half)
	f1 = make([]field.M31, half)
	for i := 0; i < half; i++ {
		yInv, ierr := domain.Points[i].Y.Inv()
		if ierr != nil {
			return nil, nil, fmt.Errorf("prover: domain point %d has zero y: %w", i, ierr)
		}
		f0[i] = values[i].Add(values[half+i]).Mul(inv2)
		f1[i] = values[i].Sub(values[half+i]).Mul(inv2).Mul(yInv)
	}
	return f0, f1, nil
}

// evalM31PolyAtQM31 evaluates, via barycentric interpolation over the small
// domain's x-coordinates, the unique degree-bounded polynomial through
// (xs[i], ys[i]) at an extension-field point z.
func evalM31PolyAtQM31(xs, ys []field.M31, z field.QM31) (field.QM31, error) {
	weights, err := circle.BarycentricWeights(xs)
	if err != nil {
		return field.QM31Zero, err
	}
	return circle.EvaluateQM31(xs, ys, weights, z)
}

// oodsEvalColumn evaluates a trace column's low-degree polynomial at the
// out-of-domain point (z, yz): column(z) = f0(z) + yz*f1(z).
func oodsEvalColumn(domain *circle.Domain, values []field.M31, z, yz field.QM31) (field.QM31, error) {
	f0, f1, err := splitEvenOddM31(domain, values)
	if err != nil {
		return field.QM31Zero, err
	}
	xs := domain.XCoords()
	f0z, err := evalM31PolyAtQM31(xs, f0, z)
	if err != nil {
		return field.QM31Zero, err
	}
	f1z, err := evalM31PolyAtQM31(xs, f1, z)
	if err != nil {
		return field.QM31Zero, err
	}
	return f0z.Add(yz.Mul(f1z)), nil
}

// oodsEvalQM31Column is oodsEvalColumn lifted to a QM31-valued function (the
// composition polynomial), by evaluating each of its four M31 components
// independently and recombining.
func oodsEvalQM31Column(domain *circle.Domain, values []field.QM31, z, yz field.QM31) (field.QM31, error) {
	n := domain.Size()
	comps := [4][]field.M31{make([]field.M31, n), make([]field.M31, n), make([]field.M31, n), make([]field.M31, n)}
	for i, v := range values {
		a, b, c, d := v.Components()
		comps[0][i], comps[1][i], comps[2][i], comps[3][i] = a, b, c, d
	}
	var evs [4]field.QM31
	for k := 0; k < 4; k++ {
		e, err := oodsEvalColumn(domain, comps[k], z, yz)
		if err != nil {
			return field.QM31Zero, err
		}
		evs[k] = e
	}
	// Recombine a + b*u + (c + d*u)*v from the four scalar evaluations.
	result := evs[0]
	result = result.Add(mulByBasis(evs[1], basisU))
	result = result.Add(mulByBasis(evs[2], basisV))
	result = result.Add(mulByBasis(evs[3], basisUV))
	return result, nil
}

type basis int

const (
	basisU basis = iota
	basisV
	basisUV
)

// mulByBasis multiplies a QM31 scalar evaluation by one of the tower
// basis elements {u, v, uv}, used to recombine a component-wise evaluation
// back into a single QM31 value.
func mulByBasis(x field.QM31, b basis) field.QM31 {
	switch b {
	case basisU:
		return x.Mul(field.QM31{A: field.CM31{B: field.One}})
	case basisV:
		return x.Mul(field.QM31{B: field.CM31{A: field.One}})
	case basisUV:
		return x.Mul(field.QM31{B: field.CM31{B: field.One}})
	default:
		panic("prover: unknown basis element")
	}
}

// Prove builds the complete non-interactive proof for an execution trace.
func Prove(rows []air.Row, cfg *config.Params) (*proof.Proof, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("prover: invalid config: %w", err)
	}
	traceLen := cfg.TraceLen()
	paddedRows, err := padRows(rows, traceLen)
	if err != nil {
		return nil, err
	}

	traceDomain, err := circle.NewStandardDomain(cfg.LogTraceLen)
	if err != nil {
		return nil, fmt.Errorf("prover: trace domain: %w", err)
	}
	ldeLogSize := cfg.LogTraceLen + log2(cfg.BlowupFactor)
	ldeDomain, err := circle.NewStandardDomain(ldeLogSize)
	if err != nil {
		return nil, fmt.Errorf("prover: lde domain: %w", err)
	}

	traceCols := transposeToColumns(paddedRows)
	ldeCols := make([][]field.M31, air.NumColumns)
	// Every column's low-degree extension is an independent computation
	// over its own slice of the trace, so they fan out across an errgroup
	// one goroutine per column (see DESIGN.md's prover entry).
	var extendGroup errgroup.Group
	for c, col := range traceCols {
		c, col := c, col
		extendGroup.Go(func() error {
			extended, err := circle.ExtendColumn(traceDomain, ldeDomain, col)
			if err != nil {
				return fmt.Errorf("prover: extending column %d: %w", c, err)
			}
			ldeCols[c] = extended
			return nil
		})
	}
	if err := extendGroup.Wait(); err != nil {
		return nil, err
	}
	ldeRows := transposeToRows(ldeCols, ldeDomain.Size())

	traceTree, err := merkle.Commit(ldeRows)
	if err != nil {
		return nil, fmt.Errorf("prover: committing trace: %w", err)
	}

	ch := channel.New([]byte(domainSeparator))
	ch.ObserveCommitment(traceTree.Root())

	// Delegation bus: every IsMul row's call is checked against the
	// multiplier table's independent recomputation via a LogUp rational
	// sum. The challenge and gamma are drawn now, before the composition
	// and FRI challenges, and the two sums are observed back into the
	// transcript so nothing sampled afterward is independent of them.
	busChallenge := ch.SampleQM31()
	busGamma := ch.SampleQM31()
	busLHS, busRHS, err := mulBusSums(paddedRows, busChallenge, busGamma)
	if err != nil {
		return nil, err
	}
	observeQM31(ch, busLHS)
	observeQM31(ch, busRHS)

	catalogue := air.Catalogue()
	alphas := make([]field.QM31, len(catalogue))
	for i := range alphas {
		alphas[i] = ch.SampleQM31()
	}

	compositionValues := make([]field.QM31, ldeDomain.Size())
	for idx, row := range ldeRows {
		r := air.FromColumns(row)
		compositionValues[idx] = air.Compose(catalogue, r, alphas)
	}
	compositionLeaves := make([][]field.M31, len(compositionValues))
	for i, v := range compositionValues {
		compositionLeaves[i] = qm31ToRow(v)
	}
	compositionTree, err := merkle.Commit(compositionLeaves)
	if err != nil {
		return nil, fmt.Errorf("prover: committing composition: %w", err)
	}
	ch.ObserveCommitment(compositionTree.Root())

	gammas := make([]field.QM31, air.NumColumns+1)
	for i := range gammas {
		gammas[i] = ch.SampleQM31()
	}
	combined := make([]field.QM31, ldeDomain.Size())
	for idx := range combined {
		acc := field.QM31Zero
		for c := 0; c < air.NumColumns; c++ {
			acc = acc.Add(gammas[c].MulM31(ldeRows[idx][c]))
		}
		acc = acc.Add(gammas[air.NumColumns].Mul(compositionValues[idx]))
		combined[idx] = acc
	}

	z := ch.SampleQM31()
	yz := ch.SampleQM31()
	traceOODSValues := make([]field.QM31, air.NumColumns)
	for c, col := range traceCols {
		v, err := oodsEvalColumn(traceDomain, col, z, yz)
		if err != nil {
			return nil, fmt.Errorf("prover: OODS evaluation of column %d: %w", c, err)
		}
		traceOODSValues[c] = v
	}
	compositionOODS, err := oodsEvalQM31Column(ldeDomain, compositionValues, z, yz)
	if err != nil {
		return nil, fmt.Errorf("prover: OODS evaluation of composition: %w", err)
	}
	// Bind the OODS claims into the transcript before deriving anything
	// from them, so the verifier's later challenges also depend on them.
	for _, v := range traceOODSValues {
		observeQM31(ch, v)
	}
	observeQM31(ch, compositionOODS)

	numFriBetas := ldeLogSize + 1
	friBetas := make([]field.QM31, numFriBetas)
	for i := range friBetas {
		friBetas[i] = ch.SampleQM31()
	}

	// DEEP quotient: replace the raw combined evaluation with
	// (combined(p) - combined(z)) / (x(p) - z) before handing it to FRI, so
	// a low-degree FRI pass also certifies that combined(z) (reconstructed
	// below from the claimed OODS values) is the honest evaluation of the
	// very polynomial committed in traceTree/compositionTree, not an
	// unrelated low-degree stand-in.
	combinedOODS := field.QM31Zero
	for c := 0; c < air.NumColumns; c++ {
		combinedOODS = combinedOODS.Add(gammas[c].Mul(traceOODSValues[c]))
	}
	combinedOODS = combinedOODS.Add(gammas[air.NumColumns].Mul(compositionOODS))

	xs := ldeDomain.XCoords()
	half := ldeDomain.Size() / 2
	deepValues := make([]field.QM31, ldeDomain.Size())
	for i := 0; i < half; i++ {
		denom := field.FromBase(xs[i]).Sub(z)
		denomInv, derr := denom.Inv()
		if derr != nil {
			return nil, fmt.Errorf("prover: DEEP quotient: domain point %d collides with the OODS challenge, resample: %w", i, derr)
		}
		deepValues[i] = combined[i].Sub(combinedOODS).Mul(denomInv)
		deepValues[half+i] = combined[half+i].Sub(combinedOODS).Mul(denomInv)
	}

	// cfg.FriFoldingFactor names the minimum constant-sized final layer this
	// run folds down to; fri.Prove always halves per round regardless.
	finalLen := cfg.FriFoldingFactor
	layers, finalValues, err := fri.Prove(ldeDomain, deepValues, friBetas, finalLen)
	if err != nil {
		return nil, fmt.Errorf("prover: FRI: %w", err)
	}
	for _, l := range layers {
		ch.ObserveCommitment(l.Commitment)
	}

	ldeHalf := ldeDomain.Size() / 2
	queryIndices := ch.SampleQueryIndices(cfg.NumQueries, ldeHalf)
	queries := make([]proof.Query, len(queryIndices))
	for qi, idx := range queryIndices {
		twin := idx + ldeHalf
		tracePathA, err := traceTree.Open(idx)
		if err != nil {
			return nil, fmt.Errorf("prover: opening trace at %d: %w", idx, err)
		}
		tracePathB, err := traceTree.Open(twin)
		if err != nil {
			return nil, fmt.Errorf("prover: opening trace at %d: %w", twin, err)
		}
		compPathA, err := compositionTree.Open(idx)
		if err != nil {
			return nil, fmt.Errorf("prover: opening composition at %d: %w", idx, err)
		}
		compPathB, err := compositionTree.Open(twin)
		if err != nil {
			return nil, fmt.Errorf("prover: opening composition at %d: %w", twin, err)
		}
		friLayers, err := openFRIChain(layers, idx)
		if err != nil {
			return nil, fmt.Errorf("prover: opening FRI chain at %d: %w", idx, err)
		}
		queries[qi] = proof.Query{
			Index:              idx,
			TraceRowA:          ldeRows[idx],
			TraceRowB:          ldeRows[twin],
			TracePathA:         tracePathA,
			TracePathB:         tracePathB,
			CompositionLeafA:   compositionLeaves[idx],
			CompositionLeafB:   compositionLeaves[twin],
			CompositionPathA:   compPathA,
			CompositionPathB:   compPathB,
			FRILayers:          friLayers,
		}
	}

	layerCommitments := make([]merkle.Digest, len(layers))
	for i, l := range layers {
		layerCommitments[i] = l.Commitment
	}

	return &proof.Proof{
		TraceLen:              traceLen,
		LDELen:                ldeDomain.Size(),
		NumColumns:            air.NumColumns,
		TraceCommitment:       traceTree.Root(),
		CompositionCommitment: compositionTree.Root(),
		FRILayerCommitments:   layerCommitments,
		FRIFinalValues:        finalValues,
		OODSPoint:             z,
		TraceOODSValues:       traceOODSValues,
		CompositionOODSValue:  compositionOODS,
		BusLHS:                busLHS,
		BusRHS:                busRHS,
		Queries:               queries,
	}, nil
}

// openFRIChain opens both siblings of a query index at every FRI layer,
// halving the index each round as the domain halves. index must already be
// in range for layers[0] (i.e. in [0, LDELen/2)).
func openFRIChain(layers []*fri.Layer, index int) ([]proof.FRILayerOpening, error) {
	out := make([]proof.FRILayerOpening, 0, len(layers))
	idx := index
	for _, l := range layers {
		half := len(l.Values) / 2
		i := idx % half
		pathA, va, err := l.OpenIndex(i)
		if err != nil {
			return nil, err
		}
		pathB, vb, err := l.OpenIndex(i + half)
		if err != nil {
			return nil, err
		}
		out = append(out, proof.FRILayerOpening{ValueA: va, ValueB: vb, PathA: pathA, PathB: pathB})
		idx = i
	}
	return out, nil
}
