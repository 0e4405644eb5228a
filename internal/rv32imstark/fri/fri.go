// Package fri implements the FRI proximity test: folding
// a circle-domain evaluation down to a constant via repeated degree
// halving, committing each intermediate layer, and opening queried indices
// for the verifier to replay.
package fri

import (
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/circle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/merkle"
)

var inv2 = mustInv2()

func mustInv2() field.M31 {
	v, err := field.New(2).Inv()
	if err != nil {
		panic("fri: 2 is not invertible mod p, which cannot happen")
	}
	return v
}

// Layer is one committed round of folding: the x-coordinates (or the
// circle domain, for the very first round) the values live over, the
// folded values, and their Merkle commitment.
type Layer struct {
	Xs         []field.M31
	Values     []field.QM31
	Commitment merkle.Digest
	tree       *merkle.Tree
}

// Error reports which layer and why a FRI check failed.
type Error struct {
	Layer  int
	Reason string
}

func (e *Error) Error() string { return fmt.Sprintf("fri: layer %d: %s", e.Layer, e.Reason) }

// FoldCircle performs the first folding round: a circle-domain evaluation
// (indexed by domain.Points, twin-coset y-symmetric) collapses to a plain
// x-indexed evaluation, dividing by each point's y-coordinate.
func FoldCircle(domain *circle.Domain, values []field.QM31, beta field.QM31) ([]field.M31, []field.QM31, error) {
	half := domain.Size() / 2
	if len(values) != domain.Size() {
		return nil, nil, fmt.Errorf("fri: values length %d does not match domain size %d", len(values), domain.Size())
	}
	xs := domain.XCoords()
	newXs := make([]field.M31, half)
	newValues := make([]field.QM31, half)
	for i := 0; i < half; i++ {
		yInv, err := domain.Points[i].Y.Inv()
		if err != nil {
			return nil, nil, fmt.Errorf("fri: domain point %d has zero y-coordinate: %w", i, err)
		}
		sum := values[i].Add(values[half+i]).MulM31(inv2)
		diff := values[i].Sub(values[half+i]).MulM31(inv2).MulM31(yInv)
		newValues[i] = sum.Add(beta.Mul(diff))
		newXs[i] = xs[i]
	}
	return newXs, newValues, nil
}

// FoldLinear performs a subsequent folding round on an x-indexed
// evaluation, dividing by x and advancing each x-coordinate through the
// Circle doubling map, mirroring the recursive split in
// internal/rv32imstark/circle's FFT.
func FoldLinear(xs []field.M31, values []field.QM31, beta field.QM31) ([]field.M31, []field.QM31, error) {
	if len(xs) != len(values) {
		return nil, nil, fmt.Errorf("fri: xs/values length mismatch")
	}
	half := len(xs) / 2
	if half == 0 {
		return nil, nil, fmt.Errorf("fri: cannot fold a layer of size %d", len(xs))
	}
	newXs := make([]field.M31, half)
	newValues := make([]field.QM31, half)
	for i := 0; i < half; i++ {
		xInv, err := xs[i].Inv()
		if err != nil {
			return nil, nil, fmt.Errorf("fri: x-coordinate %d is zero: %w", i, err)
		}
		sum := values[i].Add(values[half+i]).MulM31(inv2)
		diff := values[i].Sub(values[half+i]).MulM31(inv2).MulM31(xInv)
		newValues[i] = sum.Add(beta.Mul(diff))
		newXs[i] = circle.DoublingMap(xs[i])
	}
	return newXs, newValues, nil
}

// commitLayer Merkle-commits a layer's values, one leaf per QM31 value (its
// four M31 components as one row).
func commitLayer(xs []field.M31, values []field.QM31) (*Layer, error) {
	rows := make([][]field.M31, len(values))
	for i, v := range values {
		a, b, c, d := v.Components()
		rows[i] = []field.M31{a, b, c, d}
	}
	tree, err := merkle.Commit(rows)
	if err != nil {
		return nil, err
	}
	return &Layer{Xs: xs, Values: values, Commitment: tree.Root(), tree: tree}, nil
}

// Prove runs FRI to completion: one circle fold followed by linear folds
// until the layer reaches finalLen, returning every committed layer (for
// the transcript) and the final, fully-folded constant-sized layer (for
// the verifier's direct degree check).
func Prove(domain *circle.Domain, values []field.QM31, betas []field.QM31, finalLen int) ([]*Layer, []field.QM31, error) {
	if len(betas) == 0 {
		return nil, nil, fmt.Errorf("fri: need at least one folding challenge")
	}
	xs, vals, err := FoldCircle(domain, values, betas[0])
	if err != nil {
		return nil, nil, &Error{Layer: 0, Reason: err.Error()}
	}
	layer, err := commitLayer(xs, vals)
	if err != nil {
		return nil, nil, &Error{Layer: 0, Reason: err.Error()}
	}
	layers := []*Layer{layer}

	for i := 1; len(vals) > finalLen; i++ {
		if i >= len(betas) {
			return nil, nil, &Error{Layer: i, Reason: "ran out of folding challenges before reaching the final layer"}
		}
		xs, vals, err = FoldLinear(xs, vals, betas[i])
		if err != nil {
			return nil, nil, &Error{Layer: i, Reason: err.Error()}
		}
		layer, err = commitLayer(xs, vals)
		if err != nil {
			return nil, nil, &Error{Layer: i, Reason: err.Error()}
		}
		layers = append(layers, layer)
	}
	return layers, vals, nil
}

// OpenIndex returns the Merkle path proving values[index] belongs to a
// committed layer.
func (l *Layer) OpenIndex(index int) (*merkle.Path, field.QM31, error) {
	if index < 0 || index >= len(l.Values) {
		return nil, field.QM31Zero, fmt.Errorf("fri: index %d out of range for layer of size %d", index, len(l.Values))
	}
	path, err := l.tree.Open(index)
	if err != nil {
		return nil, field.QM31Zero, err
	}
	return path, l.Values[index], nil
}

// VerifyFold checks that one query's claimed values at index i and i+half
// in a layer fold correctly, using x (the circle-domain y for the first
// round, or the previous round's x-coordinate otherwise) into the claimed
// folded value at the next layer.
func VerifyFold(divisor field.M31, a, b, folded, beta field.QM31) (bool, error) {
	divInv, err := divisor.Inv()
	if err != nil {
		return false, fmt.Errorf("fri: zero divisor in fold verification: %w", err)
	}
	sum := a.Add(b).MulM31(inv2)
	diff := a.Sub(b).MulM31(inv2).MulM31(divInv)
	want := sum.Add(beta.Mul(diff))
	return want.Equal(folded), nil
}
