package circle

import (
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// BarycentricWeights precomputes w_i = 1/Π_{j≠i}(x_i-x_j), the standard
// barycentric interpolation weights, adapted here to extend a column known
// on the x-coordinates of a small Circle domain onto the x-coordinates of a
// larger one — the cross-domain step the recursive same-size Circle FFT in
// fft.go cannot do directly.
func BarycentricWeights(xs []field.M31) ([]field.M31, error) {
	n := len(xs)
	weights := make([]field.M31, n)
	for i := 0; i < n; i++ {
		denom := field.One
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			diff := xs[i].Sub(xs[j])
			if diff.IsZero() {
				return nil, fmt.Errorf("circle: duplicate interpolation node at index %d", i)
			}
			denom = denom.Mul(diff)
		}
		inv, err := denom.Inv()
		if err != nil {
			return nil, err
		}
		weights[i] = inv
	}
	return weights, nil
}

// EvaluateM31 evaluates, at x, the unique degree-<len(xs) polynomial through
// (xs[i], ys[i]).
func EvaluateM31(xs, ys, weights []field.M31, x field.M31) (field.M31, error) {
	for i, xi := range xs {
		if xi.Equal(x) {
			return ys[i], nil
		}
	}
	num := field.Zero
	den := field.Zero
	for i := range xs {
		diff := x.Sub(xs[i])
		diffInv, err := diff.Inv()
		if err != nil {
			return field.Zero, err
		}
		term := weights[i].Mul(diffInv)
		num = num.Add(term.Mul(ys[i]))
		den = den.Add(term)
	}
	denInv, err := den.Inv()
	if err != nil {
		return field.Zero, err
	}
	return num.Mul(denInv), nil
}

// EvaluateQM31 is EvaluateM31 lifted to an out-of-domain evaluation point in
// the extension field, used for DEEP/OODS openings.
func EvaluateQM31(xs, ys []field.M31, weights []field.M31, z field.QM31) (field.QM31, error) {
	num := field.QM31Zero
	den := field.QM31Zero
	for i := range xs {
		diff := z.Sub(field.FromBase(xs[i]))
		diffInv, err := diff.Inv()
		if err != nil {
			return field.QM31Zero, err
		}
		term := diffInv.MulM31(weights[i])
		num = num.Add(term.MulM31(ys[i]))
		den = den.Add(term)
	}
	denInv, err := den.Inv()
	if err != nil {
		return field.QM31Zero, err
	}
	return num.Mul(denInv), nil
}

// ExtendColumn is the low-degree extension of a single trace column from a
// small Circle domain to a larger one of the same family: it splits the
// column into its y-even and y-odd halves (each a plain degree-<n/2
// polynomial in x, per the Circle-involution symmetry) and re-evaluates
// each half at the larger domain's x-coordinates via barycentric
// interpolation, then recombines.
func ExtendColumn(small, large *Domain, values []field.M31) ([]field.M31, error) {
	n := small.Size()
	if len(values) != n {
		return nil, fmt.Errorf("circle: column length %d does not match domain size %d", len(values), n)
	}
	bigN := large.Size()
	if bigN < n {
		return nil, fmt.Errorf("circle: target domain (%d) smaller than source (%d)", bigN, n)
	}
	if bigN == n {
		out := make([]field.M31, n)
		copy(out, values)
		return out, nil
	}

	half := n / 2
	f0 := make([]field.M31, half)
	f1 := make([]field.M31, half)
	for i := 0; i < half; i++ {
		a, b := values[i], values[half+i]
		y := small.Points[i].Y
		yInv, err := y.Inv()
		if err != nil {
			return nil, err
		}
		f0[i] = a.Add(b).Mul(inv2)
		f1[i] = a.Sub(b).Mul(inv2).Mul(yInv)
	}

	xsSmall := small.XCoords()
	weights, err := BarycentricWeights(xsSmall)
	if err != nil {
		return nil, err
	}

	bigHalf := bigN / 2
	out := make([]field.M31, bigN)
	for i := 0; i < bigHalf; i++ {
		x := large.Points[i].X
		y := large.Points[i].Y
		p0, err := EvaluateM31(xsSmall, f0, weights, x)
		if err != nil {
			return nil, err
		}
		p1, err := EvaluateM31(xsSmall, f1, weights, x)
		if err != nil {
			return nil, err
		}
		term := y.Mul(p1)
		out[i] = p0.Add(term)
		out[bigHalf+i] = p0.Sub(term)
	}
	return out, nil
}
