package circle

import (
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

var inv2 = func() field.M31 {
	v, err := field.New(2).Inv()
	if err != nil {
		panic(err)
	}
	return v
}()

// Interpolate runs the forward Circle FFT: it converts a column of values at
// every point of domain into the domain's circle-polynomial-basis
// coefficients. The transform is the y-symmetry butterfly at
// the top level (exploiting the Circle involution (x,y)↦(x,-y)) followed by
// the negation-paired recursive halving that the doubling map π(x)=2x²-1
// induces on the remaining x-only polynomials.
func Interpolate(domain *Domain, values []field.M31) ([]field.M31, error) {
	n := domain.Size()
	if len(values) != n {
		return nil, fmt.Errorf("circle: value count %d does not match domain size %d", len(values), n)
	}
	if n == 1 {
		out := make([]field.M31, 1)
		copy(out, values)
		return out, nil
	}

	half := n / 2
	f0 := make([]field.M31, half)
	f1 := make([]field.M31, half)
	for i := 0; i < half; i++ {
		a, b := values[i], values[half+i]
		y := domain.Points[i].Y
		yInv, err := y.Inv()
		if err != nil {
			return nil, fmt.Errorf("circle: degenerate domain point with y=0 at index %d", i)
		}
		f0[i] = a.Add(b).Mul(inv2)
		f1[i] = a.Sub(b).Mul(inv2).Mul(yInv)
	}

	xs := domain.XCoords()
	c0, err := interpolateX(xs, f0)
	if err != nil {
		return nil, err
	}
	c1, err := interpolateX(xs, f1)
	if err != nil {
		return nil, err
	}
	return append(c0, c1...), nil
}

// Evaluate is the inverse of Interpolate: it maps circle-polynomial-basis
// coefficients back to the values of the represented (low-degree) function
// at every point of domain.
func Evaluate(domain *Domain, coeffs []field.M31) ([]field.M31, error) {
	n := domain.Size()
	if len(coeffs) != n {
		return nil, fmt.Errorf("circle: coefficient count %d does not match domain size %d", len(coeffs), n)
	}
	if n == 1 {
		out := make([]field.M31, 1)
		copy(out, coeffs)
		return out, nil
	}

	half := n / 2
	xs := domain.XCoords()
	f0, err := evaluateX(xs, coeffs[:half])
	if err != nil {
		return nil, err
	}
	f1, err := evaluateX(xs, coeffs[half:])
	if err != nil {
		return nil, err
	}

	values := make([]field.M31, n)
	for i := 0; i < half; i++ {
		y := domain.Points[i].Y
		term := y.Mul(f1[i])
		values[i] = f0[i].Add(term)
		values[half+i] = f0[i].Sub(term)
	}
	return values, nil
}

// interpolateX is the x-only recursive half of the Circle FFT: xs is a set
// of field elements closed under negation via the fixed index pairing
// (i, i+m/2), exactly as produced by a Circle twin-coset's x-coordinates.
func interpolateX(xs, g []field.M31) ([]field.M31, error) {
	m := len(g)
	if m == 1 {
		out := make([]field.M31, 1)
		copy(out, g)
		return out, nil
	}
	half := m / 2
	gEven := make([]field.M31, half)
	gOdd := make([]field.M31, half)
	newXs := make([]field.M31, half)
	for i := 0; i < half; i++ {
		a, b := g[i], g[i+half]
		xInv, err := xs[i].Inv()
		if err != nil {
			return nil, fmt.Errorf("circle: degenerate domain point with x=0 at index %d", i)
		}
		gEven[i] = a.Add(b).Mul(inv2)
		gOdd[i] = a.Sub(b).Mul(inv2).Mul(xInv)
		newXs[i] = DoublingMap(xs[i])
	}
	cEven, err := interpolateX(newXs, gEven)
	if err != nil {
		return nil, err
	}
	cOdd, err := interpolateX(newXs, gOdd)
	if err != nil {
		return nil, err
	}
	return append(cEven, cOdd...), nil
}

// evaluateX is the exact inverse of interpolateX.
func evaluateX(xs, c []field.M31) ([]field.M31, error) {
	m := len(c)
	if m == 1 {
		out := make([]field.M31, 1)
		copy(out, c)
		return out, nil
	}
	half := m / 2
	newXs := make([]field.M31, half)
	for i := 0; i < half; i++ {
		newXs[i] = DoublingMap(xs[i])
	}
	gEven, err := evaluateX(newXs, c[:half])
	if err != nil {
		return nil, err
	}
	gOdd, err := evaluateX(newXs, c[half:])
	if err != nil {
		return nil, err
	}
	g := make([]field.M31, m)
	for i := 0; i < half; i++ {
		term := xs[i].Mul(gOdd[i])
		g[i] = gEven[i].Add(term)
		g[i+half] = gEven[i].Sub(term)
	}
	return g, nil
}
