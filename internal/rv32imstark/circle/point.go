// Package circle implements the Circle group over M31 and the twin-coset
// domains, FFT, and low-degree extension built on it.
package circle

import "github.com/circleproof/rv32im-stark/internal/rv32imstark/field"

// Point is an element (x,y) of the Circle group {x,y ∈ M31 : x²+y²=1}.
// The group has order p+1 = 2^31, which is why it admits the power-of-two
// smooth subgroups Circle-STARKs FFT over.
type Point struct {
	X, Y field.M31
}

// Identity is the group identity (1,0).
var Identity = Point{X: field.One}

// Generator is a generator of the full order-2^31 Circle group. (2,
// 1268011823) satisfies x²+y²=1 over M31 and is the standard base point
// used to derive every power-of-two subgroup by repeated squaring.
var Generator = Point{X: field.New(2), Y: field.New(1268011823)}

// Add is the Circle group operation: (x1,y1)+(x2,y2) = (x1x2-y1y2, x1y2+y1x2).
func (p Point) Add(q Point) Point {
	return Point{
		X: p.X.Mul(q.X).Sub(p.Y.Mul(q.Y)),
		Y: p.X.Mul(q.Y).Add(p.Y.Mul(q.X)),
	}
}

// Double returns p+p, using the doubling map (x,y) -> (2x²-1, 2xy).
func (p Point) Double() Point {
	return Point{
		X: p.X.Mul(p.X).Add(p.X.Mul(p.X)).Sub(field.One),
		Y: p.X.Mul(p.Y).Add(p.X.Mul(p.Y)),
	}
}

// Conjugate is the Circle involution (x,y) -> (x,-y); twin-coset domains are
// built from a coset and its image under this map.
func (p Point) Conjugate() Point {
	return Point{X: p.X, Y: p.Y.Neg()}
}

// Antipode is the unique order-2 group element applied: (x,y) -> (-x,-y).
func (p Point) Antipode() Point {
	return Point{X: p.X.Neg(), Y: p.Y.Neg()}
}

// Mul computes the scalar multiple of p by a non-negative exponent via
// double-and-add.
func (p Point) Mul(scalar uint32) Point {
	result := Identity
	base := p
	for scalar > 0 {
		if scalar&1 == 1 {
			result = result.Add(base)
		}
		base = base.Double()
		scalar >>= 1
	}
	return result
}

// DoublingMap is the x-only projection of Double, π(x) = 2x²-1. It is the
// algebraic core of the recursive Circle FFT: π(x) = π(-x), so any
// negation-closed set of x-coordinates of size m folds to one of size m/2.
func DoublingMap(x field.M31) field.M31 {
	return x.Mul(x).Add(x.Mul(x)).Sub(field.One)
}

// SubgroupGenerator returns a generator of the order-n cyclic subgroup of
// the Circle group, for n a power of two dividing 2^31.
func SubgroupGenerator(n uint32) Point {
	// Circle group has order 2^31; the order-n subgroup is generated by
	// Generator^(2^31/n).
	return Generator.Mul((1 << 31) / n)
}

func (p Point) Equal(q Point) bool {
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}
