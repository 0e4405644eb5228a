package circle

import (
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// Domain is a twin coset of size N = 2^LogSize: the disjoint union of a
// coset c·H of the order-N/2 cyclic subgroup H, and its image under the
// Circle involution (x,y)↦(x,-y). Points are laid out so that
// index i and index i+N/2 are Circle-involution twins for i < N/2.
type Domain struct {
	LogSize int
	Points  []Point
}

// NewStandardDomain builds the canonical size-2^logSize twin-coset domain
// used for a trace (or its LDE) of that size, shifted off the order-N/2
// subgroup itself so no domain point is a subgroup element whose vanishing
// would need special-casing.
func NewStandardDomain(logSize int) (*Domain, error) {
	if logSize < 0 {
		return nil, fmt.Errorf("circle: negative log size")
	}
	n := uint32(1) << uint(logSize)
	half := n / 2
	if half == 0 {
		half = 1
	}

	h := SubgroupGenerator(half) // generator of order-(N/2) subgroup H
	// Coset shift: a generator of the order-N subgroup, which lies outside H.
	shift := SubgroupGenerator(n)

	points := make([]Point, n)
	cur := shift
	for i := uint32(0); i < half; i++ {
		points[i] = cur
		points[half+i] = cur.Conjugate()
		cur = cur.Add(h)
	}
	return &Domain{LogSize: logSize, Points: points}, nil
}

// Size returns the number of points in the domain.
func (d *Domain) Size() int { return len(d.Points) }

// XCoords returns the x-coordinates of the first half of the domain (the
// coset c·H before taking the involution image), which is what the
// recursive Circle FFT operates on after its first butterfly layer.
func (d *Domain) XCoords() []field.M31 {
	half := len(d.Points) / 2
	xs := make([]field.M31, half)
	for i := 0; i < half; i++ {
		xs[i] = d.Points[i].X
	}
	return xs
}
