// Package merkle implements the vector commitment over M31 leaves used to
// bind trace, composition and FRI-layer evaluations into a single root.
// Leaves and internal nodes are hashed with BLAKE3, the hash fixed across
// the whole protocol.
package merkle

import (
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
)

// Digest is a 32-byte BLAKE3 digest, used both as a leaf hash and as an
// internal node / root.
type Digest [32]byte

func hashLeaf(row []field.M31) Digest {
	h := blake3.New()
	for _, v := range row {
		b := v.Bytes()
		h.Write(b[:])
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func hashNode(left, right Digest) Digest {
	h := blake3.New()
	h.Write(left[:])
	h.Write(right[:])
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Tree is an immutable complete binary Merkle tree over row leaves, where a
// row is one field element (a single-column commitment) or a vector of
// field elements (a per-row multi-column commitment, as the STARK prover
// uses to commit an entire trace row at once).
type Tree struct {
	levels [][]Digest // levels[0] = leaves, levels[len-1] = [root]
}

// padRow is the zero row used to pad a non-power-of-two leaf count, matching
// pad to power of two with the M31 zero element.
func padRow(width int) []field.M31 {
	return make([]field.M31, width)
}

// Commit builds a Merkle tree over rows (each a fixed-width tuple of M31
// values), padding with zero rows up to the next power of two.
func Commit(rows [][]field.M31) (*Tree, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("merkle: cannot commit to zero rows")
	}
	width := len(rows[0])
	n := nextPowerOfTwo(len(rows))

	leaves := make([]Digest, n)
	for i := 0; i < n; i++ {
		if i < len(rows) {
			if len(rows[i]) != width {
				return nil, fmt.Errorf("merkle: row %d has width %d, expected %d", i, len(rows[i]), width)
			}
			leaves[i] = hashLeaf(rows[i])
		} else {
			leaves[i] = hashLeaf(padRow(width))
		}
	}

	levels := [][]Digest{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([]Digest, len(cur)/2)
		for i := range next {
			next[i] = hashNode(cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the Merkle root.
func (t *Tree) Root() Digest {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// NumLeaves returns the (padded, power-of-two) number of leaves.
func (t *Tree) NumLeaves() int {
	return len(t.levels[0])
}

// Path is a Merkle authentication path: one sibling digest per level, leaf
// to root.
type Path struct {
	Siblings []Digest
}

// Open returns the authentication path for the leaf at index.
func (t *Tree) Open(index int) (*Path, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, fmt.Errorf("merkle: index %d out of range [0, %d)", index, len(t.levels[0]))
	}
	siblings := make([]Digest, 0, len(t.levels)-1)
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		sibling := idx ^ 1
		siblings = append(siblings, t.levels[level][sibling])
		idx /= 2
	}
	return &Path{Siblings: siblings}, nil
}

// Verify reconstructs the root from a leaf row, its claimed index, and an
// authentication path: left/right position determined by
// the low bit of the current index at each level."
func Verify(root Digest, index int, row []field.M31, path *Path) bool {
	cur := hashLeaf(row)
	idx := index
	for _, sibling := range path.Siblings {
		if idx&1 == 0 {
			cur = hashNode(cur, sibling)
		} else {
			cur = hashNode(sibling, cur)
		}
		idx /= 2
	}
	return cur == root
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
