// Package field implements M31 (the Mersenne-31 prime field) and its degree-4
// extension QM31, the two field layers the Circle-STARK pipeline is built
// over.
package field

import "fmt"

// Modulus is p = 2^31 - 1, the Mersenne prime underlying M31.
const Modulus uint32 = (1 << 31) - 1

// M31 is an element of GF(p), always kept in canonical form [0, p).
type M31 uint32

// Zero and One are the additive and multiplicative identities.
var (
	Zero = M31(0)
	One  = M31(1)
)

// New reduces v into canonical form and returns the corresponding element.
func New(v uint32) M31 {
	for v >= Modulus {
		v -= Modulus
	}
	return M31(v)
}

// NewFromU64 reduces a wider value modulo p.
func NewFromU64(v uint64) M31 {
	return M31(v % uint64(Modulus))
}

// reduce64 folds a 62-bit-or-smaller product using 2^31 ≡ 1 (mod p).
func reduce64(x uint64) M31 {
	lo := uint32(x & uint64(Modulus))
	hi := uint32(x >> 31)
	v := lo + hi
	if v >= Modulus {
		v -= Modulus
	}
	return M31(v)
}

// Uint32 returns the canonical uint32 representation.
func (a M31) Uint32() uint32 { return uint32(a) }

// IsZero reports whether a is the additive identity.
func (a M31) IsZero() bool { return a == 0 }

// Add returns a+b mod p.
func (a M31) Add(b M31) M31 {
	s := uint32(a) + uint32(b)
	if s >= Modulus {
		s -= Modulus
	}
	return M31(s)
}

// Sub returns a-b mod p.
func (a M31) Sub(b M31) M31 {
	if a >= b {
		return M31(uint32(a) - uint32(b))
	}
	return M31(Modulus - uint32(b) + uint32(a))
}

// Neg returns -a mod p.
func (a M31) Neg() M31 {
	if a == 0 {
		return 0
	}
	return M31(Modulus - uint32(a))
}

// Mul returns a*b mod p via a 62-bit product folded through the Mersenne identity.
func (a M31) Mul(b M31) M31 {
	return reduce64(uint64(a) * uint64(b))
}

// Square returns a*a mod p.
func (a M31) Square() M31 {
	return a.Mul(a)
}

// Pow returns a^e mod p via square-and-multiply.
func (a M31) Pow(e uint32) M31 {
	result := One
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		e >>= 1
	}
	return result
}

// Inv returns the multiplicative inverse of a via Fermat's little theorem
// (a^(p-2)). Every nonzero element of M31 is invertible.
func (a M31) Inv() (M31, error) {
	if a.IsZero() {
		return 0, fmt.Errorf("field: cannot invert zero")
	}
	return a.Pow(Modulus - 2), nil
}

// Equal reports canonical equality.
func (a M31) Equal(b M31) bool { return a == b }

// Bytes returns the 4-byte little-endian encoding of a.
func (a M31) Bytes() [4]byte {
	return [4]byte{
		byte(a), byte(a >> 8), byte(a >> 16), byte(a >> 24),
	}
}

// FromBytes reduces a 4-byte little-endian encoding into an element, per the
// binary proof encoding (4-byte little-endian u32).
func FromBytes(b [4]byte) M31 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return New(v)
}

// FromCommitmentChunk reduces a 4-byte chunk of a commitment modulo p, as
// required when the Fiat-Shamir channel observes a Merkle root.
func FromCommitmentChunk(b [4]byte) M31 {
	return FromBytes(b)
}

func (a M31) String() string {
	return fmt.Sprintf("%d", uint32(a))
}
