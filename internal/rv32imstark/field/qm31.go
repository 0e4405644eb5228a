package field

// CM31 is the quadratic sub-extension M31[u]/(u^2-2), represented as A+B*u.
type CM31 struct {
	A, B M31
}

var (
	CM31Zero = CM31{}
	CM31One  = CM31{A: One}
)

// NewCM31 builds A+B*u.
func NewCM31(a, b M31) CM31 { return CM31{A: a, B: b} }

func (x CM31) Add(y CM31) CM31 { return CM31{A: x.A.Add(y.A), B: x.B.Add(y.B)} }
func (x CM31) Sub(y CM31) CM31 { return CM31{A: x.A.Sub(y.A), B: x.B.Sub(y.B)} }
func (x CM31) Neg() CM31       { return CM31{A: x.A.Neg(), B: x.B.Neg()} }

// Mul multiplies using u^2 = 2: (a+bu)(c+du) = (ac+2bd) + (ad+bc)u.
func (x CM31) Mul(y CM31) CM31 {
	ac := x.A.Mul(y.A)
	bd := x.B.Mul(y.B)
	ad := x.A.Mul(y.B)
	bc := x.B.Mul(y.A)
	return CM31{
		A: ac.Add(bd.Add(bd)),
		B: ad.Add(bc),
	}
}

func (x CM31) MulM31(s M31) CM31 {
	return CM31{A: x.A.Mul(s), B: x.B.Mul(s)}
}

func (x CM31) IsZero() bool { return x.A.IsZero() && x.B.IsZero() }

// Inv returns 1/x using the norm a^2-2b^2, the conjugate trick for a
// quadratic extension.
func (x CM31) Inv() (CM31, error) {
	norm := x.A.Mul(x.A).Sub(x.B.Mul(x.B).Add(x.B.Mul(x.B)))
	normInv, err := norm.Inv()
	if err != nil {
		return CM31{}, err
	}
	return CM31{A: x.A.Mul(normInv), B: x.B.Neg().Mul(normInv)}, nil
}

func (x CM31) Equal(y CM31) bool { return x.A.Equal(y.A) && x.B.Equal(y.B) }

// QM31 is the degree-4 extension M31[u,v]/(u^2-2, v^2-(2+u)), represented as
// A+B*v with A,B ∈ CM31. This is the soundness-amplification field used for
// challenges and out-of-domain sampling.
type QM31 struct {
	A, B CM31
}

var (
	QM31Zero = QM31{}
	QM31One  = QM31{A: CM31One}
)

// d is the defining constant of v^2, namely 2+u.
var qm31D = CM31{A: New(2), B: One}

// NewQM31 builds the element with components (c0,c1,c2,c3) where
// A = c0+c1*u and B = c2+c3*u.
func NewQM31(c0, c1, c2, c3 M31) QM31 {
	return QM31{A: CM31{A: c0, B: c1}, B: CM31{A: c2, B: c3}}
}

func (x QM31) Components() (c0, c1, c2, c3 M31) {
	return x.A.A, x.A.B, x.B.A, x.B.B
}

func (x QM31) Add(y QM31) QM31 { return QM31{A: x.A.Add(y.A), B: x.B.Add(y.B)} }
func (x QM31) Sub(y QM31) QM31 { return QM31{A: x.A.Sub(y.A), B: x.B.Sub(y.B)} }
func (x QM31) Neg() QM31       { return QM31{A: x.A.Neg(), B: x.B.Neg()} }

// Mul multiplies using v^2 = 2+u = d: (A+Bv)(C+Dv) = (AC+BD*d) + (AD+BC)v.
func (x QM31) Mul(y QM31) QM31 {
	ac := x.A.Mul(y.A)
	bd := x.B.Mul(y.B)
	ad := x.A.Mul(y.B)
	bc := x.B.Mul(y.A)
	return QM31{
		A: ac.Add(bd.Mul(qm31D)),
		B: ad.Add(bc),
	}
}

func (x QM31) MulM31(s M31) QM31 {
	return QM31{A: x.A.MulM31(s), B: x.B.MulM31(s)}
}

func (x QM31) IsZero() bool { return x.A.IsZero() && x.B.IsZero() }

// Inv returns 1/x using the norm A^2-d*B^2 over CM31, the conjugate trick
// lifted one level up the tower.
func (x QM31) Inv() (QM31, error) {
	norm := x.A.Mul(x.A).Sub(qm31D.Mul(x.B.Mul(x.B)))
	normInv, err := norm.Inv()
	if err != nil {
		return QM31{}, err
	}
	return QM31{A: x.A.Mul(normInv), B: x.B.Neg().Mul(normInv)}, nil
}

func (x QM31) Equal(y QM31) bool { return x.A.Equal(y.A) && x.B.Equal(y.B) }

// Pow computes x^e by square-and-multiply.
func (x QM31) Pow(e uint64) QM31 {
	result := QM31One
	base := x
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		e >>= 1
	}
	return result
}

// FromBase embeds an M31 element into QM31.
func FromBase(a M31) QM31 {
	return QM31{A: CM31{A: a}}
}
