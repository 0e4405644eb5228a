package air

import "github.com/circleproof/rv32im-stark/internal/rv32imstark/field"

// MaxDegree is the highest single-constraint degree in Catalogue(). The
// prover and verifier do not call it.
func MaxDegree() int {
	max := 0
	for _, c := range Catalogue() {
		if c.Degree > max {
			max = c.Degree
		}
	}
	return max
}

// EvaluateAll runs every constraint in the catalogue against a row,
// returning one field element per constraint in catalogue order.
func EvaluateAll(catalogue []Constraint, row Row) []field.M31 {
	out := make([]field.M31, len(catalogue))
	for i, c := range catalogue {
		out[i] = c.Eval(row)
	}
	return out
}

// Compose folds per-constraint evaluations into a single extension-field
// value using independent random coefficients drawn from the Fiat-Shamir
// channel: C(row) = Σ alphas[j] * constraint_j(row). Soundness of batching
// many constraints into one low-degree check depends on these coefficients
// being unpredictable to the prover at constraint-authoring time.
func Compose(catalogue []Constraint, row Row, alphas []field.QM31) field.QM31 {
	if len(alphas) != len(catalogue) {
		panic("air: alphas length must match catalogue length")
	}
	acc := field.QM31Zero
	for i, c := range catalogue {
		term := alphas[i].MulM31(c.Eval(row))
		acc = acc.Add(term)
	}
	return acc
}
