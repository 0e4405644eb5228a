// Package rv32imstark is the public API of a Circle-STARK zkVM for a
// scoped RV32IM instruction set: load an ELF, execute it to a trace,
// prove the trace against the CPU AIR, and verify the resulting proof.
//
// A typical prover:
//
//	img, err := rv32imstark.LoadELF(r)
//	result, err := rv32imstark.Prove(img, rv32imstark.DefaultConfig())
//	// result.Proof is ready to serialize via EncodeProofJSON/EncodeProofBinary
//
// and a typical verifier:
//
//	err := rv32imstark.Verify(proof, cfg)
package rv32imstark
