package rv32imstark

import "github.com/circleproof/rv32im-stark/internal/rv32imstark/codec"

// EncodeProofJSON renders pf as the debug JSON wire format.
func EncodeProofJSON(pf *Proof) ([]byte, error) { return codec.EncodeJSON(pf) }

// DecodeProofJSON parses a proof encoded by EncodeProofJSON.
func DecodeProofJSON(data []byte) (*Proof, error) { return codec.DecodeJSON(data) }

// EncodeProofBinary renders pf as the length-prefixed binary production
// wire format.
func EncodeProofBinary(pf *Proof) ([]byte, error) { return codec.EncodeBinary(pf) }

// DecodeProofBinary parses a proof encoded by EncodeProofBinary.
func DecodeProofBinary(data []byte) (*Proof, error) { return codec.DecodeBinary(data) }
