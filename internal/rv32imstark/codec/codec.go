// Package codec serializes proof.Proof to and from two wire formats: a
// JSON format for debugging (hex-encoded hashes, decimal field elements)
// and a length-prefixed little-endian binary format for production use.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/field"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/merkle"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/proof"
)

// ---- JSON format -----------------------------------------------------

type jsonQM31 struct {
	C0 uint32 `json:"c0"`
	C1 uint32 `json:"c1"`
	C2 uint32 `json:"c2"`
	C3 uint32 `json:"c3"`
}

type jsonFRILayerOpening struct {
	ValueA jsonQM31 `json:"value_a"`
	ValueB jsonQM31 `json:"value_b"`
	PathA  []string `json:"path_a"`
	PathB  []string `json:"path_b"`
}

type jsonQuery struct {
	Index               int                   `json:"index"`
	TraceRowA           []uint32              `json:"trace_row_a"`
	TraceRowB           []uint32              `json:"trace_row_b"`
	TracePathA          []string              `json:"trace_path_a"`
	TracePathB          []string              `json:"trace_path_b"`
	CompositionLeafA    []uint32              `json:"composition_leaf_a"`
	CompositionLeafB    []uint32              `json:"composition_leaf_b"`
	CompositionPathA    []string              `json:"composition_path_a"`
	CompositionPathB    []string              `json:"composition_path_b"`
	FRILayers           []jsonFRILayerOpening `json:"fri_layers"`
}

type jsonProof struct {
	TraceLen              int                 `json:"trace_len"`
	LDELen                int                 `json:"lde_len"`
	NumColumns            int                 `json:"num_columns"`
	TraceCommitment       string              `json:"trace_commitment"`
	CompositionCommitment string              `json:"composition_commitment"`
	FRILayerCommitments   []string            `json:"fri_layer_commitments"`
	FRIFinalValues        []jsonQM31          `json:"fri_final_values"`
	OODSPoint             jsonQM31            `json:"oods_point"`
	TraceOODSValues       []jsonQM31          `json:"trace_oods_values"`
	CompositionOODSValue  jsonQM31            `json:"composition_oods_value"`
	BusLHS                jsonQM31            `json:"bus_lhs"`
	BusRHS                jsonQM31            `json:"bus_rhs"`
	Queries               []jsonQuery         `json:"queries"`
	PublicInputs          []uint32            `json:"public_inputs"`
	PublicOutputs         []uint32            `json:"public_outputs"`
}

func digestToHex(d merkle.Digest) string { return hex.EncodeToString(d[:]) }

func digestFromHex(s string) (merkle.Digest, error) {
	var d merkle.Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("codec: invalid digest hex %q: %w", s, err)
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("codec: digest %q has length %d, expected %d", s, len(b), len(d))
	}
	copy(d[:], b)
	return d, nil
}

func qm31ToJSON(v field.QM31) jsonQM31 {
	c0, c1, c2, c3 := v.Components()
	return jsonQM31{C0: c0.Uint32(), C1: c1.Uint32(), C2: c2.Uint32(), C3: c3.Uint32()}
}

func qm31FromJSON(v jsonQM31) field.QM31 {
	return field.NewQM31(field.New(v.C0), field.New(v.C1), field.New(v.C2), field.New(v.C3))
}

func m31SliceToJSON(vs []field.M31) []uint32 {
	out := make([]uint32, len(vs))
	for i, v := range vs {
		out[i] = v.Uint32()
	}
	return out
}

func m31SliceFromJSON(vs []uint32) []field.M31 {
	out := make([]field.M31, len(vs))
	for i, v := range vs {
		out[i] = field.New(v)
	}
	return out
}

func qm31SliceToJSON(vs []field.QM31) []jsonQM31 {
	out := make([]jsonQM31, len(vs))
	for i, v := range vs {
		out[i] = qm31ToJSON(v)
	}
	return out
}

func qm31SliceFromJSON(vs []jsonQM31) []field.QM31 {
	out := make([]field.QM31, len(vs))
	for i, v := range vs {
		out[i] = qm31FromJSON(v)
	}
	return out
}

func pathToJSON(p *merkle.Path) []string {
	out := make([]string, len(p.Siblings))
	for i, s := range p.Siblings {
		out[i] = digestToHex(s)
	}
	return out
}

func pathFromJSON(ss []string) (*merkle.Path, error) {
	siblings := make([]merkle.Digest, len(ss))
	for i, s := range ss {
		d, err := digestFromHex(s)
		if err != nil {
			return nil, err
		}
		siblings[i] = d
	}
	return &merkle.Path{Siblings: siblings}, nil
}

func friLayerOpeningToJSON(o proof.FRILayerOpening) jsonFRILayerOpening {
	return jsonFRILayerOpening{
		ValueA: qm31ToJSON(o.ValueA),
		ValueB: qm31ToJSON(o.ValueB),
		PathA:  pathToJSON(o.PathA),
		PathB:  pathToJSON(o.PathB),
	}
}

func friLayerOpeningFromJSON(o jsonFRILayerOpening) (proof.FRILayerOpening, error) {
	pathA, err := pathFromJSON(o.PathA)
	if err != nil {
		return proof.FRILayerOpening{}, err
	}
	pathB, err := pathFromJSON(o.PathB)
	if err != nil {
		return proof.FRILayerOpening{}, err
	}
	return proof.FRILayerOpening{
		ValueA: qm31FromJSON(o.ValueA),
		ValueB: qm31FromJSON(o.ValueB),
		PathA:  pathA,
		PathB:  pathB,
	}, nil
}

func queryToJSON(q proof.Query) jsonQuery {
	layers := make([]jsonFRILayerOpening, len(q.FRILayers))
	for i, l := range q.FRILayers {
		layers[i] = friLayerOpeningToJSON(l)
	}
	return jsonQuery{
		Index:            q.Index,
		TraceRowA:        m31SliceToJSON(q.TraceRowA),
		TraceRowB:        m31SliceToJSON(q.TraceRowB),
		TracePathA:       pathToJSON(q.TracePathA),
		TracePathB:       pathToJSON(q.TracePathB),
		CompositionLeafA: m31SliceToJSON(q.CompositionLeafA),
		CompositionLeafB: m31SliceToJSON(q.CompositionLeafB),
		CompositionPathA: pathToJSON(q.CompositionPathA),
		CompositionPathB: pathToJSON(q.CompositionPathB),
		FRILayers:        layers,
	}
}

func queryFromJSON(q jsonQuery) (proof.Query, error) {
	tracePathA, err := pathFromJSON(q.TracePathA)
	if err != nil {
		return proof.Query{}, err
	}
	tracePathB, err := pathFromJSON(q.TracePathB)
	if err != nil {
		return proof.Query{}, err
	}
	compPathA, err := pathFromJSON(q.CompositionPathA)
	if err != nil {
		return proof.Query{}, err
	}
	compPathB, err := pathFromJSON(q.CompositionPathB)
	if err != nil {
		return proof.Query{}, err
	}
	layers := make([]proof.FRILayerOpening, len(q.FRILayers))
	for i, l := range q.FRILayers {
		layers[i], err = friLayerOpeningFromJSON(l)
		if err != nil {
			return proof.Query{}, err
		}
	}
	return proof.Query{
		Index:            q.Index,
		TraceRowA:        m31SliceFromJSON(q.TraceRowA),
		TraceRowB:        m31SliceFromJSON(q.TraceRowB),
		TracePathA:       tracePathA,
		TracePathB:       tracePathB,
		CompositionLeafA: m31SliceFromJSON(q.CompositionLeafA),
		CompositionLeafB: m31SliceFromJSON(q.CompositionLeafB),
		CompositionPathA: compPathA,
		CompositionPathB: compPathB,
		FRILayers:        layers,
	}, nil
}

func proofToJSON(pf *proof.Proof) jsonProof {
	layerCommitments := make([]string, len(pf.FRILayerCommitments))
	for i, c := range pf.FRILayerCommitments {
		layerCommitments[i] = digestToHex(c)
	}
	queries := make([]jsonQuery, len(pf.Queries))
	for i, q := range pf.Queries {
		queries[i] = queryToJSON(q)
	}
	return jsonProof{
		TraceLen:              pf.TraceLen,
		LDELen:                pf.LDELen,
		NumColumns:            pf.NumColumns,
		TraceCommitment:       digestToHex(pf.TraceCommitment),
		CompositionCommitment: digestToHex(pf.CompositionCommitment),
		FRILayerCommitments:   layerCommitments,
		FRIFinalValues:        qm31SliceToJSON(pf.FRIFinalValues),
		OODSPoint:             qm31ToJSON(pf.OODSPoint),
		TraceOODSValues:       qm31SliceToJSON(pf.TraceOODSValues),
		CompositionOODSValue:  qm31ToJSON(pf.CompositionOODSValue),
		BusLHS:                qm31ToJSON(pf.BusLHS),
		BusRHS:                qm31ToJSON(pf.BusRHS),
		Queries:               queries,
		PublicInputs:          m31SliceToJSON(pf.PublicInputs),
		PublicOutputs:         m31SliceToJSON(pf.PublicOutputs),
	}
}

func proofFromJSON(jp jsonProof) (*proof.Proof, error) {
	traceCommitment, err := digestFromHex(jp.TraceCommitment)
	if err != nil {
		return nil, err
	}
	compositionCommitment, err := digestFromHex(jp.CompositionCommitment)
	if err != nil {
		return nil, err
	}
	layerCommitments := make([]merkle.Digest, len(jp.FRILayerCommitments))
	for i, c := range jp.FRILayerCommitments {
		d, err := digestFromHex(c)
		if err != nil {
			return nil, err
		}
		layerCommitments[i] = d
	}
	queries := make([]proof.Query, len(jp.Queries))
	for i, q := range jp.Queries {
		pq, err := queryFromJSON(q)
		if err != nil {
			return nil, err
		}
		queries[i] = pq
	}
	return &proof.Proof{
		TraceLen:              jp.TraceLen,
		LDELen:                jp.LDELen,
		NumColumns:            jp.NumColumns,
		TraceCommitment:       traceCommitment,
		CompositionCommitment: compositionCommitment,
		FRILayerCommitments:   layerCommitments,
		FRIFinalValues:        qm31SliceFromJSON(jp.FRIFinalValues),
		OODSPoint:             qm31FromJSON(jp.OODSPoint),
		TraceOODSValues:       qm31SliceFromJSON(jp.TraceOODSValues),
		CompositionOODSValue:  qm31FromJSON(jp.CompositionOODSValue),
		BusLHS:                qm31FromJSON(jp.BusLHS),
		BusRHS:                qm31FromJSON(jp.BusRHS),
		Queries:               queries,
		PublicInputs:          m31SliceFromJSON(jp.PublicInputs),
		PublicOutputs:         m31SliceFromJSON(jp.PublicOutputs),
	}, nil
}

// EncodeJSON renders pf as indented JSON, for debugging and golden-file tests.
func EncodeJSON(pf *proof.Proof) ([]byte, error) {
	return json.MarshalIndent(proofToJSON(pf), "", "  ")
}

// DecodeJSON parses a proof encoded by EncodeJSON.
func DecodeJSON(data []byte) (*proof.Proof, error) {
	var jp jsonProof
	if err := json.Unmarshal(data, &jp); err != nil {
		return nil, fmt.Errorf("codec: decoding JSON proof: %w", err)
	}
	return proofFromJSON(jp)
}

// ---- Binary format -----------------------------------------------------
//
// Every integer is a little-endian uint32. Every field element is its
// 4-byte little-endian encoding (field.M31.Bytes / field.FromBytes).
// Every QM31 is its four M31 components in (c0,c1,c2,c3) order. Every
// Digest is its raw 32 bytes. Every slice is a uint32 length prefix
// followed by that many elements.

type binWriter struct {
	buf bytes.Buffer
}

func (w *binWriter) u32(v uint32)         { _ = binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *binWriter) m31(v field.M31)      { b := v.Bytes(); w.buf.Write(b[:]) }
func (w *binWriter) digest(d merkle.Digest) { w.buf.Write(d[:]) }

func (w *binWriter) qm31(v field.QM31) {
	c0, c1, c2, c3 := v.Components()
	w.m31(c0)
	w.m31(c1)
	w.m31(c2)
	w.m31(c3)
}

func (w *binWriter) m31Slice(vs []field.M31) {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.m31(v)
	}
}

func (w *binWriter) qm31Slice(vs []field.QM31) {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.qm31(v)
	}
}

func (w *binWriter) digestSlice(ds []merkle.Digest) {
	w.u32(uint32(len(ds)))
	for _, d := range ds {
		w.digest(d)
	}
}

func (w *binWriter) path(p *merkle.Path) { w.digestSlice(p.Siblings) }

func (w *binWriter) friLayerOpening(o proof.FRILayerOpening) {
	w.qm31(o.ValueA)
	w.qm31(o.ValueB)
	w.path(o.PathA)
	w.path(o.PathB)
}

func (w *binWriter) query(q proof.Query) {
	w.u32(uint32(q.Index))
	w.m31Slice(q.TraceRowA)
	w.m31Slice(q.TraceRowB)
	w.path(q.TracePathA)
	w.path(q.TracePathB)
	w.m31Slice(q.CompositionLeafA)
	w.m31Slice(q.CompositionLeafB)
	w.path(q.CompositionPathA)
	w.path(q.CompositionPathB)
	w.u32(uint32(len(q.FRILayers)))
	for _, l := range q.FRILayers {
		w.friLayerOpening(l)
	}
}

// EncodeBinary renders pf as the length-prefixed little-endian binary
// production format.
func EncodeBinary(pf *proof.Proof) ([]byte, error) {
	w := &binWriter{}
	w.u32(uint32(pf.TraceLen))
	w.u32(uint32(pf.LDELen))
	w.u32(uint32(pf.NumColumns))
	w.digest(pf.TraceCommitment)
	w.digest(pf.CompositionCommitment)
	w.digestSlice(pf.FRILayerCommitments)
	w.qm31Slice(pf.FRIFinalValues)
	w.qm31(pf.OODSPoint)
	w.qm31Slice(pf.TraceOODSValues)
	w.qm31(pf.CompositionOODSValue)
	w.qm31(pf.BusLHS)
	w.qm31(pf.BusRHS)
	w.u32(uint32(len(pf.Queries)))
	for _, q := range pf.Queries {
		w.query(q)
	}
	w.m31Slice(pf.PublicInputs)
	w.m31Slice(pf.PublicOutputs)
	return w.buf.Bytes(), nil
}

type binReader struct {
	data []byte
	pos  int
}

func (r *binReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("codec: unexpected end of binary proof at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *binReader) m31() (field.M31, error) {
	if r.pos+4 > len(r.data) {
		return field.Zero, fmt.Errorf("codec: unexpected end of binary proof at offset %d", r.pos)
	}
	var b [4]byte
	copy(b[:], r.data[r.pos:r.pos+4])
	r.pos += 4
	return field.FromBytes(b), nil
}

func (r *binReader) digest() (merkle.Digest, error) {
	var d merkle.Digest
	if r.pos+len(d) > len(r.data) {
		return d, fmt.Errorf("codec: unexpected end of binary proof at offset %d", r.pos)
	}
	copy(d[:], r.data[r.pos:r.pos+len(d)])
	r.pos += len(d)
	return d, nil
}

func (r *binReader) qm31() (field.QM31, error) {
	c0, err := r.m31()
	if err != nil {
		return field.QM31Zero, err
	}
	c1, err := r.m31()
	if err != nil {
		return field.QM31Zero, err
	}
	c2, err := r.m31()
	if err != nil {
		return field.QM31Zero, err
	}
	c3, err := r.m31()
	if err != nil {
		return field.QM31Zero, err
	}
	return field.NewQM31(c0, c1, c2, c3), nil
}

func (r *binReader) m31Slice() ([]field.M31, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]field.M31, n)
	for i := range out {
		out[i], err = r.m31()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *binReader) qm31Slice() ([]field.QM31, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]field.QM31, n)
	for i := range out {
		out[i], err = r.qm31()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *binReader) digestSlice() ([]merkle.Digest, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]merkle.Digest, n)
	for i := range out {
		out[i], err = r.digest()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *binReader) path() (*merkle.Path, error) {
	siblings, err := r.digestSlice()
	if err != nil {
		return nil, err
	}
	return &merkle.Path{Siblings: siblings}, nil
}

func (r *binReader) friLayerOpening() (proof.FRILayerOpening, error) {
	valueA, err := r.qm31()
	if err != nil {
		return proof.FRILayerOpening{}, err
	}
	valueB, err := r.qm31()
	if err != nil {
		return proof.FRILayerOpening{}, err
	}
	pathA, err := r.path()
	if err != nil {
		return proof.FRILayerOpening{}, err
	}
	pathB, err := r.path()
	if err != nil {
		return proof.FRILayerOpening{}, err
	}
	return proof.FRILayerOpening{ValueA: valueA, ValueB: valueB, PathA: pathA, PathB: pathB}, nil
}

func (r *binReader) query() (proof.Query, error) {
	index, err := r.u32()
	if err != nil {
		return proof.Query{}, err
	}
	traceRowA, err := r.m31Slice()
	if err != nil {
		return proof.Query{}, err
	}
	traceRowB, err := r.m31Slice()
	if err != nil {
		return proof.Query{}, err
	}
	tracePathA, err := r.path()
	if err != nil {
		return proof.Query{}, err
	}
	tracePathB, err := r.path()
	if err != nil {
		return proof.Query{}, err
	}
	compLeafA, err := r.m31Slice()
	if err != nil {
		return proof.Query{}, err
	}
	compLeafB, err := r.m31Slice()
	if err != nil {
		return proof.Query{}, err
	}
	compPathA, err := r.path()
	if err != nil {
		return proof.Query{}, err
	}
	compPathB, err := r.path()
	if err != nil {
		return proof.Query{}, err
	}
	numLayers, err := r.u32()
	if err != nil {
		return proof.Query{}, err
	}
	layers := make([]proof.FRILayerOpening, numLayers)
	for i := range layers {
		layers[i], err = r.friLayerOpening()
		if err != nil {
			return proof.Query{}, err
		}
	}
	return proof.Query{
		Index:            int(index),
		TraceRowA:        traceRowA,
		TraceRowB:        traceRowB,
		TracePathA:       tracePathA,
		TracePathB:       tracePathB,
		CompositionLeafA: compLeafA,
		CompositionLeafB: compLeafB,
		CompositionPathA: compPathA,
		CompositionPathB: compPathB,
		FRILayers:        layers,
	}, nil
}

// DecodeBinary parses a proof encoded by EncodeBinary.
func DecodeBinary(data []byte) (*proof.Proof, error) {
	r := &binReader{data: data}

	traceLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	ldeLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	numColumns, err := r.u32()
	if err != nil {
		return nil, err
	}
	traceCommitment, err := r.digest()
	if err != nil {
		return nil, err
	}
	compositionCommitment, err := r.digest()
	if err != nil {
		return nil, err
	}
	layerCommitments, err := r.digestSlice()
	if err != nil {
		return nil, err
	}
	finalValues, err := r.qm31Slice()
	if err != nil {
		return nil, err
	}
	oodsPoint, err := r.qm31()
	if err != nil {
		return nil, err
	}
	traceOODS, err := r.qm31Slice()
	if err != nil {
		return nil, err
	}
	compositionOODS, err := r.qm31()
	if err != nil {
		return nil, err
	}
	busLHS, err := r.qm31()
	if err != nil {
		return nil, err
	}
	busRHS, err := r.qm31()
	if err != nil {
		return nil, err
	}
	numQueries, err := r.u32()
	if err != nil {
		return nil, err
	}
	queries := make([]proof.Query, numQueries)
	for i := range queries {
		queries[i], err = r.query()
		if err != nil {
			return nil, err
		}
	}
	publicInputs, err := r.m31Slice()
	if err != nil {
		return nil, err
	}
	publicOutputs, err := r.m31Slice()
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.data) {
		return nil, fmt.Errorf("codec: %d trailing bytes after decoding binary proof", len(r.data)-r.pos)
	}

	return &proof.Proof{
		TraceLen:              int(traceLen),
		LDELen:                int(ldeLen),
		NumColumns:            int(numColumns),
		TraceCommitment:       traceCommitment,
		CompositionCommitment: compositionCommitment,
		FRILayerCommitments:   layerCommitments,
		FRIFinalValues:        finalValues,
		OODSPoint:             oodsPoint,
		TraceOODSValues:       traceOODS,
		CompositionOODSValue:  compositionOODS,
		BusLHS:                busLHS,
		BusRHS:                busRHS,
		Queries:               queries,
		PublicInputs:          publicInputs,
		PublicOutputs:         publicOutputs,
	}, nil
}
