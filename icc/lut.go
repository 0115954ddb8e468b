// seehuhn.de/go/jpgicc - apply ICC profiles to JPEG images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import (
	"math"
)

// Lut represents a colour lookup table from an ICC profile.
// The implementations are [*LutMFT] (mft1 and mft2) and [*LutAB]
// (mAB and mBA).
type Lut interface {
	// Apply transforms input values through the LUT.
	// Input and output values are normalised to [0, 1].
	Apply(input []float64) []float64

	// InputChannels returns the number of input channels.
	InputChannels() int

	// OutputChannels returns the number of output channels.
	OutputChannels() int
}

// DecodeLut decodes a Lut from ICC tag data.
// This is used for the AToB0, AToB1, AToB2, BToA0, BToA1, and BToA2 tags.
func DecodeLut(data []byte) (Lut, error) {
	if len(data) < 8 {
		return nil, errInvalidTagData
	}

	switch string(data[0:4]) {
	case "mft1":
		return decodeLutMFT(data, 1)
	case "mft2":
		return decodeLutMFT(data, 2)
	case "mAB ":
		return decodeLutAB(data, false)
	case "mBA ":
		return decodeLutAB(data, true)
	default:
		return nil, errUnexpectedType
	}
}

// LutMFT represents a lut8Type (mft1) or lut16Type (mft2) table.
// Processing order: Matrix, InputCurves, CLUT, OutputCurves.
type LutMFT struct {
	precision    int       // bytes per table entry, 1 or 2
	matrix       []float64 // 3×3, nil if identity
	inputCurves  []*Curve
	clut         *grid
	outputCurves []*Curve
}

func (l *LutMFT) InputChannels() int  { return len(l.inputCurves) }
func (l *LutMFT) OutputChannels() int { return len(l.outputCurves) }

// Is16Bit reports whether the table was stored as lut16Type.  Tables of
// this type use the legacy 16-bit encoding when connecting to a Lab PCS.
func (l *LutMFT) Is16Bit() bool { return l.precision == 2 }

// Apply transforms input values through the LUT.
func (l *LutMFT) Apply(input []float64) []float64 {
	if len(input) != l.InputChannels() {
		return make([]float64, l.OutputChannels())
	}

	values := applyMatrix3x3(l.matrix, input)
	values = applyCurves(l.inputCurves, values)
	values = l.clut.eval(values)
	values = applyCurves(l.outputCurves, values)
	return clampAll(values)
}

func decodeLutMFT(data []byte, precision int) (*LutMFT, error) {
	headerSize := 48
	if precision == 2 {
		headerSize = 52
	}
	if len(data) < headerSize {
		return nil, errInvalidTagData
	}

	in := int(data[8])
	out := int(data[9])
	points := int(data[10])
	if in == 0 || out == 0 || in > 15 || out > 15 {
		return nil, errInvalidTagData
	}

	matrix := make([]float64, 9)
	for i := range matrix {
		matrix[i] = getS15Fixed16(data, 12+i*4)
	}
	if isIdentity(matrix) {
		matrix = nil
	}

	inEntries, outEntries := 256, 256
	if precision == 2 {
		inEntries = int(getUint16(data, 48))
		outEntries = int(getUint16(data, 50))
	}
	clutSize := computeCLUTSize(uniformGrid(points, in, out, nil).points, out)
	if clutSize == 0 || inEntries < 2 || outEntries < 2 {
		return nil, errInvalidTagData
	}

	r := &tableReader{data: data, pos: headerSize, precision: precision}
	l := &LutMFT{precision: precision, matrix: matrix}
	l.inputCurves = r.curves(in, inEntries)
	clut := r.values(clutSize)
	l.outputCurves = r.curves(out, outEntries)
	if r.err != nil {
		return nil, r.err
	}
	l.clut = uniformGrid(points, in, out, clut)
	return l, nil
}

// tableReader reads the consecutive 8- or 16-bit tables of an mft1 or
// mft2 element.
type tableReader struct {
	data      []byte
	pos       int
	precision int
	err       error
}

func (r *tableReader) raw(n int) []uint16 {
	if r.err != nil {
		return nil
	}
	if r.pos+n*r.precision > len(r.data) {
		r.err = errInvalidTagData
		return nil
	}
	res := make([]uint16, n)
	for i := range res {
		if r.precision == 1 {
			v := uint16(r.data[r.pos+i])
			res[i] = v<<8 | v
		} else {
			res[i] = getUint16(r.data, r.pos+2*i)
		}
	}
	r.pos += n * r.precision
	return res
}

func (r *tableReader) curves(channels, entries int) []*Curve {
	res := make([]*Curve, channels)
	for i := range res {
		res[i] = &Curve{Table: r.raw(entries)}
	}
	return res
}

func (r *tableReader) values(n int) []float64 {
	raw := r.raw(n)
	res := make([]float64, len(raw))
	for i, v := range raw {
		res[i] = float64(v) / 65535
	}
	return res
}

// LutAB represents a lutAtoBType (mAB) or lutBtoAType (mBA) table.
//
// The A curves are on the device side and the B curves on the PCS side.
// Processing order for mAB: A curves, CLUT, M curves, Matrix, B curves.
// For mBA the order is reversed.
type LutAB struct {
	bToA    bool
	in, out int
	aCurves []*Curve
	clut    *grid // nil if absent
	mCurves []*Curve
	matrix  []float64 // 3×4, nil if identity
	bCurves []*Curve
}

// NewLutAToB returns an mAB table which evaluates c.  All curves are set
// to the identity.
func NewLutAToB(c *CLUT) *LutAB {
	return newLutAB(c, false)
}

// NewLutBToA returns an mBA table which evaluates c.  All curves are set
// to the identity.
func NewLutBToA(c *CLUT) *LutAB {
	return newLutAB(c, true)
}

func newLutAB(c *CLUT, bToA bool) *LutAB {
	l := &LutAB{
		bToA: bToA,
		in:   c.InputChannels,
		out:  c.OutputChannels,
		clut: c.grid(),
	}
	aCount, bCount := l.in, l.out
	if bToA {
		aCount, bCount = bCount, aCount
	}
	l.aCurves = identityCurves(aCount)
	l.bCurves = identityCurves(bCount)
	return l
}

func identityCurves(n int) []*Curve {
	res := make([]*Curve, n)
	for i := range res {
		res[i] = &Curve{Gamma: 1}
	}
	return res
}

func (l *LutAB) signature() string {
	if l.bToA {
		return "mBA "
	}
	return "mAB "
}

func (l *LutAB) InputChannels() int  { return l.in }
func (l *LutAB) OutputChannels() int { return l.out }

// Apply transforms input values through the LUT.
func (l *LutAB) Apply(input []float64) []float64 {
	if len(input) != l.in {
		return make([]float64, l.out)
	}

	values := append([]float64(nil), input...)
	if l.bToA {
		values = applyCurves(l.bCurves, values)
		values = applyMatrix3x4(l.matrix, values)
		values = applyCurves(l.mCurves, values)
		values = l.applyCLUT(values)
		values = applyCurves(l.aCurves, values)
	} else {
		values = applyCurves(l.aCurves, values)
		values = l.applyCLUT(values)
		values = applyCurves(l.mCurves, values)
		values = applyMatrix3x4(l.matrix, values)
		values = applyCurves(l.bCurves, values)
	}
	return clampAll(values)
}

func (l *LutAB) applyCLUT(values []float64) []float64 {
	if l.clut == nil {
		return values
	}
	return l.clut.eval(values)
}

func decodeLutAB(data []byte, bToA bool) (*LutAB, error) {
	if len(data) < 32 {
		return nil, errInvalidTagData
	}

	in := int(data[8])
	out := int(data[9])
	if in == 0 || out == 0 || in > 15 || out > 15 {
		return nil, errInvalidTagData
	}

	l := &LutAB{bToA: bToA, in: in, out: out}
	aCount, bCount := in, out
	if bToA {
		aCount, bCount = out, in
	}

	var err error
	if off := int(getUint32(data, 12)); off != 0 {
		if l.bCurves, err = decodeCurveSequence(data, off, bCount); err != nil {
			return nil, err
		}
	}
	if off := int(getUint32(data, 16)); off != 0 {
		if l.matrix, err = decodeMatrix3x4(data, off); err != nil {
			return nil, err
		}
	}
	if off := int(getUint32(data, 20)); off != 0 {
		// M curves sit next to the matrix and always have 3 channels.
		if l.mCurves, err = decodeCurveSequence(data, off, 3); err != nil {
			return nil, err
		}
	}
	if off := int(getUint32(data, 24)); off != 0 {
		if l.clut, err = decodeCLUT(data, off, in, out); err != nil {
			return nil, err
		}
	}
	if off := int(getUint32(data, 28)); off != 0 {
		if l.aCurves, err = decodeCurveSequence(data, off, aCount); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Encode converts the LUT to lutAtoBType or lutBtoAType format.
// The CLUT, if present, is written with 16-bit precision.
func (l *LutAB) Encode() []byte {
	aCount, bCount := l.in, l.out
	if l.bToA {
		aCount, bCount = bCount, aCount
	}

	// element order in the file: B curves, matrix, M curves, CLUT, A curves
	var parts [5][]byte
	parts[0] = encodeCurveSequence(l.bCurves, bCount)
	if l.matrix != nil {
		m := make([]byte, 48)
		for i, v := range l.matrix {
			putS15Fixed16(m, 4*i, v)
		}
		parts[1] = m
	}
	if l.mCurves != nil {
		parts[2] = encodeCurveSequence(l.mCurves, 3)
	}
	if l.clut != nil {
		parts[3] = encodeCLUT(l.clut)
	}
	if l.clut != nil || l.mCurves != nil || l.aCurves != nil {
		parts[4] = encodeCurveSequence(l.aCurves, aCount)
	}

	buf := make([]byte, 32)
	copy(buf[0:4], l.signature())
	buf[8] = byte(l.in)
	buf[9] = byte(l.out)
	for i, part := range parts {
		if part == nil {
			continue
		}
		putUint32(buf, 12+4*i, uint32(len(buf)))
		buf = append(buf, part...)
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}
	}
	return buf
}

// computeCLUTSize calculates the total CLUT size with overflow checking.
// The result is 0 if the table would be unreasonably large.
func computeCLUTSize(gridPoints []int, outputChannels int) int {
	const maxSize = 1 << 30
	size := uint64(outputChannels)
	for _, g := range gridPoints {
		size *= uint64(g)
		if size > maxSize || g == 0 {
			return 0
		}
	}
	if size > maxSize {
		return 0
	}
	return int(size)
}

func isIdentity(m []float64) bool {
	for i, v := range m {
		want := 0.0
		if i < 9 && i%4 == 0 {
			want = 1
		}
		if math.Abs(v-want) > 1e-6 {
			return false
		}
	}
	return true
}

func applyCurves(curves []*Curve, values []float64) []float64 {
	for i, c := range curves {
		if c != nil && i < len(values) {
			values[i] = c.Evaluate(values[i])
		}
	}
	return values
}

func applyMatrix3x3(m []float64, values []float64) []float64 {
	if m == nil || len(values) != 3 {
		return append([]float64(nil), values...)
	}
	x, y, z := values[0], values[1], values[2]
	return []float64{
		m[0]*x + m[1]*y + m[2]*z,
		m[3]*x + m[4]*y + m[5]*z,
		m[6]*x + m[7]*y + m[8]*z,
	}
}

func applyMatrix3x4(m []float64, values []float64) []float64 {
	if m == nil || len(values) != 3 {
		return values
	}
	x, y, z := values[0], values[1], values[2]
	return []float64{
		m[0]*x + m[1]*y + m[2]*z + m[9],
		m[3]*x + m[4]*y + m[5]*z + m[10],
		m[6]*x + m[7]*y + m[8]*z + m[11],
	}
}

func clampAll(values []float64) []float64 {
	for i, v := range values {
		values[i] = clamp(v, 0, 1)
	}
	return values
}

func decodeCurveSequence(data []byte, offset int, n int) ([]*Curve, error) {
	curves := make([]*Curve, n)
	pos := offset
	for i := range curves {
		if pos < 0 || pos >= len(data) {
			return nil, errInvalidTagData
		}
		c, size, err := decodeCurveElement(data[pos:])
		if err != nil {
			return nil, err
		}
		curves[i] = c
		pos += (size + 3) &^ 3
	}
	return curves, nil
}

func encodeCurveSequence(curves []*Curve, n int) []byte {
	var buf []byte
	for i := range n {
		c := &Curve{Gamma: 1}
		if i < len(curves) && curves[i] != nil {
			c = curves[i]
		}
		buf = append(buf, c.Encode()...)
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}
	}
	return buf
}

func decodeMatrix3x4(data []byte, offset int) ([]float64, error) {
	if offset+48 > len(data) {
		return nil, errInvalidTagData
	}
	matrix := make([]float64, 12)
	for i := range matrix {
		matrix[i] = getS15Fixed16(data, offset+i*4)
	}
	if isIdentity(matrix) {
		return nil, nil
	}
	return matrix, nil
}

func decodeCLUT(data []byte, offset int, in, out int) (*grid, error) {
	if offset+20 > len(data) {
		return nil, errInvalidTagData
	}

	points := make([]int, in)
	for i := range points {
		points[i] = int(data[offset+i])
	}
	size := computeCLUTSize(points, out)
	if size == 0 {
		return nil, errInvalidTagData
	}

	precision := int(data[offset+16])
	if precision != 1 && precision != 2 {
		return nil, errInvalidTagData
	}
	r := &tableReader{data: data, pos: offset + 20, precision: precision}
	values := r.values(size)
	if r.err != nil {
		return nil, r.err
	}
	return &grid{points: points, out: out, values: values}, nil
}

func encodeCLUT(g *grid) []byte {
	buf := make([]byte, 20+2*len(g.values))
	for i, n := range g.points {
		buf[i] = byte(n)
	}
	buf[16] = 2
	for i, v := range g.values {
		putUint16(buf, 20+2*i, uint16(math.Round(clamp(v, 0, 1)*65535)))
	}
	return buf
}
