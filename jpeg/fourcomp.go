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


package jpeg

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"math"
)

// The standard library encoder only writes Gray and YCbCr images.  Four
// component images are written by the baseline encoder in this file.
// All components are stored at full resolution.

const blockSize = 64

// unzig maps zig-zag positions to natural positions within a block.
var unzig = [blockSize]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// unscaledQuant holds the example tables from section K.1 of ITU T.81,
// luminance first, in zig-zag order.
var unscaledQuant = [2][blockSize]byte{
	{
		16, 11, 12, 14, 12, 10, 16, 14,
		13, 14, 18, 17, 16, 19, 24, 40,
		26, 24, 22, 22, 24, 49, 35, 37,
		29, 40, 58, 51, 61, 60, 57, 51,
		56, 55, 64, 72, 92, 78, 64, 68,
		87, 69, 55, 56, 80, 109, 81, 87,
		95, 98, 103, 104, 103, 62, 77, 113,
		121, 112, 100, 120, 92, 101, 103, 99,
	},
	{
		17, 18, 18, 24, 21, 24, 47, 26,
		26, 47, 99, 66, 56, 66, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	},
}

// huffmanSpec lists the code counts per length and the coded values.
type huffmanSpec struct {
	count [16]byte
	value []byte
}

// huffmanSpecs are the tables from section K.3 of ITU T.81, in the order
// luminance DC, luminance AC, chrominance DC, chrominance AC.
var huffmanSpecs = [4]huffmanSpec{
	{
		[16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
	{
		[16]byte{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 125},
		[]byte{
			0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
			0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
			0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
			0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
			0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
			0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
			0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
			0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
			0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
			0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
			0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
			0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
			0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
			0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
			0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
			0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
			0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
			0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
			0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
			0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	},
	{
		[16]byte{0, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
		[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	},
	{
		[16]byte{0, 2, 1, 2, 4, 4, 3, 4, 7, 5, 4, 4, 0, 1, 2, 119},
		[]byte{
			0x00, 0x01, 0x02, 0x03, 0x11, 0x04, 0x05, 0x21,
			0x31, 0x06, 0x12, 0x41, 0x51, 0x07, 0x61, 0x71,
			0x13, 0x22, 0x32, 0x81, 0x08, 0x14, 0x42, 0x91,
			0xa1, 0xb1, 0xc1, 0x09, 0x23, 0x33, 0x52, 0xf0,
			0x15, 0x62, 0x72, 0xd1, 0x0a, 0x16, 0x24, 0x34,
			0xe1, 0x25, 0xf1, 0x17, 0x18, 0x19, 0x1a, 0x26,
			0x27, 0x28, 0x29, 0x2a, 0x35, 0x36, 0x37, 0x38,
			0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48,
			0x49, 0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58,
			0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68,
			0x69, 0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78,
			0x79, 0x7a, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
			0x88, 0x89, 0x8a, 0x92, 0x93, 0x94, 0x95, 0x96,
			0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5,
			0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4,
			0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3,
			0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2,
			0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda,
			0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9,
			0xea, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	},
}

// huffmanCodes maps each value to a codeword.  The top 8 bits give the
// code length, the low 24 bits hold the code.
type huffmanCodes []uint32

func newHuffmanCodes(s huffmanSpec) huffmanCodes {
	maxValue := 0
	for _, v := range s.value {
		maxValue = max(maxValue, int(v))
	}
	h := make(huffmanCodes, maxValue+1)
	code, k := uint32(0), 0
	for i := range s.count {
		nBits := uint32(i+1) << 24
		for range s.count[i] {
			h[s.value[k]] = nBits | code
			code++
			k++
		}
		code <<= 1
	}
	return h
}

var allHuffmanCodes [4]huffmanCodes

// dctCos[x][u] is cos((2x+1)uπ/16), scaled by 1/√2 for u = 0.
var dctCos [8][8]float64

func init() {
	for i, s := range huffmanSpecs {
		allHuffmanCodes[i] = newHuffmanCodes(s)
	}
	for x := range 8 {
		for u := range 8 {
			c := math.Cos(float64((2*x+1)*u) * math.Pi / 16)
			if u == 0 {
				c /= math.Sqrt2
			}
			dctCos[x][u] = c
		}
	}
}

// quantTables scales the example tables as the IJG library does.
func quantTables(quality int) [2][blockSize]byte {
	quality = min(max(quality, 1), 100)
	var scale int
	if quality < 50 {
		scale = 5000 / quality
	} else {
		scale = 200 - quality*2
	}
	var q [2][blockSize]byte
	for i := range q {
		for j := range q[i] {
			x := (int(unscaledQuant[i][j])*scale + 50) / 100
			q[i][j] = byte(min(max(x, 1), 255))
		}
	}
	return q
}

// fdct replaces the level shifted samples in b, in natural order, by
// their DCT coefficients.
func fdct(b *[blockSize]float64) {
	var tmp [blockSize]float64
	for y := range 8 {
		for u := range 8 {
			var sum float64
			for x := range 8 {
				sum += b[8*y+x] * dctCos[x][u]
			}
			tmp[8*y+u] = sum / 2
		}
	}
	for u := range 8 {
		for v := range 8 {
			var sum float64
			for y := range 8 {
				sum += tmp[8*y+u] * dctCos[y][v]
			}
			b[8*v+u] = sum / 2
		}
	}
}

// bitWriter writes entropy coded data, with byte stuffing.
type bitWriter struct {
	w           *bytes.Buffer
	bits, nBits uint32
}

// emit writes the nBits least significant bits of bits.
func (e *bitWriter) emit(bits, nBits uint32) {
	nBits += e.nBits
	bits <<= 32 - nBits
	bits |= e.bits
	for nBits >= 8 {
		b := uint8(bits >> 24)
		e.w.WriteByte(b)
		if b == 0xFF {
			e.w.WriteByte(0x00)
		}
		bits <<= 8
		nBits -= 8
	}
	e.bits, e.nBits = bits, nBits
}

func (e *bitWriter) emitHuff(h huffmanCodes, value int32) {
	x := h[value]
	e.emit(x&(1<<24-1), x>>24)
}

// emitHuffRLE writes a run length and a coefficient value, in the form
// used for both DC differences and AC coefficients.
func (e *bitWriter) emitHuffRLE(h huffmanCodes, runLength, value int32) {
	a, b := value, value
	if a < 0 {
		a, b = -value, value-1
	}
	var nBits uint32
	for a>>nBits != 0 {
		nBits++
	}
	e.emitHuff(h, runLength<<4|int32(nBits))
	if nBits > 0 {
		e.emit(uint32(b)&(1<<nBits-1), nBits)
	}
}

// fourComponentScan describes how the components of a four component
// image are stored.
type fourComponentScan struct {
	ids    [4]byte
	tables [4]int // 0 for luminance tables, 1 for chrominance tables
}

var (
	cmykScan = fourComponentScan{ids: [4]byte{'C', 'M', 'Y', 'K'}}
	ycckScan = fourComponentScan{ids: [4]byte{1, 2, 3, 4}, tables: [4]int{0, 1, 1, 0}}
)

// encodeFourComponent compresses interleaved four component samples as a
// baseline JPEG stream.  The result starts with the quantization tables
// and ends with the EOI marker.  If ycck is set, the first three samples
// of every pixel are converted as in the IJG library before storing.
func encodeFourComponent(pix []byte, width, height, quality int, ycck bool) []byte {
	scan := cmykScan
	if ycck {
		scan = ycckScan
		conv := make([]byte, len(pix))
		for i := 0; i+4 <= len(pix); i += 4 {
			conv[i], conv[i+1], conv[i+2] = color.RGBToYCbCr(255-pix[i], 255-pix[i+1], 255-pix[i+2])
			conv[i+3] = pix[i+3]
		}
		pix = conv
	}
	nTables := 1
	if ycck {
		nTables = 2
	}

	out := &bytes.Buffer{}
	quant := quantTables(quality)

	// DQT
	writeMarkerHeader(out, markerDQT, 2+nTables*(1+blockSize))
	for i := range nTables {
		out.WriteByte(byte(i))
		out.Write(quant[i][:])
	}

	// SOF0
	writeMarkerHeader(out, markerSOF0, 8+3*4)
	var sof [6]byte
	sof[0] = 8
	binary.BigEndian.PutUint16(sof[1:], uint16(height))
	binary.BigEndian.PutUint16(sof[3:], uint16(width))
	sof[5] = 4
	out.Write(sof[:])
	for c := range 4 {
		out.Write([]byte{scan.ids[c], 0x11, byte(scan.tables[c])})
	}

	// DHT
	specs := huffmanSpecs[:2*nTables]
	length := 2
	for _, s := range specs {
		length += 1 + 16 + len(s.value)
	}
	writeMarkerHeader(out, markerDHT, length)
	for i, s := range specs {
		out.WriteByte("\x00\x10\x01\x11"[i])
		out.Write(s.count[:])
		out.Write(s.value)
	}

	// SOS
	writeMarkerHeader(out, markerSOS, 6+2*4)
	out.WriteByte(4)
	for c := range 4 {
		t := byte(scan.tables[c])
		out.Write([]byte{scan.ids[c], t<<4 | t})
	}
	out.Write([]byte{0x00, 0x3F, 0x00})

	e := &bitWriter{w: out}
	var b [blockSize]float64
	var prevDC [4]int32
	for y0 := 0; y0 < height; y0 += 8 {
		for x0 := 0; x0 < width; x0 += 8 {
			for c := range 4 {
				for j := range 8 {
					y := min(y0+j, height-1)
					for i := range 8 {
						x := min(x0+i, width-1)
						b[8*j+i] = float64(pix[4*(y*width+x)+c]) - 128
					}
				}
				t := scan.tables[c]
				prevDC[c] = e.writeBlock(&b, &quant[t], allHuffmanCodes[2*t], allHuffmanCodes[2*t+1], prevDC[c])
			}
		}
	}
	// pad the last byte with 1 bits
	e.emit(0x7F, 7)

	out.Write([]byte{0xFF, markerEOI})
	return out.Bytes()
}

// writeBlock transforms, quantizes and writes one block.  The return
// value is the quantized DC coefficient.
func (e *bitWriter) writeBlock(b *[blockSize]float64, q *[blockSize]byte, dcCodes, acCodes huffmanCodes, prevDC int32) int32 {
	fdct(b)
	dc := int32(math.Round(b[0] / float64(q[0])))
	e.emitHuffRLE(dcCodes, 0, dc-prevDC)

	runLength := int32(0)
	for zig := 1; zig < blockSize; zig++ {
		ac := int32(math.Round(b[unzig[zig]] / float64(q[zig])))
		if ac == 0 {
			runLength++
			continue
		}
		for runLength > 15 {
			e.emitHuff(acCodes, 0xF0)
			runLength -= 16
		}
		e.emitHuffRLE(acCodes, runLength, ac)
		runLength = 0
	}
	if runLength > 0 {
		e.emitHuff(acCodes, 0x00)
	}
	return dc
}

func writeMarkerHeader(w *bytes.Buffer, code byte, length int) {
	var head [4]byte
	head[0] = 0xFF
	head[1] = code
	binary.BigEndian.PutUint16(head[2:], uint16(length))
	w.Write(head[:])
}
