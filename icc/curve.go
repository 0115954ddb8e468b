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
	"sort"
)

// Curve represents a 1D transfer function (TRC) used in ICC profiles.
// It can represent either an ICC curveType or parametricCurveType.
//
// Precedence when evaluating: Params > Table > Gamma.
//
// To create a curve:
//   - Gamma curve (curveType): set Gamma only (e.g. &Curve{Gamma: 2.2})
//   - Sampled curve (curveType): set Table only
//   - Parametric curve (parametricCurveType): set FuncType and Params
type Curve struct {
	// Gamma specifies the exponent for a simple gamma curve, y = x^Gamma.
	// The values 0 and 1 both give the identity.
	Gamma float64

	// FuncType and Params define an ICC parametricCurveType.  FuncType
	// selects the ICC function type (0-4) and Params provides the
	// coefficients [g, a, b, c, d, e, f]:
	//   - type 0: y = x^g
	//   - type 1: y = (ax+b)^g for x >= -b/a, else y = 0
	//   - type 2: y = (ax+b)^g + c for x >= -b/a, else y = c
	//   - type 3: y = (ax+b)^g for x >= d, else y = cx
	//   - type 4: y = (ax+b)^g + e for x >= d, else y = cx + f
	FuncType int
	Params   []float64

	// Table specifies a sampled curve.  Values are evenly spaced from
	// input 0 to 1, with linear interpolation between samples.
	Table []uint16
}

// numParams gives the number of parameters for each parametric function type.
var numParams = [5]int{1, 3, 4, 5, 7}

// DecodeCurve decodes a curve from ICC tag data.
// The data must be a curveType or parametricCurveType element.
func DecodeCurve(data []byte) (*Curve, error) {
	c, _, err := decodeCurveElement(data)
	return c, err
}

// decodeCurveElement decodes the curve at the start of data and also
// returns the number of bytes used, without padding.
func decodeCurveElement(data []byte) (*Curve, int, error) {
	if len(data) < 12 {
		return nil, 0, errInvalidTagData
	}

	switch string(data[0:4]) {
	case "curv":
		n := uint64(getUint32(data, 8))
		size := 12 + 2*n
		if uint64(len(data)) < size {
			return nil, 0, errInvalidTagData
		}
		switch n {
		case 0:
			return &Curve{Gamma: 1}, 12, nil
		case 1:
			// u8Fixed8Number
			return &Curve{Gamma: float64(getUint16(data, 12)) / 256}, 14, nil
		}
		table := make([]uint16, n)
		for i := range table {
			table[i] = getUint16(data, 12+2*i)
		}
		return &Curve{Table: table}, int(size), nil

	case "para":
		funcType := int(getUint16(data, 8))
		if funcType >= len(numParams) {
			return nil, 0, errInvalidTagData
		}
		size := 12 + 4*numParams[funcType]
		if len(data) < size {
			return nil, 0, errInvalidTagData
		}
		params := make([]float64, numParams[funcType])
		for i := range params {
			params[i] = getS15Fixed16(data, 12+4*i)
		}
		return &Curve{FuncType: funcType, Params: params}, size, nil

	default:
		return nil, 0, errUnexpectedType
	}
}

// general returns the coefficients of the curve, rewritten as a type 4
// parametric function.
func (c *Curve) general() (g, a, b, cc, d, e, f float64) {
	p := c.Params
	g, a = p[0], 1
	switch c.FuncType {
	case 1, 2:
		a, b = p[1], p[2]
		if a != 0 {
			d = -b / a
		}
		if c.FuncType == 2 {
			e, f = p[3], p[3]
		}
	case 3:
		a, b, cc, d = p[1], p[2], p[3], p[4]
	case 4:
		a, b, cc, d, e, f = p[1], p[2], p[3], p[4], p[5], p[6]
	}
	return
}

func (c *Curve) isParametric() bool {
	return c.FuncType >= 0 && c.FuncType < len(numParams) &&
		len(c.Params) >= numParams[c.FuncType]
}

// Evaluate computes the output value for an input value x in [0, 1].
// The output is clamped to [0, 1].
func (c *Curve) Evaluate(x float64) float64 {
	x = clamp(x, 0, 1)

	var y float64
	switch {
	case c.isParametric():
		g, a, b, cc, d, e, f := c.general()
		if x >= d {
			v := a*x + b
			if v <= 0 {
				y = e
			} else {
				y = math.Pow(v, g) + e
			}
		} else {
			y = cc*x + f
		}
	case len(c.Table) > 0:
		y = c.evaluateSampled(x)
	case c.Gamma != 0 && c.Gamma != 1:
		y = math.Pow(x, c.Gamma)
	default:
		y = x
	}

	return clamp(y, 0, 1)
}

func (c *Curve) evaluateSampled(x float64) float64 {
	n := len(c.Table)
	if n == 1 {
		return float64(c.Table[0]) / 65535
	}

	pos := x * float64(n-1)
	idx := min(int(pos), n-2)
	frac := pos - float64(idx)
	v0 := float64(c.Table[idx])
	v1 := float64(c.Table[idx+1])
	return (v0 + frac*(v1-v0)) / 65535
}

// Invert computes the input value for an output value y in [0, 1].
// For curves which are not strictly monotonic, one of the possible
// inputs is returned.
func (c *Curve) Invert(y float64) float64 {
	y = clamp(y, 0, 1)

	switch {
	case c.isParametric():
		g, a, b, cc, d, e, f := c.general()
		if cc != 0 && y < cc*d+f {
			return clamp((y-f)/cc, 0, 1)
		}
		ye := y - e
		if ye <= 0 || a == 0 || g == 0 {
			return clamp(d, 0, 1)
		}
		return clamp((math.Pow(ye, 1/g)-b)/a, 0, 1)
	case len(c.Table) > 0:
		return c.invertSampled(y)
	case c.Gamma != 0 && c.Gamma != 1:
		return math.Pow(y, 1/c.Gamma)
	default:
		return y
	}
}

func (c *Curve) invertSampled(y float64) float64 {
	n := len(c.Table)
	if n < 2 {
		return y
	}

	// Search in increasing direction; descending tables are mirrored.
	target := y * 65535
	desc := c.Table[0] > c.Table[n-1]
	at := func(i int) float64 {
		if desc {
			return 65535 - float64(c.Table[i])
		}
		return float64(c.Table[i])
	}
	if desc {
		target = 65535 - target
	}

	idx := sort.Search(n, func(i int) bool { return at(i) >= target })
	switch {
	case idx == 0:
		return 0
	case idx == n:
		return 1
	}
	v0, v1 := at(idx-1), at(idx)
	if v1 == v0 {
		return float64(idx) / float64(n-1)
	}
	frac := (target - v0) / (v1 - v0)
	return (float64(idx-1) + frac) / float64(n-1)
}

// Encode converts the curve to ICC tag data.
// The result is either a curveType or parametricCurveType element.
func (c *Curve) Encode() []byte {
	if c.isParametric() {
		n := numParams[c.FuncType]
		buf := make([]byte, 12+4*n)
		copy(buf[0:4], "para")
		putUint16(buf, 8, uint16(c.FuncType))
		for i, p := range c.Params[:n] {
			putS15Fixed16(buf, 12+4*i, p)
		}
		return buf
	}

	var n int
	switch {
	case len(c.Table) > 0:
		n = len(c.Table)
	case c.Gamma != 0 && c.Gamma != 1:
		n = 1
	}
	buf := make([]byte, 12+2*n)
	copy(buf[0:4], "curv")
	putUint32(buf, 8, uint32(n))
	if n == 1 && len(c.Table) == 0 {
		putUint16(buf, 12, uint16(math.Round(c.Gamma*256)))
	} else {
		for i, v := range c.Table {
			putUint16(buf, 12+2*i, v)
		}
	}
	return buf
}

func putUint16(data []byte, offset int, value uint16) {
	data[offset] = byte(value >> 8)
	data[offset+1] = byte(value)
}

func getUint16(data []byte, offset int) uint16 {
	return uint16(data[offset])<<8 | uint16(data[offset+1])
}

func putS15Fixed16(data []byte, offset int, value float64) {
	raw := int32(math.Round(value * 65536))
	putUint32(data, offset, uint32(raw))
}

func getS15Fixed16(data []byte, offset int) float64 {
	raw := int32(getUint32(data, offset))
	return float64(raw) / 65536
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
