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

import "math"

// XYZ is a colour in the CIE 1931 XYZ colour space, with Y=1 for the
// reference white.
type XYZ struct {
	X, Y, Z float64
}

// D50 is the CIE standard illuminant D50, the reference white of the PCS.
var D50 = XYZ{0.9642, 1.0, 0.8249}

// Lab is a colour in the CIE 1976 L*a*b* colour space.
// L ranges from 0 to 100, a and b are unbounded in principle.
type Lab struct {
	L, A, B float64
}

// XYZ converts c to XYZ, relative to the D50 white point.
func (c Lab) XYZ() XYZ {
	return labToXYZ(c, D50)
}

// Lab converts c to L*a*b*, relative to the D50 white point.
func (c XYZ) Lab() Lab {
	return xyzToLab(c, D50)
}

// DeltaE returns the CIE76 colour difference between two colours.
func DeltaE(c1, c2 Lab) float64 {
	dL := c1.L - c2.L
	da := c1.A - c2.A
	db := c1.B - c2.B
	return math.Sqrt(dL*dL + da*da + db*db)
}

// Limits of the ICC version 4 16-bit Lab encoding.
const (
	minEncodableAB = -128.0
	maxEncodableAB = 127.0
)

// EncodeV4 converts c to the 16-bit ICC version 4 Lab encoding.
// L=100 maps to 0xFFFF and a=b=0 map to 0x8080.  Out of range values are
// clamped.
func (c Lab) EncodeV4() [3]uint16 {
	L := clamp(c.L, 0, 100)
	a := clamp(c.A, minEncodableAB, maxEncodableAB)
	b := clamp(c.B, minEncodableAB, maxEncodableAB)
	return [3]uint16{
		saturateWord(L * 655.35),
		saturateWord((a + 128) * 257),
		saturateWord((b + 128) * 257),
	}
}

// DecodeLabV4 converts a colour in the 16-bit ICC version 4 Lab encoding
// to floating point.
func DecodeLabV4(v [3]uint16) Lab {
	return Lab{
		L: float64(v[0]) / 655.35,
		A: float64(v[1])/257 - 128,
		B: float64(v[2])/257 - 128,
	}
}

// saturateWord rounds x to the nearest integer in the range 0 to 65535.
func saturateWord(x float64) uint16 {
	x += 0.5
	if x <= 0 {
		return 0
	}
	if x >= 65535 {
		return 65535
	}
	return uint16(x)
}

// labToXYZ converts Lab to XYZ using the given white point.
func labToXYZ(c Lab, white XYZ) XYZ {
	fy := (c.L + 16) / 116
	fx := c.A/500 + fy
	fz := fy - c.B/200

	return XYZ{
		X: labFInv(fx) * white.X,
		Y: labFInv(fy) * white.Y,
		Z: labFInv(fz) * white.Z,
	}
}

// xyzToLab converts XYZ to Lab using the given white point.
func xyzToLab(c XYZ, white XYZ) Lab {
	if white.X == 0 || white.Y == 0 || white.Z == 0 {
		white = D50
	}

	fx := labF(c.X / white.X)
	fy := labF(c.Y / white.Y)
	fz := labF(c.Z / white.Z)

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

const (
	labDelta  = 6.0 / 29.0
	labOffset = 16.0 / 116.0
)

func labF(t float64) float64 {
	if t > labDelta*labDelta*labDelta {
		return math.Cbrt(t)
	}
	return t/(3*labDelta*labDelta) + labOffset
}

func labFInv(t float64) float64 {
	if t > labDelta {
		return t * t * t
	}
	return 3 * labDelta * labDelta * (t - labOffset)
}

// decodeXYZTag reads the first entry of an XYZType tag.
func decodeXYZTag(data []byte) (XYZ, error) {
	if err := checkType("XYZ ", data); err != nil {
		return XYZ{}, err
	}
	if len(data) < 20 {
		return XYZ{}, errInvalidTagData
	}
	return XYZ{
		X: getS15Fixed16(data, 8),
		Y: getS15Fixed16(data, 12),
		Z: getS15Fixed16(data, 16),
	}, nil
}

func encodeXYZTag(c XYZ) []byte {
	buf := make([]byte, 20)
	copy(buf[0:4], "XYZ ")
	putXYZNumber(buf, 8, c)
	return buf
}

func putXYZNumber(data []byte, offset int, c XYZ) {
	putS15Fixed16(data, offset, c.X)
	putS15Fixed16(data, offset+4, c.Y)
	putS15Fixed16(data, offset+8, c.Z)
}
