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

// Package itufax implements the CIELab encoding of colour fax images, as
// defined in ITU-T T.42 and RFC 2301.
//
// Fax images store L*, a* and b* as 16-bit values with a fixed, asymmetric
// range: a* from -85 to 85 and b* from -75 to 125.  [NewDecodeProfile] and
// [NewEncodeProfile] wrap the encoding into ICC profiles, so that fax data
// can take part in ordinary colour transforms.
package itufax

import (
	"math"

	"seehuhn.de/go/jpgicc/icc"
)

// Sample is a colour in the fax encoding.
type Sample struct {
	L, A, B uint16
}

// Envelope is the range of colours which can be represented in the fax
// encoding.
var Envelope = icc.Envelope{LMax: 100, AMin: -85, AMax: 85, BMin: -75, BMax: 125}

// Decode converts a fax sample to L*a*b*.
func Decode(s Sample) icc.Lab {
	return icc.Lab{
		L: float64(s.L) / 655.35,
		A: 170 * (float64(s.A) - 32768) / 65535,
		B: 200 * (float64(s.B) - 24576) / 65535,
	}
}

// Encode converts c to the fax encoding.
//
// The values are truncated towards negative infinity, not rounded.
// Colours outside [Envelope] saturate at the ends of the 16-bit range; use
// [icc.Desaturate] first to keep the hue.
func Encode(c icc.Lab) Sample {
	return Sample{
		L: truncate(c.L / 100 * 65535),
		A: truncate(c.A/170*65535 + 32768),
		B: truncate(c.B/200*65535 + 24576),
	}
}

func truncate(x float64) uint16 {
	x = math.Floor(x)
	if x <= 0 || math.IsNaN(x) {
		return 0
	}
	if x >= 65535 {
		return 65535
	}
	return uint16(x)
}
