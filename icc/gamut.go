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

// Envelope is a box in Lab space: L between 0 and LMax, a between AMin and
// AMax, b between BMin and BMax.
type Envelope struct {
	LMax       float64
	AMin, AMax float64
	BMin, BMax float64
}

// Contains reports whether c lies inside the envelope or on its boundary.
func (e Envelope) Contains(c Lab) bool {
	return c.L >= 0 && c.L <= e.LMax &&
		c.A >= e.AMin && c.A <= e.AMax &&
		c.B >= e.BMin && c.B <= e.BMax
}

// Desaturate maps c into the envelope.
//
// Colours with negative lightness are mapped to black.  Otherwise L is
// clamped to e.LMax.  If (a, b) lies outside the rectangle, the chroma is
// reduced along the line towards the neutral axis until the colour meets
// the boundary, so that the hue angle is kept.  Colours inside the
// envelope are returned unchanged.
func Desaturate(c Lab, e Envelope) Lab {
	if c.L < 0 {
		return Lab{A: clamp(0, e.AMin, e.AMax), B: clamp(0, e.BMin, e.BMax)}
	}
	c.L = min(c.L, e.LMax)

	if c.A >= e.AMin && c.A <= e.AMax && c.B >= e.BMin && c.B <= e.BMax {
		return c
	}

	if e.AMin > 0 || e.AMax < 0 || e.BMin > 0 || e.BMax < 0 {
		// the neutral axis is outside the box, there is no hue to keep
		c.A = clamp(c.A, e.AMin, e.AMax)
		c.B = clamp(c.B, e.BMin, e.BMax)
		return c
	}

	t := 1.0
	if c.A > e.AMax {
		t = min(t, e.AMax/c.A)
	} else if c.A < e.AMin {
		t = min(t, e.AMin/c.A)
	}
	if c.B > e.BMax {
		t = min(t, e.BMax/c.B)
	} else if c.B < e.BMin {
		t = min(t, e.BMin/c.B)
	}

	// The clamp only removes rounding error from the division.
	c.A = clamp(c.A*t, e.AMin, e.AMax)
	c.B = clamp(c.B*t, e.BMin, e.BMax)
	return c
}
