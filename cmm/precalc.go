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

package cmm

import (
	"fmt"

	"seehuhn.de/go/jpgicc/icc"
)

// PrecalcMode selects whether and how densely a transform is sampled into
// a device-space lookup table.
type PrecalcMode int

// The numeric values are those of the jpgicc -c option.
const (
	PrecalcOff     PrecalcMode = 0 // evaluate the profiles for every pixel
	PrecalcNormal  PrecalcMode = 1
	PrecalcHighRes PrecalcMode = 2
	PrecalcLowRes  PrecalcMode = 3
)

func (m PrecalcMode) String() string {
	switch m {
	case PrecalcOff:
		return "off"
	case PrecalcNormal:
		return "normal"
	case PrecalcHighRes:
		return "high resolution"
	case PrecalcLowRes:
		return "low resolution"
	}
	return fmt.Sprintf("PrecalcMode(%d)", int(m))
}

// GridPoints returns the number of grid points per axis used to sample a
// transform with the given number of input channels.  The result is 0 for
// [PrecalcOff].
func (m PrecalcMode) GridPoints(channels int) int {
	switch m {
	case PrecalcHighRes:
		switch {
		case channels > 4:
			return 7
		case channels == 4:
			return 23
		}
		return 49
	case PrecalcLowRes:
		switch {
		case channels > 4:
			return 6
		case channels == 1:
			return 33
		}
		return 17
	case PrecalcNormal:
		switch {
		case channels > 4:
			return 7
		case channels == 4:
			return 17
		}
		return 33
	}
	return 0
}

// precalc samples eval on a device grid and returns an interpolating
// replacement.
func precalc(mode PrecalcMode, in, out int, eval func([]float64) []float64) (func([]float64) []float64, error) {
	n := mode.GridPoints(in)
	x := make([]float64, in)
	clut, err := icc.SampleCLUT(n, in, out, func(node, res []uint16) {
		for i, v := range node {
			x[i] = float64(v) / 65535
		}
		for i, v := range eval(x) {
			res[i] = toWord(v)
		}
	})
	if err != nil {
		return nil, err
	}
	return clut.Interpolator().Eval, nil
}
