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

// grid is a sampled multi-dimensional table with normalised values.
// The first input dimension varies slowest.
type grid struct {
	points []int     // grid points per input dimension
	out    int       // number of output channels
	values []float64 // flattened table, normalised to [0, 1]
}

func uniformGrid(n, in, out int, values []float64) *grid {
	points := make([]int, in)
	for i := range points {
		points[i] = n
	}
	return &grid{points: points, out: out, values: values}
}

// eval interpolates the table at the given position.  Input values are
// in [0, 1].
func (g *grid) eval(input []float64) []float64 {
	if len(input) != len(g.points) {
		return make([]float64, g.out)
	}
	if len(input) == 3 && g.points[0] == g.points[1] && g.points[1] == g.points[2] {
		return tetrahedralInterp3D(g.values, g.points[0], g.out, input[0], input[1], input[2])
	}
	return multilinearInterp(g.values, g.points, g.out, input)
}

// cell locates x in a grid with n points per axis.  It returns the index
// of the lower grid point and the fractional position inside the cell.
func cell(x float64, n int) (int, float64) {
	if n < 2 {
		return 0, 0
	}
	pos := clamp(x, 0, 1) * float64(n-1)
	idx := min(int(pos), n-2)
	return idx, pos - float64(idx)
}

// tetrahedralInterp3D performs tetrahedral interpolation in a 3D table with
// gridSize points along every axis.
func tetrahedralInterp3D(clut []float64, gridSize int, outChannels int, r, g, b float64) []float64 {
	out := make([]float64, outChannels)
	if gridSize < 2 {
		copy(out, clut)
		return out
	}

	ri, fr := cell(r, gridSize)
	gi, fg := cell(g, gridSize)
	bi, fb := cell(b, gridSize)

	bStride := outChannels
	gStride := gridSize * bStride
	rStride := gridSize * gStride
	base := ri*rStride + gi*gStride + bi*bStride

	c000 := base
	c111 := base + rStride + gStride + bStride

	// Walk from c000 to c111 along the edges of the cube, in order of
	// decreasing fractional part.  The two intermediate corners and the
	// weights select one of the six tetrahedra.
	var c1, c2 int
	var w0, w1, w2, w3 float64
	switch {
	case fr >= fg && fg >= fb:
		c1, c2 = base+rStride, base+rStride+gStride
		w0, w1, w2, w3 = 1-fr, fr-fg, fg-fb, fb
	case fr >= fb && fb >= fg:
		c1, c2 = base+rStride, base+rStride+bStride
		w0, w1, w2, w3 = 1-fr, fr-fb, fb-fg, fg
	case fb >= fr && fr >= fg:
		c1, c2 = base+bStride, base+rStride+bStride
		w0, w1, w2, w3 = 1-fb, fb-fr, fr-fg, fg
	case fg >= fr && fr >= fb:
		c1, c2 = base+gStride, base+rStride+gStride
		w0, w1, w2, w3 = 1-fg, fg-fr, fr-fb, fb
	case fg >= fb && fb >= fr:
		c1, c2 = base+gStride, base+gStride+bStride
		w0, w1, w2, w3 = 1-fg, fg-fb, fb-fr, fr
	default: // fb >= fg >= fr
		c1, c2 = base+bStride, base+gStride+bStride
		w0, w1, w2, w3 = 1-fb, fb-fg, fg-fr, fr
	}

	for i := range out {
		out[i] = w0*clut[c000+i] + w1*clut[c1+i] + w2*clut[c2+i] + w3*clut[c111+i]
	}
	return out
}

// multilinearInterp performs n-dimensional linear interpolation.
// The input values are in [0, 1].
// gridPoints contains the grid size for each dimension.
func multilinearInterp(clut []float64, gridPoints []int, outChannels int, input []float64) []float64 {
	nDims := len(gridPoints)
	out := make([]float64, outChannels)
	if nDims == 0 || len(input) != nDims {
		return out
	}

	strides := make([]int, nDims)
	stride := outChannels
	for i := nDims - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= gridPoints[i]
	}

	base := 0
	fracs := make([]float64, nDims)
	for d := range nDims {
		idx, frac := cell(input[d], gridPoints[d])
		base += idx * strides[d]
		fracs[d] = frac
	}

	// visit the 2^nDims corners of the cell
	for corner := range 1 << nDims {
		offset := base
		weight := 1.0
		for d := range nDims {
			if corner&(1<<d) != 0 {
				if gridPoints[d] < 2 {
					weight = 0
					break
				}
				offset += strides[d]
				weight *= fracs[d]
			} else {
				weight *= 1 - fracs[d]
			}
		}
		if weight == 0 {
			continue
		}
		for i := range out {
			if offset+i < len(clut) {
				out[i] += weight * clut[offset+i]
			}
		}
	}

	return out
}
