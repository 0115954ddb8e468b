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
	"errors"
	"fmt"
)

// CLUT is a colour lookup table with the same number of grid points along
// every input dimension.
//
// Table holds OutputChannels values per grid node.  The nodes are stored
// with the first input dimension varying slowest.
type CLUT struct {
	GridPoints     int
	InputChannels  int
	OutputChannels int
	Table          []uint16
}

// ErrInvalidCLUT is returned by [SampleCLUT] if the requested table cannot
// be built.
var ErrInvalidCLUT = errors.New("icc: invalid CLUT dimensions")

// NodeValue returns the 16-bit input value of grid node i on an axis with n
// grid points.
func NodeValue(i, n int) uint16 {
	if n < 2 {
		return 0
	}
	return uint16(float64(i)*65535/float64(n-1) + 0.5)
}

// SampleCLUT fills a new table by calling f once for every grid node, in
// table order.  The function receives the 16-bit input value of the node
// and writes one 16-bit value per output channel into out.
func SampleCLUT(gridPoints, in, out int, f func(in, out []uint16)) (*CLUT, error) {
	if gridPoints < 2 || gridPoints > 255 || in < 1 || in > 15 || out < 1 || out > 15 {
		return nil, fmt.Errorf("%w: %d points, %d→%d channels",
			ErrInvalidCLUT, gridPoints, in, out)
	}
	points := make([]int, in)
	for i := range points {
		points[i] = gridPoints
	}
	size := computeCLUTSize(points, out)
	if size == 0 {
		return nil, fmt.Errorf("%w: table too large", ErrInvalidCLUT)
	}

	c := &CLUT{
		GridPoints:     gridPoints,
		InputChannels:  in,
		OutputChannels: out,
		Table:          make([]uint16, size),
	}

	idx := make([]int, in)
	inVals := make([]uint16, in)
	for pos := 0; pos < size; pos += out {
		for d, i := range idx {
			inVals[d] = NodeValue(i, gridPoints)
		}
		f(inVals, c.Table[pos:pos+out])

		// advance the node index, last dimension fastest
		for d := in - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < gridPoints {
				break
			}
			idx[d] = 0
		}
	}
	return c, nil
}

// Eval interpolates the table at the given position.  Input and output
// values are normalised to [0, 1].
//
// Each call converts the table to floating point.  Use [CLUT.Interpolator]
// to evaluate the table many times.
func (c *CLUT) Eval(in []float64) []float64 {
	return c.grid().eval(in)
}

// Interpolator returns an evaluator for the table.  Changes to c.Table
// after the call are not seen by the interpolator.
func (c *CLUT) Interpolator() *Interpolator {
	return &Interpolator{g: c.grid()}
}

// Interpolator evaluates a [CLUT] using tetrahedral interpolation for
// three inputs and multilinear interpolation otherwise.
type Interpolator struct {
	g *grid
}

// Eval interpolates the table at the given position.  Input and output
// values are normalised to [0, 1].
func (ip *Interpolator) Eval(in []float64) []float64 {
	return ip.g.eval(in)
}

func (c *CLUT) grid() *grid {
	values := make([]float64, len(c.Table))
	for i, v := range c.Table {
		values[i] = float64(v) / 65535
	}
	return uniformGrid(c.GridPoints, c.InputChannels, c.OutputChannels, values)
}
