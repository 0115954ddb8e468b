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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnpackFlavor(t *testing.T) {
	vanilla := FormatInfo{Space: SpaceCMYK, Channels: 4, Bytes: 1}
	chocolate := vanilla
	chocolate.Flavor = Chocolate

	buf := []byte{0, 255, 51, 204}
	x := make([]float64, 4)
	y := make([]float64, 4)
	unpack(x, buf, vanilla, 0, 1)
	unpack(y, buf, chocolate, 0, 1)
	for i := range x {
		if math.Abs(x[i]+y[i]-1) > 1e-12 {
			t.Errorf("channel %d: %f + %f != 1", i, x[i], y[i])
		}
	}
	if x[0] != 0 || x[1] != 1 || math.Abs(x[2]-0.2) > 1e-12 {
		t.Errorf("unexpected values %v", x)
	}

	out := make([]byte, 4)
	pack(out, x, chocolate, 0, 1)
	if d := cmp.Diff([]byte{255, 0, 204, 51}, out); d != "" {
		t.Errorf("pack mismatch (-want +got):\n%s", d)
	}
}

func TestPlanarLayout(t *testing.T) {
	info := FormatInfo{Space: SpaceRGB, Channels: 3, Bytes: 1, Planar: true}
	// three pixels, one plane per channel
	buf := []byte{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	x := make([]float64, 3)
	unpack(x, buf, info, 1, 3)
	want := []float64{2.0 / 255, 5.0 / 255, 8.0 / 255}
	for i := range x {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("pixel 1 = %v, want %v", x, want)
			break
		}
	}

	out := make([]byte, 9)
	for i := range 3 {
		unpack(x, buf, info, i, 3)
		pack(out, x, info, i, 3)
	}
	if d := cmp.Diff(buf, out); d != "" {
		t.Errorf("planar round trip (-want +got):\n%s", d)
	}
}

func TestExtraChannels(t *testing.T) {
	info := FormatInfo{Space: SpaceRGB, Channels: 3, Extra: 1, Bytes: 1}
	out := []byte{9, 9, 9, 42, 9, 9, 9, 43}
	pack(out, []float64{0, 0.5, 1}, info, 1, 2)
	want := []byte{9, 9, 9, 42, 0, 128, 255, 43}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("pack mismatch (-want +got):\n%s", d)
	}
}

func TestSixteenBit(t *testing.T) {
	info := FormatInfo{Space: SpaceGray, Channels: 1, Bytes: 2}
	buf := []byte{0x12, 0x34}
	x := make([]float64, 1)
	unpack(x, buf, info, 0, 1)
	if got := toWord(x[0]); got != 0x1234 {
		t.Errorf("unpacked %04x, want 1234", got)
	}

	out := make([]byte, 2)
	pack(out, x, info, 0, 1)
	if d := cmp.Diff(buf, out); d != "" {
		t.Errorf("16-bit round trip (-want +got):\n%s", d)
	}
}

func TestFrom16to8(t *testing.T) {
	for v := range 256 {
		if got := from16to8(uint16(v * 257)); got != byte(v) {
			t.Errorf("from16to8(%d) = %d", v*257, got)
		}
	}
	if got := from16to8(0x7F00); got != 127 {
		t.Errorf("from16to8(0x7F00) = %d", got)
	}
}

func TestToWord(t *testing.T) {
	cases := []struct {
		in   float64
		want uint16
	}{
		{0, 0},
		{1, 65535},
		{-0.5, 0},
		{2, 65535},
		{0.5, 32768},
		{math.NaN(), 0},
		{math.Inf(1), 65535},
	}
	for _, c := range cases {
		if got := toWord(c.in); got != c.want {
			t.Errorf("toWord(%f) = %d, want %d", c.in, got, c.want)
		}
	}
}
