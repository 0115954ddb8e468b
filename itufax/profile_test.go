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

package itufax

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/jpgicc/icc"
)

func TestTablesDeterministic(t *testing.T) {
	for name, build := range map[string]func() (*icc.CLUT, error){
		"decode": DecodeTable,
		"encode": EncodeTable,
	} {
		t.Run(name, func(t *testing.T) {
			a, err := build()
			if err != nil {
				t.Fatal(err)
			}
			b, err := build()
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(a, b); d != "" {
				t.Errorf("tables differ (-first +second):\n%s", d)
			}
			if a.GridPoints != GridPoints || len(a.Table) != GridPoints*GridPoints*GridPoints*3 {
				t.Errorf("unexpected table size %d", len(a.Table))
			}
		})
	}
}

func TestDecodeTableCorners(t *testing.T) {
	clut, err := DecodeTable()
	if err != nil {
		t.Fatal(err)
	}
	last := len(clut.Table) - 3

	want := Decode(Sample{0, 0, 0}).EncodeV4()
	if d := cmp.Diff(want[:], clut.Table[:3]); d != "" {
		t.Errorf("first node (-want +got):\n%s", d)
	}
	want = Decode(Sample{65535, 65535, 65535}).EncodeV4()
	if d := cmp.Diff(want[:], clut.Table[last:]); d != "" {
		t.Errorf("last node (-want +got):\n%s", d)
	}
}

func TestProfiles(t *testing.T) {
	dec, err := NewDecodeProfile()
	if err != nil {
		t.Fatal(err)
	}
	enc, err := NewEncodeProfile()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []*icc.Profile{dec, enc} {
		if p.Class != icc.ColorSpaceProfile || p.ColorSpace != icc.CIELabSpace || p.PCS != icc.PCSLabSpace {
			t.Errorf("unexpected header %s %s %s", p.Class, p.ColorSpace, p.PCS)
		}
	}
	if _, ok := dec.TagData[icc.AToB0]; !ok {
		t.Error("decode profile has no AToB0 tag")
	}
	if _, ok := enc.TagData[icc.BToA0]; !ok {
		t.Error("encode profile has no BToA0 tag")
	}

	toPCS, err := icc.NewTransform(dec, icc.DeviceToPCS, icc.Perceptual)
	if err != nil {
		t.Fatal(err)
	}
	fromPCS, err := icc.NewTransform(enc, icc.PCSToDevice, icc.Perceptual)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := icc.NewTransform(enc, icc.DeviceToPCS, icc.Perceptual); err == nil {
		t.Error("encode profile used as input")
	}

	for _, c := range []icc.Lab{
		{L: 50},
		{L: 20, A: -40, B: 60},
		{L: 80, A: 70, B: -70},
		{L: 100},
	} {
		s := Encode(c)
		device := []float64{float64(s.L) / 65535, float64(s.A) / 65535, float64(s.B) / 65535}
		got := toPCS.ToLab(device)
		if icc.DeltaE(got, c) > 0.05 {
			t.Errorf("decode %v: got %v", c, got)
		}

		out := fromPCS.FromLab(c)
		back := Decode(Sample{
			L: uint16(math.Round(out[0] * 65535)),
			A: uint16(math.Round(out[1] * 65535)),
			B: uint16(math.Round(out[2] * 65535)),
		})
		if icc.DeltaE(back, c) > 0.05 {
			t.Errorf("encode %v: got %v", c, back)
		}
	}
}

func TestEncodeProfileGamut(t *testing.T) {
	enc, err := NewEncodeProfile()
	if err != nil {
		t.Fatal(err)
	}
	fromPCS, err := icc.NewTransform(enc, icc.PCSToDevice, icc.Perceptual)
	if err != nil {
		t.Fatal(err)
	}

	out := fromPCS.FromLab(icc.Lab{L: 50, A: 120, B: 0})
	got := Decode(Sample{
		L: uint16(math.Round(out[0] * 65535)),
		A: uint16(math.Round(out[1] * 65535)),
		B: uint16(math.Round(out[2] * 65535)),
	})
	if got.A < 84 || got.A > 85.01 || math.Abs(got.B) > 1 || math.Abs(got.L-50) > 0.05 {
		t.Errorf("saturated red encodes as %v", got)
	}
}
