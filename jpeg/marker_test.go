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
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// photoshopMarker builds an APP13 marker with the given resource blocks.
func photoshopMarker(blocks ...[]byte) Marker {
	data := []byte("Photoshop 3.0\x00")
	for _, b := range blocks {
		data = append(data, b...)
	}
	return Marker{Code: APP13, Data: data}
}

func resourceBlock(tp uint16, name string, payload []byte) []byte {
	b := []byte("8BIM")
	b = binary.BigEndian.AppendUint16(b, tp)
	b = append(b, byte(len(name)))
	b = append(b, name...)
	if len(name)%2 == 0 {
		b = append(b, 0)
	}
	b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
	b = append(b, payload...)
	if len(payload)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func resolutionInfo(x, y float64) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, uint32(x*65536))
	b = binary.BigEndian.AppendUint16(b, 1)
	b = binary.BigEndian.AppendUint16(b, 1)
	b = binary.BigEndian.AppendUint32(b, uint32(y*65536))
	b = binary.BigEndian.AppendUint16(b, 1)
	b = binary.BigEndian.AppendUint16(b, 1)
	return b
}

func TestPhotoshopResolution(t *testing.T) {
	cases := []struct {
		name    string
		markers []Marker
		want    Density
		ok      bool
	}{
		{
			name:    "300 dpi",
			markers: []Marker{photoshopMarker(resourceBlock(0x03ED, "", resolutionInfo(300, 300)))},
			want:    Density{Unit: PixelsPerInch, X: 300, Y: 300},
			ok:      true,
		},
		{
			name: "after other blocks",
			markers: []Marker{
				{Code: APP1, Data: []byte("Exif\x00\x00")},
				photoshopMarker(
					resourceBlock(0x0404, "abc", []byte{1, 2, 3}),
					resourceBlock(0x040C, "", make([]byte, 17)),
					resourceBlock(0x03ED, "name", resolutionInfo(72.5, 150)),
				),
			},
			want: Density{Unit: PixelsPerInch, X: 72, Y: 150},
			ok:   true,
		},
		{
			name:    "no resolution block",
			markers: []Marker{photoshopMarker(resourceBlock(0x0404, "", []byte{1, 2}))},
		},
		{
			name:    "short resolution block",
			markers: []Marker{photoshopMarker(resourceBlock(0x03ED, "", make([]byte, 8)))},
		},
		{
			name:    "truncated",
			markers: []Marker{photoshopMarker(resourceBlock(0x03ED, "", resolutionInfo(300, 300))[:20])},
		},
		{
			name: "bad signature",
			markers: []Marker{{Code: APP13, Data: append([]byte("Photoshop 3.0\x00"),
				"8BIX\x03\xED"...)}},
		},
		{
			name:    "not APP13",
			markers: []Marker{{Code: 0xEC, Data: photoshopMarker(resourceBlock(0x03ED, "", resolutionInfo(300, 300))).Data}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := PhotoshopResolution(c.markers)
			if ok != c.ok || got != c.want {
				t.Errorf("got %v, %t, want %v, %t", got, ok, c.want, c.ok)
			}
		})
	}
}

func FuzzPhotoshopResolution(f *testing.F) {
	f.Add(photoshopMarker(resourceBlock(0x03ED, "", resolutionInfo(300, 300))).Data)
	f.Add(photoshopMarker(resourceBlock(0x0404, "x", []byte{1}), resourceBlock(0x03ED, "", resolutionInfo(1, 2))).Data)
	f.Add([]byte("Photoshop 3.0\x008BIM\x03\xED\xff\xff\xff\xff\xff"))
	f.Fuzz(func(t *testing.T, data []byte) {
		d, ok := PhotoshopResolution([]Marker{{Code: APP13, Data: data}})
		if ok && d.Unit != PixelsPerInch {
			t.Errorf("unexpected unit %d", d.Unit)
		}
		if !ok && d != (Density{}) {
			t.Errorf("density %v without resolution block", d)
		}
	})
}

func TestIsITUFax(t *testing.T) {
	fax := ITUFaxMarker()
	want := []byte{0x47, 0x33, 0x46, 0x41, 0x58, 0x00, 0x07, 0xCA, 0x00, 0xC8}
	if fax.Code != APP1 {
		t.Errorf("fax marker code 0x%02X", fax.Code)
	}
	if d := cmp.Diff(want, fax.Data); d != "" {
		t.Errorf("fax marker (-want +got):\n%s", d)
	}

	cases := []struct {
		markers []Marker
		want    bool
	}{
		{nil, false},
		{[]Marker{fax}, true},
		{[]Marker{{Code: APP0, Data: []byte("JFIF\x00")}, fax}, true},
		{[]Marker{{Code: APP1, Data: []byte("G3FAX")}}, false},
		{[]Marker{{Code: APP1, Data: []byte("G3FAXX\x00")}}, false},
		{[]Marker{{Code: APP2, Data: fax.Data}}, false},
	}
	for i, c := range cases {
		if got := IsITUFax(c.markers); got != c.want {
			t.Errorf("%d: IsITUFax = %t, want %t", i, got, c.want)
		}
	}
}

func TestAdobeTransform(t *testing.T) {
	adobe := Marker{Code: APP14, Data: []byte("Adobe\x00\x64\x00\x00\x00\x00\x02")}
	tr, ok := AdobeTransform([]Marker{{Code: APP0, Data: []byte("JFIF\x00")}, adobe})
	if !ok || tr != 2 {
		t.Errorf("AdobeTransform = %d, %t", tr, ok)
	}
	if _, ok := AdobeTransform([]Marker{{Code: APP14, Data: []byte("Adobe")}}); ok {
		t.Error("short Adobe marker accepted")
	}
}

// TestFilterMarkers checks that only the markers which the encoder writes
// itself are dropped.
func TestFilterMarkers(t *testing.T) {
	jfif := Marker{Code: APP0, Data: []byte("JFIF\x00\x01\x01\x01\x00\x48\x00\x48\x00\x00")}
	jfxx := Marker{Code: APP0, Data: []byte("JFXX\x00\x10")}
	exif := Marker{Code: APP1, Data: []byte("Exif\x00\x00")}
	adobe := Marker{Code: APP14, Data: []byte("Adobe\x00\x64\x00\x00\x00\x00\x01")}
	other14 := Marker{Code: APP14, Data: []byte("Other")}
	short := Marker{Code: APP0, Data: []byte("JFIF")}
	in := []Marker{jfif, exif, adobe, jfxx, other14, short}

	cases := []struct {
		jfif, adobe bool
		want        []Marker
	}{
		{false, false, in},
		{true, false, []Marker{exif, adobe, jfxx, other14, short}},
		{false, true, []Marker{jfif, exif, jfxx, other14, short}},
		{true, true, []Marker{exif, jfxx, other14, short}},
	}
	for _, c := range cases {
		got := FilterMarkers(in, c.jfif, c.adobe)
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("jfif=%t adobe=%t (-want +got):\n%s", c.jfif, c.adobe, d)
		}
	}
}
