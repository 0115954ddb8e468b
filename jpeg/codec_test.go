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
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// encodeRows writes a uniform image and returns the file.
func encodeRows(t *testing.T, w, h int, l Layout, px []byte, markers ...Marker) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf)
	enc.SetDensity(Density{Unit: PixelsPerInch, X: 300, Y: 300})
	if err := enc.Start(w, h, l); err != nil {
		t.Fatal(err)
	}
	for _, m := range markers {
		if err := enc.WriteMarker(m); err != nil {
			t.Fatal(err)
		}
	}
	row := bytes.Repeat(px, w)
	for range h {
		if err := enc.WriteRow(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Finish(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readAll(t *testing.T, d *Decoder, out ColorSpace) [][]byte {
	t.Helper()
	if err := d.Start(out); err != nil {
		t.Fatal(err)
	}
	var rows [][]byte
	for {
		row := make([]byte, d.Header().Width*d.OutputComponents())
		err := d.ReadRow(row)
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, row)
	}
	if err := d.Finish(); err != nil {
		t.Fatal(err)
	}
	return rows
}

func checkPixels(t *testing.T, rows [][]byte, px []byte, tol int) {
	t.Helper()
	for y, row := range rows {
		for i, v := range row {
			if d := int(v) - int(px[i%len(px)]); d < -tol || d > tol {
				t.Fatalf("row %d, sample %d: got %d, want %d", y, i, v, px[i%len(px)])
			}
		}
	}
}

func TestGrayRoundTrip(t *testing.T) {
	exif := Marker{Code: APP1, Data: []byte("Exif\x00\x00data")}
	app5 := Marker{Code: 0xE5, Data: []byte{1, 2, 3}}
	data := encodeRows(t, 16, 8, Layout{InSpace: Gray, JPEGSpace: Gray, Quality: 95, WriteJFIF: true},
		[]byte{77}, exif, app5)

	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	h := d.Header()
	if h.Width != 16 || h.Height != 8 || h.Components != 1 || h.ColorSpace != Gray {
		t.Errorf("unexpected header %+v", h)
	}
	if !h.JFIF || h.Density != (Density{Unit: PixelsPerInch, X: 300, Y: 300}) {
		t.Errorf("density %+v", h.Density)
	}

	markers := d.Markers()
	if len(markers) != 3 || markers[0].Code != APP0 {
		t.Fatalf("unexpected markers %v", markers)
	}
	if d := cmp.Diff([]Marker{exif, app5}, markers[1:]); d != "" {
		t.Errorf("markers (-want +got):\n%s", d)
	}

	rows := readAll(t, d, Gray)
	if len(rows) != 8 {
		t.Errorf("got %d rows", len(rows))
	}
	checkPixels(t, rows, []byte{77}, 2)
}

func TestRGBRoundTrip(t *testing.T) {
	px := []byte{200, 100, 50}
	data := encodeRows(t, 16, 16, Layout{InSpace: RGB, JPEGSpace: YCbCr, Quality: 95, WriteJFIF: true}, px)
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cs := d.Header().ColorSpace; cs != YCbCr {
		t.Errorf("stored as %s", cs)
	}
	checkPixels(t, readAll(t, d, RGB), px, 4)
}

func TestAdobeOnly(t *testing.T) {
	px := []byte{20, 220, 120}
	data := encodeRows(t, 8, 8, Layout{InSpace: RGB, JPEGSpace: RGB, Quality: 100, WriteAdobe: true}, px)
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	h := d.Header()
	if h.JFIF || !h.Adobe || h.AdobeTransform != 1 || h.ColorSpace != YCbCr {
		t.Errorf("unexpected header %+v", h)
	}
	checkPixels(t, readAll(t, d, RGB), px, 4)
}

// TestRawSamples checks that samples pass through without colour
// conversion, as needed for fax images.
func TestRawSamples(t *testing.T) {
	px := []byte{180, 40, 230}
	data := encodeRows(t, 16, 16, Layout{InSpace: YCbCr, JPEGSpace: YCbCr, Quality: 100, WriteJFIF: true},
		px, ITUFaxMarker())
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !IsITUFax(d.Markers()) {
		t.Error("fax marker lost")
	}
	checkPixels(t, readAll(t, d, YCbCr), px, 2)
}

func TestCMYKRoundTrip(t *testing.T) {
	px := []byte{10, 200, 90, 40}
	for _, test := range []struct {
		space     ColorSpace
		transform byte
	}{
		{CMYK, 0},
		{YCCK, 2},
	} {
		t.Run(test.space.String(), func(t *testing.T) {
			l := Layout{InSpace: CMYK, JPEGSpace: test.space, Quality: 95, WriteJFIF: true, WriteAdobe: true}
			data := encodeRows(t, 10, 9, l, px)
			d, err := NewDecoder(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			h := d.Header()
			if h.Components != 4 || h.ColorSpace != test.space || !h.Adobe || h.AdobeTransform != test.transform {
				t.Errorf("unexpected header %+v", h)
			}
			if h.Density != (Density{Unit: PixelsPerInch, X: 300, Y: 300}) {
				t.Errorf("density %+v", h.Density)
			}
			rows := readAll(t, d, CMYK)
			if len(rows) != 9 {
				t.Errorf("got %d rows", len(rows))
			}
			checkPixels(t, rows, px, 3)
		})
	}
}

// TestCMYKGradient checks the AC coefficients of the four component
// encoder, using an image which is not a multiple of the block size.
func TestCMYKGradient(t *testing.T) {
	const w, h = 20, 12
	sample := func(x, y, c int) byte {
		switch c {
		case 0:
			return byte(10 * x)
		case 1:
			return byte(20 * y)
		case 2:
			return 128
		}
		return byte(5 * (x + y))
	}
	for _, space := range []ColorSpace{CMYK, YCCK} {
		t.Run(space.String(), func(t *testing.T) {
			buf := &bytes.Buffer{}
			enc := NewEncoder(buf)
			err := enc.Start(w, h, Layout{InSpace: CMYK, JPEGSpace: space, Quality: 100, WriteAdobe: true})
			if err != nil {
				t.Fatal(err)
			}
			row := make([]byte, 4*w)
			for y := range h {
				for i := range row {
					row[i] = sample(i/4, y, i%4)
				}
				if err := enc.WriteRow(row); err != nil {
					t.Fatal(err)
				}
			}
			if err := enc.Finish(); err != nil {
				t.Fatal(err)
			}

			d, err := NewDecoder(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatal(err)
			}
			for y, row := range readAll(t, d, CMYK) {
				for i, v := range row {
					want := sample(i/4, y, i%4)
					if diff := int(v) - int(want); diff < -4 || diff > 4 {
						t.Fatalf("pixel (%d,%d) channel %d: got %d, want %d", i/4, y, i%4, v, want)
					}
				}
			}
		})
	}
}

func TestUnsupported(t *testing.T) {
	enc := NewEncoder(io.Discard)
	err := enc.Start(8, 8, Layout{InSpace: CMYK, JPEGSpace: YCbCr})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("CMYK as YCbCr: %v", err)
	}

	data := encodeRows(t, 8, 8, Layout{InSpace: Gray, JPEGSpace: Gray, Quality: 90}, []byte{0})
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Start(CMYK); !errors.Is(err, ErrUnsupported) {
		t.Errorf("gray as CMYK: %v", err)
	}
}

func TestEncoderState(t *testing.T) {
	enc := NewEncoder(io.Discard)
	if err := enc.WriteRow([]byte{0}); err == nil {
		t.Error("row accepted before Start")
	}
	if err := enc.Start(2, 1, Layout{InSpace: Gray, JPEGSpace: Gray, Quality: 75}); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteMarker(Marker{Code: 0xDB}); err == nil {
		t.Error("non-application marker accepted")
	}
	if err := enc.Finish(); err == nil {
		t.Error("Finish succeeded with missing rows")
	}
}

func TestNewDecoderInvalid(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("GIF89a"),
		{0xFF, 0xD8, 0xFF, 0xE0, 0x00},
		{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J'},
		{0xFF, 0xD8, 0xFF, 0xDA},
	} {
		if _, err := NewDecoder(bytes.NewReader(data)); err == nil {
			t.Errorf("% x accepted", data)
		}
	}
}
