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

// Package jpeg reads and writes JPEG files one scanline at a time, and
// gives access to their application markers.
//
// The entropy coding is done by the standard library package image/jpeg.
// Both the [Decoder] and the [Encoder] hold the complete image in memory.
package jpeg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
)

// ColorSpace is the colour space of JPEG samples.
type ColorSpace uint8

// These are the colour spaces known to the IJG library.
const (
	UnknownSpace ColorSpace = iota
	Gray
	RGB
	YCbCr
	CMYK
	YCCK
)

func (cs ColorSpace) String() string {
	switch cs {
	case Gray:
		return "Gray"
	case RGB:
		return "RGB"
	case YCbCr:
		return "YCbCr"
	case CMYK:
		return "CMYK"
	case YCCK:
		return "YCCK"
	}
	return fmt.Sprintf("ColorSpace(%d)", uint8(cs))
}

// Components returns the number of samples per pixel.
func (cs ColorSpace) Components() int {
	switch cs {
	case Gray:
		return 1
	case RGB, YCbCr:
		return 3
	case CMYK, YCCK:
		return 4
	}
	return 0
}

// ErrUnsupported is returned for colour space conversions which are not
// available.
var ErrUnsupported = errors.New("jpeg: unsupported colour space")

// Header describes the frame of a JPEG file.
type Header struct {
	Width, Height int
	Components    int
	ColorSpace    ColorSpace // colour space of the stored samples

	JFIF    bool    // a JFIF marker is present
	Density Density // from the JFIF marker

	Adobe          bool // an Adobe marker is present
	AdobeTransform byte
}

// Decoder reads the scanlines of a JPEG image.
//
// Use [Decoder.Start] to select the output colour space, then call
// [Decoder.ReadRow] once per scanline.
type Decoder struct {
	data    []byte
	header  *Header
	markers []Marker

	out   ColorSpace
	img   image.Image
	y     int
	state int
}

const (
	stateNew = iota
	stateStarted
	stateFinished
)

// NewDecoder reads a JPEG file and parses its header.
func NewDecoder(r io.Reader) (*Decoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	h, markers, err := scanHeader(data)
	if err != nil {
		return nil, err
	}
	return &Decoder{data: data, header: h, markers: markers}, nil
}

// Header returns the frame parameters of the image.
func (d *Decoder) Header() Header {
	return *d.header
}

// Markers returns the APP0 to APP15 markers of the file, in file order.
func (d *Decoder) Markers() []Marker {
	return d.markers
}

// Start decodes the image and prepares to deliver scanlines in colour
// space out.
//
// Gray, RGB and CMYK output perform the usual conversions.  If out equals
// the stored colour space, the samples are returned without conversion.
// CMYK samples are returned as stored by Adobe applications, with
// inverted values.
func (d *Decoder) Start(out ColorSpace) error {
	if d.state != stateNew {
		return errors.New("jpeg: decoder already started")
	}
	img, err := jpeg.Decode(bytes.NewReader(d.data))
	if err != nil {
		return err
	}
	if !canConvert(img, out) {
		return fmt.Errorf("%w: cannot read %s as %s", ErrUnsupported, d.header.ColorSpace, out)
	}
	d.img = img
	d.out = out
	d.state = stateStarted
	return nil
}

func canConvert(img image.Image, out ColorSpace) bool {
	switch img.(type) {
	case *image.CMYK:
		return out == CMYK
	case *image.YCbCr:
		return out == Gray || out == RGB || out == YCbCr
	case *image.Gray:
		return out == Gray || out == RGB
	}
	// RGB data stored without colour transform
	return out == Gray || out == RGB || out == YCbCr
}

// OutputComponents returns the number of samples per pixel delivered by
// ReadRow.
func (d *Decoder) OutputComponents() int {
	return d.out.Components()
}

// ReadRow fills row with the next scanline.  After the last scanline,
// io.EOF is returned.
func (d *Decoder) ReadRow(row []byte) error {
	if d.state != stateStarted {
		return errors.New("jpeg: decoder not started")
	}
	b := d.img.Bounds()
	if d.y >= b.Dy() {
		return io.EOF
	}
	n := d.out.Components()
	if len(row) < b.Dx()*n {
		return io.ErrShortBuffer
	}

	y := b.Min.Y + d.y
	for i := range b.Dx() {
		x := b.Min.X + i
		px := row[i*n : (i+1)*n]
		switch img := d.img.(type) {
		case *image.CMYK:
			// restore the Adobe inversion undone by image/jpeg
			off := img.PixOffset(x, y)
			for c := range 4 {
				px[c] = 255 - img.Pix[off+c]
			}
		case *image.YCbCr:
			yy := img.Y[img.YOffset(x, y)]
			cb := img.Cb[img.COffset(x, y)]
			cr := img.Cr[img.COffset(x, y)]
			switch d.out {
			case Gray:
				px[0] = yy
			case RGB:
				px[0], px[1], px[2] = color.YCbCrToRGB(yy, cb, cr)
			default:
				px[0], px[1], px[2] = yy, cb, cr
			}
		case *image.Gray:
			v := img.Pix[img.PixOffset(x, y)]
			for c := range px {
				px[c] = v
			}
		default:
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if d.out == Gray {
				px[0] = color.GrayModel.Convert(c).(color.Gray).Y
			} else {
				px[0], px[1], px[2] = c.R, c.G, c.B
			}
		}
	}
	d.y++
	return nil
}

// Finish releases the decoded image.  The markers remain available.
func (d *Decoder) Finish() error {
	if d.state != stateStarted {
		return errors.New("jpeg: decoder not started")
	}
	d.img = nil
	d.data = nil
	d.state = stateFinished
	return nil
}
