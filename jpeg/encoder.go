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
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// Layout describes how an [Encoder] stores an image.
type Layout struct {
	// InSpace is the colour space of the rows passed to WriteRow.
	InSpace ColorSpace

	// JPEGSpace is the colour space of the stored samples.  RGB images
	// are always stored as YCbCr; RGB is accepted and stored as YCbCr.
	// CMYK rows can be stored as CMYK or as YCCK.
	JPEGSpace ColorSpace

	// Quality ranges from 1 to 100.
	Quality int

	// NoSubsampling asks for full resolution chroma.  The encoder of the
	// standard library cannot do this for YCbCr images, so the flag is
	// advisory.  Four component images are never subsampled.
	NoSubsampling bool

	WriteJFIF  bool // write a JFIF marker with the image density
	WriteAdobe bool // write an Adobe marker
}

// Encoder writes a JPEG image one scanline at a time.
//
// The scanlines are collected in memory and compressed by Finish.  Markers
// written before Finish are placed after the JFIF and Adobe markers, in
// the order they were written.
type Encoder struct {
	w       io.Writer
	width   int
	height  int
	layout  Layout
	density Density
	markers []Marker

	pix   []byte
	y     int
	state int
}

// NewEncoder returns an encoder which writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// SetDensity sets the resolution stored in the JFIF marker.
func (e *Encoder) SetDensity(d Density) {
	e.density = d
}

// Start prepares to receive width×height pixels.
// Layouts which the encoder cannot store give [ErrUnsupported].
func (e *Encoder) Start(width, height int, l Layout) error {
	if e.state != stateNew {
		return errors.New("jpeg: encoder already started")
	}
	switch {
	case l.InSpace == Gray && l.JPEGSpace == Gray:
	case l.InSpace == RGB && (l.JPEGSpace == YCbCr || l.JPEGSpace == RGB):
	case l.InSpace == YCbCr && l.JPEGSpace == YCbCr:
	case l.InSpace == CMYK && (l.JPEGSpace == CMYK || l.JPEGSpace == YCCK):
	default:
		return fmt.Errorf("%w: cannot write %s as %s", ErrUnsupported, l.InSpace, l.JPEGSpace)
	}
	if width <= 0 || height <= 0 || width > 65535 || height > 65535 {
		return fmt.Errorf("jpeg: invalid image size %dx%d", width, height)
	}

	e.width = width
	e.height = height
	e.layout = l
	e.pix = make([]byte, width*height*l.InSpace.Components())
	e.state = stateStarted
	return nil
}

// WriteMarker adds an application marker to the output.
func (e *Encoder) WriteMarker(m Marker) error {
	if e.state != stateStarted {
		return errors.New("jpeg: encoder not started")
	}
	if m.Code < APP0 || m.Code > APP15 {
		return fmt.Errorf("jpeg: marker 0x%02X is not an application marker", m.Code)
	}
	if len(m.Data) > 65533 {
		return fmt.Errorf("jpeg: marker data too long (%d bytes)", len(m.Data))
	}
	e.markers = append(e.markers, m)
	return nil
}

// WriteRow stores the next scanline.
func (e *Encoder) WriteRow(row []byte) error {
	if e.state != stateStarted {
		return errors.New("jpeg: encoder not started")
	}
	if e.y >= e.height {
		return errors.New("jpeg: too many scanlines")
	}
	n := e.width * e.layout.InSpace.Components()
	if len(row) < n {
		return io.ErrShortBuffer
	}
	copy(e.pix[e.y*n:], row[:n])
	e.y++
	return nil
}

// Finish compresses the image and writes the file.
func (e *Encoder) Finish() error {
	if e.state != stateStarted {
		return errors.New("jpeg: encoder not started")
	}
	if e.y != e.height {
		return fmt.Errorf("jpeg: %d of %d scanlines written", e.y, e.height)
	}
	e.state = stateFinished

	quality := min(max(e.layout.Quality, 1), 100)
	var body []byte
	if e.layout.InSpace == CMYK {
		body = encodeFourComponent(e.pix, e.width, e.height, quality, e.layout.JPEGSpace == YCCK)
	} else {
		buf := &bytes.Buffer{}
		err := jpeg.Encode(buf, e.image(), &jpeg.Options{Quality: quality})
		if err != nil {
			return err
		}
		body, err = skipHeaderMarkers(buf.Bytes())
		if err != nil {
			return err
		}
	}

	out := &bytes.Buffer{}
	out.Write([]byte{0xFF, markerSOI})
	if e.layout.WriteJFIF {
		writeSegment(out, e.jfifMarker())
	}
	if e.layout.WriteAdobe {
		writeSegment(out, e.adobeMarker())
	}
	for _, m := range e.markers {
		writeSegment(out, m)
	}
	out.Write(body)

	_, err := e.w.Write(out.Bytes())
	e.pix = nil
	return err
}

func (e *Encoder) image() image.Image {
	r := image.Rect(0, 0, e.width, e.height)
	switch e.layout.InSpace {
	case Gray:
		return &image.Gray{Pix: e.pix, Stride: e.width, Rect: r}
	case RGB:
		img := image.NewRGBA(r)
		for i := range e.width * e.height {
			copy(img.Pix[4*i:4*i+3], e.pix[3*i:3*i+3])
			img.Pix[4*i+3] = 255
		}
		return img
	}
	img := image.NewYCbCr(r, image.YCbCrSubsampleRatio444)
	for i := range e.width * e.height {
		img.Y[i] = e.pix[3*i]
		img.Cb[i] = e.pix[3*i+1]
		img.Cr[i] = e.pix[3*i+2]
	}
	return img
}

func (e *Encoder) jfifMarker() Marker {
	d := e.density
	if d.X <= 0 || d.Y <= 0 || d.X > 65535 || d.Y > 65535 {
		d = Density{Unit: Unknown, X: 1, Y: 1}
	}
	data := make([]byte, 14)
	copy(data, jfifSignature)
	data[5], data[6] = 1, 1 // version 1.01
	data[7] = byte(d.Unit)
	binary.BigEndian.PutUint16(data[8:], uint16(d.X))
	binary.BigEndian.PutUint16(data[10:], uint16(d.Y))
	return Marker{Code: APP0, Data: data}
}

// adobeMarker describes the stored samples.  Three component images are
// always stored as YCbCr by the standard library.
func (e *Encoder) adobeMarker() Marker {
	data := make([]byte, 12)
	copy(data, adobeSignature)
	binary.BigEndian.PutUint16(data[5:], 100)
	switch e.layout.InSpace {
	case Gray:
	case CMYK:
		if e.layout.JPEGSpace == YCCK {
			data[11] = 2
		}
	default:
		data[11] = 1
	}
	return Marker{Code: APP14, Data: data}
}

func writeSegment(w *bytes.Buffer, m Marker) {
	writeMarkerHeader(w, m.Code, len(m.Data)+2)
	w.Write(m.Data)
}

// skipHeaderMarkers returns the data after the SOI marker and any
// application markers which follow it.
func skipHeaderMarkers(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, errNoSOI
	}
	pos := 2
	for pos+4 <= len(data) && data[pos] == 0xFF && data[pos+1] >= APP0 && data[pos+1] <= APP15 {
		pos += 2 + int(binary.BigEndian.Uint16(data[pos+2:]))
	}
	if pos > len(data) {
		return nil, errors.New("jpeg: corrupt encoder output")
	}
	return data[pos:], nil
}
