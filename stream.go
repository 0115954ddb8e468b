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

package jpgicc

import "seehuhn.de/go/jpgicc/jpeg"

// Source delivers the scanlines of an image.  It is implemented by
// [jpeg.Decoder].
type Source interface {
	// Header describes the stored image.
	Header() jpeg.Header

	// Markers returns the application markers of the image, in file order.
	Markers() []jpeg.Marker

	// Start prepares to read scanlines in the given colour space.
	Start(out jpeg.ColorSpace) error

	// ReadRow reads the next scanline into row.  After the last row,
	// io.EOF is returned.
	ReadRow(row []byte) error

	Finish() error
}

// Destination receives the scanlines of an image.  It is implemented by
// [jpeg.Encoder].
type Destination interface {
	SetDensity(d jpeg.Density)
	Start(width, height int, l jpeg.Layout) error
	WriteMarker(m jpeg.Marker) error
	WriteRow(row []byte) error
	Finish() error
}
