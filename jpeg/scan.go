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
	"errors"
	"fmt"
)

const (
	markerSOF0 = 0xC0
	markerDHT  = 0xC4
	markerDQT  = 0xDB
	markerJPG  = 0xC8
	markerDAC  = 0xCC
	markerSOFF = 0xCF
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerTEM  = 0x01
)

var errNoSOI = errors.New("jpeg: missing start-of-image marker")

// scanHeader reads the segments of a JPEG file up to the first scan.
// It returns the frame parameters and the application markers.
func scanHeader(data []byte) (*Header, []Marker, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, errNoSOI
	}

	h := &Header{}
	var markers []Marker
	var componentIDs []byte

	pos := 2
	for {
		// skip to the next marker, including fill bytes
		for pos < len(data) && data[pos] != 0xFF {
			pos++
		}
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			return nil, nil, errors.New("jpeg: unexpected end of header")
		}
		code := data[pos]
		pos++

		if code == markerSOS || code == markerEOI {
			break
		}
		if code == markerTEM || (code >= markerRST0 && code <= markerRST7) {
			continue
		}

		if pos+2 > len(data) {
			return nil, nil, errors.New("jpeg: truncated segment length")
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:])) - 2
		pos += 2
		if segLen < 0 || pos+segLen > len(data) {
			return nil, nil, fmt.Errorf("jpeg: invalid length for marker 0x%02X", code)
		}
		seg := data[pos : pos+segLen]
		pos += segLen

		switch {
		case code >= APP0 && code <= APP15:
			markers = append(markers, Marker{Code: code, Data: append([]byte(nil), seg...)})
		case isSOF(code):
			if len(seg) < 6 {
				return nil, nil, errors.New("jpeg: short SOF segment")
			}
			h.Height = int(binary.BigEndian.Uint16(seg[1:]))
			h.Width = int(binary.BigEndian.Uint16(seg[3:]))
			h.Components = int(seg[5])
			if len(seg) < 6+3*h.Components {
				return nil, nil, errors.New("jpeg: short SOF segment")
			}
			componentIDs = componentIDs[:0]
			for i := range h.Components {
				componentIDs = append(componentIDs, seg[6+3*i])
			}
		}
	}

	if h.Components == 0 {
		return nil, nil, errors.New("jpeg: missing frame header")
	}

	h.Density, h.JFIF = jfifDensity(markers)
	h.AdobeTransform, h.Adobe = AdobeTransform(markers)
	h.ColorSpace = guessColorSpace(h, componentIDs)
	return h, markers, nil
}

func isSOF(code byte) bool {
	return code >= markerSOF0 && code <= markerSOFF &&
		code != markerDHT && code != markerJPG && code != markerDAC
}

// guessColorSpace determines the colour space of the stored components,
// using the same rules as the IJG library.
func guessColorSpace(h *Header, ids []byte) ColorSpace {
	switch h.Components {
	case 1:
		return Gray
	case 3:
		switch {
		case h.JFIF:
			return YCbCr
		case h.Adobe:
			if h.AdobeTransform == 0 {
				return RGB
			}
			return YCbCr
		case ids[0] == 'R' && ids[1] == 'G' && ids[2] == 'B':
			return RGB
		}
		return YCbCr
	case 4:
		if h.Adobe && h.AdobeTransform != 0 {
			return YCCK
		}
		return CMYK
	}
	return UnknownSpace
}
