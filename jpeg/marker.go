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
)

// Marker codes of the application segments.
const (
	APP0  byte = 0xE0 // JFIF
	APP1  byte = 0xE1 // Exif, ITU T.42 fax
	APP2  byte = 0xE2 // ICC profile
	APP13 byte = 0xED // Photoshop resources
	APP14 byte = 0xEE // Adobe
	APP15 byte = 0xEF
)

// Marker is an application segment of a JPEG file.
// Data is the payload, without the marker code and length bytes.
type Marker struct {
	Code byte
	Data []byte
}

// DensityUnit is the unit of a [Density], with the values used in JFIF.
type DensityUnit uint8

const (
	Unknown       DensityUnit = 0 // only the aspect ratio is known
	PixelsPerInch DensityUnit = 1
	PixelsPerCm   DensityUnit = 2
)

// Density is the resolution of an image.
type Density struct {
	Unit DensityUnit
	X, Y int
}

var (
	jfifSignature      = []byte("JFIF\x00")
	adobeSignature     = []byte("Adobe")
	faxSignature       = []byte("G3FAX\x00")
	photoshopSignature = []byte("Photoshop")
	resourceSignature  = []byte("8BIM")
)

// ITUFaxMarker returns the APP1 marker which identifies a colour fax image
// as defined in ITU T.42.  The marker gives the version of 1994 and a
// resolution of 200 pels per 25.4 mm.
func ITUFaxMarker() Marker {
	return Marker{
		Code: APP1,
		Data: []byte{0x47, 0x33, 0x46, 0x41, 0x58, 0x00, 0x07, 0xCA, 0x00, 0xC8},
	}
}

// IsITUFax reports whether the markers identify a colour fax image.
func IsITUFax(markers []Marker) bool {
	for _, m := range markers {
		if m.IsITUFax() {
			return true
		}
	}
	return false
}

// IsITUFax reports whether m is a G3FAX marker.
func (m Marker) IsITUFax() bool {
	return m.Code == APP1 && bytes.HasPrefix(m.Data, faxSignature)
}

// AdobeTransform returns the colour transform code from the first Adobe
// APP14 marker.  The second return value is false if there is no such
// marker.
func AdobeTransform(markers []Marker) (byte, bool) {
	for _, m := range markers {
		if m.Code == APP14 && len(m.Data) >= 12 && bytes.HasPrefix(m.Data, adobeSignature) {
			return m.Data[11], true
		}
	}
	return 0, false
}

// jfifDensity returns the density from the first JFIF APP0 marker.
func jfifDensity(markers []Marker) (Density, bool) {
	for _, m := range markers {
		if m.Code == APP0 && len(m.Data) >= 12 && bytes.HasPrefix(m.Data, jfifSignature) {
			return Density{
				Unit: DensityUnit(m.Data[7]),
				X:    int(binary.BigEndian.Uint16(m.Data[8:])),
				Y:    int(binary.BigEndian.Uint16(m.Data[10:])),
			}, true
		}
	}
	return Density{}, false
}

// PhotoshopResolution reads the resolution from the resource blocks of the
// first Photoshop APP13 marker.  The second return value is false if no
// resolution is found.  Malformed data is ignored.
func PhotoshopResolution(markers []Marker) (Density, bool) {
	for _, m := range markers {
		if m.Code == APP13 && len(m.Data) > 9 && bytes.HasPrefix(m.Data, photoshopSignature) {
			return parseResources(m.Data)
		}
	}
	return Density{}, false
}

// parseResources walks the image resource blocks after the
// "Photoshop 3.0\x00" header.  Each block is "8BIM", a 2-byte type, a
// Pascal string padded to even length, a 4-byte size and the data, padded
// to even length.
func parseResources(data []byte) (Density, bool) {
	const resolutionInfo = 0x03ED

	i := 14
	for i+4 <= len(data) && bytes.Equal(data[i:i+4], resourceSignature) {
		i += 4
		if i+2 > len(data) {
			break
		}
		tp := binary.BigEndian.Uint16(data[i:])
		i += 2
		if i >= len(data) {
			break
		}
		nameLen := int(data[i])
		i += nameLen + 2 - nameLen&1
		if i+4 > len(data) {
			break
		}
		size := int64(binary.BigEndian.Uint32(data[i:]))
		i += 4

		if tp == resolutionInfo && size >= 16 {
			if i+12 > len(data) {
				break
			}
			// 16.16 fixed point, only the integer part is used
			return Density{
				Unit: PixelsPerInch,
				X:    int(binary.BigEndian.Uint16(data[i:])),
				Y:    int(binary.BigEndian.Uint16(data[i+8:])),
			}, true
		}

		if size > int64(len(data)-i) {
			break
		}
		i += int(size + size&1)
	}
	return Density{}, false
}

// FilterMarkers returns the markers which should be copied to a new file.
// JFIF markers are left out if the encoder writes its own, and so are
// Adobe markers.  All other markers are kept, in their original order.
func FilterMarkers(markers []Marker, writeJFIF, writeAdobe bool) []Marker {
	var res []Marker
	for _, m := range markers {
		if writeJFIF && m.Code == APP0 && bytes.HasPrefix(m.Data, jfifSignature) {
			continue
		}
		if writeAdobe && m.Code == APP14 && bytes.HasPrefix(m.Data, adobeSignature) {
			continue
		}
		res = append(res, m)
	}
	return res
}
