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

// Samples are converted to 16 bits before use, so that 8-bit data with
// value v is seen as v·257.  16-bit samples are stored big-endian.

// sampleOffset returns the byte offset of channel c of pixel i, in a
// buffer of n pixels.
func sampleOffset(info FormatInfo, i, c, n int) int {
	if info.Planar {
		return (c*n + i) * info.Bytes
	}
	return (i*(info.Channels+info.Extra) + c) * info.Bytes
}

// unpack reads the colour channels of pixel i into dst, normalised to
// [0, 1].
func unpack(dst []float64, buf []byte, info FormatInfo, i, n int) {
	for c := range info.Channels {
		pos := sampleOffset(info, i, c, n)
		var v uint16
		if info.Bytes == 1 {
			v = uint16(buf[pos]) * 257
		} else {
			v = uint16(buf[pos])<<8 | uint16(buf[pos+1])
		}
		if info.Flavor == Chocolate {
			v = 0xFFFF - v
		}
		dst[c] = float64(v) / 65535
	}
}

// pack writes the colour channels of pixel i from src.  Extra channels are
// left untouched.
func pack(buf []byte, src []float64, info FormatInfo, i, n int) {
	for c := range info.Channels {
		pos := sampleOffset(info, i, c, n)
		v := toWord(src[c])
		if info.Flavor == Chocolate {
			v = 0xFFFF - v
		}
		if info.Bytes == 1 {
			buf[pos] = from16to8(v)
		} else {
			buf[pos] = byte(v >> 8)
			buf[pos+1] = byte(v)
		}
	}
}

// toWord converts a normalised value to 16 bits, with rounding.
func toWord(x float64) uint16 {
	x = x*65535 + 0.5
	if x <= 0 || x != x {
		return 0
	}
	if x >= 65535 {
		return 65535
	}
	return uint16(x)
}

// from16to8 converts a 16-bit sample to 8 bits, with rounding.
func from16to8(v uint16) byte {
	return byte((uint32(v)*255 + 32767) / 65535)
}
