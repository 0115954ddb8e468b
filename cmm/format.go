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

// Package cmm combines ICC profiles into transforms between pixel buffers.
//
// The layout of a pixel buffer is described by a [Format] word.  A
// [Transform] is built from an input profile, an output profile and an
// optional proofing profile, or from a single device link profile, and
// converts whole rows of pixels between the two formats.
package cmm

import (
	"errors"
	"fmt"

	"seehuhn.de/go/jpgicc/icc"
)

// Space identifies the colour space of a pixel buffer.
// The numeric values are the ones used by LittleCMS.
type Space uint8

// Supported colour spaces.
const (
	SpaceGray  Space = 3
	SpaceRGB   Space = 4
	SpaceCMY   Space = 5
	SpaceCMYK  Space = 6
	SpaceYCbCr Space = 7
	SpaceYUV   Space = 8
	SpaceXYZ   Space = 9
	SpaceLab   Space = 10
)

var spaceInfo = map[Space]struct {
	name     string
	channels int
	icc      icc.ColorSpace
}{
	SpaceGray:  {"Gray", 1, icc.GraySpace},
	SpaceRGB:   {"RGB", 3, icc.RGBSpace},
	SpaceCMY:   {"CMY", 3, icc.CMYSpace},
	SpaceCMYK:  {"CMYK", 4, icc.CMYKSpace},
	SpaceYCbCr: {"YCbCr", 3, icc.YCbCrSpace},
	SpaceYUV:   {"YUV", 3, icc.CIELuvSpace},
	SpaceXYZ:   {"XYZ", 3, icc.CIEXYZSpace},
	SpaceLab:   {"Lab", 3, icc.CIELabSpace},
}

func (s Space) String() string {
	if info, ok := spaceInfo[s]; ok {
		return info.name
	}
	return fmt.Sprintf("Space(%d)", uint8(s))
}

// Channels returns the canonical number of colour channels of s, or 0 if
// s is not a known colour space.
func (s Space) Channels() int {
	return spaceInfo[s].channels
}

// ICC returns the ICC colour space signature corresponding to s.
func (s Space) ICC() icc.ColorSpace {
	return spaceInfo[s].icc
}

// SpaceOf returns the pixel colour space for an ICC colour space signature.
// The error wraps [ErrUnsupportedColorSpace] if there is no such space.
func SpaceOf(cs icc.ColorSpace) (Space, error) {
	for s, info := range spaceInfo {
		if info.icc == cs {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedColorSpace, cs)
}

// Flavor tells whether channel values are stored in their natural sense.
type Flavor uint8

const (
	// Vanilla samples are stored as they are.
	Vanilla Flavor = 0
	// Chocolate samples are stored inverted, as max−v.
	Chocolate Flavor = 1
)

func (f Flavor) String() string {
	switch f {
	case Vanilla:
		return "vanilla"
	case Chocolate:
		return "chocolate"
	}
	return fmt.Sprintf("Flavor(%d)", uint8(f))
}

// FormatInfo holds the fields of a [Format].
type FormatInfo struct {
	Space    Space
	Channels int  // colour channels, 1 to 15
	Extra    int  // extra channels after the colour channels, 0 to 7
	Bytes    int  // bytes per sample, 1 or 2
	Planar   bool // one plane per channel instead of interleaved samples
	Flavor   Flavor
}

// Format is a bit-packed description of a pixel buffer, compatible with
// the LittleCMS pixel type words:
//
//	bits  0-2   bytes per sample
//	bits  3-6   channels
//	bits  7-9   extra channels
//	bit  12     planar
//	bit  13     flavor
//	bits 16-20  colour space
type Format uint32

const (
	bytesShift    = 0
	channelsShift = 3
	extraShift    = 7
	planarShift   = 12
	flavorShift   = 13
	spaceShift    = 16
)

var (
	// ErrInvalidFormat is returned if a format field is out of range.
	ErrInvalidFormat = errors.New("cmm: invalid pixel format")

	// ErrUnsupportedColorSpace is returned if a colour space has no pixel
	// format mapping.
	ErrUnsupportedColorSpace = errors.New("cmm: unsupported colour space")

	// ErrProfileMismatch is returned if a profile does not match the
	// colour space of the pixel data it is applied to.
	ErrProfileMismatch = errors.New("cmm: profile does not match pixel format")
)

// NewFormat packs info into a format word.
func NewFormat(info FormatInfo) (Format, error) {
	if _, ok := spaceInfo[info.Space]; !ok {
		return 0, fmt.Errorf("%w: colour space %d", ErrInvalidFormat, info.Space)
	}
	if info.Channels < 1 || info.Channels > 15 {
		return 0, fmt.Errorf("%w: %d channels", ErrInvalidFormat, info.Channels)
	}
	if info.Extra < 0 || info.Extra > 7 {
		return 0, fmt.Errorf("%w: %d extra channels", ErrInvalidFormat, info.Extra)
	}
	if info.Bytes != 1 && info.Bytes != 2 {
		return 0, fmt.Errorf("%w: %d bytes per sample", ErrInvalidFormat, info.Bytes)
	}
	if info.Flavor != Vanilla && info.Flavor != Chocolate {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, info.Flavor)
	}

	f := Format(info.Bytes)<<bytesShift |
		Format(info.Channels)<<channelsShift |
		Format(info.Extra)<<extraShift |
		Format(info.Flavor)<<flavorShift |
		Format(info.Space)<<spaceShift
	if info.Planar {
		f |= 1 << planarShift
	}
	return f, nil
}

// MustFormat is like [NewFormat] but panics on invalid input.
// It is intended for formats which are known at compile time.
func MustFormat(info FormatInfo) Format {
	f, err := NewFormat(info)
	if err != nil {
		panic(err)
	}
	return f
}

// Info unpacks the format word.
func (f Format) Info() FormatInfo {
	return FormatInfo{
		Space:    Space(f >> spaceShift & 0x1F),
		Channels: int(f >> channelsShift & 0xF),
		Extra:    int(f >> extraShift & 0x7),
		Bytes:    int(f >> bytesShift & 0x7),
		Planar:   f>>planarShift&1 != 0,
		Flavor:   Flavor(f >> flavorShift & 1),
	}
}

// Compatible reports whether f and g describe the same buffer layout,
// ignoring the flavor.
func (f Format) Compatible(g Format) bool {
	const flavorMask = 1 << flavorShift
	return f&^flavorMask == g&^flavorMask
}

// PixelSize returns the number of bytes used by one pixel.
func (f Format) PixelSize() int {
	info := f.Info()
	return (info.Channels + info.Extra) * info.Bytes
}

func (f Format) String() string {
	info := f.Info()
	s := fmt.Sprintf("%s_%d", info.Space, 8*info.Bytes)
	if info.Channels != info.Space.Channels() {
		s += fmt.Sprintf("_%dch", info.Channels)
	}
	if info.Extra > 0 {
		s += fmt.Sprintf("+%d", info.Extra)
	}
	if info.Planar {
		s += "_PLANAR"
	}
	if info.Flavor == Chocolate {
		s += "_REV"
	}
	return s
}
