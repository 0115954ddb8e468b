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

// Package icc implements the subset of the ICC profile format which is
// needed to recolour images.
//
// Profiles are read with [Decode] or [ReadFile] and written with
// [Profile.Encode].  A single profile is evaluated through a [Transform],
// which maps device values to the Profile Connection Space (PCS) or back.
// All PCS values use the D50 illuminant.
//
//	p, err := icc.ReadFile("printer.icc")
//	if err != nil {
//	    // handle error
//	}
//	t, err := icc.NewTransform(p, icc.DeviceToPCS, icc.Perceptual)
//	lab := t.ToLab([]float64{c, m, y, k})
//
// Colour lookup tables for synthetic profiles are built with [SampleCLUT],
// and a small set of built-in profiles is available through [Stock].
package icc

import (
	"fmt"
	"time"
)

// Profile represents an ICC colour profile.
//
// The header fields describe the profile's characteristics.  TagData holds
// the raw binary data for each tag; use [DecodeCurve], [DecodeLut] or
// [NewTransform] to interpret the tags used for colour conversion.
type Profile struct {
	PreferredCMMType   uint32
	Version            Version
	Class              ProfileClass
	ColorSpace         ColorSpace // data colour space (e.g. RGBSpace, CMYKSpace)
	PCS                ColorSpace // PCSXYZSpace or PCSLabSpace, output space for device links
	CreationDate       time.Time
	PrimaryPlatform    uint32
	Flags              uint32
	DeviceManufacturer uint32
	DeviceModel        uint32
	DeviceAttributes   uint64
	RenderingIntent    RenderingIntent
	Creator            uint32

	// CheckSum indicates whether the profile's embedded checksum is valid.
	// This is only meaningful for profiles read using Decode.
	CheckSum CheckSum

	// TagData maps tag signatures to their raw binary data.
	TagData map[TagType][]byte
}

// Version is a version of the ICC profile format.
type Version uint32

// Some well-known versions of the ICC profile format.
const (
	Version2_1_0 Version = 0x0210_0000 // Version 3.3 (November 1996)
	Version2_4_0 Version = 0x0240_0000 // ICC.1:2001-04
	Version4_0_0 Version = 0x0400_0000 // ICC.1:2001-12
	Version4_3_0 Version = 0x0430_0000 // ICC.1:2010-12
	Version4_4_0 Version = 0x0440_0000 // ICC.1:2022-05

	currentVersion = Version4_4_0
)

func (v Version) String() string {
	major := int(v >> 24)
	minor := int(v >> 20 & 0xF)
	bugfix := int(v >> 16 & 0xF)
	other := int(v & 0xFFFF)

	suffix := ""
	if other != 0 {
		suffix = fmt.Sprintf(".%04X", other)
	}
	return fmt.Sprintf("%d.%d.%d%s", major, minor, bugfix, suffix)
}

// ProfileClass is the ICC profile or device class.
type ProfileClass uint32

// Profile classes defined in the ICC specification.
const (
	InputDeviceProfile   ProfileClass = 0x73636E72 // "scnr"
	DisplayDeviceProfile ProfileClass = 0x6D6E7472 // "mntr"
	OutputDeviceProfile  ProfileClass = 0x70727472 // "prtr"

	ColorSpaceProfile ProfileClass = 0x73706163 // "spac"
	DeviceLinkProfile ProfileClass = 0x6C696E6B // "link"
	AbstractProfile   ProfileClass = 0x61627374 // "abst"
	NamedColorProfile ProfileClass = 0x6E6D636C // "nmcl"
)

var classNames = map[ProfileClass]string{
	InputDeviceProfile:   "Input Device Profile",
	DisplayDeviceProfile: "Display Device Profile",
	OutputDeviceProfile:  "Output Device Profile",
	DeviceLinkProfile:    "DeviceLink Profile",
	ColorSpaceProfile:    "ColorSpace Profile",
	AbstractProfile:      "Abstract Profile",
	NamedColorProfile:    "Named Color Profile",
}

func (c ProfileClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ProfileClass(0x%08X)", uint32(c))
}

// RenderingIntent specifies how colours outside the destination gamut are handled.
type RenderingIntent uint32

// Standard ICC rendering intents.
const (
	Perceptual           RenderingIntent = 0 // preserves visual relationships between colours
	RelativeColorimetric RenderingIntent = 1 // maps white point, preserves in-gamut colours
	Saturation           RenderingIntent = 2 // preserves saturation, may shift hue
	AbsoluteColorimetric RenderingIntent = 3 // preserves exact colorimetric values
)

func (ri RenderingIntent) String() string {
	switch ri {
	case Perceptual:
		return "Perceptual"
	case RelativeColorimetric:
		return "Relative Colorimetric"
	case Saturation:
		return "Saturation"
	case AbsoluteColorimetric:
		return "Absolute Colorimetric"
	default:
		return fmt.Sprintf("RenderingIntent(%d)", ri)
	}
}

// ColorSpace identifies a colour space in an ICC profile.
type ColorSpace uint32

// Color spaces defined in the ICC specification.
const (
	CIEXYZSpace  ColorSpace = 0x58595A20 // "XYZ "
	CIELabSpace  ColorSpace = 0x4C616220 // "Lab "
	CIELuvSpace  ColorSpace = 0x4C757620 // "Luv "
	YCbCrSpace   ColorSpace = 0x59436272 // "YCbr"
	CIEYxySpace  ColorSpace = 0x59787920 // "Yxy "
	RGBSpace     ColorSpace = 0x52474220 // "RGB "
	GraySpace    ColorSpace = 0x47524159 // "GRAY"
	HSVSpace     ColorSpace = 0x48535620 // "HSV "
	HLSSpace     ColorSpace = 0x484C5320 // "HLS "
	CMYKSpace    ColorSpace = 0x434D594B // "CMYK"
	CMYSpace     ColorSpace = 0x434D5920 // "CMY "
	Color2Space  ColorSpace = 0x32434C52 // "2CLR"
	Color15Space ColorSpace = 0x46434C52 // "FCLR"

	PCSXYZSpace = CIEXYZSpace
	PCSLabSpace = CIELabSpace
)

type spaceInfo struct {
	name       string
	components int
}

var spaces = map[ColorSpace]spaceInfo{
	CIEXYZSpace: {"CIEXYZ", 3},
	CIELabSpace: {"CIELAB", 3},
	CIELuvSpace: {"CIELUV", 3},
	YCbCrSpace:  {"YCbCr", 3},
	CIEYxySpace: {"CIEYxy", 3},
	RGBSpace:    {"RGB", 3},
	GraySpace:   {"Gray", 1},
	HSVSpace:    {"HSV", 3},
	HLSSpace:    {"HLS", 3},
	CMYKSpace:   {"CMYK", 4},
	CMYSpace:    {"CMY", 3},
}

// nCLR returns the channel count of the generic "2CLR" ... "FCLR" spaces.
func (s ColorSpace) nCLR() int {
	if s&0x00FFFFFF != 0x00434C52 {
		return 0
	}
	d := byte(s >> 24)
	switch {
	case d >= '2' && d <= '9':
		return int(d - '0')
	case d >= 'A' && d <= 'F':
		return int(d-'A') + 10
	}
	return 0
}

func (s ColorSpace) String() string {
	if info, ok := spaces[s]; ok {
		return info.name
	}
	if n := s.nCLR(); n > 0 {
		return fmt.Sprintf("%dCLR", n)
	}
	return fmt.Sprintf("ColorSpace(0x%08X)", uint32(s))
}

// NumComponents returns the number of colour components in the colour space,
// or 0 if the colour space is not known.
func (s ColorSpace) NumComponents() int {
	if info, ok := spaces[s]; ok {
		return info.components
	}
	return s.nCLR()
}

// PCSName returns the name of the PCS colour space.
func (p *Profile) PCSName() string {
	switch p.PCS {
	case PCSXYZSpace:
		return "PCSXYZ"
	case PCSLabSpace:
		return "PCSLab"
	default:
		return p.PCS.String()
	}
}

// CheckSum contains information about the Profile ID field.
type CheckSum int

func (c CheckSum) String() string {
	switch c {
	case CheckSumValid:
		return "Valid"
	case CheckSumInvalid:
		return "Invalid"
	default:
		return "Missing"
	}
}

// Possible values of the CheckSum field.
const (
	CheckSumMissing CheckSum = iota
	CheckSumValid
	CheckSumInvalid
)
