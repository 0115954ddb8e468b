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

package icc

import (
	"sort"
	"strings"
)

// stockProfiles lists the built-in profiles, keyed by lower-case name.
var stockProfiles = map[string]struct {
	name string
	make func() *Profile
}{
	"*srgb":   {"*sRGB", SRGBProfile},
	"*gray22": {"*Gray22", func() *Profile { return GrayProfile(2.2) }},
	"*gray30": {"*Gray30", func() *Profile { return GrayProfile(3.0) }},
	"*lab4":   {"*Lab4", LabProfile},
	"*cmyk":   {"*CMYK", CMYKProfile},
}

// Stock returns the built-in profile with the given name.  Names start
// with an asterisk and are matched without regard to case.
// A new profile is constructed on every call.
func Stock(name string) (*Profile, bool) {
	entry, ok := stockProfiles[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return entry.make(), true
}

// StockNames returns the names of all built-in profiles, sorted.
func StockNames() []string {
	res := make([]string, 0, len(stockProfiles))
	for _, entry := range stockProfiles {
		res = append(res, entry.name)
	}
	sort.Strings(res)
	return res
}

// NewProfile returns a version 4 profile with the given header fields and
// with description, copyright and media white point tags.  The caller
// adds the tags used for colour conversion.
func NewProfile(class ProfileClass, space, pcs ColorSpace, desc string) *Profile {
	return &Profile{
		Version:    Version4_3_0,
		Class:      class,
		ColorSpace: space,
		PCS:        pcs,
		TagData: map[TagType][]byte{
			ProfileDescription: encodeMLUC(desc),
			Copyright:          encodeMLUC("No copyright, use freely"),
			MediaWhitePoint:    encodeXYZTag(D50),
		},
	}
}

// sRGB primaries, adapted to D50.
var (
	srgbRed   = XYZ{0.4361, 0.2225, 0.0139}
	srgbGreen = XYZ{0.3851, 0.7169, 0.0971}
	srgbBlue  = XYZ{0.1431, 0.0606, 0.7141}
)

// srgbCurve is the sRGB transfer function as an ICC type 3 parametric curve.
func srgbCurve() *Curve {
	return &Curve{
		FuncType: 3,
		Params:   []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045},
	}
}

// SRGBProfile returns a matrix/TRC display profile for sRGB.
func SRGBProfile() *Profile {
	p := NewProfile(DisplayDeviceProfile, RGBSpace, PCSXYZSpace, "sRGB built-in")
	trc := srgbCurve().Encode()
	p.TagData[RedMatrixColumn] = encodeXYZTag(srgbRed)
	p.TagData[GreenMatrixColumn] = encodeXYZTag(srgbGreen)
	p.TagData[BlueMatrixColumn] = encodeXYZTag(srgbBlue)
	p.TagData[RedTRC] = trc
	p.TagData[GreenTRC] = trc
	p.TagData[BlueTRC] = trc
	return p
}

// GrayProfile returns a display profile for grayscale data with the given
// gamma.
func GrayProfile(gamma float64) *Profile {
	desc := "Gray built-in, gamma 2.2"
	if gamma == 3.0 {
		desc = "Gray built-in, gamma 3.0"
	}
	p := NewProfile(DisplayDeviceProfile, GraySpace, PCSXYZSpace, desc)
	p.TagData[GrayTRC] = (&Curve{Gamma: gamma}).Encode()
	return p
}

// LabProfile returns an identity profile for CIELab data in the
// ICC version 4 encoding.
func LabProfile() *Profile {
	p := NewProfile(ColorSpaceProfile, CIELabSpace, PCSLabSpace, "Lab identity built-in")
	identity := func(in, out []uint16) { copy(out, in) }
	clut, err := SampleCLUT(2, 3, 3, identity)
	if err != nil {
		panic(err) // unreachable
	}
	p.TagData[AToB0] = NewLutAToB(clut).Encode()
	p.TagData[BToA0] = NewLutBToA(clut).Encode()
	return p
}

// Grid sizes of the built-in CMYK profile.
const (
	cmykForwardGrid = 17
	cmykInverseGrid = 33
)

// CMYKProfile returns a synthetic output profile for a CMYK press.
//
// The profile uses a simple subtractive model on top of sRGB, with full
// grey component replacement in the BToA0 direction.  It is intended for
// tests and previews, not for production printing.
func CMYKProfile() *Profile {
	p := NewProfile(OutputDeviceProfile, CMYKSpace, PCSLabSpace, "CMYK built-in")

	toPCS, err := NewTransform(SRGBProfile(), DeviceToPCS, Perceptual)
	if err != nil {
		panic(err) // unreachable
	}
	fromPCS, err := NewTransform(SRGBProfile(), PCSToDevice, Perceptual)
	if err != nil {
		panic(err) // unreachable
	}

	forward, err := SampleCLUT(cmykForwardGrid, 4, 3, func(in, out []uint16) {
		k := 1 - float64(in[3])/65535
		rgb := make([]float64, 3)
		for i := range rgb {
			rgb[i] = (1 - float64(in[i])/65535) * k
		}
		v := toPCS.ToLab(rgb).EncodeV4()
		copy(out, v[:])
	})
	if err != nil {
		panic(err) // unreachable
	}

	inverse, err := SampleCLUT(cmykInverseGrid, 3, 4, func(in, out []uint16) {
		lab := DecodeLabV4([3]uint16{in[0], in[1], in[2]})
		rgb := fromPCS.FromLab(lab)
		c, m, y := 1-rgb[0], 1-rgb[1], 1-rgb[2]
		k := min(c, m, y)
		if k < 1 {
			c = (c - k) / (1 - k)
			m = (m - k) / (1 - k)
			y = (y - k) / (1 - k)
		} else {
			c, m, y = 0, 0, 0
		}
		for i, v := range []float64{c, m, y, k} {
			out[i] = saturateWord(v * 65535)
		}
	})
	if err != nil {
		panic(err) // unreachable
	}

	p.TagData[AToB0] = NewLutAToB(forward).Encode()
	p.TagData[BToA0] = NewLutBToA(inverse).Encode()
	return p
}
