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
	"errors"
	"fmt"
)

// Direction specifies the direction of a colour transformation.
type Direction int

const (
	// DeviceToPCS converts from device colour space to Profile Connection Space.
	DeviceToPCS Direction = iota
	// PCSToDevice converts from Profile Connection Space to device colour space.
	PCSToDevice
)

func (d Direction) String() string {
	if d == PCSToDevice {
		return "PCS→device"
	}
	return "device→PCS"
}

var (
	// ErrUnsupportedProfile is returned by [NewTransform] if the profile
	// has none of the tags needed for the requested direction.
	ErrUnsupportedProfile = errors.New("icc: unsupported profile type")

	errSingularMatrix = errors.New("icc: singular colour matrix")
)

// Transform performs colour conversions using an ICC profile.
//
// Create a Transform using [NewTransform], then use [Transform.ToLab],
// [Transform.ToXYZ], [Transform.FromLab] or [Transform.FromXYZ] to convert
// colours.  The Transform supports matrix/TRC profiles (common for
// displays), grayscale profiles, and LUT-based profiles (common for
// printers and device links).
//
// Device values are always normalised to [0, 1].  For 16-bit data this
// is the sample value divided by 65535.
//
// A Transform is safe for concurrent use once it has been created.
type Transform struct {
	profile   *Profile
	direction Direction
	intent    RenderingIntent

	// profile type determines which fields are used
	profileType profileType

	// for matrix/TRC profiles (RGB)
	matrix    []float64 // 3x3 matrix: device RGB to XYZ
	matrixInv []float64 // inverse matrix: XYZ to device RGB
	trc       [3]*Curve // R, G, B TRCs

	// for gray TRC profiles
	grayTRC *Curve

	// for LUT-based profiles
	lut      Lut
	encoding pcsEncoding

	whitePoint XYZ
}

type profileType int

const (
	profileTypeUnknown profileType = iota
	profileTypeMatrixTRC
	profileTypeGrayTRC
	profileTypeLut
)

// pcsEncoding describes how the PCS side of a LUT is normalised.
type pcsEncoding int

const (
	pcsLabV4   pcsEncoding = iota // L/100, (a+128)/255
	pcsLabV2                      // legacy lut16Type encoding
	pcsXYZ                        // u1Fixed15Number scaled to 16 bits
	pcsDevice                     // device link, no PCS
)

// NewTransform creates a colour transform from an ICC profile.
//
// The direction specifies whether to convert from device colours to PCS
// ([DeviceToPCS]) or from PCS to device colours ([PCSToDevice]).
// The intent selects which LUT to use for LUT-based profiles; if the
// profile has no LUT for the intent, the perceptual one is used.
//
// For device link profiles, only [DeviceToPCS] is supported, and the
// output side of the link takes the place of the PCS.
func NewTransform(p *Profile, dir Direction, intent RenderingIntent) (*Transform, error) {
	t := &Transform{
		profile:    p,
		direction:  dir,
		intent:     intent,
		whitePoint: D50,
	}

	t.profileType = detectProfileType(p, dir)

	var err error
	switch t.profileType {
	case profileTypeMatrixTRC:
		err = t.initMatrixTRC()
	case profileTypeGrayTRC:
		err = t.initGrayTRC()
	case profileTypeLut:
		err = t.initLut()
	default:
		err = fmt.Errorf("%w (%s, %s)", ErrUnsupportedProfile, p.Class, dir)
	}
	if err != nil {
		return nil, err
	}

	if data, ok := p.TagData[MediaWhitePoint]; ok {
		if wp, err := decodeXYZTag(data); err == nil && wp.Y > 0 {
			t.whitePoint = wp
		}
	}

	return t, nil
}

var lutTags = map[Direction][3]TagType{
	DeviceToPCS: {AToB0, AToB1, AToB2},
	PCSToDevice: {BToA0, BToA1, BToA2},
}

func detectProfileType(p *Profile, dir Direction) profileType {
	if p.Class == DeviceLinkProfile && dir != DeviceToPCS {
		return profileTypeUnknown
	}

	// LUT-based profiles take precedence
	for _, tag := range lutTags[dir] {
		if _, ok := p.TagData[tag]; ok {
			return profileTypeLut
		}
	}

	hasAll := true
	for _, tag := range []TagType{RedMatrixColumn, GreenMatrixColumn, BlueMatrixColumn, RedTRC, GreenTRC, BlueTRC} {
		if _, ok := p.TagData[tag]; !ok {
			hasAll = false
			break
		}
	}
	if hasAll {
		return profileTypeMatrixTRC
	}

	if _, ok := p.TagData[GrayTRC]; ok {
		return profileTypeGrayTRC
	}

	return profileTypeUnknown
}

func (t *Transform) initMatrixTRC() error {
	p := t.profile

	var cols [3]XYZ
	for i, tag := range []TagType{RedMatrixColumn, GreenMatrixColumn, BlueMatrixColumn} {
		c, err := decodeXYZTag(p.TagData[tag])
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		cols[i] = c
	}

	// the columns of the matrix are the XYZ values of the primaries
	t.matrix = []float64{
		cols[0].X, cols[1].X, cols[2].X,
		cols[0].Y, cols[1].Y, cols[2].Y,
		cols[0].Z, cols[1].Z, cols[2].Z,
	}

	if t.direction == PCSToDevice {
		t.matrixInv = invertMatrix3x3(t.matrix)
		if t.matrixInv == nil {
			return errSingularMatrix
		}
	}

	for i, tag := range []TagType{RedTRC, GreenTRC, BlueTRC} {
		c, err := DecodeCurve(p.TagData[tag])
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		t.trc[i] = c
	}

	return nil
}

func (t *Transform) initGrayTRC() error {
	grayTRC, err := DecodeCurve(t.profile.TagData[GrayTRC])
	if err != nil {
		return fmt.Errorf("%s: %w", GrayTRC, err)
	}
	t.grayTRC = grayTRC
	return nil
}

func (t *Transform) initLut() error {
	p := t.profile
	tags := lutTags[t.direction]

	var tagType TagType
	switch t.intent {
	case RelativeColorimetric, AbsoluteColorimetric:
		tagType = tags[1]
	case Saturation:
		tagType = tags[2]
	default:
		tagType = tags[0]
	}
	if _, ok := p.TagData[tagType]; !ok {
		tagType = tags[0]
	}

	data, ok := p.TagData[tagType]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrUnsupportedProfile, tagType)
	}

	lut, err := DecodeLut(data)
	if err != nil {
		return fmt.Errorf("%s: %w", tagType, err)
	}

	in, out := p.ColorSpace.NumComponents(), p.PCS.NumComponents()
	if t.direction == PCSToDevice {
		in, out = out, in
	}
	if in != 0 && out != 0 && (lut.InputChannels() != in || lut.OutputChannels() != out) {
		return fmt.Errorf("%s: %d→%d channels, expected %d→%d: %w",
			tagType, lut.InputChannels(), lut.OutputChannels(), in, out, errInvalidTagData)
	}
	t.lut = lut

	switch {
	case p.Class == DeviceLinkProfile:
		t.encoding = pcsDevice
	case p.PCS == PCSXYZSpace:
		t.encoding = pcsXYZ
	default:
		t.encoding = pcsLabV4
		if m, ok := lut.(*LutMFT); ok && m.Is16Bit() {
			t.encoding = pcsLabV2
		}
	}
	return nil
}

// Apply transforms a colour.  Device values are normalised to [0, 1].
//
// For LUT-based profiles the PCS values are normalised as well, using the
// PCS encoding of the LUT.  For matrix/TRC and gray profiles the PCS side
// is XYZ (or L*a*b* for gray profiles with a Lab PCS) without scaling.
func (t *Transform) Apply(input []float64) []float64 {
	switch t.profileType {
	case profileTypeMatrixTRC:
		return t.applyMatrixTRC(input)
	case profileTypeGrayTRC:
		return t.applyGrayTRC(input)
	case profileTypeLut:
		return t.lut.Apply(input)
	}
	return input
}

func (t *Transform) applyMatrixTRC(input []float64) []float64 {
	if len(input) != 3 {
		return make([]float64, 3)
	}

	if t.direction == DeviceToPCS {
		r := t.trc[0].Evaluate(input[0])
		g := t.trc[1].Evaluate(input[1])
		b := t.trc[2].Evaluate(input[2])
		return applyMatrix3x3(t.matrix, []float64{r, g, b})
	}

	rgb := applyMatrix3x3(t.matrixInv, input)
	for i, v := range rgb {
		rgb[i] = t.trc[i].Invert(clamp(v, 0, 1))
	}
	return rgb
}

func (t *Transform) applyGrayTRC(input []float64) []float64 {
	lab := t.profile.PCS == PCSLabSpace

	if t.direction == DeviceToPCS {
		if len(input) != 1 {
			return make([]float64, 3)
		}
		y := t.grayTRC.Evaluate(input[0])
		if lab {
			return []float64{100 * y, 0, 0}
		}
		return []float64{D50.X * y, D50.Y * y, D50.Z * y}
	}

	if len(input) != 3 {
		return make([]float64, 1)
	}
	y := input[1]
	if lab {
		y = input[0] / 100
	}
	return []float64{t.grayTRC.Invert(clamp(y, 0, 1))}
}

// ToLab converts a device colour to PCS L*a*b* (D50).
func (t *Transform) ToLab(device []float64) Lab {
	if t.direction != DeviceToPCS {
		return Lab{}
	}
	pcs := t.Apply(device)
	if len(pcs) < 3 {
		return Lab{}
	}

	switch t.profileType {
	case profileTypeLut:
		switch t.encoding {
		case pcsLabV4:
			return Lab{L: pcs[0] * 100, A: pcs[1]*255 - 128, B: pcs[2]*255 - 128}
		case pcsLabV2:
			return Lab{
				L: pcs[0] * 65535 / 65280 * 100,
				A: pcs[1]*65535/256 - 128,
				B: pcs[2]*65535/256 - 128,
			}
		case pcsXYZ:
			return xyzFromNormalised(pcs).Lab()
		}
		return Lab{}
	case profileTypeGrayTRC:
		if t.profile.PCS == PCSLabSpace {
			return Lab{L: pcs[0], A: pcs[1], B: pcs[2]}
		}
	}
	return XYZ{pcs[0], pcs[1], pcs[2]}.Lab()
}

// ToXYZ converts a device colour to PCS XYZ (D50).
func (t *Transform) ToXYZ(device []float64) XYZ {
	if t.direction != DeviceToPCS {
		return XYZ{}
	}
	if t.profileType == profileTypeMatrixTRC {
		pcs := t.Apply(device)
		return XYZ{pcs[0], pcs[1], pcs[2]}
	}
	if t.profileType == profileTypeLut && t.encoding == pcsXYZ {
		pcs := t.Apply(device)
		if len(pcs) < 3 {
			return XYZ{}
		}
		return xyzFromNormalised(pcs)
	}
	return t.ToLab(device).XYZ()
}

// FromLab converts PCS L*a*b* (D50) to device colour.
// The result is normalised to [0, 1].
func (t *Transform) FromLab(c Lab) []float64 {
	if t.direction != PCSToDevice {
		return nil
	}

	switch t.profileType {
	case profileTypeLut:
		var in []float64
		switch t.encoding {
		case pcsLabV4:
			in = []float64{c.L / 100, (c.A + 128) / 255, (c.B + 128) / 255}
		case pcsLabV2:
			in = []float64{
				c.L / 100 * 65280 / 65535,
				(c.A + 128) * 256 / 65535,
				(c.B + 128) * 256 / 65535,
			}
		case pcsXYZ:
			in = xyzToNormalised(c.XYZ())
		default:
			return nil
		}
		return t.lut.Apply(clampAll(in))
	case profileTypeGrayTRC:
		if t.profile.PCS == PCSLabSpace {
			return t.Apply([]float64{c.L, c.A, c.B})
		}
	}
	xyz := c.XYZ()
	return t.Apply([]float64{xyz.X, xyz.Y, xyz.Z})
}

// FromXYZ converts PCS XYZ (D50) to device colour.
// The result is normalised to [0, 1].
func (t *Transform) FromXYZ(c XYZ) []float64 {
	if t.direction != PCSToDevice {
		return nil
	}
	if t.profileType == profileTypeMatrixTRC {
		return t.Apply([]float64{c.X, c.Y, c.Z})
	}
	if t.profileType == profileTypeLut && t.encoding == pcsXYZ {
		return t.lut.Apply(clampAll(xyzToNormalised(c)))
	}
	return t.FromLab(c.Lab())
}

// The XYZ PCS encoding of LUTs maps 1+32767/32768 to 0xFFFF.
const xyzEncodingScale = 65535.0 / 32768.0

func xyzFromNormalised(v []float64) XYZ {
	return XYZ{v[0] * xyzEncodingScale, v[1] * xyzEncodingScale, v[2] * xyzEncodingScale}
}

func xyzToNormalised(c XYZ) []float64 {
	return []float64{c.X / xyzEncodingScale, c.Y / xyzEncodingScale, c.Z / xyzEncodingScale}
}

// MediaWhite returns the media white point of the profile.  If the profile
// has no valid wtpt tag, D50 is returned.
func (t *Transform) MediaWhite() XYZ {
	return t.whitePoint
}

// InputChannels returns the number of values expected by Apply.
func (t *Transform) InputChannels() int {
	switch t.profileType {
	case profileTypeMatrixTRC:
		return 3
	case profileTypeGrayTRC:
		if t.direction == DeviceToPCS {
			return 1
		}
		return 3
	case profileTypeLut:
		return t.lut.InputChannels()
	}
	return 0
}

// OutputChannels returns the number of values returned by Apply.
func (t *Transform) OutputChannels() int {
	switch t.profileType {
	case profileTypeMatrixTRC:
		return 3
	case profileTypeGrayTRC:
		if t.direction == DeviceToPCS {
			return 3
		}
		return 1
	case profileTypeLut:
		return t.lut.OutputChannels()
	}
	return 0
}

// IsMatrixShaper reports whether the transform uses matrix/TRC data.
func (t *Transform) IsMatrixShaper() bool {
	return t.profileType == profileTypeMatrixTRC || t.profileType == profileTypeGrayTRC
}

// invertMatrix3x3 returns the inverse of a 3x3 matrix.
func invertMatrix3x3(m []float64) []float64 {
	if len(m) != 9 {
		return nil
	}

	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return nil
	}

	invDet := 1.0 / det

	return []float64{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}
}

// ProfileType returns the detected type of the profile.
func (t *Transform) ProfileType() string {
	switch t.profileType {
	case profileTypeMatrixTRC:
		return "Matrix/TRC"
	case profileTypeGrayTRC:
		return "Gray TRC"
	case profileTypeLut:
		return "LUT"
	default:
		return "Unknown"
	}
}
