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

import (
	"seehuhn.de/go/jpgicc/icc"
)

// perceptualBlack is the black point of the perceptual reference medium
// of ICC version 4.
var perceptualBlack = icc.XYZ{X: 0.00336, Y: 0.0034731, Z: 0.00287}

// BlackPoint estimates the black point of a profile for the given
// intent, relative to D50.  The zero value is returned if the profile has
// no meaningful black point.
func BlackPoint(p *icc.Profile, intent icc.RenderingIntent) icc.XYZ {
	switch p.Class {
	case icc.DeviceLinkProfile, icc.AbstractProfile, icc.NamedColorProfile:
		return icc.XYZ{}
	}
	if intent == icc.AbsoluteColorimetric {
		return icc.XYZ{}
	}

	if p.Version >= icc.Version4_0_0 && (intent == icc.Perceptual || intent == icc.Saturation) {
		t, err := icc.NewTransform(p, icc.DeviceToPCS, icc.RelativeColorimetric)
		if err == nil && t.IsMatrixShaper() {
			return darkerColorant(p, icc.RelativeColorimetric)
		}
		return perceptualBlack
	}

	if intent == icc.RelativeColorimetric && p.Class == icc.OutputDeviceProfile && p.ColorSpace == icc.CMYKSpace {
		return perceptualInkBlack(p)
	}
	return darkerColorant(p, intent)
}

// deviceBlack returns the darkest device colour of a colour space, or nil
// if the colour space has no natural black.
func deviceBlack(cs icc.ColorSpace) []float64 {
	switch cs {
	case icc.GraySpace:
		return []float64{0}
	case icc.RGBSpace:
		return []float64{0, 0, 0}
	case icc.CMYSpace:
		return []float64{1, 1, 1}
	case icc.CMYKSpace:
		return []float64{1, 1, 1, 1}
	case icc.CIELabSpace:
		return []float64{0, 128.0 / 255, 128.0 / 255}
	}
	return nil
}

// darkerColorant maps the device black to the PCS and keeps only its
// lightness.
func darkerColorant(p *icc.Profile, intent icc.RenderingIntent) icc.XYZ {
	black := deviceBlack(p.ColorSpace)
	if black == nil {
		return icc.XYZ{}
	}
	t, err := icc.NewTransform(p, icc.DeviceToPCS, intent)
	if err != nil {
		return icc.XYZ{}
	}
	lab := t.ToLab(black)
	lab.A, lab.B = 0, 0
	if lab.L < 0 || lab.L > 50 {
		lab.L = 0
	}
	return lab.XYZ()
}

// perceptualInkBlack maps Lab black to the device using the perceptual
// intent and measures the resulting ink combination.
func perceptualInkBlack(p *icc.Profile) icc.XYZ {
	toDevice, err := icc.NewTransform(p, icc.PCSToDevice, icc.Perceptual)
	if err != nil {
		return icc.XYZ{}
	}
	toPCS, err := icc.NewTransform(p, icc.DeviceToPCS, icc.Perceptual)
	if err != nil {
		return icc.XYZ{}
	}
	ink := toDevice.FromLab(icc.Lab{})
	lab := toPCS.ToLab(ink)
	lab.L = min(lab.L, 50)
	lab.A, lab.B = 0, 0
	return lab.XYZ()
}

// bpc is the linear map of black point compensation, applied to XYZ
// values component by component.
type bpc struct {
	scale, offset icc.XYZ
}

// newBPC returns the map which sends in to out while keeping the D50
// white point fixed.  The result is nil if no change is needed.
func newBPC(in, out icc.XYZ) *bpc {
	if in == out {
		return nil
	}
	wp := icc.D50
	tx := in.X - wp.X
	ty := in.Y - wp.Y
	tz := in.Z - wp.Z
	return &bpc{
		scale: icc.XYZ{
			X: (out.X - wp.X) / tx,
			Y: (out.Y - wp.Y) / ty,
			Z: (out.Z - wp.Z) / tz,
		},
		offset: icc.XYZ{
			X: -wp.X * (out.X - in.X) / tx,
			Y: -wp.Y * (out.Y - in.Y) / ty,
			Z: -wp.Z * (out.Z - in.Z) / tz,
		},
	}
}

func (b *bpc) apply(c icc.XYZ) icc.XYZ {
	return icc.XYZ{
		X: b.scale.X*c.X + b.offset.X,
		Y: b.scale.Y*c.Y + b.offset.Y,
		Z: b.scale.Z*c.Z + b.offset.Z,
	}
}
