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
	"errors"
	"fmt"

	"seehuhn.de/go/jpgicc/icc"
)

// Flags modify the construction of a [Transform].
type Flags struct {
	// BlackPointCompensation maps the black point of the input profile to
	// the black point of the output profile.  It has no effect for the
	// absolute colorimetric intent.
	BlackPointCompensation bool

	// GamutCheck marks colours which the proofing device cannot reproduce
	// with [AlarmCodes].  It has no effect without a proofing profile.
	GamutCheck bool

	// SoftProofing simulates the proofing device on the output device.
	SoftProofing bool

	Precalc PrecalcMode
}

// AlarmCodes holds the 16-bit output values used for out-of-gamut pixels,
// one per output channel.
var AlarmCodes = [15]uint16{0x7F00, 0x7F00, 0x7F00}

// GamutThreshold is the colour difference (CIE76) above which a colour is
// considered out of gamut.
const GamutThreshold = 5.0

var errShortBuffer = errors.New("cmm: buffer too short")

// Transform converts pixels between two buffer formats.
//
// A Transform holds no reference to the profiles it was built from and
// may be used concurrently.
type Transform struct {
	inFmt, outFmt   Format
	inInfo, outInfo FormatInfo
	eval            func([]float64) []float64
}

// NewTransform builds a transform from pixels in format inFmt, described by
// profile in, to pixels in format outFmt, described by profile out.
//
// If in is a device link profile, out must be nil and the link maps
// directly between the two formats.  Otherwise the colours pass through
// the PCS.  If proof is not nil and flags.SoftProofing is set, the
// colours are first rendered for the proofing device using intent, and
// then for the output device using proofIntent.  The proofing profile
// is also used for flags.GamutCheck.
//
// The error wraps [ErrProfileMismatch] if a profile does not match the
// colour space or channel count of its format, and
// [ErrUnsupportedColorSpace] if the output colour space has no pixel
// format.
func NewTransform(in *icc.Profile, inFmt Format, out *icc.Profile, outFmt Format,
	proof *icc.Profile, intent, proofIntent icc.RenderingIntent, flags Flags) (*Transform, error) {

	t := &Transform{
		inFmt:   inFmt,
		outFmt:  outFmt,
		inInfo:  inFmt.Info(),
		outInfo: outFmt.Info(),
	}
	for _, f := range []Format{inFmt, outFmt} {
		if _, err := NewFormat(f.Info()); err != nil {
			return nil, err
		}
	}

	if err := checkSpace(in.ColorSpace, t.inInfo); err != nil {
		return nil, fmt.Errorf("input profile: %w", err)
	}

	var err error
	if in.Class == icc.DeviceLinkProfile {
		if out != nil {
			return nil, errors.New("cmm: output profile given for device link")
		}
		t.eval, err = t.linkChain(in, intent)
	} else {
		if out == nil {
			return nil, errors.New("cmm: missing output profile")
		}
		t.eval, err = t.pcsChain(in, out, proof, intent, proofIntent, flags)
	}
	if err != nil {
		return nil, err
	}

	if flags.Precalc != PrecalcOff {
		t.eval, err = precalc(flags.Precalc, t.inInfo.Channels, t.outInfo.Channels, t.eval)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// checkSpace verifies that a profile colour space matches a pixel format.
func checkSpace(cs icc.ColorSpace, info FormatInfo) error {
	s, err := SpaceOf(cs)
	if err != nil || s != info.Space {
		return fmt.Errorf("%w: profile is %s, pixels are %s",
			ErrProfileMismatch, cs, info.Space)
	}
	return nil
}

func checkChannels(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d channels, format has %d",
			ErrProfileMismatch, name, got, want)
	}
	return nil
}

func (t *Transform) linkChain(link *icc.Profile, intent icc.RenderingIntent) (func([]float64) []float64, error) {
	outSpace, err := SpaceOf(link.PCS)
	if err != nil {
		return nil, err
	}
	if outSpace != t.outInfo.Space {
		return nil, fmt.Errorf("%w: device link produces %s, pixels are %s",
			ErrProfileMismatch, outSpace, t.outInfo.Space)
	}

	lt, err := icc.NewTransform(link, icc.DeviceToPCS, intent)
	if err != nil {
		return nil, err
	}
	if err := checkChannels("device link input", lt.InputChannels(), t.inInfo.Channels); err != nil {
		return nil, err
	}
	if err := checkChannels("device link output", lt.OutputChannels(), t.outInfo.Channels); err != nil {
		return nil, err
	}
	return lt.Apply, nil
}

func (t *Transform) pcsChain(in, out, proof *icc.Profile, intent, proofIntent icc.RenderingIntent, flags Flags) (func([]float64) []float64, error) {
	outSpace, err := SpaceOf(out.ColorSpace)
	if err != nil {
		return nil, err
	}
	if outSpace != t.outInfo.Space {
		return nil, fmt.Errorf("output profile: %w: profile is %s, pixels are %s",
			ErrProfileMismatch, out.ColorSpace, t.outInfo.Space)
	}

	toPCS, err := icc.NewTransform(in, icc.DeviceToPCS, intent)
	if err != nil {
		return nil, fmt.Errorf("input profile: %w", err)
	}
	if err := checkChannels("input profile", toPCS.InputChannels(), t.inInfo.Channels); err != nil {
		return nil, err
	}

	softProof := proof != nil && flags.SoftProofing
	lastIntent := intent
	if softProof {
		lastIntent = proofIntent
	}
	fromPCS, err := icc.NewTransform(out, icc.PCSToDevice, lastIntent)
	if err != nil {
		return nil, fmt.Errorf("output profile: %w", err)
	}
	if err := checkChannels("output profile", fromPCS.OutputChannels(), t.outInfo.Channels); err != nil {
		return nil, err
	}

	var stages []func(icc.Lab) icc.Lab
	addStage := func(f func(icc.Lab) icc.Lab) {
		if f != nil {
			stages = append(stages, f)
		}
	}

	if softProof {
		proofTo, err := icc.NewTransform(proof, icc.PCSToDevice, intent)
		if err != nil {
			return nil, fmt.Errorf("proofing profile: %w", err)
		}
		proofFrom, err := icc.NewTransform(proof, icc.DeviceToPCS, icc.RelativeColorimetric)
		if err != nil {
			return nil, fmt.Errorf("proofing profile: %w", err)
		}
		addStage(pcsAdjust(in, proof, toPCS, proofTo, intent, flags.BlackPointCompensation))
		addStage(func(c icc.Lab) icc.Lab {
			return proofFrom.ToLab(proofTo.FromLab(c))
		})
		addStage(pcsAdjust(proof, out, proofFrom, fromPCS, proofIntent, flags.BlackPointCompensation))
	} else {
		addStage(pcsAdjust(in, out, toPCS, fromPCS, intent, flags.BlackPointCompensation))
	}

	var inGamut func(icc.Lab) bool
	if flags.GamutCheck && proof != nil {
		inGamut, err = gamutChecker(proof)
		if err != nil {
			return nil, err
		}
	}

	alarm := make([]float64, t.outInfo.Channels)
	for i := range alarm {
		alarm[i] = float64(AlarmCodes[i]) / 65535
	}

	eval := func(x []float64) []float64 {
		lab := toPCS.ToLab(x)
		if inGamut != nil && !inGamut(lab) {
			return alarm
		}
		for _, f := range stages {
			lab = f(lab)
		}
		return fromPCS.FromLab(lab)
	}
	return eval, nil
}

// pcsAdjust returns the PCS correction between two profiles, or nil if
// none is needed.
func pcsAdjust(src, dst *icc.Profile, srcT, dstT *icc.Transform, intent icc.RenderingIntent, useBPC bool) func(icc.Lab) icc.Lab {
	if intent == icc.AbsoluteColorimetric {
		ws, wd := srcT.MediaWhite(), dstT.MediaWhite()
		if ws == wd {
			return nil
		}
		scale := icc.XYZ{X: ws.X / wd.X, Y: ws.Y / wd.Y, Z: ws.Z / wd.Z}
		return func(c icc.Lab) icc.Lab {
			xyz := c.XYZ()
			xyz.X *= scale.X
			xyz.Y *= scale.Y
			xyz.Z *= scale.Z
			return xyz.Lab()
		}
	}

	if !useBPC {
		return nil
	}
	b := newBPC(BlackPoint(src, intent), BlackPoint(dst, intent))
	if b == nil {
		return nil
	}
	return func(c icc.Lab) icc.Lab {
		return b.apply(c.XYZ()).Lab()
	}
}

// gamutChecker reports whether a colour survives a round trip through the
// device of profile p.
func gamutChecker(p *icc.Profile) (func(icc.Lab) bool, error) {
	to, err := icc.NewTransform(p, icc.PCSToDevice, icc.RelativeColorimetric)
	if err != nil {
		return nil, fmt.Errorf("gamut check: %w", err)
	}
	from, err := icc.NewTransform(p, icc.DeviceToPCS, icc.RelativeColorimetric)
	if err != nil {
		return nil, fmt.Errorf("gamut check: %w", err)
	}
	return func(c icc.Lab) bool {
		back := from.ToLab(to.FromLab(c))
		return icc.DeltaE(c, back) <= GamutThreshold
	}, nil
}

// InputFormat returns the format of the input pixels.
func (t *Transform) InputFormat() Format { return t.inFmt }

// OutputFormat returns the format of the output pixels.
func (t *Transform) OutputFormat() Format { return t.outFmt }

// Do converts n pixels from in to out.  For planar formats the buffers
// hold one plane of n samples per channel.
func (t *Transform) Do(in, out []byte, n int) error {
	if len(in) < n*t.inFmt.PixelSize() || len(out) < n*t.outFmt.PixelSize() {
		return errShortBuffer
	}

	x := make([]float64, t.inInfo.Channels)
	for i := range n {
		unpack(x, in, t.inInfo, i, n)
		pack(out, t.eval(x), t.outInfo, i, n)
	}
	return nil
}
