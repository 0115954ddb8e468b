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
	"math"
	"testing"

	"seehuhn.de/go/jpgicc/icc"
)

var (
	rgb8  = MustFormat(FormatInfo{Space: SpaceRGB, Channels: 3, Bytes: 1})
	gray8 = MustFormat(FormatInfo{Space: SpaceGray, Channels: 1, Bytes: 1})
	lab16 = MustFormat(FormatInfo{Space: SpaceLab, Channels: 3, Bytes: 2})
)

func formatFor(s Space) Format {
	return MustFormat(FormatInfo{Space: s, Channels: s.Channels(), Bytes: 1})
}

// TestProfileMismatch checks that profiles are matched against the pixel
// format before any of their tags are looked at.
func TestProfileMismatch(t *testing.T) {
	for a, ai := range spaceInfo {
		for b := range spaceInfo {
			if a == b {
				continue
			}
			p := &icc.Profile{Class: icc.DisplayDeviceProfile, ColorSpace: ai.icc, PCS: icc.PCSXYZSpace}
			q := &icc.Profile{Class: icc.DisplayDeviceProfile, ColorSpace: b.ICC(), PCS: icc.PCSXYZSpace}

			_, err := NewTransform(p, formatFor(b), q, formatFor(b), nil, icc.Perceptual, icc.Perceptual, Flags{})
			if !errors.Is(err, ErrProfileMismatch) {
				t.Errorf("input %s for %s pixels: %v", a, b, err)
			}

			_, err = NewTransform(q, formatFor(b), p, formatFor(b), nil, icc.Perceptual, icc.Perceptual, Flags{})
			if !errors.Is(err, ErrProfileMismatch) {
				t.Errorf("output %s for %s pixels: %v", a, b, err)
			}
		}
	}
}

func TestNewTransformArguments(t *testing.T) {
	srgb := icc.SRGBProfile()
	if _, err := NewTransform(srgb, rgb8, nil, rgb8, nil, 0, 0, Flags{}); err == nil {
		t.Error("missing output profile not detected")
	}
	if _, err := NewTransform(srgb, Format(0), srgb, rgb8, nil, 0, 0, Flags{}); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("invalid format: %v", err)
	}
}

func convert(t *testing.T, tr *Transform, in []byte) []byte {
	t.Helper()
	n := len(in) / tr.InputFormat().PixelSize()
	out := make([]byte, n*tr.OutputFormat().PixelSize())
	if err := tr.Do(in, out, n); err != nil {
		t.Fatal(err)
	}
	return out
}

func closeBytes(a, b []byte, tol int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if d := int(a[i]) - int(b[i]); d < -tol || d > tol {
			return false
		}
	}
	return true
}

var testPixels = []byte{
	0, 0, 0,
	255, 255, 255,
	255, 0, 0,
	0, 255, 0,
	0, 0, 255,
	12, 130, 240,
	200, 180, 20,
	128, 128, 128,
}

func TestSRGBIdentity(t *testing.T) {
	for _, mode := range []PrecalcMode{PrecalcOff, PrecalcNormal, PrecalcHighRes, PrecalcLowRes} {
		t.Run(mode.String(), func(t *testing.T) {
			tr, err := NewTransform(icc.SRGBProfile(), rgb8, icc.SRGBProfile(), rgb8,
				nil, icc.Perceptual, icc.Perceptual, Flags{Precalc: mode})
			if err != nil {
				t.Fatal(err)
			}
			out := convert(t, tr, testPixels)
			if !closeBytes(out, testPixels, 1) {
				t.Errorf("got %v, want %v", out, testPixels)
			}
		})
	}
}

func TestPrecalcAgreement(t *testing.T) {
	exact, err := NewTransform(icc.SRGBProfile(), rgb8, icc.GrayProfile(2.2), gray8,
		nil, icc.Perceptual, icc.Perceptual, Flags{})
	if err != nil {
		t.Fatal(err)
	}
	fast, err := NewTransform(icc.SRGBProfile(), rgb8, icc.GrayProfile(2.2), gray8,
		nil, icc.Perceptual, icc.Perceptual, Flags{Precalc: PrecalcNormal})
	if err != nil {
		t.Fatal(err)
	}

	a := convert(t, exact, testPixels)
	b := convert(t, fast, testPixels)
	if !closeBytes(a, b, 2) {
		t.Errorf("precalc %v differs from exact %v", b, a)
	}
	if a[0] != 0 || a[1] != 255 {
		t.Errorf("black and white map to %d and %d", a[0], a[1])
	}
}

func TestPrecalcGridPoints(t *testing.T) {
	cases := []struct {
		mode PrecalcMode
		want [6]int // for 1 to 6 channels
	}{
		{PrecalcOff, [6]int{0, 0, 0, 0, 0, 0}},
		{PrecalcNormal, [6]int{33, 33, 33, 17, 7, 7}},
		{PrecalcHighRes, [6]int{49, 49, 49, 23, 7, 7}},
		{PrecalcLowRes, [6]int{33, 17, 17, 17, 6, 6}},
	}
	for _, c := range cases {
		for ch := 1; ch <= 6; ch++ {
			if got := c.mode.GridPoints(ch); got != c.want[ch-1] {
				t.Errorf("%s, %d channels: %d grid points, want %d", c.mode, ch, got, c.want[ch-1])
			}
		}
	}
}

func TestLabInput(t *testing.T) {
	tr, err := NewTransform(icc.LabProfile(), lab16, icc.SRGBProfile(), rgb8,
		nil, icc.Perceptual, icc.Perceptual, Flags{})
	if err != nil {
		t.Fatal(err)
	}

	var in []byte
	for _, c := range []icc.Lab{{L: 100}, {L: 0}, {L: 50}} {
		v := c.EncodeV4()
		for _, w := range v {
			in = append(in, byte(w>>8), byte(w))
		}
	}
	out := convert(t, tr, in)
	if !closeBytes(out[0:3], []byte{255, 255, 255}, 1) {
		t.Errorf("L=100 maps to %v", out[0:3])
	}
	if !closeBytes(out[3:6], []byte{0, 0, 0}, 1) {
		t.Errorf("L=0 maps to %v", out[3:6])
	}
	if !closeBytes(out[6:7], out[7:8], 1) || !closeBytes(out[7:8], out[8:9], 1) {
		t.Errorf("neutral L=50 maps to %v", out[6:9])
	}
}

// invertingLink returns a device link which maps each RGB channel to its
// complement.
func invertingLink(t *testing.T) *icc.Profile {
	t.Helper()
	clut, err := icc.SampleCLUT(2, 3, 3, func(in, out []uint16) {
		for i, v := range in {
			out[i] = 0xFFFF - v
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return &icc.Profile{
		Version:    icc.Version4_3_0,
		Class:      icc.DeviceLinkProfile,
		ColorSpace: icc.RGBSpace,
		PCS:        icc.RGBSpace,
		TagData: map[icc.TagType][]byte{
			icc.AToB0: icc.NewLutAToB(clut).Encode(),
		},
	}
}

func TestDeviceLink(t *testing.T) {
	link := invertingLink(t)
	tr, err := NewTransform(link, rgb8, nil, rgb8, nil, icc.Perceptual, icc.Perceptual, Flags{})
	if err != nil {
		t.Fatal(err)
	}
	out := convert(t, tr, testPixels)
	want := make([]byte, len(testPixels))
	for i, v := range testPixels {
		want[i] = 255 - v
	}
	if !closeBytes(out, want, 1) {
		t.Errorf("got %v, want %v", out, want)
	}

	_, err = NewTransform(link, rgb8, icc.SRGBProfile(), rgb8, nil, icc.Perceptual, icc.Perceptual, Flags{})
	if err == nil {
		t.Error("output profile accepted for device link")
	}
	_, err = NewTransform(link, rgb8, nil, gray8, nil, icc.Perceptual, icc.Perceptual, Flags{})
	if !errors.Is(err, ErrProfileMismatch) {
		t.Errorf("device link to gray: %v", err)
	}
}

func TestGamutCheck(t *testing.T) {
	in := []byte{
		255, 0, 0,
		128, 128, 128,
	}
	alarm := from16to8(AlarmCodes[0])

	tr, err := NewTransform(icc.SRGBProfile(), rgb8, icc.SRGBProfile(), rgb8,
		icc.GrayProfile(2.2), icc.Perceptual, icc.Perceptual, Flags{GamutCheck: true})
	if err != nil {
		t.Fatal(err)
	}
	out := convert(t, tr, in)
	if out[0] != alarm || out[1] != alarm || out[2] != alarm {
		t.Errorf("red not flagged: %v", out[0:3])
	}
	if !closeBytes(out[3:6], in[3:6], 1) {
		t.Errorf("grey changed to %v", out[3:6])
	}

	// without a proofing profile there is nothing to check against
	tr, err = NewTransform(icc.SRGBProfile(), rgb8, icc.SRGBProfile(), rgb8,
		nil, icc.Perceptual, icc.Perceptual, Flags{GamutCheck: true})
	if err != nil {
		t.Fatal(err)
	}
	out = convert(t, tr, in)
	if !closeBytes(out, in, 1) {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestSoftProofing(t *testing.T) {
	in := []byte{255, 0, 0, 12, 130, 240}
	proof := icc.GrayProfile(2.2)

	tr, err := NewTransform(icc.SRGBProfile(), rgb8, icc.SRGBProfile(), rgb8,
		proof, icc.Perceptual, icc.AbsoluteColorimetric, Flags{SoftProofing: true})
	if err != nil {
		t.Fatal(err)
	}
	out := convert(t, tr, in)
	for i := 0; i < len(out); i += 3 {
		px := out[i : i+3]
		if !closeBytes(px[0:1], px[1:2], 1) || !closeBytes(px[1:2], px[2:3], 1) {
			t.Errorf("proofed pixel %v is not neutral", px)
		}
	}

	// the proofing profile is ignored unless soft proofing is requested
	tr, err = NewTransform(icc.SRGBProfile(), rgb8, icc.SRGBProfile(), rgb8,
		proof, icc.Perceptual, icc.AbsoluteColorimetric, Flags{})
	if err != nil {
		t.Fatal(err)
	}
	out = convert(t, tr, in)
	if !closeBytes(out, in, 1) {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestShortBuffer(t *testing.T) {
	tr, err := NewTransform(icc.SRGBProfile(), rgb8, icc.GrayProfile(2.2), gray8,
		nil, icc.Perceptual, icc.Perceptual, Flags{})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Do(make([]byte, 5), make([]byte, 2), 2); err == nil {
		t.Error("short input not detected")
	}
	if err := tr.Do(make([]byte, 6), make([]byte, 1), 2); err == nil {
		t.Error("short output not detected")
	}
}

func TestBlackPoint(t *testing.T) {
	srgb := icc.SRGBProfile()
	for _, intent := range []icc.RenderingIntent{icc.Perceptual, icc.RelativeColorimetric, icc.Saturation} {
		bp := BlackPoint(srgb, intent)
		if bp.Y > 1e-3 {
			t.Errorf("sRGB black point for %s = %v", intent, bp)
		}
	}
	if bp := BlackPoint(srgb, icc.AbsoluteColorimetric); bp != (icc.XYZ{}) {
		t.Errorf("absolute black point = %v", bp)
	}

	cmyk := icc.CMYKProfile()
	if bp := BlackPoint(cmyk, icc.Perceptual); bp != perceptualBlack {
		t.Errorf("CMYK perceptual black point = %v", bp)
	}
	ink := BlackPoint(cmyk, icc.RelativeColorimetric)
	lab := ink.Lab()
	if lab.L < 0 || lab.L > 50 || math.Abs(lab.A) > 1e-6 || math.Abs(lab.B) > 1e-6 {
		t.Errorf("CMYK ink black = %v", lab)
	}

	link := invertingLink(t)
	if bp := BlackPoint(link, icc.Perceptual); bp != (icc.XYZ{}) {
		t.Errorf("device link black point = %v", bp)
	}
}

func TestBPC(t *testing.T) {
	in := icc.XYZ{X: 0.01, Y: 0.012, Z: 0.009}
	out := icc.XYZ{X: 0.03, Y: 0.031, Z: 0.025}

	if newBPC(in, in) != nil {
		t.Error("identical black points need no compensation")
	}

	b := newBPC(in, out)
	check := func(name string, got, want icc.XYZ) {
		t.Helper()
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 || math.Abs(got.Z-want.Z) > 1e-9 {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}
	check("black", b.apply(in), out)
	check("white", b.apply(icc.D50), icc.D50)
}

func TestBPCTransform(t *testing.T) {
	// With the ink-limited CMYK profile as output, compensation lifts
	// pure black so that detail near black survives.
	cmyk4 := MustFormat(FormatInfo{Space: SpaceCMYK, Channels: 4, Bytes: 1})
	for _, useBPC := range []bool{false, true} {
		tr, err := NewTransform(icc.SRGBProfile(), rgb8, icc.CMYKProfile(), cmyk4,
			nil, icc.RelativeColorimetric, icc.RelativeColorimetric,
			Flags{BlackPointCompensation: useBPC})
		if err != nil {
			t.Fatal(err)
		}
		out := convert(t, tr, []byte{0, 0, 0, 255, 255, 255})
		if out[3] < 250 {
			t.Errorf("bpc=%t: black has K=%d", useBPC, out[3])
		}
		if !closeBytes(out[4:8], []byte{0, 0, 0, 0}, 3) {
			t.Errorf("bpc=%t: white maps to %v", useBPC, out[4:8])
		}
	}
}
