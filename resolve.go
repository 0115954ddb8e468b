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

package jpgicc

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"seehuhn.de/go/jpgicc/cmm"
	"seehuhn.de/go/jpgicc/icc"
	"seehuhn.de/go/jpgicc/itufax"
	"seehuhn.de/go/jpgicc/jpeg"
)

// Plan holds everything needed to convert one image.
type Plan struct {
	Width, Height int

	Transform *cmm.Transform

	// ReadSpace is the colour space requested from the source.
	ReadSpace jpeg.ColorSpace

	// OutputSpace is the colour space of the converted pixels.
	OutputSpace cmm.Space

	// Layout holds the encoder settings.
	Layout jpeg.Layout

	// Density is copied to the destination.
	Density jpeg.Density

	// Embed, if not nil, is the profile to embed into the destination.
	Embed []byte
}

// defaultProfiles are used for images without a profile.
var defaultProfiles = map[cmm.Space]string{
	cmm.SpaceGray: "*Gray22",
	cmm.SpaceRGB:  "*sRGB",
	cmm.SpaceCMYK: "*CMYK",
	cmm.SpaceLab:  "*Lab",
}

const defaultOutputProfile = "*sRGB"

// Resolve chooses the pixel formats and profiles for converting the image
// of src, and builds the colour transform.  If opts is nil, the values
// of [DefaultOptions] are used.
//
// The input profile is the profile embedded in the image, unless
// opts.IgnoreEmbedded is set.  Otherwise opts.InputProfile is used, and
// if this is empty a default for the colour space of the image.  If the
// input profile is a device link, the output and proofing profiles are
// not used and the link determines the output colour space.
func Resolve(src Source, opts *Options) (*Plan, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.logger()

	h := src.Header()
	markers := src.Markers()

	inFmt, readSpace, err := InputFormat(h, markers)
	if err != nil {
		return nil, err
	}
	inSpace := inFmt.Info().Space
	log.Debug("input format", "format", inFmt, "jpeg", h.ColorSpace)

	plan := &Plan{
		Width:     h.Width,
		Height:    h.Height,
		ReadSpace: readSpace,
		Density:   h.Density,
	}
	if d, ok := jpeg.PhotoshopResolution(markers); ok {
		log.Debug("resolution from Photoshop marker", "x", d.X, "y", d.Y)
		plan.Density = d
	}

	var in *icc.Profile
	if opts.DeviceLink != "" {
		in, _, err = openProfile(opts.DeviceLink)
		if err != nil {
			return nil, fmt.Errorf("device link: %w", err)
		}
		if in.Class != icc.DeviceLinkProfile {
			return nil, fmt.Errorf("%s: not a device link profile", opts.DeviceLink)
		}
	} else {
		in, err = inputProfile(inSpace, markers, opts, log)
		if err != nil {
			return nil, err
		}
	}

	var out, proof *icc.Profile
	var outSpace cmm.Space
	flags := cmm.Flags{
		BlackPointCompensation: opts.BlackPointCompensation,
		GamutCheck:             opts.GamutCheck,
		Precalc:                opts.Precalc,
	}
	if in.Class == icc.DeviceLinkProfile {
		outSpace, err = cmm.SpaceOf(in.PCS)
		if err != nil {
			return nil, err
		}
	} else {
		var outData []byte
		out, outData, err = outputProfile(opts.OutputProfile)
		if err != nil {
			return nil, err
		}
		outSpace, err = cmm.SpaceOf(out.ColorSpace)
		if err != nil {
			return nil, err
		}
		if opts.EmbedProfile && opts.OutputProfile != "" {
			plan.Embed = outData
		}

		if opts.ProofProfile != "" {
			proof, _, err = openProfile(opts.ProofProfile)
			if err != nil {
				return nil, fmt.Errorf("proofing profile: %w", err)
			}
			flags.SoftProofing = true
		}
	}
	plan.OutputSpace = outSpace

	plan.Layout, err = OutputLayout(outSpace, opts.quality())
	if err != nil {
		return nil, err
	}
	outFmt, err := outputFormat(outSpace, plan.Layout)
	if err != nil {
		return nil, err
	}
	log.Debug("output format", "format", outFmt, "jpeg", plan.Layout.JPEGSpace)

	plan.Transform, err = cmm.NewTransform(in, inFmt, out, outFmt, proof,
		opts.Intent, opts.ProofIntent, flags)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// inputProfile finds the profile which describes the source pixels.
func inputProfile(space cmm.Space, markers []jpeg.Marker, opts *Options, log *slog.Logger) (*icc.Profile, error) {
	if !opts.IgnoreEmbedded {
		p, err := embeddedProfile(markers, opts, log)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}

	name := opts.InputProfile
	if name == "" {
		name = defaultProfiles[space]
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no default profile for %s",
			cmm.ErrUnsupportedColorSpace, space)
	}
	if strings.EqualFold(name, "*lab") && space == cmm.SpaceLab {
		log.Debug("input profile", "name", "ITU T.42 fax")
		return itufax.NewDecodeProfile()
	}
	p, _, err := openProfile(name)
	if err != nil {
		return nil, fmt.Errorf("input profile: %w", err)
	}
	log.Debug("input profile", "name", name)
	return p, nil
}

// embeddedProfile returns the profile embedded in the APP2 markers, or nil
// if there is none.  A damaged profile is ignored.
func embeddedProfile(markers []jpeg.Marker, opts *Options, log *slog.Logger) (*icc.Profile, error) {
	data, err := jpeg.ExtractICC(markers)
	if err != nil {
		log.Warn("ignoring embedded profile", "error", err)
		return nil, nil
	}
	if data == nil {
		return nil, nil
	}
	p, err := icc.Decode(data)
	if err != nil {
		log.Warn("ignoring embedded profile", "error", err)
		return nil, nil
	}

	if desc, err := p.Description(); err == nil {
		log.Info("embedded profile found", "description", desc,
			"class", p.Class, "space", p.ColorSpace)
	} else {
		log.Info("embedded profile found", "class", p.Class, "space", p.ColorSpace)
	}
	if opts.SaveEmbedded != "" {
		err := os.WriteFile(opts.SaveEmbedded, data, 0o644)
		if err != nil {
			return nil, fmt.Errorf("saving embedded profile: %w", err)
		}
	}
	return p, nil
}

// outputProfile opens the output profile, and returns it together with
// its binary representation.
func outputProfile(name string) (*icc.Profile, []byte, error) {
	if name == "" {
		name = defaultOutputProfile
	}
	if strings.EqualFold(name, "*lab") {
		p, err := itufax.NewEncodeProfile()
		if err != nil {
			return nil, nil, err
		}
		return p, p.Encode(), nil
	}
	p, data, err := openProfile(name)
	if err != nil {
		return nil, nil, fmt.Errorf("output profile: %w", err)
	}
	return p, data, nil
}

var errUnknownProfile = errors.New("unknown built-in profile")

// openProfile opens a built-in profile or reads a profile file.  The
// second return value is the encoded profile.
func openProfile(name string) (*icc.Profile, []byte, error) {
	if strings.HasPrefix(name, "*") {
		p, ok := icc.Stock(name)
		if !ok && strings.EqualFold(name, "*lab") {
			p, ok = icc.LabProfile(), true
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w %q", errUnknownProfile, name)
		}
		return p, p.Encode(), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, err
	}
	p, err := icc.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return p, data, nil
}
