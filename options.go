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
	"context"
	"log/slog"

	"seehuhn.de/go/jpgicc/cmm"
	"seehuhn.de/go/jpgicc/icc"
)

// DefaultQuality is the JPEG quality used if none is given.
const DefaultQuality = 75

// Options control a conversion.
//
// Profile references are either file names or the names of built-in
// profiles, like "*sRGB".  The name "*Lab" selects the ITU T.42 fax
// encoding.
type Options struct {
	// InputProfile is used if the image has no embedded profile, or if
	// IgnoreEmbedded is set.  If empty, a default for the colour space of
	// the image is used.
	InputProfile string

	// OutputProfile describes the colours of the output image.
	// The default is "*sRGB".
	OutputProfile string

	// ProofProfile, if set, selects a device to simulate on the output.
	ProofProfile string

	// DeviceLink, if set, is a device link profile which is used instead
	// of the input and output profiles.
	DeviceLink string

	Intent      icc.RenderingIntent
	ProofIntent icc.RenderingIntent

	BlackPointCompensation bool
	GamutCheck             bool // mark colours outside the proofing gamut
	Precalc                cmm.PrecalcMode

	IgnoreEmbedded bool   // do not use a profile embedded in the input
	EmbedProfile   bool   // embed the output profile into the output
	SaveEmbedded   string // if set, the embedded input profile is saved here

	// Quality is the JPEG quality of the output, from 1 to 100.
	// Zero selects DefaultQuality.
	Quality int

	// Logger receives diagnostic messages.  If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns the settings of the jpgicc command line tool.
func DefaultOptions() *Options {
	return &Options{
		Intent:      icc.Perceptual,
		ProofIntent: icc.Perceptual,
		Precalc:     cmm.PrecalcNormal,
		Quality:     DefaultQuality,
	}
}

func (o *Options) quality() int {
	if o.Quality == 0 {
		return DefaultQuality
	}
	return o.Quality
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(nopHandler{})
	}
	return o.Logger
}

// nopHandler discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
