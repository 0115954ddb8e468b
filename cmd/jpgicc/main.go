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

// Jpgicc applies ICC colour profiles to JPEG images.
//
// Usage:
//
//	jpgicc [flags] input.jpg output.jpg
//	jpgicc profile [-v] profile...
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"seehuhn.de/go/jpgicc"
	"seehuhn.de/go/jpgicc/cmm"
	"seehuhn.de/go/jpgicc/icc"
)

var rootCmd = &cobra.Command{
	Use:   "jpgicc [flags] input.jpg output.jpg",
	Short: "Apply ICC profiles to JPEG images",
	Long: `Jpgicc converts the colours of a JPEG image from the input profile to the
output profile.  Profiles are given as file names, or as the names of
built-in profiles (see "jpgicc profile").  The name "*Lab" selects the
ITU T.42 encoding used for colour fax images.

Examples:
  color correct from scanner to sRGB:     jpgicc -i scanner.icm in.jpg out.jpg
  convert from monitor1 to monitor2:      jpgicc -i mon1.icm -o mon2.icm in.jpg out.jpg
  recover sRGB from a CMYK separation:    jpgicc -i printer.icm incmyk.jpg outrgb.jpg
  convert from ITU/Fax CIELab to sRGB:    jpgicc in.jpg out.jpg`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runConvert,
}

func init() {
	f := rootCmd.Flags()
	f.StringP("input", "i", "", "input profile (default depends on the image)")
	f.StringP("output", "o", "", "output profile (default \"*sRGB\")")
	f.StringP("link", "l", "", "device link profile, replaces the input and output profiles")
	f.StringP("proof", "p", "", "soft proof profile")
	f.IntP("intent", "t", 0, "rendering intent (0=perceptual, 1=relative, 2=saturation, 3=absolute)")
	f.IntP("proof-intent", "m", 0, "soft proof intent")
	f.BoolP("bpc", "b", false, "black point compensation")
	f.BoolP("gamut-check", "g", false, "mark out-of-gamut colours on soft proof")
	f.IntP("precalc", "c", int(cmm.PrecalcNormal), "precalculate transform (0=off, 1=normal, 2=hi-res, 3=lo-res)")
	f.BoolP("ignore-embedded", "n", false, "ignore embedded profile")
	f.BoolP("embed", "e", false, "embed output profile")
	f.StringP("save-embedded", "s", "", "save embedded profile to this file")
	f.IntP("quality", "q", jpgicc.DefaultQuality, "output JPEG quality (1-100)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "verbose output, repeat for more detail")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	opts := jpgicc.DefaultOptions()
	opts.InputProfile, _ = f.GetString("input")
	opts.OutputProfile, _ = f.GetString("output")
	opts.DeviceLink, _ = f.GetString("link")
	opts.ProofProfile, _ = f.GetString("proof")
	opts.BlackPointCompensation, _ = f.GetBool("bpc")
	opts.GamutCheck, _ = f.GetBool("gamut-check")
	opts.IgnoreEmbedded, _ = f.GetBool("ignore-embedded")
	opts.EmbedProfile, _ = f.GetBool("embed")
	opts.SaveEmbedded, _ = f.GetString("save-embedded")

	var err error
	opts.Intent, err = intentFlag(cmd, "intent")
	if err != nil {
		return err
	}
	opts.ProofIntent, err = intentFlag(cmd, "proof-intent")
	if err != nil {
		return err
	}

	precalc, _ := f.GetInt("precalc")
	if precalc < 0 || precalc > 3 {
		return fmt.Errorf("invalid precalc mode %d", precalc)
	}
	opts.Precalc = cmm.PrecalcMode(precalc)

	opts.Quality, _ = f.GetInt("quality")
	if opts.Quality < 1 || opts.Quality > 100 {
		return fmt.Errorf("quality %d out of range", opts.Quality)
	}

	opts.Logger = newLogger(cmd)
	return jpgicc.ConvertFile(args[0], args[1], opts)
}

func intentFlag(cmd *cobra.Command, name string) (icc.RenderingIntent, error) {
	v, _ := cmd.Flags().GetInt(name)
	if v < 0 || v > 3 {
		return 0, fmt.Errorf("invalid %s %d", name, v)
	}
	return icc.RenderingIntent(v), nil
}

// newLogger writes warnings to stderr, and more with -v.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	n, _ := cmd.Flags().GetCount("verbose")
	switch {
	case n >= 2:
		level = slog.LevelDebug
	case n == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
