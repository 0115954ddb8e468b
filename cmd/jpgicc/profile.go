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

package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"seehuhn.de/go/jpgicc/icc"
)

var profileCmd = &cobra.Command{
	Use:   "profile [name...]",
	Short: "Show information about ICC profiles",
	Long: `Profile prints the header of each named profile.  Names may be file
names or names of built-in profiles.  Without arguments, the built-in
profiles are listed.`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = icc.StockNames()
	}
	verbose, _ := cmd.Flags().GetCount("verbose")

	failed := false
	for _, name := range args {
		err := show(cmd.OutOrStdout(), name, verbose > 0)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("some profiles could not be read")
	}
	return nil
}

func show(w io.Writer, name string, verbose bool) error {
	var p *icc.Profile
	var size int
	if strings.HasPrefix(name, "*") {
		var ok bool
		p, ok = icc.Stock(name)
		if !ok {
			return fmt.Errorf("unknown built-in profile")
		}
		size = len(p.Encode())
	} else {
		body, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		p, err = icc.Decode(body)
		if err != nil {
			return err
		}
		size = len(body)
	}

	desc, err := p.Description()
	if err != nil {
		desc = "-"
	}
	if !verbose {
		fmt.Fprintf(w, "%-8s %-25s %-6s %6d bytes  %s (%s)\n",
			p.Version, p.Class, p.ColorSpace, size, name, desc)
		return nil
	}

	fmt.Fprintf(w, "Profile: %s\n", name)
	fmt.Fprintf(w, "  Description: %s\n", desc)
	if p.PreferredCMMType != 0 {
		fmt.Fprintf(w, "  PreferredCMMType: %s\n", tag(p.PreferredCMMType))
	}
	fmt.Fprintf(w, "  Version: %s\n", p.Version)
	fmt.Fprintf(w, "  Class: %s\n", p.Class)
	fmt.Fprintf(w, "  ColorSpace: %s\n", p.ColorSpace)
	fmt.Fprintf(w, "  PCS: %s\n", p.PCSName())
	if !p.CreationDate.IsZero() {
		fmt.Fprintf(w, "  CreationDate: %s\n", p.CreationDate)
	}
	if p.DeviceManufacturer != 0 {
		fmt.Fprintf(w, "  DeviceManufacturer: %s\n", tag(p.DeviceManufacturer))
	}
	if p.DeviceModel != 0 {
		fmt.Fprintf(w, "  DeviceModel: %s\n", tag(p.DeviceModel))
	}
	fmt.Fprintf(w, "  RenderingIntent: %s\n", p.RenderingIntent)
	if p.CheckSum != icc.CheckSumMissing {
		fmt.Fprintf(w, "  CheckSum: %s\n", p.CheckSum)
	}
	fmt.Fprintln(w)

	tags := maps.Keys(p.TagData)
	slices.Sort(tags)
	for _, t := range tags {
		data := p.TagData[t]
		switch t {
		case icc.Copyright:
			fmt.Fprintf(w, "  %s: (%d bytes)\n", t, len(data))
			cprt, err := p.Copyright()
			if err != nil {
				return err
			}
			for _, lu := range cprt {
				fmt.Fprintf(w, "    [%s_%s] %s\n", lu.Language, lu.Country, lu.Value)
			}
		default:
			if len(data) < 4 {
				fmt.Fprintf(w, "  %s: (%d bytes)\n", t, len(data))
				continue
			}
			sig := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
			fmt.Fprintf(w, "  %s: %s (%d bytes)\n", t, tag(sig), len(data))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// tag formats a signature as hex digits, followed by the ASCII form if
// it is printable.
func tag(x uint32) string {
	a := fmt.Sprintf("%08X", x)
	bb := []byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
	for _, c := range bb {
		if c < 0x20 || c > 0x7E {
			return a
		}
	}
	return a + fmt.Sprintf(" %q", bb)
}
