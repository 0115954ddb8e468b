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
	"fmt"
	"os"

	"seehuhn.de/go/jpgicc/jpeg"
)

// Convert converts the image of src and writes the result to dst.
// If opts is nil, the values of [DefaultOptions] are used.
func Convert(src Source, dst Destination, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	plan, err := Resolve(src, opts)
	if err != nil {
		return err
	}
	opts.logger().Info("converting",
		"width", plan.Width, "height", plan.Height,
		"input", plan.Transform.InputFormat(),
		"output", plan.Transform.OutputFormat())
	return NewEngine(src, dst, plan).Run()
}

// ConvertFile converts the JPEG file inName and writes the result to
// the file outName.  If the conversion fails, the output file is removed.
func ConvertFile(inName, outName string, opts *Options) (err error) {
	in, err := os.Open(inName)
	if err != nil {
		return err
	}
	dec, err := jpeg.NewDecoder(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", inName, err)
	}

	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := out.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(outName)
		}
	}()

	err = Convert(dec, jpeg.NewEncoder(out), opts)
	if err != nil {
		return fmt.Errorf("%s: %w", inName, err)
	}
	return nil
}
