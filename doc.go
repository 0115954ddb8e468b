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

// Package jpgicc applies ICC colour profiles to JPEG images.
//
// A conversion reads the source image one scanline at a time, converts
// every row with a colour transform built from the input, output and
// optional proofing profiles, and writes the result together with the
// application markers of the source.  Images stored in the ITU T.42 fax
// encoding of CIELab are recognised by their G3FAX marker and can also be
// written, by using "*Lab" as the output profile.
//
// [Convert] and [ConvertFile] run a complete conversion.  [Resolve],
// [NewEngine] and [OutputLayout] expose the individual steps.
package jpgicc
