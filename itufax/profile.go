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

package itufax

import (
	"seehuhn.de/go/jpgicc/icc"
)

// GridPoints is the number of grid points per axis of the lookup tables in
// the fax profiles.
const GridPoints = 33

// NewDecodeProfile returns an input profile which converts fax encoded
// pixels to the PCS.
func NewDecodeProfile() (*icc.Profile, error) {
	clut, err := DecodeTable()
	if err != nil {
		return nil, err
	}
	p := icc.NewProfile(icc.ColorSpaceProfile, icc.CIELabSpace, icc.PCSLabSpace,
		"ITU T.42/Fax decoder")
	p.TagData[icc.AToB0] = icc.NewLutAToB(clut).Encode()
	return p, nil
}

// NewEncodeProfile returns an output profile which converts PCS colours to
// the fax encoding.  Colours outside [Envelope] are desaturated towards
// the neutral axis.
func NewEncodeProfile() (*icc.Profile, error) {
	clut, err := EncodeTable()
	if err != nil {
		return nil, err
	}
	p := icc.NewProfile(icc.ColorSpaceProfile, icc.CIELabSpace, icc.PCSLabSpace,
		"ITU T.42/Fax encoder")
	p.TagData[icc.BToA0] = icc.NewLutBToA(clut).Encode()
	return p, nil
}

// DecodeTable samples the map from fax samples to the version 4 Lab
// encoding of the PCS.
func DecodeTable() (*icc.CLUT, error) {
	return icc.SampleCLUT(GridPoints, 3, 3, func(in, out []uint16) {
		lab := Decode(Sample{L: in[0], A: in[1], B: in[2]})
		v := lab.EncodeV4()
		copy(out, v[:])
	})
}

// EncodeTable samples the map from the version 4 Lab encoding of the PCS
// to fax samples.
func EncodeTable() (*icc.CLUT, error) {
	return icc.SampleCLUT(GridPoints, 3, 3, func(in, out []uint16) {
		lab := icc.DecodeLabV4([3]uint16{in[0], in[1], in[2]})
		s := Encode(icc.Desaturate(lab, Envelope))
		out[0], out[1], out[2] = s.L, s.A, s.B
	})
}
