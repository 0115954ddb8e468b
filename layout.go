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

	"seehuhn.de/go/jpgicc/cmm"
	"seehuhn.de/go/jpgicc/jpeg"
)

// InputFormat determines the pixel format in which the scanlines of an
// image are read, and the colour space to request from the decoder.
//
// Images with a G3FAX marker hold CIELab samples, which are read without
// conversion.  YCbCr images are read as RGB.  CMYK and YCCK images are
// read as CMYK, with inverted samples if an Adobe marker is present.
func InputFormat(h jpeg.Header, markers []jpeg.Marker) (cmm.Format, jpeg.ColorSpace, error) {
	info := cmm.FormatInfo{
		Channels: h.Components,
		Bytes:    1,
	}

	var read jpeg.ColorSpace
	switch {
	case jpeg.IsITUFax(markers):
		if h.Components != 3 {
			return 0, 0, fmt.Errorf("%w: fax image with %d components",
				jpeg.ErrUnsupported, h.Components)
		}
		info.Space = cmm.SpaceLab
		read = jpeg.YCbCr
	case h.ColorSpace == jpeg.Gray:
		info.Space = cmm.SpaceGray
		read = jpeg.Gray
	case h.ColorSpace == jpeg.RGB, h.ColorSpace == jpeg.YCbCr:
		info.Space = cmm.SpaceRGB
		read = jpeg.RGB
	case h.ColorSpace == jpeg.CMYK, h.ColorSpace == jpeg.YCCK:
		info.Space = cmm.SpaceCMYK
		read = jpeg.CMYK
		if h.Adobe {
			info.Flavor = cmm.Chocolate
		}
	default:
		return 0, 0, fmt.Errorf("%w: %s with %d components",
			jpeg.ErrUnsupported, h.ColorSpace, h.Components)
	}

	f, err := cmm.NewFormat(info)
	if err != nil {
		return 0, 0, err
	}
	return f, read, nil
}

// OutputLayout returns the encoder settings for an output image in the
// given colour space.
//
// The choices follow the IJG library: colour images are stored as YCbCr
// and CMYK images as YCCK, unless quality is 100 or more.  From quality 70
// on, chroma subsampling is turned off.  CMYK images carry a JFIF marker
// in addition to the Adobe marker, so that the resolution is kept.
func OutputLayout(space cmm.Space, quality int) (jpeg.Layout, error) {
	var l jpeg.Layout
	switch space {
	case cmm.SpaceGray:
		l.InSpace, l.JPEGSpace = jpeg.Gray, jpeg.Gray
	case cmm.SpaceRGB:
		l.InSpace, l.JPEGSpace = jpeg.RGB, jpeg.YCbCr
	case cmm.SpaceYCbCr, cmm.SpaceLab:
		// Lab samples are passed through as if they were YCbCr
		l.InSpace, l.JPEGSpace = jpeg.YCbCr, jpeg.YCbCr
	case cmm.SpaceCMYK:
		l.InSpace, l.JPEGSpace = jpeg.CMYK, jpeg.YCCK
	default:
		return jpeg.Layout{}, fmt.Errorf("%w: no JPEG encoding for %s",
			cmm.ErrUnsupportedColorSpace, space)
	}

	if quality >= 100 {
		l.JPEGSpace = l.InSpace
	}
	l.Quality = quality
	l.NoSubsampling = quality >= 70

	switch l.JPEGSpace {
	case jpeg.Gray, jpeg.YCbCr:
		l.WriteJFIF = true
	default:
		l.WriteAdobe = true
	}
	if space == cmm.SpaceCMYK {
		l.WriteJFIF = true
	}
	return l, nil
}

// outputFormat returns the pixel format of the rows passed to the encoder.
func outputFormat(space cmm.Space, l jpeg.Layout) (cmm.Format, error) {
	info := cmm.FormatInfo{
		Space:    space,
		Channels: space.Channels(),
		Bytes:    1,
	}
	if space == cmm.SpaceCMYK && l.WriteAdobe {
		info.Flavor = cmm.Chocolate
	}
	return cmm.NewFormat(info)
}
