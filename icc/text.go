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

package icc

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
)

// utf16BE is the string encoding used by multiLocalizedUnicodeType.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func decodeText(data []byte) (string, error) {
	err := checkType("text", data)
	if err != nil {
		return "", err
	}

	if len(data) < 8 {
		return "", errInvalidTagData
	}
	return trimNUL(data[8:]), nil
}

// decodeTextDescription reads the ASCII part of a version 2
// textDescriptionType.
func decodeTextDescription(data []byte) (string, error) {
	err := checkType("desc", data)
	if err != nil {
		return "", err
	}

	if len(data) < 12 {
		return "", errInvalidTagData
	}
	n := uint64(getUint32(data, 8))
	if 12+n > uint64(len(data)) {
		return "", errInvalidTagData
	}
	return trimNUL(data[12 : 12+n]), nil
}

func trimNUL(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// MultiLocalizedUnicode represents a localized Unicode string.
type MultiLocalizedUnicode []LocalizedUnicode

// LocalizedUnicode represents a language-country pair.
type LocalizedUnicode struct {
	Language string
	Country  string
	Value    string
}

// English returns the English translation if present, and the first
// translation otherwise.
func (m MultiLocalizedUnicode) English() string {
	for _, lu := range m {
		if lu.Language == "en" {
			return lu.Value
		}
	}
	if len(m) > 0 {
		return m[0].Value
	}
	return ""
}

func decodeMLUC(data []byte) (MultiLocalizedUnicode, error) {
	err := checkType("mluc", data)
	if err != nil {
		return nil, err
	}

	if len(data) < 12 {
		return nil, errInvalidTagData
	}
	n := getUint32(data, 8)

	if n == 0 || uint64(len(data)) < 16+12*uint64(n) {
		return nil, errInvalidTagData
	}
	dec := utf16BE.NewDecoder()
	res := make(MultiLocalizedUnicode, n)
	for i := range res {
		rec := data[16+12*i:]
		length := getUint32(rec, 4)
		offset := getUint32(rec, 8)

		start := uint64(offset)
		end := start + uint64(length)
		if end > uint64(len(data)) || length&1 != 0 {
			return nil, errInvalidTagData
		}

		value, err := dec.Bytes(data[start:end])
		if err != nil {
			return nil, errInvalidTagData
		}
		res[i] = LocalizedUnicode{
			Language: string(rec[0:2]),
			Country:  string(rec[2:4]),
			Value:    string(value),
		}
	}
	return res, nil
}

// encodeMLUC writes a multiLocalizedUnicodeType holding a single en_US
// string.
func encodeMLUC(s string) []byte {
	value, err := utf16BE.NewEncoder().String(s)
	if err != nil {
		// only called with the names of the built-in profiles
		panic(err)
	}
	buf := make([]byte, 28+len(value))
	copy(buf[0:4], "mluc")
	putUint32(buf, 8, 1)
	putUint32(buf, 12, 12)
	copy(buf[16:20], "enUS")
	putUint32(buf, 20, uint32(len(value)))
	putUint32(buf, 24, 28)
	copy(buf[28:], value)
	return buf
}

func checkType(typeID string, data []byte) error {
	if len(data) < len(typeID) || string(data[:len(typeID)]) != typeID {
		return errUnexpectedType
	}
	return nil
}

var (
	errMissingTag     = errors.New("icc: missing tag")
	errUnexpectedType = errors.New("icc: unexpected tag data type")
	errInvalidTagData = errors.New("icc: invalid tag data")
)
