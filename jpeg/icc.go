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

package jpeg

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

const (
	iccSignature = "ICC_PROFILE\x00"

	// maxChunkSize is the largest ICC data block which fits into one
	// APP2 segment, after the length field and the 14 byte chunk header.
	maxChunkSize = 65535 - 2 - 14
)

// ErrInvalidICC is returned by [ExtractICC] if the ICC chunks of a file do
// not fit together.
var ErrInvalidICC = errors.New("jpeg: invalid ICC profile chunks")

// IsICC reports whether m holds a chunk of an ICC profile.
func (m Marker) IsICC() bool {
	return m.Code == APP2 && len(m.Data) >= 14 && string(m.Data[:12]) == iccSignature
}

// ExtractICC reassembles an ICC profile from the APP2 markers of a file.
// The result is nil if the file has no embedded profile.
func ExtractICC(markers []Marker) ([]byte, error) {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	count := 0
	seen := make(map[int]bool)

	for _, m := range markers {
		if !m.IsICC() {
			continue
		}
		seq, n := int(m.Data[12]), int(m.Data[13])
		if seq == 0 || seq > n {
			return nil, fmt.Errorf("%w: chunk %d of %d", ErrInvalidICC, seq, n)
		}
		if count == 0 {
			count = n
		} else if n != count {
			return nil, fmt.Errorf("%w: chunk count %d, expected %d", ErrInvalidICC, n, count)
		}
		if seen[seq] {
			return nil, fmt.Errorf("%w: duplicate chunk %d", ErrInvalidICC, seq)
		}
		seen[seq] = true
		chunks = append(chunks, chunk{seq: seq, data: m.Data[14:]})
	}

	if len(chunks) == 0 {
		return nil, nil
	}
	if len(chunks) != count {
		return nil, fmt.Errorf("%w: found %d of %d chunks", ErrInvalidICC, len(chunks), count)
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.data)
	}
	return buf.Bytes(), nil
}

// ICCMarkers splits an ICC profile into APP2 markers.
func ICCMarkers(profile []byte) ([]Marker, error) {
	if len(profile) == 0 {
		return nil, errors.New("jpeg: empty ICC profile")
	}
	n := (len(profile) + maxChunkSize - 1) / maxChunkSize
	if n > 255 {
		return nil, fmt.Errorf("jpeg: ICC profile too large (%d bytes)", len(profile))
	}

	res := make([]Marker, 0, n)
	for i := range n {
		start := i * maxChunkSize
		end := min(start+maxChunkSize, len(profile))

		data := make([]byte, 0, 14+end-start)
		data = append(data, iccSignature...)
		data = append(data, byte(i+1), byte(n))
		data = append(data, profile[start:end]...)
		res = append(res, Marker{Code: APP2, Data: data})
	}
	return res, nil
}
