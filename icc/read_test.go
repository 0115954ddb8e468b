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
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDateTime(t *testing.T) {
	in := []byte{
		byte(2026 >> 8), byte(2026 & 0xFF),
		0, 10,
		0, 19,
		0, 4,
		0, 5,
		0, 6,
	}
	want := "2026-10-19 04:05:06 +0000 UTC"
	got := getDateTime(in, 0).String()
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// out of range fields give the zero time
	in[3] = 13
	if d := getDateTime(in, 0); !d.IsZero() {
		t.Errorf("month 13 decoded as %s", d)
	}
}

func TestCreationDateRoundTrip(t *testing.T) {
	cest := time.FixedZone("CEST", 2*60*60)
	tests := []struct {
		name     string
		in, want time.Time
	}{
		{"zero", time.Time{}, time.Time{}},
		{"UTC",
			time.Date(2026, 10, 19, 14, 30, 15, 0, time.UTC),
			time.Date(2026, 10, 19, 14, 30, 15, 0, time.UTC)},
		{"non-UTC",
			time.Date(2026, 10, 19, 1, 30, 15, 0, cest),
			time.Date(2026, 10, 18, 23, 30, 15, 0, time.UTC)},
		{"sub-second",
			time.Date(2020, 1, 2, 3, 4, 5, 999_999_999, time.UTC),
			time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{
				Class:        ColorSpaceProfile,
				ColorSpace:   CIELabSpace,
				PCS:          PCSLabSpace,
				CreationDate: tt.in,
				TagData:      map[TagType][]byte{},
			}
			q, err := Decode(p.Encode())
			if err != nil {
				t.Fatal(err)
			}
			got := q.CreationDate
			if got.IsZero() != tt.want.IsZero() || !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if !got.IsZero() && got.Location() != time.UTC {
				t.Errorf("location %s, want UTC", got.Location())
			}
		})
	}
}

// TestDecodeChecksum checks the profile ID of a version 4 profile.  The
// flags and rendering intent header fields do not contribute to the ID.
func TestDecodeChecksum(t *testing.T) {
	p := SRGBProfile()
	p.Flags = 3
	p.RenderingIntent = RelativeColorimetric
	data := p.Encode()
	orig := bytes.Clone(data)

	q, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, orig) {
		t.Error("Decode modified its input")
	}
	if q.CheckSum != CheckSumValid {
		t.Errorf("CheckSum = %s, want %s", q.CheckSum, CheckSumValid)
	}
	if q.Flags != 3 || q.RenderingIntent != RelativeColorimetric {
		t.Errorf("header fields lost: flags %d, intent %s", q.Flags, q.RenderingIntent)
	}

	changed := bytes.Clone(orig)
	changed[47] = 0
	changed[67] = 0
	q, err = Decode(changed)
	if err != nil {
		t.Fatal(err)
	}
	if q.CheckSum != CheckSumValid {
		t.Errorf("changed flags: CheckSum = %s", q.CheckSum)
	}

	corrupt := bytes.Clone(orig)
	corrupt[len(corrupt)-1] ^= 0xFF
	q, err = Decode(corrupt)
	if err != nil {
		t.Fatal(err)
	}
	if q.CheckSum != CheckSumInvalid {
		t.Errorf("corrupt data: CheckSum = %s", q.CheckSum)
	}

	p.Version = Version2_4_0
	q, err = Decode(p.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if q.CheckSum != CheckSumMissing {
		t.Errorf("version 2: CheckSum = %s", q.CheckSum)
	}
}

// labLinkSeed returns an encoded Lab to Lab profile with AToB0 and BToA0
// tags, laid out like the virtual fax profiles.
func labLinkSeed(f *testing.F) []byte {
	f.Helper()
	clut, err := SampleCLUT(5, 3, 3, func(in, out []uint16) {
		out[0] = in[0]
		out[1] = in[1]/2 + 0x4000
		out[2] = 0xFFFF - in[2]
	})
	if err != nil {
		f.Fatal(err)
	}
	p := NewProfile(ColorSpaceProfile, CIELabSpace, PCSLabSpace, "Lab seed")
	p.TagData[AToB0] = NewLutAToB(clut).Encode()
	p.TagData[BToA0] = NewLutBToA(clut).Encode()
	return p.Encode()
}

func FuzzDecode(f *testing.F) {
	p := &Profile{
		TagData:      make(map[TagType][]byte),
		CreationDate: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.Add(p.Encode())
	p.TagData[0x100] = []byte{0, 0, 0, 0}
	f.Add(p.Encode())
	p.TagData[0x6368726D] = []byte{0, 0, 0, 0}
	f.Add(p.Encode())
	for _, name := range StockNames() {
		s, _ := Stock(name)
		f.Add(s.Encode())
	}
	f.Add(labLinkSeed(f))

	f.Fuzz(func(t *testing.T, a []byte) {
		p, err := Decode(a)
		if err != nil {
			return
		}
		b := p.Encode()
		q, err := Decode(b)
		if err != nil {
			t.Fatalf("re-decoding failed: %v", err)
		}

		p.CheckSum = CheckSumMissing
		q.CheckSum = CheckSumMissing
		if d := cmp.Diff(p, q); d != "" {
			t.Fatalf("profiles differ (-first +second):\n%s", d)
		}
	})
}
