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
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/jpgicc/cmm"
	"seehuhn.de/go/jpgicc/jpeg"
)

// ErrEngineState is returned if the methods of an [Engine] are called out
// of order.
var ErrEngineState = errors.New("jpgicc: engine used out of order")

type engineState int

const (
	engineIdle engineState = iota
	engineStreaming
	engineFinished
	engineFailed
)

// Engine copies the scanlines of one image from a [Source] to a
// [Destination], converting every row with the transform of a [Plan].
//
// The methods must be called in the order Start, Step until it returns
// false, Finish.  After an error the engine cannot be used any more.
type Engine struct {
	src  Source
	dst  Destination
	plan *Plan

	in, out []byte
	rows    int
	done    bool
	state   engineState
}

// NewEngine returns an engine for converting src to dst.
func NewEngine(src Source, dst Destination, plan *Plan) *Engine {
	return &Engine{src: src, dst: dst, plan: plan}
}

// Start prepares both streams.  The resolution of the source is copied to
// the destination, a G3FAX marker is written for Lab output, and the
// output profile is embedded if the plan contains one.
func (e *Engine) Start() error {
	if e.state != engineIdle {
		return ErrEngineState
	}
	e.state = engineFailed

	p := e.plan
	if err := e.src.Start(p.ReadSpace); err != nil {
		return fmt.Errorf("reading: %w", err)
	}
	e.dst.SetDensity(p.Density)
	if err := e.dst.Start(p.Width, p.Height, p.Layout); err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	if p.OutputSpace == cmm.SpaceLab {
		if err := e.dst.WriteMarker(jpeg.ITUFaxMarker()); err != nil {
			return fmt.Errorf("writing: %w", err)
		}
	}
	if p.Embed != nil {
		chunks, err := jpeg.ICCMarkers(p.Embed)
		if err != nil {
			return fmt.Errorf("embedding profile: %w", err)
		}
		for _, m := range chunks {
			if err := e.dst.WriteMarker(m); err != nil {
				return fmt.Errorf("writing: %w", err)
			}
		}
	}

	e.in = make([]byte, p.Width*p.Transform.InputFormat().PixelSize())
	e.out = make([]byte, p.Width*p.Transform.OutputFormat().PixelSize())
	e.state = engineStreaming
	return nil
}

// Step converts one scanline.  The return value is false once all rows
// have been converted.
func (e *Engine) Step() (bool, error) {
	if e.state != engineStreaming {
		return false, ErrEngineState
	}
	if e.done {
		return false, nil
	}

	err := e.src.ReadRow(e.in)
	if err == io.EOF {
		if e.rows != e.plan.Height {
			e.state = engineFailed
			return false, fmt.Errorf("reading: %w after %d of %d rows",
				io.ErrUnexpectedEOF, e.rows, e.plan.Height)
		}
		e.done = true
		return false, nil
	} else if err != nil {
		e.state = engineFailed
		return false, fmt.Errorf("reading row %d: %w", e.rows, err)
	}

	err = e.plan.Transform.Do(e.in, e.out, e.plan.Width)
	if err != nil {
		e.state = engineFailed
		return false, err
	}
	err = e.dst.WriteRow(e.out)
	if err != nil {
		e.state = engineFailed
		return false, fmt.Errorf("writing row %d: %w", e.rows, err)
	}
	e.rows++
	return true, nil
}

// Finish completes both streams.  The markers of the source are copied to
// the destination, except for JFIF and Adobe markers which the
// destination writes itself.  G3FAX markers and embedded profiles are not
// copied either, since they describe the colours of the source pixels.
func (e *Engine) Finish() error {
	if e.state != engineStreaming || !e.done {
		return ErrEngineState
	}
	e.state = engineFailed

	if err := e.src.Finish(); err != nil {
		return fmt.Errorf("reading: %w", err)
	}
	l := e.plan.Layout
	for _, m := range jpeg.FilterMarkers(e.src.Markers(), l.WriteJFIF, l.WriteAdobe) {
		if m.IsITUFax() || m.IsICC() {
			continue
		}
		if err := e.dst.WriteMarker(m); err != nil {
			return fmt.Errorf("copying marker 0x%02X: %w", m.Code, err)
		}
	}
	if err := e.dst.Finish(); err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	e.state = engineFinished
	return nil
}

// Run performs all steps of the conversion.
func (e *Engine) Run() error {
	if err := e.Start(); err != nil {
		return err
	}
	for {
		more, err := e.Step()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return e.Finish()
}
