// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package miniterm

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
)

// Line ending sent for the Enter key and expected from the device.
type LineEnding int32

const (
	LineEndingLF LineEnding = iota
	LineEndingCR
	LineEndingCRLF
	numLineEndings
)

var lineEndingNames = [numLineEndings]string{"LF", "CR", "CR/LF"}

func (e LineEnding) String() string {
	if e < 0 || e >= numLineEndings {
		return fmt.Sprintf("LineEnding(%d)", int32(e))
	}
	return lineEndingNames[e]
}

func (e LineEnding) Sequence() []byte {
	switch e {
	case LineEndingCR:
		return []byte{'\r'}
	case LineEndingCRLF:
		return []byte{'\r', '\n'}
	}
	return []byte{'\n'}
}

func (e LineEnding) Next() LineEnding {
	return (e + 1) % numLineEndings
}

func ParseLineEnding(s string) (LineEnding, error) {
	for e := LineEndingLF; e < numLineEndings; e++ {
		if e.String() == s || (e == LineEndingCRLF && s == "CRLF") {
			return e, nil
		}
	}
	return LineEndingLF, errors.Wrapf(lm32.ErrMalformedInput, "unknown line ending %q", s)
}

// How received bytes are rendered on the console.
type DisplayMode int32

const (
	// Bytes as received, the configured line ending collapsed to a newline.
	DisplayRaw DisplayMode = iota
	// Non-printable bytes escaped, line endings still collapsed.
	DisplayEscapeSome
	// Every non-printable byte escaped, line endings included.
	DisplayEscapeAll
	// Two hex digits and a space per byte.
	DisplayHex
	numDisplayModes
)

var displayModeNames = [numDisplayModes]string{"raw", "some control", "all control", "hex"}

func (m DisplayMode) String() string {
	if m < 0 || m >= numDisplayModes {
		return fmt.Sprintf("DisplayMode(%d)", int32(m))
	}
	return displayModeNames[m]
}

func (m DisplayMode) Next() DisplayMode {
	return (m + 1) % numDisplayModes
}

func ParseDisplayMode(s string) (DisplayMode, error) {
	for m := DisplayRaw; m < numDisplayModes; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return DisplayRaw, errors.Wrapf(lm32.ErrMalformedInput, "unknown display mode %q", s)
}

// Terminal settings shared by the inbound and outbound tasks. The outbound
// task is the only writer apart from Alive, which either task may clear.
// Every field is an atomic so that the inbound task sees changes without
// locking.
type State struct {
	alive      atomic.Bool
	menuActive atomic.Bool
	echo       atomic.Bool
	dtr        atomic.Bool
	rts        atomic.Bool
	brk        atomic.Bool
	lineEnding atomic.Int32
	display    atomic.Int32
}

// DTR and RTS start asserted.
func NewState(echo bool, eol LineEnding, display DisplayMode) *State {
	s := &State{}
	s.echo.Store(echo)
	s.dtr.Store(true)
	s.rts.Store(true)
	s.lineEnding.Store(int32(eol))
	s.display.Store(int32(display))
	return s
}

func (s *State) Alive() bool          { return s.alive.Load() }
func (s *State) SetAlive(v bool)      { s.alive.Store(v) }
func (s *State) MenuActive() bool     { return s.menuActive.Load() }
func (s *State) SetMenuActive(v bool) { s.menuActive.Store(v) }
func (s *State) Echo() bool           { return s.echo.Load() }
func (s *State) SetEcho(v bool)       { s.echo.Store(v) }
func (s *State) DTR() bool            { return s.dtr.Load() }
func (s *State) SetDTR(v bool)        { s.dtr.Store(v) }
func (s *State) RTS() bool            { return s.rts.Load() }
func (s *State) SetRTS(v bool)        { s.rts.Store(v) }
func (s *State) Break() bool          { return s.brk.Load() }
func (s *State) SetBreak(v bool)      { s.brk.Store(v) }

func (s *State) LineEnding() LineEnding     { return LineEnding(s.lineEnding.Load()) }
func (s *State) SetLineEnding(e LineEnding) { s.lineEnding.Store(int32(e)) }
func (s *State) Display() DisplayMode       { return DisplayMode(s.display.Load()) }
func (s *State) SetDisplay(m DisplayMode)   { s.display.Store(int32(m)) }

func (s *State) ToggleEcho() bool {
	v := !s.Echo()
	s.SetEcho(v)
	return v
}

func (s *State) CycleDisplay() DisplayMode {
	m := s.Display().Next()
	s.SetDisplay(m)
	return m
}

func (s *State) CycleLineEnding() LineEnding {
	e := s.LineEnding().Next()
	s.SetLineEnding(e)
	return e
}
