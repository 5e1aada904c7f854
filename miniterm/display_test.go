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
	"testing"
)

func render(m DisplayMode, eol LineEnding, in string) string {
	var out []byte
	for i := 0; i < len(in); i++ {
		out = append(out, m.Format(in[i], eol)...)
	}
	return string(out)
}

func TestDisplayFormat(t *testing.T) {
	tests := []struct {
		mode DisplayMode
		eol  LineEnding
		in   string
		want string
	}{
		{DisplayRaw, LineEndingLF, "ok\r\n", "ok\r\n"},
		{DisplayRaw, LineEndingCR, "ok\r", "ok\n"},
		{DisplayEscapeSome, LineEndingCRLF, "ok\r\n", "ok\n"},
		{DisplayEscapeSome, LineEndingLF, "ok\r\n", "ok\\r\n"},
		{DisplayEscapeSome, LineEndingCR, "a\rb\n", "a\nb\\n"},
		{DisplayEscapeSome, LineEndingLF, "\x1b[0m\t", "\\x1b[0m\\t"},
		{DisplayEscapeAll, LineEndingCRLF, "ok\r\n", "ok\\r\\n"},
		{DisplayEscapeAll, LineEndingLF, "'\\\x7f", "\\'\\\\\\x7f"},
		{DisplayHex, LineEndingLF, "A\n\xff", "41 0a ff "},
	}
	for _, tc := range tests {
		if got := render(tc.mode, tc.eol, tc.in); got != tc.want {
			t.Errorf("%v/%v: Format(%q) = %q, want %q", tc.mode, tc.eol, tc.in, got, tc.want)
		}
	}
}

func TestLineEndingSequence(t *testing.T) {
	for e, want := range map[LineEnding]string{
		LineEndingLF:   "\n",
		LineEndingCR:   "\r",
		LineEndingCRLF: "\r\n",
	} {
		if got := string(e.Sequence()); got != want {
			t.Errorf("%v.Sequence() = %q, want %q", e, got, want)
		}
	}
}

func TestParseNames(t *testing.T) {
	for m := DisplayRaw; m < numDisplayModes; m++ {
		if got, err := ParseDisplayMode(m.String()); err != nil || got != m {
			t.Errorf("ParseDisplayMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	for e := LineEndingLF; e < numLineEndings; e++ {
		if got, err := ParseLineEnding(e.String()); err != nil || got != e {
			t.Errorf("ParseLineEnding(%q) = %v, %v", e.String(), got, err)
		}
	}
	if _, err := ParseLineEnding("NUL"); err == nil {
		t.Errorf("ParseLineEnding accepted an unknown name")
	}
}

func TestStateCyclesWrapAround(t *testing.T) {
	s := NewState(false, LineEndingCRLF, DisplayEscapeSome)
	for i := 0; i < int(numDisplayModes); i++ {
		s.CycleDisplay()
	}
	if got := s.Display(); got != DisplayEscapeSome {
		t.Errorf("Display after full cycle = %v", got)
	}
	for i := 0; i < int(numLineEndings); i++ {
		s.CycleLineEnding()
	}
	if got := s.LineEnding(); got != LineEndingCRLF {
		t.Errorf("LineEnding after full cycle = %v", got)
	}
	if !s.DTR() || !s.RTS() || s.Break() {
		t.Errorf("Unexpected initial control lines: DTR %v RTS %v BREAK %v", s.DTR(), s.RTS(), s.Break())
	}
}

func TestKeyDescription(t *testing.T) {
	for c, want := range map[byte]string{
		MenuCharacter: "Ctrl+T",
		ExitCharacter: "Ctrl+]",
		keyCtrlA:      "Ctrl+A",
		'x':           "'x'",
	} {
		if got := KeyDescription(c); got != want {
			t.Errorf("KeyDescription(0x%02x) = %q, want %q", c, got, want)
		}
	}
}
