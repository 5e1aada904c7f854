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
)

type formatter func(b byte, eol LineEnding) []byte

var formatters = [numDisplayModes]formatter{
	DisplayRaw:        formatRaw,
	DisplayEscapeSome: formatEscapeSome,
	DisplayEscapeAll:  formatEscapeAll,
	DisplayHex:        formatHex,
}

// Renders one received byte for the console. May return nothing, e.g. for
// the CR of a CR/LF pair.
func (m DisplayMode) Format(b byte, eol LineEnding) []byte {
	if m < 0 || m >= numDisplayModes {
		m = DisplayRaw
	}
	return formatters[m](b, eol)
}

func formatRaw(b byte, eol LineEnding) []byte {
	if b == '\r' && eol == LineEndingCR {
		return []byte{'\n'}
	}
	return []byte{b}
}

func formatEscapeSome(b byte, eol LineEnding) []byte {
	switch {
	case eol == LineEndingCRLF && b == '\r':
		return nil
	case eol == LineEndingCRLF && b == '\n':
		return []byte{'\n'}
	case eol == LineEndingLF && b == '\n':
		return []byte{'\n'}
	case eol == LineEndingCR && b == '\r':
		return []byte{'\n'}
	}
	return escape(b)
}

func formatEscapeAll(b byte, _ LineEnding) []byte {
	return escape(b)
}

func formatHex(b byte, _ LineEnding) []byte {
	return []byte(fmt.Sprintf("%02x ", b))
}

// Backslash escape for anything that is not printable ASCII.
func escape(b byte) []byte {
	switch b {
	case '\\':
		return []byte(`\\`)
	case '\'':
		return []byte(`\'`)
	case '\t':
		return []byte(`\t`)
	case '\n':
		return []byte(`\n`)
	case '\r':
		return []byte(`\r`)
	}
	if b >= 0x20 && b < 0x7f {
		return []byte{b}
	}
	return []byte(fmt.Sprintf(`\x%02x`, b))
}
