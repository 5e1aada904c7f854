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
	"strings"
)

const (
	// Ctrl+T
	MenuCharacter byte = 0x14
	// Ctrl+]
	ExitCharacter byte = 0x1d

	keyCtrlA byte = 0x01
	keyCtrlB byte = 0x02
	keyCtrlC byte = 0x03
	keyCtrlD byte = 0x04
	keyCtrlE byte = 0x05
	keyCtrlH byte = 0x08
	keyCtrlI byte = 0x09
	keyCtrlL byte = 0x0c
	keyCtrlR byte = 0x12
	keyCtrlU byte = 0x15
)

// Human readable name of a key, "Ctrl+X" for control characters.
func KeyDescription(c byte) string {
	if c < 0x20 {
		return fmt.Sprintf("Ctrl+%c", c+'@')
	}
	if c == 0x7f {
		return "Del"
	}
	return fmt.Sprintf("%q", rune(c))
}

func helpText() string {
	var b strings.Builder
	p := func(format string, a ...interface{}) {
		fmt.Fprintf(&b, "--- "+format+"\n", a...)
	}
	p("lm32 miniterm help")
	p("")
	p("%-8s Exit program", KeyDescription(ExitCharacter))
	p("%-8s Menu escape key, followed by:", KeyDescription(MenuCharacter))
	p("Menu keys:")
	p("    %-8s Send the menu character itself to remote", KeyDescription(MenuCharacter))
	p("    %-8s Send the exit character itself to remote", KeyDescription(ExitCharacter))
	p("    %-8s Show info", KeyDescription(keyCtrlI))
	p("    %-8s Upload file (prompt will be shown)", KeyDescription(keyCtrlU))
	p("Toggles:")
	p("    %-8s RTS          %-8s local echo", KeyDescription(keyCtrlR), KeyDescription(keyCtrlE))
	p("    %-8s DTR          %-8s BREAK", KeyDescription(keyCtrlD), KeyDescription(keyCtrlB))
	p("    %-8s line ending  %-8s cycle display mode", KeyDescription(keyCtrlL), KeyDescription(keyCtrlA))
	p("")
	p("Port settings (%s followed by the following):", KeyDescription(MenuCharacter))
	p("    7 8           set data bits")
	p("    n e o s m     change parity (None, Even, Odd, Space, Mark)")
	p("    1 2 3         set stop bits (1, 2, 1.5)")
	p("    b             change baud rate")
	p("    x X           disable/enable software flow control")
	p("    r R           disable/enable hardware flow control")
	return b.String()
}
