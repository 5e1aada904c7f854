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
	"os"

	"golang.org/x/sys/windows"
)

type consoleState struct {
	mode uint32
}

func setCharacterMode(fd int) (*consoleState, error) {
	var st uint32
	h := windows.Handle(fd)
	if err := windows.GetConsoleMode(h, &st); err != nil {
		return nil, err
	}
	raw := st &^ (windows.ENABLE_ECHO_INPUT | windows.ENABLE_PROCESSED_INPUT | windows.ENABLE_LINE_INPUT)
	raw |= windows.ENABLE_VIRTUAL_TERMINAL_INPUT
	if err := windows.SetConsoleMode(h, raw); err != nil {
		return nil, err
	}
	return &consoleState{mode: st}, nil
}

func restoreMode(fd int, st *consoleState) error {
	return windows.SetConsoleMode(windows.Handle(fd), st.mode)
}

// Console handles cannot be polled, so a pending read is not interrupted by
// Release. The key pump drops whatever that read returns.
func openInput(f *os.File) (*os.File, func() error, error) {
	return f, nil, nil
}
