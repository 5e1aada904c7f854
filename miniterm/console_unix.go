//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

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

	"golang.org/x/sys/unix"
)

type consoleState struct {
	termios unix.Termios
}

// Non-canonical input without echo or signal generation, one byte per read.
// Output processing stays on so that '\n' still returns the carriage.
func setCharacterMode(fd int) (*consoleState, error) {
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	st := &consoleState{termios: *t}
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, t); err != nil {
		return nil, err
	}
	return st, nil
}

func restoreMode(fd int, st *consoleState) error {
	return unix.IoctlSetTermios(fd, ioctlSetTermiosFlush, &st.termios)
}

// Reads keys through a non-blocking duplicate of f. The runtime poller then
// owns pending reads, and closing the duplicate wakes the key pump up instead
// of leaving a read on f that would eat the next program's input.
func openInput(f *os.File) (*os.File, func() error, error) {
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, nil, err
	}
	// O_NONBLOCK is shared with f, put it back the way it was on close.
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err == nil {
		err = unix.SetNonblock(fd, true)
	}
	wasNonblock := flags&unix.O_NONBLOCK != 0
	if err != nil {
		unix.Close(fd)
		return nil, nil, err
	}
	in := os.NewFile(uintptr(fd), f.Name())
	closeIn := func() error {
		err := in.Close()
		if !wasNonblock {
			if e := unix.SetNonblock(int(f.Fd()), false); err == nil {
				err = e
			}
		}
		return err
	}
	return in, closeIn, nil
}
