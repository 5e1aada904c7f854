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
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Keyboard side of a terminal session.
//go:generate mockgen -destination=mocks/console.go -package=mocks github.com/soc-lm32/lm32/miniterm Console
type Console interface {
	// Blocks until a key is available.
	ReadKey() (byte, error)
	// Shows prompt and reads one line of input, without the terminator.
	ReadLine(prompt string) (string, error)
}

// Longest wait for the key pump to stop in Release.
const releaseTimeout = time.Second

// The process console in character-at-a-time mode. Keys are read by a
// background pump so that an interrupt can be turned into a Ctrl+C keystroke
// for the device instead of killing the client.
type TTY struct {
	fd      int
	in      *os.File
	closeIn func() error
	out     io.Writer
	keys    chan byte
	errs    chan error
	stop    chan struct{}
	stopped chan struct{}

	saved    *consoleState
	release  sync.Once
	relErr   error
	sigInt   chan os.Signal
	sigFatal chan os.Signal
}

// Switches stdin to character mode. The previous mode is restored by Release,
// or when the process receives SIGTERM or SIGHUP. If stdin is not a terminal
// the mode is left alone and keys are still read from it.
func OpenConsole() (*TTY, error) {
	return openConsole(os.Stdin, os.Stderr)
}

func openConsole(f *os.File, out io.Writer) (*TTY, error) {
	c := &TTY{
		fd:       int(f.Fd()),
		out:      out,
		keys:     make(chan byte, 64),
		errs:     make(chan error, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		sigInt:   make(chan os.Signal, 1),
		sigFatal: make(chan os.Signal, 1),
	}
	var err error
	if c.in, c.closeIn, err = openInput(f); err != nil {
		return nil, errors.Wrap(err, "opening console input")
	}
	if term.IsTerminal(c.fd) {
		st, err := setCharacterMode(c.fd)
		if err != nil {
			if c.closeIn != nil {
				c.closeIn()
			}
			return nil, errors.Wrap(err, "setting console mode")
		}
		c.saved = st
	} else {
		glog.V(1).Info("stdin is not a terminal, console mode unchanged")
	}

	signal.Notify(c.sigInt, os.Interrupt)
	signal.Notify(c.sigFatal, syscall.SIGTERM, syscall.SIGHUP)
	go c.pump()
	go c.signals()
	return c, nil
}

// Once stopped, nothing read from the console is kept.
func (c *TTY) pump() {
	defer close(c.stopped)
	buf := make([]byte, 1)
	for {
		n, err := c.in.Read(buf)
		select {
		case <-c.stop:
			return
		default:
		}
		if err != nil {
			select {
			case c.errs <- err:
			case <-c.stop:
			}
			return
		}
		if n == 1 {
			select {
			case c.keys <- buf[0]:
			case <-c.stop:
				return
			}
		}
	}
}

func (c *TTY) signals() {
	for {
		select {
		case _, ok := <-c.sigInt:
			if !ok {
				return
			}
			select {
			case c.keys <- keyCtrlC:
			case <-c.stop:
			}
		case sig, ok := <-c.sigFatal:
			if !ok {
				return
			}
			c.Release()
			glog.Warningf("terminated by %v", sig)
			glog.Flush()
			os.Exit(1)
		case <-c.stop:
			return
		}
	}
}

// Returns io.EOF once the console has been released.
func (c *TTY) ReadKey() (byte, error) {
	select {
	case <-c.stop:
		return 0, io.EOF
	default:
	}
	select {
	case k := <-c.keys:
		return k, nil
	case err := <-c.errs:
		// Keep reporting the error to later callers.
		c.errs <- err
		return 0, err
	case <-c.stop:
		return 0, io.EOF
	}
}

func (c *TTY) ReadLine(prompt string) (string, error) {
	t := term.NewTerminal(&promptIO{c}, prompt)
	return t.ReadLine()
}

// Stops the key pump and restores the console mode saved by OpenConsole.
// Input arriving afterwards is left for the next reader of stdin. Safe to
// call more than once.
func (c *TTY) Release() error {
	c.release.Do(func() {
		signal.Stop(c.sigInt)
		signal.Stop(c.sigFatal)
		close(c.stop)
		if c.closeIn != nil {
			if err := c.closeIn(); err != nil {
				glog.Warningf("closing console input: %v", err)
			}
			select {
			case <-c.stopped:
			case <-time.After(releaseTimeout):
				glog.Warning("console key pump did not stop")
			}
		}
		if c.saved != nil {
			c.relErr = restoreMode(c.fd, c.saved)
		}
	})
	return c.relErr
}

// Line editing on top of the key pump. The terminal in character mode
// delivers Enter as '\n', the line editor expects '\r'.
type promptIO struct {
	c *TTY
}

func (p *promptIO) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	k, err := p.c.ReadKey()
	if err != nil {
		return 0, err
	}
	if k == '\n' {
		k = '\r'
	}
	b[0] = k
	return 1, nil
}

func (p *promptIO) Write(b []byte) (int, error) {
	return p.c.out.Write(b)
}
