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

// Package miniterm is a small interactive terminal for a serial link, with a
// Ctrl+T menu for changing port settings while connected.
package miniterm

import (
	"fmt"
	"io"
	"io/ioutil"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
)

type Config struct {
	Echo       bool
	LineEnding LineEnding
	Display    DisplayMode
	// Received data and local echo.
	Out io.Writer
	// Menu output and prompts.
	Diag io.Writer
	// Optional copy of everything written to Out.
	Log io.Writer
}

type Session struct {
	link  lm32.LinkInterface
	con   Console
	state *State

	out  io.Writer
	diag io.Writer

	started    bool
	readerDone chan struct{}
	writerDone chan struct{}
	readerErr  error
	writerErr  error
}

func NewSession(link lm32.LinkInterface, con Console, conf Config) *Session {
	out := conf.Out
	if out == nil {
		out = ioutil.Discard
	}
	if conf.Log != nil {
		out = io.MultiWriter(out, conf.Log)
	}
	diag := conf.Diag
	if diag == nil {
		diag = ioutil.Discard
	}
	return &Session{
		link:       link,
		con:        con,
		state:      NewState(conf.Echo, conf.LineEnding, conf.Display),
		out:        &lockedWriter{w: out},
		diag:       &lockedWriter{w: diag},
		readerDone: make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (s *Session) State() *State {
	return s.state
}

func (s *Session) Banner() {
	fmt.Fprintf(s.diag, "--- Miniterm on %s: %s ---\n", s.link.Name(), s.link.Config())
	fmt.Fprintf(s.diag, "--- Quit: %s | Menu: %s | Help: %s followed by %s ---\n",
		KeyDescription(ExitCharacter), KeyDescription(MenuCharacter),
		KeyDescription(MenuCharacter), KeyDescription(keyCtrlH))
}

// Starts the inbound and outbound tasks.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.state.SetAlive(true)
	go s.reader()
	go s.writer()
}

// Asks both tasks to finish. The inbound task notices at its next read
// timeout, the outbound task at its next key.
func (s *Session) Stop() {
	s.state.SetAlive(false)
}

// Waits for the outbound task and, unless transmitOnly, the inbound task too.
// Returns the link or console error that ended the session, if any.
func (s *Session) Join(transmitOnly bool) error {
	if !s.started {
		return nil
	}
	<-s.writerDone
	if transmitOnly {
		return s.writerErr
	}
	<-s.readerDone
	if s.writerErr != nil {
		return s.writerErr
	}
	return s.readerErr
}

func (s *Session) reader() {
	defer close(s.readerDone)
	defer s.releaseOnPanic()
	buf := make([]byte, 1)
	for s.state.Alive() {
		n, err := s.link.Read(buf)
		if err != nil {
			s.readerErr = errors.Wrap(err, "receive")
			glog.Errorf("Receive failed: %v", err)
			s.state.SetAlive(false)
			return
		}
		if n == 0 {
			continue
		}
		if out := s.state.Display().Format(buf[0], s.state.LineEnding()); len(out) > 0 {
			s.out.Write(out)
		}
	}
}

func (s *Session) writer() {
	defer close(s.writerDone)
	defer s.releaseOnPanic()
	for s.state.Alive() {
		c, err := s.con.ReadKey()
		if err != nil {
			if err != io.EOF {
				s.writerErr = errors.Wrap(err, "console")
			}
			s.state.SetAlive(false)
			return
		}
		if err := s.handleKey(c); err != nil {
			s.writerErr = err
			glog.Errorf("Transmit failed: %v", err)
			s.state.SetAlive(false)
			return
		}
	}
}

var repanic = func(v interface{}) { panic(v) }

// A crashing task must not leave the console in character mode.
func (s *Session) releaseOnPanic() {
	v := recover()
	if v == nil {
		return
	}
	s.state.SetAlive(false)
	if r, ok := s.con.(interface{ Release() error }); ok {
		if err := r.Release(); err != nil {
			glog.Errorf("Restoring console failed: %v", err)
		}
	}
	glog.Flush()
	repanic(v)
}

// Only link failures are returned, anything else is reported on Diag.
func (s *Session) handleKey(c byte) error {
	switch {
	case s.state.MenuActive():
		s.state.SetMenuActive(false)
		return s.handleMenuKey(c)
	case c == MenuCharacter:
		s.state.SetMenuActive(true)
	case c == ExitCharacter:
		s.Stop()
	case c == '\n':
		if err := s.transmit(s.state.LineEnding().Sequence()); err != nil {
			return err
		}
		s.echo([]byte{'\n'})
	default:
		if err := s.transmit([]byte{c}); err != nil {
			return err
		}
		s.echo([]byte{c})
	}
	return nil
}

func (s *Session) transmit(b []byte) error {
	_, err := s.link.Write(b)
	return err
}

func (s *Session) echo(b []byte) {
	if s.state.Echo() {
		s.out.Write(b)
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
