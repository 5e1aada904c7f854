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

// Package fakelink is an in-memory lm32.LinkInterface for terminal tests.
// Inbound data is fed by the test, outbound data and control line changes are
// recorded.
package fakelink

import (
	"bytes"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
)

var _ lm32.LinkInterface = (*Link)(nil)

type Link struct {
	mu      sync.Mutex
	rx      chan []byte
	pending []byte
	tx      bytes.Buffer
	conf    lm32.LinkConfig
	timeout time.Duration
	closed  bool

	DTR, RTS, Break bool
	Flushes         int
	Status          lm32.ModemStatus
	// Returned by SetDTR, SetRTS and SetBreak when set.
	ControlErr error
	// Returned by Write when set.
	WriteErr error
}

func New() *Link {
	return &Link{
		rx:      make(chan []byte, 64),
		conf:    lm32.DefaultLinkConfig,
		timeout: 10 * time.Millisecond,
		DTR:     true,
		RTS:     true,
	}
}

// Queues data to be returned by Read.
func (l *Link) Feed(data []byte) {
	l.rx <- append([]byte(nil), data...)
}

// Everything written so far.
func (l *Link) Sent() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.tx.Bytes()...)
}

// Read waits up to the timeout for fed data.
func (l *Link) Read(p []byte) (int, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, errors.New("read on closed link")
	}
	if len(l.pending) == 0 {
		timeout := l.timeout
		l.mu.Unlock()
		select {
		case data := <-l.rx:
			l.mu.Lock()
			l.pending = data
		case <-time.After(timeout):
			return 0, nil
		}
	}
	defer l.mu.Unlock()
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func (l *Link) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.WriteErr != nil {
		return 0, l.WriteErr
	}
	return l.tx.Write(p)
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *Link) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Flushes++
	return nil
}

func (l *Link) ResetInput() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
	return nil
}

func (l *Link) Timeout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeout
}

func (l *Link) SetTimeout(timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeout = timeout
	return nil
}

func (l *Link) Name() string { return "fakelink" }

func (l *Link) Config() lm32.LinkConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conf
}

// Flow control is rejected like the serial link does.
func (l *Link) SetConfig(conf lm32.LinkConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if conf.FlowControl != lm32.FlowControlNone {
		return errors.Wrap(lm32.ErrNotSupported, "flow control")
	}
	l.conf = conf
	return nil
}

func (l *Link) SetDTR(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ControlErr != nil {
		return l.ControlErr
	}
	l.DTR = active
	return nil
}

func (l *Link) SetRTS(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ControlErr != nil {
		return l.ControlErr
	}
	l.RTS = active
	return nil
}

func (l *Link) SetBreak(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ControlErr != nil {
		return l.ControlErr
	}
	l.Break = active
	return nil
}

func (l *Link) ModemStatus() (lm32.ModemStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Status, nil
}
