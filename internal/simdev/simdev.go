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

// Package simdev simulates an lm32 board behind a serial link: the boot ROM
// command interpreter with a sparse memory, and the logic analyzer core.
package simdev

import (
	"bytes"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
)

const Prompt = lm32.BootSignature + " > \r\n"

var _ lm32.LinkInterface = (*Device)(nil)

// Device implements lm32.LinkInterface. Reads never block: with nothing to
// send, Read behaves like a link that ran into its read timeout.
type Device struct {
	mu      sync.Mutex
	in      []byte
	out     bytes.Buffer
	mem     map[uint32]byte
	conf    lm32.LinkConfig
	timeout time.Duration
	closed  bool

	// Probes left unanswered before the device starts replying.
	SilentProbes int
	// Probes received so far.
	Probes int
	// Addresses of received jump commands.
	Jumps []uint32
	// Every command received, in order.
	Commands []lm32.BootCommand
	// Injected into the next Read or Write.
	Err error
	// Writes that still succeed before Err is injected.
	ErrAfterWrites int
	// Bits flipped in downloaded bytes, by address.
	Faults map[uint32]byte

	// Analyzer: capture returned after an arm command; len must be a power of two.
	Capture []byte
	// Overrides the size exponent reported after arming.
	Exponent *byte
	Armed    bool
}

func New() *Device {
	return &Device{
		mem:     make(map[uint32]byte),
		conf:    lm32.DefaultLinkConfig,
		timeout: lm32.DefaultTimeout,
	}
}

// Loads data into simulated memory.
func (d *Device) Poke(addr uint32, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, b := range data {
		d.mem[addr+uint32(i)] = b
	}
}

// Returns simulated memory, unwritten bytes read as 0.
func (d *Device) Peek(addr uint32, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peek(addr, n)
}

func (d *Device) peek(addr uint32, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = d.mem[addr+uint32(i)]
	}
	return buf
}

func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, errors.New("read on closed device")
	}
	if err := d.Err; err != nil && d.ErrAfterWrites == 0 {
		d.Err = nil
		return 0, err
	}
	n, _ := d.out.Read(p)
	return n, nil
}

func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, errors.New("write on closed device")
	}
	if err := d.Err; err != nil {
		if d.ErrAfterWrites == 0 {
			d.Err = nil
			return 0, err
		}
		d.ErrAfterWrites--
	}
	d.in = append(d.in, p...)
	return len(p), d.process()
}

// Consumes complete commands from the input buffer.
func (d *Device) process() error {
	for len(d.in) > 0 {
		switch {
		case d.in[0] == byte(lm32.OpProbe):
			d.in = d.in[1:]
			d.Probes++
			if d.Probes > d.SilentProbes {
				d.out.WriteString(Prompt)
			}
		case d.in[0] == 0x00:
			// Analyzer disarm, six zero bytes.
			if len(d.in) < 6 {
				return nil
			}
			d.in = d.in[6:]
			d.Armed = false
		case d.in[0] == 0x01:
			// Analyzer arm: 0x01 select trigger mask 0x00.
			if len(d.in) < 5 {
				return nil
			}
			d.in = d.in[5:]
			d.Armed = true
			d.trigger()
		default:
			cmd, n, err := lm32.ParseCommand(d.in)
			if err != nil {
				d.in = d.in[1:]
				return err
			}
			if n == 0 {
				return nil
			}
			d.in = d.in[n:]
			d.Commands = append(d.Commands, cmd)
			d.execute(cmd)
		}
	}
	return nil
}

func (d *Device) execute(cmd lm32.BootCommand) {
	switch c := cmd.(type) {
	case lm32.UploadCommand:
		for i, b := range c.Payload {
			d.mem[c.Address+uint32(i)] = b
		}
	case lm32.DownloadCommand:
		data := d.peek(c.Address, int(c.Length))
		for i := range data {
			data[i] ^= d.Faults[c.Address+uint32(i)]
		}
		d.out.Write(data)
	case lm32.JumpCommand:
		d.Jumps = append(d.Jumps, c.Address)
	}
}

func (d *Device) trigger() {
	if d.Capture == nil && d.Exponent == nil {
		return
	}
	var exp byte
	if d.Exponent != nil {
		exp = *d.Exponent
	} else {
		for 1<<exp < len(d.Capture) {
			exp++
		}
	}
	d.out.WriteByte(exp)
	d.out.Write(d.Capture)
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Device) Flush() error { return nil }

func (d *Device) ResetInput() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out.Reset()
	return nil
}

func (d *Device) Timeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeout
}

func (d *Device) SetTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeout = timeout
	return nil
}

func (d *Device) Name() string { return "simdev" }

func (d *Device) Config() lm32.LinkConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conf
}

func (d *Device) SetConfig(conf lm32.LinkConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conf = conf
	return nil
}

func (d *Device) SetDTR(bool) error   { return nil }
func (d *Device) SetRTS(bool) error   { return nil }
func (d *Device) SetBreak(bool) error { return nil }

func (d *Device) ModemStatus() (lm32.ModemStatus, error) {
	return lm32.ModemStatus{CTS: true, DSR: true}, nil
}
