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

// Duplex byte link to the target.
package lm32

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
)

//go:generate mockgen -destination=mocks/link.go -package=mocks github.com/soc-lm32/lm32 LinkInterface
type LinkInterface interface {
	// A Read that hits the read timeout returns 0 bytes and a nil error.
	io.Reader
	io.Writer
	io.Closer
	// Blocks until all written data has been transmitted.
	Flush() error
	// Discards any pending input.
	ResetInput() error
	// Gets/Sets read timeout. Zero blocks until data arrives.
	Timeout() time.Duration
	SetTimeout(timeout time.Duration) error
	// Name of the underlying port.
	Name() string
	// Gets/Sets line settings. SetConfig is applied to the live link.
	Config() LinkConfig
	SetConfig(conf LinkConfig) error
	// Modem control lines.
	SetDTR(active bool) error
	SetRTS(active bool) error
	SetBreak(active bool) error
	ModemStatus() (ModemStatus, error)
}

type BaudRate uint32

const (
	BaudRate9600   BaudRate = 9600
	BaudRate57600  BaudRate = 57600
	BaudRate115200 BaudRate = 115200
)

type Parity uint8

const (
	ParityNone  Parity = 0
	ParityOdd   Parity = 1
	ParityEven  Parity = 2
	ParityMark  Parity = 3
	ParitySpace Parity = 4
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "N"
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	}
	return fmt.Sprintf("Parity(%d)", uint8(p))
}

type StopBits uint8

const (
	StopBitsOne        StopBits = 0
	StopBitsOneAndHalf StopBits = 1
	StopBitsTwo        StopBits = 2
)

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOneAndHalf:
		return "1.5"
	case StopBitsTwo:
		return "2"
	}
	return fmt.Sprintf("StopBits(%d)", uint8(s))
}

type DataBits uint8

const (
	DataBitsSeven DataBits = 7
	DataBitsEight DataBits = 8
)

type FlowControl uint8

const (
	FlowControlNone     FlowControl = 0
	FlowControlXonXoff  FlowControl = 1 << 0
	FlowControlHardware FlowControl = 1 << 1
)

type LinkConfig struct {
	BaudRate    BaudRate
	DataBits    DataBits
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
}

func (c LinkConfig) String() string {
	return fmt.Sprintf("%d,%d,%v,%v", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

var DefaultLinkConfig = LinkConfig{
	BaudRate115200,
	DataBitsEight,
	ParityNone,
	StopBitsOne,
	FlowControlNone,
}

var DefaultTimeout = time.Second

type ModemStatus struct {
	CTS bool
	DSR bool
	RI  bool
	CD  bool
}

// Reads exactly len(p) bytes from r. Running into the read timeout before p is
// full yields ErrShortRead.
func ReadFull(r io.Reader, p []byte) error {
	var got int
	for got < len(p) {
		n, err := r.Read(p[got:])
		got += n
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.Wrapf(ErrShortRead, "got %d of %d bytes", got, len(p))
		}
	}
	return nil
}

// Reads a line terminated by '\n', byte by byte so that nothing past the line
// is consumed. On read timeout the partial line is returned with a nil error.
func ReadLine(r io.Reader) (string, error) {
	var line []byte
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if err != nil {
			return string(line), err
		}
		if n == 0 {
			return string(line), nil
		}
		line = append(line, b[0])
		if b[0] == '\n' {
			return string(line), nil
		}
	}
}
