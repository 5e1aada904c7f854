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

// Serial port link.
package lm32

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Length of the break pulse sent when BREAK is asserted. The serial driver
// only supports timed breaks.
var BreakDuration = 250 * time.Millisecond

// Implements LinkInterface on a local serial port.
type SerialLink struct {
	name    string
	port    serial.Port
	mu      sync.Mutex
	conf    LinkConfig
	timeout time.Duration
}

func serialMode(conf LinkConfig) (*serial.Mode, error) {
	if conf.FlowControl != FlowControlNone {
		return nil, errors.Wrap(ErrNotSupported, "flow control")
	}
	mode := &serial.Mode{
		BaudRate: int(conf.BaudRate),
		DataBits: int(conf.DataBits),
	}
	switch conf.Parity {
	case ParityNone:
		mode.Parity = serial.NoParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		return nil, errors.Wrapf(ErrNotSupported, "parity %v", conf.Parity)
	}
	switch conf.StopBits {
	case StopBitsOne:
		mode.StopBits = serial.OneStopBit
	case StopBitsOneAndHalf:
		mode.StopBits = serial.OnePointFiveStopBits
	case StopBitsTwo:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, errors.Wrapf(ErrNotSupported, "stop bits %v", conf.StopBits)
	}
	return mode, nil
}

func OpenSerialLink(name string, conf *LinkConfig) (*SerialLink, error) {
	var err error
	l := &SerialLink{name: name, conf: DefaultLinkConfig}
	if conf != nil {
		l.conf = *conf
	}
	glog.Infof("Serial configuration: %v %v", name, l.conf)
	var mode *serial.Mode
	if mode, err = serialMode(l.conf); err != nil {
		return nil, err
	}
	// Both lines start asserted.
	mode.InitialStatusBits = &serial.ModemOutputBits{RTS: true, DTR: true}
	if l.port, err = serial.Open(name, mode); err != nil {
		return nil, fmt.Errorf("Opening %v failed: %v", name, err)
	}
	if err = l.SetTimeout(DefaultTimeout); err != nil {
		l.port.Close()
		return nil, err
	}
	return l, nil
}

func (l *SerialLink) Read(p []byte) (int, error) {
	n, err := l.port.Read(p)
	if n > 0 && glog.V(2) {
		glog.Infof("[serial-read]: data =\n%s", hex.Dump(p[:n]))
	}
	return n, err
}

func (l *SerialLink) Write(p []byte) (int, error) {
	if glog.V(2) {
		glog.Infof("[serial-write]: data =\n%s", hex.Dump(p))
	}
	return l.port.Write(p)
}

func (l *SerialLink) Close() error {
	glog.V(1).Infof("Closing %v", l.name)
	return l.port.Close()
}

func (l *SerialLink) Flush() error {
	return l.port.Drain()
}

func (l *SerialLink) ResetInput() error {
	return l.port.ResetInputBuffer()
}

func (l *SerialLink) Timeout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeout
}

func (l *SerialLink) SetTimeout(timeout time.Duration) error {
	t := timeout
	if t == 0 {
		t = serial.NoTimeout
	}
	if err := l.port.SetReadTimeout(t); err != nil {
		return fmt.Errorf("SetReadTimeout failed: %v", err)
	}
	l.mu.Lock()
	l.timeout = timeout
	l.mu.Unlock()
	return nil
}

func (l *SerialLink) Name() string {
	return l.name
}

func (l *SerialLink) Config() LinkConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conf
}

func (l *SerialLink) SetConfig(conf LinkConfig) error {
	mode, err := serialMode(conf)
	if err != nil {
		return err
	}
	if err = l.port.SetMode(mode); err != nil {
		return err
	}
	l.mu.Lock()
	l.conf = conf
	l.mu.Unlock()
	glog.V(1).Infof("Serial configuration changed: %v", conf)
	return nil
}

func (l *SerialLink) SetDTR(active bool) error {
	return l.port.SetDTR(active)
}

func (l *SerialLink) SetRTS(active bool) error {
	return l.port.SetRTS(active)
}

// Asserting sends a BreakDuration pulse; releasing is a no-op because the
// pulse has already ended.
func (l *SerialLink) SetBreak(active bool) error {
	if !active {
		return nil
	}
	return l.port.Break(BreakDuration)
}

func (l *SerialLink) ModemStatus() (ModemStatus, error) {
	bits, err := l.port.GetModemStatusBits()
	if err != nil {
		return ModemStatus{}, err
	}
	return ModemStatus{bits.CTS, bits.DSR, bits.RI, bits.DCD}, nil
}

type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Lists the serial ports present on this host.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("GetDetailedPortsList failed: %v", err)
	}
	var ports []PortInfo
	for _, d := range details {
		ports = append(ports, PortInfo{d.Name, d.IsUSB, d.VID, d.PID, d.SerialNumber, d.Product})
	}
	return ports, nil
}
