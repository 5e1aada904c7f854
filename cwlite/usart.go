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

package cwlite

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
)

type command uint16

const (
	cmdInit    command = 0x10
	cmdEnable  command = 0x11
	cmdDisable command = 0x12
	cmdNumWait command = 0x14
)

// Largest payload of a single ReqUsart0Data transfer.
const maxDataChunk = 58

// Struct layout matches what cmdInit expects, so don't change this.
type usartConfig struct {
	BaudRate uint32
	StopBits uint8
	Parity   uint8
	DataBits uint8
}

func toUsartConfig(conf lm32.LinkConfig) (usartConfig, error) {
	if conf.FlowControl != lm32.FlowControlNone {
		return usartConfig{}, errors.Wrap(lm32.ErrNotSupported, "USART bridge has no flow control")
	}
	return usartConfig{
		BaudRate: uint32(conf.BaudRate),
		StopBits: uint8(conf.StopBits),
		Parity:   uint8(conf.Parity),
		DataBits: uint8(conf.DataBits),
	}, nil
}

// The CW-Lite USART bridge as an lm32.LinkInterface. The bridge has no modem
// control lines.
type Usart struct {
	dev     UsbDeviceInterface
	conf    lm32.LinkConfig
	timeout time.Duration
}

var _ lm32.LinkInterface = (*Usart)(nil)

func (u *Usart) configRead(cmd command, data interface{}) error {
	glog.V(1).Infof("[usart-config-read]: cmd = %v", cmd)
	return u.dev.ControlIn(ReqUsart0Config, uint16(cmd), data)
}

func (u *Usart) configWrite(cmd command, data interface{}) error {
	glog.V(1).Infof("[usart-config-write]: cmd = %v", cmd)
	return u.dev.ControlOut(ReqUsart0Config, uint16(cmd), data)
}

// Returns the number of bytes waiting to be read.
func (u *Usart) inWaiting() (int, error) {
	var numBytes uint32
	if err := u.configRead(cmdNumWait, &numBytes); err != nil {
		return 0, fmt.Errorf("cmdNumWait failed: %v", err)
	}
	return int(numBytes), nil
}

func (u *Usart) dataRead(data []byte) error {
	glog.V(1).Infof("[usart-data-read]: len = %v", len(data))
	return u.dev.ControlIn(ReqUsart0Data, 0, data)
}

func (u *Usart) dataWrite(data []byte) error {
	glog.V(1).Infof("[usart-data-write]: data =\n%s", hex.Dump(data))
	return u.dev.ControlOut(ReqUsart0Data, 0, data)
}

// Configures and enables the bridge. A nil conf selects lm32.DefaultLinkConfig.
func NewUsart(dev UsbDeviceInterface, conf *lm32.LinkConfig) (*Usart, error) {
	u := &Usart{dev, lm32.DefaultLinkConfig, lm32.DefaultTimeout}
	if conf != nil {
		u.conf = *conf
	}
	glog.Infof("USART configuration: %v", u.conf)
	if err := u.init(u.conf); err != nil {
		return nil, err
	}
	glog.V(1).Infof("USART initialized successfully")
	return u, nil
}

func (u *Usart) init(conf lm32.LinkConfig) error {
	uc, err := toUsartConfig(conf)
	if err != nil {
		return err
	}
	if err = u.configWrite(cmdInit, uc); err != nil {
		return fmt.Errorf("cmdInit failed: %v", err)
	}
	if err = u.configWrite(cmdEnable, []byte{}); err != nil {
		return fmt.Errorf("cmdEnable failed: %v", err)
	}
	return nil
}

// Opens the first CW-Lite board and its USART bridge.
func OpenUsart(conf *lm32.LinkConfig) (*Usart, error) {
	dev, err := OpenUsbDevice()
	if err != nil {
		return nil, err
	}
	u, err := NewUsart(dev, conf)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return u, nil
}

// Polls the bridge until p is full or the timeout expires. With a zero
// timeout it waits for at least one byte.
func (u *Usart) Read(p []byte) (n int, err error) {
	var deadline time.Time
	if u.timeout > 0 {
		deadline = time.Now().Add(u.timeout)
	}
	for n < len(p) {
		var toRead int
		if toRead, err = u.inWaiting(); err != nil {
			return n, fmt.Errorf("inWaiting failed: %v", err)
		}
		if n+toRead > len(p) {
			toRead = len(p) - n
		}
		if toRead == 0 {
			if u.timeout == 0 && n > 0 {
				return n, nil
			}
			if u.timeout > 0 && time.Now().After(deadline) {
				return n, nil
			}
			time.Sleep(time.Millisecond)
			continue
		}
		if err = u.dataRead(p[n : n+toRead]); err != nil {
			return n, fmt.Errorf("dataRead failed: %v", err)
		}
		n += toRead
	}
	return n, nil
}

func (u *Usart) Write(p []byte) (n int, err error) {
	// Write in small chunks.
	for n < len(p) {
		toWrite := len(p) - n
		if toWrite > maxDataChunk {
			toWrite = maxDataChunk
		}
		if err = u.dataWrite(p[n : n+toWrite]); err != nil {
			return n, fmt.Errorf("dataWrite failed: %v", err)
		}
		n += toWrite
	}
	return n, nil
}

func (u *Usart) Close() error {
	if err := u.configWrite(cmdDisable, []byte{}); err != nil {
		glog.Warningf("cmdDisable failed: %v", err)
	}
	return u.dev.Close()
}

// Writes are synchronous control transfers; nothing is left to drain.
func (u *Usart) Flush() error {
	return nil
}

func (u *Usart) ResetInput() (err error) {
	var toRead int
	for {
		if toRead, err = u.inWaiting(); err != nil {
			return fmt.Errorf("inWaiting failed: %v", err)
		}
		if toRead == 0 {
			return nil
		}
		buf := make([]byte, toRead)
		if err = u.dataRead(buf); err != nil {
			return fmt.Errorf("dataRead failed: %v", err)
		}
	}
}

func (u *Usart) Timeout() time.Duration {
	return u.timeout
}

func (u *Usart) SetTimeout(timeout time.Duration) error {
	u.timeout = timeout
	return nil
}

func (u *Usart) Name() string {
	return "cwlite"
}

func (u *Usart) Config() lm32.LinkConfig {
	return u.conf
}

// Re-initializes the bridge with the new settings.
func (u *Usart) SetConfig(conf lm32.LinkConfig) error {
	if err := u.init(conf); err != nil {
		return err
	}
	u.conf = conf
	return nil
}

func (u *Usart) SetDTR(bool) error {
	return errors.Wrap(lm32.ErrNotSupported, "DTR")
}

func (u *Usart) SetRTS(bool) error {
	return errors.Wrap(lm32.ErrNotSupported, "RTS")
}

func (u *Usart) SetBreak(bool) error {
	return errors.Wrap(lm32.ErrNotSupported, "BREAK")
}

func (u *Usart) ModemStatus() (lm32.ModemStatus, error) {
	return lm32.ModemStatus{}, errors.Wrap(lm32.ErrNotSupported, "modem status")
}
