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

// Package cwlite drives the USART bridge of a ChipWhisperer-Lite board, which
// can carry the lm32 serial console when the SoC sits on a CW target board.
// Based on chipwhisperer/software/chipwhisperer/hardware/naeusb/naeusb.py.
package cwlite

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/pkg/errors"
)

const (
	vid = 0x2b3e
	pid = 0xace2

	fwMajor = 0
	fwMinor = 11
)

type Request uint8

const (
	ReqFwVersion    Request = 0x17
	ReqUsart0Data   Request = 0x1a
	ReqUsart0Config Request = 0x1b
)

func (r Request) String() string {
	switch r {
	case ReqFwVersion:
		return "ReqFwVersion"
	case ReqUsart0Data:
		return "ReqUsart0Data"
	case ReqUsart0Config:
		return "ReqUsart0Config"
	}
	return fmt.Sprintf("Request(0x%02x)", uint8(r))
}

const (
	rTypeControlIn  uint8 = gousb.ControlIn | gousb.ControlVendor | gousb.ControlInterface
	rTypeControlOut uint8 = gousb.ControlOut | gousb.ControlVendor | gousb.ControlInterface
)

//go:generate mockgen -destination=mocks/usb_device.go -package=mocks github.com/soc-lm32/lm32/cwlite UsbDeviceInterface
type UsbDeviceInterface interface {
	io.Closer
	// Sends a request over the control endpoint. Payloads are little-endian.
	ControlIn(request Request, val uint16, data interface{}) error
	ControlOut(request Request, val uint16, data interface{}) error
}

// Encapsulates CW USB resources.
type UsbDevice struct {
	ctx *gousb.Context
	// dev also implements the control endpoint.
	dev *gousb.Device
	// Claimed for the lifetime of the device.
	intf     *gousb.Interface
	intfDone func()
}

func OpenUsbDevice() (*UsbDevice, error) {
	d := &UsbDevice{}
	d.ctx = gousb.NewContext()

	var err error
	d.dev, err = d.ctx.OpenDeviceWithVIDPID(vid, pid)
	if d.dev == nil && err == nil {
		d.Close()
		return nil, errors.New("CWLite device not found")
	}
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "Opening CWLite device")
	}

	// The default interface is always #0 alt #0 in the currently active
	// config.
	d.intf, d.intfDone, err = d.dev.DefaultInterface()
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "Claiming default interface")
	}

	ver := FwVersion{}
	if err = d.ControlIn(ReqFwVersion, 0, &ver); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "Failed reading FW version")
	}
	if ver.Major != fwMajor || ver.Minor != fwMinor {
		d.Close()
		return nil, fmt.Errorf("Unexpected FW version: %v", ver)
	}
	return d, nil
}

func (d *UsbDevice) Close() error {
	glog.V(1).Infof("Closing USB device")
	if d.intfDone != nil {
		d.intfDone()
		d.intfDone = nil
		d.intf = nil
	}
	if d.dev != nil {
		d.dev.Close()
		d.dev = nil
	}
	if d.ctx != nil {
		d.ctx.Close()
		d.ctx = nil
	}
	return nil
}

func (d *UsbDevice) ControlIn(request Request, val uint16, data interface{}) error {
	size := binary.Size(data)
	if size == -1 {
		return fmt.Errorf("Failed to get data size")
	}
	buf := make([]byte, size)
	n, err := d.dev.Control(rTypeControlIn, uint8(request), val, 0, buf)
	if err != nil {
		return fmt.Errorf("dev.Control failed %v", err)
	}
	if n != len(buf) {
		return fmt.Errorf("Failed to read entire buffer %v vs %v", n, len(buf))
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, data); err != nil {
		return fmt.Errorf("binary.Read failed: %v", err)
	}
	glog.V(2).Infof("[usb-ctrl IN]: request = %v, val = %x, data =\n%s",
		request, val, hex.Dump(buf))
	return nil
}

func (d *UsbDevice) ControlOut(request Request, val uint16, data interface{}) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("binary.Write failed: %v", err)
	}
	n, err := d.dev.Control(rTypeControlOut, uint8(request), val, 0, buf.Bytes())
	if err != nil {
		return fmt.Errorf("dev.Control failed %v", err)
	}
	if n != buf.Len() {
		return fmt.Errorf("Failed to write entire buffer %v vs %v", n, buf.Len())
	}
	glog.V(2).Infof("[usb-ctrl OUT]: request = %v, val = %x, data =\n%s",
		request, val, hex.Dump(buf.Bytes()))
	return nil
}

type FwVersion struct {
	Major uint8
	Minor uint8
	Debug uint8
}
