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

package cwlite_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/cwlite"
	"github.com/soc-lm32/lm32/cwlite/mocks"
)

func newTestUsart(t *testing.T, dev *mocks.MockUsbDeviceInterface) *cwlite.Usart {
	t.Helper()
	gomock.InOrder(
		// cmdInit
		dev.EXPECT().ControlOut(cwlite.ReqUsart0Config, uint16(0x10), gomock.Any()).Return(nil),
		// cmdEnable
		dev.EXPECT().ControlOut(cwlite.ReqUsart0Config, uint16(0x11), []byte{}).Return(nil),
	)
	u, err := cwlite.NewUsart(dev, nil)
	if err != nil {
		t.Fatalf("NewUsart failed: %v", err)
	}
	return u
}

func TestUsartInit(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	u := newTestUsart(t, dev)
	if u.Config() != lm32.DefaultLinkConfig {
		t.Errorf("Config = %v, want defaults", u.Config())
	}
}

func TestUsartWriteChunks(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := bytes.Repeat([]byte{0x5a}, 100)
	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	u := newTestUsart(t, dev)
	gomock.InOrder(
		dev.EXPECT().ControlOut(cwlite.ReqUsart0Data, uint16(0), data[:58]).Return(nil),
		dev.EXPECT().ControlOut(cwlite.ReqUsart0Data, uint16(0), data[58:]).Return(nil),
	)
	if n, err := u.Write(data); err != nil || n != len(data) {
		t.Errorf("Write = %d, %v", n, err)
	}
}

func TestUsartRead(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	u := newTestUsart(t, dev)
	gomock.InOrder(
		// cmdNumWait
		dev.EXPECT().ControlIn(cwlite.ReqUsart0Config, uint16(0x14), gomock.Any()).
			SetArg(2, uint32(2)).
			Return(nil),
		dev.EXPECT().ControlIn(cwlite.ReqUsart0Data, uint16(0), gomock.Any()).
			SetArg(2, []byte{'o', 'k'}).
			Return(nil),
	)
	buf := make([]byte, 2)
	if n, err := u.Read(buf); err != nil || n != 2 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if string(buf) != "ok" {
		t.Errorf("Read %q", buf)
	}
}

func TestUsartReadTimeout(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	u := newTestUsart(t, dev)
	dev.EXPECT().ControlIn(cwlite.ReqUsart0Config, uint16(0x14), gomock.Any()).
		SetArg(2, uint32(0)).
		Return(nil).
		AnyTimes()
	u.SetTimeout(5 * time.Millisecond)
	if n, err := u.Read(make([]byte, 4)); err != nil || n != 0 {
		t.Errorf("Read = %d, %v, want a timeout", n, err)
	}
}

func TestUsartUnsupported(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	u := newTestUsart(t, dev)
	conf := lm32.DefaultLinkConfig
	conf.FlowControl = lm32.FlowControlHardware
	if err := u.SetConfig(conf); !errors.Is(err, lm32.ErrNotSupported) {
		t.Errorf("SetConfig with flow control = %v, want ErrNotSupported", err)
	}
	if u.Config() != lm32.DefaultLinkConfig {
		t.Errorf("Config changed after a rejected SetConfig")
	}
	if err := u.SetDTR(false); !errors.Is(err, lm32.ErrNotSupported) {
		t.Errorf("SetDTR = %v, want ErrNotSupported", err)
	}
	if _, err := u.ModemStatus(); !errors.Is(err, lm32.ErrNotSupported) {
		t.Errorf("ModemStatus = %v, want ErrNotSupported", err)
	}
}

func TestUsartSetConfig(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	u := newTestUsart(t, dev)
	gomock.InOrder(
		dev.EXPECT().ControlOut(cwlite.ReqUsart0Config, uint16(0x10), gomock.Any()).Return(nil),
		dev.EXPECT().ControlOut(cwlite.ReqUsart0Config, uint16(0x11), []byte{}).Return(nil),
	)
	conf := lm32.DefaultLinkConfig
	conf.BaudRate = 57600
	if err := u.SetConfig(conf); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if u.Config().BaudRate != 57600 {
		t.Errorf("BaudRate = %d", u.Config().BaudRate)
	}
}
