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

package lm32_test

import (
	"bytes"
	"testing"

	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/mocks"

	"github.com/golang/mock/gomock"
)

func TestMemoryRead(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := []byte{0xaa, 0xbb, 0xcc}
	const addr = 0x11223344
	link := mocks.NewMockLinkInterface(mockCtrl)
	gomock.InOrder(
		// Download command
		link.EXPECT().Write([]byte{'d',
			0x11, 0x22, 0x33, 0x44, // addr
			0, 0, 0, 3, // len
		}).Return(9, nil),
		// Read data
		link.EXPECT().Read(gomock.Any()).
			SetArg(0, data).
			Return(len(data), nil),
	)
	m := lm32.NewMemory(lm32.NewBootloader(link, nil))
	out := make([]byte, 3)
	err := m.Read(addr, out)
	if err != nil {
		t.Errorf("Memory Read failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Unexpected data returned (%v)", out)
	}
}

func TestMemoryReadWord(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	link := mocks.NewMockLinkInterface(mockCtrl)
	gomock.InOrder(
		link.EXPECT().Write(gomock.Any()).Return(9, nil),
		link.EXPECT().Read(gomock.Any()).
			SetArg(0, []byte{0xde, 0xad, 0xbe, 0xef}).
			Return(4, nil),
	)
	m := lm32.NewMemory(lm32.NewBootloader(link, nil))
	var word uint32
	if err := m.Read(0x40000000, &word); err != nil {
		t.Fatalf("Memory Read failed: %v", err)
	}
	if word != 0xdeadbeef {
		t.Errorf("Read 0x%08x, want 0xdeadbeef", word)
	}
}

func TestMemoryWrite(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := []byte{0xaa, 0xbb, 0xcc}
	const addr = 0x11223344
	link := mocks.NewMockLinkInterface(mockCtrl)
	gomock.InOrder(
		// Upload command + data
		link.EXPECT().Write([]byte{'u',
			0x11, 0x22, 0x33, 0x44, // addr
			0, 0, 0, 3, // len
			0xaa, 0xbb, 0xcc, // data
		}).Return(12, nil),
	)
	m := lm32.NewMemory(lm32.NewBootloader(link, nil))
	err := m.Write(addr, data, false, nil)
	if err != nil {
		t.Errorf("Memory Write failed: %v", err)
	}
}

func expectVerifiedWrite(link *mocks.MockLinkInterface, dataRead []byte) {
	gomock.InOrder(
		// Upload command + data
		link.EXPECT().Write([]byte{'u',
			0x11, 0x22, 0x33, 0x44, // addr
			0, 0, 0, 3, // len
			0xaa, 0xbb, 0xcc, // data
		}).Return(12, nil),
		// Download command
		link.EXPECT().Write([]byte{'d',
			0x11, 0x22, 0x33, 0x44, // addr
			0, 0, 0, 3, // len
		}).Return(9, nil),
		// Read data
		link.EXPECT().Read(gomock.Any()).
			SetArg(0, dataRead).
			Return(len(dataRead), nil),
	)
}

func TestMemoryWriteDataVerificationPasses(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := []byte{0xaa, 0xbb, 0xcc}
	dataRead := []byte{0xaa, 0xbb, 0xcc} // dataRead equals dataWrite.
	link := mocks.NewMockLinkInterface(mockCtrl)
	expectVerifiedWrite(link, dataRead)
	m := lm32.NewMemory(lm32.NewBootloader(link, nil))
	err := m.Write(0x11223344, data, true, nil)
	if err != nil {
		t.Errorf("Memory Write failed: %v", err)
	}
}

func TestMemoryWriteDataVerificationFails(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := []byte{0xaa, 0xbb, 0xcc}
	dataRead := []byte{0xaa, 0xdd, 0xcc} // 2nd byte is different.
	link := mocks.NewMockLinkInterface(mockCtrl)
	expectVerifiedWrite(link, dataRead)
	m := lm32.NewMemory(lm32.NewBootloader(link, nil))
	err := m.Write(0x11223344, data, true, nil)
	if err == nil {
		t.Errorf("Memory Write expected to fail")
	}
}

func TestMemoryWriteReadMaskPasses(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := []byte{0xaa, 0xbb, 0xcc}
	dataRead := []byte{0xaa, 0xdd, 0xcc} // 2nd byte is different.
	mask := []byte{0xff, 0x00, 0xff}     // mask out 2nd byte.
	link := mocks.NewMockLinkInterface(mockCtrl)
	expectVerifiedWrite(link, dataRead)
	m := lm32.NewMemory(lm32.NewBootloader(link, nil))
	err := m.Write(0x11223344, data, true, mask)
	if err != nil {
		t.Errorf("Memory Write failed: %v", err)
	}
}
