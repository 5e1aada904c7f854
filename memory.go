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

// Typed access to target memory through the bootloader.
package lm32

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

type Memory struct {
	boot *Bootloader
}

// Reads binary.Size(data) bytes at addr and decodes them big-endian into data.
func (m *Memory) Read(addr uint32, data interface{}) error {
	var err error
	size := binary.Size(data)
	if size == -1 {
		return fmt.Errorf("Failed to get data size")
	}
	glog.V(1).Infof("[mem-read]: addr = 0x%08x, dlen = %v", addr, size)
	var buf []byte
	if buf, err = m.boot.Download(addr, uint32(size)); err != nil {
		return err
	}
	if err = binary.Read(bytes.NewReader(buf), binary.BigEndian, data); err != nil {
		return fmt.Errorf("binary.Read failed: %v", err)
	}
	return nil
}

// Encodes data big-endian and writes it at addr. With validate set, the
// memory is read back and compared; bits cleared in mask are ignored.
func (m *Memory) Write(addr uint32, data interface{}, validate bool, mask []byte) error {
	var err error
	buf := new(bytes.Buffer)
	if err = binary.Write(buf, binary.BigEndian, data); err != nil {
		return fmt.Errorf("binary.Write failed: %v", err)
	}
	expected := buf.Bytes()
	if mask != nil && len(mask) != len(expected) {
		return fmt.Errorf("Mask length (%v) doesn't match data length (%v)", len(mask), len(expected))
	}
	glog.V(1).Infof("[mem-write]: addr = 0x%08x, dlen = %v", addr, len(expected))
	if err = m.boot.Upload(addr, expected); err != nil {
		return err
	}
	if !validate {
		return nil
	}

	var actual []byte
	if actual, err = m.boot.Download(addr, uint32(len(expected))); err != nil {
		return errors.Wrap(err, "Read for verify failed")
	}
	for i := range expected {
		e, a := expected[i], actual[i]
		if mask != nil {
			e &= mask[i]
			a &= mask[i]
		}
		if e != a {
			return fmt.Errorf("Write verification failed at 0x%08x: 0x%02x != 0x%02x",
				addr+uint32(i), a, e)
		}
	}
	return nil
}

func NewMemory(boot *Bootloader) *Memory {
	return &Memory{boot}
}
