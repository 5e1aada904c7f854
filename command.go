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

// Bootloader wire commands.
package lm32

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

type Opcode byte

const (
	OpUpload   Opcode = 'u'
	OpDownload Opcode = 'd'
	OpJump     Opcode = 'g'
	// Any other byte makes the bootloader print its prompt line.
	OpProbe Opcode = '\r'
)

// Tagged variant of the commands understood by the bootloader.
// Addresses and lengths go out big-endian.
type BootCommand interface {
	Opcode() Opcode
	Encode() []byte
}

type UploadCommand struct {
	Address uint32
	Payload []byte
}

type DownloadCommand struct {
	Address uint32
	Length  uint32
}

type JumpCommand struct {
	Address uint32
}

func (o Opcode) String() string {
	switch o {
	case OpUpload:
		return "upload"
	case OpDownload:
		return "download"
	case OpJump:
		return "jump"
	case OpProbe:
		return "probe"
	}
	return fmt.Sprintf("Opcode(0x%02x)", byte(o))
}

func (UploadCommand) Opcode() Opcode   { return OpUpload }
func (DownloadCommand) Opcode() Opcode { return OpDownload }
func (JumpCommand) Opcode() Opcode     { return OpJump }

func encodeHeader(op Opcode, words ...uint32) *bytes.Buffer {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(op))
	for _, w := range words {
		binary.Write(buf, binary.BigEndian, w)
	}
	return buf
}

func (c UploadCommand) Encode() []byte {
	buf := encodeHeader(OpUpload, c.Address, uint32(len(c.Payload)))
	buf.Write(c.Payload)
	return buf.Bytes()
}

func (c DownloadCommand) Encode() []byte {
	return encodeHeader(OpDownload, c.Address, c.Length).Bytes()
}

func (c JumpCommand) Encode() []byte {
	return encodeHeader(OpJump, c.Address).Bytes()
}

// Decodes the command at the start of buf, as the device sees it.
// Returns n == 0 and a nil error when buf holds an incomplete command.
func ParseCommand(buf []byte) (cmd BootCommand, n int, err error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}
	word := func(i int) uint32 {
		return binary.BigEndian.Uint32(buf[1+4*i:])
	}
	switch Opcode(buf[0]) {
	case OpUpload:
		if len(buf) < 9 {
			return nil, 0, nil
		}
		size := int(word(1))
		if len(buf) < 9+size {
			return nil, 0, nil
		}
		payload := make([]byte, size)
		copy(payload, buf[9:9+size])
		return UploadCommand{word(0), payload}, 9 + size, nil
	case OpDownload:
		if len(buf) < 9 {
			return nil, 0, nil
		}
		return DownloadCommand{word(0), word(1)}, 9, nil
	case OpJump:
		if len(buf) < 5 {
			return nil, 0, nil
		}
		return JumpCommand{word(0)}, 5, nil
	}
	return nil, 0, errors.Wrapf(ErrMalformedInput, "unknown opcode 0x%02x", buf[0])
}
