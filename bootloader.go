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

// soc-lm32 serial bootloader protocol.
// The bootloader reads one opcode byte at a time: 'u' (upload), 'd' (download),
// 'g' (jump). Anything else makes it print its prompt line.
package lm32

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	BootSignature        = "**soc-lm32/bootloader**"
	DefaultProbeAttempts = 32
)

type Bootloader struct {
	link     LinkInterface
	progress Progress
	// Set by the first link failure. The instance is unusable afterwards.
	err error
}

func NewBootloader(link LinkInterface, progress Progress) *Bootloader {
	if progress == nil {
		progress = NopProgress
	}
	return &Bootloader{link: link, progress: progress}
}

func (b *Bootloader) Link() LinkInterface {
	return b.link
}

func (b *Bootloader) Progress() Progress {
	return b.progress
}

// Returns the link failure that invalidated this instance, if any.
func (b *Bootloader) Err() error {
	return b.err
}

func (b *Bootloader) fail(op string, err error) error {
	b.err = linkError(op, err)
	return b.err
}

func (b *Bootloader) send(cmd BootCommand) error {
	if b.err != nil {
		return b.err
	}
	frame := cmd.Encode()
	if glog.V(2) {
		glog.Infof("[boot-%v]: frame =\n%s", cmd.Opcode(), hex.Dump(frame))
	}
	if _, err := b.link.Write(frame); err != nil {
		return b.fail(cmd.Opcode().String(), err)
	}
	return nil
}

// Probes for the bootloader prompt. Each attempt sends a carriage return and
// reads back one line; up to maxAttempts probes are sent.
func (b *Bootloader) Detect(maxAttempts int) error {
	if b.err != nil {
		return b.err
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultProbeAttempts
	}
	b.progress.Info("Looking for soc-lm32 bootloader")
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		b.progress.Tick()
		if _, err := b.link.Write([]byte{byte(OpProbe)}); err != nil {
			return b.fail("probe", err)
		}
		line, err := ReadLine(b.link)
		if err != nil {
			return b.fail("probe", err)
		}
		glog.V(1).Infof("[boot-probe]: attempt %d, line = %q", attempt, line)
		if strings.Contains(line, BootSignature) {
			b.progress.Info("found.\n")
			return nil
		}
	}
	b.progress.Info("\n")
	return errors.Wrapf(ErrDeviceNotFound, "bootloader %s not found after %d probes",
		BootSignature, maxAttempts)
}

// Writes payload to device memory at addr. The bootloader sends no
// acknowledgement, pacing is up to the caller.
func (b *Bootloader) Upload(addr uint32, payload []byte) error {
	glog.V(1).Infof("[boot-upload]: addr = 0x%08x, len = %d", addr, len(payload))
	return b.send(UploadCommand{addr, payload})
}

// Reads length bytes of device memory at addr.
func (b *Bootloader) Download(addr uint32, length uint32) ([]byte, error) {
	glog.V(1).Infof("[boot-download]: addr = 0x%08x, len = %d", addr, length)
	if err := b.send(DownloadCommand{addr, length}); err != nil {
		return nil, err
	}
	data := make([]byte, length)
	if err := ReadFull(b.link, data); err != nil {
		return nil, b.fail("download", err)
	}
	return data, nil
}

// Transfers execution to addr. From here on the link carries the firmware's
// console.
func (b *Bootloader) Jump(addr uint32) error {
	b.progress.Info(fmt.Sprintf("Jump to 0x%X...\n", addr))
	glog.V(1).Infof("[boot-jump]: addr = 0x%08x", addr)
	if err := b.send(JumpCommand{addr}); err != nil {
		return err
	}
	if err := b.link.Flush(); err != nil {
		return b.fail("jump", err)
	}
	return nil
}
