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

// Block-wise memory transfers over the bootloader.
package lm32

import (
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// What to do with the bytes past the last whole block.
type TailPolicy int

const (
	// Leave the trailing partial block out. Default.
	DropTail TailPolicy = iota
	// Transfer the trailing partial block as a short final chunk.
	SendTail
	// Refuse sizes that are not a multiple of the block size.
	RejectTail
)

func (t TailPolicy) String() string {
	switch t {
	case DropTail:
		return "drop"
	case SendTail:
		return "send"
	case RejectTail:
		return "reject"
	}
	return fmt.Sprintf("TailPolicy(%d)", int(t))
}

func ParseTailPolicy(s string) (TailPolicy, error) {
	for _, t := range []TailPolicy{DropTail, SendTail, RejectTail} {
		if t.String() == s {
			return t, nil
		}
	}
	return DropTail, errors.Wrapf(ErrMalformedInput, "unknown tail policy %q", s)
}

// Block size used for image transfers.
const DefaultBlockSize = 0x800

type Chunk struct {
	Address uint32
	Offset  int
	Length  int
}

// Address-ascending, non-overlapping chunks covering [base, base+Size()).
type TransferPlan []Chunk

func PlanTransfer(base uint32, size, blockSize int, tail TailPolicy) (TransferPlan, error) {
	if blockSize <= 0 {
		return nil, errors.Wrapf(ErrMalformedInput, "block size %d", blockSize)
	}
	if size < 0 {
		return nil, errors.Wrapf(ErrMalformedInput, "size %d", size)
	}
	rest := size % blockSize
	if rest != 0 && tail == RejectTail {
		return nil, errors.Wrapf(ErrMalformedInput,
			"size 0x%X is not a multiple of block size 0x%X", size, blockSize)
	}
	var plan TransferPlan
	for i := 0; i < size/blockSize; i++ {
		offset := i * blockSize
		plan = append(plan, Chunk{base + uint32(offset), offset, blockSize})
	}
	if rest != 0 {
		if tail == SendTail {
			offset := size - rest
			plan = append(plan, Chunk{base + uint32(offset), offset, rest})
		} else {
			glog.Warningf("Dropping trailing %d bytes: size 0x%X is not a multiple of block size 0x%X",
				rest, size, blockSize)
		}
	}
	return plan, nil
}

func (p TransferPlan) Size() int {
	if len(p) == 0 {
		return 0
	}
	last := p[len(p)-1]
	return last.Offset + last.Length
}

type ChunkedTransfer struct {
	boot *Bootloader
	tail TailPolicy
}

func NewChunkedTransfer(boot *Bootloader, tail TailPolicy) *ChunkedTransfer {
	return &ChunkedTransfer{boot, tail}
}

// Uploads data[:size] to base in blockSize pieces, one progress tick per
// piece. A failed piece aborts the transfer; pieces already written stay
// written.
func (t *ChunkedTransfer) UploadChunked(data []byte, base uint32, size, blockSize int) error {
	if len(data) < size {
		return errors.Wrapf(ErrMalformedInput, "have %d bytes, asked to upload %d", len(data), size)
	}
	plan, err := PlanTransfer(base, size, blockSize, t.tail)
	if err != nil {
		return err
	}
	p := t.boot.Progress()
	p.Info(fmt.Sprintf("Uploading 0x%X (%d kb) to 0x%X...", size, size/1024, base))
	for _, c := range plan {
		p.Tick()
		if err = t.boot.Upload(c.Address, data[c.Offset:c.Offset+c.Length]); err != nil {
			return err
		}
	}
	p.Info("Done.\n")
	return nil
}

// Downloads size bytes from base in blockSize pieces. The result holds
// plan.Size() bytes in address order.
func (t *ChunkedTransfer) DownloadChunked(base uint32, size, blockSize int) ([]byte, error) {
	plan, err := PlanTransfer(base, size, blockSize, t.tail)
	if err != nil {
		return nil, err
	}
	p := t.boot.Progress()
	p.Info(fmt.Sprintf("Download 0x%X (%d kb) from 0x%X...", size, size/1024, base))
	data := make([]byte, 0, plan.Size())
	for _, c := range plan {
		p.Tick()
		var block []byte
		if block, err = t.boot.Download(c.Address, uint32(c.Length)); err != nil {
			return nil, err
		}
		data = append(data, block...)
	}
	p.Info("Done.\n")
	return data, nil
}

// Writes device memory in small chunks. Unlike UploadChunked every byte
// written goes out, including a short final chunk.
type memWriter struct {
	boot      *Bootloader
	addr      uint32
	blockSize int
}

func (w *memWriter) Write(p []byte) (n int, err error) {
	for n < len(p) {
		toWrite := len(p) - n
		if toWrite > w.blockSize {
			toWrite = w.blockSize
		}
		w.boot.Progress().Tick()
		if err = w.boot.Upload(w.addr, p[n:n+toWrite]); err != nil {
			return n, err
		}
		n += toWrite
		w.addr += uint32(toWrite)
	}
	return n, nil
}

func (t *ChunkedTransfer) NewMemoryWriter(addr uint32, blockSize int) io.Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &memWriter{t.boot, addr, blockSize}
}

// Reads device memory in small chunks.
type memReader struct {
	boot      *Bootloader
	addr      uint32
	blockSize int
}

func (r *memReader) Read(p []byte) (n int, err error) {
	for n < len(p) {
		toRead := len(p) - n
		if toRead > r.blockSize {
			toRead = r.blockSize
		}
		var block []byte
		if block, err = r.boot.Download(r.addr, uint32(toRead)); err != nil {
			return n, err
		}
		copy(p[n:], block)
		n += toRead
		r.addr += uint32(toRead)
	}
	return n, nil
}

func (t *ChunkedTransfer) NewMemoryReader(addr uint32, blockSize int) io.Reader {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &memReader{t.boot, addr, blockSize}
}
