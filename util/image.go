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

package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/srec"
)

type Segment struct {
	Address uint32
	Data    []byte
}

// A firmware image ready for upload.
type Image struct {
	Segments []Segment
	// Execution start address, if the file carries one.
	Entry *uint32
}

func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

type LoadOptions struct {
	// Accept S-records with a bad checksum. Intel HEX checksums are always
	// checked.
	IgnoreChecksum bool
}

// Loads an Intel HEX file (.hex, .ihex) or a Motorola S-record file
// (anything else).
func LoadImage(filename string, opts LoadOptions) (*Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hex", ".ihex":
		return LoadIntelHexFile(filename)
	}
	return LoadSRecordFile(filename, srec.Options{IgnoreChecksum: opts.IgnoreChecksum})
}

func LoadIntelHexFile(filename string) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mem := gohex.NewMemory()
	if err = mem.ParseIntelHex(file); err != nil {
		return nil, errors.Wrapf(lm32.ErrMalformedInput, "%s: %v", filename, err)
	}
	img := &Image{}
	for _, s := range mem.GetDataSegments() {
		img.Segments = append(img.Segments, Segment{s.Address, s.Data})
	}
	if len(img.Segments) == 0 {
		return nil, errors.Wrapf(lm32.ErrMalformedInput, "%s: no data segments", filename)
	}
	if addr, ok := mem.GetStartAddress(); ok {
		img.Entry = &addr
	}
	return img, nil
}

// Each data record becomes its own segment, so that records are uploaded
// one by one at their own addresses.
func LoadSRecordFile(filename string, opts srec.Options) (*Image, error) {
	s, err := opts.Load(filename)
	if err != nil {
		if errors.Is(err, srec.ErrSyntax) {
			return nil, errors.Wrapf(lm32.ErrMalformedInput, "%s: %v", filename, err)
		}
		return nil, err
	}
	img := &Image{Entry: s.Entry}
	for _, r := range s.Records {
		img.Segments = append(img.Segments, Segment{r.Address, r.Data})
	}
	return img, nil
}
