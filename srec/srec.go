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

// Motorola S-record decoder.
// Data records (S1/S2/S3) yield (address, payload) pairs; the execution start
// record (S7/S8/S9) yields the entry address. Header and count records are
// skipped.
package srec

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var ErrSyntax = errors.New("srec syntax error")

type Record struct {
	Address uint32
	Data    []byte
}

// Scans records lazily from a reader, bufio.Scanner style.
type Scanner struct {
	lines *bufio.Scanner
	line  int
	rec   Record
	entry *uint32
	err   error
	// Skip checksum validation.
	IgnoreChecksum bool
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{lines: bufio.NewScanner(r)}
}

// Address field width in bytes per record type.
func addressSize(t byte) int {
	switch t {
	case '0', '1', '5', '9':
		return 2
	case '2', '6', '8':
		return 3
	case '3', '7':
		return 4
	}
	return 0
}

func (s *Scanner) fail(format string, args ...interface{}) bool {
	s.err = errors.Wrapf(ErrSyntax, "line %d: %s", s.line, fmt.Sprintf(format, args...))
	return false
}

// Advances to the next data record. Returns false at the end of input or on
// the first malformed line.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.lines.Scan() {
		s.line++
		line := strings.TrimSpace(s.lines.Text())
		if line == "" {
			continue
		}
		if len(line) < 4 || (line[0] != 'S' && line[0] != 's') {
			return s.fail("not an S-record: %q", line)
		}
		t := line[1]
		asize := addressSize(t)
		if asize == 0 {
			return s.fail("unknown record type S%c", t)
		}
		raw, err := hex.DecodeString(line[2:])
		if err != nil {
			return s.fail("%v", err)
		}
		count := int(raw[0])
		if count != len(raw)-1 || count < asize+1 {
			return s.fail("byte count %d does not match record length %d", count, len(raw)-1)
		}
		if !s.IgnoreChecksum {
			var sum byte
			for _, b := range raw[:len(raw)-1] {
				sum += b
			}
			if ^sum != raw[len(raw)-1] {
				return s.fail("checksum 0x%02x, expected 0x%02x", raw[len(raw)-1], ^sum)
			}
		}
		var addr uint32
		for _, b := range raw[1 : 1+asize] {
			addr = addr<<8 | uint32(b)
		}
		switch t {
		case '1', '2', '3':
			data := make([]byte, count-asize-1)
			copy(data, raw[1+asize:len(raw)-1])
			s.rec = Record{addr, data}
			return true
		case '7', '8', '9':
			entry := addr
			s.entry = &entry
		}
	}
	s.err = s.lines.Err()
	return false
}

func (s *Scanner) Record() Record {
	return s.rec
}

// Execution start address, once its record has been scanned.
func (s *Scanner) Entry() (uint32, bool) {
	if s.entry == nil {
		return 0, false
	}
	return *s.entry, true
}

func (s *Scanner) Err() error {
	return s.err
}

// A fully decoded S-record file.
type Image struct {
	Records []Record
	Entry   *uint32
}

// Decoding options.
type Options struct {
	// Accept records whose checksum does not match.
	IgnoreChecksum bool
}

func Decode(r io.Reader) (*Image, error) {
	return Options{}.Decode(r)
}

func (o Options) Decode(r io.Reader) (*Image, error) {
	s := NewScanner(r)
	s.IgnoreChecksum = o.IgnoreChecksum
	img := &Image{}
	for s.Scan() {
		img.Records = append(img.Records, s.Record())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if entry, ok := s.Entry(); ok {
		img.Entry = &entry
	}
	return img, nil
}

func Load(filename string) (*Image, error) {
	return Options{}.Load(filename)
}

func (o Options) Load(filename string) (*Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return o.Decode(f)
}
