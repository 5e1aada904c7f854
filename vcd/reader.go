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

package vcd

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrFormat = errors.New("vcd format error")

type Capture struct {
	Header  Header
	Samples []byte
}

// Reads back a capture written by Writer. Sample values are taken from the
// P wire; steps without a value repeat the previous one.
func Read(r io.Reader) (*Capture, error) {
	c := &Capture{}
	s := bufio.NewScanner(r)
	var section string
	var body []string
	line := 0
	step := -1
	var last byte
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		if section != "" {
			if text == "$end" {
				value := strings.Join(body, " ")
				switch section {
				case "$date":
					if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
						c.Header.Date = time.Unix(secs, 0)
					}
				case "$version":
					c.Header.Version = value
				case "$timescale":
					c.Header.Timescale = value
				}
				section, body = "", nil
			} else {
				body = append(body, text)
			}
			continue
		}
		switch {
		case text == "$date" || text == "$version" || text == "$timescale":
			section = text
		case strings.HasPrefix(text, "$"):
			// Scope and variable declarations.
		case strings.HasPrefix(text, "#"):
			n, err := strconv.Atoi(text[1:])
			if err != nil || n < step {
				return nil, errors.Wrapf(ErrFormat, "line %d: bad timestamp %q", line, text)
			}
			for step >= 0 && len(c.Samples) < n {
				c.Samples = append(c.Samples, last)
			}
			step = n
		case strings.HasPrefix(text, "b"):
			fields := strings.Fields(text)
			if len(fields) != 2 || fields[1] != WireID {
				continue
			}
			v, err := strconv.ParseUint(fields[0][1:], 2, 8)
			if err != nil {
				return nil, errors.Wrapf(ErrFormat, "line %d: bad value %q", line, text)
			}
			last = byte(v)
			if step >= len(c.Samples) {
				c.Samples = append(c.Samples, last)
			} else if step >= 0 {
				c.Samples[step] = last
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
