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

// Value Change Dump output for analyzer captures.
// One 8 bit wire named P carries the probe byte; every sample becomes a
// timestamp line followed by the wire value.
package vcd

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

const (
	Version     = "LogicAnalyzerComponent (http://www.das-labor.org/)"
	WireID      = "P"
	DefaultUnit = "10ns"
)

type Header struct {
	Date      time.Time
	Version   string
	Timescale string
}

// Renders v as a VCD binary vector, most significant bit first.
func Binary(v byte) string {
	return fmt.Sprintf("b%08b", v)
}

// Implements lm32.SampleSink.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	err    error
}

func NewWriter(w io.Writer) *Writer {
	vw := &Writer{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		vw.closer = c
	}
	return vw
}

func (w *Writer) printf(format string, args ...interface{}) error {
	if w.err != nil {
		return w.err
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
	return w.err
}

func (w *Writer) WriteHeader(h Header) error {
	if h.Version == "" {
		h.Version = Version
	}
	if h.Timescale == "" {
		h.Timescale = DefaultUnit
	}
	w.printf("$date\n\t%d\n$end\n", h.Date.Unix())
	w.printf("$version\n\t%s\n$end\n", h.Version)
	return w.printf("$timescale\n\t%s\n$end\n", h.Timescale)
}

func (w *Writer) WriteWires() error {
	w.printf("$scope module lac $end\n")
	w.printf("$var wire 8 %s probe[7:0] $end\n", WireID)
	w.printf("$upscope $end\n")
	return w.printf("$enddefinitions $end\n")
}

func (w *Writer) PutStep(index int) error {
	return w.printf("#%d\n", index)
}

func (w *Writer) PutSample(value byte) error {
	return w.printf("%s %s\n", Binary(value), WireID)
}

// Flushes buffered output and closes the underlying writer if it is a Closer.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && w.err == nil {
			w.err = err
		}
	}
	return w.err
}
