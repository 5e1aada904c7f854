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

package vcd_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/vcd"
)

var _ lm32.SampleSink = (*vcd.Writer)(nil)

func TestBinary(t *testing.T) {
	for v, want := range map[byte]string{
		0x00: "b00000000",
		0x01: "b00000001",
		0xa5: "b10100101",
		0xff: "b11111111",
	} {
		if got := vcd.Binary(v); got != want {
			t.Errorf("Binary(0x%02x) = %q, want %q", v, got, want)
		}
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := vcd.NewWriter(&buf)
	w.WriteHeader(vcd.Header{Date: time.Unix(1234, 0)})
	w.WriteWires()
	for i, v := range []byte{0x01, 0x80} {
		w.PutStep(i)
		w.PutSample(v)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	want := "$date\n\t1234\n$end\n" +
		"$version\n\tLogicAnalyzerComponent (http://www.das-labor.org/)\n$end\n" +
		"$timescale\n\t10ns\n$end\n" +
		"$scope module lac $end\n" +
		"$var wire 8 P probe[7:0] $end\n" +
		"$upscope $end\n" +
		"$enddefinitions $end\n" +
		"#0\nb00000001 P\n" +
		"#1\nb10000000 P\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Output differs (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := vcd.NewWriter(&buf)
	w.WriteHeader(vcd.Header{Date: time.Unix(99, 0), Timescale: "1us"})
	w.WriteWires()
	samples := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i, v := range samples {
		w.PutStep(i)
		w.PutSample(v)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	c, err := vcd.Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff(samples, c.Samples); diff != "" {
		t.Errorf("Samples differ (-want +got):\n%s", diff)
	}
	if c.Header.Timescale != "1us" || c.Header.Version != vcd.Version || c.Header.Date.Unix() != 99 {
		t.Errorf("Header = %+v", c.Header)
	}
}

func TestReadFillsGaps(t *testing.T) {
	const input = "#0\nb00000001 P\n#3\nb00000010 P\n"
	c, err := vcd.Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{1, 1, 1, 2}, c.Samples); diff != "" {
		t.Errorf("Samples differ (-want +got):\n%s", diff)
	}
	if _, err := vcd.Read(strings.NewReader("#5\n#2\n")); !errors.Is(err, vcd.ErrFormat) {
		t.Errorf("Read of decreasing timestamps = %v, want ErrFormat", err)
	}
}
