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

// Host side workflows built on the bootloader and analyzer protocols.
package util

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/vcd"
)

// Writes every segment of img to device memory and jumps to its entry
// address, or to fallback if the image has none.
func UploadImage(boot *lm32.Bootloader, img *Image, fallback uint32, blockSize int) error {
	xfer := lm32.NewChunkedTransfer(boot, lm32.SendTail)
	p := boot.Progress()
	p.Info(fmt.Sprintf("Uploading %d segments (%d kb)...", len(img.Segments), img.Size()/1024))
	for _, s := range img.Segments {
		w := xfer.NewMemoryWriter(s.Address, blockSize)
		if _, err := w.Write(s.Data); err != nil {
			return errors.Wrapf(err, "Failed to upload segment at 0x%08x", s.Address)
		}
	}
	p.Info("Done.\n")
	entry := fallback
	if img.Entry != nil {
		entry = *img.Entry
	}
	return boot.Jump(entry)
}

// Detects the bootloader, then uploads and starts the image in filename.
func ProgramFile(boot *lm32.Bootloader, filename string, opts LoadOptions, fallback uint32, blockSize, probeAttempts int) error {
	img, err := LoadImage(filename, opts)
	if err != nil {
		return errors.Wrap(err, "Failed loading image")
	}
	glog.Infof("Loaded %s: %d segments, %d bytes", filename, len(img.Segments), img.Size())
	if err = boot.Detect(probeAttempts); err != nil {
		return err
	}
	return UploadImage(boot, img, fallback, blockSize)
}

type Mismatch struct {
	Address uint32
	Wrote   byte
	Read    byte
}

func (m Mismatch) String() string {
	return fmt.Sprintf("0x%X 0x%02x != 0x%02x", m.Address, m.Wrote, m.Read)
}

// Fills size bytes at base with data from rnd, reads them back and reports
// every differing byte to out. A nil rnd uses math/rand.
func Memcheck(boot *lm32.Bootloader, base uint32, size, blockSize int, tail lm32.TailPolicy,
	probeAttempts int, rnd io.Reader, out io.Writer) ([]Mismatch, error) {
	fmt.Fprintf(out, "Memcheck Addr=0x%X size=0x%X \n", base, size)
	if err := boot.Detect(probeAttempts); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(rnd, data); err != nil {
		return nil, errors.Wrap(err, "Failed to generate test pattern")
	}

	xfer := lm32.NewChunkedTransfer(boot, tail)
	if err := xfer.UploadChunked(data, base, size, blockSize); err != nil {
		return nil, err
	}
	readBack, err := xfer.DownloadChunked(base, size, blockSize)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(out, "Checking for memory errors...")
	var bad []Mismatch
	for i, v := range readBack {
		if data[i] != v {
			m := Mismatch{base + uint32(i), data[i], v}
			bad = append(bad, m)
			fmt.Fprintf(out, "\n%v", m)
		}
	}
	fmt.Fprintln(out, "Done.")
	return bad, nil
}

func Peek(boot *lm32.Bootloader, addr uint32) (uint32, error) {
	var v uint32
	err := lm32.NewMemory(boot).Read(addr, &v)
	return v, err
}

func Poke(boot *lm32.Bootloader, addr, value uint32, verify bool) error {
	return lm32.NewMemory(boot).Write(addr, value, verify, nil)
}

var timeNow = time.Now

type CaptureOptions struct {
	Filename   string
	Timescale  string
	Arm        lm32.ArmConfig
	MaxSamples int
}

// Runs one analyzer capture into a VCD file and returns the samples.
func CaptureTrace(ctx context.Context, link lm32.LinkInterface, opts CaptureOptions, out io.Writer) (lm32.Trace, error) {
	f, err := os.Create(opts.Filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open output file %s", opts.Filename)
	}
	w := vcd.NewWriter(f)
	w.WriteHeader(vcd.Header{Date: timeNow(), Timescale: opts.Timescale})
	if err = w.WriteWires(); err != nil {
		w.Close()
		return nil, err
	}

	fmt.Fprintf(out, "Using 0x%02x 0x%02x 0x%02x\n", opts.Arm.Select, opts.Arm.Trigger, opts.Arm.TriggerMask)
	var trace lm32.Trace
	a := lm32.NewAnalyzer(link, opts.MaxSamples)
	err = a.Capture(ctx, opts.Arm, lm32.MultiSink(w, &trace))
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return trace, err
	}

	st, err := os.Stat(opts.Filename)
	if err != nil {
		return trace, err
	}
	fmt.Fprintf(out, "Done %s %d Kb\n", opts.Filename, st.Size()/1024)
	fmt.Fprintln(out, formatDutyCycles(trace.DutyCycles()))
	return trace, nil
}

func formatDutyCycles(duty []float64) string {
	parts := make([]string, len(duty))
	for i, d := range duty {
		parts[i] = fmt.Sprintf("P%d=%.2f", i, d)
	}
	return "Probe duty cycle: " + strings.Join(parts, " ")
}

// Remote debugging session through cgdb and the gdb stub on the target.
type Debugger struct {
	// Front end, cgdb by default.
	Command string
	// Debugger run by the front end.
	Gdb string
	// Temporary gdb command file.
	Script string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func NewDebugger() *Debugger {
	return &Debugger{
		Command: "cgdb",
		Gdb:     "lm32-elf-gdb",
		Script:  "remote.gdb",
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Attaches to the target on device and loads symbols from elf. Blocks until
// the front end exits. The command file is removed afterwards.
func (d *Debugger) Run(device, elf string) error {
	if err := os.WriteFile(d.Script, []byte(fmt.Sprintf("target remote %s\n", device)), 0644); err != nil {
		return errors.Wrap(err, "Failed writing gdb script")
	}
	defer os.Remove(d.Script)

	cmd := exec.Command(d.Command, "-d", d.Gdb, "-x", d.Script, elf)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = d.Stdin, d.Stdout, d.Stderr
	glog.Infof("Execute: %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %v", d.Command, err)
	}
	return nil
}
