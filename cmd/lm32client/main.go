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

// Uploads images to, and talks with, an lm32 SoC through its serial boot ROM.
// Actions: memcheck, lac, upload, jump, peek, poke, ports. Optionally drops
// into a terminal session (-m) and/or a cgdb debugging session (-D) afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/cwlite"
	"github.com/soc-lm32/lm32/miniterm"
	"github.com/soc-lm32/lm32/util"
)

const cwliteDevice = "cwlite"

var (
	deviceFlag    = flag.String("device", "/dev/ttyUSB0", "Serial device, or \"cwlite\" for the ChipWhisperer-Lite USART bridge")
	baudFlag      = flag.Uint("baud", 115200, "Baud rate")
	filenameFlag  = flag.String("filename", "", "SREC or Intel HEX (.hex) image for upload")
	actionFlag    = flag.String("action", "", "One of memcheck, lac, upload, jump, peek, poke, ports")
	startFlag     = flag.String("start", "0x40000000", "Start address for jumps, memcheck, peek and poke")
	sizeFlag      = flag.String("size", "0x8000", "Size for memchecks")
	blockSizeFlag = flag.String("blocksize", "0x800", "Block size for memchecks and uploads")
	tailFlag      = flag.String("tail", "drop", "Partial last block: drop, send or reject")
	minitermFlag  = flag.Bool("miniterm", false, "Start miniterm after action")
	debuggerFlag  = flag.Bool("debugger", false, "Start cgdb with a remote serial session")
	elfFlag       = flag.String("elf", "", "ELF file for the debugger")
	vcdFlag       = flag.String("vcd", "trace.vcd", "VCD output file for the logic analyzer")
	timescaleFlag = flag.String("timescale", "10ns", "Timescale announced in the VCD file")
	selectFlag    = flag.String("select", "", "Logic analyzer probe select value (hex)")
	triggerFlag   = flag.String("trigger", "", "Logic analyzer trigger value (hex)")
	maskFlag      = flag.String("triggermask", "", "Logic analyzer trigger mask (hex)")
	valueFlag     = flag.String("value", "", "Word written by poke (hex)")
	verifyFlag    = flag.Bool("verify", true, "Read back poked words")
	noChecksum    = flag.Bool("ignore-checksum", false, "Upload S-records even if their checksum is wrong")
	maxSamples    = flag.Int("max-samples", lm32.DefaultMaxSamples, "Largest logic analyzer capture accepted")
	probeAttempts = flag.Int("probe-attempts", lm32.DefaultProbeAttempts, "Bootloader probes sent before giving up")
	logFlag       = flag.String("log", "", "Copy terminal session output to this file")
	echoFlag      = flag.Bool("echo", false, "Local echo in the terminal session")
	eolFlag       = flag.String("eol", "CR/LF", "Terminal line ending: LF, CR or CR/LF")
	displayFlag   = flag.String("display", "some control", "Terminal display mode: raw, some control, all control or hex")
)

func init() {
	flag.StringVar(deviceFlag, "d", *deviceFlag, "Short for -device")
	flag.UintVar(baudFlag, "b", *baudFlag, "Short for -baud")
	flag.StringVar(filenameFlag, "f", *filenameFlag, "Short for -filename")
	flag.StringVar(actionFlag, "a", *actionFlag, "Short for -action")
	flag.StringVar(startFlag, "s", *startFlag, "Short for -start")
	flag.StringVar(sizeFlag, "S", *sizeFlag, "Short for -size")
	flag.StringVar(blockSizeFlag, "B", *blockSizeFlag, "Short for -blocksize")
	flag.BoolVar(minitermFlag, "m", *minitermFlag, "Short for -miniterm")
	flag.BoolVar(debuggerFlag, "D", *debuggerFlag, "Short for -debugger")
	flag.StringVar(elfFlag, "e", *elfFlag, "Short for -elf")
	flag.StringVar(timescaleFlag, "t", *timescaleFlag, "Short for -timescale")
}

// 2 for bad arguments and input files, 1 for everything else.
func exitStatus(err error) int {
	if errors.Is(err, lm32.ErrMalformedInput) {
		return 2
	}
	return 1
}

// Parses a hex number, with or without 0x prefix.
func parseHex(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, errors.Wrapf(lm32.ErrMalformedInput, "-%s %q", name, s)
	}
	return uint32(v), nil
}

func parseHex8(name, s string) (uint8, error) {
	if s == "" {
		return 0, errors.Wrap(lm32.ErrMalformedInput, "Need values for SELECT TRIGGER TRIGGERMASK")
	}
	v, err := parseHex(name, s)
	if err == nil && v > 0xff {
		err = errors.Wrapf(lm32.ErrMalformedInput, "-%s %q does not fit a byte", name, s)
	}
	return uint8(v), err
}

func openLink() (lm32.LinkInterface, error) {
	conf := lm32.DefaultLinkConfig
	conf.BaudRate = lm32.BaudRate(*baudFlag)
	if *deviceFlag == cwliteDevice {
		return cwlite.OpenUsart(&conf)
	}
	return lm32.OpenSerialLink(*deviceFlag, &conf)
}

func listPorts() error {
	ports, err := lm32.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Printf("%s\tUSB %s:%s %s %s\n", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
		} else {
			fmt.Println(p.Name)
		}
	}
	return nil
}

func runAction(link lm32.LinkInterface, boot *lm32.Bootloader) error {
	start, err := parseHex("start", *startFlag)
	if err != nil {
		return err
	}
	blockSize, err := parseHex("blocksize", *blockSizeFlag)
	if err != nil {
		return err
	}

	switch *actionFlag {
	case "":
		return nil
	case "jump":
		return boot.Jump(start)
	case "upload":
		if *filenameFlag == "" {
			return errors.Wrap(lm32.ErrMalformedInput, "Need to specify an image filename")
		}
		if _, err := os.Stat(*filenameFlag); err != nil {
			return errors.Wrapf(lm32.ErrMalformedInput, "Can't access image file %s", *filenameFlag)
		}
		return util.ProgramFile(boot, *filenameFlag, util.LoadOptions{IgnoreChecksum: *noChecksum},
			start, int(blockSize), *probeAttempts)
	case "memcheck":
		size, err := parseHex("size", *sizeFlag)
		if err != nil {
			return err
		}
		tail, err := lm32.ParseTailPolicy(*tailFlag)
		if err != nil {
			return err
		}
		_, err = util.Memcheck(boot, start, int(size), int(blockSize), tail, *probeAttempts, nil, os.Stdout)
		return err
	case "lac":
		return captureTrace(link)
	case "peek":
		if err := boot.Detect(*probeAttempts); err != nil {
			return err
		}
		v, err := util.Peek(boot, start)
		if err != nil {
			return err
		}
		fmt.Printf("0x%08X: 0x%08X\n", start, v)
		return nil
	case "poke":
		value, err := parseHex("value", *valueFlag)
		if err != nil {
			return err
		}
		if err := boot.Detect(*probeAttempts); err != nil {
			return err
		}
		return util.Poke(boot, start, value, *verifyFlag)
	}
	return errors.Wrapf(lm32.ErrMalformedInput, "unknown action %q", *actionFlag)
}

func captureTrace(link lm32.LinkInterface) error {
	var opts util.CaptureOptions
	var err error
	if opts.Arm.Select, err = parseHex8("select", *selectFlag); err != nil {
		return err
	}
	if opts.Arm.Trigger, err = parseHex8("trigger", *triggerFlag); err != nil {
		return err
	}
	if opts.Arm.TriggerMask, err = parseHex8("triggermask", *maskFlag); err != nil {
		return err
	}
	if *vcdFlag == "" {
		return errors.Wrap(lm32.ErrMalformedInput, "Need to specify a .vcd filename")
	}
	opts.Filename = *vcdFlag
	opts.Timescale = *timescaleFlag
	opts.MaxSamples = *maxSamples

	// Ctrl+C while waiting for the trigger abandons the capture.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = util.CaptureTrace(ctx, link, opts, os.Stdout)
	return err
}

func runMiniterm(link lm32.LinkInterface) error {
	eol, err := miniterm.ParseLineEnding(*eolFlag)
	if err != nil {
		return err
	}
	display, err := miniterm.ParseDisplayMode(*displayFlag)
	if err != nil {
		return err
	}
	var sessionLog io.Writer
	if *logFlag != "" {
		f, err := os.Create(*logFlag)
		if err != nil {
			return errors.Wrap(err, "Can't open session log")
		}
		defer f.Close()
		sessionLog = f
	}

	con, err := miniterm.OpenConsole()
	if err != nil {
		return err
	}
	defer con.Release()

	s := miniterm.NewSession(link, con, miniterm.Config{
		Echo:       *echoFlag,
		LineEnding: eol,
		Display:    display,
		Out:        os.Stdout,
		Diag:       os.Stderr,
		Log:        sessionLog,
	})
	s.Banner()
	s.Start()
	return s.Join(true)
}

func run() int {
	defer glog.Flush()

	if *actionFlag == "ports" {
		if err := listPorts(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	if *debuggerFlag {
		if *elfFlag == "" {
			fmt.Fprintln(os.Stderr, "Need to specify elf filename")
			return 2
		}
		if _, err := os.Stat(*elfFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Can't access elf file %s\n", *elfFlag)
			return 2
		}
		if *deviceFlag == cwliteDevice {
			fmt.Fprintln(os.Stderr, "The debugger needs a serial device")
			return 2
		}
	}

	link, err := openLink()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't open %s: %v\n", *deviceFlag, err)
		return 1
	}
	defer link.Close()

	boot := lm32.NewBootloader(link, lm32.NewWriterProgress(os.Stdout))
	if err = runAction(link, boot); err != nil {
		glog.Errorf("Action %s failed: %v", *actionFlag, err)
		fmt.Fprintln(os.Stderr, err)
		return exitStatus(err)
	}
	if *minitermFlag {
		if err = runMiniterm(link); err != nil {
			glog.Errorf("Terminal session failed: %v", err)
			fmt.Fprintln(os.Stderr, err)
			return exitStatus(err)
		}
	}
	if *debuggerFlag {
		// gdb needs the port to itself.
		link.Close()
		if err = util.NewDebugger().Run(*deviceFlag, *elfFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

func main() {
	flag.Parse()
	os.Exit(run())
}
