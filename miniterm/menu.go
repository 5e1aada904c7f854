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

package miniterm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/soc-lm32/lm32"
)

// Consecutive unreadable lines after which a file upload is abandoned.
const maxUploadReadErrors = 3

func onOff(v bool) string {
	if v {
		return "active"
	}
	return "inactive"
}

func (s *Session) handleMenuKey(c byte) error {
	switch c {
	case MenuCharacter, ExitCharacter:
		if err := s.transmit([]byte{c}); err != nil {
			return err
		}
		s.echo([]byte{c})
	case keyCtrlU:
		return s.uploadFile()
	case keyCtrlH, 'h', 'H', '?':
		fmt.Fprint(s.diag, helpText())
	case keyCtrlR:
		v := !s.state.RTS()
		if s.report("RTS", s.link.SetRTS(v)) {
			s.state.SetRTS(v)
			fmt.Fprintf(s.diag, "--- RTS %s ---\n", onOff(v))
		}
	case keyCtrlD:
		v := !s.state.DTR()
		if s.report("DTR", s.link.SetDTR(v)) {
			s.state.SetDTR(v)
			fmt.Fprintf(s.diag, "--- DTR %s ---\n", onOff(v))
		}
	case keyCtrlB:
		v := !s.state.Break()
		if s.report("BREAK", s.link.SetBreak(v)) {
			s.state.SetBreak(v)
			fmt.Fprintf(s.diag, "--- BREAK %s ---\n", onOff(v))
		}
	case keyCtrlE:
		v := s.state.ToggleEcho()
		fmt.Fprintf(s.diag, "--- local echo %s ---\n", onOff(v))
	case keyCtrlI:
		s.dumpSettings()
	case keyCtrlA:
		m := s.state.CycleDisplay()
		fmt.Fprintf(s.diag, "--- Display mode: %s ---\n", m)
	case keyCtrlL:
		e := s.state.CycleLineEnding()
		fmt.Fprintf(s.diag, "--- Line ending: %s ---\n", e)
	case 'b', 'B':
		s.changeBaudRate()
	case '8':
		s.reconfigure("data bits", func(c *lm32.LinkConfig) { c.DataBits = lm32.DataBitsEight })
	case '7':
		s.reconfigure("data bits", func(c *lm32.LinkConfig) { c.DataBits = lm32.DataBitsSeven })
	case 'e', 'E':
		s.reconfigure("parity", func(c *lm32.LinkConfig) { c.Parity = lm32.ParityEven })
	case 'o', 'O':
		s.reconfigure("parity", func(c *lm32.LinkConfig) { c.Parity = lm32.ParityOdd })
	case 'm', 'M':
		s.reconfigure("parity", func(c *lm32.LinkConfig) { c.Parity = lm32.ParityMark })
	case 's', 'S':
		s.reconfigure("parity", func(c *lm32.LinkConfig) { c.Parity = lm32.ParitySpace })
	case 'n', 'N':
		s.reconfigure("parity", func(c *lm32.LinkConfig) { c.Parity = lm32.ParityNone })
	case '1':
		s.reconfigure("stop bits", func(c *lm32.LinkConfig) { c.StopBits = lm32.StopBitsOne })
	case '2':
		s.reconfigure("stop bits", func(c *lm32.LinkConfig) { c.StopBits = lm32.StopBitsTwo })
	case '3':
		s.reconfigure("stop bits", func(c *lm32.LinkConfig) { c.StopBits = lm32.StopBitsOneAndHalf })
	case 'x', 'X':
		on := c == 'X'
		s.reconfigure("software flow control", func(c *lm32.LinkConfig) {
			setFlow(c, lm32.FlowControlXonXoff, on)
		})
	case 'r', 'R':
		on := c == 'R'
		s.reconfigure("hardware flow control", func(c *lm32.LinkConfig) {
			setFlow(c, lm32.FlowControlHardware, on)
		})
	default:
		fmt.Fprintf(s.diag, "--- unknown menu character %s ---\n", KeyDescription(c))
	}
	return nil
}

func setFlow(c *lm32.LinkConfig, f lm32.FlowControl, on bool) {
	if on {
		c.FlowControl |= f
	} else {
		c.FlowControl &^= f
	}
}

// Prints a failed control line or setting change. Returns true on success.
func (s *Session) report(what string, err error) bool {
	if err == nil {
		return true
	}
	glog.Warningf("Setting %s failed: %v", what, err)
	fmt.Fprintf(s.diag, "--- ERROR setting %s: %v ---\n", what, err)
	return false
}

// Applies a settings change. The previous settings stay in effect if the
// link rejects the new ones.
func (s *Session) reconfigure(what string, change func(*lm32.LinkConfig)) {
	conf := s.link.Config()
	change(&conf)
	if s.report(what, s.link.SetConfig(conf)) {
		s.dumpSettings()
	}
}

func (s *Session) changeBaudRate() {
	line, err := s.con.ReadLine("\n--- Baudrate: ")
	if err != nil {
		s.report("baudrate", err)
		return
	}
	rate, err := strconv.ParseUint(strings.TrimSpace(line), 10, 32)
	if err == nil && rate == 0 {
		err = fmt.Errorf("invalid baudrate %q", line)
	}
	if err != nil {
		fmt.Fprintf(s.diag, "--- ERROR setting baudrate: %v ---\n", err)
		fmt.Fprintf(s.diag, "--- Baudrate remains %d ---\n", s.link.Config().BaudRate)
		return
	}
	s.reconfigure("baudrate", func(c *lm32.LinkConfig) { c.BaudRate = lm32.BaudRate(rate) })
}

func (s *Session) dumpSettings() {
	conf := s.link.Config()
	p := func(format string, a ...interface{}) {
		fmt.Fprintf(s.diag, "--- "+format+"\n", a...)
	}
	p("Settings: %s  %d,%d,%v,%v", s.link.Name(), conf.BaudRate, conf.DataBits, conf.Parity, conf.StopBits)
	p("RTS: %-8s  DTR: %-8s  BREAK: %-8s", onOff(s.state.RTS()), onOff(s.state.DTR()), onOff(s.state.Break()))
	if st, err := s.link.ModemStatus(); err != nil {
		glog.V(1).Infof("Modem status unavailable: %v", err)
	} else {
		p("CTS: %-8s  DSR: %-8s  RI: %-8s  CD: %-8s", onOff(st.CTS), onOff(st.DSR), onOff(st.RI), onOff(st.CD))
	}
	p("software flow control: %s", onOff(conf.FlowControl&lm32.FlowControlXonXoff != 0))
	p("hardware flow control: %s", onOff(conf.FlowControl&lm32.FlowControlHardware != 0))
	p("data escaping: %s  line ending: %s", s.state.Display(), s.state.LineEnding())
}

// Sends a text file line by line, each line terminated with the current line
// ending. Only link write failures are returned.
func (s *Session) uploadFile() error {
	name, err := s.con.ReadLine("\n--- File to upload: ")
	if err != nil {
		s.report("upload file", err)
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	f, err := os.Open(name)
	if err != nil {
		fmt.Fprintf(s.diag, "--- ERROR opening file %s: %v ---\n", name, err)
		return nil
	}
	defer f.Close()

	fmt.Fprintf(s.diag, "--- Sending file %s ---\n", name)
	eol := s.state.LineEnding().Sequence()
	r := bufio.NewReader(f)
	readErrors := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			readErrors++
			fmt.Fprintf(s.diag, "--- ERROR reading %s: %v ---\n", name, err)
			if readErrors >= maxUploadReadErrors {
				fmt.Fprintf(s.diag, "--- Upload of %s aborted ---\n", name)
				return nil
			}
			continue
		}
		readErrors = 0
		last := err == io.EOF
		if last && line == "" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if err := s.transmit(append([]byte(line), eol...)); err != nil {
			return err
		}
		if err := s.link.Flush(); err != nil {
			return err
		}
		fmt.Fprint(s.diag, ".")
		if last {
			break
		}
	}
	fmt.Fprintf(s.diag, "\n--- File %s sent ---\n", name)
	return nil
}
