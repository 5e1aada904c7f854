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

package miniterm_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/internal/fakelink"
	"github.com/soc-lm32/lm32/miniterm"
	"github.com/soc-lm32/lm32/miniterm/mocks"
)

const (
	menu  = miniterm.MenuCharacter
	exit  = miniterm.ExitCharacter
	ctrlA = 0x01
	ctrlB = 0x02
	ctrlD = 0x04
	ctrlE = 0x05
	ctrlL = 0x0c
	ctrlR = 0x12
	ctrlU = 0x15
)

type harness struct {
	link    *fakelink.Link
	con     *mocks.MockConsole
	session *miniterm.Session
	out     bytes.Buffer
	diag    bytes.Buffer
}

func newHarness(mockCtrl *gomock.Controller, conf miniterm.Config) *harness {
	h := &harness{
		link: fakelink.New(),
		con:  mocks.NewMockConsole(mockCtrl),
	}
	conf.Out = &h.out
	conf.Diag = &h.diag
	h.session = miniterm.NewSession(h.link, h.con, conf)
	return h
}

// Expects keys to be read in order.
func (h *harness) keys(ks ...byte) {
	var calls []*gomock.Call
	for _, k := range ks {
		calls = append(calls, h.con.EXPECT().ReadKey().Return(k, nil))
	}
	gomock.InOrder(calls...)
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	h.session.Start()
	if err := h.session.Join(false); err != nil {
		t.Fatalf("Session failed: %v", err)
	}
}

func TestExitCharacterIsNotTransmitted(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.keys('a', 'b', exit)
	h.run(t)
	if got := string(h.link.Sent()); got != "ab" {
		t.Errorf("Sent %q, want %q", got, "ab")
	}
	if h.out.Len() != 0 {
		t.Errorf("Unexpected echo without local echo: %q", h.out.String())
	}
}

func TestEnterSendsLineEnding(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{Echo: true, LineEnding: miniterm.LineEndingCRLF})
	h.keys('x', '\n', exit)
	h.run(t)
	if got := string(h.link.Sent()); got != "x\r\n" {
		t.Errorf("Sent %q, want %q", got, "x\r\n")
	}
	if got := h.out.String(); got != "x\n" {
		t.Errorf("Echoed %q, want %q", got, "x\n")
	}
}

func TestMenuCharactersAreSentLiterally(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.keys(menu, menu, menu, exit, 'z', exit)
	h.run(t)
	if got, want := h.link.Sent(), []byte{menu, exit, 'z'}; !bytes.Equal(got, want) {
		t.Errorf("Sent %q, want %q", got, want)
	}
	if h.session.State().MenuActive() {
		t.Errorf("Menu still active after exit")
	}
}

func TestEchoToggledTwiceIsUnchanged(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.keys(menu, ctrlE, menu, ctrlE, exit)
	h.run(t)
	if h.session.State().Echo() {
		t.Errorf("Echo enabled after two toggles")
	}
	diag := h.diag.String()
	if !strings.Contains(diag, "local echo active") || !strings.Contains(diag, "local echo inactive") {
		t.Errorf("Missing echo messages in %q", diag)
	}
}

func TestDisplayAndLineEndingCycles(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{LineEnding: miniterm.LineEndingCR, Display: miniterm.DisplayHex})
	h.keys(menu, ctrlA, menu, ctrlA, menu, ctrlA, menu, ctrlA,
		menu, ctrlL, menu, ctrlL, menu, ctrlL, exit)
	h.run(t)
	st := h.session.State()
	if st.Display() != miniterm.DisplayHex {
		t.Errorf("Display = %v after four cycles", st.Display())
	}
	if st.LineEnding() != miniterm.LineEndingCR {
		t.Errorf("LineEnding = %v after three cycles", st.LineEnding())
	}
	if !strings.Contains(h.diag.String(), "--- Display mode: raw ---") {
		t.Errorf("Missing display mode message in %q", h.diag.String())
	}
}

func TestControlLines(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.keys(menu, ctrlR, menu, ctrlD, menu, ctrlB, exit)
	h.run(t)
	if h.link.RTS || h.link.DTR || !h.link.Break {
		t.Errorf("Control lines RTS %v DTR %v BREAK %v", h.link.RTS, h.link.DTR, h.link.Break)
	}
	st := h.session.State()
	if st.RTS() || st.DTR() || !st.Break() {
		t.Errorf("State RTS %v DTR %v BREAK %v", st.RTS(), st.DTR(), st.Break())
	}
}

func TestControlLineFailureKeepsState(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.link.ControlErr = lm32.ErrNotSupported
	h.keys(menu, ctrlR, exit)
	h.run(t)
	if !h.session.State().RTS() {
		t.Errorf("RTS state changed although the link refused")
	}
	if !strings.Contains(h.diag.String(), "ERROR setting RTS") {
		t.Errorf("Missing error report in %q", h.diag.String())
	}
}

func TestPortSettings(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.keys(menu, '7', menu, 'e', menu, '2', menu, 'X', exit)
	h.run(t)
	want := lm32.LinkConfig{
		BaudRate:    115200,
		DataBits:    lm32.DataBitsSeven,
		Parity:      lm32.ParityEven,
		StopBits:    lm32.StopBitsTwo,
		FlowControl: lm32.FlowControlNone,
	}
	if got := h.link.Config(); got != want {
		t.Errorf("Config = %v, want %v", got, want)
	}
	diag := h.diag.String()
	if !strings.Contains(diag, "--- Settings: fakelink  115200,7,E,2") {
		t.Errorf("Missing settings dump in %q", diag)
	}
	if !strings.Contains(diag, "ERROR setting software flow control") {
		t.Errorf("Missing flow control error in %q", diag)
	}
}

func TestChangeBaudRate(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	gomock.InOrder(
		h.con.EXPECT().ReadKey().Return(menu, nil),
		h.con.EXPECT().ReadKey().Return(byte('b'), nil),
		h.con.EXPECT().ReadLine(gomock.Any()).Return("fast", nil),
		h.con.EXPECT().ReadKey().Return(menu, nil),
		h.con.EXPECT().ReadKey().Return(byte('B'), nil),
		h.con.EXPECT().ReadLine(gomock.Any()).Return("57600", nil),
		h.con.EXPECT().ReadKey().Return(exit, nil),
	)
	h.run(t)
	if got := h.link.Config().BaudRate; got != 57600 {
		t.Errorf("BaudRate = %d, want 57600", got)
	}
	if !strings.Contains(h.diag.String(), "--- Baudrate remains 115200 ---") {
		t.Errorf("Missing revert message in %q", h.diag.String())
	}
}

func TestUploadFile(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dir, err := ioutil.TempDir("", "miniterm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	name := filepath.Join(dir, "boot.txt")
	if err := ioutil.WriteFile(name, []byte("one\r\n\ntwo"), 0644); err != nil {
		t.Fatal(err)
	}

	h := newHarness(mockCtrl, miniterm.Config{LineEnding: miniterm.LineEndingCR})
	gomock.InOrder(
		h.con.EXPECT().ReadKey().Return(menu, nil),
		h.con.EXPECT().ReadKey().Return(byte(ctrlU), nil),
		h.con.EXPECT().ReadLine(gomock.Any()).Return(name, nil),
		h.con.EXPECT().ReadKey().Return(exit, nil),
	)
	h.run(t)
	if got, want := string(h.link.Sent()), "one\r\rtwo\r"; got != want {
		t.Errorf("Sent %q, want %q", got, want)
	}
	if h.link.Flushes != 3 {
		t.Errorf("Flushed %d times, want 3", h.link.Flushes)
	}
	if !strings.Contains(h.diag.String(), "sent ---") {
		t.Errorf("Missing completion message in %q", h.diag.String())
	}
}

func TestUploadMissingFile(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	gomock.InOrder(
		h.con.EXPECT().ReadKey().Return(menu, nil),
		h.con.EXPECT().ReadKey().Return(byte(ctrlU), nil),
		h.con.EXPECT().ReadLine(gomock.Any()).Return("/nonexistent/file", nil),
		h.con.EXPECT().ReadKey().Return(exit, nil),
	)
	h.run(t)
	if len(h.link.Sent()) != 0 {
		t.Errorf("Sent %q for a missing file", h.link.Sent())
	}
	if !strings.Contains(h.diag.String(), "ERROR opening file") {
		t.Errorf("Missing error report in %q", h.diag.String())
	}
}

func TestUnknownMenuCharacter(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.keys(menu, 0x07, exit)
	h.run(t)
	if !strings.Contains(h.diag.String(), "unknown menu character Ctrl+G") {
		t.Errorf("Missing unknown key report in %q", h.diag.String())
	}
	if len(h.link.Sent()) != 0 {
		t.Errorf("Sent %q for a menu key", h.link.Sent())
	}
}

func TestReceivedDataIsDisplayed(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{LineEnding: miniterm.LineEndingCRLF, Display: miniterm.DisplayEscapeSome})
	h.link.Feed([]byte("hi\x01\r\n"))
	h.con.EXPECT().ReadKey().DoAndReturn(func() (byte, error) {
		// Let the inbound task drain the link before leaving.
		time.Sleep(100 * time.Millisecond)
		return exit, nil
	})
	h.run(t)
	if got, want := h.out.String(), "hi\\x01\n"; got != want {
		t.Errorf("Displayed %q, want %q", got, want)
	}
}

func TestConsoleEOFEndsSession(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	gomock.InOrder(
		h.con.EXPECT().ReadKey().Return(byte('q'), nil),
		h.con.EXPECT().ReadKey().Return(byte(0), io.EOF),
	)
	h.run(t)
	if got := string(h.link.Sent()); got != "q" {
		t.Errorf("Sent %q, want %q", got, "q")
	}
}

func TestLinkWriteFailureEndsSession(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.link.WriteErr = lm32.ErrLinkFailure
	h.keys('q')
	h.session.Start()
	if err := h.session.Join(true); err == nil {
		t.Errorf("Join succeeded after a link failure")
	}
}

func TestBanner(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.session.Banner()
	want := "--- Miniterm on fakelink: 115200,8,N,1 ---\n" +
		"--- Quit: Ctrl+] | Menu: Ctrl+T | Help: Ctrl+T followed by Ctrl+H ---\n"
	if got := h.diag.String(); got != want {
		t.Errorf("Banner = %q, want %q", got, want)
	}
}

func TestLinkReadFailureEndsSession(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	h := newHarness(mockCtrl, miniterm.Config{})
	h.con.EXPECT().ReadKey().DoAndReturn(func() (byte, error) {
		for h.session.State().Alive() {
			time.Sleep(time.Millisecond)
		}
		return exit, nil
	})
	h.session.Start()
	h.link.Close()
	err := h.session.Join(false)
	if err == nil || !strings.Contains(err.Error(), "receive") {
		t.Errorf("Join = %v, want the receive error", err)
	}
	if h.session.State().Alive() {
		t.Errorf("Session still alive after a receive failure")
	}
	if got := h.link.Sent(); len(got) != 0 {
		t.Errorf("Sent %q after the session ended", got)
	}
}
