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

// Serves logic analyzer captures (.vcd files) from a directory as JSON.
//
//	GET /captures[?wait=false]   capture names; long-polls for a change unless wait=false
//	GET /data/:capture           header, sample count and per-probe statistics
//	GET /data/:capture/samples   sample values
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/labstack/echo"
	"github.com/soc-lm32/lm32"
	"github.com/soc-lm32/lm32/util"
	"github.com/soc-lm32/lm32/vcd"
)

var (
	portFlag = flag.Int("port", 8080, "Server HTTP port number")
	dirFlag  = flag.String("dir", "captures", "Directory holding .vcd captures")
)

const waitTimeout = 5 * time.Minute

type CaptureMetadata struct {
	Name        string    `json:"Name"`
	Date        int64     `json:"Date"`
	Version     string    `json:"Version"`
	Timescale   string    `json:"Timescale"`
	NumSamples  int       `json:"NumSamples"`
	DutyCycles  []float64 `json:"DutyCycles"`
	Transitions []int     `json:"Transitions"`
}

type server struct {
	dir    string
	broker *util.Broker
	// Upper bound for a /captures long-poll.
	wait time.Duration
}

// Blocks until a capture changes, the client goes away or the wait times out.
func (s *server) waitForCaptures(c echo.Context) {
	name, err := s.broker.WaitForChange(c.Request().Context(), s.wait)
	switch {
	case err != nil:
		glog.V(1).Infof("Client disconnected")
	case name == "":
		glog.V(1).Infof("Timed out")
	default:
		glog.V(1).Infof("Capture %s changed", name)
	}
}

func (s *server) loadCapture(name string) (*vcd.Capture, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid capture")
	}
	f, err := os.Open(filepath.Join(s.dir, name+util.CaptureExt))
	if os.IsNotExist(err) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "No such capture")
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vcd.Read(f)
}

func (s *server) listCaptures(c echo.Context) error {
	if c.QueryParam("wait") != "false" {
		s.waitForCaptures(c)
	}
	files, err := filepath.Glob(filepath.Join(s.dir, "*"+util.CaptureExt))
	if err != nil {
		glog.Errorf("Glob failed: %v", err)
		return err
	}
	names := []string{}
	for _, f := range files {
		names = append(names, util.CaptureName(f))
	}
	return c.JSON(http.StatusOK, names)
}

func (s *server) captureMetadata(c echo.Context) error {
	capture, err := s.loadCapture(c.Param("capture"))
	if err != nil {
		glog.Errorf("Error loading capture file: %v", err)
		return err
	}
	trace := lm32.Trace(capture.Samples)
	return c.JSON(http.StatusOK, CaptureMetadata{
		Name:        c.Param("capture"),
		Date:        capture.Header.Date.Unix(),
		Version:     capture.Header.Version,
		Timescale:   capture.Header.Timescale,
		NumSamples:  len(trace),
		DutyCycles:  trace.DutyCycles(),
		Transitions: trace.Transitions(),
	})
}

func (s *server) captureSamples(c echo.Context) error {
	capture, err := s.loadCapture(c.Param("capture"))
	if err != nil {
		glog.Errorf("Error loading capture file: %v", err)
		return err
	}
	// []byte would be encoded as base64.
	samples := make([]int, len(capture.Samples))
	for i, v := range capture.Samples {
		samples[i] = int(v)
	}
	return c.JSON(http.StatusOK, samples)
}

func newServer(dir string, broker *util.Broker, wait time.Duration) *echo.Echo {
	s := &server{dir: dir, broker: broker, wait: wait}
	e := echo.New()
	e.HideBanner = true
	e.GET("/captures", s.listCaptures)
	e.GET("/data/:capture", s.captureMetadata)
	e.GET("/data/:capture/samples", s.captureSamples)
	return e
}

func main() {
	flag.Parse()
	defer glog.Flush()

	broker := util.NewBroker()
	go broker.Start()
	if err := broker.Watch(*dirFlag); err != nil {
		glog.Fatalf("Can't watch %s: %v", *dirFlag, err)
	}

	e := newServer(*dirFlag, broker, waitTimeout)
	glog.Fatal(e.Start(fmt.Sprintf(":%d", *portFlag)))
}
