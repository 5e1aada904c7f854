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

// Logic analyzer co-processor (LAC) sub-protocol.
// Once armed, the device stays silent until the trigger condition hits, then
// sends one size exponent byte followed by 1<<exponent 8-bit samples.
package lm32

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

type AnalyzerState int

const (
	AnalyzerIdle AnalyzerState = iota
	AnalyzerDisarmed
	AnalyzerArmed
	AnalyzerTriggered
	AnalyzerDraining
)

func (s AnalyzerState) String() string {
	switch s {
	case AnalyzerIdle:
		return "idle"
	case AnalyzerDisarmed:
		return "disarmed"
	case AnalyzerArmed:
		return "armed"
	case AnalyzerTriggered:
		return "triggered"
	case AnalyzerDraining:
		return "draining"
	}
	return fmt.Sprintf("AnalyzerState(%d)", int(s))
}

const (
	lacCmdArm      = 0x01
	lacDisarmBytes = 6

	// Largest capture accepted unless configured otherwise.
	DefaultMaxSamples = 1 << 20
)

type ArmConfig struct {
	Select      uint8
	Trigger     uint8
	TriggerMask uint8
}

// Receives a drained capture one sample at a time.
type SampleSink interface {
	PutStep(index int) error
	PutSample(value byte) error
}

type multiSink []SampleSink

func (m multiSink) PutStep(index int) error {
	for _, s := range m {
		if err := s.PutStep(index); err != nil {
			return err
		}
	}
	return nil
}

func (m multiSink) PutSample(value byte) error {
	for _, s := range m {
		if err := s.PutSample(value); err != nil {
			return err
		}
	}
	return nil
}

// Duplicates every record to all sinks, in order.
func MultiSink(sinks ...SampleSink) SampleSink {
	return multiSink(sinks)
}

type Analyzer struct {
	link        LinkInterface
	maxSamples  int
	state       AnalyzerState
	sampleCount int
}

func NewAnalyzer(link LinkInterface, maxSamples int) *Analyzer {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Analyzer{link: link, maxSamples: maxSamples}
}

func (a *Analyzer) State() AnalyzerState {
	return a.state
}

// Number of samples announced by the device. Valid once triggered.
func (a *Analyzer) SampleCount() int {
	return a.sampleCount
}

func (a *Analyzer) fail(op string, err error) error {
	a.state = AnalyzerIdle
	return linkError(op, err)
}

func (a *Analyzer) expect(op string, states ...AnalyzerState) error {
	for _, s := range states {
		if a.state == s {
			return nil
		}
	}
	return errors.Wrapf(ErrAnalyzerState, "%s while %v", op, a.state)
}

// Clears any latched trigger. Required before arming.
func (a *Analyzer) Disarm() error {
	if err := a.expect("disarm", AnalyzerIdle, AnalyzerDisarmed, AnalyzerArmed); err != nil {
		return err
	}
	glog.V(1).Infof("[lac-disarm]")
	if _, err := a.link.Write(make([]byte, lacDisarmBytes)); err != nil {
		return a.fail("disarm", err)
	}
	a.state = AnalyzerDisarmed
	return nil
}

func (a *Analyzer) Arm(conf ArmConfig) error {
	if err := a.expect("arm", AnalyzerDisarmed); err != nil {
		return err
	}
	glog.V(1).Infof("[lac-arm]: select = 0x%02x, trigger = 0x%02x, mask = 0x%02x",
		conf.Select, conf.Trigger, conf.TriggerMask)
	cmd := []byte{lacCmdArm, conf.Select, conf.Trigger, conf.TriggerMask, 0x00}
	if _, err := a.link.Write(cmd); err != nil {
		return a.fail("arm", err)
	}
	a.state = AnalyzerArmed
	return nil
}

// Blocks until the device reports a trigger. There is no deadline: timed out
// reads are retried until a byte arrives, ctx is done, or the link fails.
func (a *Analyzer) WaitForTrigger(ctx context.Context) (int, error) {
	if err := a.expect("wait for trigger", AnalyzerArmed); err != nil {
		return 0, err
	}
	b := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := a.link.Read(b)
		if err != nil {
			return 0, a.fail("wait for trigger", err)
		}
		if n == 1 {
			break
		}
	}
	exponent := uint(b[0])
	glog.V(1).Infof("[lac-trigger]: size exponent = %d", exponent)
	if exponent >= 31 || 1<<exponent > a.maxSamples {
		a.state = AnalyzerIdle
		return 0, errors.Wrapf(ErrCaptureTooLarge, "device reports 2^%d samples, limit is %d",
			exponent, a.maxSamples)
	}
	a.sampleCount = 1 << exponent
	a.state = AnalyzerTriggered
	return a.sampleCount, nil
}

// Reads the triggered capture into sink, one (step, sample) record per byte.
func (a *Analyzer) Drain(sink SampleSink) error {
	if err := a.expect("drain", AnalyzerTriggered); err != nil {
		return err
	}
	a.state = AnalyzerDraining
	b := make([]byte, 1)
	for i := 0; i < a.sampleCount; i++ {
		if err := ReadFull(a.link, b); err != nil {
			return a.fail("drain", err)
		}
		if err := sink.PutStep(i); err != nil {
			a.state = AnalyzerIdle
			return errors.Wrapf(err, "sample %d", i)
		}
		if err := sink.PutSample(b[0]); err != nil {
			a.state = AnalyzerIdle
			return errors.Wrapf(err, "sample %d", i)
		}
	}
	a.state = AnalyzerIdle
	return nil
}

// Runs a whole capture: disarm, arm, wait for the trigger and drain.
func (a *Analyzer) Capture(ctx context.Context, conf ArmConfig, sink SampleSink) error {
	var err error
	if err = a.Disarm(); err != nil {
		return err
	}
	if err = a.Arm(conf); err != nil {
		return err
	}
	glog.Info("LAC armed; waiting for trigger condition...")
	var n int
	if n, err = a.WaitForTrigger(ctx); err != nil {
		return err
	}
	glog.Infof("TRIGGERED -- Reading 0x%x bytes...", n)
	return a.Drain(sink)
}
