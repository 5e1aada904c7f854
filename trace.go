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

// In-memory analyzer captures.
package lm32

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Number of probe wires sampled per step.
const ProbeWidth = 8

// Samples of one capture, indexed by step.
type Trace []byte

// Implements SampleSink. Steps must arrive in order starting at 0.
func (t *Trace) PutStep(index int) error {
	if index != len(*t) {
		return fmt.Errorf("Unexpected step %d, have %d samples", index, len(*t))
	}
	return nil
}

func (t *Trace) PutSample(value byte) error {
	*t = append(*t, value)
	return nil
}

// Collects all probe levels in a single m (#samples) by n (#probes) matrix.
// Row i is sample i, column j holds bit j of every sample as 0 or 1.
func (t Trace) ProbeMatrix() mat.Matrix {
	rows := len(t)
	if rows == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, rows*ProbeWidth)
	for i, v := range t {
		for j := 0; j < ProbeWidth; j++ {
			data[i*ProbeWidth+j] = float64((v >> uint(j)) & 1)
		}
	}
	return mat.NewDense(rows, ProbeWidth, data)
}

// Fraction of samples in which each probe is high.
func (t Trace) DutyCycles() []float64 {
	duty := make([]float64, ProbeWidth)
	if len(t) == 0 {
		return duty
	}
	m := t.ProbeMatrix()
	for j := range duty {
		duty[j] = stat.Mean(mat.Col(nil, j, m), nil)
	}
	return duty
}

// Number of level changes seen on each probe.
func (t Trace) Transitions() []int {
	edges := make([]int, ProbeWidth)
	for i := 1; i < len(t); i++ {
		diff := t[i] ^ t[i-1]
		for j := 0; j < ProbeWidth; j++ {
			if diff&(1<<uint(j)) != 0 {
				edges[j]++
			}
		}
	}
	return edges
}
