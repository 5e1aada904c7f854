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

package lm32

import (
	"io"
)

// Observer for long running link operations.
type Progress interface {
	// One unit of work done: a probe, a chunk, a line.
	Tick()
	// Status message, written as is.
	Info(msg string)
}

type writerProgress struct {
	w io.Writer
}

// Prints a dot per tick.
func NewWriterProgress(w io.Writer) Progress {
	return &writerProgress{w}
}

func (p *writerProgress) Tick() {
	io.WriteString(p.w, ".")
}

func (p *writerProgress) Info(msg string) {
	io.WriteString(p.w, msg)
}

type nopProgress struct{}

func (nopProgress) Tick()       {}
func (nopProgress) Info(string) {}

var NopProgress Progress = nopProgress{}
