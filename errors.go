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
	"fmt"

	"github.com/pkg/errors"
)

var (
	// Transport I/O failed. Fatal to the current session.
	ErrLinkFailure = errors.New("link failure")
	// Boot signature not seen within the probe budget.
	ErrDeviceNotFound = errors.New("device not found")
	// Bad numeric argument, image line or file.
	ErrMalformedInput = errors.New("malformed input")
	// Fewer bytes than expected before the read timeout. Reported inside a LinkError.
	ErrShortRead = errors.New("short read")
	// The transport rejected a setting.
	ErrNotSupported = errors.New("not supported by link")
	// Device reported a capture larger than the configured ceiling.
	ErrCaptureTooLarge = errors.New("capture too large")
	// Analyzer operation issued in the wrong state.
	ErrAnalyzerState = errors.New("invalid analyzer state")
)

// Transport failure during a protocol operation.
type LinkError struct {
	Op  string
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// Every LinkError is a link failure.
func (e *LinkError) Is(target error) bool {
	return target == ErrLinkFailure
}

func linkError(op string, err error) error {
	if err == nil {
		return nil
	}
	if le, ok := err.(*LinkError); ok {
		return le
	}
	return &LinkError{op, err}
}
