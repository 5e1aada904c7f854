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

package util

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// File extension of logic analyzer captures.
const CaptureExt = ".vcd"

// Name of the capture stored at path, or "" if path is not a capture.
func CaptureName(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, CaptureExt) || base == CaptureExt {
		return ""
	}
	return strings.TrimSuffix(base, CaptureExt)
}

// Fans capture change notifications out from one publisher to any number of
// subscribers. A subscriber that has not caught up sees repeated changes of
// the same capture only once.
type Broker struct {
	stopCh    chan struct{}
	publishCh chan string
	subCh     chan chan string
	unsubCh   chan chan string
}

func NewBroker() *Broker {
	return &Broker{
		stopCh:    make(chan struct{}),
		publishCh: make(chan string, 1),
		subCh:     make(chan chan string),
		unsubCh:   make(chan chan string),
	}
}

func (b *Broker) Start() {
	subs := map[chan string]string{}
	for {
		select {
		case <-b.stopCh:
			return
		case ch := <-b.subCh:
			subs[ch] = ""
		case ch := <-b.unsubCh:
			delete(subs, ch)
		case name := <-b.publishCh:
			for ch, last := range subs {
				if name == last && len(ch) > 0 {
					continue
				}
				select {
				case ch <- name:
					subs[ch] = name
				default:
				}
			}
		}
	}
}

func (b *Broker) Stop() {
	close(b.stopCh)
}

// The subscription is in place when Subscribe returns.
func (b *Broker) Subscribe() chan string {
	ch := make(chan string, 5)
	select {
	case b.subCh <- ch:
	case <-b.stopCh:
	}
	return ch
}

func (b *Broker) Unsubscribe(ch chan string) {
	select {
	case b.unsubCh <- ch:
	case <-b.stopCh:
	}
}

// Announces that the capture called name changed. Does nothing once the
// broker is stopped.
func (b *Broker) Publish(name string) {
	select {
	case b.publishCh <- name:
	case <-b.stopCh:
	}
}

// Publishes the capture stored at path. Other files are ignored.
func (b *Broker) PublishPath(path string) {
	if name := CaptureName(path); name != "" {
		b.Publish(name)
	}
}

// Waits up to timeout for a capture to change and returns its name. Returns
// "" on timeout, and ctx.Err() if ctx is done first.
func (b *Broker) WaitForChange(ctx context.Context, timeout time.Duration) (string, error) {
	changed := b.Subscribe()
	defer b.Unsubscribe(changed)

	timedOut := time.NewTimer(timeout)
	defer timedOut.Stop()
	select {
	case <-timedOut.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.stopCh:
		return "", nil
	case name := <-changed:
		return name, nil
	}
}

// Publishes changes to captures in dir until the broker is stopped.
func (b *Broker) Watch(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "NewWatcher failed")
	}
	if err = watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watching %s failed", dir)
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-b.stopCh:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					glog.Warning("watcher.Events is not ok. Aborting")
					return
				}
				glog.V(1).Infof("Watcher event: %v", event)
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					b.PublishPath(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					glog.Warning("watcher.Errors is not ok. Aborting")
					return
				}
				glog.Warningf("Watcher error: %v", err)
			}
		}
	}()
	return nil
}
