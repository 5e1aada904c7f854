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

package util_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soc-lm32/lm32/util"
)

func startBroker(t *testing.T) *util.Broker {
	t.Helper()
	b := util.NewBroker()
	go b.Start()
	t.Cleanup(b.Stop)
	return b
}

func receive(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case name := <-ch:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("No notification received")
	}
	return ""
}

func TestCaptureName(t *testing.T) {
	for path, want := range map[string]string{
		"/tmp/captures/lac.vcd": "lac",
		"boot.vcd":              "boot",
		"notes.txt":             "",
		"lac.vcd.swp":           "",
		".vcd":                  "",
	} {
		if got := util.CaptureName(path); got != want {
			t.Errorf("CaptureName(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestBrokerDelivers(t *testing.T) {
	b := startBroker(t)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	b.Publish("lac")
	if name := receive(t, ch); name != "lac" {
		t.Errorf("Received %q, want %q", name, "lac")
	}
}

func TestBrokerCoalescesPendingChanges(t *testing.T) {
	b := startBroker(t)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	for _, name := range []string{"lac", "lac", "lac", "boot"} {
		b.Publish(name)
	}
	for _, want := range []string{"lac", "boot"} {
		if name := receive(t, ch); name != want {
			t.Errorf("Received %q, want %q", name, want)
		}
	}
	select {
	case name := <-ch:
		t.Errorf("Unexpected notification %q", name)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBrokerPublishPathFilters(t *testing.T) {
	b := startBroker(t)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	b.PublishPath("/captures/notes.txt")
	b.PublishPath("/captures/irq.vcd")
	if name := receive(t, ch); name != "irq" {
		t.Errorf("Received %q, want %q", name, "irq")
	}
}

func TestWaitForChange(t *testing.T) {
	b := startBroker(t)

	if name, err := b.WaitForChange(context.Background(), 10*time.Millisecond); name != "" || err != nil {
		t.Errorf("WaitForChange without changes = %q, %v", name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.WaitForChange(ctx, time.Minute); err != context.Canceled {
		t.Errorf("WaitForChange after cancel = %v, want %v", err, context.Canceled)
	}

	done := make(chan string, 1)
	go func() {
		name, _ := b.WaitForChange(context.Background(), time.Minute)
		done <- name
	}()
	deadline := time.After(5 * time.Second)
	for {
		// The waiter subscribes asynchronously, keep publishing until it lands.
		b.Publish("lac")
		select {
		case name := <-done:
			if name != "lac" {
				t.Errorf("WaitForChange = %q, want %q", name, "lac")
			}
			return
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("WaitForChange never returned")
		}
	}
}

func TestBrokerStopped(t *testing.T) {
	b := util.NewBroker()
	go b.Start()
	b.Stop()
	done := make(chan struct{})
	go func() {
		b.Publish("lac")
		b.Publish("lac")
		ch := b.Subscribe()
		b.Unsubscribe(ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broker calls blocked after Stop")
	}
}

func TestWatchPublishesCaptures(t *testing.T) {
	dir, err := ioutil.TempDir("", "captures")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	b := startBroker(t)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	if err := b.Watch(dir); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "lac.vcd"), []byte("$end\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if name := receive(t, ch); name != "lac" {
		t.Errorf("Received %q, want %q", name, "lac")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	b := startBroker(t)
	if err := b.Watch(filepath.Join(os.TempDir(), "no-such-captures-dir")); err == nil {
		t.Errorf("Watch of a missing directory succeeded")
	}
}
