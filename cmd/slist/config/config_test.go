// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/intrusive/pkg/refs"
)

func newFlagSet(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return fs
}

func TestDefaults(t *testing.T) {
	c, err := NewFromFlags(newFlagSet(t))
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	want := &Config{
		LogFormat:        "text",
		ReferenceLeak:    refs.NoLeakChecking,
		Elements:         1024,
		Goroutines:       4,
		Rounds:           100,
		ProgressInterval: time.Second,
		Ops:              10000,
		Seed:             1,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("NewFromFlags() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFlags(t *testing.T) {
	fs := newFlagSet(t, "--debug", "--log-format=json", "--ref-leak-mode=log-traces", "--goroutines=16", "--progress-interval=250ms")
	c, err := NewFromFlags(fs)
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	if !c.Debug {
		t.Errorf("Debug: got false, want true")
	}
	if c.LogFormat != "json" {
		t.Errorf("LogFormat: got %q, want json", c.LogFormat)
	}
	if c.ReferenceLeak != refs.LeaksLogTraces {
		t.Errorf("ReferenceLeak: got %v, want %v", c.ReferenceLeak, refs.LeaksLogTraces)
	}
	if c.Goroutines != 16 {
		t.Errorf("Goroutines: got %d, want 16", c.Goroutines)
	}
	if c.ProgressInterval != 250*time.Millisecond {
		t.Errorf("ProgressInterval: got %v, want 250ms", c.ProgressInterval)
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{name: "log format", args: []string{"--log-format=xml"}},
		{name: "goroutines", args: []string{"--goroutines=0"}},
		{name: "elements", args: []string{"--elements=-1"}},
		{name: "rounds", args: []string{"--rounds=-3"}},
		{name: "interval", args: []string{"--progress-interval=-1s"}},
		{name: "ops", args: []string{"--ops=-1"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFromFlags(newFlagSet(t, tc.args...)); err == nil {
				t.Errorf("NewFromFlags(%v) succeeded, want error", tc.args)
			}
		})
	}
}

func TestBadLeakMode(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&discard{})
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--ref-leak-mode=sometimes"}); err == nil {
		t.Errorf("Parse accepted an invalid leak mode")
	}
}

type discard struct{}

func (*discard) Write(b []byte) (int, error) { return len(b), nil }

func TestDecode(t *testing.T) {
	fs := newFlagSet(t, "--goroutines=2")
	const doc = `
debug = true
ref-leak-mode = "log-names"
goroutines = 8
elements = 64
progress-interval = "500ms"
`
	if err := Decode(fs, doc); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c, err := NewFromFlags(fs)
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	if !c.Debug || c.ReferenceLeak != refs.LeaksLogWarning || c.Elements != 64 || c.ProgressInterval != 500*time.Millisecond {
		t.Errorf("config file values not applied: %+v", c)
	}
	// The command line wins over the file.
	if c.Goroutines != 2 {
		t.Errorf("Goroutines: got %d, want 2", c.Goroutines)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
	}{
		{name: "unknown flag", doc: `bogus = 1`},
		{name: "bad value", doc: `goroutines = "many"`},
		{name: "table value", doc: "[debug]\nx = 1"},
		{name: "syntax", doc: `debug = `},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if err := Decode(newFlagSet(t), tc.doc); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tc.doc)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slist.toml")
	if err := os.WriteFile(path, []byte("rounds = 7\nseed = 42\n"), 0644); err != nil {
		t.Fatal(err)
	}
	fs := newFlagSet(t)
	if err := LoadFile(fs, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	c, err := NewFromFlags(fs)
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	if c.Rounds != 7 || c.Seed != 42 {
		t.Errorf("got rounds=%d seed=%d, want rounds=7 seed=42", c.Rounds, c.Seed)
	}

	if err := LoadFile(newFlagSet(t), filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("LoadFile on a missing file succeeded")
	}
}
