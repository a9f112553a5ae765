// Copyright 2018 The gVisor Authors.
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

package log

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestDropMessages(t *testing.T) {
	tw := &testWriter{}
	w := &Writer{Next: tw}
	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	want := []string{
		"line 1\n",
		"line 2\n",
		"\n*** Dropped 2 log messages ***\n",
	}
	if diff := cmp.Diff(want, tw.lines); diff != "" {
		t.Errorf("unexpected lines (-want +got):\n%s", diff)
	}
}

type recordingEmitter struct {
	levels   []Level
	messages []string
}

func (r *recordingEmitter) Emit(_ int, level Level, _ time.Time, format string, v ...any) {
	r.levels = append(r.levels, level)
	r.messages = append(r.messages, fmt.Sprintf(format, v...))
}

func TestBasicLoggerLevels(t *testing.T) {
	for _, tc := range []struct {
		level Level
		want  []string
	}{
		{Warning, []string{"w"}},
		{Info, []string{"w", "i"}},
		{Debug, []string{"w", "i", "d"}},
	} {
		t.Run(tc.level.String(), func(t *testing.T) {
			r := &recordingEmitter{}
			l := NewBasicLogger(tc.level, r)
			l.Warningf("w")
			l.Infof("i")
			l.Debugf("d")
			if diff := cmp.Diff(tc.want, r.messages); diff != "" {
				t.Errorf("emitted messages (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGoogleEmitterFormat(t *testing.T) {
	tw := &testWriter{}
	e := GoogleEmitter{&Writer{Next: tw}}
	ts := time.Date(2026, time.May, 4, 13, 7, 9, 123456000, time.UTC)
	e.Emit(0, Warning, ts, "inserted %d objects", 3)
	if len(tw.lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(tw.lines), tw.lines)
	}
	line := tw.lines[0]
	if !strings.HasPrefix(line, "W0504 13:07:09.123456 ") {
		t.Errorf("line %q has unexpected header", line)
	}
	if !strings.Contains(line, "log_test.go:") {
		t.Errorf("line %q does not name the caller", line)
	}
	if !strings.HasSuffix(line, "] inserted 3 objects\n") {
		t.Errorf("line %q has unexpected message", line)
	}
}

func TestMultiEmitter(t *testing.T) {
	a, b := &recordingEmitter{}, &recordingEmitter{}
	m := MultiEmitter{a, b}
	l := NewBasicLogger(Info, &m)
	l.Infof("hello %s", "world")
	for i, r := range []*recordingEmitter{a, b} {
		if diff := cmp.Diff([]string{"hello world"}, r.messages); diff != "" {
			t.Errorf("emitter %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestRateLimitedLogger(t *testing.T) {
	r := &recordingEmitter{}
	l := RateLimitedLogger(NewBasicLogger(Info, r), time.Hour)
	for i := 0; i < 4; i++ {
		l.Infof("tick %d", i)
	}
	if diff := cmp.Diff([]string{"tick 0"}, r.messages); diff != "" {
		t.Errorf("rate limited messages (-want +got):\n%s", diff)
	}
	if !l.IsLogging(Info) || l.IsLogging(Debug) {
		t.Errorf("IsLogging does not follow the wrapped logger")
	}

	// Messages below the wrapped logger's level are not counted as dropped.
	l.Debugf("hidden")

	// Open the limiter: the next message reports what was dropped.
	l.(*rateLimitedLogger).limit.SetLimit(rate.Inf)
	l.Infof("tick %d", 4)
	l.Infof("tick %d", 5)
	want := []string{"tick 0", "tick 4 (3 messages suppressed)", "tick 5"}
	if diff := cmp.Diff(want, r.messages); diff != "" {
		t.Errorf("messages after opening the limiter (-want +got):\n%s", diff)
	}
}

func TestRateLimitedLoggerDisabled(t *testing.T) {
	r := &recordingEmitter{}
	l := RateLimitedLogger(NewBasicLogger(Info, r), 0)
	l.Warningf("never")
	if len(r.messages) != 0 {
		t.Errorf("zero interval logged %q", r.messages)
	}
}
