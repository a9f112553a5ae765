// Copyright 2020 The gVisor Authors.
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
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// jsonRecord is one line of JSONEmitter output.
//
// Messages in this module start with the name of the component that logged
// them ("slist: ...", "bench: ..."). That prefix is split off into Component
// so records can be filtered without parsing Msg.
type jsonRecord struct {
	Time      time.Time `json:"time"`
	Level     Level     `json:"level"`
	Caller    string    `json:"caller,omitempty"`
	Component string    `json:"component,omitempty"`
	Msg       string    `json:"msg"`
}

var levelNames = [...]string{
	Warning: "warning",
	Info:    "info",
	Debug:   "debug",
}

// MarshalJSON implements json.Marshaler.MarshalJSON.
func (l Level) MarshalJSON() ([]byte, error) {
	if int(l) >= len(levelNames) {
		return nil, fmt.Errorf("unknown level %v", l)
	}
	return []byte(strconv.Quote(levelNames[l])), nil
}

// UnmarshalJSON implements json.Unmarshaler.UnmarshalJSON. It accepts both
// level names and their integer values.
func (l *Level) UnmarshalJSON(b []byte) error {
	s := string(b)
	if n, err := strconv.ParseUint(s, 10, 32); err == nil && n < uint64(len(levelNames)) {
		*l = Level(n)
		return nil
	}
	for i, name := range levelNames {
		if s == strconv.Quote(name) {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown level %q", s)
}

// splitComponent splits a leading "component: " off msg. Only a single
// lowercase word qualifies.
func splitComponent(msg string) (string, string) {
	i := strings.Index(msg, ": ")
	if i <= 0 {
		return "", msg
	}
	for _, r := range msg[:i] {
		if (r < 'a' || r > 'z') && r != '-' {
			return "", msg
		}
	}
	return msg[:i], msg[i+2:]
}

// JSONEmitter logs messages as one JSON object per line.
type JSONEmitter struct {
	*Writer
}

// Emit implements Emitter.Emit.
func (e JSONEmitter) Emit(depth int, level Level, timestamp time.Time, format string, v ...any) {
	rec := jsonRecord{
		Time:  timestamp,
		Level: level,
	}
	rec.Component, rec.Msg = splitComponent(fmt.Sprintf(format, v...))
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		if slash := strings.LastIndexByte(file, '/'); slash >= 0 {
			file = file[slash+1:]
		}
		rec.Caller = file + ":" + strconv.Itoa(line)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		// Only an out of range level gets here. Keep the message.
		fmt.Fprintf(e.Writer, "%s %s", rec.Caller, rec.Msg)
		return
	}
	e.Writer.Write(b)
}
