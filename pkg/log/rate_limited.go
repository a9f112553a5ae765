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
	"time"

	"golang.org/x/time/rate"
	"gvisor.dev/intrusive/pkg/atomicbitops"
)

// rateLimitedLogger forwards at most one message per interval. Messages it
// drops are counted and reported with the next one it forwards, so progress
// output from busy loops stays short without hiding how much was skipped.
type rateLimitedLogger struct {
	logger Logger
	limit  *rate.Limiter

	// suppressed is the number of messages dropped since the last one
	// forwarded.
	suppressed atomicbitops.Uint64
}

func (rl *rateLimitedLogger) logf(f func(string, ...any), format string, v []any) {
	if !rl.limit.Allow() {
		rl.suppressed.Add(1)
		return
	}
	if n := rl.suppressed.Swap(0); n > 0 {
		f(format+" (%d messages suppressed)", append(v[:len(v):len(v)], n)...)
		return
	}
	f(format, v...)
}

// Debugf implements Logger.Debugf.
func (rl *rateLimitedLogger) Debugf(format string, v ...any) {
	if rl.logger.IsLogging(Debug) {
		rl.logf(rl.logger.Debugf, format, v)
	}
}

// Infof implements Logger.Infof.
func (rl *rateLimitedLogger) Infof(format string, v ...any) {
	if rl.logger.IsLogging(Info) {
		rl.logf(rl.logger.Infof, format, v)
	}
}

// Warningf implements Logger.Warningf.
func (rl *rateLimitedLogger) Warningf(format string, v ...any) {
	rl.logf(rl.logger.Warningf, format, v)
}

// IsLogging implements Logger.IsLogging.
func (rl *rateLimitedLogger) IsLogging(level Level) bool {
	return rl.logger.IsLogging(level)
}

// RateLimitedLogger returns a Logger that logs to the provided logger no more
// than once per the provided duration. A non-positive duration disables
// logging through the returned Logger altogether.
func RateLimitedLogger(logger Logger, every time.Duration) Logger {
	limit := rate.NewLimiter(0, 0)
	if every > 0 {
		limit = rate.NewLimiter(rate.Every(every), 1)
	}
	return &rateLimitedLogger{
		logger: logger,
		limit:  limit,
	}
}
