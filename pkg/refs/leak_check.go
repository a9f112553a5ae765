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

package refs

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"gvisor.dev/intrusive/pkg/atomicbitops"
	"gvisor.dev/intrusive/pkg/log"
	"gvisor.dev/intrusive/pkg/sync"
)

// LeakMode configures the leak checker.
type LeakMode uint32

const (
	// NoLeakChecking indicates that no effort should be made to check for
	// leaks.
	NoLeakChecking LeakMode = iota

	// LeaksLogWarning indicates that a warning should be logged when leaks
	// are found.
	LeaksLogWarning

	// LeaksLogTraces indicates that a trace collected during allocation
	// should be logged when leaks are found, and that every reference
	// change is logged with a stack.
	LeaksLogTraces

	// LeaksPanic indicates that a panic should be issued when leaks are
	// found.
	LeaksPanic
)

// Set implements flag.Value.
func (l *LeakMode) Set(v string) error {
	switch v {
	case "disabled":
		*l = NoLeakChecking
	case "log-names":
		*l = LeaksLogWarning
	case "log-traces":
		*l = LeaksLogTraces
	case "panic":
		*l = LeaksPanic
	default:
		return fmt.Errorf("invalid ref leak mode %q", v)
	}
	return nil
}

// Get implements flag.Value.
func (l *LeakMode) Get() any {
	return *l
}

// String implements flag.Value.
func (l LeakMode) String() string {
	switch l {
	case NoLeakChecking:
		return "disabled"
	case LeaksLogWarning:
		return "log-names"
	case LeaksLogTraces:
		return "log-traces"
	case LeaksPanic:
		return "panic"
	default:
		return fmt.Sprintf("LeakMode(%d)", uint32(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l LeakMode) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LeakMode) UnmarshalText(b []byte) error {
	return l.Set(string(b))
}

// leakMode stores the current mode for the reference leak checker.
//
// Values must be one of the LeakMode values.
var leakMode atomicbitops.Uint32

// SetLeakMode configures the reference leak checker.
func SetLeakMode(mode LeakMode) {
	leakMode.Store(uint32(mode))
}

// GetLeakMode returns the current leak mode.
func GetLeakMode() LeakMode {
	return LeakMode(leakMode.Load())
}

// CheckedObject represents a reference-counted object with an informative
// leak detection message.
type CheckedObject interface {
	// RefType is the type of the reference-counted object.
	RefType() string

	// LeakMessage supplies a warning to be printed upon leak detection.
	LeakMessage() string

	// LogRefs indicates whether reference-related events should be logged.
	LogRefs() bool
}

var (
	// liveObjects is a global map of reference-counted objects. Objects are
	// inserted when leak check is enabled, and they are removed when they
	// are destroyed.
	liveObjectsMu sync.Mutex
	liveObjects   = make(map[CheckedObject]struct{})
)

// LeakCheckEnabled returns whether leak checking is enabled. The following
// functions should only be called if it returns true.
func LeakCheckEnabled() bool {
	return GetLeakMode() != NoLeakChecking
}

// Register adds obj to the live object map.
func Register(obj CheckedObject) {
	if !LeakCheckEnabled() {
		return
	}
	liveObjectsMu.Lock()
	if _, ok := liveObjects[obj]; ok {
		liveObjectsMu.Unlock()
		panic(fmt.Sprintf("Unexpected entry in leak checking map: reference %p already added", obj))
	}
	liveObjects[obj] = struct{}{}
	liveObjectsMu.Unlock()
	if obj.LogRefs() {
		logEvent(obj, "registered")
	}
}

// Unregister removes obj from the live object map. obj must have been
// registered, even if leak checking has since been disabled.
func Unregister(obj CheckedObject) {
	liveObjectsMu.Lock()
	if _, ok := liveObjects[obj]; !ok {
		liveObjectsMu.Unlock()
		panic(fmt.Sprintf("Expected to find entry in leak checking map for reference %p", obj))
	}
	delete(liveObjects, obj)
	liveObjectsMu.Unlock()
	if obj.LogRefs() {
		logEvent(obj, "unregistered")
	}
}

// LogIncRef logs a reference increment.
func LogIncRef(obj CheckedObject, refs int64) {
	if obj.LogRefs() {
		logEvent(obj, fmt.Sprintf("IncRef to %d", refs))
	}
}

// LogTryIncRef logs a successful TryIncRef call.
func LogTryIncRef(obj CheckedObject, refs int64) {
	if obj.LogRefs() {
		logEvent(obj, fmt.Sprintf("TryIncRef to %d", refs))
	}
}

// LogDecRef logs a reference decrement.
func LogDecRef(obj CheckedObject, refs int64) {
	if obj.LogRefs() {
		logEvent(obj, fmt.Sprintf("DecRef to %d", refs))
	}
}

// logEvent logs a message for the given reference-counted object.
//
// obj.LogRefs() should be checked before calling logEvent, in order to avoid
// calling any text processing needed to evaluate msg.
func logEvent(obj CheckedObject, msg string) {
	log.Infof("[%s %p] %s:\n%s", obj.RefType(), obj, msg, FormatStack(RecordStack()))
}

// maxStackFrames is the maximum number of frames RecordStack collects.
const maxStackFrames = 40

// RecordStack constructs and returns the PCs on the current stack.
func RecordStack() []uintptr {
	pcs := make([]uintptr, maxStackFrames)
	// Skip runtime.Callers and RecordStack.
	n := runtime.Callers(2, pcs)
	return pcs[:n]
}

// FormatStack converts the given stack into a readable format.
func FormatStack(pcs []uintptr) string {
	frames := runtime.CallersFrames(pcs)
	var trace strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&trace, "\t%s:%d: %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return trace.String()
}

// checkOnce makes sure that leak checking is only done once. DoLeakCheck may
// be called from several exit paths.
var checkOnce sync.Once

// DoLeakCheck logs a message for each object still in the live object map.
// It should be called when no reference-counted objects are reachable
// anymore, at which point anything left in the map is considered a leak. On
// multiple calls, only the first call will perform the leak check.
func DoLeakCheck() {
	if LeakCheckEnabled() {
		checkOnce.Do(func() { doLeakCheck() })
	}
}

// DoRepeatedLeakCheck is the same as DoLeakCheck except that it can be called
// multiple times by the caller to incrementally perform leak checking. It
// returns the number of leaked objects.
func DoRepeatedLeakCheck() int {
	if !LeakCheckEnabled() {
		return 0
	}
	return doLeakCheck()
}

func doLeakCheck() int {
	liveObjectsMu.Lock()
	msgs := make([]string, 0, len(liveObjects))
	for obj := range liveObjects {
		msgs = append(msgs, obj.LeakMessage())
	}
	liveObjectsMu.Unlock()

	if len(msgs) == 0 {
		return 0
	}
	sort.Strings(msgs)
	msg := fmt.Sprintf("Leak checking detected %d leaked objects:\n%s\n", len(msgs), strings.Join(msgs, "\n"))
	if GetLeakMode() == LeaksPanic {
		panic(msg)
	}
	log.Warningf("%s", msg)
	return len(msgs)
}
