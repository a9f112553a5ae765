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

package refs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testObj struct {
	AtomicRefCount
	destroyed int
}

func (t *testObj) DecRef() {
	t.DecRefWithDestructor(func() { t.destroyed++ })
}

type testUser struct {
	name string
	gone *[]string
}

func (u *testUser) WeakRefGone() {
	*u.gone = append(*u.gone, u.name)
}

// withLeakMode runs f with the given leak mode and restores the previous one.
func withLeakMode(t *testing.T, mode LeakMode, f func()) {
	t.Helper()
	old := GetLeakMode()
	SetLeakMode(mode)
	defer SetLeakMode(old)
	f()
}

func expectPanic(t *testing.T, what string, f func()) (r any) {
	t.Helper()
	defer func() {
		r = recover()
		if r == nil {
			t.Errorf("%s did not panic", what)
		}
	}()
	f()
	return nil
}

func TestRefCount(t *testing.T) {
	o := &testObj{}
	if got := o.ReadRefs(); got != 1 {
		t.Fatalf("ReadRefs on new object: got %d, want 1", got)
	}
	o.IncRef()
	o.IncRef()
	if got := o.ReadRefs(); got != 3 {
		t.Errorf("ReadRefs after two IncRef: got %d, want 3", got)
	}
	o.DecRef()
	o.DecRef()
	if o.destroyed != 0 {
		t.Errorf("object destroyed with a reference outstanding")
	}
	o.DecRef()
	if o.destroyed != 1 {
		t.Errorf("destructor calls: got %d, want 1", o.destroyed)
	}
	if o.TryIncRef() {
		t.Errorf("TryIncRef succeeded on a destroyed object")
	}
	expectPanic(t, "DecRef below zero", o.DecRef)
}

func TestTryIncRef(t *testing.T) {
	o := &testObj{}
	if !o.TryIncRef() {
		t.Fatalf("TryIncRef failed on a live object")
	}
	if got := o.ReadRefs(); got != 2 {
		t.Errorf("ReadRefs after TryIncRef: got %d, want 2", got)
	}
	o.DecRef()
	o.DecRef()
	if o.destroyed != 1 {
		t.Errorf("destructor calls: got %d, want 1", o.destroyed)
	}
}

func TestWeakRef(t *testing.T) {
	o := &testObj{}
	var gone []string
	w1 := NewWeakRef(o, &testUser{name: "w1", gone: &gone})
	w2 := NewWeakRef(o, &testUser{name: "w2", gone: &gone})
	w3 := NewWeakRef(o, nil)

	rc := w1.Get()
	if rc == nil {
		t.Fatalf("Get on a live object returned nil")
	}
	if rc.(*testObj) != o {
		t.Errorf("Get returned %p, want %p", rc, o)
	}
	if got := o.ReadRefs(); got != 2 {
		t.Errorf("ReadRefs after Get: got %d, want 2", got)
	}
	rc.DecRef()

	// Dropping a weak reference unlinks it without notifying its user.
	w2.Drop()
	if got := o.weakRefs.Len(); got != 2 {
		t.Errorf("weak refs after Drop: got %d, want 2", got)
	}

	o.DecRef()
	if o.destroyed != 1 {
		t.Errorf("destructor calls: got %d, want 1", o.destroyed)
	}
	if diff := cmp.Diff([]string{"w1"}, gone); diff != "" {
		t.Errorf("WeakRefGone calls mismatch (-want +got):\n%s", diff)
	}
	if !o.weakRefs.Empty() {
		t.Errorf("weak refs remain after destruction")
	}
	for i, w := range []*WeakRef{w1, w3} {
		if rc := w.Get(); rc != nil {
			t.Errorf("weak ref %d: Get after destruction returned %v", i, rc)
		}
		if w.weakRefEntry.IsLinked() {
			t.Errorf("weak ref %d still linked after destruction", i)
		}
		// Dropping a zapped weak reference is a no-op.
		w.Drop()
	}
}

func TestLeakCheck(t *testing.T) {
	withLeakMode(t, LeaksLogWarning, func() {
		leaked := &testObj{}
		leaked.EnableLeakCheck("testObj")
		freed := &testObj{}
		freed.EnableLeakCheck("testObj")
		freed.DecRef()

		if got := DoRepeatedLeakCheck(); got != 1 {
			t.Errorf("leaked objects: got %d, want 1", got)
		}
		if msg := leaked.LeakMessage(); !strings.Contains(msg, "reference count of 1 instead of 0") {
			t.Errorf("LeakMessage = %q", msg)
		}

		leaked.DecRef()
		if got := DoRepeatedLeakCheck(); got != 0 {
			t.Errorf("leaked objects after DecRef: got %d, want 0", got)
		}
	})
}

func TestLeakCheckPanics(t *testing.T) {
	withLeakMode(t, LeaksPanic, func() {
		o := &testObj{}
		o.EnableLeakCheck("testObj")
		r := expectPanic(t, "leak check", func() { DoRepeatedLeakCheck() })
		if msg, _ := r.(string); !strings.Contains(msg, "[testObj ") {
			t.Errorf("panic message %q does not name the object", msg)
		}
		o.DecRef()
	})
}

func TestLeakCheckTraces(t *testing.T) {
	withLeakMode(t, LeaksLogTraces, func() {
		o := &testObj{}
		o.EnableLeakCheck("traced")
		if !o.LogRefs() {
			t.Errorf("LogRefs = false in log-traces mode")
		}
		if msg := o.LeakMessage(); !strings.Contains(msg, "TestLeakCheckTraces") {
			t.Errorf("LeakMessage does not include the allocation stack:\n%s", msg)
		}
		o.IncRef()
		o.DecRef()
		o.DecRef()
	})
}

func TestLeakCheckDisabled(t *testing.T) {
	withLeakMode(t, NoLeakChecking, func() {
		o := &testObj{}
		o.EnableLeakCheck("untracked")
		if o.RefType() != "" {
			t.Errorf("object registered with leak checking disabled")
		}
		if got := DoRepeatedLeakCheck(); got != 0 {
			t.Errorf("DoRepeatedLeakCheck: got %d, want 0", got)
		}
		o.DecRef()
	})
}

func TestLeakModeFlag(t *testing.T) {
	for _, name := range []string{"disabled", "log-names", "log-traces", "panic"} {
		var m LeakMode
		if err := m.Set(name); err != nil {
			t.Errorf("Set(%q): %v", name, err)
			continue
		}
		if got := m.String(); got != name {
			t.Errorf("Set(%q).String() = %q", name, got)
		}
	}
	var m LeakMode
	if err := m.UnmarshalText([]byte("sometimes")); err == nil {
		t.Errorf("UnmarshalText accepted an unknown mode")
	}
}
