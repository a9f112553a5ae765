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

package refs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/intrusive/pkg/slist"
)

type listed struct {
	testObj
	link  slist.Link
	value int
}

type listedOps = PointerOps[listed, *listed]

type listedList = slist.List[listed, *listed, slist.FieldAdapter[listed, *listed]]

var (
	_ slist.ClonePointerOps[listed, *listed] = listedOps{}
	_ slist.Releaser[*listed]                = listedOps{}
)

func newListedList() *listedList {
	return slist.New[listed, *listed](slist.NewAdapter[listed, *listed](func(l *listed) *slist.Link { return &l.link }, listedOps{}))
}

func TestListOwnsReferences(t *testing.T) {
	l := newListedList()
	objs := make([]*listed, 3)
	for i := range objs {
		objs[i] = &listed{value: i}
		objs[i].IncRef() // One for the list, one for the test.
		l.PushFront(objs[i])
	}

	c := l.Front()
	p, ok := c.ClonePointer()
	if !ok || p != objs[2] {
		t.Fatalf("ClonePointer: got (%p, %t), want (%p, true)", p, ok, objs[2])
	}
	if got := p.ReadRefs(); got != 3 {
		t.Errorf("ReadRefs after ClonePointer: got %d, want 3", got)
	}
	p.DecRef()

	p, ok = l.PopFront()
	if !ok || p != objs[2] {
		t.Fatalf("PopFront: got (%p, %t), want (%p, true)", p, ok, objs[2])
	}
	if got := p.ReadRefs(); got != 2 {
		t.Errorf("ReadRefs after PopFront: got %d, want 2", got)
	}
	p.DecRef()

	l.Clear()
	var destroyed []int
	for _, o := range objs {
		if o.link.IsLinked() {
			t.Errorf("object %d still linked after Clear", o.value)
		}
		if got := o.ReadRefs(); got != 1 {
			t.Errorf("object %d: ReadRefs after Clear: got %d, want 1", o.value, got)
		}
		o.DecRef()
		destroyed = append(destroyed, o.destroyed)
	}
	if diff := cmp.Diff([]int{1, 1, 1}, destroyed); diff != "" {
		t.Errorf("destructor calls mismatch (-want +got):\n%s", diff)
	}
}

func TestListClearDestroys(t *testing.T) {
	l := newListedList()
	objs := []*listed{{value: 1}, {value: 2}}
	for _, o := range objs {
		l.PushFront(o)
	}
	l.Clear()
	for _, o := range objs {
		if o.destroyed != 1 {
			t.Errorf("object %d: destructor calls: got %d, want 1", o.value, o.destroyed)
		}
	}
}

func TestFastClearLeaks(t *testing.T) {
	withLeakMode(t, LeaksLogWarning, func() {
		l := newListedList()
		o := &listed{value: 7}
		o.EnableLeakCheck("listed")
		l.PushFront(o)
		l.FastClear()

		if got := DoRepeatedLeakCheck(); got != 1 {
			t.Errorf("leaked objects after FastClear: got %d, want 1", got)
		}

		// Reclaim the leaked reference by hand.
		o.link.ForceUnlink()
		o.DecRef()
		if got := DoRepeatedLeakCheck(); got != 0 {
			t.Errorf("leaked objects after reclaiming: got %d, want 0", got)
		}
	})
}
