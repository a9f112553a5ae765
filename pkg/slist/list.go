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

package slist

import (
	"fmt"
	"strings"

	"gvisor.dev/intrusive/pkg/log"
	"gvisor.dev/intrusive/pkg/sync"
)

// List is an intrusive singly-linked list of T, owning its elements through
// pointers of kind P as described by adapter A.
//
// The zero value for List is an empty list ready to use if the zero value of A
// is a valid adapter; otherwise use New or Init.
//
// To iterate over a list:
//
//	for v := range l.All() {
//		// do something with v.
//	}
//
// Lists are not safe for concurrent mutation. Exclusive access is checked at
// runtime instead: creating a CursorMut (which every mutating method does)
// revokes any earlier CursorMut and every existing read-only Cursor and
// iterator of the list. Read-only cursors taken from the live CursorMut (see
// CursorMut.AsCursor) are revoked again by its next structural change. Using
// a revoked cursor panics with an error wrapping ErrStaleCursor.
//
// Go has no destructors: a List whose pointer kind needs releasing (see
// Releaser) must be cleared or drained before it is dropped.
type List[T, P any, A Adapter[T, P]] struct {
	_ sync.NoCopy

	head    *Link
	adapter A

	// gen is incremented by every structural change.
	gen uint64

	// writer is the token of the only CursorMut allowed to use the list.
	writer uint64
}

// New returns an empty list using adapter.
func New[T, P any, A Adapter[T, P]](adapter A) *List[T, P, A] {
	return &List[T, P, A]{adapter: adapter}
}

// Init sets the adapter of an empty list, typically one embedded in another
// struct.
func (l *List[T, P, A]) Init(adapter A) {
	if l.head != nil {
		panic("slist: Init of a non-empty list")
	}
	l.adapter = adapter
	l.gen++
	l.writer++
}

// Adapter returns the list's adapter.
func (l *List[T, P, A]) Adapter() A {
	return l.adapter
}

// Empty returns true iff the list is empty.
func (l *List[T, P, A]) Empty() bool {
	return l.head == nil
}

// Len returns the number of elements in the list.
//
// NOTE: This is an O(n) operation.
func (l *List[T, P, A]) Len() (count int) {
	ops := l.adapter.LinkOps()
	for x := l.head; x != nil; x = ops.Next(x) {
		count++
	}
	return count
}

// Cursor returns a read-only cursor at the null position, before the first
// element.
func (l *List[T, P, A]) Cursor() Cursor[T, P, A] {
	return Cursor[T, P, A]{list: l, gen: l.gen}
}

// CursorMut returns a mutable cursor at the null position, before the first
// element. Any CursorMut previously obtained from l is revoked.
func (l *List[T, P, A]) CursorMut() CursorMut[T, P, A] {
	return CursorMut[T, P, A]{list: l, token: l.acquire()}
}

// CursorFromPtr returns a read-only cursor pointing at v.
//
// Precondition: v is an element of l. Only the weaker condition that v is
// linked at all is checked.
func (l *List[T, P, A]) CursorFromPtr(v *T) Cursor[T, P, A] {
	c := l.Cursor()
	c.current = l.memberLink(v)
	return c
}

// CursorMutFromPtr returns a mutable cursor pointing at v.
//
// Precondition: v is an element of l, as for CursorFromPtr.
func (l *List[T, P, A]) CursorMutFromPtr(v *T) CursorMut[T, P, A] {
	c := l.CursorMut()
	c.current = l.memberLink(v)
	return c
}

// Front returns a read-only cursor pointing at the first element, or a null
// cursor if the list is empty.
func (l *List[T, P, A]) Front() Cursor[T, P, A] {
	c := l.Cursor()
	c.MoveNext()
	return c
}

// FrontMut returns a mutable cursor pointing at the first element, or a null
// cursor if the list is empty.
func (l *List[T, P, A]) FrontMut() CursorMut[T, P, A] {
	c := l.CursorMut()
	c.MoveNext()
	return c
}

// PushFront inserts p at the front of the list.
//
// PushFront panics with an *InsertError if p's link is already linked.
func (l *List[T, P, A]) PushFront(p P) {
	c := l.CursorMut()
	c.InsertAfter(p)
}

// PopFront removes the first element and returns it. It returns false if the
// list is empty.
func (l *List[T, P, A]) PopFront() (P, bool) {
	c := l.CursorMut()
	return c.RemoveNext()
}

// Clear removes all elements, unlinking each one and handing its owning
// pointer to the pointer kind's Release, if it has one.
//
// NOTE: This is an O(n) operation.
func (l *List[T, P, A]) Clear() {
	l.acquire()
	x := l.head
	l.head = nil
	l.gen++

	ops := l.adapter.LinkOps()
	pops := l.adapter.PointerOps()
	release, _ := pops.(Releaser[P])
	for x != nil {
		next := ops.Next(x)
		ops.MarkUnlinked(x)
		p := pops.FromRaw(l.adapter.GetValue(x))
		if release != nil {
			release.Release(p)
		}
		x = next
	}
}

// FastClear empties the list in O(1) without unlinking its elements or
// releasing their pointers.
//
// The former elements still report being linked, so inserting any of them
// into a list panics until Link.ForceUnlink is called on it. Their ownership
// is not returned to anyone: pointer kinds that need releasing will leak.
func (l *List[T, P, A]) FastClear() {
	l.acquire()
	if l.head != nil && log.IsLogging(log.Debug) {
		log.Debugf("slist: fast clear of %p leaves its elements linked", l)
	}
	l.head = nil
	l.gen++
}

// Take moves all elements of l into a new list and returns it, leaving l
// empty.
func (l *List[T, P, A]) Take() *List[T, P, A] {
	l.acquire()
	m := &List[T, P, A]{head: l.head, adapter: l.adapter}
	l.head = nil
	l.gen++
	return m
}

// String renders the list as its elements in order, each formatted with %v
// (using *T's String method if it has one).
func (l *List[T, P, A]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	ops := l.adapter.LinkOps()
	for x := l.head; x != nil; x = ops.Next(x) {
		if x != l.head {
			b.WriteByte(' ')
		}
		v := l.adapter.GetValue(x)
		if s, ok := any(v).(fmt.Stringer); ok {
			b.WriteString(s.String())
		} else {
			fmt.Fprintf(&b, "%v", *v)
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Check verifies the structure of the list: every reachable link reports
// linked and the chain is acyclic. It is O(n) and intended for tests and
// debugging.
func (l *List[T, P, A]) Check() error {
	ops := l.adapter.LinkOps()
	// slow advances at half the speed of x; they only meet on a cycle.
	slow := l.head
	for n, x := 0, l.head; x != nil; n++ {
		if !ops.IsLinked(x) {
			return fmt.Errorf("element %d is reachable but not linked", n)
		}
		x = ops.Next(x)
		if n%2 == 1 {
			slow = ops.Next(slow)
		}
		if x != nil && x == slow {
			return fmt.Errorf("cycle detected after %d elements", n+1)
		}
	}
	return nil
}

// acquire revokes the current CursorMut and all read-only cursors, and returns
// a token for a new CursorMut.
func (l *List[T, P, A]) acquire() uint64 {
	l.gen++
	l.writer++
	return l.writer
}

// checkAdapter panics unless other links and owns its elements the same way
// as l.
func (l *List[T, P, A]) checkAdapter(other *List[T, P, A]) {
	if m, ok := any(l.adapter).(interface{ sameAs(A) bool }); ok {
		if !m.sameAs(other.adapter) {
			panic(fmt.Errorf("slist: %w: cannot splice %p into %p", ErrAdapterMismatch, other, l))
		}
		return
	}
	// Other adapters are compared by where they place other's first link.
	if h := other.head; h != nil && l.adapter.GetLink(other.adapter.GetValue(h)) != h {
		panic(fmt.Errorf("slist: %w: cannot splice %p into %p", ErrAdapterMismatch, other, l))
	}
}

// linkFromValue takes ownership of p and returns its link, which must be
// unlinked.
func (l *List[T, P, A]) linkFromValue(p P) *Link {
	pops := l.adapter.PointerOps()
	raw := pops.IntoRaw(p)
	link := l.adapter.GetLink(raw)
	if l.adapter.LinkOps().IsLinked(link) {
		// Give the pointer back before refusing.
		p = pops.FromRaw(raw)
		log.Warningf("slist: refusing to insert %T %p into list %p: already linked", raw, raw, l)
		panic(&InsertError[P]{Ptr: p})
	}
	return link
}

// memberLink returns v's link, which must be linked.
func (l *List[T, P, A]) memberLink(v *T) *Link {
	link := l.adapter.GetLink(v)
	if !l.adapter.LinkOps().IsLinked(link) {
		panic(fmt.Sprintf("slist: %T %p is not an element of any list", v, v))
	}
	return link
}
