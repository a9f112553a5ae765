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

// Package slist provides an intrusive singly-linked list.
//
// Objects join a list through a Link embedded in them, so insertion and
// removal never allocate. An Adapter binds a container type to one of its
// Link fields and to a PointerOps describing how ownership of the container
// moves into and out of the list. An object with several Link fields can be
// a member of several lists at once, one per field.
//
// All structural edits are made through a CursorMut, relative to the element
// after the cursor, and cost O(1):
//
//	c := l.CursorMut()
//	c.InsertAfter(a) // l is [a]
//	c.MoveNext()
//	c.InsertAfter(b) // l is [a b]
//	old, _ := c.RemoveNext()
//
// Lists are not synchronized. See List for the runtime checks that stand in
// for exclusive access.
package slist

import "gvisor.dev/intrusive/pkg/sync"

// Link is the intrusive link that allows an object to be inserted into a List.
//
// The zero value is an unlinked Link. A Link must not be copied, since the copy
// would claim membership of a list it is not part of; use Clone to obtain a
// fresh one.
type Link struct {
	_ sync.NoCopy

	// next is nil when the link is not part of any list, &endOfChain when it is
	// the last element of a list, and the following element's link otherwise.
	next *Link
}

// endOfChain terminates every list. Its address is distinguishable from both
// nil (unlinked) and any real Link.
var endOfChain Link

// IsLinked returns true if l is currently part of a list.
func (l *Link) IsLinked() bool {
	return l.next != nil
}

// ForceUnlink marks l as unlinked regardless of the list it is in.
//
// It is only useful after List.FastClear, which forgets its elements without
// unlinking them. Calling ForceUnlink on a link that is still reachable from a
// list corrupts that list.
func (l *Link) ForceUnlink() {
	l.next = nil
}

// Clone returns a new, unlinked Link. List membership is never duplicated.
func (l *Link) Clone() Link {
	return Link{}
}

// String implements fmt.Stringer. Only the link state is rendered.
func (l *Link) String() string {
	if l.next != nil {
		return "linked"
	}
	return "unlinked"
}

// GoString implements fmt.GoStringer.
func (l *Link) GoString() string {
	return l.String()
}

// LinkOps manipulates links by address.
//
// Implementations must only be used on links of lists that use the matching
// Adapter, and SetNext and MarkUnlinked require that no other list observes
// the link.
type LinkOps interface {
	// IsLinked returns true if the link is part of a list.
	IsLinked(l *Link) bool

	// MarkUnlinked resets the link to the unlinked state.
	MarkUnlinked(l *Link)

	// Next returns the link following l, or nil if l is the last one.
	Next(l *Link) *Link

	// SetNext makes next follow l. A nil next makes l the last link.
	SetNext(l, next *Link)
}

// DefaultLinkOps is the LinkOps for Link.
type DefaultLinkOps struct{}

// IsLinked implements LinkOps.IsLinked.
func (DefaultLinkOps) IsLinked(l *Link) bool {
	return l.next != nil
}

// MarkUnlinked implements LinkOps.MarkUnlinked.
func (DefaultLinkOps) MarkUnlinked(l *Link) {
	l.next = nil
}

// Next implements LinkOps.Next.
func (DefaultLinkOps) Next(l *Link) *Link {
	if l.next == &endOfChain {
		return nil
	}
	return l.next
}

// SetNext implements LinkOps.SetNext.
func (DefaultLinkOps) SetNext(l, next *Link) {
	if next == nil {
		next = &endOfChain
	}
	l.next = next
}
