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

// Cursor is a read-only position in a List: either the null position before
// the first element, or an element.
//
// A Cursor is revoked by any structural change to its list and by the creation
// of a CursorMut on it.
type Cursor[T, P any, A Adapter[T, P]] struct {
	current *Link
	list    *List[T, P, A]
	gen     uint64
}

// check panics if the list changed since c was created.
func (c *Cursor[T, P, A]) check() {
	if c.gen != c.list.gen {
		panic(staleCursor("list %p was modified or mutably borrowed after the cursor was created", c.list))
	}
}

// IsNull returns true if c is at the null position.
func (c *Cursor[T, P, A]) IsNull() bool {
	return c.current == nil
}

// Get returns the element at c, or nil at the null position.
func (c *Cursor[T, P, A]) Get() *T {
	c.check()
	return c.list.adapter.GetValue(c.current)
}

// ClonePointer returns a new owning pointer to the element at c, leaving the
// list's own pointer in place. It returns false at the null position.
//
// ClonePointer panics if the list's pointer kind does not implement
// ClonePointerOps.
func (c *Cursor[T, P, A]) ClonePointer() (P, bool) {
	var zero P
	v := c.Get()
	if v == nil {
		return zero, false
	}
	cops, ok := c.list.adapter.PointerOps().(ClonePointerOps[T, P])
	if !ok {
		panic("slist: ClonePointer on a list whose pointers cannot be shared")
	}
	return cops.CloneFromRaw(v), true
}

// MoveNext moves c to the next element. From the null position it moves to
// the first element; from the last element it moves to the null position.
func (c *Cursor[T, P, A]) MoveNext() {
	c.check()
	c.current = c.list.next(c.current)
}

// PeekNext returns a cursor at the position MoveNext would move c to.
func (c *Cursor[T, P, A]) PeekNext() Cursor[T, P, A] {
	next := *c
	next.MoveNext()
	return next
}

// CursorMut is a position in a List from which it can be modified. All
// modifications apply to the element after the cursor, so a cursor at the
// null position edits the front of the list. The cursor itself never moves as
// a result of a modification.
//
// A CursorMut is revoked when another CursorMut is obtained for its list,
// including implicitly by the list's own mutating methods.
type CursorMut[T, P any, A Adapter[T, P]] struct {
	current *Link
	list    *List[T, P, A]
	token   uint64
}

// check panics if c has been revoked.
func (c *CursorMut[T, P, A]) check() {
	if c.token != c.list.writer {
		panic(staleCursor("list %p has a newer mutable cursor", c.list))
	}
}

// IsNull returns true if c is at the null position.
func (c *CursorMut[T, P, A]) IsNull() bool {
	return c.current == nil
}

// Get returns the element at c, or nil at the null position.
func (c *CursorMut[T, P, A]) Get() *T {
	c.check()
	return c.list.adapter.GetValue(c.current)
}

// AsCursor returns a read-only cursor at the same position. It is revoked by
// the next modification made through c.
func (c *CursorMut[T, P, A]) AsCursor() Cursor[T, P, A] {
	c.check()
	return Cursor[T, P, A]{current: c.current, list: c.list, gen: c.list.gen}
}

// MoveNext moves c to the next element, as Cursor.MoveNext.
func (c *CursorMut[T, P, A]) MoveNext() {
	c.check()
	c.current = c.list.next(c.current)
}

// PeekNext returns a read-only cursor at the position after c.
func (c *CursorMut[T, P, A]) PeekNext() Cursor[T, P, A] {
	next := c.AsCursor()
	next.MoveNext()
	return next
}

// InsertAfter inserts p after c, or at the front of the list if c is at the
// null position.
//
// InsertAfter panics with an *InsertError if p's link is already linked.
func (c *CursorMut[T, P, A]) InsertAfter(p P) {
	c.check()
	l := c.list
	link := l.linkFromValue(p)
	ops := l.adapter.LinkOps()
	if c.current != nil {
		linkAfter(ops, link, c.current)
	} else {
		linkBetween(ops, link, nil, l.head)
		l.head = link
	}
	l.gen++
}

// RemoveNext removes the element after c and returns it. If there is no such
// element, nothing is removed and RemoveNext returns false.
func (c *CursorMut[T, P, A]) RemoveNext() (P, bool) {
	c.check()
	l := c.list
	next := l.next(c.current)
	if next == nil {
		var zero P
		return zero, false
	}
	ops := l.adapter.LinkOps()
	if c.current == nil {
		l.head = ops.Next(next)
	}
	remove(ops, next, c.current)
	l.gen++
	return l.adapter.PointerOps().FromRaw(l.adapter.GetValue(next)), true
}

// ReplaceNextWith puts p in place of the element after c and returns the
// element it displaced.
//
// If there is no element after c, the list is left untouched and p is
// returned with false.
//
// ReplaceNextWith panics with an *InsertError if it would insert p while p's
// link is already linked.
func (c *CursorMut[T, P, A]) ReplaceNextWith(p P) (P, bool) {
	c.check()
	l := c.list
	next := l.next(c.current)
	if next == nil {
		return p, false
	}
	link := l.linkFromValue(p)
	if c.current == nil {
		l.head = link
	}
	replaceWith(l.adapter.LinkOps(), next, c.current, link)
	l.gen++
	return l.adapter.PointerOps().FromRaw(l.adapter.GetValue(next)), true
}

// SpliceAfter moves all elements of other after c, or to the front of the
// list if c is at the null position. other is left empty.
//
// SpliceAfter panics with an error wrapping ErrAdapterMismatch if other links
// its elements through a different field, or owns them through different
// pointer ops, than c's list.
//
// NOTE: Unless c is at the last element, this is O(len(other)), as the tail of
// other must be found.
func (c *CursorMut[T, P, A]) SpliceAfter(other *List[T, P, A]) {
	c.check()
	l := c.list
	if other == l {
		panic("slist: splicing a list into itself")
	}
	l.checkAdapter(other)
	other.acquire()
	head := other.head
	if head == nil {
		return
	}
	other.head = nil
	other.gen++

	ops := l.adapter.LinkOps()
	if next := l.next(c.current); next != nil {
		tail := head
		for x := ops.Next(tail); x != nil; x = ops.Next(x) {
			tail = x
		}
		splice(ops, head, tail, c.current, next)
		if c.current == nil {
			l.head = head
		}
	} else if c.current != nil {
		ops.SetNext(c.current, head)
	} else {
		l.head = head
	}
	l.gen++
}

// SplitAfter moves all elements after c into a new list and returns it. If c
// is at the null position, every element is moved.
func (c *CursorMut[T, P, A]) SplitAfter() *List[T, P, A] {
	c.check()
	l := c.list
	m := &List[T, P, A]{adapter: l.adapter}
	if c.current != nil {
		ops := l.adapter.LinkOps()
		m.head = ops.Next(c.current)
		ops.SetNext(c.current, nil)
	} else {
		m.head = l.head
		l.head = nil
	}
	l.gen++
	return m
}

// next returns the link after x, where a nil x is the null position.
func (l *List[T, P, A]) next(x *Link) *Link {
	if x == nil {
		return l.head
	}
	return l.adapter.LinkOps().Next(x)
}
