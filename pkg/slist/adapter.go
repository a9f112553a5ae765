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
	"reflect"
)

// Adapter binds a container type T to one of its embedded Link fields and to
// the pointer kind P that owns T.
//
// GetLink and GetValue must be exact inverses. Adapters are copied into every
// list and cursor, so they should be small values.
type Adapter[T, P any] interface {
	// GetLink returns the address of value's link.
	GetLink(value *T) *Link

	// GetValue returns the object containing link.
	GetValue(link *Link) *T

	// LinkOps returns the operations used on the links.
	LinkOps() LinkOps

	// PointerOps returns the ownership conversions for P.
	PointerOps() PointerOps[T, P]
}

// FieldAdapter is an Adapter for a Link stored directly in T. It is created by
// NewAdapter.
type FieldAdapter[T, P any] struct {
	linkOf func(*T) *Link
	offset uintptr
	ops    PointerOps[T, P]
}

// NewAdapter returns an Adapter for the Link that linkOf selects, with
// ownership handled by ops. For example:
//
//	type request struct {
//		queue slist.Link
//		done  slist.Link
//	}
//
//	queued := slist.NewAdapter(func(r *request) *slist.Link { return &r.queue }, slist.RefOps[request]{})
//
// linkOf must return the address of a field of its argument (possibly nested
// in embedded structs, but not behind a pointer); NewAdapter panics otherwise.
func NewAdapter[T, P any](linkOf func(*T) *Link, ops PointerOps[T, P]) FieldAdapter[T, P] {
	if linkOf == nil || ops == nil {
		panic("slist: NewAdapter requires a link selector and pointer ops")
	}
	offset, err := fieldOffset(linkOf)
	if err != nil {
		panic(fmt.Sprintf("slist: NewAdapter: %v", err))
	}
	return FieldAdapter[T, P]{
		linkOf: linkOf,
		offset: offset,
		ops:    ops,
	}
}

// GetLink implements Adapter.GetLink.
func (a FieldAdapter[T, P]) GetLink(value *T) *Link {
	return a.linkOf(value)
}

// LinkOps implements Adapter.LinkOps.
func (FieldAdapter[T, P]) LinkOps() LinkOps {
	return DefaultLinkOps{}
}

// PointerOps implements Adapter.PointerOps.
func (a FieldAdapter[T, P]) PointerOps() PointerOps[T, P] {
	return a.ops
}

// sameAs returns true if a and b select the same Link field and use equal
// pointer ops.
func (a FieldAdapter[T, P]) sameAs(b FieldAdapter[T, P]) bool {
	if a.offset != b.offset {
		return false
	}
	at, bt := reflect.TypeOf(a.ops), reflect.TypeOf(b.ops)
	if at != bt {
		return false
	}
	return !at.Comparable() || any(a.ops) == any(b.ops)
}
