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

// PointerOps converts between an owning pointer P and the raw address of the
// object it owns.
//
// IntoRaw gives up ownership of p; the list keeps the raw address while the
// object is linked. FromRaw rebuilds the owning pointer from an address that
// came from IntoRaw and has not been rebuilt since.
type PointerOps[T, P any] interface {
	IntoRaw(p P) *T
	FromRaw(raw *T) P
}

// ClonePointerOps is implemented by pointer kinds with shared ownership.
// CloneFromRaw returns a new owning pointer to raw without consuming the
// list's one.
type ClonePointerOps[T, P any] interface {
	PointerOps[T, P]
	CloneFromRaw(raw *T) P
}

// Releaser is implemented by pointer kinds that must do something when an
// owning pointer is dropped, such as releasing a reference. List.Clear calls
// Release on every element it unlinks.
type Releaser[P any] interface {
	Release(p P)
}

// RefOps is the PointerOps for plain *T pointers. The list borrows objects
// rather than owning them; the caller keeps them alive by holding *T.
type RefOps[T any] struct{}

// IntoRaw implements PointerOps.IntoRaw.
func (RefOps[T]) IntoRaw(p *T) *T { return p }

// FromRaw implements PointerOps.FromRaw.
func (RefOps[T]) FromRaw(raw *T) *T { return raw }

// CloneFromRaw implements ClonePointerOps.CloneFromRaw.
func (RefOps[T]) CloneFromRaw(raw *T) *T { return raw }

// Box is an exclusively owned pointer. Exactly one Box (or one list) owns the
// object at a time: inserting a Box into a list transfers the object to it,
// and removing it hands back a new Box.
type Box[T any] struct {
	v *T
}

// NewBox returns a Box owning v.
func NewBox[T any](v *T) Box[T] {
	return Box[T]{v: v}
}

// Get returns the owned object, or nil for the zero Box.
func (b Box[T]) Get() *T {
	return b.v
}

// BoxOps is the PointerOps for Box.
type BoxOps[T any] struct{}

// IntoRaw implements PointerOps.IntoRaw.
func (BoxOps[T]) IntoRaw(b Box[T]) *T {
	if b.v == nil {
		panic("slist: inserting an empty Box")
	}
	return b.v
}

// FromRaw implements PointerOps.FromRaw.
func (BoxOps[T]) FromRaw(raw *T) Box[T] {
	return Box[T]{v: raw}
}
