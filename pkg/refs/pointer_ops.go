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

// PointerOps converts between reference-counted pointers and the raw
// pointers stored in an intrusive list. It satisfies slist.PointerOps,
// slist.ClonePointerOps and slist.Releaser for *T.
//
// A list built on PointerOps owns one reference per linked element:
// PushFront transfers the caller's reference into the list, PopFront
// transfers it back, Cursor.ClonePointer takes a new reference and Clear
// drops the list's references.
type PointerOps[T any, PT interface {
	*T
	RefCounter
}] struct{}

// IntoRaw gives up ownership of p's reference.
func (PointerOps[T, PT]) IntoRaw(p PT) *T {
	return (*T)(p)
}

// FromRaw reclaims the reference previously given up by IntoRaw.
func (PointerOps[T, PT]) FromRaw(raw *T) PT {
	return PT(raw)
}

// CloneFromRaw returns a new reference to raw, leaving the list's reference
// in place.
func (PointerOps[T, PT]) CloneFromRaw(raw *T) PT {
	p := PT(raw)
	p.IncRef()
	return p
}

// Release drops the reference held by p.
func (PointerOps[T, PT]) Release(p PT) {
	p.DecRef()
}
