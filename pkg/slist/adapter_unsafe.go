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
	"unsafe"
)

// fieldOffset returns the offset of the link selected by linkOf within T. It is
// measured once on a sample value.
func fieldOffset[T any](linkOf func(*T) *Link) (uintptr, error) {
	sample := new(T)
	base := uintptr(unsafe.Pointer(sample))
	link := uintptr(unsafe.Pointer(linkOf(sample)))
	if link < base || link+unsafe.Sizeof(Link{}) > base+unsafe.Sizeof(*sample) {
		return 0, fmt.Errorf("link of %T is not stored inside it", sample)
	}
	return link - base, nil
}

// GetValue implements Adapter.GetValue.
func (a FieldAdapter[T, P]) GetValue(link *Link) *T {
	if link == nil {
		return nil
	}
	return (*T)(unsafe.Add(unsafe.Pointer(link), -int(a.offset)))
}
