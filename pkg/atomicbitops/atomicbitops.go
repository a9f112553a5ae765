// Copyright 2021 The gVisor Authors.
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

// Package atomicbitops provides atomic integer wrappers that
// cannot be accidentally accessed non-atomically or copied.
//
// Each type is the same size as its builtin analogue, so they can be
// embedded in hot objects such as reference counts without growing them.
package atomicbitops

import (
	"sync/atomic"

	"gvisor.dev/intrusive/pkg/sync"
)

// Int64 is an atomic int64. The zero value is zero.
//
// 64-bit alignment on 32-bit platforms is guaranteed by sync/atomic's
// Int64, which this wraps.
type Int64 struct {
	_     sync.NoCopy
	value atomic.Int64
}

// FromInt64 returns an Int64 initialized to value v.
func FromInt64(v int64) *Int64 {
	i := &Int64{}
	i.value.Store(v)
	return i
}

// Load is analogous to atomic.LoadInt64.
func (i *Int64) Load() int64 {
	return i.value.Load()
}

// Store is analogous to atomic.StoreInt64.
func (i *Int64) Store(v int64) {
	i.value.Store(v)
}

// Add is analogous to atomic.AddInt64.
func (i *Int64) Add(v int64) int64 {
	return i.value.Add(v)
}

// Swap is analogous to atomic.SwapInt64.
func (i *Int64) Swap(v int64) int64 {
	return i.value.Swap(v)
}

// CompareAndSwap is analogous to atomic.CompareAndSwapInt64.
func (i *Int64) CompareAndSwap(oldVal, newVal int64) bool {
	return i.value.CompareAndSwap(oldVal, newVal)
}

// Uint64 is an atomic uint64. The zero value is zero.
type Uint64 struct {
	_     sync.NoCopy
	value atomic.Uint64
}

// Load is analogous to atomic.LoadUint64.
func (u *Uint64) Load() uint64 {
	return u.value.Load()
}

// Store is analogous to atomic.StoreUint64.
func (u *Uint64) Store(v uint64) {
	u.value.Store(v)
}

// Add is analogous to atomic.AddUint64.
func (u *Uint64) Add(v uint64) uint64 {
	return u.value.Add(v)
}

// Swap is analogous to atomic.SwapUint64.
func (u *Uint64) Swap(v uint64) uint64 {
	return u.value.Swap(v)
}

// Uint32 is an atomic uint32. The zero value is zero.
type Uint32 struct {
	_     sync.NoCopy
	value atomic.Uint32
}

// Load is analogous to atomic.LoadUint32.
func (u *Uint32) Load() uint32 {
	return u.value.Load()
}

// Store is analogous to atomic.StoreUint32.
func (u *Uint32) Store(v uint32) {
	u.value.Store(v)
}

// Swap is analogous to atomic.SwapUint32.
func (u *Uint32) Swap(v uint32) uint32 {
	return u.value.Swap(v)
}
