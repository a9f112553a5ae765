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

import "iter"

// All returns an iterator over the elements of the list, front to back.
//
// The iterator is built on a Cursor: modifying the list during iteration
// makes the next step panic.
func (l *List[T, P, A]) All() iter.Seq[*T] {
	c := l.Cursor()
	return c.After()
}

// Drain returns an iterator that removes the elements of the list front to
// back, yielding their owning pointers. Ownership of each yielded pointer
// passes to the loop body. Stopping early leaves the remaining elements in
// the list.
func (l *List[T, P, A]) Drain() iter.Seq[P] {
	return func(yield func(P) bool) {
		for {
			p, ok := l.PopFront()
			if !ok || !yield(p) {
				return
			}
		}
	}
}

// After returns an iterator over the elements after c. c itself is not moved.
func (c *Cursor[T, P, A]) After() iter.Seq[*T] {
	start := *c
	return func(yield func(*T) bool) {
		it := start
		for it.MoveNext(); !it.IsNull(); it.MoveNext() {
			if !yield(it.Get()) {
				return
			}
		}
	}
}
