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

// The functions below are the only code that rewrites next pointers. They
// operate on link addresses and leave list heads to the caller.

// linkBetween links ptr between prev and next. prev may be nil when ptr
// becomes the head; next may be nil when ptr becomes the tail.
func linkBetween(ops LinkOps, ptr, prev, next *Link) {
	if prev != nil {
		ops.SetNext(prev, ptr)
	}
	ops.SetNext(ptr, next)
}

// linkAfter links ptr immediately after prev.
func linkAfter(ops LinkOps, ptr, prev *Link) {
	linkBetween(ops, ptr, prev, ops.Next(prev))
}

// replaceWith puts repl in ptr's place and unlinks ptr. prev is
// ptr's predecessor, or nil if ptr is the head.
func replaceWith(ops LinkOps, ptr, prev, repl *Link) {
	if prev != nil {
		ops.SetNext(prev, repl)
	}
	ops.SetNext(repl, ops.Next(ptr))
	ops.MarkUnlinked(ptr)
}

// remove unlinks ptr. prev is ptr's predecessor, or nil if ptr is the head.
func remove(ops LinkOps, ptr, prev *Link) {
	if prev != nil {
		ops.SetNext(prev, ops.Next(ptr))
	}
	ops.MarkUnlinked(ptr)
}

// splice links the chain start..end between prev and next. The chain must
// already be connected from start to end.
func splice(ops LinkOps, start, end, prev, next *Link) {
	ops.SetNext(end, next)
	if prev != nil {
		ops.SetNext(prev, start)
	}
}
