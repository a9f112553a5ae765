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
	"errors"
	"fmt"
)

var (
	// ErrAlreadyLinked is wrapped by the panic value of any insertion of an
	// object whose link is already part of a list.
	ErrAlreadyLinked = errors.New("object is already linked")

	// ErrStaleCursor is wrapped by the panic value of any use of a cursor
	// that no longer has access to its list: a Cursor after the list was
	// modified, or a CursorMut after another mutable cursor was created.
	ErrStaleCursor = errors.New("stale cursor")

	// ErrAdapterMismatch is wrapped by the panic value of a splice between
	// two lists that link their elements through different fields or own
	// them through different pointer kinds.
	ErrAdapterMismatch = errors.New("lists use different adapters")
)

// InsertError is the panic value of an insertion of an already linked object.
// Ptr holds the rejected owning pointer, rebuilt so that a caller recovering
// from the panic gets it back.
type InsertError[P any] struct {
	Ptr P
}

// Error implements error.Error.
func (e *InsertError[P]) Error() string {
	return "slist: attempted to insert an object that is already linked"
}

// Unwrap returns ErrAlreadyLinked.
func (e *InsertError[P]) Unwrap() error {
	return ErrAlreadyLinked
}

func staleCursor(format string, v ...any) error {
	return fmt.Errorf("slist: %w: %s", ErrStaleCursor, fmt.Sprintf(format, v...))
}
