// Copyright 2020 The gVisor Authors.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd.

package sync

// NoCopy may be embedded into structs which must not be copied after first
// use. It is zero-sized.
//
// See https://golang.org/issues/8005#issuecomment-190753527 for details; the
// copylocks analyzer of go vet reports copies of any type holding a Locker.
type NoCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*NoCopy) Lock() {}

// Unlock is a no-op used by -copylocks checker from `go vet`.
func (*NoCopy) Unlock() {}
