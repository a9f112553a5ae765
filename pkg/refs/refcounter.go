// Copyright 2018 The gVisor Authors.
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

// Package refs defines an interface for reference counted objects. It
// also provides a drop-in implementation called AtomicRefCount, and the
// ownership conversions that let reference counted objects live in intrusive
// lists.
package refs

import (
	"fmt"
	"sync/atomic"

	"gvisor.dev/intrusive/pkg/atomicbitops"
	"gvisor.dev/intrusive/pkg/slist"
	"gvisor.dev/intrusive/pkg/sync"
)

// RefCounter is the interface to be implemented by objects that are reference
// counted.
type RefCounter interface {
	// IncRef increments the reference counter on the object.
	IncRef()

	// DecRef decrements the reference counter on the object.
	//
	// Note that AtomicRefCount.DecRef() does not support destructors.
	// If a type has a destructor, it must implement its own DecRef()
	// method and call AtomicRefCount.DecRefWithDestructor(destructor).
	DecRef()

	// TryIncRef attempts to increase the reference counter on the object,
	// but may fail if all references have already been dropped. This
	// should be used only in special circumstances, such as WeakRefs.
	TryIncRef() bool

	// addWeakRef adds the given weak reference. Note that you should have a
	// reference to the object when calling this method.
	addWeakRef(*WeakRef)

	// dropWeakRef drops the given weak reference. Note that you should have
	// a reference to the object when calling this method.
	dropWeakRef(*WeakRef)
}

// A WeakRefUser is notified when the last non-weak reference is dropped.
type WeakRefUser interface {
	// WeakRefGone is called when the last non-weak reference is dropped.
	WeakRefGone()
}

// WeakRef is a weak reference.
type WeakRef struct {
	// weakRefEntry links the weak reference into its object's list.
	weakRefEntry slist.Link

	// obj holds a weakRefTarget. It is zapped to the zero target when the
	// object is destroyed.
	obj atomic.Value

	// user is notified when the weak ref is zapped by the object getting
	// destroyed.
	user WeakRefUser
}

type weakRefTarget struct {
	rc RefCounter
}

// weakRefAdapter links WeakRefs through weakRefEntry. Its zero value is
// valid, so a zero weakRefList is ready to use.
type weakRefAdapter struct{}

func (weakRefAdapter) GetLink(w *WeakRef) *slist.Link {
	return &w.weakRefEntry
}

func (weakRefAdapter) LinkOps() slist.LinkOps {
	return slist.DefaultLinkOps{}
}

func (weakRefAdapter) PointerOps() slist.PointerOps[WeakRef, *WeakRef] {
	return slist.RefOps[WeakRef]{}
}

type weakRefList = slist.List[WeakRef, *WeakRef, weakRefAdapter]

// NewWeakRef acquires a weak reference for the given object.
//
// An optional user will be notified when the last non-weak reference is
// dropped.
//
// Note that you must hold a reference to the object prior to getting a weak
// reference. (But you may drop the non-weak reference after that.)
func NewWeakRef(rc RefCounter, u WeakRefUser) *WeakRef {
	w := &WeakRef{user: u}
	w.obj.Store(weakRefTarget{rc: rc})
	rc.addWeakRef(w)
	return w
}

// get attempts to get a normal reference to the underlying object, and returns
// the object. If this weak reference has already been zapped (the object has
// been destroyed) then false is returned. If the object still exists, then
// true is returned.
func (w *WeakRef) get() (RefCounter, bool) {
	t := w.obj.Load().(weakRefTarget)
	if t.rc == nil {
		return nil, false
	}
	if !t.rc.TryIncRef() {
		return nil, true
	}
	return t.rc, true
}

// Get attempts to get a normal reference to the underlying object, and returns
// the object. If this fails (the object no longer exists), then nil will be
// returned instead.
func (w *WeakRef) Get() RefCounter {
	rc, _ := w.get()
	return rc
}

// Drop drops this weak reference. You should always call drop when you are
// finished with the weak reference. You may not use this object after calling
// drop.
func (w *WeakRef) Drop() {
	rc, ok := w.get()
	if !ok || rc == nil {
		// Either zapped already, or the object is being destroyed and
		// will zap us. In both cases it no longer holds w.
		return
	}

	// At this point, we have a reference on the object. So destruction
	// of the object (and zapping this weak reference) can't race here.
	rc.dropWeakRef(w)

	// And now aren't on the object's list of weak references. So it won't
	// zap us if this causes the reference count to drop to zero.
	rc.DecRef()
}

// zap zaps this weak reference.
func (w *WeakRef) zap() {
	w.obj.Store(weakRefTarget{})
}

// AtomicRefCount keeps a reference count using atomic operations and calls the
// destructor when the count reaches zero.
//
// N.B. To allow the zero-object to be initialized, the count is offset by
// 1, that is, when refCount is n, there are really n+1 references.
type AtomicRefCount struct {
	// refCount is composed of two fields:
	//
	//	[32-bit speculative references]:[32-bit real references]
	//
	// Speculative references are used for TryIncRef, to avoid a
	// CompareAndSwap loop. See IncRef, DecRef and TryIncRef for details of
	// how these fields are used.
	refCount atomicbitops.Int64

	// name and stack are set by EnableLeakCheck.
	name  string
	stack []uintptr

	// mu protects the list below.
	mu sync.Mutex

	// weakRefs is our collection of weak references.
	weakRefs weakRefList
}

// EnableLeakCheck registers r with the leak checker under the given name, if
// leak checking is enabled. It must be called before r is shared.
func (r *AtomicRefCount) EnableLeakCheck(name string) {
	if !LeakCheckEnabled() {
		return
	}
	r.name = name
	if GetLeakMode() == LeaksLogTraces {
		r.stack = RecordStack()
	}
	Register(r)
}

// RefType implements CheckedObject.RefType.
func (r *AtomicRefCount) RefType() string {
	return r.name
}

// LeakMessage implements CheckedObject.LeakMessage.
func (r *AtomicRefCount) LeakMessage() string {
	msg := fmt.Sprintf("[%s %p] reference count of %d instead of 0", r.name, r, r.ReadRefs())
	if r.stack != nil {
		msg += ", allocated at:\n" + FormatStack(r.stack)
	}
	return msg
}

// LogRefs implements CheckedObject.LogRefs.
func (r *AtomicRefCount) LogRefs() bool {
	return r.stack != nil
}

// ReadRefs returns the current number of references. The returned count is
// inherently racy and is unsafe to use without external synchronization.
func (r *AtomicRefCount) ReadRefs() int64 {
	// Account for the internal -1 offset on refcounts.
	return int64(int32(r.refCount.Load())) + 1
}

// IncRef increments this object's reference count. While the count is kept
// greater than zero, the destructor doesn't get called.
//
// The sanity check here is limited to real references, since if they have
// dropped beneath zero then the object should have been destroyed.
func (r *AtomicRefCount) IncRef() {
	v := r.refCount.Add(1)
	if r.name != "" {
		LogIncRef(r, int64(int32(v))+1)
	}
	if int32(v) <= 0 {
		panic("Incrementing non-positive ref count")
	}
}

// TryIncRef attempts to increment the reference count, *unless the count has
// already reached zero*. If false is returned, then the object has already
// been destroyed, and the weak reference is no longer valid. If true if
// returned then a valid reference is now held on the object.
//
// To do this safely without a loop, a speculative reference is first acquired
// on the object. This allows multiple concurrent TryIncRef calls to
// distinguish other TryIncRef calls from genuine references held.
func (r *AtomicRefCount) TryIncRef() bool {
	const speculativeRef = 1 << 32
	v := r.refCount.Add(speculativeRef)
	if int32(v) < 0 {
		// This object has already been freed.
		r.refCount.Add(-speculativeRef)
		return false
	}

	// Turn into a real reference.
	v = r.refCount.Add(-speculativeRef + 1)
	if r.name != "" {
		LogTryIncRef(r, int64(int32(v))+1)
	}
	return true
}

// addWeakRef adds the given weak reference.
func (r *AtomicRefCount) addWeakRef(w *WeakRef) {
	r.mu.Lock()
	r.weakRefs.PushFront(w)
	r.mu.Unlock()
}

// dropWeakRef drops the given weak reference.
//
// NOTE: This is O(number of weak references); objects rarely have more than a
// handful.
func (r *AtomicRefCount) dropWeakRef(w *WeakRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.weakRefs.CursorMut()
	for {
		next := c.PeekNext()
		switch next.Get() {
		case nil:
			return
		case w:
			c.RemoveNext()
			return
		}
		c.MoveNext()
	}
}

// DecRefWithDestructor decrements the object's reference count. If the
// resulting count is negative and the destructor is not nil, then the
// destructor will be called.
//
// Note that speculative references are counted here. Since they were added
// prior to real references reaching zero, they will successfully convert to
// real references. In other words, we see speculative references only in the
// following case:
//
//	A: TryIncRef [speculative increase => sees non-negative references]
//	B: DecRef [real decrease]
//	A: TryIncRef [transform speculative to real]
func (r *AtomicRefCount) DecRefWithDestructor(destroy func()) {
	v := r.refCount.Add(-1)
	if r.name != "" {
		LogDecRef(r, int64(int32(v))+1)
	}
	switch v := int32(v); {
	case v < -1:
		panic("Decrementing non-positive ref count")

	case v == -1:
		if r.name != "" {
			Unregister(r)
		}

		// Zap weak references. Note that at this point, all weak
		// references are already invalid. That is, TryIncRef() will
		// return false due to the reference count check.
		r.mu.Lock()
		for {
			w, ok := r.weakRefs.PopFront()
			if !ok {
				break
			}
			// Capture the callback because w cannot be touched
			// after it's zapped -- the owner is free it reuse it
			// after that.
			user := w.user
			w.zap()

			if user != nil {
				r.mu.Unlock()
				user.WeakRefGone()
				r.mu.Lock()
			}
		}
		r.mu.Unlock()

		// Call the destructor.
		if destroy != nil {
			destroy()
		}
	}
}

// DecRef decrements this object's reference count.
func (r *AtomicRefCount) DecRef() {
	r.DecRefWithDestructor(nil)
}
