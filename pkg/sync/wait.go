// Copyright 2020 The gVisor Authors.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd.

package sync

// WaitGroupErr is a WaitGroup whose goroutines can report an error. Only the
// first reported error is kept.
//
// Example usage:
//
//	var wg WaitGroupErr
//	wg.Add(1)
//	go func() {
//		defer wg.Done()
//		if err := walk(l); err != nil {
//			wg.ReportError(err)
//		}
//	}()
//	return wg.Error()
type WaitGroupErr struct {
	WaitGroup

	// mu protects firstErr.
	mu Mutex

	// firstErr holds the first error reported, or nil.
	firstErr error
}

// ReportError records err if it is the first one. It does not call Done.
func (w *WaitGroupErr) ReportError(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.firstErr == nil {
		w.firstErr = err
	}
}

// Error waits for the group and returns the first reported error, if any.
func (w *WaitGroupErr) Error() error {
	w.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.firstErr
}
