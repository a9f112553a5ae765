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
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"gvisor.dev/intrusive/pkg/sync"
)

func TestConcurrentReaders(t *testing.T) {
	const n = 100
	l := newList1()
	for i := n; i > 0; i-- {
		l.PushFront(&obj{value: i})
	}

	var wg sync.WaitGroupErr
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sum := 0
			for o := range l.All() {
				sum += o.value
			}
			if want := n * (n + 1) / 2; sum != want {
				wg.ReportError(fmt.Errorf("sum: got %d, want %d", sum, want))
			}
		}()
	}
	if err := wg.Error(); err != nil {
		t.Error(err)
	}
}

func TestHandOffBetweenGoroutines(t *testing.T) {
	const workers, perWorker = 4, 50
	results := make(chan *objList, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			l := newList1()
			for i := perWorker; i > 0; i-- {
				l.PushFront(&obj{value: w*perWorker + i})
			}
			if err := l.Check(); err != nil {
				return err
			}
			results <- l.Take()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("worker failed: %v", err)
	}
	close(results)

	// Concatenate the lists received from the workers, ordered by worker.
	parts := make([]*objList, workers)
	for l := range results {
		front := l.Front()
		parts[(front.Get().value-1)/perWorker] = l
	}
	all := newList1()
	c := all.CursorMut()
	for w := workers - 1; w >= 0; w-- {
		c.SpliceAfter(parts[w])
	}

	var want []int
	for i := 1; i <= workers*perWorker; i++ {
		want = append(want, i)
	}
	if diff := cmp.Diff(want, values(all)); diff != "" {
		t.Errorf("concatenated list (-want +got):\n%s", diff)
	}
}
