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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"gvisor.dev/intrusive/pkg/log"
	"gvisor.dev/intrusive/pkg/refs"
	"gvisor.dev/intrusive/pkg/slist"
)

// Demo implements subcommands.Command for the "demo" command.
type Demo struct{}

// Name implements subcommands.Command.Name.
func (*Demo) Name() string {
	return "demo"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Demo) Synopsis() string {
	return "walk through the list operations on a small run queue."
}

// Usage implements subcommands.Command.Usage.
func (*Demo) Usage() string {
	return `demo - walk through the list operations on a small run queue.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Demo) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Demo) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if err := runDemo(os.Stdout); err != nil {
		Fatalf("demo failed: %v", err)
	}
	return subcommands.ExitSuccess
}

// task is a reference counted object that can sit on a run queue and on a
// list of blocked tasks at the same time.
type task struct {
	refs.AtomicRefCount

	runqEntry    slist.Link
	blockedEntry slist.Link

	name     string
	finished *[]string
}

func newTask(name string, finished *[]string) *task {
	t := &task{name: name, finished: finished}
	t.EnableLeakCheck("cmd.task")
	return t
}

// DecRef implements refs.RefCounter.DecRef.
func (t *task) DecRef() {
	t.DecRefWithDestructor(func() {
		*t.finished = append(*t.finished, t.name)
	})
}

// String implements fmt.Stringer.
func (t *task) String() string {
	return t.name
}

// runq owns a reference on each queued task. blocked borrows.
type (
	runq    = slist.List[task, *task, slist.FieldAdapter[task, *task]]
	blocked = slist.List[task, *task, slist.FieldAdapter[task, *task]]
)

func newRunq() *runq {
	return slist.New[task, *task](slist.NewAdapter[task, *task](func(t *task) *slist.Link { return &t.runqEntry }, refs.PointerOps[task, *task]{}))
}

func newBlocked() *blocked {
	return slist.New[task, *task](slist.NewAdapter[task, *task](func(t *task) *slist.Link { return &t.blockedEntry }, slist.RefOps[task]{}))
}

func runDemo(w io.Writer) error {
	var finished []string
	q := newRunq()
	b := newBlocked()

	// Build the queue back to front, so it reads t1 t2 t3 t4.
	for i := 4; i >= 1; i-- {
		t := newTask(fmt.Sprintf("t%d", i), &finished)
		if i%2 == 0 {
			b.PushFront(t)
		}
		q.PushFront(t)
	}
	fmt.Fprintf(w, "queued:  %v\nblocked: %v\n", q, b)

	// Split after t2, then splice the tail back in after t1.
	c := q.CursorMut()
	c.MoveNext()
	c.MoveNext()
	rest := c.SplitAfter()
	fmt.Fprintf(w, "split:   %v %v\n", q, rest)
	c = q.FrontMut()
	c.SpliceAfter(rest)
	fmt.Fprintf(w, "spliced: %v\n", q)

	// A task on both lists can be found from the blocked list directly.
	bc := b.Front()
	bc.MoveNext()
	t4 := bc.Get()
	qc := q.CursorFromPtr(t4)
	next := qc.PeekNext()
	fmt.Fprintf(w, "after %v on the run queue: %v\n", t4, next.Get())

	// Replace t3 (the successor of t1) with a fresh task.
	c = q.FrontMut()
	old, ok := c.ReplaceNextWith(newTask("t5", &finished))
	if !ok {
		return fmt.Errorf("no task after %v", c.Get())
	}
	fmt.Fprintf(w, "replaced %v: %v\n", old, q)
	old.DecRef()

	// Unblock everything, then run the queue to completion.
	for t := range b.Drain() {
		log.Debugf("unblocked %v", t)
	}
	for t := range q.Drain() {
		fmt.Fprintf(w, "run %v\n", t)
		t.DecRef()
	}
	fmt.Fprintf(w, "finished: %v\n", finished)

	if n := refs.DoRepeatedLeakCheck(); n != 0 {
		return fmt.Errorf("%d tasks leaked", n)
	}
	if q.Len() != 0 || b.Len() != 0 {
		return fmt.Errorf("lists not empty: %v %v", q, b)
	}
	return nil
}
