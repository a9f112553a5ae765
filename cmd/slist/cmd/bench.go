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
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"gvisor.dev/intrusive/cmd/slist/config"
	"gvisor.dev/intrusive/pkg/atomicbitops"
	"gvisor.dev/intrusive/pkg/log"
	"gvisor.dev/intrusive/pkg/slist"
)

// Bench implements subcommands.Command for the "bench" command.
type Bench struct{}

// Name implements subcommands.Command.Name.
func (*Bench) Name() string {
	return "bench"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Bench) Synopsis() string {
	return "exercise lists from concurrent workers and report throughput."
}

// Usage implements subcommands.Command.Usage.
func (*Bench) Usage() string {
	return `bench [--elements=N] [--goroutines=N] [--rounds=N] - exercise lists from concurrent workers.

Each worker owns its lists for the whole run. At the end the workers' lists
are spliced into one list, which is checked and cleared.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Bench) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Bench) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	conf := configFrom(args)
	res, err := runBench(ctx, conf)
	if err != nil {
		Fatalf("bench failed: %v", err)
	}
	fmt.Printf("%d operations on %d elements in %v (%.0f ops/s)\n", res.ops, res.elements, res.elapsed, res.rate())
	return subcommands.ExitSuccess
}

type benchNode struct {
	link  slist.Link
	value int
}

type benchList = slist.List[benchNode, *benchNode, slist.FieldAdapter[benchNode, *benchNode]]

var benchAdapter = slist.NewAdapter[benchNode, *benchNode](func(n *benchNode) *slist.Link { return &n.link }, slist.RefOps[benchNode]{})

type benchResult struct {
	ops      uint64
	elements int
	elapsed  time.Duration
}

func (r *benchResult) rate() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.ops) / r.elapsed.Seconds()
}

// runBench runs conf.Goroutines workers and merges their final lists.
func runBench(ctx context.Context, conf *config.Config) (*benchResult, error) {
	var ops atomicbitops.Uint64
	progress := log.RateLimitedLogger(log.Log(), conf.ProgressInterval)

	start := time.Now()
	results := make([]*benchList, conf.Goroutines)
	g, ctx := errgroup.WithContext(ctx)
	for w := range results {
		g.Go(func() error {
			l, err := benchWorker(ctx, w, conf, &ops, progress)
			results[w] = l
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Splicing at the front in reverse leaves worker 0's elements first.
	merged := slist.New[benchNode, *benchNode](benchAdapter)
	for w := len(results) - 1; w >= 0; w-- {
		c := merged.CursorMut()
		c.SpliceAfter(results[w])
	}
	if err := merged.Check(); err != nil {
		return nil, fmt.Errorf("merged list: %w", err)
	}
	want := conf.Goroutines * conf.Elements
	if n := merged.Len(); n != want {
		return nil, fmt.Errorf("merged list has %d elements, want %d", n, want)
	}
	merged.Clear()

	res := &benchResult{
		ops:      ops.Load(),
		elements: want,
		elapsed:  time.Since(start),
	}
	log.Infof("bench: %d workers, %d rounds of %d elements: %d ops in %v", conf.Goroutines, conf.Rounds, conf.Elements, res.ops, res.elapsed)
	return res, nil
}

// benchWorker runs conf.Rounds rounds over its own elements and returns the
// list built by the last round, in ascending order.
func benchWorker(ctx context.Context, id int, conf *config.Config, ops *atomicbitops.Uint64, progress log.Logger) (*benchList, error) {
	nodes := make([]benchNode, conf.Elements)
	for i := range nodes {
		nodes[i].value = i
	}

	l := slist.New[benchNode, *benchNode](benchAdapter)
	for round := 0; round < conf.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.Clear()
		n, err := benchRound(l, nodes)
		ops.Add(n)
		if err != nil {
			return nil, fmt.Errorf("worker %d, round %d: %w", id, round, err)
		}
		progress.Infof("bench: worker %d finished round %d/%d", id, round+1, conf.Rounds)
	}
	if conf.Rounds == 0 {
		for i := len(nodes) - 1; i >= 0; i-- {
			l.PushFront(&nodes[i])
		}
	}
	return l, nil
}

// benchRound fills l with nodes in ascending order by way of a reversal, then
// splits it in half and splices the halves back together. It returns the
// number of list operations performed.
func benchRound(l *benchList, nodes []benchNode) (uint64, error) {
	var ops uint64

	// Push in order, then reverse into l.
	stack := slist.New[benchNode, *benchNode](benchAdapter)
	for i := range nodes {
		stack.PushFront(&nodes[i])
		ops++
	}
	for n := range stack.Drain() {
		l.PushFront(n)
		ops += 2
	}

	// Detach the second half and put it back.
	c := l.CursorMut()
	for i := 0; i < len(nodes)/2; i++ {
		c.MoveNext()
		ops++
	}
	tail := c.SplitAfter()
	c.SpliceAfter(tail)
	ops += 2

	want := 0
	for n := range l.All() {
		if n.value != want {
			return ops, fmt.Errorf("element %d has value %d", want, n.value)
		}
		want++
		ops++
	}
	if want != len(nodes) {
		return ops, fmt.Errorf("walked %d elements, want %d", want, len(nodes))
	}
	return ops, nil
}
