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
	"math/rand/v2"
	"slices"

	"github.com/google/subcommands"
	"gvisor.dev/intrusive/pkg/log"
	"gvisor.dev/intrusive/pkg/refs"
	"gvisor.dev/intrusive/pkg/slist"
)

// Verify implements subcommands.Command for the "verify" command.
type Verify struct{}

// Name implements subcommands.Command.Name.
func (*Verify) Name() string {
	return "verify"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Verify) Synopsis() string {
	return "check random list operations against a slice model."
}

// Usage implements subcommands.Command.Usage.
func (*Verify) Usage() string {
	return `verify [--ops=N] [--seed=N] - check random list operations against a slice model.

Elements are reference counted. After the run every element must have been
destroyed exactly once.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Verify) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Verify) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	conf := configFrom(args)
	if err := runVerify(ctx, conf.Ops, conf.Seed); err != nil {
		log.Warningf("verify failed: %v", err)
		fmt.Printf("FAIL: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("verified %d operations (seed %d)\n", conf.Ops, conf.Seed)
	return subcommands.ExitSuccess
}

// item is a reference counted list element.
type item struct {
	refs.AtomicRefCount
	link slist.Link
	id   int
	v    *verifier
}

// DecRef implements refs.RefCounter.DecRef.
func (it *item) DecRef() {
	it.DecRefWithDestructor(func() {
		it.v.destroyed++
	})
}

type itemList = slist.List[item, *item, slist.FieldAdapter[item, *item]]

// verifier applies the same operations to a list and to a slice of ids.
type verifier struct {
	rng   *rand.Rand
	list  *itemList
	model []int

	created   int
	destroyed int
}

func (v *verifier) newItem() *item {
	it := &item{id: v.created, v: v}
	it.EnableLeakCheck("cmd.item")
	v.created++
	return it
}

// cursorAt returns a mutable cursor at model index i, where -1 is the null
// position.
func (v *verifier) cursorAt(i int) slist.CursorMut[item, *item, slist.FieldAdapter[item, *item]] {
	c := v.list.CursorMut()
	for j := -1; j < i; j++ {
		c.MoveNext()
	}
	return c
}

// pos returns a random model index or -1.
func (v *verifier) pos() int {
	return v.rng.IntN(len(v.model)+1) - 1
}

func (v *verifier) step() (string, error) {
	switch op := v.rng.IntN(7); op {
	case 0:
		it := v.newItem()
		v.list.PushFront(it)
		v.model = slices.Insert(v.model, 0, it.id)
		return "PushFront", nil

	case 1:
		it, ok := v.list.PopFront()
		if ok != (len(v.model) > 0) {
			return "PopFront", fmt.Errorf("PopFront returned %t with %d elements", ok, len(v.model))
		}
		if ok {
			if it.id != v.model[0] {
				return "PopFront", fmt.Errorf("PopFront returned %d, want %d", it.id, v.model[0])
			}
			v.model = v.model[1:]
			it.DecRef()
		}
		return "PopFront", nil

	case 2:
		i := v.pos()
		c := v.cursorAt(i)
		it := v.newItem()
		c.InsertAfter(it)
		v.model = slices.Insert(v.model, i+1, it.id)
		return "InsertAfter", nil

	case 3:
		i := v.pos()
		c := v.cursorAt(i)
		it, ok := c.RemoveNext()
		if ok != (i+1 < len(v.model)) {
			return "RemoveNext", fmt.Errorf("RemoveNext at %d returned %t with %d elements", i, ok, len(v.model))
		}
		if ok {
			if it.id != v.model[i+1] {
				return "RemoveNext", fmt.Errorf("RemoveNext at %d returned %d, want %d", i, it.id, v.model[i+1])
			}
			v.model = slices.Delete(v.model, i+1, i+2)
			it.DecRef()
		}
		return "RemoveNext", nil

	case 4:
		i := v.pos()
		c := v.cursorAt(i)
		it := v.newItem()
		old, ok := c.ReplaceNextWith(it)
		if ok != (i+1 < len(v.model)) {
			return "ReplaceNextWith", fmt.Errorf("ReplaceNextWith at %d returned %t with %d elements", i, ok, len(v.model))
		}
		if !ok {
			// The new item came back to us.
			old.DecRef()
			return "ReplaceNextWith", nil
		}
		if old.id != v.model[i+1] {
			return "ReplaceNextWith", fmt.Errorf("ReplaceNextWith at %d returned %d, want %d", i, old.id, v.model[i+1])
		}
		v.model[i+1] = it.id
		old.DecRef()
		return "ReplaceNextWith", nil

	case 5:
		// Split after i, then splice the tail back in after j <= i.
		i := v.pos()
		c := v.cursorAt(i)
		tail := c.SplitAfter()
		head, rest := v.model[:i+1], slices.Clone(v.model[i+1:])
		if n := tail.Len(); n != len(rest) {
			return "SplitAfter", fmt.Errorf("SplitAfter at %d moved %d elements, want %d", i, n, len(rest))
		}
		j := v.rng.IntN(i+2) - 1
		c = v.cursorAt(j)
		c.SpliceAfter(tail)
		if !tail.Empty() {
			return "SpliceAfter", fmt.Errorf("spliced list not empty")
		}
		v.model = slices.Insert(head, j+1, rest...)
		return "SplitAfter+SpliceAfter", nil

	default:
		if len(v.model) == 0 {
			return "ClonePointer", nil
		}
		i := v.rng.IntN(len(v.model))
		mc := v.cursorAt(i)
		c := mc.AsCursor()
		p, ok := c.ClonePointer()
		if !ok || p.id != v.model[i] {
			return "ClonePointer", fmt.Errorf("ClonePointer at %d did not return element %d", i, v.model[i])
		}
		if n := p.ReadRefs(); n != 2 {
			return "ClonePointer", fmt.Errorf("element %d has %d references, want 2", p.id, n)
		}
		p.DecRef()
		return "ClonePointer", nil
	}
}

func (v *verifier) ids() []int {
	ids := []int{}
	for it := range v.list.All() {
		ids = append(ids, it.id)
	}
	return ids
}

// runVerify runs ops random operations seeded by seed. It returns the first
// divergence between the list and the model.
func runVerify(ctx context.Context, ops int, seed uint64) error {
	v := &verifier{
		rng:   rand.New(rand.NewPCG(seed, seed)),
		model: []int{},
	}
	v.list = slist.New[item, *item](slist.NewAdapter[item, *item](func(it *item) *slist.Link { return &it.link }, refs.PointerOps[item, *item]{}))

	for n := 0; n < ops; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := v.step()
		if err == nil {
			err = v.list.Check()
		}
		if err == nil && !slices.Equal(v.ids(), v.model) {
			err = fmt.Errorf("list %v, want %v", v.ids(), v.model)
		}
		if err != nil {
			return fmt.Errorf("op %d (%s): %w", n, name, err)
		}
		log.Debugf("verify: op %d (%s): %d elements", n, name, len(v.model))
	}

	v.list.Clear()
	if v.destroyed != v.created {
		return fmt.Errorf("%d elements created, %d destroyed", v.created, v.destroyed)
	}
	if n := refs.DoRepeatedLeakCheck(); n != 0 {
		return fmt.Errorf("%d elements leaked", n)
	}
	return nil
}
