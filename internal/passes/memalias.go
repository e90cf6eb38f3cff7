/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package passes

import (
    `fmt`

    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/davecgh/go-spew/spew`
    `tlog.app/go/tlog`
)

// AliasOracle answers may-alias queries between two memory accesses.
type AliasOracle interface {
    MayAlias(a *mir.Instr, b *mir.Instr) bool
}

// MemoryAlias groups the memory accesses of every block into partitions,
// such that two accesses that may alias with at least one of them being a
// store always end up in the same partition. Every access is annotated with
// `!{"unison-memory-partition", id}`, ids are dense and local to the block.
type MemoryAlias struct {
    AA AliasOracle
}

// Partition returns the memory accesses of bb in block order, along with
// their partition ids.
func (self MemoryAlias) Partition(bb *mir.BasicBlock) ([]*mir.Instr, []int) {
    var acc []*mir.Instr
    for _, ins := range bb.Ins {
        if ins.AccessesMemory() {
            acc = append(acc, ins)
        }
    }

    /* merge every dependent pair */
    ds := NewDisjointSet(len(acc))
    for i, a := range acc {
        for j := i + 1; j < len(acc); j++ {
            if b := acc[j]; (a.MayStore() || b.MayStore()) && !ds.Same(i, j) && self.AA.MayAlias(a, b) {
                ds.Union(i, j)
            }
        }
    }

    /* number the partitions in the order they are first seen */
    ids := make([]int, len(acc))
    for id, cc := range ds.Classes() {
        for _, i := range cc {
            ids[i] = id
        }
    }

    /* all done */
    return acc, ids
}

func (self MemoryAlias) Apply(fn *mir.Function) (bool, error) {
    changed := false
    for _, bb := range fn.Blocks {
        acc, ids := self.Partition(bb)
        changed = changed || len(acc) != 0

        /* annotate every access */
        for i, ins := range acc {
            setMetadata(ins, mir.NewMetadata(MetaPartition, ids[i]))
        }

        /* dump the partitions if needed */
        if len(acc) != 0 && tlog.If("memalias") {
            tlog.Printw("memory partitions", "func", fn.Name, "block", bb.Id, "parts", dumpPartitions(acc, ids))
        }
    }
    return changed, nil
}

func dumpPartitions(acc []*mir.Instr, ids []int) string {
    parts := make(map[int][]string)
    for i, ins := range acc {
        parts[ids[i]] = append(parts[ids[i]], fmt.Sprint(ins))
    }
    return (&spew.ConfigState { Indent: "    ", SortKeys: true }).Sdump(parts)
}

// BasicAA is a conservative oracle based on the address operands of the
// accesses. Distinct frame objects never alias, and accesses on the same
// virtual base register with constant offsets alias only if their byte
// ranges overlap. Everything else may alias.
type BasicAA struct{}

type _Address struct {
    frame bool
    base  int64
    off   int64
    width int64
}

func (self BasicAA) MayAlias(a *mir.Instr, b *mir.Instr) bool {
    var ok bool
    var x, y _Address

    /* decode both addresses */
    if x, ok = decodeAddress(a); !ok { return true }
    if y, ok = decodeAddress(b); !ok { return true }

    /* different kind of bases, or different registers */
    if x.frame != y.frame || (!x.frame && x.base != y.base) {
        return true
    }

    /* distinct frame objects */
    if x.base != y.base {
        return false
    }

    /* same base, check for overlapping */
    return x.off < y.off + y.width && y.off < x.off + x.width
}

func decodeAddress(ins *mir.Instr) (_Address, bool) {
    var ret _Address
    var lay = ins.Desc.Mem

    /* calls and accesses without layout are opaque */
    if lay == nil || ins.IsCall() || lay.Base >= len(ins.Ops) || lay.Off >= len(ins.Ops) {
        return ret, false
    }

    /* decode the base */
    switch op := ins.Ops[lay.Base]; {
        case op.IsFrame()                       : ret.frame, ret.base = true, op.Imm
        case op.IsReg() && op.Reg.Virtual()     : ret.base = int64(op.Reg)
        default                                 : return ret, false
    }

    /* decode the offset */
    if lay.Off >= 0 {
        if op := ins.Ops[lay.Off]; !op.IsImm() {
            return ret, false
        } else {
            ret.off = op.Imm
        }
    }

    /* all done */
    ret.width = int64(lay.Width)
    return ret, true
}
