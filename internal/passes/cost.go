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
    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/cloudwego/unisonpass/internal/target`
)

type ShadowPolicy uint8

const (
    // ShadowNextInstr drops a pending shadow after the first instruction
    // that neither consumes nor re-arms it.
    ShadowNextInstr ShadowPolicy = iota

    // ShadowBlock keeps a pending shadow until it is consumed or the block
    // ends.
    ShadowBlock
)

// CostState is the pending stack pointer shadow: a register holding a copy
// of the stack or frame pointer, whose next memory use is free.
type CostState struct {
    Shadow mir.Reg
    Armed  bool
}

func armed(r mir.Reg) CostState {
    return CostState { Shadow: r, Armed: true }
}

// CostModel estimates the cost of an instruction as it will look after
// register allocation, when stack address computations fold into their
// memory accesses.
type CostModel struct {
    Target *target.Target
    Policy ShadowPolicy
}

func (self CostModel) keep(st CostState) CostState {
    if self.Policy == ShadowBlock {
        return st
    } else {
        return CostState{}
    }
}

// Cost returns the cost of ins, given the state left by the previous
// instruction of the same block, along with the state for the next one.
func (self CostModel) Cost(ins *mir.Instr, st CostState) (int, CostState) {
    switch {
        case ins.IsFrameSetup()                       : return 0, self.keep(st)
        case ins.IsCopy() && usedByPhi(ins)           : return 0, self.keep(st)
        case ins.IsCopy() && self.copiesStackReg(ins) : return 0, armed(ins.Defs()[0])
        case definesFromFixedSlot(ins)                : return 0, armed(ins.Defs()[0])
        case hasFrameIndex(ins)                       : return 0, self.keep(st)
        case consumesShadow(ins, st)                  : return 0, CostState{}
        default                                       : return self.Target.Latency(ins), self.keep(st)
    }
}

// CostBlock returns the cost of every instruction of bb, in block order.
func (self CostModel) CostBlock(bb *mir.BasicBlock) []int {
    st := CostState{}
    ret := make([]int, len(bb.Ins))

    /* thread the shadow state through the block */
    for i, ins := range bb.Ins {
        ret[i], st = self.Cost(ins, st)
    }

    /* all done */
    return ret
}

// CostFunction returns the cost of every instruction of fn, block by block.
func (self CostModel) CostFunction(fn *mir.Function) [][]int {
    ret := make([][]int, len(fn.Blocks))
    for i, bb := range fn.Blocks {
        ret[i] = self.CostBlock(bb)
    }
    return ret
}

func (self CostModel) copiesStackReg(ins *mir.Instr) bool {
    dr := ins.Defs()
    ur := ins.Uses()
    return len(dr) != 0 && len(ur) != 0 && self.Target.IsStackReg(ur[0])
}

func usedByPhi(ins *mir.Instr) bool {
    dr := ins.Defs()
    bb := ins.Parent

    /* detached instruction, or a copy without result */
    if bb == nil || len(dr) == 0 {
        return false
    }

    /* PHIs are always at the beginning of the block */
    for _, succ := range bb.Succ {
        for _, p := range succ.Ins {
            if !p.IsPhi() {
                break
            } else if p.Reads(dr[0]) {
                return true
            }
        }
    }

    /* not used by any PHI */
    return false
}

// definesFromFixedSlot matches address materializations of a fixed slot,
// not loads from it.
func definesFromFixedSlot(ins *mir.Instr) bool {
    if len(ins.Defs()) == 0 || ins.AccessesMemory() {
        return false
    }

    /* negative frame indices are caller-provided slots */
    for _, op := range ins.Ops {
        if op.IsFrame() && op.Imm < 0 {
            return true
        }
    }

    /* no fixed slot */
    return false
}

func consumesShadow(ins *mir.Instr, st CostState) bool {
    return st.Armed && !ins.IsCall() && ins.AccessesMemory() && ins.Reads(st.Shadow)
}

func hasFrameIndex(ins *mir.Instr) bool {
    for _, op := range ins.Ops {
        if op.IsFrame() {
            return true
        }
    }
    return false
}
