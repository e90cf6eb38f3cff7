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

package mir

import (
    `fmt`
    `strings`
)

type BasicBlock struct {
    Id     int
    Ins    []*Instr
    Succ   []*BasicBlock
    Pred   []*BasicBlock
    Parent *Function
}

func (self *BasicBlock) Append(ins ...*Instr) {
    for _, p := range ins {
        p.Parent = self
        self.Ins = append(self.Ins, p)
    }
}

func (self *BasicBlock) AddSuccessor(bb *BasicBlock) {
    self.Succ = append(self.Succ, bb)
    bb.Pred = append(bb.Pred, self)
}

// Terminator returns the first instruction of the trailing terminator group,
// or nil if the block ends without a branch or return.
func (self *BasicBlock) Terminator() *Instr {
    var term *Instr
    for i := len(self.Ins) - 1; i >= 0 && self.Ins[i].IsTerminator(); i-- {
        term = self.Ins[i]
    }
    return term
}

// Last returns the last instruction of the block, or nil for empty blocks.
func (self *BasicBlock) Last() *Instr {
    if n := len(self.Ins); n == 0 {
        return nil
    } else {
        return self.Ins[n - 1]
    }
}

// LayoutSuccessor returns the block placed right after this one.
func (self *BasicBlock) LayoutSuccessor() *BasicBlock {
    if fn := self.Parent; fn != nil {
        for i, bb := range fn.Blocks {
            if bb == self && i + 1 < len(fn.Blocks) {
                return fn.Blocks[i + 1]
            }
        }
    }
    return nil
}

func (self *BasicBlock) IsLayoutSuccessor(bb *BasicBlock) bool {
    return bb != nil && self.LayoutSuccessor() == bb
}

// CanFallThrough reports whether control may reach the layout successor
// without an explicit branch.
func (self *BasicBlock) CanFallThrough() bool {
    if self.LayoutSuccessor() == nil {
        return false
    } else if p := self.Last(); p == nil {
        return true
    } else {
        return !p.Desc.Is(F_barrier)
    }
}

func (self *BasicBlock) String() string {
    buf := []string { fmt.Sprintf("bb.%d:", self.Id) }

    /* successor list */
    if len(self.Succ) != 0 {
        ss := make([]string, 0, len(self.Succ))
        for _, s := range self.Succ { ss = append(ss, fmt.Sprintf("%%bb.%d", s.Id)) }
        buf = append(buf, "  successors: " + strings.Join(ss, ", "))
    }

    /* every instruction */
    for _, ins := range self.Ins {
        buf = append(buf, "  " + ins.String())
    }

    /* join them together */
    return strings.Join(buf, "\n")
}
