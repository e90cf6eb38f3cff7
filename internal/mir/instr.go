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
    `strings`
)

type InstrFlags uint16

const (
    F_mayLoad InstrFlags = 1 << iota
    F_mayStore
    F_call
    F_branch
    F_barrier
    F_return
    F_copy
    F_phi
    F_bundle
    F_frameSetup
)

// MemLayout locates the address of a memory access within the operand list.
// Off is -1 when the opcode has no immediate offset operand.
type MemLayout struct {
    Base  int
    Off   int
    Width int
}

type InstrDesc struct {
    Name    string
    Flags   InstrFlags
    Latency int
    Size    int
    Mem     *MemLayout
    ExtBits uint8
}

func (self *InstrDesc) Is(f InstrFlags) bool {
    return self.Flags & f != 0
}

// InstrInfo resolves opcode names into descriptors, it returns nil for
// unknown opcodes.
type InstrInfo interface {
    Lookup(name string) *InstrDesc
}

type Instr struct {
    Desc    *InstrDesc
    Ops     []Operand
    Bundled bool
    Parent  *BasicBlock
}

func NewInstr(desc *InstrDesc, ops ...Operand) *Instr {
    return &Instr {
        Desc : desc,
        Ops  : ops,
    }
}

func (self *Instr) Name() string         { return self.Desc.Name }
func (self *Instr) MayLoad() bool        { return self.Desc.Is(F_mayLoad) }
func (self *Instr) MayStore() bool       { return self.Desc.Is(F_mayStore) }
func (self *Instr) IsCall() bool         { return self.Desc.Is(F_call) }
func (self *Instr) IsBranch() bool       { return self.Desc.Is(F_branch) }
func (self *Instr) IsReturn() bool       { return self.Desc.Is(F_return) }
func (self *Instr) IsCopy() bool         { return self.Desc.Is(F_copy) }
func (self *Instr) IsPhi() bool          { return self.Desc.Is(F_phi) }
func (self *Instr) IsBundle() bool       { return self.Desc.Is(F_bundle) }
func (self *Instr) IsFrameSetup() bool   { return self.Desc.Is(F_frameSetup) }
func (self *Instr) IsInsideBundle() bool { return self.Bundled }

func (self *Instr) IsTerminator() bool {
    return self.Desc.Is(F_branch | F_return)
}

func (self *Instr) AccessesMemory() bool {
    return !self.IsBundle() && self.Desc.Is(F_mayLoad | F_mayStore)
}

func (self *Instr) AddOperand(op Operand) {
    self.Ops = append(self.Ops, op)
}

func (self *Instr) RemoveOperand(i int) {
    copy(self.Ops[i:], self.Ops[i + 1:])
    self.Ops[len(self.Ops) - 1] = Operand{}
    self.Ops = self.Ops[:len(self.Ops) - 1]
}

// Defs returns the registers defined by this instruction, in operand order.
func (self *Instr) Defs() (rr []Reg) {
    for _, op := range self.Ops {
        if op.IsReg() && op.Def {
            rr = append(rr, op.Reg)
        }
    }
    return
}

// Uses returns the registers read by this instruction, in operand order.
func (self *Instr) Uses() (rr []Reg) {
    for _, op := range self.Ops {
        if op.IsReg() && !op.Def {
            rr = append(rr, op.Reg)
        }
    }
    return
}

func (self *Instr) Reads(r Reg) bool {
    for _, op := range self.Ops {
        if op.IsReg() && !op.Def && op.Reg == r {
            return true
        }
    }
    return false
}

func (self *Instr) Defines(r Reg) bool {
    for _, op := range self.Ops {
        if op.IsReg() && op.Def && op.Reg == r {
            return true
        }
    }
    return false
}

// Metadata returns the first metadata operand keyed by key.
func (self *Instr) Metadata(key string) (*Metadata, int) {
    for i, op := range self.Ops {
        if op.IsMeta() {
            if k, ok := op.Meta.Key(); ok && k == key {
                return op.Meta, i
            }
        }
    }
    return nil, -1
}

// Clone returns a detached copy of this instruction.
func (self *Instr) Clone() *Instr {
    ops := make([]Operand, len(self.Ops))
    copy(ops, self.Ops)
    return &Instr {
        Desc    : self.Desc,
        Ops     : ops,
        Bundled : self.Bundled,
    }
}

func (self *Instr) String() string {
    var i int
    var sb strings.Builder

    /* bundled instructions */
    if self.Bundled {
        sb.WriteString("bundled ")
    }

    /* leading definitions */
    for i = 0; i < len(self.Ops) && self.Ops[i].IsReg() && self.Ops[i].Def; i++ {
        if i != 0 {
            sb.WriteString(", ")
        }
        sb.WriteString(self.Ops[i].String())
    }

    /* the opcode */
    if i != 0 {
        sb.WriteString(" = ")
    }

    /* the remaining operands */
    sb.WriteString(self.Desc.Name)
    for j, op := range self.Ops[i:] {
        if j == 0 {
            sb.WriteString(" ")
        } else {
            sb.WriteString(", ")
        }
        if op.IsReg() && op.Def {
            sb.WriteString("def ")
        }
        sb.WriteString(op.String())
    }

    /* all done */
    return sb.String()
}
