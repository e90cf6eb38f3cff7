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

    `github.com/oleiade/lane`
    `tlog.app/go/errors`
)

// FrameObject describes a stack slot. Fixed objects are caller-provided and
// have negative indices.
type FrameObject struct {
    Index  int
    Size   int
    Offset int64
    Fixed  bool
}

type Function struct {
    Name        string
    Annotations []string
    OptSize     bool
    Frame       []FrameObject
    Blocks      []*BasicBlock
}

func (self *Function) HasAnnotation(name string) bool {
    for _, a := range self.Annotations {
        if a == name {
            return true
        }
    }
    return false
}

func (self *Function) Entry() *BasicBlock {
    if len(self.Blocks) == 0 {
        return nil
    } else {
        return self.Blocks[0]
    }
}

func (self *Function) Block(id int) *BasicBlock {
    for _, bb := range self.Blocks {
        if bb.Id == id {
            return bb
        }
    }
    return nil
}

func (self *Function) NewBlock() *BasicBlock {
    bb := &BasicBlock { Id: len(self.Blocks), Parent: self }
    self.Blocks = append(self.Blocks, bb)
    return bb
}

// ForEachInstr visits every instruction in layout order.
func (self *Function) ForEachInstr(action func(bb *BasicBlock, ins *Instr)) {
    for _, bb := range self.Blocks {
        for _, ins := range bb.Ins {
            action(bb, ins)
        }
    }
}

// Renumber assigns block ids in layout order and rewrites every block
// reference operand accordingly.
func (self *Function) Renumber() {
    ids := make(map[int64]int64, len(self.Blocks))

    /* build the id mapping */
    for i, bb := range self.Blocks {
        ids[int64(bb.Id)] = int64(i)
    }

    /* rewrite block references */
    for _, bb := range self.Blocks {
        for _, ins := range bb.Ins {
            for i := range ins.Ops {
                if op := &ins.Ops[i]; op.IsBlock() {
                    if v, ok := ids[op.Imm]; ok {
                        op.Imm = v
                    }
                }
            }
        }
    }

    /* update the block ids */
    for i, bb := range self.Blocks {
        bb.Id = i
    }
}

// ComputePreds rebuilds the predecessor lists from the successor lists.
func (self *Function) ComputePreds() {
    for _, bb := range self.Blocks {
        bb.Pred = bb.Pred[:0]
    }
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            s.Pred = append(s.Pred, bb)
        }
    }
}

// ReplaceBody erases every block of this function and loads the blocks of
// src in their place. src must not be used afterwards.
func (self *Function) ReplaceBody(src *Function) {
    for len(self.Blocks) != 0 {
        self.eraseBlock(0)
    }

    /* renumber the now empty function */
    self.Renumber()
    self.Frame = src.Frame

    /* adopt the new blocks */
    for _, bb := range src.Blocks {
        bb.Parent = self
        self.Blocks = append(self.Blocks, bb)
    }

    /* detach them from the source */
    src.Blocks = nil
    self.Renumber()
}

func (self *Function) eraseBlock(i int) {
    bb := self.Blocks[i]
    copy(self.Blocks[i:], self.Blocks[i + 1:])
    self.Blocks[len(self.Blocks) - 1] = nil
    self.Blocks = self.Blocks[:len(self.Blocks) - 1]

    /* detach the block */
    bb.Parent = nil
    bb.Succ = nil
    bb.Pred = nil
}

// Reachable returns the ids of every block reachable from the entry block.
func (self *Function) Reachable() map[int]bool {
    q := lane.NewQueue()
    r := make(map[int]bool, len(self.Blocks))

    /* empty functions have nothing reachable */
    if self.Entry() == nil {
        return r
    }

    /* breadth-first walk over the successors */
    r[self.Entry().Id] = true
    for q.Enqueue(self.Entry()); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)
        for _, s := range p.Succ {
            if !r[s.Id] {
                r[s.Id] = true
                q.Enqueue(s)
            }
        }
    }

    /* all done */
    return r
}

// Verify checks the structural invariants of the function.
func (self *Function) Verify() error {
    ids := make(map[int]*BasicBlock, len(self.Blocks))

    /* block ids must be unique and owned by this function */
    for _, bb := range self.Blocks {
        if _, ok := ids[bb.Id]; ok {
            return errors.New("%s: duplicated block bb.%d", self.Name, bb.Id)
        } else if bb.Parent != self {
            return errors.New("%s: bb.%d belongs to another function", self.Name, bb.Id)
        } else {
            ids[bb.Id] = bb
        }
    }

    /* successors and block operands must refer to blocks in this function */
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            if ids[s.Id] != s {
                return errors.New("%s: bb.%d has a foreign successor bb.%d", self.Name, bb.Id, s.Id)
            }
        }
        for _, ins := range bb.Ins {
            if ins.Parent != bb {
                return errors.New("%s: bb.%d: instruction %q has a wrong parent", self.Name, bb.Id, ins.Name())
            }
            for _, op := range ins.Ops {
                if op.IsBlock() && ids[int(op.Imm)] == nil {
                    return errors.New("%s: bb.%d: reference to unknown block %s", self.Name, bb.Id, op)
                }
            }
        }
    }

    /* all checked */
    return nil
}

func (self *Function) String() string {
    buf := []string { "--- " + self.Name }

    /* function attributes */
    if attrs := self.attributes(); len(attrs) != 0 {
        buf = append(buf, "attributes: " + strings.Join(attrs, " "))
    }

    /* frame objects */
    if len(self.Frame) != 0 {
        buf = append(buf, "frame:")
        for _, fo := range self.Frame {
            buf = append(buf, fo.String())
        }
    }

    /* every basic block */
    for _, bb := range self.Blocks {
        buf = append(buf, bb.String())
    }

    /* join them together */
    return strings.Join(buf, "\n")
}

func (self *Function) attributes() []string {
    ret := append([]string(nil), self.Annotations...)
    if self.OptSize {
        ret = append(ret, _A_optsize)
    }
    return ret
}

func (self FrameObject) String() string {
    if self.Fixed {
        return fmt.Sprintf("  %%fi.%d: size=%d offset=%d fixed", self.Index, self.Size, self.Offset)
    } else {
        return fmt.Sprintf("  %%fi.%d: size=%d offset=%d", self.Index, self.Size, self.Offset)
    }
}

type Module struct {
    Functions []*Function
}

func (self *Module) Function(name string) *Function {
    for _, fn := range self.Functions {
        if fn.Name == name {
            return fn
        }
    }
    return nil
}

func (self *Module) String() string {
    buf := make([]string, 0, len(self.Functions))
    for _, fn := range self.Functions {
        buf = append(buf, fn.String())
    }
    return strings.Join(buf, "\n\n") + "\n"
}
