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
    `tlog.app/go/tlog`
)

// Metadata keys owned by Unison. Everything starting with MetaPrefix is
// stripped by CleanMetadata before emission.
const (
    MetaPrefix    = "unison"
    MetaPartition = "unison-memory-partition"
    MetaExecFreq  = "unison-exec-freq"
    MetaProperty  = "unison-property"
)

type Pass interface {
    Apply(fn *mir.Function) (bool, error)
}

type PassDescriptor struct {
    Pass Pass
    Name string
}

// Pipeline is an ordered list of passes, built explicitly by its owner.
type Pipeline struct {
    Passes []PassDescriptor
}

func (self *Pipeline) Add(name string, pass Pass) *Pipeline {
    self.Passes = append(self.Passes, PassDescriptor { Name: name, Pass: pass })
    return self
}

// Run applies every pass on fn in order. It stops at the first error.
func (self *Pipeline) Run(fn *mir.Function) (bool, error) {
    changed := false
    for _, p := range self.Passes {
        ok, err := p.Pass.Apply(fn)
        tlog.V("pipeline").Printw("pass", "name", p.Name, "func", fn.Name, "changed", ok, "err", err)

        /* stop at the first failure */
        if err != nil {
            return changed, err
        } else {
            changed = changed || ok
        }
    }
    return changed, nil
}

// RunModule runs the pipeline on every function of m, one at a time.
func (self *Pipeline) RunModule(m *mir.Module) (bool, error) {
    changed := false
    for _, fn := range m.Functions {
        if ok, err := self.Run(fn); err != nil {
            return changed, err
        } else {
            changed = changed || ok
        }
    }
    return changed, nil
}

func setMetadata(ins *mir.Instr, md *mir.Metadata) {
    if key, ok := md.Key(); !ok {
        panic("setMetadata: metadata without a key")
    } else if _, i := ins.Metadata(key); i >= 0 {
        ins.Ops[i] = mir.Meta(md)
    } else {
        ins.AddOperand(mir.Meta(md))
    }
}
