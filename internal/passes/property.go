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

const (
    PropConstExtended = "constant-extended"
)

// MarkProperty tags every instruction accepted by Match with
// `!{"unison-property", Name}`.
type MarkProperty struct {
    Name  string
    Match func(ins *mir.Instr) bool
}

// ConstExtended marks the instructions that need a constant extender on t.
func ConstExtended(t *target.Target) MarkProperty {
    return MarkProperty {
        Name  : PropConstExtended,
        Match : t.IsConstExtended,
    }
}

func (self MarkProperty) Apply(fn *mir.Function) (bool, error) {
    changed := false
    fn.ForEachInstr(func(_ *mir.BasicBlock, ins *mir.Instr) {
        if !self.has(ins) && self.Match(ins) {
            changed = true
            ins.AddOperand(mir.Meta(mir.NewMetadata(MetaProperty, self.Name)))
        }
    })
    return changed, nil
}

func (self MarkProperty) has(ins *mir.Instr) bool {
    for _, op := range ins.Ops {
        if op.IsMeta() {
            if key, _ := op.Meta.Key(); key == MetaProperty && len(op.Meta.Fields) > 1 && op.Meta.Fields[1].S == self.Name {
                return true
            }
        }
    }
    return false
}

// HasProperty tells whether ins was tagged with the named property.
func HasProperty(ins *mir.Instr, name string) bool {
    return MarkProperty { Name: name }.has(ins)
}
