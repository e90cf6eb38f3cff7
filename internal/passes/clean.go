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
    `strings`

    `github.com/cloudwego/unisonpass/internal/mir`
)

// CleanMetadata removes every metadata operand whose key starts with Prefix,
// so that the emitted code carries no trace of the Unison annotations.
type CleanMetadata struct {
    Prefix string
}

func (self CleanMetadata) Apply(fn *mir.Function) (bool, error) {
    changed := false
    fn.ForEachInstr(func(_ *mir.BasicBlock, ins *mir.Instr) {
        for i := self.find(ins); i >= 0; i = self.find(ins) {
            changed = true
            ins.RemoveOperand(i)
        }
    })
    return changed, nil
}

func (self CleanMetadata) find(ins *mir.Instr) int {
    for i, op := range ins.Ops {
        if op.IsMeta() {
            if key, ok := op.Meta.Key(); ok && strings.HasPrefix(key, self.Prefix) {
                return i
            }
        }
    }
    return -1
}
