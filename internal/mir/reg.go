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
)

// Reg is either a virtual register (%N) or a physical register ($rN).
type Reg uint32

const (
    _B_virt = 31
)

const (
    _R_virt  = 1 << _B_virt
    _R_index = _R_virt - 1
)

const (
    NoReg Reg = ^Reg(0)
)

func Vreg(i int) Reg {
    if i < 0 || i >= _R_index {
        panic("vreg: register index out of range")
    } else {
        return Reg(i) | _R_virt
    }
}

func Preg(i int) Reg {
    if i < 0 || i >= _R_index {
        panic("preg: register index out of range")
    } else {
        return Reg(i)
    }
}

func (self Reg) Virtual() bool {
    return self != NoReg && self & _R_virt != 0
}

func (self Reg) Physical() bool {
    return self != NoReg && self & _R_virt == 0
}

func (self Reg) Index() int {
    return int(self & _R_index)
}

func (self Reg) String() string {
    switch {
        case self == NoReg    : return "$noreg"
        case self.Virtual()   : return fmt.Sprintf("%%%d", self.Index())
        default               : return fmt.Sprintf("$r%d", self.Index())
    }
}
