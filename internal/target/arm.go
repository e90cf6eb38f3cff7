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

package target

import (
    `github.com/cloudwego/unisonpass/internal/mir`
)

const (
    _ARM_SP = 13
    _ARM_FP = 11
)

// ARM is the ARM1156T2F-S target, ARM has no constant extenders.
var ARM = newTarget("ARM", "arm", "arm1156t2f-s", _ARM_SP, _ARM_FP, genericOps(), []*mir.InstrDesc {
    op("ADDri"   , 1, 4, 0),
    op("ADDrr"   , 1, 4, 0),
    op("SUBri"   , 1, 4, 0),
    op("SUBrr"   , 1, 4, 0),
    op("ANDri"   , 1, 4, 0),
    op("MOVr"    , 1, 4, 0),
    op("MOVi"    , 1, 4, 0),
    op("MUL"     , 2, 4, 0),
    op("CMPri"   , 1, 4, 0),
    op("CMPrr"   , 1, 4, 0),
    mem(op("LDRi12"  , 3, 4, _F_load ), 1, 2, 4),
    mem(op("LDRBi12" , 3, 4, _F_load ), 1, 2, 1),
    mem(op("LDRH"    , 3, 4, _F_load ), 1, -1, 2),
    mem(op("STRi12"  , 1, 4, _F_store), 1, 2, 4),
    mem(op("STRBi12" , 1, 4, _F_store), 1, 2, 1),
    op("B"       , 1, 4, _F_jump),
    op("Bcc"     , 1, 4, mir.F_branch),
    op("BL"      , 1, 4, _F_call),
    op("BX_RET"  , 1, 4, _F_ret),
})
