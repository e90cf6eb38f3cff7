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
    _HEX_SP = 29
    _HEX_FP = 30
)

const (
    _F_load  = mir.F_mayLoad
    _F_store = mir.F_mayStore
    _F_jump  = mir.F_branch | mir.F_barrier
    _F_ret   = mir.F_return | mir.F_barrier
    _F_call  = mir.F_call | mir.F_mayLoad | mir.F_mayStore
)

// Hexagon is the Hexagon V4 target. Immediate widths follow the
// constant-extendable fields of the corresponding opcodes.
var Hexagon = newTarget("Hexagon", "hexagon", "hexagonv4", _HEX_SP, _HEX_FP, genericOps(), []*mir.InstrDesc {
    ext(op("A2_addi"   , 1, 4, 0), 16),
    op("A2_add"        , 1, 4, 0),
    op("A2_sub"        , 1, 4, 0),
    op("A2_and"        , 1, 4, 0),
    op("A2_or"         , 1, 4, 0),
    op("A2_tfr"        , 1, 4, 0),
    ext(op("A2_tfrsi"  , 1, 4, 0), 16),
    op("M2_mpyi"       , 3, 4, 0),
    ext(op("C2_cmpeqi" , 1, 4, 0), 10),
    ext(op("C2_cmpgti" , 1, 4, 0), 10),
    op("C2_cmpeq"      , 1, 4, 0),
    ext(op("TFR_FI"    , 1, 4, 0), 16),
    ext(mem(op("L2_loadrb_io"  , 3, 4, _F_load ), 1, 2, 1), 11),
    ext(mem(op("L2_loadrh_io"  , 3, 4, _F_load ), 1, 2, 2), 12),
    ext(mem(op("L2_loadri_io"  , 3, 4, _F_load ), 1, 2, 4), 13),
    ext(mem(op("L2_loadrd_io"  , 3, 4, _F_load ), 1, 2, 8), 14),
    ext(mem(op("S2_storerb_io" , 1, 4, _F_store), 0, 1, 1), 11),
    ext(mem(op("S2_storerh_io" , 1, 4, _F_store), 0, 1, 2), 12),
    ext(mem(op("S2_storeri_io" , 1, 4, _F_store), 0, 1, 4), 13),
    ext(mem(op("S2_storerd_io" , 1, 4, _F_store), 0, 1, 8), 14),
    op("J2_jump"       , 1, 4, _F_jump),
    op("J2_jumpt"      , 1, 4, mir.F_branch),
    op("J2_jumpf"      , 1, 4, mir.F_branch),
    op("J2_call"       , 1, 4, _F_call),
    op("JMPret"        , 1, 4, _F_ret),
})
