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
    `strings`

    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/cloudwego/unisonpass/internal/utils`
)

// Target describes one of the processors Unison has a model for.
type Target struct {
    Name   string
    Arch   string
    CPU    string
    SP     mir.Reg
    FP     mir.Reg
    instrs map[string]*mir.InstrDesc
}

func newTarget(name string, arch string, cpu string, sp int, fp int, tab ...[]*mir.InstrDesc) *Target {
    ret := &Target {
        Name   : name,
        Arch   : arch,
        CPU    : cpu,
        SP     : mir.Preg(sp),
        FP     : mir.Preg(fp),
        instrs : make(map[string]*mir.InstrDesc),
    }

    /* register every opcode */
    for _, t := range tab {
        for _, d := range t {
            if _, ok := ret.instrs[d.Name]; ok {
                panic("target: duplicated opcode " + d.Name)
            } else {
                ret.instrs[d.Name] = d
            }
        }
    }

    /* all done */
    return ret
}

// Lookup implements mir.InstrInfo.
func (self *Target) Lookup(name string) *mir.InstrDesc {
    return self.instrs[name]
}

// Latency is the scheduling model latency of an instruction, in cycles.
func (self *Target) Latency(ins *mir.Instr) int {
    return self.Desc(ins).Latency
}

// Size is the encoded size of an instruction, in bytes.
func (self *Target) Size(ins *mir.Instr) int {
    return self.Desc(ins).Size
}

// Desc returns the descriptor registered for the opcode of ins. Descriptors
// that do not belong to this target are a programming error.
func (self *Target) Desc(ins *mir.Instr) *mir.InstrDesc {
    if d := self.instrs[ins.Name()]; d != ins.Desc {
        panic("target: instruction " + ins.Name() + " does not belong to " + self.Name)
    } else {
        return d
    }
}

// IsStackReg tells whether r is the stack pointer or the frame pointer.
func (self *Target) IsStackReg(r mir.Reg) bool {
    return r == self.SP || r == self.FP
}

// IsConstExtended tells whether ins needs a constant extender, that is, one
// of its immediates does not fit in the extendable field of the opcode.
func (self *Target) IsConstExtended(ins *mir.Instr) bool {
    nb := ins.Desc.ExtBits
    if nb == 0 || ins.IsInsideBundle() {
        return false
    }

    /* check every immediate and symbol */
    for _, op := range ins.Ops {
        switch op.Kind {
            case mir.K_sym: return true
            case mir.K_imm: if !fits(op.Imm, nb) { return true }
        }
    }

    /* everything fits */
    return false
}

func fits(v int64, nb uint8) bool {
    lim := int64(1) << (nb - 1)
    return v >= -lim && v < lim
}

// Select picks the Unison target for a triple and CPU. Only Hexagon V4 and
// the ARM1156T2F-S are supported.
func Select(triple string, cpu string) (*Target, error) {
    arch := triple
    if i := strings.IndexByte(triple, '-'); i >= 0 {
        arch = triple[:i]
    }

    /* match the known targets */
    switch {
        case arch == Hexagon.Arch && cpu == Hexagon.CPU : return Hexagon, nil
        case arch == ARM.Arch && cpu == ARM.CPU         : return ARM, nil
        default                                         : return nil, utils.ETarget(triple, cpu)
    }
}

func op(name string, lat int, size int, flags mir.InstrFlags) *mir.InstrDesc {
    return &mir.InstrDesc {
        Name    : name,
        Flags   : flags,
        Latency : lat,
        Size    : size,
    }
}

func ext(d *mir.InstrDesc, nb uint8) *mir.InstrDesc {
    d.ExtBits = nb
    return d
}

func mem(d *mir.InstrDesc, base int, off int, width int) *mir.InstrDesc {
    d.Mem = &mir.MemLayout {
        Base  : base,
        Off   : off,
        Width : width,
    }
    return d
}

func genericOps() []*mir.InstrDesc {
    return []*mir.InstrDesc {
        op("COPY"             , 1, 4, mir.F_copy),
        op("PHI"              , 0, 0, mir.F_phi),
        op("IMPLICIT_DEF"     , 0, 0, 0),
        op("KILL"             , 0, 0, 0),
        op("BUNDLE"           , 1, 0, mir.F_bundle),
        op("ADJCALLSTACKDOWN" , 1, 0, mir.F_frameSetup),
        op("ADJCALLSTACKUP"   , 1, 0, mir.F_frameSetup),
    }
}
