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
    `testing`

    `github.com/cloudwego/unisonpass`
    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

func TestTarget_Select(t *testing.T) {
    var pe unisonpass.PreconditionError
    tests := []struct {
        triple string
        cpu    string
        want   *Target
    } {
        { "hexagon"             , "hexagonv4"    , Hexagon },
        { "hexagon-unknown-elf" , "hexagonv4"    , Hexagon },
        { "arm-none-eabi"       , "arm1156t2f-s" , ARM     },
        { "arm"                 , "arm1156t2f-s" , ARM     },
    }
    for _, tc := range tests {
        tgt, err := Select(tc.triple, tc.cpu)
        require.NoError(t, err, tc.triple)
        assert.Same(t, tc.want, tgt)
    }

    /* unsupported combinations */
    for _, tc := range [][2]string { { "hexagon", "hexagonv60" }, { "armv7-none-eabi", "arm1156t2f-s" }, { "mips", "mips32" } } {
        _, err := Select(tc[0], tc[1])
        require.ErrorAs(t, err, &pe, tc[0])
    }
}

func TestTarget_Lookup(t *testing.T) {
    require.NotNil(t, Hexagon.Lookup("COPY"))
    require.NotNil(t, ARM.Lookup("COPY"))
    require.NotSame(t, Hexagon.Lookup("COPY"), ARM.Lookup("COPY"))
    require.Nil(t, Hexagon.Lookup("LDRi12"))
    require.Nil(t, ARM.Lookup("L2_loadri_io"))

    /* memory layouts */
    ld := Hexagon.Lookup("L2_loadri_io")
    require.NotNil(t, ld.Mem)
    assert.Equal(t, mir.MemLayout { Base: 1, Off: 2, Width: 4 }, *ld.Mem)
    assert.Equal(t, -1, ARM.Lookup("LDRH").Mem.Off)
}

func TestTarget_LatencySize(t *testing.T) {
    ins := mir.NewInstr(Hexagon.Lookup("M2_mpyi"), mir.RegDef(mir.Vreg(1)), mir.RegUse(mir.Vreg(2)), mir.RegUse(mir.Vreg(3)))
    assert.Equal(t, 3, Hexagon.Latency(ins))
    assert.Equal(t, 4, Hexagon.Size(ins))
    assert.Equal(t, 0, Hexagon.Size(mir.NewInstr(Hexagon.Lookup("PHI"))))

    /* instructions of another target */
    require.Panics(t, func() { ARM.Latency(ins) })
}

func TestTarget_StackRegs(t *testing.T) {
    assert.True(t, Hexagon.IsStackReg(mir.Preg(29)))
    assert.True(t, Hexagon.IsStackReg(mir.Preg(30)))
    assert.False(t, Hexagon.IsStackReg(mir.Preg(13)))
    assert.True(t, ARM.IsStackReg(mir.Preg(13)))
    assert.False(t, ARM.IsStackReg(mir.Vreg(13)))
}

func TestTarget_IsConstExtended(t *testing.T) {
    addi := func(v int64) *mir.Instr {
        return mir.NewInstr(Hexagon.Lookup("A2_addi"), mir.RegDef(mir.Vreg(1)), mir.RegUse(mir.Vreg(2)), mir.Imm(v))
    }
    assert.False(t, Hexagon.IsConstExtended(addi(0)))
    assert.False(t, Hexagon.IsConstExtended(addi(32767)))
    assert.False(t, Hexagon.IsConstExtended(addi(-32768)))
    assert.True(t, Hexagon.IsConstExtended(addi(32768)))
    assert.True(t, Hexagon.IsConstExtended(addi(-32769)))

    /* symbols always need an extender */
    tfr := mir.NewInstr(Hexagon.Lookup("A2_tfrsi"), mir.RegDef(mir.Vreg(1)), mir.Symbol("g"))
    assert.True(t, Hexagon.IsConstExtended(tfr))

    /* bundled and non-extendable instructions never do */
    ins := addi(100000)
    ins.Bundled = true
    assert.False(t, Hexagon.IsConstExtended(ins))
    add := mir.NewInstr(Hexagon.Lookup("A2_add"), mir.RegDef(mir.Vreg(1)), mir.RegUse(mir.Vreg(2)), mir.Imm(100000))
    assert.False(t, Hexagon.IsConstExtended(add))
    assert.False(t, ARM.IsConstExtended(mir.NewInstr(ARM.Lookup("MOVi"), mir.RegDef(mir.Vreg(1)), mir.Imm(1 << 40))))
}
