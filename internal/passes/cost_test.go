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
    `bytes`
    `testing`

    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/cloudwego/unisonpass/internal/target`
    `github.com/stretchr/testify/require`
)

func costOf(t *testing.T, policy ShadowPolicy, src string) []int {
    fn := parseFunc(t, src)
    return CostModel { Target: target.Hexagon, Policy: policy }.CostBlock(fn.Blocks[0])
}

func TestCost_ShadowConsumed(t *testing.T) {
    require.Equal(t, []int { 0, 0, 1 }, costOf(t, ShadowNextInstr, `--- f
bb.0:
  %0 = COPY $r30
  %1 = L2_loadri_io %0, 0
  JMPret
`))
}

func TestCost_ShadowExpires(t *testing.T) {
    src := `--- f
bb.0:
  %0 = COPY $r29
  %1 = A2_add %2, %3
  %4 = L2_loadri_io %0, 0
  JMPret
`
    require.Equal(t, []int { 0, 1, 3, 1 }, costOf(t, ShadowNextInstr, src))
    require.Equal(t, []int { 0, 1, 0, 1 }, costOf(t, ShadowBlock, src))
}

func TestCost_ShadowConsumedOnce(t *testing.T) {
    require.Equal(t, []int { 0, 0, 3 }, costOf(t, ShadowBlock, `--- f
bb.0:
  %0 = COPY $r30
  S2_storeri_io %0, 0, %5
  %1 = L2_loadri_io %0, 4
`))
}

func TestCost_FrameIndex(t *testing.T) {
    require.Equal(t, []int { 0, 0, 0, 1, 0, 0 }, costOf(t, ShadowNextInstr, `--- f
bb.0:
  %0 = TFR_FI %fi.-1, 0
  S2_storeri_io %0, 0, %5
  %1 = TFR_FI %fi.2, 0
  S2_storeri_io %1, 0, %5
  S2_storeri_io %fi.3, 0, %5
  ADJCALLSTACKDOWN 0, 0
`))
}

func TestCost_LoadFromFixedSlot(t *testing.T) {
    require.Equal(t, []int { 0, 3, 1 }, costOf(t, ShadowBlock, `--- f
bb.0:
  %0 = L2_loadri_io %fi.-1, 0
  %1 = L2_loadri_io %0, 0
  JMPret
`))
}

func TestCost_CallKeepsFullCost(t *testing.T) {
    require.Equal(t, []int { 0, 1, 0, 1 }, costOf(t, ShadowBlock, `--- f
bb.0:
  %0 = COPY $r29
  J2_call @g, %0
  %1 = L2_loadri_io %0, 0
  JMPret
`))
}

func TestCost_Latency(t *testing.T) {
    require.Equal(t, []int { 3, 1, 3 }, costOf(t, ShadowNextInstr, `--- f
bb.0:
  %1 = M2_mpyi %2, %3
  %4 = COPY %1
  %5 = L2_loadri_io %4, 0
`))
}

func TestCost_CopyUsedByPhi(t *testing.T) {
    fn := parseFunc(t, `--- f
bb.0:
  successors: %bb.1
  %1 = COPY %0
  %2 = COPY %0
  J2_jump %bb.1
bb.1:
  %3 = PHI %1, %bb.0
  JMPret
`)
    cc := CostModel { Target: target.Hexagon }.CostFunction(fn)
    require.Equal(t, [][]int { { 0, 1, 1 }, { 0, 1 } }, cc)
}

func TestCost_ResetAtBlockBoundary(t *testing.T) {
    fn := parseFunc(t, `--- f
bb.0:
  successors: %bb.1
  %0 = COPY $r29
bb.1:
  %1 = L2_loadri_io %0, 0
  JMPret
`)
    cc := CostModel { Target: target.Hexagon, Policy: ShadowBlock }.CostFunction(fn)
    require.Equal(t, [][]int { { 0 }, { 3, 1 } }, cc)
}

func TestCost_ExplicitState(t *testing.T) {
    cm := CostModel { Target: target.Hexagon }
    fn := parseFunc(t, "--- f\nbb.0:\n  %1 = L2_loadri_io %0, 0\n")
    ins := fn.Blocks[0].Ins[0]

    /* the same instruction is free only while the shadow is pending */
    c, st := cm.Cost(ins, CostState { Shadow: mir.Vreg(0), Armed: true })
    require.Equal(t, 0, c)
    require.False(t, st.Armed)
    c, _ = cm.Cost(ins, st)
    require.Equal(t, 3, c)
}

func TestCost_ForeignInstr(t *testing.T) {
    fn := parseFunc(t, "--- f\nbb.0:\n  %1 = A2_add %2, %3\n")
    require.Panics(t, func() {
        CostModel { Target: target.ARM }.CostBlock(fn.Blocks[0])
    })
}

const reportFunc = `--- f
bb.0:
  successors: %bb.1
  %1 = M2_mpyi %2, %3
  J2_jump %bb.1
bb.1:
  %4 = A2_add %1, %1
  JMPret
`

func TestReport(t *testing.T) {
    fn := parseFunc(t, reportFunc)
    cm := CostModel { Target: target.Hexagon }

    /* frequencies are required */
    _, err := cm.Report(fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "bb.0")

    /* attach some frequencies */
    _, err = AttachExecFreq { Freq: func(bb *mir.BasicBlock) uint64 { return uint64(bb.Id + 1) * 10 } }.Apply(fn)
    require.NoError(t, err)
    rep, err := cm.Report(fn)
    require.NoError(t, err)
    require.Equal(t, 16, rep.Size)
    require.Equal(t, 80.0, rep.Speed)
    require.Equal(t, 1.5, rep.MeanCost)

    /* JSON summary */
    buf := new(bytes.Buffer)
    require.NoError(t, rep.WriteJSON(buf))
    require.JSONEq(t, `{"size": 16, "speed": 80, "mean_cost": 1.5}`, buf.String())
}

func TestDumpWithCosts(t *testing.T) {
    fn := parseFunc(t, reportFunc)
    _, err := AttachExecFreq { Freq: func(bb *mir.BasicBlock) uint64 { return uint64(bb.Id + 1) * 10 } }.Apply(fn)
    require.NoError(t, err)
    buf := new(bytes.Buffer)
    require.NoError(t, CostModel { Target: target.Hexagon }.DumpWithCosts(buf, fn))
    require.Equal(t, `--- f
 10: bb.0
  3:    %1 = M2_mpyi %2, %3
  1:    J2_jump %bb.1, !{"unison-exec-freq", 10}
 20: bb.1
  1:    %4 = A2_add %1, %1
  1:    JMPret !{"unison-exec-freq", 20}
`, buf.String())
}

func TestDumpWithCosts_MissingFreq(t *testing.T) {
    cm := CostModel { Target: target.Hexagon }
    fn := parseFunc(t, reportFunc)
    err := cm.DumpWithCosts(new(bytes.Buffer), fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "bb.0")

    /* empty blocks are marked instead */
    _, err = AttachExecFreq { Freq: func(*mir.BasicBlock) uint64 { return 1 } }.Apply(fn)
    require.NoError(t, err)
    fn.Blocks = append(fn.Blocks, &mir.BasicBlock { Id: 2 })
    buf := new(bytes.Buffer)
    require.NoError(t, cm.DumpWithCosts(buf, fn))
    require.Contains(t, buf.String(), "\n  ?: bb.2\n")
}
