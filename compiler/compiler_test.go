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

package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cloudwego/unisonpass"
	"github.com/cloudwego/unisonpass/internal/passes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexagonSrc = `--- f
frame:
  %fi.0: size=4 offset=0
  %fi.1: size=4 offset=4
bb.0:
  %1 = L2_loadri_io %fi.0, 0
  S2_storeri_io %fi.1, 0, %1
  %2 = A2_addi %1, 100000
  JMPret
`

func TestProcess_Inactive(t *testing.T) {
	out, err := Process([]byte(hexagonSrc), "hexagon-unknown-elf", "hexagonv4")
	require.NoError(t, err)
	assert.Equal(t, hexagonSrc, string(out))
	assert.NotContains(t, string(out), "unison")
}

func TestProcess_Errors(t *testing.T) {
	var pe unisonpass.PreconditionError
	var se unisonpass.SyntaxError

	_, err := Process([]byte(hexagonSrc), "x86_64-linux-gnu", "generic")
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "Target unavailable in Unison")

	_, err = Process([]byte(hexagonSrc), "hexagon", "hexagonv60")
	require.ErrorAs(t, err, &pe)

	_, err = Process([]byte(hexagonSrc), "arm-none-eabi", "arm1156t2f-s")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 6, se.Line)
}

func TestUnit_Partitions(t *testing.T) {
	unit, err := Parse([]byte(hexagonSrc), "hexagon", "hexagonv4")
	require.NoError(t, err)

	/* run everything before the driver */
	pl := unit.Pipeline()
	require.Len(t, pl.Passes, 5)
	pl.Passes = pl.Passes[:3]
	_, err = pl.RunModule(unit.Module)
	require.NoError(t, err)

	/* non-aliasing accesses get their own partition */
	bb := unit.Module.Functions[0].Blocks[0]
	for i, ins := range bb.Ins[:2] {
		md, _ := ins.Metadata(passes.MetaPartition)
		require.NotNil(t, md)
		id, _ := md.Int(1)
		assert.Equal(t, int64(i), id)
	}
	assert.True(t, passes.HasProperty(bb.Ins[2], passes.PropConstExtended))

	/* nothing survives the cleanup */
	_, err = passes.CleanMetadata{Prefix: passes.MetaPrefix}.Apply(unit.Module.Functions[0])
	require.NoError(t, err)
	assert.NotContains(t, unit.Module.String(), "!{")
}

func TestUnit_ARMPipeline(t *testing.T) {
	unit, err := Parse([]byte("--- g\nbb.0:\n  %1 = LDRi12 %0, 4\n  BX_RET\n"), "arm-none-eabi", "arm1156t2f-s")
	require.NoError(t, err)
	assert.Len(t, unit.Pipeline().Passes, 4)
}

func TestUnit_Reports(t *testing.T) {
	unit, err := Parse([]byte(hexagonSrc), "hexagon", "hexagonv4")
	require.NoError(t, err)
	reps, err := unit.Reports()
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "f", reps[0].Func)
	assert.Equal(t, 16, reps[0].Size)
	assert.Equal(t, 2.0, reps[0].Speed)
	assert.Equal(t, 0.5, reps[0].MeanCost)

	/* dump with costs */
	buf := new(bytes.Buffer)
	require.NoError(t, unit.DumpWithCosts(buf))
	assert.True(t, strings.HasPrefix(buf.String(), "--- f\n  1: bb.0\n  0:    %1 = L2_loadri_io %fi.0, 0\n"))
}

func TestUnit_ReportsKeepProfile(t *testing.T) {
	src := "--- f\nbb.0:\n  %1 = A2_add %2, %3\n  JMPret !{\"unison-exec-freq\", 1000}\n"
	unit, err := Parse([]byte(src), "hexagon", "hexagonv4")
	require.NoError(t, err)
	reps, err := unit.Reports()
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, 2000.0, reps[0].Speed)
	assert.Contains(t, unit.Module.String(), `!{"unison-exec-freq", 1000}`)
}

func TestUnit_ShadowPolicy(t *testing.T) {
	unit, err := Parse([]byte(hexagonSrc), "hexagon", "hexagonv4", unisonpass.WithShadowBlock(true))
	require.NoError(t, err)
	assert.Equal(t, passes.ShadowBlock, unit.CostModel().Policy)
}
