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
    `github.com/oleiade/lane`
)

const (
    _LoopScale    = 8
    _MaxLoopDepth = 8
)

// AttachExecFreq annotates the terminator of every block (or its last
// instruction when it has none) with `!{"unison-exec-freq", N}`. Freq
// replaces any frequency already attached. When Freq is nil, blocks that
// already carry a frequency are left alone and the others get a static
// estimate based on the loop depth.
type AttachExecFreq struct {
    Freq func(bb *mir.BasicBlock) uint64
}

func (self AttachExecFreq) Apply(fn *mir.Function) (bool, error) {
    changed := false
    freq := self.Freq
    keep := false

    /* use the static estimate if not specified */
    if freq == nil {
        est := EstimateFreq(fn)
        keep = true
        freq = func(bb *mir.BasicBlock) uint64 { return est[bb.Id] }
    }

    /* annotate every non-empty block */
    for _, bb := range fn.Blocks {
        if p := freqAnchor(bb); p == nil {
            continue
        } else if md, _ := p.Metadata(MetaExecFreq); md != nil && keep {
            continue
        } else {
            changed = true
            setMetadata(p, mir.NewMetadata(MetaExecFreq, freq(bb)))
        }
    }

    /* all done */
    return changed, nil
}

// BlockFreq reads the execution frequency attached to bb.
func BlockFreq(bb *mir.BasicBlock) (uint64, bool) {
    if p := freqAnchor(bb); p == nil {
        return 0, false
    } else if md, _ := p.Metadata(MetaExecFreq); md == nil {
        return 0, false
    } else if v, ok := md.Int(1); !ok || v < 0 {
        return 0, false
    } else {
        return uint64(v), true
    }
}

func freqAnchor(bb *mir.BasicBlock) *mir.Instr {
    if p := bb.Terminator(); p != nil {
        return p
    } else {
        return bb.Last()
    }
}

type _DFSFrame struct {
    bb   *mir.BasicBlock
    next int
}

// EstimateFreq computes a static frequency for every block of fn, scaled by
// _LoopScale for every loop that contains the block. Unreachable blocks have
// a frequency of zero.
func EstimateFreq(fn *mir.Function) map[int]uint64 {
    ret := make(map[int]uint64, len(fn.Blocks))
    if fn.Entry() == nil {
        return ret
    }

    /* find all the loops, and compute the nesting depth */
    depth := make(map[int]int, len(fn.Blocks))
    for hdr, tails := range findBackEdges(fn.Entry()) {
        for id := range loopBody(hdr, tails) {
            depth[id]++
        }
    }

    /* every reachable block runs at least once */
    for id := range fn.Reachable() {
        ret[id] = 1
        for i := 0; i < depth[id] && i < _MaxLoopDepth; i++ {
            ret[id] *= _LoopScale
        }
    }

    /* all done */
    return ret
}

func findBackEdges(entry *mir.BasicBlock) map[*mir.BasicBlock][]*mir.BasicBlock {
    st := lane.NewStack()
    ret := make(map[*mir.BasicBlock][]*mir.BasicBlock)
    mark := map[*mir.BasicBlock]bool { entry: true }
    open := map[*mir.BasicBlock]bool { entry: true }

    /* iterative depth-first search, edges into an open block are back edges */
    for st.Push(&_DFSFrame { bb: entry }); !st.Empty(); {
        fp := st.Head().(*_DFSFrame)

        /* all successors visited */
        if fp.next == len(fp.bb.Succ) {
            st.Pop()
            open[fp.bb] = false
            continue
        }

        /* visit the next successor */
        succ := fp.bb.Succ[fp.next]
        fp.next++

        /* check for back edges */
        if open[succ] {
            ret[succ] = append(ret[succ], fp.bb)
        } else if !mark[succ] {
            mark[succ] = true
            open[succ] = true
            st.Push(&_DFSFrame { bb: succ })
        }
    }

    /* all done */
    return ret
}

func loopBody(hdr *mir.BasicBlock, tails []*mir.BasicBlock) map[int]bool {
    wl := lane.NewStack()
    ret := map[int]bool { hdr.Id: true }

    /* start from every latch */
    for _, p := range tails {
        if !ret[p.Id] {
            ret[p.Id] = true
            wl.Push(p)
        }
    }

    /* walk the predecessors backwards, stopping at the header */
    for !wl.Empty() {
        p := wl.Pop().(*mir.BasicBlock)
        for _, q := range p.Pred {
            if !ret[q.Id] {
                ret[q.Id] = true
                wl.Push(q)
            }
        }
    }

    /* all done */
    return ret
}
