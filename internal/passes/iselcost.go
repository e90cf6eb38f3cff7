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
    `encoding/json`
    `fmt`
    `io`

    `gonum.org/v1/gonum/floats`
    `gonum.org/v1/gonum/stat`
    `github.com/cloudwego/unisonpass/internal/mir`
    `tlog.app/go/errors`
)

// ISelReport is the estimated quality of the instruction selection of a
// function: Size is the code size in bytes, Speed is the execution time
// weighted by the block frequencies.
type ISelReport struct {
    Func     string  `json:"-"`
    Size     int     `json:"size"`
    Speed    float64 `json:"speed"`
    MeanCost float64 `json:"mean_cost"`
}

// Report computes the isel report of fn. Every non-empty block must carry
// an execution frequency.
func (self CostModel) Report(fn *mir.Function) (ISelReport, error) {
    var all []float64
    var freq []float64
    var cost []float64

    /* collect the costs of every block */
    ret := ISelReport { Func: fn.Name }
    for i, cc := range self.CostFunction(fn) {
        bb := fn.Blocks[i]
        sum := 0

        /* empty blocks cost nothing */
        if len(bb.Ins) == 0 {
            continue
        }

        /* find the block frequency */
        f, ok := BlockFreq(bb)
        if !ok {
            return ISelReport{}, errors.New("%s: bb.%d has no execution frequency", fn.Name, bb.Id)
        }

        /* add up the instructions */
        for j, c := range cc {
            sum += c
            all = append(all, float64(c))
            ret.Size += self.Target.Size(bb.Ins[j])
        }

        /* record the block */
        freq = append(freq, float64(f))
        cost = append(cost, float64(sum))
    }

    /* weight the costs with the frequencies */
    if len(all) != 0 {
        ret.Speed = floats.Dot(freq, cost)
        ret.MeanCost = stat.Mean(all, nil)
    }

    /* all done */
    return ret, nil
}

// WriteJSON writes the report as a single JSON object.
func (self ISelReport) WriteJSON(w io.Writer) error {
    if err := json.NewEncoder(w).Encode(self); err != nil {
        return errors.Wrap(err, "write isel report")
    } else {
        return nil
    }
}

// DumpWithCosts prints fn with the frequency of every block and the cost of
// every instruction.
func (self CostModel) DumpWithCosts(w io.Writer, fn *mir.Function) error {
    var err error
    var put = func(format string, args ...interface{}) {
        if err == nil {
            _, err = fmt.Fprintf(w, format, args...)
        }
    }

    /* dump every block */
    put("--- %s\n", fn.Name)
    for i, cc := range self.CostFunction(fn) {
        bb := fn.Blocks[i]
        f, ok := BlockFreq(bb)

        /* empty blocks have nowhere to carry a frequency */
        if ok {
            put("%3d: bb.%d\n", f, bb.Id)
        } else if len(bb.Ins) == 0 {
            put("  ?: bb.%d\n", bb.Id)
        } else {
            return errors.New("%s: bb.%d has no execution frequency", fn.Name, bb.Id)
        }

        /* and every instruction */
        for j, ins := range bb.Ins {
            put("%3d:    %s\n", cc[j], ins)
        }
    }

    /* check for errors */
    if err != nil {
        return errors.Wrap(err, "dump %s", fn.Name)
    } else {
        return nil
    }
}
