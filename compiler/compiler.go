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

// Package compiler runs the Unison pass pipeline on machine IR modules.
package compiler

import (
	"io"

	"github.com/cloudwego/unisonpass"
	"github.com/cloudwego/unisonpass/internal/driver"
	"github.com/cloudwego/unisonpass/internal/mir"
	"github.com/cloudwego/unisonpass/internal/opts"
	"github.com/cloudwego/unisonpass/internal/passes"
	"github.com/cloudwego/unisonpass/internal/target"
)

// Unit is a parsed machine IR module, bound to its target.
type Unit struct {
	Module  *mir.Module
	Target  *target.Target
	Options opts.Options
}

// Parse reads the text form of a module for the target selected by triple
// and cpu.
func Parse(src []byte, triple string, cpu string, options ...unisonpass.Option) (*Unit, error) {
	tgt, err := target.Select(triple, cpu)
	if err != nil {
		return nil, err
	}

	/* parse the module */
	mod, err := mir.Parse(string(src), tgt)
	if err != nil {
		return nil, err
	}

	/* bind the options */
	return &Unit{
		Module:  mod,
		Target:  tgt,
		Options: unisonpass.GetOptions(options...),
	}, nil
}

// CostModel returns the instruction selection cost model for this unit.
func (self *Unit) CostModel() passes.CostModel {
	if self.Options.ShadowBlock {
		return passes.CostModel{Target: self.Target, Policy: passes.ShadowBlock}
	} else {
		return passes.CostModel{Target: self.Target, Policy: passes.ShadowNextInstr}
	}
}

// Pipeline builds the default pass pipeline: execution frequencies, target
// properties, memory partitions, the Unison driver and the final metadata
// cleanup.
func (self *Unit) Pipeline() *passes.Pipeline {
	pl := new(passes.Pipeline)
	pl.Add("unison-exec-freq", passes.AttachExecFreq{})

	/* constant extenders only exist on Hexagon */
	if self.Target == target.Hexagon {
		pl.Add("unison-property", passes.ConstExtended(self.Target))
	}

	/* the rest of the pipeline */
	pl.Add("unison-memory-partition", passes.MemoryAlias{AA: passes.BasicAA{}})
	pl.Add("unison-driver", driver.New(self.Target, self.Options))
	pl.Add("unison-clean", passes.CleanMetadata{Prefix: passes.MetaPrefix})
	return pl
}

// Run applies the default pipeline on every function, in order.
func (self *Unit) Run() (bool, error) {
	return self.Pipeline().RunModule(self.Module)
}

// Reports computes the isel cost report of every function, in order. The
// execution frequencies are attached first if missing.
func (self *Unit) Reports() ([]passes.ISelReport, error) {
	cm := self.CostModel()
	ret := make([]passes.ISelReport, 0, len(self.Module.Functions))

	/* report every function */
	for _, fn := range self.Module.Functions {
		if _, err := (passes.AttachExecFreq{}).Apply(fn); err != nil {
			return nil, err
		} else if rep, err := cm.Report(fn); err != nil {
			return nil, err
		} else {
			ret = append(ret, rep)
		}
	}

	/* all done */
	return ret, nil
}

// DumpWithCosts prints every function with its block frequencies and
// instruction costs.
func (self *Unit) DumpWithCosts(w io.Writer) error {
	cm := self.CostModel()
	for _, fn := range self.Module.Functions {
		if _, err := (passes.AttachExecFreq{}).Apply(fn); err != nil {
			return err
		} else if err = cm.DumpWithCosts(w, fn); err != nil {
			return err
		}
	}
	return nil
}

// Process parses src, runs the default pipeline and returns the resulting
// module in text form.
func Process(src []byte, triple string, cpu string, options ...unisonpass.Option) ([]byte, error) {
	unit, err := Parse(src, triple, cpu, options...)
	if err != nil {
		return nil, err
	}

	/* run the pipeline */
	if _, err = unit.Run(); err != nil {
		return nil, err
	}

	/* print the result */
	return []byte(unit.Module.String()), nil
}
