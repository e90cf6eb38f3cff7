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

package opts

import (
	"strings"
)

// Stage names accepted by Options.Flags.
const (
	StageImport    = "import"
	StageLinearize = "linearize"
	StageExtend    = "extend"
	StageAugment   = "augment"
	StageNormalize = "normalize"
	StageModel     = "model"
	StagePresolver = "presolver"
	StageSolver    = "solver"
	StageExport    = "export"
)

var Stages = [...]string{
	StageImport,
	StageLinearize,
	StageExtend,
	StageAugment,
	StageNormalize,
	StageModel,
	StagePresolver,
	StageSolver,
	StageExport,
}

type Options struct {
	Enabled         bool
	SingleFunction  string
	Verbose         bool
	NoClean         bool
	Lint            bool
	MaxBlockSize    int
	PresolveTimeout int
	ShadowBlock     bool
	Flags           map[string]string
}

// StageFlags returns the user flags of a stage, split on white spaces.
func (self *Options) StageFlags(stage string) []string {
	return strings.Fields(self.Flags[stage])
}

// IsStage tells whether name is a valid stage name.
func IsStage(name string) bool {
	for _, s := range Stages {
		if s == name {
			return true
		}
	}
	return false
}

func GetDefaultOptions() Options {
	return Options{
		MaxBlockSize:    MaxBlockSize,
		PresolveTimeout: PresolveTimeout,
		Flags:           make(map[string]string, len(Stages)),
	}
}
