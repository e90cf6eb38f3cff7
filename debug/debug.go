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

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/unisonpass/internal/driver"
	"github.com/cloudwego/unisonpass/internal/sandbox"
)

// A Stats records statistics about the Unison pipeline.
type Stats struct {
	Driver DriverStats
	Tools  ToolStats
}

// A DriverStats records how many functions went through the pipeline.
type DriverStats struct {
	Runs    int
	Skipped int
}

// A ToolStats records the external tool invocations and their artifacts.
type ToolStats struct {
	Invoked   int
	Failed    int
	TempFiles int
}

// GetStats returns statistics of the Unison pipeline.
func GetStats() Stats {
	return Stats{
		Driver: DriverStats{
			Runs:    int(atomic.LoadUint64(&driver.RunCount)),
			Skipped: int(atomic.LoadUint64(&driver.SkipCount)),
		},
		Tools: ToolStats{
			Invoked:   int(atomic.LoadUint64(&sandbox.ToolCount)),
			Failed:    int(atomic.LoadUint64(&sandbox.FailCount)),
			TempFiles: int(atomic.LoadUint64(&sandbox.TempCount)),
		},
	}
}
