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

package unisonpass

import (
	"fmt"

	"github.com/cloudwego/unisonpass/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithEnabled runs Unison on every function, not only on the ones annotated
// with "unison".
func WithEnabled(v bool) Option {
	return func(o *opts.Options) { o.Enabled = v }
}

// WithSingleFunction restricts Unison to the function with the given name.
// It overrides both WithEnabled and the per-function annotations.
//
// The default value "" disables this filter.
func WithSingleFunction(name string) Option {
	return func(o *opts.Options) { o.SingleFunction = name }
}

// WithVerbose echoes every external command line and lets the tools print
// to the standard error.
func WithVerbose(v bool) Option {
	return func(o *opts.Options) { o.Verbose = v }
}

// WithNoClean keeps every temporary file for post-mortem debugging.
func WithNoClean(v bool) Option {
	return func(o *opts.Options) { o.NoClean = v }
}

// WithLint runs Unison lint on the output of the import, linearize, extend
// and augment stages.
func WithLint(v bool) Option {
	return func(o *opts.Options) { o.Lint = v }
}

// WithMaxBlockSize sets the --maxblocksize parameter passed to 'uni import'.
//
// This value can also be configured with the `UNISON_MAX_BLOCK_SIZE`
// environment variable.
//
// The default value of this option is "25".
func WithMaxBlockSize(size int) Option {
	if size <= 0 {
		panic(fmt.Sprintf("unison: invalid max block size: %d", size))
	} else {
		return func(o *opts.Options) { o.MaxBlockSize = size }
	}
}

// WithPresolveTimeout sets the presolver timeout, in seconds.
//
// This value can also be configured with the `UNISON_PS_TIMEOUT` environment
// variable.
//
// The default value of this option is "180".
func WithPresolveTimeout(sec int) Option {
	if sec <= 0 {
		panic(fmt.Sprintf("unison: invalid presolver timeout: %d", sec))
	} else {
		return func(o *opts.Options) { o.PresolveTimeout = sec }
	}
}

// WithStageFlags appends extra flags to the invocation of one pipeline stage.
// The flags are split on white spaces and passed verbatim.
func WithStageFlags(stage string, flags string) Option {
	if !opts.IsStage(stage) {
		panic(fmt.Sprintf("unison: invalid stage name: %q", stage))
	} else {
		return func(o *opts.Options) { o.Flags[stage] = flags }
	}
}

// WithShadowBlock keeps the pending stack pointer shadow of the cost model
// alive until the end of the block instead of the next instruction.
func WithShadowBlock(v bool) Option {
	return func(o *opts.Options) { o.ShadowBlock = v }
}

// GetOptions applies every option on top of the defaults.
func GetOptions(options ...Option) opts.Options {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return o
}
