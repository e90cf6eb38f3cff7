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

package utils

import (
    `fmt`

    `github.com/cloudwego/unisonpass`
)

func ESyntax(line int, src string, reason string) unisonpass.SyntaxError {
    return unisonpass.SyntaxError {
        Line   : line,
        Src    : src,
        Reason : reason,
    }
}

func ENotFound(pgm string) unisonpass.PreconditionError {
    return unisonpass.PreconditionError {
        Reason: fmt.Sprintf("Program '%s' not found", pgm),
    }
}

func ETarget(triple string, cpu string) unisonpass.PreconditionError {
    return unisonpass.PreconditionError {
        Reason: fmt.Sprintf("Target unavailable in Unison: %s (cpu %q)", triple, cpu),
    }
}

func ETempFile(err error) unisonpass.PreconditionError {
    return unisonpass.PreconditionError {
        Reason: fmt.Sprintf("Failed to create temporary file: %v", err),
    }
}

func ETool(stage string, tool string, diag string) unisonpass.ToolError {
    return unisonpass.ToolError {
        Stage : stage,
        Tool  : tool,
        Diag  : diag,
    }
}
