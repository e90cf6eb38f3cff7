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
    `fmt`
    `strings`
)

// PreconditionError occures when the environment cannot run the Unison
// pipeline at all, such as a missing executable or an unsupported target.
type PreconditionError struct {
    Reason string
}

func (self PreconditionError) Error() string {
    return "unison: " + self.Reason
}

// ToolError occures when one of the external pipeline stages exits with a
// non-zero status. Diag is the last diagnostic line printed by the tool.
// The message names the stage unless the tool is named after it.
type ToolError struct {
    Stage string
    Tool  string
    Diag  string
}

func (self ToolError) Error() string {
    if self.Diag != "" {
        return fmt.Sprintf("unison: '%s' failed: %s", self.command(), self.Diag)
    } else {
        return fmt.Sprintf("unison: '%s' failed.", self.command())
    }
}

func (self ToolError) command() string {
    if self.Stage == "" || strings.HasSuffix(self.Tool, self.Stage) {
        return self.Tool
    } else {
        return self.Tool + " " + self.Stage
    }
}

// SyntaxError occures when failed to parse the machine IR text form.
type SyntaxError struct {
    Line   int
    Src    string
    Reason string
}

func (self SyntaxError) Error() string {
    return fmt.Sprintf("Syntax error at line %d: %s", self.Line, self.Reason)
}
