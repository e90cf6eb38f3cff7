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

package driver

type State uint8

const (
    Idle State = iota
    Exporting
    Importing
    Linearizing
    Extending
    Augmenting
    Normalizing
    Modeling
    Presolving
    Solving
    ExportingFinal
    ReImporting
    Done
    Aborted
)

var stateNames = [...]string {
    Idle           : "idle",
    Exporting      : "exporting",
    Importing      : "importing",
    Linearizing    : "linearizing",
    Extending      : "extending",
    Augmenting     : "augmenting",
    Normalizing    : "normalizing",
    Modeling       : "modeling",
    Presolving     : "presolving",
    Solving        : "solving",
    ExportingFinal : "exporting-final",
    ReImporting    : "re-importing",
    Done           : "done",
    Aborted        : "aborted",
}

func (self State) String() string {
    if int(self) < len(stateNames) {
        return stateNames[self]
    } else {
        return "(invalid)"
    }
}
