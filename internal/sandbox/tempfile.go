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

package sandbox

import (
    `os`
    `sync/atomic`

    `github.com/cloudwego/unisonpass/internal/utils`
    `tlog.app/go/tlog`
)

var (
    TempCount uint64
    ToolCount uint64
    FailCount uint64
)

// TempFiles is the registry of the temporary files created during a single
// pipeline run.
type TempFiles struct {
    NoClean bool
    paths   []string
}

// Create makes a new empty file named `unison-*.<suffix>` in the temporary
// directory and registers it for cleanup.
func (self *TempFiles) Create(suffix string) (string, error) {
    fp, err := os.CreateTemp("", "unison-*." + suffix)
    if err != nil {
        return "", utils.ETempFile(err)
    }

    /* the tools open the file by name */
    name := fp.Name()
    self.paths = append(self.paths, name)

    /* close the file */
    if err = fp.Close(); err != nil {
        return "", utils.ETempFile(err)
    }

    /* all done */
    atomic.AddUint64(&TempCount, 1)
    return name, nil
}

// Paths returns the registered files, in creation order.
func (self *TempFiles) Paths() []string {
    return append([]string(nil), self.paths...)
}

// Cleanup removes every registered file, unless NoClean is set. Failures
// are logged and otherwise ignored, and the registry is emptied either way.
func (self *TempFiles) Cleanup() {
    if self.NoClean {
        for _, fp := range self.paths {
            tlog.V("sandbox").Printw("keeping temporary file", "path", fp)
        }
    } else {
        for _, fp := range self.paths {
            if err := os.Remove(fp); err != nil && !os.IsNotExist(err) {
                tlog.Printw("failed to remove temporary file", "path", fp, "err", err)
            }
        }
    }
    self.paths = nil
}
