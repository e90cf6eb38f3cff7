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
    `io`
    `os`
    `os/exec`
    `strconv`
    `strings`
    `sync`
    `sync/atomic`

    `github.com/cloudwego/unisonpass/internal/utils`
    `tlog.app/go/tlog`
)

const (
    _TailSize = 4096
)

// Program is an external executable, resolved from PATH.
type Program struct {
    Name string
    Path string
}

func Resolve(name string) (Program, error) {
    if fp, err := exec.LookPath(name); err != nil {
        return Program{}, utils.ENotFound(name)
    } else {
        return Program { Name: name, Path: fp }, nil
    }
}

// Command is a single synchronous invocation of a pipeline stage.
type Command struct {
    Stage   string
    Prog    Program
    Args    []string
    Verbose bool
    Stderr  io.Writer
}

func (self Command) String() string {
    buf := []string { quoteArg(self.Prog.Path) }
    for _, v := range self.Args {
        buf = append(buf, quoteArg(v))
    }
    return strings.Join(buf, " ")
}

// Run executes the command and waits for it. A non-zero exit status turns
// into a ToolError carrying the last line the tool printed on stderr.
func (self Command) Run() error {
    tail := new(_Tail)
    cmd := exec.Command(self.Prog.Path, self.Args...)

    /* verbose mode streams everything to stderr */
    if !self.Verbose {
        cmd.Stdout = io.Discard
        cmd.Stderr = tail
    } else {
        out := self.Stderr
        if out == nil { out = os.Stderr }
        mu := new(sync.Mutex)
        cmd.Stdout = &_Locked { mu: mu, w: out }
        cmd.Stderr = &_Locked { mu: mu, w: io.MultiWriter(out, tail) }
        tlog.Printw("unison", "stage", self.Stage, "cmd", self.String())
    }

    /* run the tool */
    atomic.AddUint64(&ToolCount, 1)
    err := cmd.Run()

    /* check the exit status */
    if err == nil {
        return nil
    } else if diag := tail.LastLine(); diag != "" {
        atomic.AddUint64(&FailCount, 1)
        return utils.ETool(self.Stage, self.Prog.Name, diag)
    } else {
        atomic.AddUint64(&FailCount, 1)
        return utils.ETool(self.Stage, self.Prog.Name, err.Error())
    }
}

func quoteArg(v string) string {
    if v != "" && !strings.ContainsAny(v, " \t\n\"'\\") {
        return v
    } else {
        return strconv.Quote(v)
    }
}

// _Locked serializes the writes of stdout and stderr into a shared sink.
type _Locked struct {
    mu *sync.Mutex
    w  io.Writer
}

func (self *_Locked) Write(p []byte) (int, error) {
    self.mu.Lock()
    defer self.mu.Unlock()
    return self.w.Write(p)
}

// _Tail keeps the last _TailSize bytes written into it.
type _Tail struct {
    buf []byte
}

func (self *_Tail) Write(p []byte) (int, error) {
    n := len(p)
    if n >= _TailSize {
        self.buf = append(self.buf[:0], p[n - _TailSize:]...)
    } else {
        self.buf = append(self.buf, p...)
        if len(self.buf) > _TailSize {
            self.buf = append(self.buf[:0], self.buf[len(self.buf) - _TailSize:]...)
        }
    }
    return n, nil
}

// LastLine returns the last non-blank line.
func (self *_Tail) LastLine() string {
    s := strings.TrimRight(string(self.buf), " \t\r\n")
    if i := strings.LastIndexByte(s, '\n'); i >= 0 {
        s = s[i + 1:]
    }
    return strings.TrimSpace(s)
}
