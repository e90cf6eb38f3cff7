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

package mir

import (
    `fmt`
    `io`
    `strconv`
    `strings`

    `github.com/cloudwego/unisonpass/internal/utils`
)

const (
    _A_optsize = "optsize"
)

type _Parser struct {
    ii    InstrInfo
    src   string
    line  int
    mod   *Module
    fn    *Function
    bb    *BasicBlock
    frame bool
    ids   map[int]*BasicBlock
    succ  map[*BasicBlock][]int
}

// Parse reads the text form of a module. Opcodes are resolved with ii.
func Parse(src string, ii InstrInfo) (*Module, error) {
    p := &_Parser {
        ii  : ii,
        mod : new(Module),
    }

    /* parse line by line */
    for i, ln := range strings.Split(src, "\n") {
        p.line = i + 1
        p.src = ln
        if err := p.feed(strings.TrimSpace(ln)); err != nil {
            return nil, err
        }
    }

    /* finish the last function */
    if err := p.finish(); err != nil {
        return nil, err
    } else {
        return p.mod, nil
    }
}

// Print writes the text form of m into w.
func Print(w io.Writer, m *Module) error {
    _, err := io.WriteString(w, m.String())
    return err
}

func (self *_Parser) fail(reason string, args ...interface{}) error {
    return utils.ESyntax(self.line, self.src, fmt.Sprintf(reason, args...))
}

func (self *_Parser) feed(ln string) error {
    switch {
        case ln == "" || ln[0] == '#'            : return nil
        case strings.HasPrefix(ln, "--- ")       : return self.function(strings.TrimSpace(ln[4:]))
        case self.fn == nil                      : return self.fail("instruction outside of a function")
        case strings.HasPrefix(ln, "attributes:"): return self.attributes(ln[11:])
        case ln == "frame:"                      : self.frame = true; return nil
        case self.frame && strings.HasPrefix(ln, "%fi."): return self.frameObject(ln)
        case strings.HasPrefix(ln, "bb.")        : return self.block(ln)
        case self.bb == nil                      : return self.fail("instruction outside of a basic block")
        case strings.HasPrefix(ln, "successors:"): return self.successors(ln[11:])
        default                                  : return self.instr(ln)
    }
}

func (self *_Parser) function(name string) error {
    if name == "" {
        return self.fail("missing function name")
    } else if self.mod.Function(name) != nil {
        return self.fail("duplicated function %s", name)
    } else if err := self.finish(); err != nil {
        return err
    }

    /* start a new function */
    self.fn = &Function { Name: name }
    self.bb = nil
    self.frame = false
    self.ids = make(map[int]*BasicBlock)
    self.succ = make(map[*BasicBlock][]int)
    self.mod.Functions = append(self.mod.Functions, self.fn)
    return nil
}

func (self *_Parser) attributes(s string) error {
    for _, a := range strings.Fields(s) {
        if a == _A_optsize {
            self.fn.OptSize = true
        } else {
            self.fn.Annotations = append(self.fn.Annotations, a)
        }
    }
    return nil
}

func (self *_Parser) frameObject(ln string) error {
    var err error
    var fo FrameObject

    /* %fi.N: key=value ... */
    i := strings.IndexByte(ln, ':')
    if i < 0 {
        return self.fail("invalid frame object")
    } else if fo.Index, err = strconv.Atoi(ln[4:i]); err != nil {
        return self.fail("invalid frame index: %s", ln[4:i])
    }

    /* parse the properties */
    for _, kv := range strings.Fields(ln[i + 1:]) {
        switch k, v := splitKV(kv); k {
            case "fixed"  : fo.Fixed = true
            case "size"   : fo.Size, err = strconv.Atoi(v)
            case "offset" : fo.Offset, err = strconv.ParseInt(v, 10, 64)
            default       : return self.fail("unknown frame object property %q", k)
        }
        if err != nil {
            return self.fail("invalid frame object property %q", kv)
        }
    }

    /* add to the frame */
    self.fn.Frame = append(self.fn.Frame, fo)
    return nil
}

func (self *_Parser) block(ln string) error {
    if !strings.HasSuffix(ln, ":") {
        return self.fail("invalid block header")
    }

    /* parse the block number */
    id, err := strconv.Atoi(ln[3:len(ln) - 1])
    if err != nil {
        return self.fail("invalid block number: %s", ln[3:len(ln) - 1])
    } else if _, ok := self.ids[id]; ok {
        return self.fail("duplicated block bb.%d", id)
    }

    /* create the block */
    self.frame = false
    self.bb = &BasicBlock { Id: id, Parent: self.fn }
    self.ids[id] = self.bb
    self.fn.Blocks = append(self.fn.Blocks, self.bb)
    return nil
}

func (self *_Parser) successors(s string) error {
    for _, v := range splitTop(s, ',') {
        if v = strings.TrimSpace(v); !strings.HasPrefix(v, "%bb.") {
            return self.fail("invalid successor %q", v)
        } else if id, err := strconv.Atoi(v[4:]); err != nil {
            return self.fail("invalid successor %q", v)
        } else {
            self.succ[self.bb] = append(self.succ[self.bb], id)
        }
    }
    return nil
}

func (self *_Parser) instr(ln string) error {
    var ops []Operand
    var bundled bool

    /* instructions inside a bundle */
    if strings.HasPrefix(ln, "bundled ") {
        bundled = true
        ln = strings.TrimSpace(ln[8:])
    }

    /* leading definitions */
    if i := indexTop(ln, " = "); i >= 0 {
        for _, v := range splitTop(ln[:i], ',') {
            if r, err := parseReg(strings.TrimSpace(v)); err != nil {
                return self.fail("%v", err)
            } else {
                ops = append(ops, RegDef(r))
            }
        }
        ln = strings.TrimSpace(ln[i + 3:])
    }

    /* the opcode */
    name, rest := ln, ""
    if i := strings.IndexByte(ln, ' '); i >= 0 {
        name, rest = ln[:i], ln[i + 1:]
    }

    /* resolve the opcode */
    desc := self.ii.Lookup(name)
    if desc == nil {
        return self.fail("unknown opcode %s", name)
    }

    /* the remaining operands */
    if rest = strings.TrimSpace(rest); rest != "" {
        for _, v := range splitTop(rest, ',') {
            if op, err := parseOperand(strings.TrimSpace(v)); err != nil {
                return self.fail("%v", err)
            } else {
                ops = append(ops, op)
            }
        }
    }

    /* add to the block */
    ins := NewInstr(desc, ops...)
    ins.Bundled = bundled
    self.bb.Append(ins)
    return nil
}

func (self *_Parser) finish() error {
    if self.fn == nil {
        return nil
    }

    /* resolve the successor lists in block order */
    for _, bb := range self.fn.Blocks {
        for _, id := range self.succ[bb] {
            if s, ok := self.ids[id]; !ok {
                return self.fail("%s: bb.%d: unknown successor bb.%d", self.fn.Name, bb.Id, id)
            } else {
                bb.AddSuccessor(s)
            }
        }
    }

    /* check the function */
    if err := self.fn.Verify(); err != nil {
        return self.fail("%v", err)
    } else {
        return nil
    }
}

func parseReg(s string) (Reg, error) {
    switch {
        case s == "$noreg"             : return NoReg, nil
        case strings.HasPrefix(s, "$r"): return parseIndex(s[2:], s, Preg)
        case strings.HasPrefix(s, "%") : return parseIndex(s[1:], s, Vreg)
        default                        : return NoReg, fmt.Errorf("invalid register %q", s)
    }
}

func parseIndex(v string, s string, mk func(int) Reg) (Reg, error) {
    if i, err := strconv.Atoi(v); err != nil || i < 0 || i >= _R_index {
        return NoReg, fmt.Errorf("invalid register %q", s)
    } else {
        return mk(i), nil
    }
}

func parseOperand(s string) (Operand, error) {
    switch {
        case strings.HasPrefix(s, "def ") : return parseDef(strings.TrimSpace(s[4:]))
        case strings.HasPrefix(s, "%fi.") : return parseNumbered(s, 4, FrameIndex)
        case strings.HasPrefix(s, "%bb.") : return parseNumbered(s, 4, BlockRef)
        case strings.HasPrefix(s, "@")    : return parseSymbol(s)
        case strings.HasPrefix(s, "!{")   : return parseMetadata(s)
        case s != "" && (s[0] == '%' || s[0] == '$') : return parseUse(s)
        default                           : return parseImm(s)
    }
}

func parseDef(s string) (Operand, error) {
    if r, err := parseReg(s); err != nil {
        return Operand{}, err
    } else {
        return RegDef(r), nil
    }
}

func parseUse(s string) (Operand, error) {
    if r, err := parseReg(s); err != nil {
        return Operand{}, err
    } else {
        return RegUse(r), nil
    }
}

func parseNumbered(s string, n int, mk func(int) Operand) (Operand, error) {
    if v, err := strconv.Atoi(s[n:]); err != nil {
        return Operand{}, fmt.Errorf("invalid operand %q", s)
    } else {
        return mk(v), nil
    }
}

func parseSymbol(s string) (Operand, error) {
    if len(s) == 1 {
        return Operand{}, fmt.Errorf("empty symbol name")
    } else {
        return Symbol(s[1:]), nil
    }
}

func parseImm(s string) (Operand, error) {
    if v, err := strconv.ParseInt(s, 0, 64); err != nil {
        return Operand{}, fmt.Errorf("invalid operand %q", s)
    } else {
        return Imm(v), nil
    }
}

func parseMetadata(s string) (Operand, error) {
    var fields []interface{}

    /* must be enclosed in braces */
    if !strings.HasSuffix(s, "}") {
        return Operand{}, fmt.Errorf("unterminated metadata %q", s)
    }

    /* parse every field */
    if body := strings.TrimSpace(s[2:len(s) - 1]); body != "" {
        for _, v := range splitTop(body, ',') {
            if v = strings.TrimSpace(v); strings.HasPrefix(v, `"`) {
                if str, err := strconv.Unquote(v); err != nil {
                    return Operand{}, fmt.Errorf("invalid metadata string %s", v)
                } else {
                    fields = append(fields, str)
                }
            } else {
                if iv, err := strconv.ParseInt(v, 0, 64); err != nil {
                    return Operand{}, fmt.Errorf("invalid metadata field %s", v)
                } else {
                    fields = append(fields, iv)
                }
            }
        }
    }

    /* build the metadata */
    return Meta(NewMetadata(fields...)), nil
}

func splitKV(s string) (string, string) {
    if i := strings.IndexByte(s, '='); i < 0 {
        return s, ""
    } else {
        return s[:i], s[i + 1:]
    }
}

// indexTop finds sep outside of quotes and braces.
func indexTop(s string, sep string) int {
    depth, quote := 0, false
    for i := 0; i < len(s); i++ {
        switch c := s[i]; {
            case quote && c == '\\'          : i++
            case c == '"'                    : quote = !quote
            case quote                       : break
            case c == '{'                    : depth++
            case c == '}'                    : depth--
            case depth == 0 && strings.HasPrefix(s[i:], sep): return i
        }
    }
    return -1
}

// splitTop splits s by sep outside of quotes and braces.
func splitTop(s string, sep byte) (ret []string) {
    for {
        if i := indexTop(s, string(sep)); i < 0 {
            return append(ret, s)
        } else {
            ret, s = append(ret, s[:i]), s[i + 1:]
        }
    }
}
