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
    `strconv`
    `strings`
)

type OperandKind uint8

const (
    K_reg OperandKind = iota
    K_imm
    K_frame
    K_block
    K_sym
    K_meta
)

func (self OperandKind) String() string {
    switch self {
        case K_reg   : return "register"
        case K_imm   : return "immediate"
        case K_frame : return "frame-index"
        case K_block : return "block"
        case K_sym   : return "symbol"
        case K_meta  : return "metadata"
        default      : return "(invalid)"
    }
}

// Operand is a tagged union, the meaning of Imm depends on Kind: immediate
// value, frame index or block number.
type Operand struct {
    Kind OperandKind
    Reg  Reg
    Def  bool
    Imm  int64
    Sym  string
    Meta *Metadata
}

func RegUse(r Reg) Operand {
    return Operand { Kind: K_reg, Reg: r }
}

func RegDef(r Reg) Operand {
    return Operand { Kind: K_reg, Reg: r, Def: true }
}

func Imm(v int64) Operand {
    return Operand { Kind: K_imm, Imm: v }
}

func FrameIndex(i int) Operand {
    return Operand { Kind: K_frame, Imm: int64(i) }
}

func BlockRef(id int) Operand {
    return Operand { Kind: K_block, Imm: int64(id) }
}

func Symbol(name string) Operand {
    return Operand { Kind: K_sym, Sym: name }
}

func Meta(md *Metadata) Operand {
    return Operand { Kind: K_meta, Meta: md }
}

func (self Operand) IsReg() bool   { return self.Kind == K_reg }
func (self Operand) IsImm() bool   { return self.Kind == K_imm }
func (self Operand) IsFrame() bool { return self.Kind == K_frame }
func (self Operand) IsBlock() bool { return self.Kind == K_block }
func (self Operand) IsMeta() bool  { return self.Kind == K_meta }

func (self Operand) String() string {
    switch self.Kind {
        case K_reg   : return self.Reg.String()
        case K_imm   : return strconv.FormatInt(self.Imm, 10)
        case K_frame : return fmt.Sprintf("%%fi.%d", self.Imm)
        case K_block : return fmt.Sprintf("%%bb.%d", self.Imm)
        case K_sym   : return "@" + self.Sym
        case K_meta  : return self.Meta.String()
        default      : panic("invalid operand kind")
    }
}

// MetaField is a single metadata field, either a string or an integer.
type MetaField struct {
    S   string
    I   int64
    Str bool
}

func (self MetaField) String() string {
    if self.Str {
        return strconv.Quote(self.S)
    } else {
        return strconv.FormatInt(self.I, 10)
    }
}

type Metadata struct {
    Fields []MetaField
}

// NewMetadata builds a metadata node from strings and integers.
func NewMetadata(fields ...interface{}) *Metadata {
    ret := &Metadata { Fields: make([]MetaField, 0, len(fields)) }

    /* convert every field */
    for _, f := range fields {
        switch v := f.(type) {
            case string : ret.Fields = append(ret.Fields, MetaField { S: v, Str: true })
            case int    : ret.Fields = append(ret.Fields, MetaField { I: int64(v) })
            case int64  : ret.Fields = append(ret.Fields, MetaField { I: v })
            case uint64 : ret.Fields = append(ret.Fields, MetaField { I: int64(v) })
            default     : panic(fmt.Sprintf("metadata: unsupported field type %T", f))
        }
    }

    /* all done */
    return ret
}

// Key returns the first field when it is a string.
func (self *Metadata) Key() (string, bool) {
    if len(self.Fields) == 0 || !self.Fields[0].Str {
        return "", false
    } else {
        return self.Fields[0].S, true
    }
}

// Int returns the i-th field when it is an integer.
func (self *Metadata) Int(i int) (int64, bool) {
    if i >= len(self.Fields) || self.Fields[i].Str {
        return 0, false
    } else {
        return self.Fields[i].I, true
    }
}

func (self *Metadata) String() string {
    buf := make([]string, 0, len(self.Fields))
    for _, f := range self.Fields { buf = append(buf, f.String()) }
    return "!{" + strings.Join(buf, ", ") + "}"
}
