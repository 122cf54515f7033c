// seehuhn.de/go/fontconv - convert and repair font outlines
// Copyright (C) 2024  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package cff

import "fmt"

// t2op is a Type 2 charstring operator.  Two-byte operators have the
// escape byte 12 in the high byte.
type t2op uint16

func (op t2op) appendTo(code []byte) []byte {
	if op > 255 {
		return append(code, byte(op>>8), byte(op))
	}
	return append(code, byte(op))
}

func (op t2op) String() string {
	if name, ok := t2opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("t2op(%d)", op)
}

const (
	t2hstem      t2op = 0x0001
	t2vstem      t2op = 0x0003
	t2vmoveto    t2op = 0x0004
	t2rlineto    t2op = 0x0005
	t2hlineto    t2op = 0x0006
	t2vlineto    t2op = 0x0007
	t2rrcurveto  t2op = 0x0008
	t2callsubr   t2op = 0x000a
	t2return     t2op = 0x000b
	t2endchar    t2op = 0x000e
	t2hstemhm    t2op = 0x0012
	t2hintmask   t2op = 0x0013
	t2cntrmask   t2op = 0x0014
	t2rmoveto    t2op = 0x0015
	t2hmoveto    t2op = 0x0016
	t2vstemhm    t2op = 0x0017
	t2rcurveline t2op = 0x0018
	t2rlinecurve t2op = 0x0019
	t2vvcurveto  t2op = 0x001a
	t2hhcurveto  t2op = 0x001b
	t2shortint   t2op = 0x001c
	t2callgsubr  t2op = 0x001d
	t2vhcurveto  t2op = 0x001e
	t2hvcurveto  t2op = 0x001f

	t2dotsection t2op = 0x0c00
	t2and        t2op = 0x0c03
	t2or         t2op = 0x0c04
	t2not        t2op = 0x0c05
	t2abs        t2op = 0x0c09
	t2add        t2op = 0x0c0a
	t2sub        t2op = 0x0c0b
	t2div        t2op = 0x0c0c
	t2neg        t2op = 0x0c0e
	t2eq         t2op = 0x0c0f
	t2drop       t2op = 0x0c12
	t2put        t2op = 0x0c14
	t2get        t2op = 0x0c15
	t2ifelse     t2op = 0x0c16
	t2random     t2op = 0x0c17
	t2mul        t2op = 0x0c18
	t2sqrt       t2op = 0x0c1a
	t2dup        t2op = 0x0c1b
	t2exch       t2op = 0x0c1c
	t2index      t2op = 0x0c1d
	t2roll       t2op = 0x0c1e
	t2hflex      t2op = 0x0c22
	t2flex       t2op = 0x0c23
	t2hflex1     t2op = 0x0c24
	t2flex1      t2op = 0x0c25
)

var t2opNames = map[t2op]string{
	t2hstem:      "hstem",
	t2vstem:      "vstem",
	t2vmoveto:    "vmoveto",
	t2rlineto:    "rlineto",
	t2hlineto:    "hlineto",
	t2vlineto:    "vlineto",
	t2rrcurveto:  "rrcurveto",
	t2callsubr:   "callsubr",
	t2return:     "return",
	t2endchar:    "endchar",
	t2hstemhm:    "hstemhm",
	t2hintmask:   "hintmask",
	t2cntrmask:   "cntrmask",
	t2rmoveto:    "rmoveto",
	t2hmoveto:    "hmoveto",
	t2vstemhm:    "vstemhm",
	t2rcurveline: "rcurveline",
	t2rlinecurve: "rlinecurve",
	t2vvcurveto:  "vvcurveto",
	t2hhcurveto:  "hhcurveto",
	t2shortint:   "shortint",
	t2callgsubr:  "callgsubr",
	t2vhcurveto:  "vhcurveto",
	t2hvcurveto:  "hvcurveto",
	t2dotsection: "dotsection",
	t2and:        "and",
	t2or:         "or",
	t2not:        "not",
	t2abs:        "abs",
	t2add:        "add",
	t2sub:        "sub",
	t2div:        "div",
	t2neg:        "neg",
	t2eq:         "eq",
	t2drop:       "drop",
	t2put:        "put",
	t2get:        "get",
	t2ifelse:     "ifelse",
	t2random:     "random",
	t2mul:        "mul",
	t2sqrt:       "sqrt",
	t2dup:        "dup",
	t2exch:       "exch",
	t2index:      "index",
	t2roll:       "roll",
	t2hflex:      "hflex",
	t2flex:       "flex",
	t2hflex1:     "hflex1",
	t2flex1:      "flex1",
}

// maxStack is the maximal depth of the Type 2 argument stack.
const maxStack = 48

// maxCallDepth is the maximal nesting depth of subroutine calls.
const maxCallDepth = 10

// subrBias returns the bias which is subtracted from subroutine numbers
// in callsubr and callgsubr instructions.
func subrBias(nSubrs int) int {
	switch {
	case nSubrs < 1240:
		return 107
	case nSubrs < 33900:
		return 1131
	default:
		return 32768
	}
}
