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

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// cffDict holds the operands of a Top DICT or Private DICT, keyed by
// operator.  Operands are int32, float64 or (for string operators) string
// values.
type cffDict map[dictOp][]any

func decodeDict(buf []byte, ss *cffStrings) (cffDict, error) {
	res := cffDict{}
	var stack []any

	flush := func(op dictOp) error {
		if op.isString() {
			l := len(stack)
			if op == opROS {
				l = min(l, 2)
			}
			for i := range l {
				sid, ok := stack[i].(int32)
				if !ok {
					return errCorruptDict
				}
				s, err := ss.get(sid)
				if err != nil {
					return err
				}
				stack[i] = s
			}
		}
		res[op] = stack
		stack = nil
		return nil
	}

	for len(buf) > 0 {
		b0 := buf[0]
		var err error
		switch {
		case b0 == 12:
			if len(buf) < 2 {
				return nil, errCorruptDict
			}
			err = flush(dictOp(b0)<<8 | dictOp(buf[1]))
			buf = buf[2:]
		case b0 <= 21:
			err = flush(dictOp(b0))
			buf = buf[1:]
		case b0 == 28:
			if len(buf) < 3 {
				return nil, errCorruptDict
			}
			stack = append(stack, int32(int16(uint16(buf[1])<<8|uint16(buf[2]))))
			buf = buf[3:]
		case b0 == 29:
			if len(buf) < 5 {
				return nil, errCorruptDict
			}
			stack = append(stack,
				int32(uint32(buf[1])<<24|uint32(buf[2])<<16|uint32(buf[3])<<8|uint32(buf[4])))
			buf = buf[5:]
		case b0 == 30:
			var x float64
			buf, x, err = decodeFloat(buf[1:])
			stack = append(stack, x)
		case b0 >= 32 && b0 <= 246:
			stack = append(stack, int32(b0)-139)
			buf = buf[1:]
		case b0 >= 247 && b0 <= 250:
			if len(buf) < 2 {
				return nil, errCorruptDict
			}
			stack = append(stack, (int32(b0)-247)*256+int32(buf[1])+108)
			buf = buf[2:]
		case b0 >= 251 && b0 <= 254:
			if len(buf) < 2 {
				return nil, errCorruptDict
			}
			stack = append(stack, -(int32(b0)-251)*256-int32(buf[1])-108)
			buf = buf[2:]
		default: // values 22–27, 31, and 255 are reserved
			return nil, errCorruptDict
		}
		if err != nil {
			return nil, err
		}
	}

	if len(stack) > 0 {
		return nil, errCorruptDict
	}
	return res, nil
}

// decodeFloat decodes a real number operand, without the leading 0x1e.
func decodeFloat(buf []byte) ([]byte, float64, error) {
	var s []byte
	for i := 0; ; i++ {
		if i/2 >= len(buf) {
			return nil, 0, errCorruptDict
		}
		nibble := buf[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 15
		}

		switch nibble {
		case 0xa:
			s = append(s, '.')
		case 0xb:
			s = append(s, 'e')
		case 0xc:
			s = append(s, 'e', '-')
		case 0xd:
			return nil, 0, errCorruptDict
		case 0xe:
			s = append(s, '-')
		case 0xf:
			x, err := strconv.ParseFloat(string(s), 64)
			if err != nil {
				return nil, 0, errCorruptDict
			}
			return buf[i/2+1:], x, nil
		default:
			s = append(s, '0'+nibble)
		}
	}
}

func (d cffDict) getInt(op dictOp, defVal int32) int32 {
	if len(d[op]) != 1 {
		return defVal
	}
	switch x := d[op][0].(type) {
	case int32:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<31 {
			return int32(x)
		}
	}
	return defVal
}

func (d cffDict) getFloat(op dictOp, defVal float64) float64 {
	if len(d[op]) != 1 {
		return defVal
	}
	switch x := d[op][0].(type) {
	case int32:
		return float64(x)
	case float64:
		return x
	}
	return defVal
}

func (d cffDict) getString(op dictOp) string {
	if len(d[op]) != 1 {
		return ""
	}
	s, _ := d[op][0].(string)
	return s
}

func (d cffDict) getPair(op dictOp) (int32, int32, bool) {
	xy := d[op]
	if len(xy) != 2 {
		return 0, 0, false
	}
	x, ok := xy[0].(int32)
	if !ok {
		return 0, 0, false
	}
	y, ok := xy[1].(int32)
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

func (d cffDict) clone() cffDict {
	c := make(cffDict, len(d))
	for k, v := range d {
		c[k] = slices.Clone(v)
	}
	return c
}

// keys returns the operators in the order in which they are written.
// ROS must be the first operator of a CIDFont Top DICT.
func (d cffDict) keys() []dictOp {
	keys := make([]dictOp, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	rank := func(op dictOp) int {
		if op == opROS {
			return -1
		}
		return int(op)
	}
	slices.SortFunc(keys, func(a, b dictOp) int {
		return rank(a) - rank(b)
	})
	return keys
}

func (d cffDict) encode(ss *cffStrings) []byte {
	var res []byte
	for _, op := range d.keys() {
		for _, arg := range d[op] {
			switch a := arg.(type) {
			case string:
				res = appendDictInt(res, ss.lookup(a))
			case int32:
				res = appendDictInt(res, a)
			case float64:
				res = appendDictFloat(res, a)
			}
		}
		if op > 255 {
			res = append(res, 12)
		}
		res = append(res, byte(op))
	}
	return res
}

func appendDictInt(res []byte, a int32) []byte {
	switch {
	case a >= -107 && a <= 107:
		return append(res, byte(a+139))
	case a >= 108 && a <= 1131:
		a -= 108
		return append(res, byte(a>>8)+247, byte(a))
	case a >= -1131 && a <= -108:
		a = -108 - a
		return append(res, byte(a>>8)+251, byte(a))
	case a >= -32768 && a <= 32767:
		return append(res, 28, byte(a>>8), byte(a))
	default:
		return append(res, 29, byte(a>>24), byte(a>>16), byte(a>>8), byte(a))
	}
}

func appendDictFloat(res []byte, x float64) []byte {
	if x == math.Trunc(x) && math.Abs(x) < 1<<31 {
		return appendDictInt(res, int32(x))
	}

	s := strconv.FormatFloat(x, 'g', -1, 64)
	var nibbles []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			nibbles = append(nibbles, c-'0')
		case c == '.':
			nibbles = append(nibbles, 0xa)
		case c == '-':
			nibbles = append(nibbles, 0xe)
		case c == 'e':
			switch {
			case i+1 < len(s) && s[i+1] == '-':
				nibbles = append(nibbles, 0xc)
				i++
			case i+1 < len(s) && s[i+1] == '+':
				nibbles = append(nibbles, 0xb)
				i++
			default:
				nibbles = append(nibbles, 0xb)
			}
		}
	}
	nibbles = append(nibbles, 0xf)
	if len(nibbles)%2 != 0 {
		nibbles = append(nibbles, 0xf)
	}

	res = append(res, 30)
	for i := 0; i < len(nibbles); i += 2 {
		res = append(res, nibbles[i]<<4|nibbles[i+1])
	}
	return res
}

var defaultFontMatrix = [6]float64{0.001, 0, 0, 0.001, 0, 0}

func (d cffDict) setFontMatrix(fm [6]float64) {
	if fm == ([6]float64{}) {
		delete(d, opFontMatrix)
		return
	}
	needed := false
	for i, xi := range fm {
		if math.Abs(xi-defaultFontMatrix[i]) > 1e-9 {
			needed = true
			break
		}
	}
	if !needed {
		delete(d, opFontMatrix)
		return
	}
	val := make([]any, 6)
	for i, xi := range fm {
		val[i] = xi
	}
	d[opFontMatrix] = val
}

type dictOp uint16

func (op dictOp) String() string {
	switch op {
	case opVersion:
		return "Version"
	case opNotice:
		return "Notice"
	case opFullName:
		return "FullName"
	case opFamilyName:
		return "FamilyName"
	case opWeight:
		return "Weight"
	case opFontBBox:
		return "FontBBox"
	case opCharset:
		return "Charset"
	case opEncoding:
		return "Encoding"
	case opCharStrings:
		return "CharStrings"
	case opPrivate:
		return "Private"
	case opSubrs:
		return "Subrs"
	case opDefaultWidthX:
		return "defaultWidthX"
	case opNominalWidthX:
		return "nominalWidthX"
	case opROS:
		return "ROS"
	}
	if op < 256 {
		return strconv.Itoa(int(op))
	}
	return fmt.Sprintf("%d %d", op>>8, op&0xff)
}

const (
	// Top DICT operators
	opVersion            dictOp = 0x0000
	opNotice             dictOp = 0x0001
	opFullName           dictOp = 0x0002
	opFamilyName         dictOp = 0x0003
	opWeight             dictOp = 0x0004
	opFontBBox           dictOp = 0x0005
	opCharset            dictOp = 0x000F
	opEncoding           dictOp = 0x0010
	opCharStrings        dictOp = 0x0011
	opPrivate            dictOp = 0x0012
	opCopyright          dictOp = 0x0C00
	opIsFixedPitch       dictOp = 0x0C01
	opItalicAngle        dictOp = 0x0C02
	opUnderlinePosition  dictOp = 0x0C03
	opUnderlineThickness dictOp = 0x0C04
	opCharstringType     dictOp = 0x0C06
	opFontMatrix         dictOp = 0x0C07
	opSyntheticBase      dictOp = 0x0C14
	opPostScript         dictOp = 0x0C15
	opBaseFontName       dictOp = 0x0C16
	opROS                dictOp = 0x0C1E
	opFDArray            dictOp = 0x0C24
	opFontName           dictOp = 0x0C26

	// Private DICT operators
	opSubrs         dictOp = 0x0013 // offset relative to the Private DICT
	opDefaultWidthX dictOp = 0x0014
	opNominalWidthX dictOp = 0x0015
)

func (op dictOp) isString() bool {
	switch op {
	case opVersion, opNotice, opCopyright, opFullName, opFamilyName, opWeight,
		opPostScript, opBaseFontName, opROS, opFontName:
		return true
	default:
		return false
	}
}
