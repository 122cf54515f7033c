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
	"math"
)

type decodeInfo struct {
	subrs        [][]byte
	gsubrs       [][]byte
	defaultWidth float64
	nominalWidth float64
}

// maxDecodeStack is the stack depth accepted when reading charstrings.
// Some fonts in the wild exceed maxStack.
const maxDecodeStack = 2 * maxStack

// decodeCharString interprets a Type 2 charstring and returns the drawing
// commands in absolute coordinates.
func decodeCharString(info *decodeInfo, code []byte) (*Glyph, error) {
	res := &Glyph{
		Width: info.defaultWidth,
	}

	var stack []float64
	clearStack := func() {
		stack = stack[:0]
	}

	widthIsSet := false
	setGlyphWidth := func(isPresent bool) {
		if widthIsSet {
			return
		}
		if isPresent {
			res.Width = stack[0] + info.nominalWidth
			stack = stack[1:]
		}
		widthIsSet = true
	}

	var storage []float64
	var callStack [][]byte

	var posX, posY float64
	rMoveTo := func(dx, dy float64) {
		posX += dx
		posY += dy
		res.Cmds = append(res.Cmds, GlyphOp{
			Op:   OpMoveTo,
			Args: []float64{posX, posY},
		})
	}
	rLineTo := func(dx, dy float64) {
		posX += dx
		posY += dy
		res.Cmds = append(res.Cmds, GlyphOp{
			Op:   OpLineTo,
			Args: []float64{posX, posY},
		})
	}
	rCurveTo := func(dxa, dya, dxb, dyb, dxc, dyc float64) {
		xa := posX + dxa
		ya := posY + dya
		xb := xa + dxb
		yb := ya + dyb
		posX = xb + dxc
		posY = yb + dyc
		res.Cmds = append(res.Cmds, GlyphOp{
			Op:   OpCurveTo,
			Args: []float64{xa, ya, xb, yb, posX, posY},
		})
	}
	addStems := func(stems *[]float64) {
		var prev float64
		for k := 0; k+1 < len(stack); k += 2 {
			a := prev + stack[k]
			b := a + stack[k+1]
			*stems = append(*stems, a, b)
			prev = b
		}
	}

	for {
		if len(code) == 0 {
			if len(callStack) == 0 {
				return nil, errIncomplete
			}
			// implicit return at the end of a subroutine
			code, callStack = callStack[len(callStack)-1], callStack[:len(callStack)-1]
			continue
		}
		if len(stack) > maxDecodeStack {
			return nil, errStackOverflow
		}

		b0 := code[0]
		switch {
		case b0 >= 32 && b0 <= 246:
			stack = append(stack, float64(int32(b0)-139))
			code = code[1:]
			continue
		case b0 >= 247 && b0 <= 250:
			if len(code) < 2 {
				return nil, errIncomplete
			}
			stack = append(stack, float64((int32(b0)-247)*256+int32(code[1])+108))
			code = code[2:]
			continue
		case b0 >= 251 && b0 <= 254:
			if len(code) < 2 {
				return nil, errIncomplete
			}
			stack = append(stack, float64(-(int32(b0)-251)*256-int32(code[1])-108))
			code = code[2:]
			continue
		case b0 == 28:
			if len(code) < 3 {
				return nil, errIncomplete
			}
			stack = append(stack, float64(int16(uint16(code[1])<<8|uint16(code[2]))))
			code = code[3:]
			continue
		case b0 == 255:
			if len(code) < 5 {
				return nil, errIncomplete
			}
			// 16.16 fixed point number
			val := int32(uint32(code[1])<<24 | uint32(code[2])<<16 | uint32(code[3])<<8 | uint32(code[4]))
			stack = append(stack, float64(val)/65536)
			code = code[5:]
			continue
		}

		op := t2op(b0)
		if b0 == 12 {
			if len(code) < 2 {
				return nil, errIncomplete
			}
			op = op<<8 | t2op(code[1])
			code = code[2:]
		} else {
			code = code[1:]
		}

		switch op {
		case t2rmoveto:
			setGlyphWidth(len(stack) > 2)
			if len(stack) >= 2 {
				rMoveTo(stack[0], stack[1])
			}
			clearStack()

		case t2hmoveto:
			setGlyphWidth(len(stack) > 1)
			if len(stack) >= 1 {
				rMoveTo(stack[0], 0)
			}
			clearStack()

		case t2vmoveto:
			setGlyphWidth(len(stack) > 1)
			if len(stack) >= 1 {
				rMoveTo(0, stack[0])
			}
			clearStack()

		case t2rlineto:
			for len(stack) >= 2 {
				rLineTo(stack[0], stack[1])
				stack = stack[2:]
			}
			clearStack()

		case t2hlineto, t2vlineto:
			horizontal := op == t2hlineto
			for _, z := range stack {
				if horizontal {
					rLineTo(z, 0)
				} else {
					rLineTo(0, z)
				}
				horizontal = !horizontal
			}
			clearStack()

		case t2rrcurveto, t2rcurveline, t2rlinecurve:
			for op == t2rlinecurve && len(stack) >= 8 {
				rLineTo(stack[0], stack[1])
				stack = stack[2:]
			}
			for len(stack) >= 6 {
				rCurveTo(stack[0], stack[1], stack[2], stack[3], stack[4], stack[5])
				stack = stack[6:]
			}
			if op == t2rcurveline && len(stack) >= 2 {
				rLineTo(stack[0], stack[1])
			}
			clearStack()

		case t2hhcurveto:
			var dy1 float64
			if len(stack)%4 != 0 {
				dy1, stack = stack[0], stack[1:]
			}
			for len(stack) >= 4 {
				rCurveTo(stack[0], dy1, stack[1], stack[2], stack[3], 0)
				stack = stack[4:]
				dy1 = 0
			}
			clearStack()

		case t2vvcurveto:
			var dx1 float64
			if len(stack)%4 != 0 {
				dx1, stack = stack[0], stack[1:]
			}
			for len(stack) >= 4 {
				rCurveTo(dx1, stack[0], stack[1], stack[2], 0, stack[3])
				stack = stack[4:]
				dx1 = 0
			}
			clearStack()

		case t2hvcurveto, t2vhcurveto:
			horizontal := op == t2hvcurveto
			for len(stack) >= 4 {
				var extra float64
				if len(stack) == 5 {
					extra = stack[4]
				}
				if horizontal {
					rCurveTo(stack[0], 0, stack[1], stack[2], extra, stack[3])
				} else {
					rCurveTo(0, stack[0], stack[1], stack[2], stack[3], extra)
				}
				stack = stack[4:]
				horizontal = !horizontal
			}
			clearStack()

		case t2flex:
			if len(stack) >= 13 {
				rCurveTo(stack[0], stack[1], stack[2], stack[3], stack[4], stack[5])
				rCurveTo(stack[6], stack[7], stack[8], stack[9], stack[10], stack[11])
			}
			clearStack()

		case t2flex1:
			if len(stack) >= 11 {
				dx := stack[0] + stack[2] + stack[4] + stack[6] + stack[8]
				dy := stack[1] + stack[3] + stack[5] + stack[7] + stack[9]
				rCurveTo(stack[0], stack[1], stack[2], stack[3], stack[4], stack[5])
				if math.Abs(dx) > math.Abs(dy) {
					rCurveTo(stack[6], stack[7], stack[8], stack[9], stack[10], -dy)
				} else {
					rCurveTo(stack[6], stack[7], stack[8], stack[9], -dx, stack[10])
				}
			}
			clearStack()

		case t2hflex:
			if len(stack) >= 7 {
				rCurveTo(stack[0], 0, stack[1], stack[2], stack[3], 0)
				rCurveTo(stack[4], 0, stack[5], -stack[2], stack[6], 0)
			}
			clearStack()

		case t2hflex1:
			if len(stack) >= 9 {
				dy := stack[1] + stack[3] + stack[7]
				rCurveTo(stack[0], stack[1], stack[2], stack[3], stack[4], 0)
				rCurveTo(stack[5], 0, stack[6], stack[7], stack[8], -dy)
			}
			clearStack()

		case t2dotsection:
			clearStack()

		case t2hstem, t2hstemhm:
			setGlyphWidth(len(stack)%2 == 1)
			addStems(&res.HStem)
			clearStack()

		case t2vstem, t2vstemhm:
			setGlyphWidth(len(stack)%2 == 1)
			addStems(&res.VStem)
			clearStack()

		case t2hintmask, t2cntrmask:
			setGlyphWidth(len(stack)%2 == 1)
			// An initial vstem operator may be omitted before hintmask.
			addStems(&res.VStem)
			clearStack()

			nStems := (len(res.HStem) + len(res.VStem)) / 2
			k := (nStems + 7) / 8
			if k > len(code) {
				return nil, errIncomplete
			}
			cmd := GlyphOp{Op: OpHintMask, Args: make([]float64, k)}
			if op == t2cntrmask {
				cmd.Op = OpCntrMask
			}
			for i, b := range code[:k] {
				cmd.Args[i] = float64(b)
			}
			res.Cmds = append(res.Cmds, cmd)
			code = code[k:]

		case t2abs, t2neg, t2sqrt, t2not, t2drop, t2dup:
			k := len(stack) - 1
			if k < 0 {
				return nil, errStackUnderflow
			}
			switch op {
			case t2abs:
				stack[k] = math.Abs(stack[k])
			case t2neg:
				stack[k] = -stack[k]
			case t2sqrt:
				stack[k] = math.Sqrt(stack[k])
			case t2not:
				stack[k] = bool2float(stack[k] == 0)
			case t2drop:
				stack = stack[:k]
			case t2dup:
				stack = append(stack, stack[k])
			}

		case t2add, t2sub, t2mul, t2div, t2and, t2or, t2eq, t2exch:
			k := len(stack) - 2
			if k < 0 {
				return nil, errStackUnderflow
			}
			a, b := stack[k], stack[k+1]
			var val float64
			switch op {
			case t2add:
				val = a + b
			case t2sub:
				val = a - b
			case t2mul:
				val = a * b
			case t2div:
				if b == 0 {
					return nil, invalidSince("division by zero in charstring")
				}
				val = a / b
			case t2and:
				val = bool2float(a != 0 && b != 0)
			case t2or:
				val = bool2float(a != 0 || b != 0)
			case t2eq:
				val = bool2float(a == b)
			case t2exch:
				stack[k], stack[k+1] = b, a
				continue
			}
			stack = append(stack[:k], val)

		case t2random:
			stack = append(stack, 0.618) // any number in (0, 1]

		case t2index:
			k := len(stack) - 1
			if k < 0 {
				return nil, errStackUnderflow
			}
			idx := int(stack[k])
			if idx < 0 {
				idx = 0
			}
			if k-idx-1 < 0 {
				return nil, errStackUnderflow
			}
			stack[k] = stack[k-idx-1]

		case t2roll:
			k := len(stack) - 2
			if k < 0 {
				return nil, errStackUnderflow
			}
			n := int(stack[k])
			j := int(stack[k+1])
			if n <= 0 || n > k {
				return nil, invalidSince("invalid roll count")
			}
			roll(stack[k-n:k], j)
			stack = stack[:k]

		case t2put:
			k := len(stack) - 2
			if k < 0 {
				return nil, errStackUnderflow
			}
			m := int(stack[k+1])
			if float64(m) != stack[k+1] || m < 0 || m >= 32 {
				return nil, invalidSince("invalid transient array index")
			}
			if storage == nil {
				storage = make([]float64, 32)
			}
			storage[m] = stack[k]
			stack = stack[:k]

		case t2get:
			k := len(stack) - 1
			if k < 0 {
				return nil, errStackUnderflow
			}
			m := int(stack[k])
			if float64(m) != stack[k] || m < 0 || m >= len(storage) {
				return nil, invalidSince("invalid transient array index")
			}
			stack[k] = storage[m]

		case t2ifelse:
			k := len(stack) - 4
			if k < 0 {
				return nil, errStackUnderflow
			}
			val := stack[k+1]
			if stack[k+2] <= stack[k+3] {
				val = stack[k]
			}
			stack = append(stack[:k], val)

		case t2callsubr, t2callgsubr:
			k := len(stack) - 1
			if k < 0 {
				return nil, errStackUnderflow
			}
			biased := int(stack[k])
			stack = stack[:k]

			if len(callStack) >= maxCallDepth {
				return nil, invalidSince("subroutine nesting too deep")
			}
			subrs := info.subrs
			if op == t2callgsubr {
				subrs = info.gsubrs
			}
			body, err := getSubr(subrs, biased)
			if err != nil {
				return nil, err
			}
			callStack = append(callStack, code)
			code = body

		case t2return:
			if len(callStack) == 0 {
				return nil, invalidSince("return outside of subroutine")
			}
			code, callStack = callStack[len(callStack)-1], callStack[:len(callStack)-1]

		case t2endchar:
			setGlyphWidth(len(stack) == 1 || len(stack) == 5)
			if len(stack) >= 4 {
				return nil, notSupported("endchar with accent composition")
			}
			return res, nil

		default:
			return nil, invalidSince("unsupported charstring operator " + op.String())
		}
	}
}

func getSubr(subrs [][]byte, biased int) ([]byte, error) {
	idx := biased + subrBias(len(subrs))
	if idx < 0 || idx >= len(subrs) {
		return nil, invalidSince("invalid subroutine index")
	}
	return subrs[idx], nil
}

func roll(data []float64, j int) {
	n := len(data)
	j %= n
	if j < 0 {
		j += n
	}
	tmp := make([]float64, j)
	copy(tmp, data[n-j:])
	copy(data[j:], data[:n-j])
	copy(data[:j], tmp)
}

func bool2float(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
