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

	"seehuhn.de/go/dag"
)

// fixed is a 16.16 fixed point number, the precision of Type 2 charstring
// operands.
type fixed int32

func toFixed(x float64) fixed {
	return fixed(math.Round(x * 65536))
}

func (x fixed) isInt() bool {
	return x&0xFFFF == 0
}

// number is a charstring operand together with its encoding.
type number struct {
	val  fixed
	code []byte
}

func (x number) isZero() bool {
	return x.val == 0
}

func encodeNumber(x fixed) number {
	if x.isInt() && x>>16 >= -32768 && x>>16 <= 32767 {
		return number{val: x, code: appendInt(nil, int32(x>>16))}
	}
	return number{val: x, code: []byte{255, byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}}
}

func appendInt(code []byte, x int32) []byte {
	switch {
	case x >= -107 && x <= 107:
		return append(code, byte(x+139))
	case x >= 108 && x <= 1131:
		x -= 108
		return append(code, byte(x>>8)+247, byte(x))
	case x >= -1131 && x <= -108:
		x = -108 - x
		return append(code, byte(x>>8)+251, byte(x))
	default:
		return append(code, 28, byte(x>>8), byte(x))
	}
}

// encodeCharString returns the Type 2 charstring for the glyph.
func (g *Glyph) encodeCharString(defaultWidth, nominalWidth float64) ([]byte, error) {
	var code []byte
	nArgs := 0
	if w := toFixed(g.Width); w != toFixed(defaultWidth) {
		code = append(code, encodeNumber(w-toFixed(nominalWidth)).code...)
		nArgs = 1
	}

	hintMaskUsed := g.hasHintMask()
	allStems := []struct {
		stems []float64
		op    t2op
	}{
		{g.HStem, t2hstem},
		{g.VStem, t2vstem},
	}
	if hintMaskUsed {
		allStems[0].op = t2hstemhm
		allStems[1].op = t2vstemhm
	}
	for _, s := range allStems {
		stems := s.stems
		if len(stems)%2 != 0 {
			return nil, invalidSince("odd number of stem coordinates")
		}
		for len(stems) > 0 {
			k := min((maxStack-nArgs)/2, len(stems)/2)
			var prev fixed
			for _, x := range stems[:2*k] {
				xi := toFixed(x)
				code = append(code, encodeNumber(xi-prev).code...)
				prev = xi
			}
			code = s.op.appendTo(code)
			stems = stems[2*k:]
			nArgs = 0
		}
	}

	return appendPaths(code, g.Cmds), nil
}

// pathCmd is a drawing command with relative, encoded arguments.
type pathCmd struct {
	op   GlyphOpType
	args []number
	mask []byte
}

func appendPaths(code []byte, cmds []GlyphOp) []byte {
	enc := encodeArgs(cmds)
	for len(enc) > 0 {
		switch enc[0].op {
		case OpMoveTo:
			dx, dy := enc[0].args[0], enc[0].args[1]
			switch {
			case dx.isZero():
				code = append(code, dy.code...)
				code = t2vmoveto.appendTo(code)
			case dy.isZero():
				code = append(code, dx.code...)
				code = t2hmoveto.appendTo(code)
			default:
				code = append(code, dx.code...)
				code = append(code, dy.code...)
				code = t2rmoveto.appendTo(code)
			}
			enc = enc[1:]

		case OpLineTo, OpCurveTo:
			k := 1
			for k < len(enc) && (enc[k].op == OpLineTo || enc[k].op == OpCurveTo) {
				k++
			}
			code = appendSubPath(code, enc[:k])
			enc = enc[k:]

		case OpHintMask, OpCntrMask:
			op := t2hintmask
			if enc[0].op == OpCntrMask {
				op = t2cntrmask
			}
			code = op.appendTo(code)
			code = append(code, enc[0].mask...)
			enc = enc[1:]
		}
	}
	return t2endchar.appendTo(code)
}

// encodeArgs converts absolute coordinates into relative ones.  The
// current point is tracked in fixed point arithmetic, so that no rounding
// errors accumulate.
func encodeArgs(cmds []GlyphOp) []pathCmd {
	res := make([]pathCmd, 0, len(cmds))
	var posX, posY fixed
	for _, cmd := range cmds {
		c := pathCmd{op: cmd.Op}
		switch cmd.Op {
		case OpMoveTo, OpLineTo:
			x, y := toFixed(cmd.Args[0]), toFixed(cmd.Args[1])
			c.args = []number{encodeNumber(x - posX), encodeNumber(y - posY)}
			posX, posY = x, y
		case OpCurveTo:
			c.args = make([]number, 6)
			for i := 0; i < 6; i += 2 {
				x, y := toFixed(cmd.Args[i]), toFixed(cmd.Args[i+1])
				c.args[i] = encodeNumber(x - posX)
				c.args[i+1] = encodeNumber(y - posY)
				posX, posY = x, y
			}
		case OpHintMask, OpCntrMask:
			c.mask = make([]byte, len(cmd.Args))
			for i, b := range cmd.Args {
				c.mask[i] = byte(b)
			}
		default:
			continue
		}
		res = append(res, c)
	}
	return res
}

// appendSubPath appends the shortest encoding of a run of lines and
// curves.
func appendSubPath(code []byte, cmds []pathCmd) []byte {
	g := pathEncoder(cmds)
	ee, err := dag.ShortestPath[pathEdge, int](g, len(cmds))
	if err != nil {
		// rrcurveto and rlineto edges always connect the graph
		panic(err)
	}
	for _, e := range ee {
		code = append(code, e.code...)
	}
	return code
}

// pathEncoder is the graph of all possible encodings of a sub-path.
// Vertex i corresponds to the state where the first i commands have been
// encoded.
type pathEncoder []pathCmd

type pathEdge struct {
	code []byte
	to   int
}

func (enc pathEncoder) To(_ int, e pathEdge) int {
	return e.to
}

func (enc pathEncoder) Length(_ int, e pathEdge) int {
	return len(e.code)
}

func (enc pathEncoder) AppendEdges(ee []pathEdge, from int) []pathEdge {
	cmds := enc[from:]
	if len(cmds) == 0 {
		return ee
	}

	if cmds[0].op == OpLineTo {
		ee = enc.lineEdges(ee, from)
	} else {
		ee = enc.curveEdges(ee, from)
	}
	return ee
}

func (enc pathEncoder) lineEdges(ee []pathEdge, from int) []pathEdge {
	cmds := enc[from:]

	// {dx dy}+ rlineto
	var args [][]byte
	pos := 0
	for pos < len(cmds) && cmds[pos].op == OpLineTo && len(args)+2 <= maxStack {
		args = append(args, cmds[pos].args[0].code, cmds[pos].args[1].code)
		pos++
		ee = append(ee, makeEdge(args, t2rlineto, from+pos))
	}

	// {dx dy}+ xb yb xc yc xd yd rlinecurve
	if pos < len(cmds) && cmds[pos].op == OpCurveTo && len(args)+6 <= maxStack {
		args = appendArgs(args, cmds[pos].args...)
		ee = append(ee, makeEdge(args, t2rlinecurve, from+pos+1))
	}

	// dx {dy dx}* dy? hlineto
	// dy {dx dy}* dx? vlineto
	for _, op := range []t2op{t2hlineto, t2vlineto} {
		horizontal := op == t2hlineto
		args = args[:0]
		for pos = 0; pos < len(cmds) && cmds[pos].op == OpLineTo && len(args) < maxStack; pos++ {
			var along, across number
			if horizontal {
				along, across = cmds[pos].args[0], cmds[pos].args[1]
			} else {
				along, across = cmds[pos].args[1], cmds[pos].args[0]
			}
			if !across.isZero() {
				break
			}
			args = append(args, along.code)
			ee = append(ee, makeEdge(args, op, from+pos+1))
			horizontal = !horizontal
		}
	}
	return ee
}

func (enc pathEncoder) curveEdges(ee []pathEdge, from int) []pathEdge {
	cmds := enc[from:]

	// Curve arguments: 0=dxa 1=dya 2=dxb 3=dyb 4=dxc 5=dyc

	// {dxa dya dxb dyb dxc dyc}+ rrcurveto
	var args [][]byte
	pos := 0
	for pos < len(cmds) && cmds[pos].op == OpCurveTo && len(args)+6 <= maxStack {
		args = appendArgs(args, cmds[pos].args...)
		pos++
		ee = append(ee, makeEdge(args, t2rrcurveto, from+pos))
	}

	// {dxa dya dxb dyb dxc dyc}+ dxd dyd rcurveline
	if pos < len(cmds) && cmds[pos].op == OpLineTo && len(args)+2 <= maxStack {
		args = appendArgs(args, cmds[pos].args...)
		ee = append(ee, makeEdge(args, t2rcurveline, from+pos+1))
	}

	// dy1? {dxa dxb dyb dxc}+ hhcurveto
	// dx1? {dya dxb dyb dyc}+ vvcurveto
	for _, op := range []t2op{t2hhcurveto, t2vvcurveto} {
		along, across := 0, 1 // hhcurveto
		if op == t2vvcurveto {
			along, across = 1, 0
		}
		args = args[:0]
		for pos = 0; pos < len(cmds) && cmds[pos].op == OpCurveTo; pos++ {
			a := cmds[pos].args
			if !a[4+across].isZero() {
				break
			}
			if !a[across].isZero() {
				if pos > 0 {
					break
				}
				args = append(args, a[across].code)
			}
			if len(args)+4 > maxStack {
				break
			}
			args = append(args, a[along].code, a[2].code, a[3].code, a[4+along].code)
			ee = append(ee, makeEdge(args, op, from+pos+1))
		}
	}

	// dx1 dx2 dy2 dy3 {dya dxb dyb dxc dxd dxe dye dyf}* dxf? hvcurveto
	// dy1 dx2 dy2 dx3 {dxa dxb dyb dyc dyd dxe dye dxf}* dyf? vhcurveto
	for _, op := range []t2op{t2hvcurveto, t2vhcurveto} {
		horizontal := op == t2hvcurveto
		args = args[:0]
		for pos = 0; pos < len(cmds) && cmds[pos].op == OpCurveTo; pos++ {
			a := cmds[pos].args
			// indices of the start tangent and the end tangent coordinates
			start, startAcross, end, endAcross := 0, 1, 5, 4
			if !horizontal {
				start, startAcross, end, endAcross = 1, 0, 4, 5
			}
			if !a[startAcross].isZero() || len(args)+5 > maxStack {
				break
			}
			args = append(args, a[start].code, a[2].code, a[3].code, a[end].code)
			if !a[endAcross].isZero() {
				// only allowed for the last curve
				args = append(args, a[endAcross].code)
				ee = append(ee, makeEdge(args, op, from+pos+1))
				break
			}
			ee = append(ee, makeEdge(args, op, from+pos+1))
			horizontal = !horizontal
		}
	}

	// flex variants
	if len(cmds) >= 2 && cmds[1].op == OpCurveTo {
		a, b := cmds[0].args, cmds[1].args
		if a[5].isZero() && b[1].isZero() {
			if a[1].isZero() && b[5].isZero() && a[3].val+b[3].val == 0 {
				// dx1 dx2 dy2 dx3 dx4 dx5 dx6 hflex
				args = [][]byte{a[0].code, a[2].code, a[3].code, a[4].code,
					b[0].code, b[2].code, b[4].code}
				ee = append(ee, makeEdge(args, t2hflex, from+2))
			} else if a[1].val+a[3].val+b[3].val+b[5].val == 0 {
				// dx1 dy1 dx2 dy2 dx3 dx4 dx5 dy5 dx6 hflex1
				args = [][]byte{a[0].code, a[1].code, a[2].code, a[3].code,
					a[4].code, b[0].code, b[2].code, b[3].code, b[4].code}
				ee = append(ee, makeEdge(args, t2hflex1, from+2))
			}
		}
	}

	return ee
}

func appendArgs(args [][]byte, nn ...number) [][]byte {
	for _, n := range nn {
		args = append(args, n.code)
	}
	return args
}

func makeEdge(args [][]byte, op t2op, to int) pathEdge {
	n := 2
	for _, a := range args {
		n += len(a)
	}
	code := make([]byte, 0, n)
	for _, a := range args {
		code = append(code, a...)
	}
	return pathEdge{code: op.appendTo(code), to: to}
}
