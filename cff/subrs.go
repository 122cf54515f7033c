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
	"encoding/binary"
	"slices"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// Desubroutinize inlines all subroutine calls.  Afterwards the font has
// no local or global subroutines.
func (f *Font) Desubroutinize() error {
	if len(f.Subrs) == 0 && len(f.Gsubrs) == 0 {
		return nil
	}
	glyphs, err := f.Glyphs()
	if err != nil {
		return err
	}
	charStrings := make([][]byte, len(glyphs))
	for i, g := range glyphs {
		charStrings[i], err = g.encodeCharString(f.DefaultWidth, f.NominalWidth)
		if err != nil {
			return err
		}
	}
	tracer().Debugf("inlined %d local and %d global subroutines", len(f.Subrs), len(f.Gsubrs))
	f.CharStrings = charStrings
	f.Subrs = nil
	f.Gsubrs = nil
	return nil
}

const (
	// maxSubrCommands is the maximal number of drawing commands in a
	// subroutine.
	maxSubrCommands = 16

	// maxSubrs is the maximal number of local subroutines.
	maxSubrs = 65535
)

// command is a single charstring operator together with its operands.
type command struct {
	code     []byte
	factored bool // the command may be moved into a subroutine
}

// Subroutinize moves repeated sequences of drawing commands into local
// subroutines.  Existing subroutines are inlined first.  Sequences never
// include stem hints, hintmask, or endchar operators.
func (f *Font) Subroutinize() error {
	err := f.Desubroutinize()
	if err != nil {
		return err
	}

	glyphs := make([][]command, len(f.CharStrings))
	ids := make([][]int, len(f.CharStrings))
	intern := make(map[string]int)
	var cmdLen []int
	for i, code := range f.CharStrings {
		cmds, ok := splitCommands(code)
		if !ok {
			continue
		}
		glyphs[i] = cmds
		ids[i] = make([]int, len(cmds))
		for j, c := range cmds {
			id, seen := intern[string(c.code)]
			if !seen {
				id = len(cmdLen)
				intern[string(c.code)] = id
				cmdLen = append(cmdLen, len(c.code))
			}
			ids[i][j] = id
		}
	}

	cands := findCandidates(glyphs, ids, cmdLen)
	covered := make([][]bool, len(glyphs))
	for i, cmds := range glyphs {
		covered[i] = make([]bool, len(cmds))
	}

	heap := binaryheap.NewWith(func(a, b interface{}) int {
		return compareCandidates(b.(*candidate), a.(*candidate))
	})
	for _, c := range cands {
		c.savings = c.estimate(len(c.occ), 0)
		if c.savings > 0 {
			heap.Push(c)
		}
	}

	var selected []*candidate
	for heap.Size() > 0 && len(selected) < maxSubrs {
		top, _ := heap.Pop()
		c := top.(*candidate)

		uses := c.available(covered)
		savings := c.estimate(len(uses), len(selected))
		if savings < c.savings {
			c.savings = savings
			if savings > 0 {
				heap.Push(c)
			}
			continue
		}
		if savings <= 0 || len(uses) < 2 {
			continue
		}
		c.occ = uses
		for _, o := range uses {
			for k := o.pos; k < o.pos+c.n; k++ {
				covered[o.glyph][k] = true
			}
		}
		selected = append(selected, c)
	}
	if len(selected) == 0 {
		tracer().Debugf("no repeated command sequences found")
		return nil
	}

	// frequently used subroutines get the short indices
	slices.SortStableFunc(selected, func(a, b *candidate) int {
		return len(b.occ) - len(a.occ)
	})
	bias := subrBias(len(selected))

	type call struct {
		subr, n int
	}
	calls := make(map[occurrence]call)
	subrs := make([][]byte, len(selected))
	for idx, c := range selected {
		first := c.occ[0]
		var body []byte
		for _, cmd := range glyphs[first.glyph][first.pos : first.pos+c.n] {
			body = append(body, cmd.code...)
		}
		subrs[idx] = t2return.appendTo(body)
		for _, o := range c.occ {
			calls[o] = call{subr: idx, n: c.n}
		}
	}

	charStrings := make([][]byte, len(f.CharStrings))
	before, after := 0, 0
	for i, cmds := range glyphs {
		before += len(f.CharStrings[i])
		if cmds == nil {
			charStrings[i] = f.CharStrings[i]
			after += len(charStrings[i])
			continue
		}
		var code []byte
		for j := 0; j < len(cmds); {
			if cl, ok := calls[occurrence{i, j}]; ok {
				code = appendInt(code, int32(cl.subr-bias))
				code = t2callsubr.appendTo(code)
				j += cl.n
				continue
			}
			code = append(code, cmds[j].code...)
			j++
		}
		charStrings[i] = code
		after += len(code)
	}
	for _, s := range subrs {
		after += len(s)
	}

	tracer().Infof("created %d subroutines, charstring data %d -> %d bytes",
		len(subrs), before, after)
	f.CharStrings = charStrings
	f.Subrs = subrs
	return nil
}

// splitCommands divides a flat charstring into commands.  The second
// return value is false if the charstring uses operators which prevent
// this, for example subroutine calls or arithmetic.
func splitCommands(code []byte) ([]command, bool) {
	var res []command
	start, nArgs, nStems := 0, 0, 0
	pos := 0
	for pos < len(code) {
		b0 := code[pos]
		switch {
		case b0 >= 32 && b0 <= 246:
			pos++
			nArgs++
			continue
		case b0 >= 247 && b0 <= 254:
			pos += 2
			nArgs++
			continue
		case b0 == 28:
			pos += 3
			nArgs++
			continue
		case b0 == 255:
			pos += 5
			nArgs++
			continue
		}

		op := t2op(b0)
		if b0 == 12 {
			if pos+1 >= len(code) {
				return nil, false
			}
			op = op<<8 | t2op(code[pos+1])
			pos += 2
		} else {
			pos++
		}

		factored := false
		switch op {
		case t2rmoveto, t2hmoveto, t2vmoveto, t2rlineto, t2hlineto, t2vlineto,
			t2rrcurveto, t2rcurveline, t2rlinecurve, t2vvcurveto, t2hhcurveto,
			t2vhcurveto, t2hvcurveto, t2hflex, t2flex, t2hflex1, t2flex1:
			factored = true
		case t2hstem, t2vstem, t2hstemhm, t2vstemhm:
			nStems += nArgs / 2
		case t2hintmask, t2cntrmask:
			nStems += nArgs / 2
			pos += (nStems + 7) / 8
		case t2endchar:
		default:
			return nil, false
		}
		if pos > len(code) {
			return nil, false
		}
		res = append(res, command{code: code[start:pos], factored: factored})
		start = pos
		nArgs = 0
		if op == t2endchar {
			break
		}
	}
	if start != len(code) || len(res) == 0 {
		return nil, false
	}
	return res, true
}

type occurrence struct {
	glyph, pos int
}

// candidate is a repeated sequence of commands.
type candidate struct {
	key     string
	n       int // number of commands
	size    int // number of bytes
	occ     []occurrence
	savings int
}

// estimate returns the number of bytes saved by turning the candidate into
// a subroutine with the given number of uses, when nSubrs subroutines
// exist already.
func (c *candidate) estimate(uses, nSubrs int) int {
	callSize := 2 // one byte for the index, one for callsubr
	if nSubrs >= 215 {
		callSize = 3
	}
	// the subroutine needs an INDEX offset and a return operator
	return uses*c.size - uses*callSize - c.size - 3
}

// available returns the non-overlapping occurrences which are not yet part
// of another subroutine.
func (c *candidate) available(covered [][]bool) []occurrence {
	var res []occurrence
	lastGlyph, lastEnd := -1, 0
	for _, o := range c.occ {
		if o.glyph == lastGlyph && o.pos < lastEnd {
			continue
		}
		free := true
		for k := o.pos; k < o.pos+c.n; k++ {
			if covered[o.glyph][k] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		res = append(res, o)
		lastGlyph, lastEnd = o.glyph, o.pos+c.n
	}
	return res
}

func compareCandidates(a, b *candidate) int {
	if a.savings != b.savings {
		return a.savings - b.savings
	}
	if a.n != b.n {
		return a.n - b.n
	}
	return -strings.Compare(a.key, b.key)
}

// findCandidates lists all sequences of factorable commands which occur at
// least twice.
func findCandidates(glyphs [][]command, ids [][]int, cmdLen []int) []*candidate {
	byKey := make(map[string]*candidate)
	var order []*candidate
	var buf []byte
	for i, cmds := range glyphs {
		for start := range cmds {
			buf = buf[:0]
			size := 0
			for n := 1; n <= maxSubrCommands && start+n <= len(cmds); n++ {
				k := start + n - 1
				if !cmds[k].factored {
					break
				}
				buf = binary.AppendUvarint(buf, uint64(ids[i][k]))
				size += cmdLen[ids[i][k]]
				c, ok := byKey[string(buf)]
				if !ok {
					c = &candidate{key: string(buf), n: n, size: size}
					byKey[c.key] = c
					order = append(order, c)
				}
				c.occ = append(c.occ, occurrence{i, start})
			}
		}
	}

	res := order[:0]
	for _, c := range order {
		if len(c.occ) >= 2 {
			res = append(res, c)
		}
	}
	return res
}
