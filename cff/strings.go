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

import "strconv"

// cffStrings holds the non-standard strings of a CFF font.
type cffStrings struct {
	data []string
	rev  map[string]int32
}

var stdStringIndex = func() map[string]int32 {
	res := make(map[string]int32, nStdString)
	for i, s := range stdStrings {
		res[s] = int32(i)
	}
	return res
}()

func (ss *cffStrings) get(sid int32) (string, error) {
	if sid < 0 {
		return "", invalidSince("negative string ID")
	}
	if sid < nStdString {
		return stdStrings[sid], nil
	}
	i := int(sid - nStdString)
	if i >= len(ss.data) {
		return "", invalidSince("string ID " + strconv.Itoa(int(sid)) + " out of range")
	}
	return ss.data[i], nil
}

// lookup returns the string ID for s, adding s to the string table if
// needed.
func (ss *cffStrings) lookup(s string) int32 {
	if sid, ok := stdStringIndex[s]; ok {
		return sid
	}
	if ss.rev == nil {
		ss.rev = make(map[string]int32, len(ss.data))
		for i, si := range ss.data {
			ss.rev[si] = int32(i) + nStdString
		}
	}
	if sid, ok := ss.rev[s]; ok {
		return sid
	}
	sid := int32(len(ss.data)) + nStdString
	ss.data = append(ss.data, s)
	ss.rev[s] = sid
	return sid
}

func (ss *cffStrings) encode() ([]byte, error) {
	index := make([][]byte, len(ss.data))
	for i, s := range ss.data {
		index[i] = []byte(s)
	}
	return encodeIndex(index)
}
