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

package table

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"

	"seehuhn.de/go/fontconv/internal/parser"
)

// Name IDs used by fontconv.
// https://docs.microsoft.com/en-us/typography/opentype/spec/name#name-ids
const (
	NameCopyright      = 0
	NameFamily         = 1
	NameSubfamily      = 2
	NameFullName       = 4
	NameVersion        = 5
	NamePostScriptName = 6
	NameTrademark      = 7
)

// NameRecord is a single decoded string from the "name" table.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      string
}

// Names holds the decodable records of a "name" table.
type Names struct {
	Records []NameRecord
}

// DecodeNames decodes the "name" table.  Records in encodings which
// cannot be decoded are skipped.
func DecodeNames(data []byte) (*Names, error) {
	if len(data) < 6 {
		return nil, parser.Invalid("sfnt/name", "table too short")
	}
	version := binary.BigEndian.Uint16(data)
	if version > 1 {
		return nil, parser.NotSupported("sfnt/name",
			fmt.Sprintf("table version %d", version))
	}
	numRec := int(binary.BigEndian.Uint16(data[2:]))
	storage := int(binary.BigEndian.Uint16(data[4:]))
	if len(data) < 6+12*numRec || storage > len(data) {
		return nil, parser.Invalid("sfnt/name", "table too short")
	}

	res := &Names{}
	for i := range numRec {
		rec := data[6+12*i : 18+12*i]
		r := NameRecord{
			PlatformID: binary.BigEndian.Uint16(rec[0:]),
			EncodingID: binary.BigEndian.Uint16(rec[2:]),
			LanguageID: binary.BigEndian.Uint16(rec[4:]),
			NameID:     binary.BigEndian.Uint16(rec[6:]),
		}
		length := int(binary.BigEndian.Uint16(rec[8:]))
		offset := storage + int(binary.BigEndian.Uint16(rec[10:]))
		if offset+length > len(data) {
			return nil, parser.Invalid("sfnt/name",
				fmt.Sprintf("record %d extends beyond end of table", i))
		}

		dec := decoderFor(r.PlatformID, r.EncodingID)
		if dec == nil {
			continue
		}
		val, err := dec.Bytes(data[offset : offset+length])
		if err != nil {
			continue
		}
		r.Value = string(val)
		res.Records = append(res.Records, r)
	}
	return res, nil
}

func decoderFor(platformID, encodingID uint16) *encoding.Decoder {
	switch {
	case platformID == 0,
		platformID == 3 && (encodingID == 0 || encodingID == 1 || encodingID == 10):
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case platformID == 1 && encodingID == 0:
		return charmap.Macintosh.NewDecoder()
	default:
		return nil
	}
}

// Get returns the best string for the given name ID.  Records in the
// preferred language win over others, Windows records win over Unicode
// records, which in turn win over Macintosh records.
func (n *Names) Get(nameID uint16, pref language.Tag) string {
	best := -1
	bestScore := -1
	for i, r := range n.Records {
		if r.NameID != nameID || r.Value == "" {
			continue
		}
		score := 0
		switch r.PlatformID {
		case 3:
			score = 3
		case 0:
			score = 2
		case 1:
			score = 1
		}
		if tag, ok := recordLanguage(r); ok && baseOf(tag) == baseOf(pref) {
			score += 10
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return ""
	}
	return n.Records[best].Value
}

func baseOf(tag language.Tag) language.Base {
	base, _ := tag.Base()
	return base
}

// recordLanguage maps the language ID of a record to a language tag.
// Only the most common language IDs are known.
func recordLanguage(r NameRecord) (language.Tag, bool) {
	switch r.PlatformID {
	case 1:
		tag, ok := macLanguages[r.LanguageID]
		return tag, ok
	case 3:
		tag, ok := windowsLanguages[r.LanguageID]
		return tag, ok
	}
	return language.Und, false
}

var macLanguages = map[uint16]language.Tag{
	0:  language.English,
	1:  language.French,
	2:  language.German,
	3:  language.Italian,
	4:  language.Dutch,
	6:  language.Spanish,
	11: language.Japanese,
}

var windowsLanguages = map[uint16]language.Tag{
	0x0407: language.German,
	0x0409: language.AmericanEnglish,
	0x040A: language.Spanish,
	0x040C: language.French,
	0x0410: language.Italian,
	0x0411: language.Japanese,
	0x0413: language.Dutch,
	0x0809: language.BritishEnglish,
}

// PostScriptName returns the PostScript name of the font, restricted to
// the characters allowed in PostScript names.  If the table has no
// PostScript name, one is derived from the full name or the family name.
func (n *Names) PostScriptName() string {
	name := n.Get(NamePostScriptName, language.English)
	if name == "" {
		name = n.Get(NameFullName, language.English)
	}
	if name == "" {
		name = n.Get(NameFamily, language.English)
	}
	return sanitizePostScriptName(name)
}

func sanitizePostScriptName(name string) string {
	b := &strings.Builder{}
	for _, c := range name {
		if c <= 32 || c >= 127 || strings.ContainsRune("[](){}<>/%", c) {
			continue
		}
		b.WriteRune(c)
		if b.Len() >= 63 {
			break
		}
	}
	return b.String()
}
