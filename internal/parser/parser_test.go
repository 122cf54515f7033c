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

package parser

import (
	"errors"
	"testing"
)

func TestRead(t *testing.T) {
	p := New("test", []byte{0x01, 0x02, 0x03, 0xFF, 0xFE, 0x00, 0x00, 0x01, 0x00})

	a, err := p.ReadUint8()
	if err != nil || a != 1 {
		t.Fatalf("ReadUint8: %d %v", a, err)
	}
	b, err := p.ReadUint16()
	if err != nil || b != 0x0203 {
		t.Fatalf("ReadUint16: %x %v", b, err)
	}
	c, err := p.ReadInt16()
	if err != nil || c != -2 {
		t.Fatalf("ReadInt16: %d %v", c, err)
	}
	d, err := p.ReadUint32()
	if err != nil || d != 0x00000100 {
		t.Fatalf("ReadUint32: %x %v", d, err)
	}
	if p.Pos() != 9 {
		t.Errorf("wrong position %d", p.Pos())
	}

	_, err = p.ReadUint8()
	if !errors.Is(err, ErrInvalidFont) {
		t.Errorf("expected ErrInvalidFont at end of data, got %v", err)
	}
}

func TestOffset(t *testing.T) {
	p := New("test", []byte{0x01, 0x02, 0x03})
	for size, want := range []uint32{0, 0x01, 0x0102, 0x010203} {
		if size == 0 {
			continue
		}
		if err := p.SeekPos(0); err != nil {
			t.Fatal(err)
		}
		got, err := p.ReadOffset(size)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("size %d: got %x, want %x", size, got, want)
		}
	}
	if _, err := p.ReadOffset(5); err == nil {
		t.Error("invalid offset size accepted")
	}
}

func TestSeek(t *testing.T) {
	p := New("test", make([]byte, 4))
	if err := p.SeekPos(4); err != nil {
		t.Error(err)
	}
	if err := p.SeekPos(5); !errors.Is(err, ErrInvalidFont) {
		t.Errorf("seek past end: %v", err)
	}
	if err := p.SeekPos(-1); err == nil {
		t.Error("negative seek accepted")
	}
}

func TestErrorKinds(t *testing.T) {
	err := NotSupported("cff", "CID-keyed fonts")
	if !errors.Is(err, ErrNotSupported) || errors.Is(err, ErrInvalidFont) {
		t.Errorf("wrong classification of %v", err)
	}
	if err.Error() != "cff: CID-keyed fonts not supported" {
		t.Errorf("wrong message %q", err.Error())
	}
}

func FuzzParser(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 2)
	f.Fuzz(func(t *testing.T, data []byte, size int) {
		p := New("fuzz", data)
		for {
			_, err := p.ReadOffset(size%4 + 1)
			if err != nil {
				break
			}
		}
	})
}
