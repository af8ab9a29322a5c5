/*
Package fonttest synthesizes small font files for tests.

Fonts are assembled from table binaries, which are produced by builder
functions for the tables the tests need: head, hhea, maxp, hmtx, cmap
formats 4 and 12, name, post, OS/2, kern, fvar, ltag, meta, glyf/loca, CFF
and the OpenType layout tables.
The builders favor simplicity over compactness, e.g., offsets are always
written with their widest encoding.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fonttest

import (
	"bytes"
	"compress/zlib"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// Signatures of font containers.
const (
	SigTrueType uint32 = 0x00010000
	SigTrue     uint32 = 0x74727565 // 'true'
	SigTyp1     uint32 = 0x74797031 // 'typ1'
	SigOTTO     uint32 = 0x4f54544f // 'OTTO'
	SigWOFF     uint32 = 0x774f4646 // 'wOFF'
)

// Buf is a big-endian byte writer.
type Buf struct {
	b []byte
}

// U8 appends bytes.
func (w *Buf) U8(v ...uint8) *Buf {
	w.b = append(w.b, v...)
	return w
}

// U16 appends 16-bit values.
func (w *Buf) U16(v ...uint16) *Buf {
	for _, x := range v {
		w.b = append(w.b, byte(x>>8), byte(x))
	}
	return w
}

// I16 appends signed 16-bit values.
func (w *Buf) I16(v ...int16) *Buf {
	for _, x := range v {
		w.U16(uint16(x))
	}
	return w
}

// U32 appends 32-bit values.
func (w *Buf) U32(v ...uint32) *Buf {
	for _, x := range v {
		w.b = append(w.b, byte(x>>24), byte(x>>16), byte(x>>8), byte(x))
	}
	return w
}

// Tag appends a 4-byte tag, padded with spaces.
func (w *Buf) Tag(s string) *Buf {
	t := []byte(s + "    ")[:4]
	w.b = append(w.b, t...)
	return w
}

// Bytes appends raw bytes.
func (w *Buf) Bytes(b []byte) *Buf {
	w.b = append(w.b, b...)
	return w
}

// PutU16 overwrites a 16-bit value at position at.
func (w *Buf) PutU16(at int, v uint16) {
	w.b[at], w.b[at+1] = byte(v>>8), byte(v)
}

// PutU32 overwrites a 32-bit value at position at.
func (w *Buf) PutU32(at int, v uint32) {
	w.b[at], w.b[at+1], w.b[at+2], w.b[at+3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

// Pad4 pads the buffer to a multiple of 4 bytes.
func (w *Buf) Pad4() *Buf {
	for len(w.b)%4 != 0 {
		w.b = append(w.b, 0)
	}
	return w
}

// Len returns the number of bytes written.
func (w *Buf) Len() int {
	return len(w.b)
}

// Data returns the bytes written.
func (w *Buf) Data() []byte {
	return w.b
}

func sortedTags(tables map[string][]byte) []string {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// SFNT assembles tables into an sfnt container with signature sig.
func SFNT(sig uint32, tables map[string][]byte) []byte {
	tags := sortedTags(tables)
	w := &Buf{}
	n := uint16(len(tags))
	w.U32(sig).U16(n, 0, 0, 0)
	offset := 12 + 16*len(tags)
	for _, tag := range tags {
		w.Tag(tag).U32(0, uint32(offset), uint32(len(tables[tag])))
		offset += (len(tables[tag]) + 3) &^ 3
	}
	for _, tag := range tags {
		w.Bytes(tables[tag]).Pad4()
	}
	return w.Data()
}

// WOFFEntry is a table of a WOFF container. Data is stored as given;
// OrigLength is the length of the uncompressed table.
type WOFFEntry struct {
	Tag        string
	Data       []byte
	OrigLength int
}

// WOFF assembles tables into a WOFF container of flavor sig. If compress is
// set, tables are zlib-compressed whenever compression reduces their size.
func WOFF(sig uint32, tables map[string][]byte, compress bool) []byte {
	var entries []WOFFEntry
	for _, tag := range sortedTags(tables) {
		e := WOFFEntry{Tag: tag, Data: tables[tag], OrigLength: len(tables[tag])}
		if compress {
			if z := Zlib(e.Data); len(z) < len(e.Data) {
				e.Data = z
			}
		}
		entries = append(entries, e)
	}
	return WOFFRaw(sig, entries)
}

// WOFFRaw assembles WOFF entries without further processing.
func WOFFRaw(sig uint32, entries []WOFFEntry) []byte {
	w := &Buf{}
	w.U32(SigWOFF, sig, 0).U16(uint16(len(entries)), 0).U32(0).U16(1, 0).U32(0, 0, 0, 0, 0)
	offset := 44 + 20*len(entries)
	for _, e := range entries {
		w.Tag(e.Tag).U32(uint32(offset), uint32(len(e.Data)), uint32(e.OrigLength), 0)
		offset += (len(e.Data) + 3) &^ 3
	}
	for _, e := range entries {
		w.Bytes(e.Data).Pad4()
	}
	w.PutU32(8, uint32(w.Len()))
	return w.Data()
}

// Zlib compresses data with zlib framing.
func Zlib(data []byte) []byte {
	var buf bytes.Buffer
	zw, _ := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// --- Scalar tables ---------------------------------------------------------

// Head builds a head table. locaFormat is 0 for short, 1 for long loca offsets.
func Head(unitsPerEm uint16, locaFormat int16) []byte {
	w := &Buf{}
	w.U16(1, 0).U32(0x00010000, 0, 0x5F0F3CF5).U16(0, unitsPerEm)
	w.U32(0, 0, 0, 0)          // created, modified
	w.I16(0, -200, 1000, 800)  // bbox
	w.U16(0, 8).I16(2, locaFormat, 0)
	return w.Data()
}

// HHea builds a hhea table.
func HHea(ascender, descender int16, numberOfHMetrics uint16) []byte {
	w := &Buf{}
	w.U16(1, 0).I16(ascender, descender, 0).U16(1000)
	w.I16(0, 0, 1000, 1, 0, 0, 0, 0, 0, 0, 0).U16(numberOfHMetrics)
	return w.Data()
}

// MaxP builds a maxp table, version 1.0 for TrueType, version 0.5 otherwise.
func MaxP(numGlyphs uint16, trueType bool) []byte {
	w := &Buf{}
	if !trueType {
		return w.U32(0x00005000).U16(numGlyphs).Data()
	}
	w.U32(0x00010000).U16(numGlyphs, 100, 10, 100, 10, 2, 0, 0, 0, 0, 0, 0, 10, 2)
	return w.Data()
}

// HMtx builds a hmtx table with one long metric per glyph and zero
// side bearings.
func HMtx(advances []uint16) []byte {
	w := &Buf{}
	for _, a := range advances {
		w.U16(a).I16(0)
	}
	return w.Data()
}

// CMap4 builds a cmap table with a single (3,1) subtable of format 4,
// using one segment per code point.
func CMap4(m map[rune]uint16) []byte {
	w := &Buf{}
	w.U16(0, 1).U16(3, 1).U32(12).Bytes(cmap4Subtable(m))
	return w.Data()
}

func cmap4Subtable(m map[rune]uint16) []byte {
	runes := make([]rune, 0, len(m))
	for r := range m {
		if r < 0xffff {
			runes = append(runes, r)
		}
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	segCount := len(runes) + 1
	sub := &Buf{}
	sub.U16(4, uint16(16+8*segCount), 0, uint16(2*segCount), 0, 0, 0)
	for _, r := range runes {
		sub.U16(uint16(r))
	}
	sub.U16(0xffff, 0)
	for _, r := range runes {
		sub.U16(uint16(r))
	}
	sub.U16(0xffff)
	for _, r := range runes {
		sub.U16(m[r] - uint16(r))
	}
	sub.U16(1)
	for range segCount {
		sub.U16(0)
	}
	return sub.Data()
}

// Name builds a name table with Windows Unicode records (language
// English/US), ordered by name ID.
func Name(names map[uint16]string) []byte {
	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	strs := &Buf{}
	w := &Buf{}
	w.U16(0, uint16(len(ids)), uint16(6+12*len(ids)))
	for _, id := range ids {
		s, _ := enc.Bytes([]byte(names[uint16(id)]))
		w.U16(3, 1, 0x409, uint16(id), uint16(len(s)), uint16(strs.Len()))
		strs.Bytes(s)
	}
	return w.Bytes(strs.Data()).Data()
}

// Post builds a post table of version 2, with custom names for all glyphs
// except .notdef.
func Post(names []string) []byte {
	indices := make([]uint16, len(names))
	var custom []string
	for i, name := range names {
		if name == ".notdef" {
			continue
		}
		indices[i] = uint16(258 + len(custom))
		custom = append(custom, name)
	}
	return PostIndexed(indices, custom)
}

// PostIndexed builds a post table of version 2 from glyph name indices.
// Indices below 258 refer to the standard Macintosh names, the others to
// custom[index-258].
func PostIndexed(indices []uint16, custom []string) []byte {
	w := &Buf{}
	w.U32(0x00020000, 0).I16(-100, 50).U32(0, 0, 0, 0, 0)
	w.U16(uint16(len(indices))).U16(indices...)
	for _, name := range custom {
		w.U8(uint8(len(name))).Bytes([]byte(name))
	}
	return w.Data()
}

// OS2 builds an OS/2 table of version 4.
func OS2(weightClass uint16) []byte {
	w := &Buf{}
	w.U16(4).I16(500).U16(weightClass, 5, 0)
	w.I16(0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // sub/superscript, strikeout
	w.I16(0)                            // family class
	w.Bytes(make([]byte, 10))           // panose
	w.U32(1, 0, 0, 0).Tag("TEST").U16(0x40, 0x20, 0xffff)
	w.I16(800, -200, 0).U16(1000, 200)
	w.U32(1, 0)
	w.I16(500, 700).U16(0, 0x20, 2)
	return w.Data()
}

// Kern builds a kern table (version 0) with one horizontal format 0
// sub-table.
func Kern(pairs map[[2]uint16]int16) []byte {
	keys := make([][2]uint16, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i][0] < keys[j][0] || (keys[i][0] == keys[j][0] && keys[i][1] < keys[j][1])
	})
	w := &Buf{}
	w.U16(0, 1)
	w.U16(0, uint16(14+6*len(keys)), 0x0001, uint16(len(keys)), 0, 0, 0)
	for _, k := range keys {
		w.U16(k[0], k[1]).I16(pairs[k])
	}
	return w.Data()
}
