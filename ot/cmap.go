package ot

import (
	"fmt"
	"iter"
	"sort"
)

// --- CMap table ------------------------------------------------------------

// Encoding is a strategy to map characters to glyph indices. Fonts usually
// map through their cmap table; CFF fonts without a usable cmap subtable fall
// back to the encoding built into the CFF data.
type Encoding interface {
	Lookup(r rune) GlyphIndex // 0 (notdef) if r is unmapped
	Name() string
}

// CMapTable defines the mapping of character codes to a default glyph index.
//
// From the OpenType spec.: “Apart from a format 14 subtable, all other subtables are exclusive:
// applications should select and use one and ignore the others. […]
// If a font includes Unicode subtables for both 16-bit encoding (typically, format 4)
// and also 32-bit encoding (formats 10 or 12), then the characters supported by the
// subtable for 32-bit encoding should be a superset of the characters supported by
// the subtable for 16-bit encoding, and the 32-bit encoding should be used by
// applications.”
//
// We only support subtable formats 4 and 12, with the following preferences
// for platform/encoding:
//
//	3 (Win)      10   Unicode full
//	0 (Unicode)  4    Unicode full
//	0 (Unicode)  6    Unicode full
//	3 (Win)      1    Unicode BMP
//	0 (Unicode)  3    Unicode BMP
//	0 (Unicode)  *    other Unicode
type CMapTable struct {
	PlatformID    uint16
	EncodingID    uint16
	Format        uint16
	GlyphIndexMap GlyphIndexMap
	numGlyphs     int
}

// GlyphIndexMap maps code points to glyph indices.
type GlyphIndexMap interface {
	Lookup(r rune) GlyphIndex
	Range() iter.Seq2[rune, GlyphIndex] // all mappings, ascending by code point
}

// Lookup implements Encoding.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil || t.GlyphIndexMap == nil {
		return 0
	}
	g := t.GlyphIndexMap.Lookup(r)
	if int(g) >= t.numGlyphs {
		return 0
	}
	return g
}

// Name implements Encoding.
func (t *CMapTable) Name() string {
	return fmt.Sprintf("cmap %d/%d format %d", t.PlatformID, t.EncodingID, t.Format)
}

func cmapPreference(pid, eid uint16) int {
	switch {
	case pid == 3 && eid == 10:
		return 6
	case pid == 0 && eid == 4:
		return 5
	case pid == 0 && eid == 6:
		return 4
	case pid == 3 && eid == 1:
		return 3
	case pid == 0 && eid == 3:
		return 2
	case pid == 0:
		return 1
	}
	return 0
}

func parseCMap(t *Table, numGlyphs int, ec *errorCollector) (*CMapTable, error) {
	p := NewParser(t.data, t.Offset)
	p.Skip(2) // version
	n := int(p.U16())
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, len(t.data))
	type candidate struct {
		pid, eid, format uint16
		offset           int
		rank             int
	}
	var best candidate
	for i := 0; i < n; i++ {
		pid, eid, off := p.U16(), p.U16(), p.U32()
		if p.Err() != nil {
			return nil, ec.critical(t.Tag, "Header", t.Offset, ErrTableFormat, "encoding records truncated")
		}
		rank := cmapPreference(pid, eid)
		if rank <= best.rank {
			continue
		}
		format := binarySegm(t.data).U16(int(off))
		if format != 4 && format != 12 {
			tracer().Debugf("skipping cmap subtable %d/%d of format %d", pid, eid, format)
			continue
		}
		best = candidate{pid: pid, eid: eid, format: format, offset: int(off), rank: rank}
	}
	if best.rank == 0 {
		ec.major(t.Tag, "Format", t.Offset, ErrUnsupportedFormat, "no supported cmap subtable found")
		return nil, nil
	}
	cmap := &CMapTable{PlatformID: best.pid, EncodingID: best.eid, Format: best.format, numGlyphs: numGlyphs}
	sub := NewParser(t.data, t.Offset).Sub(best.offset)
	var err error
	if best.format == 4 {
		cmap.GlyphIndexMap, err = parseCMapFormat4(sub)
	} else {
		cmap.GlyphIndexMap, err = parseCMapFormat12(sub)
	}
	if err != nil {
		ec.major(t.Tag, fmt.Sprintf("Format%d", best.format), sub.Absolute(), ErrTableFormat, "%v", err)
		return nil, nil
	}
	tracer().Debugf("using cmap subtable %s", cmap.Name())
	return cmap, nil
}

// --- Format 4 --------------------------------------------------------------

type cmap4Segment struct {
	start, end    uint16
	delta         uint16
	idRangeOffset uint16
	rangeBase     int // index into glyphIDs corresponding to idRangeOffset's position
}

type format4GlyphIndex struct {
	segments []cmap4Segment
	glyphIDs []uint16
}

func parseCMapFormat4(p *Parser) (GlyphIndexMap, error) {
	p.Skip(2) // format
	length := int(p.U16())
	p.Skip(2) // language
	segCount := int(p.U16()) / 2
	p.Skip(6) // searchRange, entrySelector, rangeShift
	ends := p.U16List(segCount)
	p.Skip(2) // reservedPad
	starts := p.U16List(segCount)
	deltas := p.U16List(segCount)
	rangeOffsets := p.U16List(segCount)
	if p.Err() != nil {
		return nil, p.Err()
	}
	// the glyph ID array extends to the end of the subtable
	arrayLen := (min(length, p.Len()) - p.Offset()) / 2
	if arrayLen < 0 {
		arrayLen = 0
	}
	glyphIDs := p.U16List(arrayLen)
	m := format4GlyphIndex{segments: make([]cmap4Segment, segCount), glyphIDs: glyphIDs}
	for i := range m.segments {
		if starts[i] > ends[i] || (i > 0 && ends[i] <= ends[i-1]) {
			return nil, fmt.Errorf("cmap format 4: segment %d not ascending", i)
		}
		m.segments[i] = cmap4Segment{
			start:         starts[i],
			end:           ends[i],
			delta:         deltas[i],
			idRangeOffset: rangeOffsets[i],
			// idRangeOffset is relative to its own position within the
			// idRangeOffset array; translate to an index into glyphIDs
			rangeBase: int(rangeOffsets[i])/2 - (segCount - i),
		}
	}
	return m, nil
}

func (m format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xffff {
		return 0
	}
	c := uint16(r)
	i := sort.Search(len(m.segments), func(i int) bool { return m.segments[i].end >= c })
	if i == len(m.segments) || m.segments[i].start > c {
		return 0
	}
	return m.segments[i].glyph(c, m.glyphIDs)
}

func (s cmap4Segment) glyph(c uint16, glyphIDs []uint16) GlyphIndex {
	if s.idRangeOffset == 0 {
		return GlyphIndex(c + s.delta)
	}
	inx := s.rangeBase + int(c-s.start)
	if inx < 0 || inx >= len(glyphIDs) || glyphIDs[inx] == 0 {
		return 0
	}
	return GlyphIndex(glyphIDs[inx] + s.delta)
}

func (m format4GlyphIndex) Range() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for _, s := range m.segments {
			for c := int(s.start); c <= int(s.end); c++ {
				if c == 0xffff {
					break
				}
				if g := s.glyph(uint16(c), m.glyphIDs); g != 0 {
					if !yield(rune(c), g) {
						return
					}
				}
			}
		}
	}
}

// --- Format 12 -------------------------------------------------------------

type cmap12Group struct {
	start, end uint32
	startGlyph uint32
}

type format12GlyphIndex struct {
	groups []cmap12Group
}

func parseCMapFormat12(p *Parser) (GlyphIndexMap, error) {
	p.Skip(2 + 2 + 4 + 4) // format, reserved, length, language
	n := int(p.U32())
	if p.Err() != nil || n > p.Remaining()/12 {
		return nil, fmt.Errorf("cmap format 12: group count %d exceeds subtable", n)
	}
	m := format12GlyphIndex{groups: make([]cmap12Group, n)}
	for i := range m.groups {
		m.groups[i] = cmap12Group{start: p.U32(), end: p.U32(), startGlyph: p.U32()}
		g := m.groups[i]
		if g.start > g.end || (i > 0 && g.start <= m.groups[i-1].end) {
			return nil, fmt.Errorf("cmap format 12: group %d not ascending", i)
		}
	}
	return m, p.Err()
}

func (m format12GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	i := sort.Search(len(m.groups), func(i int) bool { return m.groups[i].end >= c })
	if i == len(m.groups) || m.groups[i].start > c {
		return 0
	}
	return GlyphIndex(m.groups[i].startGlyph + c - m.groups[i].start)
}

func (m format12GlyphIndex) Range() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for _, grp := range m.groups {
			for c := grp.start; c <= grp.end && c <= 0x10ffff; c++ {
				if !yield(rune(c), GlyphIndex(grp.startGlyph+c-grp.start)) {
					return
				}
			}
		}
	}
}
