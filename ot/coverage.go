package ot

import (
	"fmt"
	"sort"
)

// --- Coverage table module -------------------------------------------------

// Coverage denotes an indexed set of glyphs.
// Each LookupSubtable (except an Extension LookupType subtable) in a lookup references
// a Coverage table (Coverage), which specifies all the glyphs affected by a
// substitution or positioning operation described in the subtable.
// The GSUB, GPOS, and GDEF tables rely on this notion of coverage. If a glyph does
// not appear in a Coverage table, the client can skip that subtable and move
// immediately to the next subtable.
type Coverage struct {
	Format     uint16
	GlyphRange GlyphRange
}

// GlyphRange is a sorted set of glyphs, each having an index within the set.
// Coverage format 1 stores glyph lists, format 2 stores glyph ranges.
type GlyphRange interface {
	Match(g GlyphIndex) (int, bool) // coverage index of g
	Len() int                       // number of glyphs covered
}

// Match returns the Coverage Index for a glyph, and true if present.
func (c Coverage) Match(g GlyphIndex) (int, bool) {
	if c.GlyphRange == nil {
		return 0, false
	}
	return c.GlyphRange.Match(g)
}

// Contains reports whether a glyph is present in the coverage.
func (c Coverage) Contains(g GlyphIndex) bool {
	_, ok := c.Match(g)
	return ok
}

// Len returns the number of glyphs covered.
func (c Coverage) Len() int {
	if c.GlyphRange == nil {
		return 0
	}
	return c.GlyphRange.Len()
}

// glyphList is the payload of coverage format 1: sorted glyph IDs, the
// coverage index being the position in the list.
type glyphList []GlyphIndex

func (l glyphList) Match(g GlyphIndex) (int, bool) {
	i := sort.Search(len(l), func(i int) bool { return l[i] >= g })
	if i < len(l) && l[i] == g {
		return i, true
	}
	return 0, false
}

func (l glyphList) Len() int {
	return len(l)
}

// glyphRangeRecord is a range of glyphs with the coverage index of its
// first glyph.
type glyphRangeRecord struct {
	start, end GlyphIndex
	startIndex int
}

// glyphRanges is the payload of coverage format 2, sorted by start glyph.
type glyphRanges []glyphRangeRecord

func (r glyphRanges) Match(g GlyphIndex) (int, bool) {
	i := sort.Search(len(r), func(i int) bool { return r[i].end >= g })
	if i < len(r) && r[i].start <= g {
		return r[i].startIndex + int(g-r[i].start), true
	}
	return 0, false
}

func (r glyphRanges) Len() int {
	if len(r) == 0 {
		return 0
	}
	last := r[len(r)-1]
	return last.startIndex + int(last.end-last.start) + 1
}

// parseCoverage reads a coverage table at the start of p.
func parseCoverage(p *Parser) (Coverage, error) {
	format := p.U16()
	count := int(p.U16())
	if p.Err() != nil {
		return Coverage{}, fmt.Errorf("coverage header: %w", p.Err())
	}
	if count > MaxCoverageCount {
		return Coverage{}, fmt.Errorf("coverage count %d exceeds limit", count)
	}
	switch format {
	case 1:
		glyphs := p.GlyphList(count)
		if p.Err() != nil {
			return Coverage{}, fmt.Errorf("coverage format 1: %w", p.Err())
		}
		for i := 1; i < len(glyphs); i++ {
			if glyphs[i] <= glyphs[i-1] {
				return Coverage{}, fmt.Errorf("coverage format 1 not sorted at index %d", i)
			}
		}
		return Coverage{Format: 1, GlyphRange: glyphList(glyphs)}, nil
	case 2:
		ranges := make(glyphRanges, count)
		for i := range ranges {
			ranges[i] = glyphRangeRecord{
				start:      GlyphIndex(p.U16()),
				end:        GlyphIndex(p.U16()),
				startIndex: int(p.U16()),
			}
			if ranges[i].end < ranges[i].start || (i > 0 && ranges[i].start <= ranges[i-1].end) {
				return Coverage{}, fmt.Errorf("coverage format 2 range %d not ascending", i)
			}
		}
		if p.Err() != nil {
			return Coverage{}, fmt.Errorf("coverage format 2: %w", p.Err())
		}
		return Coverage{Format: 2, GlyphRange: ranges}, nil
	}
	return Coverage{}, fmt.Errorf("coverage format %d: %w", format, ErrUnsupportedFormat)
}

// --- Class definition tables -----------------------------------------------

// GlyphClassDefEnum lists the glyph classes of a GDEF GlyphClassDef table.
type GlyphClassDefEnum uint16

const (
	BaseGlyph      GlyphClassDefEnum = 1 // single character, spacing glyph
	LigatureGlyph  GlyphClassDefEnum = 2 // multiple character, spacing glyph
	MarkGlyph      GlyphClassDefEnum = 3 // non-spacing combining glyph
	ComponentGlyph GlyphClassDefEnum = 4 // part of single character, spacing glyph
)

// ClassDefinitions groups glyphs into classes, denoted as integer values.
//
// From the OpenType specification:
// For efficiency and ease of representation, a font developer can group glyph indices
// to form glyph classes. Class assignments vary in meaning from one lookup subtable
// to another. For example, in the GSUB and GPOS tables, classes are used to describe
// glyph contexts. GDEF tables also use the idea of glyph classes.
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#class-definition-table)
type ClassDefinitions struct {
	Format  uint16          // format version 1 or 2
	records classDefVariant // either format 1 or 2
}

type classDefVariant interface {
	Lookup(GlyphIndex) int
}

type classDefinitionsFormat1 struct {
	start   GlyphIndex // glyph ID of the first entry
	classes []uint16   // one class value per glyph ID
}

func (cdf classDefinitionsFormat1) Lookup(glyph GlyphIndex) int {
	if glyph < cdf.start || int(glyph-cdf.start) >= len(cdf.classes) {
		return 0
	}
	return int(cdf.classes[glyph-cdf.start])
}

type classRangeRecord struct {
	start, end GlyphIndex
	class      uint16
}

type classDefinitionsFormat2 []classRangeRecord // ordered by start glyph

func (cdf classDefinitionsFormat2) Lookup(glyph GlyphIndex) int {
	i := sort.Search(len(cdf), func(i int) bool { return cdf[i].end >= glyph })
	if i < len(cdf) && cdf[i].start <= glyph {
		return int(cdf[i].class)
	}
	return 0
}

// Class returns the class defined for a glyph, or 0 (= default class).
func (cdef ClassDefinitions) Class(glyph GlyphIndex) int {
	if cdef.records == nil {
		return 0
	}
	return cdef.records.Lookup(glyph)
}

// Lookup is a synonym for Class.
func (cdef ClassDefinitions) Lookup(glyph GlyphIndex) int {
	return cdef.Class(glyph)
}

// IsEmpty reports whether the class definitions are absent.
func (cdef ClassDefinitions) IsEmpty() bool {
	return cdef.records == nil
}

// parseClassDef reads a class definition table at the start of p.
func parseClassDef(p *Parser) (ClassDefinitions, error) {
	format := p.U16()
	switch format {
	case 1:
		start := GlyphIndex(p.U16())
		count := int(p.U16())
		if count > MaxClassDefCount {
			return ClassDefinitions{}, fmt.Errorf("class definition count %d exceeds limit", count)
		}
		classes := p.U16List(count)
		if p.Err() != nil {
			return ClassDefinitions{}, fmt.Errorf("class definition format 1: %w", p.Err())
		}
		return ClassDefinitions{Format: 1, records: classDefinitionsFormat1{start: start, classes: classes}}, nil
	case 2:
		count := int(p.U16())
		if count > MaxClassDefCount {
			return ClassDefinitions{}, fmt.Errorf("class range count %d exceeds limit", count)
		}
		ranges := make(classDefinitionsFormat2, count)
		for i := range ranges {
			ranges[i] = classRangeRecord{start: GlyphIndex(p.U16()), end: GlyphIndex(p.U16()), class: p.U16()}
			if ranges[i].end < ranges[i].start || (i > 0 && ranges[i].start <= ranges[i-1].end) {
				return ClassDefinitions{}, fmt.Errorf("class range %d not ascending", i)
			}
		}
		if p.Err() != nil {
			return ClassDefinitions{}, fmt.Errorf("class definition format 2: %w", p.Err())
		}
		return ClassDefinitions{Format: 2, records: ranges}, nil
	}
	if p.Err() != nil {
		return ClassDefinitions{}, fmt.Errorf("class definition header: %w", p.Err())
	}
	return ClassDefinitions{}, fmt.Errorf("class definition format %d: %w", format, ErrUnsupportedFormat)
}
