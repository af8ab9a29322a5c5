package ot

import (
	"fmt"
	"math/bits"
	"strconv"
)

// GPOS Table
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#table-organization

// GPOS Lookup Type Enumeration. Lookup types of GPOS lookups are stored
// with MaskGPosLookupType applied.
const (
	GPosLookupTypeSingle            LayoutTableLookupType = 1 // Adjust position of a single glyph
	GPosLookupTypePair              LayoutTableLookupType = 2 // Adjust position of a pair of glyphs
	GPosLookupTypeCursive           LayoutTableLookupType = 3 // Attach cursive glyphs
	GPosLookupTypeMarkToBase        LayoutTableLookupType = 4 // Attach a combining mark to a base glyph
	GPosLookupTypeMarkToLigature    LayoutTableLookupType = 5 // Attach a combining mark to a ligature
	GPosLookupTypeMarkToMark        LayoutTableLookupType = 6 // Attach a combining mark to another mark
	GPosLookupTypeContextPos        LayoutTableLookupType = 7 // Position one or more glyphs in context
	GPosLookupTypeChainedContextPos LayoutTableLookupType = 8 // Position one or more glyphs in chained context
	GPosLookupTypeExtensionPos      LayoutTableLookupType = 9 // Extension mechanism for other positionings
)

const gposLookupTypeNames = "Single|Pair|Cursive|MarkToBase|MarkToLigature|MarkToMark|ContextPos|Chained|Ext"

var gposLookupTypeInx = [...]int{0, 7, 12, 20, 31, 46, 57, 68, 76, 80}

// GPosString interprets a layout table lookup type as a GPOS table type.
func (lt LayoutTableLookupType) GPosString() string {
	if lt >= 1 && lt <= GPosLookupTypeExtensionPos {
		return gposLookupTypeNames[gposLookupTypeInx[lt-1] : gposLookupTypeInx[lt]-1]
	}
	return strconv.Itoa(int(lt))
}

// ValueFormat is a bitmask that describes which fields are present in a ValueRecord.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#value-record
type ValueFormat uint16

const (
	ValueFormatXPlacement ValueFormat = 0x0001 // Includes horizontal adjustment for placement
	ValueFormatYPlacement ValueFormat = 0x0002 // Includes vertical adjustment for placement
	ValueFormatXAdvance   ValueFormat = 0x0004 // Includes horizontal adjustment for advance
	ValueFormatYAdvance   ValueFormat = 0x0008 // Includes vertical adjustment for advance
	ValueFormatXPlaDevice ValueFormat = 0x0010 // Includes Device table for horizontal placement
	ValueFormatYPlaDevice ValueFormat = 0x0020 // Includes Device table for vertical placement
	ValueFormatXAdvDevice ValueFormat = 0x0040 // Includes Device table for horizontal advance
	ValueFormatYAdvDevice ValueFormat = 0x0080 // Includes Device table for vertical advance
	// Bits 0x0F00 are reserved for future use
)

// Size returns the size of a value record of this format in bytes.
func (vf ValueFormat) Size() int {
	return 2 * bits.OnesCount16(uint16(vf&0x00ff))
}

// ValueRecord represents a positioning adjustment for a glyph.
// The actual fields present depend on the ValueFormat bitmask.
// Device tables are checked for consistency, but their adjustments are
// not applied.
type ValueRecord struct {
	XPlacement int16  // Horizontal adjustment for placement, in design units
	YPlacement int16  // Vertical adjustment for placement, in design units
	XAdvance   int16  // Horizontal adjustment for advance, in design units
	YAdvance   int16  // Vertical adjustment for advance, in design units
	XPlaDevice uint16 // Offset to Device table for horizontal placement (may be NULL)
	YPlaDevice uint16 // Offset to Device table for vertical placement (may be NULL)
	XAdvDevice uint16 // Offset to Device table for horizontal advance (may be NULL)
	YAdvDevice uint16 // Offset to Device table for vertical advance (may be NULL)
}

// IsZero reports whether the record carries no adjustment.
func (vr ValueRecord) IsZero() bool {
	return vr.XPlacement == 0 && vr.YPlacement == 0 && vr.XAdvance == 0 && vr.YAdvance == 0
}

// PairValueRecord represents a kerning pair with positioning adjustments.
// Used in GPOS Lookup Type 2 (Pair Adjustment).
type PairValueRecord struct {
	SecondGlyph GlyphIndex  // Glyph ID of second glyph in pair
	Value1      ValueRecord // Positioning for first glyph
	Value2      ValueRecord // Positioning for second glyph
}

// Class2Record holds the adjustments for a pair of glyph classes.
type Class2Record struct {
	Value1 ValueRecord
	Value2 ValueRecord
}

// GPosLookupPayload is the typed payload of a GPOS lookup subtable.
// Exactly one pointer field is non-nil for a parsed GPOS node.
type GPosLookupPayload struct {
	SingleFmt1 *GPosSingleFmt1Payload
	SingleFmt2 *GPosSingleFmt2Payload
	PairFmt1   *GPosPairFmt1Payload
	PairFmt2   *GPosPairFmt2Payload
}

type GPosSingleFmt1Payload struct {
	ValueFormat ValueFormat
	Value       ValueRecord // applies to all covered glyphs
}

type GPosSingleFmt2Payload struct {
	ValueFormat ValueFormat
	Values      []ValueRecord // indexed by coverage index
}

type GPosPairFmt1Payload struct {
	ValueFormat1 ValueFormat
	ValueFormat2 ValueFormat
	PairSets     [][]PairValueRecord // indexed by coverage index, sorted by second glyph
}

// Pair returns the adjustments for the pair with the first glyph at
// coverage index inx.
func (pl *GPosPairFmt1Payload) Pair(inx int, second GlyphIndex) (PairValueRecord, bool) {
	if pl == nil || inx < 0 || inx >= len(pl.PairSets) {
		return PairValueRecord{}, false
	}
	set := pl.PairSets[inx]
	lo, hi := 0, len(set)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		switch {
		case set[m].SecondGlyph < second:
			lo = m + 1
		case set[m].SecondGlyph > second:
			hi = m
		default:
			return set[m], true
		}
	}
	return PairValueRecord{}, false
}

type GPosPairFmt2Payload struct {
	ValueFormat1 ValueFormat
	ValueFormat2 ValueFormat
	ClassDef1    ClassDefinitions
	ClassDef2    ClassDefinitions
	Class1Count  int
	Class2Count  int
	Records      [][]Class2Record // [class1][class2]
}

// Pair returns the adjustments for a pair of glyphs.
func (pl *GPosPairFmt2Payload) Pair(first, second GlyphIndex) (Class2Record, bool) {
	if pl == nil {
		return Class2Record{}, false
	}
	c1, c2 := pl.ClassDef1.Class(first), pl.ClassDef2.Class(second)
	if c1 >= len(pl.Records) || c2 >= len(pl.Records[c1]) {
		return Class2Record{}, false
	}
	return pl.Records[c1][c2], true
}

// --- Parsing ---------------------------------------------------------------

// readValueRecord reads a value record of format vf at the current
// position of p. Device offsets are relative to base.
func readValueRecord(p, base *Parser, vf ValueFormat) (ValueRecord, error) {
	var vr ValueRecord
	fields := [...]struct {
		flag ValueFormat
		i16  *int16
		u16  *uint16
	}{
		{ValueFormatXPlacement, &vr.XPlacement, nil},
		{ValueFormatYPlacement, &vr.YPlacement, nil},
		{ValueFormatXAdvance, &vr.XAdvance, nil},
		{ValueFormatYAdvance, &vr.YAdvance, nil},
		{ValueFormatXPlaDevice, nil, &vr.XPlaDevice},
		{ValueFormatYPlaDevice, nil, &vr.YPlaDevice},
		{ValueFormatXAdvDevice, nil, &vr.XAdvDevice},
		{ValueFormatYAdvDevice, nil, &vr.YAdvDevice},
	}
	for _, f := range fields {
		if vf&f.flag == 0 {
			continue
		}
		if f.i16 != nil {
			*f.i16 = p.I16()
			continue
		}
		*f.u16 = p.U16()
		if *f.u16 != 0 {
			if err := skipDevice(base.Sub(int(*f.u16))); err != nil {
				return vr, err
			}
		}
	}
	return vr, p.Err()
}

// skipDevice checks the header of a Device or VariationIndex table.
func skipDevice(p *Parser) error {
	startSize, endSize, deltaFormat := p.U16(), p.U16(), p.U16()
	if p.Err() != nil {
		return fmt.Errorf("device table: %w", p.Err())
	}
	switch deltaFormat {
	case 1, 2, 3:
		if endSize < startSize {
			return fmt.Errorf("device table: size range %d..%d", startSize, endSize)
		}
		bitsPerValue := 1 << deltaFormat
		n := int(endSize-startSize) + 1
		p.Skip((n*bitsPerValue + 15) / 16 * 2)
		return p.Err()
	case 0x8000: // VariationIndex
		return nil
	}
	return fmt.Errorf("device table delta format %#x: %w", deltaFormat, ErrUnsupportedFormat)
}

func parseGPosSubtable(p *Parser, node *LookupNode, ctx lookupContext) (*GPosLookupPayload, error) {
	ltype, format := GPosLookupType(node.LookupType), node.Format
	switch ltype {
	case GPosLookupTypeSingle, GPosLookupTypePair:
	case GPosLookupTypeCursive, GPosLookupTypeMarkToBase, GPosLookupTypeMarkToLigature,
		GPosLookupTypeMarkToMark, GPosLookupTypeContextPos, GPosLookupTypeChainedContextPos:
		return nil, fmt.Errorf("GPOS lookup type %s: %w", ltype.GPosString(), errUnsupportedSubtable)
	default:
		return nil, fmt.Errorf("GPOS lookup type %d: %w", ltype, ErrUnsupportedLookup)
	}
	base := p.Sub(0)
	p.Skip(2) // format
	var err error
	if node.Coverage, err = coverageAt(p, int(p.U16())); err != nil {
		return nil, err
	}
	payload := &GPosLookupPayload{}
	switch {
	case ltype == GPosLookupTypeSingle && format == 1:
		pl := &GPosSingleFmt1Payload{ValueFormat: ValueFormat(p.U16())}
		pl.Value, err = readValueRecord(p, base, pl.ValueFormat)
		payload.SingleFmt1 = pl
	case ltype == GPosLookupTypeSingle && format == 2:
		pl := &GPosSingleFmt2Payload{ValueFormat: ValueFormat(p.U16())}
		n := int(p.U16())
		if n > MaxCoverageCount {
			return nil, fmt.Errorf("value count %d exceeds limit", n)
		}
		pl.Values = make([]ValueRecord, n)
		for i := 0; i < n && err == nil; i++ {
			pl.Values[i], err = readValueRecord(p, base, pl.ValueFormat)
		}
		payload.SingleFmt2 = pl
	case ltype == GPosLookupTypePair && format == 1:
		pl := &GPosPairFmt1Payload{ValueFormat1: ValueFormat(p.U16()), ValueFormat2: ValueFormat(p.U16())}
		pl.PairSets, err = offsetArray(p, "pair set", func(sp *Parser) ([]PairValueRecord, error) {
			return parsePairSet(sp, pl.ValueFormat1, pl.ValueFormat2)
		})
		payload.PairFmt1 = pl
	case ltype == GPosLookupTypePair && format == 2:
		payload.PairFmt2, err = parsePairClasses(p, base)
	default:
		return nil, unknownFormat(node.LookupType, format)
	}
	if err == nil {
		err = p.Err()
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func parsePairSet(p *Parser, vf1, vf2 ValueFormat) ([]PairValueRecord, error) {
	n := int(p.U16())
	if n > MaxGlyphCount {
		return nil, fmt.Errorf("pair value count %d exceeds limit", n)
	}
	base := p.Sub(0)
	set := make([]PairValueRecord, n)
	var err error
	for i := range set {
		set[i].SecondGlyph = GlyphIndex(p.U16())
		if set[i].Value1, err = readValueRecord(p, base, vf1); err != nil {
			return nil, err
		}
		if set[i].Value2, err = readValueRecord(p, base, vf2); err != nil {
			return nil, err
		}
		if i > 0 && set[i].SecondGlyph <= set[i-1].SecondGlyph {
			return nil, fmt.Errorf("pair set not sorted at record %d", i)
		}
	}
	return set, p.Err()
}

func parsePairClasses(p, base *Parser) (*GPosPairFmt2Payload, error) {
	pl := &GPosPairFmt2Payload{ValueFormat1: ValueFormat(p.U16()), ValueFormat2: ValueFormat(p.U16())}
	cd1, cd2 := int(p.U16()), int(p.U16())
	pl.Class1Count, pl.Class2Count = int(p.U16()), int(p.U16())
	if p.Err() != nil {
		return nil, p.Err()
	}
	size, err := checkedMulInt(pl.Class1Count, pl.Class2Count)
	if err != nil || size > MaxClassDefCount {
		return nil, fmt.Errorf("class matrix %dx%d too large", pl.Class1Count, pl.Class2Count)
	}
	if pl.ClassDef1, err = classDefAt(base, cd1); err != nil {
		return nil, err
	}
	if pl.ClassDef2, err = classDefAt(base, cd2); err != nil {
		return nil, err
	}
	pl.Records = make([][]Class2Record, pl.Class1Count)
	for i := range pl.Records {
		pl.Records[i] = make([]Class2Record, pl.Class2Count)
		for j := range pl.Records[i] {
			rec := &pl.Records[i][j]
			if rec.Value1, err = readValueRecord(p, base, pl.ValueFormat1); err != nil {
				return nil, err
			}
			if rec.Value2, err = readValueRecord(p, base, pl.ValueFormat2); err != nil {
				return nil, err
			}
		}
	}
	return pl, p.Err()
}
