package ot

import (
	"fmt"
	"strconv"
)

// GSUB Lookup Type Enumeration
const (
	GSubLookupTypeSingle          LayoutTableLookupType = 1 // Replace one glyph with one glyph
	GSubLookupTypeMultiple        LayoutTableLookupType = 2 // Replace one glyph with more than one glyph
	GSubLookupTypeAlternate       LayoutTableLookupType = 3 // Replace one glyph with one of many glyphs
	GSubLookupTypeLigature        LayoutTableLookupType = 4 // Replace multiple glyphs with one glyph
	GSubLookupTypeContext         LayoutTableLookupType = 5 // Replace one or more glyphs in context
	GSubLookupTypeChainingContext LayoutTableLookupType = 6 // Replace one or more glyphs in chained context
	GSubLookupTypeExtensionSubs   LayoutTableLookupType = 7 // Extension mechanism for other substitutions
	GSubLookupTypeReverseChaining LayoutTableLookupType = 8 // Applied in reverse order, replace single glyph in chaining context
)

const gsubLookupTypeNames = "Single|Multiple|Alternate|Ligature|Context|Chaining|Ext|Reverse"

var gsubLookupTypeInx = [...]int{0, 7, 16, 26, 35, 43, 52, 56, 64}

// GSubString interprets a layout table lookup type as a GSUB table type.
func (lt LayoutTableLookupType) GSubString() string {
	if lt >= 1 && lt <= GSubLookupTypeReverseChaining {
		return gsubLookupTypeNames[gsubLookupTypeInx[lt-1] : gsubLookupTypeInx[lt]-1]
	}
	return strconv.Itoa(int(lt))
}

// GSubLookupPayload is the typed payload of a GSUB lookup subtable.
// Exactly one pointer field is non-nil for a parsed GSUB node.
type GSubLookupPayload struct {
	SingleFmt1          *GSubSingleFmt1Payload
	SingleFmt2          *GSubSingleFmt2Payload
	MultipleFmt1        *GSubMultipleFmt1Payload
	AlternateFmt1       *GSubAlternateFmt1Payload
	LigatureFmt1        *GSubLigatureFmt1Payload
	ContextFmt1         *GSubContextFmt1Payload
	ContextFmt2         *GSubContextFmt2Payload
	ContextFmt3         *GSubContextFmt3Payload
	ChainingContextFmt1 *GSubChainingContextFmt1Payload
	ChainingContextFmt2 *GSubChainingContextFmt2Payload
	ChainingContextFmt3 *GSubChainingContextFmt3Payload
	ReverseChainingFmt1 *GSubReverseChainingFmt1Payload
}

// GSubSequenceRule matches the glyphs following the covered glyph.
type GSubSequenceRule struct {
	InputGlyphs []GlyphIndex // input sequence, starting with the second glyph
	Records     []SequenceLookupRecord
}

// GSubClassSequenceRule matches the classes of the glyphs following the
// covered glyph.
type GSubClassSequenceRule struct {
	InputClasses []uint16 // starting with the second glyph
	Records      []SequenceLookupRecord
}

// GSubChainedSequenceRule is a glyph sequence rule with backtrack and
// lookahead context. Backtrack glyphs are stored in reading order away
// from the input, i.e., Backtrack[0] is the glyph immediately preceding
// the input.
type GSubChainedSequenceRule struct {
	Backtrack []GlyphIndex
	Input     []GlyphIndex // starting with the second glyph
	Lookahead []GlyphIndex
	Records   []SequenceLookupRecord
}

// GSubChainedClassRule is the class based variant of GSubChainedSequenceRule.
type GSubChainedClassRule struct {
	Backtrack []uint16
	Input     []uint16
	Lookahead []uint16
	Records   []SequenceLookupRecord
}

type GSubSingleFmt1Payload struct {
	DeltaGlyphID int16
}

type GSubSingleFmt2Payload struct {
	SubstituteGlyphIDs []GlyphIndex // indexed by coverage index
}

type GSubMultipleFmt1Payload struct {
	Sequences [][]GlyphIndex
}

type GSubAlternateFmt1Payload struct {
	Alternates [][]GlyphIndex
}

// GSubLigatureRule replaces the covered glyph plus Components with Ligature.
type GSubLigatureRule struct {
	Components []GlyphIndex // starting with the second glyph
	Ligature   GlyphIndex
}

type GSubLigatureFmt1Payload struct {
	LigatureSets [][]GSubLigatureRule // in order of preference
}

type GSubContextFmt1Payload struct {
	RuleSets [][]GSubSequenceRule
}

type GSubContextFmt2Payload struct {
	ClassDef ClassDefinitions
	RuleSets [][]GSubClassSequenceRule // indexed by class of first glyph
}

type GSubContextFmt3Payload struct {
	InputCoverages []Coverage
	Records        []SequenceLookupRecord
}

type GSubChainingContextFmt1Payload struct {
	RuleSets [][]GSubChainedSequenceRule
}

type GSubChainingContextFmt2Payload struct {
	BacktrackClassDef ClassDefinitions
	InputClassDef     ClassDefinitions
	LookaheadClassDef ClassDefinitions
	RuleSets          [][]GSubChainedClassRule
}

type GSubChainingContextFmt3Payload struct {
	BacktrackCoverages []Coverage
	InputCoverages     []Coverage
	LookaheadCoverages []Coverage
	Records            []SequenceLookupRecord
}

type GSubReverseChainingFmt1Payload struct {
	BacktrackCoverages []Coverage
	LookaheadCoverages []Coverage
	SubstituteGlyphIDs []GlyphIndex
}

// --- Parsing ---------------------------------------------------------------

// offsetArray reads a count followed by 16-bit offsets at the current
// position of p and parses each non-null offset (relative to the start of
// p) with fn. Null offsets leave the zero value.
func offsetArray[T any](p *Parser, what string, fn func(*Parser) (T, error)) ([]T, error) {
	n := int(p.U16())
	if n > MaxRuleCount {
		return nil, fmt.Errorf("%s count %d exceeds limit", what, n)
	}
	offsets := p.U16List(n)
	if p.Err() != nil {
		return nil, fmt.Errorf("%s offsets: %w", what, p.Err())
	}
	base := p.Sub(0)
	out := make([]T, n)
	for i, off := range offsets {
		if off == 0 {
			continue
		}
		var err error
		if out[i], err = fn(base.Sub(int(off))); err != nil {
			return nil, fmt.Errorf("%s %d: %w", what, i, err)
		}
	}
	return out, nil
}

// glyphSequence reads a count-prefixed list of glyphs.
func glyphSequence(p *Parser) ([]GlyphIndex, error) {
	n := int(p.U16())
	glyphs := p.GlyphList(n)
	return glyphs, p.Err()
}

func parseGSubSubtable(p *Parser, node *LookupNode, ctx lookupContext) (*GSubLookupPayload, error) {
	p.Skip(2) // format
	payload := &GSubLookupPayload{}
	var err error
	ltype, format := node.LookupType, node.Format
	switch {
	case ltype == GSubLookupTypeContext && format == 3:
		payload.ContextFmt3, err = parseGSubContextFmt3(p, node, ctx)
		return payload, err
	case ltype == GSubLookupTypeChainingContext && format == 3:
		payload.ChainingContextFmt3, err = parseGSubChainingFmt3(p, node, ctx)
		return payload, err
	case ltype < 1 || ltype > GSubLookupTypeReverseChaining || ltype == GSubLookupTypeExtensionSubs:
		return nil, fmt.Errorf("GSUB lookup type %d: %w", ltype, ErrUnsupportedLookup)
	}
	if node.Coverage, err = coverageAt(p, int(p.U16())); err != nil {
		return nil, err
	}
	switch ltype {
	case GSubLookupTypeSingle:
		switch format {
		case 1:
			payload.SingleFmt1 = &GSubSingleFmt1Payload{DeltaGlyphID: p.I16()}
		case 2:
			glyphs, e := glyphSequence(p)
			payload.SingleFmt2, err = &GSubSingleFmt2Payload{SubstituteGlyphIDs: glyphs}, e
			if err == nil && len(glyphs) != node.Coverage.Len() {
				tracer().Infof("GSUB single substitution: %d substitutes for %d covered glyphs",
					len(glyphs), node.Coverage.Len())
			}
		default:
			return nil, unknownFormat(ltype, format)
		}
	case GSubLookupTypeMultiple, GSubLookupTypeAlternate:
		if format != 1 {
			return nil, unknownFormat(ltype, format)
		}
		seqs, e := offsetArray(p, "sequence", glyphSequence)
		if ltype == GSubLookupTypeMultiple {
			payload.MultipleFmt1, err = &GSubMultipleFmt1Payload{Sequences: seqs}, e
		} else {
			payload.AlternateFmt1, err = &GSubAlternateFmt1Payload{Alternates: seqs}, e
		}
	case GSubLookupTypeLigature:
		if format != 1 {
			return nil, unknownFormat(ltype, format)
		}
		sets, e := offsetArray(p, "ligature set", func(sp *Parser) ([]GSubLigatureRule, error) {
			return offsetArray(sp, "ligature", parseLigatureRule)
		})
		payload.LigatureFmt1, err = &GSubLigatureFmt1Payload{LigatureSets: sets}, e
	case GSubLookupTypeContext:
		switch format {
		case 1:
			sets, e := offsetArray(p, "rule set", func(sp *Parser) ([]GSubSequenceRule, error) {
				return offsetArray(sp, "rule", func(rp *Parser) (GSubSequenceRule, error) {
					return parseSequenceRule(rp, ctx)
				})
			})
			payload.ContextFmt1, err = &GSubContextFmt1Payload{RuleSets: sets}, e
		case 2:
			cdef, e := classDefAt(p, int(p.U16()))
			if e != nil {
				return nil, e
			}
			sets, e := offsetArray(p, "class rule set", func(sp *Parser) ([]GSubClassSequenceRule, error) {
				return offsetArray(sp, "class rule", func(rp *Parser) (GSubClassSequenceRule, error) {
					r, err := parseSequenceRule(rp, ctx)
					return GSubClassSequenceRule{InputClasses: glyphsToClasses(r.InputGlyphs), Records: r.Records}, err
				})
			})
			payload.ContextFmt2, err = &GSubContextFmt2Payload{ClassDef: cdef, RuleSets: sets}, e
		default:
			return nil, unknownFormat(ltype, format)
		}
	case GSubLookupTypeChainingContext:
		switch format {
		case 1:
			sets, e := offsetArray(p, "chained rule set", func(sp *Parser) ([]GSubChainedSequenceRule, error) {
				return offsetArray(sp, "chained rule", func(rp *Parser) (GSubChainedSequenceRule, error) {
					return parseChainedRule(rp, ctx)
				})
			})
			payload.ChainingContextFmt1, err = &GSubChainingContextFmt1Payload{RuleSets: sets}, e
		case 2:
			pl := &GSubChainingContextFmt2Payload{}
			offsets := [3]int{int(p.U16()), int(p.U16()), int(p.U16())}
			cdefs := [3]*ClassDefinitions{&pl.BacktrackClassDef, &pl.InputClassDef, &pl.LookaheadClassDef}
			for i, off := range offsets {
				if *cdefs[i], err = classDefAt(p, off); err != nil {
					return nil, err
				}
			}
			pl.RuleSets, err = offsetArray(p, "chained class rule set", func(sp *Parser) ([]GSubChainedClassRule, error) {
				return offsetArray(sp, "chained class rule", func(rp *Parser) (GSubChainedClassRule, error) {
					r, err := parseChainedRule(rp, ctx)
					return GSubChainedClassRule{
						Backtrack: glyphsToClasses(r.Backtrack),
						Input:     glyphsToClasses(r.Input),
						Lookahead: glyphsToClasses(r.Lookahead),
						Records:   r.Records,
					}, err
				})
			})
			payload.ChainingContextFmt2 = pl
		default:
			return nil, unknownFormat(ltype, format)
		}
	case GSubLookupTypeReverseChaining:
		if format != 1 {
			return nil, unknownFormat(ltype, format)
		}
		pl := &GSubReverseChainingFmt1Payload{}
		if pl.BacktrackCoverages, err = coveragesAt(p, p.Sub(0), int(p.U16())); err != nil {
			return nil, err
		}
		if pl.LookaheadCoverages, err = coveragesAt(p, p.Sub(0), int(p.U16())); err != nil {
			return nil, err
		}
		if pl.SubstituteGlyphIDs, err = glyphSequence(p); err != nil {
			return nil, err
		}
		if len(pl.SubstituteGlyphIDs) != node.Coverage.Len() {
			return nil, fmt.Errorf("reverse chaining: %d substitutes for %d covered glyphs",
				len(pl.SubstituteGlyphIDs), node.Coverage.Len())
		}
		payload.ReverseChainingFmt1 = pl
	}
	if err == nil {
		err = p.Err()
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func unknownFormat(ltype LayoutTableLookupType, format uint16) error {
	return fmt.Errorf("lookup type %s, format %d: %w", ltype, format, ErrUnsupportedFormat)
}

func parseLigatureRule(p *Parser) (GSubLigatureRule, error) {
	lig := GSubLigatureRule{Ligature: GlyphIndex(p.U16())}
	n := int(p.U16())
	if n == 0 {
		return lig, fmt.Errorf("ligature with zero components")
	}
	lig.Components = p.GlyphList(n - 1)
	return lig, p.Err()
}

func parseSequenceRule(p *Parser, ctx lookupContext) (GSubSequenceRule, error) {
	glyphCount, recCount := int(p.U16()), int(p.U16())
	if glyphCount == 0 {
		return GSubSequenceRule{}, fmt.Errorf("sequence rule with empty input")
	}
	r := GSubSequenceRule{InputGlyphs: p.GlyphList(glyphCount - 1)}
	var err error
	r.Records, err = readSequenceLookupRecords(p, recCount, ctx.lookupCount)
	return r, err
}

func parseChainedRule(p *Parser, ctx lookupContext) (GSubChainedSequenceRule, error) {
	r := GSubChainedSequenceRule{}
	r.Backtrack = p.GlyphList(int(p.U16()))
	inputCount := int(p.U16())
	if inputCount == 0 {
		return r, fmt.Errorf("chained rule with empty input")
	}
	r.Input = p.GlyphList(inputCount - 1)
	r.Lookahead = p.GlyphList(int(p.U16()))
	var err error
	r.Records, err = readSequenceLookupRecords(p, int(p.U16()), ctx.lookupCount)
	return r, err
}

// glyphsToClasses re-interprets a sequence read as glyph IDs as classes.
// Class based rules share their binary layout with glyph based rules.
func glyphsToClasses(glyphs []GlyphIndex) []uint16 {
	if glyphs == nil {
		return nil
	}
	classes := make([]uint16, len(glyphs))
	for i, g := range glyphs {
		classes[i] = uint16(g)
	}
	return classes
}

func parseGSubContextFmt3(p *Parser, node *LookupNode, ctx lookupContext) (*GSubContextFmt3Payload, error) {
	glyphCount, recCount := int(p.U16()), int(p.U16())
	if glyphCount == 0 {
		return nil, fmt.Errorf("context format 3 with empty input")
	}
	pl := &GSubContextFmt3Payload{}
	var err error
	if pl.InputCoverages, err = coveragesAt(p, p.Sub(0), glyphCount); err != nil {
		return nil, err
	}
	if pl.Records, err = readSequenceLookupRecords(p, recCount, ctx.lookupCount); err != nil {
		return nil, err
	}
	node.Coverage = pl.InputCoverages[0]
	return pl, nil
}

func parseGSubChainingFmt3(p *Parser, node *LookupNode, ctx lookupContext) (*GSubChainingContextFmt3Payload, error) {
	pl := &GSubChainingContextFmt3Payload{}
	base := p.Sub(0)
	var err error
	if pl.BacktrackCoverages, err = coveragesAt(p, base, int(p.U16())); err != nil {
		return nil, err
	}
	if pl.InputCoverages, err = coveragesAt(p, base, int(p.U16())); err != nil {
		return nil, err
	}
	if len(pl.InputCoverages) == 0 {
		return nil, fmt.Errorf("chaining context format 3 with empty input")
	}
	if pl.LookaheadCoverages, err = coveragesAt(p, base, int(p.U16())); err != nil {
		return nil, err
	}
	if pl.Records, err = readSequenceLookupRecords(p, int(p.U16()), ctx.lookupCount); err != nil {
		return nil, err
	}
	node.Coverage = pl.InputCoverages[0]
	return pl, nil
}
