package ot

/*
From https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2:

OpenType Layout consists of five tables: the Glyph Substitution table (GSUB),
the Glyph Positioning table (GPOS), the Baseline table (BASE),
the Justification table (JSTF), and the Glyph Definition table (GDEF).
These tables use some of the same data formats.
*/

import (
	"fmt"
)

// Maximum reasonable counts for OpenType table structures.
// These limits prevent malicious fonts from claiming unreasonably large counts
// that could lead to excessive memory allocation or out-of-bounds reads.
const (
	MaxScriptCount   = 50    // Scripts: typically < 10
	MaxFeatureCount  = 500   // Features: typically < 200
	MaxLookupCount   = 1000  // Lookups: typically < 100
	MaxTagListCount  = 100   // Tag lists
	MaxSubtableCount = 1000  // Subtables per lookup
	MaxGlyphCount    = 65536 // Maximum glyph index (uint16)
	MaxCoverageCount = 65535 // Coverage tables
	MaxClassDefCount = 65535 // Class definitions
	MaxRuleCount     = 65535 // Rules and rule sets of contextual lookups
)

// --- Layout tables ---------------------------------------------------------

// LayoutTable is a base type for layout tables.
// OpenType specifies two such tables–GPOS and GSUB–which share some of their
// structure.
type LayoutTable struct {
	Tag          Tag
	Major, Minor uint16
	ScriptList   *ScriptList
	FeatureList  *FeatureList
	LookupList   *LookupList
	Requirements LayoutRequirements
}

// LayoutRequirements collects GDEF subtable requirements implied by lookup flags.
// Requirements are aggregated during the parse of GSUB/GPOS lookup lists.
type LayoutRequirements struct {
	NeedGlyphClassDef      bool
	NeedMarkAttachClassDef bool
	NeedMarkGlyphSets      bool
}

// AddFromLookupFlag updates requirements based on a lookup's flag bits.
func (r *LayoutRequirements) AddFromLookupFlag(flag LayoutTableLookupFlag) {
	if flag&(LOOKUP_FLAG_IGNORE_BASE_GLYPHS|LOOKUP_FLAG_IGNORE_LIGATURES|LOOKUP_FLAG_IGNORE_MARKS) != 0 {
		r.NeedGlyphClassDef = true
	}
	if flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		r.NeedMarkGlyphSets = true
	}
	if flag&LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK != 0 {
		r.NeedMarkAttachClassDef = true
	}
}

// IsGPos reports whether t is a GPOS table.
func (t *LayoutTable) IsGPos() bool {
	return t != nil && t.Tag == T("GPOS")
}

// LayoutTableLookupFlag is a flag type for layout tables (GPOS and GSUB).
type LayoutTableLookupFlag uint16

// Lookup flags of layout tables (GPOS and GSUB)
const ( // LookupFlag bit enumeration
	// Note that the RIGHT_TO_LEFT flag is used only for GPOS type 3 lookups and is ignored
	// otherwise. It is not used by client software in determining text direction.
	LOOKUP_FLAG_RIGHT_TO_LEFT             LayoutTableLookupFlag = 0x0001
	LOOKUP_FLAG_IGNORE_BASE_GLYPHS        LayoutTableLookupFlag = 0x0002 // If set, skips over base glyphs
	LOOKUP_FLAG_IGNORE_LIGATURES          LayoutTableLookupFlag = 0x0004 // If set, skips over ligatures
	LOOKUP_FLAG_IGNORE_MARKS              LayoutTableLookupFlag = 0x0008 // If set, skips over all combining marks
	LOOKUP_FLAG_USE_MARK_FILTERING_SET    LayoutTableLookupFlag = 0x0010 // If set, indicates that the lookup table structure is followed by a MarkFilteringSet field.
	LOOKUP_FLAG_reserved                  LayoutTableLookupFlag = 0x00E0 // For future use (Set to zero)
	LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK LayoutTableLookupFlag = 0xFF00 // If not zero, skips over all marks of attachment type different from specified.
)

// LayoutTableLookupType is a type identifier for layout lookup records (GPOS and GSUB).
// Enum values are different for GPOS and GSUB. GPOS types are stored
// shifted into the upper byte, so both kinds may share one variable.
type LayoutTableLookupType uint16

// GSubLookupType returns the GSUB part of a lookup type.
func GSubLookupType(ltype LayoutTableLookupType) LayoutTableLookupType {
	return ltype & 0x00ff
}

// GPosLookupType returns the GPOS part of a lookup type.
func GPosLookupType(ltype LayoutTableLookupType) LayoutTableLookupType {
	return (ltype & 0xff00) >> 8
}

// MaskGPosLookupType shifts a GPOS lookup type into the GPOS range.
func MaskGPosLookupType(ltype LayoutTableLookupType) LayoutTableLookupType {
	return ltype << 8
}

// IsGPosLookupType reports whether ltype denotes a GPOS lookup.
func IsGPosLookupType(ltype LayoutTableLookupType) bool {
	return ltype&0xff00 > 0
}

func (lt LayoutTableLookupType) String() string {
	if IsGPosLookupType(lt) {
		return "GPOS/" + GPosLookupType(lt).GPosString()
	}
	return "GSUB/" + lt.GSubString()
}

// parseLayoutTable parses the header, script list, feature list and
// lookup list of a GSUB or GPOS table. Problems confined to single lookup
// subtables are recorded in ec and do not fail the table.
func parseLayoutTable(t *Table, ec *errorCollector) (*LayoutTable, error) {
	isGPos := t.Tag == T("GPOS")
	p := NewParser(t.data, t.Offset)
	lt := &LayoutTable{Tag: t.Tag, Major: p.U16(), Minor: p.U16()}
	scriptOffset, featureOffset, lookupOffset := int(p.U16()), int(p.U16()), int(p.U16())
	if lt.Minor == 1 {
		p.Skip(4) // FeatureVariations are not supported
	}
	if p.Err() != nil || lt.Major != 1 || lt.Minor > 1 {
		return nil, ec.critical(t.Tag, "Header", t.Offset, ErrUnsupportedFormat,
			"layout table version %d.%d not supported", lt.Major, lt.Minor)
	}
	ll, err := parseLookupList(p.Sub(lookupOffset), isGPos, t.Tag, ec)
	if err != nil {
		return nil, ec.critical(t.Tag, "LookupList", t.Offset+uint32(lookupOffset), ErrTableFormat, "%v", err)
	}
	lt.LookupList = ll
	for _, l := range ll.lookups {
		lt.Requirements.AddFromLookupFlag(l.Flag)
	}
	lt.FeatureList, err = parseFeatureList(p.Sub(featureOffset), ll.Len())
	if err != nil {
		return nil, ec.critical(t.Tag, "FeatureList", t.Offset+uint32(featureOffset), ErrTableFormat, "%v", err)
	}
	lt.ScriptList, err = parseScriptList(p.Sub(scriptOffset), lt.FeatureList)
	if err != nil {
		return nil, ec.critical(t.Tag, "ScriptList", t.Offset+uint32(scriptOffset), ErrTableFormat, "%v", err)
	}
	tracer().Debugf("%s has %d scripts, %d features, %d lookups", t.Tag,
		lt.ScriptList.Len(), lt.FeatureList.Len(), ll.Len())
	return lt, nil
}

// --- GDEF table ------------------------------------------------------------

// GDefTable, the Glyph Definition (GDEF) table, provides various glyph properties
// used in OpenType Layout processing.
//
// See also
// https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#class-definition-table
type GDefTable struct {
	Major, Minor           uint16
	GlyphClassDef          ClassDefinitions
	MarkAttachmentClassDef ClassDefinitions
	MarkGlyphSets          []Coverage
}

// Sections of a GDEF table.
const (
	GDefGlyphClassDefSection    = "GlyphClassDef"
	GDefMarkAttachClassSection  = "MarkAttachClassDef"
	GDefMarkGlyphSetsDefSection = "MarkGlyphSetsDef"
)

// GlyphClass returns the GDEF class of a glyph, or 0 if undefined.
func (t *GDefTable) GlyphClass(g GlyphIndex) GlyphClassDefEnum {
	if t == nil {
		return 0
	}
	return GlyphClassDefEnum(t.GlyphClassDef.Class(g))
}

func parseGDef(t *Table, ec *errorCollector) (*GDefTable, error) {
	p := NewParser(t.data, t.Offset)
	gdef := &GDefTable{Major: p.U16(), Minor: p.U16()}
	classDefOffset := int(p.U16())
	p.Skip(4) // attachList, ligCaretList
	markAttachOffset := int(p.U16())
	var markSetsOffset int
	if gdef.Minor >= 2 {
		markSetsOffset = int(p.U16())
	}
	if p.Err() != nil || gdef.Major != 1 {
		ec.major(t.Tag, "Header", t.Offset, ErrUnsupportedFormat, "GDEF version %d.%d", gdef.Major, gdef.Minor)
		return nil, nil
	}
	var err error
	if classDefOffset != 0 {
		if gdef.GlyphClassDef, err = parseClassDef(p.Sub(classDefOffset)); err != nil {
			ec.major(t.Tag, GDefGlyphClassDefSection, t.Offset+uint32(classDefOffset), ErrTableFormat, "%v", err)
		}
	}
	if markAttachOffset != 0 {
		if gdef.MarkAttachmentClassDef, err = parseClassDef(p.Sub(markAttachOffset)); err != nil {
			ec.major(t.Tag, GDefMarkAttachClassSection, t.Offset+uint32(markAttachOffset), ErrTableFormat, "%v", err)
		}
	}
	if markSetsOffset != 0 {
		mp := p.Sub(markSetsOffset)
		mp.Skip(2) // format
		n := int(mp.U16())
		for i := 0; i < n && mp.Err() == nil; i++ {
			off := int(mp.U32())
			cov, err := parseCoverage(mp.Sub(off))
			if err != nil {
				ec.major(t.Tag, GDefMarkGlyphSetsDefSection, mp.Absolute(), ErrTableFormat, "mark glyph set %d: %v", i, err)
				break
			}
			gdef.MarkGlyphSets = append(gdef.MarkGlyphSets, cov)
		}
	}
	return gdef, nil
}

// --- Sequence lookup records -----------------------------------------------

// SequenceLookupRecord identifies a nested lookup to apply at a position
// within a matched input sequence.
type SequenceLookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

func readSequenceLookupRecords(p *Parser, n int, lookupCount int) ([]SequenceLookupRecord, error) {
	recs := make([]SequenceLookupRecord, n)
	for i := range recs {
		recs[i] = SequenceLookupRecord{SequenceIndex: p.U16(), LookupListIndex: p.U16()}
		if int(recs[i].LookupListIndex) >= lookupCount {
			return nil, fmt.Errorf("sequence lookup record references lookup %d of %d",
				recs[i].LookupListIndex, lookupCount)
		}
	}
	return recs, p.Err()
}
