package ot

import "fmt"

// --- Head table ------------------------------------------------------------

// HeadTable gives global information about the font.
type HeadTable struct {
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       float64
	Flags              uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm         uint16 // values 16 … 16384 are valid
	Created            int64  // seconds since 12:00 midnight, January 1, 1904
	Modified           int64
	XMin, YMin         int16 // bounding box for all glyphs
	XMax, YMax         int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	IndexToLocFormat   int16 // needed to interpret loca table: 0 for short offsets, 1 for long
	GlyphDataFormat    int16
	magicNumberMatches bool
}

func parseHead(t *Table, ec *errorCollector) (*HeadTable, error) {
	if t.Length < 54 {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat,
			"head table too small: %d bytes (need 54)", t.Length)
	}
	p := NewParser(t.data, t.Offset)
	h := &HeadTable{}
	h.MajorVersion = p.U16()
	h.MinorVersion = p.U16()
	h.FontRevision = p.Fixed()
	p.Skip(4) // checksumAdjustment
	h.magicNumberMatches = p.U32() == 0x5F0F3CF5
	h.Flags = p.U16()
	h.UnitsPerEm = p.U16()
	h.Created = p.LongDateTime()
	h.Modified = p.LongDateTime()
	h.XMin, h.YMin, h.XMax, h.YMax = p.I16(), p.I16(), p.I16(), p.I16()
	h.MacStyle = p.U16()
	h.LowestRecPPEM = p.U16()
	p.Skip(2) // fontDirectionHint, deprecated
	h.IndexToLocFormat = p.I16()
	h.GlyphDataFormat = p.I16()
	if p.Err() != nil {
		return nil, ec.critical(t.Tag, "Header", t.Offset, ErrTableFormat, "%v", p.Err())
	}
	if !h.magicNumberMatches {
		ec.addWarning(t.Tag, "magic number mismatch", t.Offset+12)
	}
	if h.UnitsPerEm < 16 || h.UnitsPerEm > 16384 {
		ec.major(t.Tag, "UnitsPerEm", t.Offset+18, ErrTableFormat, "unitsPerEm out of range: %d", h.UnitsPerEm)
	}
	return h, nil
}

// --- HHea table ------------------------------------------------------------

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	NumberOfHMetrics    int
}

func parseHHea(t *Table, ec *errorCollector) (*HHeaTable, error) {
	tracer().Debugf("HHea table has size %d", t.Length)
	if t.Length < 36 {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat,
			"hhea table too small: %d bytes (need 36)", t.Length)
	}
	p := NewParser(t.data, t.Offset)
	p.Skip(4) // version
	h := &HHeaTable{
		Ascender:            p.I16(),
		Descender:           p.I16(),
		LineGap:             p.I16(),
		AdvanceWidthMax:     p.U16(),
		MinLeftSideBearing:  p.I16(),
		MinRightSideBearing: p.I16(),
		XMaxExtent:          p.I16(),
		CaretSlopeRise:      p.I16(),
		CaretSlopeRun:       p.I16(),
		CaretOffset:         p.I16(),
	}
	p.Skip(10) // 4 reserved, metricDataFormat
	h.NumberOfHMetrics = int(p.U16())
	return h, p.Err()
}

// --- MaxP table ------------------------------------------------------------

// MaxPTable establishes the memory requirements for this font.
// Fonts with CFF data must use Version 0.5 of this table, specifying only the
// numGlyphs field. Fonts with TrueType outlines must use Version 1.0 of this
// table, where all data is required.
type MaxPTable struct {
	Version              uint32
	NumGlyphs            int
	MaxPoints            uint16 // version 1.0 only
	MaxContours          uint16
	MaxComponentElements uint16
	MaxComponentDepth    uint16
}

func parseMaxP(t *Table, ec *errorCollector) (*MaxPTable, error) {
	if t.Length < 6 {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat, "maxp table too small")
	}
	p := NewParser(t.data, t.Offset)
	m := &MaxPTable{Version: p.U32(), NumGlyphs: int(p.U16())}
	if m.Version == 0x00010000 && t.Length >= 32 {
		m.MaxPoints = p.U16()
		m.MaxContours = p.U16()
		p.Skip(4) // maxCompositePoints, maxCompositeContours
		p.Skip(14)
		m.MaxComponentElements = p.U16()
		m.MaxComponentDepth = p.U16()
	}
	return m, p.Err()
}

// --- HMtx table ------------------------------------------------------------

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table. In
// a monospaced font, only one entry is required but that entry may not be omitted.
// Optionally, an array of left side bearings follows.
// The corresponding glyphs are assumed to have the same
// advance width as that found in the last entry in the hMetrics array.
type HMtxTable struct {
	NumberOfHMetrics int
	numGlyphs        int
	longMetrics      []HMetricRecord
	leftSideBearings []int16
}

// HMetricRecord is one long horizontal metric record from table hmtx.
type HMetricRecord struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

func parseHMtx(t *Table, numGlyphs, numberOfHMetrics int, ec *errorCollector) (*HMtxTable, error) {
	if numberOfHMetrics < 1 || numberOfHMetrics > numGlyphs {
		return nil, ec.critical(T("hhea"), "NumberOfHMetrics", 0, ErrTableFormat,
			"invalid numberOfHMetrics %d (numGlyphs=%d)", numberOfHMetrics, numGlyphs)
	}
	required := numberOfHMetrics*4 + (numGlyphs-numberOfHMetrics)*2
	if required > int(t.Length) {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat,
			"hmtx table too small: need %d bytes, have %d", required, t.Length)
	}
	p := NewParser(t.data, t.Offset)
	hmtx := &HMtxTable{
		NumberOfHMetrics: numberOfHMetrics,
		numGlyphs:        numGlyphs,
		longMetrics:      make([]HMetricRecord, numberOfHMetrics),
		leftSideBearings: make([]int16, numGlyphs-numberOfHMetrics),
	}
	for i := range hmtx.longMetrics {
		hmtx.longMetrics[i] = HMetricRecord{AdvanceWidth: p.U16(), LeftSideBearing: p.I16()}
	}
	for i := range hmtx.leftSideBearings {
		hmtx.leftSideBearings[i] = p.I16()
	}
	return hmtx, p.Err()
}

// HMetrics returns the advance width and left side bearing for a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16, bool) {
	if t == nil || int(g) >= t.numGlyphs {
		return 0, 0, false
	}
	if int(g) < len(t.longMetrics) {
		m := t.longMetrics[int(g)]
		return m.AdvanceWidth, m.LeftSideBearing, true
	}
	i := int(g) - len(t.longMetrics)
	return t.longMetrics[len(t.longMetrics)-1].AdvanceWidth, t.leftSideBearings[i], true
}

// --- OS/2 table ------------------------------------------------------------

// OS2Table consists of a set of metrics and other data that are required in
// OpenType fonts. Fields beyond version 0 are zero for older versions.
type OS2Table struct {
	Version            uint16
	XAvgCharWidth      int16
	WeightClass        uint16
	WidthClass         uint16
	FsType             uint16
	UnicodeRange       [4]uint32
	VendorID           Tag
	FsSelection        uint16
	FirstCharIndex     uint16
	LastCharIndex      uint16
	TypoAscender       int16
	TypoDescender      int16
	TypoLineGap        int16
	WinAscent          uint16
	WinDescent         uint16
	CodePageRange      [2]uint32 // version ≥ 1
	XHeight            int16     // version ≥ 2
	CapHeight          int16
	DefaultChar        uint16
	BreakChar          uint16
	MaxContext         uint16
	LowerOpticalPoints uint16 // version 5
	UpperOpticalPoints uint16
}

func parseOS2(t *Table, ec *errorCollector) (*OS2Table, error) {
	if t.Length < 78 {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat,
			"OS/2 table too small: %d bytes", t.Length)
	}
	p := NewParser(t.data, t.Offset)
	os2 := &OS2Table{}
	os2.Version = p.U16()
	os2.XAvgCharWidth = p.I16()
	os2.WeightClass = p.U16()
	os2.WidthClass = p.U16()
	os2.FsType = p.U16()
	p.Skip(20) // sub/superscript/strikeout metrics
	p.Skip(2)  // sFamilyClass
	p.Skip(10) // panose
	for i := range os2.UnicodeRange {
		os2.UnicodeRange[i] = p.U32()
	}
	os2.VendorID = p.Tag()
	os2.FsSelection = p.U16()
	os2.FirstCharIndex = p.U16()
	os2.LastCharIndex = p.U16()
	os2.TypoAscender = p.I16()
	os2.TypoDescender = p.I16()
	os2.TypoLineGap = p.I16()
	os2.WinAscent = p.U16()
	os2.WinDescent = p.U16()
	if os2.Version >= 1 && p.Remaining() >= 8 {
		os2.CodePageRange[0], os2.CodePageRange[1] = p.U32(), p.U32()
	}
	if os2.Version >= 2 && p.Remaining() >= 10 {
		os2.XHeight = p.I16()
		os2.CapHeight = p.I16()
		os2.DefaultChar = p.U16()
		os2.BreakChar = p.U16()
		os2.MaxContext = p.U16()
	}
	if os2.Version >= 5 && p.Remaining() >= 4 {
		os2.LowerOpticalPoints = p.U16()
		os2.UpperOpticalPoints = p.U16()
	}
	return os2, p.Err()
}

// --- Loca table ------------------------------------------------------------

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the character
// that appears if a character is not found in the font.
type LocaTable struct {
	offsets []uint32 // numGlyphs+1 entries
}

func parseLoca(t *Table, numGlyphs int, format int16, ec *errorCollector) (*LocaTable, error) {
	var width int
	switch format {
	case 0:
		width = 2
	case 1:
		width = 4
	default:
		return nil, ec.critical(T("head"), "IndexToLocFormat", 0, ErrTableFormat,
			"invalid value: %d (must be 0 or 1)", format)
	}
	if (numGlyphs+1)*width > int(t.Length) {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat,
			"table size (%d) insufficient for %d glyphs", t.Length, numGlyphs)
	}
	p := NewParser(t.data, t.Offset)
	loca := &LocaTable{offsets: make([]uint32, numGlyphs+1)}
	for i := range loca.offsets {
		if width == 2 {
			loca.offsets[i] = uint32(p.U16()) * 2
		} else {
			loca.offsets[i] = p.U32()
		}
		if i > 0 && loca.offsets[i] < loca.offsets[i-1] {
			return nil, ec.critical(t.Tag, "Offsets", t.Offset, ErrTableFormat,
				"loca offsets not ascending at glyph %d", i)
		}
	}
	return loca, p.Err()
}

// Location returns the byte range of glyph gid in table glyf. An empty
// range denotes a glyph without outline.
func (t *LocaTable) Location(gid GlyphIndex) (uint32, uint32, error) {
	if int(gid)+1 >= len(t.offsets) {
		return 0, 0, fmt.Errorf("glyph %d not in loca", gid)
	}
	return t.offsets[gid], t.offsets[gid+1], nil
}

// --- Post table ------------------------------------------------------------

// PostTable contains additional information needed to use TrueType or OpenType
// fonts on PostScript printers, including glyph names.
type PostTable struct {
	Version            uint32
	ItalicAngle        float64
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       bool
	names              []string // glyph names, indexed by glyph ID; version 1 and 2 only
}

func parsePost(t *Table, numGlyphs int, ec *errorCollector) (*PostTable, error) {
	if t.Length < 32 {
		return nil, ec.critical(t.Tag, "Size", t.Offset, ErrTableFormat, "post table too small")
	}
	p := NewParser(t.data, t.Offset)
	post := &PostTable{}
	post.Version = p.U32()
	post.ItalicAngle = p.Fixed()
	post.UnderlinePosition = p.I16()
	post.UnderlineThickness = p.I16()
	post.IsFixedPitch = p.U32() != 0
	p.Skip(16) // memory usage hints
	switch post.Version {
	case 0x00010000:
		n := min(numGlyphs, len(macGlyphNames))
		post.names = append([]string(nil), macGlyphNames[:n]...)
	case 0x00020000:
		count := int(p.U16())
		indices := p.U16List(count)
		if p.Err() != nil {
			ec.major(t.Tag, "GlyphNames", t.Offset, ErrTableFormat, "glyph name index truncated")
			return post, nil
		}
		var custom []string
		for p.Remaining() > 0 {
			l := int(p.U8())
			custom = append(custom, p.String(l))
		}
		if p.Err() != nil {
			ec.major(t.Tag, "GlyphNames", t.Offset, ErrTableFormat, "glyph name strings truncated")
		}
		post.names = make([]string, min(count, numGlyphs))
		for i := range post.names {
			switch inx := int(indices[i]); {
			case inx < len(macGlyphNames):
				post.names[i] = macGlyphNames[inx]
			case inx-len(macGlyphNames) < len(custom):
				post.names[i] = custom[inx-len(macGlyphNames)]
			}
		}
	case 0x00025000:
		// deprecated: signed offsets into the standard Macintosh ordering
		post.names = make([]string, numGlyphs)
		for i := range post.names {
			off := int(p.I8())
			if inx := i + off; inx >= 0 && inx < len(macGlyphNames) {
				post.names[i] = macGlyphNames[inx]
			}
		}
		if p.Err() != nil {
			ec.major(t.Tag, "GlyphNames", t.Offset, ErrTableFormat, "glyph name offsets truncated")
			post.names = nil
		}
	}
	return post, nil
}

// GlyphName returns the name of a glyph, if the post table defines one.
func (t *PostTable) GlyphName(gid GlyphIndex) Option[string] {
	if t == nil || int(gid) >= len(t.names) || t.names[gid] == "" {
		return None[string]()
	}
	return Some(t.names[gid])
}
