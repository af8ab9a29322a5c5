package ot

import (
	"sort"
)

// Font represents the decoded tables of an OpenType font.
//
// A Font owns all of its tables. Tables are decoded once, during Parse, and
// are immutable thereafter. Glyph outlines are the exception: they are
// decoded lazily on first access and cached per glyph.
type Font struct {
	Header        FontHeader       // container information
	tables        map[Tag]*Table   // raw table data, decompressed if necessary
	Head          *HeadTable       // font header, mandatory
	HHea          *HHeaTable       // horizontal layout header, mandatory
	MaxP          *MaxPTable       // glyph count, mandatory
	HMtx          *HMtxTable       // horizontal metrics, mandatory
	CMap          *CMapTable       // character mapping; may be nil for CFF fonts with built-in encoding
	Name          *NameTable       // naming table
	OS2           *OS2Table        // OS/2 metrics
	Post          *PostTable       // PostScript information
	Loca          *LocaTable       // glyph locations, TrueType only
	Kern          *KernTable       // legacy kerning
	Meta          *MetaTable       // metadata
	LTag          *LTagTable       // language tags
	FVar          *FVarTable       // font variation axes and instances; exposed only
	CFF           *CFFTable        // CFF outlines, CFF flavor only
	glyf          binarySegm       // TrueType outlines, TrueType flavor only
	Encoding      Encoding         // active character-to-glyph strategy
	parseErrors   []FontError      // Errors accumulated during parsing
	parseWarnings []FontWarning    // Warnings accumulated during parsing
	glyphs        *GlyphSet        // lazily decoded glyphs
	Layout        struct {         // OpenType core layout tables
		GSub *LayoutTable // OpenType layout GSUB
		GPos *LayoutTable // OpenType layout GPOS
		GDef *GDefTable   // OpenType layout GDEF
	}
}

// ParseOption guides and influences the parsing of the font.
type ParseOption int

const (
	IsTestfont    ParseOption = iota // relaxes a number of completeness checks
	WithoutLayout                    // do not decode GSUB, GPOS and GDEF
)

func hasOption(opts []ParseOption, opt ParseOption) bool {
	for _, o := range opts {
		if o == opt {
			return true
		}
	}
	return false
}

// OutlineFlavor denotes the kind of glyph outlines contained in a font.
type OutlineFlavor int

const (
	TrueTypeOutlines OutlineFlavor = iota // quadratic contours in table glyf
	CFFOutlines                           // Type 2 charstrings in table 'CFF '
)

func (f OutlineFlavor) String() string {
	if f == CFFOutlines {
		return "CFF"
	}
	return "TrueType"
}

// ContainerType denotes the file format wrapping the font tables.
type ContainerType int

const (
	SFNTContainer ContainerType = iota // plain sfnt
	WOFFContainer                      // WOFF 1.0 with per-table zlib compression
)

func (c ContainerType) String() string {
	if c == WOFFContainer {
		return "WOFF"
	}
	return "SFNT"
}

// FontHeader collects information about the container of the font tables.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the font type. OpenType fonts containing CFF data use 'OTTO'.
// The Apple specification for TrueType fonts allows for 'true' and 'typ1',
// but these version tags should not be used for OpenType fonts.
type FontHeader struct {
	FontType   uint32        // signature of the sfnt (inner flavor for WOFF)
	TableCount uint16        // number of tables
	Container  ContainerType // sfnt or WOFF
	Flavor     OutlineFlavor // TrueType or CFF outlines
}

// UnitsPerEm returns the design units per em, from table head.
func (otf *Font) UnitsPerEm() uint16 {
	return otf.Head.UnitsPerEm
}

// Ascender returns the typographic ascender, from table hhea.
func (otf *Font) Ascender() int16 {
	return otf.HHea.Ascender
}

// Descender returns the typographic descender, from table hhea.
func (otf *Font) Descender() int16 {
	return otf.HHea.Descender
}

// NumGlyphs returns the number of glyphs in the font.
func (otf *Font) NumGlyphs() int {
	return otf.MaxP.NumGlyphs
}

// Table returns the raw font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// Table tag names are case-sensitive, following the names in the OpenType specification,
// e.g. "OS/2" or "CFF ".
func (otf *Font) Table(tag Tag) *Table {
	return otf.tables[tag]
}

// TableTags returns a sorted list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// GlyphIndex maps a code point to a glyph by the font's active encoding.
// 0 (notdef) is returned for unmapped code points.
func (otf *Font) GlyphIndex(r rune) GlyphIndex {
	if otf.Encoding == nil {
		return 0
	}
	return otf.Encoding.Lookup(r)
}

// Glyph returns the glyph record for glyph gid, or nil if gid is out of range.
func (otf *Font) Glyph(gid GlyphIndex) *Glyph {
	return otf.glyphs.Get(gid)
}

// GlyphPath returns the outline of glyph gid, decoding it on first access.
func (otf *Font) GlyphPath(gid GlyphIndex) (*Path, error) {
	g := otf.glyphs.Get(gid)
	if g == nil {
		return nil, glyphError(0, "Glyph", gid, ErrGlyphOutline, "glyph index out of range")
	}
	return g.Path()
}

// Advance returns the advance width of glyph gid in font units.
func (otf *Font) Advance(gid GlyphIndex) int {
	a, _, _ := otf.HMtx.HMetrics(gid)
	return int(a)
}

// Errors returns all errors encountered during font parsing.
// These errors represent issues that were found but did not prevent parsing from completing.
// Clients can inspect these errors to determine if the font is suitable for their use case.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
// Warnings indicate potential issues that are generally safe to ignore.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// CriticalErrors returns all errors with critical severity.
func (otf *Font) CriticalErrors() []FontError {
	critical := make([]FontError, 0)
	for _, err := range otf.parseErrors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the OpenType format as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// DFLT is the default script (or language) tag.
var DFLT = T("DFLT")

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table is the raw binary data of one font table, as located by the
// container's table directory. For WOFF containers, Data is the decompressed
// table.
type Table struct {
	Tag        Tag
	Offset     uint32 // offset within the font file
	Length     uint32 // size of the (decompressed) table in bytes
	Compressed bool   // table was zlib-compressed in a WOFF container
	data       binarySegm
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it may be a view into the original data.
func (t *Table) Binary() []byte {
	if t == nil {
		return nil
	}
	return t.data
}
