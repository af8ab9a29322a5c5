package otquery

import (
	"math"

	"github.com/npillmayer/fontshape/ot"
	"golang.org/x/image/font/sfnt"
)

// --- Font Information -------------------------------------------------

// FontType returns the outline flavor of a font, either "TrueType" or "CFF".
func FontType(otf *ot.Font) string {
	if otf == nil {
		return ""
	}
	return otf.Header.Flavor.String()
}

// LayoutTables returns the tags of the OpenType layout tables present in a
// font.
func LayoutTables(otf *ot.Font) []string {
	var tags []string
	if otf == nil {
		return tags
	}
	if otf.Layout.GDef != nil {
		tags = append(tags, "GDEF")
	}
	if otf.Layout.GSub != nil {
		tags = append(tags, "GSUB")
	}
	if otf.Layout.GPos != nil {
		tags = append(tags, "GPOS")
	}
	return tags
}

// FontSupportsScript returns a tuple (script-tag, language-tag) for a given input
// of a script tag and a language tag. If the language has no special support in the
// font, DFLT will be returned. If the script has no support in the font,
// DFLT will be returned for the script.
func FontSupportsScript(otf *ot.Font, scr ot.Tag, lang ot.Tag) (ot.Tag, ot.Tag) {
	if otf == nil {
		return 0, 0
	}
	gsub := otf.Layout.GSub
	if gsub == nil || gsub.ScriptList == nil {
		return ot.DFLT, ot.DFLT
	}
	script := gsub.ScriptList.Script(scr)
	if script == nil {
		tracer().Infof("cannot find script %s in font", scr.String())
		return ot.DFLT, ot.DFLT
	}
	tracer().Debugf("script %s is contained in GSUB", scr.String())
	if script.LangSys(lang) != nil {
		return scr, lang
	}
	return scr, ot.DFLT
}

// FontMetrics retrieves selected metrics of a font.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if hhea := otf.HHea; hhea != nil {
		metrics.Ascent = sfnt.Units(hhea.Ascender)
		metrics.Descent = sfnt.Units(hhea.Descender)
		metrics.LineGap = sfnt.Units(hhea.LineGap)
		metrics.MaxAdvance = sfnt.Units(hhea.AdvanceWidthMax)
	}
	if metrics.Ascent == 0 && metrics.Descent == 0 {
		if os2 := otf.OS2; os2 != nil {
			tracer().Debugf("OS/2")
			a := sfnt.Units(os2.TypoAscender)
			if a > metrics.Ascent {
				tracer().Debugf("override of ascent: %d -> %d", metrics.Ascent, a)
				metrics.Ascent = a
			}
			d := sfnt.Units(os2.TypoDescender)
			if d < metrics.Descent {
				tracer().Debugf("override of descent: %d -> %d", metrics.Descent, d)
				metrics.Descent = d
			}
			if metrics.LineGap == 0 {
				metrics.LineGap = sfnt.Units(os2.TypoLineGap)
			}
		}
	}
	metrics.UnitsPerEm = sfnt.Units(otf.UnitsPerEm()) // head is a required table
	return metrics
}

// --- Glyph Routines --------------------------------------------------------

// GlyphIndex returns the glyph index for a give code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	if otf == nil {
		return 0
	}
	return otf.GlyphIndex(codepoint)
}

// CodePointForGlyph returns the code-point for a given glyph index.
//
// If more than one code-point maps to the glyph, the smallest one is returned.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 || otf == nil {
		return 0
	}
	if g := otf.Glyph(gid); g != nil && len(g.Unicodes) > 0 {
		return g.Unicodes[0]
	}
	return 0
}

// GlyphName returns the name of a glyph from table post or the CFF
// charset, or "" if the font does not name it.
func GlyphName(otf *ot.Font, gid ot.GlyphIndex) string {
	if otf == nil {
		return ""
	}
	if g := otf.Glyph(gid); g != nil {
		return g.Name.Or("")
	}
	return ""
}

// GlyphClass returns the GDEF class of a glyph, or 0 if undefined.
func GlyphClass(otf *ot.Font, gid ot.GlyphIndex) ot.GlyphClassDefEnum {
	if otf == nil {
		return 0
	}
	return otf.Layout.GDef.GlyphClass(gid)
}

// GlyphMetrics retrieves metrics for a given glyph.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	if otf == nil {
		return metrics
	}
	//
	// table HMtx: advance width and left side bearing
	if aw, lsb, ok := otf.HMtx.HMetrics(gid); ok {
		metrics.Advance = sfnt.Units(aw)
		metrics.LSB = sfnt.Units(lsb)
	}
	//
	// bounding box from the outline, for TrueType and CFF alike
	if path, err := otf.GlyphPath(gid); err == nil && path != nil && path.Len() > 0 {
		xmin, ymin, xmax, ymax := path.BoundingBox()
		metrics.BBox = BoundingBox{
			MinX: sfnt.Units(math.Floor(xmin)),
			MinY: sfnt.Units(math.Floor(ymin)),
			MaxX: sfnt.Units(math.Ceil(xmax)),
			MaxY: sfnt.Units(math.Ceil(ymax)),
		}
	}
	// RSB calculation: rsb = aw - (lsb + xMax - xMin)
	// From the OpenType specification:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.IsEmpty() { // leave RSB for empty bboxes
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics
}
