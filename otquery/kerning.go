package otquery

import (
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otlayout"
	"golang.org/x/image/font/sfnt"
)

var tagKern = ot.T("kern")

// Kerner finds kerning values for glyph pairs. It prefers the 'kern' feature
// of table GPOS and falls back to the legacy kern table.
type Kerner struct {
	otf  *ot.Font
	feat otlayout.Feature
}

// NewKerner creates a kerner for a script and language. If GPOS has
// no 'kern' feature for the script, the kern table is used.
func NewKerner(otf *ot.Font, script, lang ot.Tag) *Kerner {
	k := &Kerner{otf: otf}
	if otf != nil {
		k.feat = otlayout.NewFeatureQuery(otf).GPosFeature(script, lang, tagKern)
	}
	if k.feat == nil {
		tracer().Debugf("no GPOS kerning for script %s, using kern table", script)
	}
	return k
}

// Kern returns the adjustment to the advance of left when followed by
// right.
func (k *Kerner) Kern(left, right ot.GlyphIndex) sfnt.Units {
	if k == nil || k.otf == nil {
		return 0
	}
	if k.feat != nil {
		if v, ok := otlayout.KerningAt(k.otf, k.feat, left, right); ok {
			return sfnt.Units(v)
		}
		return 0
	}
	if v, ok := k.otf.Kern.Kerning(left, right); ok {
		return sfnt.Units(v)
	}
	return 0
}

// Kerning returns the kerning of a glyph pair for a script.
func Kerning(otf *ot.Font, script ot.Tag, left, right ot.GlyphIndex) sfnt.Units {
	return NewKerner(otf, script, 0).Kern(left, right)
}

// Advances places a run of glyphs horizontally, accumulating their advance
// widths and the kerning between neighbours. It returns the positions and
// the total advance of the run.
func Advances(otf *ot.Font, script ot.Tag, glyphs []ot.GlyphIndex) ([]GlyphPosition, sfnt.Units) {
	positions := make([]GlyphPosition, len(glyphs))
	if otf == nil {
		return positions, 0
	}
	k := NewKerner(otf, script, 0)
	var x sfnt.Units
	for i, g := range glyphs {
		pos := GlyphPosition{Glyph: g, X: x, Advance: sfnt.Units(otf.Advance(g))}
		if i+1 < len(glyphs) {
			pos.Kern = k.Kern(g, glyphs[i+1])
			pos.Advance += pos.Kern
		}
		positions[i] = pos
		x += pos.Advance
	}
	return positions, x
}
