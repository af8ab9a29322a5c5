package fontshape

import (
	"sync"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otquery"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/fontshape/otshape/otarabic"
	"github.com/npillmayer/fontshape/otshape/otlatin"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/language"
)

// Parse decodes raw OpenType bytes (sfnt, OTTO or WOFF) and returns a font.
//
// The input must not change after parsing for the font to be usable.
func Parse(data []byte, opts ...ot.ParseOption) (*ot.Font, error) {
	otf, err := ot.Parse(data, opts...)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("parsed %s font with %d glyphs", otf.Header.Flavor, otf.NumGlyphs())
	return otf, nil
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded by the current name-table reader.
func FamilyName(f *ot.Font) (family, subfamily string) {
	for nameId, stringValue := range otquery.NamesRange(f) {
		switch nameId {
		case sfnt.NameIDFamily:
			if family == "" {
				family = stringValue
			}
		case sfnt.NameIDSubfamily:
			if subfamily == "" {
				subfamily = stringValue
			}
		}
	}
	return
}

var (
	defaultShaperOnce sync.Once
	defaultShaper     *otshape.Shaper
)

// DefaultShaper returns a shaper with the Arabic and the Latin engine. It is
// created on first use and shared between callers.
func DefaultShaper() *otshape.Shaper {
	defaultShaperOnce.Do(func() {
		defaultShaper = otshape.NewShaper(otarabic.New(), otlatin.New())
	})
	return defaultShaper
}

// ShapedText is the result of shaping a piece of text.
type ShapedText struct {
	Glyphs    []otquery.GlyphPosition // in presentation order
	Advance   sfnt.Units              // total advance in font units
	ScriptTag ot.Tag                  // OpenType script used for kerning
}

// GlyphIDs returns the glyph indices of the shaped text.
func (st ShapedText) GlyphIDs() []ot.GlyphIndex {
	ids := make([]ot.GlyphIndex, len(st.Glyphs))
	for i, g := range st.Glyphs {
		ids[i] = g.Glyph
	}
	return ids
}

// Shape shapes UTF-8 text with the default shaper and places the glyphs,
// applying kerning. A zero opts.Script lets the engines detect Latin and
// Arabic parts of the text; kerning then uses script 'DFLT'.
func Shape(otf *ot.Font, text string, opts otshape.Options) (ShapedText, error) {
	glyphs, err := DefaultShaper().Shape(otf, text, opts)
	if err != nil {
		return ShapedText{}, err
	}
	st := ShapedText{ScriptTag: ot.DFLT}
	var zero language.Script
	if opts.Script != zero {
		st.ScriptTag = otshape.ScriptTagForScript(opts.Script)
	}
	st.Glyphs, st.Advance = otquery.Advances(otf, st.ScriptTag, glyphs)
	return st, nil
}

// ShapeLatinText shapes UTF-8 text as one left-to-right run in “Latin” (i.e.,
// Western) script and language English.
//
// This is a convenience API for a very common use-case of short pieces of Western
// text. It returns the glyph positions in output order. If `otf` is nil or
// `text` is empty, it does nothing.
func ShapeLatinText(otf *ot.Font, text string) ([]otquery.GlyphPosition, error) {
	if otf == nil || text == "" {
		return nil, nil
	}
	st, err := Shape(otf, text, otshape.Options{
		Script:   language.MustParseScript("Latn"),
		Language: language.English,
	})
	return st.Glyphs, err
}
