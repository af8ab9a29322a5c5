package otlatin

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

const (
	gF     = 1
	gI     = 2
	gL     = 3
	gFI    = 4
	gFFI   = 5
	gSpace = 6
)

func latinFont(t *testing.T) *ot.Font {
	t.Helper()
	glyphs := make([][]byte, 7)
	for i := range glyphs {
		glyphs[i] = fonttest.Square(0, 0, 100)
	}
	gsub := fonttest.Layout{
		Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}}},
		Features: []fonttest.Feature{{Tag: "liga", Lookups: []uint16{0}}},
		Lookups: []fonttest.Lookup{{Type: 4, Subtables: [][]byte{fonttest.LigatureSubst(
			map[uint16][]fonttest.Ligature{gF: {
				{Components: []uint16{gF, gI}, Glyph: gFFI},
				{Components: []uint16{gI}, Glyph: gFI},
			}},
		)}}},
	}.Build()
	otf, err := ot.Parse(fonttest.TrueType{
		Glyphs: glyphs,
		CMap:   map[rune]uint16{'f': gF, 'i': gI, 'l': gL, ' ': gSpace},
		Extra:  map[string][]byte{"GSUB": gsub},
	}.Build())
	require.NoError(t, err)
	return otf
}

func TestLatinLigatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := latinFont(t)
	shaper := otshape.NewShaper(New())
	opts := otshape.Options{Script: language.MustParseScript("Latn")}
	glyphs, err := shaper.Shape(otf, "ffi fil", opts)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{gFFI, gSpace, gFI, gL}, glyphs)
	//
	opts.Features = map[ot.Tag]bool{tagLiga: false}
	glyphs, err = shaper.Shape(otf, "fi", opts)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{gF, gI}, glyphs)
}

func TestLatinWordContext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	tz := otshape.Tokenize("Stra\u00dfe, na\u00efve e\u0301t 12")
	for _, c := range New().Contexts() {
		require.NoError(t, tz.RegisterContext(c))
	}
	tz.UpdateContexts()
	assert.Equal(t, []otshape.Range{
		{Context: LatinWord, Start: 0, End: 6},
		{Context: LatinWord, Start: 8, End: 13},
		{Context: LatinWord, Start: 14, End: 17}, // combining mark continues the word
	}, tz.Ranges(LatinWord))
}

func TestLatinMatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	e := New()
	assert.Equal(t, "latin", e.Name())
	assert.Equal(t, otshape.ShaperConfidenceHigh, e.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Latn"),
	}))
	assert.Equal(t, otshape.ShaperConfidenceMedium, e.Match(otshape.SelectionContext{}))
	assert.Equal(t, otshape.ShaperConfidenceLow, e.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Cyrl"),
	}))
	assert.Equal(t, otshape.ShaperConfidenceNone, e.Match(otshape.SelectionContext{
		Script:    language.MustParseScript("Arab"),
		Direction: bidi.RightToLeft,
	}))
	assert.True(t, IsLatinChar('ß'))
	assert.False(t, IsLatinChar('1'))
}
