package otshape_test

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/fontshape/otshape/otarabic"
	"github.com/npillmayer/fontshape/otshape/otlatin"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const (
	gF ot.GlyphIndex = iota + 1
	gI
	gL
	gFI
	gSpace
	gBeh
	gBehInit
	gBehFina
	gE
	gAcute
	glyphCount
)

// shapingFont has a ligature 'fi' for latn and positional forms of beh for
// arab.
func shapingFont(t *testing.T) *ot.Font {
	t.Helper()
	gsub := fonttest.Layout{
		Scripts: []fonttest.Script{
			{Tag: "arab", Features: []uint16{1, 2}},
			{Tag: "latn", Features: []uint16{0}},
		},
		Features: []fonttest.Feature{
			{Tag: "liga", Lookups: []uint16{0}},
			{Tag: "init", Lookups: []uint16{1}},
			{Tag: "fina", Lookups: []uint16{2}},
		},
		Lookups: []fonttest.Lookup{
			{Type: 4, Subtables: [][]byte{fonttest.LigatureSubst(map[uint16][]fonttest.Ligature{
				uint16(gF): {{Components: []uint16{uint16(gI)}, Glyph: uint16(gFI)}},
			})}},
			{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(int16(gBehInit - gBeh), uint16(gBeh))}},
			{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(int16(gBehFina - gBeh), uint16(gBeh))}},
		},
	}.Build()
	glyphs := make([][]byte, glyphCount)
	for i := range glyphs {
		glyphs[i] = fonttest.Square(0, 0, 100)
	}
	cmap := map[rune]uint16{
		'f': uint16(gF), 'i': uint16(gI), 'l': uint16(gL), ' ': uint16(gSpace),
		'ب': uint16(gBeh), 'e': uint16(gE), '\u0301': uint16(gAcute),
	}
	otf, err := ot.Parse(fonttest.TrueType{Glyphs: glyphs, CMap: cmap, Extra: map[string][]byte{"GSUB": gsub}}.Build())
	require.NoError(t, err)
	return otf
}

func TestShapeLatinLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	shaper := otshape.NewShaper(otlatin.New())
	text := "fil"
	glyphs, err := shaper.Shape(otf, text, otshape.Options{Script: language.MustParseScript("Latn")})
	require.NoError(t, err)
	assert.Len(t, glyphs, len(text)-1)
	assert.Equal(t, []ot.GlyphIndex{gFI, gL}, glyphs)
}

func TestShapeLigatureOnlyWithinWords(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	glyphs, err := otshape.NewShaper(otlatin.New()).Shape(otf, "f i", otshape.Options{})
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{gF, gSpace, gI}, glyphs)
}

func TestShapeFeatureSwitchedOff(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	opts := otshape.Options{Features: map[ot.Tag]bool{ot.T("liga"): false}}
	glyphs, err := otshape.NewShaper(otlatin.New()).Shape(otf, "fil", opts)
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{gF, gI, gL}, glyphs)
}

func TestShapeMixedScripts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	shaper := otshape.NewShaper(otarabic.New(), otlatin.New())
	tz, err := shaper.Tokenize(otf, "fi بب", otshape.Options{})
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{gFI, gSpace, gBehFina, gBehInit}, tz.Glyphs())
	assert.Len(t, tz.Ranges(otlatin.LatinWord), 1)
	assert.Len(t, tz.Ranges(otarabic.ArabicWord), 1)
	assert.True(t, tz.Token(0).HasFeature(ot.T("liga")))
}

func TestShapeDecomposesMissingCharacters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	glyphs, err := otshape.NewShaper(otlatin.New()).Shape(otf, "\u00e9", otshape.Options{})
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{gE, gAcute}, glyphs)
}

func TestShapeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	_, err := otshape.NewShaper(nil).Shape(otf, "fi", otshape.Options{})
	assert.ErrorIs(t, err, otshape.ErrNoShaper)
	_, err = otshape.NewShaper(otlatin.New()).Shape(nil, "fi", otshape.Options{})
	assert.ErrorIs(t, err, otshape.ErrNilFont)
	_, err = otshape.NewShaper(otarabic.New()).Shape(otf, "fi", otshape.Options{
		Script: language.MustParseScript("Latn"),
	})
	assert.ErrorIs(t, err, otshape.ErrNoMatchingShaper)
}

func TestShaperIsReusable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	otf := shapingFont(t)
	shaper := otshape.NewShaper(otlatin.New())
	done := make(chan []ot.GlyphIndex)
	for range 4 {
		go func() {
			glyphs, _ := shaper.Shape(otf, "fi fi", otshape.Options{})
			done <- glyphs
		}()
	}
	for range 4 {
		assert.Equal(t, []ot.GlyphIndex{gFI, gSpace, gFI}, <-done)
	}
}
