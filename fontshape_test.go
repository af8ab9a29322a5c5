package fontshape

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/sfnt"
)

func TestParseMinimalFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	data := fonttest.TrueType{
		UnitsPerEm: 2048,
		Glyphs:     [][]byte{fonttest.Square(0, 0, 10), fonttest.Square(10, 10, 100)},
		CMap:       map[rune]uint16{'A': 1},
		Family:     "Minimal",
	}.Build()
	otf, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 2, otf.NumGlyphs())
	assert.Equal(t, uint16(2048), otf.UnitsPerEm())
	assert.Equal(t, ".notdef", otf.Glyph(0).Name.Or(""))
	family, subfamily := FamilyName(otf)
	assert.Equal(t, "Minimal", family)
	assert.Equal(t, "Regular", subfamily)
	//
	_, err = Parse(data[:20])
	assert.Error(t, err)
}

func ligatureFont(t *testing.T) *ot.Font {
	t.Helper()
	glyphs := make([][]byte, 6)
	for i := range glyphs {
		glyphs[i] = fonttest.Square(0, 0, 100)
	}
	gsub := fonttest.Layout{
		Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}}},
		Features: []fonttest.Feature{{Tag: "liga", Lookups: []uint16{0}}},
		Lookups: []fonttest.Lookup{{Type: 4, Subtables: [][]byte{fonttest.LigatureSubst(
			map[uint16][]fonttest.Ligature{1: {{Components: []uint16{2}, Glyph: 5}}},
		)}}},
	}.Build()
	otf, err := Parse(fonttest.TrueType{
		Glyphs:   glyphs,
		Advances: []uint16{500, 300, 250, 550, 250, 520},
		CMap:     map[rune]uint16{'f': 1, 'i': 2, 'o': 3, ' ': 4},
		Extra: map[string][]byte{
			"GSUB": gsub,
			"kern": fonttest.Kern(map[[2]uint16]int16{{5, 3}: -20}),
		},
	}.Build())
	require.NoError(t, err)
	return otf
}

func TestShapeLatinLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := ligatureFont(t)
	text := "fio"
	positions, err := ShapeLatinText(otf, text)
	require.NoError(t, err)
	require.Len(t, positions, len(text)-1)
	assert.Equal(t, ot.GlyphIndex(5), positions[0].Glyph)
	assert.Equal(t, ot.GlyphIndex(3), positions[1].Glyph)
	assert.Equal(t, sfnt.Units(-20), positions[0].Kern)
	assert.Equal(t, sfnt.Units(500), positions[1].X)
}

func TestShapeWithDefaultShaper(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := ligatureFont(t)
	st, err := Shape(otf, "fi fi", otshape.Options{})
	require.NoError(t, err)
	assert.Equal(t, []ot.GlyphIndex{5, 4, 5}, st.GlyphIDs())
	assert.Equal(t, sfnt.Units(520+250+520), st.Advance)
	assert.Equal(t, ot.DFLT, st.ScriptTag)
	assert.Same(t, DefaultShaper(), DefaultShaper())
	//
	_, err = Shape(nil, "fi", otshape.Options{})
	assert.ErrorIs(t, err, otshape.ErrNilFont)
	positions, err := ShapeLatinText(nil, "fi")
	assert.NoError(t, err)
	assert.Nil(t, positions)
}
