package ot

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourGlyphFont() fonttest.TrueType {
	sq := fonttest.Square(0, 0, 100)
	return fonttest.TrueType{
		Glyphs: [][]byte{nil, sq, sq, sq},
		CMap:   map[rune]uint16{'A': 1},
	}
}

func TestCMapFormat12(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tt := fourGlyphFont()
	tt.Extra = map[string][]byte{"cmap": fonttest.CMap12(map[rune]uint16{
		'A': 1, 0x1F600: 2, 0x1F601: 3,
	})}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.CMap)
	assert.Equal(t, uint16(12), otf.CMap.Format)
	assert.Equal(t, uint16(3), otf.CMap.PlatformID)
	assert.Equal(t, uint16(10), otf.CMap.EncodingID)
	assert.Equal(t, GlyphIndex(1), otf.GlyphIndex('A'))
	assert.Equal(t, GlyphIndex(2), otf.GlyphIndex(0x1F600))
	assert.Equal(t, GlyphIndex(3), otf.GlyphIndex(0x1F601))
	assert.Equal(t, GlyphIndex(0), otf.GlyphIndex(0x1F602))
	assert.Equal(t, GlyphIndex(0), otf.GlyphIndex('B'))
	assert.Equal(t, []rune{0x1F601}, otf.Glyph(3).Unicodes)
}

func TestCMapFormat12GlyphOutOfRange(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tt := fourGlyphFont()
	tt.Extra = map[string][]byte{"cmap": fonttest.CMap12(map[rune]uint16{0x10000: 9})}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	assert.Equal(t, GlyphIndex(0), otf.GlyphIndex(0x10000))
}

func TestPostFormat2Names(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tt := fourGlyphFont()
	tt.Extra = map[string][]byte{"post": fonttest.PostIndexed(
		[]uint16{0, 36, 258, 300}, // .notdef, standard 'A', custom, dangling
		[]string{"f_i"},
	)}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.Post)
	assert.Equal(t, uint32(0x00020000), otf.Post.Version)
	assert.Equal(t, int16(-100), otf.Post.UnderlinePosition)
	for gid, want := range []string{".notdef", "A", "f_i"} {
		name, ok := otf.Glyph(GlyphIndex(gid)).Name.Unwrap()
		require.True(t, ok, "glyph %d", gid)
		assert.Equal(t, want, name, "glyph %d", gid)
	}
	assert.False(t, otf.Glyph(3).Name.IsSome())
}

func TestParseFVar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tt := fourGlyphFont()
	tt.Extra = map[string][]byte{"fvar": fonttest.FVar(
		[]fonttest.Axis{{Tag: "wght", Min: 100, Default: 400, Max: 900, NameID: 256}},
		[]fonttest.Instance{{SubfamilyNameID: 257, Coordinates: []float64{700}, PostScriptNameID: 258}},
	)}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.FVar)
	require.Len(t, otf.FVar.Axes, 1)
	assert.Equal(t, VariationAxis{
		Tag: T("wght"), Min: 100, Default: 400, Max: 900, AxisNameID: 256,
	}, otf.FVar.Axes[0])
	require.Len(t, otf.FVar.Instances, 1)
	assert.Equal(t, NamedInstance{
		SubfamilyNameID: 257, Coordinates: []float64{700}, PostScriptNameID: 258,
	}, otf.FVar.Instances[0])
}

func TestParseLTagAndMeta(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tt := fourGlyphFont()
	tt.Extra = map[string][]byte{
		"ltag": fonttest.LTag("en", "ar-Arab"),
		"meta": fonttest.Meta(map[string]string{"dlng": "Latn, Arab", "slng": "Latn"}),
	}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.LTag)
	assert.Equal(t, []string{"en", "ar-Arab"}, otf.LTag.Tags)
	lang := otf.Name.Language(NameRecord{PlatformID: 0, LanguageID: 1}, otf.LTag)
	assert.Equal(t, "ar-Arab", lang)
	require.NotNil(t, otf.Meta)
	dlng, ok := otf.Meta.Text(T("dlng"))
	require.True(t, ok)
	assert.Equal(t, "Latn, Arab", dlng)
	slng, _ := otf.Meta.Text(T("slng"))
	assert.Equal(t, "Latn", slng)
	_, ok = otf.Meta.Text(T("appl"))
	assert.False(t, ok)
}
