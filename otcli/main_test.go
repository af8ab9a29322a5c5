package main

import (
	"path/filepath"
	"testing"

	"github.com/npillmayer/fontshape"
	"github.com/npillmayer/fontshape/internal/fontload"
	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cliFont(t *testing.T) *fontload.ScalableFont {
	t.Helper()
	f, err := fontload.ParseOpenTypeFont(fonttest.TrueType{
		Glyphs:   [][]byte{nil, fonttest.Square(0, 0, 100), fonttest.Square(0, 0, 200)},
		Advances: []uint16{500, 200, 300},
		CMap:     map[rune]uint16{'a': 1, 'b': 2},
		Family:   "Cli",
	}.Build())
	require.NoError(t, err)
	return f
}

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cli")
	defer teardown()
	//
	cmd, err := parseCommand("table:GSUB lookups:3")
	require.NoError(t, err)
	assert.Equal(t, 2, cmd.count)
	assert.Equal(t, TABLE, cmd.op[0].code)
	assert.Equal(t, "GSUB", cmd.op[0].arg)
	assert.Equal(t, LOOKUPS, cmd.op[1].code)
	assert.Equal(t, "3", cmd.op[1].arg)
	assert.Equal(t, NOOP, cmd.op[2].code)
	//
	cmd, err = parseCommand("info shape:fi  fl quit")
	require.NoError(t, err)
	assert.Equal(t, 2, cmd.count)
	assert.Equal(t, SHAPE, cmd.op[1].code)
	assert.Equal(t, "fi fl quit", cmd.op[1].arg)
	//
	cmd, err = parseCommand("render:ab:out/ab.png")
	require.NoError(t, err)
	assert.Equal(t, "ab", cmd.op[0].arg)
	assert.Equal(t, "out/ab.png", cmd.op[0].format)
	//
	cmd, _ = parseCommand("frobnicate")
	assert.Equal(t, HELP, cmd.op[0].code)
}

func TestGlyphArg(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cli")
	defer teardown()
	//
	otf := cliFont(t).OTF
	gid, r, err := glyphArg(otf, "b")
	require.NoError(t, err)
	assert.Equal(t, ot.GlyphIndex(2), gid)
	assert.Equal(t, 'b', r)
	gid, _, err = glyphArg(otf, "#1")
	require.NoError(t, err)
	assert.Equal(t, ot.GlyphIndex(1), gid)
	gid, r, err = glyphArg(otf, "U+0061")
	require.NoError(t, err)
	assert.Equal(t, ot.GlyphIndex(1), gid)
	assert.Equal(t, 'a', r)
	_, _, err = glyphArg(otf, "#7")
	assert.Error(t, err)
	_, _, err = glyphArg(otf, "ab")
	assert.Error(t, err)
}

func TestCommandsNeedFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cli")
	defer teardown()
	//
	intp := &Intp{}
	err, _ := tablesOp(intp, &Op{code: TABLES})
	assert.ErrorIs(t, err, ErrNoFont)
	intp.font = cliFont(t)
	err, _ = lookupsOp(intp, &Op{code: LOOKUPS})
	assert.ErrorIs(t, err, ErrNoTable)
	err, _ = tableOp(intp, &Op{code: TABLE, arg: "GSUB"})
	assert.Error(t, err, "test font has no GSUB")
	err, _ = tableOp(intp, &Op{code: TABLE, arg: "hmtx"})
	assert.NoError(t, err)
	assert.Equal(t, ot.T("hmtx"), intp.tableTag)
	err, stop := quitOp(intp, &Op{code: QUIT})
	assert.NoError(t, err)
	assert.True(t, stop)
}

func TestRenderRun(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cli")
	defer teardown()
	//
	otf := cliFont(t).OTF
	st, err := fontshape.Shape(otf, "ab", otshape.Options{})
	require.NoError(t, err)
	img, ink, err := renderRun(otf, st, 100) // 10 pixels per 100 units
	require.NoError(t, err)
	assert.Equal(t, 50+2*renderMargin, img.Bounds().Dx())
	assert.Equal(t, 100+2*renderMargin, img.Bounds().Dy())
	// baseline at 8+80, glyph 'a' covers x 8..18, y 78..88
	r, _, _, _ := img.At(13, 83).RGBA()
	assert.Less(t, r, uint32(0x8000), "expected ink inside of glyph 'a'")
	r, _, _, _ = img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r, "expected white margin")
	assert.Equal(t, renderMargin, ink.Min.X.Floor())
	assert.Equal(t, renderMargin+20+20, ink.Max.X.Ceil())
	//
	out := filepath.Join(t.TempDir(), "png", "ab.png")
	assert.NoError(t, writePNG(img, out))
	_, _, err = renderRun(otf, fontshape.ShapedText{}, 100)
	assert.Error(t, err)
}
