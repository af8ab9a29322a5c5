package ot

import (
	"errors"
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCFFFont(t *testing.T, desc fonttest.CFFDesc) *Font {
	t.Helper()
	otf, err := Parse(fonttest.CFFFont(desc, nil, map[rune]uint16{'A': 1}))
	require.NoError(t, err)
	require.NotNil(t, otf.CFF)
	return otf
}

// glyphs prepends an empty .notdef to charstrings.
func glyphs(cs ...[]byte) [][]byte {
	return append([][]byte{fonttest.Charstring(fonttest.EndChar)}, cs...)
}

func TestSubrBias(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	for _, c := range []struct{ n, bias int }{
		{0, 107}, {1, 107}, {1239, 107}, {1240, 1131},
		{33899, 1131}, {33900, 32768}, {65535, 32768},
	} {
		assert.Equal(t, c.bias, subrBias(c.n), "%d subroutines", c.n)
	}
}

func TestCharstringCurve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseCFFFont(t, fonttest.CFFDesc{CharStrings: glyphs(fonttest.Charstring(
		100, fonttest.HMoveTo,
		100, -100, 100, 100, 100, -100, fonttest.RRCurveTo,
		fonttest.EndChar,
	))})
	path, err := otf.GlyphPath(1)
	require.NoError(t, err)
	require.Equal(t, 3, path.Len())
	assert.Equal(t, MoveTo, path.Segments[0].Op)
	assert.Equal(t, Point{100, 0}, path.Segments[0].End())
	assert.Equal(t, CubeTo, path.Segments[1].Op)
	assert.Equal(t, [3]Point{{200, -100}, {300, 0}, {400, -100}}, path.Segments[1].Args)
	assert.Equal(t, ClosePath, path.Segments[2].Op)
}

func TestCharstringWidth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseCFFFont(t, fonttest.CFFDesc{
		DefaultWidthX: 300,
		NominalWidthX: 500,
		CharStrings: glyphs(
			fonttest.Charstring(50, 100, fonttest.HMoveTo, fonttest.EndChar),
			fonttest.Charstring(100, fonttest.HMoveTo, fonttest.EndChar),
			fonttest.Charstring(-20, fonttest.EndChar),
		),
	})
	for gid, width := range map[GlyphIndex]float64{1: 550, 2: 300, 3: 480} {
		_, w, err := otf.CFF.charstringPath(gid)
		require.NoError(t, err)
		assert.Equal(t, width, w, "glyph %d", gid)
	}
}

func TestCharstringSubroutines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseCFFFont(t, fonttest.CFFDesc{
		CharStrings: glyphs(fonttest.Charstring(
			0, 0, fonttest.RMoveTo,
			-107, fonttest.CallSubr,
			-107, fonttest.CallGSubr,
			fonttest.EndChar,
		)),
		LocalSubrs:  [][]byte{fonttest.Charstring(100, fonttest.HLineTo, fonttest.Return)},
		GlobalSubrs: [][]byte{fonttest.Charstring(100, fonttest.VLineTo, fonttest.Return)},
	})
	path, err := otf.GlyphPath(1)
	require.NoError(t, err)
	require.Equal(t, 4, path.Len())
	assert.Equal(t, Point{100, 0}, path.Segments[1].End())
	assert.Equal(t, Point{100, 100}, path.Segments[2].End())
}

func TestCharstringSubroutineBiasBoundary(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	for _, c := range []struct{ n, bias int }{{1239, 107}, {1240, 1131}} {
		subrs := make([][]byte, c.n)
		for i := range subrs {
			subrs[i] = fonttest.Charstring(fonttest.Return)
		}
		subrs[0] = fonttest.Charstring(100, fonttest.HLineTo, fonttest.Return)
		otf := parseCFFFont(t, fonttest.CFFDesc{
			LocalSubrs:  subrs,
			CharStrings: glyphs(fonttest.Charstring(0, 0, fonttest.RMoveTo, -c.bias, fonttest.CallSubr, fonttest.EndChar)),
		})
		path, err := otf.GlyphPath(1)
		require.NoError(t, err, "%d subroutines", c.n)
		require.Equal(t, 3, path.Len(), "%d subroutines", c.n)
		assert.Equal(t, Point{100, 0}, path.Segments[1].End())
	}
}

func TestCharstringHintMask(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	stems := make([]any, 0, 20)
	for i := 0; i < 9; i++ {
		stems = append(stems, 10*i, 5)
	}
	// 9 stems need 2 mask bytes; a zero byte would be a reserved operator
	cs := append(stems, fonttest.HStemHM, fonttest.HintMask, fonttest.Raw{0xff, 0x00}, 100, fonttest.HMoveTo, fonttest.EndChar)
	// pending arguments of hintmask count as vstems: 3 + 6 stems
	implicit := []any{0, 5, 20, 5, 40, 5, fonttest.HStemHM}
	for i := 0; i < 6; i++ {
		implicit = append(implicit, 10*i, 5)
	}
	implicit = append(implicit, fonttest.HintMask, fonttest.Raw{0xf0, 0x00}, 100, fonttest.HMoveTo, fonttest.EndChar)
	otf := parseCFFFont(t, fonttest.CFFDesc{CharStrings: glyphs(fonttest.Charstring(cs...), fonttest.Charstring(implicit...))})
	for _, gid := range []GlyphIndex{1, 2} {
		path, err := otf.GlyphPath(gid)
		require.NoError(t, err, "glyph %d", gid)
		require.Equal(t, 2, path.Len(), "glyph %d", gid)
		assert.Equal(t, Point{100, 0}, path.Segments[0].End(), "glyph %d", gid)
	}
}

func TestCharstringFlex(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseCFFFont(t, fonttest.CFFDesc{CharStrings: glyphs(
		fonttest.Charstring(0, 0, fonttest.RMoveTo, 10, 10, 10, 10, 10, 0, 10, 0, 10, -10, 10, -10, 50, fonttest.Flex, fonttest.EndChar),
		fonttest.Charstring(0, 0, fonttest.RMoveTo, 10, 10, 10, 10, 10, 10, 10, fonttest.HFlex, fonttest.EndChar),
	)})
	path, err := otf.GlyphPath(1)
	require.NoError(t, err)
	require.Equal(t, 4, path.Len())
	assert.Equal(t, Point{30, 20}, path.Segments[1].End())
	assert.Equal(t, Point{60, 0}, path.Segments[2].End())
	path, err = otf.GlyphPath(2)
	require.NoError(t, err)
	require.Equal(t, 4, path.Len())
	assert.Equal(t, Point{60, 0}, path.Segments[2].End())
}

func TestCharstringArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseCFFFont(t, fonttest.CFFDesc{CharStrings: glyphs(
		fonttest.Charstring(30, 20, fonttest.Add, 0, fonttest.RMoveTo, 10, 4, fonttest.Div, 0, fonttest.RLineTo, fonttest.EndChar),
		fonttest.Charstring(0, 0, fonttest.RMoveTo, 12.5, 0, fonttest.RLineTo, fonttest.EndChar),
	)})
	path, err := otf.GlyphPath(1)
	require.NoError(t, err)
	assert.Equal(t, Point{50, 0}, path.Segments[0].End())
	assert.Equal(t, Point{52.5, 0}, path.Segments[1].End())
	path, err = otf.GlyphPath(2)
	require.NoError(t, err)
	assert.Equal(t, Point{12.5, 0}, path.Segments[1].End())
}

func TestCharstringErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	overflow := make([]any, 0, 50)
	for i := 0; i < MaxCharstringStack+1; i++ {
		overflow = append(overflow, 1)
	}
	overflow = append(overflow, fonttest.EndChar)
	otf := parseCFFFont(t, fonttest.CFFDesc{
		CharStrings: glyphs(
			fonttest.Charstring(-107, fonttest.CallSubr, fonttest.EndChar), // recursion without end
			fonttest.Charstring(overflow...),                               // stack overflow
			fonttest.Charstring(100, fonttest.HMoveTo),                     // missing endchar
			fonttest.Charstring(5, fonttest.CallSubr, fonttest.EndChar),    // subroutine out of range
			fonttest.Charstring(fonttest.HMoveTo, fonttest.EndChar),        // stack underflow
			fonttest.Charstring(0, 0, fonttest.RMoveTo, fonttest.Raw{0}),   // reserved operator
		),
		LocalSubrs: [][]byte{fonttest.Charstring(-107, fonttest.CallSubr, fonttest.Return)},
	})
	for gid := GlyphIndex(1); gid <= 6; gid++ {
		path, err := otf.GlyphPath(gid)
		assert.Nil(t, path, "glyph %d", gid)
		require.Error(t, err, "glyph %d", gid)
		assert.True(t, errors.Is(err, ErrCharstring), "glyph %d: %v", gid, err)
		var fe FontError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, int(gid), fe.Glyph)
		// errors are reported on every access
		_, again := otf.GlyphPath(gid)
		assert.Equal(t, err, again)
	}
	// other glyphs are unaffected
	_, err := otf.GlyphPath(0)
	assert.NoError(t, err)
}

func TestCharstringCallDepth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	// subroutine i calls subroutine i+1; the last one draws a line
	const n = MaxCharstringCallDepth + 2
	subrs := make([][]byte, n)
	for i := 0; i < n-1; i++ {
		subrs[i] = fonttest.Charstring(i+1-107, fonttest.CallSubr, fonttest.Return)
	}
	subrs[n-1] = fonttest.Charstring(100, fonttest.HLineTo, fonttest.Return)
	call := func(first int) []byte {
		return fonttest.Charstring(0, 0, fonttest.RMoveTo, first-107, fonttest.CallSubr, fonttest.EndChar)
	}
	otf := parseCFFFont(t, fonttest.CFFDesc{
		LocalSubrs:  subrs,
		CharStrings: glyphs(call(0), call(2)),
	})
	_, err := otf.GlyphPath(1)
	assert.True(t, errors.Is(err, ErrCharstring), "nesting of %d: %v", n, err)
	_, err = otf.GlyphPath(2)
	assert.NoError(t, err, "nesting of %d", n-2)
}

func cidFont(t *testing.T, fdSelect []uint8, format int) *Font {
	t.Helper()
	otf, err := Parse(fonttest.CFFFont(fonttest.CFFDesc{
		CharStrings: [][]byte{
			fonttest.Charstring(fonttest.EndChar),
			fonttest.Charstring(50, fonttest.EndChar),
			fonttest.Charstring(fonttest.EndChar),
		},
		FontDicts: []fonttest.CFFPrivate{
			{DefaultWidthX: 300, NominalWidthX: 500},
			{DefaultWidthX: 600, NominalWidthX: 700},
		},
		FDSelect:       fdSelect,
		FDSelectFormat: format,
	}, nil, map[rune]uint16{'A': 1}))
	require.NoError(t, err)
	require.NotNil(t, otf.CFF)
	require.True(t, otf.CFF.IsCID)
	return otf
}

func TestCharstringCIDPrivateDicts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	for _, c := range []struct {
		format   int
		fdSelect []uint8
		widths   [3]float64
	}{
		{0, []uint8{0, 1, 1}, [3]float64{300, 750, 600}},
		{3, []uint8{0, 0, 1}, [3]float64{300, 550, 600}},
		{3, []uint8{1, 0, 0}, [3]float64{600, 550, 300}},
	} {
		otf := cidFont(t, c.fdSelect, c.format)
		for gid, width := range c.widths {
			_, w, err := otf.CFF.charstringPath(GlyphIndex(gid))
			require.NoError(t, err, "format %d, glyph %d", c.format, gid)
			assert.Equal(t, width, w, "format %d, glyph %d", c.format, gid)
		}
	}
}

func TestCharstringCIDBadFontDict(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := cidFont(t, []uint8{0, 5, 1}, 0)
	assert.Empty(t, otf.CriticalErrors())
	_, err := otf.GlyphPath(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCharstring), "%v", err)
	var fe FontError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Glyph)
	// glyphs with a valid font DICT are unaffected
	_, w, err := otf.CFF.charstringPath(2)
	require.NoError(t, err)
	assert.Equal(t, float64(600), w)
	_, err = otf.GlyphPath(0)
	assert.NoError(t, err)
}
