package otlayout

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseFont creates a font with 20 square glyphs and additional tables.
func parseFont(t *testing.T, tables map[string][]byte) *ot.Font {
	t.Helper()
	glyphs := make([][]byte, 20)
	for i := range glyphs {
		glyphs[i] = fonttest.Square(0, 0, 100)
	}
	otf, err := ot.Parse(fonttest.TrueType{Glyphs: glyphs, Extra: tables}.Build())
	require.NoError(t, err)
	return otf
}

// gsubFont creates a font whose GSUB has a single feature 'test' for latn,
// which references the first lookup. The other lookups are reachable from
// sequence lookup records only.
func gsubFont(t *testing.T, extra map[string][]byte, lookups ...fonttest.Lookup) (*ot.Font, Feature) {
	t.Helper()
	tables := map[string][]byte{"GSUB": fonttest.Layout{
		Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}}},
		Features: []fonttest.Feature{{Tag: "test", Lookups: []uint16{0}}},
		Lookups:  lookups,
	}.Build()}
	for tag, b := range extra {
		tables[tag] = b
	}
	otf := parseFont(t, tables)
	feat := NewFeatureQuery(otf).GSubFeature(ot.T("latn"), 0, ot.T("test"))
	require.NotNil(t, feat)
	return otf, feat
}

func applyAt(otf *ot.Font, feat Feature, glyphs []ot.GlyphIndex, pos, alt int) ([]ot.GlyphIndex, int, bool) {
	st := NewBufferState(GlyphSlice(append([]ot.GlyphIndex(nil), glyphs...)), nil)
	st.Index = pos
	next, ok := ApplyFeature(otf, feat, st, alt)
	return Glyphs(st.Glyphs), next, ok
}

func TestSingleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 1, Subtables: [][]byte{
		fonttest.SingleSubst1(3, 1),
		fonttest.SingleSubst2(map[uint16]uint16{2: 7}),
	}})
	out, next, ok := applyAt(otf, feat, []ot.GlyphIndex{1, 2}, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, next)
	assert.Equal(t, []ot.GlyphIndex{4, 2}, out)
	out, next, ok = applyAt(otf, feat, []ot.GlyphIndex{1, 2}, 1, 0)
	assert.True(t, ok)
	assert.Equal(t, 2, next)
	assert.Equal(t, []ot.GlyphIndex{1, 7}, out)
	_, next, ok = applyAt(otf, feat, []ot.GlyphIndex{5}, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, next)
}

func TestMultipleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 2, Subtables: [][]byte{
		fonttest.MultipleSubst(map[uint16][]uint16{4: {1, 2}}),
	}})
	out, next, ok := applyAt(otf, feat, []ot.GlyphIndex{4, 5}, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, 2, next)
	assert.Equal(t, []ot.GlyphIndex{1, 2, 5}, out)
}

func TestAlternateSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 3, Subtables: [][]byte{
		fonttest.AlternateSubst(map[uint16][]uint16{4: {5, 6, 7}}),
	}})
	for alt, want := range map[int]ot.GlyphIndex{0: 5, 1: 6, 2: 7, -1: 7} {
		out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{4}, 0, alt)
		assert.True(t, ok, "alternate %d", alt)
		assert.Equal(t, []ot.GlyphIndex{want}, out, "alternate %d", alt)
	}
	out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{4}, 0, 3)
	assert.False(t, ok)
	assert.Equal(t, []ot.GlyphIndex{4}, out)
}

func TestLigatureSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 4, Subtables: [][]byte{
		fonttest.LigatureSubst(map[uint16][]fonttest.Ligature{
			2: {{Components: []uint16{3}, Glyph: 10}},
		}),
	}})
	input := []ot.GlyphIndex{5, 2, 3, 6}
	st := NewBufferState(GlyphSlice(input), nil)
	require.True(t, ApplyFeatureToBuffer(otf, feat, st, 0))
	out := Glyphs(st.Glyphs)
	assert.Len(t, out, len(input)-1)
	assert.Equal(t, []ot.GlyphIndex{5, 10, 6}, out)
}

func TestLigatureLongestMatchWins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 4, Subtables: [][]byte{
		fonttest.LigatureSubst(map[uint16][]fonttest.Ligature{
			1: { // 'f f' is listed before 'f f i'
				{Components: []uint16{1}, Glyph: 10},
				{Components: []uint16{1, 2}, Glyph: 11},
			},
		}),
	}})
	out, next, ok := applyAt(otf, feat, []ot.GlyphIndex{1, 1, 2}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, 1, next)
	assert.Equal(t, []ot.GlyphIndex{11}, out)
	out, _, ok = applyAt(otf, feat, []ot.GlyphIndex{1, 1, 3}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, []ot.GlyphIndex{10, 3}, out)
	out, _, ok = applyAt(otf, feat, []ot.GlyphIndex{1, 2}, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, []ot.GlyphIndex{1, 2}, out)
}

func TestLigatureSkipsMarks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	gdef := map[string][]byte{"GDEF": fonttest.GDef(fonttest.ClassDef2([3]uint16{8, 8, uint16(ot.MarkGlyph)}))}
	lig := fonttest.LigatureSubst(map[uint16][]fonttest.Ligature{1: {{Components: []uint16{2}, Glyph: 10}}})
	otf, feat := gsubFont(t, gdef, fonttest.Lookup{Type: 4,
		Flag: uint16(ot.LOOKUP_FLAG_IGNORE_MARKS), Subtables: [][]byte{lig}})
	out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{1, 8, 2}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, []ot.GlyphIndex{10, 8}, out, "mark is kept behind the ligature")
	//
	otf, feat = gsubFont(t, gdef, fonttest.Lookup{Type: 4, Subtables: [][]byte{lig}})
	out, _, ok = applyAt(otf, feat, []ot.GlyphIndex{1, 8, 2}, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, []ot.GlyphIndex{1, 8, 2}, out)
}

func TestContextSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil,
		fonttest.Lookup{Type: 5, Subtables: [][]byte{fonttest.ContextSubst1(1, []uint16{2}, [2]uint16{1, 1})}},
		fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(10, 2)}},
	)
	out, next, ok := applyAt(otf, feat, []ot.GlyphIndex{1, 2}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, 2, next)
	assert.Equal(t, []ot.GlyphIndex{1, 12}, out)
	_, _, ok = applyAt(otf, feat, []ot.GlyphIndex{1, 3}, 0, 0)
	assert.False(t, ok)
}

func TestContextRemapsPositionsAfterEdit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil,
		fonttest.Lookup{Type: 5, Subtables: [][]byte{
			fonttest.ContextSubst1(1, []uint16{2}, [2]uint16{0, 1}, [2]uint16{1, 2}),
		}},
		fonttest.Lookup{Type: 2, Subtables: [][]byte{fonttest.MultipleSubst(map[uint16][]uint16{1: {6, 7}})}},
		fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst2(map[uint16]uint16{2: 9})}},
	)
	out, next, ok := applyAt(otf, feat, []ot.GlyphIndex{1, 2, 3}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, []ot.GlyphIndex{6, 7, 9, 3}, out)
	assert.Equal(t, 3, next)
}

func TestChainingContextSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil,
		fonttest.Lookup{Type: 6, Subtables: [][]byte{fonttest.ChainContextSubst3(
			[][]uint16{{5}}, [][]uint16{{2}}, [][]uint16{{3}}, [2]uint16{0, 1})}},
		fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst2(map[uint16]uint16{2: 9})}},
	)
	out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{5, 2, 3}, 1, 0)
	require.True(t, ok)
	assert.Equal(t, []ot.GlyphIndex{5, 9, 3}, out)
	_, _, ok = applyAt(otf, feat, []ot.GlyphIndex{4, 2, 3}, 1, 0)
	assert.False(t, ok, "backtrack does not match")
	_, _, ok = applyAt(otf, feat, []ot.GlyphIndex{5, 2}, 1, 0)
	assert.False(t, ok, "lookahead is missing")
}

func TestChainingContextSkipsMarksInLookahead(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	gdef := map[string][]byte{"GDEF": fonttest.GDef(fonttest.ClassDef2([3]uint16{8, 8, uint16(ot.MarkGlyph)}))}
	otf, feat := gsubFont(t, gdef,
		fonttest.Lookup{Type: 6, Subtables: [][]byte{fonttest.ChainContextSubst3(
			nil, [][]uint16{{2}}, [][]uint16{{3}}, [2]uint16{0, 1})}},
		fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst2(map[uint16]uint16{2: 9})}},
	)
	out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{2, 8, 3}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, []ot.GlyphIndex{9, 8, 3}, out)
}

func TestReverseChainingSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 8, Subtables: [][]byte{
		fonttest.ReverseChainSubst(map[uint16]uint16{2: 9}, []uint16{3}),
	}})
	st := NewBufferState(GlyphSlice{2, 2, 3}, nil)
	require.True(t, ApplyFeatureToBuffer(otf, feat, st, 0))
	assert.Equal(t, []ot.GlyphIndex{2, 9, 3}, Glyphs(st.Glyphs))
}

func TestExtensionSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 7, Subtables: [][]byte{
		fonttest.Extension(1, fonttest.SingleSubst1(3, 7)),
	}})
	out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{7}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, []ot.GlyphIndex{10}, out)
}

func TestNestingDepthIsLimited(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	// lookup 0 calls itself for every match
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 5, Subtables: [][]byte{
		fonttest.ContextSubst1(1, nil, [2]uint16{0, 0}),
	}})
	out, _, ok := applyAt(otf, feat, []ot.GlyphIndex{1, 2}, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, []ot.GlyphIndex{1, 2}, out)
}

func TestApplyNilFeature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, _ := gsubFont(t, nil, fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(1, 1)}})
	st := NewBufferState(GlyphSlice{1}, nil)
	next, ok := ApplyFeature(otf, nil, st, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, next)
	assert.False(t, ApplyFeatureToBuffer(otf, nil, st, 0))
	assert.Equal(t, []ot.GlyphIndex{1}, Glyphs(st.Glyphs))
}

func TestReplaceGlyphsKeepsPositionsAligned(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	st := NewBufferState(GlyphSlice{1, 2, 3}, NewPosBuffer(3))
	st.Pos[2].XAdvance = 7
	edit := st.ReplaceGlyphs(0, 2, []ot.GlyphIndex{9})
	assert.Equal(t, -1, edit.Delta())
	assert.Equal(t, []ot.GlyphIndex{9, 3}, Glyphs(st.Glyphs))
	require.Len(t, st.Pos, 2)
	assert.Equal(t, int32(7), st.Pos[1].XAdvance)
}
