package ot

import (
	"errors"
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGSub() []byte {
	return fonttest.Layout{
		Scripts: []fonttest.Script{
			{Tag: "DFLT", Features: []uint16{0}},
			{Tag: "latn", Features: []uint16{0, 1}, Languages: map[string][]uint16{"TRK ": {1}}},
		},
		Features: []fonttest.Feature{
			{Tag: "liga", Lookups: []uint16{0}},
			{Tag: "ccmp", Lookups: []uint16{1, 2, 3}},
		},
		Lookups: []fonttest.Lookup{
			{Type: 4, Subtables: [][]byte{fonttest.LigatureSubst(map[uint16][]fonttest.Ligature{
				1: {{Components: []uint16{2, 3}, Glyph: 10}, {Components: []uint16{2}, Glyph: 11}},
			})}},
			{Type: 1, Subtables: [][]byte{fonttest.SingleSubst2(map[uint16]uint16{1: 5, 2: 6})}},
			{Type: 7, Subtables: [][]byte{fonttest.Extension(1, fonttest.SingleSubst1(3, 7, 8))}},
			{Type: 6, Subtables: [][]byte{fonttest.ChainContextSubst3(
				[][]uint16{{1}}, [][]uint16{{2}}, [][]uint16{{3}}, [2]uint16{0, 1})}},
			{Type: 2, Subtables: [][]byte{fonttest.MultipleSubst(map[uint16][]uint16{4: {1, 2}})}},
			{Type: 3, Subtables: [][]byte{fonttest.AlternateSubst(map[uint16][]uint16{4: {5, 6, 7}})}},
			{Type: 5, Subtables: [][]byte{fonttest.ContextSubst1(1, []uint16{2}, [2]uint16{1, 1})}},
			{Type: 8, Subtables: [][]byte{fonttest.ReverseChainSubst(map[uint16]uint16{2: 9}, []uint16{3})}},
			{Type: 1, Subtables: [][]byte{{0, 9, 0, 6, 0, 0, 0, 1, 0, 0}, fonttest.SingleSubst1(1, 4)}},
		},
	}.Build()
}

func testGPos() []byte {
	return fonttest.Layout{
		Scripts: []fonttest.Script{{Tag: "latn", Features: []uint16{0, 1}}},
		Features: []fonttest.Feature{
			{Tag: "kern", Lookups: []uint16{0, 1, 4}},
			{Tag: "mark", Lookups: []uint16{2, 3}},
		},
		Lookups: []fonttest.Lookup{
			{Type: 2, Subtables: [][]byte{fonttest.PairPos1(map[[2]uint16]int16{{1, 2}: -50, {1, 3}: -20})}},
			{Type: 2, Subtables: [][]byte{fonttest.PairPos2([]uint16{4, 5},
				fonttest.ClassDef2([3]uint16{4, 5, 1}), fonttest.ClassDef2([3]uint16{6, 6, 1}),
				[][]int16{{0, 0}, {0, -30}})}},
			{Type: 1, Subtables: [][]byte{fonttest.SinglePos1(5, 10, 4)}},
			{Type: 4, Subtables: [][]byte{{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}}},
			{Type: 9, Subtables: [][]byte{fonttest.Extension(2, fonttest.PairPos1(map[[2]uint16]int16{{7, 8}: 15}))}},
		},
	}.Build()
}

func layoutFont(t *testing.T, extra map[string][]byte) *Font {
	t.Helper()
	glyphs := make([][]byte, 12)
	for i := range glyphs {
		glyphs[i] = fonttest.Square(0, 0, 100)
	}
	otf, err := Parse(fonttest.TrueType{Glyphs: glyphs, Extra: extra}.Build())
	require.NoError(t, err)
	return otf
}

func TestLayoutScriptsAndFeatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := layoutFont(t, map[string][]byte{"GSUB": testGSub()})
	gsub := otf.Layout.GSub
	require.NotNil(t, gsub)
	assert.False(t, gsub.IsGPos())
	assert.Equal(t, 2, gsub.ScriptList.Len())
	latn := gsub.ScriptList.Script(T("latn"))
	require.NotNil(t, latn)
	liga := latn.DefaultLangSys().Feature(T("liga"))
	require.NotNil(t, liga)
	assert.Equal(t, []int{0}, liga.LookupIndices())
	assert.Nil(t, latn.DefaultLangSys().Feature(T("kern")))
	trk := latn.LangSys(T("TRK"))
	require.NotNil(t, trk)
	require.Len(t, trk.Features(), 1)
	assert.Equal(t, T("ccmp"), trk.Features()[0].Tag)
	assert.Equal(t, []int{1, 2, 3}, trk.Features()[0].LookupIndices())
	_, ok := trk.RequiredFeatureIndex()
	assert.False(t, ok)
	assert.Nil(t, gsub.ScriptList.Script(T("arab")))
	var tags []Tag
	for tag := range gsub.ScriptList.Range() {
		tags = append(tags, tag)
	}
	assert.Equal(t, []Tag{T("DFLT"), T("latn")}, tags)
	assert.Equal(t, []int{1}, gsub.FeatureList.Indices(T("ccmp")))
}

func TestLayoutGSubLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := layoutFont(t, map[string][]byte{"GSUB": testGSub()})
	ll := otf.Layout.GSub.LookupList
	require.Equal(t, 9, ll.Len())
	//
	lig := ll.Lookup(0)
	assert.Equal(t, GSubLookupTypeLigature, lig.Type)
	require.Len(t, lig.Subtables, 1)
	node := lig.Subtables[0]
	inx, ok := node.Coverage.Match(1)
	require.True(t, ok)
	set := node.GSub.LigatureFmt1.LigatureSets[inx]
	require.Len(t, set, 2)
	assert.Equal(t, GSubLigatureRule{Components: []GlyphIndex{2, 3}, Ligature: 10}, set[0])
	assert.Equal(t, GSubLigatureRule{Components: []GlyphIndex{2}, Ligature: 11}, set[1])
	//
	single := ll.Lookup(1).Subtables[0]
	assert.Equal(t, uint16(2), single.Format)
	assert.Equal(t, []GlyphIndex{5, 6}, single.GSub.SingleFmt2.SubstituteGlyphIDs)
	//
	ext := ll.Lookup(2)
	assert.True(t, ext.Extension)
	assert.Equal(t, GSubLookupTypeSingle, ext.Type)
	require.Len(t, ext.Subtables, 1)
	assert.Equal(t, int16(3), ext.Subtables[0].GSub.SingleFmt1.DeltaGlyphID)
	assert.True(t, ext.Subtables[0].Coverage.Contains(8))
	//
	chain := ll.Lookup(3).Subtables[0].GSub.ChainingContextFmt3
	require.NotNil(t, chain)
	require.Len(t, chain.BacktrackCoverages, 1)
	assert.True(t, chain.BacktrackCoverages[0].Contains(1))
	assert.True(t, chain.InputCoverages[0].Contains(2))
	assert.True(t, chain.LookaheadCoverages[0].Contains(3))
	assert.Equal(t, []SequenceLookupRecord{{SequenceIndex: 0, LookupListIndex: 1}}, chain.Records)
	assert.True(t, ll.Lookup(3).Subtables[0].Coverage.Contains(2))
	//
	multiple := ll.Lookup(4).Subtables[0].GSub.MultipleFmt1
	assert.Equal(t, [][]GlyphIndex{{1, 2}}, multiple.Sequences)
	alternate := ll.Lookup(5).Subtables[0].GSub.AlternateFmt1
	assert.Equal(t, [][]GlyphIndex{{5, 6, 7}}, alternate.Alternates)
	//
	ctx := ll.Lookup(6).Subtables[0].GSub.ContextFmt1
	require.Len(t, ctx.RuleSets, 1)
	require.Len(t, ctx.RuleSets[0], 1)
	assert.Equal(t, []GlyphIndex{2}, ctx.RuleSets[0][0].InputGlyphs)
	//
	rev := ll.Lookup(7).Subtables[0].GSub.ReverseChainingFmt1
	assert.Equal(t, []GlyphIndex{9}, rev.SubstituteGlyphIDs)
	require.Len(t, rev.LookaheadCoverages, 1)
	assert.True(t, rev.LookaheadCoverages[0].Contains(3))
}

func TestLayoutBrokenSubtableIsRecorded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := layoutFont(t, map[string][]byte{"GSUB": testGSub()})
	broken := otf.Layout.GSub.LookupList.Lookup(8)
	require.Len(t, broken.Subtables, 1, "intact subtable is kept")
	assert.Equal(t, int16(1), broken.Subtables[0].GSub.SingleFmt1.DeltaGlyphID)
	var found bool
	for _, e := range otf.Errors() {
		if e.Table == T("GSUB") && errors.Is(e, ErrUnsupportedFormat) {
			assert.Equal(t, SeverityMajor, e.Severity)
			assert.Equal(t, "LookupType1", e.Section)
			found = true
		}
	}
	assert.True(t, found, "errors = %v", otf.Errors())
}

func TestLayoutGPosLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := layoutFont(t, map[string][]byte{"GPOS": testGPos()})
	gpos := otf.Layout.GPos
	require.NotNil(t, gpos)
	assert.True(t, gpos.IsGPos())
	ll := gpos.LookupList
	require.Equal(t, 5, ll.Len())
	//
	pair := ll.Lookup(0)
	assert.True(t, IsGPosLookupType(pair.Type))
	assert.Equal(t, GPosLookupTypePair, GPosLookupType(pair.Type))
	node := pair.Subtables[0]
	inx, ok := node.Coverage.Match(1)
	require.True(t, ok)
	rec, ok := node.GPos.PairFmt1.Pair(inx, 3)
	require.True(t, ok)
	assert.Equal(t, int16(-20), rec.Value1.XAdvance)
	_, ok = node.GPos.PairFmt1.Pair(inx, 4)
	assert.False(t, ok)
	//
	classes := ll.Lookup(1).Subtables[0].GPos.PairFmt2
	require.NotNil(t, classes)
	c2, ok := classes.Pair(5, 6)
	require.True(t, ok)
	assert.Equal(t, int16(-30), c2.Value1.XAdvance)
	c2, ok = classes.Pair(5, 7)
	require.True(t, ok)
	assert.True(t, c2.Value1.IsZero())
	//
	single := ll.Lookup(2).Subtables[0].GPos.SingleFmt1
	assert.Equal(t, ValueFormatXPlacement|ValueFormatXAdvance, single.ValueFormat)
	assert.Equal(t, int16(5), single.Value.XPlacement)
	assert.Equal(t, int16(10), single.Value.XAdvance)
	assert.Equal(t, 4, single.ValueFormat.Size())
	//
	ext := ll.Lookup(4)
	assert.True(t, ext.Extension)
	assert.Equal(t, GPosLookupTypePair, GPosLookupType(ext.Type))
	ei, ok := ext.Subtables[0].Coverage.Match(7)
	require.True(t, ok)
	rec, ok = ext.Subtables[0].GPos.PairFmt1.Pair(ei, 8)
	require.True(t, ok)
	assert.Equal(t, int16(15), rec.Value1.XAdvance)
}

func TestLayoutUnsupportedGPosLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := layoutFont(t, map[string][]byte{"GPOS": testGPos()})
	markToBase := otf.Layout.GPos.LookupList.Lookup(3)
	assert.Equal(t, GPosLookupTypeMarkToBase, GPosLookupType(markToBase.Type))
	require.Len(t, markToBase.Subtables, 1)
	assert.Nil(t, markToBase.Subtables[0].GPos)
	var found bool
	for _, e := range otf.Errors() {
		if e.Table == T("GPOS") && errors.Is(e, ErrUnsupportedLookup) {
			assert.Equal(t, "LookupType4", e.Section)
			found = true
		}
	}
	assert.True(t, found, "errors = %v", otf.Errors())
}

func TestLayoutWithoutLayoutOption(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	tt := fonttest.TrueType{
		Glyphs: [][]byte{{}, {}},
		Extra:  map[string][]byte{"GSUB": {0, 1}}, // garbage
	}
	_, err := Parse(tt.Build())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "error = %v", err)
	otf, err := Parse(tt.Build(), WithoutLayout)
	require.NoError(t, err)
	assert.Nil(t, otf.Layout.GSub)
}

func TestLayoutFeatureReferencesMissingLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	gsub := fonttest.Layout{
		Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}}},
		Features: []fonttest.Feature{{Tag: "liga", Lookups: []uint16{3}}},
		Lookups:  []fonttest.Lookup{{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(1, 1)}}},
	}.Build()
	_, err := Parse(fonttest.TrueType{Glyphs: [][]byte{{}, {}}, Extra: map[string][]byte{"GSUB": gsub}}.Build())
	assert.True(t, errors.Is(err, ErrTableFormat), "error = %v", err)
}

func TestLayoutGDef(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	gdef := fonttest.GDef(fonttest.ClassDef2([3]uint16{1, 2, 1}, [3]uint16{3, 3, 3}))
	otf := layoutFont(t, map[string][]byte{"GDEF": gdef})
	require.NotNil(t, otf.Layout.GDef)
	assert.Equal(t, BaseGlyph, otf.Layout.GDef.GlyphClass(2))
	assert.Equal(t, MarkGlyph, otf.Layout.GDef.GlyphClass(3))
	assert.Equal(t, GlyphClassDefEnum(0), otf.Layout.GDef.GlyphClass(4))
}

func TestLayoutLookupFlagsWithoutGDef(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	gsub := fonttest.Layout{
		Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}}},
		Features: []fonttest.Feature{{Tag: "liga", Lookups: []uint16{0}}},
		Lookups: []fonttest.Lookup{{Type: 1, Flag: uint16(LOOKUP_FLAG_IGNORE_MARKS),
			Subtables: [][]byte{fonttest.SingleSubst1(1, 1)}}},
	}.Build()
	otf := layoutFont(t, map[string][]byte{"GSUB": gsub})
	assert.True(t, otf.Layout.GSub.Requirements.NeedGlyphClassDef)
	var warned bool
	for _, w := range otf.Warnings() {
		warned = warned || w.Table == T("GSUB")
	}
	assert.True(t, warned)
}

func TestKernTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := layoutFont(t, map[string][]byte{"kern": fonttest.Kern(map[[2]uint16]int16{{1, 2}: -40, {3, 1}: 25})})
	require.NotNil(t, otf.Kern)
	assert.Equal(t, 2, otf.Kern.Len())
	v, ok := otf.Kern.Kerning(1, 2)
	require.True(t, ok)
	assert.Equal(t, int16(-40), v)
	_, ok = otf.Kern.Kerning(2, 1)
	assert.False(t, ok)
}
