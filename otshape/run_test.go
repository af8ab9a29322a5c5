package otshape

import (
	"testing"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

var tagTest = ot.T("test")

// glyphTokens creates a tokenizer whose tokens carry the given glyphs.
func glyphTokens(s string, glyphs ...ot.GlyphIndex) *Tokenizer {
	tz := Tokenize(s)
	for i, g := range glyphs {
		tz.Token(i).SetGlyphIndex(g)
	}
	return tz
}

func TestTokenViewLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	tz := glyphTokens("ffi", 1, 1, 2)
	v := newTokenView(tz, Range{Start: 0, End: 3}, tagTest)
	v.Replace(0, 3, []ot.GlyphIndex{9})
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, []ot.GlyphIndex{9}, tz.Glyphs())
	assert.True(t, tz.Token(0).HasFeature(tagTest))
	assert.True(t, tz.Token(1).IsDeleted())
	assert.True(t, tz.Token(2).IsDeleted())
}

func TestTokenViewKeepsMarksBehindLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	tz := glyphTokens("f\u0301i", 1, 5, 2)
	v := newTokenView(tz, Range{Start: 0, End: 3}, tagTest)
	assert.True(t, v.IsMark(1))
	v.Replace(0, 3, []ot.GlyphIndex{9, 5})
	assert.Equal(t, []ot.GlyphIndex{9, 5}, tz.Glyphs())
	assert.False(t, tz.Token(1).IsDeleted())
	assert.False(t, tz.Token(1).HasFeature(tagTest))
	assert.True(t, tz.Token(2).IsDeleted())
}

func TestTokenViewPositionalContraction(t *testing.T) {
	tz := glyphTokens("abc", 1, 2, 3)
	v := newTokenView(tz, Range{Start: 0, End: 3}, tagTest)
	v.Replace(0, 3, []ot.GlyphIndex{7, 8})
	assert.Equal(t, []ot.GlyphIndex{7, 8}, tz.Glyphs())
	assert.True(t, tz.Token(2).IsDeleted())
}

func TestTokenViewExpansion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	tz := glyphTokens("ab", 1, 2)
	v := newTokenView(tz, Range{Start: 0, End: 2}, tagTest)
	v.Replace(0, 1, []ot.GlyphIndex{7, 8, 9})
	assert.Equal(t, 4, tz.Len())
	assert.Equal(t, 4, v.Len())
	assert.Equal(t, 4, v.rng.End)
	assert.Equal(t, []ot.GlyphIndex{7, 8, 9, 2}, tz.Glyphs())
	ins := tz.Token(1)
	assert.Equal(t, 'a', ins.Char)
	inserted, _ := ins.Get(KeyInserted)
	assert.Equal(t, true, inserted)
	assert.True(t, ins.HasFeature(tagTest))
}

func TestTokenViewSkipsDeletedTokens(t *testing.T) {
	tz := glyphTokens("abc", 1, 2, 3)
	tz.Token(1).Delete()
	v := newTokenView(tz, Range{Start: 0, End: 3}, tagTest)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, ot.GlyphIndex(3), v.At(1))
	assert.Equal(t, 1, v.liveIndex(2))
	assert.Equal(t, -1, v.liveIndex(1))
	v.Set(1, 6)
	assert.Equal(t, ot.GlyphIndex(6), tz.Token(2).GlyphIndex())
	assert.True(t, tz.Token(2).HasFeature(tagTest))
}

func TestRunFeatureSwitches(t *testing.T) {
	run := &Run{features: map[ot.Tag]bool{ot.T("liga"): false, ot.T("dlig"): true}}
	assert.False(t, run.FeatureEnabled(ot.T("liga")))
	assert.True(t, run.FeatureEnabled(ot.T("dlig")))
	assert.True(t, run.FeatureEnabled(ot.T("kern")))
	assert.Nil(t, run.GSubFeature(ot.T("latn"), ot.T("liga")))
}
