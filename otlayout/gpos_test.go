package otlayout

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gposFont(t *testing.T) *ot.Font {
	t.Helper()
	return parseFont(t, map[string][]byte{"GPOS": fonttest.Layout{
		Scripts: []fonttest.Script{{Tag: "latn", Features: []uint16{0, 1}}},
		Features: []fonttest.Feature{
			{Tag: "kern", Lookups: []uint16{0, 1}},
			{Tag: "dist", Lookups: []uint16{2}},
		},
		Lookups: []fonttest.Lookup{
			{Type: 2, Subtables: [][]byte{fonttest.PairPos1(map[[2]uint16]int16{{1, 2}: -50, {1, 3}: -20})}},
			{Type: 2, Subtables: [][]byte{fonttest.PairPos2([]uint16{4, 5},
				fonttest.ClassDef2([3]uint16{4, 5, 1}), fonttest.ClassDef2([3]uint16{6, 6, 1}),
				[][]int16{{0, 0}, {0, -30}})}},
			{Type: 1, Subtables: [][]byte{fonttest.SinglePos1(5, 10, 4)}},
		},
	}.Build()})
}

func TestKerningAt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := gposFont(t)
	kern := NewFeatureQuery(otf).GPosFeature(ot.T("latn"), 0, ot.T("kern"))
	require.NotNil(t, kern)
	k, ok := KerningAt(otf, kern, 1, 2)
	assert.True(t, ok)
	assert.Equal(t, -50, k)
	k, ok = KerningAt(otf, kern, 1, 3)
	assert.True(t, ok)
	assert.Equal(t, -20, k)
	k, ok = KerningAt(otf, kern, 5, 6)
	assert.True(t, ok)
	assert.Equal(t, -30, k)
	_, ok = KerningAt(otf, kern, 2, 1)
	assert.False(t, ok)
	_, ok = KerningAt(otf, nil, 1, 2)
	assert.False(t, ok)
}

func TestKerningAtIgnoresPlacement(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := parseFont(t, map[string][]byte{"GPOS": fonttest.Layout{
		Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}}},
		Features: []fonttest.Feature{{Tag: "kern", Lookups: []uint16{0}}},
		Lookups: []fonttest.Lookup{{Type: 2, Subtables: [][]byte{
			fonttest.PairPos1Placement(map[[2]uint16][2]int16{{1, 2}: {-40, 15}}),
		}}},
	}.Build()})
	kern := NewFeatureQuery(otf).GPosFeature(ot.T("latn"), 0, ot.T("kern"))
	require.NotNil(t, kern)
	k, ok := KerningAt(otf, kern, 1, 2)
	require.True(t, ok)
	assert.Equal(t, -40, k)
	// a buffer receives the placement of the second glyph
	st := NewBufferState(GlyphSlice{1, 2}, nil)
	require.True(t, ApplyFeatureToBuffer(otf, kern, st, 0))
	assert.Equal(t, PosItem{XAdvance: -40}, st.Pos[0])
	assert.Equal(t, PosItem{XOffset: 15}, st.Pos[1])
}

func TestPairPositioningOfBuffer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := gposFont(t)
	kern := NewFeatureQuery(otf).GPosFeature(ot.T("latn"), 0, ot.T("kern"))
	st := NewBufferState(GlyphSlice{1, 2, 4, 6, 1}, nil)
	require.True(t, ApplyFeatureToBuffer(otf, kern, st, 0))
	require.Len(t, st.Pos, 5)
	assert.Equal(t, int32(-50), st.Pos[0].XAdvance)
	assert.Equal(t, int32(-30), st.Pos[2].XAdvance)
	for _, i := range []int{1, 3, 4} {
		assert.Equal(t, PosItem{}, st.Pos[i], "position %d", i)
	}
}

func TestSinglePositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := gposFont(t)
	dist := NewFeatureQuery(otf).GPosFeature(ot.T("latn"), 0, ot.T("dist"))
	require.NotNil(t, dist)
	st := NewBufferState(GlyphSlice{3, 4}, nil)
	st.Index = 1
	next, ok := ApplyFeature(otf, dist, st, 0)
	require.True(t, ok)
	assert.Equal(t, 2, next)
	assert.Equal(t, PosItem{XOffset: 5, XAdvance: 10}, st.Pos[1])
	assert.Equal(t, PosItem{}, st.Pos[0])
}

func TestGSubFeatureDoesNotKern(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf, feat := gsubFont(t, nil, fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(1, 1)}})
	_, ok := KerningAt(otf, feat, 1, 2)
	assert.False(t, ok)
}
