package otlayout

import (
	"sync"
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arabicFont(t *testing.T) *ot.Font {
	t.Helper()
	return parseFont(t, map[string][]byte{"GSUB": fonttest.Layout{
		Scripts: []fonttest.Script{
			{Tag: "DFLT", Features: []uint16{0}},
			{Tag: "arab", Features: []uint16{1}, Languages: map[string][]uint16{"URD ": {0, 1}}},
		},
		Features: []fonttest.Feature{
			{Tag: "liga", Lookups: []uint16{0}},
			{Tag: "init", Lookups: []uint16{1}},
		},
		Lookups: []fonttest.Lookup{
			{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(1, 1)}},
			{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(2, 1)}},
		},
	}.Build()})
}

func TestFeatureQueryLanguages(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.query")
	defer teardown()
	//
	q := NewFeatureQuery(arabicFont(t))
	arab := ot.T("arab")
	assert.NotNil(t, q.GSubFeature(arab, 0, ot.T("init")))
	assert.Nil(t, q.GSubFeature(arab, 0, ot.T("liga")))
	assert.NotNil(t, q.GSubFeature(arab, ot.T("URD"), ot.T("liga")))
	assert.NotNil(t, q.GSubFeature(arab, ot.T("XYZ"), ot.T("init")), "unknown language falls back to default")
	feats := q.Features(GSubFeatureType, arab, ot.T("URD"))
	require.Len(t, feats, 2)
	assert.Equal(t, ot.T("liga"), feats[0].Tag())
	assert.Equal(t, ot.T("init"), feats[1].Tag())
	assert.Nil(t, q.Required(GSubFeatureType, arab, 0))
}

func TestFeatureQueryScriptFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.query")
	defer teardown()
	//
	q := NewFeatureQuery(arabicFont(t))
	assert.Equal(t, ot.DFLT, q.Script(GSubFeatureType, ot.T("grek")))
	assert.NotNil(t, q.GSubFeature(ot.T("grek"), 0, ot.T("liga")))
	assert.Equal(t, ot.Tag(0), q.Script(GPosFeatureType, ot.T("arab")), "font has no GPOS")
	assert.Nil(t, q.GPosFeature(ot.T("arab"), 0, ot.T("kern")))
	//
	otf, _ := gsubFont(t, nil, fonttest.Lookup{Type: 1, Subtables: [][]byte{fonttest.SingleSubst1(1, 1)}})
	q = NewFeatureQuery(otf)
	assert.Equal(t, ot.T("latn"), q.Script(GSubFeatureType, ot.T("cyrl")))
}

func TestFeatureQueryIsMemoized(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.query")
	defer teardown()
	//
	q := NewFeatureQuery(arabicFont(t))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.GSubFeature(ot.T("arab"), 0, ot.T("init"))
		}()
	}
	wg.Wait()
	f1 := q.Features(GSubFeatureType, ot.T("arab"), 0)
	f2 := q.Features(GSubFeatureType, ot.T("arab"), 0)
	require.Len(t, f1, 1)
	assert.True(t, &f1[0] == &f2[0])
	assert.Len(t, q.cache, 1)
}

func TestFontFeatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	otf := arabicFont(t)
	gsub, gpos, err := FontFeatures(otf, ot.T("arab"), 0)
	require.NoError(t, err)
	require.Len(t, gsub, 2)
	assert.Nil(t, gsub[0], "no mandatory feature")
	assert.Equal(t, ot.T("init"), gsub[1].Tag())
	assert.Equal(t, GSubFeatureType, gsub[1].Type())
	assert.Empty(t, gpos)
	gsub, _, err = FontFeatures(otf, 0, 0)
	require.NoError(t, err)
	require.Len(t, gsub, 2)
	assert.Equal(t, ot.T("liga"), gsub[1].Tag())
}

func TestIdentifyFeatureTag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.layout")
	defer teardown()
	//
	for tag, want := range map[string]LayoutTagType{
		"liga": GSubFeatureType,
		"kern": GPosFeatureType,
		"ss03": GSubFeatureType,
		"cv12": GSubFeatureType,
	} {
		typ, err := IdentifyFeatureTag(ot.T(tag))
		assert.NoError(t, err, tag)
		assert.Equal(t, want, typ, tag)
	}
	_, err := IdentifyFeatureTag(ot.T("xxxx"))
	assert.Error(t, err)
}
