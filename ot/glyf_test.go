package ot

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var offCurvePentagon = []fonttest.Pt{
	fonttest.Off(0, 100), fonttest.Off(95, 31), fonttest.Off(59, -81),
	fonttest.Off(-59, -81), fonttest.Off(-95, 31),
}

var staircase = []fonttest.Pt{
	fonttest.On(0, 0), fonttest.On(10, 0), fonttest.On(20, 0), fonttest.On(30, 0),
	fonttest.On(30, 400), fonttest.Off(-300, 400), fonttest.Off(-300, 390), fonttest.On(-310, 0),
}

// Glyph indices of glyfFont.
const (
	gOffCurve GlyphIndex = iota + 1
	gSquare
	gIdentity
	gShifted
	gScaled
	gSelfRef
	gCycleA
	gCycleB
	gRepeated
	gMatched
	gMixed
	gDangling
)

func glyfFont(t *testing.T) *Font {
	t.Helper()
	tt := fonttest.TrueType{Glyphs: [][]byte{
		{}, // .notdef without outline
		fonttest.SimpleGlyph(offCurvePentagon),
		fonttest.Square(0, 0, 100),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: uint16(gSquare)}),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: uint16(gSquare), DX: 10, DY: -20}),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: uint16(gSquare), Transform: [4]float64{0.5, 0, 0, 0.5}}),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: uint16(gSelfRef)}),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: uint16(gCycleB)}),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: uint16(gSquare)}, fonttest.Component{Glyph: uint16(gCycleA)}),
		fonttest.RepeatedFlagsGlyph(staircase),
		fonttest.CompositeGlyph(
			fonttest.Component{Glyph: uint16(gSquare)},
			fonttest.Component{Glyph: uint16(gSquare), Matched: true, DX: 2, DY: 0},
		),
		fonttest.SimpleGlyph([]fonttest.Pt{
			fonttest.On(0, 0), fonttest.Off(100, 0), fonttest.Off(100, 100), fonttest.On(0, 100),
		}),
		fonttest.CompositeGlyph(fonttest.Component{Glyph: 99}),
	}}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	return otf
}

func TestGlyfAllOffCurveContour(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	path, err := otf.GlyphPath(gOffCurve)
	require.NoError(t, err)
	n := len(offCurvePentagon)
	require.Equal(t, n+2, path.Len())
	segs := path.Segments
	assert.Equal(t, MoveTo, segs[0].Op)
	assert.Equal(t, ClosePath, segs[n+1].Op)
	quads := segs[1 : n+1]
	for _, s := range quads {
		require.Equal(t, QuadTo, s.Op)
	}
	// the implied on-curve points lie halfway between consecutive controls,
	// and the original points are recovered from the control points
	first, last := offCurvePentagon[0], offCurvePentagon[n-1]
	assert.Equal(t, Point{float64(first.X+last.X) / 2, float64(first.Y+last.Y) / 2}, segs[0].End())
	for i, s := range quads {
		pt := offCurvePentagon[i]
		assert.Equal(t, Point{float64(pt.X), float64(pt.Y)}, s.Args[0], "control point %d", i)
		next := quads[(i+1)%n].Args[0]
		want := Point{(s.Args[0].X + next.X) / 2, (s.Args[0].Y + next.Y) / 2}
		if i == n-1 {
			want = segs[0].End()
		}
		assert.Equal(t, want, s.End(), "implied point after control %d", i)
	}
}

func TestGlyfMixedContour(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	path, err := otf.GlyphPath(gMixed)
	require.NoError(t, err)
	ops := make([]PathOp, path.Len())
	for i, s := range path.Segments {
		ops[i] = s.Op
	}
	assert.Equal(t, []PathOp{MoveTo, LineTo, QuadTo, QuadTo, ClosePath}, ops)
	assert.Equal(t, Point{0, 100}, path.Segments[0].End())
	assert.Equal(t, Point{100, 50}, path.Segments[2].End())
	assert.Equal(t, Point{0, 100}, path.Segments[3].End())
}

func TestGlyfSquare(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	path, err := otf.GlyphPath(gSquare)
	require.NoError(t, err)
	require.Equal(t, 5, path.Len())
	assert.Equal(t, Point{0, 100}, path.Segments[0].End())
	assert.Equal(t, Point{0, 0}, path.Segments[1].End())
	xmin, ymin, xmax, ymax := path.BoundingBox()
	assert.Equal(t, [4]float64{0, 0, 100, 100}, [4]float64{xmin, ymin, xmax, ymax})
}

func TestGlyfOutlineComputedOnce(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	g := otf.Glyph(gScaled)
	decode := g.decode
	var calls atomic.Int32
	g.decode = func(gid GlyphIndex) (*Path, error) {
		calls.Add(1)
		return decode(gid)
	}
	var wg sync.WaitGroup
	paths := make([]*Path, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], _ = otf.GlyphPath(gScaled)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	require.NotNil(t, paths[0])
	for _, p := range paths[1:] {
		assert.Equal(t, paths[0], p)
	}
}

func TestGlyfOutlineIsCopied(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	p, err := otf.GlyphPath(gScaled)
	require.NoError(t, err)
	n := p.Len()
	require.Greater(t, n, 0)
	p.Append(p)
	p.Segments[0].Args[0] = Point{-1, -1}
	q, err := otf.GlyphPath(gScaled)
	require.NoError(t, err)
	assert.NotSame(t, p, q)
	assert.Equal(t, n, q.Len())
	assert.NotEqual(t, Point{-1, -1}, q.Segments[0].Args[0])
}

func TestGlyfEmptyGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	path, err := otf.GlyphPath(0)
	require.NoError(t, err)
	assert.Equal(t, 0, path.Len())
}

func TestGlyfIdentityComposite(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	square, err := otf.GlyphPath(gSquare)
	require.NoError(t, err)
	composite, err := otf.GlyphPath(gIdentity)
	require.NoError(t, err)
	assert.Equal(t, square, composite)
	comps, err := otf.Components(gIdentity)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, gSquare, comps[0].Glyph)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, [4]float64{comps[0].XX, comps[0].XY, comps[0].YX, comps[0].YY})
}

func TestGlyfCompositeTransforms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	square, err := otf.GlyphPath(gSquare)
	require.NoError(t, err)
	shifted, err := otf.GlyphPath(gShifted)
	require.NoError(t, err)
	assert.Equal(t, square.Transform(1, 0, 0, 1, 10, -20), shifted)
	scaled, err := otf.GlyphPath(gScaled)
	require.NoError(t, err)
	assert.Equal(t, square.Transform(0.5, 0, 0, 0.5, 0, 0), scaled)
}

func TestGlyfMatchedPoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	contours, err := otf.Contours(gMatched)
	require.NoError(t, err)
	require.Len(t, contours, 2)
	// point 0 of the second square sits on point 2 of the first one
	assert.Equal(t, contours[0][2].Point, contours[1][0].Point)
	assert.Equal(t, Point{100, 100}, contours[1][0].Point)
	assert.Equal(t, Point{200, 200}, contours[1][2].Point)
	comps, err := otf.Components(gMatched)
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.True(t, comps[1].Matched)
	assert.Equal(t, 2, comps[1].ParentPoint)
	assert.Equal(t, 0, comps[1].ChildPoint)
}

func TestGlyfCompositeCycles(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	for _, gid := range []GlyphIndex{gSelfRef, gCycleA, gCycleB, gDangling} {
		path, err := otf.GlyphPath(gid)
		assert.Nil(t, path, "glyph %d", gid)
		assert.True(t, errors.Is(err, ErrGlyphOutline), "glyph %d: %v", gid, err)
	}
	// the font stays usable
	_, err := otf.GlyphPath(gSquare)
	assert.NoError(t, err)
}

func TestGlyfRepeatedFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := glyfFont(t)
	contours, err := otf.Contours(gRepeated)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	require.Len(t, contours[0], len(staircase))
	for i, pt := range staircase {
		assert.Equal(t, ContourPoint{Point: Point{float64(pt.X), float64(pt.Y)}, OnCurve: pt.On}, contours[0][i], "point %d", i)
	}
}

func TestGlyfTruncatedRecord(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	square := fonttest.Square(0, 0, 100)
	tt := fonttest.TrueType{Glyphs: [][]byte{{}, square[:len(square)-6]}}
	otf, err := Parse(tt.Build())
	require.NoError(t, err)
	_, err = otf.GlyphPath(1)
	var fe FontError
	require.True(t, errors.As(err, &fe), "error = %v", err)
	assert.Equal(t, 1, fe.Glyph)
	assert.True(t, errors.Is(err, ErrGlyphOutline))
}
