package otquery

import (
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/sfnt"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf  *ot.Font // with kern table
	gpos *ot.Font // with GPOS kerning and GDEF
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.query")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

// run once, before test suite methods
func (env *InfoTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	glyphs := [][]byte{
		fonttest.Square(0, 0, 0),
		fonttest.Square(50, 0, 400),
		fonttest.Square(20, -100, 500),
		nil, // space
	}
	tt := fonttest.TrueType{
		Glyphs:   glyphs,
		Names:    []string{".notdef", "A", "V", "space"},
		Advances: []uint16{500, 600, 550, 250},
		CMap:     map[rune]uint16{'A': 1, 'V': 2, ' ': 3, 'Å': 1},
		Family:   "Testfont",
		Extra:    map[string][]byte{"kern": fonttest.Kern(map[[2]uint16]int16{{1, 2}: -80})},
	}
	var err error
	env.otf, err = ot.Parse(tt.Build())
	env.Require().NoError(err)
	tt.Extra = map[string][]byte{
		"GDEF": fonttest.GDef(fonttest.ClassDef2([3]uint16{1, 2, 1})),
		"GPOS": fonttest.Layout{
			Scripts:  []fonttest.Script{{Tag: "latn", Features: []uint16{0}, Languages: map[string][]uint16{"DEU ": {0}}}},
			Features: []fonttest.Feature{{Tag: "kern", Lookups: []uint16{0}}},
			Lookups: []fonttest.Lookup{{Type: 2, Subtables: [][]byte{
				fonttest.PairPos1(map[[2]uint16]int16{{1, 2}: -60}),
			}}},
		}.Build(),
		"GSUB": fonttest.Layout{
			Scripts:  []fonttest.Script{{Tag: "latn", Languages: map[string][]uint16{"DEU ": {}}}},
			Features: []fonttest.Feature{},
		}.Build(),
	}
	env.gpos, err = ot.Parse(tt.Build())
	env.Require().NoError(err)
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestFontTypeInfo() {
	fti := FontType(env.otf)
	env.Equal("TrueType", fti, "expected font type of test font to be TrueType")
}

func (env *InfoTestEnviron) TestGeneralInfo() {
	info := NameInfo(env.otf, ot.DFLT)
	env.T().Logf("info = %v", info)
	fam, ok := info["family"]
	env.Require().True(ok, "font familiy identifier not found in font info")
	env.Equal("Testfont", fam, "expected font family name 'Testfont'")
	env.Equal("Regular", info["subfamily"])
	env.Equal("Testfont Regular", Name(env.otf, sfnt.NameIDFull))
	n := 0
	for id, name := range NamesRange(env.otf) {
		env.NotEmpty(name, "name %d", id)
		n++
	}
	env.Equal(3, n)
}

func (env *InfoTestEnviron) TestFontMetrics() {
	m := FontMetrics(env.otf)
	env.Equal(sfnt.Units(1000), m.UnitsPerEm)
	env.Equal(sfnt.Units(800), m.Ascent)
	env.Equal(sfnt.Units(-200), m.Descent)
	env.Equal(sfnt.Units(1000), m.LineHeight()-m.LineGap)
}

func (env *InfoTestEnviron) TestLayoutInfo() {
	env.Empty(LayoutTables(env.otf))
	layouts := LayoutTables(env.gpos)
	env.T().Logf("test font layout tables: %v", layouts)
	for _, reqt := range []string{"GDEF", "GSUB", "GPOS"} {
		env.Contains(layouts, reqt, "expected test font to contain required table %s", reqt)
	}
}

func (env *InfoTestEnviron) TestFontSupportsScript() {
	scr, lang := FontSupportsScript(env.gpos, ot.T("latn"), ot.T("DEU"))
	env.Equal(ot.T("latn"), scr)
	env.Equal(ot.T("DEU"), lang)
	scr, lang = FontSupportsScript(env.gpos, ot.T("latn"), ot.T("TRK"))
	env.Equal(ot.T("latn"), scr)
	env.Equal(ot.DFLT, lang)
	scr, _ = FontSupportsScript(env.gpos, ot.T("arab"), 0)
	env.Equal(ot.DFLT, scr)
}

func (env *InfoTestEnviron) TestGlyphLookup() {
	env.Equal(ot.GlyphIndex(2), GlyphIndex(env.otf, 'V'))
	env.Equal(ot.GlyphIndex(0), GlyphIndex(env.otf, 'x'))
	r := CodePointForGlyph(env.otf, 1)
	env.Equal('A', r, "expected code-point to be %#U, is %#U", 'A', r)
	env.Equal(rune(0), CodePointForGlyph(env.otf, 0))
	env.Equal("V", GlyphName(env.otf, 2))
}

func (env *InfoTestEnviron) TestGlyphClasses() {
	env.Equal(ot.BaseGlyph, GlyphClass(env.gpos, 1))
	env.Equal(ot.GlyphClassDefEnum(0), GlyphClass(env.gpos, 3))
	env.Equal(ot.GlyphClassDefEnum(0), GlyphClass(env.otf, 1))
}

func (env *InfoTestEnviron) TestGlyphMetrics() {
	m := GlyphMetrics(env.otf, 1)
	env.Equal(sfnt.Units(600), m.Advance)
	env.Equal(BoundingBox{MinX: 50, MinY: 0, MaxX: 450, MaxY: 400}, m.BBox)
	env.Equal(sfnt.Units(400), m.BBox.Dx())
	env.Equal(m.Advance-(m.LSB+400), m.RSB)
	space := GlyphMetrics(env.otf, 3)
	env.True(space.BBox.IsEmpty())
	env.Equal(sfnt.Units(0), space.RSB)
}

func (env *InfoTestEnviron) TestKerning() {
	env.Equal(sfnt.Units(-80), Kerning(env.otf, ot.T("latn"), 1, 2))
	env.Equal(sfnt.Units(0), Kerning(env.otf, ot.T("latn"), 2, 1))
	// GPOS takes precedence
	env.Equal(sfnt.Units(-60), Kerning(env.gpos, ot.T("latn"), 1, 2))
}

func (env *InfoTestEnviron) TestAdvances() {
	pos, total := Advances(env.otf, ot.T("latn"), []ot.GlyphIndex{1, 2, 3})
	env.Require().Len(pos, 3)
	env.Equal(sfnt.Units(520), pos[0].Advance)
	env.Equal(sfnt.Units(-80), pos[0].Kern)
	env.Equal(sfnt.Units(520), pos[1].X)
	env.Equal(sfnt.Units(1070), pos[2].X)
	env.Equal(sfnt.Units(520+550+250), total)
}
