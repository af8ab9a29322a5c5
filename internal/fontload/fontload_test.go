package fontload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/fontshape/internal/fonttest"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFont() fonttest.TrueType {
	return fonttest.TrueType{
		Glyphs: [][]byte{fonttest.Square(0, 0, 10), fonttest.Square(0, 0, 100)},
		CMap:   map[rune]uint16{'A': 1},
		Family: "Loadable",
	}
}

func TestParseOpenTypeFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	f, err := ParseOpenTypeFont(testFont().Build())
	require.NoError(t, err)
	require.NotNil(t, f.OTF)
	assert.Equal(t, "Loadable Regular", f.Fontname)
	assert.Equal(t, 2, f.OTF.NumGlyphs())
	//
	woff := fonttest.WOFF(fonttest.SigTrueType, testFont().Tables(), true)
	f, err = ParseOpenTypeFont(woff)
	require.NoError(t, err)
	assert.Nil(t, f.SFNT)
	assert.Equal(t, ot.WOFFContainer, f.OTF.Header.Container)
	assert.Equal(t, "Loadable Regular", f.Fontname)
	//
	_, err = ParseOpenTypeFont([]byte("no font"))
	assert.Error(t, err)
}

func TestLoadOpenTypeFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "loadable.ttf")
	require.NoError(t, os.WriteFile(path, testFont().Build(), 0o644))
	f, err := LoadOpenTypeFont(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Filepath)
	assert.Equal(t, "Loadable Regular", f.Fontname)
}

func TestLocate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	_, err := Locate("  ")
	assert.ErrorIs(t, err, ErrNoFont)
	_, err = Locate("no-such-font-anywhere-4711.ttf")
	assert.ErrorIs(t, err, ErrNoFont)
	path := filepath.Join(t.TempDir(), "x.otf")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
	p, err := Locate(path)
	require.NoError(t, err)
	assert.Equal(t, path, p)
}
