package ot

import (
	"sync"
)

// Glyph is a glyph of a font. Its outline is decoded on first access and
// cached; concurrent access is safe.
type Glyph struct {
	ID       GlyphIndex
	Name     Option[string] // from table post or the CFF charset
	Advance  uint16         // advance width in font units
	LSB      int16          // left side bearing in font units
	Unicodes []rune         // code points mapping to this glyph through the cmap
	once     sync.Once
	path     *Path
	err      error
	decode   func(GlyphIndex) (*Path, error)
}

// Path returns the outline of the glyph, in font units. Glyphs without
// outline (e.g., space) return an empty path. Decoding errors are reported
// for every call.
//
// The outline is decoded once; every call returns a fresh copy of it, which
// the caller may modify.
func (g *Glyph) Path() (*Path, error) {
	g.once.Do(func() {
		g.path, g.err = g.decode(g.ID)
		if g.err != nil {
			tracer().Infof("glyph %d: %v", g.ID, g.err)
		}
	})
	return g.path.Clone(), g.err
}

// GlyphSet is the arena of all glyphs of a font, indexed by glyph ID.
type GlyphSet struct {
	glyphs []*Glyph
}

// Get returns the glyph with index gid, or nil if gid is out of range.
func (gs *GlyphSet) Get(gid GlyphIndex) *Glyph {
	if gs == nil || int(gid) >= len(gs.glyphs) {
		return nil
	}
	return gs.glyphs[gid]
}

// Len returns the number of glyphs.
func (gs *GlyphSet) Len() int {
	if gs == nil {
		return 0
	}
	return len(gs.glyphs)
}

// newGlyphSet creates glyph records for all glyphs of otf. Outlines are
// decoded by glyf/loca or by the CFF charstring interpreter, depending on
// the font's flavor.
func newGlyphSet(otf *Font) *GlyphSet {
	var decode func(GlyphIndex) (*Path, error)
	switch {
	case otf.CFF != nil:
		decode = func(gid GlyphIndex) (*Path, error) {
			p, _, err := otf.CFF.charstringPath(gid)
			return p, err
		}
	case otf.Loca != nil:
		src := glyfSource{loca: otf.Loca, glyf: otf.glyf}
		decode = src.trueTypePath
	default:
		decode = func(gid GlyphIndex) (*Path, error) {
			return nil, glyphError(0, "Glyph", gid, ErrGlyphOutline, "font has no outlines")
		}
	}
	n := otf.NumGlyphs()
	gs := &GlyphSet{glyphs: make([]*Glyph, n)}
	for i := range gs.glyphs {
		gid := GlyphIndex(i)
		g := &Glyph{ID: gid, decode: decode}
		g.Advance, g.LSB, _ = otf.HMtx.HMetrics(gid)
		if name := otf.Post.GlyphName(gid); name.IsSome() {
			g.Name = name
		} else {
			g.Name = otf.CFF.GlyphName(gid)
		}
		gs.glyphs[i] = g
	}
	if otf.CMap != nil && otf.CMap.GlyphIndexMap != nil {
		for r, gid := range otf.CMap.GlyphIndexMap.Range() {
			if int(gid) < n {
				gs.glyphs[gid].Unicodes = append(gs.glyphs[gid].Unicodes, r)
			}
		}
	}
	return gs
}

// Components returns the component references of a composite TrueType
// glyph. Simple glyphs and CFF glyphs have no components.
func (otf *Font) Components(gid GlyphIndex) ([]GlyphComponent, error) {
	if otf.Loca == nil {
		return nil, nil
	}
	return glyfSource{loca: otf.Loca, glyf: otf.glyf}.components(gid)
}

// Contours returns the contour points of a TrueType glyph, with composite
// glyphs resolved into the points of their components.
func (otf *Font) Contours(gid GlyphIndex) ([][]ContourPoint, error) {
	if otf.Loca == nil {
		return nil, nil
	}
	o, err := glyfSource{loca: otf.Loca, glyf: otf.glyf}.outline(gid, 0, make(map[GlyphIndex]bool))
	if err != nil {
		return nil, err
	}
	contours := make([][]ContourPoint, 0, len(o.endPoints))
	start := 0
	for _, end := range o.endPoints {
		if end >= len(o.points) || end < start {
			break
		}
		contours = append(contours, o.points[start:end+1])
		start = end + 1
	}
	return contours, nil
}
