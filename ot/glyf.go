package ot

import (
	"fmt"
)

// --- TrueType glyph outlines -----------------------------------------------

// Flags of simple glyph points.
const (
	glyfOnCurve      = 0x01
	glyfXShort       = 0x02
	glyfYShort       = 0x04
	glyfRepeat       = 0x08
	glyfXSameOrPlus  = 0x10
	glyfYSameOrPlus  = 0x20
	glyfOverlapShape = 0x40
)

// Flags of composite glyph components.
const (
	compArgsAreWords    = 0x0001
	compArgsAreXY       = 0x0002
	compRoundXYToGrid   = 0x0004
	compHaveScale       = 0x0008
	compMoreComponents  = 0x0020
	compHaveXYScale     = 0x0040
	compHaveTwoByTwo    = 0x0080
	compHaveInstruction = 0x0100
	compUseMyMetrics    = 0x0200
)

// MaxCompositeDepth limits the nesting of composite glyphs.
const MaxCompositeDepth = 16

// ContourPoint is a point of a TrueType contour.
type ContourPoint struct {
	Point
	OnCurve bool
}

// GlyphComponent is one reference of a composite glyph to another glyph.
// The component is placed by the 2×2 matrix (XX XY; YX YY), followed either
// by an offset (DX, DY) or by aligning point ChildPoint of the component
// with point ParentPoint of the glyph assembled so far.
type GlyphComponent struct {
	Glyph          GlyphIndex
	Flags          uint16
	XX, XY, YX, YY float64
	DX, DY         float64
	Matched        bool // placed by point matching
	ParentPoint    int
	ChildPoint     int
}

// ttGlyph is the undecorated content of a glyph record in table glyf.
type ttGlyph struct {
	XMin, YMin, XMax, YMax int16
	points                 []ContourPoint
	endPoints              []int // index of last point of each contour
	components             []GlyphComponent
	instructions           []byte
}

func (g *ttGlyph) isComposite() bool {
	return len(g.components) > 0
}

// decodeGlyf decodes a single glyph record. An empty record is a glyph
// without outline (e.g., space).
func decodeGlyf(data []byte, gid GlyphIndex) (*ttGlyph, error) {
	g := &ttGlyph{}
	if len(data) == 0 {
		return g, nil
	}
	p := NewParser(data, 0)
	n := int(p.I16())
	g.XMin, g.YMin, g.XMax, g.YMax = p.I16(), p.I16(), p.I16(), p.I16()
	if p.Err() != nil {
		return nil, glyphError(T("glyf"), "Header", gid, ErrGlyphOutline, "glyph header truncated")
	}
	if n >= 0 {
		return g, decodeSimpleGlyf(p, g, n, gid)
	}
	return g, decodeCompositeGlyf(p, g, gid)
}

func decodeSimpleGlyf(p *Parser, g *ttGlyph, ncontours int, gid GlyphIndex) error {
	fail := func(format string, args ...any) error {
		return glyphError(T("glyf"), "SimpleGlyph", gid, ErrGlyphOutline, format, args...)
	}
	endPts := p.U16List(ncontours)
	if p.Err() != nil {
		return fail("contour end points truncated")
	}
	g.endPoints = make([]int, ncontours)
	for i, e := range endPts {
		g.endPoints[i] = int(e)
		if i > 0 && g.endPoints[i] <= g.endPoints[i-1] {
			return fail("contour end points not ascending")
		}
	}
	npoints := 0
	if ncontours > 0 {
		npoints = g.endPoints[ncontours-1] + 1
	}
	insLen := int(p.U16())
	g.instructions = p.Raw(insLen)
	if p.Err() != nil {
		return fail("instructions truncated")
	}
	flags := make([]uint8, 0, npoints)
	for len(flags) < npoints {
		f := p.U8()
		flags = append(flags, f)
		if f&glyfRepeat != 0 {
			for r := int(p.U8()); r > 0 && len(flags) < npoints; r-- {
				flags = append(flags, f)
			}
		}
		if p.Err() != nil {
			return fail("flags truncated")
		}
	}
	g.points = make([]ContourPoint, npoints)
	coord := func(short, sameOrPlus uint8, set func(i int, v float64)) {
		var v int
		for i, f := range flags {
			switch {
			case f&short != 0:
				d := int(p.U8())
				if f&sameOrPlus == 0 {
					d = -d
				}
				v += d
			case f&sameOrPlus == 0:
				v += int(p.I16())
			}
			set(i, float64(v))
		}
	}
	coord(glyfXShort, glyfXSameOrPlus, func(i int, v float64) { g.points[i].X = v })
	coord(glyfYShort, glyfYSameOrPlus, func(i int, v float64) { g.points[i].Y = v })
	if p.Err() != nil {
		return fail("coordinates truncated")
	}
	for i, f := range flags {
		g.points[i].OnCurve = f&glyfOnCurve != 0
	}
	return nil
}

func decodeCompositeGlyf(p *Parser, g *ttGlyph, gid GlyphIndex) error {
	for {
		c := GlyphComponent{XX: 1, YY: 1}
		c.Flags = p.U16()
		c.Glyph = GlyphIndex(p.U16())
		var a1, a2 int
		switch {
		case c.Flags&compArgsAreWords != 0 && c.Flags&compArgsAreXY != 0:
			a1, a2 = int(p.I16()), int(p.I16())
		case c.Flags&compArgsAreWords != 0:
			a1, a2 = int(p.U16()), int(p.U16())
		case c.Flags&compArgsAreXY != 0:
			a1, a2 = int(p.I8()), int(p.I8())
		default:
			a1, a2 = int(p.U8()), int(p.U8())
		}
		switch {
		case c.Flags&compHaveScale != 0:
			c.XX = p.F2Dot14()
			c.YY = c.XX
		case c.Flags&compHaveXYScale != 0:
			c.XX, c.YY = p.F2Dot14(), p.F2Dot14()
		case c.Flags&compHaveTwoByTwo != 0:
			c.XX, c.XY, c.YX, c.YY = p.F2Dot14(), p.F2Dot14(), p.F2Dot14(), p.F2Dot14()
		}
		if c.Flags&compArgsAreXY != 0 {
			c.DX, c.DY = float64(a1), float64(a2)
		} else {
			c.Matched, c.ParentPoint, c.ChildPoint = true, a1, a2
		}
		if p.Err() != nil {
			return glyphError(T("glyf"), "CompositeGlyph", gid, ErrGlyphOutline,
				"component record %d truncated", len(g.components))
		}
		g.components = append(g.components, c)
		if c.Flags&compMoreComponents == 0 {
			break
		}
	}
	if g.components[len(g.components)-1].Flags&compHaveInstruction != 0 {
		n := int(p.U16())
		g.instructions = p.Raw(n)
	}
	return nil
}

// ttOutline is a flattened sequence of contours, with composites resolved.
type ttOutline struct {
	points    []ContourPoint
	endPoints []int
}

func (o *ttOutline) append(q *ttOutline, c GlyphComponent) {
	base := len(o.points)
	for _, pt := range q.points {
		o.points = append(o.points, ContourPoint{
			Point: Point{
				X: c.XX*pt.X + c.YX*pt.Y + c.DX,
				Y: c.XY*pt.X + c.YY*pt.Y + c.DY,
			},
			OnCurve: pt.OnCurve,
		})
	}
	for _, e := range q.endPoints {
		o.endPoints = append(o.endPoints, base+e)
	}
}

// glyfSource resolves glyph records of table glyf via table loca.
type glyfSource struct {
	loca *LocaTable
	glyf binarySegm
}

func (src glyfSource) record(gid GlyphIndex) (*ttGlyph, error) {
	start, end, err := src.loca.Location(gid)
	if err != nil {
		return nil, glyphError(T("loca"), "Location", gid, ErrGlyphOutline, "%v", err)
	}
	data, err := src.glyf.view(int(start), int(end-start))
	if err != nil {
		return nil, glyphError(T("glyf"), "Location", gid, ErrGlyphOutline,
			"glyph range %d…%d exceeds table", start, end)
	}
	return decodeGlyf(data, gid)
}

// outline returns the contours of gid, resolving composite glyphs. The
// visiting set guards against component cycles; depth guards against
// excessive nesting.
func (src glyfSource) outline(gid GlyphIndex, depth int, visiting map[GlyphIndex]bool) (*ttOutline, error) {
	if depth > MaxCompositeDepth {
		return nil, glyphError(T("glyf"), "CompositeGlyph", gid, ErrGlyphOutline,
			"composite nesting exceeds %d levels", MaxCompositeDepth)
	}
	if visiting[gid] {
		return nil, glyphError(T("glyf"), "CompositeGlyph", gid, ErrGlyphOutline,
			"composite glyph references itself")
	}
	g, err := src.record(gid)
	if err != nil {
		return nil, err
	}
	if !g.isComposite() {
		return &ttOutline{points: g.points, endPoints: g.endPoints}, nil
	}
	visiting[gid] = true
	defer delete(visiting, gid)
	out := &ttOutline{}
	for _, c := range g.components {
		sub, err := src.outline(c.Glyph, depth+1, visiting)
		if err != nil {
			return nil, err
		}
		if c.Matched {
			if c.ParentPoint >= len(out.points) || c.ChildPoint >= len(sub.points) {
				return nil, glyphError(T("glyf"), "CompositeGlyph", gid, ErrGlyphOutline,
					"matched points %d/%d out of range", c.ParentPoint, c.ChildPoint)
			}
			// place the transformed child point onto the parent point
			child := sub.points[c.ChildPoint]
			parent := out.points[c.ParentPoint]
			c.DX = parent.X - (c.XX*child.X + c.YX*child.Y)
			c.DY = parent.Y - (c.XY*child.X + c.YY*child.Y)
		}
		out.append(sub, c)
	}
	return out, nil
}

// path converts the outline into a path of lines and quadratic curves.
// Between two consecutive off-curve points an on-curve point is implied at
// their midpoint.
func (o *ttOutline) path() *Path {
	path := &Path{}
	start := 0
	for _, end := range o.endPoints {
		if end >= len(o.points) || end < start {
			break
		}
		contourPath(path, o.points[start:end+1])
		start = end + 1
	}
	return path
}

func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// contourPath appends a single closed contour. The contour starts at its
// last point if that is on-curve, else at its first point if that is
// on-curve, else at the midpoint of last and first point.
func contourPath(path *Path, pts []ContourPoint) {
	n := len(pts)
	if n == 0 {
		return
	}
	var start Point
	var seq []ContourPoint
	last, first := pts[n-1], pts[0]
	switch {
	case last.OnCurve:
		start, seq = last.Point, pts[:n-1]
	case first.OnCurve:
		start, seq = first.Point, pts[1:]
	default:
		start, seq = midpoint(last.Point, first.Point), pts
	}
	path.MoveTo(start.X, start.Y)
	var ctrl *Point
	for i := range seq {
		pt := seq[i]
		if pt.OnCurve {
			if ctrl != nil {
				path.QuadTo(ctrl.X, ctrl.Y, pt.X, pt.Y)
				ctrl = nil
			} else {
				path.LineTo(pt.X, pt.Y)
			}
			continue
		}
		if ctrl != nil {
			m := midpoint(*ctrl, pt.Point)
			path.QuadTo(ctrl.X, ctrl.Y, m.X, m.Y)
		}
		ctrl = &seq[i].Point
	}
	if ctrl != nil {
		path.QuadTo(ctrl.X, ctrl.Y, start.X, start.Y)
	}
	path.Close()
}

// trueTypePath decodes the outline of gid from tables glyf and loca.
func (src glyfSource) trueTypePath(gid GlyphIndex) (*Path, error) {
	o, err := src.outline(gid, 0, make(map[GlyphIndex]bool))
	if err != nil {
		return nil, err
	}
	return o.path(), nil
}

// components returns the component references of a composite glyph, or
// nil for simple glyphs.
func (src glyfSource) components(gid GlyphIndex) ([]GlyphComponent, error) {
	g, err := src.record(gid)
	if err != nil {
		return nil, err
	}
	return g.components, nil
}

func (c GlyphComponent) String() string {
	if c.Matched {
		return fmt.Sprintf("glyph %d matched %d→%d", c.Glyph, c.ChildPoint, c.ParentPoint)
	}
	return fmt.Sprintf("glyph %d [%g %g %g %g] +(%g,%g)", c.Glyph, c.XX, c.XY, c.YX, c.YY, c.DX, c.DY)
}
