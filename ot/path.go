package ot

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/image/math/fixed"
)

// PathOp is the operation of a path segment.
type PathOp uint8

const (
	MoveTo    PathOp = 'M'
	LineTo    PathOp = 'L'
	QuadTo    PathOp = 'Q' // quadratic Bézier curve, one control point
	CubeTo    PathOp = 'C' // cubic Bézier curve, two control points
	ClosePath PathOp = 'Z'
)

// points returns the number of points an operation takes.
func (op PathOp) points() int {
	switch op {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubeTo:
		return 3
	}
	return 0
}

// Point is a point in font units.
type Point struct {
	X, Y float64
}

// Segment is a single drawing command. Args holds control points first and
// the end point last; unused entries are zero.
type Segment struct {
	Op   PathOp
	Args [3]Point
}

// End returns the end point of a segment.
func (s Segment) End() Point {
	switch s.Op {
	case QuadTo:
		return s.Args[1]
	case CubeTo:
		return s.Args[2]
	}
	return s.Args[0]
}

// Path is a glyph outline in font units, y pointing up.
type Path struct {
	Segments []Segment
}

// MoveTo starts a new contour.
func (p *Path) MoveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: MoveTo, Args: [3]Point{{x, y}}})
}

// LineTo appends a straight line.
func (p *Path) LineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: LineTo, Args: [3]Point{{x, y}}})
}

// QuadTo appends a quadratic curve.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: QuadTo, Args: [3]Point{{cx, cy}, {x, y}}})
}

// CubeTo appends a cubic curve.
func (p *Path) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: CubeTo, Args: [3]Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Close closes the current contour.
func (p *Path) Close() {
	p.Segments = append(p.Segments, Segment{Op: ClosePath})
}

// Len returns the number of segments.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Segments)
}

// Transform returns a copy of p with every point mapped by the affine
// transformation (xx xy; yx yy) plus offset (dx, dy).
func (p *Path) Transform(xx, xy, yx, yy, dx, dy float64) *Path {
	out := &Path{Segments: make([]Segment, len(p.Segments))}
	for i, s := range p.Segments {
		out.Segments[i].Op = s.Op
		for j, pt := range s.Args[:s.Op.points()] {
			out.Segments[i].Args[j] = Point{
				X: xx*pt.X + yx*pt.Y + dx,
				Y: xy*pt.X + yy*pt.Y + dy,
			}
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	return &Path{Segments: slices.Clone(p.Segments)}
}

// Append appends all segments of q.
func (p *Path) Append(q *Path) {
	if q != nil {
		p.Segments = append(p.Segments, q.Segments...)
	}
}

// BoundingBox returns the exact bounds of the outline, including curve
// extrema. An empty path yields a zero box.
func (p *Path) BoundingBox() (xmin, ymin, xmax, ymax float64) {
	if p.Len() == 0 {
		return
	}
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	add := func(pt Point) {
		xmin, xmax = math.Min(xmin, pt.X), math.Max(xmax, pt.X)
		ymin, ymax = math.Min(ymin, pt.Y), math.Max(ymax, pt.Y)
	}
	var cur, start Point
	for _, s := range p.Segments {
		switch s.Op {
		case MoveTo:
			cur, start = s.Args[0], s.Args[0]
			add(cur)
		case LineTo:
			cur = s.Args[0]
			add(cur)
		case QuadTo:
			// elevate to cubic
			c1 := Point{cur.X + 2.0/3.0*(s.Args[0].X-cur.X), cur.Y + 2.0/3.0*(s.Args[0].Y-cur.Y)}
			c2 := Point{s.Args[1].X + 2.0/3.0*(s.Args[0].X-s.Args[1].X), s.Args[1].Y + 2.0/3.0*(s.Args[0].Y-s.Args[1].Y)}
			cubicExtrema(cur, c1, c2, s.Args[1], add)
			cur = s.Args[1]
		case CubeTo:
			cubicExtrema(cur, s.Args[0], s.Args[1], s.Args[2], add)
			cur = s.Args[2]
		case ClosePath:
			cur = start
		}
	}
	if math.IsInf(xmin, 1) {
		return 0, 0, 0, 0
	}
	return
}

// cubicExtrema reports the end points and the extreme points of a cubic curve.
func cubicExtrema(p0, p1, p2, p3 Point, add func(Point)) {
	add(p0)
	add(p3)
	bezier := func(t, a, b, c, d float64) float64 {
		mt := 1 - t
		return mt*mt*mt*a + 3*mt*mt*t*b + 3*mt*t*t*c + t*t*t*d
	}
	roots := func(a, b, c, d float64) []float64 {
		// derivative coefficients of the cubic polynomial
		qa := -a + 3*b - 3*c + d
		qb := 2 * (a - 2*b + c)
		qc := b - a
		if math.Abs(qa) < 1e-12 {
			if math.Abs(qb) < 1e-12 {
				return nil
			}
			return []float64{-qc / qb}
		}
		disc := qb*qb - 4*qa*qc
		if disc < 0 {
			return nil
		}
		sq := math.Sqrt(disc)
		return []float64{(-qb + sq) / (2 * qa), (-qb - sq) / (2 * qa)}
	}
	for _, t := range roots(p0.X, p1.X, p2.X, p3.X) {
		if t > 0 && t < 1 {
			add(Point{bezier(t, p0.X, p1.X, p2.X, p3.X), bezier(t, p0.Y, p1.Y, p2.Y, p3.Y)})
		}
	}
	for _, t := range roots(p0.Y, p1.Y, p2.Y, p3.Y) {
		if t > 0 && t < 1 {
			add(Point{bezier(t, p0.X, p1.X, p2.X, p3.X), bezier(t, p0.Y, p1.Y, p2.Y, p3.Y)})
		}
	}
}

// Drawer receives drawing commands in device space. It matches the
// method set of golang.org/x/image/vector.Rasterizer.
type Drawer interface {
	MoveTo(x, y float32)
	LineTo(x, y float32)
	QuadTo(cx, cy, x, y float32)
	CubeTo(c1x, c1y, c2x, c2y, x, y float32)
	ClosePath()
}

// Draw replays the path on d, scaled by scale and translated by (dx, dy).
// The y axis is flipped, as device space points downwards.
func (p *Path) Draw(d Drawer, scale, dx, dy float64) {
	tr := func(pt Point) (float32, float32) {
		return float32(pt.X*scale + dx), float32(dy - pt.Y*scale)
	}
	for _, s := range p.Segments {
		switch s.Op {
		case MoveTo:
			d.MoveTo(tr(s.Args[0]))
		case LineTo:
			d.LineTo(tr(s.Args[0]))
		case QuadTo:
			cx, cy := tr(s.Args[0])
			x, y := tr(s.Args[1])
			d.QuadTo(cx, cy, x, y)
		case CubeTo:
			c1x, c1y := tr(s.Args[0])
			c2x, c2y := tr(s.Args[1])
			x, y := tr(s.Args[2])
			d.CubeTo(c1x, c1y, c2x, c2y, x, y)
		case ClosePath:
			d.ClosePath()
		}
	}
}

// Bounds26_6 returns the bounding box scaled by scale, in 26.6 fixed-point
// device coordinates (y pointing down).
func (p *Path) Bounds26_6(scale float64) fixed.Rectangle26_6 {
	xmin, ymin, xmax, ymax := p.BoundingBox()
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: fixed.Int26_6(math.Floor(xmin * scale * 64)), Y: fixed.Int26_6(math.Floor(-ymax * scale * 64))},
		Max: fixed.Point26_6{X: fixed.Int26_6(math.Ceil(xmax * scale * 64)), Y: fixed.Int26_6(math.Ceil(-ymin * scale * 64))},
	}
}

// String returns the path in SVG path syntax, y axis unflipped.
func (p *Path) String() string {
	parts := make([]string, 0, len(p.Segments))
	for _, s := range p.Segments {
		var n int
		switch s.Op {
		case MoveTo, LineTo:
			n = 1
		case QuadTo:
			n = 2
		case CubeTo:
			n = 3
		}
		cmd := string(rune(s.Op))
		for _, pt := range s.Args[:n] {
			cmd += fmt.Sprintf(" %g %g", pt.X, pt.Y)
		}
		parts = append(parts, cmd)
	}
	return strings.Join(parts, " ")
}
