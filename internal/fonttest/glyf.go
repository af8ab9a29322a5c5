package fonttest

import "strconv"

// Pt is a contour point of a TrueType glyph.
type Pt struct {
	X, Y int16
	On   bool
}

// On returns an on-curve point.
func On(x, y int16) Pt {
	return Pt{X: x, Y: y, On: true}
}

// Off returns an off-curve point.
func Off(x, y int16) Pt {
	return Pt{X: x, Y: y}
}

// SimpleGlyph encodes a simple glyph. Coordinates are written as 16-bit
// deltas without flag repetition.
func SimpleGlyph(contours ...[]Pt) []byte {
	var pts []Pt
	w := &Buf{}
	w.I16(int16(len(contours)))
	xmin, ymin, xmax, ymax := int16(32767), int16(32767), int16(-32768), int16(-32768)
	for _, c := range contours {
		pts = append(pts, c...)
	}
	for _, p := range pts {
		xmin, xmax = min(xmin, p.X), max(xmax, p.X)
		ymin, ymax = min(ymin, p.Y), max(ymax, p.Y)
	}
	if len(pts) == 0 {
		xmin, ymin, xmax, ymax = 0, 0, 0, 0
	}
	w.I16(xmin, ymin, xmax, ymax)
	end := -1
	for _, c := range contours {
		end += len(c)
		w.U16(uint16(end))
	}
	w.U16(0) // no instructions
	for _, p := range pts {
		var flag uint8
		if p.On {
			flag = 1
		}
		w.U8(flag)
	}
	var last int16
	for _, p := range pts {
		w.I16(p.X - last)
		last = p.X
	}
	last = 0
	for _, p := range pts {
		w.I16(p.Y - last)
		last = p.Y
	}
	return w.Data()
}

// RepeatedFlagsGlyph encodes a single contour using flag repetition and
// 1-byte coordinate deltas where possible.
func RepeatedFlagsGlyph(pts []Pt) []byte {
	w := &Buf{}
	w.I16(1, 0, 0, 0, 0).U16(uint16(len(pts)-1), 0)
	flags := make([]uint8, len(pts))
	var xs, ys Buf
	var lx, ly int16
	for i, p := range pts {
		if p.On {
			flags[i] |= 0x01
		}
		flags[i] |= deltaFlags(p.X-lx, 0x02, 0x10, &xs)
		flags[i] |= deltaFlags(p.Y-ly, 0x04, 0x20, &ys)
		lx, ly = p.X, p.Y
	}
	for i := 0; i < len(flags); {
		j := i + 1
		for j < len(flags) && flags[j] == flags[i] && j-i < 255 {
			j++
		}
		if j-i > 1 {
			w.U8(flags[i]|0x08, uint8(j-i-1))
		} else {
			w.U8(flags[i])
		}
		i = j
	}
	return w.Bytes(xs.Data()).Bytes(ys.Data()).Data()
}

func deltaFlags(d int16, short, same uint8, w *Buf) uint8 {
	switch {
	case d == 0:
		return same
	case d > 0 && d < 256:
		w.U8(uint8(d))
		return short | same
	case d < 0 && d > -256:
		w.U8(uint8(-d))
		return short
	}
	w.I16(d)
	return 0
}

// Component is a component reference of a composite glyph.
// If Matched is set, DX and DY are point numbers of the parent and the
// component. A non-zero Transform is written as a 2×2 matrix
// (xx, xy, yx, yy).
type Component struct {
	Glyph     uint16
	DX, DY    int16
	Matched   bool
	Transform [4]float64
}

// CompositeGlyph encodes a composite glyph.
func CompositeGlyph(comps ...Component) []byte {
	w := &Buf{}
	w.I16(-1, 0, 0, 0, 0)
	for i, c := range comps {
		flags := uint16(0x0001) // ARG_1_AND_2_ARE_WORDS
		if !c.Matched {
			flags |= 0x0002
		}
		if c.Transform != [4]float64{} {
			flags |= 0x0080
		}
		if i < len(comps)-1 {
			flags |= 0x0020
		}
		w.U16(flags, c.Glyph).I16(c.DX, c.DY)
		if flags&0x0080 != 0 {
			for _, v := range c.Transform {
				w.I16(F2Dot14(v))
			}
		}
	}
	return w.Data()
}

// F2Dot14 converts v to 2.14 fixed point.
func F2Dot14(v float64) int16 {
	return int16(v * 16384)
}

// GlyfLoca builds tables glyf and loca (long format) for glyph binaries.
// Empty binaries denote glyphs without outline.
func GlyfLoca(glyphs [][]byte) (glyf, loca []byte) {
	g, l := &Buf{}, &Buf{}
	for _, b := range glyphs {
		l.U32(uint32(g.Len()))
		g.Bytes(b)
		for g.Len()%2 != 0 {
			g.U8(0)
		}
	}
	l.U32(uint32(g.Len()))
	return g.Data(), l.Data()
}

// TrueType describes a synthetic TrueType font.
type TrueType struct {
	UnitsPerEm uint16
	Glyphs     [][]byte // glyph binaries, see SimpleGlyph and CompositeGlyph
	Names      []string // glyph names, put into table post
	Advances   []uint16
	CMap       map[rune]uint16
	Family     string
	Extra      map[string][]byte // additional tables, e.g. GSUB
	Omit       []string          // tables to leave out
}

// Tables returns the table binaries of a TrueType font.
func (tt TrueType) Tables() map[string][]byte {
	n := len(tt.Glyphs)
	upem := tt.UnitsPerEm
	if upem == 0 {
		upem = 1000
	}
	advances := tt.Advances
	if advances == nil {
		advances = make([]uint16, n)
		for i := range advances {
			advances[i] = 500
		}
	}
	names := tt.Names
	if names == nil {
		names = make([]string, n)
		names[0] = ".notdef"
		for i := 1; i < n; i++ {
			names[i] = "g" + strconv.Itoa(i)
		}
	}
	family := tt.Family
	if family == "" {
		family = "Test"
	}
	glyf, loca := GlyfLoca(tt.Glyphs)
	tables := map[string][]byte{
		"head": Head(upem, 1),
		"hhea": HHea(800, -200, uint16(n)),
		"maxp": MaxP(uint16(n), true),
		"hmtx": HMtx(advances),
		"cmap": CMap4(tt.CMap),
		"name": Name(map[uint16]string{1: family, 2: "Regular", 4: family + " Regular"}),
		"post": Post(names),
		"OS/2": OS2(400),
		"glyf": glyf,
		"loca": loca,
	}
	for tag, b := range tt.Extra {
		tables[tag] = b
	}
	for _, tag := range tt.Omit {
		delete(tables, tag)
	}
	return tables
}

// Build returns the font as an sfnt binary.
func (tt TrueType) Build() []byte {
	return SFNT(SigTrueType, tt.Tables())
}

// Square returns a simple glyph with one square contour, counter-clockwise.
func Square(x0, y0, size int16) []byte {
	return SimpleGlyph([]Pt{On(x0, y0), On(x0+size, y0), On(x0+size, y0+size), On(x0, y0+size)})
}
