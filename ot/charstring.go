package ot

import (
	"math"
)

// --- Type 2 charstrings ----------------------------------------------------

// Limits of the charstring interpreter.
const (
	MaxCharstringStack     = 48     // argument stack depth
	MaxCharstringCallDepth = 10     // nesting of subroutine calls
	MaxCharstringOps       = 100000 // operators executed per glyph
)

// subrBias returns the bias added to subroutine numbers for an INDEX of
// n subroutines.
func subrBias(n int) int {
	switch {
	case n < 1240:
		return 107
	case n < 33900:
		return 1131
	}
	return 32768
}

// t2Interpreter executes Type 2 charstrings, producing a path of cubic
// curves and the advance width of the glyph.
type t2Interpreter struct {
	cff        *CFFTable
	gid        GlyphIndex
	private    *CFFPrivateDict
	stack      [MaxCharstringStack]float64
	n          int // stack size
	transient  [32]float64
	x, y       float64
	nStems     int
	haveWidth  bool
	width      float64
	open       bool // subpath open
	path       *Path
	depth      int
	ops        int
	seed       uint32
	ended      bool
	inAccented bool
}

func (cff *CFFTable) charstringPath(gid GlyphIndex) (*Path, float64, error) {
	if int(gid) >= len(cff.charStrings) {
		return nil, 0, glyphError(T("CFF "), "CharString", gid, ErrCharstring, "no charstring for glyph")
	}
	private, err := cff.privateFor(gid)
	if err != nil {
		return nil, 0, err
	}
	ip := &t2Interpreter{
		cff:     cff,
		gid:     gid,
		private: private,
		path:    &Path{},
		seed:    uint32(gid)*2654435761 + 1,
	}
	ip.width = ip.private.DefaultWidthX
	if err := ip.run(cff.charStrings[gid]); err != nil {
		return nil, 0, err
	}
	if !ip.ended {
		return nil, 0, ip.error("charstring does not end with endchar")
	}
	return ip.path, ip.width, nil
}

func (ip *t2Interpreter) error(format string, args ...any) error {
	return glyphError(T("CFF "), "CharString", ip.gid, ErrCharstring, format, args...)
}

func (ip *t2Interpreter) push(v float64) error {
	if ip.n >= MaxCharstringStack {
		return ip.error("argument stack overflow")
	}
	ip.stack[ip.n] = v
	ip.n++
	return nil
}

func (ip *t2Interpreter) clear() {
	ip.n = 0
}

// takeWidth removes the optional width argument from the bottom of the
// stack. It applies to the first stack-clearing operator only; the width is
// present if the operator has an extra argument beyond the expected ones.
func (ip *t2Interpreter) takeWidth(extra bool) {
	if ip.haveWidth {
		return
	}
	ip.haveWidth = true
	if extra && ip.n > 0 {
		ip.width = ip.private.NominalWidthX + ip.stack[0]
		copy(ip.stack[:], ip.stack[1:ip.n])
		ip.n--
	}
}

func (ip *t2Interpreter) moveTo(dx, dy float64) {
	if ip.open {
		ip.path.Close()
	}
	ip.x += dx
	ip.y += dy
	ip.path.MoveTo(ip.x, ip.y)
	ip.open = true
}

func (ip *t2Interpreter) lineTo(dx, dy float64) {
	ip.x += dx
	ip.y += dy
	ip.path.LineTo(ip.x, ip.y)
}

func (ip *t2Interpreter) curveTo(dxa, dya, dxb, dyb, dxc, dyc float64) {
	x1, y1 := ip.x+dxa, ip.y+dya
	x2, y2 := x1+dxb, y1+dyb
	ip.x, ip.y = x2+dxc, y2+dyc
	ip.path.CubeTo(x1, y1, x2, y2, ip.x, ip.y)
}

// operand decodes a number starting at code[i]; it returns the value and
// the number of bytes consumed, or 0 bytes if code is truncated.
func operand(code []byte, i int) (float64, int) {
	b0 := code[i]
	switch {
	case b0 == 28:
		if i+3 > len(code) {
			return 0, 0
		}
		return float64(int16(u16(code[i+1:]))), 3
	case b0 >= 32 && b0 <= 246:
		return float64(int(b0) - 139), 1
	case b0 >= 247 && b0 <= 250:
		if i+2 > len(code) {
			return 0, 0
		}
		return float64((int(b0)-247)*256 + int(code[i+1]) + 108), 2
	case b0 >= 251 && b0 <= 254:
		if i+2 > len(code) {
			return 0, 0
		}
		return float64(-(int(b0)-251)*256 - int(code[i+1]) - 108), 2
	case b0 == 255:
		if i+5 > len(code) {
			return 0, 0
		}
		return float64(int32(u32(code[i+1:]))) / 65536, 5
	}
	return 0, 0
}

// run executes a charstring or subroutine. It returns when the code is
// exhausted, on return, or on endchar.
func (ip *t2Interpreter) run(code []byte) error {
	if ip.depth > MaxCharstringCallDepth {
		return ip.error("subroutine nesting exceeds %d", MaxCharstringCallDepth)
	}
	for i := 0; i < len(code) && !ip.ended; {
		if ip.ops++; ip.ops > MaxCharstringOps {
			return ip.error("charstring exceeds %d operations", MaxCharstringOps)
		}
		b0 := code[i]
		if b0 == 28 || b0 >= 32 {
			v, n := operand(code, i)
			if n == 0 {
				return ip.error("operand truncated at byte %d", i)
			}
			if err := ip.push(v); err != nil {
				return err
			}
			i += n
			continue
		}
		i++
		var err error
		switch b0 {
		case 1, 3, 18, 23: // hstem, vstem, hstemhm, vstemhm
			ip.takeWidth(ip.n%2 == 1)
			ip.nStems += ip.n / 2
			ip.clear()
		case 19, 20: // hintmask, cntrmask
			// pending arguments are an implicit vstem
			ip.takeWidth(ip.n%2 == 1)
			ip.nStems += ip.n / 2
			ip.clear()
			skip := (ip.nStems + 7) / 8
			if i+skip > len(code) {
				return ip.error("hintmask truncated")
			}
			i += skip
		case 21: // rmoveto
			ip.takeWidth(ip.n > 2)
			if err = ip.need(2); err == nil {
				ip.moveTo(ip.stack[0], ip.stack[1])
			}
			ip.clear()
		case 22: // hmoveto
			ip.takeWidth(ip.n > 1)
			if err = ip.need(1); err == nil {
				ip.moveTo(ip.stack[0], 0)
			}
			ip.clear()
		case 4: // vmoveto
			ip.takeWidth(ip.n > 1)
			if err = ip.need(1); err == nil {
				ip.moveTo(0, ip.stack[0])
			}
			ip.clear()
		case 5: // rlineto
			for j := 0; j+1 < ip.n; j += 2 {
				ip.lineTo(ip.stack[j], ip.stack[j+1])
			}
			ip.clear()
		case 6, 7: // hlineto, vlineto
			horizontal := b0 == 6
			for j := 0; j < ip.n; j++ {
				if horizontal {
					ip.lineTo(ip.stack[j], 0)
				} else {
					ip.lineTo(0, ip.stack[j])
				}
				horizontal = !horizontal
			}
			ip.clear()
		case 8: // rrcurveto
			for j := 0; j+5 < ip.n; j += 6 {
				s := ip.stack[j:]
				ip.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
			}
			ip.clear()
		case 24: // rcurveline
			j := 0
			for ; j+5 < ip.n-2; j += 6 {
				s := ip.stack[j:]
				ip.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
			}
			if j+1 < ip.n {
				ip.lineTo(ip.stack[j], ip.stack[j+1])
			}
			ip.clear()
		case 25: // rlinecurve
			j := 0
			for ; j+1 < ip.n-6; j += 2 {
				ip.lineTo(ip.stack[j], ip.stack[j+1])
			}
			if j+5 < ip.n {
				s := ip.stack[j:]
				ip.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
			}
			ip.clear()
		case 26: // vvcurveto
			j := 0
			var dx1 float64
			if ip.n%2 == 1 {
				dx1, j = ip.stack[0], 1
			}
			for ; j+3 < ip.n; j += 4 {
				s := ip.stack[j:]
				ip.curveTo(dx1, s[0], s[1], s[2], 0, s[3])
				dx1 = 0
			}
			ip.clear()
		case 27: // hhcurveto
			j := 0
			var dy1 float64
			if ip.n%2 == 1 {
				dy1, j = ip.stack[0], 1
			}
			for ; j+3 < ip.n; j += 4 {
				s := ip.stack[j:]
				ip.curveTo(s[0], dy1, s[1], s[2], s[3], 0)
				dy1 = 0
			}
			ip.clear()
		case 30, 31: // vhcurveto, hvcurveto
			ip.alternatingCurves(b0 == 31)
			ip.clear()
		case 10: // callsubr
			err = ip.callSubr(ip.private.localSubrs)
		case 29: // callgsubr
			err = ip.callSubr(ip.cff.globalSubrs)
		case 11: // return
			return nil
		case 14: // endchar
			err = ip.endChar()
		case 12:
			if i >= len(code) {
				return ip.error("escape operator truncated")
			}
			b1 := code[i]
			i++
			err = ip.escape(b1)
		default:
			return ip.error("reserved operator %d", b0)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ip *t2Interpreter) need(n int) error {
	if ip.n < n {
		return ip.error("stack underflow: %d arguments, need %d", ip.n, n)
	}
	return nil
}

// alternatingCurves draws curves starting horizontally (for hvcurveto) or
// vertically (for vhcurveto), alternating with every curve. A fifth
// argument of the last curve is the final offset in the other direction.
func (ip *t2Interpreter) alternatingCurves(horizontal bool) {
	for j := 0; j+3 < ip.n; j += 4 {
		s := ip.stack[j:ip.n]
		var last float64
		if len(s) == 5 {
			last = s[4]
		}
		if horizontal {
			ip.curveTo(s[0], 0, s[1], s[2], last, s[3])
		} else {
			ip.curveTo(0, s[0], s[1], s[2], s[3], last)
		}
		horizontal = !horizontal
	}
}

func (ip *t2Interpreter) callSubr(subrs [][]byte) error {
	if err := ip.need(1); err != nil {
		return err
	}
	ip.n--
	inx := int(ip.stack[ip.n]) + subrBias(len(subrs))
	if inx < 0 || inx >= len(subrs) {
		return ip.error("subroutine %d not present", inx)
	}
	ip.depth++
	err := ip.run(subrs[inx])
	ip.depth--
	return err
}

func (ip *t2Interpreter) endChar() error {
	ip.takeWidth(ip.n == 1 || ip.n == 5)
	if ip.n == 4 {
		if err := ip.accented(); err != nil {
			return err
		}
	}
	if ip.open {
		ip.path.Close()
		ip.open = false
	}
	ip.clear()
	ip.ended = true
	return nil
}

// accented handles the deprecated endchar variant which composes an
// accented character from two glyphs of the Standard Encoding.
func (ip *t2Interpreter) accented() error {
	if ip.inAccented || ip.cff.IsCID {
		return ip.error("nested or CID-keyed accented character")
	}
	adx, ady := ip.stack[0], ip.stack[1]
	bchar, achar := int(ip.stack[2]), int(ip.stack[3])
	if bchar < 0 || bchar > 255 || achar < 0 || achar > 255 {
		return ip.error("accented character codes out of range")
	}
	lookup := func(code int) (GlyphIndex, bool) {
		sid := cffStandardEncoding[code]
		for gid, s := range ip.cff.Charset {
			if s == sid && sid != 0 {
				return GlyphIndex(gid), true
			}
		}
		return 0, false
	}
	base, ok1 := lookup(bchar)
	accent, ok2 := lookup(achar)
	if !ok1 || !ok2 {
		return ip.error("accented character components not in charset")
	}
	for _, c := range []struct {
		gid    GlyphIndex
		dx, dy float64
	}{{base, 0, 0}, {accent, adx, ady}} {
		sub := &t2Interpreter{
			cff:        ip.cff,
			gid:        c.gid,
			private:    ip.private,
			path:       &Path{},
			inAccented: true,
			seed:       ip.seed,
		}
		if err := sub.run(ip.cff.charStrings[c.gid]); err != nil {
			return err
		}
		ip.path.Append(sub.path.Transform(1, 0, 0, 1, c.dx, c.dy))
	}
	return nil
}

// escape executes the two-byte operators 12 x.
func (ip *t2Interpreter) escape(op byte) error {
	s := ip.stack[:ip.n]
	switch op {
	case 35: // flex
		if err := ip.need(13); err != nil {
			return err
		}
		ip.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
		ip.curveTo(s[6], s[7], s[8], s[9], s[10], s[11])
		ip.clear()
	case 34: // hflex
		if err := ip.need(7); err != nil {
			return err
		}
		ip.curveTo(s[0], 0, s[1], s[2], s[3], 0)
		ip.curveTo(s[4], 0, s[5], -s[2], s[6], 0)
		ip.clear()
	case 36: // hflex1
		if err := ip.need(9); err != nil {
			return err
		}
		ip.curveTo(s[0], s[1], s[2], s[3], s[4], 0)
		ip.curveTo(s[5], 0, s[6], s[7], s[8], -(s[1] + s[3] + s[7]))
		ip.clear()
	case 37: // flex1
		if err := ip.need(11); err != nil {
			return err
		}
		var dx, dy float64
		for j := 0; j < 10; j += 2 {
			dx += s[j]
			dy += s[j+1]
		}
		ip.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
		if math.Abs(dx) > math.Abs(dy) {
			ip.curveTo(s[6], s[7], s[8], s[9], s[10], -dy)
		} else {
			ip.curveTo(s[6], s[7], s[8], s[9], -dx, s[10])
		}
		ip.clear()
	default:
		return ip.arithmetic(op)
	}
	return nil
}

// arithmetic executes the arithmetic, storage and conditional operators.
func (ip *t2Interpreter) arithmetic(op byte) error {
	unary := func(f func(a float64) float64) error {
		if err := ip.need(1); err != nil {
			return err
		}
		ip.stack[ip.n-1] = f(ip.stack[ip.n-1])
		return nil
	}
	binary := func(f func(a, b float64) float64) error {
		if err := ip.need(2); err != nil {
			return err
		}
		ip.stack[ip.n-2] = f(ip.stack[ip.n-2], ip.stack[ip.n-1])
		ip.n--
		return nil
	}
	truth := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case 3: // and
		return binary(func(a, b float64) float64 { return truth(a != 0 && b != 0) })
	case 4: // or
		return binary(func(a, b float64) float64 { return truth(a != 0 || b != 0) })
	case 5: // not
		return unary(func(a float64) float64 { return truth(a == 0) })
	case 9: // abs
		return unary(math.Abs)
	case 10: // add
		return binary(func(a, b float64) float64 { return a + b })
	case 11: // sub
		return binary(func(a, b float64) float64 { return a - b })
	case 12: // div
		if ip.n >= 2 && ip.stack[ip.n-1] == 0 {
			return ip.error("division by zero")
		}
		return binary(func(a, b float64) float64 { return a / b })
	case 14: // neg
		return unary(func(a float64) float64 { return -a })
	case 15: // eq
		return binary(func(a, b float64) float64 { return truth(a == b) })
	case 24: // mul
		return binary(func(a, b float64) float64 { return a * b })
	case 26: // sqrt
		return unary(func(a float64) float64 { return math.Sqrt(math.Abs(a)) })
	case 18: // drop
		if err := ip.need(1); err != nil {
			return err
		}
		ip.n--
	case 27: // dup
		if err := ip.need(1); err != nil {
			return err
		}
		return ip.push(ip.stack[ip.n-1])
	case 28: // exch
		if err := ip.need(2); err != nil {
			return err
		}
		ip.stack[ip.n-1], ip.stack[ip.n-2] = ip.stack[ip.n-2], ip.stack[ip.n-1]
	case 29: // index
		if err := ip.need(1); err != nil {
			return err
		}
		k := int(ip.stack[ip.n-1])
		if k < 0 {
			k = 0
		}
		if k >= ip.n-1 {
			return ip.error("index %d out of range", k)
		}
		ip.stack[ip.n-1] = ip.stack[ip.n-2-k]
	case 30: // roll
		if err := ip.need(2); err != nil {
			return err
		}
		num, j := int(ip.stack[ip.n-2]), int(ip.stack[ip.n-1])
		ip.n -= 2
		if num <= 0 || num > ip.n {
			return ip.error("roll of %d elements out of range", num)
		}
		seg := ip.stack[ip.n-num : ip.n]
		j = ((j % num) + num) % num
		rolled := make([]float64, num)
		for k := range seg {
			rolled[(k+j)%num] = seg[k]
		}
		copy(seg, rolled)
	case 20: // put
		if err := ip.need(2); err != nil {
			return err
		}
		k := int(ip.stack[ip.n-1])
		if k < 0 || k >= len(ip.transient) {
			return ip.error("transient array index %d out of range", k)
		}
		ip.transient[k] = ip.stack[ip.n-2]
		ip.n -= 2
	case 21: // get
		if err := ip.need(1); err != nil {
			return err
		}
		k := int(ip.stack[ip.n-1])
		if k < 0 || k >= len(ip.transient) {
			return ip.error("transient array index %d out of range", k)
		}
		ip.stack[ip.n-1] = ip.transient[k]
	case 22: // ifelse
		if err := ip.need(4); err != nil {
			return err
		}
		s1, s2, v1, v2 := ip.stack[ip.n-4], ip.stack[ip.n-3], ip.stack[ip.n-2], ip.stack[ip.n-1]
		ip.n -= 3
		if v1 > v2 {
			ip.stack[ip.n-1] = s2
		} else {
			ip.stack[ip.n-1] = s1
		}
	case 23: // random
		// xorshift; value in (0, 1]
		ip.seed ^= ip.seed << 13
		ip.seed ^= ip.seed >> 17
		ip.seed ^= ip.seed << 5
		return ip.push(float64(ip.seed%65535+1) / 65535)
	default:
		return ip.error("reserved escape operator 12 %d", op)
	}
	return nil
}
