package ot

// --- Kern table ------------------------------------------------------------

// KernTable holds kerning pairs from format 0 sub-tables of a legacy kern
// table. Horizontal, non-cross-stream pairs only.
//
// TrueType and OpenType slightly differ on formats of kern tables:
// see https://developer.apple.com/fonts/TrueType-Reference-Manual/RM06/Chap6kern.html
// and https://docs.microsoft.com/en-us/typography/opentype/spec/kern
type KernTable struct {
	pairs map[uint32]int16 // left<<16 | right → value
}

// Kerning returns the kerning value for a glyph pair, in font units.
func (t *KernTable) Kerning(left, right GlyphIndex) (int16, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.pairs[uint32(left)<<16|uint32(right)]
	return v, ok
}

// Len returns the number of kerning pairs.
func (t *KernTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs)
}

// parseKern parses the kern table. There is significant confusion with this table
// concerning format differences between OpenType, TrueType, and fonts in the wild.
// We only support kern table format 0, which should be supported on any
// platform.
func parseKern(t *Table, ec *errorCollector) (*KernTable, error) {
	p := NewParser(t.data, t.Offset)
	var n int
	apple := false
	if version := p.U32(); version == 0x00010000 {
		tracer().Debugf("font has Apple TTF kern table format")
		n, apple = int(p.U32()), true
	} else {
		tracer().Debugf("font has OTF (MS) kern table format")
		p.Seek(2)
		n = int(p.U16())
	}
	kern := &KernTable{pairs: make(map[uint32]int16)}
	for i := 0; i < n && p.Err() == nil; i++ {
		start := p.Offset()
		var length, coverage int
		var format uint8
		if apple {
			length = int(p.U32())
			coverage = int(p.U8())
			format = p.U8()
			p.Skip(2) // tupleIndex
		} else {
			p.Skip(2) // version
			length = int(p.U16())
			cov := p.U16()
			format, coverage = uint8(cov>>8), int(cov&0xff)
		}
		horizontal := (apple && coverage&0x80 == 0) || (!apple && coverage&0x01 != 0)
		cross := (apple && coverage&0x40 != 0) || (!apple && coverage&0x04 != 0)
		if format != 0 || !horizontal || cross {
			tracer().Infof("kern sub-table format %d (coverage %x) not supported, ignoring", format, coverage)
			if length == 0 {
				break
			}
			p.Seek(start + length)
			continue
		}
		npairs := int(p.U16())
		p.Skip(6) // searchRange, entrySelector, rangeShift
		if npairs*6 > p.Remaining() {
			ec.major(t.Tag, "Pairs", p.Absolute(), ErrTableFormat, "sub-table %d: %d pairs exceed table", i, npairs)
			break
		}
		for j := 0; j < npairs; j++ {
			l, r, v := p.U16(), p.U16(), p.I16()
			kern.pairs[uint32(l)<<16|uint32(r)] = v
		}
		// For some fonts, size calculation of kern sub-tables is off; see
		// https://github.com/fonttools/fonttools/issues/314#issuecomment-118116527
		// We therefore continue directly after the pairs.
		if expected := start + length; expected != p.Offset() && !apple {
			ec.addWarning(t.Tag, "kern sub-table size mismatch", p.Absolute())
		}
	}
	if p.Err() != nil {
		ec.major(t.Tag, "SubTable", t.Offset, ErrTableFormat, "kern table truncated: %v", p.Err())
	}
	tracer().Debugf("table kern has %d pairs", len(kern.pairs))
	return kern, nil
}

// --- fvar table ------------------------------------------------------------

// VariationAxis is one design-variation axis of a variable font.
type VariationAxis struct {
	Tag        Tag
	Min        float64
	Default    float64
	Max        float64
	Flags      uint16
	AxisNameID uint16
}

// NamedInstance is a named point in the design space of a variable font.
type NamedInstance struct {
	SubfamilyNameID  uint16
	Flags            uint16
	Coordinates      []float64 // one per axis
	PostScriptNameID uint16    // 0xFFFF if not present
}

// FVarTable exposes the axes and named instances of a variable font.
// Instancing is not supported.
type FVarTable struct {
	Axes      []VariationAxis
	Instances []NamedInstance
}

func parseFVar(t *Table, ec *errorCollector) (*FVarTable, error) {
	p := NewParser(t.data, t.Offset)
	major, _ := p.U16(), p.U16()
	axesOffset := int(p.U16())
	p.Skip(2) // reserved
	axisCount, axisSize := int(p.U16()), int(p.U16())
	instCount, instSize := int(p.U16()), int(p.U16())
	if p.Err() != nil || major != 1 || axisSize < 20 {
		ec.major(t.Tag, "Header", t.Offset, ErrUnsupportedFormat, "fvar header not supported")
		return nil, nil
	}
	fvar := &FVarTable{}
	for i := 0; i < axisCount; i++ {
		a := NewParser(t.data, t.Offset).Sub(axesOffset + i*axisSize)
		axis := VariationAxis{
			Tag:     a.Tag(),
			Min:     a.Fixed(),
			Default: a.Fixed(),
			Max:     a.Fixed(),
		}
		axis.Flags = a.U16()
		axis.AxisNameID = a.U16()
		if a.Err() != nil {
			ec.major(t.Tag, "Axes", t.Offset, ErrTableFormat, "axis record %d truncated", i)
			return nil, nil
		}
		fvar.Axes = append(fvar.Axes, axis)
	}
	instOffset := axesOffset + axisCount*axisSize
	for i := 0; i < instCount; i++ {
		ip := NewParser(t.data, t.Offset).Sub(instOffset + i*instSize)
		inst := NamedInstance{SubfamilyNameID: ip.U16(), Flags: ip.U16(), PostScriptNameID: 0xffff}
		inst.Coordinates = make([]float64, axisCount)
		for j := range inst.Coordinates {
			inst.Coordinates[j] = ip.Fixed()
		}
		if instSize >= 4*axisCount+6 {
			inst.PostScriptNameID = ip.U16()
		}
		if ip.Err() != nil {
			ec.major(t.Tag, "Instances", t.Offset, ErrTableFormat, "instance record %d truncated", i)
			break
		}
		fvar.Instances = append(fvar.Instances, inst)
	}
	return fvar, nil
}
