package ot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// --- CFF table -------------------------------------------------------------

// CFFTable holds the decoded content of a CFF (version 1) table: the Top
// DICT, the Private DICT(s), charset, encoding and the INDEXes of
// charstrings and subroutines.
//
// Glyph outlines are interpreted on demand from the charstrings.
type CFFTable struct {
	Name        string         // PostScript font name
	TopDict     CFFTopDict     // font-wide parameters
	Private     CFFPrivateDict // private parameters of non-CID fonts
	IsCID       bool           // CID-keyed font with FDArray/FDSelect
	Charset     []uint16       // glyph → SID (CID for CID-keyed fonts); may be nil
	Encoding    *CFFEncoding   // built-in encoding; nil for CID-keyed fonts
	strings     []string
	globalSubrs [][]byte
	charStrings [][]byte
	fdArray     []CFFPrivateDict
	fdSelect    []uint8 // glyph → index into fdArray
}

// CFFTopDict contains the font-wide entries of the Top DICT.
// Offsets are relative to the start of the CFF table.
type CFFTopDict struct {
	Version, Notice, Copyright     string
	FullName, FamilyName, Weight   string
	IsFixedPitch                   bool
	ItalicAngle                    float64
	UnderlinePosition              float64
	UnderlineThickness             float64
	PaintType, CharstringType      int
	FontMatrix                     [6]float64
	FontBBox                       [4]float64
	StrokeWidth                    float64
	Registry, Ordering             string // CID-keyed fonts only
	Supplement                     int
	CIDCount                       int
	charset, encoding, charStrings int
	privateSize, privateOffset     int
	fdArray, fdSelect              int
}

// CFFPrivateDict contains the entries of a Private DICT needed for
// charstring interpretation, plus the most common hinting entries.
type CFFPrivateDict struct {
	BlueValues    []float64
	StdHW, StdVW  float64
	DefaultWidthX float64
	NominalWidthX float64
	localSubrs    [][]byte
}

// --- INDEX -----------------------------------------------------------------

// readIndex reads an INDEX structure at the current position of p and
// positions p after it.
func readIndex(p *Parser) ([][]byte, error) {
	count := int(p.U16())
	if p.Err() != nil {
		return nil, p.Err()
	}
	if count == 0 {
		return nil, nil
	}
	offSize := int(p.U8())
	if offSize < 1 || offSize > 4 {
		return nil, fmt.Errorf("INDEX offset size %d invalid", offSize)
	}
	offsets := make([]int, count+1)
	for i := range offsets {
		var off uint32
		for j := 0; j < offSize; j++ {
			off = off<<8 | uint32(p.U8())
		}
		offsets[i] = int(off)
	}
	if p.Err() != nil {
		return nil, p.Err()
	}
	// offsets are 1-based, relative to the byte preceding the object data
	dataStart := p.Offset() - 1
	items := make([][]byte, count)
	for i := 0; i < count; i++ {
		if offsets[i] < 1 || offsets[i+1] < offsets[i] {
			return nil, fmt.Errorf("INDEX offsets not ascending at item %d", i)
		}
		b, err := binarySegm(p.Bytes()).view(dataStart+offsets[i], offsets[i+1]-offsets[i])
		if err != nil {
			return nil, fmt.Errorf("INDEX item %d exceeds table", i)
		}
		items[i] = b
	}
	p.Seek(dataStart + offsets[count])
	return items, p.Err()
}

// --- DICT ------------------------------------------------------------------

// cffDict maps DICT operators to their operands. Two-byte operators 12 x
// are keyed as 1200+x.
type cffDict map[int][]float64

const maxDictOperands = 48

func parseDict(b []byte) (cffDict, error) {
	d := cffDict{}
	var operands []float64
	for i := 0; i < len(b); {
		b0 := b[i]
		switch {
		case b0 <= 21:
			op := int(b0)
			i++
			if b0 == 12 {
				if i >= len(b) {
					return nil, fmt.Errorf("DICT escape operator truncated")
				}
				op = 1200 + int(b[i])
				i++
			}
			d[op] = operands
			operands = nil
			continue
		case b0 == 28:
			if i+3 > len(b) {
				return nil, fmt.Errorf("DICT operand truncated")
			}
			operands = append(operands, float64(int16(u16(b[i+1:]))))
			i += 3
		case b0 == 29:
			if i+5 > len(b) {
				return nil, fmt.Errorf("DICT operand truncated")
			}
			operands = append(operands, float64(int32(u32(b[i+1:]))))
			i += 5
		case b0 == 30:
			v, n, err := parseDictReal(b[i+1:])
			if err != nil {
				return nil, err
			}
			operands = append(operands, v)
			i += 1 + n
		case b0 >= 32 && b0 <= 246:
			operands = append(operands, float64(int(b0)-139))
			i++
		case b0 >= 247 && b0 <= 254:
			if i+2 > len(b) {
				return nil, fmt.Errorf("DICT operand truncated")
			}
			v := (int(b0)-247)*256 + int(b[i+1]) + 108
			if b0 >= 251 {
				v = -(int(b0)-251)*256 - int(b[i+1]) - 108
			}
			operands = append(operands, float64(v))
			i += 2
		default:
			return nil, fmt.Errorf("DICT contains reserved byte %d", b0)
		}
		if len(operands) > maxDictOperands {
			return nil, fmt.Errorf("DICT operand stack overflow")
		}
	}
	if len(operands) > 0 {
		return nil, fmt.Errorf("DICT ends with operands but no operator")
	}
	return d, nil
}

// parseDictReal decodes a nibble-encoded real number. It returns the value
// and the number of bytes consumed.
func parseDictReal(b []byte) (float64, int, error) {
	var sb strings.Builder
	for i, c := range b {
		for _, nib := range [2]byte{c >> 4, c & 0x0f} {
			switch {
			case nib <= 9:
				sb.WriteByte('0' + nib)
			case nib == 0xa:
				sb.WriteByte('.')
			case nib == 0xb:
				sb.WriteByte('E')
			case nib == 0xc:
				sb.WriteString("E-")
			case nib == 0xe:
				sb.WriteByte('-')
			case nib == 0xf:
				v, err := strconv.ParseFloat(sb.String(), 64)
				if err != nil {
					return 0, 0, fmt.Errorf("DICT real %q: %w", sb.String(), err)
				}
				return v, i + 1, nil
			default:
				return 0, 0, fmt.Errorf("DICT real contains reserved nibble")
			}
		}
	}
	return 0, 0, fmt.Errorf("DICT real not terminated")
}

type dictKind uint8

const (
	dictNumber dictKind = iota
	dictSID
	dictBool
	dictArray
	dictDelta
	dictOffset
	dictSizeOffset
	dictROS
)

// dictOperator describes a DICT entry: its name, the kind of its operands
// and its default value.
type dictOperator struct {
	name string
	kind dictKind
	def  []float64
}

var cffTopDictOperators = map[int]dictOperator{
	0:    {"version", dictSID, nil},
	1:    {"Notice", dictSID, nil},
	1200: {"Copyright", dictSID, nil},
	2:    {"FullName", dictSID, nil},
	3:    {"FamilyName", dictSID, nil},
	4:    {"Weight", dictSID, nil},
	1201: {"isFixedPitch", dictBool, []float64{0}},
	1202: {"ItalicAngle", dictNumber, []float64{0}},
	1203: {"UnderlinePosition", dictNumber, []float64{-100}},
	1204: {"UnderlineThickness", dictNumber, []float64{50}},
	1205: {"PaintType", dictNumber, []float64{0}},
	1206: {"CharstringType", dictNumber, []float64{2}},
	1207: {"FontMatrix", dictArray, []float64{0.001, 0, 0, 0.001, 0, 0}},
	13:   {"UniqueID", dictNumber, nil},
	5:    {"FontBBox", dictArray, []float64{0, 0, 0, 0}},
	1208: {"StrokeWidth", dictNumber, []float64{0}},
	14:   {"XUID", dictArray, nil},
	15:   {"charset", dictOffset, []float64{0}},
	16:   {"Encoding", dictOffset, []float64{0}},
	17:   {"CharStrings", dictOffset, nil},
	18:   {"Private", dictSizeOffset, nil},
	1220: {"SyntheticBase", dictNumber, nil},
	1221: {"PostScript", dictSID, nil},
	1222: {"BaseFontName", dictSID, nil},
	1223: {"BaseFontBlend", dictDelta, nil},
	1230: {"ROS", dictROS, nil},
	1231: {"CIDFontVersion", dictNumber, []float64{0}},
	1232: {"CIDFontRevision", dictNumber, []float64{0}},
	1233: {"CIDFontType", dictNumber, []float64{0}},
	1234: {"CIDCount", dictNumber, []float64{8720}},
	1235: {"UIDBase", dictNumber, nil},
	1236: {"FDArray", dictOffset, nil},
	1237: {"FDSelect", dictOffset, nil},
	1238: {"FontName", dictSID, nil},
}

var cffPrivateDictOperators = map[int]dictOperator{
	6:    {"BlueValues", dictDelta, nil},
	7:    {"OtherBlues", dictDelta, nil},
	8:    {"FamilyBlues", dictDelta, nil},
	9:    {"FamilyOtherBlues", dictDelta, nil},
	1209: {"BlueScale", dictNumber, []float64{0.039625}},
	1210: {"BlueShift", dictNumber, []float64{7}},
	1211: {"BlueFuzz", dictNumber, []float64{1}},
	10:   {"StdHW", dictNumber, nil},
	11:   {"StdVW", dictNumber, nil},
	1212: {"StemSnapH", dictDelta, nil},
	1213: {"StemSnapV", dictDelta, nil},
	1214: {"ForceBold", dictBool, []float64{0}},
	1217: {"LanguageGroup", dictNumber, []float64{0}},
	1218: {"ExpansionFactor", dictNumber, []float64{0.06}},
	1219: {"initialRandomSeed", dictNumber, []float64{0}},
	19:   {"Subrs", dictOffset, nil},
	20:   {"defaultWidthX", dictNumber, []float64{0}},
	21:   {"nominalWidthX", dictNumber, []float64{0}},
}

// values returns the operands of op, falling back to the operator's default.
func (d cffDict) values(op int, ops map[int]dictOperator) []float64 {
	if v, ok := d[op]; ok {
		return v
	}
	return ops[op].def
}

func (d cffDict) number(op int, ops map[int]dictOperator) float64 {
	if v := d.values(op, ops); len(v) > 0 {
		return v[0]
	}
	return 0
}

// check validates operand counts against the kind of each operator.
func (d cffDict) check(ops map[int]dictOperator) error {
	for op, v := range d {
		meta, ok := ops[op]
		if !ok {
			tracer().Debugf("CFF DICT: ignoring unknown operator %d", op)
			continue
		}
		var want int
		switch meta.kind {
		case dictNumber, dictSID, dictBool, dictOffset:
			want = 1
		case dictSizeOffset:
			want = 2
		case dictROS:
			want = 3
		case dictArray:
			if meta.def != nil {
				want = len(meta.def)
			}
		}
		if want > 0 && len(v) != want {
			return fmt.Errorf("DICT operator %s has %d operands, expected %d", meta.name, len(v), want)
		}
	}
	return nil
}

// delta decodes a delta-encoded array.
func delta(v []float64) []float64 {
	out := make([]float64, len(v))
	var acc float64
	for i, x := range v {
		acc += x
		out[i] = acc
	}
	return out
}

// CFFDictEntry is a named DICT entry, as listed by DictEntries.
type CFFDictEntry struct {
	Name   string
	Values []string
}

// --- Parsing ---------------------------------------------------------------

func parseCFF(t *Table, numGlyphs int, ec *errorCollector) (*CFFTable, error) {
	fail := func(section string, format string, args ...any) error {
		return ec.critical(t.Tag, section, t.Offset, ErrTableFormat, format, args...)
	}
	p := NewParser(t.data, t.Offset)
	major, _ := p.U8(), p.U8()
	hdrSize := int(p.U8())
	if p.Err() != nil || major != 1 {
		return nil, ec.critical(t.Tag, "Header", t.Offset, ErrUnsupportedFormat, "CFF major version %d not supported", major)
	}
	p.Seek(hdrSize)
	names, err := readIndex(p)
	if err != nil || len(names) == 0 {
		return nil, fail("NameINDEX", "name INDEX: %v", err)
	}
	topDicts, err := readIndex(p)
	if err != nil || len(topDicts) == 0 {
		return nil, fail("TopDICT", "top DICT INDEX: %v", err)
	}
	strs, err := readIndex(p)
	if err != nil {
		return nil, fail("StringINDEX", "string INDEX: %v", err)
	}
	gsubrs, err := readIndex(p)
	if err != nil {
		return nil, fail("GlobalSubrs", "global subroutine INDEX: %v", err)
	}
	if len(names) > 1 {
		ec.addWarning(t.Tag, "CFF FontSet with more than one font, using the first", t.Offset)
	}
	cff := &CFFTable{Name: string(names[0]), globalSubrs: gsubrs}
	cff.strings = make([]string, len(strs))
	for i, s := range strs {
		cff.strings[i] = string(s)
	}
	top, err := parseDict(topDicts[0])
	if err == nil {
		err = top.check(cffTopDictOperators)
	}
	if err != nil {
		return nil, fail("TopDICT", "%v", err)
	}
	cff.TopDict = cff.topDict(top)
	if cff.TopDict.CharstringType != 2 {
		return nil, ec.critical(t.Tag, "TopDICT", t.Offset, ErrUnsupportedFormat,
			"charstring type %d not supported", cff.TopDict.CharstringType)
	}
	if _, ok := top[17]; !ok {
		return nil, fail("TopDICT", "CharStrings offset missing")
	}
	cs, err := readIndex(NewParser(t.data, t.Offset).Sub(cff.TopDict.charStrings))
	if err != nil || len(cs) == 0 {
		return nil, fail("CharStrings", "charstrings INDEX: %v", err)
	}
	cff.charStrings = cs
	if len(cs) != numGlyphs {
		ec.major(t.Tag, "CharStrings", t.Offset, ErrTableFormat,
			"%d charstrings for %d glyphs", len(cs), numGlyphs)
	}
	if _, ok := top[1230]; ok {
		cff.IsCID = true
		if err := cff.parseCIDFonts(t, ec); err != nil {
			return nil, err
		}
	} else {
		if _, ok := top[18]; !ok {
			return nil, fail("TopDICT", "Private DICT missing")
		}
		priv, err := cff.parsePrivate(t, cff.TopDict.privateOffset, cff.TopDict.privateSize)
		if err != nil {
			return nil, fail("PrivateDICT", "%v", err)
		}
		cff.Private = priv
	}
	cff.parseCharset(t, ec)
	if !cff.IsCID {
		cff.parseEncoding(t, ec)
	}
	tracer().Debugf("CFF font %q has %d charstrings, %d global subrs", cff.Name, len(cs), len(gsubrs))
	return cff, nil
}

// sidString returns the string for a SID.
func (cff *CFFTable) sidString(sid int) string {
	if sid < len(cffStandardStrings) {
		return cffStandardStrings[sid]
	}
	if sid -= len(cffStandardStrings); sid < len(cff.strings) {
		return cff.strings[sid]
	}
	return ""
}

func (cff *CFFTable) topDict(d cffDict) CFFTopDict {
	ops := cffTopDictOperators
	sid := func(op int) string {
		if v, ok := d[op]; ok && len(v) > 0 {
			return cff.sidString(int(v[0]))
		}
		return ""
	}
	td := CFFTopDict{
		Version:            sid(0),
		Notice:             sid(1),
		Copyright:          sid(1200),
		FullName:           sid(2),
		FamilyName:         sid(3),
		Weight:             sid(4),
		IsFixedPitch:       d.number(1201, ops) != 0,
		ItalicAngle:        d.number(1202, ops),
		UnderlinePosition:  d.number(1203, ops),
		UnderlineThickness: d.number(1204, ops),
		PaintType:          int(d.number(1205, ops)),
		CharstringType:     int(d.number(1206, ops)),
		StrokeWidth:        d.number(1208, ops),
		CIDCount:           int(d.number(1234, ops)),
		charset:            int(d.number(15, ops)),
		encoding:           int(d.number(16, ops)),
		charStrings:        int(d.number(17, ops)),
		fdArray:            int(d.number(1236, ops)),
		fdSelect:           int(d.number(1237, ops)),
	}
	copy(td.FontMatrix[:], d.values(1207, ops))
	copy(td.FontBBox[:], d.values(5, ops))
	if v, ok := d[18]; ok {
		td.privateSize, td.privateOffset = int(v[0]), int(v[1])
	}
	if v, ok := d[1230]; ok {
		td.Registry, td.Ordering, td.Supplement = cff.sidString(int(v[0])), cff.sidString(int(v[1])), int(v[2])
	}
	return td
}

func (cff *CFFTable) parsePrivate(t *Table, offset, size int) (CFFPrivateDict, error) {
	var priv CFFPrivateDict
	raw, err := binarySegm(t.data).view(offset, size)
	if err != nil {
		return priv, fmt.Errorf("Private DICT at %d exceeds table", offset)
	}
	d, err := parseDict(raw)
	if err == nil {
		err = d.check(cffPrivateDictOperators)
	}
	if err != nil {
		return priv, err
	}
	ops := cffPrivateDictOperators
	priv.BlueValues = delta(d.values(6, ops))
	priv.StdHW = d.number(10, ops)
	priv.StdVW = d.number(11, ops)
	priv.DefaultWidthX = d.number(20, ops)
	priv.NominalWidthX = d.number(21, ops)
	if _, ok := d[19]; ok {
		// Subrs offset is relative to the Private DICT
		subrs := offset + int(d.number(19, ops))
		priv.localSubrs, err = readIndex(NewParser(t.data, t.Offset).Sub(subrs))
		if err != nil {
			return priv, fmt.Errorf("local subroutines: %w", err)
		}
	}
	return priv, nil
}

func (cff *CFFTable) parseCIDFonts(t *Table, ec *errorCollector) error {
	td := cff.TopDict
	if td.fdArray == 0 || td.fdSelect == 0 {
		return ec.critical(t.Tag, "TopDICT", t.Offset, ErrTableFormat, "CID font without FDArray or FDSelect")
	}
	fds, err := readIndex(NewParser(t.data, t.Offset).Sub(td.fdArray))
	if err != nil || len(fds) == 0 {
		return ec.critical(t.Tag, "FDArray", t.Offset, ErrTableFormat, "FDArray INDEX: %v", err)
	}
	for i, raw := range fds {
		fd, err := parseDict(raw)
		if err != nil {
			return ec.critical(t.Tag, "FDArray", t.Offset, ErrTableFormat, "font DICT %d: %v", i, err)
		}
		var priv CFFPrivateDict
		if v, ok := fd[18]; ok && len(v) == 2 {
			if priv, err = cff.parsePrivate(t, int(v[1]), int(v[0])); err != nil {
				return ec.critical(t.Tag, "FDArray", t.Offset, ErrTableFormat, "font DICT %d: %v", i, err)
			}
		}
		cff.fdArray = append(cff.fdArray, priv)
	}
	n := len(cff.charStrings)
	p := NewParser(t.data, t.Offset).Sub(td.fdSelect)
	cff.fdSelect = make([]uint8, n)
	switch format := p.U8(); format {
	case 0:
		copy(cff.fdSelect, p.Raw(n))
	case 3:
		nranges := int(p.U16())
		first := int(p.U16())
		for i := 0; i < nranges && p.Err() == nil; i++ {
			fd := p.U8()
			next := int(p.U16())
			if next < first || next > n {
				return ec.critical(t.Tag, "FDSelect", p.Absolute(), ErrTableFormat, "FDSelect range %d invalid", i)
			}
			for g := first; g < next; g++ {
				cff.fdSelect[g] = fd
			}
			first = next
		}
	default:
		return ec.critical(t.Tag, "FDSelect", p.Absolute(), ErrUnsupportedFormat, "FDSelect format %d", format)
	}
	if p.Err() != nil {
		return ec.critical(t.Tag, "FDSelect", t.Offset, ErrTableFormat, "FDSelect truncated")
	}
	return nil
}

func (cff *CFFTable) parseCharset(t *Table, ec *errorCollector) {
	n := len(cff.charStrings)
	off := cff.TopDict.charset
	if off <= 2 {
		if off == 0 && !cff.IsCID {
			// ISOAdobe: glyph i has SID i
			cff.Charset = make([]uint16, min(n, 229))
			for i := range cff.Charset {
				cff.Charset[i] = uint16(i)
			}
		} else {
			tracer().Infof("CFF predefined charset %d not supported, glyph names not available", off)
		}
		return
	}
	p := NewParser(t.data, t.Offset).Sub(off)
	charset := make([]uint16, 1, n) // .notdef is implicit
	switch format := p.U8(); format {
	case 0:
		charset = append(charset, p.U16List(n-1)...)
	case 1, 2:
		for len(charset) < n && p.Err() == nil {
			first := int(p.U16())
			var nleft int
			if format == 1 {
				nleft = int(p.U8())
			} else {
				nleft = int(p.U16())
			}
			for i := 0; i <= nleft && len(charset) < n; i++ {
				charset = append(charset, uint16(first+i))
			}
		}
	default:
		ec.major(t.Tag, "Charset", p.Absolute(), ErrUnsupportedFormat, "charset format %d", format)
		return
	}
	if p.Err() != nil || len(charset) < n {
		ec.major(t.Tag, "Charset", t.Offset, ErrTableFormat, "charset truncated")
		return
	}
	cff.Charset = charset
}

func (cff *CFFTable) parseEncoding(t *Table, ec *errorCollector) {
	enc := &CFFEncoding{}
	switch off := cff.TopDict.encoding; off {
	case 0:
		enc.name = "CFF Standard Encoding"
		bySID := make(map[uint16]GlyphIndex, len(cff.Charset))
		for gid, sid := range cff.Charset {
			bySID[sid] = GlyphIndex(gid)
		}
		for code, sid := range cffStandardEncoding {
			if sid != 0 {
				enc.codes[code] = bySID[sid]
			}
		}
	case 1:
		tracer().Infof("CFF Expert Encoding not supported")
		return
	default:
		enc.name = "CFF custom encoding"
		p := NewParser(t.data, t.Offset).Sub(off)
		format := p.U8()
		switch format & 0x7f {
		case 0:
			ncodes := int(p.U8())
			for i := 1; i <= ncodes && p.Err() == nil; i++ {
				enc.codes[p.U8()] = GlyphIndex(i)
			}
		case 1:
			nranges := int(p.U8())
			gid := 1
			for i := 0; i < nranges && p.Err() == nil; i++ {
				first, nleft := int(p.U8()), int(p.U8())
				for c := first; c <= first+nleft && c < 256; c++ {
					enc.codes[c] = GlyphIndex(gid)
					gid++
				}
			}
		default:
			ec.major(t.Tag, "Encoding", p.Absolute(), ErrUnsupportedFormat, "encoding format %d", format&0x7f)
			return
		}
		if format&0x80 != 0 {
			nsups := int(p.U8())
			for i := 0; i < nsups && p.Err() == nil; i++ {
				code, sid := p.U8(), p.U16()
				for gid, s := range cff.Charset {
					if s == sid {
						enc.codes[code] = GlyphIndex(gid)
						break
					}
				}
			}
		}
		if p.Err() != nil {
			ec.major(t.Tag, "Encoding", t.Offset, ErrTableFormat, "encoding truncated")
			return
		}
	}
	cff.Encoding = enc
}

// GlyphName returns the name of a glyph from the charset. CID-keyed fonts
// name glyphs by their CID.
func (cff *CFFTable) GlyphName(gid GlyphIndex) Option[string] {
	if cff == nil || int(gid) >= len(cff.Charset) {
		return None[string]()
	}
	if cff.IsCID {
		return Some(fmt.Sprintf("cid%05d", cff.Charset[gid]))
	}
	return Some(cff.sidString(int(cff.Charset[gid])))
}

// NumCharStrings returns the number of charstrings, i.e., glyphs.
func (cff *CFFTable) NumCharStrings() int {
	return len(cff.charStrings)
}

// privateFor returns the Private DICT governing glyph gid.
// An FDSelect entry outside of the FDArray is an error for this glyph only.
func (cff *CFFTable) privateFor(gid GlyphIndex) (*CFFPrivateDict, error) {
	if !cff.IsCID || int(gid) >= len(cff.fdSelect) {
		return &cff.Private, nil
	}
	fd := int(cff.fdSelect[gid])
	if fd >= len(cff.fdArray) {
		return nil, glyphError(T("CFF "), "CharString", gid, ErrCharstring,
			"glyph selects font DICT %d of %d", fd, len(cff.fdArray))
	}
	return &cff.fdArray[fd], nil
}

// DictEntries lists the Top DICT in human readable form, sorted by name.
func (cff *CFFTable) DictEntries() []CFFDictEntry {
	td := cff.TopDict
	f := func(v ...float64) []string {
		s := make([]string, len(v))
		for i, x := range v {
			s[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return s
	}
	entries := []CFFDictEntry{
		{"FontName", []string{cff.Name}},
		{"FullName", []string{td.FullName}},
		{"FamilyName", []string{td.FamilyName}},
		{"Weight", []string{td.Weight}},
		{"Notice", []string{td.Notice}},
		{"ItalicAngle", f(td.ItalicAngle)},
		{"FontMatrix", f(td.FontMatrix[:]...)},
		{"FontBBox", f(td.FontBBox[:]...)},
		{"defaultWidthX", f(cff.Private.DefaultWidthX)},
		{"nominalWidthX", f(cff.Private.NominalWidthX)},
	}
	if cff.IsCID {
		entries = append(entries, CFFDictEntry{"ROS", []string{td.Registry, td.Ordering, strconv.Itoa(td.Supplement)}})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// --- Encoding --------------------------------------------------------------

// CFFEncoding is the built-in encoding of a (non-CID) CFF font. It maps
// single-byte character codes to glyphs and serves as a fallback for fonts
// without a usable cmap.
type CFFEncoding struct {
	name  string
	codes [256]GlyphIndex
}

// Lookup implements Encoding.
func (e *CFFEncoding) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 255 {
		return 0
	}
	return e.codes[r]
}

// Name implements Encoding.
func (e *CFFEncoding) Name() string {
	return e.name
}
