package fonttest

import "math"

// T2Op is a Type 2 charstring operator.
type T2Op []byte

// Type 2 charstring operators.
var (
	HStem      = T2Op{1}
	VStem      = T2Op{3}
	VMoveTo    = T2Op{4}
	RLineTo    = T2Op{5}
	HLineTo    = T2Op{6}
	VLineTo    = T2Op{7}
	RRCurveTo  = T2Op{8}
	CallSubr   = T2Op{10}
	Return     = T2Op{11}
	EndChar    = T2Op{14}
	HStemHM    = T2Op{18}
	HintMask   = T2Op{19}
	CntrMask   = T2Op{20}
	RMoveTo    = T2Op{21}
	HMoveTo    = T2Op{22}
	VStemHM    = T2Op{23}
	RCurveLine = T2Op{24}
	RLineCurve = T2Op{25}
	VVCurveTo  = T2Op{26}
	HHCurveTo  = T2Op{27}
	CallGSubr  = T2Op{29}
	VHCurveTo  = T2Op{30}
	HVCurveTo  = T2Op{31}
	HFlex      = T2Op{12, 34}
	Flex       = T2Op{12, 35}
	HFlex1     = T2Op{12, 36}
	Flex1      = T2Op{12, 37}
	Add        = T2Op{12, 10}
	Div        = T2Op{12, 12}
)

// Raw is inserted into a charstring as is, e.g. hint mask bytes.
type Raw []byte

// Charstring encodes a Type 2 charstring. Arguments may be ints (encoded
// as the shortest integer operand), float64 (encoded as 16.16 fixed),
// T2Op operators or Raw bytes.
func Charstring(args ...any) []byte {
	w := &Buf{}
	for _, a := range args {
		switch v := a.(type) {
		case int:
			t2Int(w, v)
		case float64:
			w.U8(255).U32(uint32(int32(math.Round(v * 65536))))
		case T2Op:
			w.Bytes(v)
		case Raw:
			w.Bytes(v)
		default:
			panic("fonttest: unsupported charstring argument")
		}
	}
	return w.Data()
}

func t2Int(w *Buf, v int) {
	switch {
	case v >= -107 && v <= 107:
		w.U8(uint8(v + 139))
	case v >= 108 && v <= 1131:
		v -= 108
		w.U8(uint8(v>>8+247), uint8(v))
	case v >= -1131 && v <= -108:
		v = -v - 108
		w.U8(uint8(v>>8+251), uint8(v))
	default:
		w.U8(28).I16(int16(v))
	}
}

// dictInt writes a DICT integer operand in its 5-byte form.
func dictInt(w *Buf, v int) {
	w.U8(29).U32(uint32(int32(v)))
}

// Index encodes a CFF INDEX with 4-byte offsets.
func Index(items [][]byte) []byte {
	w := &Buf{}
	w.U16(uint16(len(items)))
	if len(items) == 0 {
		return w.Data()
	}
	w.U8(4)
	off := 1
	w.U32(uint32(off))
	for _, it := range items {
		off += len(it)
		w.U32(uint32(off))
	}
	for _, it := range items {
		w.Bytes(it)
	}
	return w.Data()
}

// CFFDesc describes a synthetic CFF font. Without FDSelect it is a
// non-CID font with ISOAdobe charset and Standard encoding.
//
// A non-nil FDSelect makes it CID-keyed: the Top DICT carries a ROS, an
// FDArray with one font DICT per entry of FontDicts, and an FDSelect table
// in FDSelectFormat (0 or 3). FDSelect entries are written as given, even
// if they point outside of FontDicts.
type CFFDesc struct {
	Name           string
	CharStrings    [][]byte
	GlobalSubrs    [][]byte
	LocalSubrs     [][]byte
	DefaultWidthX  int
	NominalWidthX  int
	FontDicts      []CFFPrivate
	FDSelect       []uint8
	FDSelectFormat int
}

// CFFPrivate holds the widths of a Private DICT of a CID font.
type CFFPrivate struct {
	DefaultWidthX int
	NominalWidthX int
}

// CFF builds a 'CFF ' table.
func CFF(desc CFFDesc) []byte {
	if desc.FDSelect != nil {
		return cidCFF(desc)
	}
	name := desc.Name
	if name == "" {
		name = "Test"
	}
	const topDictSize = 5 + 1 + 5 + 5 + 1
	header := []byte{1, 0, 4, 4}
	nameIndex := Index([][]byte{[]byte(name)})
	topIndexSize := len(Index([][]byte{make([]byte, topDictSize)}))
	strIndex := Index(nil)
	gsubrIndex := Index(desc.GlobalSubrs)
	csOffset := len(header) + len(nameIndex) + topIndexSize + len(strIndex) + len(gsubrIndex)
	csIndex := Index(desc.CharStrings)
	privOffset := csOffset + len(csIndex)
	priv := privateDict(desc.DefaultWidthX, desc.NominalWidthX)
	if len(desc.LocalSubrs) > 0 {
		dictInt(priv, 6+6+6) // subrs follow the private DICT
		priv.U8(19)
	}
	top := &Buf{}
	dictInt(top, csOffset)
	top.U8(17)
	dictInt(top, priv.Len())
	dictInt(top, privOffset)
	top.U8(18)
	w := &Buf{}
	w.Bytes(header).Bytes(nameIndex).Bytes(Index([][]byte{top.Data()}))
	w.Bytes(strIndex).Bytes(gsubrIndex).Bytes(csIndex).Bytes(priv.Data())
	if len(desc.LocalSubrs) > 0 {
		w.Bytes(Index(desc.LocalSubrs))
	}
	return w.Data()
}

func privateDict(defaultWidth, nominalWidth int) *Buf {
	priv := &Buf{}
	dictInt(priv, defaultWidth)
	priv.U8(20)
	dictInt(priv, nominalWidth)
	priv.U8(21)
	return priv
}

// cidCFF lays out header, INDEXes and charstrings as CFF does, followed by
// FDArray, FDSelect and the Private DICTs of the font DICTs.
func cidCFF(desc CFFDesc) []byte {
	name := desc.Name
	if name == "" {
		name = "TestCID"
	}
	topDict := func(cs, fdArray, fdSelect int) []byte {
		top := &Buf{}
		dictInt(top, 0) // Registry SID
		dictInt(top, 0) // Ordering SID
		dictInt(top, 0) // Supplement
		top.U8(12, 30)
		dictInt(top, cs)
		top.U8(17)
		dictInt(top, fdArray)
		top.U8(12, 36)
		dictInt(top, fdSelect)
		top.U8(12, 37)
		return top.Data()
	}
	header := []byte{1, 0, 4, 4}
	nameIndex := Index([][]byte{[]byte(name)})
	topIndexSize := len(Index([][]byte{topDict(0, 0, 0)}))
	strIndex := Index(nil)
	gsubrIndex := Index(desc.GlobalSubrs)
	csOffset := len(header) + len(nameIndex) + topIndexSize + len(strIndex) + len(gsubrIndex)
	csIndex := Index(desc.CharStrings)
	fdArrayOffset := csOffset + len(csIndex)
	privs := make([][]byte, len(desc.FontDicts))
	for i, fd := range desc.FontDicts {
		privs[i] = privateDict(fd.DefaultWidthX, fd.NominalWidthX).Data()
	}
	fontDict := func(size, offset int) []byte {
		d := &Buf{}
		dictInt(d, size)
		dictInt(d, offset)
		d.U8(18)
		return d.Data()
	}
	placeholder := make([][]byte, len(privs))
	for i := range placeholder {
		placeholder[i] = fontDict(0, 0)
	}
	fdSelectOffset := fdArrayOffset + len(Index(placeholder))
	fdSelect := fdSelectTable(desc.FDSelect, desc.FDSelectFormat)
	privOffset := fdSelectOffset + len(fdSelect)
	fontDicts := make([][]byte, len(privs))
	for i, p := range privs {
		fontDicts[i] = fontDict(len(p), privOffset)
		privOffset += len(p)
	}
	w := &Buf{}
	w.Bytes(header).Bytes(nameIndex)
	w.Bytes(Index([][]byte{topDict(csOffset, fdArrayOffset, fdSelectOffset)}))
	w.Bytes(strIndex).Bytes(gsubrIndex).Bytes(csIndex)
	w.Bytes(Index(fontDicts)).Bytes(fdSelect)
	for _, p := range privs {
		w.Bytes(p)
	}
	return w.Data()
}

// fdSelectTable encodes format 0 (one byte per glyph) or format 3 (ranges
// of glyphs sharing a font DICT, plus a sentinel).
func fdSelectTable(fds []uint8, format int) []byte {
	w := &Buf{}
	if format != 3 {
		w.U8(0).Bytes(fds)
		return w.Data()
	}
	var starts []int
	for g := range fds {
		if g == 0 || fds[g] != fds[g-1] {
			starts = append(starts, g)
		}
	}
	w.U8(3).U16(uint16(len(starts)))
	for _, g := range starts {
		w.U16(uint16(g)).U8(fds[g])
	}
	w.U16(uint16(len(fds)))
	return w.Data()
}

// CFFFont builds an 'OTTO' font around a CFF table. If cmap is nil, the
// font carries no cmap and relies on the CFF encoding.
func CFFFont(desc CFFDesc, advances []uint16, cmap map[rune]uint16) []byte {
	n := len(desc.CharStrings)
	if advances == nil {
		advances = make([]uint16, n)
		for i := range advances {
			advances[i] = 500
		}
	}
	tables := map[string][]byte{
		"head": Head(1000, 0),
		"hhea": HHea(800, -200, uint16(n)),
		"maxp": MaxP(uint16(n), false),
		"hmtx": HMtx(advances),
		"name": Name(map[uint16]string{1: "TestCFF", 2: "Regular"}),
		"CFF ": CFF(desc),
	}
	if cmap != nil {
		tables["cmap"] = CMap4(cmap)
	}
	return SFNT(SigOTTO, tables)
}
