package ot

import (
	"errors"
	"fmt"

	"github.com/npillmayer/fontshape/internal/inflate"
)

// Container signatures.
const (
	sigTrueType = 0x00010000
	sigTrue     = 0x74727565 // 'true'
	sigTyp1     = 0x74797031 // 'typ1'
	sigOTTO     = 0x4f54544f // 'OTTO'
	sigWOFF     = 0x774f4646 // 'wOFF'
	sigTTCF     = 0x74746366 // 'ttcf'
	sigWOFF2    = 0x774f4632 // 'wOF2'
)

// flavorOf classifies an sfnt signature.
func flavorOf(sig uint32) (OutlineFlavor, bool) {
	switch sig {
	case sigTrueType, sigTrue, sigTyp1:
		return TrueTypeOutlines, true
	case sigOTTO:
		return CFFOutlines, true
	}
	return 0, false
}

// tableRecord is one entry of a table directory, either sfnt or WOFF.
type tableRecord struct {
	Tag        Tag
	Offset     uint32
	CompLength uint32 // equals OrigLength for sfnt
	OrigLength uint32
}

// sfntRecord is the on-disk format of an sfnt table record.
type sfntRecord struct {
	Tag      Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// woffHeader is the on-disk format of the WOFF 1.0 header (44 bytes).
type woffHeader struct {
	Signature      uint32
	Flavor         uint32
	Length         uint32
	NumTables      uint16
	Reserved       uint16
	TotalSfntSize  uint32
	MajorVersion   uint16
	MinorVersion   uint16
	MetaOffset     uint32
	MetaLength     uint32
	MetaOrigLength uint32
	PrivOffset     uint32
	PrivLength     uint32
}

// woffRecord is the on-disk format of a WOFF table directory entry (20 bytes).
type woffRecord struct {
	Tag          Tag
	Offset       uint32
	CompLength   uint32
	OrigLength   uint32
	OrigChecksum uint32
}

// resolveContainer inspects the signature of font data, reads the table
// directory and returns the raw tables. Compressed WOFF tables are inflated.
// A table failing to decompress is reported and left out; whether its
// absence is fatal is decided by the caller.
func resolveContainer(font []byte, ec *errorCollector) (FontHeader, map[Tag]*Table, error) {
	h := FontHeader{}
	p := NewParser(font, 0)
	sig := p.U32()
	if p.Err() != nil {
		return h, nil, ec.critical(0, "Header", 0, ErrUnknownContainer, "font data too short")
	}
	tracer().Debugf("font signature = %x|%s", sig, Tag(sig).String())
	if flavor, ok := flavorOf(sig); ok {
		h.FontType, h.Flavor, h.Container = sig, flavor, SFNTContainer
		tables, err := readSFNTDirectory(font, &h, ec)
		return h, tables, err
	}
	switch sig {
	case sigWOFF:
		tables, err := readWOFFDirectory(font, &h, ec)
		return h, tables, err
	case sigTTCF:
		return h, nil, ec.critical(0, "Header", 0, ErrUnknownContainer, "font collections are not supported")
	case sigWOFF2:
		return h, nil, ec.critical(0, "Header", 0, ErrUnknownContainer, "WOFF2 is not supported")
	}
	return h, nil, ec.critical(0, "Header", 0, ErrUnknownContainer, "font type not supported: %x", sig)
}

func readSFNTDirectory(font []byte, h *FontHeader, ec *errorCollector) (map[Tag]*Table, error) {
	p := NewParser(font, 0)
	p.Skip(4)
	h.TableCount = p.U16()
	p.Skip(6) // searchRange, entrySelector, rangeShift
	// "The Offset Table is followed immediately by the Table Record entries",
	// 16 bytes each.
	recs := make([]tableRecord, 0, h.TableCount)
	for i := 0; i < int(h.TableCount); i++ {
		var r sfntRecord
		p.ReadStruct(&r)
		if p.Err() != nil {
			return nil, ec.critical(0, "TableRecords", 12, ErrTableFormat, "table record entries: %v", p.Err())
		}
		recs = append(recs, tableRecord{Tag: r.Tag, Offset: r.Offset, CompLength: r.Length, OrigLength: r.Length})
	}
	return extractTables(font, recs, false, ec)
}

func readWOFFDirectory(font []byte, h *FontHeader, ec *errorCollector) (map[Tag]*Table, error) {
	p := NewParser(font, 0)
	var wh woffHeader
	p.ReadStruct(&wh)
	if p.Err() != nil {
		return nil, ec.critical(0, "Header", 0, ErrTableFormat, "WOFF header truncated")
	}
	flavor, ok := flavorOf(wh.Flavor)
	if !ok {
		return nil, ec.critical(0, "Header", 4, ErrUnknownContainer, "WOFF flavor not supported: %x", wh.Flavor)
	}
	h.FontType, h.Flavor, h.Container, h.TableCount = wh.Flavor, flavor, WOFFContainer, wh.NumTables
	tracer().Debugf("WOFF container, flavor %s, %d tables", flavor, wh.NumTables)
	// table directory at byte offset 44, stride 20
	recs := make([]tableRecord, 0, wh.NumTables)
	for i := 0; i < int(wh.NumTables); i++ {
		var r woffRecord
		p.ReadStruct(&r)
		if p.Err() != nil {
			return nil, ec.critical(0, "TableDirectory", 44, ErrTableFormat, "WOFF directory: %v", p.Err())
		}
		recs = append(recs, woffToRecord(r))
	}
	return extractTables(font, recs, true, ec)
}

func woffToRecord(r woffRecord) tableRecord {
	return tableRecord{Tag: r.Tag, Offset: r.Offset, CompLength: r.CompLength, OrigLength: r.OrigLength}
}

func extractTables(font []byte, recs []tableRecord, woff bool, ec *errorCollector) (map[Tag]*Table, error) {
	src := binarySegm(font)
	tables := make(map[Tag]*Table, len(recs))
	for _, r := range recs {
		end, err := checkedAddUint32(r.Offset, r.CompLength)
		if err != nil || end > uint32(len(src)) {
			return nil, ec.critical(r.Tag, "Bounds", r.Offset, ErrTableFormat,
				"bounds [%d:+%d] exceed font size %d", r.Offset, r.CompLength, len(src))
		}
		t := &Table{Tag: r.Tag, Offset: r.Offset, Length: r.OrigLength, data: src[r.Offset:end]}
		if woff && r.CompLength < r.OrigLength {
			data, err := inflate.DecodeZlib(t.data, int(r.OrigLength))
			if err == nil && len(data) != int(r.OrigLength) {
				err = fmt.Errorf("inflated size %d, expected %d", len(data), r.OrigLength)
			}
			if err != nil {
				ec.major(r.Tag, "Decompression", r.Offset, errors.Join(ErrDecompression, err),
					"cannot inflate table: %v", err)
				continue
			}
			t.data, t.Compressed = data, true
		} else if woff && r.CompLength > r.OrigLength {
			return nil, ec.critical(r.Tag, "Bounds", r.Offset, ErrTableFormat,
				"compressed length %d exceeds original length %d", r.CompLength, r.OrigLength)
		}
		tracer().Debugf("table %s at %d, %d bytes", r.Tag, r.Offset, len(t.data))
		tables[r.Tag] = t
	}
	return tables, nil
}
