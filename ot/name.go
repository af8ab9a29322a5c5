package ot

import (
	"fmt"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// --- Name table ------------------------------------------------------------

// NameRecord is one decoded entry of table name.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     sfnt.NameID
	Value      string
}

// NameTable allows multilingual strings to be associated with the font.
// Records are kept in font order.
type NameTable struct {
	Records  []NameRecord
	langTags []string // format 1 language-tag records
}

func parseName(t *Table, ec *errorCollector) (*NameTable, error) {
	p := NewParser(t.data, t.Offset)
	format := p.U16()
	count := int(p.U16())
	strOffset := int(p.U16())
	if p.Err() != nil || strOffset > len(t.data) {
		return nil, ec.critical(t.Tag, "Header", t.Offset, ErrTableFormat, "name table header corrupt")
	}
	strs := binarySegm(t.data[strOffset:])
	type rawRecord struct {
		PlatformID, EncodingID, LanguageID, NameID, Length, Offset uint16
	}
	names := &NameTable{Records: make([]NameRecord, 0, count)}
	for i := 0; i < count; i++ {
		var r rawRecord
		p.ReadStruct(&r)
		if p.Err() != nil {
			ec.major(t.Tag, "NameRecord", p.Absolute(), ErrTableFormat, "name record %d truncated", i)
			break
		}
		raw, err := strs.view(int(r.Offset), int(r.Length))
		if err != nil {
			ec.major(t.Tag, "NameRecord", t.Offset, ErrTableFormat, "string of name record %d out of bounds", i)
			continue
		}
		value, ok := decodeName(r.PlatformID, r.EncodingID, raw)
		if !ok {
			tracer().Debugf("cannot decode name %d with platform/encoding %d/%d", r.NameID,
				r.PlatformID, r.EncodingID)
			continue
		}
		names.Records = append(names.Records, NameRecord{
			PlatformID: r.PlatformID,
			EncodingID: r.EncodingID,
			LanguageID: r.LanguageID,
			NameID:     sfnt.NameID(r.NameID),
			Value:      value,
		})
	}
	if format == 1 {
		n := int(p.U16())
		for i := 0; i < n && p.Err() == nil; i++ {
			length, offset := p.U16(), p.U16()
			if raw, err := strs.view(int(offset), int(length)); err == nil {
				tag, _ := decodeName(0, 3, raw)
				names.langTags = append(names.langTags, tag)
			}
		}
	}
	tracer().Debugf("name table has %d decodable records", len(names.Records))
	return names, nil
}

// decodeName converts a raw name string to UTF-8, depending on platform and
// encoding.
func decodeName(platform, enc uint16, raw []byte) (string, bool) {
	var decoder *encoding.Decoder
	switch {
	case platform == 0, platform == 3 && (enc == 0 || enc == 1 || enc == 10):
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case platform == 1 && enc == 0:
		decoder = charmap.Macintosh.NewDecoder()
	default:
		return "", false
	}
	s, err := decoder.Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(s), true
}

// Lookup returns the first name for nameID, preferring Windows English
// (United States), then any Unicode record, then anything else.
func (t *NameTable) Lookup(nameID sfnt.NameID) (string, bool) {
	if t == nil {
		return "", false
	}
	best, rank := "", 0
	for _, r := range t.Records {
		if r.NameID != nameID {
			continue
		}
		var rk int
		switch {
		case r.PlatformID == 3 && r.LanguageID == 0x0409:
			rk = 3
		case r.PlatformID == 0 || r.PlatformID == 3:
			rk = 2
		default:
			rk = 1
		}
		if rk > rank {
			best, rank = r.Value, rk
		}
	}
	return best, rank > 0
}

// Language returns a language tag for a name record, if one is known.
// Unicode platform records and format 1 records refer to ltag or to the
// name table's own language-tag records.
func (t *NameTable) Language(r NameRecord, ltag *LTagTable) string {
	switch {
	case r.PlatformID == 3 && r.LanguageID == 0x0409:
		return "en-US"
	case r.LanguageID >= 0x8000 && t != nil && int(r.LanguageID-0x8000) < len(t.langTags):
		return t.langTags[r.LanguageID-0x8000]
	case r.PlatformID == 0 && ltag != nil && int(r.LanguageID) < len(ltag.Tags):
		return ltag.Tags[r.LanguageID]
	}
	return fmt.Sprintf("%d/%d", r.PlatformID, r.LanguageID)
}

// --- ltag table ------------------------------------------------------------

// LTagTable lists IETF language tags, referenced by index from other tables.
type LTagTable struct {
	Version uint32
	Flags   uint32
	Tags    []string
}

func parseLTag(t *Table, ec *errorCollector) (*LTagTable, error) {
	p := NewParser(t.data, t.Offset)
	lt := &LTagTable{Version: p.U32(), Flags: p.U32()}
	n := int(p.U32())
	if p.Err() != nil || n > (len(t.data)-12)/4 {
		ec.major(t.Tag, "Header", t.Offset, ErrTableFormat, "ltag header corrupt")
		return nil, nil
	}
	for i := 0; i < n; i++ {
		off, length := int(p.U16()), int(p.U16())
		raw, err := binarySegm(t.data).view(off, length)
		if err != nil {
			ec.major(t.Tag, "Tags", t.Offset, ErrTableFormat, "ltag range %d out of bounds", i)
			return nil, nil
		}
		lt.Tags = append(lt.Tags, string(raw))
	}
	return lt, nil
}

// --- meta table ------------------------------------------------------------

// MetaTable contains metadata about the font. Entries with tags 'dlng' and
// 'slng' are text (comma-separated ScriptLangTags); all entries are
// available as raw bytes.
type MetaTable struct {
	Data map[Tag][]byte
}

// Text returns a text entry, such as 'dlng' (design languages).
func (t *MetaTable) Text(tag Tag) (string, bool) {
	if t == nil {
		return "", false
	}
	b, ok := t.Data[tag]
	return string(b), ok
}

func parseMeta(t *Table, ec *errorCollector) (*MetaTable, error) {
	p := NewParser(t.data, t.Offset)
	version := p.U32()
	p.Skip(8) // flags, reserved
	n := int(p.U32())
	if p.Err() != nil || version != 1 {
		ec.major(t.Tag, "Header", t.Offset, ErrUnsupportedFormat, "meta table version %d", version)
		return nil, nil
	}
	meta := &MetaTable{Data: make(map[Tag][]byte, n)}
	for i := 0; i < n; i++ {
		tag, off, length := p.Tag(), int(p.U32()), int(p.U32())
		raw, err := binarySegm(t.data).view(off, length)
		if p.Err() != nil || err != nil {
			ec.major(t.Tag, "DataMap", t.Offset, ErrTableFormat, "data map %d out of bounds", i)
			break
		}
		meta.Data[tag] = raw
	}
	return meta, nil
}
