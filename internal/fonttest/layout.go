package fonttest

import "sort"

// Lookup is a lookup of a layout table.
type Lookup struct {
	Type      uint16
	Flag      uint16
	Subtables [][]byte
}

// Feature links a feature tag to lookups.
type Feature struct {
	Tag     string
	Lookups []uint16
}

// Script links a script tag to features of its default language system.
// Languages are additional language systems.
type Script struct {
	Tag       string
	Features  []uint16
	Languages map[string][]uint16
}

// Layout describes a GSUB or GPOS table.
type Layout struct {
	Scripts  []Script
	Features []Feature
	Lookups  []Lookup
}

// Build encodes the layout table, version 1.0.
func (l Layout) Build() []byte {
	scripts := l.scriptList()
	features := l.featureList()
	lookups := l.lookupList()
	w := &Buf{}
	w.U16(1, 0, 10, uint16(10+len(scripts)), uint16(10+len(scripts)+len(features)))
	return w.Bytes(scripts).Bytes(features).Bytes(lookups).Data()
}

func langSys(features []uint16) []byte {
	w := &Buf{}
	w.U16(0, 0xffff, uint16(len(features))).U16(features...)
	return w.Data()
}

func (l Layout) scriptList() []byte {
	var tables [][]byte
	for _, s := range l.Scripts {
		langs := make([]string, 0, len(s.Languages))
		for tag := range s.Languages {
			langs = append(langs, tag)
		}
		sort.Strings(langs)
		hdr := 4 + 6*len(langs)
		w, data := &Buf{}, &Buf{}
		w.U16(uint16(hdr), uint16(len(langs)))
		data.Bytes(langSys(s.Features))
		for _, tag := range langs {
			w.Tag(tag).U16(uint16(hdr + data.Len()))
			data.Bytes(langSys(s.Languages[tag]))
		}
		tables = append(tables, w.Bytes(data.Data()).Data())
	}
	return tagOffsetList(tagsOf(l.Scripts, func(s Script) string { return s.Tag }), tables)
}

func (l Layout) featureList() []byte {
	var tables [][]byte
	for _, f := range l.Features {
		w := &Buf{}
		w.U16(0, uint16(len(f.Lookups))).U16(f.Lookups...)
		tables = append(tables, w.Data())
	}
	return tagOffsetList(tagsOf(l.Features, func(f Feature) string { return f.Tag }), tables)
}

func (l Layout) lookupList() []byte {
	var tables [][]byte
	for _, lk := range l.Lookups {
		hdr := 6 + 2*len(lk.Subtables)
		w, data := &Buf{}, &Buf{}
		w.U16(lk.Type, lk.Flag, uint16(len(lk.Subtables)))
		for _, st := range lk.Subtables {
			w.U16(uint16(hdr + data.Len()))
			data.Bytes(st)
		}
		tables = append(tables, w.Bytes(data.Data()).Data())
	}
	return offsetList(tables)
}

func tagsOf[T any](items []T, tag func(T) string) []string {
	tags := make([]string, len(items))
	for i, it := range items {
		tags[i] = tag(it)
	}
	return tags
}

// tagOffsetList writes a count, tag/offset records and the tables.
func tagOffsetList(tags []string, tables [][]byte) []byte {
	hdr := 2 + 6*len(tables)
	w, data := &Buf{}, &Buf{}
	w.U16(uint16(len(tables)))
	for i, t := range tables {
		w.Tag(tags[i]).U16(uint16(hdr + data.Len()))
		data.Bytes(t)
	}
	return w.Bytes(data.Data()).Data()
}

// offsetList writes a count, 16-bit offsets and the tables. A nil table
// yields a null offset.
func offsetList(tables [][]byte) []byte {
	return offsetListAt(0, tables)
}

// offsetListAt is offsetList for a list starting at position pos of its
// enclosing table, with offsets relative to the enclosing table.
func offsetListAt(pos int, tables [][]byte) []byte {
	hdr := pos + 2 + 2*len(tables)
	w, data := &Buf{}, &Buf{}
	w.U16(uint16(len(tables)))
	for _, t := range tables {
		if t == nil {
			w.U16(0)
			continue
		}
		w.U16(uint16(hdr + data.Len()))
		data.Bytes(t)
	}
	return w.Bytes(data.Data()).Data()
}

// --- Coverage and class definitions ----------------------------------------

// Coverage1 encodes a coverage table of format 1.
func Coverage1(glyphs ...uint16) []byte {
	w := &Buf{}
	return w.U16(1, uint16(len(glyphs))).U16(glyphs...).Data()
}

// Coverage2 encodes a coverage table of format 2 from ranges
// (start, end) pairs.
func Coverage2(ranges ...[2]uint16) []byte {
	w := &Buf{}
	w.U16(2, uint16(len(ranges)))
	inx := 0
	for _, r := range ranges {
		w.U16(r[0], r[1], uint16(inx))
		inx += int(r[1]-r[0]) + 1
	}
	return w.Data()
}

// ClassDef2 encodes a class definition table of format 2 from
// (start, end, class) triples.
func ClassDef2(ranges ...[3]uint16) []byte {
	w := &Buf{}
	w.U16(2, uint16(len(ranges)))
	for _, r := range ranges {
		w.U16(r[0], r[1], r[2])
	}
	return w.Data()
}

// ClassDef1 encodes a class definition table of format 1.
func ClassDef1(start uint16, classes ...uint16) []byte {
	w := &Buf{}
	return w.U16(1, start, uint16(len(classes))).U16(classes...).Data()
}

// --- GSUB subtables --------------------------------------------------------

// withCoverage appends a coverage table to a subtable whose coverage
// offset is at byte position 2.
func withCoverage(w *Buf, cov []byte) []byte {
	w.PutU16(2, uint16(w.Len()))
	return w.Bytes(cov).Data()
}

// SingleSubst1 encodes a single substitution with a delta.
func SingleSubst1(delta int16, glyphs ...uint16) []byte {
	w := &Buf{}
	w.U16(1, 0).I16(delta)
	return withCoverage(w, Coverage1(glyphs...))
}

// SingleSubst2 encodes a single substitution of format 2 from a mapping.
func SingleSubst2(m map[uint16]uint16) []byte {
	glyphs := sortedKeys(m)
	w := &Buf{}
	w.U16(2, 0, uint16(len(glyphs)))
	for _, g := range glyphs {
		w.U16(m[g])
	}
	return withCoverage(w, Coverage1(glyphs...))
}

// MultipleSubst encodes a multiple substitution.
func MultipleSubst(m map[uint16][]uint16) []byte {
	return sequenceSubst(m)
}

// AlternateSubst encodes an alternate substitution.
func AlternateSubst(m map[uint16][]uint16) []byte {
	return sequenceSubst(m)
}

func sequenceSubst(m map[uint16][]uint16) []byte {
	glyphs := sortedKeys(m)
	var seqs [][]byte
	for _, g := range glyphs {
		w := &Buf{}
		seqs = append(seqs, w.U16(uint16(len(m[g]))).U16(m[g]...).Data())
	}
	w := &Buf{}
	w.U16(1, 0).Bytes(offsetListAt(4, seqs))
	return withCoverage(w, Coverage1(glyphs...))
}

// Ligature is a ligature rule: the first glyph followed by Components is
// replaced by Glyph.
type Ligature struct {
	Components []uint16
	Glyph      uint16
}

// LigatureSubst encodes a ligature substitution, keyed by first glyph.
// Rules are written in the given order.
func LigatureSubst(sets map[uint16][]Ligature) []byte {
	firsts := sortedKeys(sets)
	var setTables [][]byte
	for _, g := range firsts {
		var ligs [][]byte
		for _, lig := range sets[g] {
			w := &Buf{}
			ligs = append(ligs, w.U16(lig.Glyph, uint16(len(lig.Components)+1)).U16(lig.Components...).Data())
		}
		setTables = append(setTables, offsetList(ligs))
	}
	w := &Buf{}
	w.U16(1, 0).Bytes(offsetListAt(4, setTables))
	return withCoverage(w, Coverage1(firsts...))
}

// ChainContextSubst3 encodes a chaining context substitution of format 3.
// Each of backtrack, input and lookahead is a list of glyph sets, one set
// per position. Backtrack is given in reading order away from the input.
// Records are (sequence index, lookup index) pairs.
func ChainContextSubst3(backtrack, input, lookahead [][]uint16, records ...[2]uint16) []byte {
	hdr := 2 + 2 + len(backtrack)*2 + 2 + len(input)*2 + 2 + len(lookahead)*2 + 2 + len(records)*4
	w, covs := &Buf{}, &Buf{}
	w.U16(3)
	off := func(sets [][]uint16) {
		w.U16(uint16(len(sets)))
		for _, s := range sets {
			w.U16(uint16(hdr + covs.Len()))
			covs.Bytes(Coverage1(s...))
		}
	}
	off(backtrack)
	off(input)
	off(lookahead)
	w.U16(uint16(len(records)))
	for _, r := range records {
		w.U16(r[0], r[1])
	}
	return w.Bytes(covs.Data()).Data()
}

// ContextSubst1 encodes a context substitution of format 1 with a single
// rule for glyph first.
func ContextSubst1(first uint16, rest []uint16, records ...[2]uint16) []byte {
	rule := &Buf{}
	rule.U16(uint16(len(rest)+1), uint16(len(records))).U16(rest...)
	for _, r := range records {
		rule.U16(r[0], r[1])
	}
	set := offsetList([][]byte{rule.Data()})
	w := &Buf{}
	w.U16(1, 0).Bytes(offsetListAt(4, [][]byte{set}))
	return withCoverage(w, Coverage1(first))
}

// ReverseChainSubst encodes a reverse chaining single substitution with
// one lookahead position.
func ReverseChainSubst(m map[uint16]uint16, lookahead []uint16) []byte {
	glyphs := sortedKeys(m)
	hdr := 2 + 2 + 2 + 2 + 2 + 2 + 2*len(glyphs)
	w := &Buf{}
	w.U16(1, 0, 0, 1, uint16(hdr), uint16(len(glyphs)))
	for _, g := range glyphs {
		w.U16(m[g])
	}
	w.Bytes(Coverage1(lookahead...))
	return withCoverage(w, Coverage1(glyphs...))
}

// Extension wraps a subtable of type ltype into an extension subtable.
func Extension(ltype uint16, sub []byte) []byte {
	w := &Buf{}
	return w.U16(1, ltype).U32(8).Bytes(sub).Data()
}

// --- GPOS subtables --------------------------------------------------------

// PairPos1 encodes a pair adjustment of format 1, adjusting the x-advance
// of first glyphs.
func PairPos1(pairs map[[2]uint16]int16) []byte {
	values := make(map[[2]uint16][]int16, len(pairs))
	for p, v := range pairs {
		values[p] = []int16{v}
	}
	return pairPos1(0, values)
}

// PairPos1Placement is like PairPos1, but the value record of the second
// glyph carries an x-placement. pairs map to {x-advance of first glyph,
// x-placement of second glyph}.
func PairPos1Placement(pairs map[[2]uint16][2]int16) []byte {
	values := make(map[[2]uint16][]int16, len(pairs))
	for p, v := range pairs {
		values[p] = []int16{v[0], v[1]}
	}
	return pairPos1(0x0001, values)
}

// pairPos1 writes value records of format XAdvance for first glyphs and
// vf2 for second glyphs.
func pairPos1(vf2 uint16, pairs map[[2]uint16][]int16) []byte {
	type rec struct {
		second uint16
		values []int16
	}
	sets := make(map[uint16][]rec)
	for p, v := range pairs {
		sets[p[0]] = append(sets[p[0]], rec{p[1], v})
	}
	firsts := sortedKeys(sets)
	var setTables [][]byte
	for _, g := range firsts {
		recs := sets[g]
		sort.Slice(recs, func(i, j int) bool { return recs[i].second < recs[j].second })
		w := &Buf{}
		w.U16(uint16(len(recs)))
		for _, r := range recs {
			w.U16(r.second).I16(r.values...)
		}
		setTables = append(setTables, w.Data())
	}
	w := &Buf{}
	w.U16(1, 0, 0x0004, vf2).Bytes(offsetListAt(8, setTables))
	return withCoverage(w, Coverage1(firsts...))
}

// PairPos2 encodes a pair adjustment of format 2, adjusting the x-advance
// of first glyphs. values is indexed [class1][class2].
func PairPos2(covered []uint16, classDef1, classDef2 []byte, values [][]int16) []byte {
	c1, c2 := len(values), 0
	if c1 > 0 {
		c2 = len(values[0])
	}
	w := &Buf{}
	w.U16(2, 0, 0x0004, 0, 0, 0, uint16(c1), uint16(c2))
	for _, row := range values {
		w.I16(row...)
	}
	w.PutU16(8, uint16(w.Len()))
	w.Bytes(classDef1)
	w.PutU16(10, uint16(w.Len()))
	w.Bytes(classDef2)
	return withCoverage(w, Coverage1(covered...))
}

// SinglePos1 encodes a single adjustment of format 1 with an x-placement
// and x-advance value.
func SinglePos1(xPlacement, xAdvance int16, glyphs ...uint16) []byte {
	w := &Buf{}
	w.U16(1, 0, 0x0005).I16(xPlacement, xAdvance)
	return withCoverage(w, Coverage1(glyphs...))
}

// GDef encodes a GDEF table (version 1.0) with a glyph class definition.
func GDef(classDef []byte) []byte {
	w := &Buf{}
	w.U16(1, 0, 12, 0, 0, 0)
	return w.Bytes(classDef).Data()
}

func sortedKeys[V any](m map[uint16]V) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
