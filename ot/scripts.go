package ot

import (
	"fmt"
	"iter"
)

// ScriptList is a semantic container for the scripts of a GSUB/GPOS
// ScriptList. It does not expose record-layout details of the OpenType
// byte format.
type ScriptList struct {
	scriptOrder []Tag
	scriptByTag map[Tag]*Script
}

// Script is a semantic container for one OpenType Script table.
type Script struct {
	Tag            Tag
	langOrder      []Tag
	langByTag      map[Tag]*LangSys
	defaultLangSys *LangSys
}

// LangSys is a semantic view of one OpenType LangSys table, with features
// resolved against the FeatureList.
type LangSys struct {
	Tag                  Tag
	requiredFeatureIndex uint16 // 0xFFFF means no required feature
	featureIndices       []uint16
	features             []*Feature
}

// FeatureList is a semantic container for the features of a GSUB/GPOS
// FeatureList. Duplicate feature tags are preserved.
type FeatureList struct {
	featuresByIndex []*Feature
	indicesByTag    map[Tag][]int
}

// Feature is a semantic view of one OpenType Feature table.
type Feature struct {
	Tag               Tag
	lookupListIndices []uint16
}

// Len returns the number of scripts in the list.
func (sl *ScriptList) Len() int {
	if sl == nil {
		return 0
	}
	return len(sl.scriptOrder)
}

// Script returns a script by tag.
func (sl *ScriptList) Script(tag Tag) *Script {
	if sl == nil || sl.scriptByTag == nil {
		return nil
	}
	return sl.scriptByTag[tag]
}

// Range iterates scripts in declaration order.
func (sl *ScriptList) Range() iter.Seq2[Tag, *Script] {
	return func(yield func(Tag, *Script) bool) {
		if sl == nil {
			return
		}
		for _, tag := range sl.scriptOrder {
			if !yield(tag, sl.scriptByTag[tag]) {
				return
			}
		}
	}
}

// LangSys returns a language system by tag. DFLT selects the default
// language system.
func (s *Script) LangSys(tag Tag) *LangSys {
	if s == nil {
		return nil
	}
	if tag == DFLT {
		return s.defaultLangSys
	}
	return s.langByTag[tag]
}

// DefaultLangSys returns the default language system, which may be nil.
func (s *Script) DefaultLangSys() *LangSys {
	if s == nil {
		return nil
	}
	return s.defaultLangSys
}

// Range iterates language-systems in declaration order.
func (s *Script) Range() iter.Seq2[Tag, *LangSys] {
	return func(yield func(Tag, *LangSys) bool) {
		if s == nil {
			return
		}
		for _, tag := range s.langOrder {
			if !yield(tag, s.langByTag[tag]) {
				return
			}
		}
	}
}

// RequiredFeatureIndex returns the required-feature index and whether it is set.
func (ls *LangSys) RequiredFeatureIndex() (uint16, bool) {
	if ls == nil || ls.requiredFeatureIndex == 0xffff {
		return 0, false
	}
	return ls.requiredFeatureIndex, true
}

// FeatureAt returns a resolved feature by feature-link position.
func (ls *LangSys) FeatureAt(i int) *Feature {
	if ls == nil || i < 0 || i >= len(ls.features) {
		return nil
	}
	return ls.features[i]
}

// Features returns resolved features in language-system link order.
func (ls *LangSys) Features() []*Feature {
	if ls == nil || len(ls.features) == 0 {
		return nil
	}
	features := make([]*Feature, len(ls.features))
	copy(features, ls.features)
	return features
}

// Feature returns the first feature of the language system with a given tag.
func (ls *LangSys) Feature(tag Tag) *Feature {
	if ls == nil {
		return nil
	}
	for _, f := range ls.features {
		if f != nil && f.Tag == tag {
			return f
		}
	}
	return nil
}

// Len returns the number of features in the feature list.
func (fl *FeatureList) Len() int {
	if fl == nil {
		return 0
	}
	return len(fl.featuresByIndex)
}

// At returns the feature at index i of the list.
func (fl *FeatureList) At(i int) *Feature {
	if fl == nil || i < 0 || i >= len(fl.featuresByIndex) {
		return nil
	}
	return fl.featuresByIndex[i]
}

// Range iterates features in declaration order and preserves duplicate tags.
func (fl *FeatureList) Range() iter.Seq2[Tag, *Feature] {
	return func(yield func(Tag, *Feature) bool) {
		if fl == nil {
			return
		}
		for _, f := range fl.featuresByIndex {
			if !yield(f.Tag, f) {
				return
			}
		}
	}
}

// Indices returns all indices matching a feature tag.
func (fl *FeatureList) Indices(tag Tag) []int {
	if fl == nil || len(fl.indicesByTag[tag]) == 0 {
		return nil
	}
	indices := fl.indicesByTag[tag]
	out := make([]int, len(indices))
	copy(out, indices)
	return out
}

// First returns the first feature matching a feature tag.
func (fl *FeatureList) First(tag Tag) *Feature {
	if fl == nil || len(fl.indicesByTag[tag]) == 0 {
		return nil
	}
	return fl.featuresByIndex[fl.indicesByTag[tag][0]]
}

// All returns all features matching a feature tag.
func (fl *FeatureList) All(tag Tag) []*Feature {
	if fl == nil {
		return nil
	}
	var out []*Feature
	for _, i := range fl.indicesByTag[tag] {
		out = append(out, fl.featuresByIndex[i])
	}
	return out
}

// LookupCount returns the number of linked lookups.
func (f *Feature) LookupCount() int {
	if f == nil {
		return 0
	}
	return len(f.lookupListIndices)
}

// LookupIndices returns the indices into the lookup list, in order of
// application.
func (f *Feature) LookupIndices() []int {
	if f == nil {
		return nil
	}
	out := make([]int, len(f.lookupListIndices))
	for i, inx := range f.lookupListIndices {
		out[i] = int(inx)
	}
	return out
}

// --- Parsing ---------------------------------------------------------------

// tagOffsetRecord is the on-disk format of script, language-system and
// feature records.
type tagOffsetRecord struct {
	Tag    Tag
	Offset uint16
}

func readTagOffsetRecords(p *Parser, limit int, what string) ([]tagOffsetRecord, error) {
	n := int(p.U16())
	if p.Err() != nil {
		return nil, fmt.Errorf("%s count: %w", what, p.Err())
	}
	if n > limit {
		return nil, fmt.Errorf("%s count %d exceeds limit %d", what, n, limit)
	}
	recs := make([]tagOffsetRecord, n)
	for i := range recs {
		p.ReadStruct(&recs[i])
	}
	if p.Err() != nil {
		return nil, fmt.Errorf("%s records: %w", what, p.Err())
	}
	return recs, nil
}

// parseFeatureList reads a FeatureList at the start of p.
func parseFeatureList(p *Parser, lookupCount int) (*FeatureList, error) {
	recs, err := readTagOffsetRecords(p, MaxFeatureCount, "feature")
	if err != nil {
		return nil, err
	}
	fl := &FeatureList{
		featuresByIndex: make([]*Feature, len(recs)),
		indicesByTag:    make(map[Tag][]int),
	}
	for i, rec := range recs {
		fp := p.Sub(int(rec.Offset))
		fp.Skip(2) // featureParamsOffset
		n := int(fp.U16())
		if n > MaxLookupCount {
			return nil, fmt.Errorf("feature %s: lookup count %d exceeds limit", rec.Tag, n)
		}
		indices := fp.U16List(n)
		if fp.Err() != nil {
			return nil, fmt.Errorf("feature %s: %w", rec.Tag, fp.Err())
		}
		for _, inx := range indices {
			if int(inx) >= lookupCount {
				return nil, fmt.Errorf("feature %s references lookup %d of %d", rec.Tag, inx, lookupCount)
			}
		}
		fl.featuresByIndex[i] = &Feature{Tag: rec.Tag, lookupListIndices: indices}
		fl.indicesByTag[rec.Tag] = append(fl.indicesByTag[rec.Tag], i)
	}
	return fl, nil
}

// parseScriptList reads a ScriptList at the start of p, linking language
// systems to the features of fl.
func parseScriptList(p *Parser, fl *FeatureList) (*ScriptList, error) {
	recs, err := readTagOffsetRecords(p, MaxScriptCount, "script")
	if err != nil {
		return nil, err
	}
	sl := &ScriptList{scriptByTag: make(map[Tag]*Script, len(recs))}
	for _, rec := range recs {
		sp := p.Sub(int(rec.Offset))
		script := &Script{Tag: rec.Tag, langByTag: make(map[Tag]*LangSys)}
		defaultOffset := int(sp.U16())
		langs, err := readTagOffsetRecords(sp, MaxTagListCount, "language system")
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", rec.Tag, err)
		}
		if defaultOffset != 0 {
			if script.defaultLangSys, err = parseLangSys(sp.Sub(defaultOffset), DFLT, fl); err != nil {
				return nil, fmt.Errorf("script %s: %w", rec.Tag, err)
			}
		}
		for _, lrec := range langs {
			ls, err := parseLangSys(sp.Sub(int(lrec.Offset)), lrec.Tag, fl)
			if err != nil {
				return nil, fmt.Errorf("script %s: %w", rec.Tag, err)
			}
			script.langOrder = append(script.langOrder, lrec.Tag)
			script.langByTag[lrec.Tag] = ls
		}
		if _, dup := sl.scriptByTag[rec.Tag]; !dup {
			sl.scriptOrder = append(sl.scriptOrder, rec.Tag)
		}
		sl.scriptByTag[rec.Tag] = script
	}
	return sl, nil
}

func parseLangSys(p *Parser, tag Tag, fl *FeatureList) (*LangSys, error) {
	p.Skip(2) // lookupOrderOffset, reserved
	ls := &LangSys{Tag: tag, requiredFeatureIndex: p.U16()}
	n := int(p.U16())
	if n > MaxFeatureCount {
		return nil, fmt.Errorf("language system %s: feature count %d exceeds limit", tag, n)
	}
	ls.featureIndices = p.U16List(n)
	if p.Err() != nil {
		return nil, fmt.Errorf("language system %s: %w", tag, p.Err())
	}
	for _, inx := range ls.featureIndices {
		f := fl.At(int(inx))
		if f == nil {
			return nil, fmt.Errorf("language system %s references feature %d of %d", tag, inx, fl.Len())
		}
		ls.features = append(ls.features, f)
	}
	if req, ok := ls.RequiredFeatureIndex(); ok && fl.At(int(req)) == nil {
		return nil, fmt.Errorf("language system %s: required feature %d out of range", tag, req)
	}
	return ls, nil
}
