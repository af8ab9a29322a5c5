package otlayout

import (
	"fmt"

	"github.com/npillmayer/fontshape/ot"
)

// LayoutTagType tells whether a feature lives in GSUB or in GPOS.
type LayoutTagType uint8

const (
	GSubFeatureType LayoutTagType = 1 // glyph substitution
	GPosFeatureType LayoutTagType = 2 // glyph positioning
)

func (t LayoutTagType) String() string {
	switch t {
	case GSubFeatureType:
		return "GSUB"
	case GPosFeatureType:
		return "GPOS"
	}
	return fmt.Sprintf("LayoutTagType(%d)", uint8(t))
}

// Feature is a type for OpenType layout features.
// From the specification website
// https://docs.microsoft.com/en-us/typography/opentype/spec/featuretags :
//
// “Features provide information about how to use the glyphs in a font to render a script or
// language. For example, an Arabic font might have a feature for substituting initial glyph
// forms, and a Kanji font might have a feature for positioning glyphs vertically. All
// OpenType Layout features define data for glyph substitution, glyph positioning, or both.”
//
// A feature uses ‘lookups’ to do operations on glyphs. GSUB and GPOS tables store lookups in a
// LookupList, into which Features link by maintaining a list of indices into the LookupList.
// The order of the lookup indices matters.
type Feature interface {
	Tag() ot.Tag         // e.g., 'liga'
	Type() LayoutTagType // GSUB or GPOS ?
	LookupCount() int    // number of Lookups for this feature
	LookupIndex(int) int // get index of lookup #i
}

// feature is the default implementation of Feature.
type feature struct {
	typ           LayoutTagType
	tag           ot.Tag
	lookupIndices []int
}

func wrapFeature(f *ot.Feature, typ LayoutTagType) Feature {
	if f == nil {
		return nil
	}
	return feature{typ: typ, tag: f.Tag, lookupIndices: f.LookupIndices()}
}

// Tag returns the identifying tag of this feature.
func (f feature) Tag() ot.Tag {
	return f.tag
}

// Type returns wether this is a GSUB-feature or a GPOS-feature.
func (f feature) Type() LayoutTagType {
	return f.typ
}

// LookupCount returns the number of lookup entries for a feature.
func (f feature) LookupCount() int {
	return len(f.lookupIndices)
}

// LookupIndex gets the index-position of lookup number i.
func (f feature) LookupIndex(i int) int {
	if i < 0 || i >= len(f.lookupIndices) {
		return -1
	}
	return f.lookupIndices[i]
}

func (f feature) String() string {
	return fmt.Sprintf("%s:%s%v", f.typ, f.tag, f.lookupIndices)
}

// layoutTable returns the GSUB or GPOS table of a font.
func layoutTable(otf *ot.Font, typ LayoutTagType) *ot.LayoutTable {
	if otf == nil {
		return nil
	}
	if typ == GPosFeatureType {
		return otf.Layout.GPos
	}
	return otf.Layout.GSub
}

// FontFeatures looks up OpenType layout features in OpenType font otf, i.e. it trys to
// find features in table GSUB as well as in table GPOS.
// In OpenType, features may be specific for script/language combinations, or DFLT.
// Setting script to 0 will look for a DFLT feature set, as will a script the
// font does not know. Setting lang to 0 selects the default language system.
//
// Returns GSUB features, GPOS features and a possible error condition.
// The features at index 0 of each slice are the mandatory features (for a script), and may
// be nil. A font without a GSUB or GPOS table yields an empty slice for it.
func FontFeatures(otf *ot.Font, script, lang ot.Tag) ([]Feature, []Feature, error) {
	if script == 0 {
		script = ot.DFLT
	}
	var feats [2][]Feature
	for i, typ := range []LayoutTagType{GSubFeatureType, GPosFeatureType} {
		lyt := layoutTable(otf, typ)
		if lyt == nil {
			feats[i] = []Feature{}
			continue
		}
		scr := lyt.ScriptList.Script(script)
		if scr == nil && script != ot.DFLT {
			scr = lyt.ScriptList.Script(ot.DFLT)
		}
		if scr == nil {
			tracer().Infof("%s has no feature-links from script %s", typ, script)
			feats[i] = []Feature{}
			continue
		}
		var lsys *ot.LangSys
		if lang != 0 {
			lsys = scr.LangSys(lang)
		}
		if lsys == nil {
			lsys = scr.DefaultLangSys()
		}
		if lsys == nil {
			return nil, nil, errFontFormat(fmt.Sprintf("%s has empty LangSys entry for %s", typ, script))
		}
		features := lsys.Features()
		feats[i] = make([]Feature, 0, 1+len(features))
		if reqInx, ok := lsys.RequiredFeatureIndex(); ok {
			feats[i] = append(feats[i], wrapFeature(lyt.FeatureList.At(int(reqInx)), typ))
		} else {
			feats[i] = append(feats[i], nil) // mandatory feature slot
		}
		for j, f := range features {
			feats[i] = append(feats[i], wrapFeature(f, typ))
			tracer().Debugf("%2d: feat[%v] ", j+1, f.Tag)
		}
	}
	return feats[0], feats[1], nil
}

// --- Feature application ---------------------------------------------------

// ApplyFeature will apply a feature to one or more glyphs of buffer st, starting at
// position st.Index. The lookups of the feature are applied in sequence at that position.
// It will return the position after application of the feature and true, if any lookup
// has been applied.
//
// If a feature is unsuited for the glyph at st.Index, ApplyFeature will do nothing and
// return st.Index.
func ApplyFeature(otf *ot.Font, feat Feature, st *BufferState, alt int) (int, bool) {
	if feat == nil { // this is legal for unused mandatory feature slots
		if st != nil {
			return st.Index, false
		}
		return 0, false
	} else if st == nil || st.Glyphs == nil || st.Index < 0 || st.Index >= st.Len() {
		tracer().Infof("application of font-feature requested for unusable buffer condition")
		if st != nil {
			return st.Index, false
		}
		return 0, false
	}
	lyt := layoutTable(otf, feat.Type())
	if lyt == nil {
		return st.Index, false
	}
	start, next := st.Index, st.Index
	applied := false
	for i := 0; i < feat.LookupCount(); i++ { // lookups have to be applied in sequence
		inx := feat.LookupIndex(i)
		tracer().Debugf("feature %s lookup #%d => index %d", feat.Tag(), i, inx)
		st.Index = start
		if pos, ok := applyLookup(newApplyCtx(otf, lyt, feat, st, alt), inx); ok {
			applied = true
			if pos > next {
				next = pos
			}
		}
	}
	st.Index = start
	return next, applied
}

// ApplyFeatureToBuffer applies the lookups of a feature to a whole buffer.
// Every lookup is applied to all positions of the buffer before the next
// lookup starts, as OpenType requires. Reverse chaining lookups run from the end
// of the buffer to its start. Returns true if any glyph has been affected.
func ApplyFeatureToBuffer(otf *ot.Font, feat Feature, st *BufferState, alt int) bool {
	if feat == nil || st == nil || st.Glyphs == nil {
		return false
	}
	lyt := layoutTable(otf, feat.Type())
	if lyt == nil {
		return false
	}
	applied := false
	for i := 0; i < feat.LookupCount(); i++ {
		inx := feat.LookupIndex(i)
		lookup := lyt.LookupList.Lookup(inx)
		if lookup == nil {
			tracer().Errorf("feature %s references missing lookup %d", feat.Tag(), inx)
			continue
		}
		ctx := newApplyCtx(otf, lyt, feat, st, alt)
		if !lyt.IsGPos() && lookup.Type == ot.GSubLookupTypeReverseChaining {
			for st.Index = st.Len() - 1; st.Index >= 0; st.Index-- {
				_, ok := applyLookup(ctx, inx)
				applied = applied || ok
			}
			continue
		}
		for st.Index = 0; st.Index < st.Len(); {
			next, ok := applyLookup(ctx, inx)
			applied = applied || ok
			if !ok || next <= st.Index {
				next = st.Index + 1
			}
			st.Index = next
		}
	}
	st.Index = 0
	return applied
}

// --- Registered feature tags -----------------------------------------------

// RegisteredFeatureTags lists the feature tags of the OpenType registry this
// package knows about, together with the layout table they usually live in.
var RegisteredFeatureTags = map[ot.Tag]LayoutTagType{
	ot.T("aalt"): GSubFeatureType, // access all alternates
	ot.T("abvs"): GSubFeatureType, // above-base substitutions
	ot.T("afrc"): GSubFeatureType, // alternative fractions
	ot.T("calt"): GSubFeatureType, // contextual alternates
	ot.T("case"): GPosFeatureType, // case-sensitive forms
	ot.T("ccmp"): GSubFeatureType, // glyph composition/decomposition
	ot.T("clig"): GSubFeatureType, // contextual ligatures
	ot.T("cpsp"): GPosFeatureType, // capital spacing
	ot.T("cswh"): GSubFeatureType, // contextual swash
	ot.T("curs"): GPosFeatureType, // cursive positioning
	ot.T("c2sc"): GSubFeatureType, // small capitals from capitals
	ot.T("dlig"): GSubFeatureType, // discretionary ligatures
	ot.T("dist"): GPosFeatureType, // distances
	ot.T("fina"): GSubFeatureType, // terminal forms
	ot.T("frac"): GSubFeatureType, // fractions
	ot.T("hist"): GSubFeatureType, // historical forms
	ot.T("hlig"): GSubFeatureType, // historical ligatures
	ot.T("init"): GSubFeatureType, // initial forms
	ot.T("isol"): GSubFeatureType, // isolated forms
	ot.T("kern"): GPosFeatureType, // kerning
	ot.T("liga"): GSubFeatureType, // standard ligatures
	ot.T("lnum"): GSubFeatureType, // lining figures
	ot.T("locl"): GSubFeatureType, // localized forms
	ot.T("mark"): GPosFeatureType, // mark positioning
	ot.T("medi"): GSubFeatureType, // medial forms
	ot.T("mkmk"): GPosFeatureType, // mark to mark positioning
	ot.T("mset"): GSubFeatureType, // mark positioning via substitution
	ot.T("onum"): GSubFeatureType, // oldstyle figures
	ot.T("ordn"): GSubFeatureType, // ordinals
	ot.T("pnum"): GSubFeatureType, // proportional figures
	ot.T("rlig"): GSubFeatureType, // required ligatures
	ot.T("salt"): GSubFeatureType, // stylistic alternates
	ot.T("sinf"): GSubFeatureType, // scientific inferiors
	ot.T("size"): GPosFeatureType, // optical size
	ot.T("smcp"): GSubFeatureType, // small capitals
	ot.T("subs"): GSubFeatureType, // subscript
	ot.T("sups"): GSubFeatureType, // superscript
	ot.T("swsh"): GSubFeatureType, // swash
	ot.T("tnum"): GSubFeatureType, // tabular figures
	ot.T("vert"): GSubFeatureType, // vertical writing
	ot.T("vkrn"): GPosFeatureType, // vertical kerning
	ot.T("zero"): GSubFeatureType, // slashed zero
}

// IdentifyFeatureTag checks if we recognize a feature tag.
func IdentifyFeatureTag(tag ot.Tag) (LayoutTagType, error) {
	if tag&0xffff0000 == ot.T("cv__")&0xffff0000 { // cv00 - cv99
		return GSubFeatureType, nil
	}
	if tag&0xffff0000 == ot.T("ss__")&0xffff0000 { // ss00 - ss20
		return GSubFeatureType, nil
	}
	typ, ok := RegisteredFeatureTags[tag]
	if !ok {
		return 0, errFontFormat(fmt.Sprintf("feature '%s' seems not to be registered", tag))
	}
	return typ, nil
}
