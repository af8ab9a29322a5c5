package otlayout

import (
	"sync"

	"github.com/npillmayer/fontshape/ot"
)

// FeatureQuery finds the features of a font for a script and language. The
// features of a script are collected on first access and memoized.
//
// Scripts the font does not know fall back to DFLT, then to latn. An unknown
// feature yields a nil Feature, which applies as a no-op.
//
// A FeatureQuery is safe for concurrent use.
type FeatureQuery struct {
	otf   *ot.Font
	mx    sync.Mutex
	cache map[queryKey]*scriptFeatures
}

type queryKey struct {
	typ          LayoutTagType
	script, lang ot.Tag
}

// scriptFeatures holds the features of a language system, by tag.
type scriptFeatures struct {
	script   ot.Tag // script tag actually found in the font
	required Feature
	byTag    map[ot.Tag]Feature
	ordered  []Feature
}

// NewFeatureQuery creates a feature query for a font.
func NewFeatureQuery(otf *ot.Font) *FeatureQuery {
	return &FeatureQuery{otf: otf, cache: make(map[queryKey]*scriptFeatures)}
}

// Font returns the font this query operates on.
func (q *FeatureQuery) Font() *ot.Font {
	return q.otf
}

// Feature returns the feature with a given tag for a script and language.
// lang 0 selects the default language system.
func (q *FeatureQuery) Feature(typ LayoutTagType, script, lang, tag ot.Tag) Feature {
	sf := q.features(typ, script, lang)
	if sf == nil {
		return nil
	}
	return sf.byTag[tag]
}

// GSubFeature is a shortcut for Feature(GSubFeatureType, ...).
func (q *FeatureQuery) GSubFeature(script, lang, tag ot.Tag) Feature {
	return q.Feature(GSubFeatureType, script, lang, tag)
}

// GPosFeature is a shortcut for Feature(GPosFeatureType, ...).
func (q *FeatureQuery) GPosFeature(script, lang, tag ot.Tag) Feature {
	return q.Feature(GPosFeatureType, script, lang, tag)
}

// Required returns the required feature of a language system, if any.
func (q *FeatureQuery) Required(typ LayoutTagType, script, lang ot.Tag) Feature {
	if sf := q.features(typ, script, lang); sf != nil {
		return sf.required
	}
	return nil
}

// Features returns all features of a language system in font order.
func (q *FeatureQuery) Features(typ LayoutTagType, script, lang ot.Tag) []Feature {
	if sf := q.features(typ, script, lang); sf != nil {
		return sf.ordered
	}
	return nil
}

// Script returns the script tag that a query for script resolves to, or 0 if
// the font has no such script and no fallback.
func (q *FeatureQuery) Script(typ LayoutTagType, script ot.Tag) ot.Tag {
	if sf := q.features(typ, script, 0); sf != nil {
		return sf.script
	}
	return 0
}

func (q *FeatureQuery) features(typ LayoutTagType, script, lang ot.Tag) *scriptFeatures {
	if q == nil {
		return nil
	}
	key := queryKey{typ: typ, script: script, lang: lang}
	q.mx.Lock()
	defer q.mx.Unlock()
	if sf, ok := q.cache[key]; ok {
		return sf
	}
	sf := q.collect(typ, script, lang)
	q.cache[key] = sf
	return sf
}

func (q *FeatureQuery) collect(typ LayoutTagType, script, lang ot.Tag) *scriptFeatures {
	lyt := layoutTable(q.otf, typ)
	if lyt == nil {
		return nil
	}
	var scr *ot.Script
	for _, tag := range []ot.Tag{script, ot.DFLT, ot.T("latn")} {
		if tag == 0 {
			continue
		}
		if scr = lyt.ScriptList.Script(tag); scr != nil {
			break
		}
	}
	if scr == nil {
		tracer().Infof("%s has no script %s and no fallback", typ, script)
		return nil
	}
	var lsys *ot.LangSys
	if lang != 0 {
		lsys = scr.LangSys(lang)
	}
	if lsys == nil {
		lsys = scr.DefaultLangSys()
	}
	if lsys == nil {
		tracer().Infof("%s script %s has no default language system", typ, scr.Tag)
		return nil
	}
	sf := &scriptFeatures{script: scr.Tag, byTag: make(map[ot.Tag]Feature)}
	if reqInx, ok := lsys.RequiredFeatureIndex(); ok {
		sf.required = wrapFeature(lyt.FeatureList.At(int(reqInx)), typ)
	}
	for _, f := range lsys.Features() {
		feat := wrapFeature(f, typ)
		if feat == nil {
			continue
		}
		sf.ordered = append(sf.ordered, feat)
		if _, dup := sf.byTag[f.Tag]; !dup {
			sf.byTag[f.Tag] = feat
		}
	}
	tracer().Debugf("%s script %s: %d features", typ, scr.Tag, len(sf.ordered))
	return sf
}
