package otlatin

import (
	"unicode"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// LatinWord is the name of the context of Latin words.
const LatinWord = "latinWord"

var (
	latinScript = language.MustParseScript("Latn")
	tagLatn     = ot.T("latn")
	tagLiga     = ot.T("liga")
)

// tracer writes to trace with key 'opentype.shaper'
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

// Shaper is the Latin shaping engine.
type Shaper struct{}

var _ otshape.ShapingEngine = Shaper{}

// New returns a new Latin shaping engine instance.
func New() otshape.ShapingEngine {
	return Shaper{}
}

// Name returns the stable engine name.
func (Shaper) Name() string {
	return "latin"
}

// Match returns how suitable the Latin engine is for ctx.
//
// It prefers Latin segments, and takes part in shaping text of unknown
// script. Explicit right-to-left scripts are rejected.
func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	var unknown language.Script
	switch {
	case ctx.Script == latinScript || ctx.ScriptTag == tagLatn:
		return otshape.ShaperConfidenceHigh
	case ctx.Script == unknown:
		return otshape.ShaperConfidenceMedium
	case ctx.Direction != bidi.LeftToRight:
		return otshape.ShaperConfidenceNone
	}
	return otshape.ShaperConfidenceLow
}

// Contexts returns the Latin word context.
func (Shaper) Contexts() []otshape.ContextChecker {
	return []otshape.ContextChecker{{
		Name:  LatinWord,
		Start: latinWordStart,
		End:   latinWordEnd,
	}}
}

// Stages returns the ligature stage for Latin words.
func (Shaper) Stages() []otshape.Stage {
	return []otshape.Stage{{
		Name:    "latin ligatures",
		Order:   otshape.StageLigatures,
		Context: LatinWord,
		Apply:   applyLigatures,
	}}
}

func applyLigatures(run *otshape.Run, rng otshape.Range) error {
	feat := run.GSubFeature(tagLatn, tagLiga)
	if feat == nil {
		return nil
	}
	if run.ApplyFeature(feat, rng) {
		tracer().Debugf("applied 'liga' to %s", rng)
	}
	return nil
}

// IsLatinChar is true for letters of the Latin script.
func IsLatinChar(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}

// inWord is true for characters continuing a Latin word.
func inWord(r rune) bool {
	return IsLatinChar(r) || unicode.In(r, unicode.Mn, unicode.Me)
}

func latinWordStart(p otshape.ContextParams) bool {
	if !IsLatinChar(p.Current()) {
		return false
	}
	prev, ok := p.Backtrack(1)
	return !ok || !inWord(prev)
}

func latinWordEnd(p otshape.ContextParams) bool {
	next, ok := p.Lookahead(1)
	return !ok || !inWord(next)
}
