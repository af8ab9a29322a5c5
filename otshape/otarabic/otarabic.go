package otarabic

import (
	"strings"
	"sync"
	"unicode"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// Names of the contexts detected by the Arabic engine.
const (
	ArabicWord     = "arabicWord"
	ArabicSentence = "arabicSentence"
)

var arabicScript = language.MustParseScript("Arab")

var (
	tagArab = ot.T("arab")
	tagIsol = ot.T("isol")
	tagFina = ot.T("fina")
	tagMedi = ot.T("medi")
	tagInit = ot.T("init")
	tagRlig = ot.T("rlig")
)

const (
	formNone  = -1
	formIsol  = 0
	formFina  = 1
	formMedi  = 2
	formInit  = 3
	formCount = 4
)

var formTags = [formCount]ot.Tag{tagIsol, tagFina, tagMedi, tagInit}

// tracer writes to trace with key 'opentype.shaper'
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

// Shaper is the Arabic shaping engine.
type Shaper struct {
	mx        sync.Mutex
	fallbacks map[*ot.Font]map[rune]glyphForms
}

var _ otshape.ShapingEngine = (*Shaper)(nil)

// New returns the Arabic shaping engine.
func New() otshape.ShapingEngine {
	return &Shaper{}
}

func (*Shaper) Name() string {
	return "arabic"
}

// Match returns how suitable the Arabic engine is for ctx. It takes part in
// shaping text of unknown script.
func (*Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	var unknown language.Script
	switch {
	case ctx.Script == arabicScript || ctx.ScriptTag == tagArab:
		return otshape.ShaperConfidenceCertain
	case ctx.Script == unknown:
		return otshape.ShaperConfidenceMedium
	}
	return otshape.ShaperConfidenceNone
}

// Contexts returns the contexts for Arabic words and sentences.
func (*Shaper) Contexts() []otshape.ContextChecker {
	return []otshape.ContextChecker{
		{Name: ArabicWord, Start: arabicWordStart, End: arabicWordEnd},
		{Name: ArabicSentence, Start: arabicSentenceStart, End: arabicSentenceEnd},
	}
}

// Stages returns positional forms and required ligatures for words, and
// reversal for sentences.
func (s *Shaper) Stages() []otshape.Stage {
	return []otshape.Stage{
		{Name: "arabic forms", Order: otshape.StageForms, Context: ArabicWord, Apply: s.applyForms},
		{Name: "arabic required ligatures", Order: otshape.StageRequiredLigatures, Context: ArabicWord,
			Apply: applyRequiredLigatures},
		{Name: "arabic sentence reversal", Order: otshape.StageReorder, Context: ArabicSentence,
			Apply: reverseSentence},
	}
}

// --- Stages ----------------------------------------------------------------

func (s *Shaper) applyForms(run *otshape.Run, rng otshape.Range) error {
	toks := run.Tokens.RangeTokens(rng)
	chars := make([]rune, len(toks))
	for i, t := range toks {
		chars[i] = t.Char
	}
	forms := resolveJoiningForms(chars)
	var fallback map[rune]glyphForms
	for i, pos := 0, rng.Start; pos < rng.End; pos++ {
		t := run.Tokens.Token(pos)
		if t.IsDeleted() {
			continue
		}
		form := forms[i]
		i++
		if form == formNone {
			continue
		}
		tag := formTags[form]
		t.Set(otshape.KeyForm, tag)
		if !run.FeatureEnabled(tag) {
			continue
		}
		if feat := run.GSubFeature(tagArab, tag); feat != nil {
			run.ApplyFeatureAt(feat, rng, pos)
			continue
		}
		if fallback == nil {
			fallback = s.fallbackGlyphs(run.Font)
		}
		if gid, ok := fallbackGlyphFor(fallback, t.Char, form); ok {
			t.SetGlyphIndex(gid)
			t.SetFeature(tag)
		}
	}
	return nil
}

func applyRequiredLigatures(run *otshape.Run, rng otshape.Range) error {
	if feat := run.GSubFeature(tagArab, tagRlig); feat != nil {
		run.ApplyFeature(feat, rng)
	}
	return nil
}

func reverseSentence(run *otshape.Run, rng otshape.Range) error {
	tracer().Debugf("reversing %s", rng)
	run.Tokens.Reverse(rng)
	return nil
}

// --- Contexts --------------------------------------------------------------

// IsArabicChar is true for characters of the Arabic blocks and for other
// characters of bidi class AL.
func IsArabicChar(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x065F, r >= 0x066A && r <= 0x06D2, r >= 0x06FA && r <= 0x06FF:
		return true
	}
	props, _ := bidi.LookupRune(r)
	return props.Class() == bidi.AL
}

// Arabic non-spacing marks. Most of them have script Inherited, so the
// script table unicode.Arabic does not contain them.
var tashkeel = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0610, Hi: 0x061A, Stride: 1},
		{Lo: 0x064B, Hi: 0x065F, Stride: 1},
		{Lo: 0x0670, Hi: 0x0670, Stride: 1},
		{Lo: 0x06D6, Hi: 0x06ED, Stride: 1},
	},
}

// IsTashkeel is true for Arabic combining marks (vowel signs etc.).
func IsTashkeel(r rune) bool {
	return unicode.Is(tashkeel, r) && unicode.Is(unicode.Mn, r)
}

func arabicWordStart(p otshape.ContextParams) bool {
	if !IsArabicChar(p.Current()) {
		return false
	}
	prev, ok := p.Backtrack(1)
	return !ok || !IsArabicChar(prev)
}

func arabicWordEnd(p otshape.ContextParams) bool {
	next, ok := p.Lookahead(1)
	return !ok || !IsArabicChar(next)
}

func arabicSentenceStart(p otshape.ContextParams) bool {
	ch := p.Current()
	if !IsArabicChar(ch) && !IsTashkeel(ch) {
		return false
	}
	prev, ok := p.Backtrack(1)
	return !ok || !IsArabicChar(prev)
}

// A sentence continues across white space, if more Arabic follows.
func arabicSentenceEnd(p otshape.ContextParams) bool {
	next, ok := p.Lookahead(1)
	if !ok {
		return true
	}
	if IsArabicChar(next) || IsTashkeel(next) {
		return false
	}
	if !unicode.IsSpace(next) {
		return true
	}
	for k := 2; ; k++ {
		ch, ok := p.Lookahead(k)
		if !ok {
			return true
		}
		if IsArabicChar(ch) || IsTashkeel(ch) {
			return false
		}
	}
}

// --- Joining ---------------------------------------------------------------

type joiningType uint8

const (
	joiningTypeU joiningType = iota // non-joining
	joiningTypeR                    // joins the preceding character only
	joiningTypeD                    // dual joining
	joiningTypeT                    // transparent
	joiningTypeC                    // join causing
)

// resolveJoiningForms decides the positional form of every character.
// Transparent characters (marks) are skipped when looking for neighbours
// and receive no form.
func resolveJoiningForms(chars []rune) []int {
	n := len(chars)
	forms := make([]int, n)
	types := make([]joiningType, n)
	for i, ch := range chars {
		forms[i] = formNone
		types[i] = classifyJoiningType(ch)
	}
	for i := 0; i < n; i++ {
		t := types[i]
		if t != joiningTypeD && t != joiningTypeR {
			continue
		}
		prev := previousJoinType(types, i)
		next := nextJoinType(types, i)
		joinPrev := prev >= 0 && canJoinFollowing(types[prev]) && canJoinPreceding(t)
		joinNext := next >= 0 && canJoinFollowing(t) && canJoinPreceding(types[next])
		switch {
		case joinPrev && joinNext:
			forms[i] = formMedi
		case joinPrev:
			forms[i] = formFina
		case joinNext:
			forms[i] = formInit
		default:
			forms[i] = formIsol
		}
	}
	return forms
}

func previousJoinType(types []joiningType, i int) int {
	for j := i - 1; j >= 0; j-- {
		if types[j] != joiningTypeT {
			return j
		}
	}
	return -1
}

func nextJoinType(types []joiningType, i int) int {
	for j := i + 1; j < len(types); j++ {
		if types[j] != joiningTypeT {
			return j
		}
	}
	return -1
}

func canJoinPreceding(t joiningType) bool {
	return t == joiningTypeD || t == joiningTypeR || t == joiningTypeC
}

func canJoinFollowing(t joiningType) bool {
	return t == joiningTypeD || t == joiningTypeC
}

func classifyJoiningType(cp rune) joiningType {
	switch {
	case cp == 0, cp == '\u200C', cp == '\u0621': // ZWNJ and hamza break joining
		return joiningTypeU
	case cp == '\u200D' || cp == '\u0640': // ZWJ, Tatweel
		return joiningTypeC
	case unicode.Is(unicode.M, cp):
		return joiningTypeT
	case isIsolatedArabicChar(cp):
		if unicode.IsLetter(cp) {
			return joiningTypeR
		}
		return joiningTypeU
	case unicode.IsLetter(cp) && IsArabicChar(cp):
		return joiningTypeD
	}
	return joiningTypeU
}

// Characters which never connect to the following character.
var isolatedArabicChars = map[rune]struct{}{
	'ء': {}, 'آ': {}, 'أ': {}, 'ؤ': {}, 'إ': {}, 'ا': {},
	'د': {}, 'ذ': {}, 'ر': {}, 'ز': {}, 'و': {},
	'١': {}, '٫': {},
	'ٱ': {}, 'ٲ': {}, 'ٳ': {}, 'ٵ': {}, 'ٶ': {}, 'ٷ': {},
	'ڈ': {}, 'ډ': {}, 'ڊ': {}, 'ڋ': {}, 'ڌ': {}, 'ڍ': {}, 'ڎ': {}, 'ڏ': {},
	'ڐ': {}, 'ڑ': {}, 'ڒ': {}, 'ړ': {}, 'ڔ': {}, 'ڕ': {}, 'ږ': {}, 'ڗ': {},
	'ژ': {}, 'ڙ': {},
	'ۂ': {}, 'ۃ': {}, 'ۄ': {}, 'ۅ': {}, 'ۆ': {}, 'ۇ': {}, 'ۈ': {}, 'ۉ': {},
	'ۊ': {}, 'ۋ': {}, 'ۍ': {}, 'ۏ': {},
	'ۥ': {}, 'ۮ': {}, 'ۯ': {}, '۽': {}, '۾': {},
}

func isIsolatedArabicChar(cp rune) bool {
	_, ok := isolatedArabicChars[cp]
	return ok
}

// --- Presentation form fallback --------------------------------------------

type glyphForms [formCount]ot.GlyphIndex
type presentationForms [formCount]rune

var (
	presentationFormsOnce sync.Once
	presentationByBase    map[rune]presentationForms
)

// fallbackGlyphs returns the presentation form glyphs of a font, computed on
// first use.
func (s *Shaper) fallbackGlyphs(otf *ot.Font) map[rune]glyphForms {
	s.mx.Lock()
	defer s.mx.Unlock()
	if m, ok := s.fallbacks[otf]; ok {
		return m
	}
	if s.fallbacks == nil {
		s.fallbacks = make(map[*ot.Font]map[rune]glyphForms)
	}
	m := buildFallbackGlyphMap(otf)
	s.fallbacks[otf] = m
	return m
}

func buildFallbackGlyphMap(otf *ot.Font) map[rune]glyphForms {
	if otf == nil {
		return nil
	}
	presentationFormsOnce.Do(func() {
		presentationByBase = buildPresentationFormMap()
	})
	out := make(map[rune]glyphForms, len(presentationByBase))
	for base, forms := range presentationByBase {
		var gfs glyphForms
		hasAny := false
		for formInx, pres := range forms {
			if pres == 0 {
				continue
			}
			gid := otf.GlyphIndex(pres)
			if gid == otshape.NOTDEF {
				continue
			}
			gfs[formInx] = gid
			hasAny = true
		}
		if hasAny {
			out[base] = gfs
		}
	}
	tracer().Debugf("font maps presentation forms for %d Arabic letters", len(out))
	return out
}

func buildPresentationFormMap() map[rune]presentationForms {
	out := make(map[rune]presentationForms, 256)
	addRange := func(from, to rune) {
		for u := from; u <= to; u++ {
			form, ok := presentationFormFromName(u)
			if !ok {
				continue
			}
			base := presentationBaseRune(u)
			if base == 0 {
				continue
			}
			forms := out[base]
			if forms[form] == 0 {
				forms[form] = u
			}
			out[base] = forms
		}
	}
	addRange(0xFB50, 0xFDFF) // Arabic Presentation Forms-A
	addRange(0xFE70, 0xFEFF) // Arabic Presentation Forms-B
	return out
}

func presentationFormFromName(u rune) (int, bool) {
	name := runenames.Name(u)
	if name == "" || !strings.Contains(name, "ARABIC") || strings.Contains(name, "LIGATURE") {
		return 0, false
	}
	switch {
	case strings.Contains(name, "ISOLATED FORM"):
		return formIsol, true
	case strings.Contains(name, "FINAL FORM"):
		return formFina, true
	case strings.Contains(name, "INITIAL FORM"):
		return formInit, true
	case strings.Contains(name, "MEDIAL FORM"):
		return formMedi, true
	default:
		return 0, false
	}
}

// presentationBaseRune finds the base letter of a presentation form. The
// compatibility decomposition starts with it.
func presentationBaseRune(u rune) rune {
	decomposed := []rune(norm.NFKD.String(string(u)))
	if len(decomposed) != 1 {
		return 0
	}
	if x := decomposed[0]; unicode.In(x, unicode.Arabic) {
		return x
	}
	return 0
}

func fallbackGlyphFor(table map[rune]glyphForms, cp rune, form int) (ot.GlyphIndex, bool) {
	forms, ok := table[cp]
	if !ok || form < 0 || form >= formCount {
		return otshape.NOTDEF, false
	}
	if gid := forms[form]; gid != otshape.NOTDEF {
		return gid, true
	}
	return otshape.NOTDEF, false
}
