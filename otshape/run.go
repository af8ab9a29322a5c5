package otshape

import (
	"unicode"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otlayout"
)

// Run is the state of a shaping request, handed to the stages of engines.
type Run struct {
	Font     *ot.Font
	Tokens   *Tokenizer
	Query    *otlayout.FeatureQuery
	LangTag  ot.Tag          // OpenType language, 0 for the default language system
	features map[ot.Tag]bool // explicit feature switches
}

// FeatureEnabled tells whether a feature is switched on. Features are on
// unless switched off by the shaping options.
func (r *Run) FeatureEnabled(tag ot.Tag) bool {
	on, ok := r.features[tag]
	return !ok || on
}

// GSubFeature looks up an enabled GSUB feature for a script. It returns nil
// if the feature is switched off or not present in the font.
func (r *Run) GSubFeature(script, tag ot.Tag) otlayout.Feature {
	if !r.FeatureEnabled(tag) {
		tracer().Debugf("feature %s switched off", tag)
		return nil
	}
	return r.Query.GSubFeature(script, r.LangTag, tag)
}

// ApplyFeature applies the lookups of a feature to the tokens of a range.
func (r *Run) ApplyFeature(feat otlayout.Feature, rng Range) bool {
	if feat == nil {
		return false
	}
	view := newTokenView(r.Tokens, rng, feat.Tag())
	st := otlayout.NewBufferState(view, nil)
	return otlayout.ApplyFeatureToBuffer(r.Font, feat, st, 0)
}

// ApplyFeatureAt applies the lookups of a feature to a single token at
// tokenizer position i, with the other tokens of the range as context.
func (r *Run) ApplyFeatureAt(feat otlayout.Feature, rng Range, i int) bool {
	if feat == nil || !rng.Contains(i) || r.Tokens.Token(i).IsDeleted() {
		return false
	}
	view := newTokenView(r.Tokens, rng, feat.Tag())
	st := otlayout.NewBufferState(view, nil)
	st.Index = view.liveIndex(i)
	_, ok := otlayout.ApplyFeature(r.Font, feat, st, 0)
	return ok
}

// --- Token view ------------------------------------------------------------

// tokenView presents the tokens of a range which have not been deleted as an
// otlayout.GlyphBuffer. Edits are carried out on the tokens: a substitution
// of n glyphs by fewer glyphs deletes the surplus tokens, a substitution by
// more glyphs inserts tokens copied from the last one replaced.
type tokenView struct {
	tz   *Tokenizer
	rng  Range
	tag  ot.Tag // feature recorded on substituted tokens
	live []int  // tokenizer positions of live tokens
}

var _ otlayout.GlyphBuffer = (*tokenView)(nil)
var _ otlayout.MarkBuffer = (*tokenView)(nil)

func newTokenView(tz *Tokenizer, rng Range, tag ot.Tag) *tokenView {
	v := &tokenView{tz: tz, rng: rng, tag: tag}
	v.collect()
	return v
}

func (v *tokenView) collect() {
	v.live = v.live[:0]
	for i := v.rng.Start; i < v.rng.End; i++ {
		if !v.tz.tokens[i].IsDeleted() {
			v.live = append(v.live, i)
		}
	}
}

// liveIndex maps a tokenizer position to a buffer index.
func (v *tokenView) liveIndex(pos int) int {
	for k, i := range v.live {
		if i == pos {
			return k
		}
	}
	return -1
}

func (v *tokenView) token(i int) *Token {
	return v.tz.tokens[v.live[i]]
}

func (v *tokenView) Len() int {
	return len(v.live)
}

func (v *tokenView) At(i int) ot.GlyphIndex {
	return v.token(i).GlyphIndex()
}

func (v *tokenView) Set(i int, g ot.GlyphIndex) {
	t := v.token(i)
	t.SetGlyphIndex(g)
	t.SetFeature(v.tag)
}

// IsMark tells whether the character of token i is a combining mark.
func (v *tokenView) IsMark(i int) bool {
	return isMark(v.token(i).Char)
}

func (v *tokenView) Replace(i, j int, repl []ot.GlyphIndex) otlayout.GlyphBuffer {
	assertContract(i >= 0 && i <= j && j <= len(v.live), "token view: replace range out of bounds")
	toks := make([]*Token, j-i)
	for k := range toks {
		toks[k] = v.token(i + k)
	}
	if len(repl) <= len(toks) {
		v.contract(toks, repl)
		v.collect()
		return v
	}
	for k, t := range toks {
		t.SetGlyphIndex(repl[k])
		t.SetFeature(v.tag)
	}
	var src *Token
	at := v.rng.End
	switch {
	case len(toks) > 0:
		src, at = toks[len(toks)-1], v.live[j-1]+1
	case i < len(v.live):
		src, at = v.token(i), v.live[i]
	case len(v.live) > 0:
		src = v.token(len(v.live) - 1)
	default:
		src = NewToken(0)
	}
	extra := make([]*Token, len(repl)-len(toks))
	for k := range extra {
		t := src.clone()
		t.SetGlyphIndex(repl[len(toks)+k])
		t.SetFeature(v.tag)
		t.Set(KeyInserted, true)
		extra[k] = t
	}
	v.tz.insert(at, extra...)
	v.rng.End += len(extra)
	v.collect()
	return v
}

func (v *tokenView) Insert(i int, glyphs []ot.GlyphIndex) otlayout.GlyphBuffer {
	return v.Replace(i, i, glyphs)
}

func (v *tokenView) Delete(i, j int) otlayout.GlyphBuffer {
	return v.Replace(i, j, nil)
}

// contract distributes fewer glyphs onto tokens. The lead token receives
// the first glyph. Following tokens keep their place if they already show
// the next glyph to place (e.g., marks behind a ligature), all others are
// deleted. If this does not place every glyph, glyphs are placed in order.
func (v *tokenView) contract(toks []*Token, repl []ot.GlyphIndex) {
	if len(toks) == 0 {
		return
	}
	keep := make([]bool, len(toks))
	k := 0
	if len(repl) > 0 {
		keep[0], k = true, 1
	}
	for n := 1; n < len(toks) && k < len(repl); n++ {
		if toks[n].GlyphIndex() == repl[k] && len(toks)-n >= len(repl)-k {
			keep[n] = true
			k++
		}
	}
	if k < len(repl) { // fall back to positional placement
		for n := range keep {
			keep[n] = n < len(repl)
		}
	}
	k = 0
	for n, t := range toks {
		if !keep[n] {
			t.Delete()
			continue
		}
		if n == 0 || t.GlyphIndex() != repl[k] {
			t.SetGlyphIndex(repl[k])
			t.SetFeature(v.tag)
		}
		k++
	}
}

// isMark is true for combining marks.
func isMark(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me)
}
