package otshape

import (
	"errors"
	"slices"
	"sync"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otlayout"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNoShaper indicates that no candidate shaping engine was supplied.
	ErrNoShaper = errors.New("otshape: no shaping engine supplied")
	// ErrNoMatchingShaper indicates that none of the supplied engines matched the segment context.
	ErrNoMatchingShaper = errors.New("otshape: no supplied shaping engine matches selection context")
	// ErrNilFont indicates that the font to shape with is nil.
	ErrNilFont = errors.New("otshape: nil font in shape options")
)

// Options configures a shaping request.
//
// A zero Script lets every engine shape the parts of the text it detects.
// Features switches features on or off; features not mentioned are on.
type Options struct {
	Script   language.Script // 4-letter ISO 15924 script identifier
	Language language.Tag    // BCP 47 language tag
	Features map[ot.Tag]bool // OpenType features to switch
}

// Shaper is the injectable top-level shaping orchestrator.
//
// It intentionally has no global registry; callers provide candidate engines.
// A Shaper keeps a feature query per font, to be re-used between requests.
// It is safe for concurrent use, as long as Engines is not modified.
type Shaper struct {
	Engines []ShapingEngine
	mx      sync.Mutex
	queries map[*ot.Font]*otlayout.FeatureQuery
}

// NewShaper creates a shaper from explicit candidate engines.
//
// Nil entries in engines are ignored.
func NewShaper(engines ...ShapingEngine) *Shaper {
	list := make([]ShapingEngine, 0, len(engines))
	for _, e := range engines {
		if e != nil {
			list = append(list, e)
		}
	}
	return &Shaper{Engines: list, queries: make(map[*ot.Font]*otlayout.FeatureQuery)}
}

// Shape shapes text with font and returns the resulting glyph sequence in
// presentation order.
func (s *Shaper) Shape(otf *ot.Font, text string, opts Options) ([]ot.GlyphIndex, error) {
	tz, err := s.Tokenize(otf, text, opts)
	if err != nil {
		return nil, err
	}
	return tz.Glyphs(), nil
}

// Tokenize runs the shaping pipeline and returns the tokenizer holding the
// final token states, which may be inspected by clients.
func (s *Shaper) Tokenize(otf *ot.Font, text string, opts Options) (*Tokenizer, error) {
	if otf == nil {
		return nil, ErrNilFont
	}
	if len(s.Engines) == 0 {
		return nil, ErrNoShaper
	}
	chars := normalizeForFont(otf, text)
	ctx := selectionContext(chars, opts)
	engines := selectShapingEngines(s.Engines, ctx)
	if len(engines) == 0 {
		return nil, ErrNoMatchingShaper
	}
	tz := NewTokenizer(chars)
	for _, e := range engines {
		for _, c := range e.Contexts() {
			if tz.HasContext(c.Name) {
				continue // contexts may be shared between engines
			}
			if err := tz.RegisterContext(c); err != nil {
				return nil, err
			}
		}
	}
	tz.UpdateContexts()
	for _, t := range tz.tokens {
		t.SetGlyphIndex(otf.GlyphIndex(t.Char))
	}
	run := &Run{
		Font:     otf,
		Tokens:   tz,
		Query:    s.query(otf),
		features: opts.Features,
	}
	if ctx.LangTag != ot.DFLT {
		run.LangTag = ctx.LangTag
	}
	for _, stage := range collectStages(engines) {
		ranges := slices.Clone(tz.Ranges(stage.Context))
		tracer().Debugf("stage %s on %d %s ranges", stage.Name, len(ranges), stage.Context)
		// back to front, as stages may insert tokens
		for k := len(ranges) - 1; k >= 0; k-- {
			if err := stage.Apply(run, ranges[k]); err != nil {
				return nil, err
			}
		}
		tz.UpdateContexts()
	}
	return tz, nil
}

// query returns the memoized feature query of a font.
func (s *Shaper) query(otf *ot.Font) *otlayout.FeatureQuery {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.queries == nil {
		s.queries = make(map[*ot.Font]*otlayout.FeatureQuery)
	}
	q, ok := s.queries[otf]
	if !ok {
		q = otlayout.NewFeatureQuery(otf)
		s.queries[otf] = q
	}
	return q
}

func selectionContext(chars []rune, opts Options) SelectionContext {
	ctx := SelectionContext{
		Direction: bidi.LeftToRight,
		Script:    opts.Script,
		Language:  opts.Language,
		LangTag:   ot.DFLT,
	}
	var zero language.Script
	if opts.Script != zero {
		ctx.ScriptTag = ScriptTagForScript(opts.Script)
	}
	if opts.Language != language.Und {
		ctx.LangTag = LanguageTagForLanguage(opts.Language, language.High)
	}
	for _, ch := range chars { // the first strong character decides
		props, _ := bidi.LookupRune(ch)
		switch props.Class() {
		case bidi.L:
			return ctx
		case bidi.R, bidi.AL:
			ctx.Direction = bidi.RightToLeft
			return ctx
		}
	}
	return ctx
}

// selectShapingEngines returns the engines which consider themselves
// suitable for ctx, in the order given.
func selectShapingEngines(engines []ShapingEngine, ctx SelectionContext) []ShapingEngine {
	var selected []ShapingEngine
	for _, e := range engines {
		if c := e.Match(ctx); c > ShaperConfidenceNone {
			tracer().Debugf("shaping engine %s selected with confidence %d", e.Name(), c)
			selected = append(selected, e)
		}
	}
	return selected
}

func collectStages(engines []ShapingEngine) []Stage {
	var stages []Stage
	for _, e := range engines {
		stages = append(stages, e.Stages()...)
	}
	slices.SortStableFunc(stages, func(a, b Stage) int {
		return int(a.Order) - int(b.Order)
	})
	return stages
}

// normalizeForFont converts text to NFC. Characters without a glyph in the
// font are replaced by their canonical decomposition, if the font has glyphs
// for all of its parts.
func normalizeForFont(otf *ot.Font, text string) []rune {
	nfc := []rune(norm.NFC.String(text))
	chars := make([]rune, 0, len(nfc))
	for _, ch := range nfc {
		if otf.GlyphIndex(ch) != NOTDEF {
			chars = append(chars, ch)
			continue
		}
		decomposed := []rune(norm.NFD.String(string(ch)))
		if len(decomposed) > 1 && !slices.ContainsFunc(decomposed, func(r rune) bool {
			return otf.GlyphIndex(r) == NOTDEF
		}) {
			chars = append(chars, decomposed...)
			continue
		}
		chars = append(chars, ch)
	}
	return chars
}
