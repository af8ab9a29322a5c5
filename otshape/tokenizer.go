package otshape

import (
	"fmt"
	"slices"

	"github.com/npillmayer/fontshape/ot"
)

// Range is a run of tokens [Start, End) for which a context holds.
type Range struct {
	Context    string
	Start, End int
}

// Len returns the number of tokens in the range, including deleted ones.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains tells whether token position i is part of the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%s[%d:%d]", r.Context, r.Start, r.End)
}

// ContextParams is the view of a context predicate onto the characters of a
// tokenizer.
type ContextParams struct {
	Chars []rune
	Index int
}

// Current returns the character at Index.
func (p ContextParams) Current() rune {
	return p.Chars[p.Index]
}

// Backtrack returns the k-th character before the current one, k ≥ 1.
func (p ContextParams) Backtrack(k int) (rune, bool) {
	if i := p.Index - k; i >= 0 && i < len(p.Chars) {
		return p.Chars[i], true
	}
	return 0, false
}

// Lookahead returns the k-th character after the current one, k ≥ 1.
func (p ContextParams) Lookahead(k int) (rune, bool) {
	if i := p.Index + k; i >= 0 && i < len(p.Chars) {
		return p.Chars[i], true
	}
	return 0, false
}

// ContextChecker defines a named context by a start predicate and an end
// predicate. A range starts at a character for which Start holds and ends
// with the first character (possibly the same one) for which End holds.
type ContextChecker struct {
	Name  string
	Start func(ContextParams) bool
	End   func(ContextParams) bool
}

type contextState uint8

const (
	contextClosed contextState = iota
	contextOpen
)

// contextMachine tracks a single context during a pass over the tokens.
type contextMachine struct {
	checker ContextChecker
	state   contextState
	start   int
}

func (m *contextMachine) reset() {
	m.state, m.start = contextClosed, 0
}

// step feeds one character to the machine and returns a range when the
// context closes at this character.
func (m *contextMachine) step(p ContextParams) (Range, bool) {
	if m.state == contextClosed && m.checker.Start(p) {
		m.state, m.start = contextOpen, p.Index
	}
	if m.state == contextOpen && m.checker.End(p) {
		m.state = contextClosed
		return Range{Context: m.checker.Name, Start: m.start, End: p.Index + 1}, true
	}
	return Range{}, false
}

// finish closes a context still open at the end of the input.
func (m *contextMachine) finish(n int) (Range, bool) {
	if m.state != contextOpen {
		return Range{}, false
	}
	m.state = contextClosed
	return Range{Context: m.checker.Name, Start: m.start, End: n}, true
}

// Tokenizer holds the tokens of a text and the ranges of registered contexts.
type Tokenizer struct {
	tokens   []*Token
	machines []*contextMachine
	ranges   map[string][]Range
}

// NewTokenizer creates one token per character of text.
func NewTokenizer(text []rune) *Tokenizer {
	tz := &Tokenizer{
		tokens: make([]*Token, len(text)),
		ranges: make(map[string][]Range),
	}
	for i, ch := range text {
		tz.tokens[i] = NewToken(ch)
	}
	return tz
}

// Tokenize is a shortcut for NewTokenizer([]rune(s)).
func Tokenize(s string) *Tokenizer {
	return NewTokenizer([]rune(s))
}

// Len returns the number of tokens, including deleted ones.
func (tz *Tokenizer) Len() int {
	return len(tz.tokens)
}

// Token returns token i.
func (tz *Tokenizer) Token(i int) *Token {
	return tz.tokens[i]
}

// Tokens returns the tokens in presentation order. Clients must not modify
// the returned slice.
func (tz *Tokenizer) Tokens() []*Token {
	return tz.tokens
}

// Chars returns the characters of the tokens, in their current order.
func (tz *Tokenizer) Chars() []rune {
	chars := make([]rune, len(tz.tokens))
	for i, t := range tz.tokens {
		chars[i] = t.Char
	}
	return chars
}

// RegisterContext adds a context checker. Ranges of the context are present
// after the next call to UpdateContexts.
func (tz *Tokenizer) RegisterContext(c ContextChecker) error {
	if c.Name == "" || c.Start == nil || c.End == nil {
		return errShaper("context checker needs a name and two predicates")
	}
	if tz.HasContext(c.Name) {
		return errShaper(fmt.Sprintf("context %q already registered", c.Name))
	}
	tz.machines = append(tz.machines, &contextMachine{checker: c})
	return nil
}

// HasContext tells whether a context of this name has been registered.
func (tz *Tokenizer) HasContext(name string) bool {
	return slices.ContainsFunc(tz.machines, func(m *contextMachine) bool {
		return m.checker.Name == name
	})
}

// UpdateContexts recomputes the ranges of all registered contexts with a
// single forward pass over the characters.
func (tz *Tokenizer) UpdateContexts() {
	clear(tz.ranges)
	chars := tz.Chars()
	for _, m := range tz.machines {
		m.reset()
	}
	for i := range chars {
		p := ContextParams{Chars: chars, Index: i}
		for _, m := range tz.machines {
			if rng, ok := m.step(p); ok {
				tz.ranges[rng.Context] = append(tz.ranges[rng.Context], rng)
			}
		}
	}
	for _, m := range tz.machines {
		if rng, ok := m.finish(len(chars)); ok {
			tz.ranges[rng.Context] = append(tz.ranges[rng.Context], rng)
		}
	}
	tracer().Debugf("tokenizer contexts: %v", tz.ranges)
}

// Ranges returns the ranges of a context, in text order.
func (tz *Tokenizer) Ranges(context string) []Range {
	return tz.ranges[context]
}

// RangeTokens returns the tokens of a range which have not been deleted.
func (tz *Tokenizer) RangeTokens(rng Range) []*Token {
	var toks []*Token
	for _, t := range tz.tokens[rng.Start:rng.End] {
		if !t.IsDeleted() {
			toks = append(toks, t)
		}
	}
	return toks
}

// Reverse reverses the order of the tokens of a range.
func (tz *Tokenizer) Reverse(rng Range) {
	slices.Reverse(tz.tokens[rng.Start:rng.End])
}

// insert inserts tokens before position i.
func (tz *Tokenizer) insert(i int, toks ...*Token) {
	tz.tokens = slices.Insert(tz.tokens, i, toks...)
}

// Glyphs returns the glyphs of all tokens not deleted.
func (tz *Tokenizer) Glyphs() []ot.GlyphIndex {
	glyphs := make([]ot.GlyphIndex, 0, len(tz.tokens))
	for _, t := range tz.tokens {
		if !t.IsDeleted() {
			glyphs = append(glyphs, t.GlyphIndex())
		}
	}
	return glyphs
}
