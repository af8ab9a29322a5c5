package otshape

import (
	"fmt"
	"maps"

	"github.com/npillmayer/fontshape/ot"
)

// Well-known keys of the token state map.
const (
	KeyGlyphIndex = "glyphIndex" // ot.GlyphIndex currently representing the token
	KeyDeleted    = "deleted"    // bool, token has been consumed by a ligature
	KeyInserted   = "inserted"   // bool, token has been created by a multiple substitution
	KeyForm       = "form"       // ot.Tag of a positional form, e.g. 'init'
)

// featurePrefix prefixes keys recording applied features.
const featurePrefix = "feature:"

// Token is a character of the input together with its shaping state.
//
// State is open for extension: engines may store values under keys of
// their own. The accessors below cover the well-known keys.
type Token struct {
	Char  rune
	State map[string]any
}

// NewToken creates a token for a character with an empty state.
func NewToken(ch rune) *Token {
	return &Token{Char: ch, State: make(map[string]any)}
}

// Set stores a state value.
func (t *Token) Set(key string, value any) {
	if t.State == nil {
		t.State = make(map[string]any)
	}
	t.State[key] = value
}

// Get returns a state value.
func (t *Token) Get(key string) (any, bool) {
	v, ok := t.State[key]
	return v, ok
}

// GlyphIndex returns the glyph currently representing the token, or NOTDEF.
func (t *Token) GlyphIndex() ot.GlyphIndex {
	if g, ok := t.State[KeyGlyphIndex].(ot.GlyphIndex); ok {
		return g
	}
	return NOTDEF
}

// SetGlyphIndex sets the glyph representing the token.
func (t *Token) SetGlyphIndex(g ot.GlyphIndex) {
	t.Set(KeyGlyphIndex, g)
}

// IsDeleted is true for tokens consumed by a ligature.
func (t *Token) IsDeleted() bool {
	d, _ := t.State[KeyDeleted].(bool)
	return d
}

// Delete marks a token as consumed.
func (t *Token) Delete() {
	t.Set(KeyDeleted, true)
}

// Form returns the positional form selected for the token, if any.
func (t *Token) Form() ot.Tag {
	f, _ := t.State[KeyForm].(ot.Tag)
	return f
}

// SetFeature records that a feature has substituted the token's glyph.
func (t *Token) SetFeature(tag ot.Tag) {
	t.Set(featurePrefix+tag.String(), true)
}

// HasFeature tells whether a feature has substituted the token's glyph.
func (t *Token) HasFeature(tag ot.Tag) bool {
	b, _ := t.State[featurePrefix+tag.String()].(bool)
	return b
}

func (t *Token) clone() *Token {
	return &Token{Char: t.Char, State: maps.Clone(t.State)}
}

func (t *Token) String() string {
	if t.IsDeleted() {
		return fmt.Sprintf("[%q -]", t.Char)
	}
	return fmt.Sprintf("[%q %d]", t.Char, t.GlyphIndex())
}
