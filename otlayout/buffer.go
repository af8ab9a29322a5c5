package otlayout

import "github.com/npillmayer/fontshape/ot"

// GlyphBuffer is a mutable sequence of glyph IDs used by GSUB/GPOS application.
//
// Implementations may be simple slices or more complex structures (e.g., a
// view onto the tokens of a shaping run). The interface is intentionally small
// to let clients provide their own storage while still enabling substitutions.
//
// Contract:
//   - Indices are zero-based in the range [0, Len()).
//   - At/Set operate on the current buffer.
//   - Replace/Insert/Delete return the resulting buffer. They may return the
//     same receiver or a new buffer. Callers must always use the returned value.
//   - Arguments follow slice semantics: Replace(i, j, repl) replaces the range
//     [i:j) with repl; Insert(i, glyphs) inserts before i; Delete(i, j) removes
//     [i:j).
//   - Out-of-range indices are programmer errors and may panic.
type GlyphBuffer interface {
	// Len returns the number of glyphs in the buffer.
	Len() int
	// At returns the glyph at index i.
	At(i int) ot.GlyphIndex
	// Set overwrites the glyph at index i.
	Set(i int, g ot.GlyphIndex)
	// Replace replaces the range [i:j) with repl and returns the resulting buffer.
	Replace(i, j int, repl []ot.GlyphIndex) GlyphBuffer
	// Insert inserts glyphs before index i and returns the resulting buffer.
	Insert(i int, glyphs []ot.GlyphIndex) GlyphBuffer
	// Delete removes the range [i:j) and returns the resulting buffer.
	Delete(i, j int) GlyphBuffer
}

// GlyphSlice is the default GlyphBuffer implementation backed by a slice.
type GlyphSlice []ot.GlyphIndex

func (b GlyphSlice) Len() int {
	return len(b)
}

func (b GlyphSlice) At(i int) ot.GlyphIndex {
	return b[i]
}

func (b GlyphSlice) Set(i int, g ot.GlyphIndex) {
	b[i] = g
}

func (b GlyphSlice) Replace(i, j int, repl []ot.GlyphIndex) GlyphBuffer {
	out := make(GlyphSlice, 0, len(b)-(j-i)+len(repl))
	out = append(out, b[:i]...)
	out = append(out, repl...)
	return append(out, b[j:]...)
}

func (b GlyphSlice) Insert(i int, glyphs []ot.GlyphIndex) GlyphBuffer {
	return b.Replace(i, i, glyphs)
}

func (b GlyphSlice) Delete(i, j int) GlyphBuffer {
	return b.Replace(i, j, nil)
}

// Glyphs returns the glyphs of a buffer as a slice.
func Glyphs(buf GlyphBuffer) []ot.GlyphIndex {
	if buf == nil {
		return nil
	}
	if s, ok := buf.(GlyphSlice); ok {
		return s
	}
	glyphs := make([]ot.GlyphIndex, buf.Len())
	for i := range glyphs {
		glyphs[i] = buf.At(i)
	}
	return glyphs
}

// --- Buffer state ----------------------------------------------------------

// EditSpan describes a buffer mutation so contextual/chaining lookups can
// re-map lookup-record positions after a replacement/insertion.
type EditSpan struct {
	From int // start index (inclusive) of the replaced range
	To   int // end index (exclusive) of the replaced range
	Len  int // length of the replacement segment
}

// Delta is the change in buffer length caused by the edit.
func (e *EditSpan) Delta() int {
	if e == nil {
		return 0
	}
	return e.Len - (e.To - e.From)
}

// BufferState bundles glyph and position buffers with a current index.
// Position buffer may be nil when only GSUB is applied; it is allocated by
// the first GPOS lookup which adjusts a glyph.
type BufferState struct {
	Glyphs GlyphBuffer
	Pos    PosBuffer
	Index  int
}

// NewBufferState constructs a buffer state with index 0.
func NewBufferState(g GlyphBuffer, p PosBuffer) *BufferState {
	b := &BufferState{Glyphs: g, Pos: p}
	if p != nil && len(p) != g.Len() {
		b.Pos = p.ResizeLike(g)
	}
	return b
}

func (b *BufferState) Len() int {
	if b == nil || b.Glyphs == nil {
		return 0
	}
	return b.Glyphs.Len()
}

func (b *BufferState) At(i int) ot.GlyphIndex {
	return b.Glyphs.At(i)
}

func (b *BufferState) Set(i int, g ot.GlyphIndex) {
	b.Glyphs.Set(i, g)
}

// EnsurePos allocates a position buffer if missing and keeps it aligned with glyphs.
func (b *BufferState) EnsurePos() {
	if b.Pos == nil {
		b.Pos = NewPosBuffer(b.Len())
	} else if len(b.Pos) != b.Len() {
		b.Pos = b.Pos.ResizeLike(b.Glyphs)
	}
}

// ReplaceGlyphs replaces the range [i:j) with repl and mirrors the edit into Pos when present.
func (b *BufferState) ReplaceGlyphs(i, j int, repl []ot.GlyphIndex) *EditSpan {
	if i < 0 || j < i || j > b.Len() {
		panic("BufferState.ReplaceGlyphs: invalid range")
	}
	b.Glyphs = b.Glyphs.Replace(i, j, repl)
	edit := &EditSpan{From: i, To: j, Len: len(repl)}
	if b.Pos != nil {
		b.Pos = b.Pos.ApplyEdit(edit)
	}
	return edit
}

// --- Positions -------------------------------------------------------------

// PosBuffer holds per-glyph positioning information for GPOS.
// It is kept in sync with the glyph buffer by index.
type PosBuffer []PosItem

// PosItem stores positioning deltas of a glyph.
// Advances/offsets are in font units and are relative, not absolute.
type PosItem struct {
	XAdvance int32
	YAdvance int32
	XOffset  int32
	YOffset  int32
}

// NewPosBuffer allocates a position buffer of length n.
func NewPosBuffer(n int) PosBuffer {
	if n <= 0 {
		return PosBuffer{}
	}
	return make(PosBuffer, n)
}

// ResizeLike ensures the position buffer length matches the glyph buffer length.
func (pb PosBuffer) ResizeLike(buf GlyphBuffer) PosBuffer {
	n := buf.Len()
	if n <= len(pb) {
		return pb[:n]
	}
	out := make(PosBuffer, n)
	copy(out, pb)
	return out
}

// ApplyEdit mirrors a GSUB edit to keep positional data aligned with glyph indices.
func (pb PosBuffer) ApplyEdit(edit *EditSpan) PosBuffer {
	if edit == nil {
		return pb
	}
	if edit.From < 0 || edit.To < edit.From || edit.To > len(pb) || edit.Len < 0 {
		panic("PosBuffer.ApplyEdit: invalid edit span")
	}
	out := make(PosBuffer, 0, len(pb)+edit.Delta())
	out = append(out, pb[:edit.From]...)
	out = append(out, make(PosBuffer, edit.Len)...)
	return append(out, pb[edit.To:]...)
}
