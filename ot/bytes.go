package ot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// --- Segments of binary data -----------------------------------------------

// binarySegm is a segment of byte data. We use it throughout this module to
// navigate the font's binary data.
type binarySegm []byte

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// from returns the tail of b starting at offset, or an empty segment.
func (b binarySegm) from(offset int) binarySegm {
	if offset < 0 || offset > len(b) {
		return binarySegm{}
	}
	return b[offset:]
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// U16 is a lenient version of u16, returning 0 for out-of-bounds access.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 is a lenient version of u32, returning 0 for out-of-bounds access.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// glyphs interprets b as a list of n big-endian glyph indices.
func (b binarySegm) glyphs(offset, n int) ([]GlyphIndex, error) {
	raw, err := b.view(offset, 2*n)
	if err != nil {
		return nil, err
	}
	glyphs := make([]GlyphIndex, n)
	for i := range glyphs {
		glyphs[i] = GlyphIndex(u16(raw[2*i:]))
	}
	return glyphs, nil
}

// --- Parser ----------------------------------------------------------------

// Parser is a cursor over a segment of font data. It tracks the absolute
// position of the segment within the font file (for error reporting) and a
// relative read offset. Sub-structures are read by sub-parsers, which share
// the underlying bytes.
//
// Read errors are sticky: the first out-of-bounds read sets Err() and all
// subsequent reads return zero values. Clients check Err() once after a
// sequence of reads.
type Parser struct {
	data binarySegm
	base uint32 // absolute offset of data within the font file
	pos  int    // relative read offset
	err  error
}

// NewParser creates a parser for data, which starts at absolute file
// position base.
func NewParser(data []byte, base uint32) *Parser {
	return &Parser{data: data, base: base}
}

// Err returns the first error encountered.
func (p *Parser) Err() error {
	return p.err
}

// Offset returns the current relative read offset.
func (p *Parser) Offset() int {
	return p.pos
}

// Absolute returns the current read position relative to the font file.
func (p *Parser) Absolute() uint32 {
	return p.base + uint32(p.pos)
}

// Len returns the size of the underlying segment.
func (p *Parser) Len() int {
	return len(p.data)
}

// Remaining returns the number of unread bytes.
func (p *Parser) Remaining() int {
	if p.pos >= len(p.data) {
		return 0
	}
	return len(p.data) - p.pos
}

// Seek sets the relative read offset.
func (p *Parser) Seek(offset int) {
	if offset < 0 || offset > len(p.data) {
		p.fail(offset, 0)
		return
	}
	p.pos = offset
}

// Skip advances the read offset by n bytes.
func (p *Parser) Skip(n int) {
	p.take(n)
}

// Sub returns a parser for the segment starting at offset, relative to the
// start of p. The sub-parser does not copy any data.
func (p *Parser) Sub(offset int) *Parser {
	if offset < 0 || offset > len(p.data) {
		sub := &Parser{base: p.base}
		sub.err = fmt.Errorf("sub-structure at offset %d: %w", offset, errBufferBounds)
		return sub
	}
	return &Parser{data: p.data[offset:], base: p.base + uint32(offset)}
}

// Bytes returns the underlying segment.
func (p *Parser) Bytes() []byte {
	return p.data
}

func (p *Parser) fail(offset, n int) {
	if p.err == nil {
		p.err = fmt.Errorf("read of %d bytes at offset %d (segment size %d): %w",
			n, offset, len(p.data), errBufferBounds)
	}
}

func (p *Parser) take(n int) []byte {
	if p.err != nil {
		return nil
	}
	b, err := p.data.view(p.pos, n)
	if err != nil {
		p.fail(p.pos, n)
		return nil
	}
	p.pos += n
	return b
}

// U8 reads an unsigned byte.
func (p *Parser) U8() uint8 {
	if b := p.take(1); b != nil {
		return b[0]
	}
	return 0
}

// I8 reads a signed byte.
func (p *Parser) I8() int8 {
	return int8(p.U8())
}

// U16 reads a big-endian uint16.
func (p *Parser) U16() uint16 {
	if b := p.take(2); b != nil {
		return u16(b)
	}
	return 0
}

// I16 reads a big-endian int16.
func (p *Parser) I16() int16 {
	return int16(p.U16())
}

// U24 reads a big-endian 24-bit unsigned integer.
func (p *Parser) U24() uint32 {
	if b := p.take(3); b != nil {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}
	return 0
}

// U32 reads a big-endian uint32.
func (p *Parser) U32() uint32 {
	if b := p.take(4); b != nil {
		return u32(b)
	}
	return 0
}

// I32 reads a big-endian int32.
func (p *Parser) I32() int32 {
	return int32(p.U32())
}

// U64 reads a big-endian uint64.
func (p *Parser) U64() uint64 {
	if b := p.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

// Fixed reads a 16.16 fixed-point number.
func (p *Parser) Fixed() float64 {
	return float64(p.I32()) / 65536
}

// F2Dot14 reads a 2.14 fixed-point number.
func (p *Parser) F2Dot14() float64 {
	return float64(p.I16()) / 16384
}

// Tag reads a 4-byte tag.
func (p *Parser) Tag() Tag {
	return Tag(p.U32())
}

// LongDateTime reads a 64-bit date as seconds since 1904-01-01.
func (p *Parser) LongDateTime() int64 {
	return int64(p.U64())
}

// String reads n bytes as a string.
func (p *Parser) String(n int) string {
	return string(p.take(n))
}

// Raw reads n bytes without copying.
func (p *Parser) Raw(n int) []byte {
	return p.take(n)
}

// U16List reads n uint16 values.
func (p *Parser) U16List(n int) []uint16 {
	b := p.take(2 * n)
	if b == nil {
		return nil
	}
	list := make([]uint16, n)
	for i := range list {
		list[i] = u16(b[2*i:])
	}
	return list
}

// GlyphList reads n glyph indices.
func (p *Parser) GlyphList(n int) []GlyphIndex {
	b := p.take(2 * n)
	if b == nil {
		return nil
	}
	list := make([]GlyphIndex, n)
	for i := range list {
		list[i] = GlyphIndex(u16(b[2*i:]))
	}
	return list
}

// ReadStruct fills the fixed-size struct pointed to by v, in declaration
// order of its fields, each decoded big-endian.
func (p *Parser) ReadStruct(v any) {
	n := binary.Size(v)
	if n < 0 {
		if p.err == nil {
			p.err = fmt.Errorf("cannot decode variable-size record %T", v)
		}
		return
	}
	b := p.take(n)
	if b == nil {
		return
	}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, v); err != nil && p.err == nil {
		p.err = err
	}
}

// --- Checked arithmetic ----------------------------------------------------

// checkedMulInt checks for overflow in multiplication of two non-negative integers.
func checkedMulInt(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a < 0 || b < 0 || a > math.MaxInt/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	return a * b, nil
}

// checkedAddUint32 checks for overflow in addition of two uint32 values.
func checkedAddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}
