/*
Package inflate decompresses DEFLATE streams (RFC 1951).

WOFF containers store each font table either raw or zlib-compressed. This
package decodes the compressed variant, which always fits completely into
memory. It handles stored, fixed-Huffman and dynamic-Huffman blocks and
expands LZ77 back-references directly into the output buffer.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package inflate

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.inflate'
func tracer() tracing.Trace {
	return tracing.Select("font.inflate")
}

// Errors returned for malformed input.
var (
	ErrUnexpectedEOF = errors.New("inflate: unexpected end of compressed data")
	ErrBlockType     = errors.New("inflate: invalid block type")
	ErrStoredLength  = errors.New("inflate: stored block length does not match its complement")
	ErrHuffman       = errors.New("inflate: invalid Huffman code")
	ErrDistance      = errors.New("inflate: back-reference distance too far")
	ErrZlibHeader    = errors.New("inflate: invalid zlib header")
)

// Limits of the DEFLATE alphabets.
const (
	maxBits      = 15  // longest code in any alphabet
	maxLitCodes  = 286 // literal/length alphabet size
	maxDistCodes = 30  // distance alphabet size
	numCLCodes   = 19  // code length alphabet size
)

// Base values and extra bits for length codes 257…285.
var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtra = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// Base values and extra bits for distance codes 0…29.
var distBase = [30]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145,
	8193, 12289, 16385, 24577,
}

var distExtra = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// Code lengths of the code length alphabet are transmitted in this order.
var clOrder = [numCLCodes]uint8{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// Decode decompresses a raw DEFLATE stream. sizeHint is the expected size
// of the output and is used for pre-allocation only; it may be 0.
func Decode(src []byte, sizeHint int) ([]byte, error) {
	d := decompressor{
		br:  bitReader{data: src},
		out: make([]byte, 0, max(sizeHint, len(src))),
	}
	if err := d.run(); err != nil {
		tracer().Errorf("inflate failed after %d bytes of output: %v", len(d.out), err)
		return nil, err
	}
	tracer().Debugf("inflated %d bytes to %d bytes", len(src), len(d.out))
	return d.out, nil
}

// DecodeZlib decompresses a zlib stream (RFC 1950), as used by WOFF.
// The 2-byte header is validated and skipped; the trailing Adler-32
// checksum is not verified.
func DecodeZlib(src []byte, sizeHint int) ([]byte, error) {
	if len(src) < 2 {
		return nil, ErrUnexpectedEOF
	}
	cmf, flg := src[0], src[1]
	if cmf&0x0f != 8 || (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return nil, fmt.Errorf("%w: 0x%02x%02x", ErrZlibHeader, cmf, flg)
	}
	if flg&0x20 != 0 { // preset dictionary is not allowed in font data
		return nil, fmt.Errorf("%w: preset dictionary", ErrZlibHeader)
	}
	return Decode(src[2:], sizeHint)
}

type decompressor struct {
	br  bitReader
	out []byte
}

func (d *decompressor) run() error {
	var fixedLit, fixedDist *huffman
	for {
		final, err := d.br.bits(1)
		if err != nil {
			return err
		}
		btype, err := d.br.bits(2)
		if err != nil {
			return err
		}
		switch btype {
		case 0:
			err = d.stored()
		case 1:
			if fixedLit == nil {
				fixedLit, fixedDist = fixedTables()
			}
			err = d.codes(fixedLit, fixedDist)
		case 2:
			var lit, dist *huffman
			if lit, dist, err = d.dynamicTables(); err == nil {
				err = d.codes(lit, dist)
			}
		default:
			return fmt.Errorf("%w: %d", ErrBlockType, btype)
		}
		if err != nil {
			return err
		}
		if final == 1 {
			return nil
		}
	}
}

// stored copies an uncompressed block. The LEN/NLEN header starts at the
// next byte boundary.
func (d *decompressor) stored() error {
	d.br.alignToByte()
	hdr, err := d.br.bytes(4)
	if err != nil {
		return err
	}
	n := uint16(hdr[0]) | uint16(hdr[1])<<8
	nc := uint16(hdr[2]) | uint16(hdr[3])<<8
	if n != ^nc {
		return ErrStoredLength
	}
	data, err := d.br.bytes(int(n))
	if err != nil {
		return err
	}
	d.out = append(d.out, data...)
	return nil
}

// codes decodes a Huffman-compressed block until the end-of-block symbol.
func (d *decompressor) codes(lit, dist *huffman) error {
	for {
		sym, err := lit.decode(&d.br)
		if err != nil {
			return err
		}
		switch {
		case sym < 256:
			d.out = append(d.out, byte(sym))
			continue
		case sym == 256:
			return nil
		case sym > 285:
			return fmt.Errorf("%w: length symbol %d", ErrHuffman, sym)
		}
		sym -= 257
		extra, err := d.br.bits(uint(lengthExtra[sym]))
		if err != nil {
			return err
		}
		length := int(lengthBase[sym]) + int(extra)
		dsym, err := dist.decode(&d.br)
		if err != nil {
			return err
		}
		if dsym >= maxDistCodes {
			return fmt.Errorf("%w: distance symbol %d", ErrHuffman, dsym)
		}
		if extra, err = d.br.bits(uint(distExtra[dsym])); err != nil {
			return err
		}
		distance := int(distBase[dsym]) + int(extra)
		if distance > len(d.out) {
			return fmt.Errorf("%w: %d > %d", ErrDistance, distance, len(d.out))
		}
		// byte-wise copy, source and destination may overlap
		from := len(d.out) - distance
		for i := 0; i < length; i++ {
			d.out = append(d.out, d.out[from+i])
		}
	}
}

// dynamicTables reads the code length sequences of a dynamic block and
// builds decoders for the literal/length and the distance alphabet.
func (d *decompressor) dynamicTables() (*huffman, *huffman, error) {
	hlit, err := d.br.bits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := d.br.bits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := d.br.bits(4)
	if err != nil {
		return nil, nil, err
	}
	nlit, ndist, nclen := int(hlit)+257, int(hdist)+1, int(hclen)+4
	if nlit > maxLitCodes || ndist > maxDistCodes {
		return nil, nil, fmt.Errorf("%w: too many codes (%d/%d)", ErrHuffman, nlit, ndist)
	}
	var clLengths [numCLCodes]uint8
	for i := 0; i < nclen; i++ {
		l, err := d.br.bits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[clOrder[i]] = uint8(l)
	}
	clTable, err := newHuffman(clLengths[:])
	if err != nil {
		return nil, nil, err
	}
	// literal/length and distance code lengths form one contiguous sequence;
	// repeat codes may cross the boundary between them
	lengths := make([]uint8, nlit+ndist)
	for i := 0; i < len(lengths); {
		sym, err := clTable.decode(&d.br)
		if err != nil {
			return nil, nil, err
		}
		var rep int
		var val uint8
		switch {
		case sym < 16:
			lengths[i] = uint8(sym)
			i++
			continue
		case sym == 16:
			if i == 0 {
				return nil, nil, fmt.Errorf("%w: repeat without previous length", ErrHuffman)
			}
			n, err := d.br.bits(2)
			if err != nil {
				return nil, nil, err
			}
			rep, val = 3+int(n), lengths[i-1]
		case sym == 17:
			n, err := d.br.bits(3)
			if err != nil {
				return nil, nil, err
			}
			rep = 3 + int(n)
		default:
			n, err := d.br.bits(7)
			if err != nil {
				return nil, nil, err
			}
			rep = 11 + int(n)
		}
		if i+rep > len(lengths) {
			return nil, nil, fmt.Errorf("%w: code lengths overflow", ErrHuffman)
		}
		for ; rep > 0; rep-- {
			lengths[i] = val
			i++
		}
	}
	if lengths[256] == 0 {
		return nil, nil, fmt.Errorf("%w: missing end-of-block code", ErrHuffman)
	}
	lit, err := newHuffman(lengths[:nlit])
	if err != nil {
		return nil, nil, err
	}
	dist, err := newHuffman(lengths[nlit:])
	if err != nil {
		return nil, nil, err
	}
	return lit, dist, nil
}

// fixedTables returns the decoders of block type 1, as defined in
// RFC 1951, section 3.2.6.
func fixedTables() (*huffman, *huffman) {
	var lengths [288]uint8
	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}
	lit, _ := newHuffman(lengths[:])
	var dl [maxDistCodes]uint8
	for i := range dl {
		dl[i] = 5
	}
	dist, _ := newHuffman(dl[:])
	return lit, dist
}
