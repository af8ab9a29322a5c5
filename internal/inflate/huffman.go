package inflate

import "fmt"

// bitReader extracts bits LSB-first from a byte slice.
type bitReader struct {
	data  []byte
	pos   int    // next byte to load
	buf   uint32 // bit buffer
	nbits uint   // number of valid bits in buf
}

func (br *bitReader) bits(n uint) (uint32, error) {
	for br.nbits < n {
		if br.pos >= len(br.data) {
			return 0, ErrUnexpectedEOF
		}
		br.buf |= uint32(br.data[br.pos]) << br.nbits
		br.pos++
		br.nbits += 8
	}
	v := br.buf & (1<<n - 1)
	br.buf >>= n
	br.nbits -= n
	return v, nil
}

// alignToByte drops the bits remaining in the current byte.
func (br *bitReader) alignToByte() {
	br.buf >>= br.nbits % 8
	br.nbits -= br.nbits % 8
}

// bytes returns the next n whole bytes. Must be called on a byte boundary.
func (br *bitReader) bytes(n int) ([]byte, error) {
	// return buffered whole bytes to the input first
	for br.nbits >= 8 {
		br.pos--
		br.nbits -= 8
	}
	br.buf, br.nbits = 0, 0
	if br.pos+n > len(br.data) {
		return nil, ErrUnexpectedEOF
	}
	b := br.data[br.pos : br.pos+n]
	br.pos += n
	return b, nil
}

// huffman is a canonical Huffman decoder, built from a table of code lengths.
// counts[l] is the number of codes of length l, symbols lists the symbols
// ordered by code.
type huffman struct {
	counts  [maxBits + 1]uint16
	symbols []uint16
}

func newHuffman(lengths []uint8) (*huffman, error) {
	h := &huffman{symbols: make([]uint16, 0, len(lengths))}
	for _, l := range lengths {
		h.counts[l]++
	}
	h.counts[0] = 0
	// reject over-subscribed code sets; incomplete sets are legal
	left := 1
	for l := 1; l <= maxBits; l++ {
		left <<= 1
		left -= int(h.counts[l])
		if left < 0 {
			return nil, fmt.Errorf("%w: over-subscribed code lengths", ErrHuffman)
		}
	}
	var offs [maxBits + 2]uint16
	for l := 1; l <= maxBits; l++ {
		offs[l+1] = offs[l] + h.counts[l]
	}
	h.symbols = h.symbols[:offs[maxBits+1]]
	for sym, l := range lengths {
		if l != 0 {
			h.symbols[offs[l]] = uint16(sym)
			offs[l]++
		}
	}
	return h, nil
}

// decode reads one symbol. Huffman codes are packed starting with the most
// significant bit of the code, so we read bit by bit.
func (h *huffman) decode(br *bitReader) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxBits; l++ {
		b, err := br.bits(1)
		if err != nil {
			return 0, err
		}
		code |= int(b)
		count := int(h.counts[l])
		if code-count < first {
			return int(h.symbols[index+(code-first)]), nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, fmt.Errorf("%w: code not in table", ErrHuffman)
}
