package inflate

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"math/rand"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(t *testing.T, payload []byte, level int) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func testPayloads() map[string][]byte {
	r := rand.New(rand.NewSource(42))
	random := make([]byte, 40000)
	r.Read(random)
	text := bytes.Repeat([]byte("The quick brown fox jumps over the lazy dog. "), 500)
	mixed := make([]byte, 0, 70000)
	for i := 0; i < 70000; i++ {
		mixed = append(mixed, byte(r.Intn(7))+'a')
	}
	return map[string][]byte{
		"empty":  {},
		"single": {'x'},
		"random": random,
		"text":   text,
		"mixed":  mixed,
	}
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.inflate")
	defer teardown()
	//
	levels := []int{flate.NoCompression, flate.HuffmanOnly, flate.BestSpeed,
		flate.DefaultCompression, flate.BestCompression}
	for name, payload := range testPayloads() {
		for _, level := range levels {
			compressed := deflate(t, payload, level)
			out, err := Decode(compressed, len(payload))
			require.NoError(t, err, "payload %s at level %d", name, level)
			assert.True(t, bytes.Equal(payload, out), "payload %s at level %d differs", name, level)
		}
	}
}

func TestFixedHuffmanBlock(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.inflate")
	defer teardown()
	//
	// "abc" as a final fixed-Huffman block, produced by zlib at level 1
	compressed := []byte{0x4b, 0x4c, 0x4a, 0x06, 0x00}
	out, err := Decode(compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestDecodeZlib(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.inflate")
	defer teardown()
	//
	payload := bytes.Repeat([]byte{0, 1, 2, 3, 0, 0, 0, 4}, 1024)
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(payload)
	require.NoError(t, w.Close())
	out, err := DecodeZlib(buf.Bytes(), len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, out)
	_, err = DecodeZlib([]byte{0x12, 0x34, 0x00}, 0)
	assert.True(t, errors.Is(err, ErrZlibHeader))
}

func TestMalformedStreams(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.inflate")
	defer teardown()
	//
	// final block with BTYPE=11
	_, err := Decode([]byte{0x07}, 0)
	assert.True(t, errors.Is(err, ErrBlockType), "got %v", err)
	// stored block, LEN=5, NLEN not matching
	_, err = Decode([]byte{0x01, 0x05, 0x00, 0x00, 0x00, 'h', 'e', 'l', 'l', 'o'}, 0)
	assert.True(t, errors.Is(err, ErrStoredLength), "got %v", err)
	// stored block claiming more data than present
	_, err = Decode([]byte{0x01, 0x05, 0x00, 0xfa, 0xff, 'h', 'i'}, 0)
	assert.True(t, errors.Is(err, ErrUnexpectedEOF), "got %v", err)
	// truncated compressed stream
	compressed := deflate(t, bytes.Repeat([]byte("truncate me "), 100), flate.BestCompression)
	_, err = Decode(compressed[:len(compressed)/2], 0)
	assert.Error(t, err)
}

func TestStoredBlock(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.inflate")
	defer teardown()
	//
	out, err := Decode([]byte{0x01, 0x05, 0x00, 0xfa, 0xff, 'h', 'e', 'l', 'l', 'o'}, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}
