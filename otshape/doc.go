/*
Package otshape is about OpenType text shaping.

From the Harfbuzz documentation (https://harfbuzz.github.io/what-is-harfbuzz.html):

“Text shaping is the process of translating a string of character codes (such
as Unicode codepoints) into a properly arranged sequence of glyphs that can be
rendered onto a screen or into final output form for inclusion in a document.”

Shaping starts with a Tokenizer, which holds one Token per input character.
Tokens carry a state map, in which shaping stages record the glyph index
currently representing a character, whether it has been consumed by a
ligature, and which features have been applied.

Script specific knowledge lives in shaping engines (see sub-packages otlatin
and otarabic). An engine registers named contexts with the tokenizer, e.g.
“latinWord”, and stages which operate on the ranges found for a context.
The Shaper runs the stages of all engines matching a request in the order
of their StageOrder and collects the glyphs of tokens not deleted.

There is no global registry of engines; clients hand engines to NewShaper.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otshape

import (
	"fmt"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing"
)

// NOTDEF is the glyph index for OpenType ".notdef".
const NOTDEF = ot.GlyphIndex(0)

// tracer returns a trace sink for the otshape package namespace.
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

// errShaper wraps a message as a user-facing shaping error.
func errShaper(x string) error {
	return fmt.Errorf("OpenType text shaping: %s", x)
}

// assertContract panics when condition is false.
func assertContract(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
