/*
Package otlayout applies OpenType layout features to glyph buffers.

Fonts are parsed by package ot into an immutable graph of scripts, features
and lookups. Package otlayout interprets this graph: it selects features for
a script and language (see FeatureQuery) and applies their lookups to a
GlyphBuffer. GSUB lookup types 1 to 8 are applied; for GPOS, single and pair
adjustments (types 1 and 2) are applied. Other GPOS lookup types are
reported by package ot at parse time and skipped here.

Lookups match glyphs at the current buffer position. Glyphs may be skipped
according to the lookup flags and the glyph classes found in GDEF.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}

// tracer writes to trace with key 'opentype.layout'
func tracer() tracing.Trace {
	return tracing.Select("opentype.layout")
}

// assertContract panics when condition is false.
func assertContract(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
