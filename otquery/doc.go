/*
Package otquery answers questions about a decoded font: metrics, names,
glyph indices and kerning of glyph pairs.

Functions in this package never fail. Queries for information a font does
not carry return zero values.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'opentype.query'
func tracer() tracing.Trace {
	return tracing.Select("opentype.query")
}
