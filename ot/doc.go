/*
Package ot decodes OpenType font files into immutable, navigable tables.
Intended audience for this package are:

▪︎ text shapers, as the one found in sister package otshape

▪︎ glyph rasterizers, which need glyph outlines as paths

▪︎ any application needing to have the internal structure of an OpenType font file available

Package `ot` will not interpret layout tables, but rather expose them to the
client. For example, it is not possible to ask package `ot` for a kerning
distance between two glyphs; package otquery does that. From this point of
view, `ot` is a low-level package.

Fonts are accepted as plain sfnt files with TrueType or CFF outlines, or
wrapped in WOFF 1.0. WOFF tables are decompressed with an RFC 1951 decoder of
our own (see package internal/inflate).

OpenType fonts contain a whole lot of different tables and sub-tables. This package
strives to make the semantics of the tables accessible, thus has a lot of different
types for the different kinds of OT tables. It will nevertheless abstract away
some implementation details of fonts:

▪︎ Format versions: many OT tables may occur in a variety of formats. Tables in `ot` will
hide the concrete format of underlying OT tables wherever clients do not need it.
Coverage tables and class definitions, for example, are single types, with
lookups implemented by binary search for every format.

▪︎ Word size: offsets in OT may either be 2-byte or 4-byte values. Extension
lookups are resolved at parse time.

▪︎ Bugs in fonts: many fonts in the wild contain entries that, strictly speaking, infringe
upon the OT specification, but an application using it should not fail because of
recoverable errors. Errors confined to a lookup subtable or an optional table
are collected as FontErrors, attached to the Font. Errors in glyph outlines
are reported when the outline is requested.

# Glyphs

Glyph outlines are decoded on first access, by either the glyf/loca decoder
or the Type 2 charstring interpreter, and are cached per glyph. Outlines are
returned as Path values in font units.

# Status

No font collections nor variable fonts are supported. Table fvar is decoded,
but instances are not applied. GPOS lookups other than single and pair
adjustments are recognised, but not decoded.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

// Valuable resource:
// http://opentypecookbook.com/

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}
