package otquery

import (
	"iter"

	"github.com/npillmayer/fontshape/ot"
	"golang.org/x/image/font/sfnt"
)

// NamesRange yields decoded `(nameID, value)` pairs from a font's OpenType
// `name` table, in font order.
//
// Records whose encoding could not be decoded have been dropped while
// parsing, and empty names are skipped.
func NamesRange(otf *ot.Font) iter.Seq2[sfnt.NameID, string] {
	return func(yield func(sfnt.NameID, string) bool) {
		if otf == nil || otf.Name == nil {
			tracer().Debugf("no name table found in font")
			return
		}
		for _, r := range otf.Name.Records {
			if r.Value == "" {
				continue
			}
			if !yield(r.NameID, r.Value) {
				return
			}
		}
	}
}

// Name returns the preferred string for a name ID, or "".
func Name(otf *ot.Font, id sfnt.NameID) string {
	if otf == nil {
		return ""
	}
	s, _ := otf.Name.Lookup(id)
	return s
}

var nameInfoKeys = map[string]sfnt.NameID{
	"family":    sfnt.NameIDFamily,
	"subfamily": sfnt.NameIDSubfamily,
	"fullname":  sfnt.NameIDFull,
	"version":   sfnt.NameIDVersion,
	"copyright": sfnt.NameIDCopyright,
	"psname":    sfnt.NameIDPostScript,
}

// NameInfo returns well-known names of a font, keyed by
// family, subfamily, fullname, version, copyright and psname. Names the font
// does not carry are missing from the map. A typographic family name, if
// present, takes precedence over the legacy family name.
//
// lang is reserved for selecting a language; only the preferred records are
// returned for now.
func NameInfo(otf *ot.Font, lang ot.Tag) map[string]string {
	info := make(map[string]string, len(nameInfoKeys))
	if otf == nil || otf.Name == nil {
		return info
	}
	for key, id := range nameInfoKeys {
		if s, ok := otf.Name.Lookup(id); ok && s != "" {
			info[key] = s
		}
	}
	if s, ok := otf.Name.Lookup(sfnt.NameIDTypographicFamily); ok && s != "" {
		info["family"] = s
	}
	return info
}
