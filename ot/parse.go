package ot

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// Parse parses an OpenType font from a byte slice. TrueType and CFF flavored
// fonts are accepted, either as plain sfnt or wrapped in WOFF.
//
// Parse either returns a complete Font or an error; a failure to decode a
// required table is fatal. Problems confined to optional tables, single
// lookups or single glyphs are collected and are available through
// Font.Errors and Font.Warnings. Glyph outlines are decoded on demand.
//
// An ot.Font needs ongoing access to the font's byte data after Parse
// returns. The data is assumed to be immutable while the Font is in use.
func Parse(font []byte, opts ...ParseOption) (*Font, error) {
	ec := &errorCollector{}
	h, tables, err := resolveContainer(font, ec)
	if err != nil {
		return nil, err
	}
	otf := &Font{Header: h, tables: tables}
	if err := parseRequired(otf, ec); err != nil {
		return nil, err
	}
	if err := parseOutlines(otf, ec); err != nil {
		return nil, err
	}
	if err := parseEncoding(otf, ec, hasOption(opts, IsTestfont)); err != nil {
		return nil, err
	}
	parseOptional(otf, ec, hasOption(opts, IsTestfont))
	if !hasOption(opts, WithoutLayout) {
		if err := parseLayout(otf, ec); err != nil {
			return nil, err
		}
	}
	otf.glyphs = newGlyphSet(otf)
	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	tracer().Debugf("parsed %s font with %d tables and %d glyphs", h.Flavor, len(tables), otf.NumGlyphs())
	return otf, nil
}

func requireTable(otf *Font, tag Tag, ec *errorCollector) (*Table, error) {
	if t := otf.tables[tag]; t != nil {
		return t, nil
	}
	return nil, ec.critical(tag, "Directory", 0, ErrMissingTable, "required table %s missing", tag)
}

// parseRequired decodes the tables every font has to provide: head, hhea,
// maxp and hmtx.
func parseRequired(otf *Font, ec *errorCollector) (err error) {
	var t *Table
	if t, err = requireTable(otf, T("head"), ec); err != nil {
		return err
	}
	if otf.Head, err = parseHead(t, ec); err != nil {
		return err
	}
	if t, err = requireTable(otf, T("hhea"), ec); err != nil {
		return err
	}
	if otf.HHea, err = parseHHea(t, ec); err != nil {
		return err
	}
	if t, err = requireTable(otf, T("maxp"), ec); err != nil {
		return err
	}
	if otf.MaxP, err = parseMaxP(t, ec); err != nil {
		return err
	}
	if t, err = requireTable(otf, T("hmtx"), ec); err != nil {
		return err
	}
	otf.HMtx, err = parseHMtx(t, otf.MaxP.NumGlyphs, otf.HHea.NumberOfHMetrics, ec)
	return err
}

// parseOutlines decodes glyf/loca for TrueType fonts and table 'CFF ' for
// CFF fonts.
func parseOutlines(otf *Font, ec *errorCollector) error {
	n := otf.MaxP.NumGlyphs
	if otf.Header.Flavor == CFFOutlines {
		t, err := requireTable(otf, T("CFF "), ec)
		if err != nil {
			return err
		}
		otf.CFF, err = parseCFF(t, n, ec)
		return err
	}
	lt, err := requireTable(otf, T("loca"), ec)
	if err != nil {
		return err
	}
	gt, err := requireTable(otf, T("glyf"), ec)
	if err != nil {
		return err
	}
	if otf.Loca, err = parseLoca(lt, n, otf.Head.IndexToLocFormat, ec); err != nil {
		return err
	}
	if end := otf.Loca.offsets[n]; end > gt.Length {
		return ec.critical(T("loca"), "Offsets", lt.Offset, ErrTableFormat,
			"loca references %d bytes of glyf, table has %d", end, gt.Length)
	}
	otf.glyf = binarySegm(gt.data)
	return nil
}

// parseEncoding selects the character to glyph mapping: a usable cmap
// subtable if present, the built-in encoding of a CFF font otherwise.
func parseEncoding(otf *Font, ec *errorCollector, relaxed bool) error {
	if t := otf.tables[T("cmap")]; t != nil {
		cmap, err := parseCMap(t, otf.MaxP.NumGlyphs, ec)
		if err != nil {
			return err
		}
		otf.CMap = cmap
	}
	switch {
	case otf.CMap != nil:
		otf.Encoding = otf.CMap
	case otf.CFF != nil && otf.CFF.Encoding != nil:
		ec.addWarning(T("cmap"), "no usable cmap, using CFF encoding "+otf.CFF.Encoding.Name(), 0)
		otf.Encoding = otf.CFF.Encoding
	case relaxed:
		ec.addWarning(T("cmap"), "font has no character mapping", 0)
	default:
		return ec.critical(T("cmap"), "Directory", 0, ErrMissingTable, "font has no usable character mapping")
	}
	return nil
}

// parseOptional decodes tables whose absence or corruption does not impair
// the font as a whole. Failures are recorded with major severity.
func parseOptional(otf *Font, ec *errorCollector, relaxed bool) {
	n := otf.MaxP.NumGlyphs
	decode := func(tag Tag, expected bool, fn func(*Table) error) {
		t := otf.tables[tag]
		if t == nil {
			if expected && !relaxed {
				ec.addWarning(tag, "table missing", 0)
			}
			return
		}
		if err := fn(t); err != nil {
			ec.downgrade(tag, err)
		}
	}
	decode(T("name"), true, func(t *Table) (err error) {
		otf.Name, err = parseName(t, ec)
		return
	})
	decode(T("OS/2"), true, func(t *Table) (err error) {
		otf.OS2, err = parseOS2(t, ec)
		return
	})
	decode(T("post"), true, func(t *Table) (err error) {
		otf.Post, err = parsePost(t, n, ec)
		return
	})
	decode(T("kern"), false, func(t *Table) (err error) {
		otf.Kern, err = parseKern(t, ec)
		return
	})
	decode(T("meta"), false, func(t *Table) (err error) {
		otf.Meta, err = parseMeta(t, ec)
		return
	})
	decode(T("ltag"), false, func(t *Table) (err error) {
		otf.LTag, err = parseLTag(t, ec)
		return
	})
	decode(T("fvar"), false, func(t *Table) (err error) {
		otf.FVar, err = parseFVar(t, ec)
		return
	})
}

// parseLayout decodes GDEF, GSUB and GPOS. Broken lookups are recorded and
// skipped; a broken table header, script, feature or lookup list is fatal,
// as the table's structure cannot be trusted.
func parseLayout(otf *Font, ec *errorCollector) error {
	var err error
	if t := otf.tables[T("GDEF")]; t != nil {
		if otf.Layout.GDef, err = parseGDef(t, ec); err != nil {
			return err
		}
	}
	if t := otf.tables[T("GSUB")]; t != nil {
		if otf.Layout.GSub, err = parseLayoutTable(t, ec); err != nil {
			return err
		}
	}
	if t := otf.tables[T("GPOS")]; t != nil {
		if otf.Layout.GPos, err = parseLayoutTable(t, ec); err != nil {
			return err
		}
	}
	for _, lt := range []*LayoutTable{otf.Layout.GSub, otf.Layout.GPos} {
		if lt == nil {
			continue
		}
		if lt.Requirements.NeedGlyphClassDef && (otf.Layout.GDef == nil || otf.Layout.GDef.GlyphClassDef.IsEmpty()) {
			ec.addWarning(lt.Tag, "lookup flags reference glyph classes, but GDEF has none", 0)
		}
	}
	return nil
}
