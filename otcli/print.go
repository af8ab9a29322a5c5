package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otquery"
	"github.com/pterm/pterm"
	"golang.org/x/text/unicode/runenames"
)

func printLookupList(table *ot.LayoutTable) {
	if table == nil {
		pterm.Error.Println("layout table is nil")
		return
	}
	ll := table.LookupList
	count := ll.Len()
	pterm.Printf("%s LookupList has %d entries\n", table.Tag, count)
	if count == 0 {
		return
	}
	data := [][]string{
		{"Index", "Type", "Subtables", "Flags"},
	}
	for i, lookup := range ll.Range() {
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(lookup.Type),
			fmt.Sprintf("%d", len(lookup.Subtables)),
			formatLookupFlags(lookup.Flag),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printLookup(table *ot.LayoutTable, index int) {
	if table == nil {
		pterm.Error.Println("layout table is nil")
		return
	}
	lookup := table.LookupList.Lookup(index)
	if lookup == nil {
		pterm.Error.Printf("Lookup index out of range: %d\n", index)
		return
	}
	pterm.Printf("Lookup %d: type=%s flags=%s subtables=%d extension=%v\n",
		index,
		formatLookupType(lookup.Type),
		formatLookupFlags(lookup.Flag),
		len(lookup.Subtables),
		lookup.Extension,
	)
	data := [][]string{
		{"Sub", "Type", "Format", "Coverage", "Payload"},
	}
	for i, sub := range lookup.Subtables {
		if sub == nil {
			continue
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(sub.LookupType),
			fmt.Sprintf("%d", sub.Format),
			formatCoverageSummary(sub.Coverage),
			formatPayloadSummary(sub),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatLookupType(ltype ot.LayoutTableLookupType) string {
	if ltype == 0 {
		return "Unknown(0)"
	}
	if ot.IsGPosLookupType(ltype) {
		unmasked := ot.GPosLookupType(ltype)
		if unmasked == 0 {
			return "Unknown(0)"
		}
		return unmasked.GPosString()
	}
	return ltype.GSubString()
}

func formatLookupFlags(flag ot.LayoutTableLookupFlag) string {
	if flag == 0 {
		return "-"
	}
	parts := make([]string, 0, 6)
	if flag&ot.LOOKUP_FLAG_RIGHT_TO_LEFT != 0 {
		parts = append(parts, "RightToLeft")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0 {
		parts = append(parts, "IgnoreBase")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0 {
		parts = append(parts, "IgnoreLigatures")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
		parts = append(parts, "IgnoreMarks")
	}
	if flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		parts = append(parts, "UseMarkFilteringSet")
	}
	if flag&ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK != 0 {
		parts = append(parts, fmt.Sprintf("MarkAttachType=%d", flag>>8))
	}
	return strings.Join(parts, "|")
}

func formatCoverageSummary(cov ot.Coverage) string {
	if cov.GlyphRange == nil {
		return "-"
	}
	return fmt.Sprintf("fmt=%d count=%d", cov.Format, cov.Len())
}

// formatPayloadSummary names the kind of a subtable payload, with the size of
// its principal array.
func formatPayloadSummary(sub *ot.LookupNode) string {
	if g := sub.GSub; g != nil {
		switch {
		case g.SingleFmt1 != nil:
			return fmt.Sprintf("delta=%d", g.SingleFmt1.DeltaGlyphID)
		case g.SingleFmt2 != nil:
			return fmt.Sprintf("substitutes=%d", len(g.SingleFmt2.SubstituteGlyphIDs))
		case g.MultipleFmt1 != nil:
			return fmt.Sprintf("sequences=%d", len(g.MultipleFmt1.Sequences))
		case g.AlternateFmt1 != nil:
			return fmt.Sprintf("alternate sets=%d", len(g.AlternateFmt1.Alternates))
		case g.LigatureFmt1 != nil:
			return fmt.Sprintf("ligature sets=%d", len(g.LigatureFmt1.LigatureSets))
		case g.ContextFmt1 != nil:
			return fmt.Sprintf("rule sets=%d", len(g.ContextFmt1.RuleSets))
		case g.ContextFmt2 != nil:
			return fmt.Sprintf("class rule sets=%d", len(g.ContextFmt2.RuleSets))
		case g.ContextFmt3 != nil:
			return fmt.Sprintf("seqctx in=%d", len(g.ContextFmt3.InputCoverages))
		case g.ChainingContextFmt1 != nil:
			return fmt.Sprintf("chained rule sets=%d", len(g.ChainingContextFmt1.RuleSets))
		case g.ChainingContextFmt2 != nil:
			return fmt.Sprintf("chained class rule sets=%d", len(g.ChainingContextFmt2.RuleSets))
		case g.ChainingContextFmt3 != nil:
			c := g.ChainingContextFmt3
			return fmt.Sprintf("seqctx back=%d in=%d look=%d",
				len(c.BacktrackCoverages), len(c.InputCoverages), len(c.LookaheadCoverages))
		case g.ReverseChainingFmt1 != nil:
			return fmt.Sprintf("reverse substitutes=%d", len(g.ReverseChainingFmt1.SubstituteGlyphIDs))
		}
	}
	if p := sub.GPos; p != nil {
		switch {
		case p.SingleFmt1 != nil:
			return fmt.Sprintf("value xadv=%d", p.SingleFmt1.Value.XAdvance)
		case p.SingleFmt2 != nil:
			return fmt.Sprintf("values=%d", len(p.SingleFmt2.Values))
		case p.PairFmt1 != nil:
			return fmt.Sprintf("pair sets=%d", len(p.PairFmt1.PairSets))
		case p.PairFmt2 != nil:
			return "class pairs"
		}
	}
	return "not interpreted"
}

// --- Font and glyph information ------------------------------------------

func infoOp(intp *Intp, op *Op) (error, bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return err, false
	}
	info := otquery.NameInfo(otf, 0)
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	data := [][]string{{"Key", "Value"}}
	for _, k := range keys {
		data = append(data, []string{k, info[k]})
	}
	m := otquery.FontMetrics(otf)
	data = append(data,
		[]string{"type", otquery.FontType(otf)},
		[]string{"container", otf.Header.Container.String()},
		[]string{"glyphs", fmt.Sprintf("%d", otf.NumGlyphs())},
		[]string{"units/em", fmt.Sprintf("%d", m.UnitsPerEm)},
		[]string{"ascent/descent", fmt.Sprintf("%d / %d", m.Ascent, m.Descent)},
		[]string{"line height", fmt.Sprintf("%d", m.LineHeight())},
		[]string{"layout", strings.Join(otquery.LayoutTables(otf), " ")},
	)
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if n := len(otf.Errors()); n > 0 {
		pterm.Warning.Printf("font has %d errors\n", n)
	}
	return nil, false
}

// glyphOp prints information about a glyph, given by character (glyph:A),
// code-point (glyph:U+0041) or glyph index (glyph:#36).
func glyphOp(intp *Intp, op *Op) (error, bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return err, false
	}
	if op.noArg() {
		return fmt.Errorf("usage: glyph:<char|U+hex|#index>"), false
	}
	gid, r, err := glyphArg(otf, op.arg)
	if err != nil {
		return err, false
	}
	if r == 0 {
		r = otquery.CodePointForGlyph(otf, gid)
	}
	m := otquery.GlyphMetrics(otf, gid)
	data := [][]string{
		{"Property", "Value"},
		{"glyph", fmt.Sprintf("%d", gid)},
		{"name", otquery.GlyphName(otf, gid)},
	}
	if r != 0 {
		data = append(data, []string{"code-point", fmt.Sprintf("%#U %s", r, runenames.Name(r))})
	}
	data = append(data,
		[]string{"class", fmt.Sprintf("%d", otquery.GlyphClass(otf, gid))},
		[]string{"advance", fmt.Sprintf("%d", m.Advance)},
		[]string{"lsb/rsb", fmt.Sprintf("%d / %d", m.LSB, m.RSB)},
		[]string{"bbox", fmt.Sprintf("(%d,%d)-(%d,%d)", m.BBox.MinX, m.BBox.MinY, m.BBox.MaxX, m.BBox.MaxY)},
	)
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if op.format == "path" {
		if path, err := otf.GlyphPath(gid); err == nil {
			pterm.Println(path.String())
		} else {
			return err, false
		}
	}
	return nil, false
}
