package otlayout

import "github.com/npillmayer/fontshape/ot"

// All GSUB application functions work on the glyph at ctx.buf.Index. They
// return the position to continue with, whether the subtable applied, and
// the buffer edit, if any.

// GSUB LookupType 1: Single Substitution Subtable
//
// Single substitution (SingleSubst) subtables tell a client to replace a single glyph
// with another glyph. The subtables can be either of two formats. Both formats require
// two distinct sets of glyph indices: one that defines input glyphs (specified in the
// Coverage table), and one that defines the output glyphs.

// GSUB LookupSubtable Type 1 Format 1 calculates the indices of the output glyphs, which
// are not explicitly defined in the subtable. To calculate an output glyph index,
// Format 1 adds a constant delta value to the input glyph index. Addition is
// modulo 65536.
func gsubLookupType1Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	g := ctx.buf.At(pos)
	if !node.Coverage.Contains(g) {
		return pos, false, nil
	}
	subst := ot.GlyphIndex(uint16(int(g) + int(node.GSub.SingleFmt1.DeltaGlyphID)))
	tracer().Debugf("OT lookup GSUB 1/1: subst %d for %d", subst, g)
	ctx.buf.Set(pos, subst)
	return pos + 1, true, nil
}

// GSUB LookupSubtable Type 1 Format 2 provides an array of output glyph indices
// (substituteGlyphIDs) explicitly matched to the input glyph indices specified in the
// Coverage table.
func gsubLookupType1Fmt2(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	substs := node.GSub.SingleFmt2.SubstituteGlyphIDs
	if !ok || inx >= len(substs) {
		return pos, false, nil
	}
	tracer().Debugf("OT lookup GSUB 1/2: subst %d for %d", substs[inx], ctx.buf.At(pos))
	ctx.buf.Set(pos, substs[inx])
	return pos + 1, true, nil
}

// LookupType 2: Multiple Substitution Subtable
//
// A Multiple Substitution (MultipleSubst) subtable replaces a single glyph with more
// than one glyph, as when multiple glyphs replace a single ligature.
// An empty sequence deletes the glyph.
func gsubLookupType2Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	seqs := node.GSub.MultipleFmt1.Sequences
	if !ok || inx >= len(seqs) {
		return pos, false, nil
	}
	glyphs := seqs[inx]
	tracer().Debugf("OT lookup GSUB 2/1: subst %v for %d", glyphs, ctx.buf.At(pos))
	edit := ctx.buf.ReplaceGlyphs(pos, pos+1, glyphs)
	return pos + len(glyphs), true, edit
}

// GSUB LookupSubtable Type 3 Format 1: For each glyph, an AlternateSet subtable contains a
// count of the alternative glyphs (glyphCount) and an array of their glyph indices
// (alternateGlyphIDs). Parameter `alt` selects an alternative glyph from this array.
// Having `alt` set to -1 will selected the last alternative glyph from the array.
func gsubLookupType3Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	alts := node.GSub.AlternateFmt1.Alternates
	if !ok || inx >= len(alts) || len(alts[inx]) == 0 {
		return pos, false, nil
	}
	glyphs, alt := alts[inx], ctx.alt
	if alt < 0 {
		alt = len(glyphs) - 1
	}
	if alt >= len(glyphs) {
		return pos, false, nil
	}
	tracer().Debugf("OT lookup GSUB 3/1: subst %d for %d", glyphs[alt], ctx.buf.At(pos))
	ctx.buf.Set(pos, glyphs[alt])
	return pos + 1, true, nil
}

// LookupType 4: Ligature Substitution Subtable
//
// A Ligature Substitution (LigatureSubst) subtable identifies ligature substitutions where
// a single glyph replaces multiple glyphs. The Coverage table specifies only the index
// of the first glyph component of each ligature set.
//
// Of all ligatures of a set which match, the one with the most components wins. Between
// ligatures of equal length, the order of the font decides.
func gsubLookupType4Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	sets := node.GSub.LigatureFmt1.LigatureSets
	if !ok || inx >= len(sets) {
		return pos, false, nil
	}
	var best *ot.GSubLigatureRule
	var bestMatch []int
	for i, rule := range sets[inx] {
		if best != nil && len(rule.Components) <= len(best.Components) {
			continue
		}
		if matched, ok := matchSequence(ctx, pos+1, glyphMatcher(rule.Components, 1, false)); ok {
			best, bestMatch = &sets[inx][i], matched
		}
	}
	if best == nil {
		return pos, false, nil
	}
	end := pos + 1
	if len(bestMatch) > 0 {
		end = bestMatch[len(bestMatch)-1] + 1
	}
	// glyphs skipped between the components (e.g., marks) are kept behind the ligature
	var kept []ot.GlyphIndex
	for i, j := pos+1, 0; i < end; i++ {
		if j < len(bestMatch) && bestMatch[j] == i {
			j++
			continue
		}
		kept = append(kept, ctx.buf.At(i))
	}
	tracer().Debugf("OT lookup GSUB 4/1: subst %d for %d+%v", best.Ligature, ctx.buf.At(pos), best.Components)
	repl := append([]ot.GlyphIndex{best.Ligature}, kept...)
	edit := ctx.buf.ReplaceGlyphs(pos, end, repl)
	return pos + 1, true, edit
}

// LookupType 5: Contextual Substitution
//
// GSUB type 5 format 1 subtables define input sequences in terms of specific glyph IDs.
// The first glyphs for the sequences are specified in a Coverage table. The remaining
// glyphs in each sequence are defined in SequenceRule tables. The first matching rule
// subtable is used.
func gsubLookupType5Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	sets := node.GSub.ContextFmt1.RuleSets
	if !ok || inx >= len(sets) {
		return pos, false, nil
	}
	for _, rule := range sets[inx] {
		input, ok := matchInput(ctx, pos, glyphMatcher(rule.InputGlyphs, 1, false))
		if !ok {
			continue
		}
		tracer().Debugf("GSUB 5|1 matched at positions %v", input)
		next, applied := applySequenceLookupRecords(ctx, input, rule.Records)
		return next, applied, nil
	}
	return pos, false, nil
}

// GSUB type 5 format 2 defines input sequences in terms of glyph classes. The rule
// set is selected by the class of the first glyph, which must be covered.
func gsubLookupType5Fmt2(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	g := ctx.buf.At(pos)
	pl := node.GSub.ContextFmt2
	if !node.Coverage.Contains(g) {
		return pos, false, nil
	}
	class := pl.ClassDef.Class(g)
	if class >= len(pl.RuleSets) {
		return pos, false, nil
	}
	for _, rule := range pl.RuleSets[class] {
		input, ok := matchInput(ctx, pos, classMatcher(pl.ClassDef, rule.InputClasses, 1, false))
		if !ok {
			continue
		}
		tracer().Debugf("GSUB 5|2 matched at positions %v", input)
		next, applied := applySequenceLookupRecords(ctx, input, rule.Records)
		return next, applied, nil
	}
	return pos, false, nil
}

// GSUB type 5 format 3 defines the input sequence by one coverage table per
// position.
func gsubLookupType5Fmt3(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	pl := node.GSub.ContextFmt3
	if !pl.InputCoverages[0].Contains(ctx.buf.At(pos)) {
		return pos, false, nil
	}
	input, ok := matchInput(ctx, pos, coverageMatcher(pl.InputCoverages[1:], 1, false))
	if !ok {
		return pos, false, nil
	}
	tracer().Debugf("GSUB 5|3 matched at positions %v", input)
	next, applied := applySequenceLookupRecords(ctx, input, pl.Records)
	return next, applied, nil
}

// LookupType 6: Chained Contexts Substitution
//
// Chained contexts add backtrack and lookahead sequences to the input sequence
// of contextual substitutions. Backtrack sequences are matched in reading order
// away from the input.
func gsubLookupType6Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	sets := node.GSub.ChainingContextFmt1.RuleSets
	if !ok || inx >= len(sets) {
		return pos, false, nil
	}
	for _, rule := range sets[inx] {
		input, ok := matchInput(ctx, pos, glyphMatcher(rule.Input, 1, false))
		if !ok || !matchContext(ctx, input,
			glyphMatcher(rule.Backtrack, -1, true), glyphMatcher(rule.Lookahead, 1, true)) {
			continue
		}
		tracer().Debugf("GSUB 6|1 matched at positions %v", input)
		next, applied := applySequenceLookupRecords(ctx, input, rule.Records)
		return next, applied, nil
	}
	return pos, false, nil
}

// GSUB type 6 format 2 is the class based variant of chained contexts.
func gsubLookupType6Fmt2(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	g := ctx.buf.At(pos)
	pl := node.GSub.ChainingContextFmt2
	if !node.Coverage.Contains(g) {
		return pos, false, nil
	}
	class := pl.InputClassDef.Class(g)
	if class >= len(pl.RuleSets) {
		return pos, false, nil
	}
	for _, rule := range pl.RuleSets[class] {
		input, ok := matchInput(ctx, pos, classMatcher(pl.InputClassDef, rule.Input, 1, false))
		if !ok || !matchContext(ctx, input,
			classMatcher(pl.BacktrackClassDef, rule.Backtrack, -1, true),
			classMatcher(pl.LookaheadClassDef, rule.Lookahead, 1, true)) {
			continue
		}
		tracer().Debugf("GSUB 6|2 matched at positions %v", input)
		next, applied := applySequenceLookupRecords(ctx, input, rule.Records)
		return next, applied, nil
	}
	return pos, false, nil
}

// GSUB type 6 format 3 defines the chained context by coverage tables: one for each
// position of the input sequence pattern, the backtrack sequence pattern, and the
// lookahead sequence pattern.
func gsubLookupType6Fmt3(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	pl := node.GSub.ChainingContextFmt3
	if !pl.InputCoverages[0].Contains(ctx.buf.At(pos)) {
		return pos, false, nil
	}
	input, ok := matchInput(ctx, pos, coverageMatcher(pl.InputCoverages[1:], 1, false))
	if !ok || !matchContext(ctx, input,
		coverageMatcher(pl.BacktrackCoverages, -1, true), coverageMatcher(pl.LookaheadCoverages, 1, true)) {
		tracer().Debugf("GSUB 6|3 no match at pos %d", pos)
		return pos, false, nil
	}
	tracer().Debugf("GSUB 6|3 matched at positions %v", input)
	next, applied := applySequenceLookupRecords(ctx, input, pl.Records)
	return next, applied, nil
}

// GSUB LookupType 8: Reverse Chaining Single Substitution Subtable
//
// Reverse chaining lookups are intended to be applied from the end of a
// buffer to its start, replacing a single glyph in chained context.
func gsubLookupType8Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	pos := ctx.buf.Index
	pl := node.GSub.ReverseChainingFmt1
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	if !ok || inx >= len(pl.SubstituteGlyphIDs) {
		return pos, false, nil
	}
	if !matchContext(ctx, []int{pos},
		coverageMatcher(pl.BacktrackCoverages, -1, true), coverageMatcher(pl.LookaheadCoverages, 1, true)) {
		tracer().Debugf("GSUB 8|1 context did not match at pos %d", pos)
		return pos, false, nil
	}
	subst := pl.SubstituteGlyphIDs[inx]
	tracer().Debugf("GSUB 8|1 subst %d for %d at pos %d", subst, ctx.buf.At(pos), pos)
	ctx.buf.Set(pos, subst)
	return pos + 1, true, nil
}
