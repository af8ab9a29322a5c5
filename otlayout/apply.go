package otlayout

import "github.com/npillmayer/fontshape/ot"

// MaxNestingDepth limits the nesting of lookups called from contextual
// lookups. Fonts may construct cycles of sequence lookup records.
const MaxNestingDepth = 16

// MarkBuffer is implemented by glyph buffers which know which of their
// glyphs are combining marks, e.g., from the underlying characters. Marks
// are skipped when matching backtrack and lookahead sequences, regardless
// of lookup flags.
type MarkBuffer interface {
	IsMark(i int) bool
}

// applyCtx bundles lookup state for dispatch and helpers.
type applyCtx struct {
	lyt    *ot.LayoutTable          // GSUB or GPOS table of the font
	gdef   *ot.GDefTable            // GDEF table for glyph classification, if present
	feat   Feature                  // active feature for tracing
	buf    *BufferState             // buffer state (glyphs + positions)
	alt    int                      // alternate index for substitution selection
	lookup *ot.LookupTable          // lookup currently being applied
	flag   ot.LayoutTableLookupFlag // lookup flags for ignore/mark filtering
	depth  int                      // nesting depth of contextual lookups
}

func newApplyCtx(otf *ot.Font, lyt *ot.LayoutTable, feat Feature, st *BufferState, alt int) *applyCtx {
	ctx := &applyCtx{lyt: lyt, feat: feat, buf: st, alt: alt}
	if otf != nil {
		ctx.gdef = otf.Layout.GDef
	}
	return ctx
}

// applyLookup applies lookup inx of the layout table at position ctx.buf.Index.
func applyLookup(ctx *applyCtx, inx int) (int, bool) {
	lookup := ctx.lyt.LookupList.Lookup(inx)
	if lookup == nil {
		tracer().Errorf("lookup %d not present in %s", inx, ctx.lyt.Tag)
		return ctx.buf.Index, false
	}
	pos, ok, _ := applyLookupTable(ctx, lookup)
	return pos, ok
}

// applyLookupTable tries the subtables of a lookup at position ctx.buf.Index.
// The first subtable which applies ends the search.
func applyLookupTable(outer *applyCtx, lookup *ot.LookupTable) (int, bool, *EditSpan) {
	ctx := *outer
	ctx.lookup, ctx.flag = lookup, lookup.Flag
	pos := ctx.buf.Index
	if pos < 0 || pos >= ctx.buf.Len() || skipGlyph(&ctx, pos) {
		return pos, false, nil
	}
	isGPos := ot.IsGPosLookupType(lookup.Type)
	tracer().Debugf("applying lookup type %d flags=0x%04x at %d", lookup.Type, uint16(lookup.Flag), pos)
	for i, node := range lookup.Subtables {
		var (
			next int
			ok   bool
			edit *EditSpan
		)
		switch {
		case node == nil:
			continue
		case isGPos && node.GPos != nil:
			next, ok = dispatchGPosLookup(&ctx, node)
		case !isGPos && node.GSub != nil:
			next, ok, edit = dispatchGSubLookup(&ctx, node)
		default:
			tracer().Debugf("subtable #%d of lookup type %d has no payload, skipped", i, lookup.Type)
			continue
		}
		if ok {
			return next, true, edit
		}
	}
	return pos, false, nil
}

func dispatchGSubLookup(ctx *applyCtx, node *ot.LookupNode) (int, bool, *EditSpan) {
	p := node.GSub
	switch {
	case p.SingleFmt1 != nil:
		return gsubLookupType1Fmt1(ctx, node)
	case p.SingleFmt2 != nil:
		return gsubLookupType1Fmt2(ctx, node)
	case p.MultipleFmt1 != nil:
		return gsubLookupType2Fmt1(ctx, node)
	case p.AlternateFmt1 != nil:
		return gsubLookupType3Fmt1(ctx, node)
	case p.LigatureFmt1 != nil:
		return gsubLookupType4Fmt1(ctx, node)
	case p.ContextFmt1 != nil:
		return gsubLookupType5Fmt1(ctx, node)
	case p.ContextFmt2 != nil:
		return gsubLookupType5Fmt2(ctx, node)
	case p.ContextFmt3 != nil:
		return gsubLookupType5Fmt3(ctx, node)
	case p.ChainingContextFmt1 != nil:
		return gsubLookupType6Fmt1(ctx, node)
	case p.ChainingContextFmt2 != nil:
		return gsubLookupType6Fmt2(ctx, node)
	case p.ChainingContextFmt3 != nil:
		return gsubLookupType6Fmt3(ctx, node)
	case p.ReverseChainingFmt1 != nil:
		return gsubLookupType8Fmt1(ctx, node)
	}
	tracer().Errorf("GSUB lookup type %d/%d without payload", node.LookupType, node.Format)
	return ctx.buf.Index, false, nil
}

func dispatchGPosLookup(ctx *applyCtx, node *ot.LookupNode) (int, bool) {
	p := node.GPos
	switch {
	case p.SingleFmt1 != nil:
		return gposLookupType1Fmt1(ctx, node)
	case p.SingleFmt2 != nil:
		return gposLookupType1Fmt2(ctx, node)
	case p.PairFmt1 != nil:
		return gposLookupType2Fmt1(ctx, node)
	case p.PairFmt2 != nil:
		return gposLookupType2Fmt2(ctx, node)
	}
	tracer().Errorf("GPOS lookup type %d/%d without payload", ot.GPosLookupType(node.LookupType), node.Format)
	return ctx.buf.Index, false
}

// --- Helpers ---------------------------------------------------------------

// skipGlyph applies lookup-flags to decide whether to skip the glyph at
// position i while matching with a coverage rule.
func skipGlyph(ctx *applyCtx, i int) bool {
	if ctx.gdef == nil || ctx.lookup == nil {
		return false
	}
	g := ctx.buf.At(i)
	class := ctx.gdef.GlyphClass(g)
	if ctx.flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0 && class == ot.BaseGlyph {
		return true
	}
	if ctx.flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0 && class == ot.LigatureGlyph {
		return true
	}
	if class != ot.MarkGlyph {
		return false
	}
	if ctx.flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
		return true
	}
	if ctx.flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		set := int(ctx.lookup.MarkFilteringSet)
		if set >= len(ctx.gdef.MarkGlyphSets) || !ctx.gdef.MarkGlyphSets[set].Contains(g) {
			return true
		}
	}
	if matype := markAttachmentType(ctx.flag); matype != 0 {
		if ctx.gdef.MarkAttachmentClassDef.Class(g) != matype {
			return true
		}
	}
	return false
}

func markAttachmentType(flag ot.LayoutTableLookupFlag) int {
	return int((flag & ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK) >> 8)
}

// isContextMark reports whether the glyph at position i is a mark which
// context matching skips.
func isContextMark(ctx *applyCtx, i int) bool {
	if mb, ok := ctx.buf.Glyphs.(MarkBuffer); ok && mb.IsMark(i) {
		return true
	}
	return ctx.gdef != nil && ctx.gdef.GlyphClass(ctx.buf.At(i)) == ot.MarkGlyph
}

// nextMatchable returns the first position ≥ pos not skipped by the lookup flags.
func nextMatchable(ctx *applyCtx, pos int) (int, bool) {
	for i := max(pos, 0); i < ctx.buf.Len(); i++ {
		if !skipGlyph(ctx, i) {
			return i, true
		}
	}
	return 0, false
}

// prevMatchable returns the first position ≤ pos not skipped by the lookup flags.
func prevMatchable(ctx *applyCtx, pos int) (int, bool) {
	for i := min(pos, ctx.buf.Len()-1); i >= 0; i-- {
		if !skipGlyph(ctx, i) {
			return i, true
		}
	}
	return 0, false
}

// sequenceMatcher describes a sequence to match: n items, starting at a
// position and proceeding in direction dir.
type sequenceMatcher struct {
	n         int
	dir       int  // +1 or -1
	skipMarks bool // skip context marks (backtrack and lookahead)
	match     func(k int, g ot.GlyphIndex) bool
}

// matchSequence matches a sequence starting at position start (inclusive),
// returning the matched positions.
func matchSequence(ctx *applyCtx, start int, m sequenceMatcher) ([]int, bool) {
	out := make([]int, m.n)
	cur := start
	for k := 0; k < m.n; k++ {
		var mpos int
		var ok bool
		for {
			if m.dir > 0 {
				mpos, ok = nextMatchable(ctx, cur)
			} else {
				mpos, ok = prevMatchable(ctx, cur)
			}
			if !ok || !m.skipMarks || !isContextMark(ctx, mpos) {
				break
			}
			cur = mpos + m.dir
		}
		if !ok || !m.match(k, ctx.buf.At(mpos)) {
			return nil, false
		}
		out[k] = mpos
		cur = mpos + m.dir
	}
	return out, true
}

func coverageMatcher(covs []ot.Coverage, dir int, context bool) sequenceMatcher {
	return sequenceMatcher{n: len(covs), dir: dir, skipMarks: context,
		match: func(k int, g ot.GlyphIndex) bool { return covs[k].Contains(g) },
	}
}

func glyphMatcher(glyphs []ot.GlyphIndex, dir int, context bool) sequenceMatcher {
	return sequenceMatcher{n: len(glyphs), dir: dir, skipMarks: context,
		match: func(k int, g ot.GlyphIndex) bool { return glyphs[k] == g },
	}
}

func classMatcher(cdef ot.ClassDefinitions, classes []uint16, dir int, context bool) sequenceMatcher {
	return sequenceMatcher{n: len(classes), dir: dir, skipMarks: context,
		match: func(k int, g ot.GlyphIndex) bool { return cdef.Class(g) == int(classes[k]) },
	}
}

// matchInput matches the input sequence of a contextual rule. The first
// input glyph is at pos and has already been matched, rest holds the
// matchers for the following glyphs.
func matchInput(ctx *applyCtx, pos int, rest sequenceMatcher) ([]int, bool) {
	tail, ok := matchSequence(ctx, pos+1, rest)
	if !ok {
		return nil, false
	}
	return append([]int{pos}, tail...), true
}

// matchContext checks backtrack and lookahead sequences around a matched
// input sequence.
func matchContext(ctx *applyCtx, input []int, backtrack, lookahead sequenceMatcher) bool {
	if backtrack.n > 0 {
		if _, ok := matchSequence(ctx, input[0]-1, backtrack); !ok {
			return false
		}
	}
	if lookahead.n > 0 {
		if _, ok := matchSequence(ctx, input[len(input)-1]+1, lookahead); !ok {
			return false
		}
	}
	return true
}

// applySequenceLookupRecords applies the nested lookups of a matched
// contextual rule. It returns the position after the (possibly edited) input
// sequence and whether any nested lookup has been applied.
func applySequenceLookupRecords(ctx *applyCtx, matchPositions []int, records []ot.SequenceLookupRecord) (int, bool) {
	end := matchPositions[len(matchPositions)-1] + 1
	if ctx.depth >= MaxNestingDepth {
		tracer().Errorf("lookups nested deeper than %d, giving up", MaxNestingDepth)
		return end, false
	}
	mapIdx := make([]int, len(matchPositions))
	copy(mapIdx, matchPositions)
	applied := false
	for _, rec := range records {
		tracer().Debugf("sequence lookup record: seq=%d lookup=%d", rec.SequenceIndex, rec.LookupListIndex)
		seqIndex := int(rec.SequenceIndex)
		if seqIndex >= len(mapIdx) || mapIdx[seqIndex] < 0 || mapIdx[seqIndex] >= ctx.buf.Len() {
			continue
		}
		lookup := ctx.lyt.LookupList.Lookup(int(rec.LookupListIndex))
		assertContract(lookup != nil, "sequence lookup record references a lookup beyond the lookup list")
		nested := *ctx
		nested.depth++
		target := mapIdx[seqIndex]
		before := ctx.buf.Len()
		ctx.buf.Index = target
		_, ok, edit := applyLookupTable(&nested, lookup)
		if !ok {
			continue
		}
		applied = true
		delta := ctx.buf.Len() - before
		if edit == nil && delta != 0 {
			if delta < 0 { // glyphs after the target have been consumed
				edit = &EditSpan{From: target + 1, To: target + 1 - delta, Len: 0}
			} else {
				edit = &EditSpan{From: target, To: target + 1, Len: 1 + delta}
			}
		}
		if edit == nil {
			continue
		}
		for i := range mapIdx {
			if mapIdx[i] < 0 {
				continue
			}
			if mapIdx[i] >= edit.To {
				mapIdx[i] += edit.Delta()
			} else if mapIdx[i] >= edit.From {
				if edit.Len == 0 {
					mapIdx[i] = -1
				} else {
					mapIdx[i] = edit.From
				}
			}
		}
		end += edit.Delta()
	}
	ctx.buf.Index = matchPositions[0]
	return max(end, matchPositions[0]+1), applied
}
