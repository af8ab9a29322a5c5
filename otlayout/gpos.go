package otlayout

import "github.com/npillmayer/fontshape/ot"

// GPOS LookupType 1: Single Adjustment Positioning Subtable
//
// A single adjustment positioning subtable (SinglePos) is used to adjust the placement
// or advance of a single glyph, such as a subscript or superscript. Format 1 applies
// the same value record to every covered glyph.
func gposLookupType1Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool) {
	pos := ctx.buf.Index
	if !node.Coverage.Contains(ctx.buf.At(pos)) {
		return pos, false
	}
	ctx.buf.EnsurePos()
	applyValueRecord(&ctx.buf.Pos[pos], node.GPos.SingleFmt1.Value)
	tracer().Debugf("OT lookup GPOS 1/1: adjust %d by %v", ctx.buf.At(pos), node.GPos.SingleFmt1.Value)
	return pos + 1, true
}

// GPOS LookupType 1 Format 2 holds one value record per covered glyph.
func gposLookupType1Fmt2(ctx *applyCtx, node *ot.LookupNode) (int, bool) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	values := node.GPos.SingleFmt2.Values
	if !ok || inx >= len(values) {
		return pos, false
	}
	ctx.buf.EnsurePos()
	applyValueRecord(&ctx.buf.Pos[pos], values[inx])
	return pos + 1, true
}

// GPOS LookupType 2: Pair Adjustment Positioning Subtable
//
// A pair adjustment positioning subtable (PairPos) is used to adjust the placement or
// advances of two glyphs in relation to one another, for instance to specify kerning
// data for pairs of glyphs. Format 1 lists the second glyphs of each pair, indexed
// by the coverage index of the first glyph.
func gposLookupType2Fmt1(ctx *applyCtx, node *ot.LookupNode) (int, bool) {
	pos := ctx.buf.Index
	inx, ok := node.Coverage.Match(ctx.buf.At(pos))
	if !ok {
		return pos, false
	}
	second, ok := nextMatchable(ctx, pos+1)
	if !ok {
		return pos, false
	}
	pl := node.GPos.PairFmt1
	rec, ok := pl.Pair(inx, ctx.buf.At(second))
	if !ok {
		return pos, false
	}
	tracer().Debugf("OT lookup GPOS 2/1: pair %d/%d", ctx.buf.At(pos), ctx.buf.At(second))
	return applyPair(ctx, pos, second, rec.Value1, rec.Value2, pl.ValueFormat2), true
}

// GPOS LookupType 2 Format 2 defines pairs by the glyph classes of the first and
// the second glyph.
func gposLookupType2Fmt2(ctx *applyCtx, node *ot.LookupNode) (int, bool) {
	pos := ctx.buf.Index
	if !node.Coverage.Contains(ctx.buf.At(pos)) {
		return pos, false
	}
	second, ok := nextMatchable(ctx, pos+1)
	if !ok {
		return pos, false
	}
	pl := node.GPos.PairFmt2
	rec, ok := pl.Pair(ctx.buf.At(pos), ctx.buf.At(second))
	if !ok {
		return pos, false
	}
	tracer().Debugf("OT lookup GPOS 2/2: pair %d/%d", ctx.buf.At(pos), ctx.buf.At(second))
	return applyPair(ctx, pos, second, rec.Value1, rec.Value2, pl.ValueFormat2), true
}

// applyPair applies the value records of a pair and returns the position to
// continue with. If the second glyph has been adjusted, it may not start
// another pair.
func applyPair(ctx *applyCtx, first, second int, v1, v2 ot.ValueRecord, vf2 ot.ValueFormat) int {
	ctx.buf.EnsurePos()
	applyValueRecord(&ctx.buf.Pos[first], v1)
	applyValueRecord(&ctx.buf.Pos[second], v2)
	if vf2 != 0 {
		return second + 1
	}
	return second
}

// applyValueRecord adds the adjustments of a value record to a position item.
// Device table adjustments are not applied.
func applyValueRecord(pos *PosItem, vr ot.ValueRecord) {
	pos.XOffset += int32(vr.XPlacement)
	pos.YOffset += int32(vr.YPlacement)
	pos.XAdvance += int32(vr.XAdvance)
	pos.YAdvance += int32(vr.YAdvance)
}

// KerningAt returns the horizontal advance adjustment of a GPOS pair
// adjustment lookup for a pair of glyphs, as found by feature feat. It
// returns false if no lookup of the feature covers the pair.
//
// Only the x-advance of the left glyph is reported. Placements, including
// an x-placement of the right glyph, do not move the pen; clients needing
// them apply the feature to a buffer with ApplyFeatureToBuffer.
func KerningAt(otf *ot.Font, feat Feature, left, right ot.GlyphIndex) (int, bool) {
	if feat == nil || feat.Type() != GPosFeatureType {
		return 0, false
	}
	st := NewBufferState(GlyphSlice{left, right}, nil)
	if _, ok := ApplyFeature(otf, feat, st, 0); !ok || st.Pos == nil {
		return 0, false
	}
	return int(st.Pos[0].XAdvance), true
}
