package ot

import (
	"errors"
	"fmt"
	"iter"
)

// LookupList is the list of lookups of a GSUB or GPOS table, indexed by
// the lookup indices of features and of sequence lookup records.
type LookupList struct {
	lookups []*LookupTable
}

// LookupTable is one lookup: a type, flags and subtables of that type.
// Extension lookups are resolved at parse time: Type is the type of the
// wrapped subtables and Extension is set.
type LookupTable struct {
	Type             LayoutTableLookupType
	Flag             LayoutTableLookupFlag
	Extension        bool
	MarkFilteringSet uint16
	Subtables        []*LookupNode
}

// LookupNode is a lookup subtable. Exactly one of GSub or GPos is set for
// supported subtables; unsupported subtables have neither, and their
// problem is recorded as a FontError.
type LookupNode struct {
	LookupType LayoutTableLookupType
	Format     uint16
	Coverage   Coverage
	GSub       *GSubLookupPayload
	GPos       *GPosLookupPayload
}

// Len returns number of lookups.
func (ll *LookupList) Len() int {
	if ll == nil {
		return 0
	}
	return len(ll.lookups)
}

// Lookup returns a lookup by index, or nil if i is out of range.
func (ll *LookupList) Lookup(i int) *LookupTable {
	if ll == nil || i < 0 || i >= len(ll.lookups) {
		return nil
	}
	return ll.lookups[i]
}

// Range iterates lookups in declaration order.
func (ll *LookupList) Range() iter.Seq2[int, *LookupTable] {
	return func(yield func(int, *LookupTable) bool) {
		if ll == nil {
			return
		}
		for i, l := range ll.lookups {
			if !yield(i, l) {
				return
			}
		}
	}
}

// errUnsupportedSubtable marks subtables which are recognised, but not
// interpreted.
var errUnsupportedSubtable = fmt.Errorf("subtable not interpreted: %w", ErrUnsupportedLookup)

// lookupContext carries what subtable parsers need to know about their
// environment.
type lookupContext struct {
	tag         Tag
	lookupCount int
	isGPos      bool
}

func parseLookupList(p *Parser, isGPos bool, tag Tag, ec *errorCollector) (*LookupList, error) {
	n := int(p.U16())
	if n > MaxLookupCount {
		return nil, fmt.Errorf("lookup count %d exceeds limit %d", n, MaxLookupCount)
	}
	offsets := p.U16List(n)
	if p.Err() != nil {
		return nil, fmt.Errorf("lookup list: %w", p.Err())
	}
	ctx := lookupContext{tag: tag, lookupCount: n, isGPos: isGPos}
	ll := &LookupList{lookups: make([]*LookupTable, n)}
	for i, off := range offsets {
		lp := p.Sub(int(off))
		l, err := parseLookup(lp, i, ctx, ec)
		if err != nil {
			return nil, fmt.Errorf("lookup %d: %w", i, err)
		}
		ll.lookups[i] = l
	}
	return ll, nil
}

// lookupSection names a lookup type for error reports, e.g. "LookupType4".
func lookupSection(lt LayoutTableLookupType) string {
	if IsGPosLookupType(lt) {
		return fmt.Sprintf("LookupType%d", GPosLookupType(lt))
	}
	return fmt.Sprintf("LookupType%d", lt)
}

func parseLookup(p *Parser, inx int, ctx lookupContext, ec *errorCollector) (*LookupTable, error) {
	ltype := LayoutTableLookupType(p.U16())
	l := &LookupTable{Flag: LayoutTableLookupFlag(p.U16())}
	n := int(p.U16())
	if n > MaxSubtableCount {
		return nil, fmt.Errorf("subtable count %d exceeds limit", n)
	}
	offsets := p.U16List(n)
	if l.Flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		l.MarkFilteringSet = p.U16()
	}
	if p.Err() != nil {
		return nil, p.Err()
	}
	extType := GSubLookupTypeExtensionSubs
	if ctx.isGPos {
		extType = GPosLookupTypeExtensionPos
	}
	for i, off := range offsets {
		sp := p.Sub(int(off))
		subType := ltype
		if ltype == extType {
			// resolve extension subtable
			format := sp.U16()
			subType = LayoutTableLookupType(sp.U16())
			extOffset := int(sp.U32())
			if sp.Err() != nil || format != 1 || subType == extType {
				ec.major(ctx.tag, lookupSection(ltype), sp.Absolute(), ErrTableFormat,
					"lookup %d: invalid extension subtable %d", inx, i)
				continue
			}
			sp = sp.Sub(extOffset)
			l.Extension = true
		}
		if ctx.isGPos {
			subType = MaskGPosLookupType(subType)
		}
		if i == 0 || l.Type == 0 {
			l.Type = subType
		} else if subType != l.Type {
			ec.major(ctx.tag, lookupSection(subType), sp.Absolute(), ErrTableFormat,
				"lookup %d: subtable %d has type %d, lookup has type %d", inx, i, subType, l.Type)
			continue
		}
		node, err := parseLookupNode(sp, subType, ctx)
		if err != nil {
			category := ErrTableFormat
			switch {
			case errors.Is(err, ErrUnsupportedLookup):
				category = ErrUnsupportedLookup
			case errors.Is(err, ErrUnsupportedFormat):
				category = ErrUnsupportedFormat
			}
			ec.major(ctx.tag, lookupSection(subType), sp.Absolute(), category,
				"lookup %d, subtable %d: %v", inx, i, err)
			if node == nil {
				continue
			}
		}
		l.Subtables = append(l.Subtables, node)
	}
	if l.Type == 0 {
		l.Type = ltype
		if ctx.isGPos {
			l.Type = MaskGPosLookupType(ltype)
		}
	}
	return l, nil
}

// parseLookupNode parses a lookup subtable of a given type at the start of
// p. For recognised but unsupported subtables a payload-less node is
// returned together with an error.
func parseLookupNode(p *Parser, ltype LayoutTableLookupType, ctx lookupContext) (*LookupNode, error) {
	node := &LookupNode{LookupType: ltype, Format: p.U16()}
	if p.Err() != nil {
		return nil, p.Err()
	}
	p.Seek(0)
	var err error
	if IsGPosLookupType(ltype) {
		node.GPos, err = parseGPosSubtable(p, node, ctx)
	} else {
		node.GSub, err = parseGSubSubtable(p, node, ctx)
	}
	if err != nil {
		if errors.Is(err, errUnsupportedSubtable) {
			return &LookupNode{LookupType: ltype, Format: node.Format}, err
		}
		return nil, err
	}
	return node, nil
}

// coverageAt parses the coverage table at offset off relative to p.
func coverageAt(p *Parser, off int) (Coverage, error) {
	if off == 0 {
		return Coverage{}, fmt.Errorf("missing coverage table")
	}
	return parseCoverage(p.Sub(off))
}

// coveragesAt reads n offsets at the current position of p and parses the
// coverage tables they point to, relative to base.
func coveragesAt(p, base *Parser, n int) ([]Coverage, error) {
	offsets := p.U16List(n)
	if p.Err() != nil {
		return nil, p.Err()
	}
	covs := make([]Coverage, n)
	for i, off := range offsets {
		var err error
		if covs[i], err = coverageAt(base, int(off)); err != nil {
			return nil, err
		}
	}
	return covs, nil
}

// classDefAt parses an optional class definition table. A zero offset
// yields empty class definitions, assigning class 0 to every glyph.
func classDefAt(p *Parser, off int) (ClassDefinitions, error) {
	if off == 0 {
		return ClassDefinitions{}, nil
	}
	return parseClassDef(p.Sub(off))
}
