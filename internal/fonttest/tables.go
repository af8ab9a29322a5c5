package fonttest

import (
	"math"
	"sort"
)

// CMap12 builds a cmap table with a Windows BMP subtable (3,1) of format 4
// for the BMP part of m, and a Windows full-repertoire subtable (3,10) of
// format 12 for all of m. Consecutive code points mapping to consecutive
// glyphs share a group.
func CMap12(m map[rune]uint16) []byte {
	runes := make([]rune, 0, len(m))
	for r := range m {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	type group struct {
		start, end rune
		glyph      uint16
	}
	var groups []group
	for _, r := range runes {
		if n := len(groups); n > 0 {
			last := &groups[n-1]
			if r == last.end+1 && m[r] == last.glyph+uint16(r-last.start) {
				last.end = r
				continue
			}
		}
		groups = append(groups, group{start: r, end: r, glyph: m[r]})
	}
	sub12 := &Buf{}
	sub12.U16(12, 0).U32(uint32(16+12*len(groups)), 0, uint32(len(groups)))
	for _, g := range groups {
		sub12.U32(uint32(g.start), uint32(g.end), uint32(g.glyph))
	}
	sub4 := cmap4Subtable(m)
	w := &Buf{}
	w.U16(0, 2)
	w.U16(3, 1).U32(4 + 2*8)
	w.U16(3, 10).U32(uint32(4 + 2*8 + len(sub4)))
	w.Bytes(sub4).Bytes(sub12.Data())
	return w.Data()
}

func fixed16(v float64) uint32 {
	return uint32(int32(math.Round(v * 65536)))
}

// Axis is a variation axis for FVar.
type Axis struct {
	Tag               string
	Min, Default, Max float64
	NameID            uint16
}

// Instance is a named instance for FVar.
type Instance struct {
	SubfamilyNameID  uint16
	Coordinates      []float64
	PostScriptNameID uint16
}

// FVar builds an fvar table. Instance records always carry a PostScript
// name ID.
func FVar(axes []Axis, instances []Instance) []byte {
	instSize := 4 + 4*len(axes) + 2
	w := &Buf{}
	w.U16(1, 0, 16, 2, uint16(len(axes)), 20, uint16(len(instances)), uint16(instSize))
	for _, a := range axes {
		w.Tag(a.Tag).U32(fixed16(a.Min), fixed16(a.Default), fixed16(a.Max)).U16(0, a.NameID)
	}
	for _, inst := range instances {
		w.U16(inst.SubfamilyNameID, 0)
		for i := range axes {
			var c float64
			if i < len(inst.Coordinates) {
				c = inst.Coordinates[i]
			}
			w.U32(fixed16(c))
		}
		w.U16(inst.PostScriptNameID)
	}
	return w.Data()
}

// LTag builds an ltag table.
func LTag(tags ...string) []byte {
	w := &Buf{}
	w.U32(1, 0, uint32(len(tags)))
	off := 12 + 4*len(tags)
	for _, tag := range tags {
		w.U16(uint16(off), uint16(len(tag)))
		off += len(tag)
	}
	for _, tag := range tags {
		w.Bytes([]byte(tag))
	}
	return w.Data()
}

// Meta builds a meta table of version 1, with data maps ordered by tag.
func Meta(entries map[string]string) []byte {
	tags := make([]string, 0, len(entries))
	for tag := range entries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	w := &Buf{}
	w.U32(1, 0, 0, uint32(len(tags)))
	off := 16 + 12*len(tags)
	for _, tag := range tags {
		w.Tag(tag).U32(uint32(off), uint32(len(entries[tag])))
		off += len(entries[tag])
	}
	for _, tag := range tags {
		w.Bytes([]byte(entries[tag]))
	}
	return w.Data()
}
