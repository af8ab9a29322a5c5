package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otlayout"
	"github.com/pterm/pterm"
)

func tablesOp(intp *Intp, op *Op) (error, bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return err, false
	}
	data := [][]string{
		{"Tag", "Offset", "Length", "Compressed"},
	}
	for _, tag := range otf.TableTags() {
		t := otf.Table(tag)
		data = append(data, []string{
			tag.String(),
			fmt.Sprintf("%d", t.Offset),
			fmt.Sprintf("%d", t.Length),
			strconv.FormatBool(t.Compressed),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

func tableOp(intp *Intp, op *Op) (error, bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return err, false
	}
	tag := ot.T(op.arg)
	t := otf.Table(tag)
	if t == nil {
		return fmt.Errorf("table %s not found in font", tag), false
	}
	intp.tableTag, intp.table = tag, nil
	switch tag {
	case ot.T("GSUB"):
		intp.table = otf.Layout.GSub
	case ot.T("GPOS"):
		intp.table = otf.Layout.GPos
	}
	tracer().Infof("setting table: %v", tag)
	pterm.Printf("table %s has %d bytes\n", tag, len(t.Binary()))
	return nil, false
}

func scriptsOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkTable(); err != nil {
		return
	}
	sl := intp.table.ScriptList
	if sl.Len() == 0 {
		return errors.New("table has no script list"), false
	}
	if tag, ok := op.hasArg(); ok {
		scr := sl.Script(ot.T(tag))
		if scr == nil {
			return fmt.Errorf("script %s not contained in %s", ot.T(tag), intp.tableTag), false
		}
		printScript(scr)
		return
	}
	tags := make([]string, 0, sl.Len())
	for tag := range sl.Range() {
		tags = append(tags, tag.String())
	}
	pterm.Printf("ScriptList keys: %v\n", tags)
	return
}

func printScript(scr *ot.Script) {
	data := [][]string{
		{"Language", "Required", "Features"},
	}
	row := func(tag string, lsys *ot.LangSys) []string {
		req := "-"
		if inx, ok := lsys.RequiredFeatureIndex(); ok {
			req = fmt.Sprintf("#%d", inx)
		}
		feats := make([]string, 0, len(lsys.Features()))
		for _, f := range lsys.Features() {
			feats = append(feats, f.Tag.String())
		}
		return []string{tag, req, strings.Join(feats, " ")}
	}
	if dflt := scr.DefaultLangSys(); dflt != nil {
		data = append(data, row("(default)", dflt))
	}
	for tag, lsys := range scr.Range() {
		data = append(data, row(tag.String(), lsys))
	}
	pterm.Printf("Script %s\n", scr.Tag)
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// featuresOp lists the features of the selected table, or, given a script
// and optionally a language, as in features:arab:URD, the GSUB and GPOS
// features active for them.
func featuresOp(intp *Intp, op *Op) (err error, stop bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return
	}
	if script, ok := op.hasArg(); ok {
		var lang ot.Tag
		if op.format != "" {
			lang = ot.T(op.format)
		}
		gsub, gpos, err := otlayout.FontFeatures(otf, ot.T(script), lang)
		if err != nil {
			return err, false
		}
		printFeatures("GSUB", gsub)
		printFeatures("GPOS", gpos)
		return nil, false
	}
	if err = intp.checkTable(); err != nil {
		return
	}
	fl := intp.table.FeatureList
	pterm.Printf("%s FeatureList has %d entries\n", intp.tableTag, fl.Len())
	tags := make([]string, 0, fl.Len())
	for tag := range fl.Range() {
		if t := tag.String(); !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	pterm.Printf("features: %v\n", tags)
	return
}

func printFeatures(table string, feats []otlayout.Feature) {
	if len(feats) == 0 {
		pterm.Printf("%s: no features\n", table)
		return
	}
	data := [][]string{
		{"#", "Tag", "Lookups"},
	}
	for i, f := range feats {
		if f == nil {
			continue // no mandatory feature
		}
		lookups := make([]string, f.LookupCount())
		for j := range lookups {
			lookups[j] = strconv.Itoa(f.LookupIndex(j))
		}
		tag := f.Tag().String()
		if i == 0 {
			tag += " (required)"
		}
		data = append(data, []string{strconv.Itoa(i), tag, strings.Join(lookups, " ")})
	}
	pterm.Printf("%s features:\n", table)
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func lookupsOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkTable(); err != nil {
		return
	}
	if op.noArg() {
		printLookupList(intp.table)
	} else if i, err := strconv.Atoi(op.arg); err == nil {
		printLookup(intp.table, i)
	} else {
		tracer().Errorf("Lookup index not numeric: %v\n", op.arg)
		return errors.New("invalid lookup index"), false
	}
	return
}
