package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "script", "scripts", "scriptlist":
		pterm.Info.Println("ScriptList / Script")
		pterm.Println(`
	ScriptList is a property of GSUB and GPOS.
	It consists of ScriptRecords:
	+------------+----------------+
	| Script Tag | Link to Script |
	+------------+----------------+
	ScriptList behaves as a map.

	A Script table links to a default LangSys entry, and contains a list of LangSys records:
	+--------------------------------+
	| Link to LangSys record         |
	+--------------+-----------------+
	| Language Tag | Link to LangSys |
	+--------------+-----------------+
	Script behaves as a map, with entry 0 as the default link.

	Usage: table:GSUB scripts      lists the scripts of GSUB
	       table:GSUB scripts:latn lists the languages of script latn
	`)
	case "lang", "langsys", "langs", "language", "features":
		pterm.Info.Println("LangSys")
		pterm.Println(`
	LangSys is pointed to from a Script Record.
	It links a language with features to activate. It does so using an index into the feature table.
	+-----------------------------------+
	| Index of required feature or null |
	+-----------------------------------+
	| Index of feature 1                |
	+-----------------------------------+
	| Index of feature 2                |
	+-----------------------------------+
	| ...                               |
	+-----------------------------------+
	LangSys behaves as a list.

	Usage: features:arab:URD lists GSUB and GPOS features for script arab, language URD
	`)
	case "shape", "render":
		pterm.Info.Println("Shaping")
		pterm.Println(`
	shape:<text>             shapes the rest of the line and prints glyphs and positions.
	                         Latin and Arabic parts of the text are detected automatically.
	render:<word>:<file.png> shapes a word and writes it as a PNG image.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	load:<font>       load a font file, or a system font by name
	info              font names and metrics
	tables            list the tables of the font
	table:<tag>       select a table, e.g. table:GSUB
	scripts[:<tag>]   scripts of the selected layout table
	features[:s[:l]]  features of the selected table, or for script s and language l
	lookups[:<n>]     lookups of the selected layout table
	glyph:<g>[:path]  glyph info, for a character, U+hex or #index
	shape:<text>      shape text
	render:<w>:<f>    render word w to PNG file f
	help[:<topic>]    help on scripts, features or shape
	quit              leave
	`)
	}
}
