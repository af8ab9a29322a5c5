package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/fontshape/internal/fontload"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'font.cli'
func tracer() tracing.Trace {
	return tracing.Select("font.cli")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.font.cli":       "Info",
		"trace.font.opentype":  "Error",
		"trace.opentype.query": "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load, file path or system font name")
	testfont := flag.Bool("testfont", false, "Relax completeness checks for test fonts")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the font shaping CLI")
	//
	// set up REPL
	repl, err := readline.New("ot > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, testfont: *testfont}
	//
	// load font to use
	if *fontname != "" {
		if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	font     *fontload.ScalableFont
	repl     *readline.Instance
	table    *ot.LayoutTable // selected layout table, if any
	tableTag ot.Tag          // selected table
	testfont bool
}

func (intp *Intp) String() string {
	if intp == nil || intp.font == nil {
		return "( no font )"
	}
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("( font=%s", intp.font.Fontname))
	if intp.tableTag != 0 {
		sb.WriteString(fmt.Sprintf(" table=%s", intp.tableTag))
	}
	sb.WriteString(" )")
	return sb.String()
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		err, quit := intp.execute(cmd)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

type Op struct {
	code   int
	arg    string
	format string
}

type Command struct {
	count int
	op    [32]Op
}

const NOOP = -1
const (
	// op-code QUIT will not have arguments
	QUIT int = iota
	// op-codes below may have arguments
	HELP
	LOAD
	INFO
	TABLES
	TABLE
	SCRIPTS
	FEATURES
	LOOKUPS
	GLYPH
	SHAPE
	RENDER
)

var opMap = map[string]int{
	"quit":     QUIT,
	"help":     HELP,
	"load":     LOAD,
	"info":     INFO,
	"tables":   TABLES,
	"table":    TABLE,
	"scripts":  SCRIPTS,
	"features": FEATURES,
	"lookups":  LOOKUPS,
	"glyph":    GLYPH,
	"shape":    SHAPE,
	"render":   RENDER,
}

var opNames = []string{
	"quit",
	"help",
	"load",
	"info",
	"tables",
	"table",
	"scripts",
	"features",
	"lookups",
	"glyph",
	"shape",
	"render",
}

// parseCommand splits a line into steps separated by blanks, e.g.
// "table:GSUB scripts:latn". Step shape takes the rest of the line as its
// text argument, as text may contain blanks.
func parseCommand(line string) (*Command, error) {
	command := &Command{}
	for i := range command.op {
		command.op[i].code = NOOP
	}
	steps := strings.Fields(line)
	if len(steps) > len(command.op) {
		return nil, fmt.Errorf("too many commands in one line: %d", len(steps))
	}
	command.count = len(steps)
	for i, step := range steps {
		c := strings.Split(step, ":") // e.g.  "scripts:latn" or "render:A:a.png" or "help:shape"
		code, ok := opMap[strings.ToLower(c[0])]
		if !ok {
			code = HELP
		}
		command.op[i].code = code
		if code == QUIT {
			command.count = i + 1
			return command, nil
		}
		if code == SHAPE {
			rest := strings.Join(steps[i:], " ")
			_, command.op[i].arg, _ = strings.Cut(rest, ":")
			command.count = i + 1
			return command, nil
		}
		command.op[i].arg = getOptArg(c, 1)
		command.op[i].format = getOptArg(c, 2)
		if command.op[i].arg == "" {
			tracer().Debugf("%s", opNames[code])
		} else {
			tracer().Debugf("%s: looking for '%s'", opNames[code], command.op[i].arg)
		}
	}
	return command, nil
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:     quitOp,
	HELP:     helpOp,
	LOAD:     loadOp,
	INFO:     infoOp,
	TABLES:   tablesOp,
	TABLE:    tableOp,
	SCRIPTS:  scriptsOp,
	FEATURES: featuresOp,
	LOOKUPS:  lookupsOp,
	GLYPH:    glyphOp,
	SHAPE:    shapeOp,
	RENDER:   renderOp,
}

func (intp *Intp) execute(cmd *Command) (err error, stop bool) {
	tracer().Debugf("cmd = %v", cmd.op[:cmd.count])
	for _, c := range cmd.op {
		if c.code == NOOP {
			break
		}
		f, ok := commandFn[c.code]
		if !ok {
			pterm.Error.Printf("unknown command code: %d\n", c.code)
			return nil, false
		}
		err, stop = f(intp, &c)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		if stop {
			return
		}
	}
	return
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

// --- Font Loading -----------------------------------------------------

func loadOp(intp *Intp, op *Op) (error, bool) {
	name, ok := op.hasArg()
	if !ok {
		return errors.New("usage: load:<font file or system font name>"), false
	}
	return intp.loadFont(name), false
}

// loadFont loads a font from a file or from the system fonts.
func (intp *Intp) loadFont(fontname string) error {
	var opts []ot.ParseOption
	if intp.testfont {
		opts = append(opts, ot.IsTestfont)
	}
	f, err := fontload.LoadOpenTypeFont(fontname, opts...)
	if err != nil {
		tracer().Errorf("cannot load font %s: %s", fontname, err)
		return err
	}
	intp.font, intp.table, intp.tableTag = f, nil, 0
	tracer().Infof("loaded font %s from %s", f.Fontname, f.Filepath)
	for _, e := range f.OTF.Errors() {
		pterm.Warning.Println(e.Error())
	}
	pterm.Printf("font tables: %v\n", f.OTF.TableTags())
	return nil
}

// ----------------------------------------------------------------------

var ErrNoFont = errors.New("no font loaded")
var ErrNoTable = errors.New("no layout table set, use table:GSUB or table:GPOS")

func (intp *Intp) checkFont() (*ot.Font, error) {
	if intp.font == nil || intp.font.OTF == nil {
		return nil, ErrNoFont
	}
	return intp.font.OTF, nil
}

func (intp *Intp) checkTable() error {
	if _, err := intp.checkFont(); err != nil {
		return err
	}
	if intp.table == nil {
		return ErrNoTable
	}
	return nil
}

// glyphArg interprets an argument as a glyph: "#12" or "12" is a glyph
// index, "U+0041" a code-point, any other argument is a character.
func glyphArg(otf *ot.Font, arg string) (ot.GlyphIndex, rune, error) {
	switch {
	case strings.HasPrefix(arg, "#"):
		n, err := strconv.Atoi(arg[1:])
		if err != nil || n < 0 || n >= otf.NumGlyphs() {
			return 0, 0, fmt.Errorf("invalid glyph index: %s", arg)
		}
		return ot.GlyphIndex(n), 0, nil
	case strings.HasPrefix(arg, "U+"), strings.HasPrefix(arg, "u+"):
		u, err := strconv.ParseUint(arg[2:], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid code-point %q: %w", arg, err)
		}
		return otf.GlyphIndex(rune(u)), rune(u), nil
	}
	if n, err := strconv.Atoi(arg); err == nil && len(arg) > 1 {
		if n < 0 || n >= otf.NumGlyphs() {
			return 0, 0, fmt.Errorf("glyph index out of range: %d", n)
		}
		return ot.GlyphIndex(n), 0, nil
	}
	runes := []rune(arg)
	if len(runes) != 1 {
		return 0, 0, fmt.Errorf("not a single character: %q", arg)
	}
	return otf.GlyphIndex(runes[0]), runes[0], nil
}

func getOptArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}

func (op *Op) noArg() bool {
	return op.arg == ""
}

func (op *Op) hasArg() (string, bool) {
	if op.arg == "" {
		return "", false
	}
	return op.arg, true
}
