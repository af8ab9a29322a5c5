package otshape

import (
	"github.com/npillmayer/fontshape/ot"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// SelectionContext carries the segment metadata for engine selection.
// A zero Script means the script of the text is not known in advance.
type SelectionContext struct {
	Direction bidi.Direction
	Script    language.Script // unicode.org/iso15924/iso15924-codes.html
	Language  language.Tag
	ScriptTag ot.Tag
	LangTag   ot.Tag
}

// ShaperConfidence tells how well an engine suits a selection context.
type ShaperConfidence int

const (
	ShaperConfidenceNone ShaperConfidence = iota
	ShaperConfidenceLow
	ShaperConfidenceMedium
	ShaperConfidenceHigh
	ShaperConfidenceCertain
)

// StageOrder orders the stages of all engines taking part in a shaping
// request. Stages of equal order run in the order the engines were given to
// NewShaper.
type StageOrder int

const (
	StageForms             StageOrder = 100 // positional forms, e.g. Arabic init/medi/fina
	StageRequiredLigatures StageOrder = 200 // 'rlig'
	StageLigatures         StageOrder = 300 // 'liga'
	StageReorder           StageOrder = 400 // presentation order, e.g. RTL reversal
)

// Stage is a step of the shaping pipeline, working on every range of a
// context.
type Stage struct {
	Name    string
	Order   StageOrder
	Context string // name of a context registered by the engine
	Apply   func(run *Run, rng Range) error
}

// ShapingEngine is the interface for script specific shapers.
type ShapingEngine interface {
	Name() string
	Match(ctx SelectionContext) ShaperConfidence
	Contexts() []ContextChecker
	Stages() []Stage
}
