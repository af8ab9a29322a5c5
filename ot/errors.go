package ot

import (
	"errors"
	"fmt"
)

// Error categories. FontErrors wrap one of these, so clients may check for
// a category with errors.Is.
var (
	ErrUnknownContainer  = errors.New("unknown font container signature")
	ErrMissingTable      = errors.New("missing required table")
	ErrTableFormat       = errors.New("malformed table")
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrUnsupportedLookup = errors.New("unsupported lookup subtable")
	ErrCharstring        = errors.New("invalid charstring")
	ErrGlyphOutline      = errors.New("invalid glyph outline")
	ErrDecompression     = errors.New("table decompression failed")
)

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}

// ErrorSeverity represents the severity level of a font parsing error.
type ErrorSeverity int

const (
	// SeverityCritical indicates a severe error that makes the font unusable or unreliable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates a significant error that may affect functionality but doesn't prevent usage.
	SeverityMajor
	// SeverityMinor indicates a minor issue that can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the error severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// NoGlyph is used for FontErrors not related to a single glyph.
const NoGlyph = -1

// FontError represents an error encountered during font decoding.
// Table-level errors are accumulated during parsing and can be inspected after
// parsing completes; glyph-level errors are returned from outline access.
type FontError struct {
	Table    Tag           // The table where the error occurred (e.g., "GSUB", "CFF ")
	Section  string        // Specific section within the table (e.g., "LookupType6", "CharString")
	Issue    string        // Human-readable description of the issue
	Severity ErrorSeverity // Severity level of the error
	Offset   uint32        // Byte offset in the font file where the error occurred (0 if unknown)
	Glyph    int           // glyph index concerned, or NoGlyph
	Err      error         // error category, may be nil
}

// Error implements the error interface.
func (e FontError) Error() string {
	where := fmt.Sprintf("%s/%s", e.Table, e.Section)
	if e.Glyph >= 0 {
		where = fmt.Sprintf("%s glyph %d", where, e.Glyph)
	}
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s at offset %d: %s", e.Severity, where, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, where, e.Issue)
}

// Unwrap returns the error category.
func (e FontError) Unwrap() error {
	return e.Err
}

// glyphError creates a FontError for a single glyph.
func glyphError(table Tag, section string, gid GlyphIndex, category error, format string, args ...any) FontError {
	return FontError{
		Table:    table,
		Section:  section,
		Issue:    fmt.Sprintf(format, args...),
		Severity: SeverityMajor,
		Glyph:    int(gid),
		Err:      category,
	}
}

// FontWarning represents a non-critical issue encountered during font parsing.
// Warnings indicate potential problems but do not prevent font usage.
type FontWarning struct {
	Table  Tag    // The table where the warning occurred
	Issue  string // Human-readable description of the warning
	Offset uint32 // Byte offset in the font file where the warning occurred (0 if unknown)
}

// String returns a human-readable representation of the warning.
func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// errorCollector accumulates errors and warnings during font parsing.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

// addError records a parsing error and returns it.
func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity,
	offset uint32, category error) FontError {
	//
	e := FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
		Glyph:    NoGlyph,
		Err:      category,
	}
	if severity == SeverityCritical {
		tracer().Errorf("%s", e.Error())
	} else {
		tracer().Infof("%s", e.Error())
	}
	ec.errors = append(ec.errors, e)
	return e
}

// addWarning records a parsing warning.
func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

// critical records a critical error and returns it, ready to abort parsing.
func (ec *errorCollector) critical(table Tag, section string, offset uint32, category error,
	format string, args ...any) error {
	//
	return ec.addError(table, section, fmt.Sprintf(format, args...), SeverityCritical, offset, category)
}

// major records an error affecting one part of a table.
func (ec *errorCollector) major(table Tag, section string, offset uint32, category error,
	format string, args ...any) {
	//
	ec.addError(table, section, fmt.Sprintf(format, args...), SeverityMajor, offset, category)
}

// downgrade lowers the severity of a recorded critical error to major.
// It is used for tables whose failure does not invalidate the font. Errors
// not yet recorded are added with major severity.
func (ec *errorCollector) downgrade(table Tag, err error) {
	var fe FontError
	if errors.As(err, &fe) {
		for i := len(ec.errors) - 1; i >= 0; i-- {
			if ec.errors[i].Severity == SeverityCritical && ec.errors[i].Issue == fe.Issue {
				ec.errors[i].Severity = SeverityMajor
				return
			}
		}
	}
	ec.major(table, "Table", 0, ErrTableFormat, "%v", err)
}
