/*
Package fontload locates and loads font files for command line tools.

Fonts may be given as a file path or as the name of a font installed on the
system. Loaded fonts are decoded by package ot; plain sfnt fonts are
additionally opened with golang.org/x/image/font/sfnt, which serves as a
second opinion for font names.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer traces with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

// ScalableFont is a loaded font with its original bytes, the decoded
// OpenType font and, where the container allows, an x/image SFNT view.
type ScalableFont struct {
	Fontname string
	Filepath string
	Binary   []byte
	OTF      *ot.Font
	SFNT     *sfnt.Font // nil for WOFF containers
}

// ErrNoFont is returned if a font name cannot be resolved to a file.
var ErrNoFont = errors.New("font not found")

// Locate resolves a font name to a file path. Existing paths are returned
// unchanged, everything else is searched for in the system font directories.
func Locate(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoFont
	}
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return name, nil
	}
	fpath, err := findfont.Find(name) // try to find as system font
	if err != nil || fpath == "" {
		return "", fmt.Errorf("%w: %s", ErrNoFont, name)
	}
	tracer().Debugf("%s is a system font at %s", name, fpath)
	return fpath, nil
}

// LoadOpenTypeFont loads an OpenType font (TTF, OTF or WOFF) from a file,
// given by path or by system font name.
func LoadOpenTypeFont(fontfile string, opts ...ot.ParseOption) (*ScalableFont, error) {
	fpath, err := Locate(fontfile)
	if err != nil {
		return nil, err
	}
	bytez, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot decode font %s: %w", fpath, err)
	}
	f.Filepath = fpath
	if f.Fontname == "" {
		f.Fontname = strings.TrimSuffix(filepath.Base(fpath), filepath.Ext(fpath))
	}
	return f, nil
}

// ParseOpenTypeFont loads an OpenType font (TTF, OTF or WOFF) from memory.
func ParseOpenTypeFont(fbytes []byte, opts ...ot.ParseOption) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	if f.OTF, err = ot.Parse(fbytes, opts...); err != nil {
		return nil, err
	}
	if s, ok := f.OTF.Name.Lookup(sfnt.NameIDFull); ok {
		f.Fontname = s
	}
	if f.OTF.Header.Container == ot.SFNTContainer {
		if f.SFNT, err = sfnt.Parse(fbytes); err != nil {
			tracer().Debugf("x/image/sfnt cannot open font: %v", err)
			f.SFNT, err = nil, nil
		} else if f.Fontname == "" {
			f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
		}
	}
	tracer().Infof("loaded %s font %q", f.OTF.Header.Flavor, f.Fontname)
	return f, nil
}
