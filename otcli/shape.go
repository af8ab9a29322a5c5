package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/npillmayer/fontshape"
	"github.com/npillmayer/fontshape/ot"
	"github.com/npillmayer/fontshape/otquery"
	"github.com/npillmayer/fontshape/otshape"
	"github.com/pterm/pterm"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// shapeOp shapes the rest of the command line, e.g. "shape:fi بب".
func shapeOp(intp *Intp, op *Op) (error, bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return err, false
	}
	if op.noArg() {
		return errors.New("usage: shape:<text>"), false
	}
	st, err := fontshape.Shape(otf, op.arg, otshape.Options{})
	if err != nil {
		return err, false
	}
	data := [][]string{
		{"#", "Glyph", "Name", "X", "Advance", "Kern"},
	}
	for i, g := range st.Glyphs {
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", g.Glyph),
			otquery.GlyphName(otf, g.Glyph),
			fmt.Sprintf("%d", g.X),
			fmt.Sprintf("%d", g.Advance),
			fmt.Sprintf("%d", g.Kern),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Printf("total advance = %d units\n", st.Advance)
	return nil, false
}

const renderPPEM = 64

// renderOp shapes a word and writes it as a PNG image, e.g.
// "render:office:office.png".
func renderOp(intp *Intp, op *Op) (error, bool) {
	otf, err := intp.checkFont()
	if err != nil {
		return err, false
	}
	if op.noArg() || op.format == "" {
		return errors.New("usage: render:<text>:<file.png>"), false
	}
	st, err := fontshape.Shape(otf, op.arg, otshape.Options{})
	if err != nil {
		return err, false
	}
	img, ink, err := renderRun(otf, st, renderPPEM)
	if err != nil {
		return err, false
	}
	if err := writePNG(img, op.format); err != nil {
		return err, false
	}
	pterm.Printf("wrote %s (glyphs=%d, ink=%v)\n", op.format, len(st.Glyphs), ink)
	return nil, false
}

const renderMargin = 8

// renderRun rasterizes shaped text at ppem pixels per em, black on white.
// It returns the image and the ink bounds of the glyphs in device space.
func renderRun(otf *ot.Font, st fontshape.ShapedText, ppem int) (*image.RGBA, fixed.Rectangle26_6, error) {
	var ink fixed.Rectangle26_6
	if len(st.Glyphs) == 0 {
		return nil, ink, errors.New("empty glyph run")
	}
	m := otquery.FontMetrics(otf)
	if m.UnitsPerEm <= 0 {
		return nil, ink, errors.New("invalid units-per-em")
	}
	scale := float64(ppem) / float64(m.UnitsPerEm)
	width := int(math.Ceil(float64(st.Advance)*scale)) + 2*renderMargin
	height := int(math.Ceil(float64(m.Ascent-m.Descent)*scale)) + 2*renderMargin
	baseline := float64(renderMargin) + float64(m.Ascent)*scale

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	rast := vector.NewRasterizer(width, height)
	rast.DrawOp = draw.Over
	for _, g := range st.Glyphs {
		path, err := otf.GlyphPath(g.Glyph)
		if err != nil {
			tracer().Errorf("cannot load outline of glyph %d: %v", g.Glyph, err)
			continue
		}
		if path == nil || path.Len() == 0 {
			continue
		}
		dx := float64(renderMargin) + float64(g.X)*scale
		path.Draw(rast, scale, dx, baseline)
		b := path.Bounds26_6(scale).Add(fixed.Point26_6{
			X: fixed.Int26_6(dx * 64),
			Y: fixed.Int26_6(baseline * 64),
		})
		ink = ink.Union(b)
	}
	rast.Draw(img, img.Bounds(), image.Black, image.Point{})
	return img, ink, nil
}

func writePNG(img image.Image, outPath string) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("cannot encode png: %w", err)
	}
	return nil
}
