package captions

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the rendered pixel width of a text string at the
// caption font size. The segmenter takes one so tests can use a fixed
// per-character width.
type Measurer interface {
	Width(text string) (float64, error)
}

// fontMeasurer measures with the actual caption typeface.
type fontMeasurer struct {
	face font.Face
}

// NewMeasurer loads the caption font at the given size. When the font
// file cannot be loaded it falls back to a character-count heuristic so
// caption fitting degrades instead of failing.
func NewMeasurer(fontPath string, fontSize int) Measurer {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("[captions] font %s unavailable, using heuristic widths: %v", fontPath, err)
		return heuristicMeasurer{fontSize: fontSize}
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		log.Printf("[captions] font %s unparsable, using heuristic widths: %v", fontPath, err)
		return heuristicMeasurer{fontSize: fontSize}
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: float64(fontSize),
		DPI:  72,
	})
	if err != nil {
		log.Printf("[captions] font face: %v", err)
		return heuristicMeasurer{fontSize: fontSize}
	}
	return &fontMeasurer{face: face}
}

func (m *fontMeasurer) Width(text string) (float64, error) {
	adv := font.MeasureString(m.face, text)
	w := float64(adv) / 64.0
	if w < 0 {
		return 0, fmt.Errorf("negative advance for %q", text)
	}
	return w, nil
}

// heuristicMeasurer approximates glyph width as a fixed fraction of the
// font size, which is close enough for the condensed display fonts the
// captions use.
type heuristicMeasurer struct {
	fontSize int
}

func (m heuristicMeasurer) Width(text string) (float64, error) {
	return float64(len([]rune(text))) * float64(m.fontSize) * 0.6, nil
}
