package captions

import (
	"fmt"
	"os"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// WriteSRT renders caption blocks as a SubRip file.
func WriteSRT(captions []types.Caption, path string) error {
	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(c.Start), srtTimestamp(c.End), c.Text)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int(seconds*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Burn renders the SRT into the video with the styled subtitles filter.
func Burn(videoFile, srtFile, outFile string, cfg config.CaptionsConfig, videoHeight int) error {
	marginV := int(cfg.BottomMarginFrac * float64(videoHeight))

	filter := fmt.Sprintf(
		"subtitles=%s:force_style='FontName=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,Outline=%d,Alignment=2,MarginV=%d'",
		escapeSubtitlePath(srtFile),
		fontFamily(cfg.Font),
		cfg.FontSize,
		assColor(cfg.Color),
		assColor(cfg.StrokeColor),
		cfg.StrokeWidth,
		marginV,
	)

	err := ffmpeg.Input(videoFile).
		Output(outFile, ffmpeg.KwArgs{
			"vf":     filter,
			"c:v":    "libx264",
			"preset": "fast",
			"crf":    20,
			"c:a":    "copy",
		}).
		OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("burning captions: %w", err)
	}
	return nil
}

// fontFamily strips a font file path down to the family name the
// subtitles filter expects.
func fontFamily(fontPath string) string {
	base := fontPath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", " ")
}

// namedColors covers the color names the config accepts alongside hex.
var namedColors = map[string]string{
	"white":   "FFFFFF",
	"black":   "000000",
	"yellow":  "FFFF00",
	"red":     "FF0000",
	"green":   "00FF00",
	"blue":    "0000FF",
	"cyan":    "00FFFF",
	"magenta": "FF00FF",
}

// assColor converts a color name or "#RRGGBB" to the &HAABBGGRR form
// libass uses. Anything unparsable passes through white.
func assColor(color string) string {
	hex := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(color)), "#")
	if named, ok := namedColors[hex]; ok {
		hex = named
	}
	if len(hex) != 6 {
		return "&H00FFFFFF"
	}
	r, g, b := hex[0:2], hex[2:4], hex[4:6]
	return "&H00" + strings.ToUpper(b+g+r)
}

func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
