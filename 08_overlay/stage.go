package overlay

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	assembly "shortform-pipeline/06_assembly"
	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Renderer draws the channel's intro and outro text over the captioned
// video.
type Renderer struct {
	cfg   *config.Config
	probe assembly.Prober
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg, probe: assembly.MediaDuration}
}

// Run burns the overlays and points the document's upload video at the
// result. With no overlay text configured the stage is a no-op.
func (r *Renderer) Run(ctx context.Context, script *types.Script, scriptPath string) error {
	if r.cfg.Overlay.StartText == "" && r.cfg.Overlay.EndText == "" {
		log.Println("[overlay] no overlay text configured, skipping")
		return nil
	}
	src := script.CaptionsVideo
	if src == "" {
		src = script.FinalVideo
	}
	if src == "" {
		return fmt.Errorf("no video to overlay")
	}

	total, err := r.probe(src)
	if err != nil {
		return fmt.Errorf("probing video: %w", err)
	}

	var filters []string
	if r.cfg.Overlay.StartText != "" {
		filters = append(filters, r.drawText(
			r.cfg.Overlay.StartText, 0, r.cfg.Overlay.StartDuration))
	}
	if r.cfg.Overlay.EndText != "" {
		filters = append(filters, r.drawText(
			r.cfg.Overlay.EndText, total-r.cfg.Overlay.EndDuration, total))
	}

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	out := filepath.Join(r.cfg.Paths.Final, stem+"_overlay.mp4")

	err = ffmpeg.Input(src).
		Output(out, ffmpeg.KwArgs{
			"vf":  strings.Join(filters, ","),
			"c:v": "libx264",
			"crf": 20,
			"c:a": "copy",
		}).
		OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("rendering overlays: %w", err)
	}

	script.CaptionsVideo = out
	log.Printf("[overlay] overlays rendered: %s", out)
	return script.Save(scriptPath)
}

// drawText builds one drawtext filter: centered near the top, visible
// in [from, to] with a fade in and out.
func (r *Renderer) drawText(text string, from, to float64) string {
	if from < 0 {
		from = 0
	}
	fade := r.cfg.Overlay.FadeDuration
	alpha := fmt.Sprintf(
		"if(lt(t,%[1]f+%[2]f),(t-%[1]f)/%[2]f,if(gt(t,%[3]f-%[2]f),(%[3]f-t)/%[2]f,1))",
		from, fade, to)

	return fmt.Sprintf(
		"drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=white:borderw=3:bordercolor=black:"+
			"x=(w-text_w)/2:y=h*0.12:enable='between(t,%f,%f)':alpha='%s'",
		escapeDrawText(text), r.cfg.Captions.Font, r.cfg.Overlay.FontSize, from, to, alpha)
}

// escapeDrawText escapes the characters the drawtext filter treats
// specially.
func escapeDrawText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return s
}
