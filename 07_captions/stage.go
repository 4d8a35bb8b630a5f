package captions

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Generator is the caption stage: transcribe the assembled video, fit
// the words into styled caption blocks, and burn them in.
type Generator struct {
	cfg         *config.Config
	transcriber Transcriber
	measurer    Measurer
}

func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:         cfg,
		transcriber: NewWhisperClient(cfg.Captions.WhisperURL),
		measurer:    NewMeasurer(cfg.Captions.Font, cfg.Captions.FontSize),
	}
}

// Run produces the captioned video and records its path in the script
// document. A transcription with no usable captions is not an error;
// the uncaptioned video is carried forward instead.
func (g *Generator) Run(ctx context.Context, script *types.Script, scriptPath string) error {
	if script.FinalVideo == "" {
		return fmt.Errorf("no final video to caption")
	}

	segments, err := g.transcriber.Transcribe(ctx, script.FinalVideo)
	if err != nil {
		return fmt.Errorf("transcribing: %w", err)
	}

	videoW, videoH := script.Settings.VideoSizeOr(g.cfg.Video.Width, g.cfg.Video.Height)
	boxWidth := g.cfg.Captions.BoxWidthFrac * float64(videoW)

	tokens := WordTokens(segments)
	blocks := BuildCaptions(tokens, g.cfg.Captions.MaxWordsPerCaption, boxWidth, g.measurer)
	if len(blocks) == 0 {
		log.Println("[captions] No captions produced, keeping uncaptioned video")
		script.CaptionsVideo = script.FinalVideo
		return script.Save(scriptPath)
	}
	log.Printf("[captions] %d words fitted into %d caption blocks", len(tokens), len(blocks))

	stem := strings.TrimSuffix(filepath.Base(script.FinalVideo), filepath.Ext(script.FinalVideo))
	srtPath := filepath.Join(g.cfg.Paths.Final, stem+".srt")
	if err := WriteSRT(blocks, srtPath); err != nil {
		return fmt.Errorf("writing srt: %w", err)
	}

	outPath := filepath.Join(g.cfg.Paths.Final, stem+"_captions.mp4")
	if err := Burn(script.FinalVideo, srtPath, outPath, g.cfg.Captions, videoH); err != nil {
		return err
	}
	script.CaptionsVideo = outPath

	log.Printf("[captions] Captioned video ready: %s", outPath)
	return script.Save(scriptPath)
}
