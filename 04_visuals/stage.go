package visuals

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Fetcher renders every segment's image and, when configured, runs
// each through the upscaler.
type Fetcher struct {
	cfg      *config.Config
	client   *ImageClient
	upscaler *Upscaler
}

func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		cfg:      cfg,
		client:   NewImageClient(cfg.Visuals),
		upscaler: NewUpscaler(cfg.Visuals.UpscaleURL),
	}
}

// Run generates images for all segments and records their paths in the
// script document. Already-rendered images are reused, so an aborted
// run resumes where it stopped.
func (f *Fetcher) Run(ctx context.Context, script *types.Script, scriptPath string) error {
	if f.cfg.Visuals.GenerateURL == "" {
		return fmt.Errorf("visuals.generate_url not configured")
	}
	if err := os.MkdirAll(f.cfg.Paths.Visuals, 0o755); err != nil {
		return err
	}

	total, rendered := 0, 0
	for i := range script.Sections {
		sec := &script.Sections[i]
		for j := range sec.Segments {
			seg := &sec.Segments[j]
			if seg.Visual.Prompt == "" {
				log.Printf("[visuals] section %v segment %d has no prompt, skipping",
					sec.SectionNumber, seg.SegmentNumber)
				continue
			}
			total++

			out := filepath.Join(f.cfg.Paths.Visuals,
				fmt.Sprintf("sec%03.1f_seg%02d.png", sec.SectionNumber, seg.SegmentNumber))
			if _, err := os.Stat(out); err == nil {
				seg.Visual.ImagePath = out
				continue
			}

			log.Printf("[visuals] rendering section %v segment %d...", sec.SectionNumber, seg.SegmentNumber)
			if err := f.client.Generate(ctx, seg.Visual.Prompt, out); err != nil {
				return fmt.Errorf("section %v segment %d: %w", sec.SectionNumber, seg.SegmentNumber, err)
			}
			if f.upscaler.Enabled() {
				if err := f.upscaler.Upscale(ctx, out); err != nil {
					log.Printf("[visuals] upscale failed, keeping original: %v", err)
				}
			}
			seg.Visual.ImagePath = out
			rendered++
		}
	}

	log.Printf("[visuals] %d images ready (%d newly rendered)", total, rendered)
	return script.Save(scriptPath)
}

// Thumbnails renders the YouTube and social thumbnails from the social
// metadata. Missing metadata falls back to the first segment's prompt.
func (f *Fetcher) Thumbnails(ctx context.Context, script *types.Script, scriptPath string) error {
	prompt := firstPrompt(script)
	if prompt == "" {
		log.Println("[visuals] no prompt available for thumbnails, skipping")
		return nil
	}
	base := fmt.Sprintf("%s, bold composition, space for title text, thumbnail", prompt)

	ytPath := filepath.Join(f.cfg.Paths.Visuals, "thumbnail_youtube.png")
	socialPath := filepath.Join(f.cfg.Paths.Visuals, "thumbnail_social.png")

	if err := f.client.Generate(ctx, base, ytPath); err != nil {
		return fmt.Errorf("youtube thumbnail: %w", err)
	}
	if err := f.client.Generate(ctx, base, socialPath); err != nil {
		return fmt.Errorf("social thumbnail: %w", err)
	}

	script.Thumbnails = &types.Thumbnails{YouTube: ytPath, Social: socialPath}
	log.Println("[visuals] thumbnails ready")
	return script.Save(scriptPath)
}

func firstPrompt(script *types.Script) string {
	for _, sec := range script.Sections {
		for _, seg := range sec.Segments {
			if seg.Visual.Prompt != "" {
				return seg.Visual.Prompt
			}
		}
	}
	return ""
}
