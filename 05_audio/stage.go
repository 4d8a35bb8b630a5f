package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	assembly "shortform-pipeline/06_assembly"
	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Generator renders narration audio through the TTS service and
// overwrites the planned segment durations with the measured ones.
// From this stage on, rendered audio is the timing authority.
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
	probe      assembly.Prober
}

func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		probe:      assembly.MediaDuration,
	}
}

type ttsRequest struct {
	Text     string `json:"text"`
	Speaker  string `json:"speaker,omitempty"`
	Language string `json:"language,omitempty"`
}

// Run synthesizes audio for every narrated segment. Segues have no
// narration and are skipped. Existing audio files are reused so an
// aborted run resumes.
func (g *Generator) Run(ctx context.Context, script *types.Script, scriptPath string) error {
	if g.cfg.TTS.BaseURL == "" {
		return fmt.Errorf("tts.base_url not configured")
	}
	if err := os.MkdirAll(g.cfg.Paths.Audio, 0o755); err != nil {
		return err
	}

	count := 0
	for i := range script.Sections {
		sec := &script.Sections[i]
		if sec.IsSegue() {
			continue
		}
		for j := range sec.Segments {
			seg := &sec.Segments[j]
			if seg.Narration.Text == "" {
				continue
			}

			out := filepath.Join(g.cfg.Paths.Audio,
				fmt.Sprintf("sec%03.1f_seg%02d.wav", sec.SectionNumber, seg.SegmentNumber))
			if _, err := os.Stat(out); err != nil {
				log.Printf("[audio] synthesizing section %v segment %d...", sec.SectionNumber, seg.SegmentNumber)
				if err := g.synthesize(ctx, seg.Narration.Text, out); err != nil {
					return fmt.Errorf("section %v segment %d: %w", sec.SectionNumber, seg.SegmentNumber, err)
				}
			}
			seg.Narration.AudioPath = out
			count++

			if dur, err := g.probe(out); err == nil && dur > 0 {
				seg.Narration.Duration = dur
			} else if err != nil {
				log.Printf("[audio] could not measure %s, keeping planned duration: %v", out, err)
			}
		}
	}

	log.Printf("[audio] %d narration clips ready", count)
	return script.Save(scriptPath)
}

// synthesize posts the text and streams the WAV response to disk,
// retrying transient failures.
func (g *Generator) synthesize(ctx context.Context, text, outFile string) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = g.synthesizeOnce(ctx, text, outFile)
		if err == nil {
			return nil
		}
		log.Printf("[audio] TTS attempt %d failed: %v", attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
	return err
}

func (g *Generator) synthesizeOnce(ctx context.Context, text, outFile string) error {
	reqBody, err := json.Marshal(ttsRequest{
		Text:     text,
		Speaker:  g.cfg.TTS.Speaker,
		Language: g.cfg.TTS.Language,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.cfg.TTS.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tts service: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	tmp := outFile + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing audio: %w", err)
	}
	if n < 100 {
		os.Remove(tmp)
		return fmt.Errorf("tts returned %d bytes", n)
	}
	return os.Rename(tmp, outFile)
}
