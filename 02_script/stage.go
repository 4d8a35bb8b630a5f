package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"shortform-pipeline/config"
	"shortform-pipeline/llm"
	"shortform-pipeline/types"
)

const systemPrompt = `You are a scriptwriter for a short-form vertical video
channel. You write tight, punchy narration that fits exact time slots, plus
vivid image generation prompts for each beat.

You MUST respond with ONLY valid JSON matching the skeleton you are given —
same sections, same segments, same numbering. Fill in for every main segment:
- "narration.text": spoken words that fit the segment's duration at a natural
  pace (roughly 2.5 words per second)
- "visual.prompt": a detailed image generation prompt for that beat
- "sound.transition_effect": a one-or-two word sound effect tag (e.g. "whoosh",
  "riser", "boom")

Segue sections (half-numbered, e.g. 1.5) get NO narration text — leave it
empty — but still need a visual prompt and a transition effect.

Also fill the top-level fields:
- "topic": the topic restated
- "tone": the emotional register of the piece
- "background_music_type": one tag for music search (e.g. "suspense", "calm")`

// Writer turns a topic plan into a full script document.
type Writer struct {
	cfg    *config.Config
	client *llm.Client
}

func New(cfg *config.Config, client *llm.Client) *Writer {
	return &Writer{cfg: cfg, client: client}
}

// Run generates the script, writes it to the scripts directory and
// returns the document plus its path.
func (w *Writer) Run(ctx context.Context, plan *types.Plan) (*types.Script, string, error) {
	log.Printf("[script] Writing script for %q...", plan.Title)

	skeleton := &types.Script{
		Topic: plan.Title,
		Settings: types.Settings{
			VideoSize:          plan.Resolution,
			UseTransitions:     true,
			UseBackgroundMusic: true,
		},
		Sections: buildSkeleton(plan, w.cfg.Script),
	}
	skeletonJSON, err := json.MarshalIndent(skeleton, "", "  ")
	if err != nil {
		return nil, "", err
	}

	user := fmt.Sprintf("Topic: %s\n\nFill in this script skeleton:\n%s", plan.Title, skeletonJSON)
	content, err := w.client.ChatJSON(ctx, systemPrompt, user, w.cfg.Script.Temperature, w.cfg.Script.MaxTokens)
	if err != nil {
		return nil, "", fmt.Errorf("script generation: %w", err)
	}

	var s types.Script
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		snippet := content
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, "", fmt.Errorf("parse script JSON: %w\nraw content: %s", err, snippet)
	}
	normalize(&s, skeleton)
	if err := s.Validate(); err != nil {
		return nil, "", fmt.Errorf("generated script invalid: %w", err)
	}

	if err := os.MkdirAll(w.cfg.Paths.Scripts, 0o755); err != nil {
		return nil, "", err
	}
	path := filepath.Join(w.cfg.Paths.Scripts, uuid.NewString()+".json")
	if err := s.Save(path); err != nil {
		return nil, "", fmt.Errorf("saving script: %w", err)
	}

	log.Printf("[script] Script ready: %d sections -> %s", len(s.Sections), path)
	return &s, path, nil
}

// normalize repairs what models commonly drift on: it restores the
// planned durations and numbering from the skeleton, blanks segue
// narration, and backfills top-level fields.
func normalize(s *types.Script, skeleton *types.Script) {
	if s.Topic == "" {
		s.Topic = skeleton.Topic
	}
	if s.Settings.VideoSize == "" {
		s.Settings = skeleton.Settings
	}

	if len(s.Sections) != len(skeleton.Sections) {
		return // validation will reject; nothing sensible to repair
	}
	for i := range s.Sections {
		sec := &s.Sections[i]
		ref := &skeleton.Sections[i]
		sec.SectionNumber = ref.SectionNumber
		sec.SectionDuration = ref.SectionDuration
		if len(sec.Segments) != len(ref.Segments) {
			continue
		}
		for j := range sec.Segments {
			seg := &sec.Segments[j]
			seg.SegmentNumber = ref.Segments[j].SegmentNumber
			seg.Narration.Duration = ref.Segments[j].Narration.Duration
			seg.Visual.Duration = ref.Segments[j].Visual.Duration
			if seg.Visual.Type == "" {
				seg.Visual.Type = "image"
			}
			if sec.IsSegue() {
				seg.Narration.Text = ""
			} else {
				seg.Narration.Text = strings.TrimSpace(seg.Narration.Text)
			}
		}
	}
}
