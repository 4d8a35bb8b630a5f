package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"shortform-pipeline/config"
	"shortform-pipeline/llm"
	"shortform-pipeline/types"
)

const enrichSystemPrompt = `You are a content strategist for a short-form video
channel. Given a finished script, you decide its presentation: tone, background
music, a consistent image style, and social media metadata.

You MUST respond with ONLY valid JSON with exactly these fields:
- "tone": one or two words for the emotional register
- "background_music_type": one tag for music search (e.g. "suspense", "calm",
  "uplifting")
- "image_style": one of the offered style names
- "style_reason": one sentence on why that style fits
- "social_media": {
    "title": string (max 90 chars, hook-first),
    "description": string (2-4 sentences plus 3-5 hashtags),
    "tags": array of 10-20 strings
  }`

type enrichmentJSON struct {
	Tone                string             `json:"tone"`
	BackgroundMusicType string             `json:"background_music_type"`
	ImageStyle          string             `json:"image_style"`
	StyleReason         string             `json:"style_reason"`
	SocialMedia         *types.SocialMedia `json:"social_media"`
}

// Enricher fills in the script's presentation fields: tone, music tag,
// image style and social metadata.
type Enricher struct {
	cfg    *config.Config
	client *llm.Client
}

func New(cfg *config.Config, client *llm.Client) *Enricher {
	return &Enricher{cfg: cfg, client: client}
}

// Run enriches the script document in place and saves it. Enrichment
// failure is soft: static fallbacks keep the pipeline moving.
func (e *Enricher) Run(ctx context.Context, script *types.Script, scriptPath string) error {
	log.Println("[social] Enriching script with tone, style and metadata...")

	enr := e.generate(ctx, script)
	if enr == nil {
		enr = fallbackEnrichment(script)
		log.Println("[social] Using static fallback metadata")
	}

	if script.Tone == "" {
		script.Tone = enr.Tone
	}
	if script.BackgroundMusicType == "" {
		script.BackgroundMusicType = enr.BackgroundMusicType
	}

	styleName, suffix := styleSuffix(enr.ImageStyle)
	script.Settings.ImageGenerationStyle = styleName
	script.Settings.StyleSelectionReason = enr.StyleReason
	script.SocialMedia = enr.SocialMedia

	// Apply the style uniformly to every visual prompt.
	for i := range script.Sections {
		for j := range script.Sections[i].Segments {
			v := &script.Sections[i].Segments[j].Visual
			v.Prompt = SanitizePrompt(v.Prompt, suffix)
		}
	}

	log.Printf("[social] tone=%q music=%q style=%q", script.Tone, script.BackgroundMusicType, styleName)
	return script.Save(scriptPath)
}

func (e *Enricher) generate(ctx context.Context, script *types.Script) *enrichmentJSON {
	var narration strings.Builder
	for _, sec := range script.Sections {
		for _, seg := range sec.Segments {
			if seg.Narration.Text != "" {
				narration.WriteString(seg.Narration.Text + " ")
			}
		}
	}

	user := fmt.Sprintf("Topic: %s\n\nFull narration:\n%s\nAvailable image styles: %s",
		script.Topic, narration.String(), strings.Join(StyleNames(), ", "))

	content, err := e.client.ChatJSON(ctx, enrichSystemPrompt, user, 0.8, 2048)
	if err != nil {
		log.Printf("[social] enrichment request: %v", err)
		return nil
	}
	var enr enrichmentJSON
	if err := json.Unmarshal([]byte(content), &enr); err != nil {
		log.Printf("[social] unparsable enrichment: %v", err)
		return nil
	}
	if enr.SocialMedia == nil || enr.SocialMedia.Title == "" {
		log.Println("[social] enrichment missing social metadata")
		return nil
	}
	return &enr
}

// fallbackEnrichment derives serviceable metadata from the topic alone.
func fallbackEnrichment(script *types.Script) *enrichmentJSON {
	tags := []string{"shorts", "facts", "didyouknow"}
	for _, w := range strings.Fields(strings.ToLower(script.Topic)) {
		w = strings.Trim(w, ".,!?:;\"'()-")
		if len(w) > 3 {
			tags = append(tags, w)
		}
	}
	return &enrichmentJSON{
		Tone:                "neutral",
		BackgroundMusicType: "calm",
		ImageStyle:          defaultStyle,
		StyleReason:         "default style",
		SocialMedia: &types.SocialMedia{
			Title:       script.Topic,
			Description: fmt.Sprintf("%s #shorts #facts", script.Topic),
			Tags:        tags,
		},
	}
}
