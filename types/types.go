package types

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Plan describes one planned video, produced by the topic stage and
// consumed by the pipeline driver.
type Plan struct {
	Title      string    `json:"title"`
	Resolution string    `json:"resolution"`
	Structure  Structure `json:"structure"`
}

type Structure struct {
	Length             int `json:"length"`
	Sections           int `json:"sections"`
	SegmentsPerSection int `json:"segments_per_section"`
}

// Script is the central document threaded through every pipeline stage.
// Each stage fills in its fields and rewrites the JSON file in place.
type Script struct {
	Topic               string       `json:"topic,omitempty"`
	Tone                string       `json:"tone,omitempty"`
	BackgroundMusicType string       `json:"background_music_type,omitempty"`
	Settings            Settings     `json:"settings"`
	Sections            []Section    `json:"sections"`
	SocialMedia         *SocialMedia `json:"social_media,omitempty"`
	Thumbnails          *Thumbnails  `json:"thumbnails,omitempty"`
	RawVideo            string       `json:"raw_video,omitempty"`
	FinalVideo          string       `json:"final_video,omitempty"`
	CaptionsVideo       string       `json:"captions_video,omitempty"`
	YouTubeURL          string       `json:"youtube_url,omitempty"`
}

// Settings are script-level rendering knobs, generated once by the
// script stage and read by assembly.
type Settings struct {
	VideoSize            string  `json:"video_size"`
	UseTransitions       bool    `json:"use_transitions"`
	UseBackgroundMusic   bool    `json:"use_background_music"`
	TransitionVolume     float64 `json:"transition_volume"`
	BGMusicVolume        float64 `json:"bg_music_volume"`
	ImageGenerationStyle string  `json:"image_generation_style,omitempty"`
	StyleSelectionReason string  `json:"style_selection_reason,omitempty"`
}

// Section groups consecutive segments. Segue sections carry a
// half-integer section number (e.g. 1.5) and exactly one segment with
// empty narration.
type Section struct {
	SectionNumber   float64   `json:"section_number"`
	Title           string    `json:"title"`
	SectionDuration float64   `json:"section_duration"`
	Segments        []Segment `json:"segments"`
}

// IsSegue reports whether the section is a transition between two
// content sections.
func (s *Section) IsSegue() bool {
	return s.SectionNumber != math.Trunc(s.SectionNumber)
}

// Segment is the atomic timeline unit: one narration line, one still
// image, one transition stinger tag.
type Segment struct {
	SegmentNumber int       `json:"segment_number"`
	Narration     Narration `json:"narration"`
	Visual        Visual    `json:"visual"`
	Sound         Sound     `json:"sound"`
}

type Narration struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	AudioPath string  `json:"audio_path,omitempty"`
}

type Visual struct {
	Type      string  `json:"type"`
	Prompt    string  `json:"prompt"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	ImagePath string  `json:"image_path,omitempty"`
}

type Sound struct {
	TransitionEffect string `json:"transition_effect"`
}

type SocialMedia struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	YouTubeURL  string   `json:"youtube_url,omitempty"`
}

type Thumbnails struct {
	YouTube string `json:"youtube,omitempty"`
	Social  string `json:"social,omitempty"`
}

// Caption is one rendered caption group, derived from a transcription.
// It is never persisted in the script document.
type Caption struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// VideoSize parses the "WxH" settings value, falling back to the given
// dimensions when the value is absent or malformed.
func (s *Settings) VideoSizeOr(defW, defH int) (int, int) {
	parts := strings.SplitN(s.VideoSize, "x", 2)
	if len(parts) != 2 {
		return defW, defH
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return defW, defH
	}
	return w, h
}

// Validate checks the structural invariants every stage relies on.
// Stages call this at their boundary instead of tolerating a malformed
// document.
func (s *Script) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("script has no sections")
	}
	for i := range s.Sections {
		sec := &s.Sections[i]
		if len(sec.Segments) == 0 {
			return fmt.Errorf("section %v has no segments", sec.SectionNumber)
		}
		if sec.IsSegue() {
			if len(sec.Segments) != 1 {
				return fmt.Errorf("segue section %v has %d segments, want 1", sec.SectionNumber, len(sec.Segments))
			}
			if strings.TrimSpace(sec.Segments[0].Narration.Text) != "" {
				return fmt.Errorf("segue section %v has narration text", sec.SectionNumber)
			}
		}
		for j := range sec.Segments {
			seg := &sec.Segments[j]
			if seg.Narration.Duration < 0 || seg.Visual.Duration < 0 {
				return fmt.Errorf("section %v segment %d has negative duration", sec.SectionNumber, seg.SegmentNumber)
			}
		}
	}
	return nil
}

// Load reads and validates a script document from disk.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script %s: %w", path, err)
	}
	return &s, nil
}

// Save rewrites the script document in place as indented JSON.
func (s *Script) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// LoadPlan reads a video plan produced by the topic stage.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if p.Structure.Sections <= 0 || p.Structure.SegmentsPerSection <= 0 {
		return nil, fmt.Errorf("plan %s has an empty structure", path)
	}
	return &p, nil
}

// SavePlan writes a plan as indented JSON.
func (p *Plan) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
