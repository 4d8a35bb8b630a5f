package assembly

import (
	"fmt"
	"os"

	"shortform-pipeline/types"
)

// Timing constants for the composed video.
const (
	// FadeOutDuration is the background-music fade at the very end.
	FadeOutDuration = 1.0
	// FadeInDuration is the background-music fade at the start.
	FadeInDuration = FadeOutDuration * 0.5
	// NarrationInitialDelay pushes the very first narration clip back so
	// the opening visual lands fractionally before speech begins. It is
	// applied exactly once per document, not per section.
	NarrationInitialDelay = 0.25
	// EndExtension holds the final frame briefly after narration ends.
	EndExtension = 0.5
	// StingerMaxLen truncates transition stingers.
	StingerMaxLen = 0.5
	// StingerLeadIn schedules a stinger shortly before its segment ends.
	StingerLeadIn = 0.1
	// StingerFadeOut is the fade applied to a truncated stinger.
	StingerFadeOut = 0.3
	// ClipTailFade is the short fade at the tail of every visual clip.
	ClipTailFade = 0.15
)

// VisualClip is one image placed on the timeline.
type VisualClip struct {
	ImagePath string
	Start     float64
	Duration  float64
}

// AudioTrack is one independently positioned audio element.
type AudioTrack struct {
	Path  string // empty for stingers until the fetcher resolves them
	Start float64
}

// StingerTrack schedules a transition sound by effect tag; the
// compositor resolves the tag to a file at render time.
type StingerTrack struct {
	Effect string
	Start  float64
}

// Timeline is the absolute-time placement of every element consumed by
// the compositor.
type Timeline struct {
	Visuals    []VisualClip
	Narrations []AudioTrack
	Stingers   []StingerTrack

	// VisualEnd is the end of the last visual clip; AudioEnd is the
	// latest narration end time. Total is the composed duration:
	// max(VisualEnd, AudioEnd + EndExtension).
	VisualEnd float64
	AudioEnd  float64
	Total     float64
}

// BuildTimeline walks the script's sections and segments and computes
// an absolute start time and duration for every visual and narration
// clip. A segment whose audio or image file is missing on disk skips
// that modality but still advances the cursor by its planned duration,
// so downstream segments keep their positions.
func BuildTimeline(script *types.Script, probe Prober) (*Timeline, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}

	tl := &Timeline{}
	// The whole timeline is shifted by the initial delay; the first
	// visual clip stretches back to cover it so the video opens on a
	// frame, not on silence over black.
	cursor := NarrationInitialDelay

	lastSec := len(script.Sections) - 1
	for si := range script.Sections {
		sec := &script.Sections[si]
		lastSeg := len(sec.Segments) - 1
		for gi := range sec.Segments {
			seg := &sec.Segments[gi]

			dur := seg.Narration.Duration
			if ap := seg.Narration.AudioPath; ap != "" && fileExists(ap) {
				if measured, err := probe(ap); err == nil && measured > 0 {
					dur = measured // rendered audio is authoritative
				}
				tl.Narrations = append(tl.Narrations, AudioTrack{Path: ap, Start: cursor})
				if end := cursor + dur; end > tl.AudioEnd {
					tl.AudioEnd = end
				}
			}

			if img := seg.Visual.ImagePath; img != "" && fileExists(img) {
				extStart := 0.0
				if len(tl.Visuals) == 0 {
					extStart = NarrationInitialDelay
				}
				extEnd := 0.0
				if si == lastSec && gi == lastSeg {
					extEnd = EndExtension
				}
				tl.Visuals = append(tl.Visuals, VisualClip{
					ImagePath: img,
					Start:     cursor - extStart,
					Duration:  dur + extStart + extEnd,
				})
			}

			if script.Settings.UseTransitions {
				start := cursor + dur - StingerLeadIn
				if start < 0 {
					start = 0
				}
				tl.Stingers = append(tl.Stingers, StingerTrack{
					Effect: seg.Sound.TransitionEffect,
					Start:  start,
				})
			}

			cursor += dur
		}
	}

	if len(tl.Visuals) == 0 {
		return nil, fmt.Errorf("no clips to assemble")
	}

	for _, c := range tl.Visuals {
		if end := c.Start + c.Duration; end > tl.VisualEnd {
			tl.VisualEnd = end
		}
	}
	tl.Total = tl.VisualEnd
	if end := tl.AudioEnd + EndExtension; end > tl.Total {
		tl.Total = end
	}
	return tl, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
