package upload

import (
	"context"
	"fmt"
	"log"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Manager fans the finished video out to every platform. Each branch
// is isolated: one platform failing never blocks the others, and the
// report records every outcome.
type Manager struct {
	cfg       *config.Config
	youtube   *YouTubeUploader
	facebook  *FacebookUploader
	instagram *InstagramUploader
}

func New(cfg *config.Config) *Manager {
	return &Manager{
		cfg:       cfg,
		youtube:   NewYouTube(cfg),
		facebook:  NewFacebook(cfg),
		instagram: NewInstagram(cfg),
	}
}

// Run uploads to all platforms and returns one report line per
// platform. The script document is saved afterward so the YouTube URL
// survives.
func (m *Manager) Run(ctx context.Context, script *types.Script, scriptPath string) []string {
	video := script.CaptionsVideo
	if video == "" {
		video = script.FinalVideo
	}
	if video == "" {
		return []string{"uploads: FAIL no video to upload"}
	}

	var report []string

	if url, err := m.youtube.Upload(ctx, video, script); err != nil {
		log.Printf("[upload] YouTube failed: %v", err)
		report = append(report, fmt.Sprintf("YouTube: FAIL %v", err))
	} else {
		script.YouTubeURL = url
		if script.SocialMedia != nil {
			script.SocialMedia.YouTubeURL = url
		}
		report = append(report, fmt.Sprintf("YouTube: SUCCESS %s", url))
	}

	if id, err := m.facebook.Upload(ctx, video, script); err != nil {
		log.Printf("[upload] Facebook failed: %v", err)
		report = append(report, fmt.Sprintf("Facebook: FAIL %v", err))
	} else {
		report = append(report, fmt.Sprintf("Facebook: SUCCESS post %s", id))
	}

	if id, err := m.instagram.Upload(ctx, video, script); err != nil {
		log.Printf("[upload] Instagram failed: %v", err)
		report = append(report, fmt.Sprintf("Instagram: FAIL %v", err))
	} else {
		report = append(report, fmt.Sprintf("Instagram: SUCCESS media %s", id))
	}

	if err := script.Save(scriptPath); err != nil {
		log.Printf("[upload] saving script document: %v", err)
	}
	return report
}
