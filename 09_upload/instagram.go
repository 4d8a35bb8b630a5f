package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// InstagramUploader publishes the video as a Reel through the Graph
// API container flow: create a media container pointing at a publicly
// reachable video URL, poll until processed, then publish. The output
// directory must be served at upload.instagram_media_base for the
// container fetch to work.
type InstagramUploader struct {
	cfg        *config.Config
	httpClient *http.Client
	graphBase  string
}

func NewInstagram(cfg *config.Config) *InstagramUploader {
	return &InstagramUploader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		graphBase:  "https://graph.facebook.com",
	}
}

type containerStatus struct {
	StatusCode string `json:"status_code"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload runs the container flow and returns the published media id.
func (u *InstagramUploader) Upload(ctx context.Context, videoFile string, script *types.Script) (string, error) {
	userID := os.Getenv("IG_USER_ID")
	token := os.Getenv("IG_ACCESS_TOKEN")
	if userID == "" || token == "" {
		return "", fmt.Errorf("IG_USER_ID or IG_ACCESS_TOKEN not set")
	}
	if u.cfg.Upload.InstagramMediaBase == "" {
		return "", fmt.Errorf("upload.instagram_media_base not configured")
	}

	videoURL := strings.TrimRight(u.cfg.Upload.InstagramMediaBase, "/") + "/" + filepath.Base(videoFile)
	caption := script.Topic
	if script.SocialMedia != nil && script.SocialMedia.Description != "" {
		caption = script.SocialMedia.Description
	}

	containerID, err := u.createContainer(ctx, userID, token, videoURL, caption)
	if err != nil {
		return "", err
	}
	if err := u.waitForContainer(ctx, containerID, token); err != nil {
		return "", err
	}
	return u.publish(ctx, userID, token, containerID)
}

func (u *InstagramUploader) graphURL(path string, params url.Values) string {
	return fmt.Sprintf("%s/%s/%s?%s",
		u.graphBase, u.cfg.Upload.GraphAPIVersion, path, params.Encode())
}

func (u *InstagramUploader) createContainer(ctx context.Context, userID, token, videoURL, caption string) (string, error) {
	params := url.Values{
		"media_type":   {"REELS"},
		"video_url":    {videoURL},
		"caption":      {caption},
		"access_token": {token},
	}
	gr, err := u.post(ctx, u.graphURL(userID+"/media", params))
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}
	log.Printf("[upload] Instagram container created: %s", gr.ID)
	return gr.ID, nil
}

// waitForContainer polls the container until Instagram finishes
// fetching and transcoding the video.
func (u *InstagramUploader) waitForContainer(ctx context.Context, containerID, token string) error {
	interval := time.Duration(u.cfg.Upload.InstagramPollSeconds) * time.Second
	for attempt := 0; attempt < u.cfg.Upload.InstagramPollLimit; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		params := url.Values{
			"fields":       {"status_code"},
			"access_token": {token},
		}
		req, err := http.NewRequestWithContext(ctx, "GET", u.graphURL(containerID, params), nil)
		if err != nil {
			return err
		}
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("polling container: %w", err)
		}
		var cs containerStatus
		decErr := json.NewDecoder(resp.Body).Decode(&cs)
		resp.Body.Close()
		if decErr != nil {
			return fmt.Errorf("decoding container status: %w", decErr)
		}
		if cs.Error != nil {
			return fmt.Errorf("instagram: %s", cs.Error.Message)
		}

		switch cs.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("instagram container %s: %s", containerID, cs.StatusCode)
		}
	}
	return fmt.Errorf("instagram container %s not ready after %d polls", containerID, u.cfg.Upload.InstagramPollLimit)
}

func (u *InstagramUploader) publish(ctx context.Context, userID, token, containerID string) (string, error) {
	params := url.Values{
		"creation_id":  {containerID},
		"access_token": {token},
	}
	gr, err := u.post(ctx, u.graphURL(userID+"/media_publish", params))
	if err != nil {
		return "", fmt.Errorf("publishing reel: %w", err)
	}
	log.Printf("[upload] Instagram reel published: %s", gr.ID)
	return gr.ID, nil
}

func (u *InstagramUploader) post(ctx context.Context, fullURL string) (*graphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var gr graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if gr.Error != nil {
		return nil, fmt.Errorf("instagram: %s", gr.Error.Message)
	}
	if gr.ID == "" {
		return nil, fmt.Errorf("instagram returned no id (HTTP %d)", resp.StatusCode)
	}
	return &gr, nil
}
